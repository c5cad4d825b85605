package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// ==================== Decimal helpers ====================

func toDecimal128(d decimal.Decimal) bson.Decimal128 {
	v, err := bson.ParseDecimal128(d.String())
	if err != nil {
		// decimal.Decimal always renders a parseable string
		panic(err)
	}
	return v
}

func fromDecimal128(v bson.Decimal128) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v.String())
}

func toNullDecimal128(d decimal.NullDecimal) *bson.Decimal128 {
	if !d.Valid {
		return nil
	}
	v := toDecimal128(d.Decimal)
	return &v
}

func fromNullDecimal128(v *bson.Decimal128) (decimal.NullDecimal, error) {
	if v == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := fromDecimal128(*v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// ==================== Tenant models ====================

type tenantModel struct {
	ID           string          `bson:"_id"`
	OwnerID      string          `bson:"owner_id"`
	Name         string          `bson:"name"`
	NameKey      string          `bson:"name_key"`
	BusinessType string          `bson:"business_type"`
	Stage        string          `bson:"stage"`
	Location     string          `bson:"location"`
	Capital      bson.Decimal128 `bson:"capital"`
	Currency     string          `bson:"currency"`
	OwnerName    string          `bson:"owner_name"`
	Email        string          `bson:"email,omitempty"`
	Phone        string          `bson:"phone,omitempty"`
	Address      string          `bson:"address,omitempty"`
	Website      string          `bson:"website,omitempty"`
	LogoRef      string          `bson:"logo_ref,omitempty"`
	CreatedAt    time.Time       `bson:"created_at"`
	UpdatedAt    time.Time       `bson:"updated_at"`
}

func toTenantModel(t *tenant.Tenant) *tenantModel {
	return &tenantModel{
		ID:           t.ID.String(),
		OwnerID:      t.OwnerID,
		Name:         t.Name,
		NameKey:      t.NameKey(),
		BusinessType: t.BusinessType,
		Stage:        t.Stage,
		Location:     t.Location,
		Capital:      toDecimal128(t.Capital),
		Currency:     t.Currency,
		OwnerName:    t.OwnerName,
		Email:        t.Email,
		Phone:        t.Phone,
		Address:      t.Address,
		Website:      t.Website,
		LogoRef:      t.LogoRef,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func fromTenantModel(m *tenantModel) (*tenant.Tenant, error) {
	tenantID, err := id.ParseTenantID(m.ID)
	if err != nil {
		return nil, err
	}
	capital, err := fromDecimal128(m.Capital)
	if err != nil {
		return nil, err
	}
	return &tenant.Tenant{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:           tenantID,
		OwnerID:      m.OwnerID,
		Name:         m.Name,
		BusinessType: m.BusinessType,
		Stage:        m.Stage,
		Location:     m.Location,
		Capital:      capital,
		Currency:     m.Currency,
		OwnerName:    m.OwnerName,
		Email:        m.Email,
		Phone:        m.Phone,
		Address:      m.Address,
		Website:      m.Website,
		LogoRef:      m.LogoRef,
	}, nil
}

// ==================== Shift models ====================

type totalsModel struct {
	SalesCount   int             `bson:"sales_count"`
	Gross        bson.Decimal128 `bson:"gross"`
	Cash         bson.Decimal128 `bson:"cash"`
	Card         bson.Decimal128 `bson:"card"`
	MobileMoney  bson.Decimal128 `bson:"mobile_money"`
	BankTransfer bson.Decimal128 `bson:"bank_transfer"`
	Other        bson.Decimal128 `bson:"other"`
	Discounts    bson.Decimal128 `bson:"discounts"`
	RefundCount  int             `bson:"refund_count"`
	Refunds      bson.Decimal128 `bson:"refunds"`
	CashRefunds  bson.Decimal128 `bson:"cash_refunds"`
	Net          bson.Decimal128 `bson:"net"`
	OpeningCash  bson.Decimal128 `bson:"opening_cash"`
	ExpectedCash bson.Decimal128 `bson:"expected_cash"`
	Currency     string          `bson:"currency,omitempty"`
	Excluded     int             `bson:"excluded,omitempty"`
}

func toTotalsModel(t *reconcile.Totals) *totalsModel {
	if t == nil {
		return nil
	}
	return &totalsModel{
		SalesCount:   t.SalesCount,
		Gross:        toDecimal128(t.Gross),
		Cash:         toDecimal128(t.Cash),
		Card:         toDecimal128(t.Card),
		MobileMoney:  toDecimal128(t.MobileMoney),
		BankTransfer: toDecimal128(t.BankTransfer),
		Other:        toDecimal128(t.Other),
		Discounts:    toDecimal128(t.Discounts),
		RefundCount:  t.RefundCount,
		Refunds:      toDecimal128(t.Refunds),
		CashRefunds:  toDecimal128(t.CashRefunds),
		Net:          toDecimal128(t.Net),
		OpeningCash:  toDecimal128(t.OpeningCash),
		ExpectedCash: toDecimal128(t.ExpectedCash),
		Currency:     t.Currency,
		Excluded:     t.Excluded,
	}
}

func fromTotalsModel(m *totalsModel) (*reconcile.Totals, error) {
	if m == nil {
		return nil, nil //nolint:nilnil // an open shift has no totals
	}
	t := &reconcile.Totals{
		SalesCount:  m.SalesCount,
		RefundCount: m.RefundCount,
		Currency:    m.Currency,
		Excluded:    m.Excluded,
	}
	fields := []struct {
		dst *decimal.Decimal
		src bson.Decimal128
	}{
		{&t.Gross, m.Gross},
		{&t.Cash, m.Cash},
		{&t.Card, m.Card},
		{&t.MobileMoney, m.MobileMoney},
		{&t.BankTransfer, m.BankTransfer},
		{&t.Other, m.Other},
		{&t.Discounts, m.Discounts},
		{&t.Refunds, m.Refunds},
		{&t.CashRefunds, m.CashRefunds},
		{&t.Net, m.Net},
		{&t.OpeningCash, m.OpeningCash},
		{&t.ExpectedCash, m.ExpectedCash},
	}
	for _, f := range fields {
		d, err := fromDecimal128(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}
	return t, nil
}

type shiftModel struct {
	ID              string           `bson:"_id"`
	TenantID        string           `bson:"tenant_id"`
	BusinessDate    string           `bson:"business_date"`
	Status          string           `bson:"status"`
	Currency        string           `bson:"currency"`
	OpeningCash     bson.Decimal128  `bson:"opening_cash"`
	OpenedBy        string           `bson:"opened_by"`
	OpenedAt        time.Time        `bson:"opened_at"`
	ClosedBy        string           `bson:"closed_by,omitempty"`
	ClosedAt        *time.Time       `bson:"closed_at,omitempty"`
	Totals          *totalsModel     `bson:"totals,omitempty"`
	ClosingCash     *bson.Decimal128 `bson:"closing_cash,omitempty"`
	ActualCash      *bson.Decimal128 `bson:"actual_cash,omitempty"`
	CashDiscrepancy *bson.Decimal128 `bson:"cash_discrepancy,omitempty"`
	CloseRef        string           `bson:"close_ref,omitempty"`
	CreatedAt       time.Time        `bson:"created_at"`
	UpdatedAt       time.Time        `bson:"updated_at"`
}

func toShiftModel(s *shift.Shift) *shiftModel {
	m := &shiftModel{
		ID:              s.ID.String(),
		TenantID:        s.TenantID.String(),
		BusinessDate:    s.Date.String(),
		Status:          string(s.Status),
		Currency:        s.Currency,
		OpeningCash:     toDecimal128(s.OpeningCash),
		OpenedBy:        s.OpenedBy,
		OpenedAt:        s.OpenedAt,
		ClosedBy:        s.ClosedBy,
		ClosedAt:        s.ClosedAt,
		Totals:          toTotalsModel(s.Totals),
		ClosingCash:     toNullDecimal128(s.ClosingCash),
		ActualCash:      toNullDecimal128(s.ActualCash),
		CashDiscrepancy: toNullDecimal128(s.CashDiscrepancy),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if !s.CloseRef.IsNil() {
		m.CloseRef = s.CloseRef.String()
	}
	return m
}

func fromShiftModel(m *shiftModel) (*shift.Shift, error) {
	shiftID, err := id.ParseShiftID(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := id.ParseTenantID(m.TenantID)
	if err != nil {
		return nil, err
	}
	date, err := types.ParseDate(m.BusinessDate)
	if err != nil {
		return nil, err
	}
	opening, err := fromDecimal128(m.OpeningCash)
	if err != nil {
		return nil, err
	}
	totals, err := fromTotalsModel(m.Totals)
	if err != nil {
		return nil, err
	}

	s := &shift.Shift{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:          shiftID,
		TenantID:    tenantID,
		Date:        date,
		Status:      shift.Status(m.Status),
		Currency:    m.Currency,
		OpeningCash: opening,
		OpenedBy:    m.OpenedBy,
		OpenedAt:    m.OpenedAt.UTC(),
		ClosedBy:    m.ClosedBy,
		Totals:      totals,
	}
	if m.ClosedAt != nil {
		at := m.ClosedAt.UTC()
		s.ClosedAt = &at
	}
	if s.ClosingCash, err = fromNullDecimal128(m.ClosingCash); err != nil {
		return nil, err
	}
	if s.ActualCash, err = fromNullDecimal128(m.ActualCash); err != nil {
		return nil, err
	}
	if s.CashDiscrepancy, err = fromNullDecimal128(m.CashDiscrepancy); err != nil {
		return nil, err
	}
	if m.CloseRef != "" {
		if s.CloseRef, err = id.ParseCloseRef(m.CloseRef); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ==================== Sale models ====================

type saleModel struct {
	ID           string          `bson:"_id"`
	TenantID     string          `bson:"tenant_id"`
	BusinessDate string          `bson:"business_date"`
	Number       string          `bson:"number"`
	Kind         string          `bson:"kind"`
	Status       string          `bson:"status"`
	Method       string          `bson:"method"`
	Total        bson.Decimal128 `bson:"total"`
	Discount     bson.Decimal128 `bson:"discount"`
	Currency     string          `bson:"currency"`
	CreatedAt    time.Time       `bson:"created_at"`
}

func toSaleModel(s *sales.Sale) *saleModel {
	return &saleModel{
		ID:           s.ID.String(),
		TenantID:     s.TenantID.String(),
		BusinessDate: s.Date.String(),
		Number:       s.Number,
		Kind:         string(s.Kind),
		Status:       string(s.Status),
		Method:       string(s.Method),
		Total:        toDecimal128(s.Total),
		Discount:     toDecimal128(s.Discount),
		Currency:     s.Currency,
		CreatedAt:    s.CreatedAt,
	}
}

func fromSaleModel(m *saleModel) (*sales.Sale, error) {
	saleID, err := id.ParseSaleID(m.ID)
	if err != nil {
		return nil, err
	}
	tenantID, err := id.ParseTenantID(m.TenantID)
	if err != nil {
		return nil, err
	}
	date, err := types.ParseDate(m.BusinessDate)
	if err != nil {
		return nil, err
	}
	total, err := fromDecimal128(m.Total)
	if err != nil {
		return nil, err
	}
	discount, err := fromDecimal128(m.Discount)
	if err != nil {
		return nil, err
	}
	return &sales.Sale{
		ID:        saleID,
		TenantID:  tenantID,
		Date:      date,
		Number:    m.Number,
		Kind:      sales.Kind(m.Kind),
		Status:    sales.Status(m.Status),
		Method:    sales.Method(m.Method),
		Total:     total,
		Discount:  discount,
		Currency:  m.Currency,
		CreatedAt: m.CreatedAt.UTC(),
	}, nil
}

// ==================== Plan models ====================

type planModel struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Slug        string            `bson:"slug"`
	Description string            `bson:"description"`
	Status      string            `bson:"status"`
	TrialDays   int               `bson:"trial_days"`
	Features    []featureModel    `bson:"features"`
	Metadata    map[string]string `bson:"metadata,omitempty"`
	CreatedAt   time.Time         `bson:"created_at"`
	UpdatedAt   time.Time         `bson:"updated_at"`
}

type featureModel struct {
	ID       string            `bson:"id"`
	Key      string            `bson:"key"`
	Name     string            `bson:"name"`
	Type     string            `bson:"type"`
	Limit    int64             `bson:"limit"`
	Metadata map[string]string `bson:"metadata,omitempty"`
}

func toPlanModel(p *plan.Plan) *planModel {
	features := make([]featureModel, len(p.Features))
	for i, f := range p.Features {
		features[i] = featureModel{
			Key:      f.Key,
			Name:     f.Name,
			Type:     string(f.Type),
			Limit:    f.Limit,
			Metadata: f.Metadata,
		}
		if !f.ID.IsNil() {
			features[i].ID = f.ID.String()
		}
	}
	return &planModel{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Status:      string(p.Status),
		TrialDays:   p.TrialDays,
		Features:    features,
		Metadata:    p.Metadata,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	planID, err := id.ParsePlanID(m.ID)
	if err != nil {
		return nil, err
	}
	features := make([]plan.Feature, len(m.Features))
	for i, f := range m.Features {
		features[i] = plan.Feature{
			Key:      f.Key,
			Name:     f.Name,
			Type:     plan.FeatureType(f.Type),
			Limit:    f.Limit,
			Metadata: f.Metadata,
		}
		if f.ID != "" {
			if features[i].ID, err = id.ParseFeatureID(f.ID); err != nil {
				return nil, err
			}
		}
	}
	return &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:          planID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		Status:      plan.Status(m.Status),
		TrialDays:   m.TrialDays,
		Features:    features,
		Metadata:    m.Metadata,
	}, nil
}

// ==================== Subscription models ====================

type subscriptionModel struct {
	ID                 string            `bson:"_id"`
	UserID             string            `bson:"user_id"`
	PlanID             string            `bson:"plan_id"`
	Status             string            `bson:"status"`
	CurrentPeriodStart time.Time         `bson:"current_period_start"`
	CurrentPeriodEnd   time.Time         `bson:"current_period_end"`
	CanceledAt         *time.Time        `bson:"canceled_at,omitempty"`
	ProviderRef        string            `bson:"provider_ref,omitempty"`
	Metadata           map[string]string `bson:"metadata,omitempty"`
	CreatedAt          time.Time         `bson:"created_at"`
	UpdatedAt          time.Time         `bson:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		ID:                 s.ID.String(),
		UserID:             s.UserID,
		PlanID:             s.PlanID.String(),
		Status:             string(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CanceledAt:         s.CanceledAt,
		ProviderRef:        s.ProviderRef,
		Metadata:           s.Metadata,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	subID, err := id.ParseSubscriptionID(m.ID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParsePlanID(m.PlanID)
	if err != nil {
		return nil, err
	}
	s := &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:                 subID,
		UserID:             m.UserID,
		PlanID:             planID,
		Status:             subscription.Status(m.Status),
		CurrentPeriodStart: m.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   m.CurrentPeriodEnd.UTC(),
		ProviderRef:        m.ProviderRef,
		Metadata:           m.Metadata,
	}
	if m.CanceledAt != nil {
		at := m.CanceledAt.UTC()
		s.CanceledAt = &at
	}
	return s, nil
}

type trialModel struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	PlanID    string    `bson:"plan_id"`
	Status    string    `bson:"status"`
	StartsAt  time.Time `bson:"starts_at"`
	EndsAt    time.Time `bson:"ends_at"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toTrialModel(t *subscription.Trial) *trialModel {
	return &trialModel{
		ID:        t.ID.String(),
		UserID:    t.UserID,
		PlanID:    t.PlanID.String(),
		Status:    string(t.Status),
		StartsAt:  t.StartsAt,
		EndsAt:    t.EndsAt,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromTrialModel(m *trialModel) (*subscription.Trial, error) {
	trialID, err := id.ParseTrialID(m.ID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParsePlanID(m.PlanID)
	if err != nil {
		return nil, err
	}
	return &subscription.Trial{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:       trialID,
		UserID:   m.UserID,
		PlanID:   planID,
		Status:   subscription.TrialStatus(m.Status),
		StartsAt: m.StartsAt.UTC(),
		EndsAt:   m.EndsAt.UTC(),
	}, nil
}
