package dreambiz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// ──────────────────────────────────────────────────
// Shift ledger
// ──────────────────────────────────────────────────

// EnsureOpenShift returns the shift for (tenantID, date), creating it open
// when the day has none. An existing row is returned as is, open or closed.
// A new shift opens with the float carried from the latest closed shift.
// A zero date means today in the engine's location.
func (e *Engine) EnsureOpenShift(ctx context.Context, p identity.Principal, tenantID id.TenantID, date types.Date, openedBy string) (*shift.Shift, error) {
	const op = "ensure_open_shift"

	t, err := e.ownedTenant(ctx, op, p, tenantID)
	if err != nil {
		return nil, err
	}
	if openedBy == "" {
		openedBy = p.UserID
	}
	return e.ensureOpenShift(ctx, op, t, date, openedBy)
}

func (e *Engine) ensureOpenShift(ctx context.Context, op string, t *tenant.Tenant, date types.Date, openedBy string) (*shift.Shift, error) {
	if date.IsZero() {
		date = e.today()
	}

	existing, err := call(ctx, e, func(ctx context.Context) (*shift.Shift, error) {
		return e.store.GetShiftByDate(ctx, t.ID, date)
	})
	if err == nil {
		return existing, nil
	}
	if !IsNotFound(err) {
		return nil, e.fail(ctx, op, err)
	}

	opening := decimal.Zero
	prev, err := call(ctx, e, func(ctx context.Context) (*shift.Shift, error) {
		return e.store.LatestClosedShift(ctx, t.ID)
	})
	switch {
	case err == nil:
		// A float counted in another currency does not carry over.
		if strings.EqualFold(prev.Currency, t.Currency) {
			opening = prev.CarryForward()
		}
	case !IsNotFound(err):
		return nil, e.fail(ctx, op, err)
	}

	now := e.clock()
	s := &shift.Shift{
		Entity:      types.NewEntityAt(now),
		ID:          id.NewShiftID(),
		TenantID:    t.ID,
		Date:        date,
		Status:      shift.StatusOpen,
		Currency:    t.Currency,
		OpeningCash: opening,
		OpenedBy:    openedBy,
		OpenedAt:    now,
	}

	err = e.exec(ctx, func(ctx context.Context) error {
		err := e.store.InsertShift(ctx, s)
		if errors.Is(err, ErrShiftExists) {
			// Another opener won the race, or an earlier attempt of ours
			// committed. The read below tells which.
			return nil
		}
		return err
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}

	got, err := call(ctx, e, func(ctx context.Context) (*shift.Shift, error) {
		return e.store.GetShiftByDate(ctx, t.ID, date)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}

	if got.ID.String() == s.ID.String() {
		e.plugins.EmitShiftOpened(ctx, got)
		e.logger.Info("shift opened",
			"tenant_id", t.ID.String(),
			"shift_id", got.ID.String(),
			"date", date.String(),
			"opening_cash", got.OpeningCash.String(),
		)
	}
	return got, nil
}

// RecomputeTotals computes the live totals of a shift from the paid sale
// records for its day. The shift row is not changed.
func (e *Engine) RecomputeTotals(ctx context.Context, p identity.Principal, shiftID id.ShiftID) (reconcile.Totals, error) {
	const op = "recompute_totals"

	s, err := e.ownedShift(ctx, op, p, shiftID)
	if err != nil {
		return reconcile.Totals{}, err
	}
	return e.totals(ctx, op, s)
}

func (e *Engine) totals(ctx context.Context, op string, s *shift.Shift) (reconcile.Totals, error) {
	records, err := call(ctx, e, func(ctx context.Context) ([]*sales.Sale, error) {
		return e.feed.PaidSales(ctx, s.TenantID, s.Date)
	})
	if err != nil {
		return reconcile.Totals{}, e.fail(ctx, op, err)
	}
	totals := reconcile.ComputeIn(s.OpeningMoney(), records)
	if totals.Excluded > 0 {
		e.logger.Warn("sales in another currency left out of shift totals",
			"shift_id", s.ID.String(),
			"currency", s.Currency,
			"excluded", totals.Excluded,
		)
	}
	return totals, nil
}

// CloseShift freezes the totals of an open shift and records the counted
// cash. Closing is terminal: a closed shift is never reopened or closed
// again.
func (e *Engine) CloseShift(ctx context.Context, p identity.Principal, shiftID id.ShiftID, closedBy string, actualCash decimal.Decimal) (*shift.Shift, error) {
	const op = "close_shift"

	s, err := e.ownedShift(ctx, op, p, shiftID)
	if err != nil {
		return nil, err
	}
	if !s.IsOpen() {
		return nil, newError(KindInvalidState, op, "the shift is already closed", ErrShiftNotOpen)
	}
	if actualCash.IsNegative() {
		return nil, invalid(op, "actual_cash", "must not be negative")
	}
	if closedBy == "" {
		closedBy = p.UserID
	}

	totals, err := e.totals(ctx, op, s)
	if err != nil {
		return nil, err
	}

	ref := id.NewCloseRef()
	s.Close(totals, actualCash, closedBy, ref, e.clock())

	err = e.exec(ctx, func(ctx context.Context) error {
		return e.store.CloseShift(ctx, s)
	})
	if err != nil && !errors.Is(err, ErrShiftNotOpen) {
		return nil, e.fail(ctx, op, err)
	}

	closed, rerr := call(ctx, e, func(ctx context.Context) (*shift.Shift, error) {
		return e.store.GetShift(ctx, shiftID)
	})
	if rerr != nil {
		return nil, e.fail(ctx, op, rerr)
	}
	if err != nil && closed.CloseRef.String() != ref.String() {
		// Someone else closed it between our read and our write.
		return nil, e.fail(ctx, op, err)
	}

	e.plugins.EmitShiftClosed(ctx, closed)
	e.logger.Info("shift closed",
		"tenant_id", closed.TenantID.String(),
		"shift_id", closed.ID.String(),
		"date", closed.Date.String(),
		"expected_cash", closed.ClosingCash.Decimal.String(),
		"actual_cash", closed.ActualCash.Decimal.String(),
		"discrepancy", closed.CashDiscrepancy.Decimal.String(),
	)
	return closed, nil
}

// GetShift returns a shift of a profile the caller owns.
func (e *Engine) GetShift(ctx context.Context, p identity.Principal, shiftID id.ShiftID) (*shift.Shift, error) {
	return e.ownedShift(ctx, "get_shift", p, shiftID)
}

// ShiftForDate returns the shift for one business day without creating it.
func (e *Engine) ShiftForDate(ctx context.Context, p identity.Principal, tenantID id.TenantID, date types.Date) (*shift.Shift, error) {
	const op = "shift_for_date"

	if _, err := e.ownedTenant(ctx, op, p, tenantID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = e.today()
	}

	s, err := call(ctx, e, func(ctx context.Context) (*shift.Shift, error) {
		return e.store.GetShiftByDate(ctx, tenantID, date)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	return s, nil
}

// ListShifts returns the profile's shifts, latest business day first.
func (e *Engine) ListShifts(ctx context.Context, p identity.Principal, tenantID id.TenantID, opts shift.ListOpts) ([]*shift.Shift, error) {
	const op = "list_shifts"

	if _, err := e.ownedTenant(ctx, op, p, tenantID); err != nil {
		return nil, err
	}

	list, err := call(ctx, e, func(ctx context.Context) ([]*shift.Shift, error) {
		return e.store.ListShifts(ctx, tenantID, opts)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	return list, nil
}

func (e *Engine) ownedShift(ctx context.Context, op string, p identity.Principal, shiftID id.ShiftID) (*shift.Shift, error) {
	if err := e.authenticate(op, p); err != nil {
		return nil, err
	}
	if shiftID.IsNil() {
		return nil, invalid(op, "shift_id", "is required")
	}

	s, err := call(ctx, e, func(ctx context.Context) (*shift.Shift, error) {
		return e.store.GetShift(ctx, shiftID)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	if _, err := e.ownedTenant(ctx, op, p, s.TenantID); err != nil {
		return nil, err
	}
	return s, nil
}

// ──────────────────────────────────────────────────
// Sale records
// ──────────────────────────────────────────────────

// RecordSale stores a sale record and, when it is paid, makes sure the
// day's shift exists. A paid sale for a day whose shift is already closed is
// still recorded; the closed shift is returned unchanged and plugins are
// told about the late sale.
func (e *Engine) RecordSale(ctx context.Context, p identity.Principal, sale *sales.Sale, recordedBy string) (*sales.Sale, *shift.Shift, error) {
	const op = "record_sale"

	if sale == nil {
		return nil, nil, invalid(op, "sale", "is required")
	}
	t, err := e.ownedTenant(ctx, op, p, sale.TenantID)
	if err != nil {
		return nil, nil, err
	}
	if recordedBy == "" {
		recordedBy = p.UserID
	}

	rec := *sale
	if rec.ID.IsNil() {
		rec.ID = id.NewSaleID()
	}
	if rec.Date.IsZero() {
		rec.Date = e.today()
	}
	if rec.Kind == "" {
		rec.Kind = sales.KindSale
	}
	if rec.Status == "" {
		rec.Status = sales.StatusPaid
	}
	rec.Currency = strings.ToUpper(strings.TrimSpace(rec.Currency))
	if rec.Currency == "" {
		rec.Currency = t.Currency
	}
	rec.Method = sales.NormalizeMethod(rec.Method)
	rec.Number = strings.TrimSpace(rec.Number)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = e.clock()
	} else {
		rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Microsecond)
	}

	if err := e.check(op, &rec); err != nil {
		return nil, nil, err
	}
	if rec.Total.IsNegative() {
		return nil, nil, invalid(op, "total", "must not be negative")
	}
	if !strings.EqualFold(rec.Currency, t.Currency) {
		return nil, nil, invalid(op, "currency", "must be "+t.Currency+", the business currency")
	}
	if rec.Discount.IsNegative() {
		return nil, nil, invalid(op, "discount", "must not be negative")
	}

	attempt := 0
	err = e.exec(ctx, func(ctx context.Context) error {
		attempt++
		err := e.store.CreateSale(ctx, &rec)
		if attempt > 1 && errors.Is(err, ErrSaleExists) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, nil, e.fail(ctx, op, err)
	}

	e.plugins.EmitSaleRecorded(ctx, &rec)

	if !rec.IsPaid() {
		return &rec, nil, nil
	}

	s, err := e.ensureOpenShift(ctx, op, t, rec.Date, recordedBy)
	if err != nil {
		return &rec, nil, err
	}
	if s.IsClosed() {
		e.plugins.EmitLateSale(ctx, &rec, s)
		e.logger.Warn("sale recorded for a closed shift",
			"tenant_id", t.ID.String(),
			"shift_id", s.ID.String(),
			"sale_id", rec.ID.String(),
			"date", rec.Date.String(),
		)
	}
	return &rec, s, nil
}
