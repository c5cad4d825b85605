// Package memory is an in-process Store. It keeps copies of every entity
// behind one RWMutex, so the tenant limit check and the insert are atomic.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Business profile storage
	tenants map[string]*tenant.Tenant

	// Shift storage, plus the (tenant, date) index
	shifts      map[string]*shift.Shift
	shiftByDate map[string]string

	// Sale storage
	sales map[string]*sales.Sale

	// Plan storage
	plans map[string]*plan.Plan

	// Subscription storage
	subscriptions map[string]*subscription.Subscription
	trials        map[string]*subscription.Trial
}

func New() *Store {
	return &Store{
		tenants:       make(map[string]*tenant.Tenant),
		shifts:        make(map[string]*shift.Shift),
		shiftByDate:   make(map[string]string),
		sales:         make(map[string]*sales.Sale),
		plans:         make(map[string]*plan.Plan),
		subscriptions: make(map[string]*subscription.Subscription),
		trials:        make(map[string]*subscription.Trial),
	}
}

// ──────────────────────────────────────────────────
// Tenant Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateTenant(_ context.Context, t *tenant.Tenant, maxTenants int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.tenants[t.ID.String()]; exists {
		return dreambiz.ErrTenantExists
	}

	key := t.NameKey()
	var owned int64
	for _, existing := range s.tenants {
		if existing.OwnerID != t.OwnerID {
			continue
		}
		if existing.NameKey() == key {
			return dreambiz.ErrDuplicateName
		}
		owned++
	}
	if maxTenants != plan.Unlimited && owned >= maxTenants {
		return dreambiz.ErrTenantLimitReached
	}

	s.tenants[t.ID.String()] = cloneTenant(t)
	return nil
}

func (s *Store) GetTenant(_ context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	if t, ok := s.tenants[tenantID.String()]; ok {
		return cloneTenant(t), nil
	}
	return nil, dreambiz.ErrTenantNotFound
}

func (s *Store) ListTenants(_ context.Context, ownerID string) ([]*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := make([]*tenant.Tenant, 0)
	for _, t := range s.tenants {
		if t.OwnerID == ownerID {
			result = append(result, cloneTenant(t))
		}
	}
	slices.SortFunc(result, func(a, b *tenant.Tenant) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return result, nil
}

func (s *Store) CountTenants(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, dreambiz.ErrStoreClosed
	}
	var n int64
	for _, t := range s.tenants {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.tenants[t.ID.String()]; !exists {
		return dreambiz.ErrTenantNotFound
	}
	key := t.NameKey()
	for _, other := range s.tenants {
		if other.ID != t.ID && other.OwnerID == t.OwnerID && other.NameKey() == key {
			return dreambiz.ErrDuplicateName
		}
	}
	s.tenants[t.ID.String()] = cloneTenant(t)
	return nil
}

func (s *Store) DeleteTenant(_ context.Context, tenantID id.TenantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.tenants[tenantID.String()]; !exists {
		return dreambiz.ErrTenantNotFound
	}
	delete(s.tenants, tenantID.String())

	for key, sh := range s.shifts {
		if sh.TenantID == tenantID {
			delete(s.shiftByDate, shiftKey(sh.TenantID, sh.Date))
			delete(s.shifts, key)
		}
	}
	for key, sale := range s.sales {
		if sale.TenantID == tenantID {
			delete(s.sales, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Shift Store implementation
// ──────────────────────────────────────────────────

func shiftKey(tenantID id.TenantID, date types.Date) string {
	return tenantID.String() + "/" + date.String()
}

func (s *Store) InsertShift(_ context.Context, sh *shift.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	key := shiftKey(sh.TenantID, sh.Date)
	if _, exists := s.shiftByDate[key]; exists {
		return dreambiz.ErrShiftExists
	}
	if _, exists := s.shifts[sh.ID.String()]; exists {
		return dreambiz.ErrShiftExists
	}
	s.shifts[sh.ID.String()] = cloneShift(sh)
	s.shiftByDate[key] = sh.ID.String()
	return nil
}

func (s *Store) GetShift(_ context.Context, shiftID id.ShiftID) (*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	if sh, ok := s.shifts[shiftID.String()]; ok {
		return cloneShift(sh), nil
	}
	return nil, dreambiz.ErrShiftNotFound
}

func (s *Store) GetShiftByDate(_ context.Context, tenantID id.TenantID, date types.Date) (*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	if shiftID, ok := s.shiftByDate[shiftKey(tenantID, date)]; ok {
		return cloneShift(s.shifts[shiftID]), nil
	}
	return nil, dreambiz.ErrShiftNotFound
}

func (s *Store) LatestClosedShift(_ context.Context, tenantID id.TenantID) (*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	var latest *shift.Shift
	for _, sh := range s.shifts {
		if sh.TenantID != tenantID || !sh.IsClosed() {
			continue
		}
		if latest == nil || laterClose(sh, latest) {
			latest = sh
		}
	}
	if latest == nil {
		return nil, dreambiz.ErrShiftNotFound
	}
	return cloneShift(latest), nil
}

// laterClose orders closed shifts by business date, then close time.
func laterClose(a, b *shift.Shift) bool {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c > 0
	}
	if a.ClosedAt != nil && b.ClosedAt != nil {
		return a.ClosedAt.After(*b.ClosedAt)
	}
	return a.ClosedAt != nil
}

func (s *Store) ListShifts(_ context.Context, tenantID id.TenantID, opts shift.ListOpts) ([]*shift.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := make([]*shift.Shift, 0)
	for _, sh := range s.shifts {
		if sh.TenantID != tenantID {
			continue
		}
		if opts.Status != "" && sh.Status != opts.Status {
			continue
		}
		if !opts.From.IsZero() && sh.Date.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && sh.Date.After(opts.To) {
			continue
		}
		result = append(result, cloneShift(sh))
	}
	slices.SortFunc(result, func(a, b *shift.Shift) int {
		return b.Date.Compare(a.Date)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CloseShift(_ context.Context, sh *shift.Shift) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	existing, ok := s.shifts[sh.ID.String()]
	if !ok {
		return dreambiz.ErrShiftNotFound
	}
	if !existing.IsOpen() {
		return dreambiz.ErrShiftNotOpen
	}
	s.shifts[sh.ID.String()] = cloneShift(sh)
	return nil
}

// ──────────────────────────────────────────────────
// Sales Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateSale(_ context.Context, sale *sales.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.sales[sale.ID.String()]; exists {
		return dreambiz.ErrSaleExists
	}
	cp := *sale
	s.sales[sale.ID.String()] = &cp
	return nil
}

func (s *Store) GetSale(_ context.Context, saleID id.SaleID) (*sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	if sale, ok := s.sales[saleID.String()]; ok {
		cp := *sale
		return &cp, nil
	}
	return nil, dreambiz.ErrSaleNotFound
}

func (s *Store) ListSales(_ context.Context, tenantID id.TenantID, opts sales.ListOpts) ([]*sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := s.filterSales(tenantID, opts.Date, opts.Status)
	slices.SortFunc(result, func(a, b *sales.Sale) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) PaidSales(_ context.Context, tenantID id.TenantID, date types.Date) ([]*sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := s.filterSales(tenantID, date, sales.StatusPaid)
	slices.SortFunc(result, func(a, b *sales.Sale) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return result, nil
}

func (s *Store) filterSales(tenantID id.TenantID, date types.Date, status sales.Status) []*sales.Sale {
	result := make([]*sales.Sale, 0)
	for _, sale := range s.sales {
		if sale.TenantID != tenantID {
			continue
		}
		if !date.IsZero() && sale.Date != date {
			continue
		}
		if status != "" && sale.Status != status {
			continue
		}
		cp := *sale
		result = append(result, &cp)
	}
	return result
}

// ──────────────────────────────────────────────────
// Plan Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.plans[p.ID.String()]; exists {
		return dreambiz.ErrPlanExists
	}
	for _, existing := range s.plans {
		if existing.Slug == p.Slug {
			return dreambiz.ErrPlanExists
		}
	}
	s.plans[p.ID.String()] = clonePlan(p)
	return nil
}

func (s *Store) GetPlan(_ context.Context, planID id.PlanID) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	if p, ok := s.plans[planID.String()]; ok {
		return clonePlan(p), nil
	}
	return nil, dreambiz.ErrPlanNotFound
}

func (s *Store) GetPlanBySlug(_ context.Context, slug string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	for _, p := range s.plans {
		if p.Slug == slug {
			return clonePlan(p), nil
		}
	}
	return nil, dreambiz.ErrPlanNotFound
}

func (s *Store) ListPlans(_ context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := make([]*plan.Plan, 0)
	for _, p := range s.plans {
		if opts.Status == "" || p.Status == opts.Status {
			result = append(result, clonePlan(p))
		}
	}
	slices.SortFunc(result, func(a, b *plan.Plan) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdatePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.plans[p.ID.String()]; !exists {
		return dreambiz.ErrPlanNotFound
	}
	s.plans[p.ID.String()] = clonePlan(p)
	return nil
}

func (s *Store) ArchivePlan(_ context.Context, planID id.PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	p, exists := s.plans[planID.String()]
	if !exists {
		return dreambiz.ErrPlanNotFound
	}
	p.Status = plan.StatusArchived
	p.TouchAt(time.Now())
	return nil
}

// ──────────────────────────────────────────────────
// Subscription Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	s.subscriptions[sub.ID.String()] = cloneSubscription(sub)
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	if sub, ok := s.subscriptions[subID.String()]; ok {
		return cloneSubscription(sub), nil
	}
	return nil, dreambiz.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptions(_ context.Context, userID string, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.UserID != userID {
			continue
		}
		if opts.Status != "" && sub.Status != opts.Status {
			continue
		}
		result = append(result, cloneSubscription(sub))
	}
	slices.SortFunc(result, func(a, b *subscription.Subscription) int {
		if c := b.CurrentPeriodStart.Compare(a.CurrentPeriodStart); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	if _, exists := s.subscriptions[sub.ID.String()]; !exists {
		return dreambiz.ErrSubscriptionNotFound
	}
	s.subscriptions[sub.ID.String()] = cloneSubscription(sub)
	return nil
}

func (s *Store) CancelSubscription(_ context.Context, subID id.SubscriptionID, canceledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	sub, exists := s.subscriptions[subID.String()]
	if !exists {
		return dreambiz.ErrSubscriptionNotFound
	}
	at := canceledAt.UTC().Truncate(time.Microsecond)
	sub.Status = subscription.StatusCanceled
	sub.CanceledAt = &at
	sub.TouchAt(at)
	return nil
}

func (s *Store) CreateTrial(_ context.Context, tr *subscription.Trial) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	cp := *tr
	s.trials[tr.ID.String()] = &cp
	return nil
}

func (s *Store) ListTrials(_ context.Context, userID string) ([]*subscription.Trial, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, dreambiz.ErrStoreClosed
	}
	result := make([]*subscription.Trial, 0)
	for _, tr := range s.trials {
		if tr.UserID == userID {
			cp := *tr
			result = append(result, &cp)
		}
	}
	slices.SortFunc(result, func(a, b *subscription.Trial) int {
		if c := b.StartsAt.Compare(a.StartsAt); c != 0 {
			return c
		}
		return compareIDs(b.ID, a.ID)
	})
	return result, nil
}

// ──────────────────────────────────────────────────
// Store management
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return dreambiz.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// ──────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────

func compareIDs(a, b id.ID) int {
	switch x, y := a.String(), b.String(); {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func paginate[T any](items []T, offset, limit int) []T {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}

func cloneTenant(t *tenant.Tenant) *tenant.Tenant {
	cp := *t
	return &cp
}

func cloneShift(sh *shift.Shift) *shift.Shift {
	cp := *sh
	if sh.ClosedAt != nil {
		at := *sh.ClosedAt
		cp.ClosedAt = &at
	}
	if sh.Totals != nil {
		totals := *sh.Totals
		cp.Totals = &totals
	}
	return &cp
}

func clonePlan(p *plan.Plan) *plan.Plan {
	cp := *p
	cp.Features = make([]plan.Feature, len(p.Features))
	for i, f := range p.Features {
		f.Metadata = maps.Clone(f.Metadata)
		cp.Features[i] = f
	}
	cp.Metadata = maps.Clone(p.Metadata)
	return &cp
}

func cloneSubscription(sub *subscription.Subscription) *subscription.Subscription {
	cp := *sub
	if sub.CanceledAt != nil {
		at := *sub.CanceledAt
		cp.CanceledAt = &at
	}
	cp.Metadata = maps.Clone(sub.Metadata)
	return &cp
}
