// Package storetest is a contract suite every store.Store implementation
// must pass. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// Factory returns a fresh, migrated, empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// base is whole seconds so every backend, including millisecond ones,
// round-trips it exactly.
var base = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

// Run executes the full contract suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	suites := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Tenants", testTenants},
		{"TenantLimit", testTenantLimit},
		{"TenantLimitConcurrent", testTenantLimitConcurrent},
		{"TenantUpdateDelete", testTenantUpdateDelete},
		{"TenantDeleteCascades", testTenantDeleteCascades},
		{"Shifts", testShifts},
		{"ShiftClose", testShiftClose},
		{"Sales", testSales},
		{"Plans", testPlans},
		{"Subscriptions", testSubscriptions},
	}
	for _, sc := range suites {
		t.Run(sc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			sc.fn(t, s)
		})
	}
}

func newTenant(owner, name string, at time.Time) *tenant.Tenant {
	return &tenant.Tenant{
		Entity:       types.NewEntityAt(at),
		ID:           id.NewTenantID(),
		OwnerID:      owner,
		Name:         name,
		BusinessType: "retail",
		Currency:     "USD",
		OwnerName:    "Owner",
		Capital:      decimal.RequireFromString("1500.25"),
	}
}

func newShift(tenantID id.TenantID, date types.Date, opening string) *shift.Shift {
	at := date.Time().Add(8 * time.Hour)
	return &shift.Shift{
		Entity:      types.NewEntityAt(at),
		ID:          id.NewShiftID(),
		TenantID:    tenantID,
		Date:        date,
		Status:      shift.StatusOpen,
		Currency:    "USD",
		OpeningCash: decimal.RequireFromString(opening),
		OpenedBy:    "cashier",
		OpenedAt:    at,
	}
}

func newSale(tenantID id.TenantID, date types.Date, status sales.Status, total string, at time.Time) *sales.Sale {
	return &sales.Sale{
		ID:        id.NewSaleID(),
		TenantID:  tenantID,
		Date:      date,
		Number:    "R-" + total,
		Kind:      sales.KindSale,
		Status:    status,
		Method:    sales.MethodCash,
		Total:     decimal.RequireFromString(total),
		Discount:  decimal.Zero,
		Currency:  "USD",
		CreatedAt: at,
	}
}

func decEqual(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got), "%s = %s, want %s", field, got, want)
}

// ──────────────────────────────────────────────────
// Tenants
// ──────────────────────────────────────────────────

func testTenants(t *testing.T, s store.Store) {
	ctx := context.Background()

	first := newTenant("user-1", "Mai Tindo Groceries", base)
	require.NoError(t, s.CreateTenant(ctx, first, plan.Unlimited))

	got, err := s.GetTenant(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, "Mai Tindo Groceries", got.Name)
	assert.Equal(t, "USD", got.Currency)
	decEqual(t, "1500.25", got.Capital, "capital")
	assert.True(t, base.Equal(got.CreatedAt), "created_at = %s", got.CreatedAt)

	second := newTenant("user-1", "Second Shop", base.Add(time.Minute))
	require.NoError(t, s.CreateTenant(ctx, second, plan.Unlimited))
	other := newTenant("user-2", "Mai Tindo Groceries", base)
	require.NoError(t, s.CreateTenant(ctx, other, plan.Unlimited), "names are unique per owner only")

	dup := newTenant("user-1", "  mai tindo   GROCERIES ", base.Add(2*time.Minute))
	assert.ErrorIs(t, s.CreateTenant(ctx, dup, plan.Unlimited), dreambiz.ErrDuplicateName)

	again := *first
	assert.ErrorIs(t, s.CreateTenant(ctx, &again, plan.Unlimited), dreambiz.ErrTenantExists)

	list, err := s.ListTenants(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	n, err := s.CountTenants(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	empty, err := s.ListTenants(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.GetTenant(ctx, id.NewTenantID())
	assert.ErrorIs(t, err, dreambiz.ErrTenantNotFound)
}

func testTenantLimit(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateTenant(ctx, newTenant("user-1", "One", base), 1))
	err := s.CreateTenant(ctx, newTenant("user-1", "Two", base.Add(time.Second)), 1)
	assert.ErrorIs(t, err, dreambiz.ErrTenantLimitReached)

	n, err := s.CountTenants(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// The id check comes before the limit check.
	existing, err := s.ListTenants(ctx, "user-1")
	require.NoError(t, err)
	retry := *existing[0]
	assert.ErrorIs(t, s.CreateTenant(ctx, &retry, 1), dreambiz.ErrTenantExists)

	require.NoError(t, s.CreateTenant(ctx, newTenant("user-1", "Two", base.Add(time.Second)), 2))
	require.NoError(t, s.CreateTenant(ctx, newTenant("user-1", "Three", base.Add(2*time.Second)), plan.Unlimited))
}

func testTenantLimitConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	const (
		workers = 8
		limit   = 3
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		limited int
		other   []error
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateTenant(ctx, newTenant("racer", fmt.Sprintf("Shop %d", i), base.Add(time.Duration(i)*time.Second)), limit)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, dreambiz.ErrTenantLimitReached):
				limited++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, limit, created)
	assert.Equal(t, workers-limit, limited)

	n, err := s.CountTenants(ctx, "racer")
	require.NoError(t, err)
	assert.EqualValues(t, limit, n)
}

func testTenantUpdateDelete(t *testing.T, s store.Store) {
	ctx := context.Background()

	a := newTenant("user-1", "Alpha", base)
	b := newTenant("user-1", "Beta", base.Add(time.Second))
	require.NoError(t, s.CreateTenant(ctx, a, plan.Unlimited))
	require.NoError(t, s.CreateTenant(ctx, b, plan.Unlimited))

	a.Name = "Alpha Traders"
	a.Phone = "+263 77 000 0000"
	a.TouchAt(base.Add(time.Hour))
	require.NoError(t, s.UpdateTenant(ctx, a))

	got, err := s.GetTenant(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha Traders", got.Name)
	assert.Equal(t, "+263 77 000 0000", got.Phone)
	assert.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

	// Saving unchanged values is not a miss.
	require.NoError(t, s.UpdateTenant(ctx, got))

	b.Name = "alpha traders"
	assert.ErrorIs(t, s.UpdateTenant(ctx, b), dreambiz.ErrDuplicateName)

	missing := newTenant("user-1", "Ghost", base)
	assert.ErrorIs(t, s.UpdateTenant(ctx, missing), dreambiz.ErrTenantNotFound)

	require.NoError(t, s.DeleteTenant(ctx, a.ID))
	_, err = s.GetTenant(ctx, a.ID)
	assert.ErrorIs(t, err, dreambiz.ErrTenantNotFound)
	assert.ErrorIs(t, s.DeleteTenant(ctx, a.ID), dreambiz.ErrTenantNotFound)
}

func testTenantDeleteCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	day := types.MustParseDate("2024-03-01")

	gone := newTenant("user-1", "Gone", base)
	kept := newTenant("user-1", "Kept", base)
	require.NoError(t, s.CreateTenant(ctx, gone, plan.Unlimited))
	require.NoError(t, s.CreateTenant(ctx, kept, plan.Unlimited))

	goneShift := newShift(gone.ID, day, "10")
	keptShift := newShift(kept.ID, day, "10")
	require.NoError(t, s.InsertShift(ctx, goneShift))
	require.NoError(t, s.InsertShift(ctx, keptShift))

	goneSale := newSale(gone.ID, day, sales.StatusPaid, "25", base)
	keptSale := newSale(kept.ID, day, sales.StatusPaid, "30", base)
	require.NoError(t, s.CreateSale(ctx, goneSale))
	require.NoError(t, s.CreateSale(ctx, keptSale))

	require.NoError(t, s.DeleteTenant(ctx, gone.ID))

	_, err := s.GetShift(ctx, goneShift.ID)
	assert.ErrorIs(t, err, dreambiz.ErrShiftNotFound)
	_, err = s.GetShiftByDate(ctx, gone.ID, day)
	assert.ErrorIs(t, err, dreambiz.ErrShiftNotFound)
	_, err = s.GetSale(ctx, goneSale.ID)
	assert.ErrorIs(t, err, dreambiz.ErrSaleNotFound)
	paid, err := s.PaidSales(ctx, gone.ID, day)
	require.NoError(t, err)
	assert.Empty(t, paid)

	// Other profiles keep their rows.
	_, err = s.GetShift(ctx, keptShift.ID)
	require.NoError(t, err)
	paid, err = s.PaidSales(ctx, kept.ID, day)
	require.NoError(t, err)
	assert.Len(t, paid, 1)
}

// ──────────────────────────────────────────────────
// Shifts
// ──────────────────────────────────────────────────

func testShifts(t *testing.T, s store.Store) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	day1 := types.MustParseDate("2024-03-01")
	day2 := day1.AddDays(1)
	day3 := day1.AddDays(2)

	sh1 := newShift(tenantID, day1, "100")
	require.NoError(t, s.InsertShift(ctx, sh1))

	got, err := s.GetShift(ctx, sh1.ID)
	require.NoError(t, err)
	assert.Equal(t, day1, got.Date)
	assert.Equal(t, shift.StatusOpen, got.Status)
	decEqual(t, "100", got.OpeningCash, "opening cash")
	assert.Nil(t, got.Totals)
	assert.Nil(t, got.ClosedAt)
	assert.False(t, got.ActualCash.Valid)
	assert.True(t, got.CloseRef.IsNil())

	assert.ErrorIs(t, s.InsertShift(ctx, newShift(tenantID, day1, "0")), dreambiz.ErrShiftExists)

	byDate, err := s.GetShiftByDate(ctx, tenantID, day1)
	require.NoError(t, err)
	assert.Equal(t, sh1.ID, byDate.ID)

	_, err = s.GetShiftByDate(ctx, tenantID, day2)
	assert.ErrorIs(t, err, dreambiz.ErrShiftNotFound)
	_, err = s.GetShift(ctx, id.NewShiftID())
	assert.ErrorIs(t, err, dreambiz.ErrShiftNotFound)
	_, err = s.LatestClosedShift(ctx, tenantID)
	assert.ErrorIs(t, err, dreambiz.ErrShiftNotFound)

	require.NoError(t, s.InsertShift(ctx, newShift(tenantID, day3, "0")))
	require.NoError(t, s.InsertShift(ctx, newShift(tenantID, day2, "0")))
	require.NoError(t, s.InsertShift(ctx, newShift(id.NewTenantID(), day1, "0")))

	all, err := s.ListShifts(ctx, tenantID, shift.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []types.Date{day3, day2, day1}, []types.Date{all[0].Date, all[1].Date, all[2].Date})

	ranged, err := s.ListShifts(ctx, tenantID, shift.ListOpts{From: day2, To: day3})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	page, err := s.ListShifts(ctx, tenantID, shift.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, day2, page[0].Date)
}

func testShiftClose(t *testing.T, s store.Store) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	day1 := types.MustParseDate("2024-03-01")
	day2 := day1.AddDays(1)

	sh := newShift(tenantID, day1, "100")
	require.NoError(t, s.InsertShift(ctx, sh))

	totals := reconcile.Compute(sh.OpeningCash, []*sales.Sale{
		newSale(tenantID, day1, sales.StatusPaid, "250", base),
	})
	ref := id.NewCloseRef()
	sh.Close(totals, decimal.RequireFromString("340"), "manager", ref, base.Add(10*time.Hour))
	require.NoError(t, s.CloseShift(ctx, sh))

	got, err := s.GetShift(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, shift.StatusClosed, got.Status)
	assert.Equal(t, "manager", got.ClosedBy)
	assert.Equal(t, ref, got.CloseRef)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, base.Add(10*time.Hour).Equal(*got.ClosedAt))
	require.NotNil(t, got.Totals)
	assert.Equal(t, 1, got.Totals.SalesCount)
	decEqual(t, "250", got.Totals.Cash, "totals.cash")
	decEqual(t, "350", got.ClosingCash.Decimal, "closing cash")
	decEqual(t, "340", got.ActualCash.Decimal, "actual cash")
	decEqual(t, "-10", got.CashDiscrepancy.Decimal, "discrepancy")

	again := *sh
	again.CloseRef = id.NewCloseRef()
	assert.ErrorIs(t, s.CloseShift(ctx, &again), dreambiz.ErrShiftNotOpen)

	ghost := newShift(tenantID, day2, "0")
	ghost.Close(totals, decimal.Zero, "manager", id.NewCloseRef(), base)
	assert.ErrorIs(t, s.CloseShift(ctx, ghost), dreambiz.ErrShiftNotFound)

	latest, err := s.LatestClosedShift(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, sh.ID, latest.ID)

	next := newShift(tenantID, day2, "340")
	require.NoError(t, s.InsertShift(ctx, next))
	next.Close(reconcile.Compute(next.OpeningCash, nil), decimal.RequireFromString("340"), "manager", id.NewCloseRef(), base.Add(30*time.Hour))
	require.NoError(t, s.CloseShift(ctx, next))

	latest, err = s.LatestClosedShift(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, next.ID, latest.ID, "latest by business date")

	closed, err := s.ListShifts(ctx, tenantID, shift.ListOpts{Status: shift.StatusClosed})
	require.NoError(t, err)
	assert.Len(t, closed, 2)
}

// ──────────────────────────────────────────────────
// Sales
// ──────────────────────────────────────────────────

func testSales(t *testing.T, s store.Store) {
	ctx := context.Background()
	tenantID := id.NewTenantID()
	day := types.MustParseDate("2024-03-01")

	late := newSale(tenantID, day, sales.StatusPaid, "30", base.Add(2*time.Hour))
	early := newSale(tenantID, day, sales.StatusPaid, "20", base.Add(time.Hour))
	unpaid := newSale(tenantID, day, sales.StatusUnpaid, "99", base.Add(3*time.Hour))
	nextDay := newSale(tenantID, day.AddDays(1), sales.StatusPaid, "5", base.Add(26*time.Hour))
	refund := newSale(tenantID, day, sales.StatusPaid, "10", base.Add(4*time.Hour))
	refund.Kind = sales.KindRefund
	refund.Method = sales.MethodMobileMoney

	for _, sale := range []*sales.Sale{late, early, unpaid, nextDay, refund} {
		require.NoError(t, s.CreateSale(ctx, sale))
	}
	assert.ErrorIs(t, s.CreateSale(ctx, early), dreambiz.ErrSaleExists)

	got, err := s.GetSale(ctx, refund.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.KindRefund, got.Kind)
	assert.Equal(t, sales.MethodMobileMoney, got.Method)
	assert.Equal(t, day, got.Date)
	decEqual(t, "10", got.Total, "total")

	_, err = s.GetSale(ctx, id.NewSaleID())
	assert.ErrorIs(t, err, dreambiz.ErrSaleNotFound)

	paid, err := s.PaidSales(ctx, tenantID, day)
	require.NoError(t, err)
	require.Len(t, paid, 3)
	assert.Equal(t, early.ID, paid[0].ID, "oldest first")
	assert.Equal(t, late.ID, paid[1].ID)
	assert.Equal(t, refund.ID, paid[2].ID)

	listed, err := s.ListSales(ctx, tenantID, sales.ListOpts{Date: day})
	require.NoError(t, err)
	require.Len(t, listed, 4)
	assert.Equal(t, refund.ID, listed[0].ID, "newest first")

	unpaidOnly, err := s.ListSales(ctx, tenantID, sales.ListOpts{Status: sales.StatusUnpaid})
	require.NoError(t, err)
	require.Len(t, unpaidOnly, 1)
	assert.Equal(t, unpaid.ID, unpaidOnly[0].ID)

	page, err := s.ListSales(ctx, tenantID, sales.ListOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

// ──────────────────────────────────────────────────
// Plans
// ──────────────────────────────────────────────────

func testPlans(t *testing.T, s store.Store) {
	ctx := context.Background()

	free := plan.Free()
	free.ID = id.NewPlanID()
	free.Entity = types.NewEntityAt(base)
	require.NoError(t, s.CreatePlan(ctx, free))

	pro := &plan.Plan{
		Entity: types.NewEntityAt(base.Add(time.Minute)),
		ID:     id.NewPlanID(),
		Name:   "Pro",
		Slug:   "pro",
		Status: plan.StatusActive,
		Features: []plan.Feature{
			{ID: id.NewFeatureID(), Key: plan.FeatureBusinessProfiles, Name: "Business profiles", Type: plan.FeatureSeat, Limit: plan.Unlimited},
		},
		Metadata: map[string]string{"tier": "2"},
	}
	require.NoError(t, s.CreatePlan(ctx, pro))

	clash := *pro
	clash.ID = id.NewPlanID()
	assert.ErrorIs(t, s.CreatePlan(ctx, &clash), dreambiz.ErrPlanExists)

	got, err := s.GetPlanBySlug(ctx, "pro")
	require.NoError(t, err)
	assert.Equal(t, pro.ID, got.ID)
	assert.Equal(t, plan.Unlimited, got.MaxTenants())
	assert.Equal(t, "2", got.Metadata["tier"])
	require.Len(t, got.Features, 1)
	assert.Equal(t, pro.Features[0].ID, got.Features[0].ID)

	gotFree, err := s.GetPlan(ctx, free.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, gotFree.MaxTenants())

	_, err = s.GetPlanBySlug(ctx, "enterprise")
	assert.ErrorIs(t, err, dreambiz.ErrPlanNotFound)

	list, err := s.ListPlans(ctx, plan.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, free.ID, list[0].ID, "oldest first")

	pro.Description = "For growing businesses"
	pro.TouchAt(base.Add(time.Hour))
	require.NoError(t, s.UpdatePlan(ctx, pro))
	got, err = s.GetPlan(ctx, pro.ID)
	require.NoError(t, err)
	assert.Equal(t, "For growing businesses", got.Description)

	require.NoError(t, s.ArchivePlan(ctx, pro.ID))
	active, err := s.ListPlans(ctx, plan.ListOpts{Status: plan.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, free.ID, active[0].ID)

	assert.ErrorIs(t, s.ArchivePlan(ctx, id.NewPlanID()), dreambiz.ErrPlanNotFound)
	ghost := *free
	ghost.ID = id.NewPlanID()
	ghost.Slug = "ghost"
	assert.ErrorIs(t, s.UpdatePlan(ctx, &ghost), dreambiz.ErrPlanNotFound)
}

// ──────────────────────────────────────────────────
// Subscriptions and trials
// ──────────────────────────────────────────────────

func testSubscriptions(t *testing.T, s store.Store) {
	ctx := context.Background()
	planID := id.NewPlanID()

	older := &subscription.Subscription{
		Entity:             types.NewEntityAt(base),
		ID:                 id.NewSubscriptionID(),
		UserID:             "user-1",
		PlanID:             planID,
		Status:             subscription.StatusExpired,
		CurrentPeriodStart: base.AddDate(0, -1, 0),
		CurrentPeriodEnd:   base,
	}
	current := &subscription.Subscription{
		Entity:             types.NewEntityAt(base),
		ID:                 id.NewSubscriptionID(),
		UserID:             "user-1",
		PlanID:             planID,
		Status:             subscription.StatusActive,
		CurrentPeriodStart: base,
		CurrentPeriodEnd:   base.AddDate(0, 1, 0),
		ProviderRef:        "pay_123",
		Metadata:           map[string]string{"channel": "ecocash"},
	}
	require.NoError(t, s.CreateSubscription(ctx, older))
	require.NoError(t, s.CreateSubscription(ctx, current))

	list, err := s.ListSubscriptions(ctx, "user-1", subscription.ListOpts{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, current.ID, list[0].ID, "latest period first")
	assert.True(t, list[0].ActiveAt(base.Add(time.Hour)))
	assert.Equal(t, "ecocash", list[0].Metadata["channel"])

	active, err := s.ListSubscriptions(ctx, "user-1", subscription.ListOpts{Status: subscription.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	canceledAt := base.Add(2 * time.Hour)
	require.NoError(t, s.CancelSubscription(ctx, current.ID, canceledAt))
	got, err := s.GetSubscription(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, got.Status)
	require.NotNil(t, got.CanceledAt)
	assert.True(t, canceledAt.Equal(*got.CanceledAt))

	assert.ErrorIs(t, s.CancelSubscription(ctx, id.NewSubscriptionID(), canceledAt), dreambiz.ErrSubscriptionNotFound)
	_, err = s.GetSubscription(ctx, id.NewSubscriptionID())
	assert.ErrorIs(t, err, dreambiz.ErrSubscriptionNotFound)

	got.Status = subscription.StatusActive
	got.CanceledAt = nil
	got.TouchAt(base.Add(3 * time.Hour))
	require.NoError(t, s.UpdateSubscription(ctx, got))
	got, err = s.GetSubscription(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, got.Status)
	assert.Nil(t, got.CanceledAt)

	first := &subscription.Trial{
		Entity:   types.NewEntityAt(base),
		ID:       id.NewTrialID(),
		UserID:   "user-1",
		PlanID:   planID,
		Status:   subscription.TrialExpired,
		StartsAt: base.AddDate(0, -2, 0),
		EndsAt:   base.AddDate(0, -1, 0),
	}
	second := &subscription.Trial{
		Entity:   types.NewEntityAt(base),
		ID:       id.NewTrialID(),
		UserID:   "user-1",
		PlanID:   planID,
		Status:   subscription.TrialActive,
		StartsAt: base,
		EndsAt:   base.AddDate(0, 0, 14),
	}
	require.NoError(t, s.CreateTrial(ctx, first))
	require.NoError(t, s.CreateTrial(ctx, second))

	trials, err := s.ListTrials(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, trials, 2)
	assert.Equal(t, second.ID, trials[0].ID, "latest start first")
	assert.True(t, trials[0].ActiveAt(base.Add(time.Hour)))

	none, err := s.ListTrials(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
