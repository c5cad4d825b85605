package dreambiz_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/entitlement"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/retry"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/memory"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// ──────────────────────────────────────────────────
// Fixtures
// ──────────────────────────────────────────────────

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// flakyStore injects transient failures around selected writes. "pre"
// failures happen before the write reaches the store, "post" failures after
// it has committed.
type flakyStore struct {
	store.Store

	mu     sync.Mutex
	pre    map[string]int
	post   map[string]int
	broken map[string]error
	calls  map[string]int
}

func newFlakyStore(inner store.Store) *flakyStore {
	return &flakyStore{
		Store:  inner,
		pre:    map[string]int{},
		post:   map[string]int{},
		broken: map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *flakyStore) failPre(op string, n int) {
	f.mu.Lock()
	f.pre[op] = n
	f.mu.Unlock()
}

func (f *flakyStore) failPost(op string, n int) {
	f.mu.Lock()
	f.post[op] = n
	f.mu.Unlock()
}

func (f *flakyStore) breakOp(op string, err error) {
	f.mu.Lock()
	f.broken[op] = err
	f.mu.Unlock()
}

func (f *flakyStore) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *flakyStore) around(op string, write func() error) error {
	f.mu.Lock()
	f.calls[op]++
	if err := f.broken[op]; err != nil {
		f.mu.Unlock()
		return err
	}
	pre := f.pre[op] > 0
	if pre {
		f.pre[op]--
	}
	post := !pre && f.post[op] > 0
	if post {
		f.post[op]--
	}
	f.mu.Unlock()

	if pre {
		return dreambiz.ErrTransient
	}
	if err := write(); err != nil {
		return err
	}
	if post {
		return fmt.Errorf("commit acknowledged late: %w", dreambiz.ErrTransient)
	}
	return nil
}

func (f *flakyStore) CreateTenant(ctx context.Context, t *tenant.Tenant, maxTenants int64) error {
	return f.around("create_tenant", func() error { return f.Store.CreateTenant(ctx, t, maxTenants) })
}

func (f *flakyStore) InsertShift(ctx context.Context, s *shift.Shift) error {
	return f.around("insert_shift", func() error { return f.Store.InsertShift(ctx, s) })
}

func (f *flakyStore) CloseShift(ctx context.Context, s *shift.Shift) error {
	return f.around("close_shift", func() error { return f.Store.CloseShift(ctx, s) })
}

func (f *flakyStore) CreateSale(ctx context.Context, s *sales.Sale) error {
	return f.around("create_sale", func() error { return f.Store.CreateSale(ctx, s) })
}

// recorder is a plugin counting the hooks it receives.
type recorder struct {
	mu       sync.Mutex
	events   map[string]int
	late     []*sales.Sale
	failures []string
}

func newRecorder() *recorder { return &recorder{events: map[string]int{}} }

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[event]
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	r.events[event]++
	r.mu.Unlock()
}

func (r *recorder) OnTenantCreated(context.Context, *tenant.Tenant) error {
	r.add("tenant_created")
	return nil
}

func (r *recorder) OnTenantLimitExceeded(context.Context, string, string, int64) error {
	r.add("tenant_limit_exceeded")
	return nil
}

func (r *recorder) OnShiftOpened(context.Context, *shift.Shift) error {
	r.add("shift_opened")
	return nil
}

func (r *recorder) OnShiftClosed(context.Context, *shift.Shift) error {
	r.add("shift_closed")
	return nil
}

func (r *recorder) OnLateSale(_ context.Context, s *sales.Sale, _ *shift.Shift) error {
	r.mu.Lock()
	r.late = append(r.late, s)
	r.mu.Unlock()
	r.add("late_sale")
	return nil
}

func (r *recorder) OnPersistenceFailure(_ context.Context, op string, _ error) error {
	r.mu.Lock()
	r.failures = append(r.failures, op)
	r.mu.Unlock()
	return nil
}

type harness struct {
	eng   *dreambiz.Engine
	store store.Store
	clock *clock
	hooks *recorder
}

func newHarness(t *testing.T, s store.Store, opts ...dreambiz.Option) *harness {
	t.Helper()

	if s == nil {
		s = memory.New()
	}
	h := &harness{store: s, clock: newClock(), hooks: newRecorder()}

	base := []dreambiz.Option{
		dreambiz.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		dreambiz.WithClock(h.clock.Now),
		dreambiz.WithPlugin(h.hooks),
		dreambiz.WithRetryPolicy(retry.Policy{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2,
		}),
	}
	h.eng = dreambiz.New(s, append(base, opts...)...)
	require.NoError(t, h.eng.Start(context.Background()))
	return h
}

func (h *harness) principal(userID string) identity.Principal {
	return identity.Principal{UserID: userID, ExpiresAt: h.clock.Now().Add(time.Hour)}
}

func (h *harness) subscribe(t *testing.T, userID, slug string) {
	t.Helper()
	ctx := context.Background()

	_, err := h.eng.SeedDefaultPlans(ctx)
	require.NoError(t, err)
	p, err := h.eng.GetPlanBySlug(ctx, slug)
	require.NoError(t, err)

	now := h.clock.Now()
	_, err = h.eng.CreateSubscription(ctx, &subscription.Subscription{
		UserID:             userID,
		PlanID:             p.ID,
		CurrentPeriodStart: now.Add(-time.Hour),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	})
	require.NoError(t, err)
}

func input(name string) tenant.Input {
	return tenant.Input{
		Name:         name,
		BusinessType: "retail",
		Currency:     "USD",
		OwnerName:    "Rudo Moyo",
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "%s: got %s, want %s", msg, got, want)
}

// ──────────────────────────────────────────────────
// Tenant registry
// ──────────────────────────────────────────────────

func TestCreateTenantFreePlanLimit(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.principal("user_1")

	biz, err := h.eng.CreateTenant(ctx, p, "user_1", input("  Mama's   Kitchen "))
	require.NoError(t, err)
	assert.Equal(t, "Mama's Kitchen", biz.Name)
	assert.Equal(t, "user_1", biz.OwnerID)
	assert.Equal(t, id.PrefixTenant, biz.ID.Prefix())

	_, err = h.eng.CreateTenant(ctx, p, "user_1", input("Second Shop"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dreambiz.ErrLimitExceeded)
	assert.Equal(t, dreambiz.KindLimitExceeded, dreambiz.KindOf(err))

	le, ok := dreambiz.LimitOf(err)
	require.True(t, ok)
	assert.Equal(t, "Free", le.PlanName)
	assert.Equal(t, int64(1), le.Limit)
	assert.Contains(t, dreambiz.UserMessage(err), "Free plan allows 1")

	count, err := h.store.CountTenants(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, h.hooks.count("tenant_created"))
	assert.Equal(t, 1, h.hooks.count("tenant_limit_exceeded"))
}

func TestCreateTenantAuthorization(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.eng.CreateTenant(ctx, identity.Anonymous, "user_1", input("Shop"))
	assert.ErrorIs(t, err, dreambiz.ErrUnauthenticated)

	expired := identity.Principal{UserID: "user_1", ExpiresAt: h.clock.Now().Add(-time.Minute)}
	_, err = h.eng.CreateTenant(ctx, expired, "user_1", input("Shop"))
	assert.ErrorIs(t, err, dreambiz.ErrUnauthenticated)

	_, err = h.eng.CreateTenant(ctx, h.principal("user_2"), "user_1", input("Shop"))
	assert.ErrorIs(t, err, dreambiz.ErrForbidden)

	count, err := h.store.CountTenants(ctx, "user_1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateTenantValidation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p := h.principal("user_1")

	tests := []struct {
		name  string
		in    tenant.Input
		field string
	}{
		{"missing name", input("   "), "name"},
		{"short currency", func() tenant.Input { in := input("Shop"); in.Currency = "US"; return in }(), "currency"},
		{"bad email", func() tenant.Input { in := input("Shop"); in.Email = "not-an-email"; return in }(), "email"},
		{"unknown stage", func() tenant.Input { in := input("Shop"); in.Stage = "unicorn"; return in }(), "stage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.eng.CreateTenant(ctx, p, "user_1", tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, dreambiz.ErrInvalidInput)

			var ve dreambiz.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCreateTenantDuplicateName(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.subscribe(t, "user_1", "business")
	p := h.principal("user_1")

	_, err := h.eng.CreateTenant(ctx, p, "user_1", input("Corner Shop"))
	require.NoError(t, err)

	_, err = h.eng.CreateTenant(ctx, p, "user_1", input("  corner   SHOP"))
	assert.ErrorIs(t, err, dreambiz.ErrDuplicateName)
	assert.Equal(t, "a business with this name already exists; choose a different name", dreambiz.UserMessage(err))

	// Names are unique per owner only.
	_, err = h.eng.CreateTenant(ctx, h.principal("user_2"), "user_2", input("Corner Shop"))
	assert.NoError(t, err)
}

func TestCreateTenantConcurrentRespectsLimit(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.subscribe(t, "user_1", "pro")
	p := h.principal("user_1")

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		limited int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.eng.CreateTenant(ctx, p, "user_1", input(fmt.Sprintf("Shop %d", i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, dreambiz.ErrLimitExceeded):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, workers-3, limited)

	count, err := h.store.CountTenants(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestCreateTenantExactlyOnceUnderRetries(t *testing.T) {
	t.Run("commit then transient failure", func(t *testing.T) {
		flaky := newFlakyStore(memory.New())
		h := newHarness(t, flaky)
		flaky.failPost("create_tenant", 1)
		ctx := context.Background()

		biz, err := h.eng.CreateTenant(ctx, h.principal("user_1"), "user_1", input("Shop"))
		require.NoError(t, err)
		assert.Equal(t, 2, flaky.Calls("create_tenant"))

		list, err := h.store.ListTenants(ctx, "user_1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, biz.ID.String(), list[0].ID.String())
		assert.Equal(t, 1, h.hooks.count("tenant_created"))
	})

	t.Run("transient failure before insert", func(t *testing.T) {
		flaky := newFlakyStore(memory.New())
		h := newHarness(t, flaky)
		flaky.failPre("create_tenant", 2)
		ctx := context.Background()

		_, err := h.eng.CreateTenant(ctx, h.principal("user_1"), "user_1", input("Shop"))
		require.NoError(t, err)
		assert.Equal(t, 3, flaky.Calls("create_tenant"))

		count, err := h.store.CountTenants(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("persistent failure", func(t *testing.T) {
		flaky := newFlakyStore(memory.New())
		h := newHarness(t, flaky)
		flaky.breakOp("create_tenant", errors.New("read tcp 10.0.0.7:5432: connection reset by peer"))
		ctx := context.Background()

		_, err := h.eng.CreateTenant(ctx, h.principal("user_1"), "user_1", input("Shop"))
		require.Error(t, err)
		assert.ErrorIs(t, err, dreambiz.ErrPersistence)
		assert.Equal(t, 3, flaky.Calls("create_tenant"))
		assert.NotContains(t, dreambiz.UserMessage(err), "connection reset")
		assert.Equal(t, []string{"create_tenant"}, h.hooks.failures)
	})
}

func TestUpdateTenant(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.subscribe(t, "user_1", "business")
	p := h.principal("user_1")

	a, err := h.eng.CreateTenant(ctx, p, "user_1", input("Alpha"))
	require.NoError(t, err)
	b, err := h.eng.CreateTenant(ctx, p, "user_1", input("Beta"))
	require.NoError(t, err)

	h.clock.Advance(time.Minute)
	name := "Beta Traders"
	website := "https://beta.example.com"
	updated, err := h.eng.UpdateTenant(ctx, p, b.ID, tenant.Patch{Name: &name, Website: &website})
	require.NoError(t, err)
	assert.Equal(t, "Beta Traders", updated.Name)
	assert.Equal(t, website, updated.Website)
	assert.Equal(t, "USD", updated.Currency)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	taken := "ALPHA"
	_, err = h.eng.UpdateTenant(ctx, p, b.ID, tenant.Patch{Name: &taken})
	assert.ErrorIs(t, err, dreambiz.ErrDuplicateName)

	bad := "XX"
	_, err = h.eng.UpdateTenant(ctx, p, a.ID, tenant.Patch{Currency: &bad})
	assert.ErrorIs(t, err, dreambiz.ErrInvalidInput)

	_, err = h.eng.UpdateTenant(ctx, h.principal("user_2"), a.ID, tenant.Patch{Name: &name})
	assert.ErrorIs(t, err, dreambiz.ErrForbidden)

	_, err = h.eng.UpdateTenant(ctx, p, id.NewTenantID(), tenant.Patch{Name: &name})
	assert.ErrorIs(t, err, dreambiz.ErrNotFound)
}

func TestListAndDefaultTenant(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.subscribe(t, "user_1", "business")
	p := h.principal("user_1")

	_, err := h.eng.DefaultTenant(ctx, p, "user_1")
	assert.ErrorIs(t, err, dreambiz.ErrNotFound)

	var ids []string
	for _, name := range []string{"First", "Second", "Third"} {
		biz, err := h.eng.CreateTenant(ctx, p, "user_1", input(name))
		require.NoError(t, err)
		ids = append(ids, biz.ID.String())
		h.clock.Advance(time.Second)
	}

	list, err := h.eng.ListTenants(ctx, p, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID.String(), "newest first")
	assert.Equal(t, ids[0], list[2].ID.String())

	def, err := h.eng.DefaultTenant(ctx, p, "user_1")
	require.NoError(t, err)
	assert.Equal(t, list[0].ID.String(), def.ID.String())

	_, err = h.eng.ListTenants(ctx, p, "user_2")
	assert.ErrorIs(t, err, dreambiz.ErrForbidden)
}

func TestDeleteTenant(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.subscribe(t, "user_1", "pro")
	p := h.principal("user_1")

	a, err := h.eng.CreateTenant(ctx, p, "user_1", input("Alpha"))
	require.NoError(t, err)
	b, err := h.eng.CreateTenant(ctx, p, "user_1", input("Beta"))
	require.NoError(t, err)

	active := p.WithActiveTenant(a.ID.String())
	err = h.eng.DeleteTenant(ctx, active, a.ID)
	assert.ErrorIs(t, err, dreambiz.ErrInvalidState)

	err = h.eng.DeleteTenant(ctx, h.principal("user_2"), b.ID)
	assert.ErrorIs(t, err, dreambiz.ErrForbidden)

	require.NoError(t, h.eng.DeleteTenant(ctx, active, b.ID))
	_, err = h.eng.GetTenant(ctx, p, b.ID)
	assert.ErrorIs(t, err, dreambiz.ErrNotFound)
}

func TestDeleteTenantRemovesShiftsAndSales(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	rec, s, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "12"), "")
	require.NoError(t, err)
	require.NotNil(t, s)

	require.NoError(t, h.eng.DeleteTenant(ctx, p, biz.ID))

	_, err = h.store.GetShift(ctx, s.ID)
	assert.ErrorIs(t, err, dreambiz.ErrShiftNotFound)
	_, err = h.store.GetSale(ctx, rec.ID)
	assert.ErrorIs(t, err, dreambiz.ErrSaleNotFound)
}

func TestCurrencyChangeWaitsForOpenShift(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	_, s, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "20"), "")
	require.NoError(t, err)

	zwg := "zwg"
	_, err = h.eng.UpdateTenant(ctx, p, biz.ID, tenant.Patch{Currency: &zwg})
	assert.ErrorIs(t, err, dreambiz.ErrInvalidState)

	got, err := h.eng.GetTenant(ctx, p, biz.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Currency, "currency unchanged")

	// Other fields can still change mid-shift.
	name := "Shop Two"
	_, err = h.eng.UpdateTenant(ctx, p, biz.ID, tenant.Patch{Name: &name})
	require.NoError(t, err)

	_, err = h.eng.CloseShift(ctx, p, s.ID, "", dec("20"))
	require.NoError(t, err)

	updated, err := h.eng.UpdateTenant(ctx, p, biz.ID, tenant.Patch{Currency: &zwg})
	require.NoError(t, err)
	assert.Equal(t, "ZWG", updated.Currency)

	next, opened, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-02", sales.MethodCash, "5"), "")
	require.NoError(t, err)
	assert.Equal(t, "ZWG", next.Currency)
	assert.Equal(t, "ZWG", opened.Currency)
	assertDec(t, "0", opened.OpeningCash, "the USD float is not carried into ZWG")
}

// ──────────────────────────────────────────────────
// Entitlements
// ──────────────────────────────────────────────────

func TestResolveEntitlement(t *testing.T) {
	h := newHarness(t, nil, dreambiz.WithEntitlementCacheTTL(0))
	ctx := context.Background()

	// Nothing stored: the built-in Free plan applies.
	r, err := h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.SourceFree, r.Source)
	assert.Equal(t, int64(1), r.MaxTenants)
	assert.True(t, r.PlanID.IsNil())

	_, err = h.eng.SeedDefaultPlans(ctx)
	require.NoError(t, err)

	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, plan.FreeSlug, r.PlanSlug)
	assert.False(t, r.PlanID.IsNil(), "stored free plan is preferred")

	business, err := h.eng.GetPlanBySlug(ctx, "business")
	require.NoError(t, err)
	_, err = h.eng.StartTrial(ctx, "user_1", business.ID)
	require.NoError(t, err)

	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.SourceTrial, r.Source)
	assert.True(t, r.Unlimited())

	h.subscribe(t, "user_1", "pro")
	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.SourceSubscription, r.Source, "subscription wins over trial")
	assert.Equal(t, int64(3), r.MaxTenants)

	// Past the trial and the subscription period only the free plan is left.
	h.clock.Advance(45 * 24 * time.Hour)
	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, entitlement.SourceFree, r.Source)
}

func TestEntitlementCache(t *testing.T) {
	h := newHarness(t, nil, dreambiz.WithEntitlementCacheTTL(time.Minute))
	ctx := context.Background()

	_, err := h.eng.SeedDefaultPlans(ctx)
	require.NoError(t, err)
	pro, err := h.eng.GetPlanBySlug(ctx, "pro")
	require.NoError(t, err)

	r, err := h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, plan.FreeSlug, r.PlanSlug)

	// A subscription written behind the engine's back is seen after the TTL.
	now := h.clock.Now()
	require.NoError(t, h.store.CreateSubscription(ctx, &subscription.Subscription{
		Entity:             types.NewEntityAt(now),
		ID:                 id.NewSubscriptionID(),
		UserID:             "user_1",
		PlanID:             pro.ID,
		Status:             subscription.StatusActive,
		CurrentPeriodStart: now.Add(-time.Hour),
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
	}))

	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, plan.FreeSlug, r.PlanSlug, "cached")

	h.clock.Advance(2 * time.Minute)
	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "pro", r.PlanSlug)

	// Engine writes invalidate at once.
	sub, err := h.store.ListSubscriptions(ctx, "user_1", subscription.ListOpts{})
	require.NoError(t, err)
	require.Len(t, sub, 1)
	_, err = h.eng.CancelSubscription(ctx, sub[0].ID)
	require.NoError(t, err)

	r, err = h.eng.Resolve(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, plan.FreeSlug, r.PlanSlug)
}

func TestCustomResolver(t *testing.T) {
	h := newHarness(t, nil, dreambiz.WithResolver(entitlement.ResolverFunc(
		func(_ context.Context, userID string) (*entitlement.Result, error) {
			return &entitlement.Result{UserID: userID, PlanName: "Partner", MaxTenants: 2}, nil
		})))
	ctx := context.Background()
	p := h.principal("user_1")

	for _, name := range []string{"One", "Two"} {
		_, err := h.eng.CreateTenant(ctx, p, "user_1", input(name))
		require.NoError(t, err)
	}
	_, err := h.eng.CreateTenant(ctx, p, "user_1", input("Three"))
	le, ok := dreambiz.LimitOf(err)
	require.True(t, ok)
	assert.Equal(t, "Partner", le.PlanName)
	assert.Equal(t, int64(2), le.Limit)
}

func TestSeedDefaultPlansIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	created, err := h.eng.SeedDefaultPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	created, err = h.eng.SeedDefaultPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, created)

	plans, err := h.eng.ListPlans(ctx, plan.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, plans, 3)

	_, err = h.eng.CreatePlan(ctx, &plan.Plan{Name: "Pro again", Slug: "PRO"})
	assert.ErrorIs(t, err, dreambiz.ErrDuplicateName)
}

// ──────────────────────────────────────────────────
// Shift ledger
// ──────────────────────────────────────────────────

func setupShop(t *testing.T, h *harness) (identity.Principal, *tenant.Tenant) {
	t.Helper()
	p := h.principal("user_1")
	biz, err := h.eng.CreateTenant(context.Background(), p, "user_1", input("Shop"))
	require.NoError(t, err)
	return p, biz
}

func sale(biz *tenant.Tenant, date string, method sales.Method, total string) *sales.Sale {
	return &sales.Sale{
		TenantID: biz.ID,
		Date:     types.MustParseDate(date),
		Method:   method,
		Total:    dec(total),
	}
}

func TestEnsureOpenShiftIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)
	day := types.MustParseDate("2024-03-01")

	const workers = 8
	got := make([]*shift.Shift, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := h.eng.EnsureOpenShift(ctx, p, biz.ID, day, "cashier")
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range got {
		require.NotNil(t, s)
		assert.Equal(t, got[0].ID.String(), s.ID.String())
		assert.True(t, s.IsOpen())
	}
	assert.Equal(t, 1, h.hooks.count("shift_opened"))

	list, err := h.eng.ListShifts(ctx, p, biz.ID, shift.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEnsureOpenShiftDefaultsToToday(t *testing.T) {
	h := newHarness(t, nil, dreambiz.WithLocation(time.FixedZone("CAT", 2*60*60)))
	ctx := context.Background()
	_, biz := setupShop(t, h)

	// 23:30 UTC is already the next day in Harare.
	h.clock.Advance(13*time.Hour + 30*time.Minute)
	p := h.principal("user_1")
	s, err := h.eng.EnsureOpenShift(ctx, p, biz.ID, types.Date{}, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", s.Date.String())
	assert.Equal(t, "user_1", s.OpenedBy)
}

func TestShiftCarryForwardAndDiscrepancy(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	_, day1, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "100"), "")
	require.NoError(t, err)
	require.NotNil(t, day1)
	assertDec(t, "0", day1.OpeningCash, "first shift opens with nothing")

	_, err = h.eng.CloseShift(ctx, p, day1.ID, "", dec("100"))
	require.NoError(t, err)

	_, day2, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-02", sales.MethodCash, "250"), "")
	require.NoError(t, err)
	assertDec(t, "100", day2.OpeningCash, "carried from counted cash")

	live, err := h.eng.RecomputeTotals(ctx, p, day2.ID)
	require.NoError(t, err)
	assertDec(t, "350", live.ExpectedCash, "live expected cash")

	closed, err := h.eng.CloseShift(ctx, p, day2.ID, "manager", dec("340"))
	require.NoError(t, err)
	assert.True(t, closed.IsClosed())
	assert.Equal(t, "manager", closed.ClosedBy)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.Totals)
	assertDec(t, "350", closed.ClosingCash.Decimal, "expected cash")
	assertDec(t, "340", closed.ActualCash.Decimal, "actual cash")
	assertDec(t, "-10", closed.CashDiscrepancy.Decimal, "discrepancy")
	assert.Equal(t, 1, closed.Totals.SalesCount)

	day3, err := h.eng.EnsureOpenShift(ctx, p, biz.ID, types.MustParseDate("2024-03-03"), "")
	require.NoError(t, err)
	assertDec(t, "340", day3.OpeningCash, "carried from the latest closed shift")
	assert.Equal(t, 2, h.hooks.count("shift_closed"))
}

func TestRecomputeTotals(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)
	day := "2024-03-01"

	records := []*sales.Sale{
		sale(biz, day, sales.MethodCash, "10"),
		sale(biz, day, sales.MethodCard, "20"),
		sale(biz, day, sales.MethodMobileMoney, "5"),
		sale(biz, day, sales.Method("voucher"), "7"),
		func() *sales.Sale { s := sale(biz, day, sales.MethodCash, "3"); s.Kind = sales.KindRefund; return s }(),
		func() *sales.Sale { s := sale(biz, day, sales.MethodCash, "100"); s.Status = sales.StatusUnpaid; return s }(),
		func() *sales.Sale { s := sale(biz, day, sales.MethodCash, "50"); s.Status = sales.StatusVoid; return s }(),
	}
	records[0].Discount = dec("1.5")

	var sh *shift.Shift
	for _, r := range records {
		_, s, err := h.eng.RecordSale(ctx, p, r, "")
		require.NoError(t, err)
		if s != nil {
			sh = s
		}
	}
	require.NotNil(t, sh)

	totals, err := h.eng.RecomputeTotals(ctx, p, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, totals.SalesCount)
	assert.Equal(t, 1, totals.RefundCount)
	assertDec(t, "42", totals.Gross, "gross")
	assertDec(t, "10", totals.Cash, "cash")
	assertDec(t, "20", totals.Card, "card")
	assertDec(t, "5", totals.MobileMoney, "mobile money")
	assertDec(t, "7", totals.Other, "other")
	assertDec(t, "1.5", totals.Discounts, "discounts")
	assertDec(t, "3", totals.Refunds, "refunds")
	assertDec(t, "39", totals.Net, "net")
	assertDec(t, "7", totals.ExpectedCash, "expected cash")

	// Recomputing never mutates the row.
	again, err := h.eng.GetShift(ctx, p, sh.ID)
	require.NoError(t, err)
	assert.True(t, again.IsOpen())
	assert.Nil(t, again.Totals)
}

func TestEmptyDayTotals(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	s, err := h.eng.EnsureOpenShift(ctx, p, biz.ID, types.MustParseDate("2024-03-01"), "")
	require.NoError(t, err)

	totals, err := h.eng.RecomputeTotals(ctx, p, s.ID)
	require.NoError(t, err)
	assert.True(t, totals.Equal(reconcile.Compute(decimal.Zero, nil)), "got %+v", totals)

	closed, err := h.eng.CloseShift(ctx, p, s.ID, "", decimal.Zero)
	require.NoError(t, err)
	assertDec(t, "0", closed.CashDiscrepancy.Decimal, "discrepancy")
}

func TestCloseShiftIsTerminal(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	_, s, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "20"), "")
	require.NoError(t, err)

	_, err = h.eng.CloseShift(ctx, p, s.ID, "", dec("-1"))
	assert.ErrorIs(t, err, dreambiz.ErrInvalidInput)

	first, err := h.eng.CloseShift(ctx, p, s.ID, "", dec("20"))
	require.NoError(t, err)

	_, err = h.eng.CloseShift(ctx, p, s.ID, "", dec("25"))
	assert.ErrorIs(t, err, dreambiz.ErrInvalidState)

	stored, err := h.eng.GetShift(ctx, p, s.ID)
	require.NoError(t, err)
	assert.Equal(t, first.CloseRef.String(), stored.CloseRef.String())
	assertDec(t, "20", stored.ActualCash.Decimal, "counted cash unchanged")

	// Opening the same day again returns the closed row as is.
	same, err := h.eng.EnsureOpenShift(ctx, p, biz.ID, s.Date, "")
	require.NoError(t, err)
	assert.Equal(t, s.ID.String(), same.ID.String())
	assert.True(t, same.IsClosed())

	_, err = h.eng.CloseShift(ctx, h.principal("user_2"), s.ID, "", dec("20"))
	assert.ErrorIs(t, err, dreambiz.ErrForbidden)

	_, err = h.eng.CloseShift(ctx, p, id.NewShiftID(), "", dec("20"))
	assert.ErrorIs(t, err, dreambiz.ErrNotFound)
}

func TestShiftWritesSurviveRetries(t *testing.T) {
	flaky := newFlakyStore(memory.New())
	h := newHarness(t, flaky)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	flaky.failPost("insert_shift", 1)
	s, err := h.eng.EnsureOpenShift(ctx, p, biz.ID, types.MustParseDate("2024-03-01"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.Calls("insert_shift"))
	assert.Equal(t, 1, h.hooks.count("shift_opened"), "our own committed insert still counts as opened")

	flaky.failPost("create_sale", 1)
	_, _, err = h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "15"), "")
	require.NoError(t, err)
	paid, err := h.store.PaidSales(ctx, biz.ID, s.Date)
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	flaky.failPost("close_shift", 1)
	closed, err := h.eng.CloseShift(ctx, p, s.ID, "", dec("15"))
	require.NoError(t, err)
	assert.Equal(t, 2, flaky.Calls("close_shift"))
	assert.True(t, closed.IsClosed())
	assertDec(t, "0", closed.CashDiscrepancy.Decimal, "discrepancy")
}

func TestLateSaleForClosedShift(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	_, s, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "10"), "")
	require.NoError(t, err)
	closed, err := h.eng.CloseShift(ctx, p, s.ID, "", dec("10"))
	require.NoError(t, err)

	late, got, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "5"), "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, closed.ID.String(), got.ID.String())
	assert.True(t, got.IsClosed())
	assertDec(t, "10", got.Totals.Cash, "frozen totals")

	require.Equal(t, 1, h.hooks.count("late_sale"))
	assert.Equal(t, late.ID.String(), h.hooks.late[0].ID.String())

	shifts, err := h.eng.ListShifts(ctx, p, biz.ID, shift.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, shifts, 1, "no second shift for the day")
}

func TestRecordSale(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	unpaid := sale(biz, "2024-03-01", sales.MethodCard, "30")
	unpaid.Status = sales.StatusUnpaid
	rec, s, err := h.eng.RecordSale(ctx, p, unpaid, "")
	require.NoError(t, err)
	assert.Nil(t, s, "unpaid documents do not open a shift")
	assert.Equal(t, "USD", rec.Currency, "defaults to the business currency")
	assert.False(t, rec.ID.IsNil())

	_, err = h.eng.ShiftForDate(ctx, p, biz.ID, types.MustParseDate("2024-03-01"))
	assert.ErrorIs(t, err, dreambiz.ErrNotFound)

	gift := sale(biz, "2024-03-01", sales.MethodCash, "1")
	gift.Kind = "gift"
	_, _, err = h.eng.RecordSale(ctx, p, gift, "")
	var ve dreambiz.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "kind", ve.Field)

	_, _, err = h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "-4"), "")
	assert.ErrorIs(t, err, dreambiz.ErrInvalidInput)

	_, _, err = h.eng.RecordSale(ctx, h.principal("user_2"), sale(biz, "2024-03-01", sales.MethodCash, "4"), "")
	assert.ErrorIs(t, err, dreambiz.ErrForbidden)

	rec, s, err = h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.Method("crypto"), "4"), "")
	require.NoError(t, err)
	assert.Equal(t, sales.MethodOther, rec.Method)
	require.NotNil(t, s)
	assert.Equal(t, "2024-03-01", s.Date.String())

	_, _, err = h.eng.RecordSale(ctx, p, rec, "")
	assert.ErrorIs(t, err, dreambiz.ErrInvalidState, "the same sale twice")
}

func TestRecordSaleRejectsForeignCurrency(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	_, s, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "40"), "")
	require.NoError(t, err)

	foreign := sale(biz, "2024-03-01", sales.MethodCash, "900")
	foreign.Currency = "zar"
	_, _, err = h.eng.RecordSale(ctx, p, foreign, "")
	require.ErrorIs(t, err, dreambiz.ErrInvalidInput)
	var ve dreambiz.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "currency", ve.Field)

	lower := sale(biz, "2024-03-01", sales.MethodCash, "2")
	lower.Currency = "usd"
	rec, _, err := h.eng.RecordSale(ctx, p, lower, "")
	require.NoError(t, err)
	assert.Equal(t, "USD", rec.Currency)

	totals, err := h.eng.RecomputeTotals(ctx, p, s.ID)
	require.NoError(t, err)
	assertDec(t, "42", totals.Cash, "cash")
	assert.Equal(t, "USD", totals.Currency)
	assert.Zero(t, totals.Excluded)
}

func TestTotalsLeaveOutForeignCurrencyRows(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	p, biz := setupShop(t, h)

	_, s, err := h.eng.RecordSale(ctx, p, sale(biz, "2024-03-01", sales.MethodCash, "40"), "")
	require.NoError(t, err)

	// A row written before the currency rule existed.
	legacy := sale(biz, "2024-03-01", sales.MethodCash, "900")
	legacy.ID = id.NewSaleID()
	legacy.Kind = sales.KindSale
	legacy.Status = sales.StatusPaid
	legacy.Currency = "ZAR"
	legacy.CreatedAt = h.clock.Now()
	require.NoError(t, h.store.CreateSale(ctx, legacy))

	closed, err := h.eng.CloseShift(ctx, p, s.ID, "", dec("40"))
	require.NoError(t, err)
	require.NotNil(t, closed.Totals)
	assertDec(t, "40", closed.Totals.Cash, "cash")
	assert.Equal(t, 1, closed.Totals.Excluded)
	assertDec(t, "0", closed.CashDiscrepancy.Decimal, "discrepancy")
}

func TestStoppedEngineReportsPersistence(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.eng.Stop())

	_, err := h.eng.CreateTenant(context.Background(), h.principal("user_1"), "user_1", input("Shop"))
	require.Error(t, err)
	assert.ErrorIs(t, err, dreambiz.ErrPersistence)
	assert.False(t, strings.Contains(dreambiz.UserMessage(err), "closed"))
}
