package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

// DefaultHookTimeout bounds every hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery so dispatch never type-switches.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onTenantCreated        []OnTenantCreated
	onTenantUpdated        []OnTenantUpdated
	onTenantDeleted        []OnTenantDeleted
	onTenantLimitExceeded  []OnTenantLimitExceeded
	onShiftOpened          []OnShiftOpened
	onShiftClosed          []OnShiftClosed
	onSaleRecorded         []OnSaleRecorded
	onLateSale             []OnLateSale
	onSubscriptionCreated  []OnSubscriptionCreated
	onSubscriptionCanceled []OnSubscriptionCanceled
	onTrialStarted         []OnTrialStarted
	onPersistenceFailure   []OnPersistenceFailure
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTenantCreated); ok {
		r.onTenantCreated = append(r.onTenantCreated, v)
	}
	if v, ok := p.(OnTenantUpdated); ok {
		r.onTenantUpdated = append(r.onTenantUpdated, v)
	}
	if v, ok := p.(OnTenantDeleted); ok {
		r.onTenantDeleted = append(r.onTenantDeleted, v)
	}
	if v, ok := p.(OnTenantLimitExceeded); ok {
		r.onTenantLimitExceeded = append(r.onTenantLimitExceeded, v)
	}
	if v, ok := p.(OnShiftOpened); ok {
		r.onShiftOpened = append(r.onShiftOpened, v)
	}
	if v, ok := p.(OnShiftClosed); ok {
		r.onShiftClosed = append(r.onShiftClosed, v)
	}
	if v, ok := p.(OnSaleRecorded); ok {
		r.onSaleRecorded = append(r.onSaleRecorded, v)
	}
	if v, ok := p.(OnLateSale); ok {
		r.onLateSale = append(r.onLateSale, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnSubscriptionCanceled); ok {
		r.onSubscriptionCanceled = append(r.onSubscriptionCanceled, v)
	}
	if v, ok := p.(OnTrialStarted); ok {
		r.onTrialStarted = append(r.onTrialStarted, v)
	}
	if v, ok := p.(OnPersistenceFailure); ok {
		r.onPersistenceFailure = append(r.onPersistenceFailure, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnTenantCreated", reflect.TypeFor[OnTenantCreated]()},
	{"OnTenantUpdated", reflect.TypeFor[OnTenantUpdated]()},
	{"OnTenantDeleted", reflect.TypeFor[OnTenantDeleted]()},
	{"OnTenantLimitExceeded", reflect.TypeFor[OnTenantLimitExceeded]()},
	{"OnShiftOpened", reflect.TypeFor[OnShiftOpened]()},
	{"OnShiftClosed", reflect.TypeFor[OnShiftClosed]()},
	{"OnSaleRecorded", reflect.TypeFor[OnSaleRecorded]()},
	{"OnLateSale", reflect.TypeFor[OnLateSale]()},
	{"OnSubscriptionCreated", reflect.TypeFor[OnSubscriptionCreated]()},
	{"OnSubscriptionCanceled", reflect.TypeFor[OnSubscriptionCanceled]()},
	{"OnTrialStarted", reflect.TypeFor[OnTrialStarted]()},
	{"OnPersistenceFailure", reflect.TypeFor[OnPersistenceFailure]()},
}

// implementedInterfaces returns the hook interfaces implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit snapshots the cached list under the read lock and calls each hook
// with a timeout, logging failures.
func emit[T Plugin](ctx context.Context, r *Registry, list *[]T, hook string, call func(T) error) {
	r.mu.RLock()
	plugins := *list
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine any) {
	emit(ctx, r, &r.onInit, "OnInit", func(p OnInit) error {
		return p.OnInit(ctx, engine)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, &r.onShutdown, "OnShutdown", func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitTenantCreated emits a business profile created event.
func (r *Registry) EmitTenantCreated(ctx context.Context, t *tenant.Tenant) {
	emit(ctx, r, &r.onTenantCreated, "OnTenantCreated", func(p OnTenantCreated) error {
		return p.OnTenantCreated(ctx, t)
	})
}

// EmitTenantUpdated emits a business profile updated event.
func (r *Registry) EmitTenantUpdated(ctx context.Context, t *tenant.Tenant) {
	emit(ctx, r, &r.onTenantUpdated, "OnTenantUpdated", func(p OnTenantUpdated) error {
		return p.OnTenantUpdated(ctx, t)
	})
}

// EmitTenantDeleted emits a business profile deleted event.
func (r *Registry) EmitTenantDeleted(ctx context.Context, t *tenant.Tenant) {
	emit(ctx, r, &r.onTenantDeleted, "OnTenantDeleted", func(p OnTenantDeleted) error {
		return p.OnTenantDeleted(ctx, t)
	})
}

// EmitTenantLimitExceeded emits a refused-create event.
func (r *Registry) EmitTenantLimitExceeded(ctx context.Context, userID, planName string, limit int64) {
	emit(ctx, r, &r.onTenantLimitExceeded, "OnTenantLimitExceeded", func(p OnTenantLimitExceeded) error {
		return p.OnTenantLimitExceeded(ctx, userID, planName, limit)
	})
}

// EmitShiftOpened emits a shift opened event.
func (r *Registry) EmitShiftOpened(ctx context.Context, s *shift.Shift) {
	emit(ctx, r, &r.onShiftOpened, "OnShiftOpened", func(p OnShiftOpened) error {
		return p.OnShiftOpened(ctx, s)
	})
}

// EmitShiftClosed emits a shift closed event.
func (r *Registry) EmitShiftClosed(ctx context.Context, s *shift.Shift) {
	emit(ctx, r, &r.onShiftClosed, "OnShiftClosed", func(p OnShiftClosed) error {
		return p.OnShiftClosed(ctx, s)
	})
}

// EmitSaleRecorded emits a sale recorded event.
func (r *Registry) EmitSaleRecorded(ctx context.Context, s *sales.Sale) {
	emit(ctx, r, &r.onSaleRecorded, "OnSaleRecorded", func(p OnSaleRecorded) error {
		return p.OnSaleRecorded(ctx, s)
	})
}

// EmitLateSale emits a sale-after-close event.
func (r *Registry) EmitLateSale(ctx context.Context, s *sales.Sale, closed *shift.Shift) {
	emit(ctx, r, &r.onLateSale, "OnLateSale", func(p OnLateSale) error {
		return p.OnLateSale(ctx, s, closed)
	})
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, &r.onSubscriptionCreated, "OnSubscriptionCreated", func(p OnSubscriptionCreated) error {
		return p.OnSubscriptionCreated(ctx, sub)
	})
}

// EmitSubscriptionCanceled emits a subscription canceled event.
func (r *Registry) EmitSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) {
	emit(ctx, r, &r.onSubscriptionCanceled, "OnSubscriptionCanceled", func(p OnSubscriptionCanceled) error {
		return p.OnSubscriptionCanceled(ctx, sub)
	})
}

// EmitTrialStarted emits a trial started event.
func (r *Registry) EmitTrialStarted(ctx context.Context, tr *subscription.Trial) {
	emit(ctx, r, &r.onTrialStarted, "OnTrialStarted", func(p OnTrialStarted) error {
		return p.OnTrialStarted(ctx, tr)
	})
}

// EmitPersistenceFailure emits a store failure event.
func (r *Registry) EmitPersistenceFailure(ctx context.Context, op string, err error) {
	emit(ctx, r, &r.onPersistenceFailure, "OnPersistenceFailure", func(p OnPersistenceFailure) error {
		return p.OnPersistenceFailure(ctx, op, err)
	})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
			}
		}()
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
