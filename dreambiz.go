package dreambiz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/blyssafrica-alt/dreambiz-sub006/entitlement"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/plugin"
	"github.com/blyssafrica-alt/dreambiz-sub006/retry"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// Engine runs the tenant registry and the shift ledger on top of a store.
type Engine struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	validate *validator.Validate

	resolver entitlement.Resolver
	cache    *entitlement.Cache
	feed     sales.Feed

	retry       retry.Policy
	now         func() time.Time
	loc         *time.Location
	autoMigrate bool

	// Configuration
	operationTimeout    time.Duration
	entitlementCacheTTL time.Duration
}

// Default engine settings.
const (
	DefaultOperationTimeout    = 10 * time.Second
	DefaultEntitlementCacheTTL = 30 * time.Second
)

// New creates an Engine. The store doubles as the sales feed unless
// WithSalesFeed replaces it.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:               s,
		plugins:             plugin.NewRegistry(),
		logger:              slog.Default(),
		feed:                s,
		retry:               retry.DefaultPolicy(),
		now:                 time.Now,
		loc:                 time.UTC,
		autoMigrate:         true,
		operationTimeout:    DefaultOperationTimeout,
		entitlementCacheTTL: DefaultEntitlementCacheTTL,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.validate == nil {
		e.validate = NewValidator()
	}
	if e.retry.Retryable == nil {
		e.retry.Retryable = IsRetryable
	}
	if e.retry.OnRetry == nil {
		logger := e.logger
		e.retry.OnRetry = func(err error, attempt int, wait time.Duration) {
			logger.Warn("dreambiz: retrying store call", "attempt", attempt, "wait", wait, "error", err)
		}
	}
	e.retry.AttemptTimeout = e.operationTimeout
	e.cache = entitlement.NewCache(e.entitlementCacheTTL).WithClock(e.now)

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithResolver replaces the built-in entitlement resolution.
func WithResolver(r entitlement.Resolver) Option {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithSalesFeed sets where paid sale records are read from when totals are
// computed.
func WithSalesFeed(f sales.Feed) Option {
	return func(e *Engine) {
		e.feed = f
	}
}

// WithRetryPolicy replaces the retry policy for store calls. The per-attempt
// timeout always comes from WithOperationTimeout.
func WithRetryPolicy(p retry.Policy) Option {
	return func(e *Engine) {
		e.retry = p
	}
}

// WithOperationTimeout bounds every store call attempt.
func WithOperationTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.operationTimeout = d
	}
}

// WithEntitlementCacheTTL sets the entitlement cache TTL. Zero disables it.
func WithEntitlementCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.entitlementCacheTTL = ttl
	}
}

// WithClock replaces the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocation sets the time zone business dates are taken in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		e.loc = loc
	}
}

// WithValidator replaces the input validator.
func WithValidator(v *validator.Validate) Option {
	return func(e *Engine) {
		e.validate = v
	}
}

// WithAutoMigrate controls whether Start migrates the store.
func WithAutoMigrate(enabled bool) Option {
	return func(e *Engine) {
		e.autoMigrate = enabled
	}
}

// Store returns the engine's store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if e.autoMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return e.fail(ctx, "start", err)
		}
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("dreambiz started",
		"plugins", e.plugins.Count(),
		"operation_timeout", e.operationTimeout,
		"cache_ttl", e.entitlementCacheTTL,
		"location", e.loc.String(),
	)
	return nil
}

// Stop shuts plugins down and closes the store.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Microsecond)
}

// today is the current business date in the engine's location.
func (e *Engine) today() types.Date {
	return types.DateOf(e.now().In(e.loc))
}

// authenticate rejects a missing or expired principal.
func (e *Engine) authenticate(op string, p identity.Principal) error {
	if !p.Authenticated(e.now()) {
		return newError(KindUnauthenticated, op, "sign in to continue", nil)
	}
	return nil
}

// call runs a store operation under the retry policy.
func call[T any](ctx context.Context, e *Engine, fn func(ctx context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, e.retry, fn)
}

// exec is call for operations without a result.
func (e *Engine) exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Run(ctx, e.retry, fn)
}

// fail converts a store error into the engine's typed *Error. Failures the
// engine cannot classify become KindPersistence, are logged and reported to
// plugins.
func (e *Engine) fail(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, ErrTenantNotFound):
		return newError(KindNotFound, op, "business profile not found", err)
	case errors.Is(err, ErrShiftNotFound):
		return newError(KindNotFound, op, "shift not found", err)
	case errors.Is(err, ErrSaleNotFound):
		return newError(KindNotFound, op, "sale not found", err)
	case errors.Is(err, ErrPlanNotFound):
		return newError(KindNotFound, op, "plan not found", err)
	case errors.Is(err, ErrSubscriptionNotFound):
		return newError(KindNotFound, op, "subscription not found", err)
	case errors.Is(err, ErrDuplicateName):
		return newError(KindDuplicateName, op, "a business with this name already exists; choose a different name", err)
	case errors.Is(err, ErrPlanExists):
		return newError(KindDuplicateName, op, "a plan with this slug already exists", err)
	case errors.Is(err, ErrShiftNotOpen):
		return newError(KindInvalidState, op, "the shift is already closed", err)
	case errors.Is(err, ErrShiftExists):
		return newError(KindInvalidState, op, "a shift already exists for this day", err)
	case errors.Is(err, ErrSaleExists):
		return newError(KindInvalidState, op, "this sale was already recorded", err)
	case errors.Is(err, ErrTenantExists):
		return newError(KindInvalidState, op, "this business profile already exists", err)
	}

	e.logger.Error("dreambiz: store failure", "op", op, "error", err)
	e.plugins.EmitPersistenceFailure(ctx, op, err)
	msg := "we could not save your changes; please try again"
	if errors.Is(err, context.Canceled) {
		msg = "the operation was canceled"
	}
	return newError(KindPersistence, op, msg, err)
}
