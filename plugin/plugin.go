// Package plugin provides an extensible plugin system for DreamBiz.
// Plugins hook into tenant, shift and sale lifecycle events. Hooks run after
// the state change is committed; a failing or slow hook is logged and never
// undoes or blocks the operation.
package plugin

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine any) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Tenant hooks
// ──────────────────────────────────────────────────

// OnTenantCreated is called after a business profile is created.
type OnTenantCreated interface {
	Plugin
	OnTenantCreated(ctx context.Context, t *tenant.Tenant) error
}

// OnTenantUpdated is called after a business profile is updated.
type OnTenantUpdated interface {
	Plugin
	OnTenantUpdated(ctx context.Context, t *tenant.Tenant) error
}

// OnTenantDeleted is called after a business profile is deleted.
type OnTenantDeleted interface {
	Plugin
	OnTenantDeleted(ctx context.Context, t *tenant.Tenant) error
}

// OnTenantLimitExceeded is called when a create is refused by the plan cap.
type OnTenantLimitExceeded interface {
	Plugin
	OnTenantLimitExceeded(ctx context.Context, userID, planName string, limit int64) error
}

// ──────────────────────────────────────────────────
// Shift hooks
// ──────────────────────────────────────────────────

// OnShiftOpened is called when a new shift row is inserted. It is not
// called when an existing row is returned.
type OnShiftOpened interface {
	Plugin
	OnShiftOpened(ctx context.Context, s *shift.Shift) error
}

// OnShiftClosed is called after a shift is closed.
type OnShiftClosed interface {
	Plugin
	OnShiftClosed(ctx context.Context, s *shift.Shift) error
}

// ──────────────────────────────────────────────────
// Sale hooks
// ──────────────────────────────────────────────────

// OnSaleRecorded is called after a sale record is stored.
type OnSaleRecorded interface {
	Plugin
	OnSaleRecorded(ctx context.Context, s *sales.Sale) error
}

// OnLateSale is called when a paid sale arrives for a day whose shift is
// already closed.
type OnLateSale interface {
	Plugin
	OnLateSale(ctx context.Context, s *sales.Sale, closed *shift.Shift) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called when a new subscription is created.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error
}

// OnSubscriptionCanceled is called when a subscription is canceled.
type OnSubscriptionCanceled interface {
	Plugin
	OnSubscriptionCanceled(ctx context.Context, sub *subscription.Subscription) error
}

// OnTrialStarted is called when a trial starts.
type OnTrialStarted interface {
	Plugin
	OnTrialStarted(ctx context.Context, tr *subscription.Trial) error
}

// ──────────────────────────────────────────────────
// Failure hooks
// ──────────────────────────────────────────────────

// OnPersistenceFailure is called when an operation gives up on the store
// after exhausting retries.
type OnPersistenceFailure interface {
	Plugin
	OnPersistenceFailure(ctx context.Context, op string, err error) error
}
