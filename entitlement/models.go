package entitlement

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
)

// Source names where an entitlement came from.
type Source string

const (
	SourceSubscription Source = "subscription"
	SourceTrial        Source = "trial"
	SourceFree         Source = "free"
)

// Result is the resolved plan and limits for one user at one instant.
type Result struct {
	UserID     string    `json:"user_id"`
	PlanID     id.PlanID `json:"plan_id"`
	PlanName   string    `json:"plan_name"`
	PlanSlug   string    `json:"plan_slug"`
	MaxTenants int64     `json:"max_tenants"`
	Source     Source    `json:"source"`
}

// Unlimited reports whether the user may own any number of business profiles.
func (r *Result) Unlimited() bool {
	return r.MaxTenants == plan.Unlimited
}

// Allows reports whether a user currently owning count profiles may add one.
func (r *Result) Allows(count int64) bool {
	return r.Unlimited() || count < r.MaxTenants
}

// Resolver resolves the effective entitlement for a user.
type Resolver interface {
	Resolve(ctx context.Context, userID string) (*Result, error)
}

// ResolverFunc adapts a plain function to a Resolver.
type ResolverFunc func(ctx context.Context, userID string) (*Result, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, userID string) (*Result, error) {
	return f(ctx, userID)
}
