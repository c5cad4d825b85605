package dreambiz

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// DefaultTrialDays applies to plans that do not set TrialDays.
const DefaultTrialDays = 14

// ──────────────────────────────────────────────────
// Plans
// ──────────────────────────────────────────────────

// CreatePlan stores a plan definition.
func (e *Engine) CreatePlan(ctx context.Context, p *plan.Plan) (*plan.Plan, error) {
	const op = "create_plan"

	if p == nil {
		return nil, invalid(op, "plan", "is required")
	}
	cp := *p
	cp.Name = strings.TrimSpace(cp.Name)
	cp.Slug = strings.ToLower(strings.TrimSpace(cp.Slug))
	if cp.Name == "" {
		return nil, invalid(op, "name", "is required")
	}
	if cp.Slug == "" {
		return nil, invalid(op, "slug", "is required")
	}
	if cp.ID.IsNil() {
		cp.ID = id.NewPlanID()
	}
	if cp.Status == "" {
		cp.Status = plan.StatusActive
	}
	cp.Entity = types.NewEntityAt(e.clock())
	cp.Features = append([]plan.Feature(nil), p.Features...)
	for i := range cp.Features {
		if cp.Features[i].ID.IsNil() {
			cp.Features[i].ID = id.NewFeatureID()
		}
		if cp.Features[i].Type == "" {
			cp.Features[i].Type = plan.FeatureSeat
		}
		if cp.Features[i].Limit < plan.Unlimited {
			return nil, invalid(op, "features."+cp.Features[i].Key, "limit must be -1 (unlimited) or more")
		}
	}

	attempt := 0
	err := e.exec(ctx, func(ctx context.Context) error {
		attempt++
		return e.store.CreatePlan(ctx, &cp)
	})
	if err != nil {
		if !(attempt > 1 && errors.Is(err, ErrPlanExists)) {
			return nil, e.fail(ctx, op, err)
		}
		// The conflict may be an earlier attempt of ours.
		if _, gerr := call(ctx, e, func(ctx context.Context) (*plan.Plan, error) {
			return e.store.GetPlan(ctx, cp.ID)
		}); gerr != nil {
			return nil, e.fail(ctx, op, err)
		}
	}

	e.logger.Info("plan created", "plan_id", cp.ID.String(), "slug", cp.Slug, "max_tenants", cp.MaxTenants())
	return e.GetPlan(ctx, cp.ID)
}

// GetPlan returns a plan by id.
func (e *Engine) GetPlan(ctx context.Context, planID id.PlanID) (*plan.Plan, error) {
	p, err := call(ctx, e, func(ctx context.Context) (*plan.Plan, error) {
		return e.store.GetPlan(ctx, planID)
	})
	if err != nil {
		return nil, e.fail(ctx, "get_plan", err)
	}
	return p, nil
}

// GetPlanBySlug returns a plan by slug.
func (e *Engine) GetPlanBySlug(ctx context.Context, slug string) (*plan.Plan, error) {
	p, err := call(ctx, e, func(ctx context.Context) (*plan.Plan, error) {
		return e.store.GetPlanBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	})
	if err != nil {
		return nil, e.fail(ctx, "get_plan_by_slug", err)
	}
	return p, nil
}

// ListPlans lists plan definitions, oldest first.
func (e *Engine) ListPlans(ctx context.Context, opts plan.ListOpts) ([]*plan.Plan, error) {
	list, err := call(ctx, e, func(ctx context.Context) ([]*plan.Plan, error) {
		return e.store.ListPlans(ctx, opts)
	})
	if err != nil {
		return nil, e.fail(ctx, "list_plans", err)
	}
	return list, nil
}

// ArchivePlan hides a plan from new subscriptions. Existing holders keep it.
func (e *Engine) ArchivePlan(ctx context.Context, planID id.PlanID) error {
	if err := e.exec(ctx, func(ctx context.Context) error {
		return e.store.ArchivePlan(ctx, planID)
	}); err != nil {
		return e.fail(ctx, "archive_plan", err)
	}
	return nil
}

// DefaultPlans returns the plans SeedDefaultPlans installs.
func DefaultPlans() []*plan.Plan {
	seat := func(limit int64) []plan.Feature {
		return []plan.Feature{{
			Key:   plan.FeatureBusinessProfiles,
			Name:  "Business profiles",
			Type:  plan.FeatureSeat,
			Limit: limit,
		}}
	}
	return []*plan.Plan{
		{Name: "Free", Slug: plan.FreeSlug, Description: "One business profile", Features: seat(plan.DefaultMaxTenants)},
		{Name: "Pro", Slug: "pro", Description: "Up to three business profiles", TrialDays: DefaultTrialDays, Features: seat(3)},
		{Name: "Business", Slug: "business", Description: "Unlimited business profiles", TrialDays: DefaultTrialDays, Features: seat(plan.Unlimited)},
	}
}

// SeedDefaultPlans installs DefaultPlans, skipping slugs that already exist.
// It returns the plans it created.
func (e *Engine) SeedDefaultPlans(ctx context.Context) ([]*plan.Plan, error) {
	var created []*plan.Plan
	for _, p := range DefaultPlans() {
		_, err := e.GetPlanBySlug(ctx, p.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return created, err
		}

		np, err := e.CreatePlan(ctx, p)
		if err != nil {
			return created, err
		}
		created = append(created, np)
	}
	return created, nil
}

// ──────────────────────────────────────────────────
// Subscriptions and trials
// ──────────────────────────────────────────────────

// CreateSubscription records a paid subscription. The user's cached
// entitlement is dropped so the new limit applies at once.
func (e *Engine) CreateSubscription(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	const op = "create_subscription"

	if sub == nil {
		return nil, invalid(op, "subscription", "is required")
	}
	cp := *sub
	if cp.UserID == "" {
		return nil, invalid(op, "user_id", "is required")
	}
	if !cp.CurrentPeriodEnd.After(cp.CurrentPeriodStart) {
		return nil, invalid(op, "current_period_end", "must be after the period start")
	}
	if _, err := e.GetPlan(ctx, cp.PlanID); err != nil {
		return nil, err
	}

	if cp.ID.IsNil() {
		cp.ID = id.NewSubscriptionID()
	}
	if cp.Status == "" {
		cp.Status = subscription.StatusActive
	}
	cp.Entity = types.NewEntityAt(e.clock())
	cp.CurrentPeriodStart = cp.CurrentPeriodStart.UTC().Truncate(time.Microsecond)
	cp.CurrentPeriodEnd = cp.CurrentPeriodEnd.UTC().Truncate(time.Microsecond)

	attempt := 0
	if err := e.exec(ctx, func(ctx context.Context) error {
		attempt++
		err := e.store.CreateSubscription(ctx, &cp)
		if err != nil && attempt > 1 {
			if _, gerr := e.store.GetSubscription(ctx, cp.ID); gerr == nil {
				return nil
			}
		}
		return err
	}); err != nil {
		return nil, e.fail(ctx, op, err)
	}

	e.cache.Invalidate(cp.UserID)
	e.plugins.EmitSubscriptionCreated(ctx, &cp)
	e.logger.Info("subscription created", "subscription_id", cp.ID.String(), "user_id", cp.UserID, "plan_id", cp.PlanID.String())
	return &cp, nil
}

// CancelSubscription cancels a subscription now.
func (e *Engine) CancelSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	const op = "cancel_subscription"

	if err := e.exec(ctx, func(ctx context.Context) error {
		return e.store.CancelSubscription(ctx, subID, e.clock())
	}); err != nil {
		return nil, e.fail(ctx, op, err)
	}

	sub, err := call(ctx, e, func(ctx context.Context) (*subscription.Subscription, error) {
		return e.store.GetSubscription(ctx, subID)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}

	e.cache.Invalidate(sub.UserID)
	e.plugins.EmitSubscriptionCanceled(ctx, sub)
	e.logger.Info("subscription canceled", "subscription_id", subID.String(), "user_id", sub.UserID)
	return sub, nil
}

// StartTrial grants userID the plan for its trial period, starting now.
func (e *Engine) StartTrial(ctx context.Context, userID string, planID id.PlanID) (*subscription.Trial, error) {
	const op = "start_trial"

	if userID == "" {
		return nil, invalid(op, "user_id", "is required")
	}
	p, err := e.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.Status == plan.StatusArchived {
		return nil, newError(KindInvalidState, op, "this plan is no longer offered", nil)
	}

	days := p.TrialDays
	if days <= 0 {
		days = DefaultTrialDays
	}
	now := e.clock()
	tr := &subscription.Trial{
		Entity:   types.NewEntityAt(now),
		ID:       id.NewTrialID(),
		UserID:   userID,
		PlanID:   p.ID,
		Status:   subscription.TrialActive,
		StartsAt: now,
		EndsAt:   now.AddDate(0, 0, days),
	}

	attempt := 0
	if err := e.exec(ctx, func(ctx context.Context) error {
		attempt++
		err := e.store.CreateTrial(ctx, tr)
		if err != nil && attempt > 1 && e.hasTrial(ctx, userID, tr.ID) {
			return nil
		}
		return err
	}); err != nil {
		return nil, e.fail(ctx, op, err)
	}

	e.cache.Invalidate(userID)
	e.plugins.EmitTrialStarted(ctx, tr)
	e.logger.Info("trial started", "trial_id", tr.ID.String(), "user_id", userID, "plan", p.Slug, "ends_at", tr.EndsAt)
	return tr, nil
}

func (e *Engine) hasTrial(ctx context.Context, userID string, trialID id.TrialID) bool {
	trials, err := e.store.ListTrials(ctx, userID)
	if err != nil {
		return false
	}
	for _, tr := range trials {
		if tr.ID.String() == trialID.String() {
			return true
		}
	}
	return false
}
