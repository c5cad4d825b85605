package dreambiz

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/entitlement"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
)

// Resolve returns the effective plan for userID at the engine clock:
// an active subscription whose window contains now, else an active trial
// ending in the future, else the stored free plan, else the built-in Free
// plan. Results are cached for the entitlement cache TTL.
func (e *Engine) Resolve(ctx context.Context, userID string) (*entitlement.Result, error) {
	const op = "resolve_entitlement"

	if r, ok := e.cache.Get(userID); ok {
		return r, nil
	}

	var (
		r   *entitlement.Result
		err error
	)
	if e.resolver != nil {
		r, err = e.resolver.Resolve(ctx, userID)
	} else {
		r, err = e.resolve(ctx, userID)
	}
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}

	e.cache.Set(r)
	return r, nil
}

func (e *Engine) resolve(ctx context.Context, userID string) (*entitlement.Result, error) {
	now := e.now()

	subs, err := call(ctx, e, func(ctx context.Context) ([]*subscription.Subscription, error) {
		return e.store.ListSubscriptions(ctx, userID, subscription.ListOpts{Status: subscription.StatusActive})
	})
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		if !sub.ActiveAt(now) {
			continue
		}
		p, err := e.planFor(ctx, userID, sub.PlanID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return resultOf(userID, p, entitlement.SourceSubscription), nil
		}
	}

	trials, err := call(ctx, e, func(ctx context.Context) ([]*subscription.Trial, error) {
		return e.store.ListTrials(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	for _, tr := range trials {
		if !tr.ActiveAt(now) {
			continue
		}
		p, err := e.planFor(ctx, userID, tr.PlanID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			return resultOf(userID, p, entitlement.SourceTrial), nil
		}
	}

	free, err := call(ctx, e, func(ctx context.Context) (*plan.Plan, error) {
		return e.store.GetPlanBySlug(ctx, plan.FreeSlug)
	})
	switch {
	case err == nil:
		return resultOf(userID, free, entitlement.SourceFree), nil
	case IsNotFound(err):
		e.logger.Warn("dreambiz: no stored free plan, using built-in limits", "user_id", userID)
		return resultOf(userID, plan.Free(), entitlement.SourceFree), nil
	default:
		return nil, err
	}
}

// planFor loads the plan a subscription or trial points at. A dangling
// reference is logged and skipped.
func (e *Engine) planFor(ctx context.Context, userID string, planID id.PlanID) (*plan.Plan, error) {
	p, err := call(ctx, e, func(ctx context.Context) (*plan.Plan, error) {
		return e.store.GetPlan(ctx, planID)
	})
	if IsNotFound(err) {
		e.logger.Warn("dreambiz: entitlement references a missing plan", "user_id", userID, "plan_id", planID.String())
		return nil, nil //nolint:nilnil // a missing plan is skipped by the caller
	}
	return p, err
}

func resultOf(userID string, p *plan.Plan, src entitlement.Source) *entitlement.Result {
	return &entitlement.Result{
		UserID:     userID,
		PlanID:     p.ID,
		PlanName:   p.Name,
		PlanSlug:   p.Slug,
		MaxTenants: p.MaxTenants(),
		Source:     src,
	}
}
