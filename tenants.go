package dreambiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// ──────────────────────────────────────────────────
// Tenant registry
// ──────────────────────────────────────────────────

// CreateTenant creates a business profile owned by userID, enforcing the
// owner's plan limit. The profile id is generated once, so a retried insert
// that already committed is recognized and never produces a second row.
func (e *Engine) CreateTenant(ctx context.Context, p identity.Principal, userID string, in tenant.Input) (*tenant.Tenant, error) {
	const op = "create_tenant"

	if err := e.authenticate(op, p); err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, newError(KindForbidden, op, "you can only create business profiles for your own account", nil)
	}

	in.Normalize()
	if err := e.check(op, &in); err != nil {
		return nil, err
	}

	ent, err := e.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	t := &tenant.Tenant{
		Entity:  types.NewEntityAt(e.clock()),
		ID:      id.NewTenantID(),
		OwnerID: userID,
	}
	in.Apply(t)

	err = e.exec(ctx, func(ctx context.Context) error {
		err := e.store.CreateTenant(ctx, t, ent.MaxTenants)
		if errors.Is(err, ErrTenantExists) {
			// An earlier attempt committed; the read-back below confirms it.
			return nil
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrTenantLimitReached) {
			return nil, e.limitExceeded(ctx, op, userID, ent.PlanName, ent.MaxTenants, err)
		}
		return nil, e.fail(ctx, op, err)
	}

	created, err := call(ctx, e, func(ctx context.Context) (*tenant.Tenant, error) {
		return e.store.GetTenant(ctx, t.ID)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	if created.OwnerID != userID {
		return nil, e.fail(ctx, op, fmt.Errorf("read back %s: owner mismatch", t.ID))
	}

	e.plugins.EmitTenantCreated(ctx, created)
	e.logger.Info("business profile created",
		"tenant_id", created.ID.String(),
		"user_id", userID,
		"plan", ent.PlanSlug,
	)
	return created, nil
}

func (e *Engine) limitExceeded(ctx context.Context, op, userID, planName string, limit int64, cause error) error {
	if planName == "" {
		planName = plan.Free().Name
	}
	e.plugins.EmitTenantLimitExceeded(ctx, userID, planName, limit)
	e.logger.Info("business profile limit reached", "user_id", userID, "plan", planName, "limit", limit)

	le := &LimitError{PlanName: planName, Limit: limit}
	return &Error{
		Kind:    KindLimitExceeded,
		Op:      op,
		Message: UserMessage(le),
		Err:     errors.Join(le, cause),
	}
}

// UpdateTenant applies patch to a profile the caller owns.
func (e *Engine) UpdateTenant(ctx context.Context, p identity.Principal, tenantID id.TenantID, patch tenant.Patch) (*tenant.Tenant, error) {
	const op = "update_tenant"

	t, err := e.ownedTenant(ctx, op, p, tenantID)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return t, nil
	}

	in := tenant.InputOf(t)
	patch.ApplyTo(&in)
	in.Normalize()
	if err := e.check(op, &in); err != nil {
		return nil, err
	}
	if !strings.EqualFold(in.Currency, t.Currency) {
		if err := e.requireNoOpenShift(ctx, op, t); err != nil {
			return nil, err
		}
	}

	in.Apply(t)
	t.TouchAt(e.clock())

	if err := e.exec(ctx, func(ctx context.Context) error {
		return e.store.UpdateTenant(ctx, t)
	}); err != nil {
		return nil, e.fail(ctx, op, err)
	}

	updated, err := call(ctx, e, func(ctx context.Context) (*tenant.Tenant, error) {
		return e.store.GetTenant(ctx, tenantID)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}

	e.plugins.EmitTenantUpdated(ctx, updated)
	return updated, nil
}

// ListTenants returns the profiles userID owns, newest first.
func (e *Engine) ListTenants(ctx context.Context, p identity.Principal, userID string) ([]*tenant.Tenant, error) {
	const op = "list_tenants"

	if err := e.authenticate(op, p); err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, newError(KindForbidden, op, "you can only list your own business profiles", nil)
	}

	list, err := call(ctx, e, func(ctx context.Context) ([]*tenant.Tenant, error) {
		return e.store.ListTenants(ctx, userID)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	return list, nil
}

// DefaultTenant picks the profile a session starts in: the first one
// ListTenants returns.
func (e *Engine) DefaultTenant(ctx context.Context, p identity.Principal, userID string) (*tenant.Tenant, error) {
	list, err := e.ListTenants(ctx, p, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, newError(KindNotFound, "default_tenant", "create a business profile to get started", ErrTenantNotFound)
	}
	return list[0], nil
}

// GetTenant returns a profile the caller owns.
func (e *Engine) GetTenant(ctx context.Context, p identity.Principal, tenantID id.TenantID) (*tenant.Tenant, error) {
	return e.ownedTenant(ctx, "get_tenant", p, tenantID)
}

// DeleteTenant removes a profile the caller owns. The profile the session is
// currently working in cannot be deleted.
func (e *Engine) DeleteTenant(ctx context.Context, p identity.Principal, tenantID id.TenantID) error {
	const op = "delete_tenant"

	t, err := e.ownedTenant(ctx, op, p, tenantID)
	if err != nil {
		return err
	}
	if p.ActiveTenantID != "" && p.ActiveTenantID == tenantID.String() {
		return newError(KindInvalidState, op, "switch to another business before deleting this one", nil)
	}

	attempt := 0
	if err := e.exec(ctx, func(ctx context.Context) error {
		attempt++
		err := e.store.DeleteTenant(ctx, tenantID)
		if attempt > 1 && errors.Is(err, ErrTenantNotFound) {
			return nil
		}
		return err
	}); err != nil {
		return e.fail(ctx, op, err)
	}

	e.plugins.EmitTenantDeleted(ctx, t)
	e.logger.Info("business profile deleted", "tenant_id", tenantID.String(), "user_id", p.UserID)
	return nil
}

// requireNoOpenShift refuses a currency change while a shift is still
// counting sales in the old currency.
func (e *Engine) requireNoOpenShift(ctx context.Context, op string, t *tenant.Tenant) error {
	open, err := call(ctx, e, func(ctx context.Context) ([]*shift.Shift, error) {
		return e.store.ListShifts(ctx, t.ID, shift.ListOpts{Status: shift.StatusOpen, Limit: 1})
	})
	if err != nil {
		return e.fail(ctx, op, err)
	}
	if len(open) > 0 {
		return newError(KindInvalidState, op,
			"close the open shift for "+open[0].Date.String()+" before changing the currency", ErrShiftNotOpen)
	}
	return nil
}

// ownedTenant loads tenantID and checks that p owns it.
func (e *Engine) ownedTenant(ctx context.Context, op string, p identity.Principal, tenantID id.TenantID) (*tenant.Tenant, error) {
	if err := e.authenticate(op, p); err != nil {
		return nil, err
	}
	if tenantID.IsNil() {
		return nil, invalid(op, "tenant_id", "is required")
	}

	t, err := call(ctx, e, func(ctx context.Context) (*tenant.Tenant, error) {
		return e.store.GetTenant(ctx, tenantID)
	})
	if err != nil {
		return nil, e.fail(ctx, op, err)
	}
	if t.OwnerID != p.UserID {
		return nil, newError(KindForbidden, op, "you do not have access to this business", nil)
	}
	return t, nil
}
