package tenant

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
)

type Store interface {
	// CreateTenant counts the owner's profiles, compares the count with
	// maxTenants (plan.Unlimited for no cap) and inserts t as one atomic
	// unit. Concurrent calls for the same owner never exceed the cap.
	CreateTenant(ctx context.Context, t *Tenant, maxTenants int64) error
	GetTenant(ctx context.Context, tenantID id.TenantID) (*Tenant, error)
	// ListTenants returns the owner's profiles newest first.
	ListTenants(ctx context.Context, ownerID string) ([]*Tenant, error)
	CountTenants(ctx context.Context, ownerID string) (int64, error)
	UpdateTenant(ctx context.Context, t *Tenant) error
	DeleteTenant(ctx context.Context, tenantID id.TenantID) error
}
