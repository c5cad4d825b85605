// Package store defines the aggregate persistence contract. Each backend
// (memory, postgres, mysql, sqlite, mongo) implements the whole of it.
package store

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/subscription"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

// Store is the unified storage interface for all DreamBiz entities.
type Store interface {
	tenant.Store
	shift.Store
	sales.Store
	plan.Store
	subscription.Store

	// Migrate creates or upgrades the schema. It is safe to call on every start.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
