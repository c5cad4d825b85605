package sqlite

import "github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"

// Migrations is the SQLite schema, in version order.
var Migrations = []sqlstore.Migration{
	{
		Name:    "create_dreambiz_tenants",
		Version: "20240101000001",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_tenants (
    id            TEXT PRIMARY KEY,
    owner_id      TEXT NOT NULL,
    name          TEXT NOT NULL,
    name_key      TEXT NOT NULL,
    business_type TEXT NOT NULL DEFAULT '',
    stage         TEXT NOT NULL DEFAULT '',
    location      TEXT NOT NULL DEFAULT '',
    capital       TEXT NOT NULL DEFAULT '0',
    currency      TEXT NOT NULL DEFAULT '',
    owner_name    TEXT NOT NULL DEFAULT '',
    email         TEXT NOT NULL DEFAULT '',
    phone         TEXT NOT NULL DEFAULT '',
    address       TEXT NOT NULL DEFAULT '',
    website       TEXT NOT NULL DEFAULT '',
    logo_ref      TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL,
    updated_at    TEXT NOT NULL
)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_dreambiz_tenants_owner_name ON dreambiz_tenants (owner_id, name_key)`,
			`CREATE INDEX IF NOT EXISTS idx_dreambiz_tenants_owner_created ON dreambiz_tenants (owner_id, created_at)`,
		},
	},
	{
		Name:    "create_dreambiz_shifts",
		Version: "20240101000002",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_shifts (
    id               TEXT PRIMARY KEY,
    tenant_id        TEXT NOT NULL,
    business_date    TEXT NOT NULL,
    status           TEXT NOT NULL DEFAULT 'open',
    currency         TEXT NOT NULL DEFAULT '',
    opening_cash     TEXT NOT NULL DEFAULT '0',
    opened_by        TEXT NOT NULL DEFAULT '',
    opened_at        TEXT NOT NULL,
    closed_by        TEXT NOT NULL DEFAULT '',
    closed_at        TEXT,
    totals           TEXT,
    closing_cash     TEXT,
    actual_cash      TEXT,
    cash_discrepancy TEXT,
    close_ref        TEXT,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_dreambiz_shifts_tenant_date ON dreambiz_shifts (tenant_id, business_date)`,
			`CREATE INDEX IF NOT EXISTS idx_dreambiz_shifts_tenant_status ON dreambiz_shifts (tenant_id, status)`,
		},
	},
	{
		Name:    "create_dreambiz_sales",
		Version: "20240101000003",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_sales (
    id            TEXT PRIMARY KEY,
    tenant_id     TEXT NOT NULL,
    business_date TEXT NOT NULL,
    number        TEXT NOT NULL DEFAULT '',
    kind          TEXT NOT NULL DEFAULT 'sale',
    status        TEXT NOT NULL DEFAULT 'paid',
    method        TEXT NOT NULL DEFAULT 'other',
    total         TEXT NOT NULL DEFAULT '0',
    discount      TEXT NOT NULL DEFAULT '0',
    currency      TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_dreambiz_sales_tenant_date ON dreambiz_sales (tenant_id, business_date, status)`,
		},
	},
	{
		Name:    "create_dreambiz_plans",
		Version: "20240101000004",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_plans (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL DEFAULT '',
    slug        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'draft',
    trial_days  INTEGER NOT NULL DEFAULT 0,
    features    TEXT NOT NULL DEFAULT '[]',
    metadata    TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_dreambiz_plans_slug ON dreambiz_plans (slug)`,
		},
	},
	{
		Name:    "create_dreambiz_subscriptions",
		Version: "20240101000005",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_subscriptions (
    id                   TEXT PRIMARY KEY,
    user_id              TEXT NOT NULL,
    plan_id              TEXT NOT NULL,
    status               TEXT NOT NULL DEFAULT 'active',
    current_period_start TEXT NOT NULL,
    current_period_end   TEXT NOT NULL,
    canceled_at          TEXT,
    provider_ref         TEXT NOT NULL DEFAULT '',
    metadata             TEXT NOT NULL DEFAULT '{}',
    created_at           TEXT NOT NULL,
    updated_at           TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_dreambiz_subs_user ON dreambiz_subscriptions (user_id, status)`,
			`
CREATE TABLE IF NOT EXISTS dreambiz_trials (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    plan_id    TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active',
    starts_at  TEXT NOT NULL,
    ends_at    TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_dreambiz_trials_user ON dreambiz_trials (user_id)`,
		},
	},
}
