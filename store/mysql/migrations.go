package mysql

import "github.com/blyssafrica-alt/dreambiz-sub006/store/sqlstore"

// Migrations is the MySQL schema, in version order.
var Migrations = []sqlstore.Migration{
	{
		Name:    "create_dreambiz_tenants",
		Version: "20240101000001",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_tenants (
    id            VARCHAR(64)   NOT NULL PRIMARY KEY,
    owner_id      VARCHAR(191)  NOT NULL,
    name          VARCHAR(255)  NOT NULL,
    name_key      VARCHAR(255)  NOT NULL,
    business_type VARCHAR(100)  NOT NULL DEFAULT '',
    stage         VARCHAR(100)  NOT NULL DEFAULT '',
    location      VARCHAR(255)  NOT NULL DEFAULT '',
    capital       DECIMAL(19,4) NOT NULL DEFAULT 0,
    currency      VARCHAR(8)    NOT NULL DEFAULT '',
    owner_name    VARCHAR(255)  NOT NULL DEFAULT '',
    email         VARCHAR(255)  NOT NULL DEFAULT '',
    phone         VARCHAR(64)   NOT NULL DEFAULT '',
    address       VARCHAR(512)  NOT NULL DEFAULT '',
    website       VARCHAR(512)  NOT NULL DEFAULT '',
    logo_ref      VARCHAR(512)  NOT NULL DEFAULT '',
    created_at    DATETIME(6)   NOT NULL,
    updated_at    DATETIME(6)   NOT NULL,
    UNIQUE KEY idx_dreambiz_tenants_owner_name (owner_id, name_key),
    KEY idx_dreambiz_tenants_owner_created (owner_id, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`
CREATE TABLE IF NOT EXISTS dreambiz_owner_locks (
    owner_id VARCHAR(191) NOT NULL PRIMARY KEY
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Name:    "create_dreambiz_shifts",
		Version: "20240101000002",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_shifts (
    id               VARCHAR(64)   NOT NULL PRIMARY KEY,
    tenant_id        VARCHAR(64)   NOT NULL,
    business_date    DATE          NOT NULL,
    status           VARCHAR(16)   NOT NULL DEFAULT 'open',
    currency         VARCHAR(8)    NOT NULL DEFAULT '',
    opening_cash     DECIMAL(19,4) NOT NULL DEFAULT 0,
    opened_by        VARCHAR(191)  NOT NULL DEFAULT '',
    opened_at        DATETIME(6)   NOT NULL,
    closed_by        VARCHAR(191)  NOT NULL DEFAULT '',
    closed_at        DATETIME(6)   NULL,
    totals           JSON          NULL,
    closing_cash     DECIMAL(19,4) NULL,
    actual_cash      DECIMAL(19,4) NULL,
    cash_discrepancy DECIMAL(19,4) NULL,
    close_ref        VARCHAR(64)   NULL,
    created_at       DATETIME(6)   NOT NULL,
    updated_at       DATETIME(6)   NOT NULL,
    UNIQUE KEY idx_dreambiz_shifts_tenant_date (tenant_id, business_date),
    KEY idx_dreambiz_shifts_tenant_status (tenant_id, status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Name:    "create_dreambiz_sales",
		Version: "20240101000003",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_sales (
    id            VARCHAR(64)   NOT NULL PRIMARY KEY,
    tenant_id     VARCHAR(64)   NOT NULL,
    business_date DATE          NOT NULL,
    number        VARCHAR(64)   NOT NULL DEFAULT '',
    kind          VARCHAR(16)   NOT NULL DEFAULT 'sale',
    status        VARCHAR(16)   NOT NULL DEFAULT 'paid',
    method        VARCHAR(32)   NOT NULL DEFAULT 'other',
    total         DECIMAL(19,4) NOT NULL DEFAULT 0,
    discount      DECIMAL(19,4) NOT NULL DEFAULT 0,
    currency      VARCHAR(8)    NOT NULL DEFAULT '',
    created_at    DATETIME(6)   NOT NULL,
    KEY idx_dreambiz_sales_tenant_date (tenant_id, business_date, status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Name:    "create_dreambiz_plans",
		Version: "20240101000004",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_plans (
    id          VARCHAR(64)  NOT NULL PRIMARY KEY,
    name        VARCHAR(255) NOT NULL DEFAULT '',
    slug        VARCHAR(191) NOT NULL,
    description TEXT         NOT NULL,
    status      VARCHAR(16)  NOT NULL DEFAULT 'draft',
    trial_days  INT          NOT NULL DEFAULT 0,
    features    JSON         NOT NULL,
    metadata    JSON         NOT NULL,
    created_at  DATETIME(6)  NOT NULL,
    updated_at  DATETIME(6)  NOT NULL,
    UNIQUE KEY idx_dreambiz_plans_slug (slug)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Name:    "create_dreambiz_subscriptions",
		Version: "20240101000005",
		Statements: []string{`
CREATE TABLE IF NOT EXISTS dreambiz_subscriptions (
    id                   VARCHAR(64)  NOT NULL PRIMARY KEY,
    user_id              VARCHAR(191) NOT NULL,
    plan_id              VARCHAR(64)  NOT NULL,
    status               VARCHAR(16)  NOT NULL DEFAULT 'active',
    current_period_start DATETIME(6)  NOT NULL,
    current_period_end   DATETIME(6)  NOT NULL,
    canceled_at          DATETIME(6)  NULL,
    provider_ref         VARCHAR(255) NOT NULL DEFAULT '',
    metadata             JSON         NOT NULL,
    created_at           DATETIME(6)  NOT NULL,
    updated_at           DATETIME(6)  NOT NULL,
    KEY idx_dreambiz_subs_user (user_id, status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`
CREATE TABLE IF NOT EXISTS dreambiz_trials (
    id         VARCHAR(64)  NOT NULL PRIMARY KEY,
    user_id    VARCHAR(191) NOT NULL,
    plan_id    VARCHAR(64)  NOT NULL,
    status     VARCHAR(16)  NOT NULL DEFAULT 'active',
    starts_at  DATETIME(6)  NOT NULL,
    ends_at    DATETIME(6)  NOT NULL,
    created_at DATETIME(6)  NOT NULL,
    updated_at DATETIME(6)  NOT NULL,
    KEY idx_dreambiz_trials_user (user_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
}
