package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/plan"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

const tenantColumns = `id, owner_id, name, business_type, stage, location, capital, currency,
    owner_name, email, phone, address, website, logo_ref, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (*tenant.Tenant, error) {
	t := new(tenant.Tenant)
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Name, &t.BusinessType, &t.Stage, &t.Location, &t.Capital, &t.Currency,
		&t.OwnerName, &t.Email, &t.Phone, &t.Address, &t.Website, &t.LogoRef,
		timeCol{&t.CreatedAt}, timeCol{&t.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTenant checks the id, the name and the owner's count, then inserts,
// all in one transaction holding the dialect's per-owner lock.
func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant, maxTenants int64) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.dialect.LockOwner(ctx, tx, t.OwnerID); err != nil {
			return err
		}

		var n int
		err := s.queryRow(ctx, tx, `SELECT COUNT(*) FROM `+tableTenants+` WHERE id = ?`, t.ID).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return dreambiz.ErrTenantExists
		}

		err = s.queryRow(ctx, tx,
			`SELECT COUNT(*) FROM `+tableTenants+` WHERE owner_id = ? AND name_key = ?`,
			t.OwnerID, t.NameKey()).Scan(&n)
		if err != nil {
			return err
		}
		if n > 0 {
			return dreambiz.ErrDuplicateName
		}

		if maxTenants != plan.Unlimited {
			var owned int64
			err = s.queryRow(ctx, tx,
				`SELECT COUNT(*) FROM `+tableTenants+` WHERE owner_id = ?`, t.OwnerID).Scan(&owned)
			if err != nil {
				return err
			}
			if owned >= maxTenants {
				return dreambiz.ErrTenantLimitReached
			}
		}

		_, err = s.exec(ctx, tx, `INSERT INTO `+tableTenants+` (`+tenantColumns+`, name_key)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.OwnerID, t.Name, t.BusinessType, t.Stage, t.Location, t.Capital, t.Currency,
			t.OwnerName, t.Email, t.Phone, t.Address, t.Website, t.LogoRef,
			s.dialect.Time(t.CreatedAt), s.dialect.Time(t.UpdatedAt), t.NameKey())
		if err != nil && s.dialect.IsUniqueViolation(err) {
			return dreambiz.ErrDuplicateName
		}
		return err
	})
	if isDomainError(err) {
		return err
	}
	return s.wrap("create tenant", err)
}

func (s *Store) GetTenant(ctx context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	t, err := scanTenant(s.queryRow(ctx, s.db,
		`SELECT `+tenantColumns+` FROM `+tableTenants+` WHERE id = ?`, tenantID))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrTenantNotFound
		}
		return nil, s.wrap("get tenant", err)
	}
	return t, nil
}

func (s *Store) ListTenants(ctx context.Context, ownerID string) ([]*tenant.Tenant, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT `+tenantColumns+` FROM `+tableTenants+`
WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, s.wrap("list tenants", err)
	}
	defer rows.Close()

	result := make([]*tenant.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, s.wrap("list tenants", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list tenants", err)
	}
	return result, nil
}

func (s *Store) CountTenants(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := s.queryRow(ctx, s.db,
		`SELECT COUNT(*) FROM `+tableTenants+` WHERE owner_id = ?`, ownerID).Scan(&n)
	if err != nil {
		return 0, s.wrap("count tenants", err)
	}
	return n, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	res, err := s.exec(ctx, s.db, `UPDATE `+tableTenants+` SET
    name = ?, name_key = ?, business_type = ?, stage = ?, location = ?, capital = ?, currency = ?,
    owner_name = ?, email = ?, phone = ?, address = ?, website = ?, logo_ref = ?, updated_at = ?
WHERE id = ?`,
		t.Name, t.NameKey(), t.BusinessType, t.Stage, t.Location, t.Capital, t.Currency,
		t.OwnerName, t.Email, t.Phone, t.Address, t.Website, t.LogoRef, s.dialect.Time(t.UpdatedAt),
		t.ID)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return dreambiz.ErrDuplicateName
		}
		return s.wrap("update tenant", err)
	}
	return s.requireRow(ctx, res, tableTenants, t.ID, dreambiz.ErrTenantNotFound, "update tenant")
}

// DeleteTenant removes the profile together with its shifts and sales.
func (s *Store) DeleteTenant(ctx context.Context, tenantID id.TenantID) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx, `DELETE FROM `+tableTenants+` WHERE id = ?`, tenantID)
		if err != nil {
			return err
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return dreambiz.ErrTenantNotFound
		}
		if _, err := s.exec(ctx, tx, `DELETE FROM `+tableSales+` WHERE tenant_id = ?`, tenantID); err != nil {
			return err
		}
		_, err = s.exec(ctx, tx, `DELETE FROM `+tableShifts+` WHERE tenant_id = ?`, tenantID)
		return err
	})
	return s.wrap("delete tenant", err)
}

// requireRow turns a zero-row update into notFound. MySQL reports zero
// affected rows when the values are unchanged, so the row is looked up
// before concluding it is missing.
func (s *Store) requireRow(ctx context.Context, res sql.Result, table string, rowID id.ID, notFound error, op string) error {
	n, err := rowsAffected(res)
	if err != nil {
		return s.wrap(op, err)
	}
	if n > 0 {
		return nil
	}
	var c int
	if err := s.queryRow(ctx, s.db, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, rowID).Scan(&c); err != nil {
		return s.wrap(op, err)
	}
	if c == 0 {
		return notFound
	}
	return nil
}

// isDomainError reports whether err is a sentinel the engine classifies
// itself and must not be wrapped.
func isDomainError(err error) bool {
	return err != nil && (dreambiz.IsNotFound(err) || dreambiz.IsConflict(err) ||
		errors.Is(err, dreambiz.ErrTenantLimitReached) || errors.Is(err, dreambiz.ErrShiftNotOpen))
}
