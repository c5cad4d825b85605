package sqlstore

import (
	"context"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/reconcile"
	"github.com/blyssafrica-alt/dreambiz-sub006/shift"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

const shiftColumns = `id, tenant_id, business_date, status, currency, opening_cash, opened_by, opened_at,
    closed_by, closed_at, totals, closing_cash, actual_cash, cash_discrepancy, close_ref,
    created_at, updated_at`

func scanShift(row interface{ Scan(...any) error }) (*shift.Shift, error) {
	sh := new(shift.Shift)
	var totals *reconcile.Totals
	err := row.Scan(
		&sh.ID, &sh.TenantID, &sh.Date, &sh.Status, &sh.Currency, &sh.OpeningCash, &sh.OpenedBy,
		timeCol{&sh.OpenedAt},
		&sh.ClosedBy, nullTimeCol{&sh.ClosedAt}, jsonCol{&totals},
		&sh.ClosingCash, &sh.ActualCash, &sh.CashDiscrepancy, &sh.CloseRef,
		timeCol{&sh.CreatedAt}, timeCol{&sh.UpdatedAt},
	)
	if err != nil {
		return nil, err
	}
	sh.Totals = totals
	return sh, nil
}

func (s *Store) totalsArg(t *reconcile.Totals) (any, error) {
	if t == nil {
		return nil, nil
	}
	return jsonArg(t)
}

func (s *Store) InsertShift(ctx context.Context, sh *shift.Shift) error {
	totals, err := s.totalsArg(sh.Totals)
	if err != nil {
		return s.wrap("insert shift", err)
	}
	_, err = s.exec(ctx, s.db, `INSERT INTO `+tableShifts+` (`+shiftColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sh.ID, sh.TenantID, sh.Date, sh.Status, sh.Currency, sh.OpeningCash, sh.OpenedBy,
		s.dialect.Time(sh.OpenedAt),
		sh.ClosedBy, s.nullTimeArg(sh.ClosedAt), totals,
		sh.ClosingCash, sh.ActualCash, sh.CashDiscrepancy, sh.CloseRef,
		s.dialect.Time(sh.CreatedAt), s.dialect.Time(sh.UpdatedAt))
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return dreambiz.ErrShiftExists
		}
		return s.wrap("insert shift", err)
	}
	return nil
}

func (s *Store) GetShift(ctx context.Context, shiftID id.ShiftID) (*shift.Shift, error) {
	sh, err := scanShift(s.queryRow(ctx, s.db,
		`SELECT `+shiftColumns+` FROM `+tableShifts+` WHERE id = ?`, shiftID))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrShiftNotFound
		}
		return nil, s.wrap("get shift", err)
	}
	return sh, nil
}

func (s *Store) GetShiftByDate(ctx context.Context, tenantID id.TenantID, date types.Date) (*shift.Shift, error) {
	sh, err := scanShift(s.queryRow(ctx, s.db,
		`SELECT `+shiftColumns+` FROM `+tableShifts+` WHERE tenant_id = ? AND business_date = ?`,
		tenantID, date))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrShiftNotFound
		}
		return nil, s.wrap("get shift by date", err)
	}
	return sh, nil
}

func (s *Store) LatestClosedShift(ctx context.Context, tenantID id.TenantID) (*shift.Shift, error) {
	sh, err := scanShift(s.queryRow(ctx, s.db,
		`SELECT `+shiftColumns+` FROM `+tableShifts+`
WHERE tenant_id = ? AND status = ?
ORDER BY business_date DESC, closed_at DESC LIMIT 1`,
		tenantID, shift.StatusClosed))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrShiftNotFound
		}
		return nil, s.wrap("latest closed shift", err)
	}
	return sh, nil
}

func (s *Store) ListShifts(ctx context.Context, tenantID id.TenantID, opts shift.ListOpts) ([]*shift.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM ` + tableShifts + ` WHERE tenant_id = ?`
	args := []any{tenantID}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	if !opts.From.IsZero() {
		query += ` AND business_date >= ?`
		args = append(args, opts.From)
	}
	if !opts.To.IsZero() {
		query += ` AND business_date <= ?`
		args = append(args, opts.To)
	}
	query += ` ORDER BY business_date DESC` + limitClause(opts.Limit, opts.Offset)

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.wrap("list shifts", err)
	}
	defer rows.Close()

	result := make([]*shift.Shift, 0)
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, s.wrap("list shifts", err)
		}
		result = append(result, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap("list shifts", err)
	}
	return result, nil
}

// CloseShift writes the closed row only while the stored row is open.
func (s *Store) CloseShift(ctx context.Context, sh *shift.Shift) error {
	totals, err := s.totalsArg(sh.Totals)
	if err != nil {
		return s.wrap("close shift", err)
	}
	res, err := s.exec(ctx, s.db, `UPDATE `+tableShifts+` SET
    status = ?, closed_by = ?, closed_at = ?, totals = ?, closing_cash = ?, actual_cash = ?,
    cash_discrepancy = ?, close_ref = ?, updated_at = ?
WHERE id = ? AND status = ?`,
		sh.Status, sh.ClosedBy, s.nullTimeArg(sh.ClosedAt), totals, sh.ClosingCash, sh.ActualCash,
		sh.CashDiscrepancy, sh.CloseRef, s.dialect.Time(sh.UpdatedAt),
		sh.ID, shift.StatusOpen)
	if err != nil {
		return s.wrap("close shift", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return s.wrap("close shift", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := s.GetShift(ctx, sh.ID); err != nil {
		return err
	}
	return dreambiz.ErrShiftNotOpen
}
