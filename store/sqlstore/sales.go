package sqlstore

import (
	"context"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/sales"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

const saleColumns = `id, tenant_id, business_date, number, kind, status, method, total, discount,
    currency, created_at`

func scanSale(row interface{ Scan(...any) error }) (*sales.Sale, error) {
	sale := new(sales.Sale)
	err := row.Scan(
		&sale.ID, &sale.TenantID, &sale.Date, &sale.Number, &sale.Kind, &sale.Status, &sale.Method,
		&sale.Total, &sale.Discount, &sale.Currency, timeCol{&sale.CreatedAt},
	)
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *Store) CreateSale(ctx context.Context, sale *sales.Sale) error {
	_, err := s.exec(ctx, s.db, `INSERT INTO `+tableSales+` (`+saleColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sale.ID, sale.TenantID, sale.Date, sale.Number, sale.Kind, sale.Status, sale.Method,
		sale.Total, sale.Discount, sale.Currency, s.dialect.Time(sale.CreatedAt))
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return dreambiz.ErrSaleExists
		}
		return s.wrap("create sale", err)
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, saleID id.SaleID) (*sales.Sale, error) {
	sale, err := scanSale(s.queryRow(ctx, s.db,
		`SELECT `+saleColumns+` FROM `+tableSales+` WHERE id = ?`, saleID))
	if err != nil {
		if isNoRows(err) {
			return nil, dreambiz.ErrSaleNotFound
		}
		return nil, s.wrap("get sale", err)
	}
	return sale, nil
}

func (s *Store) ListSales(ctx context.Context, tenantID id.TenantID, opts sales.ListOpts) ([]*sales.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM ` + tableSales + ` WHERE tenant_id = ?`
	args := []any{tenantID}
	if !opts.Date.IsZero() {
		query += ` AND business_date = ?`
		args = append(args, opts.Date)
	}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC` + limitClause(opts.Limit, opts.Offset)
	return s.listSales(ctx, "list sales", query, args...)
}

func (s *Store) PaidSales(ctx context.Context, tenantID id.TenantID, date types.Date) ([]*sales.Sale, error) {
	return s.listSales(ctx, "paid sales",
		`SELECT `+saleColumns+` FROM `+tableSales+`
WHERE tenant_id = ? AND business_date = ? AND status = ?
ORDER BY created_at ASC, id ASC`,
		tenantID, date, sales.StatusPaid)
}

func (s *Store) listSales(ctx context.Context, op, query string, args ...any) ([]*sales.Sale, error) {
	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, s.wrap(op, err)
	}
	defer rows.Close()

	result := make([]*sales.Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, s.wrap(op, err)
		}
		result = append(result, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrap(op, err)
	}
	return result, nil
}
