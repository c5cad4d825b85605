package sales

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type Store interface {
	CreateSale(ctx context.Context, s *Sale) error
	GetSale(ctx context.Context, saleID id.SaleID) (*Sale, error)
	ListSales(ctx context.Context, tenantID id.TenantID, opts ListOpts) ([]*Sale, error)
	// PaidSales returns the paid records for the day, oldest first.
	PaidSales(ctx context.Context, tenantID id.TenantID, date types.Date) ([]*Sale, error)
}

type ListOpts struct {
	Date   types.Date
	Status Status
	Limit  int
	Offset int
}
