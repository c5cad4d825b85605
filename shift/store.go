package shift

import (
	"context"

	"github.com/blyssafrica-alt/dreambiz-sub006/id"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

type Store interface {
	// InsertShift fails with the store's shift-exists error when a row for
	// (tenant, date) is already present, whatever its status.
	InsertShift(ctx context.Context, s *Shift) error
	GetShift(ctx context.Context, shiftID id.ShiftID) (*Shift, error)
	GetShiftByDate(ctx context.Context, tenantID id.TenantID, date types.Date) (*Shift, error)
	// LatestClosedShift returns the closed shift with the greatest date
	// (ties broken by close time) for the tenant.
	LatestClosedShift(ctx context.Context, tenantID id.TenantID) (*Shift, error)
	ListShifts(ctx context.Context, tenantID id.TenantID, opts ListOpts) ([]*Shift, error)
	// CloseShift persists a closed shift only if the stored row is still
	// open. It fails with the store's not-open error otherwise.
	CloseShift(ctx context.Context, s *Shift) error
}

type ListOpts struct {
	Status Status
	From   types.Date
	To     types.Date
	Limit  int
	Offset int
}
