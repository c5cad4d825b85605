package dreambiz

import "github.com/blyssafrica-alt/dreambiz-sub006/id"

// ID is the primary identifier type for all DreamBiz entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// Parse helpers for identifiers arriving from transports.
var (
	ParseTenantID = id.ParseTenantID
	ParseShiftID  = id.ParseShiftID
	ParseSaleID   = id.ParseSaleID
	ParsePlanID   = id.ParsePlanID
)
