package dreambiz

import (
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/types"
)

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Entity is re-exported from types package.
type Entity = types.Entity

// Principal is re-exported from identity package.
type Principal = identity.Principal

// Re-export Money constructors
var (
	USD  = types.USD
	ZAR  = types.ZAR
	ZWG  = types.ZWG
	KES  = types.KES
	NGN  = types.NGN
	Zero = types.Zero
	Sum  = types.Sum
)

// Re-export Date helpers
var (
	ParseDate     = types.ParseDate
	MustParseDate = types.MustParseDate
	DateOf        = types.DateOf
)
