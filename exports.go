package carebill

import "github.com/xraph/carebill/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	GBP      = types.GBP
	Pence    = types.Pence
	USD      = types.USD
	EUR      = types.EUR
	Zero     = types.Zero
	ZeroGBP  = types.ZeroGBP
	ParseGBP = types.ParseGBP
	Sum      = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
