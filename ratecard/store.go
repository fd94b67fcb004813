package ratecard

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

// Store is the rate card persistence surface.
type Store interface {
	Create(ctx context.Context, card *RateCard) error
	Get(ctx context.Context, cardID id.RateCardID) (*RateCard, error)
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*RateCard, error)
	// ActiveFor resolves the card effective on a date for a funder, preferring
	// a funder-specific card over an any-funder card.
	ActiveFor(ctx context.Context, tenantID string, funderID id.FunderID, on time.Time) (*RateCard, error)
}

// ListOpts filters rate card listings.
type ListOpts struct {
	FunderID id.FunderID
	On       time.Time // zero = any effective window
	Limit    int
	Offset   int
}

// HolidayStore is the bank holiday calendar persistence surface. The
// calendar is shared reference data and carries no tenant scoping.
type HolidayStore interface {
	UpsertBankHoliday(ctx context.Context, h *BankHoliday) error
	ListBankHolidays(ctx context.Context, region string, from, to time.Time) ([]BankHoliday, error)
}
