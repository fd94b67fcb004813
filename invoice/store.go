package invoice

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Store is the invoice persistence surface.
type Store interface {
	// Create persists an invoice and its lines in one atomic write.
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, invID id.InvoiceID) (*Invoice, error)
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
}

// ListOpts filters invoice listings.
type ListOpts struct {
	FunderID id.FunderID
	Status   Status
	From     time.Time // period overlap window
	To       time.Time
	// OutstandingOnly restricts to sent or partially paid invoices.
	OutstandingOnly bool
	Limit           int
	Offset          int
}

// PeriodRevenue is one month's invoiced and collected totals.
type PeriodRevenue struct {
	Period   string      `json:"period"` // yyyy-mm
	Invoiced types.Money `json:"invoiced"`
	Paid     types.Money `json:"paid"`
	Count    int         `json:"count"`
}

// FunderRevenue is one funder's invoiced and collected totals for a window.
type FunderRevenue struct {
	FunderID id.FunderID `json:"funder_id"`
	Invoiced types.Money `json:"invoiced"`
	Paid     types.Money `json:"paid"`
	Count    int         `json:"count"`
}
