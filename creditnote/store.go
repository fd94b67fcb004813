package creditnote

import (
	"context"

	"github.com/xraph/carebill/id"
)

// Store is the credit note persistence surface.
type Store interface {
	Create(ctx context.Context, n *CreditNote) error
	Get(ctx context.Context, noteID id.CreditNoteID) (*CreditNote, error)
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*CreditNote, error)
	Update(ctx context.Context, n *CreditNote) error
}

// ListOpts filters credit note listings.
type ListOpts struct {
	InvoiceID id.InvoiceID
	Status    Status
	Limit     int
	Offset    int
}
