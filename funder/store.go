package funder

import (
	"context"

	"github.com/xraph/carebill/id"
)

// Store is the funder persistence surface.
type Store interface {
	Create(ctx context.Context, f *Funder) error
	Get(ctx context.Context, funderID id.FunderID) (*Funder, error)
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*Funder, error)
	Update(ctx context.Context, f *Funder) error
	// Deactivate soft-deactivates a funder. Historical invoices keep their
	// reference; new care packages cannot be created against it.
	Deactivate(ctx context.Context, funderID id.FunderID) error
}

// ListOpts filters funder listings.
type ListOpts struct {
	Type       Type
	ActiveOnly bool
	Limit      int
	Offset     int
}
