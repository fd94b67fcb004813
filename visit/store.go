package visit

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

// Store is the visit persistence surface.
type Store interface {
	CreateVisitRecord(ctx context.Context, v *CareVisitRecord) error
	GetVisitRecord(ctx context.Context, visitID id.VisitRecordID) (*CareVisitRecord, error)
	// ListUnbilledVisits returns visit records in the window that belong to
	// a package and have no billable visit yet.
	ListUnbilledVisits(ctx context.Context, tenantID string, opts UnbilledOpts) ([]*CareVisitRecord, error)

	// CreateBillableVisit persists a billable visit. A second billable visit
	// for the same visit record is a conflict, not a duplicate row.
	CreateBillableVisit(ctx context.Context, b *BillableVisit) error
	GetBillableVisit(ctx context.Context, billableID id.BillableID) (*BillableVisit, error)
	ListBillableVisits(ctx context.Context, tenantID string, opts ListOpts) ([]*BillableVisit, error)
	UpdateBillableVisit(ctx context.Context, b *BillableVisit) error
}

// UnbilledOpts selects visit records for reconciliation. The funder and
// recipient filters resolve through the visit's care package.
type UnbilledOpts struct {
	From               time.Time
	To                 time.Time
	CarePackageID      id.CarePackageID // Nil = all packages
	FunderID           id.FunderID      // Nil = all funders
	ServiceRecipientID string           // empty = all recipients
	Limit              int
	Offset             int
}

// ListOpts filters billable visit listings.
type ListOpts struct {
	Status        Status
	FunderID      id.FunderID
	CarePackageID id.CarePackageID
	From          time.Time
	To            time.Time
	// Uninvoiced restricts to approved visits not yet linked to an invoice
	// line.
	Uninvoiced bool
	Limit      int
	Offset     int
}
