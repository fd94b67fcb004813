package carepkg

import (
	"context"
	"time"

	"github.com/xraph/carebill/id"
)

// Store is the care package persistence surface.
type Store interface {
	Create(ctx context.Context, p *CarePackage) error
	Get(ctx context.Context, pkgID id.CarePackageID) (*CarePackage, error)
	List(ctx context.Context, tenantID string, opts ListOpts) ([]*CarePackage, error)
	Update(ctx context.Context, p *CarePackage) error
	// End marks the package ended on the given date. Billed visits keep
	// their reference.
	End(ctx context.Context, pkgID id.CarePackageID, endDate time.Time) error

	CreateSchedule(ctx context.Context, s *VisitSchedule) error
	ListSchedules(ctx context.Context, pkgID id.CarePackageID) ([]VisitSchedule, error)
	DeleteSchedule(ctx context.Context, scheduleID id.ScheduleID) error
}

// ListOpts filters care package listings.
type ListOpts struct {
	FunderID           id.FunderID
	ServiceRecipientID string
	ActiveOn           time.Time // zero = any
	Status             Status
	Limit              int
	Offset             int
}
