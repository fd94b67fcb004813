package carebill

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// CreateCarePackage commissions a care package. The referenced funder and
// rate card must exist; a package pointing at a missing card would price
// nothing.
func (e *Engine) CreateCarePackage(ctx context.Context, p *carepkg.CarePackage) (*carepkg.CarePackage, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if p.ID.IsNil() {
		p.ID = id.NewCarePackageID()
	}
	p.Entity = types.NewEntity()
	if p.Status == "" {
		p.Status = carepkg.StatusActive
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := s.GetFunder(ctx, p.FunderID); err != nil {
		return nil, fmt.Errorf("carebill: package funder: %w", err)
	}
	if _, err := s.GetRateCard(ctx, p.RateCardID); err != nil {
		return nil, fmt.Errorf("carebill: package rate card: %w", err)
	}
	if err := s.CreateCarePackage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetCarePackage returns one care package.
func (e *Engine) GetCarePackage(ctx context.Context, pkgID id.CarePackageID) (*carepkg.CarePackage, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetCarePackage(ctx, pkgID)
}

// ListCarePackages lists care packages for the current tenant.
func (e *Engine) ListCarePackages(ctx context.Context, opts carepkg.ListOpts) ([]*carepkg.CarePackage, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListCarePackages(ctx, sc.TenantID, opts)
}

// UpdateCarePackage updates a package's billing rules.
func (e *Engine) UpdateCarePackage(ctx context.Context, p *carepkg.CarePackage) (*carepkg.CarePackage, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p.Touch()
	if err := s.UpdateCarePackage(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// EndCarePackage closes a package from the given date. Visits on or before
// the end date still bill; the package is never deleted.
func (e *Engine) EndCarePackage(ctx context.Context, pkgID id.CarePackageID, endDate time.Time) error {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return err
	}
	return s.EndCarePackage(ctx, pkgID, endDate)
}

// AddVisitSchedule adds a rostered slot to a package.
func (e *Engine) AddVisitSchedule(ctx context.Context, slot *carepkg.VisitSchedule) (*carepkg.VisitSchedule, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if slot.CarePackageID.IsNil() {
		return nil, fmt.Errorf("%w: schedule care package is required", ErrInvalidInput)
	}
	if slot.CarersRequired < 1 {
		return nil, fmt.Errorf("%w: schedule carers must be >= 1", ErrInvalidInput)
	}
	if slot.ID.IsNil() {
		slot.ID = id.NewScheduleID()
	}
	if err := s.CreateVisitSchedule(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// ListVisitSchedules lists a package's rostered slots.
func (e *Engine) ListVisitSchedules(ctx context.Context, pkgID id.CarePackageID) ([]carepkg.VisitSchedule, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListVisitSchedules(ctx, pkgID)
}

// RemoveVisitSchedule deletes a rostered slot.
func (e *Engine) RemoveVisitSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return err
	}
	return s.DeleteVisitSchedule(ctx, scheduleID)
}

// RecordVisit ingests one delivered visit from the rostering system. The
// record is an immutable fact: corrections happen on the billable visit it
// later produces.
func (e *Engine) RecordVisit(ctx context.Context, v *visit.CareVisitRecord) (*visit.CareVisitRecord, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if v.CarePackageID.IsNil() {
		return nil, fmt.Errorf("%w: visit care package is required", ErrInvalidInput)
	}
	if v.ScheduledStart.IsZero() || v.ScheduledEnd.IsZero() {
		return nil, fmt.Errorf("%w: visit scheduled times are required", ErrInvalidInput)
	}
	if v.ScheduledEnd.Before(v.ScheduledStart) {
		return nil, fmt.Errorf("%w: visit ends before it starts", ErrInvalidInput)
	}
	if (v.ActualStart == nil) != (v.ActualEnd == nil) {
		return nil, fmt.Errorf("%w: actual times must be both set or both empty", ErrInvalidInput)
	}
	if v.ID.IsNil() {
		v.ID = id.NewVisitRecordID()
	}
	v.Entity = types.NewEntity()
	if err := s.CreateVisitRecord(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RecordVisits ingests a batch of delivered visits. It stops at the first
// failure and reports how many records landed before it.
func (e *Engine) RecordVisits(ctx context.Context, records []*visit.CareVisitRecord) (int, error) {
	for i, v := range records {
		if _, err := e.RecordVisit(ctx, v); err != nil {
			return i, fmt.Errorf("carebill: record visit %d: %w", i, err)
		}
	}
	return len(records), nil
}

// GetVisitRecord returns one delivered visit record.
func (e *Engine) GetVisitRecord(ctx context.Context, visitID id.VisitRecordID) (*visit.CareVisitRecord, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetVisitRecord(ctx, visitID)
}
