// Package carepkg models care packages: the commissioned arrangement that
// ties a service recipient to a funder, a rate card, and the billing rules
// applied to that recipient's visits.
package carepkg

import (
	"fmt"
	"time"

	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/types"
)

// Status is the package lifecycle state. Packages end, they are never
// deleted: billed visits reference them.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// CarePackage is one funded care arrangement for one service recipient.
// The billing knobs (time basis, rounding, minimum duration, default
// carers, mileage) live here because they are commissioned per package,
// not per funder.
type CarePackage struct {
	types.Entity
	ID                 id.CarePackageID `json:"id"`
	OrganisationID     string           `json:"organisation_id"`
	ServiceRecipientID string           `json:"service_recipient_id"`
	FunderID           id.FunderID      `json:"funder_id"`
	RateCardID         id.RateCardID    `json:"rate_card_id"`
	TimeBasis          funder.TimeBasis `json:"time_basis"`
	// RoundingIncrementMinutes rounds billable duration up to the next
	// multiple; 0 disables rounding (exact minutes, still rounded up from
	// seconds).
	RoundingIncrementMinutes int `json:"rounding_increment_minutes"`
	// MinimumBillableMinutes floors every visit's billable duration.
	MinimumBillableMinutes int        `json:"minimum_billable_minutes"`
	DefaultCarersRequired  int        `json:"default_carers_required"`
	MileageBillable        bool       `json:"mileage_billable"`
	StartDate              time.Time  `json:"start_date"`
	EndDate                *time.Time `json:"end_date,omitempty"`
	Status                 Status     `json:"status"`
}

// ActiveOn reports whether the package covers the given date.
func (p *CarePackage) ActiveOn(date time.Time) bool {
	if date.Before(p.StartDate) {
		return false
	}
	if p.EndDate != nil && date.After(*p.EndDate) {
		return false
	}
	return true
}

// Validate checks the package's invariants.
func (p *CarePackage) Validate() error {
	if p.ServiceRecipientID == "" {
		return fmt.Errorf("carepkg: service recipient is required")
	}
	if p.FunderID.IsNil() {
		return fmt.Errorf("carepkg: funder is required")
	}
	if p.RateCardID.IsNil() {
		return fmt.Errorf("carepkg: rate card is required")
	}
	if _, err := funder.ParseTimeBasis(string(p.TimeBasis)); err != nil {
		return err
	}
	if p.RoundingIncrementMinutes < 0 {
		return fmt.Errorf("carepkg: rounding increment must be >= 0, got %d", p.RoundingIncrementMinutes)
	}
	if p.MinimumBillableMinutes < 0 {
		return fmt.Errorf("carepkg: minimum billable minutes must be >= 0, got %d", p.MinimumBillableMinutes)
	}
	if p.DefaultCarersRequired < 1 {
		return fmt.Errorf("carepkg: default carers must be >= 1, got %d", p.DefaultCarersRequired)
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("carepkg: end date precedes start date")
	}
	return nil
}

// VisitSchedule is one rostered visit slot on a package: a weekday, a
// start and end time, and how many carers the slot needs. Schedules feed
// carer-count resolution during reconciliation.
type VisitSchedule struct {
	ID             id.ScheduleID      `json:"id"`
	CarePackageID  id.CarePackageID   `json:"care_package_id"`
	Weekday        time.Weekday       `json:"weekday"`
	Start          ratecard.TimeOfDay `json:"start"`
	End            ratecard.TimeOfDay `json:"end"`
	CarersRequired int                `json:"carers_required"`
}

// ResolveCarers determines the carer count for a visit from the package's
// schedule. Match precedence: exact weekday and start time, then any slot
// on the weekday, then the package default. A visit that drifts a few
// minutes off roster still picks up its slot via the weekday match.
func ResolveCarers(slots []VisitSchedule, weekday time.Weekday, start ratecard.TimeOfDay, defaultCarers int) int {
	for _, s := range slots {
		if s.Weekday == weekday && s.Start == start {
			return s.CarersRequired
		}
	}
	for _, s := range slots {
		if s.Weekday == weekday {
			return s.CarersRequired
		}
	}
	return defaultCarers
}
