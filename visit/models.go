// Package visit models delivered care visits and their billable
// counterparts, and computes billable duration from package rules.
package visit

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/types"
)

// CareVisitRecord is an upstream fact: a visit the rostering system says
// was delivered. Records are immutable inputs to reconciliation; corrections
// happen on the BillableVisit, never here.
type CareVisitRecord struct {
	types.Entity
	ID             id.VisitRecordID `json:"id"`
	OrganisationID string           `json:"organisation_id"`
	CarePackageID  id.CarePackageID `json:"care_package_id"`
	StaffID        string           `json:"staff_id,omitempty"`
	ScheduledStart time.Time        `json:"scheduled_start"`
	ScheduledEnd   time.Time        `json:"scheduled_end"`
	ActualStart    *time.Time       `json:"actual_start,omitempty"`
	ActualEnd      *time.Time       `json:"actual_end,omitempty"`
	// MileageMiles is the carer's recorded travel for the visit. Fractional
	// miles are the norm, so this is a decimal, never a float.
	MileageMiles *decimal.Decimal `json:"mileage_miles,omitempty"`
}

// HasActualTimes reports whether both actual timestamps were logged.
func (v *CareVisitRecord) HasActualTimes() bool {
	return v.ActualStart != nil && v.ActualEnd != nil
}

// Status is the billable visit lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusInvoiced Status = "invoiced"
	StatusDisputed Status = "disputed"
	StatusVoid     Status = "void"
)

// ParseStatus validates a string status at the boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusInvoiced:
		return StatusInvoiced, nil
	case StatusDisputed:
		return StatusDisputed, nil
	case StatusVoid:
		return StatusVoid, nil
	default:
		return "", fmt.Errorf("visit: unknown billable visit status %q", s)
	}
}

// CanTransitionTo reports whether the state machine permits the move.
// The invoiced -> approved edge exists only so voiding an invoice can
// release its visits for re-billing.
func (s Status) CanTransitionTo(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusApproved || to == StatusVoid
	case StatusApproved:
		return to == StatusInvoiced || to == StatusDisputed || to == StatusVoid
	case StatusDisputed:
		return to == StatusApproved || to == StatusVoid
	case StatusInvoiced:
		return to == StatusApproved
	default:
		return false
	}
}

// BillableVisit is the billing-side projection of one CareVisitRecord:
// resolved rate, computed duration and money, plus review state. Exactly
// one billable visit exists per visit record.
type BillableVisit struct {
	types.Entity
	ID                 id.BillableID    `json:"id"`
	OrganisationID     string           `json:"organisation_id"`
	VisitRecordID      id.VisitRecordID `json:"visit_record_id"`
	CarePackageID      id.CarePackageID `json:"care_package_id"`
	FunderID           id.FunderID      `json:"funder_id"`
	ServiceRecipientID string           `json:"service_recipient_id"`
	VisitDate          time.Time        `json:"visit_date"`
	DayType            ratecard.DayType `json:"day_type"`
	BillingStart       time.Time        `json:"billing_start"`
	BillingEnd         time.Time        `json:"billing_end"`
	DurationMinutes    int              `json:"duration_minutes"`
	CarersRequired     int              `json:"carers_required"`
	RatePerHour        types.Money      `json:"rate_per_hour"`
	LineTotal          types.Money      `json:"line_total"`
	MileageMiles       *decimal.Decimal `json:"mileage_miles,omitempty"`
	MileageRate        *types.Money     `json:"mileage_rate,omitempty"`
	MileageTotal       *types.Money     `json:"mileage_total,omitempty"`
	OverrideAmount     *types.Money     `json:"override_amount,omitempty"`
	OverrideReason     string           `json:"override_reason,omitempty"`
	DisputeReason      string           `json:"dispute_reason,omitempty"`
	Status             Status           `json:"status"`
	InvoiceLineID      id.InvoiceLineID `json:"invoice_line_id,omitempty"`
}

// Total is the amount this visit contributes to an invoice: the override
// when one is set, otherwise care plus mileage.
func (b *BillableVisit) Total() types.Money {
	if b.OverrideAmount != nil {
		return *b.OverrideAmount
	}
	total := b.LineTotal
	if b.MileageTotal != nil {
		total = total.Add(*b.MileageTotal)
	}
	return total
}

// Hours returns the billed duration as decimal hours, two places.
func (b *BillableVisit) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(b.DurationMinutes)).
		Div(decimal.NewFromInt(60)).
		Round(2)
}

// Transition moves the visit to a new status, enforcing the state machine.
func (b *BillableVisit) Transition(to Status) error {
	if !b.Status.CanTransitionTo(to) {
		return fmt.Errorf("visit: cannot move billable visit from %s to %s", b.Status, to)
	}
	b.Status = to
	return nil
}
