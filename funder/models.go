// Package funder models billing counterparties: the public authorities and
// private payers invoiced for a service recipient's care.
package funder

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Type distinguishes public-authority funders from private payers.
type Type string

const (
	TypeLocalAuthority Type = "local_authority"
	TypeNHS            Type = "nhs"
	TypePrivate        Type = "private"
)

// ParseType validates a string funder type at the boundary.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLocalAuthority:
		return TypeLocalAuthority, nil
	case TypeNHS:
		return TypeNHS, nil
	case TypePrivate:
		return TypePrivate, nil
	default:
		return "", fmt.Errorf("funder: unknown funder type %q", s)
	}
}

// InvoiceFrequency is how often a funder expects to be invoiced.
type InvoiceFrequency string

const (
	FrequencyWeekly      InvoiceFrequency = "weekly"
	FrequencyFortnightly InvoiceFrequency = "fortnightly"
	FrequencyFourWeekly  InvoiceFrequency = "four_weekly"
	FrequencyMonthly     InvoiceFrequency = "monthly"
)

// TimeBasis selects which clock feeds billing: the rostered visit times or
// the carer's logged actual times.
type TimeBasis string

const (
	BasisScheduled TimeBasis = "scheduled"
	BasisActual    TimeBasis = "actual"
)

// ParseTimeBasis validates a string time basis at the boundary.
func ParseTimeBasis(s string) (TimeBasis, error) {
	switch TimeBasis(strings.ToLower(strings.TrimSpace(s))) {
	case BasisScheduled:
		return BasisScheduled, nil
	case BasisActual:
		return BasisActual, nil
	default:
		return "", fmt.Errorf("funder: unknown time basis %q", s)
	}
}

// Funder is a billing counterparty. Funders are soft-deactivated, never
// hard-deleted: historical invoices reference them.
type Funder struct {
	types.Entity
	ID               id.FunderID      `json:"id"`
	OrganisationID   string           `json:"organisation_id"`
	Name             string           `json:"name"`
	Type             Type             `json:"type"`
	PaymentTermsDays int              `json:"payment_terms_days"`
	InvoiceFrequency InvoiceFrequency `json:"invoice_frequency"`
	DefaultTimeBasis TimeBasis        `json:"default_time_basis"`
	Email            string           `json:"email,omitempty"`
	Reference        string           `json:"reference,omitempty"` // purchase order / contract reference
	Active           bool             `json:"active"`
}

// Validate checks the funder's invariants.
func (f *Funder) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("funder: name is required")
	}
	if _, err := ParseType(string(f.Type)); err != nil {
		return err
	}
	if f.PaymentTermsDays < 0 {
		return fmt.Errorf("funder: payment terms must be >= 0 days, got %d", f.PaymentTermsDays)
	}
	if _, err := ParseTimeBasis(string(f.DefaultTimeBasis)); err != nil {
		return err
	}
	return nil
}

// DueDate computes when an invoice issued to this funder falls due.
func (f *Funder) DueDate(issued time.Time) time.Time {
	return issued.AddDate(0, 0, f.PaymentTermsDays)
}
