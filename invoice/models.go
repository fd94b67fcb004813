// Package invoice models funder invoices and their per-recipient lines.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusSent          Status = "sent"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusVoid          Status = "void"
)

// ParseStatus validates a string status at the boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusSent:
		return StatusSent, nil
	case StatusPartiallyPaid:
		return StatusPartiallyPaid, nil
	case StatusPaid:
		return StatusPaid, nil
	case StatusVoid:
		return StatusVoid, nil
	default:
		return "", fmt.Errorf("invoice: unknown invoice status %q", s)
	}
}

// CanTransitionTo reports whether the state machine permits the move.
// Any non-terminal state can be voided; paid is terminal.
func (s Status) CanTransitionTo(to Status) bool {
	switch s {
	case StatusDraft:
		return to == StatusSent || to == StatusVoid
	case StatusSent:
		return to == StatusPartiallyPaid || to == StatusPaid || to == StatusVoid
	case StatusPartiallyPaid:
		return to == StatusPartiallyPaid || to == StatusPaid || to == StatusVoid
	default:
		return false
	}
}

// Invoice is one billing document issued to a funder for a period. Amounts
// are denormalised onto the invoice at generation time so the document is
// reproducible even if rates change later.
type Invoice struct {
	types.Entity
	ID             id.InvoiceID  `json:"id"`
	OrganisationID string        `json:"organisation_id"`
	FunderID       id.FunderID   `json:"funder_id"`
	Number         string        `json:"number"`
	PeriodStart    time.Time     `json:"period_start"`
	PeriodEnd      time.Time     `json:"period_end"`
	Status         Status        `json:"status"`
	Subtotal       types.Money   `json:"subtotal"`
	VATAmount      types.Money   `json:"vat_amount"`
	Total          types.Money   `json:"total"`
	PaidAmount     types.Money   `json:"paid_amount"`
	PaymentRef     string        `json:"payment_ref,omitempty"`
	DueDate        *time.Time    `json:"due_date,omitempty"`
	SentAt         *time.Time    `json:"sent_at,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`
	VoidedAt       *time.Time    `json:"voided_at,omitempty"`
	VoidReason     string        `json:"void_reason,omitempty"`
	Lines          []InvoiceLine `json:"lines,omitempty"`
}

// Outstanding is the unpaid balance.
func (inv *Invoice) Outstanding() types.Money {
	return inv.Total.Subtract(inv.PaidAmount)
}

// Overdue reports whether the invoice is unpaid past its due date.
func (inv *Invoice) Overdue(asOf time.Time) bool {
	if inv.Status != StatusSent && inv.Status != StatusPartiallyPaid {
		return false
	}
	return inv.DueDate != nil && asOf.After(*inv.DueDate)
}

// Transition moves the invoice to a new status, enforcing the state machine.
func (inv *Invoice) Transition(to Status) error {
	if !inv.Status.CanTransitionTo(to) {
		return fmt.Errorf("invoice: cannot move invoice %s from %s to %s", inv.Number, inv.Status, to)
	}
	inv.Status = to
	return nil
}

// InvoiceLine groups one period's billable visits for one service recipient
// under one care package.
type InvoiceLine struct {
	ID                 id.InvoiceLineID `json:"id"`
	InvoiceID          id.InvoiceID     `json:"invoice_id"`
	ServiceRecipientID string           `json:"service_recipient_id"`
	CarePackageID      id.CarePackageID `json:"care_package_id"`
	VisitCount         int              `json:"visit_count"`
	TotalHours         decimal.Decimal  `json:"total_hours"`
	TotalMiles         decimal.Decimal  `json:"total_miles"`
	CareSubtotal       types.Money      `json:"care_subtotal"`
	MileageSubtotal    types.Money      `json:"mileage_subtotal"`
	LineTotal          types.Money      `json:"line_total"`
}

// FormatNumber builds an invoice number: INV-{org}-{yyyymm}-{seq}, e.g.
// INV-ACME-202608-0041. The sequence resets per organisation, kind and
// calendar month.
func FormatNumber(orgPrefix string, period time.Time, seq int64) string {
	return formatDocNumber("INV", orgPrefix, period, seq)
}

func formatDocNumber(kind, orgPrefix string, period time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%s-%04d", kind, strings.ToUpper(orgPrefix), period.Format("200601"), seq)
}
