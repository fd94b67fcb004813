// Package creditnote models credit notes issued against sent invoices.
// Sent invoices are immutable; a credit note is the only correction path.
package creditnote

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// Status is the credit note lifecycle state.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
)

// ParseStatus validates a string status at the boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusDraft:
		return StatusDraft, nil
	case StatusSent:
		return StatusSent, nil
	default:
		return "", fmt.Errorf("creditnote: unknown credit note status %q", s)
	}
}

// CreditNote credits part or all of a sent invoice back to the funder.
// The amount may not exceed what remains of the invoice total after
// earlier credit notes.
type CreditNote struct {
	types.Entity
	ID             id.CreditNoteID `json:"id"`
	OrganisationID string          `json:"organisation_id"`
	InvoiceID      id.InvoiceID    `json:"invoice_id"`
	Number         string          `json:"number"`
	Amount         types.Money     `json:"amount"`
	Reason         string          `json:"reason"`
	Status         Status          `json:"status"`
	SentAt         *time.Time      `json:"sent_at,omitempty"`
}

// Validate checks the note's invariants. The remaining-balance cap needs
// the invoice and its sibling notes, so it lives with the engine.
func (n *CreditNote) Validate() error {
	if n.InvoiceID.IsNil() {
		return fmt.Errorf("creditnote: invoice is required")
	}
	if !n.Amount.IsPositive() {
		return fmt.Errorf("creditnote: amount must be positive, got %s", n.Amount)
	}
	if strings.TrimSpace(n.Reason) == "" {
		return fmt.Errorf("creditnote: reason is required")
	}
	return nil
}

// FormatNumber builds a credit note number: CN-{org}-{yyyymm}-{seq}. Credit
// notes draw from their own sequence, separate from invoices.
func FormatNumber(orgPrefix string, period time.Time, seq int64) string {
	return fmt.Sprintf("CN-%s-%s-%04d", strings.ToUpper(orgPrefix), period.Format("200601"), seq)
}
