package carebill

import (
	"context"
	"fmt"

	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
)

// IssueCreditNote creates a draft credit note against a sent invoice. The
// credited amount is capped at what remains of the invoice total after
// earlier credit notes, so an invoice can never be credited below zero.
func (e *Engine) IssueCreditNote(ctx context.Context, invID id.InvoiceID, amount types.Money, reason string) (*creditnote.CreditNote, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case invoice.StatusSent, invoice.StatusPartiallyPaid, invoice.StatusPaid:
	default:
		return nil, fmt.Errorf("%w: cannot credit a %s invoice", ErrInvalidStateTransition, inv.Status)
	}

	existing, err := s.ListCreditNotes(ctx, sc.TenantID, creditnote.ListOpts{InvoiceID: invID})
	if err != nil {
		return nil, fmt.Errorf("carebill: list credit notes: %w", err)
	}
	credited := types.Zero(inv.Total.Currency)
	for _, n := range existing {
		credited = credited.Add(n.Amount)
	}
	remaining := inv.Total.Subtract(credited)
	if amount.GreaterThan(remaining) {
		return nil, fmt.Errorf("%w: %s exceeds remaining creditable balance %s on %s",
			ErrCreditExceedsTotal, amount, remaining, inv.Number)
	}

	seq, err := s.NextSequence(ctx, sc.TenantID, store.SeqCreditNote, e.now().Format("200601"))
	if err != nil {
		return nil, fmt.Errorf("carebill: next credit note sequence: %w", err)
	}

	note := &creditnote.CreditNote{
		Entity:         types.NewEntity(),
		ID:             id.NewCreditNoteID(),
		OrganisationID: sc.TenantID,
		InvoiceID:      invID,
		Number:         creditnote.FormatNumber(orgPrefix(sc), e.now(), seq),
		Amount:         amount,
		Reason:         reason,
		Status:         creditnote.StatusDraft,
	}
	if err := note.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.CreateCreditNote(ctx, note); err != nil {
		return nil, err
	}
	e.plugins.EmitCreditNoteIssued(ctx, note)
	e.log.Info("credit note issued", "credit_note", note.Number, "invoice", inv.Number, "amount", amount.String())
	return note, nil
}

// GetCreditNote returns one credit note.
func (e *Engine) GetCreditNote(ctx context.Context, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetCreditNote(ctx, noteID)
}

// ListCreditNotes lists credit notes for the current tenant.
func (e *Engine) ListCreditNotes(ctx context.Context, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListCreditNotes(ctx, sc.TenantID, opts)
}

// SendCreditNote marks a draft credit note sent.
func (e *Engine) SendCreditNote(ctx context.Context, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	s, _, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	note, err := s.GetCreditNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.Status != creditnote.StatusDraft {
		return nil, fmt.Errorf("%w: cannot send a %s credit note", ErrInvalidStateTransition, note.Status)
	}
	note.Status = creditnote.StatusSent
	now := e.now()
	note.SentAt = &now
	note.Touch()
	if err := s.UpdateCreditNote(ctx, note); err != nil {
		return nil, err
	}
	e.plugins.EmitCreditNoteSent(ctx, note)
	return note, nil
}
