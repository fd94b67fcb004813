package carebill_test

import (
	"errors"
	"testing"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

func TestIssueCreditNote(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}

	// Drafts cannot be credited.
	if _, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(1000), "duplicate visit"); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	if _, err := eng.SendInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}

	note, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(1794), "visit billed at wrong rate")
	if err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}
	// Credit note numbering runs off the issue month, not the invoice period.
	if note.Number != "CN-ACME-202609-0001" {
		t.Errorf("number = %q, want CN-ACME-202609-0001", note.Number)
	}
	if note.Status != creditnote.StatusDraft {
		t.Errorf("status = %s, want draft", note.Status)
	}
	if note.InvoiceID != inv.ID {
		t.Errorf("invoice id = %s, want %s", note.InvoiceID, inv.ID)
	}
}

func TestCreditNoteCappedAtInvoiceTotal(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if _, err := eng.SendInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}

	// Invoice total is £60.44. First credit of £40 is fine; a second £40
	// would push the credited total past it.
	if _, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(4000), "first correction"); err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}
	if _, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(4000), "second correction"); !errors.Is(err, carebill.ErrCreditExceedsTotal) {
		t.Fatalf("expected ErrCreditExceedsTotal, got %v", err)
	}

	// Crediting exactly the remainder is allowed.
	if _, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(2044), "write off remainder"); err != nil {
		t.Fatalf("IssueCreditNote remainder: %v", err)
	}
}

func TestSendCreditNote(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if _, err := eng.SendInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	note, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(500), "short visit")
	if err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}

	sent, err := eng.SendCreditNote(ctx, note.ID)
	if err != nil {
		t.Fatalf("SendCreditNote: %v", err)
	}
	if sent.Status != creditnote.StatusSent || sent.SentAt == nil {
		t.Fatalf("after send: status=%s sentAt=%v", sent.Status, sent.SentAt)
	}

	// Sending twice is an error.
	if _, err := eng.SendCreditNote(ctx, note.ID); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestListCreditNotesByInvoice(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if _, err := eng.SendInvoice(ctx, inv.ID); err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	if _, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(100), "a"); err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}
	if _, err := eng.IssueCreditNote(ctx, inv.ID, types.GBP(200), "b"); err != nil {
		t.Fatalf("IssueCreditNote: %v", err)
	}

	notes, err := eng.ListCreditNotes(ctx, creditnote.ListOpts{InvoiceID: inv.ID})
	if err != nil {
		t.Fatalf("ListCreditNotes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes))
	}

	other := id.NewInvoiceID()
	none, err := eng.ListCreditNotes(ctx, creditnote.ListOpts{InvoiceID: other})
	if err != nil {
		t.Fatalf("ListCreditNotes: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("got %d notes for unrelated invoice, want 0", len(none))
	}
}
