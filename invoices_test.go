package carebill_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/store/memory"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

var (
	periodStart = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
)

func TestGenerateInvoice(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, pkg, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}

	if inv.Number != "INV-ACME-202608-0001" {
		t.Errorf("number = %q, want INV-ACME-202608-0001", inv.Number)
	}
	if inv.Status != invoice.StatusDraft {
		t.Errorf("status = %s, want draft", inv.Status)
	}
	// £16.50 + £1.44 mileage + £12.50 + £30.00 = £60.44, care exempt of VAT.
	if inv.Subtotal.Amount != 6044 {
		t.Errorf("subtotal = %d, want 6044", inv.Subtotal.Amount)
	}
	if !inv.VATAmount.IsZero() {
		t.Errorf("vat = %s, want zero", inv.VATAmount)
	}
	if inv.Total.Amount != 6044 {
		t.Errorf("total = %d, want 6044", inv.Total.Amount)
	}
	wantDue := testNow.AddDate(0, 0, 30)
	if inv.DueDate == nil || !inv.DueDate.Equal(wantDue) {
		t.Errorf("due date = %v, want %s", inv.DueDate, wantDue)
	}

	// One recipient, one package: one line.
	if len(inv.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(inv.Lines))
	}
	line := inv.Lines[0]
	if line.ServiceRecipientID != "sr_100" || line.CarePackageID != pkg.ID {
		t.Errorf("line grouping wrong: %+v", line)
	}
	if line.VisitCount != 3 {
		t.Errorf("visit count = %d, want 3", line.VisitCount)
	}
	if !line.TotalHours.Equal(decimal.RequireFromString("2.25")) {
		t.Errorf("total hours = %s, want 2.25", line.TotalHours)
	}
	if !line.TotalMiles.Equal(decimal.RequireFromString("3.2")) {
		t.Errorf("total miles = %s, want 3.2", line.TotalMiles)
	}
	if line.CareSubtotal.Amount != 5900 {
		t.Errorf("care subtotal = %d, want 5900", line.CareSubtotal.Amount)
	}
	if line.MileageSubtotal.Amount != 144 {
		t.Errorf("mileage subtotal = %d, want 144", line.MileageSubtotal.Amount)
	}
	if line.LineTotal.Amount != 6044 {
		t.Errorf("line total = %d, want 6044", line.LineTotal.Amount)
	}

	// Every billed visit is now invoiced and linked to the line.
	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusInvoiced})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(billables) != 3 {
		t.Fatalf("got %d invoiced visits, want 3", len(billables))
	}
	for _, b := range billables {
		if b.InvoiceLineID != line.ID {
			t.Errorf("visit %s line = %s, want %s", b.ID, b.InvoiceLineID, line.ID)
		}
	}

	// Nothing left to bill for the period.
	if _, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd); !errors.Is(err, carebill.ErrNoBillableVisits) {
		t.Fatalf("expected ErrNoBillableVisits, got %v", err)
	}
}

func TestGenerateInvoiceSkipsDisputedAndPending(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	// Approve one, dispute one, leave one pending.
	if _, err := eng.ApproveVisit(ctx, billables[0].ID); err != nil {
		t.Fatalf("ApproveVisit: %v", err)
	}
	if _, err := eng.ApproveVisit(ctx, billables[1].ID); err != nil {
		t.Fatalf("ApproveVisit: %v", err)
	}
	if _, err := eng.DisputeVisit(ctx, billables[1].ID, "duration queried by funder"); err != nil {
		t.Fatalf("DisputeVisit: %v", err)
	}

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if inv.Lines[0].VisitCount != 1 {
		t.Fatalf("visit count = %d, want 1", inv.Lines[0].VisitCount)
	}
}

func TestInvoicePaymentLifecycle(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}

	// Draft invoices cannot take payments.
	if _, err := eng.MarkInvoicePaid(ctx, inv.ID, types.GBP(6044), time.Time{}, "BACS-1"); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}

	inv, err = eng.SendInvoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("SendInvoice: %v", err)
	}
	if inv.Status != invoice.StatusSent || inv.SentAt == nil {
		t.Fatalf("after send: status=%s sentAt=%v", inv.Status, inv.SentAt)
	}

	// Overpayment is rejected.
	if _, err := eng.MarkInvoicePaid(ctx, inv.ID, types.GBP(7000), time.Time{}, "BACS-2"); !errors.Is(err, carebill.ErrOverpayment) {
		t.Fatalf("expected ErrOverpayment, got %v", err)
	}

	inv, err = eng.MarkInvoicePaid(ctx, inv.ID, types.GBP(3000), time.Time{}, "BACS-3")
	if err != nil {
		t.Fatalf("MarkInvoicePaid: %v", err)
	}
	if inv.Status != invoice.StatusPartiallyPaid {
		t.Fatalf("status = %s, want partially_paid", inv.Status)
	}
	if inv.Outstanding().Amount != 3044 {
		t.Fatalf("outstanding = %d, want 3044", inv.Outstanding().Amount)
	}

	// The settling payment carries the date it was received, not the clock.
	received := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	inv, err = eng.MarkInvoicePaid(ctx, inv.ID, types.GBP(3044), received, "BACS-4")
	if err != nil {
		t.Fatalf("MarkInvoicePaid: %v", err)
	}
	if inv.Status != invoice.StatusPaid || inv.PaidAt == nil {
		t.Fatalf("after settle: status=%s paidAt=%v", inv.Status, inv.PaidAt)
	}
	if !inv.PaidAt.Equal(received) {
		t.Fatalf("paidAt = %s, want %s", inv.PaidAt, received)
	}

	// Paid is terminal: no void, no further payment.
	if _, err := eng.VoidInvoice(ctx, inv.ID, "mistake"); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

// failingInvoiceStore rejects CreateInvoice on demand, standing in for a
// write that dies at the database.
type failingInvoiceStore struct {
	*memory.Store
	fail bool
}

func (s *failingInvoiceStore) CreateInvoice(ctx context.Context, inv *invoice.Invoice, links []store.VisitLink) error {
	if s.fail {
		return errors.New("connection reset")
	}
	return s.Store.CreateInvoice(ctx, inv, links)
}

func TestGenerateInvoiceFailureLeavesVisitsApproved(t *testing.T) {
	fs := &failingInvoiceStore{Store: memory.New()}
	eng := carebill.New(fs, carebill.WithClock(func() time.Time { return testNow }))
	ctx := carebill.WithScope(context.Background(), carebill.Scope{
		TenantID:  "org_test",
		ActorID:   "usr_1",
		OrgPrefix: "ACME",
	})
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Stop(context.Background())

	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	fs.fail = true
	if _, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd); err == nil {
		t.Fatal("expected GenerateInvoice to fail")
	}

	// The failed write changed nothing: no invoice, and every visit is still
	// approved and unlinked.
	invoices, err := eng.ListInvoices(ctx, invoice.ListOpts{})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(invoices) != 0 {
		t.Fatalf("got %d invoices after failed create, want 0", len(invoices))
	}
	approved, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusApproved})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(approved) != 3 {
		t.Fatalf("got %d approved visits after failed create, want 3", len(approved))
	}
	for _, b := range approved {
		if !b.InvoiceLineID.IsNil() {
			t.Errorf("visit %s linked to line %s after failed create", b.ID, b.InvoiceLineID)
		}
	}

	// A retry picks the same visits up. The failed attempt consumed a
	// sequence number, so the retry draws the next one.
	fs.fail = false
	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice retry: %v", err)
	}
	if inv.Number != "INV-ACME-202608-0002" {
		t.Fatalf("retry number = %q, want INV-ACME-202608-0002", inv.Number)
	}
	if inv.Total.Amount != 6044 {
		t.Fatalf("retry total = %d, want 6044", inv.Total.Amount)
	}
}

func TestVoidInvoiceReleasesVisits(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}

	voided, err := eng.VoidInvoice(ctx, inv.ID, "wrong rate card applied")
	if err != nil {
		t.Fatalf("VoidInvoice: %v", err)
	}
	if voided.Status != invoice.StatusVoid || voided.VoidedAt == nil {
		t.Fatalf("after void: status=%s voidedAt=%v", voided.Status, voided.VoidedAt)
	}
	if voided.VoidReason != "wrong rate card applied" {
		t.Fatalf("void reason = %q", voided.VoidReason)
	}

	// Visits are back to approved and unlinked, eligible for a fresh invoice.
	approved, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusApproved})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(approved) != 3 {
		t.Fatalf("got %d approved visits after void, want 3", len(approved))
	}
	for _, b := range approved {
		if !b.InvoiceLineID.IsNil() {
			t.Errorf("visit %s still linked to line %s", b.ID, b.InvoiceLineID)
		}
	}

	reissued, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice after void: %v", err)
	}
	if reissued.Number != "INV-ACME-202608-0002" {
		t.Fatalf("reissued number = %q, want INV-ACME-202608-0002", reissued.Number)
	}
	if reissued.Total.Amount != inv.Total.Amount {
		t.Fatalf("reissued total = %d, want %d", reissued.Total.Amount, inv.Total.Amount)
	}
}

func TestVoidInvoiceRequiresReason(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	if _, err := eng.VoidInvoice(ctx, inv.ID, ""); !errors.Is(err, carebill.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOverrideFlowsIntoInvoice(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	// Override the weekday visit (care £16.50 + mileage £1.44) down to £10.00.
	weekday := billables[0]
	if _, err := eng.OverrideVisit(ctx, weekday.ID, types.GBP(1000), "goodwill adjustment"); err != nil {
		t.Fatalf("OverrideVisit: %v", err)
	}
	approveAll(t, ctx, eng)

	inv, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd)
	if err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}
	// 1000 + 1250 + 3000 instead of 1794 + 1250 + 3000.
	if inv.Total.Amount != 5250 {
		t.Fatalf("total = %d, want 5250", inv.Total.Amount)
	}
}
