package carebill_test

import (
	"errors"
	"testing"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

func TestVisitReviewLifecycle(t *testing.T) {
	ctx, eng := newTestEngine(t)
	seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	b := billables[0]

	approved, err := eng.ApproveVisit(ctx, b.ID)
	if err != nil {
		t.Fatalf("ApproveVisit: %v", err)
	}
	if approved.Status != visit.StatusApproved {
		t.Fatalf("status = %s, want approved", approved.Status)
	}

	// A dispute needs a reason.
	if _, err := eng.DisputeVisit(ctx, b.ID, ""); !errors.Is(err, carebill.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	disputed, err := eng.DisputeVisit(ctx, b.ID, "funder queried the duration")
	if err != nil {
		t.Fatalf("DisputeVisit: %v", err)
	}
	if disputed.Status != visit.StatusDisputed || disputed.DisputeReason == "" {
		t.Fatalf("after dispute: status=%s reason=%q", disputed.Status, disputed.DisputeReason)
	}

	// Re-approval resolves the dispute and clears the reason.
	resolved, err := eng.ApproveVisit(ctx, b.ID)
	if err != nil {
		t.Fatalf("ApproveVisit after dispute: %v", err)
	}
	if resolved.Status != visit.StatusApproved || resolved.DisputeReason != "" {
		t.Fatalf("after re-approve: status=%s reason=%q", resolved.Status, resolved.DisputeReason)
	}
}

func TestVoidVisit(t *testing.T) {
	ctx, eng := newTestEngine(t)
	seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}

	voided, err := eng.VoidVisit(ctx, billables[0].ID)
	if err != nil {
		t.Fatalf("VoidVisit: %v", err)
	}
	if voided.Status != visit.StatusVoid {
		t.Fatalf("status = %s, want void", voided.Status)
	}

	// Void is terminal.
	if _, err := eng.ApproveVisit(ctx, billables[0].ID); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestPendingVisitCannotBeDisputed(t *testing.T) {
	ctx, eng := newTestEngine(t)
	seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if _, err := eng.DisputeVisit(ctx, billables[0].ID, "not yet reviewed"); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestOverrideVisit(t *testing.T) {
	ctx, eng := newTestEngine(t)
	seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	// The weekday visit computes to £16.50 care plus £1.44 mileage.
	weekday := billables[0]
	if weekday.Total().Amount != 1794 {
		t.Fatalf("computed total = %d, want 1794", weekday.Total().Amount)
	}

	if _, err := eng.OverrideVisit(ctx, weekday.ID, types.GBP(1000), ""); !errors.Is(err, carebill.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing reason, got %v", err)
	}
	if _, err := eng.OverrideVisit(ctx, weekday.ID, types.GBP(-100), "negative"); !errors.Is(err, carebill.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative amount, got %v", err)
	}

	b, err := eng.OverrideVisit(ctx, weekday.ID, types.GBP(1000), "agreed fixed call rate")
	if err != nil {
		t.Fatalf("OverrideVisit: %v", err)
	}
	if b.Total().Amount != 1000 {
		t.Fatalf("overridden total = %d, want 1000", b.Total().Amount)
	}
	// The computed figures survive alongside the override.
	if b.LineTotal.Amount != 1650 {
		t.Fatalf("computed line total lost: %d", b.LineTotal.Amount)
	}

	b, err = eng.ClearOverride(ctx, weekday.ID)
	if err != nil {
		t.Fatalf("ClearOverride: %v", err)
	}
	if b.OverrideAmount != nil || b.Total().Amount != 1794 {
		t.Fatalf("after clear: override=%v total=%d", b.OverrideAmount, b.Total().Amount)
	}
}

func TestOverrideRejectedOnceInvoiced(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd, _, _ := seedBilledWeek(t, ctx, eng)
	approveAll(t, ctx, eng)

	if _, err := eng.GenerateInvoice(ctx, fnd.ID, periodStart, periodEnd); err != nil {
		t.Fatalf("GenerateInvoice: %v", err)
	}

	invoiced, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusInvoiced})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if _, err := eng.OverrideVisit(ctx, invoiced[0].ID, types.GBP(500), "late adjustment"); !errors.Is(err, carebill.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestBulkApproveVisits(t *testing.T) {
	ctx, eng := newTestEngine(t)
	_, pkg, _ := seedBilledWeek(t, ctx, eng)

	n, err := eng.BulkApproveVisits(ctx, visit.ListOpts{CarePackageID: pkg.ID})
	if err != nil {
		t.Fatalf("BulkApproveVisits: %v", err)
	}
	if n != 3 {
		t.Fatalf("approved = %d, want 3", n)
	}
	approved, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusApproved})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(approved) != 3 {
		t.Fatalf("got %d approved visits, want 3", len(approved))
	}

	// Only pending visits match: a second sweep finds nothing.
	n, err = eng.BulkApproveVisits(ctx, visit.ListOpts{CarePackageID: pkg.ID})
	if err != nil {
		t.Fatalf("BulkApproveVisits: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep approved = %d, want 0", n)
	}
}

func TestApproveVisitsStopsAtFirstFailure(t *testing.T) {
	ctx, eng := newTestEngine(t)
	seedBilledWeek(t, ctx, eng)

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	// Void the middle visit so the batch trips over it.
	if _, err := eng.VoidVisit(ctx, billables[1].ID); err != nil {
		t.Fatalf("VoidVisit: %v", err)
	}

	ids := []id.BillableID{billables[0].ID, billables[1].ID, billables[2].ID}
	n, err := eng.ApproveVisits(ctx, ids)
	if err == nil {
		t.Fatal("expected batch approval to fail")
	}
	if n != 1 {
		t.Fatalf("approved count = %d, want 1", n)
	}

	// The approval before the failure stuck.
	b, err := eng.GetBillableVisit(ctx, billables[0].ID)
	if err != nil {
		t.Fatalf("GetBillableVisit: %v", err)
	}
	if b.Status != visit.StatusApproved {
		t.Fatalf("first visit status = %s, want approved", b.Status)
	}
}
