package invoice

import (
	"testing"
	"time"

	"github.com/xraph/carebill/types"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusVoid, true},
		{StatusDraft, StatusPaid, false},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusPartiallyPaid, true},
		{StatusSent, StatusVoid, true},
		{StatusSent, StatusDraft, false},
		{StatusPartiallyPaid, StatusPartiallyPaid, true},
		{StatusPartiallyPaid, StatusPaid, true},
		{StatusPartiallyPaid, StatusVoid, true},
		{StatusPaid, StatusVoid, false},
		{StatusPaid, StatusSent, false},
		{StatusVoid, StatusSent, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	period := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	got := FormatNumber("acme", period, 41)
	if got != "INV-ACME-202608-0041" {
		t.Errorf("got %q", got)
	}
	// The sequence widens past four digits rather than truncating.
	if got := FormatNumber("ACME", period, 12345); got != "INV-ACME-202608-12345" {
		t.Errorf("got %q", got)
	}
}

func TestOutstandingAndOverdue(t *testing.T) {
	due := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	inv := &Invoice{
		Number:     "INV-ACME-202607-0003",
		Status:     StatusPartiallyPaid,
		Total:      types.GBP(110_00),
		PaidAmount: types.GBP(40_00),
		DueDate:    &due,
	}

	if got := inv.Outstanding(); got.Amount != 70_00 {
		t.Errorf("outstanding: got %v, want 7000 pence", got)
	}
	if !inv.Overdue(due.AddDate(0, 0, 10)) {
		t.Error("expected overdue past the due date")
	}
	if inv.Overdue(due.AddDate(0, 0, -1)) {
		t.Error("not yet due")
	}

	inv.Status = StatusPaid
	if inv.Overdue(due.AddDate(0, 0, 10)) {
		t.Error("a paid invoice is never overdue")
	}
}
