package visit

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusVoid, true},
		{StatusPending, StatusInvoiced, false},
		{StatusPending, StatusDisputed, false},
		{StatusApproved, StatusInvoiced, true},
		{StatusApproved, StatusDisputed, true},
		{StatusApproved, StatusVoid, true},
		{StatusApproved, StatusPending, false},
		{StatusDisputed, StatusApproved, true},
		{StatusDisputed, StatusVoid, true},
		{StatusDisputed, StatusInvoiced, false},
		{StatusInvoiced, StatusApproved, true},
		{StatusInvoiced, StatusVoid, false},
		{StatusInvoiced, StatusDisputed, false},
		{StatusVoid, StatusApproved, false},
		{StatusVoid, StatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.ok {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestTransitionEnforced(t *testing.T) {
	b := &BillableVisit{Status: StatusPending}
	if err := b.Transition(StatusInvoiced); err == nil {
		t.Error("expected rejection of pending -> invoiced")
	}
	if b.Status != StatusPending {
		t.Errorf("status mutated on rejected transition: %s", b.Status)
	}
	if err := b.Transition(StatusApproved); err != nil {
		t.Fatalf("pending -> approved: %v", err)
	}
	if b.Status != StatusApproved {
		t.Errorf("got %s, want %s", b.Status, StatusApproved)
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" Approved ")
	if err != nil {
		t.Fatal(err)
	}
	if got != StatusApproved {
		t.Errorf("got %s, want %s", got, StatusApproved)
	}
	if _, err := ParseStatus("cancelled"); err == nil {
		t.Error("expected rejection of unknown status")
	}
}

func TestBillableVisitTotal(t *testing.T) {
	miles := decimal.RequireFromString("4.6")
	mileageRate := types.Pence(45)
	mileageTotal := types.Pence(207)

	b := &BillableVisit{
		ID:              id.NewBillableID(),
		DurationMinutes: 45,
		LineTotal:       types.GBP(1650),
		MileageMiles:    &miles,
		MileageRate:     &mileageRate,
		MileageTotal:    &mileageTotal,
		Status:          StatusPending,
	}

	if got := b.Total(); got.Amount != 1857 {
		t.Errorf("care + mileage: got %v, want 1857 pence", got)
	}

	override := types.GBP(1000)
	b.OverrideAmount = &override
	b.OverrideReason = "agreed goodwill reduction"
	if got := b.Total(); got.Amount != 1000 {
		t.Errorf("override: got %v, want 1000 pence", got)
	}
}

func TestBillableVisitHours(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{60, "1"},
		{45, "0.75"},
		{50, "0.83"},
		{90, "1.5"},
	}
	for _, tt := range tests {
		b := &BillableVisit{DurationMinutes: tt.minutes}
		if got := b.Hours(); got.String() != tt.want {
			t.Errorf("Hours(%d) = %s, want %s", tt.minutes, got, tt.want)
		}
	}
}

func TestHasActualTimes(t *testing.T) {
	now := time.Now().UTC()
	v := &CareVisitRecord{ScheduledStart: now, ScheduledEnd: now.Add(time.Hour)}
	if v.HasActualTimes() {
		t.Error("no actual times logged")
	}
	v.ActualStart = &now
	if v.HasActualTimes() {
		t.Error("only start logged")
	}
	end := now.Add(50 * time.Minute)
	v.ActualEnd = &end
	if !v.HasActualTimes() {
		t.Error("both logged")
	}
}
