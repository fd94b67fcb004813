package carebill_test

import (
	"strings"
	"testing"
	"time"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/visit"
)

func TestReconcilePricesVisits(t *testing.T) {
	ctx, eng := newTestEngine(t)
	_, _, result := seedBilledWeek(t, ctx, eng)

	if result.Total != 3 || result.Generated != 3 {
		t.Fatalf("Total = %d, Generated = %d, want 3 and 3", result.Total, result.Generated)
	}
	if result.AlreadyBilled != 0 || len(result.Issues) != 0 {
		t.Fatalf("unexpected skips or issues: %+v", result)
	}

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(billables) != 3 {
		t.Fatalf("got %d billable visits, want 3", len(billables))
	}

	// Sorted by billing start: weekday, saturday, bank holiday.
	weekday, saturday, holiday := billables[0], billables[1], billables[2]

	// 45 min at £22.00/hr = £16.50, plus 3.2 miles at 45p = £1.44.
	if weekday.DayType != ratecard.DayWeekday {
		t.Errorf("weekday visit day type = %s", weekday.DayType)
	}
	if weekday.DurationMinutes != 45 {
		t.Errorf("weekday duration = %d, want 45", weekday.DurationMinutes)
	}
	if weekday.LineTotal.Amount != 1650 {
		t.Errorf("weekday line total = %d, want 1650", weekday.LineTotal.Amount)
	}
	if weekday.MileageTotal == nil || weekday.MileageTotal.Amount != 144 {
		t.Errorf("weekday mileage total = %v, want 144", weekday.MileageTotal)
	}
	if weekday.Total().Amount != 1794 {
		t.Errorf("weekday total = %d, want 1794", weekday.Total().Amount)
	}
	if weekday.Status != visit.StatusPending {
		t.Errorf("weekday status = %s, want pending", weekday.Status)
	}

	// 20 minutes floors to the 30-minute minimum at the Saturday rate.
	if saturday.DayType != ratecard.DaySaturday {
		t.Errorf("saturday visit day type = %s", saturday.DayType)
	}
	if saturday.DurationMinutes != 30 {
		t.Errorf("saturday duration = %d, want 30", saturday.DurationMinutes)
	}
	if saturday.LineTotal.Amount != 1250 {
		t.Errorf("saturday line total = %d, want 1250", saturday.LineTotal.Amount)
	}

	// The summer bank holiday overrides the Monday classification.
	if holiday.DayType != ratecard.DayBankHoliday {
		t.Errorf("holiday visit day type = %s", holiday.DayType)
	}
	if holiday.LineTotal.Amount != 3000 {
		t.Errorf("holiday line total = %d, want 3000", holiday.LineTotal.Amount)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx, eng := newTestEngine(t)
	seedBilledWeek(t, ctx, eng)

	// Billed records are no longer candidates, so a re-run over the same
	// window examines nothing and creates nothing.
	again, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if again.Total != 0 || again.Generated != 0 || again.AlreadyBilled != 0 {
		t.Fatalf("second run = %+v, want all zero", again)
	}

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(billables) != 3 {
		t.Fatalf("got %d billable visits after re-run, want 3", len(billables))
	}
}

func TestReconcileFiltersByFunderAndRecipient(t *testing.T) {
	ctx, eng := newTestEngine(t)

	fndA := seedFunder(t, ctx, eng)
	cardA := seedRateCard(t, ctx, eng, fndA.ID)
	pkgA := seedPackage(t, ctx, eng, fndA.ID, cardA.ID) // sr_100

	fndB, err := eng.CreateFunder(ctx, &funder.Funder{
		Name:             "Northvale Borough Council",
		Type:             funder.TypeLocalAuthority,
		PaymentTermsDays: 30,
		InvoiceFrequency: funder.FrequencyMonthly,
		DefaultTimeBasis: funder.BasisScheduled,
	})
	if err != nil {
		t.Fatalf("CreateFunder: %v", err)
	}
	cardB := seedRateCard(t, ctx, eng, fndB.ID)
	pkgB, err := eng.CreateCarePackage(ctx, &carepkg.CarePackage{
		ServiceRecipientID:    "sr_200",
		FunderID:              fndB.ID,
		RateCardID:            cardB.ID,
		TimeBasis:             funder.BasisScheduled,
		DefaultCarersRequired: 1,
		StartDate:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateCarePackage: %v", err)
	}

	seedVisit(t, ctx, eng, pkgA.ID,
		time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC), "")
	seedVisit(t, ctx, eng, pkgB.ID,
		time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC), "")

	window := carebill.ReconcileParams{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}

	// Funder filter: only the visit on fndA's package is examined.
	byFunder := window
	byFunder.FunderID = fndA.ID
	result, err := eng.Reconcile(ctx, byFunder)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Total != 1 || result.Generated != 1 {
		t.Fatalf("funder-filtered run = %+v, want Total 1, Generated 1", result)
	}
	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	if len(billables) != 1 || billables[0].FunderID != fndA.ID {
		t.Fatalf("expected one billable for funder A, got %+v", billables)
	}

	// Recipient filter picks up the remaining visit.
	byRecipient := window
	byRecipient.ServiceRecipientID = "sr_200"
	result, err = eng.Reconcile(ctx, byRecipient)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Total != 1 || result.Generated != 1 {
		t.Fatalf("recipient-filtered run = %+v, want Total 1, Generated 1", result)
	}

	// Nothing is left for an unfiltered run.
	result, err = eng.Reconcile(ctx, window)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Total != 0 || result.Generated != 0 {
		t.Fatalf("final run = %+v, want nothing to do", result)
	}
}

func TestReconcileUsesScheduleCarerCount(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd := seedFunder(t, ctx, eng)
	card := seedRateCard(t, ctx, eng, fnd.ID)
	pkg := seedPackage(t, ctx, eng, fnd.ID, card.ID)

	// Monday 09:00 is rostered as a double-up.
	if _, err := eng.AddVisitSchedule(ctx, &carepkg.VisitSchedule{
		CarePackageID:  pkg.ID,
		Weekday:        time.Monday,
		Start:          tod(t, "09:00"),
		End:            tod(t, "10:00"),
		CarersRequired: 2,
	}); err != nil {
		t.Fatalf("AddVisitSchedule: %v", err)
	}

	seedVisit(t, ctx, eng, pkg.ID,
		time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC), "")

	result, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Generated != 1 {
		t.Fatalf("Generated = %d, want 1", result.Generated)
	}

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	b := billables[0]
	if b.CarersRequired != 2 {
		t.Fatalf("carers = %d, want 2", b.CarersRequired)
	}
	// 60 min at the 2-carer weekday rate of £40.00/hr.
	if b.LineTotal.Amount != 4000 {
		t.Fatalf("line total = %d, want 4000", b.LineTotal.Amount)
	}
}

func TestReconcileActualTimeBasis(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd := seedFunder(t, ctx, eng)
	card := seedRateCard(t, ctx, eng, fnd.ID)

	pkg, err := eng.CreateCarePackage(ctx, &carepkg.CarePackage{
		ServiceRecipientID:       "sr_200",
		FunderID:                 fnd.ID,
		RateCardID:               card.ID,
		TimeBasis:                funder.BasisActual,
		RoundingIncrementMinutes: 15,
		DefaultCarersRequired:    1,
		StartDate:                time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateCarePackage: %v", err)
	}

	// One visit with actuals logged, one without.
	start := time.Date(2026, 8, 4, 9, 5, 0, 0, time.UTC)
	end := time.Date(2026, 8, 4, 9, 50, 0, 0, time.UTC)
	if _, err := eng.RecordVisit(ctx, &visit.CareVisitRecord{
		CarePackageID:  pkg.ID,
		ScheduledStart: time.Date(2026, 8, 4, 9, 0, 0, 0, time.UTC),
		ScheduledEnd:   time.Date(2026, 8, 4, 10, 0, 0, 0, time.UTC),
		ActualStart:    &start,
		ActualEnd:      &end,
	}); err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}

	missing := seedVisit(t, ctx, eng, pkg.ID,
		time.Date(2026, 8, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC), "")

	result, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Generated != 1 {
		t.Fatalf("Generated = %d, want 1", result.Generated)
	}
	if len(result.Issues) != 1 {
		t.Fatalf("Issues = %d, want 1", len(result.Issues))
	}
	if result.Issues[0].VisitRecordID != missing.ID {
		t.Fatalf("issue names %s, want %s", result.Issues[0].VisitRecordID, missing.ID)
	}
	if !strings.Contains(result.Issues[0].Reason, "actual times missing") {
		t.Fatalf("issue reason = %q", result.Issues[0].Reason)
	}

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	// 45 actual minutes, rounded to the 15-minute increment.
	if billables[0].DurationMinutes != 45 {
		t.Fatalf("duration = %d, want 45", billables[0].DurationMinutes)
	}
	if !billables[0].BillingStart.Equal(start) {
		t.Fatalf("billing start = %s, want %s", billables[0].BillingStart, start)
	}
}

func TestReconcileNoEffectiveCardIsIssue(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd := seedFunder(t, ctx, eng)
	card := seedRateCard(t, ctx, eng, fnd.ID) // effective from 2026-01-01

	pkg, err := eng.CreateCarePackage(ctx, &carepkg.CarePackage{
		ServiceRecipientID:    "sr_300",
		FunderID:              fnd.ID,
		RateCardID:            card.ID,
		TimeBasis:             funder.BasisScheduled,
		DefaultCarersRequired: 1,
		StartDate:             time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateCarePackage: %v", err)
	}

	// Visit predates every rate card.
	seedVisit(t, ctx, eng, pkg.ID,
		time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 15, 10, 0, 0, 0, time.UTC), "")

	result, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Generated != 0 || len(result.Issues) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(result.Issues[0].Reason, "no rate card") {
		t.Fatalf("issue reason = %q", result.Issues[0].Reason)
	}

	// The record stays unbilled, so a re-run after fixing the data picks
	// it up.
	again, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if again.AlreadyBilled != 0 || len(again.Issues) != 1 {
		t.Fatalf("re-run should re-report the issue: %+v", again)
	}
}

func TestReconcileRejectsInvertedWindow(t *testing.T) {
	ctx, eng := newTestEngine(t)

	_, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	if err == nil {
		t.Fatal("expected error for inverted window")
	}
}
