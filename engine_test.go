package carebill_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/store/memory"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// Fixed clock for deterministic numbering and due dates.
var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (context.Context, *carebill.Engine) {
	t.Helper()

	eng := carebill.New(memory.New(), carebill.WithClock(func() time.Time { return testNow }))
	ctx := carebill.WithScope(context.Background(), carebill.Scope{
		TenantID:  "org_test",
		ActorID:   "usr_1",
		OrgPrefix: "ACME",
	})
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := eng.Stop(context.Background()); err != nil {
			t.Fatalf("Stop: %v", err)
		}
	})
	return ctx, eng
}

func seedFunder(t *testing.T, ctx context.Context, eng *carebill.Engine) *funder.Funder {
	t.Helper()

	f, err := eng.CreateFunder(ctx, &funder.Funder{
		Name:             "Westshire County Council",
		Type:             funder.TypeLocalAuthority,
		PaymentTermsDays: 30,
		InvoiceFrequency: funder.FrequencyMonthly,
		DefaultTimeBasis: funder.BasisScheduled,
	})
	if err != nil {
		t.Fatalf("CreateFunder: %v", err)
	}
	return f
}

func tod(t *testing.T, s string) ratecard.TimeOfDay {
	t.Helper()
	v, err := ratecard.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
	}
	return v
}

func seedRateCard(t *testing.T, ctx context.Context, eng *carebill.Engine, funderID id.FunderID) *ratecard.RateCard {
	t.Helper()

	card, err := eng.CreateRateCard(ctx, &ratecard.RateCard{
		FunderID:      funderID,
		Name:          "Westshire 2026",
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Lines: []ratecard.RateCardLine{
			{DayType: ratecard.DayWeekday, CarersRequired: 1, RatePerHour: types.GBP(2200)},
			{DayType: ratecard.DayWeekday, CarersRequired: 2, RatePerHour: types.GBP(4000)},
			{DayType: ratecard.DaySaturday, CarersRequired: 1, RatePerHour: types.GBP(2500)},
			{DayType: ratecard.DaySunday, CarersRequired: 1, RatePerHour: types.GBP(2600)},
			{DayType: ratecard.DayBankHoliday, CarersRequired: 1, RatePerHour: types.GBP(3000)},
		},
		MileageRates: []ratecard.MileageRate{
			{RatePerMile: types.Pence(45)},
		},
	})
	if err != nil {
		t.Fatalf("CreateRateCard: %v", err)
	}
	return card
}

func seedPackage(t *testing.T, ctx context.Context, eng *carebill.Engine, funderID id.FunderID, cardID id.RateCardID) *carepkg.CarePackage {
	t.Helper()

	pkg, err := eng.CreateCarePackage(ctx, &carepkg.CarePackage{
		ServiceRecipientID:       "sr_100",
		FunderID:                 funderID,
		RateCardID:               cardID,
		TimeBasis:                funder.BasisScheduled,
		RoundingIncrementMinutes: 15,
		MinimumBillableMinutes:   30,
		DefaultCarersRequired:    1,
		MileageBillable:          true,
		StartDate:                time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("CreateCarePackage: %v", err)
	}
	return pkg
}

func seedVisit(t *testing.T, ctx context.Context, eng *carebill.Engine, pkgID id.CarePackageID, start, end time.Time, miles string) *visit.CareVisitRecord {
	t.Helper()

	rec := &visit.CareVisitRecord{
		CarePackageID:  pkgID,
		StaffID:        "staff_7",
		ScheduledStart: start,
		ScheduledEnd:   end,
	}
	if miles != "" {
		m, err := decimal.NewFromString(miles)
		if err != nil {
			t.Fatalf("parse miles: %v", err)
		}
		rec.MileageMiles = &m
	}
	rec, err := eng.RecordVisit(ctx, rec)
	if err != nil {
		t.Fatalf("RecordVisit: %v", err)
	}
	return rec
}

// seedBilledWeek seeds a funder, card, package and three visits in August
// 2026 (a weekday, a short Saturday call, and the summer bank holiday) and
// reconciles them.
func seedBilledWeek(t *testing.T, ctx context.Context, eng *carebill.Engine) (*funder.Funder, *carepkg.CarePackage, *carebill.ReconcileResult) {
	t.Helper()

	fnd := seedFunder(t, ctx, eng)
	card := seedRateCard(t, ctx, eng, fnd.ID)
	pkg := seedPackage(t, ctx, eng, fnd.ID, card.ID)

	if err := eng.UpsertBankHoliday(ctx, &ratecard.BankHoliday{
		Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		Name: "Summer bank holiday",
	}); err != nil {
		t.Fatalf("UpsertBankHoliday: %v", err)
	}

	seedVisit(t, ctx, eng, pkg.ID,
		time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 3, 9, 45, 0, 0, time.UTC), "3.2")
	seedVisit(t, ctx, eng, pkg.ID,
		time.Date(2026, 8, 8, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 8, 10, 20, 0, 0, time.UTC), "")
	seedVisit(t, ctx, eng, pkg.ID,
		time.Date(2026, 8, 31, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 31, 19, 0, 0, 0, time.UTC), "")

	result, err := eng.Reconcile(ctx, carebill.ReconcileParams{
		From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	return fnd, pkg, result
}

func approveAll(t *testing.T, ctx context.Context, eng *carebill.Engine) []*visit.BillableVisit {
	t.Helper()

	billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusPending})
	if err != nil {
		t.Fatalf("ListBillableVisits: %v", err)
	}
	ids := make([]id.BillableID, 0, len(billables))
	for _, b := range billables {
		ids = append(ids, b.ID)
	}
	if _, err := eng.ApproveVisits(ctx, ids); err != nil {
		t.Fatalf("ApproveVisits: %v", err)
	}
	return billables
}

func TestEngineRequiresScope(t *testing.T) {
	eng := carebill.New(memory.New())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer eng.Stop(context.Background())

	_, err := eng.ListFunders(context.Background(), funder.ListOpts{})
	if !errors.Is(err, carebill.ErrNoScope) {
		t.Fatalf("expected ErrNoScope, got %v", err)
	}
}

func TestTenantIsolation(t *testing.T) {
	ctx, eng := newTestEngine(t)
	fnd := seedFunder(t, ctx, eng)

	otherCtx := carebill.WithScope(context.Background(), carebill.Scope{TenantID: "org_other"})
	funders, err := eng.ListFunders(otherCtx, funder.ListOpts{})
	if err != nil {
		t.Fatalf("ListFunders: %v", err)
	}
	if len(funders) != 0 {
		t.Fatalf("expected no funders for other tenant, got %d", len(funders))
	}

	mine, err := eng.ListFunders(ctx, funder.ListOpts{})
	if err != nil {
		t.Fatalf("ListFunders: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != fnd.ID {
		t.Fatalf("expected own funder back, got %v", mine)
	}
}
