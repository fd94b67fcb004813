package carebill_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/store/memory"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		eng := carebill.New(store,
			carebill.WithLogger(slog.Default()),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop(ctx)

		// Every operation needs a tenant scope on the context
		ctx = carebill.WithScope(ctx, carebill.Scope{
			TenantID:  "org_abc",
			ActorID:   "usr_42",
			OrgPrefix: "ACME",
		})

		// Create a funder
		fnd, err := eng.CreateFunder(ctx, &funder.Funder{
			Name:             "Westshire County Council",
			Type:             funder.TypeLocalAuthority,
			PaymentTermsDays: 30,
			InvoiceFrequency: funder.FrequencyMonthly,
			DefaultTimeBasis: funder.BasisScheduled,
		})
		if err != nil {
			t.Fatal(err)
		}

		// Create a rate card with weekday and weekend rates
		card, err := eng.CreateRateCard(ctx, &ratecard.RateCard{
			FunderID:      fnd.ID,
			Name:          "Westshire 2026",
			EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Lines: []ratecard.RateCardLine{
				{DayType: ratecard.DayWeekday, CarersRequired: 1, RatePerHour: types.GBP(2200)}, // £22.00/hr
				{DayType: ratecard.DaySaturday, CarersRequired: 1, RatePerHour: types.GBP(2500)},
				{DayType: ratecard.DaySunday, CarersRequired: 1, RatePerHour: types.GBP(2600)},
			},
		})
		if err != nil {
			t.Fatal(err)
		}

		// Commission a care package for a service recipient
		pkg, err := eng.CreateCarePackage(ctx, &carepkg.CarePackage{
			ServiceRecipientID:       "sr_100",
			FunderID:                 fnd.ID,
			RateCardID:               card.ID,
			TimeBasis:                funder.BasisScheduled,
			RoundingIncrementMinutes: 15,
			DefaultCarersRequired:    1,
			StartDate:                time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}

		// Record a delivered visit
		if _, err := eng.RecordVisit(ctx, &visit.CareVisitRecord{
			CarePackageID:  pkg.ID,
			ScheduledStart: time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC),
			ScheduledEnd:   time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatal(err)
		}

		// Reconcile the period into priced billable visits
		result, err := eng.Reconcile(ctx, carebill.ReconcileParams{
			From: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Reconciled %d visits (%d issues)\n", result.Generated, len(result.Issues))

		// Approve and invoice
		billables, err := eng.ListBillableVisits(ctx, visit.ListOpts{Status: visit.StatusPending})
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range billables {
			if _, err := eng.ApproveVisit(ctx, b.ID); err != nil {
				t.Fatal(err)
			}
		}

		inv, err := eng.GenerateInvoice(ctx, fnd.ID,
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}

		log.Printf("Invoice %s generated: %s\n", inv.Number, inv.Total.String())
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.GBP(2200)   // £22.00
		_ = types.Pence(45)   // £0.45
		_ = types.Zero("gbp") // £0.00

		// Arithmetic
		m1 := types.GBP(100)
		m2 := types.GBP(200)
		_ = m1.Add(m2)     // £3.00
		_ = m1.Multiply(3) // £3.00

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "£1.00"
		_ = m1.FormatMajor() // "1.00"

		// Parsing from user input
		if _, err := types.ParseGBP("22.00"); err != nil {
			t.Fatal(err)
		}
	})
}
