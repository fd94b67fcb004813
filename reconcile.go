package carebill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// ReconcileParams selects the visit records a reconciliation run covers.
type ReconcileParams struct {
	From time.Time
	To   time.Time
	// CarePackageID restricts the run to one package. Nil = all packages.
	CarePackageID id.CarePackageID
	// FunderID restricts the run to packages funded by one funder. Nil = all.
	FunderID id.FunderID
	// ServiceRecipientID restricts the run to one recipient's packages.
	ServiceRecipientID string
	// Region selects the bank holiday calendar. Defaults to "england-and-wales".
	Region string
}

// ReconcileIssue is one visit record the run could not price. The record
// stays unbilled; fixing the underlying data and re-running picks it up.
type ReconcileIssue struct {
	VisitRecordID id.VisitRecordID `json:"visit_record_id"`
	CarePackageID id.CarePackageID `json:"care_package_id"`
	Reason        string           `json:"reason"`
}

// ReconcileResult summarises a reconciliation run.
type ReconcileResult struct {
	// Total counts the visit records the run examined.
	Total int `json:"total"`
	// Generated counts new billable visits created by this run.
	Generated int `json:"generated"`
	// AlreadyBilled counts visit records that gained a billable visit while
	// the run was in flight, usually a concurrent run over the same window.
	AlreadyBilled int `json:"already_billed"`
	// Issues lists visit records that could not be priced.
	Issues []ReconcileIssue `json:"issues,omitempty"`
}

// DefaultHolidayRegion is the bank holiday calendar used when the run does
// not name one.
const DefaultHolidayRegion = "england-and-wales"

// Reconcile matches delivered visits in the window against their packages
// and rate cards, producing one pending billable visit per visit record.
// The run is idempotent: billed records are not candidates, a record billed
// mid-run by a concurrent caller is counted and skipped, and records that
// cannot be priced become issues without stopping the run.
func (e *Engine) Reconcile(ctx context.Context, params ReconcileParams) (*ReconcileResult, error) {
	s, sc, err := e.scopedStore(ctx)
	if err != nil {
		return nil, err
	}
	if params.To.Before(params.From) {
		return nil, fmt.Errorf("%w: reconcile window ends before it starts", ErrInvalidInput)
	}
	region := params.Region
	if region == "" {
		region = DefaultHolidayRegion
	}

	records, err := s.ListUnbilledVisits(ctx, sc.TenantID, visit.UnbilledOpts{
		From:               params.From,
		To:                 params.To,
		CarePackageID:      params.CarePackageID,
		FunderID:           params.FunderID,
		ServiceRecipientID: params.ServiceRecipientID,
	})
	if err != nil {
		return nil, fmt.Errorf("carebill: list unbilled visits: %w", err)
	}

	holidayRows, err := s.ListBankHolidays(ctx, region, params.From.AddDate(0, 0, -1), params.To.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("carebill: list bank holidays: %w", err)
	}
	holidays := ratecard.NewHolidaySet(holidayRows)

	// Packages, funders, cards and schedules repeat heavily across a window,
	// so each is fetched once per run.
	pkgs := map[string]*carepkg.CarePackage{}
	funders := map[string]*funder.Funder{}
	schedules := map[string][]carepkg.VisitSchedule{}
	cards := map[string]*ratecard.RateCard{}

	result := &ReconcileResult{Total: len(records)}
	issue := func(rec *visit.CareVisitRecord, reason string) {
		result.Issues = append(result.Issues, ReconcileIssue{
			VisitRecordID: rec.ID,
			CarePackageID: rec.CarePackageID,
			Reason:        reason,
		})
		e.log.Warn("reconcile: visit not priced",
			"visit_record", rec.ID.String(),
			"care_package", rec.CarePackageID.String(),
			"reason", reason)
	}

	for _, rec := range records {
		pkg, ok := pkgs[rec.CarePackageID.String()]
		if !ok {
			pkg, err = s.GetCarePackage(ctx, rec.CarePackageID)
			if err != nil {
				if IsNotFound(err) {
					issue(rec, "care package not found")
					continue
				}
				return nil, fmt.Errorf("carebill: get care package: %w", err)
			}
			pkgs[rec.CarePackageID.String()] = pkg
		}
		if !pkg.ActiveOn(rec.ScheduledStart) {
			issue(rec, "care package not active on visit date")
			continue
		}

		fnd, ok := funders[pkg.FunderID.String()]
		if !ok {
			fnd, err = s.GetFunder(ctx, pkg.FunderID)
			if err != nil {
				if IsNotFound(err) {
					issue(rec, "funder not found")
					continue
				}
				return nil, fmt.Errorf("carebill: get funder: %w", err)
			}
			funders[pkg.FunderID.String()] = fnd
		}
		if !fnd.Active {
			issue(rec, "funder is deactivated")
			continue
		}

		b, reason := e.priceVisit(ctx, s, sc.TenantID, rec, pkg, fnd, holidays, schedules, cards)
		if reason != "" {
			issue(rec, reason)
			continue
		}

		if err := s.CreateBillableVisit(ctx, b); err != nil {
			if errors.Is(err, ErrVisitAlreadyBilled) {
				result.AlreadyBilled++
				continue
			}
			return nil, fmt.Errorf("carebill: create billable visit: %w", err)
		}
		result.Generated++
		e.plugins.EmitVisitReconciled(ctx, b)
	}

	e.plugins.EmitReconcileCompleted(ctx, result.Generated, result.AlreadyBilled, len(result.Issues))
	e.log.Info("reconcile completed",
		"total", result.Total,
		"generated", result.Generated,
		"already_billed", result.AlreadyBilled,
		"issues", len(result.Issues))
	return result, nil
}

// priceVisit builds the billable visit for one record. A non-empty reason
// means the record cannot be priced and becomes an issue; an error from the
// store is returned as a reason too, since a missing card and a card the
// store could not read both leave the record unbilled.
func (e *Engine) priceVisit(
	ctx context.Context,
	s storeLike,
	tenantID string,
	rec *visit.CareVisitRecord,
	pkg *carepkg.CarePackage,
	fnd *funder.Funder,
	holidays ratecard.HolidaySet,
	schedules map[string][]carepkg.VisitSchedule,
	cards map[string]*ratecard.RateCard,
) (*visit.BillableVisit, string) {
	// Billing clock: the package's basis, or the funder's default when the
	// package does not set one.
	basis := pkg.TimeBasis
	if basis == "" {
		basis = fnd.DefaultTimeBasis
	}
	start, end := rec.ScheduledStart, rec.ScheduledEnd
	if basis == funder.BasisActual {
		if !rec.HasActualTimes() {
			return nil, "actual time basis but actual times missing"
		}
		start, end = *rec.ActualStart, *rec.ActualEnd
	}

	visitDate := start
	dayType := ratecard.DayTypeFor(visitDate, holidays)
	at := ratecard.TimeOfDayFrom(start)

	cardKey := pkg.FunderID.String() + "|" + visitDate.Format("2006-01-02")
	card, ok := cards[cardKey]
	if !ok {
		var err error
		card, err = s.ActiveRateCard(ctx, tenantID, pkg.FunderID, visitDate)
		if err != nil {
			if IsNotFound(err) {
				return nil, "no rate card effective on visit date"
			}
			return nil, fmt.Sprintf("rate card lookup failed: %v", err)
		}
		cards[cardKey] = card
	}

	slots, ok := schedules[pkg.ID.String()]
	if !ok {
		var err error
		slots, err = s.ListVisitSchedules(ctx, pkg.ID)
		if err != nil {
			return nil, fmt.Sprintf("schedule lookup failed: %v", err)
		}
		schedules[pkg.ID.String()] = slots
	}
	carers := carepkg.ResolveCarers(slots, visitDate.Weekday(), ratecard.TimeOfDayFrom(rec.ScheduledStart), pkg.DefaultCarersRequired)

	minutes := visit.BillableMinutes(start, end, pkg.MinimumBillableMinutes, pkg.RoundingIncrementMinutes)

	line, ok := ratecard.Resolve(card.Lines, dayType, at, carers)
	if !ok {
		return nil, fmt.Sprintf("no rate for %s at %s with %d carer(s)", dayType, at, carers)
	}

	b := &visit.BillableVisit{
		Entity:             types.NewEntity(),
		ID:                 id.NewBillableID(),
		OrganisationID:     rec.OrganisationID,
		VisitRecordID:      rec.ID,
		CarePackageID:      pkg.ID,
		FunderID:           pkg.FunderID,
		ServiceRecipientID: pkg.ServiceRecipientID,
		VisitDate:          visitDate,
		DayType:            dayType,
		BillingStart:       start,
		BillingEnd:         end,
		DurationMinutes:    minutes,
		CarersRequired:     carers,
		RatePerHour:        line.RatePerHour,
		LineTotal:          types.RateTotal(line.RatePerHour, minutes, carers),
		Status:             visit.StatusPending,
	}

	if pkg.MileageBillable && rec.MileageMiles != nil && rec.MileageMiles.IsPositive() {
		if rate, ok := card.MileageRateFor(); ok {
			miles := *rec.MileageMiles
			total := rate.MulDecimal(miles)
			b.MileageMiles = &miles
			b.MileageRate = &rate
			b.MileageTotal = &total
		}
	}
	return b, ""
}

// storeLike is the slice of the store priceVisit needs. Narrowing the
// parameter keeps the pricing path testable against small fakes.
type storeLike interface {
	ActiveRateCard(ctx context.Context, tenantID string, funderID id.FunderID, on time.Time) (*ratecard.RateCard, error)
	ListVisitSchedules(ctx context.Context, pkgID id.CarePackageID) ([]carepkg.VisitSchedule, error)
}
