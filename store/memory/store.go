// Package memory is the in-memory store driver, used in tests and demos.
// Everything lives behind one RWMutex, which also makes the composite
// writes (invoice generation, voiding, sequence draws) genuinely atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

type Store struct {
	mu sync.RWMutex

	funders      map[string]*funder.Funder
	rateCards    map[string]*ratecard.RateCard
	bankHolidays map[string]*ratecard.BankHoliday // keyed region|yyyy-mm-dd

	packages  map[string]*carepkg.CarePackage
	schedules map[string]*carepkg.VisitSchedule

	visits          map[string]*visit.CareVisitRecord
	billables       map[string]*visit.BillableVisit
	billableByVisit map[string]string // visit record ID -> billable ID

	invoices    map[string]*invoice.Invoice
	creditNotes map[string]*creditnote.CreditNote

	sequences map[string]int64 // keyed tenant|kind|yyyymm

	audits []*audit.Entry

	closed bool
}

func New() *Store {
	return &Store{
		funders:         make(map[string]*funder.Funder),
		rateCards:       make(map[string]*ratecard.RateCard),
		bankHolidays:    make(map[string]*ratecard.BankHoliday),
		packages:        make(map[string]*carepkg.CarePackage),
		schedules:       make(map[string]*carepkg.VisitSchedule),
		visits:          make(map[string]*visit.CareVisitRecord),
		billables:       make(map[string]*visit.BillableVisit),
		billableByVisit: make(map[string]string),
		invoices:        make(map[string]*invoice.Invoice),
		creditNotes:     make(map[string]*creditnote.CreditNote),
		sequences:       make(map[string]int64),
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Funder store implementation

func (s *Store) CreateFunder(_ context.Context, f *funder.Funder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.funders[f.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.funders[f.ID.String()] = f
	return nil
}

func (s *Store) GetFunder(_ context.Context, funderID id.FunderID) (*funder.Funder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.funders[funderID.String()]; ok {
		return f, nil
	}
	return nil, carebill.ErrFunderNotFound
}

func (s *Store) ListFunders(_ context.Context, tenantID string, opts funder.ListOpts) ([]*funder.Funder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*funder.Funder, 0)
	for _, f := range s.funders {
		if f.OrganisationID != tenantID {
			continue
		}
		if opts.Type != "" && f.Type != opts.Type {
			continue
		}
		if opts.ActiveOnly && !f.Active {
			continue
		}
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateFunder(_ context.Context, f *funder.Funder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.funders[f.ID.String()]; !exists {
		return carebill.ErrFunderNotFound
	}
	s.funders[f.ID.String()] = f
	return nil
}

func (s *Store) DeactivateFunder(_ context.Context, funderID id.FunderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, exists := s.funders[funderID.String()]
	if !exists {
		return carebill.ErrFunderNotFound
	}
	f.Active = false
	f.Touch()
	return nil
}

// Rate card store implementation

func (s *Store) CreateRateCard(_ context.Context, card *ratecard.RateCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rateCards[card.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.rateCards[card.ID.String()] = card
	return nil
}

func (s *Store) GetRateCard(_ context.Context, cardID id.RateCardID) (*ratecard.RateCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.rateCards[cardID.String()]; ok {
		return c, nil
	}
	return nil, carebill.ErrRateCardNotFound
}

func (s *Store) ListRateCards(_ context.Context, tenantID string, opts ratecard.ListOpts) ([]*ratecard.RateCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ratecard.RateCard, 0)
	for _, c := range s.rateCards {
		if c.OrganisationID != tenantID {
			continue
		}
		if !opts.FunderID.IsNil() && c.FunderID != opts.FunderID {
			continue
		}
		if !opts.On.IsZero() && !c.EffectiveOn(opts.On) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EffectiveFrom.After(result[j].EffectiveFrom) })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) ActiveRateCard(_ context.Context, tenantID string, funderID id.FunderID, on time.Time) (*ratecard.RateCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Funder-specific card wins over an any-funder card; among candidates
	// the most recently effective wins.
	var best *ratecard.RateCard
	for _, c := range s.rateCards {
		if c.OrganisationID != tenantID || !c.EffectiveOn(on) {
			continue
		}
		if !c.FunderID.IsNil() && c.FunderID != funderID {
			continue
		}
		if best == nil {
			best = c
			continue
		}
		bestSpecific := !best.FunderID.IsNil()
		thisSpecific := !c.FunderID.IsNil()
		if thisSpecific && !bestSpecific {
			best = c
		} else if thisSpecific == bestSpecific && c.EffectiveFrom.After(best.EffectiveFrom) {
			best = c
		}
	}
	if best == nil {
		return nil, carebill.ErrNoEffectiveCard
	}
	return best, nil
}

// Bank holiday store implementation

func holidayKey(region string, date time.Time) string {
	return region + "|" + date.Format("2006-01-02")
}

func (s *Store) UpsertBankHoliday(_ context.Context, h *ratecard.BankHoliday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bankHolidays[holidayKey(h.Region, h.Date)] = h
	return nil
}

func (s *Store) ListBankHolidays(_ context.Context, region string, from, to time.Time) ([]ratecard.BankHoliday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ratecard.BankHoliday, 0)
	for _, h := range s.bankHolidays {
		if h.Region != region {
			continue
		}
		if h.Date.Before(from) || h.Date.After(to) {
			continue
		}
		result = append(result, *h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

// Care package store implementation

func (s *Store) CreateCarePackage(_ context.Context, p *carepkg.CarePackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.packages[p.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.packages[p.ID.String()] = p
	return nil
}

func (s *Store) GetCarePackage(_ context.Context, pkgID id.CarePackageID) (*carepkg.CarePackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.packages[pkgID.String()]; ok {
		return p, nil
	}
	return nil, carebill.ErrPackageNotFound
}

func (s *Store) ListCarePackages(_ context.Context, tenantID string, opts carepkg.ListOpts) ([]*carepkg.CarePackage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*carepkg.CarePackage, 0)
	for _, p := range s.packages {
		if p.OrganisationID != tenantID {
			continue
		}
		if !opts.FunderID.IsNil() && p.FunderID != opts.FunderID {
			continue
		}
		if opts.ServiceRecipientID != "" && p.ServiceRecipientID != opts.ServiceRecipientID {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		if !opts.ActiveOn.IsZero() && !p.ActiveOn(opts.ActiveOn) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCarePackage(_ context.Context, p *carepkg.CarePackage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.packages[p.ID.String()]; !exists {
		return carebill.ErrPackageNotFound
	}
	s.packages[p.ID.String()] = p
	return nil
}

func (s *Store) EndCarePackage(_ context.Context, pkgID id.CarePackageID, endDate time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.packages[pkgID.String()]
	if !exists {
		return carebill.ErrPackageNotFound
	}
	p.EndDate = &endDate
	p.Status = carepkg.StatusEnded
	p.Touch()
	return nil
}

func (s *Store) CreateVisitSchedule(_ context.Context, sched *carepkg.VisitSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[sched.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.schedules[sched.ID.String()] = sched
	return nil
}

func (s *Store) ListVisitSchedules(_ context.Context, pkgID id.CarePackageID) ([]carepkg.VisitSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]carepkg.VisitSchedule, 0)
	for _, sched := range s.schedules {
		if sched.CarePackageID == pkgID {
			result = append(result, *sched)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Weekday != result[j].Weekday {
			return result[i].Weekday < result[j].Weekday
		}
		return result[i].Start < result[j].Start
	})
	return result, nil
}

func (s *Store) DeleteVisitSchedule(_ context.Context, scheduleID id.ScheduleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.schedules[scheduleID.String()]; !exists {
		return carebill.ErrScheduleNotFound
	}
	delete(s.schedules, scheduleID.String())
	return nil
}

// Visit store implementation

func (s *Store) CreateVisitRecord(_ context.Context, v *visit.CareVisitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.visits[v.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.visits[v.ID.String()] = v
	return nil
}

func (s *Store) GetVisitRecord(_ context.Context, visitID id.VisitRecordID) (*visit.CareVisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.visits[visitID.String()]; ok {
		return v, nil
	}
	return nil, carebill.ErrVisitNotFound
}

func (s *Store) ListUnbilledVisits(_ context.Context, tenantID string, opts visit.UnbilledOpts) ([]*visit.CareVisitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*visit.CareVisitRecord, 0)
	for _, v := range s.visits {
		if v.OrganisationID != tenantID {
			continue
		}
		if v.CarePackageID.IsNil() {
			continue
		}
		if !opts.CarePackageID.IsNil() && v.CarePackageID != opts.CarePackageID {
			continue
		}
		if !opts.FunderID.IsNil() || opts.ServiceRecipientID != "" {
			pkg, ok := s.packages[v.CarePackageID.String()]
			if !ok {
				continue
			}
			if !opts.FunderID.IsNil() && pkg.FunderID != opts.FunderID {
				continue
			}
			if opts.ServiceRecipientID != "" && pkg.ServiceRecipientID != opts.ServiceRecipientID {
				continue
			}
		}
		if v.ScheduledStart.Before(opts.From) || !v.ScheduledStart.Before(opts.To) {
			continue
		}
		if _, billed := s.billableByVisit[v.ID.String()]; billed {
			continue
		}
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ScheduledStart.Before(result[j].ScheduledStart) })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) CreateBillableVisit(_ context.Context, b *visit.BillableVisit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.billableByVisit[b.VisitRecordID.String()]; exists {
		return carebill.ErrVisitAlreadyBilled
	}
	s.billables[b.ID.String()] = b
	s.billableByVisit[b.VisitRecordID.String()] = b.ID.String()
	return nil
}

func (s *Store) GetBillableVisit(_ context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.billables[billableID.String()]; ok {
		return b, nil
	}
	return nil, carebill.ErrBillableVisitNotFound
}

func (s *Store) ListBillableVisits(_ context.Context, tenantID string, opts visit.ListOpts) ([]*visit.BillableVisit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.listBillablesLocked(tenantID, opts)
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) listBillablesLocked(tenantID string, opts visit.ListOpts) []*visit.BillableVisit {
	result := make([]*visit.BillableVisit, 0)
	for _, b := range s.billables {
		if b.OrganisationID != tenantID {
			continue
		}
		if opts.Status != "" && b.Status != opts.Status {
			continue
		}
		if !opts.FunderID.IsNil() && b.FunderID != opts.FunderID {
			continue
		}
		if !opts.CarePackageID.IsNil() && b.CarePackageID != opts.CarePackageID {
			continue
		}
		if !opts.From.IsZero() && b.VisitDate.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && !b.VisitDate.Before(opts.To) {
			continue
		}
		if opts.Uninvoiced && (b.Status != visit.StatusApproved || !b.InvoiceLineID.IsNil()) {
			continue
		}
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].BillingStart.Before(result[j].BillingStart) })
	return result
}

func (s *Store) UpdateBillableVisit(_ context.Context, b *visit.BillableVisit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.billables[b.ID.String()]; !exists {
		return carebill.ErrBillableVisitNotFound
	}
	s.billables[b.ID.String()] = b
	return nil
}

// Invoice store implementation

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice, links []store.VisitLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	// Validate every link before touching anything, so a bad link leaves
	// both the invoice and the visits exactly as they were.
	for _, l := range links {
		b, ok := s.billables[l.BillableID.String()]
		if !ok {
			return carebill.ErrBillableVisitNotFound
		}
		if b.Status != visit.StatusApproved {
			return carebill.ErrInvalidStateTransition
		}
	}

	s.invoices[inv.ID.String()] = inv
	for _, l := range links {
		b := s.billables[l.BillableID.String()]
		b.Status = visit.StatusInvoiced
		b.InvoiceLineID = l.LineID
		b.Touch()
	}
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID.String()]; ok {
		return inv, nil
	}
	return nil, carebill.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.OrganisationID != tenantID {
			continue
		}
		if !opts.FunderID.IsNil() && inv.FunderID != opts.FunderID {
			continue
		}
		if opts.Status != "" && inv.Status != opts.Status {
			continue
		}
		if opts.OutstandingOnly && inv.Status != invoice.StatusSent && inv.Status != invoice.StatusPartiallyPaid {
			continue
		}
		if !opts.From.IsZero() && inv.PeriodEnd.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && inv.PeriodStart.After(opts.To) {
			continue
		}
		result = append(result, inv)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; !exists {
		return carebill.ErrInvoiceNotFound
	}
	s.invoices[inv.ID.String()] = inv
	return nil
}

func (s *Store) VoidInvoice(_ context.Context, invID id.InvoiceID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, exists := s.invoices[invID.String()]
	if !exists {
		return carebill.ErrInvoiceNotFound
	}
	if !inv.Status.CanTransitionTo(invoice.StatusVoid) {
		return carebill.ErrInvalidStateTransition
	}

	lineIDs := make(map[string]struct{}, len(inv.Lines))
	for _, l := range inv.Lines {
		lineIDs[l.ID.String()] = struct{}{}
	}
	for _, b := range s.billables {
		if _, ok := lineIDs[b.InvoiceLineID.String()]; !ok {
			continue
		}
		b.Status = visit.StatusApproved
		b.InvoiceLineID = id.ID{}
		b.Touch()
	}

	inv.Status = invoice.StatusVoid
	inv.VoidedAt = &at
	inv.VoidReason = reason
	inv.Touch()
	return nil
}

// Credit note store implementation

func (s *Store) CreateCreditNote(_ context.Context, n *creditnote.CreditNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creditNotes[n.ID.String()]; exists {
		return carebill.ErrAlreadyExists
	}
	s.creditNotes[n.ID.String()] = n
	return nil
}

func (s *Store) GetCreditNote(_ context.Context, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n, ok := s.creditNotes[noteID.String()]; ok {
		return n, nil
	}
	return nil, carebill.ErrCreditNoteNotFound
}

func (s *Store) ListCreditNotes(_ context.Context, tenantID string, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*creditnote.CreditNote, 0)
	for _, n := range s.creditNotes {
		if n.OrganisationID != tenantID {
			continue
		}
		if !opts.InvoiceID.IsNil() && n.InvoiceID != opts.InvoiceID {
			continue
		}
		if opts.Status != "" && n.Status != opts.Status {
			continue
		}
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return paginate(result, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateCreditNote(_ context.Context, n *creditnote.CreditNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creditNotes[n.ID.String()]; !exists {
		return carebill.ErrCreditNoteNotFound
	}
	s.creditNotes[n.ID.String()] = n
	return nil
}

// Sequence store implementation

func (s *Store) NextSequence(_ context.Context, tenantID, kind, yearMonth string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tenantID + "|" + kind + "|" + yearMonth
	s.sequences[key]++
	return s.sequences[key], nil
}

// Audit store implementation

func (s *Store) AppendAudit(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, e)
	return nil
}

func (s *Store) ListAudit(_ context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*audit.Entry, 0)
	for _, e := range s.audits {
		if e.OrganisationID != tenantID {
			continue
		}
		if opts.EntityType != "" && e.EntityType != opts.EntityType {
			continue
		}
		if opts.EntityID != "" && e.EntityID != opts.EntityID {
			continue
		}
		if opts.ActorID != "" && e.ActorID != opts.ActorID {
			continue
		}
		if !opts.From.IsZero() && e.At.Before(opts.From) {
			continue
		}
		if !opts.To.IsZero() && e.At.After(opts.To) {
			continue
		}
		result = append(result, e)
	}
	return paginate(result, opts.Limit, opts.Offset), nil
}

// Report implementation

func (s *Store) RevenueByPeriod(_ context.Context, tenantID string, from, to time.Time) ([]invoice.PeriodRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPeriod := make(map[string]*invoice.PeriodRevenue)
	for _, inv := range s.invoices {
		if !s.inRevenueWindow(inv, tenantID, from, to) {
			continue
		}
		key := inv.PeriodStart.Format("2006-01")
		row, ok := byPeriod[key]
		if !ok {
			row = &invoice.PeriodRevenue{
				Period:   key,
				Invoiced: types.Zero(inv.Total.Currency),
				Paid:     types.Zero(inv.Total.Currency),
			}
			byPeriod[key] = row
		}
		row.Invoiced = row.Invoiced.Add(inv.Total)
		row.Paid = row.Paid.Add(inv.PaidAmount)
		row.Count++
	}

	result := make([]invoice.PeriodRevenue, 0, len(byPeriod))
	for _, row := range byPeriod {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Period < result[j].Period })
	return result, nil
}

func (s *Store) RevenueByFunder(_ context.Context, tenantID string, from, to time.Time) ([]invoice.FunderRevenue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byFunder := make(map[string]*invoice.FunderRevenue)
	for _, inv := range s.invoices {
		if !s.inRevenueWindow(inv, tenantID, from, to) {
			continue
		}
		key := inv.FunderID.String()
		row, ok := byFunder[key]
		if !ok {
			row = &invoice.FunderRevenue{
				FunderID: inv.FunderID,
				Invoiced: types.Zero(inv.Total.Currency),
				Paid:     types.Zero(inv.Total.Currency),
			}
			byFunder[key] = row
		}
		row.Invoiced = row.Invoiced.Add(inv.Total)
		row.Paid = row.Paid.Add(inv.PaidAmount)
		row.Count++
	}

	result := make([]invoice.FunderRevenue, 0, len(byFunder))
	for _, row := range byFunder {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.Compare(result[i].FunderID.String(), result[j].FunderID.String()) < 0
	})
	return result, nil
}

// inRevenueWindow applies the shared revenue filter: the tenant's non-void
// invoices whose period overlaps the window.
func (s *Store) inRevenueWindow(inv *invoice.Invoice, tenantID string, from, to time.Time) bool {
	if inv.OrganisationID != tenantID || inv.Status == invoice.StatusVoid {
		return false
	}
	if !from.IsZero() && inv.PeriodEnd.Before(from) {
		return false
	}
	if !to.IsZero() && inv.PeriodStart.After(to) {
		return false
	}
	return true
}

// Lifecycle

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return carebill.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
