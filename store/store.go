// Package store defines the unified persistence interface implemented by
// the memory, postgres and sqlite drivers, and wrapped by the tenant-scoped
// store in store/scoped.
package store

import (
	"context"
	"time"

	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/visit"
)

// Sequence kinds. Each kind draws from its own per-tenant monthly counter.
const (
	SeqInvoice    = "invoice"
	SeqCreditNote = "credit_note"
)

// VisitLink ties one billable visit to the invoice line that bills it.
// CreateInvoice applies the links; the caller never flips visit state
// itself, so a failed create leaves the visits exactly as they were.
type VisitLink struct {
	BillableID id.BillableID
	LineID     id.InvoiceLineID
}

// Store is the full persistence surface. Drivers implement every method;
// the engine only ever sees a Store wrapped by scoped.New, which pins the
// tenant and appends the audit trail.
type Store interface {
	// Funders
	CreateFunder(ctx context.Context, f *funder.Funder) error
	GetFunder(ctx context.Context, funderID id.FunderID) (*funder.Funder, error)
	ListFunders(ctx context.Context, tenantID string, opts funder.ListOpts) ([]*funder.Funder, error)
	UpdateFunder(ctx context.Context, f *funder.Funder) error
	DeactivateFunder(ctx context.Context, funderID id.FunderID) error

	// Rate cards
	CreateRateCard(ctx context.Context, card *ratecard.RateCard) error
	GetRateCard(ctx context.Context, cardID id.RateCardID) (*ratecard.RateCard, error)
	ListRateCards(ctx context.Context, tenantID string, opts ratecard.ListOpts) ([]*ratecard.RateCard, error)
	// ActiveRateCard resolves the card effective on a date for a funder,
	// preferring a funder-specific card over an any-funder card.
	ActiveRateCard(ctx context.Context, tenantID string, funderID id.FunderID, on time.Time) (*ratecard.RateCard, error)

	// Bank holidays: shared reference data, not tenant-scoped.
	UpsertBankHoliday(ctx context.Context, h *ratecard.BankHoliday) error
	ListBankHolidays(ctx context.Context, region string, from, to time.Time) ([]ratecard.BankHoliday, error)

	// Care packages and schedules
	CreateCarePackage(ctx context.Context, p *carepkg.CarePackage) error
	GetCarePackage(ctx context.Context, pkgID id.CarePackageID) (*carepkg.CarePackage, error)
	ListCarePackages(ctx context.Context, tenantID string, opts carepkg.ListOpts) ([]*carepkg.CarePackage, error)
	UpdateCarePackage(ctx context.Context, p *carepkg.CarePackage) error
	EndCarePackage(ctx context.Context, pkgID id.CarePackageID, endDate time.Time) error
	CreateVisitSchedule(ctx context.Context, s *carepkg.VisitSchedule) error
	ListVisitSchedules(ctx context.Context, pkgID id.CarePackageID) ([]carepkg.VisitSchedule, error)
	DeleteVisitSchedule(ctx context.Context, scheduleID id.ScheduleID) error

	// Visit records
	CreateVisitRecord(ctx context.Context, v *visit.CareVisitRecord) error
	GetVisitRecord(ctx context.Context, visitID id.VisitRecordID) (*visit.CareVisitRecord, error)
	ListUnbilledVisits(ctx context.Context, tenantID string, opts visit.UnbilledOpts) ([]*visit.CareVisitRecord, error)

	// Billable visits. CreateBillableVisit returns ErrVisitAlreadyBilled
	// when a billable visit already exists for the source visit record.
	CreateBillableVisit(ctx context.Context, b *visit.BillableVisit) error
	GetBillableVisit(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error)
	ListBillableVisits(ctx context.Context, tenantID string, opts visit.ListOpts) ([]*visit.BillableVisit, error)
	UpdateBillableVisit(ctx context.Context, b *visit.BillableVisit) error

	// Invoices. CreateInvoice persists the invoice with its lines and moves
	// each linked billable visit to invoiced, carrying its line's ID, in one
	// atomic write: a crash mid-way must not leave an invoice counting
	// visits that are still approved, or vice versa. VoidInvoice
	// symmetrically restores those visits to approved in one atomic write.
	CreateInvoice(ctx context.Context, inv *invoice.Invoice, links []VisitLink) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error
	VoidInvoice(ctx context.Context, invID id.InvoiceID, reason string, at time.Time) error

	// Credit notes
	CreateCreditNote(ctx context.Context, n *creditnote.CreditNote) error
	GetCreditNote(ctx context.Context, noteID id.CreditNoteID) (*creditnote.CreditNote, error)
	ListCreditNotes(ctx context.Context, tenantID string, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error)
	UpdateCreditNote(ctx context.Context, n *creditnote.CreditNote) error

	// NextSequence atomically increments and returns the per-tenant counter
	// for a document kind and yyyymm bucket. Two concurrent callers never
	// see the same value.
	NextSequence(ctx context.Context, tenantID, kind, yearMonth string) (int64, error)

	// Audit trail: append-only.
	AppendAudit(ctx context.Context, e *audit.Entry) error
	ListAudit(ctx context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Entry, error)

	// Report rollups over non-void invoices.
	RevenueByPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]invoice.PeriodRevenue, error)
	RevenueByFunder(ctx context.Context, tenantID string, from, to time.Time) ([]invoice.FunderRevenue, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
