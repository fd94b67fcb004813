// Package scoped wraps a store.Store with a tenant scope. Every multi-row
// read is pinned to the scope's organisation, every insert is stamped with
// it, and every write is followed by an audit trail entry recorded on
// behalf of the scope's actor.
//
// Single-row lookups by TypeID pass through: a TypeID is unguessable, so
// the row-level check is a development aid, not the security boundary.
// WithDevChecks turns on post-read verification that logs a warning when a
// fetched row belongs to another organisation.
package scoped

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/store"
	"github.com/xraph/carebill/visit"
)

// Scope identifies who is acting and for which organisation. OrgPrefix
// feeds document numbering; IP and UserAgent ride along into the audit
// trail.
type Scope struct {
	TenantID  string
	ActorID   string
	OrgPrefix string
	IP        string
	UserAgent string
}

// AuditFailureHandler is called when an audit append fails after its
// primary write committed. The primary write is never rolled back.
type AuditFailureHandler func(ctx context.Context, e *audit.Entry, err error)

// Option configures a scoped store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithDevChecks enables post-read tenant verification on single-row
// lookups. Mismatches are logged, never blocked.
func WithDevChecks() Option {
	return func(s *Store) { s.devChecks = true }
}

// WithAuditFailureHandler registers a callback for failed audit appends.
func WithAuditFailureHandler(fn AuditFailureHandler) Option {
	return func(s *Store) { s.onAuditFailed = fn }
}

// WithClock overrides the audit timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is a tenant-scoped view over an inner store.
type Store struct {
	inner         store.Store
	scope         Scope
	log           *slog.Logger
	devChecks     bool
	onAuditFailed AuditFailureHandler
	now           func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps inner with the given scope.
func New(inner store.Store, scope Scope, opts ...Option) *Store {
	s := &Store{
		inner: inner,
		scope: scope,
		log:   slog.Default(),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scope returns the scope this store is bound to.
func (s *Store) Scope() Scope { return s.scope }

// record appends an audit entry for a committed write. Audit failure is
// logged and handed to the failure handler; it never fails the caller.
func (s *Store) record(ctx context.Context, entityType, entityID string, action audit.Action, before, after any) {
	changes, err := audit.Diff(before, after)
	if err != nil {
		s.log.Error("audit diff failed", "entity_type", entityType, "entity_id", entityID, "error", err)
	}
	e := &audit.Entry{
		ID:             id.NewAuditEntryID(),
		OrganisationID: s.scope.TenantID,
		ActorID:        s.scope.ActorID,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		Changes:        changes,
		IP:             s.scope.IP,
		UserAgent:      s.scope.UserAgent,
		At:             s.now(),
	}
	if err := s.inner.AppendAudit(ctx, e); err != nil {
		s.log.Error("audit append failed after committed write",
			"entity_type", entityType, "entity_id", entityID, "action", string(action), "error", err)
		if s.onAuditFailed != nil {
			s.onAuditFailed(ctx, e, err)
		}
	}
}

func (s *Store) devCheck(op, rowOrg string) {
	if !s.devChecks || rowOrg == "" || rowOrg == s.scope.TenantID {
		return
	}
	s.log.Warn("row from another organisation fetched through scoped store",
		"op", op, "row_org", rowOrg, "scope_org", s.scope.TenantID)
}

// ==================== Funders ====================

func (s *Store) CreateFunder(ctx context.Context, f *funder.Funder) error {
	f.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateFunder(ctx, f); err != nil {
		return err
	}
	s.record(ctx, audit.EntityFunder, f.ID.String(), audit.ActionCreate, nil, f)
	return nil
}

func (s *Store) GetFunder(ctx context.Context, funderID id.FunderID) (*funder.Funder, error) {
	f, err := s.inner.GetFunder(ctx, funderID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetFunder", f.OrganisationID)
	return f, nil
}

func (s *Store) ListFunders(ctx context.Context, _ string, opts funder.ListOpts) ([]*funder.Funder, error) {
	return s.inner.ListFunders(ctx, s.scope.TenantID, opts)
}

func (s *Store) UpdateFunder(ctx context.Context, f *funder.Funder) error {
	before, _ := s.inner.GetFunder(ctx, f.ID) //nolint:errcheck // best-effort snapshot
	f.OrganisationID = s.scope.TenantID
	if err := s.inner.UpdateFunder(ctx, f); err != nil {
		return err
	}
	s.record(ctx, audit.EntityFunder, f.ID.String(), audit.ActionUpdate, before, f)
	return nil
}

func (s *Store) DeactivateFunder(ctx context.Context, funderID id.FunderID) error {
	before, _ := s.inner.GetFunder(ctx, funderID) //nolint:errcheck // best-effort snapshot
	if err := s.inner.DeactivateFunder(ctx, funderID); err != nil {
		return err
	}
	after, _ := s.inner.GetFunder(ctx, funderID) //nolint:errcheck // best-effort snapshot
	s.record(ctx, audit.EntityFunder, funderID.String(), audit.ActionUpdate, before, after)
	return nil
}

// ==================== Rate cards ====================

func (s *Store) CreateRateCard(ctx context.Context, card *ratecard.RateCard) error {
	card.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateRateCard(ctx, card); err != nil {
		return err
	}
	s.record(ctx, audit.EntityRateCard, card.ID.String(), audit.ActionCreate, nil, card)
	return nil
}

func (s *Store) GetRateCard(ctx context.Context, cardID id.RateCardID) (*ratecard.RateCard, error) {
	c, err := s.inner.GetRateCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetRateCard", c.OrganisationID)
	return c, nil
}

func (s *Store) ListRateCards(ctx context.Context, _ string, opts ratecard.ListOpts) ([]*ratecard.RateCard, error) {
	return s.inner.ListRateCards(ctx, s.scope.TenantID, opts)
}

func (s *Store) ActiveRateCard(ctx context.Context, _ string, funderID id.FunderID, on time.Time) (*ratecard.RateCard, error) {
	return s.inner.ActiveRateCard(ctx, s.scope.TenantID, funderID, on)
}

// Bank holidays are shared reference data: no tenant pinning, no audit.

func (s *Store) UpsertBankHoliday(ctx context.Context, h *ratecard.BankHoliday) error {
	return s.inner.UpsertBankHoliday(ctx, h)
}

func (s *Store) ListBankHolidays(ctx context.Context, region string, from, to time.Time) ([]ratecard.BankHoliday, error) {
	return s.inner.ListBankHolidays(ctx, region, from, to)
}

// ==================== Care packages ====================

func (s *Store) CreateCarePackage(ctx context.Context, p *carepkg.CarePackage) error {
	p.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateCarePackage(ctx, p); err != nil {
		return err
	}
	s.record(ctx, audit.EntityCarePackage, p.ID.String(), audit.ActionCreate, nil, p)
	return nil
}

func (s *Store) GetCarePackage(ctx context.Context, pkgID id.CarePackageID) (*carepkg.CarePackage, error) {
	p, err := s.inner.GetCarePackage(ctx, pkgID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetCarePackage", p.OrganisationID)
	return p, nil
}

func (s *Store) ListCarePackages(ctx context.Context, _ string, opts carepkg.ListOpts) ([]*carepkg.CarePackage, error) {
	return s.inner.ListCarePackages(ctx, s.scope.TenantID, opts)
}

func (s *Store) UpdateCarePackage(ctx context.Context, p *carepkg.CarePackage) error {
	before, _ := s.inner.GetCarePackage(ctx, p.ID) //nolint:errcheck // best-effort snapshot
	p.OrganisationID = s.scope.TenantID
	if err := s.inner.UpdateCarePackage(ctx, p); err != nil {
		return err
	}
	s.record(ctx, audit.EntityCarePackage, p.ID.String(), audit.ActionUpdate, before, p)
	return nil
}

func (s *Store) EndCarePackage(ctx context.Context, pkgID id.CarePackageID, endDate time.Time) error {
	before, _ := s.inner.GetCarePackage(ctx, pkgID) //nolint:errcheck // best-effort snapshot
	if err := s.inner.EndCarePackage(ctx, pkgID, endDate); err != nil {
		return err
	}
	after, _ := s.inner.GetCarePackage(ctx, pkgID) //nolint:errcheck // best-effort snapshot
	s.record(ctx, audit.EntityCarePackage, pkgID.String(), audit.ActionUpdate, before, after)
	return nil
}

func (s *Store) CreateVisitSchedule(ctx context.Context, sched *carepkg.VisitSchedule) error {
	if err := s.inner.CreateVisitSchedule(ctx, sched); err != nil {
		return err
	}
	s.record(ctx, audit.EntityVisitSchedule, sched.ID.String(), audit.ActionCreate, nil, sched)
	return nil
}

func (s *Store) ListVisitSchedules(ctx context.Context, pkgID id.CarePackageID) ([]carepkg.VisitSchedule, error) {
	return s.inner.ListVisitSchedules(ctx, pkgID)
}

func (s *Store) DeleteVisitSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	if err := s.inner.DeleteVisitSchedule(ctx, scheduleID); err != nil {
		return err
	}
	s.record(ctx, audit.EntityVisitSchedule, scheduleID.String(), audit.ActionDelete, nil, nil)
	return nil
}

// ==================== Visits ====================

func (s *Store) CreateVisitRecord(ctx context.Context, v *visit.CareVisitRecord) error {
	v.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateVisitRecord(ctx, v); err != nil {
		return err
	}
	s.record(ctx, audit.EntityVisitRecord, v.ID.String(), audit.ActionCreate, nil, v)
	return nil
}

func (s *Store) GetVisitRecord(ctx context.Context, visitID id.VisitRecordID) (*visit.CareVisitRecord, error) {
	v, err := s.inner.GetVisitRecord(ctx, visitID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetVisitRecord", v.OrganisationID)
	return v, nil
}

func (s *Store) ListUnbilledVisits(ctx context.Context, _ string, opts visit.UnbilledOpts) ([]*visit.CareVisitRecord, error) {
	return s.inner.ListUnbilledVisits(ctx, s.scope.TenantID, opts)
}

func (s *Store) CreateBillableVisit(ctx context.Context, b *visit.BillableVisit) error {
	b.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateBillableVisit(ctx, b); err != nil {
		return err
	}
	s.record(ctx, audit.EntityBillableVisit, b.ID.String(), audit.ActionCreate, nil, b)
	return nil
}

func (s *Store) GetBillableVisit(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	b, err := s.inner.GetBillableVisit(ctx, billableID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetBillableVisit", b.OrganisationID)
	return b, nil
}

func (s *Store) ListBillableVisits(ctx context.Context, _ string, opts visit.ListOpts) ([]*visit.BillableVisit, error) {
	return s.inner.ListBillableVisits(ctx, s.scope.TenantID, opts)
}

func (s *Store) UpdateBillableVisit(ctx context.Context, b *visit.BillableVisit) error {
	before, _ := s.inner.GetBillableVisit(ctx, b.ID) //nolint:errcheck // best-effort snapshot
	b.OrganisationID = s.scope.TenantID
	if err := s.inner.UpdateBillableVisit(ctx, b); err != nil {
		return err
	}
	s.record(ctx, audit.EntityBillableVisit, b.ID.String(), audit.ActionUpdate, before, b)
	return nil
}

// ==================== Invoices ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice, links []store.VisitLink) error {
	inv.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateInvoice(ctx, inv, links); err != nil {
		return err
	}
	s.record(ctx, audit.EntityInvoice, inv.ID.String(), audit.ActionCreate, nil, inv)
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	inv, err := s.inner.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetInvoice", inv.OrganisationID)
	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, _ string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return s.inner.ListInvoices(ctx, s.scope.TenantID, opts)
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	before, _ := s.inner.GetInvoice(ctx, inv.ID) //nolint:errcheck // best-effort snapshot
	inv.OrganisationID = s.scope.TenantID
	if err := s.inner.UpdateInvoice(ctx, inv); err != nil {
		return err
	}
	s.record(ctx, audit.EntityInvoice, inv.ID.String(), audit.ActionUpdate, before, inv)
	return nil
}

func (s *Store) VoidInvoice(ctx context.Context, invID id.InvoiceID, reason string, at time.Time) error {
	before, _ := s.inner.GetInvoice(ctx, invID) //nolint:errcheck // best-effort snapshot
	if err := s.inner.VoidInvoice(ctx, invID, reason, at); err != nil {
		return err
	}
	after, _ := s.inner.GetInvoice(ctx, invID) //nolint:errcheck // best-effort snapshot
	s.record(ctx, audit.EntityInvoice, invID.String(), audit.ActionUpdate, before, after)
	return nil
}

// ==================== Credit notes ====================

func (s *Store) CreateCreditNote(ctx context.Context, n *creditnote.CreditNote) error {
	n.OrganisationID = s.scope.TenantID
	if err := s.inner.CreateCreditNote(ctx, n); err != nil {
		return err
	}
	s.record(ctx, audit.EntityCreditNote, n.ID.String(), audit.ActionCreate, nil, n)
	return nil
}

func (s *Store) GetCreditNote(ctx context.Context, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	n, err := s.inner.GetCreditNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	s.devCheck("GetCreditNote", n.OrganisationID)
	return n, nil
}

func (s *Store) ListCreditNotes(ctx context.Context, _ string, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	return s.inner.ListCreditNotes(ctx, s.scope.TenantID, opts)
}

func (s *Store) UpdateCreditNote(ctx context.Context, n *creditnote.CreditNote) error {
	before, _ := s.inner.GetCreditNote(ctx, n.ID) //nolint:errcheck // best-effort snapshot
	n.OrganisationID = s.scope.TenantID
	if err := s.inner.UpdateCreditNote(ctx, n); err != nil {
		return err
	}
	s.record(ctx, audit.EntityCreditNote, n.ID.String(), audit.ActionUpdate, before, n)
	return nil
}

// ==================== Sequences, audit, reports ====================

func (s *Store) NextSequence(ctx context.Context, _ string, kind, yearMonth string) (int64, error) {
	return s.inner.NextSequence(ctx, s.scope.TenantID, kind, yearMonth)
}

func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	e.OrganisationID = s.scope.TenantID
	return s.inner.AppendAudit(ctx, e)
}

func (s *Store) ListAudit(ctx context.Context, _ string, opts audit.ListOpts) ([]*audit.Entry, error) {
	return s.inner.ListAudit(ctx, s.scope.TenantID, opts)
}

func (s *Store) RevenueByPeriod(ctx context.Context, _ string, from, to time.Time) ([]invoice.PeriodRevenue, error) {
	return s.inner.RevenueByPeriod(ctx, s.scope.TenantID, from, to)
}

func (s *Store) RevenueByFunder(ctx context.Context, _ string, from, to time.Time) ([]invoice.FunderRevenue, error) {
	return s.inner.RevenueByFunder(ctx, s.scope.TenantID, from, to)
}

// ==================== Lifecycle ====================

func (s *Store) Migrate(ctx context.Context) error { return s.inner.Migrate(ctx) }
func (s *Store) Ping(ctx context.Context) error    { return s.inner.Ping(ctx) }
func (s *Store) Close() error                      { return s.inner.Close() }
