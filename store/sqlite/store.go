// Package sqlite implements the store on SQLite via the Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/carebill"
	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/ratecard"
	carebillstore "github.com/xraph/carebill/store"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// compile-time interface check
var _ carebillstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("carebill/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("carebill/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn inside one database transaction. Grove exposes no
// transaction builder, so the wrapper drives BEGIN/COMMIT as raw SQL on
// the driver connection.
func (s *Store) inTx(ctx context.Context, fn func() error) error {
	if _, err := s.sdb.NewRaw("BEGIN").Exec(ctx); err != nil {
		return fmt.Errorf("%w: begin: %v", carebill.ErrTransactionFailed, err)
	}
	if err := fn(); err != nil {
		_, _ = s.sdb.NewRaw("ROLLBACK").Exec(ctx) // the original error wins
		return err
	}
	if _, err := s.sdb.NewRaw("COMMIT").Exec(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", carebill.ErrTransactionFailed, err)
	}
	return nil
}

// ==================== Funder Store ====================

func (s *Store) CreateFunder(ctx context.Context, f *funder.Funder) error {
	m := toFunderModel(f)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetFunder(ctx context.Context, funderID id.FunderID) (*funder.Funder, error) {
	m := new(funderModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", funderID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrFunderNotFound
		}
		return nil, err
	}
	return fromFunderModel(m)
}

func (s *Store) ListFunders(ctx context.Context, tenantID string, opts funder.ListOpts) ([]*funder.Funder, error) {
	var models []funderModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if opts.Type != "" {
		q = q.Where("type = ?", string(opts.Type))
	}
	if opts.ActiveOnly {
		q = q.Where("active")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("name ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*funder.Funder, 0, len(models))
	for i := range models {
		f, err := fromFunderModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

func (s *Store) UpdateFunder(ctx context.Context, f *funder.Funder) error {
	m := toFunderModel(f)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrFunderNotFound)
}

func (s *Store) DeactivateFunder(ctx context.Context, funderID id.FunderID) error {
	res, err := s.sdb.NewUpdate((*funderModel)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", now()).
		Where("id = ?", funderID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrFunderNotFound)
}

// ==================== Rate card Store ====================

func (s *Store) CreateRateCard(ctx context.Context, card *ratecard.RateCard) error {
	m := toRateCardModel(card)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetRateCard(ctx context.Context, cardID id.RateCardID) (*ratecard.RateCard, error) {
	m := new(rateCardModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", cardID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrRateCardNotFound
		}
		return nil, err
	}
	return fromRateCardModel(m)
}

func (s *Store) ListRateCards(ctx context.Context, tenantID string, opts ratecard.ListOpts) ([]*ratecard.RateCard, error) {
	var models []rateCardModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if !opts.FunderID.IsNil() {
		q = q.Where("funder_id = ?", opts.FunderID.String())
	}
	if !opts.On.IsZero() {
		q = q.Where("effective_from <= ?", opts.On)
		q = q.Where("(effective_to IS NULL OR effective_to >= ?)", opts.On)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("effective_from DESC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*ratecard.RateCard, 0, len(models))
	for i := range models {
		c, err := fromRateCardModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, nil
}

func (s *Store) ActiveRateCard(ctx context.Context, tenantID string, funderID id.FunderID, on time.Time) (*ratecard.RateCard, error) {
	m := new(rateCardModel)
	err := s.sdb.NewSelect(m).
		Where("organisation_id = ?", tenantID).
		Where("effective_from <= ?", on).
		Where("(effective_to IS NULL OR effective_to >= ?)", on).
		Where("(funder_id IS NULL OR funder_id = ?)", funderID.String()).
		OrderExpr("(funder_id IS NOT NULL) DESC, effective_from DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrNoEffectiveCard
		}
		return nil, err
	}
	return fromRateCardModel(m)
}

// ==================== Bank holiday Store ====================

func (s *Store) UpsertBankHoliday(ctx context.Context, h *ratecard.BankHoliday) error {
	m := toBankHolidayModel(h)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(region, date) DO UPDATE SET name = EXCLUDED.name").
		Exec(ctx)
	return err
}

func (s *Store) ListBankHolidays(ctx context.Context, region string, from, to time.Time) ([]ratecard.BankHoliday, error) {
	var models []bankHolidayModel
	err := s.sdb.NewSelect(&models).
		Where("region = ?", region).
		Where("date >= ?", from).
		Where("date <= ?", to).
		OrderExpr("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ratecard.BankHoliday, 0, len(models))
	for i := range models {
		h, err := fromBankHolidayModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	return result, nil
}

// ==================== Care package Store ====================

func (s *Store) CreateCarePackage(ctx context.Context, p *carepkg.CarePackage) error {
	m := toCarePackageModel(p)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetCarePackage(ctx context.Context, pkgID id.CarePackageID) (*carepkg.CarePackage, error) {
	m := new(carePackageModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", pkgID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrPackageNotFound
		}
		return nil, err
	}
	return fromCarePackageModel(m)
}

func (s *Store) ListCarePackages(ctx context.Context, tenantID string, opts carepkg.ListOpts) ([]*carepkg.CarePackage, error) {
	var models []carePackageModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if !opts.FunderID.IsNil() {
		q = q.Where("funder_id = ?", opts.FunderID.String())
	}
	if opts.ServiceRecipientID != "" {
		q = q.Where("service_recipient_id = ?", opts.ServiceRecipientID)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if !opts.ActiveOn.IsZero() {
		q = q.Where("start_date <= ?", opts.ActiveOn)
		q = q.Where("(end_date IS NULL OR end_date >= ?)", opts.ActiveOn)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("start_date ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*carepkg.CarePackage, 0, len(models))
	for i := range models {
		p, err := fromCarePackageModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (s *Store) UpdateCarePackage(ctx context.Context, p *carepkg.CarePackage) error {
	m := toCarePackageModel(p)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrPackageNotFound)
}

func (s *Store) EndCarePackage(ctx context.Context, pkgID id.CarePackageID, endDate time.Time) error {
	res, err := s.sdb.NewUpdate((*carePackageModel)(nil)).
		Set("end_date = ?", endDate).
		Set("status = ?", string(carepkg.StatusEnded)).
		Set("updated_at = ?", now()).
		Where("id = ?", pkgID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrPackageNotFound)
}

func (s *Store) CreateVisitSchedule(ctx context.Context, sched *carepkg.VisitSchedule) error {
	m := toVisitScheduleModel(sched)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListVisitSchedules(ctx context.Context, pkgID id.CarePackageID) ([]carepkg.VisitSchedule, error) {
	var models []visitScheduleModel
	err := s.sdb.NewSelect(&models).
		Where("care_package_id = ?", pkgID.String()).
		OrderExpr("weekday ASC, start_minutes ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]carepkg.VisitSchedule, 0, len(models))
	for i := range models {
		sched, err := fromVisitScheduleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, sched)
	}
	return result, nil
}

func (s *Store) DeleteVisitSchedule(ctx context.Context, scheduleID id.ScheduleID) error {
	res, err := s.sdb.NewDelete((*visitScheduleModel)(nil)).
		Where("id = ?", scheduleID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrScheduleNotFound)
}

// ==================== Visit Store ====================

func (s *Store) CreateVisitRecord(ctx context.Context, v *visit.CareVisitRecord) error {
	m := toVisitRecordModel(v)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetVisitRecord(ctx context.Context, visitID id.VisitRecordID) (*visit.CareVisitRecord, error) {
	m := new(visitRecordModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", visitID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrVisitNotFound
		}
		return nil, err
	}
	return fromVisitRecordModel(m)
}

func (s *Store) ListUnbilledVisits(ctx context.Context, tenantID string, opts visit.UnbilledOpts) ([]*visit.CareVisitRecord, error) {
	var models []visitRecordModel
	q := s.sdb.NewSelect(&models).
		Where("organisation_id = ?", tenantID).
		Where("scheduled_start >= ?", opts.From).
		Where("scheduled_start < ?", opts.To).
		Where("id NOT IN (SELECT visit_record_id FROM carebill_billable_visits)")
	if !opts.CarePackageID.IsNil() {
		q = q.Where("care_package_id = ?", opts.CarePackageID.String())
	}
	if !opts.FunderID.IsNil() {
		q = q.Where("care_package_id IN (SELECT id FROM carebill_care_packages WHERE funder_id = ?)", opts.FunderID.String())
	}
	if opts.ServiceRecipientID != "" {
		q = q.Where("care_package_id IN (SELECT id FROM carebill_care_packages WHERE service_recipient_id = ?)", opts.ServiceRecipientID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("scheduled_start ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*visit.CareVisitRecord, 0, len(models))
	for i := range models {
		v, err := fromVisitRecordModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func (s *Store) CreateBillableVisit(ctx context.Context, b *visit.BillableVisit) error {
	m := toBillableVisitModel(b)
	res, err := s.sdb.NewInsert(m).
		OnConflict("(visit_record_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return carebill.ErrVisitAlreadyBilled
	}
	return nil
}

func (s *Store) GetBillableVisit(ctx context.Context, billableID id.BillableID) (*visit.BillableVisit, error) {
	m := new(billableVisitModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", billableID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrBillableVisitNotFound
		}
		return nil, err
	}
	return fromBillableVisitModel(m)
}

func (s *Store) ListBillableVisits(ctx context.Context, tenantID string, opts visit.ListOpts) ([]*visit.BillableVisit, error) {
	var models []billableVisitModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if !opts.FunderID.IsNil() {
		q = q.Where("funder_id = ?", opts.FunderID.String())
	}
	if !opts.CarePackageID.IsNil() {
		q = q.Where("care_package_id = ?", opts.CarePackageID.String())
	}
	if !opts.From.IsZero() {
		q = q.Where("visit_date >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("visit_date < ?", opts.To)
	}
	if opts.Uninvoiced {
		q = q.Where("status = ?", string(visit.StatusApproved)).
			Where("invoice_line_id IS NULL")
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("billing_start ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*visit.BillableVisit, 0, len(models))
	for i := range models {
		b, err := fromBillableVisitModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, nil
}

func (s *Store) UpdateBillableVisit(ctx context.Context, b *visit.BillableVisit) error {
	m := toBillableVisitModel(b)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrBillableVisitNotFound)
}

// ==================== Invoice Store ====================

// CreateInvoice writes the invoice and relinks the billed visits in one
// transaction: either the invoice exists with every linked visit invoiced,
// or nothing changed. A relink touching fewer rows than links means a
// visit vanished or left approved since it was listed; the whole write
// rolls back.
func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice, links []carebillstore.VisitLink) error {
	m := toInvoiceModel(inv)
	byLine := make(map[string][]string)
	lineOrder := make([]string, 0)
	for _, l := range links {
		key := l.LineID.String()
		if _, ok := byLine[key]; !ok {
			lineOrder = append(lineOrder, key)
		}
		byLine[key] = append(byLine[key], l.BillableID.String())
	}

	return s.inTx(ctx, func() error {
		if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
			return err
		}
		for _, lineID := range lineOrder {
			ids := byLine[lineID]
			args := make([]any, 0, len(ids)+3)
			args = append(args, string(visit.StatusInvoiced), lineID, now())
			placeholders := make([]string, len(ids))
			for i, billableID := range ids {
				placeholders[i] = "?"
				args = append(args, billableID)
			}
			res, err := s.sdb.NewRaw(fmt.Sprintf(`
				UPDATE carebill_billable_visits
				SET status = ?, invoice_line_id = ?, updated_at = ?
				WHERE id IN (%s) AND status = 'approved'
			`, strings.Join(placeholders, ", ")), args...).Exec(ctx)
			if err != nil {
				return fmt.Errorf("carebill/sqlite: link visits to invoice %s: %w", inv.Number, err)
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows != int64(len(ids)) {
				return fmt.Errorf("carebill/sqlite: linked %d of %d visits on line %s: %w",
					rows, len(ids), lineID, carebill.ErrBillableVisitNotFound)
			}
		}
		return nil
	})
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	m := new(invoiceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", invID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrInvoiceNotFound
		}
		return nil, err
	}
	return fromInvoiceModel(m)
}

func (s *Store) ListInvoices(ctx context.Context, tenantID string, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if !opts.FunderID.IsNil() {
		q = q.Where("funder_id = ?", opts.FunderID.String())
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.OutstandingOnly {
		q = q.Where("status IN ('sent', 'partially_paid')")
	}
	if !opts.From.IsZero() {
		q = q.Where("period_end >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("period_start <= ?", opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("number ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, 0, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrInvoiceNotFound)
}

// VoidInvoice releases the invoice's visits back to approved and flips
// the invoice in one transaction, the mirror of CreateInvoice.
func (s *Store) VoidInvoice(ctx context.Context, invID id.InvoiceID, reason string, at time.Time) error {
	inv, err := s.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	if !inv.Status.CanTransitionTo(invoice.StatusVoid) {
		return carebill.ErrInvalidStateTransition
	}

	return s.inTx(ctx, func() error {
		for _, line := range inv.Lines {
			_, err := s.sdb.NewUpdate((*billableVisitModel)(nil)).
				Set("status = ?", string(visit.StatusApproved)).
				Set("invoice_line_id = NULL").
				Set("updated_at = ?", now()).
				Where("invoice_line_id = ?", line.ID.String()).
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("carebill/sqlite: release visits on line %s: %w", line.ID, err)
			}
		}

		res, err := s.sdb.NewUpdate((*invoiceModel)(nil)).
			Set("status = ?", string(invoice.StatusVoid)).
			Set("voided_at = ?", at).
			Set("void_reason = ?", reason).
			Set("updated_at = ?", now()).
			Where("id = ?", invID.String()).
			Exec(ctx)
		if err != nil {
			return err
		}
		return requireRows(res, carebill.ErrInvoiceNotFound)
	})
}

// ==================== Credit note Store ====================

func (s *Store) CreateCreditNote(ctx context.Context, n *creditnote.CreditNote) error {
	m := toCreditNoteModel(n)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetCreditNote(ctx context.Context, noteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	m := new(creditNoteModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", noteID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carebill.ErrCreditNoteNotFound
		}
		return nil, err
	}
	return fromCreditNoteModel(m)
}

func (s *Store) ListCreditNotes(ctx context.Context, tenantID string, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	var models []creditNoteModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if !opts.InvoiceID.IsNil() {
		q = q.Where("invoice_id = ?", opts.InvoiceID.String())
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("number ASC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*creditnote.CreditNote, 0, len(models))
	for i := range models {
		n, err := fromCreditNoteModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func (s *Store) UpdateCreditNote(ctx context.Context, n *creditnote.CreditNote) error {
	m := toCreditNoteModel(n)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	return requireRows(res, carebill.ErrCreditNoteNotFound)
}

// ==================== Sequence Store ====================

// NextSequence is a single upsert-returning statement: the database is the
// serialization point, so two concurrent draws never collide.
func (s *Store) NextSequence(ctx context.Context, tenantID, kind, yearMonth string) (int64, error) {
	var value int64
	err := s.sdb.NewRaw(`
		INSERT INTO carebill_sequences (tenant_id, kind, year_month, last_value)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (tenant_id, kind, year_month)
		DO UPDATE SET last_value = carebill_sequences.last_value + 1
		RETURNING last_value
	`, tenantID, kind, yearMonth).Scan(ctx, &value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// ==================== Audit Store ====================

func (s *Store) AppendAudit(ctx context.Context, e *audit.Entry) error {
	m := toAuditEntryModel(e)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListAudit(ctx context.Context, tenantID string, opts audit.ListOpts) ([]*audit.Entry, error) {
	var models []auditEntryModel
	q := s.sdb.NewSelect(&models).Where("organisation_id = ?", tenantID)
	if opts.EntityType != "" {
		q = q.Where("entity_type = ?", opts.EntityType)
	}
	if opts.EntityID != "" {
		q = q.Where("entity_id = ?", opts.EntityID)
	}
	if opts.ActorID != "" {
		q = q.Where("actor_id = ?", opts.ActorID)
	}
	if !opts.From.IsZero() {
		q = q.Where("at >= ?", opts.From)
	}
	if !opts.To.IsZero() {
		q = q.Where("at <= ?", opts.To)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("at DESC")
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*audit.Entry, 0, len(models))
	for i := range models {
		e, err := fromAuditEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, nil
}

// ==================== Reports ====================

func (s *Store) RevenueByPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]invoice.PeriodRevenue, error) {
	invoices, err := s.revenueInvoices(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[string]*invoice.PeriodRevenue)
	for _, inv := range invoices {
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

func (s *Store) RevenueByFunder(ctx context.Context, tenantID string, from, to time.Time) ([]invoice.FunderRevenue, error) {
	invoices, err := s.revenueInvoices(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	byFunder := make(map[string]*invoice.FunderRevenue)
	for _, inv := range invoices {
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
		return result[i].FunderID.String() < result[j].FunderID.String()
	})
	return result, nil
}

func (s *Store) revenueInvoices(ctx context.Context, tenantID string, from, to time.Time) ([]*invoice.Invoice, error) {
	var models []invoiceModel
	q := s.sdb.NewSelect(&models).
		Where("organisation_id = ?", tenantID).
		Where("status != ?", string(invoice.StatusVoid))
	if !from.IsZero() {
		q = q.Where("period_end >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("period_start <= ?", to)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*invoice.Invoice, 0, len(models))
	for i := range models {
		inv, err := fromInvoiceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, nil
}

// ==================== helpers ====================

func requireRows(res sql.Result, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func now() time.Time {
	return time.Now().UTC()
}
