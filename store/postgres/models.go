package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/carebill/audit"
	"github.com/xraph/carebill/carepkg"
	"github.com/xraph/carebill/creditnote"
	"github.com/xraph/carebill/funder"
	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/invoice"
	"github.com/xraph/carebill/ratecard"
	"github.com/xraph/carebill/types"
	"github.com/xraph/carebill/visit"
)

// Decimals travel as strings: NUMERIC in postgres, TEXT in sqlite, exact
// either way.

func decToStr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func strToDec(s *string) *decimal.Decimal {
	if s == nil || *s == "" {
		return nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil
	}
	return &d
}

func penceToMoney(amount int64, currency string) types.Money {
	if currency == "" {
		currency = "gbp"
	}
	return types.Money{Amount: amount, Currency: currency}
}

func moneyPtrToPence(m *types.Money) *int64 {
	if m == nil {
		return nil
	}
	return &m.Amount
}

func penceToMoneyPtr(amount *int64, currency string) *types.Money {
	if amount == nil {
		return nil
	}
	m := penceToMoney(*amount, currency)
	return &m
}

// ==================== Funder models ====================

type funderModel struct {
	grove.BaseModel `grove:"table:carebill_funders"`

	ID               string    `grove:"id,pk"`
	OrganisationID   string    `grove:"organisation_id"`
	Name             string    `grove:"name"`
	Type             string    `grove:"type"`
	PaymentTermsDays int       `grove:"payment_terms_days"`
	InvoiceFrequency string    `grove:"invoice_frequency"`
	DefaultTimeBasis string    `grove:"default_time_basis"`
	Email            string    `grove:"email"`
	Reference        string    `grove:"reference"`
	Active           bool      `grove:"active"`
	CreatedAt        time.Time `grove:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"`
}

func toFunderModel(f *funder.Funder) *funderModel {
	return &funderModel{
		ID:               f.ID.String(),
		OrganisationID:   f.OrganisationID,
		Name:             f.Name,
		Type:             string(f.Type),
		PaymentTermsDays: f.PaymentTermsDays,
		InvoiceFrequency: string(f.InvoiceFrequency),
		DefaultTimeBasis: string(f.DefaultTimeBasis),
		Email:            f.Email,
		Reference:        f.Reference,
		Active:           f.Active,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

func fromFunderModel(m *funderModel) (*funder.Funder, error) {
	funderID, err := id.ParseFunderID(m.ID)
	if err != nil {
		return nil, err
	}
	return &funder.Funder{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               funderID,
		OrganisationID:   m.OrganisationID,
		Name:             m.Name,
		Type:             funder.Type(m.Type),
		PaymentTermsDays: m.PaymentTermsDays,
		InvoiceFrequency: funder.InvoiceFrequency(m.InvoiceFrequency),
		DefaultTimeBasis: funder.TimeBasis(m.DefaultTimeBasis),
		Email:            m.Email,
		Reference:        m.Reference,
		Active:           m.Active,
	}, nil
}

// ==================== Rate card models ====================

// Lines and mileage rates ride on the card row as JSONB: a card is billed
// against as one immutable document, never line by line.
type rateCardModel struct {
	grove.BaseModel `grove:"table:carebill_rate_cards"`

	ID             string          `grove:"id,pk"`
	OrganisationID string          `grove:"organisation_id"`
	FunderID       *string         `grove:"funder_id"`
	Name           string          `grove:"name"`
	EffectiveFrom  time.Time       `grove:"effective_from"`
	EffectiveTo    *time.Time      `grove:"effective_to"`
	Lines          json.RawMessage `grove:"lines,type:jsonb"`
	MileageRates   json.RawMessage `grove:"mileage_rates,type:jsonb"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toRateCardModel(c *ratecard.RateCard) *rateCardModel {
	lines, _ := json.Marshal(c.Lines)               //nolint:errcheck // best-effort
	mileageRates, _ := json.Marshal(c.MileageRates) //nolint:errcheck // best-effort

	var funderID *string
	if !c.FunderID.IsNil() {
		s := c.FunderID.String()
		funderID = &s
	}
	return &rateCardModel{
		ID:             c.ID.String(),
		OrganisationID: c.OrganisationID,
		FunderID:       funderID,
		Name:           c.Name,
		EffectiveFrom:  c.EffectiveFrom,
		EffectiveTo:    c.EffectiveTo,
		Lines:          lines,
		MileageRates:   mileageRates,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromRateCardModel(m *rateCardModel) (*ratecard.RateCard, error) {
	cardID, err := id.ParseRateCardID(m.ID)
	if err != nil {
		return nil, err
	}
	var funderID id.FunderID
	if m.FunderID != nil {
		funderID, err = id.ParseFunderID(*m.FunderID)
		if err != nil {
			return nil, err
		}
	}

	var lines []ratecard.RateCardLine
	if len(m.Lines) > 0 {
		_ = json.Unmarshal(m.Lines, &lines) //nolint:errcheck // best-effort
	}
	var mileageRates []ratecard.MileageRate
	if len(m.MileageRates) > 0 && string(m.MileageRates) != "null" {
		_ = json.Unmarshal(m.MileageRates, &mileageRates) //nolint:errcheck // best-effort
	}

	return &ratecard.RateCard{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             cardID,
		OrganisationID: m.OrganisationID,
		FunderID:       funderID,
		Name:           m.Name,
		EffectiveFrom:  m.EffectiveFrom,
		EffectiveTo:    m.EffectiveTo,
		Lines:          lines,
		MileageRates:   mileageRates,
	}, nil
}

type bankHolidayModel struct {
	grove.BaseModel `grove:"table:carebill_bank_holidays"`

	ID     string    `grove:"id,pk"`
	Date   time.Time `grove:"date"`
	Region string    `grove:"region"`
	Name   string    `grove:"name"`
}

func toBankHolidayModel(h *ratecard.BankHoliday) *bankHolidayModel {
	return &bankHolidayModel{
		ID:     h.ID.String(),
		Date:   h.Date,
		Region: h.Region,
		Name:   h.Name,
	}
}

func fromBankHolidayModel(m *bankHolidayModel) (ratecard.BankHoliday, error) {
	holidayID, err := id.ParseBankHolidayID(m.ID)
	if err != nil {
		return ratecard.BankHoliday{}, err
	}
	return ratecard.BankHoliday{ID: holidayID, Date: m.Date, Region: m.Region, Name: m.Name}, nil
}

// ==================== Care package models ====================

type carePackageModel struct {
	grove.BaseModel `grove:"table:carebill_care_packages"`

	ID                       string     `grove:"id,pk"`
	OrganisationID           string     `grove:"organisation_id"`
	ServiceRecipientID       string     `grove:"service_recipient_id"`
	FunderID                 string     `grove:"funder_id"`
	RateCardID               string     `grove:"rate_card_id"`
	TimeBasis                string     `grove:"time_basis"`
	RoundingIncrementMinutes int        `grove:"rounding_increment_minutes"`
	MinimumBillableMinutes   int        `grove:"minimum_billable_minutes"`
	DefaultCarersRequired    int        `grove:"default_carers_required"`
	MileageBillable          bool       `grove:"mileage_billable"`
	StartDate                time.Time  `grove:"start_date"`
	EndDate                  *time.Time `grove:"end_date"`
	Status                   string     `grove:"status"`
	CreatedAt                time.Time  `grove:"created_at"`
	UpdatedAt                time.Time  `grove:"updated_at"`
}

func toCarePackageModel(p *carepkg.CarePackage) *carePackageModel {
	return &carePackageModel{
		ID:                       p.ID.String(),
		OrganisationID:           p.OrganisationID,
		ServiceRecipientID:       p.ServiceRecipientID,
		FunderID:                 p.FunderID.String(),
		RateCardID:               p.RateCardID.String(),
		TimeBasis:                string(p.TimeBasis),
		RoundingIncrementMinutes: p.RoundingIncrementMinutes,
		MinimumBillableMinutes:   p.MinimumBillableMinutes,
		DefaultCarersRequired:    p.DefaultCarersRequired,
		MileageBillable:          p.MileageBillable,
		StartDate:                p.StartDate,
		EndDate:                  p.EndDate,
		Status:                   string(p.Status),
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}

func fromCarePackageModel(m *carePackageModel) (*carepkg.CarePackage, error) {
	pkgID, err := id.ParseCarePackageID(m.ID)
	if err != nil {
		return nil, err
	}
	funderID, err := id.ParseFunderID(m.FunderID)
	if err != nil {
		return nil, err
	}
	cardID, err := id.ParseRateCardID(m.RateCardID)
	if err != nil {
		return nil, err
	}
	return &carepkg.CarePackage{
		Entity:                   types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                       pkgID,
		OrganisationID:           m.OrganisationID,
		ServiceRecipientID:       m.ServiceRecipientID,
		FunderID:                 funderID,
		RateCardID:               cardID,
		TimeBasis:                funder.TimeBasis(m.TimeBasis),
		RoundingIncrementMinutes: m.RoundingIncrementMinutes,
		MinimumBillableMinutes:   m.MinimumBillableMinutes,
		DefaultCarersRequired:    m.DefaultCarersRequired,
		MileageBillable:          m.MileageBillable,
		StartDate:                m.StartDate,
		EndDate:                  m.EndDate,
		Status:                   carepkg.Status(m.Status),
	}, nil
}

type visitScheduleModel struct {
	grove.BaseModel `grove:"table:carebill_visit_schedules"`

	ID             string `grove:"id,pk"`
	CarePackageID  string `grove:"care_package_id"`
	Weekday        int    `grove:"weekday"`
	StartMinutes   int    `grove:"start_minutes"`
	EndMinutes     int    `grove:"end_minutes"`
	CarersRequired int    `grove:"carers_required"`
}

func toVisitScheduleModel(s *carepkg.VisitSchedule) *visitScheduleModel {
	return &visitScheduleModel{
		ID:             s.ID.String(),
		CarePackageID:  s.CarePackageID.String(),
		Weekday:        int(s.Weekday),
		StartMinutes:   int(s.Start),
		EndMinutes:     int(s.End),
		CarersRequired: s.CarersRequired,
	}
}

func fromVisitScheduleModel(m *visitScheduleModel) (carepkg.VisitSchedule, error) {
	scheduleID, err := id.ParseScheduleID(m.ID)
	if err != nil {
		return carepkg.VisitSchedule{}, err
	}
	pkgID, err := id.ParseCarePackageID(m.CarePackageID)
	if err != nil {
		return carepkg.VisitSchedule{}, err
	}
	return carepkg.VisitSchedule{
		ID:             scheduleID,
		CarePackageID:  pkgID,
		Weekday:        time.Weekday(m.Weekday),
		Start:          ratecard.TimeOfDay(m.StartMinutes),
		End:            ratecard.TimeOfDay(m.EndMinutes),
		CarersRequired: m.CarersRequired,
	}, nil
}

// ==================== Visit models ====================

type visitRecordModel struct {
	grove.BaseModel `grove:"table:carebill_visit_records"`

	ID             string     `grove:"id,pk"`
	OrganisationID string     `grove:"organisation_id"`
	CarePackageID  string     `grove:"care_package_id"`
	StaffID        string     `grove:"staff_id"`
	ScheduledStart time.Time  `grove:"scheduled_start"`
	ScheduledEnd   time.Time  `grove:"scheduled_end"`
	ActualStart    *time.Time `grove:"actual_start"`
	ActualEnd      *time.Time `grove:"actual_end"`
	MileageMiles   *string    `grove:"mileage_miles"`
	CreatedAt      time.Time  `grove:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

func toVisitRecordModel(v *visit.CareVisitRecord) *visitRecordModel {
	return &visitRecordModel{
		ID:             v.ID.String(),
		OrganisationID: v.OrganisationID,
		CarePackageID:  v.CarePackageID.String(),
		StaffID:        v.StaffID,
		ScheduledStart: v.ScheduledStart,
		ScheduledEnd:   v.ScheduledEnd,
		ActualStart:    v.ActualStart,
		ActualEnd:      v.ActualEnd,
		MileageMiles:   decToStr(v.MileageMiles),
		CreatedAt:      v.CreatedAt,
		UpdatedAt:      v.UpdatedAt,
	}
}

func fromVisitRecordModel(m *visitRecordModel) (*visit.CareVisitRecord, error) {
	visitID, err := id.ParseVisitRecordID(m.ID)
	if err != nil {
		return nil, err
	}
	pkgID, err := id.ParseCarePackageID(m.CarePackageID)
	if err != nil {
		return nil, err
	}
	return &visit.CareVisitRecord{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             visitID,
		OrganisationID: m.OrganisationID,
		CarePackageID:  pkgID,
		StaffID:        m.StaffID,
		ScheduledStart: m.ScheduledStart,
		ScheduledEnd:   m.ScheduledEnd,
		ActualStart:    m.ActualStart,
		ActualEnd:      m.ActualEnd,
		MileageMiles:   strToDec(m.MileageMiles),
	}, nil
}

type billableVisitModel struct {
	grove.BaseModel `grove:"table:carebill_billable_visits"`

	ID                 string    `grove:"id,pk"`
	OrganisationID     string    `grove:"organisation_id"`
	VisitRecordID      string    `grove:"visit_record_id"`
	CarePackageID      string    `grove:"care_package_id"`
	FunderID           string    `grove:"funder_id"`
	ServiceRecipientID string    `grove:"service_recipient_id"`
	VisitDate          time.Time `grove:"visit_date"`
	DayType            string    `grove:"day_type"`
	BillingStart       time.Time `grove:"billing_start"`
	BillingEnd         time.Time `grove:"billing_end"`
	DurationMinutes    int       `grove:"duration_minutes"`
	CarersRequired     int       `grove:"carers_required"`
	RatePerHourPence   int64     `grove:"rate_per_hour_pence"`
	LineTotalPence     int64     `grove:"line_total_pence"`
	Currency           string    `grove:"currency"`
	MileageMiles       *string   `grove:"mileage_miles"`
	MileageRatePence   *int64    `grove:"mileage_rate_pence"`
	MileageTotalPence  *int64    `grove:"mileage_total_pence"`
	OverridePence      *int64    `grove:"override_pence"`
	OverrideReason     string    `grove:"override_reason"`
	DisputeReason      string    `grove:"dispute_reason"`
	Status             string    `grove:"status"`
	InvoiceLineID      *string   `grove:"invoice_line_id"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
}

func toBillableVisitModel(b *visit.BillableVisit) *billableVisitModel {
	var lineID *string
	if !b.InvoiceLineID.IsNil() {
		s := b.InvoiceLineID.String()
		lineID = &s
	}
	return &billableVisitModel{
		ID:                 b.ID.String(),
		OrganisationID:     b.OrganisationID,
		VisitRecordID:      b.VisitRecordID.String(),
		CarePackageID:      b.CarePackageID.String(),
		FunderID:           b.FunderID.String(),
		ServiceRecipientID: b.ServiceRecipientID,
		VisitDate:          b.VisitDate,
		DayType:            string(b.DayType),
		BillingStart:       b.BillingStart,
		BillingEnd:         b.BillingEnd,
		DurationMinutes:    b.DurationMinutes,
		CarersRequired:     b.CarersRequired,
		RatePerHourPence:   b.RatePerHour.Amount,
		LineTotalPence:     b.LineTotal.Amount,
		Currency:           b.LineTotal.Currency,
		MileageMiles:       decToStr(b.MileageMiles),
		MileageRatePence:   moneyPtrToPence(b.MileageRate),
		MileageTotalPence:  moneyPtrToPence(b.MileageTotal),
		OverridePence:      moneyPtrToPence(b.OverrideAmount),
		OverrideReason:     b.OverrideReason,
		DisputeReason:      b.DisputeReason,
		Status:             string(b.Status),
		InvoiceLineID:      lineID,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func fromBillableVisitModel(m *billableVisitModel) (*visit.BillableVisit, error) {
	billableID, err := id.ParseBillableID(m.ID)
	if err != nil {
		return nil, err
	}
	visitID, err := id.ParseVisitRecordID(m.VisitRecordID)
	if err != nil {
		return nil, err
	}
	pkgID, err := id.ParseCarePackageID(m.CarePackageID)
	if err != nil {
		return nil, err
	}
	funderID, err := id.ParseFunderID(m.FunderID)
	if err != nil {
		return nil, err
	}
	var lineID id.InvoiceLineID
	if m.InvoiceLineID != nil {
		lineID, err = id.ParseInvoiceLineID(*m.InvoiceLineID)
		if err != nil {
			return nil, err
		}
	}
	return &visit.BillableVisit{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 billableID,
		OrganisationID:     m.OrganisationID,
		VisitRecordID:      visitID,
		CarePackageID:      pkgID,
		FunderID:           funderID,
		ServiceRecipientID: m.ServiceRecipientID,
		VisitDate:          m.VisitDate,
		DayType:            ratecard.DayType(m.DayType),
		BillingStart:       m.BillingStart,
		BillingEnd:         m.BillingEnd,
		DurationMinutes:    m.DurationMinutes,
		CarersRequired:     m.CarersRequired,
		RatePerHour:        penceToMoney(m.RatePerHourPence, m.Currency),
		LineTotal:          penceToMoney(m.LineTotalPence, m.Currency),
		MileageMiles:       strToDec(m.MileageMiles),
		MileageRate:        penceToMoneyPtr(m.MileageRatePence, m.Currency),
		MileageTotal:       penceToMoneyPtr(m.MileageTotalPence, m.Currency),
		OverrideAmount:     penceToMoneyPtr(m.OverridePence, m.Currency),
		OverrideReason:     m.OverrideReason,
		DisputeReason:      m.DisputeReason,
		Status:             visit.Status(m.Status),
		InvoiceLineID:      lineID,
	}, nil
}

// ==================== Invoice models ====================

// Lines ride on the invoice row as JSONB: an invoice is written once at
// generation and read as one document.
type invoiceModel struct {
	grove.BaseModel `grove:"table:carebill_invoices"`

	ID             string          `grove:"id,pk"`
	OrganisationID string          `grove:"organisation_id"`
	FunderID       string          `grove:"funder_id"`
	Number         string          `grove:"number"`
	PeriodStart    time.Time       `grove:"period_start"`
	PeriodEnd      time.Time       `grove:"period_end"`
	Status         string          `grove:"status"`
	SubtotalPence  int64           `grove:"subtotal_pence"`
	VATPence       int64           `grove:"vat_pence"`
	TotalPence     int64           `grove:"total_pence"`
	PaidPence      int64           `grove:"paid_pence"`
	Currency       string          `grove:"currency"`
	PaymentRef     string          `grove:"payment_ref"`
	DueDate        *time.Time      `grove:"due_date"`
	SentAt         *time.Time      `grove:"sent_at"`
	PaidAt         *time.Time      `grove:"paid_at"`
	VoidedAt       *time.Time      `grove:"voided_at"`
	VoidReason     string          `grove:"void_reason"`
	Lines          json.RawMessage `grove:"lines,type:jsonb"`
	CreatedAt      time.Time       `grove:"created_at"`
	UpdatedAt      time.Time       `grove:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	lines, _ := json.Marshal(inv.Lines) //nolint:errcheck // best-effort

	return &invoiceModel{
		ID:             inv.ID.String(),
		OrganisationID: inv.OrganisationID,
		FunderID:       inv.FunderID.String(),
		Number:         inv.Number,
		PeriodStart:    inv.PeriodStart,
		PeriodEnd:      inv.PeriodEnd,
		Status:         string(inv.Status),
		SubtotalPence:  inv.Subtotal.Amount,
		VATPence:       inv.VATAmount.Amount,
		TotalPence:     inv.Total.Amount,
		PaidPence:      inv.PaidAmount.Amount,
		Currency:       inv.Total.Currency,
		PaymentRef:     inv.PaymentRef,
		DueDate:        inv.DueDate,
		SentAt:         inv.SentAt,
		PaidAt:         inv.PaidAt,
		VoidedAt:       inv.VoidedAt,
		VoidReason:     inv.VoidReason,
		Lines:          lines,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	funderID, err := id.ParseFunderID(m.FunderID)
	if err != nil {
		return nil, err
	}

	var lines []invoice.InvoiceLine
	if len(m.Lines) > 0 && string(m.Lines) != "null" {
		_ = json.Unmarshal(m.Lines, &lines) //nolint:errcheck // best-effort
	}

	return &invoice.Invoice{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             invID,
		OrganisationID: m.OrganisationID,
		FunderID:       funderID,
		Number:         m.Number,
		PeriodStart:    m.PeriodStart,
		PeriodEnd:      m.PeriodEnd,
		Status:         invoice.Status(m.Status),
		Subtotal:       penceToMoney(m.SubtotalPence, m.Currency),
		VATAmount:      penceToMoney(m.VATPence, m.Currency),
		Total:          penceToMoney(m.TotalPence, m.Currency),
		PaidAmount:     penceToMoney(m.PaidPence, m.Currency),
		PaymentRef:     m.PaymentRef,
		DueDate:        m.DueDate,
		SentAt:         m.SentAt,
		PaidAt:         m.PaidAt,
		VoidedAt:       m.VoidedAt,
		VoidReason:     m.VoidReason,
		Lines:          lines,
	}, nil
}

// ==================== Credit note models ====================

type creditNoteModel struct {
	grove.BaseModel `grove:"table:carebill_credit_notes"`

	ID             string     `grove:"id,pk"`
	OrganisationID string     `grove:"organisation_id"`
	InvoiceID      string     `grove:"invoice_id"`
	Number         string     `grove:"number"`
	AmountPence    int64      `grove:"amount_pence"`
	Currency       string     `grove:"currency"`
	Reason         string     `grove:"reason"`
	Status         string     `grove:"status"`
	SentAt         *time.Time `grove:"sent_at"`
	CreatedAt      time.Time  `grove:"created_at"`
	UpdatedAt      time.Time  `grove:"updated_at"`
}

func toCreditNoteModel(n *creditnote.CreditNote) *creditNoteModel {
	return &creditNoteModel{
		ID:             n.ID.String(),
		OrganisationID: n.OrganisationID,
		InvoiceID:      n.InvoiceID.String(),
		Number:         n.Number,
		AmountPence:    n.Amount.Amount,
		Currency:       n.Amount.Currency,
		Reason:         n.Reason,
		Status:         string(n.Status),
		SentAt:         n.SentAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func fromCreditNoteModel(m *creditNoteModel) (*creditnote.CreditNote, error) {
	noteID, err := id.ParseCreditNoteID(m.ID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	return &creditnote.CreditNote{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             noteID,
		OrganisationID: m.OrganisationID,
		InvoiceID:      invID,
		Number:         m.Number,
		Amount:         penceToMoney(m.AmountPence, m.Currency),
		Reason:         m.Reason,
		Status:         creditnote.Status(m.Status),
		SentAt:         m.SentAt,
	}, nil
}

// ==================== Audit models ====================

type auditEntryModel struct {
	grove.BaseModel `grove:"table:carebill_audit_log"`

	ID             string          `grove:"id,pk"`
	OrganisationID string          `grove:"organisation_id"`
	ActorID        string          `grove:"actor_id"`
	EntityType     string          `grove:"entity_type"`
	EntityID       string          `grove:"entity_id"`
	Action         string          `grove:"action"`
	Changes        json.RawMessage `grove:"changes,type:jsonb"`
	IP             string          `grove:"ip"`
	UserAgent      string          `grove:"user_agent"`
	At             time.Time       `grove:"at"`
}

func toAuditEntryModel(e *audit.Entry) *auditEntryModel {
	changes, _ := json.Marshal(e.Changes) //nolint:errcheck // best-effort

	return &auditEntryModel{
		ID:             e.ID.String(),
		OrganisationID: e.OrganisationID,
		ActorID:        e.ActorID,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		Action:         string(e.Action),
		Changes:        changes,
		IP:             e.IP,
		UserAgent:      e.UserAgent,
		At:             e.At,
	}
}

func fromAuditEntryModel(m *auditEntryModel) (*audit.Entry, error) {
	entryID, err := id.ParseAuditEntryID(m.ID)
	if err != nil {
		return nil, err
	}
	var changes map[string]audit.FieldChange
	if len(m.Changes) > 0 && string(m.Changes) != "null" {
		_ = json.Unmarshal(m.Changes, &changes) //nolint:errcheck // best-effort
	}
	return &audit.Entry{
		ID:             entryID,
		OrganisationID: m.OrganisationID,
		ActorID:        m.ActorID,
		EntityType:     m.EntityType,
		EntityID:       m.EntityID,
		Action:         audit.Action(m.Action),
		Changes:        changes,
		IP:             m.IP,
		UserAgent:      m.UserAgent,
		At:             m.At,
	}, nil
}
