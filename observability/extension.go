// Package observability provides a metrics extension for CareBill that
// records lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/carebill/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnVisitReconciled    = (*MetricsExtension)(nil)
	_ plugin.OnReconcileCompleted = (*MetricsExtension)(nil)
	_ plugin.OnVisitStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceGenerated   = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceSent        = (*MetricsExtension)(nil)
	_ plugin.OnInvoicePaid        = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceVoided      = (*MetricsExtension)(nil)
	_ plugin.OnCreditNoteIssued   = (*MetricsExtension)(nil)
	_ plugin.OnAuditFailed        = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a CareBill plugin to automatically track billing metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Reconciliation metrics
	VisitsReconciled Counter
	ReconcileRuns    Counter
	ReconcileIssues  Counter
	ReconcileSkipped Counter
	VisitsApproved   Counter
	VisitsDisputed   Counter
	VisitsVoided     Counter

	// Invoice metrics
	InvoiceGenerated Counter
	InvoiceSent      Counter
	InvoicePaid      Counter
	InvoiceVoided    Counter
	InvoiceTotal     Histogram
	PaymentAmount    Histogram

	// Credit note metrics
	CreditNotesIssued Counter

	// Error metrics
	AuditFailures Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Reconciliation metrics
		VisitsReconciled: factory.Counter("carebill.reconcile.visits"),
		ReconcileRuns:    factory.Counter("carebill.reconcile.runs"),
		ReconcileIssues:  factory.Counter("carebill.reconcile.issues"),
		ReconcileSkipped: factory.Counter("carebill.reconcile.already_billed"),
		VisitsApproved:   factory.Counter("carebill.visit.approved"),
		VisitsDisputed:   factory.Counter("carebill.visit.disputed"),
		VisitsVoided:     factory.Counter("carebill.visit.voided"),

		// Invoice metrics
		InvoiceGenerated: factory.Counter("carebill.invoice.generated"),
		InvoiceSent:      factory.Counter("carebill.invoice.sent"),
		InvoicePaid:      factory.Counter("carebill.invoice.paid"),
		InvoiceVoided:    factory.Counter("carebill.invoice.voided"),
		InvoiceTotal:     factory.Histogram("carebill.invoice.total_pence"),
		PaymentAmount:    factory.Histogram("carebill.payment.amount_pence"),

		// Credit note metrics
		CreditNotesIssued: factory.Counter("carebill.credit_note.issued"),

		// Error metrics
		AuditFailures: factory.Counter("carebill.audit.failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Reconciliation hooks
// ──────────────────────────────────────────────────

// OnVisitReconciled implements plugin.OnVisitReconciled.
func (m *MetricsExtension) OnVisitReconciled(_ context.Context, _ interface{}) error {
	m.VisitsReconciled.Inc()
	return nil
}

// OnReconcileCompleted implements plugin.OnReconcileCompleted.
func (m *MetricsExtension) OnReconcileCompleted(_ context.Context, _, skipped, issues int) error {
	m.ReconcileRuns.Inc()
	m.ReconcileSkipped.Add(float64(skipped))
	m.ReconcileIssues.Add(float64(issues))
	return nil
}

// OnVisitStatusChanged implements plugin.OnVisitStatusChanged.
func (m *MetricsExtension) OnVisitStatusChanged(_ context.Context, _ interface{}, _, to string) error {
	switch to {
	case "approved":
		m.VisitsApproved.Inc()
	case "disputed":
		m.VisitsDisputed.Inc()
	case "void":
		m.VisitsVoided.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (m *MetricsExtension) OnInvoiceGenerated(_ context.Context, _ interface{}) error {
	m.InvoiceGenerated.Inc()
	return nil
}

// OnInvoiceSent implements plugin.OnInvoiceSent.
func (m *MetricsExtension) OnInvoiceSent(_ context.Context, _ interface{}) error {
	m.InvoiceSent.Inc()
	return nil
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (m *MetricsExtension) OnInvoicePaid(_ context.Context, _ interface{}, amountPence int64) error {
	m.InvoicePaid.Inc()
	m.PaymentAmount.Observe(float64(amountPence))
	return nil
}

// OnInvoiceVoided implements plugin.OnInvoiceVoided.
func (m *MetricsExtension) OnInvoiceVoided(_ context.Context, _, _ string) error {
	m.InvoiceVoided.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Credit note hooks
// ──────────────────────────────────────────────────

// OnCreditNoteIssued implements plugin.OnCreditNoteIssued.
func (m *MetricsExtension) OnCreditNoteIssued(_ context.Context, _ interface{}) error {
	m.CreditNotesIssued.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Trail hooks
// ──────────────────────────────────────────────────

// OnAuditFailed implements plugin.OnAuditFailed.
func (m *MetricsExtension) OnAuditFailed(_ context.Context, _ interface{}, _ error) error {
	m.AuditFailures.Inc()
	return nil
}
