// Package audithook bridges CareBill lifecycle events to an external audit
// trail backend.
//
// It defines a local Recorder interface so the package does not import any
// particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time. This sits alongside, not instead
// of, the engine's own database audit trail: the trail is the compliance
// record, this extension is for shipping events to SIEMs and the like.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/carebill/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnVisitReconciled    = (*Extension)(nil)
	_ plugin.OnReconcileCompleted = (*Extension)(nil)
	_ plugin.OnVisitStatusChanged = (*Extension)(nil)
	_ plugin.OnInvoiceGenerated   = (*Extension)(nil)
	_ plugin.OnInvoiceSent        = (*Extension)(nil)
	_ plugin.OnInvoicePaid        = (*Extension)(nil)
	_ plugin.OnInvoiceVoided      = (*Extension)(nil)
	_ plugin.OnCreditNoteIssued   = (*Extension)(nil)
	_ plugin.OnCreditNoteSent     = (*Extension)(nil)
	_ plugin.OnAuditFailed        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so the package carries no backend dependency.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges CareBill lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Reconciliation hooks
// ──────────────────────────────────────────────────

// OnVisitReconciled implements plugin.OnVisitReconciled.
func (e *Extension) OnVisitReconciled(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionVisitReconciled, SeverityInfo, OutcomeSuccess,
		ResourceVisit, "", CategoryReconciliation, nil,
		"event", "visit_reconciled",
	)
}

// OnReconcileCompleted implements plugin.OnReconcileCompleted.
func (e *Extension) OnReconcileCompleted(ctx context.Context, generated, skipped, issues int) error {
	outcome := OutcomeSuccess
	severity := SeverityInfo
	if issues > 0 {
		outcome = OutcomePartial
		severity = SeverityWarning
	}
	return e.record(ctx, ActionReconcileCompleted, severity, outcome,
		ResourceReconcile, "", CategoryReconciliation, nil,
		"generated", generated,
		"already_billed", skipped,
		"issues", issues,
	)
}

// OnVisitStatusChanged implements plugin.OnVisitStatusChanged.
func (e *Extension) OnVisitStatusChanged(ctx context.Context, _ interface{}, from, to string) error {
	return e.record(ctx, ActionVisitStatusChanged, SeverityInfo, OutcomeSuccess,
		ResourceVisit, "", CategoryReconciliation, nil,
		"from", from,
		"to", to,
	)
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated implements plugin.OnInvoiceGenerated.
func (e *Extension) OnInvoiceGenerated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvoiceGenerated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryBilling, nil,
		"event", "invoice_generated",
	)
}

// OnInvoiceSent implements plugin.OnInvoiceSent.
func (e *Extension) OnInvoiceSent(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvoiceSent, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryBilling, nil,
		"event", "invoice_sent",
	)
}

// OnInvoicePaid implements plugin.OnInvoicePaid.
func (e *Extension) OnInvoicePaid(ctx context.Context, _ interface{}, amountPence int64) error {
	return e.record(ctx, ActionInvoicePaid, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategoryPayment, nil,
		"event", "invoice_paid",
		"amount_pence", amountPence,
	)
}

// OnInvoiceVoided implements plugin.OnInvoiceVoided.
func (e *Extension) OnInvoiceVoided(ctx context.Context, invoiceID, reason string) error {
	return e.record(ctx, ActionInvoiceVoided, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, invoiceID, CategoryBilling, nil,
		"void_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Credit note hooks
// ──────────────────────────────────────────────────

// OnCreditNoteIssued implements plugin.OnCreditNoteIssued.
func (e *Extension) OnCreditNoteIssued(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCreditNoteIssued, SeverityWarning, OutcomeSuccess,
		ResourceCreditNote, "", CategoryBilling, nil,
		"event", "credit_note_issued",
	)
}

// OnCreditNoteSent implements plugin.OnCreditNoteSent.
func (e *Extension) OnCreditNoteSent(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCreditNoteSent, SeverityInfo, OutcomeSuccess,
		ResourceCreditNote, "", CategoryBilling, nil,
		"event", "credit_note_sent",
	)
}

// ──────────────────────────────────────────────────
// Trail hooks
// ──────────────────────────────────────────────────

// OnAuditFailed implements plugin.OnAuditFailed. A failed trail append is
// the one event that must never be dropped silently.
func (e *Extension) OnAuditFailed(ctx context.Context, _ interface{}, err error) error {
	return e.record(ctx, ActionAuditFailed, SeverityCritical, OutcomeFailure,
		ResourceAuditTrail, "", CategoryCompliance, err,
		"event", "audit_failed",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
