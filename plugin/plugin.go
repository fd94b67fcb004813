// Package plugin provides an extensible plugin system for CareBill.
// Plugins can hook into billing lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Reconciliation hooks
// ──────────────────────────────────────────────────

// OnVisitReconciled is called for each billable visit produced by a
// reconciliation run.
type OnVisitReconciled interface {
	Plugin
	OnVisitReconciled(ctx context.Context, billable interface{}) error
}

// OnReconcileCompleted is called once at the end of a reconciliation run.
type OnReconcileCompleted interface {
	Plugin
	OnReconcileCompleted(ctx context.Context, generated, skipped, issues int) error
}

// OnVisitStatusChanged is called when a billable visit moves state.
type OnVisitStatusChanged interface {
	Plugin
	OnVisitStatusChanged(ctx context.Context, billable interface{}, from, to string) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceGenerated is called when a draft invoice is generated.
type OnInvoiceGenerated interface {
	Plugin
	OnInvoiceGenerated(ctx context.Context, inv interface{}) error
}

// OnInvoiceSent is called when an invoice is marked sent.
type OnInvoiceSent interface {
	Plugin
	OnInvoiceSent(ctx context.Context, inv interface{}) error
}

// OnInvoicePaid is called when a payment lands against an invoice.
type OnInvoicePaid interface {
	Plugin
	OnInvoicePaid(ctx context.Context, inv interface{}, amountPence int64) error
}

// OnInvoiceVoided is called when an invoice is voided.
type OnInvoiceVoided interface {
	Plugin
	OnInvoiceVoided(ctx context.Context, invoiceID, reason string) error
}

// ──────────────────────────────────────────────────
// Credit note hooks
// ──────────────────────────────────────────────────

// OnCreditNoteIssued is called when a draft credit note is created.
type OnCreditNoteIssued interface {
	Plugin
	OnCreditNoteIssued(ctx context.Context, note interface{}) error
}

// OnCreditNoteSent is called when a credit note is marked sent.
type OnCreditNoteSent interface {
	Plugin
	OnCreditNoteSent(ctx context.Context, note interface{}) error
}

// ──────────────────────────────────────────────────
// Audit hooks
// ──────────────────────────────────────────────────

// OnAuditRecorded is called after an audit entry is appended.
type OnAuditRecorded interface {
	Plugin
	OnAuditRecorded(ctx context.Context, entry interface{}) error
}

// OnAuditFailed is called when an audit append fails after its primary
// write committed.
type OnAuditFailed interface {
	Plugin
	OnAuditFailed(ctx context.Context, entry interface{}, err error) error
}
