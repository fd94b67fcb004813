package audithook

// Action constants for audit events.
const (
	// Reconciliation actions
	ActionVisitReconciled    = "visit.reconciled"
	ActionReconcileCompleted = "reconcile.completed"
	ActionVisitStatusChanged = "visit.status_changed"

	// Invoice actions
	ActionInvoiceGenerated = "invoice.generated"
	ActionInvoiceSent      = "invoice.sent"
	ActionInvoicePaid      = "invoice.paid"
	ActionInvoiceVoided    = "invoice.voided"

	// Credit note actions
	ActionCreditNoteIssued = "credit_note.issued"
	ActionCreditNoteSent   = "credit_note.sent"

	// Trail actions
	ActionAuditFailed = "audit.failed"
)

// Resource constants for audit events.
const (
	ResourceVisit      = "billable_visit"
	ResourceReconcile  = "reconcile_run"
	ResourceInvoice    = "invoice"
	ResourceCreditNote = "credit_note"
	ResourceAuditTrail = "audit_trail"
)

// Category constants for audit events.
const (
	CategoryReconciliation = "reconciliation"
	CategoryBilling        = "billing"
	CategoryPayment        = "payment"
	CategoryCompliance     = "compliance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
