package carebill

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("carebill: not found")
	ErrAlreadyExists = errors.New("carebill: already exists")
	ErrInvalidInput  = errors.New("carebill: invalid input")
	ErrNoScope       = errors.New("carebill: no tenant scope on context")

	// Funder errors
	ErrFunderNotFound = errors.New("carebill: funder not found")
	ErrFunderInactive = errors.New("carebill: funder is deactivated")

	// Rate card errors
	ErrRateCardNotFound = errors.New("carebill: rate card not found")
	ErrNoEffectiveCard  = errors.New("carebill: no rate card effective on date")
	ErrNoMatchingRate   = errors.New("carebill: no rate line matches visit")

	// Care package errors
	ErrPackageNotFound  = errors.New("carebill: care package not found")
	ErrPackageEnded     = errors.New("carebill: care package has ended")
	ErrScheduleNotFound = errors.New("carebill: visit schedule not found")

	// Visit errors
	ErrVisitNotFound         = errors.New("carebill: visit record not found")
	ErrBillableVisitNotFound = errors.New("carebill: billable visit not found")
	ErrVisitAlreadyBilled    = errors.New("carebill: visit already reconciled")
	ErrMissingActualTimes    = errors.New("carebill: actual times not recorded")

	// Invoice errors
	ErrInvoiceNotFound  = errors.New("carebill: invoice not found")
	ErrNoBillableVisits = errors.New("carebill: no approved visits to invoice")
	ErrInvoiceNotDraft  = errors.New("carebill: invoice is not a draft")
	ErrInvoiceVoided    = errors.New("carebill: invoice is voided")
	ErrOverpayment      = errors.New("carebill: payment exceeds outstanding balance")

	// Credit note errors
	ErrCreditNoteNotFound = errors.New("carebill: credit note not found")
	ErrCreditExceedsTotal = errors.New("carebill: credit exceeds remaining invoice balance")

	// State machine errors
	ErrInvalidStateTransition = errors.New("carebill: invalid state transition")

	// Store errors
	ErrStoreNotReady     = errors.New("carebill: store not ready")
	ErrStoreClosed       = errors.New("carebill: store is closed")
	ErrTransactionFailed = errors.New("carebill: transaction failed")
	ErrMigrationFailed   = errors.New("carebill: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("carebill: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "carebill: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("carebill: %d errors occurred", len(e.Errors))
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrFunderNotFound) ||
		errors.Is(err, ErrRateCardNotFound) ||
		errors.Is(err, ErrPackageNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrVisitNotFound) ||
		errors.Is(err, ErrBillableVisitNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrCreditNoteNotFound)
}

// IsConflict returns true if the error signals a duplicate or already-done
// write, the kind a caller usually treats as success-after-retry.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrVisitAlreadyBilled)
}

// IsStateViolation returns true if the error is a state machine rejection.
func IsStateViolation(err error) bool {
	return errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrInvoiceNotDraft) ||
		errors.Is(err, ErrInvoiceVoided) ||
		errors.Is(err, ErrPackageEnded)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
