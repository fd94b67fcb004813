// Package id defines TypeID-based identity types for all CareBill entities.
//
// Every entity in CareBill uses a single ID struct with a prefix that
// identifies the entity type. IDs are K-sortable (UUIDv7-based), globally
// unique, and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all CareBill entity types.
const (
	PrefixFunder      Prefix = "fndr" // Billing counterparty
	PrefixRateCard    Prefix = "rate" // Rate card
	PrefixRateLine    Prefix = "rcl"  // Rate card line
	PrefixMileageRate Prefix = "mlg"  // Mileage rate
	PrefixBankHoliday Prefix = "hol"  // Bank holiday calendar entry
	PrefixCarePackage Prefix = "cpkg" // Care package
	PrefixSchedule    Prefix = "vsch" // Visit schedule slot
	PrefixVisitRecord Prefix = "vst"  // Completed care visit record
	PrefixBillable    Prefix = "bvst" // Billable visit
	PrefixInvoice     Prefix = "inv"  // Invoice
	PrefixInvoiceLine Prefix = "invl" // Invoice line
	PrefixCreditNote  Prefix = "cn"   // Credit note
	PrefixAuditEntry  Prefix = "adt"  // Audit trail entry
)

// ID is the primary identifier type for all CareBill entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "bvst_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases per entity
// ──────────────────────────────────────────────────

// FunderID is a type-safe identifier for funders (prefix: "fndr").
type FunderID = ID

// RateCardID is a type-safe identifier for rate cards (prefix: "rate").
type RateCardID = ID

// RateLineID is a type-safe identifier for rate card lines (prefix: "rcl").
type RateLineID = ID

// MileageRateID is a type-safe identifier for mileage rates (prefix: "mlg").
type MileageRateID = ID

// BankHolidayID is a type-safe identifier for bank holidays (prefix: "hol").
type BankHolidayID = ID

// CarePackageID is a type-safe identifier for care packages (prefix: "cpkg").
type CarePackageID = ID

// ScheduleID is a type-safe identifier for visit schedule slots (prefix: "vsch").
type ScheduleID = ID

// VisitRecordID is a type-safe identifier for care visit records (prefix: "vst").
type VisitRecordID = ID

// BillableID is a type-safe identifier for billable visits (prefix: "bvst").
type BillableID = ID

// InvoiceID is a type-safe identifier for invoices (prefix: "inv").
type InvoiceID = ID

// InvoiceLineID is a type-safe identifier for invoice lines (prefix: "invl").
type InvoiceLineID = ID

// CreditNoteID is a type-safe identifier for credit notes (prefix: "cn").
type CreditNoteID = ID

// AuditEntryID is a type-safe identifier for audit entries (prefix: "adt").
type AuditEntryID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewFunderID generates a new unique funder ID.
func NewFunderID() ID { return New(PrefixFunder) }

// NewRateCardID generates a new unique rate card ID.
func NewRateCardID() ID { return New(PrefixRateCard) }

// NewRateLineID generates a new unique rate card line ID.
func NewRateLineID() ID { return New(PrefixRateLine) }

// NewMileageRateID generates a new unique mileage rate ID.
func NewMileageRateID() ID { return New(PrefixMileageRate) }

// NewBankHolidayID generates a new unique bank holiday ID.
func NewBankHolidayID() ID { return New(PrefixBankHoliday) }

// NewCarePackageID generates a new unique care package ID.
func NewCarePackageID() ID { return New(PrefixCarePackage) }

// NewScheduleID generates a new unique visit schedule slot ID.
func NewScheduleID() ID { return New(PrefixSchedule) }

// NewVisitRecordID generates a new unique care visit record ID.
func NewVisitRecordID() ID { return New(PrefixVisitRecord) }

// NewBillableID generates a new unique billable visit ID.
func NewBillableID() ID { return New(PrefixBillable) }

// NewInvoiceID generates a new unique invoice ID.
func NewInvoiceID() ID { return New(PrefixInvoice) }

// NewInvoiceLineID generates a new unique invoice line ID.
func NewInvoiceLineID() ID { return New(PrefixInvoiceLine) }

// NewCreditNoteID generates a new unique credit note ID.
func NewCreditNoteID() ID { return New(PrefixCreditNote) }

// NewAuditEntryID generates a new unique audit entry ID.
func NewAuditEntryID() ID { return New(PrefixAuditEntry) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseFunderID parses a string and validates the "fndr" prefix.
func ParseFunderID(s string) (ID, error) { return ParseWithPrefix(s, PrefixFunder) }

// ParseRateCardID parses a string and validates the "rate" prefix.
func ParseRateCardID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRateCard) }

// ParseRateLineID parses a string and validates the "rcl" prefix.
func ParseRateLineID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRateLine) }

// ParseMileageRateID parses a string and validates the "mlg" prefix.
func ParseMileageRateID(s string) (ID, error) { return ParseWithPrefix(s, PrefixMileageRate) }

// ParseBankHolidayID parses a string and validates the "hol" prefix.
func ParseBankHolidayID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBankHoliday) }

// ParseCarePackageID parses a string and validates the "cpkg" prefix.
func ParseCarePackageID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCarePackage) }

// ParseScheduleID parses a string and validates the "vsch" prefix.
func ParseScheduleID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSchedule) }

// ParseVisitRecordID parses a string and validates the "vst" prefix.
func ParseVisitRecordID(s string) (ID, error) { return ParseWithPrefix(s, PrefixVisitRecord) }

// ParseBillableID parses a string and validates the "bvst" prefix.
func ParseBillableID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBillable) }

// ParseInvoiceID parses a string and validates the "inv" prefix.
func ParseInvoiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoice) }

// ParseInvoiceLineID parses a string and validates the "invl" prefix.
func ParseInvoiceLineID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoiceLine) }

// ParseCreditNoteID parses a string and validates the "cn" prefix.
func ParseCreditNoteID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCreditNote) }

// ParseAuditEntryID parses a string and validates the "adt" prefix.
func ParseAuditEntryID(s string) (ID, error) { return ParseWithPrefix(s, PrefixAuditEntry) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
