package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/carebill/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"FunderID", id.NewFunderID, "fndr_"},
		{"RateCardID", id.NewRateCardID, "rate_"},
		{"RateLineID", id.NewRateLineID, "rcl_"},
		{"MileageRateID", id.NewMileageRateID, "mlg_"},
		{"BankHolidayID", id.NewBankHolidayID, "hol_"},
		{"CarePackageID", id.NewCarePackageID, "cpkg_"},
		{"ScheduleID", id.NewScheduleID, "vsch_"},
		{"VisitRecordID", id.NewVisitRecordID, "vst_"},
		{"BillableID", id.NewBillableID, "bvst_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
		{"InvoiceLineID", id.NewInvoiceLineID, "invl_"},
		{"CreditNoteID", id.NewCreditNoteID, "cn_"},
		{"AuditEntryID", id.NewAuditEntryID, "adt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixBillable)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixBillable {
		t.Errorf("expected prefix %q, got %q", id.PrefixBillable, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"FunderID", id.NewFunderID, id.ParseFunderID},
		{"RateCardID", id.NewRateCardID, id.ParseRateCardID},
		{"CarePackageID", id.NewCarePackageID, id.ParseCarePackageID},
		{"VisitRecordID", id.NewVisitRecordID, id.ParseVisitRecordID},
		{"BillableID", id.NewBillableID, id.ParseBillableID},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID},
		{"InvoiceLineID", id.NewInvoiceLineID, id.ParseInvoiceLineID},
		{"CreditNoteID", id.NewCreditNoteID, id.ParseCreditNoteID},
		{"AuditEntryID", id.NewAuditEntryID, id.ParseAuditEntryID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round trip mismatch: got %q, want %q", parsed, original)
			}
		})
	}
}

func TestParseWrongPrefix(t *testing.T) {
	invID := id.NewInvoiceID()
	if _, err := id.ParseBillableID(invID.String()); err == nil {
		t.Error("expected error parsing an invoice ID as a billable visit ID")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []string{"", "not-a-typeid", "inv_!!!"}
	for _, s := range tests {
		if _, err := id.Parse(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID
	if !nilID.IsNil() {
		t.Error("zero value should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil ID String should be empty, got %q", nilID.String())
	}

	v, err := nilID.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != nil {
		t.Errorf("nil ID should store NULL, got %v", v)
	}
}

func TestScan(t *testing.T) {
	original := id.NewInvoiceID()

	var fromString id.ID
	if err := fromString.Scan(original.String()); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if fromString.String() != original.String() {
		t.Errorf("scan string mismatch: got %q, want %q", fromString, original)
	}

	var fromBytes id.ID
	if err := fromBytes.Scan([]byte(original.String())); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if fromBytes.String() != original.String() {
		t.Errorf("scan bytes mismatch: got %q, want %q", fromBytes, original)
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !fromNil.IsNil() {
		t.Error("scanning nil should produce the nil ID")
	}

	var fromInt id.ID
	if err := fromInt.Scan(42); err == nil {
		t.Error("expected error scanning an int")
	}
}
