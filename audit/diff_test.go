package audit

import (
	"testing"
)

type sample struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	Note   string `json:"note,omitempty"`
}

func TestDiffUpdate(t *testing.T) {
	before := sample{Name: "Standard", Amount: 2200}
	after := sample{Name: "Standard", Amount: 2500, Note: "uplift"}

	changes, err := Diff(before, after)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2: %v", len(changes), changes)
	}

	amount, ok := changes["amount"]
	if !ok {
		t.Fatal("expected an amount change")
	}
	// json round-trips numbers as float64.
	if amount.From != float64(2200) || amount.To != float64(2500) {
		t.Errorf("amount change: %+v", amount)
	}

	note, ok := changes["note"]
	if !ok {
		t.Fatal("expected a note change")
	}
	if note.From != nil || note.To != "uplift" {
		t.Errorf("note change: %+v", note)
	}

	if _, ok := changes["name"]; ok {
		t.Error("unchanged field must not appear")
	}
}

func TestDiffCreateAndDelete(t *testing.T) {
	created := sample{Name: "Standard", Amount: 2200}

	changes, err := Diff(nil, created)
	if err != nil {
		t.Fatal(err)
	}
	if changes["name"].To != "Standard" || changes["name"].From != nil {
		t.Errorf("create diff: %+v", changes["name"])
	}

	changes, err = Diff(created, nil)
	if err != nil {
		t.Fatal(err)
	}
	if changes["name"].From != "Standard" || changes["name"].To != nil {
		t.Errorf("delete diff: %+v", changes["name"])
	}
}

func TestDiffNoChanges(t *testing.T) {
	s := sample{Name: "Standard", Amount: 2200}
	changes, err := Diff(s, s)
	if err != nil {
		t.Fatal(err)
	}
	if changes != nil {
		t.Errorf("identical snapshots must diff to nil, got %v", changes)
	}
}
