package visit

import (
	"testing"
	"time"
)

func TestBillableMinutes(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		duration  time.Duration
		minimum   int
		increment int
		want      int
	}{
		{"Exact increment stays put", 15 * time.Minute, 15, 15, 15},
		{"Partial block rounds up", 22 * time.Minute, 15, 15, 30},
		{"Below minimum floors to minimum", 8 * time.Minute, 15, 15, 15},
		{"Whole hour stays whole", 60 * time.Minute, 15, 15, 60},
		{"Just over two blocks", 31 * time.Minute, 15, 15, 45},
		{"Half-hour increment rounds up", 31 * time.Minute, 15, 30, 60},
		{"Minimum then increment", 5 * time.Minute, 15, 30, 30},
		{"Zero duration bills the minimum", 0, 15, 15, 15},
		{"No increment rounds seconds up to minutes", 10*time.Minute + 30*time.Second, 0, 0, 11},
		{"No increment, no minimum, exact", 45 * time.Minute, 0, 0, 45},
		{"Seconds spill into the next block", 15*time.Minute + 1*time.Second, 0, 15, 30},
		{"No rules at all", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BillableMinutes(base, base.Add(tt.duration), tt.minimum, tt.increment)
			if got != tt.want {
				t.Errorf("BillableMinutes(%v, min=%d, inc=%d) = %d, want %d",
					tt.duration, tt.minimum, tt.increment, got, tt.want)
			}
		})
	}
}

func TestBillableMinutesInvertedWindow(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// An end before the start clamps to zero duration, then the minimum
	// applies.
	if got := BillableMinutes(base, base.Add(-10*time.Minute), 15, 15); got != 15 {
		t.Errorf("inverted window: got %d, want 15", got)
	}
	if got := BillableMinutes(base, base.Add(-10*time.Minute), 0, 0); got != 0 {
		t.Errorf("inverted window without minimum: got %d, want 0", got)
	}
}
