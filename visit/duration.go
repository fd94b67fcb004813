package visit

import "time"

// BillableMinutes computes the billable duration of a visit from its
// billing window and the package's duration rules.
//
// The raw duration is taken at second precision, clamped at zero for
// inverted windows, floored to minimumMinutes, then rounded UP: to whole
// minutes when roundingIncrement is zero, otherwise to the next multiple
// of roundingIncrement. Rounding is always up, never to-nearest; partial
// blocks bill as full blocks.
func BillableMinutes(start, end time.Time, minimumMinutes, roundingIncrement int) int {
	secs := int64(end.Sub(start) / time.Second)
	if secs < 0 {
		secs = 0
	}
	if minSecs := int64(minimumMinutes) * 60; secs < minSecs {
		secs = minSecs
	}
	if roundingIncrement <= 0 {
		return int((secs + 59) / 60)
	}
	incSecs := int64(roundingIncrement) * 60
	blocks := (secs + incSecs - 1) / incSecs
	return int(blocks) * roundingIncrement
}
