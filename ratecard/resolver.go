package ratecard

// Resolve picks the rate line applicable to a visit. It is a pure function:
// no I/O, no side effects.
//
// Lines are first filtered to the day type. Carer counts are then tried in
// order [carersRequired, 1] (just [1] when carersRequired is 1): when no
// line exists for the exact carer count the single-carer rate applies.
// That fallback is a commercial default — a double-up visit without a
// negotiated double-up rate bills each carer at the standard rate — and
// must be preserved.
//
// Within a carer-count group, banded lines win on clock-time containment
// (see RateCardLine.BandContains for the overnight wrap rule); a group
// with no banded line yields its first all-day line unconditionally. The
// second return value is false only when no carer-count group yields a hit.
func Resolve(lines []RateCardLine, dayType DayType, at TimeOfDay, carersRequired int) (RateCardLine, bool) {
	order := []int{carersRequired}
	if carersRequired != 1 {
		order = append(order, 1)
	}

	for _, carers := range order {
		var group []RateCardLine
		for _, l := range lines {
			if l.DayType == dayType && l.CarersRequired == carers {
				group = append(group, l)
			}
		}
		if len(group) == 0 {
			continue
		}

		banded := false
		for _, l := range group {
			if l.HasTimeBand() {
				banded = true
				break
			}
		}

		if !banded {
			return group[0], true
		}

		for _, l := range group {
			if l.BandContains(at) {
				return l, true
			}
		}
		// Bands declared but none contains the time: an all-day line in the
		// same group still applies before falling back to the next carer count.
		for _, l := range group {
			if !l.HasTimeBand() {
				return l, true
			}
		}
	}

	return RateCardLine{}, false
}
