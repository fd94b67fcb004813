// Package ratecard models funder rate tables and resolves the hourly rate
// applicable to a visit from its day type, clock time and carer count.
package ratecard

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

// DayType classifies a calendar date for rate purposes.
type DayType string

const (
	DayWeekday     DayType = "weekday"
	DaySaturday    DayType = "saturday"
	DaySunday      DayType = "sunday"
	DayBankHoliday DayType = "bank_holiday"
)

// ParseDayType validates a string day type at the boundary and returns a
// typed value or a typed rejection. String inputs are never cast straight
// into the enum.
func ParseDayType(s string) (DayType, error) {
	switch DayType(strings.ToLower(strings.TrimSpace(s))) {
	case DayWeekday:
		return DayWeekday, nil
	case DaySaturday:
		return DaySaturday, nil
	case DaySunday:
		return DaySunday, nil
	case DayBankHoliday:
		return DayBankHoliday, nil
	default:
		return "", fmt.Errorf("ratecard: unknown day type %q", s)
	}
}

// HolidaySet is a lookup of bank-holiday dates, keyed yyyy-mm-dd.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a HolidaySet from bank holiday entries.
func NewHolidaySet(holidays []BankHoliday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[h.Date.Format("2006-01-02")] = struct{}{}
	}
	return set
}

// Contains reports whether the given date is a bank holiday.
func (s HolidaySet) Contains(date time.Time) bool {
	_, ok := s[date.Format("2006-01-02")]
	return ok
}

// DayTypeFor classifies a date. A bank holiday overrides the weekday or
// weekend classification the calendar would otherwise give.
func DayTypeFor(date time.Time, holidays HolidaySet) DayType {
	if holidays.Contains(date) {
		return DayBankHoliday
	}
	switch date.Weekday() {
	case time.Saturday:
		return DaySaturday
	case time.Sunday:
		return DaySunday
	default:
		return DayWeekday
	}
}

// TimeOfDay is a clock time expressed as minutes since midnight (0..1439).
type TimeOfDay int

// ParseTimeOfDay parses "15:04"-style clock times.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("ratecard: parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// TimeOfDayFrom extracts the clock-time component of a timestamp.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// String formats the time as "15:04".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// RateCard is a named, dated table of rates, optionally funder-specific.
// Cards are versioned by duplication: once lines have been billed against
// a card it is never mutated, so historical invoices stay reproducible.
type RateCard struct {
	types.Entity
	ID             id.RateCardID  `json:"id"`
	OrganisationID string         `json:"organisation_id"`
	FunderID       id.FunderID    `json:"funder_id,omitempty"` // Nil = applies to any funder
	Name           string         `json:"name"`
	EffectiveFrom  time.Time      `json:"effective_from"`
	EffectiveTo    *time.Time     `json:"effective_to,omitempty"`
	Lines          []RateCardLine `json:"lines"`
	MileageRates   []MileageRate  `json:"mileage_rates,omitempty"`
}

// EffectiveOn reports whether the card covers the given date.
func (c *RateCard) EffectiveOn(date time.Time) bool {
	if date.Before(c.EffectiveFrom) {
		return false
	}
	if c.EffectiveTo != nil && date.After(*c.EffectiveTo) {
		return false
	}
	return true
}

// Duplicate returns a new draft card carrying copies of this card's lines
// and mileage rates, effective from the given date. This is the only
// supported way to "change" a card that has been billed against.
func (c *RateCard) Duplicate(name string, effectiveFrom time.Time) *RateCard {
	dup := &RateCard{
		Entity:         types.NewEntity(),
		ID:             id.NewRateCardID(),
		OrganisationID: c.OrganisationID,
		FunderID:       c.FunderID,
		Name:           name,
		EffectiveFrom:  effectiveFrom,
		Lines:          make([]RateCardLine, len(c.Lines)),
		MileageRates:   make([]MileageRate, len(c.MileageRates)),
	}
	for i, l := range c.Lines {
		l.ID = id.NewRateLineID()
		l.RateCardID = dup.ID
		dup.Lines[i] = l
	}
	for i, m := range c.MileageRates {
		m.ID = id.NewMileageRateID()
		m.RateCardID = dup.ID
		dup.MileageRates[i] = m
	}
	return dup
}

// MileageRateFor returns the card's mileage rate, if any.
func (c *RateCard) MileageRateFor() (types.Money, bool) {
	if len(c.MileageRates) == 0 {
		return types.Money{}, false
	}
	return c.MileageRates[0].RatePerMile, true
}

// RateCardLine is one rate for a (day type, optional time band, carer count)
// combination.
type RateCardLine struct {
	ID             id.RateLineID `json:"id"`
	RateCardID     id.RateCardID `json:"rate_card_id"`
	DayType        DayType       `json:"day_type"`
	TimeBandStart  *TimeOfDay    `json:"time_band_start,omitempty"`
	TimeBandEnd    *TimeOfDay    `json:"time_band_end,omitempty"`
	CarersRequired int           `json:"carers_required"`
	RatePerHour    types.Money   `json:"rate_per_hour"`
}

// HasTimeBand reports whether this line is bounded to a clock-time band.
func (l RateCardLine) HasTimeBand() bool {
	return l.TimeBandStart != nil && l.TimeBandEnd != nil
}

// BandContains reports whether the line's band contains the given clock
// time, applying the wrap-around rule: when start <= end the band is
// [start, end); when start > end it wraps midnight and the band is
// t >= start OR t < end.
func (l RateCardLine) BandContains(t TimeOfDay) bool {
	if !l.HasTimeBand() {
		return false
	}
	start, end := *l.TimeBandStart, *l.TimeBandEnd
	if start <= end {
		return t >= start && t < end
	}
	return t >= start || t < end
}

// Validate checks the line's invariants.
func (l RateCardLine) Validate() error {
	if _, err := ParseDayType(string(l.DayType)); err != nil {
		return err
	}
	if l.RatePerHour.IsNegative() {
		return fmt.Errorf("ratecard: negative rate %s", l.RatePerHour)
	}
	if l.CarersRequired < 1 {
		return fmt.Errorf("ratecard: carers required must be >= 1, got %d", l.CarersRequired)
	}
	if (l.TimeBandStart == nil) != (l.TimeBandEnd == nil) {
		return fmt.Errorf("ratecard: time band must set both start and end")
	}
	return nil
}

// MileageRate is a per-mile rate attached to a rate card.
type MileageRate struct {
	ID          id.MileageRateID `json:"id"`
	RateCardID  id.RateCardID    `json:"rate_card_id"`
	RatePerMile types.Money      `json:"rate_per_mile"`
	Description string           `json:"description,omitempty"`
}

// BankHoliday reclassifies a weekday into DayBankHoliday for rate purposes.
// The calendar is shared reference data, not tenant-scoped.
type BankHoliday struct {
	ID     id.BankHolidayID `json:"id"`
	Date   time.Time        `json:"date"`
	Region string           `json:"region"`
	Name   string           `json:"name,omitempty"`
}
