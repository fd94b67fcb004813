package ratecard

import (
	"testing"
	"time"

	"github.com/xraph/carebill/id"
	"github.com/xraph/carebill/types"
)

func line(day DayType, carers int, pence int64) RateCardLine {
	return RateCardLine{
		ID:             id.NewRateLineID(),
		DayType:        day,
		CarersRequired: carers,
		RatePerHour:    types.GBP(pence),
	}
}

func bandedLine(day DayType, carers int, start, end string, pence int64) RateCardLine {
	s := mustTime(start)
	e := mustTime(end)
	l := line(day, carers, pence)
	l.TimeBandStart = &s
	l.TimeBandEnd = &e
	return l
}

func mustTime(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// standardLines is the lookup table every provider ends up with sooner or
// later: flat day rates plus a weekday double-up line.
func standardLines() []RateCardLine {
	return []RateCardLine{
		line(DayWeekday, 1, 2200),
		line(DaySaturday, 1, 2500),
		line(DaySunday, 1, 2800),
		line(DayBankHoliday, 1, 3300),
		line(DayWeekday, 2, 2200),
	}
}

func TestResolveFlatRates(t *testing.T) {
	lines := standardLines()
	nineAM := mustTime("09:00")

	tests := []struct {
		name    string
		dayType DayType
		carers  int
		want    int64
	}{
		{"Weekday single", DayWeekday, 1, 2200},
		{"Saturday single", DaySaturday, 1, 2500},
		{"Sunday single", DaySunday, 1, 2800},
		{"Bank holiday single", DayBankHoliday, 1, 3300},
		{"Weekday double-up line present", DayWeekday, 2, 2200},
		// No Saturday 2-carer line: the single-carer rate applies.
		{"Saturday double-up falls back", DaySaturday, 2, 2500},
		{"Sunday triple falls back", DaySunday, 3, 2800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(lines, tt.dayType, nineAM, tt.carers)
			if !ok {
				t.Fatalf("expected a match for %s/%d carers", tt.dayType, tt.carers)
			}
			if got.RatePerHour.Amount != tt.want {
				t.Errorf("got %v, want %d pence", got.RatePerHour, tt.want)
			}
		})
	}
}

func TestResolveTimeBands(t *testing.T) {
	lines := []RateCardLine{
		bandedLine(DayWeekday, 1, "06:00", "20:00", 2600),
		bandedLine(DayWeekday, 1, "20:00", "06:00", 3000),
	}

	tests := []struct {
		name string
		at   string
		want int64
	}{
		{"Morning in day band", "09:00", 2600},
		{"Late evening in night band", "22:00", 3000},
		{"Small hours wrap around midnight", "03:00", 3000},
		{"Day band start is inclusive", "06:00", 2600},
		{"Night band start is inclusive", "20:00", 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(lines, DayWeekday, mustTime(tt.at), 1)
			if !ok {
				t.Fatalf("expected a match at %s", tt.at)
			}
			if got.RatePerHour.Amount != tt.want {
				t.Errorf("at %s: got %v, want %d pence", tt.at, got.RatePerHour, tt.want)
			}
		})
	}
}

func TestResolveNoMatch(t *testing.T) {
	lines := standardLines()

	// Nothing configured for a day type at all.
	var sundayOnly []RateCardLine
	for _, l := range lines {
		if l.DayType == DaySunday {
			sundayOnly = append(sundayOnly, l)
		}
	}
	if _, ok := Resolve(sundayOnly, DaySaturday, mustTime("09:00"), 1); ok {
		t.Error("expected no match for a day type with no lines")
	}

	if _, ok := Resolve(nil, DayWeekday, mustTime("09:00"), 1); ok {
		t.Error("expected no match for an empty table")
	}
}

func TestResolveAllDayFallbackWithinGroup(t *testing.T) {
	// A banded evening line plus an all-day catch-all: a morning visit
	// misses the band and lands on the all-day line.
	lines := []RateCardLine{
		bandedLine(DayWeekday, 1, "20:00", "23:00", 3000),
		line(DayWeekday, 1, 2200),
	}
	got, ok := Resolve(lines, DayWeekday, mustTime("09:00"), 1)
	if !ok {
		t.Fatal("expected a match")
	}
	if got.RatePerHour.Amount != 2200 {
		t.Errorf("got %v, want the all-day rate", got.RatePerHour)
	}
}

func TestBandContainsWrap(t *testing.T) {
	l := bandedLine(DayWeekday, 1, "20:00", "06:00", 3000)

	tests := []struct {
		at   string
		want bool
	}{
		{"20:00", true},
		{"23:59", true},
		{"00:00", true},
		{"05:59", true},
		{"06:00", false},
		{"12:00", false},
		{"19:59", false},
	}
	for _, tt := range tests {
		if got := l.BandContains(mustTime(tt.at)); got != tt.want {
			t.Errorf("BandContains(%s) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestDayTypeFor(t *testing.T) {
	// 2026-01-01 is a Thursday and an English bank holiday.
	holidays := NewHolidaySet([]BankHoliday{
		{ID: id.NewBankHolidayID(), Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Region: "england-and-wales", Name: "New Year's Day"},
	})

	tests := []struct {
		name string
		date time.Time
		want DayType
	}{
		{"Bank holiday overrides weekday", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), DayBankHoliday},
		{"Plain Friday", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), DayWeekday},
		{"Saturday", time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), DaySaturday},
		{"Sunday", time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), DaySunday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayTypeFor(tt.date, holidays); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseDayType(t *testing.T) {
	// Parsing is case-insensitive and trims whitespace, like the other
	// enum parsers.
	got, err := ParseDayType("BANK_HOLIDAY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DayBankHoliday {
		t.Errorf("got %s, want %s", got, DayBankHoliday)
	}
	got, err = ParseDayType(" Saturday ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DaySaturday {
		t.Errorf("got %s, want %s", got, DaySaturday)
	}
	if _, err := ParseDayType("someday"); err == nil {
		t.Error("expected rejection of unknown day type")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("15:04")
	if err != nil {
		t.Fatal(err)
	}
	if int(got) != 15*60+4 {
		t.Errorf("got %d, want %d", got, 15*60+4)
	}
	if got.String() != "15:04" {
		t.Errorf("String: got %s", got.String())
	}
	if _, err := ParseTimeOfDay("25:00"); err == nil {
		t.Error("expected error for invalid hour")
	}
}

func TestDuplicate(t *testing.T) {
	card := &RateCard{
		Entity:         types.NewEntity(),
		ID:             id.NewRateCardID(),
		OrganisationID: "org-a",
		Name:           "Standard 2025",
		EffectiveFrom:  time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Lines:          standardLines(),
		MileageRates: []MileageRate{
			{ID: id.NewMileageRateID(), RatePerMile: types.Pence(45)},
		},
	}

	dup := card.Duplicate("Standard 2026", time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))

	if dup.ID == card.ID {
		t.Error("duplicate must get a fresh ID")
	}
	if len(dup.Lines) != len(card.Lines) {
		t.Fatalf("got %d lines, want %d", len(dup.Lines), len(card.Lines))
	}
	for i := range dup.Lines {
		if dup.Lines[i].ID == card.Lines[i].ID {
			t.Error("duplicated lines must get fresh IDs")
		}
		if dup.Lines[i].RateCardID != dup.ID {
			t.Error("duplicated lines must point at the new card")
		}
		if !dup.Lines[i].RatePerHour.Equal(card.Lines[i].RatePerHour) {
			t.Error("duplicated lines must carry the same rates")
		}
	}
	if dup.MileageRates[0].RateCardID != dup.ID {
		t.Error("duplicated mileage rates must point at the new card")
	}
}
