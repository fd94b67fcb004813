package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"GBP", GBP(2200), 2200, "gbp", "£22.00"},
		{"Pence", Pence(45), 45, "gbp", "£0.45"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"Zero GBP", Zero("GBP"), 0, "gbp", "£0.00"},
		{"ZeroGBP", ZeroGBP(), 0, "gbp", "£0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestParseGBP(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"WholePounds", "22.00", 2200, false},
		{"OneDecimal", "22.5", 2250, false},
		{"NoDecimal", "33", 3300, false},
		{"SubPound", "0.45", 45, false},
		{"Whitespace", " 28.00 ", 2800, false},
		{"Negative", "-5.00", -500, false},
		{"TooManyPlaces", "22.005", 0, true},
		{"NotANumber", "twenty-two", 0, true},
		{"Empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGBP(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Amount != tt.want {
				t.Errorf("got %d pence, want %d", got.Amount, tt.want)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return GBP(100).Add(GBP(200)) }, GBP(300)},
		{"Subtract", func() Money { return GBP(500).Subtract(GBP(200)) }, GBP(300)},
		{"Multiply", func() Money { return GBP(100).Multiply(3) }, GBP(300)},
		{"Negate", func() Money { return GBP(100).Negate() }, GBP(-100)},
		{"Abs positive", func() Money { return GBP(100).Abs() }, GBP(100)},
		{"Abs negative", func() Money { return GBP(-100).Abs() }, GBP(100)},
		{"Complex", func() Money {
			return GBP(1000).Add(GBP(500)).Multiply(2).Subtract(GBP(1000))
		}, GBP(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestRateTotal(t *testing.T) {
	tests := []struct {
		name    string
		rate    Money
		minutes int
		carers  int
		want    Money
	}{
		{"OneHourOneCarer", GBP(2200), 60, 1, GBP(2200)},
		{"FortyFiveMinutes", GBP(2200), 45, 1, GBP(1650)},
		{"FifteenMinutes", GBP(2200), 15, 1, GBP(550)},
		{"TwoCarers", GBP(2200), 45, 2, GBP(3300)},
		{"SundayRate", GBP(2800), 30, 1, GBP(1400)},
		{"BankHoliday90Min", GBP(3300), 90, 1, GBP(4950)},
		// 22 minutes at £26.00 = 2600*22/60 = 953.33 -> 953 pence
		{"RoundsHalfAway", GBP(2600), 22, 1, GBP(953)},
		{"ZeroMinutes", GBP(2200), 0, 1, GBP(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateTotal(tt.rate, tt.minutes, tt.carers)
			if !got.Equal(tt.want) {
				t.Errorf("RateTotal(%v, %d, %d) = %v, want %v",
					tt.rate, tt.minutes, tt.carers, got, tt.want)
			}
		})
	}
}

func TestMulDecimal(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		qty   string
		want  Money
	}{
		{"WholeMiles", Pence(45), "10", GBP(450)},
		{"FractionalMiles", Pence(45), "12.6", GBP(567)},
		// 45 * 3.5 = 157.5 -> 158 (half away from zero)
		{"HalfPennyUp", Pence(45), "3.5", GBP(158)},
		{"ZeroMiles", Pence(45), "0", GBP(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty, err := decimal.NewFromString(tt.qty)
			if err != nil {
				t.Fatal(err)
			}
			got := tt.money.MulDecimal(qty)
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = GBP(100).Add(EUR(100))
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", GBP(100), GBP(100), false, false, true},
		{"Less", GBP(50), GBP(100), true, false, false},
		{"Greater", GBP(200), GBP(100), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestSum(t *testing.T) {
	got := Sum(GBP(1650), GBP(550), GBP(567))
	if !got.Equal(GBP(2767)) {
		t.Errorf("Sum: got %v, want %v", got, GBP(2767))
	}

	if !Sum().Equal(ZeroGBP()) {
		t.Error("empty Sum should be zero GBP")
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	m := GBP(2767)
	if got := m.Decimal().String(); got != "27.67" {
		t.Errorf("Decimal: got %s, want 27.67", got)
	}
	if back := FromDecimal(m.Decimal(), "gbp"); !back.Equal(m) {
		t.Errorf("FromDecimal round trip: got %v, want %v", back, m)
	}
}
