// Package types provides common types used across CareBill.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value in the smallest currency unit.
// All arithmetic is integer-only — no binary floating point ever touches
// a money or rate field.
//
// Examples:
//   - GBP(2200) = £22.00 (2200 pence), a typical weekday hourly rate
//   - Pence(45) = £0.45, a typical per-mile rate
type Money struct {
	Amount   int64  `json:"amount"`   // Smallest unit (pence, cents, etc)
	Currency string `json:"currency"` // ISO 4217 lowercase: "gbp", "usd", "eur"
}

// Common currency constructors

// GBP creates a Money value in British Pounds (pence).
func GBP(pence int64) Money { return Money{Amount: pence, Currency: "gbp"} }

// Pence is an alias for GBP, reading better for sub-pound values.
func Pence(pence int64) Money { return GBP(pence) }

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// EUR creates a Money value in Euros (cents).
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: 0, Currency: strings.ToLower(currency)} }

// ZeroGBP returns £0.00.
func ZeroGBP() Money { return GBP(0) }

// ParseGBP parses a major-unit decimal string such as "22.00" or "22.5"
// into Money. This is the boundary for rate ingestion: string inputs are
// parsed and validated here, never cast. Returns an error for malformed
// input or more than two decimal places.
func ParseGBP(s string) (Money, error) {
	return ParseMajor(s, "gbp")
}

// ParseMajor parses a major-unit decimal string in the given currency.
func ParseMajor(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	decimals := currencyDecimals(currency)
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return Money{}, fmt.Errorf("money: parse %q: more than %d decimal places", s, decimals)
	}
	return Money{Amount: scaled.IntPart(), Currency: strings.ToLower(currency)}, nil
}

// FromDecimal converts a major-unit decimal value to Money, rounding
// half away from zero at the smallest unit.
func FromDecimal(d decimal.Decimal, currency string) Money {
	decimals := currencyDecimals(currency)
	return Money{
		Amount:   d.Shift(int32(decimals)).Round(0).IntPart(),
		Currency: strings.ToLower(currency),
	}
}

// Decimal returns the major-unit decimal value of this Money.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(currencyDecimals(m.Currency)))
}

// Arithmetic operations

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty, Currency: m.Currency}
}

// MulDecimal multiplies the Money by a decimal quantity (miles, fractional
// units), rounding half away from zero at the smallest unit.
func (m Money) MulDecimal(qty decimal.Decimal) Money {
	amt := decimal.NewFromInt(m.Amount).Mul(qty).Round(0).IntPart()
	return Money{Amount: amt, Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount, Currency: m.Currency}
	}
	return m
}

// RateTotal computes the charge for a visit billed at an hourly rate:
// minutes/60 * rate * carers, entirely in integer minor units. The single
// division by 60 happens last and rounds half away from zero, so a 45-minute
// visit at £22.00/hour with 2 carers is exactly £33.00 with no drift.
func RateTotal(ratePerHour Money, minutes, carers int) Money {
	n := ratePerHour.Amount * int64(minutes) * int64(carers)
	var amt int64
	if n >= 0 {
		amt = (n + 30) / 60
	} else {
		amt = (n - 30) / 60
	}
	return Money{Amount: amt, Currency: ratePerHour.Currency}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other. Panics if currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount > other.Amount
}

// Min returns the smaller of two Money values. Panics if currencies don't match.
func (m Money) Min(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount < other.Amount {
		return m
	}
	return other
}

// Max returns the larger of two Money values. Panics if currencies don't match.
func (m Money) Max(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount > other.Amount {
		return m
	}
	return other
}

// Formatting methods

// FormatMajor returns the major unit string without currency symbol.
// For currencies with 2 decimal places: "22.00" for GBP(2200).
func (m Money) FormatMajor() string {
	decimals := currencyDecimals(m.Currency)
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	divisor := int64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	// Handle sign separately
	isNegative := m.Amount < 0
	absAmount := m.Amount
	if isNegative {
		absAmount = -absAmount
	}

	major := absAmount / divisor
	minor := absAmount % divisor

	format := fmt.Sprintf("%%d.%%0%dd", decimals)
	result := fmt.Sprintf(format, major, minor)

	if isNegative {
		return "-" + result
	}
	return result
}

// String returns a human-readable string with currency symbol.
// Examples: "£22.00", "$49.00", "€199.00"
func (m Money) String() string {
	symbol := currencySymbol(m.Currency)
	return symbol + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// currencySymbol returns the symbol for a currency code.
func currencySymbol(currency string) string {
	symbols := map[string]string{
		"gbp": "£",
		"usd": "$",
		"eur": "€",
		"jpy": "¥",
		"cad": "C$",
		"aud": "A$",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// currencyDecimals returns the number of decimal places for a currency.
func currencyDecimals(currency string) int {
	// Currencies with 0 decimal places
	zeroDecimal := map[string]bool{
		"jpy": true, // Japanese Yen
		"krw": true, // Korean Won
		"vnd": true, // Vietnamese Dong
	}
	if zeroDecimal[strings.ToLower(currency)] {
		return 0
	}
	// Most currencies have 2 decimal places
	return 2
}

// Sum calculates the sum of multiple Money values. All must have the same currency.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero("gbp")
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
