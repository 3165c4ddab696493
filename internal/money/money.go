// Package money handles the fixed-point decimal amount format used by all
// entries: a non-negative decimal string with exactly 8 fractional digits
// (e.g. "1500.00000000"). Amounts are stored and compared in this form;
// floating point is only used transiently for summation and display.
package money

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every stored amount carries.
const Places = 8

var amountPattern = regexp.MustCompile(`^\d+\.\d{8}$`)

// Amount is a fixed-point decimal string with exactly 8 fractional digits.
type Amount string

// Valid reports whether the amount matches the canonical 8-decimal form.
// The pattern has no sign position, so negative amounts never validate.
func (a Amount) Valid() bool {
	return amountPattern.MatchString(string(a))
}

// Decimal parses the amount into an exact decimal value.
func (a Amount) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(a))
	if err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Float64 returns the amount as a float64 for summation and display.
// Malformed amounts yield 0 rather than an error; aggregation treats them
// as absent instead of poisoning a whole month with NaN.
func (a Amount) Float64() float64 {
	d, err := decimal.NewFromString(string(a))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// FromDecimal quantizes a decimal value to the canonical 8-digit form.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount(d.StringFixed(Places))
}

// FromFloat re-quantizes a float to the canonical 8-digit form. This is the
// only sanctioned path from floating point back to a stored amount.
func FromFloat(f float64) Amount {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Normalize parses a free-form decimal string (as typed by a user) and
// returns it quantized to 8 digits. Fails on anything that is not a plain
// non-negative decimal.
func Normalize(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return "", err
	}
	if d.IsNegative() {
		return "", ErrNegativeAmount
	}
	return FromDecimal(d), nil
}
