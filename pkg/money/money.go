// Package money provides a fixed-point monetary amount with four fractional digits.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 4

var (
	// ErrPrecision is returned when a value has more fractional digits than Scale.
	ErrPrecision = errors.New("amount has more than 4 fractional digits")
	// ErrOutOfRange is returned when a value does not fit into an Amount.
	ErrOutOfRange = errors.New("amount out of range")

	maxUnits = decimal.NewFromInt(math.MaxInt64)
	minUnits = decimal.NewFromInt(math.MinInt64)
)

// Amount is a monetary value stored as an integer count of 10^-4 units.
// Addition and subtraction are exact.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse reads a base-10 amount such as "1.5" or "-0.0001". It never rounds:
// inputs with more than Scale fractional digits are rejected.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	a, err := FromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return a, nil
}

// MustParse is like Parse but panics on error. Intended for fixtures.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromDecimal converts d to an Amount without rounding.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return 0, ErrPrecision
	}
	units := d.Shift(Scale)
	if units.GreaterThan(maxUnits) || units.LessThan(minUnits) {
		return 0, ErrOutOfRange
	}
	return Amount(units.IntPart()), nil
}

// Decimal returns the amount as a decimal.Decimal with exponent -Scale.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the amount with exactly Scale fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

func (a Amount) Add(b Amount) Amount { return a + b }

func (a Amount) Sub(b Amount) Amount { return a - b }

// CheckedAdd returns a+b, or ErrOutOfRange if the sum does not fit in an Amount.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOutOfRange
	}
	return sum, nil
}

// CheckedSub returns a-b, or ErrOutOfRange if the difference does not fit in an Amount.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, ErrOutOfRange
	}
	return diff, nil
}

func (a Amount) IsNegative() bool { return a < 0 }

// NullAmount is an Amount that may be absent, in the manner of sql.NullInt64.
type NullAmount struct {
	Amount Amount
	Valid  bool
}

// Some wraps a present amount.
func Some(a Amount) NullAmount {
	return NullAmount{Amount: a, Valid: true}
}

// None is the absent amount.
var None = NullAmount{}

func (n NullAmount) String() string {
	if !n.Valid {
		return "<none>"
	}
	return n.Amount.String()
}
