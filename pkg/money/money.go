// Package money centralizes decimal arithmetic for the billing engine.
// Every monetary or quantity computation goes through this package so the
// whole engine shares one precision and rounding policy.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places results are rounded to.
const Scale = 10

var ErrDivisionByZero = errors.New("division_by_zero")

var (
	Zero = decimal.Zero
	One  = decimal.NewFromInt(1)
)

func FromInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func MustParse(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func Add(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b)
}

func Sub(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b)
}

func Mul(a, b decimal.Decimal) decimal.Decimal {
	return a.Mul(b)
}

// Div divides a by b. A zero divisor is a fatal input error; silently
// producing NaN or infinity would corrupt a monetary result downstream.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return a.DivRound(b, Scale+6), nil
}

func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// NonNegative clamps v at zero.
func NonNegative(v decimal.Decimal) decimal.Decimal {
	return Max(v, decimal.Zero)
}

// CeilToMultiple rounds v up to the nearest multiple of unit. Callers must
// pass a positive unit; a non-positive unit leaves v unchanged.
func CeilToMultiple(v, unit decimal.Decimal) decimal.Decimal {
	if !unit.IsPositive() {
		return v
	}
	quotient := v.Div(unit)
	return quotient.Ceil().Mul(unit)
}

// Round rounds v to the engine-wide scale.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(Scale)
}

// RoundTo rounds v to the given number of places.
func RoundTo(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

// Sum reduces a sequence of decimals, returning zero for an empty input.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
