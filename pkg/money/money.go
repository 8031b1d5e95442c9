// Package money holds the decimal helpers used for every monetary amount.
// Amounts travel as decimal.Decimal in major units and are persisted as
// integer minor units (cents).
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnits is the number of decimal places kept for stored amounts.
const MinorUnits = 2

// MaxPriceCents caps a single listing price ($10,000,000.00).
const MaxPriceCents int64 = 1_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// FromCents converts integer minor units into a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-MinorUnits)
}

// ToCents converts an amount into minor units. It fails when the amount
// carries sub-cent precision or does not fit in int64 cents, so callers
// never lose money silently.
func ToCents(amount decimal.Decimal) (int64, error) {
	if !IsMinorPrecision(amount) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", amount, MinorUnits)
	}
	if !Representable(amount) {
		return 0, fmt.Errorf("amount %s exceeds the storable range", amount)
	}
	return amount.Shift(MinorUnits).IntPart(), nil
}

// Representable reports whether amount fits in int64 minor units.
func Representable(amount decimal.Decimal) bool {
	shifted := amount.Shift(MinorUnits)
	return shifted.LessThanOrEqual(maxCents) && shifted.GreaterThanOrEqual(minCents)
}

// IsMinorPrecision reports whether amount has at most MinorUnits decimals.
func IsMinorPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MinorUnits))
}

// Round rounds half away from zero to minor units.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MinorUnits)
}

// Percent returns amount * rate / 100 without rounding.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred)
}

// ValidRate reports whether rate is a percentage in [0, 100].
func ValidRate(rate decimal.Decimal) bool {
	return !rate.IsNegative() && rate.LessThanOrEqual(hundred)
}

// FormatRate renders an optional rate for numeric(5,2) columns.
func FormatRate(rate *decimal.Decimal) *string {
	if rate == nil {
		return nil
	}
	s := rate.StringFixed(MinorUnits)
	return &s
}

// ParseRate reads an optional rate column. A nil column yields a nil rate.
func ParseRate(raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	rate, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", *raw, err)
	}
	return &rate, nil
}
