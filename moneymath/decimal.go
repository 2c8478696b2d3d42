// Package moneymath provides the fixed-precision decimal helpers used for
// every price and size in the matching engine. No quantity that is
// persisted or compared is ever represented as a binary float.
package moneymath

import (
	"github.com/shopspring/decimal"
)

// Decimal is the exact, arbitrary-precision rational used throughout the
// engine for prices and sizes.
type Decimal = decimal.Decimal

var (
	zero    = decimal.Zero
	one     = decimal.NewFromInt(1)
	half    = decimal.NewFromFloat(0.5)
)

// Zero returns the additive identity.
func Zero() Decimal { return zero }

// One returns the multiplicative identity, the maximum well-formed price.
func One() Decimal { return one }

// Half is the default last-price published for a side with an empty book.
func Half() Decimal { return half }

// FromString parses a decimal string. Addition, subtraction and
// multiplication on the resulting value are exact; division (used only
// by WeightedAverage) rounds to shopspring's DivisionPrecision.
func FromString(s string) (Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString panics on malformed input; only safe for constants.
func MustFromString(s string) Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Min returns the lesser of a and b under exact comparison.
func Min(a, b Decimal) Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the greater of a and b under exact comparison.
func Max(a, b Decimal) Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds every element of ds without any intermediate rounding.
func Sum(ds ...Decimal) Decimal {
	total := zero
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}

// InUnitInterval reports whether d is in [0, 1], the well-formed range for
// a binary-market price.
func InUnitInterval(d Decimal) bool {
	return d.GreaterThanOrEqual(zero) && d.LessThanOrEqual(one)
}

// IsNonNegative reports whether d is >= 0, the well-formed range for a size.
func IsNonNegative(d Decimal) bool {
	return d.GreaterThanOrEqual(zero)
}

// WeightedAverage combines an existing (shares, avg) position with a
// signed delta of shares transacted at price into a new weighted-average
// price. delta may be negative (a reducing or short-building fill). The
// caller must skip this call when shares+delta is exactly zero (see
// market.Position.ApplyFill) since the result would divide by zero.
func WeightedAverage(shares, avg, delta, price Decimal) Decimal {
	existingNotional := shares.Mul(avg)
	incomingNotional := delta.Mul(price)
	combinedShares := shares.Add(delta)
	return existingNotional.Add(incomingNotional).Div(combinedShares)
}
