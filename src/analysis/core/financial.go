package core

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PricePlaces is the number of decimals shown for price changes
const PricePlaces = 2

// -----------------------------------------------------------------------------

// CalculateChange returns last - first, unrounded.
func CalculateChange(first, last decimal.Decimal) decimal.Decimal {
	return last.Sub(first)
}

// -----------------------------------------------------------------------------

// CalculateChangePercent returns change / previous * 100 rounded to two
// places. ok is false when previous is zero.
func CalculateChangePercent(change, previous decimal.Decimal) (pct decimal.Decimal, ok bool) {
	if previous.IsZero() {
		return decimal.Zero, false
	}
	return change.Div(previous).Mul(hundred).Round(PricePlaces), true
}
