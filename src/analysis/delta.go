package analysis

import (
	"quote-charts/src/analysis/core"
	"quote-charts/src/models"

	"github.com/shopspring/decimal"
)

// Delta computes the first-to-last change of a projected series.
// ok is false when the series has fewer than two points.
func Delta(series []models.MProjectedPoint) (delta models.MDelta, ok bool) {
	if len(series) < 2 {
		return models.MDelta{}, false
	}

	first := series[0].Value
	last := series[len(series)-1].Value

	change := core.CalculateChange(first, last)
	delta = models.MDelta{
		Absolute:   change.Round(core.PricePlaces),
		IsPositive: change.Sign() >= 0,
	}
	if pct, valid := core.CalculateChangePercent(change, first); valid {
		delta.Percent = decimal.NullDecimal{Decimal: pct, Valid: true}
	}
	return delta, true
}
