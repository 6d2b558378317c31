package analysis

import (
	"fmt"

	"quote-charts/src/helpers"
	"quote-charts/src/models"
)

// Intraday charts aim for about this many axis labels
const intradayLabelCount = 6

// -----------------------------------------------------------------------------

// ParseRange resolves a range key against the configured ranges
func ParseRange(ranges []models.MRange, key string) (models.MRange, error) {
	for _, r := range ranges {
		if r.Key == key {
			return r, nil
		}
	}
	return models.MRange{}, fmt.Errorf("%w: %q", helpers.ErrUnknownRange, key)
}

// -----------------------------------------------------------------------------

// Project turns the stored series of ticker into display points for rng.
// Intraday ranges read the whole intraday buffer; daily ranges read the last
// rng.Days bars. An unknown ticker or empty source gives an empty slice.
func Project(snap *models.MStoreSnapshot, ticker string, rng models.MRange, chartWidth int) []models.MProjectedPoint {
	points := []models.MProjectedPoint{}
	if snap == nil {
		return points
	}
	series, ok := snap.Series[ticker]
	if !ok {
		return points
	}

	if rng.IsIntraday() {
		return projectIntraday(series.Intraday, chartWidth)
	}
	return projectDaily(series.Daily, rng, chartWidth)
}

// -----------------------------------------------------------------------------

func projectIntraday(source []models.MIntradayPoint, chartWidth int) []models.MProjectedPoint {
	count := len(source)
	points := make([]models.MProjectedPoint, 0, count)
	if count == 0 {
		return points
	}

	spacing := pointSpacing(chartWidth, count)
	stride := max(1, count/intradayLabelCount)

	for i, p := range source {
		point := models.MProjectedPoint{Value: p.Price, Spacing: spacing}
		if i%stride == 0 {
			point.Label = p.RenderedTime
			point.HasLabel = true
		}
		points = append(points, point)
	}
	return points
}

// -----------------------------------------------------------------------------

func projectDaily(source []models.MDailyBar, rng models.MRange, chartWidth int) []models.MProjectedPoint {
	window := source
	if rng.Days > 0 && len(window) > rng.Days {
		window = window[len(window)-rng.Days:]
	}

	count := len(window)
	points := make([]models.MProjectedPoint, 0, count)
	if count == 0 {
		return points
	}

	spacing := pointSpacing(chartWidth, count)
	stride := max(1, rng.LabelStride)

	for i, bar := range window {
		point := models.MProjectedPoint{Value: bar.Close, Spacing: spacing}
		if i%stride == 0 {
			point.Label = bar.Date.Format(models.DailyLabelLayout)
			point.HasLabel = true
		}
		points = append(points, point)
	}
	return points
}

// -----------------------------------------------------------------------------

func pointSpacing(chartWidth, count int) int {
	if count <= 0 {
		return 1
	}
	return max(1, chartWidth/count)
}
