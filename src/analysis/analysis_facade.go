package analysis

import (
	"quote-charts/src/interfaces"
	"quote-charts/src/logger"
	"quote-charts/src/models"
)

// AnalysisFacade answers chart queries from the current store state.
type AnalysisFacade struct {
	Store        interfaces.ISeriesReader
	Ranges       []models.MRange
	DefaultRange string
	ChartWidth   int
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAnalysisFacade(cfg *models.MConfig, store interfaces.ISeriesReader, log *logger.Logger) *AnalysisFacade {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &AnalysisFacade{
		Store:        store,
		Ranges:       cfg.Chart.Ranges,
		DefaultRange: cfg.Chart.DefaultRange,
		ChartWidth:   cfg.Chart.Width,
		Logger:       log,
	}
}

// -----------------------------------------------------------------------------

// Chart projects ticker over the range named rangeKey ("" selects the
// default range). width <= 0 uses the configured chart width. Unknown range
// keys return an error wrapping helpers.ErrUnknownRange.
func (a *AnalysisFacade) Chart(ticker, rangeKey string, width int) (*models.MChart, error) {
	if rangeKey == "" {
		rangeKey = a.DefaultRange
	}
	rng, err := ParseRange(a.Ranges, rangeKey)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		width = a.ChartWidth
	}

	snap := a.Store.Snapshot()
	points := Project(snap, ticker, rng, width)

	chart := &models.MChart{Ticker: ticker, Range: rng, Points: points}
	if delta, ok := Delta(points); ok {
		chart.Delta = &delta
	}

	a.Logger.Debug("Projected %s over %s: %d points", ticker, rng.Key, len(points))
	return chart, nil
}
