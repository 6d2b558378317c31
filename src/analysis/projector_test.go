package analysis

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quote-charts/src/config"
	"quote-charts/src/helpers"
	"quote-charts/src/models"
	"quote-charts/src/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeFor(t *testing.T, key string) models.MRange {
	t.Helper()
	rng, err := ParseRange(config.DefaultRanges(), key)
	require.NoError(t, err)
	return rng
}

func dailyBars(n int) []models.MDailyBar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.MDailyBar, n)
	for i := range bars {
		c := decimal.NewFromInt(int64(100 + i))
		bars[i] = models.MDailyBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func seededStore(t *testing.T, bars int) *store.SeriesStore {
	t.Helper()
	s := store.NewSeriesStore(0, time.UTC, nil)
	s.ApplyHistorySnapshot(map[string][]models.MDailyBar{"ABC": dailyBars(bars)}, time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC))
	return s
}

func TestParseRange_Unknown(t *testing.T) {
	_, err := ParseRange(config.DefaultRanges(), "5Y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, helpers.ErrUnknownRange))
}

func TestProject_HistoryThen1DIsSinglePoint(t *testing.T) {
	s := seededStore(t, 45)

	points := Project(s.Snapshot(), "ABC", rangeFor(t, "1D"), 335)
	require.Len(t, points, 1)
	assert.True(t, points[0].Value.Equal(decimal.NewFromInt(144)))
	assert.Equal(t, "15:00", points[0].Label)
	assert.Equal(t, 335, points[0].Spacing)
}

func TestProject_DailyWindows(t *testing.T) {
	s := seededStore(t, 45)
	snap := s.Snapshot()

	cases := []struct {
		key       string
		count     int
		firstVal  int64
		stride    int
		firstDate string
	}{
		{"1W", 7, 138, 1, "02-08"},
		{"1M", 30, 115, 5, "01-16"},
		{"2M", 45, 100, 10, "01-01"},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			points := Project(snap, "ABC", rangeFor(t, tc.key), 335)
			require.Len(t, points, tc.count)
			assert.True(t, points[0].Value.Equal(decimal.NewFromInt(tc.firstVal)))
			assert.True(t, points[tc.count-1].Value.Equal(decimal.NewFromInt(144)))
			assert.Equal(t, tc.firstDate, points[0].Label)

			for i, p := range points {
				assert.Equal(t, max(1, 335/tc.count), p.Spacing)
				assert.Equal(t, i%tc.stride == 0, p.HasLabel, "index %d", i)
				assert.Equal(t, p.HasLabel, p.Label != "")
			}
		})
	}
}

func TestProject_IntradayLabelStride(t *testing.T) {
	s := seededStore(t, 1)
	base := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC).UnixMilli()
	for i := int64(1); i < 24; i++ {
		s.ApplyTick("ABC", decimal.NewFromInt(i), base+i*60_000)
	}

	points := Project(s.Snapshot(), "ABC", rangeFor(t, "1D"), 335)
	require.Len(t, points, 24)

	// 24 points -> stride 4
	labelled := 0
	for i, p := range points {
		if p.HasLabel {
			labelled++
			assert.Equal(t, 0, i%4)
		}
	}
	assert.Equal(t, 6, labelled)
	assert.Equal(t, "15:04", points[4].Label)
	assert.Equal(t, 335/24, points[0].Spacing)
}

func TestProject_SpacingNeverBelowOne(t *testing.T) {
	s := store.NewSeriesStore(500, time.UTC, nil)
	s.ApplyHistorySnapshot(map[string][]models.MDailyBar{"ABC": dailyBars(1)}, time.Now())
	for i := int64(0); i < 600; i++ {
		s.ApplyTick("ABC", decimal.NewFromInt(i), i)
	}

	points := Project(s.Snapshot(), "ABC", rangeFor(t, "1D"), 335)
	require.Len(t, points, 500)
	assert.Equal(t, 1, points[0].Spacing)
}

func TestProject_UnknownTickerAndEmpty(t *testing.T) {
	s := seededStore(t, 10)

	points := Project(s.Snapshot(), "NOPE", rangeFor(t, "1M"), 335)
	assert.NotNil(t, points)
	assert.Empty(t, points)

	assert.Empty(t, Project(nil, "ABC", rangeFor(t, "1M"), 335))
}

func TestProject_IsPureAndSnapshotIsolated(t *testing.T) {
	s := seededStore(t, 40)
	s.ApplyHistorySnapshot(map[string][]models.MDailyBar{"XYZ": dailyBars(3)}, time.Now())
	snap := s.Snapshot()

	for _, key := range []string{"1D", "1W", "1M", "2M"} {
		rng := rangeFor(t, key)
		first := Project(snap, "ABC", rng, 335)
		second := Project(snap, "ABC", rng, 335)
		assert.Equal(t, first, second)

		s.ApplyTick("XYZ", decimal.NewFromInt(9), time.Now().UnixMilli())
		s.ApplyTick("ABC", decimal.NewFromInt(9), time.Now().UnixMilli())
		assert.Equal(t, first, Project(snap, "ABC", rng, 335), fmt.Sprintf("range %s", key))
	}
}

func TestAnalysisFacade_Chart(t *testing.T) {
	s := seededStore(t, 45)
	cfg := config.Default()
	facade := NewAnalysisFacade(cfg.MConfig, s, nil)

	chart, err := facade.Chart("ABC", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "1M", chart.Range.Key)
	assert.Len(t, chart.Points, 30)
	require.NotNil(t, chart.Delta)
	assert.Equal(t, "29.00", chart.Delta.AbsoluteText())

	chart, err = facade.Chart("ABC", "1D", 100)
	require.NoError(t, err)
	assert.Len(t, chart.Points, 1)
	assert.Equal(t, 100, chart.Points[0].Spacing)
	assert.Nil(t, chart.Delta)

	_, err = facade.Chart("ABC", "10Y", 0)
	assert.ErrorIs(t, err, helpers.ErrUnknownRange)
}
