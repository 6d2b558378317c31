package store

import (
	"sync"
	"testing"
	"time"

	"quote-charts/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(date string, close float64) models.MDailyBar {
	d, _ := time.Parse(models.DateLayout, date)
	c := decimal.NewFromFloat(close)
	return models.MDailyBar{Date: d, Open: c, High: c, Low: c, Close: c}
}

func newTestStore(capacity int) *SeriesStore {
	return NewSeriesStore(capacity, time.UTC, nil)
}

func seed(t *testing.T, s *SeriesStore, ticker string, bars ...models.MDailyBar) time.Time {
	t.Helper()
	at := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)
	require.Equal(t, 1, s.ApplyHistorySnapshot(map[string][]models.MDailyBar{ticker: bars}, at))
	return at
}

func TestApplyHistorySnapshot_SeedsQuoteAndIntraday(t *testing.T) {
	s := newTestStore(0)
	at := seed(t, s, "ABC", bar("2024-01-01", 10), bar("2024-01-02", 12))

	snap := s.Snapshot()
	series := snap.Series["ABC"]
	require.Len(t, series.Daily, 2)
	require.Len(t, series.Intraday, 1)

	assert.True(t, series.Intraday[0].Price.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, at.UnixMilli(), series.Intraday[0].Timestamp)
	assert.Equal(t, "14:30", series.Intraday[0].RenderedTime)

	quote := snap.Quotes["ABC"]
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(12)))
	assert.Equal(t, at.UnixMilli(), quote.LastUpdate)
	assert.Equal(t, at.UnixMilli(), snap.LastApplied)
}

func TestApplyHistorySnapshot_SortsAndOverwrites(t *testing.T) {
	s := newTestStore(0)
	seed(t, s, "ABC", bar("2024-01-02", 12), bar("2024-01-01", 10))

	daily := s.Snapshot().Series["ABC"].Daily
	assert.Equal(t, "2024-01-01", daily[0].DateText())
	assert.Equal(t, "2024-01-02", daily[1].DateText())

	require.True(t, s.ApplyTick("ABC", decimal.NewFromInt(13), 1700000000000))

	// a second snapshot replaces history and resets the intraday buffer
	seed(t, s, "ABC", bar("2024-02-01", 20))
	series := s.Snapshot().Series["ABC"]
	require.Len(t, series.Daily, 1)
	require.Len(t, series.Intraday, 1)
	assert.True(t, series.Intraday[0].Price.Equal(decimal.NewFromInt(20)))
}

func TestApplyHistorySnapshot_SkipsEmptySeries(t *testing.T) {
	s := newTestStore(0)
	n := s.ApplyHistorySnapshot(map[string][]models.MDailyBar{"EMPTY": {}}, time.Now())

	assert.Equal(t, 0, n)
	assert.False(t, s.HasSymbol("EMPTY"))
	assert.Equal(t, int64(0), s.LastApplied())
}

func TestApplyTick_UnknownSymbolIgnored(t *testing.T) {
	s := newTestStore(0)
	seed(t, s, "ABC", bar("2024-01-01", 10))
	before := s.Snapshot()

	assert.False(t, s.ApplyTick("ZZZ", decimal.NewFromInt(1), 1))

	after := s.Snapshot()
	assert.False(t, s.HasSymbol("ZZZ"))
	assert.Equal(t, 1, s.SymbolCount())
	assert.Equal(t, before.Series, after.Series)
	assert.Equal(t, before.Quotes, after.Quotes)
}

func TestApplyTick_CapacityFIFO(t *testing.T) {
	s := newTestStore(500)
	seed(t, s, "ABC", bar("2024-01-01", 10))

	for i := int64(1); i <= 700; i++ {
		require.True(t, s.ApplyTick("ABC", decimal.NewFromInt(i), 1700000000000+i))
		assert.LessOrEqual(t, len(s.Snapshot().Series["ABC"].Intraday), 500)
	}

	intraday := s.Snapshot().Series["ABC"].Intraday
	require.Len(t, intraday, 500)
	// seed point plus ticks 1..200 were evicted
	assert.True(t, intraday[0].Price.Equal(decimal.NewFromInt(201)))
	assert.True(t, intraday[499].Price.Equal(decimal.NewFromInt(700)))

	quote, ok := s.LatestQuote("ABC")
	require.True(t, ok)
	assert.True(t, quote.Price.Equal(decimal.NewFromInt(700)))
}

func TestApplyTick_DuplicateTimestampsKept(t *testing.T) {
	s := newTestStore(0)
	seed(t, s, "ABC", bar("2024-01-01", 10))

	s.ApplyTick("ABC", decimal.NewFromInt(11), 1700000000000)
	s.ApplyTick("ABC", decimal.NewFromInt(12), 1700000000000)

	assert.Len(t, s.Snapshot().Series["ABC"].Intraday, 3)
}

func TestSnapshot_Isolation(t *testing.T) {
	s := newTestStore(0)
	seed(t, s, "ABC", bar("2024-01-01", 10))
	s.ApplyHistorySnapshot(map[string][]models.MDailyBar{"XYZ": {bar("2024-01-01", 5)}}, time.Now())

	snap := s.Snapshot()
	s.ApplyTick("XYZ", decimal.NewFromInt(6), 1700000000000)
	s.ApplyTick("ABC", decimal.NewFromInt(11), 1700000000001)

	assert.Len(t, snap.Series["ABC"].Intraday, 1)
	assert.Len(t, snap.Series["XYZ"].Intraday, 1)
	assert.True(t, snap.Quotes["XYZ"].Price.Equal(decimal.NewFromInt(5)))

	// mutating the copy leaves the store untouched
	snap.Series["ABC"].Daily[0] = bar("1999-01-01", 0)
	assert.Equal(t, "2024-01-01", s.Snapshot().Series["ABC"].Daily[0].DateText())
}

func TestLatestQuotes_SortedByTicker(t *testing.T) {
	s := newTestStore(0)
	s.ApplyHistorySnapshot(map[string][]models.MDailyBar{
		"ZED": {bar("2024-01-01", 1)},
		"ABC": {bar("2024-01-01", 2)},
		"MID": {bar("2024-01-01", 3)},
	}, time.Now())

	quotes := s.LatestQuotes()
	require.Len(t, quotes, 3)
	assert.Equal(t, "ABC", quotes[0].Ticker)
	assert.Equal(t, "MID", quotes[1].Ticker)
	assert.Equal(t, "ZED", quotes[2].Ticker)
}

func TestConcurrentReadersWithSingleWriter(t *testing.T) {
	s := newTestStore(50)
	seed(t, s, "ABC", bar("2024-01-01", 10))

	var wg sync.WaitGroup
	done := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					snap := s.Snapshot()
					assert.LessOrEqual(t, len(snap.Series["ABC"].Intraday), 50)
				}
			}
		}()
	}

	for i := int64(0); i < 1000; i++ {
		s.ApplyTick("ABC", decimal.NewFromInt(i), i)
	}
	close(done)
	wg.Wait()

	assert.Len(t, s.Snapshot().Series["ABC"].Intraday, 50)
}
