package store

import (
	"sort"
	"sync"
	"time"

	"quote-charts/src/logger"
	"quote-charts/src/models"
	"quote-charts/src/utils"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// SeriesStore keeps daily history and the intraday buffer of every symbol.
// Mutations come from a single writer (the feed session); any number of
// readers may take snapshots concurrently.
// -----------------------------------------------------------------------------

type SeriesStore struct {
	daily       map[string][]models.MDailyBar
	intraday    map[string]*utils.RingBuffer
	quotes      map[string]models.MLatestQuote
	capacity    int
	location    *time.Location
	lastApplied int64
	logger      *logger.Logger
	mu          sync.RWMutex
}

// -----------------------------------------------------------------------------

// NewSeriesStore creates an empty store. Intraday labels are rendered in loc.
func NewSeriesStore(capacity int, loc *time.Location, log *logger.Logger) *SeriesStore {
	if capacity <= 0 {
		capacity = utils.DefaultIntradayCapacity
	}
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SeriesStore{
		daily:    make(map[string][]models.MDailyBar),
		intraday: make(map[string]*utils.RingBuffer),
		quotes:   make(map[string]models.MLatestQuote),
		capacity: capacity,
		location: loc,
		logger:   log,
	}
}

// -----------------------------------------------------------------------------

// ApplyHistorySnapshot replaces the daily history of every symbol in data and
// reseeds its intraday buffer with the last close. Returns the number of
// symbols applied.
func (s *SeriesStore) ApplyHistorySnapshot(data map[string][]models.MDailyBar, receivedAt time.Time) int {
	receivedMs := receivedAt.UnixMilli()
	rendered := receivedAt.In(s.location).Format(models.IntradayTimeLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for ticker, bars := range data {
		if len(bars) == 0 {
			s.logger.Debug("Skipping empty history for %s", ticker)
			continue
		}

		history := make([]models.MDailyBar, len(bars))
		copy(history, bars)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Date.Before(history[j].Date)
		})
		s.daily[ticker] = history

		lastClose := history[len(history)-1].Close
		s.quotes[ticker] = models.MLatestQuote{
			Ticker:     ticker,
			Price:      lastClose,
			LastUpdate: receivedMs,
		}

		buffer, ok := s.intraday[ticker]
		if !ok {
			buffer = utils.NewRingBuffer(s.capacity)
			s.intraday[ticker] = buffer
		}
		buffer.Clear()
		buffer.Append(models.MIntradayPoint{
			Timestamp:    receivedMs,
			Price:        lastClose,
			RenderedTime: rendered,
		})
		applied++
	}

	if applied > 0 {
		s.lastApplied = receivedMs
	}
	return applied
}

// -----------------------------------------------------------------------------

// ApplyTick records a price update for a known symbol. Ticks for symbols
// that never appeared in a history snapshot are ignored and false is returned.
func (s *SeriesStore) ApplyTick(ticker string, price decimal.Decimal, timestamp int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	buffer, ok := s.intraday[ticker]
	if !ok {
		return false
	}

	s.quotes[ticker] = models.MLatestQuote{
		Ticker:     ticker,
		Price:      price,
		LastUpdate: timestamp,
	}
	buffer.Append(models.MIntradayPoint{
		Timestamp:    timestamp,
		Price:        price,
		RenderedTime: time.UnixMilli(timestamp).In(s.location).Format(models.IntradayTimeLayout),
	})
	s.lastApplied = timestamp
	return true
}

// -----------------------------------------------------------------------------

// Snapshot returns a deep copy of the current state
func (s *SeriesStore) Snapshot() *models.MStoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &models.MStoreSnapshot{
		Series:      make(map[string]models.MSymbolSeries, len(s.daily)),
		Quotes:      make(map[string]models.MLatestQuote, len(s.quotes)),
		TakenAt:     time.Now().UnixMilli(),
		LastApplied: s.lastApplied,
	}

	for ticker, bars := range s.daily {
		daily := make([]models.MDailyBar, len(bars))
		copy(daily, bars)

		var intraday []models.MIntradayPoint
		if buffer, ok := s.intraday[ticker]; ok {
			intraday = buffer.GetAll()
		}
		snap.Series[ticker] = models.MSymbolSeries{Daily: daily, Intraday: intraday}
	}
	for ticker, quote := range s.quotes {
		snap.Quotes[ticker] = quote
	}

	return snap
}

// -----------------------------------------------------------------------------

// LatestQuotes returns the latest quote of every symbol sorted by ticker
func (s *SeriesStore) LatestQuotes() []models.MLatestQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.MLatestQuote, 0, len(s.quotes))
	for _, quote := range s.quotes {
		result = append(result, quote)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result
}

// -----------------------------------------------------------------------------

// LatestQuote returns the latest quote of one symbol
func (s *SeriesStore) LatestQuote(ticker string) (models.MLatestQuote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	quote, ok := s.quotes[ticker]
	return quote, ok
}

// -----------------------------------------------------------------------------

// HasSymbol checks if symbol exists
func (s *SeriesStore) HasSymbol(ticker string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.quotes[ticker]
	return ok
}

// -----------------------------------------------------------------------------

// SymbolCount returns number of known symbols
func (s *SeriesStore) SymbolCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// -----------------------------------------------------------------------------

// LastApplied returns the epoch millis of the last mutation (0 if none)
func (s *SeriesStore) LastApplied() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastApplied
}

// -----------------------------------------------------------------------------

// Location returns the timezone used for rendered times
func (s *SeriesStore) Location() *time.Location {
	return s.location
}

// -----------------------------------------------------------------------------

// Capacity returns the per-symbol intraday capacity
func (s *SeriesStore) Capacity() int {
	return s.capacity
}
