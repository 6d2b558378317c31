package utils

import (
	"sync"
	"time"

	"quote-charts/src/logger"
)

// MarketScheduler resolves the trading calendar of each ticker, loading each
// exchange calendar once.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar // keyed by MIC
	Logger    *logger.Logger
	now       func() time.Time
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(l *logger.Logger) *MarketScheduler {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &MarketScheduler{
		Calendars: make(map[string]*TradingCalendar),
		Logger:    l,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// CalendarFor returns the calendar of the exchange listing symbol
func (ms *MarketScheduler) CalendarFor(symbol string) *TradingCalendar {
	mic := MICForSymbol(symbol)

	ms.mu.RLock()
	cal, ok := ms.Calendars[mic]
	ms.mu.RUnlock()
	if ok {
		return cal
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if cal, ok := ms.Calendars[mic]; ok {
		return cal
	}
	cal = GetCalendar(mic)
	if cal.Fallback {
		ms.Logger.Warning("No calendar for MIC '%s', using Mon-Fri 09:30-16:00 New York", mic)
	}
	ms.Calendars[mic] = cal
	return cal
}

// -----------------------------------------------------------------------------

// IsOpen reports whether the market of symbol is open at t
func (ms *MarketScheduler) IsOpen(symbol string, t time.Time) bool {
	return ms.CalendarFor(symbol).IsOpenOnMinute(t)
}

// -----------------------------------------------------------------------------

// IsOpenNow reports whether the market of symbol is open right now
func (ms *MarketScheduler) IsOpenNow(symbol string) bool {
	return ms.IsOpen(symbol, ms.now())
}

// -----------------------------------------------------------------------------

// AnyMarketOpen checks if ANY market of the given symbols is currently open
func (ms *MarketScheduler) AnyMarketOpen(symbols []string) bool {
	now := ms.now().UTC()
	seen := make(map[*TradingCalendar]bool)

	for _, symbol := range symbols {
		cal := ms.CalendarFor(symbol)
		if seen[cal] {
			continue
		}
		seen[cal] = true
		if cal.IsOpenOnMinute(now) {
			return true
		}
	}
	return false
}
