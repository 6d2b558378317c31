package simulator

import (
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"quote-charts/src/models"
	"quote-charts/src/utils"

	"github.com/shopspring/decimal"
)

// Clock for deterministic testing
type Clock interface {
	Now() time.Time
}

// Rand for deterministic values
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

type RealRand struct{ *rand.Rand }

func (r RealRand) Intn(n int) int   { return r.Rand.Intn(n) }
func (r RealRand) Float64() float64 { return r.Rand.Float64() }

// -----------------------------------------------------------------------------
// Wire frames, numbers rendered as JSON numbers
// -----------------------------------------------------------------------------

type historyFrame struct {
	Type  string                `json:"type"`
	Range string                `json:"range"`
	Data  map[string][]barFrame `json:"data"`
}

type barFrame struct {
	Date  string      `json:"date"`
	Open  json.Number `json:"open"`
	High  json.Number `json:"high"`
	Low   json.Number `json:"low"`
	Close json.Number `json:"close"`
}

type tickFrame struct {
	Type   string      `json:"type"`
	Ticker string      `json:"ticker"`
	Price  json.Number `json:"price"`
	Ts     int64       `json:"ts"`
}

// -----------------------------------------------------------------------------
// Generator
// -----------------------------------------------------------------------------

// Generator produces a daily history and then random ticks around the last
// close of each ticker. Not safe for concurrent use.
type Generator struct {
	Tickers  []string
	Days     int
	rand     Rand
	clock    Clock
	calendar *utils.TradingCalendar
	last     map[string]decimal.Decimal
}

func NewGenerator(basePrices map[string]float64, tickers []string, days int, rnd Rand, clock Clock) *Generator {
	last := make(map[string]decimal.Decimal, len(tickers))
	for _, t := range tickers {
		base, ok := basePrices[t]
		if !ok {
			base = 100
		}
		last[t] = decimal.NewFromFloat(base).Round(2)
	}
	return &Generator{
		Tickers:  tickers,
		Days:     days,
		rand:     rnd,
		clock:    clock,
		calendar: utils.GetCalendar(utils.DefaultMIC),
		last:     last,
	}
}

// -----------------------------------------------------------------------------

// HistoryFrame renders Days trading days ending yesterday for every ticker.
// The last close of each series becomes the base of the following ticks.
func (g *Generator) HistoryFrame() ([]byte, error) {
	dates := g.tradingDays()
	frame := historyFrame{Type: "history", Range: "3mo", Data: make(map[string][]barFrame, len(g.Tickers))}

	for _, ticker := range g.Tickers {
		// walk backwards from the current base so the series ends on it
		closes := make([]decimal.Decimal, len(dates))
		price := g.last[ticker]
		for i := len(dates) - 1; i >= 0; i-- {
			closes[i] = price
			price = g.step(price, 0.02)
		}

		bars := make([]barFrame, 0, len(dates))
		open := price
		for i, d := range dates {
			c := closes[i]
			high := decimal.Max(open, c).Mul(decimal.NewFromFloat(1.005)).Round(2)
			low := decimal.Min(open, c).Mul(decimal.NewFromFloat(0.995)).Round(2)
			bars = append(bars, barFrame{
				Date:  d.Format(models.DateLayout),
				Open:  number(open),
				High:  number(high),
				Low:   number(low),
				Close: number(c),
			})
			open = c
		}
		frame.Data[ticker] = bars
	}

	return json.Marshal(frame)
}

// -----------------------------------------------------------------------------

// TickFrame moves one random ticker by up to 0.5%
func (g *Generator) TickFrame() ([]byte, error) {
	if len(g.Tickers) == 0 {
		return nil, errors.New("no tickers configured")
	}
	ticker := g.Tickers[g.rand.Intn(len(g.Tickers))]
	price := g.step(g.last[ticker], 0.005)
	g.last[ticker] = price

	return json.Marshal(tickFrame{
		Type:   "tick",
		Ticker: ticker,
		Price:  number(price),
		Ts:     g.clock.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// step applies a uniform move in [-pct, +pct] and keeps prices positive
func (g *Generator) step(price decimal.Decimal, pct float64) decimal.Decimal {
	fluctuation := (g.rand.Float64()*2 - 1) * pct
	next := price.Mul(decimal.NewFromFloat(1 + fluctuation)).Round(2)
	if next.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromFloat(0.01)
	}
	return next
}

// -----------------------------------------------------------------------------

func (g *Generator) tradingDays() []time.Time {
	now := g.clock.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 12, 0, 0, 0, time.UTC)

	dates := make([]time.Time, 0, g.Days)
	for len(dates) < g.Days {
		day = day.AddDate(0, 0, -1)
		if g.calendar.IsTradingDay(day) {
			dates = append(dates, day)
		}
	}

	// oldest first
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}

// -----------------------------------------------------------------------------

func number(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
