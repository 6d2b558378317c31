package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MDailyBar is one day's open/high/low/close summary for a symbol.
type MDailyBar struct {
	Date  time.Time       `json:"date"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// DateText returns the bar date as YYYY-MM-DD.
func (b MDailyBar) DateText() string {
	return b.Date.Format(DateLayout)
}

// MIntradayPoint is a single entry of the intraday buffer.
type MIntradayPoint struct {
	Timestamp    int64           `json:"timestamp"` // epoch millis
	Price        decimal.Decimal `json:"price"`
	RenderedTime string          `json:"rendered_time"` // "15:04" in the configured timezone
}

// MLatestQuote is the last known price of a symbol, used by list views.
type MLatestQuote struct {
	Ticker     string          `json:"ticker"`
	Price      decimal.Decimal `json:"price"`
	LastUpdate int64           `json:"last_update"` // epoch millis
}

const (
	DateLayout         = "2006-01-02"
	IntradayTimeLayout = "15:04"
	DailyLabelLayout   = "01-02"
)
