package models

// -----------------------------------------------------------------------------
// Store read model
// -----------------------------------------------------------------------------

// MSymbolSeries is the per-symbol aggregate as seen by readers.
type MSymbolSeries struct {
	Daily    []MDailyBar      `json:"daily"`
	Intraday []MIntradayPoint `json:"intraday"`
}

// MStoreSnapshot is a point-in-time copy of the store. It shares no memory
// with the live store.
type MStoreSnapshot struct {
	Series      map[string]MSymbolSeries `json:"series"`
	Quotes      map[string]MLatestQuote  `json:"quotes"`
	TakenAt     int64                    `json:"taken_at"`
	LastApplied int64                    `json:"last_applied"` // epoch millis of the last mutation
}

// -----------------------------------------------------------------------------
// Messages pushed to UI clients over /ws
// -----------------------------------------------------------------------------

type MQuoteView struct {
	MLatestQuote
	UpdatedAt  string `json:"updated_at"` // rendered local time
	MarketOpen bool   `json:"market_open"`
}

type MPushMessage struct {
	Type       string       `json:"type"` // "quotes", "quote", "connection", "chart" or "error"
	Quotes     []MQuoteView `json:"quotes,omitempty"`
	Quote      *MQuoteView  `json:"quote,omitempty"`
	Connection string       `json:"connection,omitempty"`
	Chart      *MChart      `json:"chart,omitempty"`
	Error      string       `json:"error,omitempty"`
	Timestamp  int64        `json:"timestamp"`
}

// MClientCommand is a request sent by a UI client over /ws.
// {"command":"chart","ticker":"AAPL","range":"1M","width":335}
type MClientCommand struct {
	Command string `json:"command"`
	Ticker  string `json:"ticker"`
	Range   string `json:"range"`
	Width   int    `json:"width"`
}
