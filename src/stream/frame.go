package stream

import (
	"encoding/json"
	"time"

	"quote-charts/src/helpers"
	"quote-charts/src/models"

	"github.com/shopspring/decimal"
)

// Frame discriminants
const (
	FrameHistory = "history"
	FrameTick    = "tick"
)

// -----------------------------------------------------------------------------
// Wire shapes
// -----------------------------------------------------------------------------

type wireFrame struct {
	Type   string               `json:"type"`
	Range  string               `json:"range"`
	Data   map[string][]wireBar `json:"data"`
	Ticker string               `json:"ticker"`
	Price  *decimal.Decimal     `json:"price"`
	Ts     *int64               `json:"ts"`
}

type wireBar struct {
	Date  string           `json:"date"`
	Open  *decimal.Decimal `json:"open"`
	High  *decimal.Decimal `json:"high"`
	Low   *decimal.Decimal `json:"low"`
	Close *decimal.Decimal `json:"close"`
}

// -----------------------------------------------------------------------------

// ParseFrame classifies one text frame. Any frame that cannot be turned into
// a history or tick event yields a *helpers.MalformedFrameError.
func ParseFrame(payload []byte, receivedAt time.Time) (models.MEvent, error) {
	var frame wireFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return models.MEvent{}, helpers.NewMalformedFrameError("invalid json", payload, err)
	}

	switch frame.Type {
	case FrameHistory:
		return parseHistory(frame, payload, receivedAt)
	case FrameTick:
		return parseTick(frame, payload, receivedAt)
	case "":
		return models.MEvent{}, helpers.NewMalformedFrameError("missing type", payload, nil)
	default:
		return models.MEvent{}, helpers.NewMalformedFrameError("unknown type "+frame.Type, payload, nil)
	}
}

// -----------------------------------------------------------------------------

func parseHistory(frame wireFrame, payload []byte, receivedAt time.Time) (models.MEvent, error) {
	if frame.Data == nil {
		return models.MEvent{}, helpers.NewMalformedFrameError("history without data", payload, nil)
	}

	history := make(map[string][]models.MDailyBar, len(frame.Data))
	for ticker, bars := range frame.Data {
		if ticker == "" {
			return models.MEvent{}, helpers.NewMalformedFrameError("history with empty ticker", payload, nil)
		}

		series := make([]models.MDailyBar, 0, len(bars))
		for _, bar := range bars {
			date, err := time.Parse(models.DateLayout, bar.Date)
			if err != nil {
				return models.MEvent{}, helpers.NewMalformedFrameError("bad bar date for "+ticker, payload, err)
			}
			if bar.Open == nil || bar.High == nil || bar.Low == nil || bar.Close == nil {
				return models.MEvent{}, helpers.NewMalformedFrameError("incomplete bar for "+ticker, payload, nil)
			}
			series = append(series, models.MDailyBar{
				Date:  date,
				Open:  *bar.Open,
				High:  *bar.High,
				Low:   *bar.Low,
				Close: *bar.Close,
			})
		}
		history[ticker] = series
	}

	return models.MEvent{
		Kind:       models.EventHistorySnapshot,
		Range:      frame.Range,
		History:    history,
		ReceivedAt: receivedAt,
	}, nil
}

// -----------------------------------------------------------------------------

func parseTick(frame wireFrame, payload []byte, receivedAt time.Time) (models.MEvent, error) {
	if frame.Ticker == "" {
		return models.MEvent{}, helpers.NewMalformedFrameError("tick without ticker", payload, nil)
	}
	if frame.Price == nil {
		return models.MEvent{}, helpers.NewMalformedFrameError("tick without price", payload, nil)
	}
	if frame.Ts == nil {
		return models.MEvent{}, helpers.NewMalformedFrameError("tick without ts", payload, nil)
	}

	return models.MEvent{
		Kind:       models.EventTick,
		ReceivedAt: receivedAt,
		Tick: models.MTick{
			Ticker:    frame.Ticker,
			Price:     *frame.Price,
			Timestamp: *frame.Ts,
		},
	}, nil
}
