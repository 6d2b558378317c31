package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Connection state
// -----------------------------------------------------------------------------

type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// -----------------------------------------------------------------------------
// Feed events
// -----------------------------------------------------------------------------

type EventKind int

const (
	EventConnectionOpened EventKind = iota + 1
	EventHistorySnapshot
	EventTick
	EventConnectionClosed
	EventConnectionFailed
)

func (k EventKind) String() string {
	switch k {
	case EventConnectionOpened:
		return "connection_opened"
	case EventHistorySnapshot:
		return "history"
	case EventTick:
		return "tick"
	case EventConnectionClosed:
		return "connection_closed"
	case EventConnectionFailed:
		return "connection_failed"
	default:
		return "unknown"
	}
}

// MEvent is a classified inbound event. Only the fields of its Kind are set.
type MEvent struct {
	Kind      EventKind
	SessionID string

	// EventHistorySnapshot
	Range      string
	History    map[string][]MDailyBar
	ReceivedAt time.Time

	// EventTick
	Tick MTick

	// EventConnectionFailed
	Reason string
}

// IsTerminal reports whether the event ends the current connection.
func (e MEvent) IsTerminal() bool {
	return e.Kind == EventConnectionClosed || e.Kind == EventConnectionFailed
}

// MTick is one incremental quote update.
type MTick struct {
	Ticker    string          `json:"ticker"`
	Price     decimal.Decimal `json:"price"`
	Timestamp int64           `json:"ts"`
}
