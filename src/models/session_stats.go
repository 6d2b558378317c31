package models

// MSessionStats represents the counters of the current feed session.
type MSessionStats struct {
	SessionID        string `json:"session_id"`
	Connection       string `json:"connection"`
	EventsConsumed   int64  `json:"events_consumed"`
	SnapshotsApplied int64  `json:"snapshots_applied"`
	TicksApplied     int64  `json:"ticks_applied"`
	TicksIgnored     int64  `json:"ticks_ignored"`
	StartedAt        int64  `json:"started_at"`
	LastEventAt      int64  `json:"last_event_at"`
}
