package interfaces

import (
	"time"

	"quote-charts/src/models"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract of the write-only archive.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveDailyBars upserts the daily history received in a snapshot.
	SaveDailyBars(sessionID string, history map[string][]models.MDailyBar) error

	// -----------------------------------------------------------------------------

	// SaveTicks inserts a batch of applied ticks.
	SaveTicks(sessionID string, ticks []models.MTick) error

	// -----------------------------------------------------------------------------

	// CleanupOldData removes ticks older than the cutoff.
	CleanupOldData(before time.Time) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}

// -----------------------------------------------------------------------------
// IEventRecorder journals applied events without blocking the caller.
// -----------------------------------------------------------------------------

type IEventRecorder interface {
	RecordHistory(sessionID string, history map[string][]models.MDailyBar)
	RecordTick(sessionID string, tick models.MTick)
}
