package interfaces

import "quote-charts/src/models"

// -----------------------------------------------------------------------------
// ISessionStatus exposes the state of the feed session to readers.
// -----------------------------------------------------------------------------

type ISessionStatus interface {

	// State returns the current connection state
	State() models.ConnectionState

	// -----------------------------------------------------------------------------

	// Stats returns a copy of the session counters
	Stats() models.MSessionStats
}
