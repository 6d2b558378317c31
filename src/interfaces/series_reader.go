package interfaces

import "quote-charts/src/models"

// -----------------------------------------------------------------------------
// ISeriesReader is the read side of the series store shared by every
// collaborator surface (HTTP, push, gRPC).
// -----------------------------------------------------------------------------

type ISeriesReader interface {

	// Snapshot returns a deep, point-in-time copy of the store.
	Snapshot() *models.MStoreSnapshot

	// -----------------------------------------------------------------------------

	// LatestQuotes returns the last known quote of every symbol sorted by ticker.
	LatestQuotes() []models.MLatestQuote

	// -----------------------------------------------------------------------------

	// SymbolCount returns number of known symbols
	SymbolCount() int

	// -----------------------------------------------------------------------------

	// LastApplied returns the epoch millis of the last mutation
	LastApplied() int64
}
