package interfaces

import (
	"context"
	"sync"

	"quote-charts/src/models"
)

// -----------------------------------------------------------------------------
// IEventSource produces classified feed events for one connection.
// -----------------------------------------------------------------------------

type IEventSource interface {

	// Start begins delivering events
	// ctx: controls the lifecycle (cancellation closes the source)
	// out: channel to push events to
	// wg: WaitGroup to signal when the source has fully stopped
	Start(ctx context.Context, out chan<- models.MEvent, wg *sync.WaitGroup) error

	// -----------------------------------------------------------------------------

	// Close stops delivery and releases the connection. Idempotent.
	Close() error

	// -----------------------------------------------------------------------------

	// SessionID identifies the current connection
	SessionID() string
}
