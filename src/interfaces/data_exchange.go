package interfaces

import "quote-charts/src/models"

// -----------------------------------------------------------------------------
// IQuotePublisher pushes store changes to UI listeners.
// -----------------------------------------------------------------------------

type IQuotePublisher interface {

	// PublishQuotes replaces the full quote list (after a history snapshot)
	PublishQuotes(quotes []models.MLatestQuote)

	// -----------------------------------------------------------------------------

	// PublishQuote pushes one updated quote (after a tick)
	PublishQuote(quote models.MLatestQuote)

	// -----------------------------------------------------------------------------

	// PublishConnection pushes a connection state change
	PublishConnection(state models.ConnectionState)
}
