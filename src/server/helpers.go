package server

import (
	"time"

	"quote-charts/src/models"
)

// Rendered clock time of the last update in the quote list
const updatedAtLayout = "15:04:05"

// -----------------------------------------------------------------------------

func (s *FastAPIServer) quoteView(q models.MLatestQuote) models.MQuoteView {
	view := models.MQuoteView{MLatestQuote: q}
	if q.LastUpdate > 0 {
		view.UpdatedAt = time.UnixMilli(q.LastUpdate).In(s.location).Format(updatedAtLayout)
	}
	view.MarketOpen = s.Scheduler.IsOpenNow(q.Ticker)
	return view
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) quoteViews(quotes []models.MLatestQuote) []models.MQuoteView {
	views := make([]models.MQuoteView, 0, len(quotes))
	for _, q := range quotes {
		views = append(views, s.quoteView(q))
	}
	return views
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) quotesMessage() *models.MPushMessage {
	return &models.MPushMessage{
		Type:      "quotes",
		Quotes:    s.quoteViews(s.Store.LatestQuotes()),
		Timestamp: time.Now().UnixMilli(),
	}
}
