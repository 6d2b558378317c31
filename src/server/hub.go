package server

import (
	"net/http"
	"time"

	"quote-charts/src/metrics"
	"quote-charts/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

type reply struct {
	client  *Client
	message *models.MPushMessage
}

// handleWebsockets is the main Hub loop
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case <-s.quit:
			for client := range s.clients {
				s.dropClient(client)
			}
			return

		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))
			metrics.PushClients.Set(float64(len(s.clients)))
			// Send the current quote list on connect
			client.queue <- s.quotesMessage()

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				s.dropClient(client)
			}

		case r := <-s.replies:
			if _, ok := s.clients[r.client]; ok {
				select {
				case r.client.queue <- r.message:
				default:
				}
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				select {
				case client.queue <- message:
				default:
					// Client too slow, disconnect to prevent Hub blocking
					s.Logger.Warning("Dropping slow push client")
					s.dropClient(client)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) dropClient(client *Client) {
	delete(s.clients, client)
	close(client.queue)
	s.clientCount.Store(int64(len(s.clients)))
	metrics.PushClients.Set(float64(len(s.clients)))
}

// -----------------------------------------------------------------------------
// IQuotePublisher Implementation
// -----------------------------------------------------------------------------

// PublishQuotes pushes the full quote list
func (s *FastAPIServer) PublishQuotes(quotes []models.MLatestQuote) {
	s.enqueue(&models.MPushMessage{
		Type:      "quotes",
		Quotes:    s.quoteViews(quotes),
		Timestamp: time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// PublishQuote pushes one updated quote
func (s *FastAPIServer) PublishQuote(quote models.MLatestQuote) {
	view := s.quoteView(quote)
	s.enqueue(&models.MPushMessage{
		Type:      "quote",
		Quote:     &view,
		Timestamp: time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// PublishConnection pushes a feed connection state change
func (s *FastAPIServer) PublishConnection(state models.ConnectionState) {
	s.enqueue(&models.MPushMessage{
		Type:       "connection",
		Connection: state.String(),
		Timestamp:  time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// enqueue never blocks the feed session; a full queue drops the message
func (s *FastAPIServer) enqueue(message *models.MPushMessage) {
	select {
	case s.broadcast <- message:
	default:
		s.Logger.Warning("Push queue full, dropping '%s' message", message.Type)
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := newClient(s, conn)

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	client.serve()
}

// -----------------------------------------------------------------------------
// Client Commands
// -----------------------------------------------------------------------------

// answer builds the reply to one socket command; unknown commands get none
func (s *FastAPIServer) answer(cmd models.MClientCommand) *models.MPushMessage {
	switch cmd.Command {
	case "quotes":
		return s.quotesMessage()
	case "chart":
		var response *models.MPushMessage
		chart, err := s.Charts.Chart(cmd.Ticker, cmd.Range, cmd.Width)
		if err != nil {
			response = &models.MPushMessage{Type: "error", Error: err.Error()}
		} else {
			response = &models.MPushMessage{Type: "chart", Chart: chart}
		}
		response.Timestamp = time.Now().UnixMilli()
		return response
	default:
		return nil
	}
}

// replyTo hands a response to the hub, which owns the client queue
func (s *FastAPIServer) replyTo(client *Client, response *models.MPushMessage) {
	select {
	case s.replies <- reply{client: client, message: response}:
	case <-s.quit:
	}
}
