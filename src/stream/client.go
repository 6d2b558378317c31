package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"quote-charts/src/helpers"
	"quote-charts/src/logger"
	"quote-charts/src/metrics"
	"quote-charts/src/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to complete the websocket handshake
	handshakeTimeout = 10 * time.Second

	// Time allowed to write the close frame
	closeGracePeriod = time.Second
)

// -----------------------------------------------------------------------------
// Client owns one feed connection and forwards classified events.
// -----------------------------------------------------------------------------

type Client struct {
	Config    models.MFeedConfig
	Logger    *logger.Logger
	Dialer    *websocket.Dialer
	sessionID string
	out       chan<- models.MEvent
	conn      *websocket.Conn
	done      chan struct{}
	isRunning atomic.Bool
	closed    bool
	closeOnce sync.Once
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

// NewClient creates a client for the configured feed
func NewClient(cfg models.MFeedConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		Config: cfg,
		Logger: log,
		Dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: handshakeTimeout,
		},
		done: make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// SessionID identifies the connection in logs and events
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// -----------------------------------------------------------------------------

// Start dials the feed in the background and delivers events to out until
// Close is called, ctx is cancelled or the transport ends. A client can be
// started only once.
func (c *Client) Start(ctx context.Context, out chan<- models.MEvent, wg *sync.WaitGroup) error {
	if out == nil {
		return fmt.Errorf("output channel is nil")
	}
	if !c.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("client already started")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("client is closed")
	}
	sessionID := uuid.NewString()
	c.sessionID = sessionID
	c.out = out
	c.mu.Unlock()

	wg.Add(1)
	go c.runLoop(ctx, wg)
	c.Logger.Info("Connecting to %s (session %s)", c.Config.URL, sessionID)
	return nil
}

// -----------------------------------------------------------------------------

// Close stops event delivery and releases the connection. Idempotent.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		c.closed = true
		conn := c.conn
		sessionID := c.sessionID
		c.mu.Unlock()

		if conn != nil {
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(closeGracePeriod),
			)
			if cerr := conn.Close(); cerr != nil {
				err = helpers.NewTransportError("close", cerr)
			}
		}
		c.Logger.Info("Feed client closed (session %s)", sessionID)
	})
	return err
}

// -----------------------------------------------------------------------------

// runLoop dials, then reads frames until the connection ends
func (c *Client) runLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	// Cancelling the parent context closes the client
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()

	conn, _, err := c.Dialer.DialContext(ctx, c.Config.URL, nil)
	if err != nil {
		terr := helpers.NewTransportError("dial", err)
		c.Logger.Error("Feed connection failed: %v", terr)
		c.emit(models.MEvent{Kind: models.EventConnectionFailed, Reason: terr.Error()})
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	if c.Config.ReadLimitBytes > 0 {
		conn.SetReadLimit(c.Config.ReadLimitBytes)
	}

	c.Logger.Info("Connected to feed %s", c.Config.URL)
	c.emit(models.MEvent{Kind: models.EventConnectionOpened})

	c.readLoop(conn)
}

// -----------------------------------------------------------------------------

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.Logger.Info("Feed closed the connection: %v", err)
				c.emit(models.MEvent{Kind: models.EventConnectionClosed, Reason: err.Error()})
			} else {
				terr := helpers.NewTransportError("read", err)
				c.Logger.Error("Feed connection lost: %v", terr)
				c.emit(models.MEvent{Kind: models.EventConnectionFailed, Reason: terr.Error()})
			}
			_ = conn.Close()
			return
		}

		if messageType != websocket.TextMessage {
			metrics.FramesDropped.WithLabelValues(metrics.DropBinary).Inc()
			c.Logger.Debug("Ignoring non-text frame (%d bytes)", len(payload))
			continue
		}

		event, err := ParseFrame(payload, time.Now())
		if err != nil {
			metrics.FramesDropped.WithLabelValues(metrics.DropMalformed).Inc()
			c.Logger.Warning("Dropping frame: %v", err)
			continue
		}

		metrics.FramesReceived.WithLabelValues(event.Kind.String()).Inc()
		if !c.emit(event) {
			return
		}
	}
}

// -----------------------------------------------------------------------------

// emit delivers one event unless the client has been closed. Close waits for
// an in-flight emit, so nothing is delivered after Close returns.
func (c *Client) emit(event models.MEvent) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false
	}
	event.SessionID = c.sessionID

	select {
	case c.out <- event:
		return true
	case <-c.done:
		return false
	}
}

// -----------------------------------------------------------------------------

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
