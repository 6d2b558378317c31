package simulator

import (
	"net/http"
	"sync"
	"time"

	"quote-charts/src/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------
// Feed serves the quote stream over WebSocket: one history frame on connect,
// then one tick every Interval until the client leaves.
// -----------------------------------------------------------------------------

type Feed struct {
	Generator *Generator
	Interval  time.Duration
	Logger    *logger.Logger
	quit      chan struct{}
	quitOnce  sync.Once
	mu        sync.Mutex
}

func NewFeed(gen *Generator, interval time.Duration, log *logger.Logger) *Feed {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Feed{
		Generator: gen,
		Interval:  interval,
		Logger:    log,
		quit:      make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Close ends every open stream with a normal close frame
func (f *Feed) Close() {
	f.quitOnce.Do(func() { close(f.quit) })
}

// -----------------------------------------------------------------------------

func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.Logger.Warning("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()
	f.Logger.Info("Client connected from %s", r.RemoteAddr)

	// watchdog: detects the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	f.mu.Lock()
	history, err := f.Generator.HistoryFrame()
	f.mu.Unlock()
	if err != nil {
		f.Logger.Error("Failed to build history: %v", err)
		return
	}
	if err := f.write(conn, history); err != nil {
		return
	}

	ticker := time.NewTicker(f.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			f.Logger.Info("Client %s disconnected", r.RemoteAddr)
			return
		case <-f.quit:
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "feed closing"),
				time.Now().Add(writeWait),
			)
			return
		case <-ticker.C:
			f.mu.Lock()
			tick, err := f.Generator.TickFrame()
			f.mu.Unlock()
			if err != nil {
				f.Logger.Error("Failed to build tick: %v", err)
				continue
			}
			if err := f.write(conn, tick); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (f *Feed) write(conn *websocket.Conn, payload []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		f.Logger.Info("Write error: %v", err)
		return err
	}
	return nil
}
