// Package streamtest provides a scripted WebSocket feed for tests.
package streamtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Frame is one message written by the feed.
type Frame struct {
	Type int
	Data []byte
}

// Text builds a text frame
func Text(payload string) Frame {
	return Frame{Type: websocket.TextMessage, Data: []byte(payload)}
}

// Binary builds a binary frame
func Binary(payload []byte) Frame {
	return Frame{Type: websocket.BinaryMessage, Data: payload}
}

// FeedServer replays frames to every connecting client.
type FeedServer struct {
	*httptest.Server
	WSURL string
	// Connected receives once per accepted connection
	Connected chan struct{}
}

// Options control what the feed does after replaying its frames.
type Options struct {
	// CloseAfter sends a normal close frame once all frames are written
	CloseAfter bool
	// Gate, when set, is waited on before frames are written
	Gate <-chan struct{}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

// NewFeedServer starts a feed that writes frames in order. The server is
// closed with the test.
func NewFeedServer(t *testing.T, opts Options, frames ...Frame) *FeedServer {
	t.Helper()

	fs := &FeedServer{Connected: make(chan struct{}, 16)}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		select {
		case fs.Connected <- struct{}{}:
		default:
		}

		if opts.Gate != nil {
			<-opts.Gate
		}

		for _, frame := range frames {
			if err := conn.WriteMessage(frame.Type, frame.Data); err != nil {
				return
			}
		}

		if opts.CloseAfter {
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
				time.Now().Add(time.Second),
			)
		}

		// hold until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	fs.WSURL = "ws" + strings.TrimPrefix(fs.Server.URL, "http")
	t.Cleanup(fs.Server.Close)

	return fs
}
