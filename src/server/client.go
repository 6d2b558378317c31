package server

import (
	"encoding/json"
	"time"

	"quote-charts/src/models"

	"github.com/gorilla/websocket"
)

const (
	pushWriteTimeout = 2 * time.Second
	pushIdleTimeout  = 60 * time.Second
	pushPingInterval = 54 * time.Second
	maxCommandSize   = 4 * 1024
	pushQueueSize    = 256
)

// -----------------------------------------------------------------------------
// Client is one UI listener on /ws. The hub owns its queue: only the hub
// writes to or closes queue.
// -----------------------------------------------------------------------------

type Client struct {
	hub   *FastAPIServer
	conn  *websocket.Conn
	queue chan *models.MPushMessage
}

func newClient(hub *FastAPIServer, conn *websocket.Conn) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		queue: make(chan *models.MPushMessage, pushQueueSize),
	}
}

// serve runs the command reader and the push writer of one connection
func (c *Client) serve() {
	go c.pushLoop()
	go c.commandLoop()
}

// -----------------------------------------------------------------------------

// commandLoop reads chart and quote commands until the socket fails or the
// peer goes silent for longer than pushIdleTimeout.
func (c *Client) commandLoop() {
	defer c.leave()

	c.conn.SetReadLimit(maxCommandSize)
	c.extendIdle()
	c.conn.SetPongHandler(func(string) error {
		c.extendIdle()
		return nil
	})

	for {
		cmd, err := c.nextCommand()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("Push client read failed: %v", err)
			}
			return
		}
		if response := c.hub.answer(cmd); response != nil {
			c.hub.replyTo(c, response)
		}
	}
}

// nextCommand blocks for one frame. A frame that is not a command ends the
// connection.
func (c *Client) nextCommand() (models.MClientCommand, error) {
	var cmd models.MClientCommand
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return cmd, err
	}
	if err := json.Unmarshal(message, &cmd); err != nil {
		c.hub.Logger.Info("Dropping push client after bad command: %v", err)
		return cmd, err
	}
	return cmd, nil
}

func (c *Client) extendIdle() {
	c.conn.SetReadDeadline(time.Now().Add(pushIdleTimeout))
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.quit:
	}
	c.conn.Close()
	c.hub.Logger.Debug("Push client disconnected")
}

// -----------------------------------------------------------------------------

// pushLoop drains the queue onto the socket and keeps the peer alive with
// pings. A closed queue means the hub dropped the client.
func (c *Client) pushLoop() {
	ping := time.NewTicker(pushPingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		var err error
		select {
		case message, ok := <-c.queue:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(pushWriteTimeout))
			if err = c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Push to client failed: %v", err)
			}
		case <-ping.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

func (c *Client) write(messageType int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(pushWriteTimeout))
	return c.conn.WriteMessage(messageType, payload)
}
