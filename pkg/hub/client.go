package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds what a subscriber may send us
	maxMessageSize = 4 * 1024

	sendBuffer = 256
)

// Client represents a single websocket connection
type Client struct {
	id     string
	hub    *Hub
	conn   *websocket.Conn
	topics []string
	send   chan Message
}

// NewClient creates a new client subscribed to the given topic prefixes and
// registers it with the hub. No prefixes subscribes to everything.
func NewClient(hub *Hub, conn *websocket.Conn, topics ...string) *Client {
	client := newClient(hub, conn, topics)
	select {
	case hub.register <- client:
	case <-hub.done:
		close(client.send)
	}
	return client
}

func newClient(hub *Hub, conn *websocket.Conn, topics []string) *Client {
	if len(topics) == 0 {
		topics = []string{""}
	}
	return &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		topics: topics,
		send:   make(chan Message, sendBuffer),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string {
	return c.id
}

// Topics returns the subscribed prefixes.
func (c *Client) Topics() []string {
	return append([]string(nil), c.topics...)
}

// Subscribed reports whether any of the client's prefixes matches topic.
func (c *Client) Subscribed(topic string) bool {
	for _, p := range c.topics {
		if MatchTopic(p, topic) {
			return true
		}
	}
	return false
}

// Run starts the client's read and write pumps
// This should be called in the websocket handler
func (c *Client) Run() {
	go c.writePump()
	c.readPump() // Blocks until connection closes
}

// readPump reads messages from the websocket connection
// It keeps the connection alive and detects disconnection
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Subscribers don't send data; reading detects disconnection and
		// processes pongs.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump writes messages to the websocket connection
// Only this goroutine writes to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if message.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}

			if err := c.conn.WriteMessage(wsType, message.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
