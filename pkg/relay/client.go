package relay

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // Time allowed to write a message to the peer.
	pongWait       = 60 * time.Second    // Time allowed to read the next pong message from the peer.
	pingPeriod     = (pongWait * 9) / 10 // Must be less than pongWait.
	maxMessageSize = 512
	sendBuffer     = 64
)

// Client is a middleman between one relay websocket connection and the hub
type Client struct {
	ID     uuid.UUID
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]bool
}

func newClient(h *Hub, conn *websocket.Conn, topics []string) *Client {
	c := &Client{
		ID:   uuid.New(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if c.topics == nil {
			c.topics = make(map[string]bool)
		}
		c.topics[topic] = true
	}
	return c
}

func (c *Client) subscribed(topic string) bool {
	return c.topics == nil || c.topics[topic]
}

func (c *Client) topicList() []string {
	list := make([]string, 0, len(c.topics))
	for topic := range c.topics {
		list = append(list, topic)
	}
	sort.Strings(list)
	return list
}

// readPump drains the connection so control frames are processed
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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithError(err).WithField("client", c.ID).Warn("⚠ Relay read error")
			}
			return
		}
		c.hub.log.WithField("client", c.ID).Debugf("Ignoring relay client message: %s", message)
	}
}

// writePump sends queued frames and keeps the connection alive with pings
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
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.WithError(err).WithField("client", c.ID).Debug("Relay write failed")
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
