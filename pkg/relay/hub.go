package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

// Message types pushed to relay clients
const (
	TypePoints = "points"
	TypeRedraw = "redraw"
)

const broadcastBuffer = 256

// ErrQueueFull is returned by Publish when the broadcast queue is saturated
var ErrQueueFull = errors.New("relay queue full")

// Envelope is the JSON frame sent to relay clients
type Envelope struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// Topic returns the relay topic for one entity and measurement kind,
// e.g. "device-dev-7-voltage"
func Topic(entityID, kind string) string {
	return slug.Make(fmt.Sprintf("device %s %s", entityID, kind))
}

type outbound struct {
	topic string
	data  []byte
}

// Hub maintains the set of active clients and fans messages out by topic
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	log        logrus.FieldLogger
}

// Option configures a Hub
type Option func(*Hub)

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Hub) {
		h.log = log
	}
}

// WithCheckOrigin sets the origin check used when upgrading requests
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = check
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.WithFields(logrus.Fields{"client": client.ID, "topics": client.topicList()}).Info("Relay client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.WithField("client", client.ID).Info("Relay client unregistered")
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.subscribed(msg.topic) {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					h.log.WithField("client", client.ID).Warn("⚠ Relay client send buffer full, removing")
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues a message for every client subscribed to topic. It never
// blocks the caller; when the queue is full the message is dropped.
func (h *Hub) Publish(topic, msgType string, payload interface{}) error {
	data, err := json.Marshal(Envelope{Type: msgType, Topic: topic, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal relay message: %w", err)
	}

	select {
	case h.broadcast <- outbound{topic: topic, data: data}:
		return nil
	default:
		h.log.WithField("topic", topic).Warn("⚠ Relay queue full, dropping message")
		return ErrQueueFull
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and registers a client. Repeated ?topic=
// parameters restrict the subscription; without any the client receives
// every topic.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("❌ Relay upgrade failed")
		return
	}

	client := newClient(h, conn, r.URL.Query()["topic"])
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
