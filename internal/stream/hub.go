// Package stream pushes sale activity to connected dashboards over
// WebSocket so the order book updates live without polling.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards are served from arbitrary hosts.
		return true
	},
}

// Frame is one event delivered to feed subscribers.
type Frame struct {
	Type      string `json:"type"` // "sale_recorded" | "sale_deleted" | "store_reset"
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan Frame
}

// Hub fans sale events out to every connected subscriber. Subscribers that
// cannot keep up with their send buffer are dropped.
type Hub struct {
	subscribers map[*subscriber]bool
	broadcast   chan Frame
	register    chan *subscriber
	unregister  chan *subscriber
	mutex       sync.RWMutex
	logger      *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]bool),
		broadcast:   make(chan Frame, 256),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		logger:      logger,
	}
}

// Run owns the subscriber set. Call it once, in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mutex.Lock()
			h.subscribers[sub] = true
			h.mutex.Unlock()
			h.logger.WithField("subscribers", h.SubscriberCount()).Info("Feed subscriber connected")

		case sub := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.send)
			}
			h.mutex.Unlock()
			h.logger.WithField("subscribers", h.SubscriberCount()).Info("Feed subscriber disconnected")

		case frame := <-h.broadcast:
			h.mutex.Lock()
			for sub := range h.subscribers {
				select {
				case sub.send <- frame:
				default:
					delete(h.subscribers, sub)
					close(sub.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast queues an event for every subscriber. Drops the event when the
// hub's own queue is full rather than blocking the caller.
func (h *Hub) Broadcast(eventType string, data any) {
	frame := Frame{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	select {
	case h.broadcast <- frame:
	default:
		h.logger.Warn("Feed broadcast queue full, dropping event")
	}
}

func (h *Hub) SubscriberCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.subscribers)
}

// HandleWebSocket upgrades the request and attaches the connection to the
// hub until the peer goes away.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade feed connection")
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan Frame, 64),
	}
	h.register <- sub

	go h.writeLoop(sub)
	go h.readLoop(sub)
}

func (h *Hub) readLoop(sub *subscriber) {
	defer func() {
		h.unregister <- sub
		sub.conn.Close()
	}()

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	sub.conn.SetPongHandler(func(string) error {
		sub.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Subscribers never send anything meaningful; reads only surface
	// disconnects and pongs.
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.WithError(err).Error("Feed connection error")
			}
			return
		}
	}
}

func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(frame)
			if err != nil {
				h.logger.WithError(err).Error("Failed to marshal feed frame")
				continue
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			sub.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
