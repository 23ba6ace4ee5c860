// Package feedserver is the push side of the event protocol: a websocket
// hub that greets every client with a "history" snapshot and then fans out
// "new_events" batches, plus the REST endpoints the dashboard polls.
package feedserver

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Hub manages websocket client connections and fans broadcast frames out
// to all of them. Register, unregister, and broadcast all go through
// channels, so it is safe for concurrent use.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	upgrader   websocket.Upgrader
	metrics    *Metrics

	// greeting builds the snapshot frame sent to a client on connect.
	greeting func() []byte
}

// NewHub allocates a hub. Call Run in a goroutine to start the loop.
// greeting may be nil when no snapshot should be sent on connect.
func NewHub(m *Metrics, greeting func() []byte) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn, 16),
		unregister: make(chan *websocket.Conn, 16),
		broadcast:  make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		metrics:  m,
		greeting: greeting,
	}
}

// Run processes registrations, broadcasts, and keepalive pings in a single
// select loop. It closes all clients when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.Close()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.ClientsConnected.Set(float64(len(h.clients)))
			if h.greeting != nil {
				if msg := h.greeting(); msg != nil {
					_ = c.SetWriteDeadline(time.Now().Add(3 * time.Second))
					if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
						h.drop(c)
					}
				}
			}

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(3 * time.Second))
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					h.drop(c)
				}
			}
			h.metrics.FramesBroadcast.Inc()

		case <-ping.C:
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *websocket.Conn) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		_ = c.Close()
	}
	h.metrics.ClientsConnected.Set(float64(len(h.clients)))
}

// Handler upgrades incoming requests to websocket connections and
// registers them with the hub. Inbound messages are drained and ignored;
// the protocol is one-way.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		h.register <- conn

		go func() {
			defer func() { h.unregister <- conn }()
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// BroadcastJSON marshals v and queues it for delivery to all clients. A
// full broadcast channel drops the frame rather than blocking the caller.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("[feed] broadcast marshal: %v", err)
		return
	}
	select {
	case h.broadcast <- b:
	default:
		log.Printf("[feed] broadcast queue full, dropping frame")
	}
}
