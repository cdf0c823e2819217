package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"netview/internal/event"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// wsClient is one connected event-feed consumer.
type wsClient struct {
	id   string
	send chan []byte
}

// Hub manages websocket event-feed connections and fans broadcast
// events out to all of them. Delivery is at-least-once from the
// system's perspective and best-effort per client: a slow client
// misses frames rather than stalling the hub.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*wsClient]struct{}
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan event.Event
	upgrader   websocket.Upgrader
}

// NewHub creates a hub. Call Run to start its event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan event.Event, 256),
		upgrader: websocket.Upgrader{
			// The feed is same-origin in production; the reference
			// backend accepts any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("event feed client connected: %s (total: %d)", c.id, total)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("event feed client disconnected: %s (total: %d)", c.id, total)

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("failed to marshal event: %v", err)
				continue
			}
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					log.Printf("event feed client %s is slow, skipping frame", c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues an event for delivery to all connected clients.
func (h *Hub) Broadcast(ev event.Event) {
	select {
	case h.broadcast <- ev:
	default:
		log.Println("broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams broadcast
// frames until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{
		id:   uuid.NewString(),
		send: make(chan []byte, 64),
	}
	h.register <- c
	defer func() { h.unregister <- c }()

	// Inbound frames are discarded; reading is only needed to observe
	// the close from the client side.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readClosed:
			return

		case <-r.Context().Done():
			return
		}
	}
}
