// Package transport owns the persistent duplex connection to the
// backend. It dials the websocket endpoint, decodes inbound frames into
// events, publishes them on the bus, and reconnects with exponential
// backoff whenever the connection drops. Connection failures are never
// surfaced beyond the Connected flag and the synthetic connection_up /
// connection_down bus events.
package transport

import (
	"context"
	"encoding/json"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"netview/internal/event"
)

const (
	// DefaultInitialDelay and DefaultMaxDelay bound the reconnect
	// backoff schedule.
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
)

// Config holds the transport parameters. URL is the websocket endpoint;
// use DeriveURL to build it from the backend's HTTP base URL.
type Config struct {
	URL          string
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

func (c *Config) applyDefaults() {
	if c.InitialDelay <= 0 {
		c.InitialDelay = DefaultInitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
}

// DeriveURL converts a backend base URL into the websocket endpoint,
// matching the scheme (http → ws, https → wss).
func DeriveURL(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}

// Manager maintains one websocket connection for the lifetime of the
// application. Connect starts the connection loop; Close tears it down
// and guarantees no scheduled reconnect fires afterwards.
type Manager struct {
	cfg Config
	bus *event.Bus

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a manager publishing decoded frames onto bus.
func New(cfg Config, bus *event.Bus) *Manager {
	cfg.applyDefaults()
	return &Manager{cfg: cfg, bus: bus}
}

// Connect starts the connection loop in the background. Calling Connect
// on an already-connected manager is a no-op.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)
}

// Close stops the connection loop, closes any open connection, and
// waits for the loop to exit. The context cancellation acts as the
// guard against a dangling reconnect timer firing after teardown.
func (m *Manager) Close() {
	m.mu.Lock()
	cancel := m.cancel
	conn := m.conn
	done := m.done
	m.cancel = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if conn != nil {
		conn.Close()
	}
	<-done
}

// Connected reports whether the transport currently holds a live
// connection. Exposed for an optional connectivity indicator only.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)

	bo := newBackoff(m.cfg.InitialDelay, m.cfg.MaxDelay)
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.cfg.URL, nil)
		if err != nil {
			delay := bo.Next()
			log.Printf("transport: dial %s: %v, retrying in %v", m.cfg.URL, err, delay)
			if !sleep(ctx, delay) {
				return
			}
			continue
		}

		bo.Reset()
		m.setConn(conn, true)
		m.bus.Publish(event.Event{Type: event.ConnectionUp})
		log.Printf("transport: connected to %s", m.cfg.URL)

		m.readLoop(conn)

		m.setConn(nil, false)
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		m.bus.Publish(event.Event{Type: event.ConnectionDown})

		delay := bo.Next()
		log.Printf("transport: connection lost, reconnecting in %v", delay)
		if !sleep(ctx, delay) {
			return
		}
	}
}

// readLoop decodes frames until the connection fails. Malformed frames
// are dropped: the protocol is at-least-once and consumers re-fetch
// authoritative state, so a lost frame is recoverable.
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var ev event.Event
		if err := json.Unmarshal(data, &ev); err != nil || ev.Type == "" {
			continue
		}
		m.bus.Publish(ev)
	}
}

func (m *Manager) setConn(conn *websocket.Conn, connected bool) {
	m.mu.Lock()
	m.conn = conn
	m.connected = connected
	m.mu.Unlock()
}

// sleep waits for d or until ctx is cancelled, reporting whether the
// full delay elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
