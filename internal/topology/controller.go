// Package topology orchestrates the live topology view: it polls the
// data sources, rebuilds the graph, applies layout, listens to the
// event bus for unscheduled refreshes, and persists position changes
// when a node is dragged. The controller owns the only mutable state in
// the sync core: the pin cache and the last-rendered position map.
package topology

import (
	"context"
	"log"
	"sync"
	"time"

	"netview/internal/event"
	"netview/internal/graph"
	"netview/internal/layout"
	"netview/internal/position"
	"netview/internal/source"
)

// DefaultInterval is the periodic refresh interval.
const DefaultInterval = 30 * time.Second

// refreshTriggers are the bus events that cause an immediate refresh in
// addition to the periodic timer.
var refreshTriggers = []event.Type{
	event.DeviceOnline,
	event.DeviceOffline,
	event.NewDevice,
	event.AgentOnline,
	event.AgentOffline,
}

// DataSource joins the three topology data sources in one call.
type DataSource interface {
	FetchAll(ctx context.Context) (source.Snapshot, error)
}

// PositionStore is the backend position store surface.
type PositionStore interface {
	FetchAll(ctx context.Context) ([]position.NodePosition, error)
	UpsertBatch(ctx context.Context, entries []position.NodePosition) error
	ClearAll(ctx context.Context) error
}

// Renderer receives each newly laid-out topology. Implementations must
// tolerate being called from multiple refresh cycles; the last call
// wins.
type Renderer interface {
	Render(top graph.Topology)
}

// Options tune the controller.
type Options struct {
	Interval time.Duration
	Layout   layout.Config
}

// Controller drives the topology view.
type Controller struct {
	source   DataSource
	store    PositionStore
	bus      *event.Bus
	renderer Renderer
	opts     Options

	mu       sync.Mutex
	pinned   map[string]graph.Position
	previous map[string]graph.Position
	current  graph.Topology
	rendered bool

	unsub  func()
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller. Call Start to mount it.
func New(src DataSource, store PositionStore, bus *event.Bus, r Renderer, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Controller{
		source:   src,
		store:    store,
		bus:      bus,
		renderer: r,
		opts:     opts,
		pinned:   make(map[string]graph.Position),
		previous: make(map[string]graph.Position),
	}
}

// Start mounts the controller: it loads the persisted pin set, performs
// the initial fetch/build/layout/render, subscribes to the bus, and
// begins the periodic refresh loop.
func (c *Controller) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})

	c.loadPins(ctx)
	c.refresh(ctx, true)

	c.unsub = c.bus.Subscribe(refreshTriggers, func(ev event.Event) {
		// Bus dispatch happens on the transport goroutine; refresh on a
		// separate one so a slow fetch never stalls event delivery. The
		// periodic path may race this one; last render wins.
		go c.refresh(ctx, false)
	})

	go c.loop(ctx)
}

// Close cancels the periodic timer and the bus subscription and waits
// for the loop to exit. Already-scheduled refreshes see the cancelled
// context and become no-ops.
func (c *Controller) Close() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	if c.unsub != nil {
		c.unsub()
	}
	<-c.done
}

// Current returns the last rendered topology.
func (c *Controller) Current() graph.Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// RecordDrag stores a node's new position in the pin cache and fires an
// asynchronous upsert to the position store. The write is not retried:
// the in-memory cache remains authoritative for this session, and the
// next drag or reset resynchronizes.
func (c *Controller) RecordDrag(nodeID string, x, y float64) {
	pos := graph.Position{X: x, Y: y}
	c.mu.Lock()
	c.pinned[nodeID] = pos
	c.previous[nodeID] = pos
	if n := c.current.Node(nodeID); n != nil {
		n.Position = pos
		n.Pinned = true
	}
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		entry := position.NodePosition{NodeID: nodeID, X: x, Y: y, Pinned: true}
		if err := c.store.UpsertBatch(ctx, []position.NodePosition{entry}); err != nil {
			log.Printf("position store: persist %s: %v", nodeID, err)
		}
	}()
}

// ResetLayout clears the pin cache and the persisted pin set, then
// re-runs a full layout.
func (c *Controller) ResetLayout(ctx context.Context) {
	c.mu.Lock()
	c.pinned = make(map[string]graph.Position)
	c.previous = make(map[string]graph.Position)
	c.mu.Unlock()

	if err := c.store.ClearAll(ctx); err != nil {
		log.Printf("position store: clear: %v", err)
	}
	c.refresh(ctx, true)
}

// Refresh triggers one refresh-mode cycle immediately.
func (c *Controller) Refresh(ctx context.Context) {
	c.refresh(ctx, false)
}

// Relayout re-runs the full layout without touching the pin cache or
// the persisted pin set. Used when the canvas changes, e.g. on a
// config reload.
func (c *Controller) Relayout(ctx context.Context) {
	c.refresh(ctx, true)
}

// SetLayout replaces the layout configuration; it takes effect on the
// next layout pass.
func (c *Controller) SetLayout(cfg layout.Config) {
	c.mu.Lock()
	c.opts.Layout = cfg
	c.mu.Unlock()
}

func (c *Controller) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.refresh(ctx, false)
		case <-ctx.Done():
			return
		}
	}
}

// loadPins populates the pin cache from the store's persisted pin set.
// Failure is non-fatal: the session starts with an empty cache.
func (c *Controller) loadPins(ctx context.Context) {
	entries, err := c.store.FetchAll(ctx)
	if err != nil {
		log.Printf("position store: load pins: %v", err)
		return
	}
	c.mu.Lock()
	for _, e := range entries {
		if e.Pinned {
			c.pinned[e.NodeID] = graph.Position{X: e.X, Y: e.Y}
		}
	}
	c.mu.Unlock()
}

// refresh runs one fetch/build/layout/render cycle. A failed fetch
// aborts the cycle entirely: the previous rendered graph stays
// untouched, except on the very first cycle where the empty state is
// rendered instead.
func (c *Controller) refresh(ctx context.Context, full bool) {
	if ctx.Err() != nil {
		return
	}

	snap, err := c.source.FetchAll(ctx)
	if err != nil {
		log.Printf("topology: fetch: %v", err)
		c.mu.Lock()
		first := !c.rendered
		if first {
			c.current = graph.Topology{}
			c.rendered = true
		}
		c.mu.Unlock()
		if first {
			c.renderer.Render(graph.Topology{})
		}
		return
	}

	top := graph.Build(snap.Devices, snap.Traffic, snap.Interfaces)

	c.mu.Lock()
	pinned := clonePositions(c.pinned)
	previous := clonePositions(c.previous)
	layoutCfg := c.opts.Layout
	c.mu.Unlock()

	var nodes []graph.Node
	if full {
		nodes = layout.Full(top, pinned, layoutCfg)
	} else {
		nodes = layout.Refresh(top, previous, pinned, layoutCfg)
	}
	top.Nodes = nodes

	c.mu.Lock()
	if ctx.Err() != nil {
		// Torn down while fetching; do not mutate a disposed view.
		c.mu.Unlock()
		return
	}
	for _, n := range nodes {
		c.previous[n.ID] = n.Position
	}
	c.current = top
	c.rendered = true
	c.mu.Unlock()

	c.renderer.Render(top)
}

func clonePositions(src map[string]graph.Position) map[string]graph.Position {
	out := make(map[string]graph.Position, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
