// Package layout computes 2D positions for a topology snapshot.
//
// Full mode runs a hierarchical top-down layout over the subset of the
// graph that is not pinned; pinned nodes keep their stored coordinates
// and are excluded from rank assignment entirely, so they cannot
// perturb the placement of other nodes. Refresh mode never runs the
// algorithm: it copies positions from the previous render so a periodic
// data update cannot move a node the user has not touched.
package layout

import (
	"sort"

	dgraph "github.com/dominikbraun/graph"

	"netview/internal/graph"
)

// Box is the bounding box reserved for one node during spacing.
type Box struct {
	W, H float64
}

// Config bounds the layout canvas and sizes the per-kind node boxes.
type Config struct {
	Width     float64
	Height    float64
	Padding   float64
	RouterBox Box
	DeviceBox Box
}

func (c *Config) applyDefaults() {
	if c.Width <= 0 {
		c.Width = 1200
	}
	if c.Height <= 0 {
		c.Height = 800
	}
	if c.Padding <= 0 {
		c.Padding = 50
	}
	if c.RouterBox == (Box{}) {
		c.RouterBox = Box{W: 180, H: 80}
	}
	if c.DeviceBox == (Box{}) {
		c.DeviceBox = Box{W: 140, H: 60}
	}
}

func (c Config) boxFor(kind graph.Kind) Box {
	if kind == graph.KindRouter {
		return c.RouterBox
	}
	return c.DeviceBox
}

// Full lays out the whole topology from scratch. Nodes present in
// pinned are placed at their stored coordinates unchanged; every other
// node gets a freshly computed position. Edges touching a pinned
// endpoint are excluded from the layout graph.
func Full(top graph.Topology, pinned map[string]graph.Position, cfg Config) []graph.Node {
	cfg.applyDefaults()

	centers := rankLayout(top, pinned, cfg)

	out := make([]graph.Node, len(top.Nodes))
	for i, n := range top.Nodes {
		node := n
		if pos, ok := pinned[n.ID]; ok {
			node.Position = pos
			node.Pinned = true
		} else if center, ok := centers[n.ID]; ok {
			box := cfg.boxFor(n.Kind)
			node.Position = graph.Position{
				X: center.X - box.W/2,
				Y: center.Y - box.H/2,
			}
		}
		out[i] = node
	}
	return out
}

// Refresh updates graph content without structural repositioning. Each
// node takes, in order: its pinned coordinates, its position in the
// previous render, or a default slot for nodes that appeared between
// refreshes. New nodes stay at the default until the next full layout;
// that jitter trade-off is deliberate.
func Refresh(top graph.Topology, previous, pinned map[string]graph.Position, cfg Config) []graph.Node {
	cfg.applyDefaults()

	out := make([]graph.Node, len(top.Nodes))
	fresh := 0
	for i, n := range top.Nodes {
		node := n
		if pos, ok := pinned[n.ID]; ok {
			node.Position = pos
			node.Pinned = true
		} else if pos, ok := previous[n.ID]; ok {
			node.Position = pos
		} else {
			node.Position = defaultSlot(fresh, cfg)
			fresh++
		}
		out[i] = node
	}
	return out
}

// defaultSlot places a brand-new node in a row along the bottom edge of
// the canvas. Slots may overlap existing nodes; they only need to be
// valid until the next full layout.
func defaultSlot(i int, cfg Config) graph.Position {
	return graph.Position{
		X: cfg.Padding + float64(i)*(cfg.DeviceBox.W+cfg.Padding),
		Y: cfg.Height - cfg.Padding - cfg.DeviceBox.H,
	}
}

// rankLayout runs the hierarchical pass: roots at the top, BFS levels
// below, even horizontal spacing within a level. Returns center points
// keyed by node id for the non-pinned subset.
func rankLayout(top graph.Topology, pinned map[string]graph.Position, cfg Config) map[string]graph.Position {
	centers := make(map[string]graph.Position)

	g := dgraph.New(dgraph.StringHash, dgraph.Directed())
	ids := make([]string, 0, len(top.Nodes))
	for _, n := range top.Nodes {
		if _, ok := pinned[n.ID]; ok {
			continue
		}
		ids = append(ids, n.ID)
		_ = g.AddVertex(n.ID)
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return centers
	}
	for _, e := range top.Edges {
		if _, ok := pinned[e.Source]; ok {
			continue
		}
		if _, ok := pinned[e.Target]; ok {
			continue
		}
		_ = g.AddEdge(e.Source, e.Target)
	}

	preds, err := g.PredecessorMap()
	if err != nil {
		return centers
	}
	adj, err := g.AdjacencyMap()
	if err != nil {
		return centers
	}

	var roots []string
	for _, id := range ids {
		if len(preds[id]) == 0 {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 {
		roots = []string{ids[0]}
	}

	// BFS level assignment over sorted neighbors keeps output stable
	// across runs; the adjacency map itself has no fixed order.
	visited := make(map[string]bool, len(ids))
	var levels [][]string
	current := roots
	for _, id := range current {
		visited[id] = true
	}
	for len(current) > 0 {
		levels = append(levels, current)
		var next []string
		for _, id := range current {
			neighbors := make([]string, 0, len(adj[id]))
			for to := range adj[id] {
				neighbors = append(neighbors, to)
			}
			sort.Strings(neighbors)
			for _, to := range neighbors {
				if !visited[to] {
					visited[to] = true
					next = append(next, to)
				}
			}
		}
		current = next
	}

	var stragglers []string
	for _, id := range ids {
		if !visited[id] {
			stragglers = append(stragglers, id)
		}
	}
	if len(stragglers) > 0 {
		levels[len(levels)-1] = append(levels[len(levels)-1], stragglers...)
	}

	levelHeight := (cfg.Height - 2*cfg.Padding) / float64(len(levels))
	for idx, level := range levels {
		y := cfg.Padding + float64(idx)*levelHeight + levelHeight/2
		spacing := (cfg.Width - 2*cfg.Padding) / float64(len(level)+1)
		for i, id := range level {
			centers[id] = graph.Position{
				X: cfg.Padding + spacing*float64(i+1),
				Y: y,
			}
		}
	}
	return centers
}
