// Package graph holds the topology view model and the pure builder that
// derives it from the three data sources. The builder performs no I/O
// and keeps no state; identical inputs yield identical output.
package graph

import "netview/internal/source"

// RouterID is the fixed node id of the router. Exactly one router node
// exists per topology snapshot.
const RouterID = "router"

// Kind distinguishes the two node variants.
type Kind string

const (
	KindRouter Kind = "router"
	KindDevice Kind = "device"
)

// Position is a top-left 2D coordinate in the rendering plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one vertex of the topology. Router nodes carry WANAddress;
// device nodes carry the inventory snapshot and their traffic rate.
// Position and Pinned are filled by the layout engine, not the builder.
type Node struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Online     bool           `json:"online"`
	WANAddress string         `json:"wanAddress,omitempty"`
	Device     *source.Device `json:"device,omitempty"`
	TrafficBps uint64         `json:"trafficBps"`
	Position   Position       `json:"position"`
	Pinned     bool           `json:"pinned"`
}

// Edge connects the router to one device. The topology is a star by
// construction: no device-to-device edges exist.
type Edge struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	TrafficBps uint64 `json:"trafficBps"`
	Online     bool   `json:"online"`
	Weight     int    `json:"weight"`
	Animated   bool   `json:"animated"`
}

// Topology is one complete node/edge snapshot.
type Topology struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node returns the node with the given id, or nil.
func (t *Topology) Node(id string) *Node {
	for i := range t.Nodes {
		if t.Nodes[i].ID == id {
			return &t.Nodes[i]
		}
	}
	return nil
}
