// Package position holds the persisted node-position entity and the
// HTTP client for the backend position store. Store calls are
// best-effort: the controller's in-memory cache stays the source of
// truth for the current session, so failures are logged and ignored.
package position

// NodePosition is the persisted position and pin state of one node,
// keyed by NodeID, unique per node.
type NodePosition struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned"`
}

// NewNodePosition creates an unpinned position record.
func NewNodePosition(nodeID string, x, y float64) NodePosition {
	return NodePosition{NodeID: nodeID, X: x, Y: y}
}
