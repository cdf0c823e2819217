package graph

import "netview/internal/source"

// Edge weight steps over rx+tx bits per second. Edges above the lowest
// threshold are additionally marked animated as a renderer hint.
const (
	weightThresholdLow  = 100_000
	weightThresholdMid  = 1_000_000
	weightThresholdHigh = 10_000_000
)

// Build derives the topology from the three source snapshots: one
// router node, one device node per inventory entry, and exactly one
// edge from the router to each device. Missing traffic samples count as
// zero. Build is deterministic: node and edge order follows the device
// inventory order.
func Build(devices []source.Device, traffic []source.TrafficSample, links []source.RouterInterface) Topology {
	byDevice := make(map[string]uint64, len(traffic))
	for _, s := range traffic {
		byDevice[s.ID] = s.RxBps + s.TxBps
	}

	top := Topology{
		Nodes: make([]Node, 0, len(devices)+1),
		Edges: make([]Edge, 0, len(devices)),
	}

	top.Nodes = append(top.Nodes, Node{
		ID:         RouterID,
		Kind:       KindRouter,
		Online:     routerOnline(links),
		WANAddress: wanAddress(links),
	})

	for i := range devices {
		dev := devices[i]
		bps := byDevice[dev.ID]
		top.Nodes = append(top.Nodes, Node{
			ID:         dev.ID,
			Kind:       KindDevice,
			Online:     dev.Online,
			Device:     &dev,
			TrafficBps: bps,
		})
		top.Edges = append(top.Edges, Edge{
			ID:         RouterID + ":" + dev.ID,
			Source:     RouterID,
			Target:     dev.ID,
			TrafficBps: bps,
			Online:     dev.Online,
			Weight:     edgeWeight(bps),
			Animated:   bps > weightThresholdLow,
		})
	}

	return top
}

func edgeWeight(bps uint64) int {
	switch {
	case bps <= weightThresholdLow:
		return 1
	case bps <= weightThresholdMid:
		return 2
	case bps <= weightThresholdHigh:
		return 3
	default:
		return 4
	}
}

func routerOnline(links []source.RouterInterface) bool {
	for _, l := range links {
		if l.LinkState == "up" {
			return true
		}
	}
	return false
}
