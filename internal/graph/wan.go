package graph

import (
	"strings"

	"netview/internal/source"
)

// uplinkInterface is the interface name VyOS-style routers use for the
// primary uplink on default installs.
const uplinkInterface = "eth0"

// wanAddress picks the WAN address from the router's interface list.
// The heuristic is best-effort, first match wins: exact uplink name,
// then a "wan" mention in the description, then a PPP-over-Ethernet
// interface name. No match yields an empty string, not an error.
//
// Kept behind this one function so the classifier can be replaced
// without touching the builder's contract.
func wanAddress(links []source.RouterInterface) string {
	for _, l := range links {
		if l.Name == uplinkInterface {
			return l.IPAddress
		}
		if strings.Contains(strings.ToLower(l.Description), "wan") {
			return l.IPAddress
		}
		if strings.HasPrefix(l.Name, "pppoe") {
			return l.IPAddress
		}
	}
	return ""
}
