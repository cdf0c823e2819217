// Package event defines the real-time event envelope and the in-process
// bus that distributes decoded events to interested consumers.
//
// The bus is deliberately not a singleton: the composition root creates
// one and hands it to the transport (publisher) and to each feature
// (subscribers). Subscribing after an event was published never delivers
// that event retroactively; the bus holds no history.
package event

import "encoding/json"

// Type identifies the kind of real-time event carried by an Event.
type Type string

const (
	// DeviceOnline is sent when a known device starts responding.
	DeviceOnline Type = "device_online"

	// DeviceOffline is sent when a known device stops responding.
	DeviceOffline Type = "device_offline"

	// NewDevice is sent when the scanner discovers a device for the
	// first time.
	NewDevice Type = "new_device"

	// AgentOnline is sent when a monitoring agent checks in.
	AgentOnline Type = "agent_online"

	// AgentOffline is sent when a monitoring agent misses its heartbeat.
	AgentOffline Type = "agent_offline"

	// ConnectionUp and ConnectionDown are synthetic events published by
	// the transport itself so consumers can show a connectivity
	// indicator. They never arrive over the wire.
	ConnectionUp   Type = "connection_up"
	ConnectionDown Type = "connection_down"
)

// Event is the envelope for every real-time frame.
//
// Wire example:
//
//	{"event":"device_online","payload":{"id":"d1"}}
//
// The payload is opaque to the bus; consumers that care decode it
// themselves, and most don't; they re-fetch authoritative state instead.
type Event struct {
	Type    Type            `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
