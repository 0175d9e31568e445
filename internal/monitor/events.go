package monitor

import (
	"time"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// DashboardEvent wraps every message pushed over the WebSocket stream.
// Type is "snapshot" for the initial full-state push on connect, or
// "account_event" for each AccountEvent relayed off the core's event bus.
type DashboardEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewSnapshotEvent wraps a Snapshot for the WebSocket stream.
func NewSnapshotEvent(snap Snapshot) DashboardEvent {
	return DashboardEvent{Type: "snapshot", Timestamp: snap.Timestamp, Data: snap}
}

// NewAccountEvent wraps a relayed AccountEvent for the WebSocket stream.
func NewAccountEvent(evt types.AccountEvent) DashboardEvent {
	return DashboardEvent{
		Type:      "account_event",
		Timestamp: time.UnixMilli(evt.ExchangeTimestamp),
		Data:      evt,
	}
}
