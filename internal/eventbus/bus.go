// Package eventbus implements the single-producer, single-consumer
// outbound AccountEvent stream. AccountCore is the sole producer;
// ordering within a producer is preserved by Go channel semantics, so the
// bus itself only needs to add the non-blocking "fire and continue" send
// policy described for oneshot replies and the outbound stream alike.
package eventbus

import (
	"log/slog"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Bus is an unbounded-enough (buffered) AccountEvent channel with a
// drop-and-log policy when the consumer falls behind, matching the
// fire-and-continue rule: the mutation has already committed by the time
// an event is published, so a full channel must never block the actor.
type Bus struct {
	events chan types.AccountEvent
	logger *slog.Logger
}

// New returns a Bus buffered to capacity.
func New(capacity int, logger *slog.Logger) *Bus {
	return &Bus{events: make(chan types.AccountEvent, capacity), logger: logger}
}

// Publish sends evt, dropping and logging if the channel is full.
func (b *Bus) Publish(evt types.AccountEvent) {
	select {
	case b.events <- evt:
	default:
		b.logger.Warn("event bus full, dropping event", "exchange", evt.Exchange, "timestamp", evt.ExchangeTimestamp)
	}
}

// Events returns the consumer-facing receive channel.
func (b *Bus) Events() <-chan types.AccountEvent {
	return b.events
}
