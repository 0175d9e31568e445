// Package latency simulates admission delay for order requests when the
// account is running in Backtest execution mode. It never runs in Online
// mode — the request is admitted against a live clock there instead.
package latency

import (
	"math/rand"
	"time"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Model stamps a revised admission timestamp onto a RequestOpen. It must
// not block for longer than a simulated duration and must not mutate any
// other field.
type Model interface {
	Admit(req types.Order[types.RequestOpen]) types.Order[types.RequestOpen]
}

// Jitter is a sandbox latency model: it adds a uniformly distributed delay
// in [Min, Max) to the request's timestamp (exactly Min when Min == Max), mirroring a smoothed
// token-bucket's wait-time calculation without ever denying admission.
type Jitter struct {
	Min, Max time.Duration
	rand     *rand.Rand
}

// NewJitter returns a Jitter model bounded by [min, max]. A zero-valued
// range (min == max == 0) makes Admit a no-op, which is the Online-mode
// behavior implemented by simply not constructing a Jitter.
func NewJitter(min, max time.Duration, seed int64) *Jitter {
	if max < min {
		max = min
	}
	return &Jitter{Min: min, Max: max, rand: rand.New(rand.NewSource(seed))}
}

// Admit returns req with Timestamp advanced by a random delay in [Min, Max),
// truncated to whole milliseconds. It returns req unchanged when Max <= 0.
func (j *Jitter) Admit(req types.Order[types.RequestOpen]) types.Order[types.RequestOpen] {
	if j.Max <= 0 {
		return req
	}
	span := j.Max - j.Min
	delay := j.Min
	if span > 0 {
		delay += time.Duration(j.rand.Int63n(int64(span)))
	}
	req.Timestamp += delay.Milliseconds()
	return req
}
