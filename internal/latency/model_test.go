package latency

import (
	"testing"
	"time"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func TestJitterAddsDelayWithinBounds(t *testing.T) {
	t.Parallel()

	j := NewJitter(10*time.Millisecond, 50*time.Millisecond, 1)
	req := types.Order[types.RequestOpen]{Timestamp: 1_000}

	for i := 0; i < 20; i++ {
		got := j.Admit(req)
		delta := got.Timestamp - req.Timestamp
		if delta < 10 || delta > 50 {
			t.Fatalf("Admit() delay = %dms, want within [10,50]", delta)
		}
	}
}

func TestJitterZeroRangeIsNoOp(t *testing.T) {
	t.Parallel()

	j := NewJitter(0, 0, 1)
	req := types.Order[types.RequestOpen]{Timestamp: 1_000}
	got := j.Admit(req)
	if got.Timestamp != req.Timestamp {
		t.Errorf("Admit() with zero range = %d, want unchanged %d", got.Timestamp, req.Timestamp)
	}
}
