package monitor

import (
	"context"
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/account"
	"github.com/HourglassDevTeam/Hourglass/internal/risk"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// replyTimeout bounds how long BuildSnapshot waits on AccountCore's reply
// channels. AccountCore processes requests in strict arrival order off a
// single actor loop, so a reply this slow means the loop is wedged, not
// merely busy.
const replyTimeout = 2 * time.Second

// Snapshot is the complete read-only view served by /snapshot and pushed
// to every WebSocket client on connect.
type Snapshot struct {
	Timestamp  time.Time                  `json:"timestamp"`
	Balances   []types.TokenBalance       `json:"balances"`
	Positions  []types.PerpetualPosition  `json:"positions"`
	OpenOrders []types.Order[types.Open]  `json:"open_orders"`
	Risk       risk.Snapshot              `json:"risk"`
}

// BuildSnapshot queries core's request channel for the current balances,
// positions, and resting orders, and pairs them with the risk monitor's
// aggregate view. risk may be nil if no monitor was attached, in which
// case Risk is left at its zero value.
func BuildSnapshot(ctx context.Context, core *account.Core, riskMon *risk.ExposureMonitor) Snapshot {
	snap := Snapshot{
		Timestamp:  time.Now(),
		Balances:   fetchBalances(ctx, core),
		Positions:  fetchPositions(ctx, core),
		OpenOrders: fetchOpenOrders(ctx, core),
	}
	if riskMon != nil {
		snap.Risk = riskMon.Snapshot()
	}
	return snap
}

func fetchBalances(ctx context.Context, core *account.Core) []types.TokenBalance {
	reply := make(chan []types.TokenBalance, 1)
	core.Submit(account.FetchBalancesRequest{Reply: reply})

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case v := <-reply:
		return v
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func fetchPositions(ctx context.Context, core *account.Core) []types.PerpetualPosition {
	reply := make(chan []types.PerpetualPosition, 1)
	core.Submit(account.FetchPositionsRequest{Reply: reply})

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case v := <-reply:
		return v
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func fetchOpenOrders(ctx context.Context, core *account.Core) []types.Order[types.Open] {
	reply := make(chan []types.Order[types.Open], 1)
	core.Submit(account.FetchOrdersOpenRequest{Reply: reply})

	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case v := <-reply:
		return v
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nil
	}
}
