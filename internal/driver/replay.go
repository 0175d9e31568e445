// Package driver drives market trades, and optionally a starting batch of
// orders, into an AccountCore through its external request channel. It
// replaces the teacher's quoting strategy loop with a simpler feed-forward
// loop: where Maker.Run consumed a trade channel to react with fresh
// quotes, Replay.Run consumes a trade channel to forward each print
// straight into the matcher.
package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/account"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Replay pushes market trades from a single source channel into an
// AccountCore, optionally seeding the book with an opening batch of
// orders first.
type Replay struct {
	core   *account.Core
	logger *slog.Logger

	openBatch   []types.Order[types.RequestOpen]
	cancelBatch []types.Order[types.RequestCancel]
}

// New builds a Replay targeting core. WithOpenBatch/WithCancelBatch add an
// optional seed submitted once before Run starts consuming trades.
func New(core *account.Core, logger *slog.Logger) *Replay {
	return &Replay{core: core, logger: logger.With("component", "driver")}
}

// WithOpenBatch seeds Run with a batch of orders submitted before the
// trade loop starts.
func (r *Replay) WithOpenBatch(batch []types.Order[types.RequestOpen]) *Replay {
	r.openBatch = batch
	return r
}

// WithCancelBatch seeds Run with a batch of cancels submitted before the
// trade loop starts, after the open batch.
func (r *Replay) WithCancelBatch(batch []types.Order[types.RequestCancel]) *Replay {
	r.cancelBatch = batch
	return r
}

// Run submits the seed batches, then forwards every trade off trades into
// AccountCore until trades closes or ctx is cancelled.
func (r *Replay) Run(ctx context.Context, trades <-chan types.MarketTrade) error {
	if len(r.openBatch) > 0 {
		reply := make(chan []account.OpenOrderResult, 1)
		r.core.Submit(account.OpenOrdersRequest{Batch: r.openBatch, Reply: reply})
		if err := r.awaitOpenReply(ctx, reply); err != nil {
			return err
		}
	}

	if len(r.cancelBatch) > 0 {
		reply := make(chan []account.CancelOrderResult, 1)
		r.core.Submit(account.CancelOrdersRequest{Batch: r.cancelBatch, Reply: reply})
		if err := r.awaitCancelReply(ctx, reply); err != nil {
			return err
		}
	}

	count := 0
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("replay stopped", "trades_forwarded", count)
			return ctx.Err()
		case trade, ok := <-trades:
			if !ok {
				r.logger.Info("replay finished", "trades_forwarded", count)
				return nil
			}
			r.core.Submit(account.MarketTradeRequest{Trade: trade})
			count++
		}
	}
}

const replyTimeout = 5 * time.Second

func (r *Replay) awaitOpenReply(ctx context.Context, reply chan []account.OpenOrderResult) error {
	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case results := <-reply:
		for _, res := range results {
			if res.Err != nil {
				r.logger.Warn("seed order rejected", "error", res.Err)
			}
		}
		return nil
	case <-timer.C:
		r.logger.Warn("timed out waiting for seed open-order reply")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Replay) awaitCancelReply(ctx context.Context, reply chan []account.CancelOrderResult) error {
	timer := time.NewTimer(replyTimeout)
	defer timer.Stop()
	select {
	case results := <-reply:
		for _, res := range results {
			if res.Err != nil {
				r.logger.Warn("seed cancel rejected", "error", res.Err)
			}
		}
		return nil
	case <-timer.C:
		r.logger.Warn("timed out waiting for seed cancel reply")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
