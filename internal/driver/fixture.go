package driver

import (
	"context"
	"log/slog"
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/tradestore"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// FromSlice streams a fixed slice of trades onto a channel, in order,
// closing the channel once every trade has been sent or ctx is cancelled.
func FromSlice(ctx context.Context, trades []types.MarketTrade) <-chan types.MarketTrade {
	out := make(chan types.MarketTrade)
	go func() {
		defer close(out)
		for _, t := range trades {
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// FromQuerier pages through q for instrument across [from, to) and streams
// every trade found onto a channel, closing it once the cursor is
// exhausted, an error occurs, or ctx is cancelled. A querier error stops
// the stream silently after logging; Run's caller observes only a closed
// channel, matching the "feed just ends" behavior of a live source that
// disconnects.
func FromQuerier(ctx context.Context, q tradestore.Querier, instrument types.Instrument, from, to time.Time, logger *slog.Logger) <-chan types.MarketTrade {
	out := make(chan types.MarketTrade)
	go func() {
		defer close(out)
		cursor := ""
		for {
			page, err := q.Trades(ctx, instrument, from, to, cursor)
			if err != nil {
				logger.Error("trade store query failed", "error", err)
				return
			}
			for _, t := range page.Trades {
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			cursor = page.NextCursor
		}
	}()
	return out
}
