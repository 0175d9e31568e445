// Package marketfeed defines the external live market-trade subscriber and
// one concrete WebSocket implementation of it.
package marketfeed

import (
	"context"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Source produces a stream of market trades for the driver to forward into
// AccountCore. Run blocks until ctx is cancelled or the source gives up.
type Source interface {
	Run(ctx context.Context) error
	Trades() <-chan types.MarketTrade
}
