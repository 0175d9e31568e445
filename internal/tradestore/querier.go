// Package tradestore defines the external historical trade-store
// collaborator and one concrete REST implementation of it.
package tradestore

import (
	"context"
	"time"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Querier fetches a page of historical market trades for an instrument
// within [from, to). A driver replaying a backtest pulls pages in order
// and feeds each trade to AccountCore.
type Querier interface {
	Trades(ctx context.Context, instrument types.Instrument, from, to time.Time, cursor string) (Page, error)
}

// Page is one page of a cursor-paginated trade query. NextCursor is empty
// once the range is exhausted.
type Page struct {
	Trades     []types.MarketTrade
	NextCursor string
}
