// Package matching implements the pure matching step: running a single
// market trade through an instrument's resting order book and producing
// the resulting client trades. It never mutates balances or positions —
// that is AccountCore's job, composed one layer up.
package matching

import (
	"github.com/HourglassDevTeam/Hourglass/internal/orderbook"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// FeeSchedule gives the maker/taker rate for an instrument kind.
type FeeSchedule struct {
	Maker float64
	Taker float64
}

// RateFor returns the fee rate for role.
func (f FeeSchedule) RateFor(role types.OrderRole) float64 {
	if role == types.Maker {
		return f.Maker
	}
	return f.Taker
}

// Match runs mt through book, consuming resting orders on the side mt
// aggresses against and returning the client trades produced. nextTradeID
// mints the trade identifier for each fill in generation order.
func Match(book *orderbook.Book, mt types.MarketTrade, fees FeeSchedule, nextTradeID func() types.ClientTradeID) []types.ClientTrade {
	return book.Match(mt, fees.RateFor, nextTradeID)
}
