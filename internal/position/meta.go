// Package position implements PositionMeta's running-average-price and
// PnL bookkeeping, and the per-instrument long/short PositionStore.
package position

import "github.com/HourglassDevTeam/Hourglass/pkg/types"

// CreateFromTrade builds a fresh PositionMeta opened by trade t on t's side.
func CreateFromTrade(t types.ClientTrade, exchange string) types.PositionMeta {
	return types.PositionMeta{
		EnterTimestamp:       t.Timestamp,
		UpdateTimestamp:      t.Timestamp,
		Exchange:             exchange,
		Instrument:           t.Instrument,
		Side:                 t.Side,
		CurrentSize:          t.Quantity,
		CurrentFeesTotal:     t.Fee,
		CurrentAvgPrice:      t.Price,
		CurrentAvgPriceGross: t.Price,
		CurrentSymbolPrice:   t.Price,
	}
}

// CreateFromTradeWithRemaining builds a fresh PositionMeta on t's side sized
// at remaining (used on Net-mode overfill reversal, where only the portion
// of the trade past the closed position opens the new one).
func CreateFromTradeWithRemaining(t types.ClientTrade, exchange string, remaining float64) types.PositionMeta {
	m := CreateFromTrade(t, exchange)
	m.CurrentSize = remaining
	return m
}

// UpdateFromTrade returns m with trade t folded in: accumulates fees, updates
// the running average price, and recomputes unrealised PnL. This is the
// LongShort-mode path and the same-side branch of Net mode; it assumes t
// is always on the same side as m (opposite-side reduction/reversal is
// handled by the caller via the Net-mode branches in AccountCore).
func UpdateFromTrade(m types.PositionMeta, t types.ClientTrade) types.PositionMeta {
	m.UpdateTimestamp = t.Timestamp
	m.CurrentSymbolPrice = t.Price
	m.CurrentFeesTotal += t.Fee
	m = updateAvgPrice(m, t.Price, t.Quantity, t.Side)
	m = updateUnrealisedPnL(m)
	return m
}

// updateAvgPrice grows the position on a same-direction fill using a
// size-weighted average; opposite-direction fills never reach here
// (the caller routes those through the Net-mode reduce/reverse branches),
// so total_size is always current+trade.
func updateAvgPrice(m types.PositionMeta, price, size float64, side types.Side) types.PositionMeta {
	totalSize := m.CurrentSize + size
	if totalSize != 0 {
		m.CurrentAvgPriceGross = (m.CurrentAvgPriceGross*m.CurrentSize + price*size) / totalSize
		m.CurrentSize = totalSize
	}
	m.CurrentAvgPrice = m.CurrentAvgPriceGross
	return m
}

func updateUnrealisedPnL(m types.PositionMeta) types.PositionMeta {
	m.UnrealisedPnL = (m.CurrentSymbolPrice - m.CurrentAvgPrice) * m.CurrentSize
	return m
}

// RealisePnL closes m at closingPrice: realised PnL is booked from the
// full current size against the average entry price, then the position's
// size/price/fee fields are zeroed. Used on full close and on the closed
// portion of a Net-mode reversal.
func RealisePnL(m types.PositionMeta, closingPrice float64) types.PositionMeta {
	m.RealisedPnL = (closingPrice - m.CurrentAvgPrice) * m.CurrentSize
	m.CurrentSize = 0
	m.CurrentAvgPrice = 0
	m.CurrentAvgPriceGross = 0
	m.CurrentFeesTotal = 0
	return m
}

// ReduceInPlace decrements m's size by q without touching average price or
// transferring any realised PnL. This is the documented Net-mode
// partial-close gap (see DESIGN.md): unrealised PnL on the closed portion
// is never moved to realised_pnl here, matching the upstream behavior this
// engine was ported from.
func ReduceInPlace(m types.PositionMeta, q float64, timestamp int64, symbolPrice float64) types.PositionMeta {
	m.CurrentSize -= q
	m.UpdateTimestamp = timestamp
	m.CurrentSymbolPrice = symbolPrice
	m = updateUnrealisedPnL(m)
	return m
}
