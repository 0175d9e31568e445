package account

import (
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/internal/matching"
	"github.com/HourglassDevTeam/Hourglass/internal/position"
	"github.com/HourglassDevTeam/Hourglass/internal/risk"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func (c *Core) handleMarketTrade(mt types.MarketTrade) {
	c.advanceExchangeTime(mt)

	instrument, err := mt.ParseInstrument(types.Perpetual)
	if err != nil {
		c.logger.Warn("market trade with unparseable symbol", "symbol", mt.Symbol, "error", err)
		return
	}

	book := c.bookFor(instrument)
	if _, ok := book.DetermineMatchingSide(mt); !ok {
		c.logger.Warn("market trade has no resting liquidity on the matching side", "instrument", instrument.String())
		return
	}

	fees := c.feeSchedule(instrument.Kind)
	trades := matching.Match(book, mt, fees, c.nextTradeID)

	for _, t := range trades {
		t.Instrument = instrument
		c.applyTradeBalanceDeltas(t)
		c.updatePosition(t)
		c.publish(types.TradeEvent{Trade: t})
		c.publishBalanceAfterTrade(t)
		c.reportExposure(instrument)
	}
}

// reportExposure submits the post-trade position state to the attached
// risk monitor, if any. Both sides are reported independently since
// LongShort mode can hold a long and a short on the same instrument at
// once.
func (c *Core) reportExposure(instrument types.Instrument) {
	if c.risk == nil {
		return
	}
	now := time.Now()
	if long, ok := c.positions.GetLong(instrument); ok {
		c.risk.Report(risk.PositionReport{
			Instrument:    instrument,
			Size:          long.Meta.CurrentSize,
			MarkPrice:     long.Meta.CurrentSymbolPrice,
			NotionalUSD:   long.Meta.CurrentSize * long.Meta.CurrentSymbolPrice,
			UnrealisedPnL: long.Meta.UnrealisedPnL,
			RealisedPnL:   long.Meta.RealisedPnL,
			Timestamp:     now,
		})
	}
	if short, ok := c.positions.GetShort(instrument); ok {
		c.risk.Report(risk.PositionReport{
			Instrument:    instrument,
			Size:          short.Meta.CurrentSize,
			MarkPrice:     short.Meta.CurrentSymbolPrice,
			NotionalUSD:   short.Meta.CurrentSize * short.Meta.CurrentSymbolPrice,
			UnrealisedPnL: short.Meta.UnrealisedPnL,
			RealisedPnL:   short.Meta.RealisedPnL,
			Timestamp:     now,
		})
	}
}

func (c *Core) advanceExchangeTime(mt types.MarketTrade) {
	if c.cfg.ExecutionMode == config.Backtest {
		c.exchangeTime.Store(mt.Timestamp)
		return
	}
	c.exchangeTime.Store(time.Now().UnixMilli())
}

// applyTradeBalanceDeltas applies the Perpetual balance-delta formulas for
// a single fill: a Buy increases base by the filled quantity and debits
// quote by notional plus fee; a Sell decreases base by the filled quantity
// and credits quote by notional minus fee.
func (c *Core) applyTradeBalanceDeltas(t types.ClientTrade) {
	notional := t.Quantity * t.Price
	if t.Side == types.Buy {
		c.balances.Apply(t.Instrument.Base, types.BalanceDelta{Total: t.Quantity, Available: t.Quantity})
		c.balances.Apply(t.Instrument.Quote, types.BalanceDelta{Total: -notional - t.Fee, Available: -t.Fee})
		return
	}
	c.balances.Apply(t.Instrument.Base, types.BalanceDelta{Total: -t.Quantity, Available: 0})
	c.balances.Apply(t.Instrument.Quote, types.BalanceDelta{Total: notional - t.Fee, Available: notional - t.Fee})
}

func (c *Core) publishBalanceAfterTrade(t types.ClientTrade) {
	base := c.balances.Get(t.Instrument.Base)
	quote := c.balances.Get(t.Instrument.Quote)
	c.publish(types.BalancesEvent{Balances: []types.TokenBalance{
		{Token: t.Instrument.Base, Balance: base},
		{Token: t.Instrument.Quote, Balance: quote},
	}})
}

// updatePosition dispatches to the configured direction mode.
func (c *Core) updatePosition(t types.ClientTrade) {
	if c.cfg.PositionDirectionMode == types.LongShort {
		c.updatePositionLongShort(t)
		return
	}
	c.updatePositionNet(t)
}

func (c *Core) updatePositionLongShort(t types.ClientTrade) {
	if t.Side == types.Buy {
		if existing, ok := c.positions.GetLong(t.Instrument); ok {
			c.positions.UpsertLong(t.Instrument, withUpdatedMeta(existing, position.UpdateFromTrade(existing.Meta, t)))
			return
		}
		c.positions.UpsertLong(t.Instrument, c.newPosition(t))
		return
	}
	if existing, ok := c.positions.GetShort(t.Instrument); ok {
		c.positions.UpsertShort(t.Instrument, withUpdatedMeta(existing, position.UpdateFromTrade(existing.Meta, t)))
		return
	}
	c.positions.UpsertShort(t.Instrument, c.newPosition(t))
}

func (c *Core) updatePositionNet(t types.ClientTrade) {
	if t.Side == types.Buy {
		if existing, ok := c.positions.GetLong(t.Instrument); ok {
			c.positions.UpsertLong(t.Instrument, withUpdatedMeta(existing, position.UpdateFromTrade(existing.Meta, t)))
			return
		}
		if existing, ok := c.positions.GetShort(t.Instrument); ok {
			c.closeOrReverse(t, existing, c.positions.RemoveShort, c.positions.UpsertLong)
			return
		}
		c.positions.UpsertLong(t.Instrument, c.newPosition(t))
		return
	}

	if existing, ok := c.positions.GetShort(t.Instrument); ok {
		c.positions.UpsertShort(t.Instrument, withUpdatedMeta(existing, position.UpdateFromTrade(existing.Meta, t)))
		return
	}
	if existing, ok := c.positions.GetLong(t.Instrument); ok {
		c.closeOrReverse(t, existing, c.positions.RemoveLong, c.positions.UpsertShort)
		return
	}
	c.positions.UpsertShort(t.Instrument, c.newPosition(t))
}

// closeOrReverse handles an opposite-side fill in Net mode: exact close,
// overfill reversal onto the new side, or partial reduction in place.
// removeExisting deletes the map entry being closed; upsertNew writes the
// reversal position opened on the trade's own side.
func (c *Core) closeOrReverse(t types.ClientTrade, existing types.PerpetualPosition, removeExisting func(types.Instrument), upsertNew func(types.Instrument, types.PerpetualPosition)) {
	size := existing.Meta.CurrentSize
	switch {
	case t.Quantity == size:
		closed := existing
		closed.Meta = position.RealisePnL(closed.Meta, t.Price)
		c.positions.Archive(closed)
		removeExisting(t.Instrument)
	case t.Quantity > size:
		closed := existing
		closed.Meta = position.RealisePnL(closed.Meta, t.Price)
		c.positions.Archive(closed)
		removeExisting(t.Instrument)
		upsertNew(t.Instrument, c.newPositionWithRemaining(t, t.Quantity-size))
	default:
		existing.Meta = position.ReduceInPlace(existing.Meta, t.Quantity, t.Timestamp, t.Price)
		if t.Side == types.Buy {
			c.positions.UpsertShort(t.Instrument, existing)
		} else {
			c.positions.UpsertLong(t.Instrument, existing)
		}
	}
}

func (c *Core) newPosition(t types.ClientTrade) types.PerpetualPosition {
	p := types.PerpetualPosition{
		Meta: position.CreateFromTrade(t, c.cfg.Exchange),
		Config: types.PositionConfig{
			MarginMode:    c.cfg.PositionMarginMode,
			Leverage:      c.cfg.AccountLeverageRate,
			DirectionMode: c.cfg.PositionDirectionMode,
		},
	}
	// Every position is created at the account's configured leverage, so
	// this can never trip today; it is the enforcement point a future
	// per-position leverage override would need.
	if p.Config.Leverage > c.cfg.AccountLeverageRate {
		c.logger.Error("position leverage exceeds account rate", "instrument", t.Instrument.String(), "leverage", p.Config.Leverage)
	}
	return p
}

func (c *Core) newPositionWithRemaining(t types.ClientTrade, remaining float64) types.PerpetualPosition {
	p := c.newPosition(t)
	p.Meta = position.CreateFromTradeWithRemaining(t, c.cfg.Exchange, remaining)
	return p
}

func withUpdatedMeta(p types.PerpetualPosition, meta types.PositionMeta) types.PerpetualPosition {
	p.Meta = meta
	return p
}
