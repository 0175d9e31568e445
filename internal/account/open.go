package account

import (
	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/internal/orderbook"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func (c *Core) openOrders(batch []types.Order[types.RequestOpen]) []OpenOrderResult {
	results := make([]OpenOrderResult, len(batch))
	for i, req := range batch {
		results[i] = c.openOne(req)
	}
	return results
}

func (c *Core) openOne(req types.Order[types.RequestOpen]) OpenOrderResult {
	if err := validateRequestOpen(req); err != nil {
		return OpenOrderResult{Err: err}
	}
	if req.Instrument.Kind != types.Perpetual {
		return OpenOrderResult{Err: types.UnsupportedInstrumentKind(req.Instrument.Kind)}
	}
	if c.cfg.PositionMarginMode == types.Cross {
		return OpenOrderResult{Err: types.NotImplemented("cross margin open")}
	}

	if err := c.checkDirectionPolicy(req); err != nil {
		return OpenOrderResult{Err: err}
	}

	if c.cfg.ExecutionMode == config.Backtest && c.latency != nil {
		req = c.latency.Admit(req)
	}

	currentPrice := c.currentPriceFor(req)

	if req.Instruction == types.PostOnly {
		if req.Side == types.Buy && req.State.Price >= currentPrice {
			return OpenOrderResult{Err: types.PostOnlyViolation("PostOnly buy would immediately match the market price")}
		}
		if req.Side == types.Sell && req.State.Price <= currentPrice {
			return OpenOrderResult{Err: types.PostOnlyViolation("PostOnly sell would immediately match the market price")}
		}
	}
	role := orderbook.DetermineRole(req.Side, req.Instruction, req.State.Price, currentPrice)

	token, required := c.requiredBalance(req)
	if err := c.balances.HasSufficient(token, required); err != nil {
		return OpenOrderResult{Err: err}
	}

	book := c.bookFor(req.Instrument)
	open := types.Order[types.Open]{
		Exchange:    req.Exchange,
		Instrument:  req.Instrument,
		Timestamp:   req.Timestamp,
		CID:         req.CID,
		Side:        req.Side,
		Instruction: req.Instruction,
		State: types.Open{
			ID:    book.AssignID(),
			Price: req.State.Price,
			Size:  req.State.Size,
			Role:  role,
		},
	}
	book.Add(open)

	updated := c.balances.Apply(token, types.BalanceDelta{Available: -required})

	c.publish(types.BalanceEvent{Balance: types.TokenBalance{Token: token, Balance: updated}})
	c.publish(types.OrdersOpenEvent{Orders: []types.Order[types.Open]{open}})

	return OpenOrderResult{Order: open}
}

func validateRequestOpen(req types.Order[types.RequestOpen]) error {
	if req.State.Price <= 0 {
		return types.InvalidRequestOpen("price must be > 0")
	}
	if req.State.Size <= 0 {
		return types.InvalidRequestOpen("size must be > 0")
	}
	if req.Instrument.Base == req.Instrument.Quote {
		return types.InvalidRequestOpen("base and quote must differ")
	}
	switch req.Instruction {
	case types.Market, types.Limit, types.ImmediateOrCancel, types.FillOrKill, types.PostOnly, types.GoodTilCancelled:
	default:
		return types.InvalidRequestOpen("unrecognized instruction")
	}
	return nil
}

// checkDirectionPolicy enforces the admission direction/reduce-only rule:
// in Net mode a reduce-only order is refused when a same-side position
// already exists (Buy with a long, Sell with a short), and a
// non-reduce-only order is refused when the opposite side is already
// open. LongShort mode has no conflict to check.
func (c *Core) checkDirectionPolicy(req types.Order[types.RequestOpen]) error {
	if c.cfg.PositionDirectionMode != types.Net {
		return nil
	}
	_, _, hasLong, hasShort := c.positions.Both(req.Instrument)

	if req.State.ReduceOnly {
		sameSide := (req.Side == types.Buy && hasLong) || (req.Side == types.Sell && hasShort)
		if sameSide {
			return types.InvalidDirection("reduce_only order would add to the existing same-side position")
		}
		return nil
	}

	oppositeSide := (req.Side == types.Buy && hasShort) || (req.Side == types.Sell && hasLong)
	if oppositeSide {
		return types.InvalidDirection("opposite-side position already open in net mode")
	}
	return nil
}

// currentPriceFor reads the reference price used for role determination and
// PostOnly checks: a Buy reads the base token's current price, a Sell reads
// the quote token's.
func (c *Core) currentPriceFor(req types.Order[types.RequestOpen]) float64 {
	if req.Side == types.Buy {
		return c.balances.Get(req.Instrument.Base).CurrentPrice
	}
	return c.balances.Get(req.Instrument.Quote).CurrentPrice
}

// requiredBalance computes the token and amount to reserve for Perpetual
// instruments (the only kind admitted past validateRequestOpen): a Buy
// reserves order price x size x leverage of quote, a Sell reserves
// size x leverage of base.
func (c *Core) requiredBalance(req types.Order[types.RequestOpen]) (types.Token, float64) {
	leverage := c.cfg.AccountLeverageRate
	if req.Side == types.Buy {
		return req.Instrument.Quote, req.State.Price * req.State.Size * leverage
	}
	return req.Instrument.Base, req.State.Size * leverage
}
