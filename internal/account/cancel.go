package account

import "github.com/HourglassDevTeam/Hourglass/pkg/types"

func (c *Core) cancelOrders(batch []types.Order[types.RequestCancel]) []CancelOrderResult {
	results := make([]CancelOrderResult, len(batch))
	for i, req := range batch {
		results[i] = c.cancelOne(req)
	}
	return results
}

func (c *Core) cancelAll() []CancelOrderResult {
	open := c.snapshotOpenOrders()
	results := make([]CancelOrderResult, len(open))
	for i, o := range open {
		id := o.State.ID
		req := types.Order[types.RequestCancel]{
			Exchange:    o.Exchange,
			Instrument:  o.Instrument,
			Timestamp:   o.Timestamp,
			CID:         o.CID,
			Side:        o.Side,
			Instruction: types.CancelInstruction,
			State:       types.RequestCancel{ID: &id},
		}
		results[i] = c.cancelOne(req)
	}
	return results
}

func (c *Core) cancelOne(req types.Order[types.RequestCancel]) CancelOrderResult {
	if req.State.ID == nil && req.CID == nil {
		return CancelOrderResult{Err: types.InvalidRequestCancel("at least one of id, cid must be present")}
	}
	if req.Instrument.Base == req.Instrument.Quote {
		return CancelOrderResult{Err: types.InvalidRequestCancel("base and quote must differ")}
	}

	book := c.bookFor(req.Instrument)
	resting, ok := book.Remove(req.Side, req.State.ID, req.CID)
	if !ok {
		return CancelOrderResult{Err: types.OrderNotFound(req.State.ID, req.CID)}
	}

	var token types.Token
	var delta types.BalanceDelta
	if req.Side == types.Buy {
		token = req.Instrument.Quote
		delta = types.BalanceDelta{Available: resting.State.Price * resting.State.Remaining()}
	} else {
		token = req.Instrument.Base
		delta = types.BalanceDelta{Available: resting.State.Remaining()}
	}
	updated := c.balances.Apply(token, delta)

	cancelled := types.Order[types.Cancelled]{
		Exchange:    resting.Exchange,
		Instrument:  resting.Instrument,
		Timestamp:   req.Timestamp,
		CID:         resting.CID,
		Side:        resting.Side,
		Instruction: types.CancelInstruction,
		State:       types.Cancelled{ID: resting.State.ID},
	}

	c.publish(types.OrdersCancelledEvent{Orders: []types.Order[types.Cancelled]{cancelled}})
	c.publish(types.BalanceEvent{Balance: types.TokenBalance{Token: token, Balance: updated}})

	return CancelOrderResult{Order: cancelled}
}
