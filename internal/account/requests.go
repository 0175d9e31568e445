package account

import "github.com/HourglassDevTeam/Hourglass/pkg/types"

// Request is the closed set of messages AccountCore consumes off its
// inbound channel. The unexported method keeps the set closed to this
// package, the same pattern used for types.AccountEventKind.
type Request interface {
	isRequest()
}

// FetchOrdersOpenRequest asks for a snapshot of every resting order across
// every instrument book.
type FetchOrdersOpenRequest struct {
	Reply chan []types.Order[types.Open]
}

func (FetchOrdersOpenRequest) isRequest() {}

// FetchBalancesRequest asks for a snapshot of every token balance.
type FetchBalancesRequest struct {
	Reply chan []types.TokenBalance
}

func (FetchBalancesRequest) isRequest() {}

// FetchPositionsRequest asks for a snapshot of every live position.
type FetchPositionsRequest struct {
	Reply chan []types.PerpetualPosition
}

func (FetchPositionsRequest) isRequest() {}

// OpenOrderResult pairs a submitted RequestOpen with either its admitted
// Open state or the error that rejected it.
type OpenOrderResult struct {
	Order types.Order[types.Open]
	Err   error
}

// OpenOrdersRequest submits a batch of orders for admission. Submission
// order is preserved in Reply.
type OpenOrdersRequest struct {
	Batch []types.Order[types.RequestOpen]
	Reply chan []OpenOrderResult
}

func (OpenOrdersRequest) isRequest() {}

// CancelOrderResult pairs a submitted RequestCancel with either its
// Cancelled state or the error that rejected it.
type CancelOrderResult struct {
	Order types.Order[types.Cancelled]
	Err   error
}

// CancelOrdersRequest submits a batch of cancels for processing.
type CancelOrdersRequest struct {
	Batch []types.Order[types.RequestCancel]
	Reply chan []CancelOrderResult
}

func (CancelOrdersRequest) isRequest() {}

// CancelOrdersAllRequest cancels every resting order across every book.
type CancelOrdersAllRequest struct {
	Reply chan []CancelOrderResult
}

func (CancelOrdersAllRequest) isRequest() {}

// MarketTradeRequest feeds a single public trade print into the matcher.
// It carries no reply; results surface only on the event bus.
type MarketTradeRequest struct {
	Trade types.MarketTrade
}

func (MarketTradeRequest) isRequest() {}
