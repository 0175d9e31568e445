// Package account implements AccountCore, the single-actor orchestrator
// that admits/cancels orders, matches market trades against resting
// orders, and maintains balances and positions. AccountCore consumes its
// single inbound request channel, on which market trades arrive as one
// more Request variant, in arrival order; all store mutation for one
// request completes, and its events are published, before the next
// request is dequeued.
package account

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/HourglassDevTeam/Hourglass/internal/balance"
	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/internal/eventbus"
	"github.com/HourglassDevTeam/Hourglass/internal/latency"
	"github.com/HourglassDevTeam/Hourglass/internal/matching"
	"github.com/HourglassDevTeam/Hourglass/internal/orderbook"
	"github.com/HourglassDevTeam/Hourglass/internal/position"
	"github.com/HourglassDevTeam/Hourglass/internal/risk"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Core is the account orchestrator actor.
type Core struct {
	cfg     config.AccountConfig
	logger  *slog.Logger
	latency latency.Model // nil in Online mode

	balances  *balance.Store
	positions *position.Store
	risk      *risk.ExposureMonitor // nil unless SetRiskMonitor is called

	booksMu sync.RWMutex
	books   map[types.Instrument]*orderbook.Book

	bus *eventbus.Bus

	requestCh    chan Request
	exchangeTime atomicInt64
	tradeSeq     atomicInt64

	session uuid.UUID

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires a Core ready to Run. The caller owns the request channel's
// lifetime via ctx; closing ctx stops Run.
func New(ctx context.Context, cfg config.AccountConfig, logger *slog.Logger) *Core {
	runCtx, cancel := context.WithCancel(ctx)

	var lat latency.Model
	if cfg.ExecutionMode == config.Backtest {
		lat = latency.NewJitter(0, 0, 1) // no-op by default; callers can swap via SetLatencyModel
	}

	return &Core{
		cfg:       cfg,
		logger:    logger.With("component", "account"),
		latency:   lat,
		balances:  balance.New(),
		positions: position.New(),
		books:     make(map[types.Instrument]*orderbook.Book),
		bus:       eventbus.New(4096, logger),
		requestCh: make(chan Request, 256),
		session:   uuid.New(),
		ctx:       runCtx,
		cancel:    cancel,
	}
}

// SetLatencyModel overrides the default no-op jitter model used in
// Backtest mode.
func (c *Core) SetLatencyModel(m latency.Model) { c.latency = m }

// SetRiskMonitor attaches an advisory exposure monitor. Once set, every
// trade reports its resulting position notional and PnL after the trade's
// balance/position mutation and event publication complete; the monitor
// never influences the outcome of the trade it was reported for.
func (c *Core) SetRiskMonitor(m *risk.ExposureMonitor) { c.risk = m }

// Balances exposes the underlying balance store for deposits during setup
// (a live account only ever mutates it through trade/open/cancel deltas).
func (c *Core) Balances() *balance.Store { return c.balances }

// Events returns the outbound AccountEvent stream.
func (c *Core) Events() <-chan types.AccountEvent { return c.bus.Events() }

// Submit enqueues req. It blocks only as long as the request buffer is
// full, mirroring a multi-producer unbounded queue closely enough for a
// single-process simulation.
func (c *Core) Submit(req Request) {
	select {
	case c.requestCh <- req:
	case <-c.ctx.Done():
	}
}

// Session returns the current session id.
func (c *Core) Session() uuid.UUID { return c.session }

// Clone returns a handle sharing the same stores and request channel but
// carrying a fresh session id, for concurrent cancel submission.
func (c *Core) Clone() *Core {
	clone := *c
	clone.session = uuid.New()
	return &clone
}

// Run consumes the request channel (market trades arrive on it as a
// MarketTradeRequest) until ctx is cancelled. It is meant to be launched
// in its own goroutine.
func (c *Core) Run() {
	c.wg.Add(1)
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case req := <-c.requestCh:
			c.handle(req)
		}
	}
}

// Stop cancels the run loop and waits for it to exit.
func (c *Core) Stop() {
	c.cancel()
	c.wg.Wait()
}

func (c *Core) handle(req Request) {
	switch r := req.(type) {
	case FetchOrdersOpenRequest:
		r.Reply <- c.snapshotOpenOrders()
	case FetchBalancesRequest:
		r.Reply <- c.balances.Snapshot()
	case FetchPositionsRequest:
		r.Reply <- c.positions.Snapshot()
	case OpenOrdersRequest:
		r.Reply <- c.openOrders(r.Batch)
	case CancelOrdersRequest:
		r.Reply <- c.cancelOrders(r.Batch)
	case CancelOrdersAllRequest:
		r.Reply <- c.cancelAll()
	case MarketTradeRequest:
		c.handleMarketTrade(r.Trade)
	default:
		c.logger.Error("unknown request type")
	}
}

func (c *Core) snapshotOpenOrders() []types.Order[types.Open] {
	c.booksMu.RLock()
	defer c.booksMu.RUnlock()
	var out []types.Order[types.Open]
	for _, b := range c.books {
		out = append(out, b.OpenOrders()...)
	}
	return out
}

func (c *Core) bookFor(i types.Instrument) *orderbook.Book {
	c.booksMu.RLock()
	b, ok := c.books[i]
	c.booksMu.RUnlock()
	if ok {
		return b
	}

	c.booksMu.Lock()
	defer c.booksMu.Unlock()
	if b, ok := c.books[i]; ok {
		return b
	}
	b = orderbook.New()
	c.books[i] = b
	return b
}

func (c *Core) nextTradeID() types.ClientTradeID {
	return types.ClientTradeID(c.tradeSeq.Inc())
}

func (c *Core) feeSchedule(kind types.InstrumentKind) matching.FeeSchedule {
	fs, ok := c.cfg.FeesBook[kind]
	if !ok {
		return matching.FeeSchedule{}
	}
	return matching.FeeSchedule{Maker: fs.MakerFees, Taker: fs.TakerFees}
}

func (c *Core) publish(kind types.AccountEventKind) {
	c.bus.Publish(types.AccountEvent{
		ExchangeTimestamp: c.exchangeTime.Load(),
		Exchange:          c.cfg.Exchange,
		Kind:              kind,
	})
}
