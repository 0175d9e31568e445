// Package orderbook implements the per-instrument resting order book: a
// monotonic order-id counter, bid/ask price levels keyed by a B-tree for
// O(log n) best-price lookup, and the maker-priced matching algorithm that
// consumes a market trade against resting orders.
package orderbook

import (
	"sync"

	"github.com/google/btree"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

const btreeDegree = 32

// priceLevel is one price's FIFO queue of resting orders. Equal-priced
// orders are matched in insertion order, the only priority signal the
// matcher provides.
type priceLevel struct {
	price  float64
	orders []types.Order[types.Open]
}

func (l *priceLevel) Less(other btree.Item) bool {
	return l.price < other.(*priceLevel).price
}

// side wraps one btree of price levels, iterated ascending for asks and
// descending for bids.
type side struct {
	tree *btree.BTree
	desc bool
}

func newSide(desc bool) *side {
	return &side{tree: btree.New(btreeDegree), desc: desc}
}

func (s *side) get(price float64) *priceLevel {
	item := s.tree.Get(&priceLevel{price: price})
	if item == nil {
		return nil
	}
	return item.(*priceLevel)
}

func (s *side) getOrCreate(price float64) *priceLevel {
	if l := s.get(price); l != nil {
		return l
	}
	l := &priceLevel{price: price}
	s.tree.ReplaceOrInsert(l)
	return l
}

func (s *side) remove(price float64) {
	s.tree.Delete(&priceLevel{price: price})
}

// walk visits price levels from best to worst (descending for bids,
// ascending for asks), stopping when fn returns false.
func (s *side) walk(fn func(*priceLevel) bool) {
	iter := func(item btree.Item) bool { return fn(item.(*priceLevel)) }
	if s.desc {
		s.tree.Descend(iter)
	} else {
		s.tree.Ascend(iter)
	}
}

// Book is the resting order book for a single instrument.
type Book struct {
	mu      sync.Mutex
	counter int64
	bids    *side // descending: best bid first
	asks    *side // ascending: best ask first
}

// New returns an empty book.
func New() *Book {
	return &Book{bids: newSide(true), asks: newSide(false)}
}

// AssignID returns the next strictly increasing order id for this book.
func (b *Book) AssignID() types.OrderID {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counter++
	return types.OrderID(b.counter)
}

// DetermineRole decides the maker/taker role a RequestOpen would receive
// against currentPrice, given its side and instruction. Market,
// ImmediateOrCancel, and FillOrKill are always Taker. A Limit Buy below
// currentPrice is Maker (price < current), at or above is Taker; a Limit
// Sell above currentPrice is Maker, at or below is Taker. PostOnly must be
// Maker by construction; callers enforce the rejection separately.
func DetermineRole(side types.Side, instruction types.OrderInstruction, price, currentPrice float64) types.OrderRole {
	switch instruction {
	case types.Market, types.ImmediateOrCancel, types.FillOrKill:
		return types.Taker
	}
	if side == types.Buy {
		if price < currentPrice {
			return types.Maker
		}
		return types.Taker
	}
	if price > currentPrice {
		return types.Maker
	}
	return types.Taker
}

// Add inserts a resting order into the appropriate side at its price.
func (b *Book) Add(order types.Order[types.Open]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	level := b.sideFor(order.Side).getOrCreate(order.State.Price)
	level.orders = append(level.orders, order)
}

// Remove deletes the order matching id (or cid, when id is nil) from side
// bookSide, returning the removed order and true on success.
func (b *Book) Remove(bookSide types.Side, id *types.OrderID, cid *types.ClientOrderID) (types.Order[types.Open], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.sideFor(bookSide)
	var found types.Order[types.Open]
	var foundPrice float64
	ok := false

	s.walk(func(l *priceLevel) bool {
		for i, o := range l.orders {
			if matches(o, id, cid) {
				found = o
				foundPrice = l.price
				l.orders = append(l.orders[:i], l.orders[i+1:]...)
				ok = true
				return false
			}
		}
		return true
	})

	if ok {
		if lvl := s.get(foundPrice); lvl != nil && len(lvl.orders) == 0 {
			s.remove(foundPrice)
		}
	}
	return found, ok
}

func matches(o types.Order[types.Open], id *types.OrderID, cid *types.ClientOrderID) bool {
	if id != nil {
		return o.State.ID == *id
	}
	if cid != nil && o.CID != nil {
		return *o.CID == *cid
	}
	return false
}

// OpenOrders returns a snapshot of every resting order across both sides.
func (b *Book) OpenOrders() []types.Order[types.Open] {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []types.Order[types.Open]
	collect := func(l *priceLevel) bool {
		out = append(out, l.orders...)
		return true
	}
	b.bids.walk(collect)
	b.asks.walk(collect)
	return out
}

func (b *Book) sideFor(s types.Side) *side {
	if s == types.Buy {
		return b.bids
	}
	return b.asks
}

// DetermineMatchingSide returns the resting side a market trade should
// consume: a Buy-side aggressor trade matches resting asks, a Sell-side
// aggressor trade matches resting bids. ok is false when that side has no
// resting orders at all.
func (b *Book) DetermineMatchingSide(mt types.MarketTrade) (types.Side, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var target types.Side
	var s *side
	if mt.Side == types.Buy {
		target, s = types.Sell, b.asks
	} else {
		target, s = types.Buy, b.bids
	}
	empty := true
	s.walk(func(l *priceLevel) bool {
		if len(l.orders) > 0 {
			empty = false
		}
		return empty
	})
	return target, !empty
}

// Match consumes mt.Amount against the resting side opposite mt.Side,
// at maker-priced execution, stopping when the market amount is exhausted
// or the best resting price no longer crosses mt.Price. feeRate is applied
// per the resting order's recorded role.
func (b *Book) Match(mt types.MarketTrade, feeRateFor func(types.OrderRole) float64, nextTradeID func() types.ClientTradeID) []types.ClientTrade {
	b.mu.Lock()
	defer b.mu.Unlock()

	var target types.Side
	var s *side
	if mt.Side == types.Buy {
		target, s = types.Sell, b.asks
	} else {
		target, s = types.Buy, b.bids
	}
	remaining := mt.Amount
	var trades []types.ClientTrade
	var drainedPrices []float64

	s.walk(func(l *priceLevel) bool {
		if remaining <= 0 {
			return false
		}
		if !crosses(target, l.price, mt.Price) {
			return false
		}
		i := 0
		for i < len(l.orders) && remaining > 0 {
			o := &l.orders[i]
			fill := min(remaining, o.State.Remaining())
			if fill <= 0 {
				i++
				continue
			}
			notional := fill * l.price
			fee := notional * feeRateFor(o.State.Role)
			trades = append(trades, types.ClientTrade{
				TradeID:    nextTradeID(),
				OrderID:    o.State.ID,
				Instrument: o.Instrument,
				Side:       o.Side,
				Price:      l.price,
				Quantity:   fill,
				Fee:        fee,
				FeeToken:   o.Instrument.Quote,
				Role:       o.State.Role,
				Timestamp:  mt.Timestamp,
			})
			o.State.FilledQuantity += fill
			remaining -= fill
			if o.State.Remaining() <= 0 {
				l.orders = append(l.orders[:i], l.orders[i+1:]...)
				continue
			}
			i++
		}
		if len(l.orders) == 0 {
			drainedPrices = append(drainedPrices, l.price)
		}
		return remaining > 0
	})

	for _, p := range drainedPrices {
		s.remove(p)
	}
	return trades
}

func crosses(target types.Side, restingPrice, tradePrice float64) bool {
	if target == types.Buy {
		return restingPrice >= tradePrice
	}
	return restingPrice <= tradePrice
}
