// Package types defines the shared vocabulary of the account matching and
// position engine — tokens, instruments, orders, balances, positions, and
// the event/error taxonomy. It has no dependencies on internal packages,
// so it can be imported by any layer.
package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/encoding/json"
)

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Token is an opaque, hashable identifier for a tradable asset (e.g. "BTC",
// "USDT"). It is just a named string so it can be used directly as a map key.
type Token string

func (t Token) String() string { return string(t) }

// InstrumentKind enumerates the instrument families the engine knows about.
// Only Perpetual is fully supported; every other kind is accepted as a
// value but rejected with ErrUnsupportedInstrumentKind by any operation
// that branches on kind.
type InstrumentKind string

const (
	Spot                 InstrumentKind = "spot"
	Perpetual            InstrumentKind = "perpetual"
	Future               InstrumentKind = "future"
	CryptoOption         InstrumentKind = "crypto_option"
	CryptoLeveragedToken InstrumentKind = "crypto_leveraged_token"
	CommodityOption      InstrumentKind = "commodity_option"
	CommodityFuture      InstrumentKind = "commodity_future"
)

// Instrument identifies a base/quote pair traded as a given kind.
type Instrument struct {
	Base  Token
	Quote Token
	Kind  InstrumentKind
}

func (i Instrument) String() string {
	return fmt.Sprintf("%s_%s", i.Base, i.Quote)
}

// ParseInstrument splits a "BASE_QUOTE" wire symbol into an Instrument of
// the given kind, per the market trade format in the external interfaces.
func ParseInstrument(symbol string, kind InstrumentKind) (Instrument, error) {
	parts := strings.SplitN(symbol, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Instrument{}, fmt.Errorf("%w: %q", ErrInvalidInstrument, symbol)
	}
	return Instrument{Base: Token(parts[0]), Quote: Token(parts[1]), Kind: kind}, nil
}

// Side is the direction of an order or trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderInstruction enumerates the admissible order lifecycles. Admission
// validates the instruction against this set.
type OrderInstruction string

const (
	Market            OrderInstruction = "market"
	Limit             OrderInstruction = "limit"
	ImmediateOrCancel OrderInstruction = "immediate_or_cancel"
	FillOrKill        OrderInstruction = "fill_or_kill"
	PostOnly          OrderInstruction = "post_only"
	GoodTilCancelled  OrderInstruction = "good_til_cancelled"
	CancelInstruction OrderInstruction = "cancel"
)

// OrderRole is fixed at admission time and drives the fee rate at match
// time. Maker adds liquidity, Taker removes it.
type OrderRole string

const (
	Maker OrderRole = "maker"
	Taker OrderRole = "taker"
)

// ————————————————————————————————————————————————————————————————————————
// Identifiers
// ————————————————————————————————————————————————————————————————————————

// OrderID is the book-assigned, strictly monotonically increasing order
// identifier.
type OrderID int64

// ClientOrderID is a caller-supplied order tag. Construct with
// NewClientOrderID, which enforces the format predicate; the zero value is
// not a valid id.
type ClientOrderID string

const (
	clientOrderIDMinLen = 1
	clientOrderIDMaxLen = 20
)

// NewClientOrderID validates s against the external-interface predicate:
// non-empty, printable ASCII, no whitespace, length within 1..20 runes.
func NewClientOrderID(s string) (ClientOrderID, error) {
	if len(s) < clientOrderIDMinLen || len(s) > clientOrderIDMaxLen {
		return "", fmt.Errorf("%w: client order id length %d out of bounds", ErrInvalidRequestOpen, len(s))
	}
	for _, r := range s {
		if r <= ' ' || r > '~' {
			return "", fmt.Errorf("%w: client order id contains non-printable or whitespace rune", ErrInvalidRequestOpen)
		}
	}
	return ClientOrderID(s), nil
}

// ClientTradeID identifies a single fill produced by the matcher.
type ClientTradeID int64

// ————————————————————————————————————————————————————————————————————————
// Orders
// ————————————————————————————————————————————————————————————————————————

// RequestOpen is the state of an order as submitted by a caller, before
// admission. price>0, size>0 and instrument.Base != instrument.Quote are
// enforced by AccountCore at validation time.
type RequestOpen struct {
	Price      float64
	Size       float64
	ReduceOnly bool
}

// Open is the state of an order resting in the book. 0 <= FilledQuantity
// <= Size at all times.
type Open struct {
	ID             OrderID
	Price          float64
	Size           float64
	FilledQuantity float64
	Role           OrderRole
}

// Remaining returns the quantity yet to be filled.
func (o Open) Remaining() float64 { return o.Size - o.FilledQuantity }

// RequestCancel identifies the order to cancel, by OrderID, ClientOrderID,
// or both. At least one must be present.
type RequestCancel struct {
	ID *OrderID
}

// Cancelled is the terminal state of a successfully cancelled order.
type Cancelled struct {
	ID OrderID
}

// Order is the generic order envelope, parameterized over its lifecycle
// state S. This is the idiomatic Go analogue of a typestate: the same
// envelope fields travel through RequestOpen -> Open -> RequestCancel ->
// Cancelled as the concrete S changes at call sites.
type Order[S any] struct {
	Exchange    string
	Instrument  Instrument
	Timestamp   int64
	CID         *ClientOrderID
	Side        Side
	Instruction OrderInstruction
	State       S
}

// ————————————————————————————————————————————————————————————————————————
// Balances
// ————————————————————————————————————————————————————————————————————————

// Balance is the current total/available funds for one token, plus the
// last observed price used for role determination and PostOnly checks.
// Invariant: 0 <= Available <= Total whenever no request is
// in-flight.
type Balance struct {
	Total        float64
	Available    float64
	CurrentPrice float64
	Time         time.Time
}

// BalanceDelta is applied to both Total and Available of a Balance.
type BalanceDelta struct {
	Total     float64
	Available float64
}

// Apply adds the delta to b and returns the updated balance. It never
// panics or clamps; callers are expected to reason about the invariant via
// has_sufficient checks before applying a debit.
func (b Balance) Apply(d BalanceDelta) Balance {
	b.Total += d.Total
	b.Available += d.Available
	return b
}

// TokenBalance pairs a Token with its current Balance, the shape emitted
// on the event bus and returned from FetchBalances/Snapshot.
type TokenBalance struct {
	Token   Token
	Balance Balance
}

// ————————————————————————————————————————————————————————————————————————
// Positions
// ————————————————————————————————————————————————————————————————————————

// PositionMeta holds the running aggregates for a single position.
type PositionMeta struct {
	PositionID           int64
	EnterTimestamp       int64
	UpdateTimestamp      int64
	Exchange             string
	Instrument           Instrument
	Side                 Side
	CurrentSize          float64
	CurrentFeesTotal     float64
	CurrentAvgPrice      float64
	CurrentAvgPriceGross float64
	CurrentSymbolPrice   float64
	UnrealisedPnL        float64
	RealisedPnL          float64
}

// PositionMarginMode selects isolated-per-position or shared-pool margin.
// Cross is a declared extension point: every operation that would need a
// shared margin pool returns ErrNotImplemented when this mode is selected.
type PositionMarginMode string

const (
	Isolated PositionMarginMode = "isolated"
	Cross    PositionMarginMode = "cross"
)

// PositionDirectionMode selects whether an instrument may hold one net
// position (Net) or independent long and short books (LongShort).
type PositionDirectionMode string

const (
	Net       PositionDirectionMode = "net"
	LongShort PositionDirectionMode = "long_short"
)

// PositionConfig carries the margin parameters a position was opened
// under.
type PositionConfig struct {
	MarginMode    PositionMarginMode
	Leverage      float64
	DirectionMode PositionDirectionMode
}

// PerpetualPosition is a single long or short position in one instrument.
type PerpetualPosition struct {
	Meta             PositionMeta
	Config           PositionConfig
	LiquidationPrice float64
	Margin           float64
}

// ————————————————————————————————————————————————————————————————————————
// Trades
// ————————————————————————————————————————————————————————————————————————

// MarketTrade is a single public trade print from the market data source.
// Symbol follows the "BASE_QUOTE" wire convention; instrument kind is
// supplied by the caller context, not carried on the wire.
type MarketTrade struct {
	Exchange  string
	Symbol    string
	Timestamp int64 // unix millis
	Price     float64
	Amount    float64
	Side      Side
}

// ParseBase returns the base token of Symbol.
func (m MarketTrade) ParseBase() (Token, error) {
	i, err := ParseInstrument(m.Symbol, Perpetual)
	if err != nil {
		return "", err
	}
	return i.Base, nil
}

// ParseQuote returns the quote token of Symbol.
func (m MarketTrade) ParseQuote() (Token, error) {
	i, err := ParseInstrument(m.Symbol, Perpetual)
	if err != nil {
		return "", err
	}
	return i.Quote, nil
}

// ParseInstrument parses Symbol under the given kind.
func (m MarketTrade) ParseInstrument(kind InstrumentKind) (Instrument, error) {
	return ParseInstrument(m.Symbol, kind)
}

// ClientTrade is a single fill produced by the matching engine against a
// resting order.
type ClientTrade struct {
	TradeID    ClientTradeID
	OrderID    OrderID
	Instrument Instrument
	Side       Side
	Price      float64
	Quantity   float64
	Fee        float64
	FeeToken   Token
	Role       OrderRole
	Timestamp  int64
}

// ————————————————————————————————————————————————————————————————————————
// Events
// ————————————————————————————————————————————————————————————————————————

// AccountEventKind is a closed sum type over the event payloads AccountCore
// publishes. The unexported method keeps the set closed to this package.
type AccountEventKind interface {
	isAccountEventKind()
}

type OrdersOpenEvent struct{ Orders []Order[Open] }

func (OrdersOpenEvent) isAccountEventKind() {}

type OrdersCancelledEvent struct{ Orders []Order[Cancelled] }

func (OrdersCancelledEvent) isAccountEventKind() {}

type TradeEvent struct{ Trade ClientTrade }

func (TradeEvent) isAccountEventKind() {}

type BalanceEvent struct{ Balance TokenBalance }

func (BalanceEvent) isAccountEventKind() {}

type BalancesEvent struct{ Balances []TokenBalance }

func (BalancesEvent) isAccountEventKind() {}

// AccountEvent is the envelope published on the outbound event bus.
type AccountEvent struct {
	ExchangeTimestamp int64
	Exchange          string
	Kind              AccountEventKind
}

// accountEventKindTag names each AccountEventKind variant for the
// journal's wire format. Encoding an interface field needs an explicit
// tag; Go's json package has no notion of a closed sum type.
const (
	tagOrdersOpen      = "orders_open"
	tagOrdersCancelled = "orders_cancelled"
	tagTrade           = "trade"
	tagBalance         = "balance"
	tagBalances        = "balances"
)

type accountEventWire struct {
	ExchangeTimestamp int64           `json:"exchange_timestamp"`
	Exchange          string          `json:"exchange"`
	Kind              string          `json:"kind"`
	Payload           json.RawMessage `json:"payload"`
}

// MarshalJSON tags Kind's concrete type so UnmarshalJSON can reconstruct
// it; encoding/json cannot decode into an interface field on its own.
func (e AccountEvent) MarshalJSON() ([]byte, error) {
	var tag string
	switch e.Kind.(type) {
	case OrdersOpenEvent:
		tag = tagOrdersOpen
	case OrdersCancelledEvent:
		tag = tagOrdersCancelled
	case TradeEvent:
		tag = tagTrade
	case BalanceEvent:
		tag = tagBalance
	case BalancesEvent:
		tag = tagBalances
	default:
		return nil, fmt.Errorf("account event: unknown kind %T", e.Kind)
	}

	payload, err := json.Marshal(e.Kind)
	if err != nil {
		return nil, fmt.Errorf("account event: marshal payload: %w", err)
	}

	return json.Marshal(accountEventWire{
		ExchangeTimestamp: e.ExchangeTimestamp,
		Exchange:          e.Exchange,
		Kind:              tag,
		Payload:           payload,
	})
}

// UnmarshalJSON reconstructs Kind's concrete type from the tag written by
// MarshalJSON.
func (e *AccountEvent) UnmarshalJSON(data []byte) error {
	var wire accountEventWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var kind AccountEventKind
	switch wire.Kind {
	case tagOrdersOpen:
		var v OrdersOpenEvent
		if err := json.Unmarshal(wire.Payload, &v); err != nil {
			return err
		}
		kind = v
	case tagOrdersCancelled:
		var v OrdersCancelledEvent
		if err := json.Unmarshal(wire.Payload, &v); err != nil {
			return err
		}
		kind = v
	case tagTrade:
		var v TradeEvent
		if err := json.Unmarshal(wire.Payload, &v); err != nil {
			return err
		}
		kind = v
	case tagBalance:
		var v BalanceEvent
		if err := json.Unmarshal(wire.Payload, &v); err != nil {
			return err
		}
		kind = v
	case tagBalances:
		var v BalancesEvent
		if err := json.Unmarshal(wire.Payload, &v); err != nil {
			return err
		}
		kind = v
	default:
		return fmt.Errorf("account event: unknown kind tag %q", wire.Kind)
	}

	e.ExchangeTimestamp = wire.ExchangeTimestamp
	e.Exchange = wire.Exchange
	e.Kind = kind
	return nil
}
