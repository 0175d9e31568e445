package marketfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

const (
	pingInterval     = 50 * time.Second
	readTimeout      = 90 * time.Second
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	tradeBufferSize  = 256
)

// subscribeMsg is the outbound wire message naming the symbols this
// connection wants trade prints for.
type subscribeMsg struct {
	Operation string   `json:"op"`
	Symbols   []string `json:"symbols"`
}

// wireTrade is the inbound wire shape for a single trade print.
type wireTrade struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Amount    float64 `json:"amount"`
	Side      string  `json:"side"`
	Timestamp int64   `json:"timestamp"`
}

// WSSource is a Source that subscribes to a list of symbols over a
// gorilla/websocket connection and auto-reconnects with exponential
// backoff, re-subscribing on every reconnect.
type WSSource struct {
	url      string
	symbols  []string
	exchange string

	connMu sync.Mutex
	conn   *websocket.Conn

	tradeCh chan types.MarketTrade
	logger  *slog.Logger
}

// NewWSSource builds a WSSource that will subscribe to symbols once Run
// is called.
func NewWSSource(wsURL, exchange string, symbols []string, logger *slog.Logger) *WSSource {
	return &WSSource{
		url:      wsURL,
		symbols:  symbols,
		exchange: exchange,
		tradeCh:  make(chan types.MarketTrade, tradeBufferSize),
		logger:   logger.With("component", "marketfeed"),
	}
}

// Trades returns the outbound channel of parsed market trades.
func (s *WSSource) Trades() <-chan types.MarketTrade { return s.tradeCh }

// Run connects and maintains the connection with auto-reconnect. Blocks
// until ctx is cancelled.
func (s *WSSource) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Warn("market feed disconnected, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func (s *WSSource) connectAndRead(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()

	defer func() {
		s.connMu.Lock()
		conn.Close()
		s.conn = nil
		s.connMu.Unlock()
	}()

	if err := s.writeJSON(subscribeMsg{Operation: "subscribe", Symbols: s.symbols}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	s.logger.Info("market feed connected", "symbols", s.symbols)

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go s.pingLoop(pingCtx)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		s.dispatch(msg)
	}
}

func (s *WSSource) dispatch(data []byte) {
	var wt wireTrade
	if err := json.Unmarshal(data, &wt); err != nil {
		s.logger.Debug("ignoring unparseable market feed message", "error", err)
		return
	}
	if wt.Symbol == "" {
		return
	}

	trade := types.MarketTrade{
		Exchange:  s.exchange,
		Symbol:    wt.Symbol,
		Timestamp: wt.Timestamp,
		Price:     wt.Price,
		Amount:    wt.Amount,
		Side:      types.Side(wt.Side),
	}

	select {
	case s.tradeCh <- trade:
	default:
		s.logger.Warn("trade channel full, dropping market trade", "symbol", wt.Symbol)
	}
}

func (s *WSSource) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.writeMessage(websocket.TextMessage, []byte("PING")); err != nil {
				s.logger.Warn("ping failed", "error", err)
				return
			}
		}
	}
}

func (s *WSSource) writeJSON(v interface{}) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

func (s *WSSource) writeMessage(msgType int, data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("websocket not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(msgType, data)
}
