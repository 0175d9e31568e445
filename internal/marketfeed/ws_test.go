package marketfeed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatchIgnoresUnparseableMessage(t *testing.T) {
	t.Parallel()
	s := NewWSSource("ws://unused", "sandbox", nil, testLogger())

	s.dispatch([]byte("not json"))

	select {
	case trade := <-s.tradeCh:
		t.Fatalf("unexpected trade from garbage input: %+v", trade)
	default:
	}
}

func TestDispatchIgnoresMissingSymbol(t *testing.T) {
	t.Parallel()
	s := NewWSSource("ws://unused", "sandbox", nil, testLogger())

	s.dispatch([]byte(`{"price": 100, "amount": 1, "side": "buy"}`))

	select {
	case trade := <-s.tradeCh:
		t.Fatalf("unexpected trade without a symbol: %+v", trade)
	default:
	}
}

func TestDispatchParsesTrade(t *testing.T) {
	t.Parallel()
	s := NewWSSource("ws://unused", "sandbox", nil, testLogger())

	s.dispatch([]byte(`{"symbol": "ETH_USDT", "price": 2500.5, "amount": 1.2, "side": "sell", "timestamp": 1000}`))

	select {
	case trade := <-s.tradeCh:
		want := types.MarketTrade{Exchange: "sandbox", Symbol: "ETH_USDT", Timestamp: 1000, Price: 2500.5, Amount: 1.2, Side: types.Sell}
		if trade != want {
			t.Errorf("trade = %+v, want %+v", trade, want)
		}
	default:
		t.Fatal("expected a parsed trade")
	}
}

func TestDispatchDropsOnFullChannel(t *testing.T) {
	t.Parallel()
	s := NewWSSource("ws://unused", "sandbox", nil, testLogger())
	s.tradeCh = make(chan types.MarketTrade, 1)

	msg := []byte(`{"symbol": "ETH_USDT", "price": 100, "amount": 1, "side": "buy", "timestamp": 1}`)
	s.dispatch(msg)
	s.dispatch(msg) // channel now full, should log and drop rather than block

	if len(s.tradeCh) != 1 {
		t.Errorf("tradeCh len = %d, want 1", len(s.tradeCh))
	}
}

var upgrader = websocket.Upgrader{}

func TestRunConnectsSubscribesAndReceivesTrades(t *testing.T) {
	t.Parallel()

	received := make(chan subscribeMsg, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeMsg
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		received <- sub

		_ = conn.WriteJSON(wireTrade{Symbol: "ETH_USDT", Price: 100, Amount: 1, Side: "buy", Timestamp: 5})

		// Keep the connection open until the test cancels ctx.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewWSSource(wsURL, "sandbox", []string{"ETH_USDT"}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	select {
	case sub := <-received:
		if len(sub.Symbols) != 1 || sub.Symbols[0] != "ETH_USDT" {
			t.Errorf("subscribe symbols = %v, want [ETH_USDT]", sub.Symbols)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for subscribe message")
	}

	select {
	case trade := <-s.Trades():
		if trade.Symbol != "ETH_USDT" || trade.Price != 100 {
			t.Errorf("trade = %+v, want symbol ETH_USDT price 100", trade)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trade")
	}
}
