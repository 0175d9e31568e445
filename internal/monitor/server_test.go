package monitor

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
	"github.com/segmentio/encoding/json"

	"github.com/HourglassDevTeam/Hourglass/internal/account"
	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAccountConfig() config.AccountConfig {
	return config.AccountConfig{
		Exchange:              "sandbox",
		ExecutionMode:         config.Backtest,
		PositionDirectionMode: types.Net,
		PositionMarginMode:    types.Isolated,
		AccountLeverageRate:   1,
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *account.Core, *Hub, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	core := account.New(ctx, testAccountConfig(), testLogger())
	core.SetLatencyModel(nil)
	go core.Run()

	hub := NewHub(testLogger())
	go hub.Run()
	handlers := NewHandlers(core, nil, config.MonitorConfig{}, hub, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/stream", handlers.HandleWebSocket)
	mux.HandleFunc("/metrics", handlers.HandleMetrics)

	srv := httptest.NewServer(mux)
	cleanup := func() {
		srv.Close()
		core.Stop()
		cancel()
	}
	return srv, core, hub, cleanup
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	srv, _, _, cleanup := newTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleSnapshotReturnsEmptyAccount(t *testing.T) {
	t.Parallel()
	srv, _, _, cleanup := newTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatalf("GET /snapshot: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Balances) != 0 || len(snap.Positions) != 0 || len(snap.OpenOrders) != 0 {
		t.Errorf("snapshot on a fresh account should be empty, got %+v", snap)
	}
}

func TestHandleWebSocketSendsInitialSnapshot(t *testing.T) {
	t.Parallel()
	srv, _, _, cleanup := newTestServer(t)
	defer cleanup()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt DashboardEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if evt.Type != "snapshot" {
		t.Errorf("event type = %q, want snapshot", evt.Type)
	}
}

func TestWebSocketReceivesBroadcastAccountEvent(t *testing.T) {
	t.Parallel()
	srv, _, hub, cleanup := newTestServer(t)
	defer cleanup()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var initial DashboardEvent
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}

	hub.BroadcastEvent(DashboardEvent{Type: "account_event", Data: "ping"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt DashboardEvent
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read broadcast event: %v", err)
	}
	if evt.Type != "account_event" {
		t.Errorf("event type = %q, want account_event", evt.Type)
	}
}
