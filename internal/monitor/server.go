// Package monitor exposes a read-only view of a running AccountCore: a
// JSON snapshot endpoint, a WebSocket stream of AccountEvents, and
// Prometheus metrics. Nothing in this package can submit a Request to
// AccountCore; it only reads the event bus and the fetch-style requests
// that already existed for that purpose.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/account"
	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/internal/risk"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Server runs the HTTP/WebSocket monitoring endpoint.
type Server struct {
	cfg      config.MonitorConfig
	core     *account.Core
	risk     *risk.ExposureMonitor
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// NewServer wires a Server. riskMon may be nil if no exposure monitor was
// attached to core.
func NewServer(cfg config.MonitorConfig, core *account.Core, riskMon *risk.ExposureMonitor, logger *slog.Logger) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(core, riskMon, cfg, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handlers.HandleHealth)
	mux.HandleFunc("/snapshot", handlers.HandleSnapshot)
	mux.HandleFunc("/stream", handlers.HandleWebSocket)
	mux.HandleFunc("/metrics", handlers.HandleMetrics)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		cfg:      cfg,
		core:     core,
		risk:     riskMon,
		hub:      hub,
		handlers: handlers,
		server:   srv,
		logger:   logger.With("component", "monitor-server"),
	}
}

// Run starts the hub and its background consumers, then blocks serving
// HTTP until ctx is cancelled or the listener fails. Run does not read
// AccountCore's event bus itself — the bus is single-consumer, and a
// journal may already be draining it — so the caller must forward every
// event to Ingest.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Run()
	if s.risk != nil {
		go s.consumeAlerts(ctx)
		go s.pollRiskGauges(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("monitor server starting", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Ingest relays one AccountEvent to connected WebSocket clients and
// updates the corresponding Prometheus series. The caller owns reading
// from AccountCore's event bus and must call Ingest for every event it
// sees, in order.
func (s *Server) Ingest(evt types.AccountEvent) {
	s.recordMetrics(evt)
	s.hub.BroadcastEvent(NewAccountEvent(evt))
}

func (s *Server) recordMetrics(evt types.AccountEvent) {
	switch kind := evt.Kind.(type) {
	case types.OrdersOpenEvent:
		for _, o := range kind.Orders {
			metricOrdersOpened.WithLabelValues(o.Instrument.String(), string(o.Side)).Inc()
		}
	case types.OrdersCancelledEvent:
		for _, o := range kind.Orders {
			metricOrdersCancelled.WithLabelValues(o.Instrument.String()).Inc()
		}
	case types.TradeEvent:
		t := kind.Trade
		instrument := t.Instrument.String()
		metricTrades.WithLabelValues(instrument, string(t.Side)).Inc()
		metricTradeNotional.WithLabelValues(instrument).Add(t.Price * t.Quantity)
		metricFeesPaid.WithLabelValues(instrument).Add(t.Fee)
	}
}

// pollRiskGauges samples the risk monitor's aggregate view on a fixed
// interval, since the gauges are aggregate-across-instruments and the
// monitor only exposes that aggregate, not a per-report hook.
func (s *Server) pollRiskGauges(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.risk.Snapshot()
			metricPositionNotional.Set(snap.TotalNotional)
			metricUnrealisedPnL.Set(snap.TotalUnrealisedPnL)
		}
	}
}

// consumeAlerts counts advisory risk alerts as a Prometheus counter. It is
// only launched when a risk monitor is attached.
func (s *Server) consumeAlerts(ctx context.Context) {
	alerts := s.risk.AlertCh()
	for {
		select {
		case <-ctx.Done():
			return
		case alert, ok := <-alerts:
			if !ok {
				return
			}
			metricRiskAlerts.WithLabelValues(alert.Reason).Inc()
		}
	}
}
