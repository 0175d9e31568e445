// Hourglass sandbox — a deterministic simulation of a perpetual-futures
// exchange's account matching and position engine.
//
// Architecture:
//
//	main.go               — entry point: loads config, wires components, waits for SIGINT/SIGTERM
//	account/core.go        — AccountCore: the single-actor order/trade/position orchestrator
//	matching/              — resting-order-vs-market-trade matcher with maker/taker fees
//	position/store.go      — Net/LongShort perpetual position lifecycle
//	balance/store.go       — token balance reservation and settlement
//	risk/monitor.go        — advisory exposure monitor (never gates an AccountCore operation)
//	marketfeed/ws.go        — live WebSocket market-trade subscriber with auto-reconnect
//	tradestore/rest.go      — paginated REST historical trade query, for backtests
//	journal/journal.go      — crash-safe append-only AccountEvent log
//	monitor/server.go       — read-only HTTP/WebSocket/Prometheus view of a running account
//	driver/replay.go        — forwards a trade source into AccountCore's request channel
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/account"
	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/internal/driver"
	"github.com/HourglassDevTeam/Hourglass/internal/journal"
	"github.com/HourglassDevTeam/Hourglass/internal/marketfeed"
	"github.com/HourglassDevTeam/Hourglass/internal/monitor"
	"github.com/HourglassDevTeam/Hourglass/internal/risk"
	"github.com/HourglassDevTeam/Hourglass/internal/tradestore"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("HG_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core := account.New(ctx, cfg.Account, logger)

	var riskMon *risk.ExposureMonitor
	if cfg.Risk.MaxTotalNotional > 0 || cfg.Risk.MaxNotionalPerInstrument > 0 || cfg.Risk.MaxDailyLoss > 0 {
		riskMon = risk.NewExposureMonitor(cfg.Risk, logger)
		core.SetRiskMonitor(riskMon)
		go riskMon.Run(ctx)
	}

	var jrnl *journal.Journal
	if cfg.Journal.Enabled {
		jrnl, err = journal.Open(cfg.Journal.DataDir, core.Session().String())
		if err != nil {
			logger.Error("failed to open journal", "error", err)
			os.Exit(1)
		}
		defer jrnl.Close()
	}

	var monServer *monitor.Server
	if cfg.Monitor.Enabled {
		monServer = monitor.NewServer(cfg.Monitor, core, riskMon, logger)
		go func() {
			if err := monServer.Run(ctx); err != nil {
				logger.Error("monitor server stopped", "error", err)
			}
		}()
		logger.Info("monitor started", "url", fmt.Sprintf("http://localhost:%d", cfg.Monitor.Port))
	}

	// AccountCore's event bus is single-consumer; one loop owns it and
	// fans each event out to the journal and the monitor.
	go relayEvents(ctx, core, jrnl, monServer, logger)

	go core.Run()

	go runFeed(ctx, cfg, core, logger)

	logger.Info("sandbox started",
		"exchange", cfg.Account.Exchange,
		"execution_mode", cfg.Account.ExecutionMode,
		"direction_mode", cfg.Account.PositionDirectionMode,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	cancel()
	core.Stop()
}

// runFeed drives market trades into core for the configured execution
// mode: a live WebSocket subscription in Online mode, or a sequential
// paged trade-store replay per configured symbol in Backtest mode.
func runFeed(ctx context.Context, cfg *config.Config, core *account.Core, logger *slog.Logger) {
	if len(cfg.TradeFeed.Symbols) == 0 {
		logger.Warn("no trade_feed.symbols configured, no trades will be driven")
		return
	}

	d := driver.New(core, logger)

	switch cfg.Account.ExecutionMode {
	case config.Online:
		source := marketfeed.NewWSSource(cfg.TradeFeed.WSMarketURL, cfg.Account.Exchange, cfg.TradeFeed.Symbols, logger)
		go func() {
			if err := source.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("market feed stopped", "error", err)
			}
		}()
		if err := d.Run(ctx, source.Trades()); err != nil && ctx.Err() == nil {
			logger.Error("replay driver stopped", "error", err)
		}

	case config.Backtest:
		querier := tradestore.NewRESTQuerier(cfg.TradeFeed.TradeStoreURL, cfg.Account.Exchange, logger)
		from, to := cfg.TradeFeed.BacktestFrom, cfg.TradeFeed.BacktestTo
		if to.IsZero() {
			to = time.Now()
		}
		for _, symbol := range cfg.TradeFeed.Symbols {
			instrument, err := types.ParseInstrument(symbol, types.Perpetual)
			if err != nil {
				logger.Error("skipping unparseable backtest symbol", "symbol", symbol, "error", err)
				continue
			}
			trades := driver.FromQuerier(ctx, querier, instrument, from, to, logger)
			if err := d.Run(ctx, trades); err != nil && ctx.Err() == nil {
				logger.Error("replay driver stopped", "symbol", symbol, "error", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
		logger.Info("backtest replay complete")
	}
}

// relayEvents is the single reader of AccountCore's event bus. It appends
// every event to the journal (if enabled) and forwards it to the monitor
// server (if enabled); both are fed from this one loop because the bus
// itself is single-consumer.
func relayEvents(ctx context.Context, core *account.Core, j *journal.Journal, monServer *monitor.Server, logger *slog.Logger) {
	events := core.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if j != nil {
				if err := j.Append(evt); err != nil {
					logger.Error("failed to append event to journal", "error", err)
				}
			}
			if monServer != nil {
				monServer.Ingest(evt)
			}
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
