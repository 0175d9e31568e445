// Package risk implements an advisory exposure monitor for the account
// engine. ExposureMonitor aggregates PositionReports emitted after every
// trade and logs when aggregate notional, daily PnL, or price movement
// crosses a configured threshold. It never blocks or rejects an
// AccountCore operation. This monitor exists so an operator watching a
// running session has a second, coarser line of sight on portfolio-level
// risk that per-order admission checks cannot see by themselves.
package risk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// PositionReport is submitted once per instrument after a trade or position
// change is applied. It carries enough to recompute aggregate exposure and
// PnL without the monitor needing to read the position store itself.
type PositionReport struct {
	Instrument    types.Instrument
	Size          float64
	MarkPrice     float64
	NotionalUSD   float64
	UnrealisedPnL float64
	RealisedPnL   float64
	Timestamp     time.Time
}

// Alert is emitted on AlertCh when a limit is breached. Unlike the
// teacher's KillSignal, nothing downstream acts on it automatically — a
// monitor package is meant to be watched, not obeyed.
type Alert struct {
	Instrument types.Instrument // zero value means portfolio-wide
	Reason     string
}

type priceAnchor struct {
	price     float64
	timestamp time.Time
}

// ExposureMonitor aggregates PositionReports across instruments and logs
// breaches of the configured notional/PnL/price-move limits.
type ExposureMonitor struct {
	cfg    config.RiskConfig
	logger *slog.Logger

	mu               sync.RWMutex
	byInstrument     map[types.Instrument]PositionReport
	totalNotional    float64
	totalRealisedPnL float64
	priceAnchors     map[types.Instrument]priceAnchor
	lastAlertAt      map[string]time.Time

	reportCh chan PositionReport
	alertCh  chan Alert
}

// NewExposureMonitor wires a monitor ready to Run.
func NewExposureMonitor(cfg config.RiskConfig, logger *slog.Logger) *ExposureMonitor {
	return &ExposureMonitor{
		cfg:          cfg,
		logger:       logger.With("component", "risk"),
		byInstrument: make(map[types.Instrument]PositionReport),
		priceAnchors: make(map[types.Instrument]priceAnchor),
		lastAlertAt:  make(map[string]time.Time),
		reportCh:     make(chan PositionReport, 256),
		alertCh:      make(chan Alert, 32),
	}
}

// Run consumes reports until ctx is cancelled. Meant to be launched in its
// own goroutine alongside AccountCore.Run.
func (m *ExposureMonitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case report := <-m.reportCh:
			m.process(report)
		}
	}
}

// Report submits a position report. Non-blocking: a full buffer drops the
// report and logs a warning rather than stall the caller, which in
// practice is AccountCore's own request loop.
func (m *ExposureMonitor) Report(report PositionReport) {
	select {
	case m.reportCh <- report:
	default:
		m.logger.Warn("risk report channel full, dropping report", "instrument", report.Instrument.String())
	}
}

// AlertCh returns the channel alerts are published on. Unread alerts do
// not back up processing; Report above keeps consuming regardless of
// whether anyone drains this channel.
func (m *ExposureMonitor) AlertCh() <-chan Alert { return m.alertCh }

// Snapshot returns the current aggregate view for a monitoring endpoint.
func (m *ExposureMonitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var totalUnrealised float64
	for _, r := range m.byInstrument {
		totalUnrealised += r.UnrealisedPnL
	}

	var pct float64
	if m.cfg.MaxTotalNotional > 0 {
		pct = (m.totalNotional / m.cfg.MaxTotalNotional) * 100
	}

	return Snapshot{
		TotalNotional:      m.totalNotional,
		MaxTotalNotional:   m.cfg.MaxTotalNotional,
		NotionalPct:        pct,
		TotalRealisedPnL:   m.totalRealisedPnL,
		TotalUnrealisedPnL: totalUnrealised,
		InstrumentCount:    len(m.byInstrument),
	}
}

// Snapshot is the aggregate risk view exposed to a monitoring endpoint.
type Snapshot struct {
	TotalNotional      float64
	MaxTotalNotional   float64
	NotionalPct        float64
	TotalRealisedPnL   float64
	TotalUnrealisedPnL float64
	InstrumentCount    int
}

func (m *ExposureMonitor) process(report PositionReport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byInstrument[report.Instrument] = report

	m.totalNotional = 0
	m.totalRealisedPnL = 0
	var totalUnrealised float64
	for _, r := range m.byInstrument {
		m.totalNotional += r.NotionalUSD
		m.totalRealisedPnL += r.RealisedPnL
		totalUnrealised += r.UnrealisedPnL
	}

	if m.cfg.MaxNotionalPerInstrument > 0 && report.NotionalUSD > m.cfg.MaxNotionalPerInstrument {
		m.alert(report.Instrument, "per-instrument notional limit breached")
	}
	if m.cfg.MaxTotalNotional > 0 && m.totalNotional > m.cfg.MaxTotalNotional {
		m.alert(types.Instrument{}, "portfolio notional limit breached")
	}
	if m.cfg.MaxDailyLoss > 0 {
		if total := m.totalRealisedPnL + totalUnrealised; total < -m.cfg.MaxDailyLoss {
			m.alert(types.Instrument{}, "daily loss limit breached")
		}
	}

	m.checkPriceMovement(report)
}

// checkPriceMovement compares the current mark against a rolling anchor.
// The anchor resets whenever it is missing or older than PriceMoveWindow,
// mirroring a fixed-size tumbling window rather than a sliding one.
func (m *ExposureMonitor) checkPriceMovement(report PositionReport) {
	if m.cfg.PriceMoveWindow <= 0 || m.cfg.PriceMoveThresholdPct <= 0 {
		return
	}

	anchor, ok := m.priceAnchors[report.Instrument]
	if !ok || report.Timestamp.Sub(anchor.timestamp) > m.cfg.PriceMoveWindow {
		m.priceAnchors[report.Instrument] = priceAnchor{price: report.MarkPrice, timestamp: report.Timestamp}
		return
	}
	if anchor.price == 0 {
		return
	}

	move := (report.MarkPrice - anchor.price) / anchor.price
	if move < 0 {
		move = -move
	}
	if move > m.cfg.PriceMoveThresholdPct {
		m.alert(report.Instrument, fmt.Sprintf("mark moved %.1f%% within %s", move*100, m.cfg.PriceMoveWindow))
	}
}

// alert logs and publishes, but throttles repeats of the same reason for
// the same instrument within AlertCooldown so a persistently-breached
// limit doesn't flood the log on every trade.
func (m *ExposureMonitor) alert(instrument types.Instrument, reason string) {
	key := instrument.String() + "|" + reason
	if m.cfg.AlertCooldown > 0 {
		if last, ok := m.lastAlertAt[key]; ok && time.Since(last) < m.cfg.AlertCooldown {
			return
		}
	}
	m.lastAlertAt[key] = time.Now()

	m.logger.Warn("risk limit breached", "instrument", instrument.String(), "reason", reason)

	a := Alert{Instrument: instrument, Reason: reason}
	select {
	case m.alertCh <- a:
	default:
		select {
		case <-m.alertCh:
		default:
		}
		m.alertCh <- a
	}
}
