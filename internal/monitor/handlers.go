package monitor

import (
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HourglassDevTeam/Hourglass/internal/account"
	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/internal/risk"
	"log/slog"
)

// Handlers holds the dependencies every HTTP endpoint needs.
type Handlers struct {
	core    *account.Core
	risk    *risk.ExposureMonitor // nil if no monitor attached
	cfg     config.MonitorConfig
	hub     *Hub
	metrics http.Handler
	logger  *slog.Logger
}

// NewHandlers wires a Handlers instance.
func NewHandlers(core *account.Core, riskMon *risk.ExposureMonitor, cfg config.MonitorConfig, hub *Hub, logger *slog.Logger) *Handlers {
	return &Handlers{
		core:    core,
		risk:    riskMon,
		cfg:     cfg,
		hub:     hub,
		metrics: promhttp.Handler(),
		logger:  logger.With("component", "monitor-handlers"),
	}
}

// HandleHealth is a liveness probe; it never touches AccountCore.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleSnapshot returns the current balances, positions, open orders, and
// risk view as a single JSON document.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := BuildSnapshot(r.Context(), h.core, h.risk)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.logger.Error("failed to encode snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// HandleMetrics delegates to the Prometheus exposition handler.
func (h *Handlers) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleWebSocket upgrades the connection, registers a Client with the
// hub, and pushes an initial snapshot so a freshly-connected dashboard
// doesn't have to wait for the next account event to render anything.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(req *http.Request) bool {
			return isOriginAllowed(req.Header.Get("Origin"), h.cfg, req.Host)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn)

	snap := BuildSnapshot(r.Context(), h.core, h.risk)
	data, err := json.Marshal(NewSnapshotEvent(snap))
	if err != nil {
		h.logger.Error("failed to marshal initial snapshot", "error", err)
		return
	}

	select {
	case client.send <- data:
	default:
		h.logger.Warn("failed to send initial snapshot to client")
	}
}

func isOriginAllowed(origin string, cfg config.MonitorConfig, reqHost string) bool {
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	normalized := normalizeOrigin(originURL.Scheme, originURL.Host)
	if normalized == "" {
		return false
	}

	if len(cfg.AllowedOrigins) > 0 {
		for _, allowed := range cfg.AllowedOrigins {
			u, err := url.Parse(allowed)
			if err != nil {
				continue
			}
			if normalized == normalizeOrigin(u.Scheme, u.Host) {
				return true
			}
		}
		return false
	}

	host := strings.ToLower(originURL.Hostname())
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true
	}

	reqHostname := normalizeHost(reqHost)
	return reqHostname != "" && host == reqHostname
}

func normalizeOrigin(scheme, host string) string {
	if scheme == "" || host == "" {
		return ""
	}
	return strings.ToLower(scheme) + "://" + strings.ToLower(host)
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if hostport == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}
