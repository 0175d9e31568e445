// Prometheus metrics for the account engine, served at /metrics in
// Prometheus text exposition format.
//
//   - hg_trades_total{instrument,side}        - trades matched, by instrument and client order side
//   - hg_trade_notional_usd_total{instrument}  - cumulative traded notional
//   - hg_fees_paid_usd_total{instrument}       - cumulative fees charged
//   - hg_orders_opened_total{instrument,side}  - orders admitted
//   - hg_orders_cancelled_total{instrument}    - orders cancelled
//   - hg_position_notional_usd                 - aggregate position notional (gauge)
//   - hg_unrealised_pnl_usd                    - aggregate unrealised PnL (gauge)
//   - hg_risk_alerts_total{reason}             - advisory risk alerts raised
//
// Registered in init() and updated by Server.Ingest/pollRiskGauges as
// AccountEvents and risk reports arrive.
package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	metricTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_trades_total",
			Help: "Trades matched, by instrument and client order side",
		},
		[]string{"instrument", "side"},
	)

	metricTradeNotional = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_trade_notional_usd_total",
			Help: "Cumulative traded notional in USD",
		},
		[]string{"instrument"},
	)

	metricFeesPaid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_fees_paid_usd_total",
			Help: "Cumulative fees charged in USD",
		},
		[]string{"instrument"},
	)

	metricOrdersOpened = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_orders_opened_total",
			Help: "Orders admitted, by instrument and side",
		},
		[]string{"instrument", "side"},
	)

	metricOrdersCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_orders_cancelled_total",
			Help: "Orders cancelled, by instrument",
		},
		[]string{"instrument"},
	)

	metricPositionNotional = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hg_position_notional_usd",
			Help: "Aggregate position notional in USD across all instruments",
		},
	)

	metricUnrealisedPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hg_unrealised_pnl_usd",
			Help: "Aggregate unrealised PnL in USD across all instruments",
		},
	)

	metricRiskAlerts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_risk_alerts_total",
			Help: "Advisory risk alerts raised, by reason",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		metricTrades,
		metricTradeNotional,
		metricFeesPaid,
		metricOrdersOpened,
		metricOrdersCancelled,
		metricPositionNotional,
		metricUnrealisedPnL,
		metricRiskAlerts,
	)
}
