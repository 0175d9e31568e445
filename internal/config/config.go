// Package config defines all configuration for the account engine. Config
// is loaded from a YAML file (default: configs/config.yaml) with overrides
// via HG_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure.
type Config struct {
	Account   AccountConfig   `mapstructure:"account"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Journal   JournalConfig   `mapstructure:"journal"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	TradeFeed TradeFeedConfig `mapstructure:"trade_feed"`
}

// RiskConfig bounds the advisory ExposureMonitor. Nothing here gates an
// AccountCore operation. This is a second, looser line of sight for an
// operator watching the account from outside.
type RiskConfig struct {
	MaxNotionalPerInstrument float64       `mapstructure:"max_notional_per_instrument"`
	MaxTotalNotional         float64       `mapstructure:"max_total_notional"`
	MaxDailyLoss             float64       `mapstructure:"max_daily_loss"`
	PriceMoveWindow          time.Duration `mapstructure:"price_move_window"`
	PriceMoveThresholdPct    float64       `mapstructure:"price_move_threshold_pct"`
	AlertCooldown            time.Duration `mapstructure:"alert_cooldown"`
}

// FeeSchedule gives the maker/taker rate for one instrument kind.
type FeeSchedule struct {
	MakerFees float64 `mapstructure:"maker_fees"`
	TakerFees float64 `mapstructure:"taker_fees"`
}

// AccountConfig holds the enumerated external-interface configuration.
//
//   - ExecutionMode: Backtest or Online — affects clock source and whether
//     the latency model runs at all.
//   - PositionDirectionMode: Net or LongShort.
//   - PositionMarginMode: Isolated or Cross. Cross is reserved; selecting
//     it makes order admission fail with ErrNotImplemented. Cancels,
//     fetches and market trades are not checked.
//   - AccountLeverageRate: the leverage every position is created at and
//     the factor in required-balance math. It is compared with a new
//     position's leverage on creation; a breach is logged, not rejected.
//   - FundingRate: loaded and validated with the rest of the config; no
//     AccountCore code path reads it, so no funding fee is computed.
//   - FeesBook: maker/taker fee rate per instrument kind.
type AccountConfig struct {
	Exchange              string                                `mapstructure:"exchange"`
	ExecutionMode         ExecutionMode                         `mapstructure:"execution_mode"`
	PositionDirectionMode types.PositionDirectionMode           `mapstructure:"position_direction_mode"`
	PositionMarginMode    types.PositionMarginMode              `mapstructure:"position_margin_mode"`
	AccountLeverageRate   float64                               `mapstructure:"account_leverage_rate"`
	FundingRate           float64                               `mapstructure:"funding_rate"`
	FeesBook              map[types.InstrumentKind]FeeSchedule  `mapstructure:"fees_book"`
}

// ExecutionMode selects the clock source and whether latency simulation
// runs.
type ExecutionMode string

const (
	Backtest ExecutionMode = "backtest"
	Online   ExecutionMode = "online"
)

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "text"
}

// JournalConfig sets where the AccountEvent audit log is persisted.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DataDir string `mapstructure:"data_dir"`
}

// MonitorConfig controls the read-only dashboard/metrics server.
type MonitorConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TradeFeedConfig points at the external market-trade sources. In Online
// mode Symbols are subscribed on the WebSocket feed; in Backtest mode
// they're queried one at a time against the trade store for [BacktestFrom,
// BacktestTo).
type TradeFeedConfig struct {
	Symbols          []string      `mapstructure:"symbols"`
	WSMarketURL      string        `mapstructure:"ws_market_url"`
	TradeStoreURL    string        `mapstructure:"trade_store_base_url"`
	ReconnectBackoff time.Duration `mapstructure:"reconnect_backoff"`
	BacktestFrom     time.Time     `mapstructure:"backtest_from"`
	BacktestTo       time.Time     `mapstructure:"backtest_to"`
}

// Load reads config from a YAML file with env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("HG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if mode := os.Getenv("HG_EXECUTION_MODE"); mode != "" {
		cfg.Account.ExecutionMode = ExecutionMode(mode)
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	switch c.Account.ExecutionMode {
	case Backtest, Online:
	default:
		return fmt.Errorf("account.execution_mode must be one of: backtest, online")
	}
	switch c.Account.PositionDirectionMode {
	case types.Net, types.LongShort:
	default:
		return fmt.Errorf("account.position_direction_mode must be one of: net, long_short")
	}
	switch c.Account.PositionMarginMode {
	case types.Isolated, types.Cross:
	default:
		return fmt.Errorf("account.position_margin_mode must be one of: isolated, cross")
	}
	if c.Account.AccountLeverageRate < 1 {
		return fmt.Errorf("account.account_leverage_rate must be >= 1")
	}
	if c.Account.Exchange == "" {
		return fmt.Errorf("account.exchange is required")
	}
	return nil
}
