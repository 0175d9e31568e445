package account

import (
	"testing"

	"github.com/HourglassDevTeam/Hourglass/internal/config"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func TestApplyTradeBalanceDeltasBuy(t *testing.T) {
	t.Parallel()
	c, stop := newTestCore(t, baseConfig())
	defer stop()

	c.applyTradeBalanceDeltas(types.ClientTrade{
		Instrument: ethUSDT(), Side: types.Buy, Price: 100, Quantity: 2, Fee: 0.2,
	})

	base := c.Balances().Get("ETH")
	quote := c.Balances().Get("USDT")
	if base.Total != 2 || base.Available != 2 {
		t.Errorf("base = %+v, want total/available 2", base)
	}
	if quote.Total != -200.2 || quote.Available != -0.2 {
		t.Errorf("quote = %+v, want total -200.2, available -0.2", quote)
	}
}

func TestApplyTradeBalanceDeltasSell(t *testing.T) {
	t.Parallel()
	c, stop := newTestCore(t, baseConfig())
	defer stop()

	c.applyTradeBalanceDeltas(types.ClientTrade{
		Instrument: ethUSDT(), Side: types.Sell, Price: 100, Quantity: 2, Fee: 0.2,
	})

	base := c.Balances().Get("ETH")
	quote := c.Balances().Get("USDT")
	if base.Total != -2 || base.Available != 0 {
		t.Errorf("base = %+v, want total -2, available 0", base)
	}
	if quote.Total != 199.8 || quote.Available != 199.8 {
		t.Errorf("quote = %+v, want 199.8", quote)
	}
}

func TestUpdatePositionLongShortModeCoexistence(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.PositionDirectionMode = types.LongShort
	c, stop := newTestCore(t, cfg)
	defer stop()

	c.updatePosition(types.ClientTrade{Instrument: ethUSDT(), Side: types.Buy, Price: 100, Quantity: 5, Timestamp: 1})
	c.updatePosition(types.ClientTrade{Instrument: ethUSDT(), Side: types.Sell, Price: 100, Quantity: 3, Timestamp: 2})

	long, hasLong := c.positions.GetLong(ethUSDT())
	short, hasShort := c.positions.GetShort(ethUSDT())
	if !hasLong || !hasShort {
		t.Fatalf("expected both sides open in LongShort mode, hasLong=%v hasShort=%v", hasLong, hasShort)
	}
	if long.Meta.CurrentSize != 5 || short.Meta.CurrentSize != 3 {
		t.Errorf("long=%v short=%v, want 5 and 3", long.Meta.CurrentSize, short.Meta.CurrentSize)
	}
}

func TestUpdatePositionNetModePartialCloseKeepsSizeNonNegative(t *testing.T) {
	t.Parallel()
	c, stop := newTestCore(t, baseConfig())
	defer stop()

	c.positions.UpsertLong(ethUSDT(), types.PerpetualPosition{
		Meta: types.PositionMeta{Instrument: ethUSDT(), Side: types.Buy, CurrentSize: 10, CurrentAvgPrice: 100},
	})

	c.updatePosition(types.ClientTrade{Instrument: ethUSDT(), Side: types.Sell, Price: 110, Quantity: 4, Timestamp: 2})

	long, ok := c.positions.GetLong(ethUSDT())
	if !ok {
		t.Fatal("long position should still exist after a partial reduction")
	}
	if long.Meta.CurrentSize != 6 {
		t.Errorf("current size = %v, want 6", long.Meta.CurrentSize)
	}
	if long.Meta.RealisedPnL != 0 {
		t.Errorf("realised pnl = %v, want 0 (documented gap)", long.Meta.RealisedPnL)
	}
}

func TestAdvanceExchangeTimeUsesTradeTimestampInBacktest(t *testing.T) {
	t.Parallel()
	cfg := baseConfig()
	cfg.ExecutionMode = config.Backtest
	c, stop := newTestCore(t, cfg)
	defer stop()

	c.advanceExchangeTime(types.MarketTrade{Timestamp: 12345})
	if got := c.exchangeTime.Load(); got != 12345 {
		t.Errorf("exchangeTime = %d, want 12345", got)
	}
}
