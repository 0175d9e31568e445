package matching

import (
	"testing"

	"github.com/HourglassDevTeam/Hourglass/internal/orderbook"
	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func TestMatchAppliesRoleSpecificFee(t *testing.T) {
	t.Parallel()

	book := orderbook.New()
	id := book.AssignID()
	book.Add(types.Order[types.Open]{
		Instrument:  types.Instrument{Base: "ETH", Quote: "USDT", Kind: types.Perpetual},
		Side:        types.Buy,
		Instruction: types.Limit,
		State:       types.Open{ID: id, Price: 100, Size: 2, Role: types.Maker},
	})

	fees := FeeSchedule{Maker: 0.001, Taker: 0.002}
	nextID := int64(0)
	trades := Match(book, types.MarketTrade{Side: types.Sell, Price: 100, Amount: 2}, fees,
		func() types.ClientTradeID { nextID++; return types.ClientTradeID(nextID) })

	if len(trades) != 1 {
		t.Fatalf("Match() produced %d trades, want 1", len(trades))
	}
	want := 2 * 100 * fees.Maker
	if trades[0].Fee != want {
		t.Errorf("trades[0].Fee = %v, want %v (maker rate, resting side is maker)", trades[0].Fee, want)
	}
}
