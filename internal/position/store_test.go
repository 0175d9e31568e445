package position

import (
	"testing"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func TestStoreUpsertAndBoth(t *testing.T) {
	t.Parallel()

	s := New()
	inst := types.Instrument{Base: "ETH", Quote: "USDT", Kind: types.Perpetual}
	s.UpsertLong(inst, types.PerpetualPosition{Meta: types.PositionMeta{CurrentSize: 10}})

	long, short, hasLong, hasShort := s.Both(inst)
	if !hasLong || hasShort {
		t.Fatalf("Both() = hasLong=%v hasShort=%v, want true/false", hasLong, hasShort)
	}
	if long.Meta.CurrentSize != 10 {
		t.Errorf("long.Meta.CurrentSize = %v, want 10", long.Meta.CurrentSize)
	}
	_ = short
}

func TestStoreArchive(t *testing.T) {
	t.Parallel()

	s := New()
	s.Archive(types.PerpetualPosition{Meta: types.PositionMeta{CurrentSize: 0, RealisedPnL: 100}})
	exited := s.Exited()
	if len(exited) != 1 || exited[0].Meta.RealisedPnL != 100 {
		t.Errorf("Exited() = %+v, want one archived position with RealisedPnL=100", exited)
	}
}

func TestStoreRemove(t *testing.T) {
	t.Parallel()

	s := New()
	inst := types.Instrument{Base: "ETH", Quote: "USDT", Kind: types.Perpetual}
	s.UpsertLong(inst, types.PerpetualPosition{})
	s.RemoveLong(inst)
	if s.HasLong(inst) {
		t.Error("HasLong() after RemoveLong() = true, want false")
	}
}
