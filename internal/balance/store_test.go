package balance

import (
	"errors"
	"testing"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

func TestDepositAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	s.Deposit("USDT", 10_000)
	bal := s.Get("USDT")
	if bal.Total != 10_000 || bal.Available != 10_000 {
		t.Errorf("Get() = %+v, want Total=10000 Available=10000", bal)
	}
}

func TestUnknownTokenIsLazyZero(t *testing.T) {
	t.Parallel()

	s := New()
	bal := s.Get("BTC")
	if bal.Total != 0 || bal.Available != 0 || bal.CurrentPrice != 1.0 {
		t.Errorf("Get() on unknown token = %+v, want zero total/available, price 1.0", bal)
	}
}

func TestHasSufficient(t *testing.T) {
	t.Parallel()

	s := New()
	s.Deposit("USDT", 100)
	if err := s.HasSufficient("USDT", 100); err != nil {
		t.Errorf("HasSufficient(100) error = %v, want nil", err)
	}
	if err := s.HasSufficient("USDT", 100.01); !errors.Is(err, types.ErrInsufficientBalance) {
		t.Errorf("HasSufficient(100.01) error = %v, want ErrInsufficientBalance", err)
	}
	if err := s.HasSufficient("BTC", 1); !errors.Is(err, types.ErrInsufficientBalance) {
		t.Errorf("HasSufficient() on unknown token error = %v, want ErrInsufficientBalance", err)
	}
}

func TestApplyReserveAndUnreserveRoundTrip(t *testing.T) {
	t.Parallel()

	s := New()
	s.Deposit("USDT", 10_000)

	// Reservation for a Buy open: price=1, size=2, leverage=1 -> required=2.
	s.Apply("USDT", types.BalanceDelta{Available: -2})
	bal := s.Get("USDT")
	if bal.Available != 9_998 {
		t.Fatalf("after reserve, Available = %v, want 9998", bal.Available)
	}

	// Cancel unreserves the same amount.
	s.Apply("USDT", types.BalanceDelta{Available: 2})
	bal = s.Get("USDT")
	if bal.Total != 10_000 || bal.Available != 10_000 {
		t.Errorf("after unreserve = %+v, want round trip to 10000/10000", bal)
	}
}

func TestGetMutWritesBackOnRelease(t *testing.T) {
	t.Parallel()

	s := New()
	s.Deposit("USDT", 100)

	bal, release := s.GetMut("USDT")
	bal.CurrentPrice = 2.5
	release()

	got := s.Get("USDT")
	if got.CurrentPrice != 2.5 {
		t.Errorf("CurrentPrice after GetMut+release = %v, want 2.5", got.CurrentPrice)
	}
	if got.Total != 100 || got.Available != 100 {
		t.Errorf("GetMut must not disturb other fields, got %+v", got)
	}
}

func TestGetMutOnUnknownTokenCreatesEntry(t *testing.T) {
	t.Parallel()

	s := New()
	bal, release := s.GetMut("BTC")
	if bal.CurrentPrice != 1.0 {
		t.Fatalf("GetMut on unknown token CurrentPrice = %v, want 1.0", bal.CurrentPrice)
	}
	bal.Total = 5
	release()

	got := s.Get("BTC")
	if got.Total != 5 {
		t.Errorf("Total after GetMut+release = %v, want 5", got.Total)
	}
}

func TestSnapshotIncludesDepositedTokens(t *testing.T) {
	t.Parallel()

	s := New()
	s.Deposit("USDT", 1)
	s.Deposit("BTC", 2)

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot() len = %d, want 2", len(snap))
	}
}
