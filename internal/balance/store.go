// Package balance provides the concurrent token balance ledger used by the
// account engine. A Store maps each Token to its current Balance and
// supports reservation-style deltas under a single RWMutex-guarded map.
package balance

import (
	"sync"
	"time"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Store is a concurrency-safe Token -> Balance ledger. The zero value is
// not usable; construct with New.
type Store struct {
	mu       sync.RWMutex
	balances map[types.Token]types.Balance
}

// New returns an empty Store. Tokens are lazily initialized on first
// reference, per the lazy-init rule in the data model.
func New() *Store {
	return &Store{balances: make(map[types.Token]types.Balance)}
}

// Get returns the current balance for token. It never fails: an unknown
// token reads as the zero balance with CurrentPrice 1.0, matching the
// lazy-initialization rule, without mutating the store.
func (s *Store) Get(token types.Token) types.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.balances[token]; ok {
		return b
	}
	return types.Balance{CurrentPrice: 1.0}
}

// GetMut locks the store for the duration of an in-place mutation and
// returns a pointer to token's balance (creating it at CurrentPrice 1.0
// if absent) along with a release func. The caller must call release
// exactly once, after which the mutated value is written back and the
// lock is dropped. This is the Go analogue of the teacher's
// RWMutex-guarded mutable accessor: a borrowed &mut behind a lock
// instead of a returned reference.
func (s *Store) GetMut(token types.Token) (bal *types.Balance, release func()) {
	s.mu.Lock()
	b, ok := s.balances[token]
	if !ok {
		b = types.Balance{CurrentPrice: 1.0}
	}
	released := false
	return &b, func() {
		if released {
			return
		}
		released = true
		b.Time = now()
		s.balances[token] = b
		s.mu.Unlock()
	}
}

// Snapshot returns every known token balance. Order is unspecified.
func (s *Store) Snapshot() []types.TokenBalance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.TokenBalance, 0, len(s.balances))
	for tok, bal := range s.balances {
		out = append(out, types.TokenBalance{Token: tok, Balance: bal})
	}
	return out
}

// HasSufficient reports whether token's available balance covers required.
func (s *Store) HasSufficient(token types.Token, required float64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bal, ok := s.balances[token]
	if !ok {
		if required > 0 {
			return types.InsufficientBalance(token)
		}
		return nil
	}
	if bal.Available < required {
		return types.InsufficientBalance(token)
	}
	return nil
}

// Apply adds delta to both the total and available fields of token's
// balance, creating the entry (at CurrentPrice 1.0) if absent, and returns
// the balance as it stands after the update.
func (s *Store) Apply(token types.Token, delta types.BalanceDelta) types.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[token]
	if !ok {
		bal = types.Balance{CurrentPrice: 1.0}
	}
	bal = bal.Apply(delta)
	bal.Time = now()
	s.balances[token] = bal
	return bal
}

// Deposit increases both total and available by amount, creating the
// entry if absent.
func (s *Store) Deposit(token types.Token, amount float64) types.Balance {
	return s.Apply(token, types.BalanceDelta{Total: amount, Available: amount})
}

// SetCurrentPrice updates the reference price used for role determination
// and PostOnly checks, without touching total/available.
func (s *Store) SetCurrentPrice(token types.Token, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bal, ok := s.balances[token]
	if !ok {
		bal = types.Balance{}
	}
	bal.CurrentPrice = price
	bal.Time = now()
	s.balances[token] = bal
}

var now = time.Now
