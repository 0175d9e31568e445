package position

import (
	"sync"

	"github.com/HourglassDevTeam/Hourglass/pkg/types"
)

// Store holds, per instrument, at most one long and one short
// PerpetualPosition. Long and short maps are guarded by separate locks;
// callers that need both acquire long before short, per the locking
// discipline used throughout the account engine: acquire long before short.
type Store struct {
	longMu  sync.RWMutex
	long    map[types.Instrument]types.PerpetualPosition
	shortMu sync.RWMutex
	short   map[types.Instrument]types.PerpetualPosition

	archiveMu sync.Mutex
	archive   []types.PerpetualPosition
}

// New returns an empty position store.
func New() *Store {
	return &Store{
		long:  make(map[types.Instrument]types.PerpetualPosition),
		short: make(map[types.Instrument]types.PerpetualPosition),
	}
}

// GetLong returns the long position for i, if any.
func (s *Store) GetLong(i types.Instrument) (types.PerpetualPosition, bool) {
	s.longMu.RLock()
	defer s.longMu.RUnlock()
	p, ok := s.long[i]
	return p, ok
}

// GetShort returns the short position for i, if any.
func (s *Store) GetShort(i types.Instrument) (types.PerpetualPosition, bool) {
	s.shortMu.RLock()
	defer s.shortMu.RUnlock()
	p, ok := s.short[i]
	return p, ok
}

// Both returns the long and short positions for i. Acquires long before
// short.
func (s *Store) Both(i types.Instrument) (long, short types.PerpetualPosition, hasLong, hasShort bool) {
	s.longMu.RLock()
	long, hasLong = s.long[i]
	s.longMu.RUnlock()

	s.shortMu.RLock()
	short, hasShort = s.short[i]
	s.shortMu.RUnlock()
	return
}

// HasLong reports whether i has an open long position.
func (s *Store) HasLong(i types.Instrument) bool {
	_, ok := s.GetLong(i)
	return ok
}

// HasShort reports whether i has an open short position.
func (s *Store) HasShort(i types.Instrument) bool {
	_, ok := s.GetShort(i)
	return ok
}

// UpsertLong writes p as i's long position.
func (s *Store) UpsertLong(i types.Instrument, p types.PerpetualPosition) {
	s.longMu.Lock()
	defer s.longMu.Unlock()
	s.long[i] = p
}

// UpsertShort writes p as i's short position.
func (s *Store) UpsertShort(i types.Instrument, p types.PerpetualPosition) {
	s.shortMu.Lock()
	defer s.shortMu.Unlock()
	s.short[i] = p
}

// RemoveLong deletes i's long position.
func (s *Store) RemoveLong(i types.Instrument) {
	s.longMu.Lock()
	defer s.longMu.Unlock()
	delete(s.long, i)
}

// RemoveShort deletes i's short position.
func (s *Store) RemoveShort(i types.Instrument) {
	s.shortMu.Lock()
	defer s.shortMu.Unlock()
	delete(s.short, i)
}

// Archive appends p to the exited-positions sink.
func (s *Store) Archive(p types.PerpetualPosition) {
	s.archiveMu.Lock()
	defer s.archiveMu.Unlock()
	s.archive = append(s.archive, p)
}

// Exited returns a snapshot of every archived position.
func (s *Store) Exited() []types.PerpetualPosition {
	s.archiveMu.Lock()
	defer s.archiveMu.Unlock()
	out := make([]types.PerpetualPosition, len(s.archive))
	copy(out, s.archive)
	return out
}

// Snapshot returns every live position across both sides and all
// instruments, for FetchPositions.
func (s *Store) Snapshot() []types.PerpetualPosition {
	var out []types.PerpetualPosition
	s.longMu.RLock()
	for _, p := range s.long {
		out = append(out, p)
	}
	s.longMu.RUnlock()

	s.shortMu.RLock()
	for _, p := range s.short {
		out = append(out, p)
	}
	s.shortMu.RUnlock()
	return out
}
