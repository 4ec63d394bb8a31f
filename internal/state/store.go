package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/five82/stall/internal/market"
)

// Snapshot represents the latest listing data available to the UI.
type Snapshot struct {
	Items               []market.Item
	HasItems            bool
	FromCache           bool // Items came from the offline cache, not a live fetch
	Generation          uint64
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the result of a poll. When err is non-nil the previous
// items are kept but the error is recorded for visibility. Generation only
// advances when the item list differs from the stored one.
func (s *Store) Update(items []market.Item, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.replace(items)
	s.snapshot.FromCache = false
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Seed installs items loaded from the offline cache, stamped with the time
// they were cached. It is ignored once live data has arrived.
func (s *Store) Seed(items []market.Item, cachedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot.HasItems && !s.snapshot.FromCache {
		return
	}
	s.replace(items)
	s.snapshot.FromCache = true
	s.snapshot.LastUpdated = cachedAt
}

// Upsert replaces the item with the same id, or appends it, so a local
// edit shows before the next poll.
func (s *Store) Upsert(item market.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := cloneItems(s.snapshot.Items)
	idx := slices.IndexFunc(items, func(it market.Item) bool { return it.ID == item.ID })
	if idx >= 0 {
		items[idx] = item
	} else {
		items = append(items, item)
	}
	s.replace(items)
}

// Remove drops the item with id.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := slices.DeleteFunc(cloneItems(s.snapshot.Items), func(it market.Item) bool { return it.ID == id })
	s.replace(items)
}

func (s *Store) replace(items []market.Item) {
	if !s.snapshot.HasItems || !slices.Equal(s.snapshot.Items, items) {
		s.snapshot.Generation++
	}
	s.snapshot.Items = cloneItems(items)
	s.snapshot.HasItems = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Items = cloneItems(s.snapshot.Items)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneItems(items []market.Item) []market.Item {
	if len(items) == 0 {
		return nil
	}
	dup := make([]market.Item, len(items))
	copy(dup, items)
	return dup
}
