package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/stall/internal/market"
	"github.com/five82/stall/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeCatalog struct {
	items []market.Item
	err   error
	calls int
}

func (f *fakeCatalog) FetchItems(context.Context) ([]market.Item, error) {
	f.calls++
	return f.items, f.err
}

func (f *fakeCatalog) FetchItem(_ context.Context, id string) (market.Item, error) {
	for _, it := range f.items {
		if it.ID == id {
			return it, nil
		}
	}
	return market.Item{}, market.ErrNotFound
}

type fakeSaver struct {
	saved [][]market.Item
	err   error
}

func (f *fakeSaver) SaveItems(_ context.Context, items []market.Item) error {
	f.saved = append(f.saved, items)
	return f.err
}

func TestRefresh_SuccessUpdatesStoreAndCache(t *testing.T) {
	store := &state.Store{}
	catalog := &fakeCatalog{items: []market.Item{{ID: "1", Title: "Apple"}}}
	saver := &fakeSaver{}

	if err := refresh(context.Background(), store, catalog, saver); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	snap := store.Snapshot()
	if len(snap.Items) != 1 || snap.LastError != nil {
		t.Fatalf("snapshot = %#v", snap)
	}
	if len(saver.saved) != 1 || saver.saved[0][0].ID != "1" {
		t.Fatalf("saved = %#v", saver.saved)
	}
}

func TestRefresh_FailureKeepsItemsAndSkipsCache(t *testing.T) {
	store := &state.Store{}
	store.Update([]market.Item{{ID: "old"}}, nil)
	catalog := &fakeCatalog{err: errors.New("connection refused")}
	saver := &fakeSaver{}

	if err := refresh(context.Background(), store, catalog, saver); err == nil {
		t.Fatalf("refresh returned nil error")
	}
	snap := store.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "old" || snap.ConsecutiveFailures != 1 {
		t.Fatalf("snapshot = %#v", snap)
	}
	if len(saver.saved) != 0 {
		t.Fatalf("cache written on failure: %#v", saver.saved)
	}
}

func TestRefresh_CacheErrorIsNotFatal(t *testing.T) {
	store := &state.Store{}
	catalog := &fakeCatalog{items: []market.Item{{ID: "1"}}}
	saver := &fakeSaver{err: errors.New("disk full")}

	if err := refresh(context.Background(), store, catalog, saver); err != nil {
		t.Fatalf("refresh returned error: %v", err)
	}
	if !store.Snapshot().HasItems {
		t.Fatalf("store not updated")
	}
	if err := refresh(context.Background(), store, catalog, nil); err != nil {
		t.Fatalf("refresh without cache returned error: %v", err)
	}
}

func TestStartPoller_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &state.Store{}
	catalog := &lockedCatalog{items: []market.Item{{ID: "1"}}}

	StartPoller(ctx, store, catalog, nil, 5*time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for !store.Snapshot().HasItems {
		if time.Now().After(deadline) {
			t.Fatalf("poller never refreshed the store")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}

type lockedCatalog struct {
	mu    sync.Mutex
	items []market.Item
}

func (l *lockedCatalog) FetchItems(context.Context) ([]market.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items, nil
}

func (l *lockedCatalog) FetchItem(context.Context, string) (market.Item, error) {
	return market.Item{}, market.ErrNotFound
}

type fakeLoader struct {
	items   []market.Item
	savedAt time.Time
	err     error
}

func (f fakeLoader) LoadItems(context.Context) ([]market.Item, time.Time, error) {
	return f.items, f.savedAt, f.err
}

func TestSeedFromCache(t *testing.T) {
	savedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	store := &state.Store{}
	seedFromCache(context.Background(), store, fakeLoader{items: []market.Item{{ID: "c"}}, savedAt: savedAt})
	snap := store.Snapshot()
	if !snap.FromCache || !snap.LastUpdated.Equal(savedAt) || len(snap.Items) != 1 {
		t.Fatalf("seeded snapshot = %#v", snap)
	}

	empty := &state.Store{}
	seedFromCache(context.Background(), empty, fakeLoader{})
	seedFromCache(context.Background(), empty, fakeLoader{err: errors.New("corrupt")})
	if empty.Snapshot().HasItems {
		t.Fatalf("empty or failing cache seeded the store")
	}
}
