package state

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/five82/stall/internal/market"
)

func TestStore_UpdateAndSnapshotClone(t *testing.T) {
	var s Store

	items := []market.Item{{ID: "1", Title: "Apple"}, {ID: "2", Title: "Banana"}}

	before := time.Now()
	s.Update(items, nil)

	snap := s.Snapshot()
	if !snap.HasItems || len(snap.Items) != 2 || snap.Items[0].Title != "Apple" {
		t.Fatalf("snapshot items = %#v, want 2 items", snap.Items)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Items[0].Title = "Mutated"
	items[1].Title = "Mutated"
	snap2 := s.Snapshot()
	if snap2.Items[0].Title != "Apple" || snap2.Items[1].Title != "Banana" {
		t.Fatalf("Snapshot should clone items; got %#v", snap2.Items)
	}
}

func TestStore_UpdateErrorKeepsPreviousData(t *testing.T) {
	var s Store

	s.Update([]market.Item{{ID: "1"}}, nil)

	before := time.Now()
	origErr := errors.New("boom")
	s.Update(nil, origErr)

	snap := s.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].ID != "1" {
		t.Fatalf("items changed on error: got %#v", snap.Items)
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	tests := []struct {
		err          error
		wantFailures int
		wantOffline  bool
	}{
		{errors.New("fail 1"), 1, false},
		{errors.New("fail 2"), 2, true},
		{errors.New("fail 3"), 3, true},
		{nil, 0, false},
	}
	if s.Snapshot().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}
	for _, tt := range tests {
		s.Update(nil, tt.err)
		snap := s.Snapshot()
		if snap.ConsecutiveFailures != tt.wantFailures {
			t.Fatalf("after %v: ConsecutiveFailures = %d, want %d", tt.err, snap.ConsecutiveFailures, tt.wantFailures)
		}
		if snap.IsOffline() != tt.wantOffline {
			t.Fatalf("after %v: IsOffline() = %v, want %v", tt.err, snap.IsOffline(), tt.wantOffline)
		}
	}
}

func TestStore_GenerationAdvancesOnlyOnChange(t *testing.T) {
	var s Store
	items := []market.Item{{ID: "1", Title: "Apple"}}

	s.Update(items, nil)
	g1 := s.Snapshot().Generation
	if g1 == 0 {
		t.Fatalf("Generation = 0 after first update")
	}

	s.Update([]market.Item{{ID: "1", Title: "Apple"}}, nil)
	s.Update(nil, errors.New("offline"))
	if g := s.Snapshot().Generation; g != g1 {
		t.Fatalf("Generation = %d after identical update, want %d", g, g1)
	}

	s.Update([]market.Item{{ID: "1", Title: "Apple v2"}}, nil)
	if g := s.Snapshot().Generation; g != g1+1 {
		t.Fatalf("Generation = %d after change, want %d", g, g1+1)
	}
}

func TestStore_EmptyListIsData(t *testing.T) {
	var s Store
	s.Update(nil, nil)
	snap := s.Snapshot()
	if !snap.HasItems || snap.Generation != 1 {
		t.Fatalf("empty live list: HasItems=%v Generation=%d", snap.HasItems, snap.Generation)
	}
}

func TestStore_SeedOnlyBeforeLiveData(t *testing.T) {
	var s Store
	cachedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	s.Seed([]market.Item{{ID: "c"}}, cachedAt)
	snap := s.Snapshot()
	if !snap.FromCache || !snap.LastUpdated.Equal(cachedAt) || len(snap.Items) != 1 {
		t.Fatalf("seeded snapshot = %#v", snap)
	}

	s.Update([]market.Item{{ID: "live"}}, nil)
	s.Seed([]market.Item{{ID: "stale"}}, cachedAt)
	snap = s.Snapshot()
	if snap.FromCache || snap.Items[0].ID != "live" {
		t.Fatalf("Seed overwrote live data: %#v", snap)
	}
}

func TestStore_SeedKeptWhilePollsFail(t *testing.T) {
	var s Store
	s.Seed([]market.Item{{ID: "c"}}, time.Now())
	s.Update(nil, errors.New("down"))
	snap := s.Snapshot()
	if !snap.FromCache || len(snap.Items) != 1 || snap.LastError == nil {
		t.Fatalf("snapshot = %#v, want cached items with error", snap)
	}
}

func TestStore_UpsertAndRemove(t *testing.T) {
	var s Store
	s.Update([]market.Item{{ID: "1", Title: "A"}, {ID: "2", Title: "B"}}, nil)
	g := s.Snapshot().Generation

	s.Upsert(market.Item{ID: "2", Title: "B2"})
	s.Upsert(market.Item{ID: "3", Title: "C"})
	snap := s.Snapshot()
	if len(snap.Items) != 3 || snap.Items[1].Title != "B2" || snap.Items[2].ID != "3" {
		t.Fatalf("after upsert items = %#v", snap.Items)
	}

	s.Remove("1")
	s.Remove("missing")
	snap = s.Snapshot()
	if len(snap.Items) != 2 || snap.Items[0].ID != "2" {
		t.Fatalf("after remove items = %#v", snap.Items)
	}
	if snap.Generation != g+3 {
		t.Fatalf("Generation = %d, want %d", snap.Generation, g+3)
	}
}
