// Package state provides thread-safe state management for the stall storefront.
//
// # Overview
//
// This package implements a small store for sharing the listing catalog
// between the background poller and the UI. It is the coordination point
// where polling updates meet rendering.
//
// # Architecture
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ FetchItems()   │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │ search baseline │
//	└────────────────┘            └─────────────────┘
//
// # Update Semantics
//
//	// Success: replace the items, clear the error
//	store.Update(items, nil)
//
//	// Failure: keep the items, record the error
//	store.Update(nil, err)
//
// Seed installs the offline cache at startup and is ignored once a live
// fetch succeeded. Upsert and Remove apply local edits so the UI does not
// wait for the next poll.
//
// # Generation
//
// Generation advances only when the item list actually changes. The browse
// view hands a new baseline to its search controller only on a new
// generation, so an unchanged poll never restarts a search in progress.
//
// # Copying
//
// Snapshot clones the item slice and the error value. The zero Store is
// ready to use.
package state
