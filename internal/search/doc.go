// Package search implements the debounced search box behind the browse view.
//
// # Overview
//
// A Controller sits between a text input and an in-memory list of records.
// Every keystroke calls SetQuery; the controller waits for typing to pause,
// filters the list, and keeps the "searching" indicator up for a minimum
// duration so fast results do not flicker.
//
// # Lifecycle
//
//	SetQuery("")          ─────────────────────────────> Idle (all items)
//	SetQuery("ap")        ─> Debouncing ──(Debounce)──> Searching
//	                                                       │
//	                                    (MinSearch - elapsed)
//	                                                       ▼
//	                                                    Settled (filtered)
//
// SetItems replaces the baseline. With an empty query the view follows it
// at once; otherwise the cycle restarts so the result is never computed
// from a stale baseline.
//
// # Ordering
//
// Each non-empty SetQuery, each SetItems with a non-empty query, and Close
// bump a token. Timer callbacks carry the token they were scheduled under and
// do nothing when it is no longer current, so a late timer can never
// overwrite a newer result. Pending timers are also stopped.
//
// # Matching
//
// Match and Filter use Unicode case folding (golang.org/x/text/cases) and
// plain substring containment. Results keep the baseline order.
//
// # Usage Example
//
//	ctrl := search.New(items, search.Options[market.Item]{
//		Title:    func(it market.Item) string { return it.Title },
//		OnChange: func(v search.View[market.Item]) { program.Send(v) },
//	})
//	defer ctrl.Close()
//
//	ctrl.SetQuery("ap")
package search
