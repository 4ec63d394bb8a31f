// Package app provides the orchestration layer for the stall storefront.
//
// # Overview
//
// This package wires together configuration, the marketplace client, the
// identity provider, the offline cache and the UI. It is the composition
// root where all dependencies are initialized and connected.
//
// # Architecture
//
// Run follows a simple initialization pattern:
//
//  1. Load the stall configuration from ~/.config/stall/config.toml
//  2. Redirect the standard logger to the stall log file
//  3. Create the marketplace client and the identity client
//  4. Restore a saved session, refreshing it when the token has expired
//  5. Seed the shared state.Store from the offline cache
//  6. Fetch the catalog once, then launch the background poller
//  7. Start the TUI and block until the user exits or the context cancels
//
// # Components
//
//   - app.go: Run, log file setup and cache seeding
//   - poller.go: background goroutine that refreshes the catalog with backoff
//   - session.go: session restore, persistence and token refresh
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │ Initialize everything
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read stall config
//	       ├─────> market.NewClient()     Listings and cart API
//	       ├─────> restoreSession()       Saved sign-in
//	       ├─────> seedFromCache()        Last good catalog
//	       ├─────> StartPoller()          Background refresh
//	       └─────> ui.Run()               Start TUI (blocks)
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Marketplace client initialization failure
//
// Recoverable errors (logged, the program continues):
//   - Offline cache cannot be opened or read
//   - Catalog fetch failures; the poller backs off and keeps the last items
//   - Session refresh failures; the user is signed out
//
// stall starts without a reachable backend. The offline cache fills the
// browse view and the header shows the outage.
package app
