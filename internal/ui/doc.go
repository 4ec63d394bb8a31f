// Package ui provides the terminal storefront for stall.
//
// # Architecture Overview
//
// The UI is a Bubble Tea program. Model holds every screen's state and is
// updated by value; helpers with pointer receivers mutate the copy inside
// Update. Styling uses Lip Gloss with switchable themes.
//
// # Views
//
//   - Browse: the catalog with a debounced search box
//   - Detail: one listing with an order quantity and add-to-cart
//   - Cart: the signed-in buyer's cart entries and total
//   - Manage: the signed-in seller's own listings, with edit and delete
//   - Form: add or edit a listing
//   - Login: sign in or register
//   - Logs: a live tail of stall's own log file
//
// Cart, Manage and Form need a session; opening them signed out shows the
// login form and returns to the requested view afterwards.
//
// # Search
//
// The browse view owns a search.Controller. Typing calls SetQuery; catalog
// refreshes call SetItems only when the store generation changes. The
// controller reports views from its timers through OnChange, which pushes
// them into a viewFeed. A single waitSearchCmd drains the feed back into
// the program as searchMsg, and views older than the one on screen are
// dropped by revision. The list is hidden while the search is busy.
//
// # Event Flow
//
//  1. Run() builds the Model and starts the program
//  2. tickMsg reads state.Store snapshots at the UI interval
//  3. Key presses route to the current view, or to the modal when one is open
//  4. Network calls run as tea.Cmd and report back as messages
//  5. Context cancellation stops the program and the search timers
package ui
