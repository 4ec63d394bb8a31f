// Package market provides an HTTP client for the marketplace storefront API.
//
// # Overview
//
// This package defines the API client for the item listing backend. It
// handles HTTP communication, JSON serialization, and a typed representation
// of listings and cart entries.
//
// # Architecture
//
// The package is split into two files:
//
//   - client.go: HTTP client implementation and request/response handling
//   - types.go: Data structures mirroring the API schema plus small helpers
//
// # Client Usage
//
//	client, err := market.NewClient(cfg.APIURL)
//	if err != nil {
//		log.Fatalf("failed to create client: %v", err)
//	}
//	client.SetTokenSource(watcher.Token)
//
//	items, err := client.FetchItems(ctx)
//	if err != nil {
//		log.Printf("items fetch failed: %v", err)
//	}
//
// # API Endpoints
//
//	GET    /items            all listings
//	GET    /items/{id}       one listing
//	POST   /items            create; response carries insertedId
//	PATCH  /items/{id}       owner edit; response carries modifiedCount
//	DELETE /items/{id}       owner delete; response carries deletedCount
//	POST   /cart/            add a cart entry
//	GET    /cart?email=...   cart entries of a buyer
//
// # Numbers
//
// Listings created from web forms store price and quantity as strings. The
// Number type decodes both encodings and always encodes as a JSON number.
//
// # Error Handling
//
// Non-2xx responses become *APIError carrying the status and the backend's
// message. errors.Is(err, ErrNotFound) matches both 404 responses and
// deletes that removed no document. A PATCH that modified nothing returns
// ErrNotModified.
package market
