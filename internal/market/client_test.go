package market

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != DefaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), DefaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("url = %q, want http://example.com:1234", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL accepted url without host")
	}
}

func TestClient_ReadEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotAuth, gotCartQuery, gotItemPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/items":
			_, _ = io.WriteString(w, `[{"_id":"a1","title":"Apple","price":"12.5","quantity":3},{"_id":"b2","title":"Banana","price":4,"quantity":"7"}]`)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/items/"):
			gotItemPath = r.URL.EscapedPath()
			_, _ = io.WriteString(w, `{"_id":"a/1","title":"Apple","ownerEmail":"o@example.com"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/cart":
			gotCartQuery = r.URL.Query().Get("email")
			_ = json.NewEncoder(w).Encode([]CartEntry{{ItemID: "a1", Quantity: 2, TotalPrice: 25}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	c.SetTokenSource(func() string { return "tok" })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	items, err := c.FetchItems(ctx)
	if err != nil {
		t.Fatalf("FetchItems returned error: %v", err)
	}
	if len(items) != 2 || items[0].Price != 12.5 || items[1].Quantity.Int() != 7 {
		t.Fatalf("FetchItems = %#v, want mixed number encodings decoded", items)
	}

	item, err := c.FetchItem(ctx, "a/1")
	if err != nil {
		t.Fatalf("FetchItem returned error: %v", err)
	}
	if item.ID != "a/1" || item.OwnerEmail != "o@example.com" {
		t.Fatalf("FetchItem = %#v", item)
	}
	if gotItemPath != "/items/a%2F1" {
		t.Fatalf("item path = %q, want escaped id", gotItemPath)
	}

	cart, err := c.FetchCart(ctx, " buyer@example.com ")
	if err != nil {
		t.Fatalf("FetchCart returned error: %v", err)
	}
	if gotCartQuery != "buyer@example.com" || len(cart) != 1 || cart[0].TotalPrice != 25 {
		t.Fatalf("FetchCart = %#v (query %q)", cart, gotCartQuery)
	}

	if !strings.HasPrefix(gotUserAgent, "stall/") {
		t.Fatalf("User-Agent = %q, want stall/*", gotUserAgent)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestClient_WriteEndpoints(t *testing.T) {
	t.Parallel()

	type call struct {
		method, path, contentType string
		body                      map[string]any
	}
	var calls []call
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := call{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&c.body)
		}
		calls = append(calls, c)
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/items":
			_, _ = io.WriteString(w, `{"acknowledged":true,"insertedId":"new1"}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/items/x1":
			_, _ = io.WriteString(w, `{"modifiedCount":1}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/items/same":
			_, _ = io.WriteString(w, `{"modifiedCount":0}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/items/x1":
			_, _ = io.WriteString(w, `{"deletedCount":1}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/items/gone":
			_, _ = io.WriteString(w, `{"deletedCount":0}`)
		case r.Method == http.MethodPost && r.URL.Path == "/cart/":
			_, _ = io.WriteString(w, `{"insertedId":"c1"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	id, err := c.CreateItem(ctx, Item{ID: "ignored", Title: "Lamp", Price: 10, Quantity: 2, OwnerEmail: "o@example.com"})
	if err != nil || id != "new1" {
		t.Fatalf("CreateItem = %q, %v; want new1", id, err)
	}
	if _, ok := calls[0].body["_id"]; ok {
		t.Fatalf("CreateItem sent _id: %v", calls[0].body)
	}
	if calls[0].contentType != "application/json" {
		t.Fatalf("Content-Type = %q", calls[0].contentType)
	}

	if err := c.UpdateItem(ctx, "x1", ItemUpdate{Title: "Lamp v2", Price: 11}); err != nil {
		t.Fatalf("UpdateItem returned error: %v", err)
	}
	if calls[1].body["title"] != "Lamp v2" || calls[1].body["price"] != 11.0 {
		t.Fatalf("UpdateItem body = %v", calls[1].body)
	}
	if err := c.UpdateItem(ctx, "same", ItemUpdate{}); !errors.Is(err, ErrNotModified) {
		t.Fatalf("UpdateItem unchanged error = %v, want ErrNotModified", err)
	}

	if err := c.DeleteItem(ctx, "x1"); err != nil {
		t.Fatalf("DeleteItem returned error: %v", err)
	}
	if err := c.DeleteItem(ctx, "gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteItem missing error = %v, want ErrNotFound", err)
	}

	entry := NewCartEntry(Item{ID: "x1", Title: "Lamp", Price: 10, OwnerEmail: "o@example.com"}, "b@example.com", 3)
	if err := c.AddToCart(ctx, entry); err != nil {
		t.Fatalf("AddToCart returned error: %v", err)
	}
	last := calls[len(calls)-1]
	if last.body["buyerEmail"] != "b@example.com" || last.body["totalPrice"] != 30.0 {
		t.Fatalf("AddToCart body = %v", last.body)
	}
}

func TestClient_ArgumentValidation(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.FetchItem(ctx, " "); err == nil {
		t.Fatalf("FetchItem accepted empty id")
	}
	if err := c.DeleteItem(ctx, ""); err == nil {
		t.Fatalf("DeleteItem accepted empty id")
	}
	if err := c.AddToCart(ctx, CartEntry{}); err == nil {
		t.Fatalf("AddToCart accepted empty buyer")
	}
	if _, err := c.FetchCart(ctx, ""); err == nil {
		t.Fatalf("FetchCart accepted empty buyer")
	}

	var nilClient *Client
	if _, err := nilClient.FetchItems(ctx); err == nil {
		t.Fatalf("nil client FetchItems returned nil error")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/items":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/items/boom":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"message":"database offline"}`)
		case "/items/plain":
			http.Error(w, "bad gateway", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.FetchItems(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchItems error = %v, want decode response error", err)
	}

	_, err = c.FetchItem(ctx, "boom")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 500 || apiErr.Message != "database offline" {
		t.Fatalf("FetchItem error = %#v, want APIError 500 with message", err)
	}
	if !strings.Contains(err.Error(), "returned status 500: database offline") {
		t.Fatalf("error text = %q", err.Error())
	}

	_, err = c.FetchItem(ctx, "plain")
	if !errors.As(err, &apiErr) || apiErr.Message != "bad gateway" {
		t.Fatalf("FetchItem plain error = %v, want body text message", err)
	}

	_, err = c.FetchItem(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchItem 404 error = %v, want ErrNotFound", err)
	}
}
