package market

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var (
	// ErrNotFound is matched by 404 responses and by deletes that removed nothing.
	ErrNotFound = errors.New("item not found")
	// ErrNotModified is returned when a PATCH changed no document.
	ErrNotModified = errors.New("item not modified")
	// ErrInvalidQuantity is returned for cart quantities outside the stock.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Catalog is the read side used by the poller and views.
// *Client implements it; tests substitute fakes.
type Catalog interface {
	FetchItems(ctx context.Context) ([]Item, error)
	FetchItem(ctx context.Context, id string) (Item, error)
}

// Ensure Client implements Catalog at compile time.
var _ Catalog = (*Client)(nil)

// Client talks to the marketplace HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	token     func() string
}

const (
	DefaultBaseURL   = "https://next-sale-server.vercel.app"
	defaultUserAgent = "stall/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 4 << 10
)

// NewClient builds a Client for the API rooted at baseURL.
func NewClient(baseURL string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// SetTokenSource installs a function returning the bearer token for each
// request. An empty token sends no Authorization header.
func (c *Client) SetTokenSource(fn func() string) {
	c.token = fn
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchItems retrieves every listing.
func (c *Client) FetchItems(ctx context.Context) ([]Item, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var items []Item
	if err := c.do(ctx, http.MethodGet, "/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchItem retrieves one listing by id.
func (c *Client) FetchItem(ctx context.Context, id string) (Item, error) {
	if c == nil {
		return Item{}, fmt.Errorf("client is nil")
	}
	rel, err := itemURL(id)
	if err != nil {
		return Item{}, err
	}
	var item Item
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &item); err != nil {
		return Item{}, err
	}
	if item.ID == "" && item.Title == "" {
		return Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return item, nil
}

// CreateItem posts a new listing and returns its id.
func (c *Client) CreateItem(ctx context.Context, item Item) (string, error) {
	if c == nil {
		return "", fmt.Errorf("client is nil")
	}
	item.ID = ""
	var res InsertResult
	if err := c.do(ctx, http.MethodPost, "/items", item, &res); err != nil {
		return "", err
	}
	if res.InsertedID == "" {
		return "", fmt.Errorf("create item: response has no insertedId")
	}
	return res.InsertedID, nil
}

// UpdateItem applies an owner's edit to the listing id.
func (c *Client) UpdateItem(ctx context.Context, id string, update ItemUpdate) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel, err := itemURL(id)
	if err != nil {
		return err
	}
	var res UpdateResult
	if err := c.doURL(ctx, http.MethodPatch, rel, update, &res); err != nil {
		return err
	}
	if res.ModifiedCount == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotModified)
	}
	return nil
}

// DeleteItem removes the listing id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel, err := itemURL(id)
	if err != nil {
		return err
	}
	var res DeleteResult
	if err := c.doURL(ctx, http.MethodDelete, rel, nil, &res); err != nil {
		return err
	}
	if res.DeletedCount != 1 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddToCart posts a cart entry.
func (c *Client) AddToCart(ctx context.Context, entry CartEntry) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(entry.BuyerEmail) == "" {
		return fmt.Errorf("buyer email required")
	}
	return c.do(ctx, http.MethodPost, "/cart/", entry, nil)
}

// FetchCart lists the cart entries of buyer.
func (c *Client) FetchCart(ctx context.Context, buyer string) ([]CartEntry, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return nil, fmt.Errorf("buyer email required")
	}
	rel := &url.URL{Path: "/cart", RawQuery: url.Values{"email": {buyer}}.Encode()}
	var entries []CartEntry
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{
			Method:  method,
			Path:    rel.Path,
			Status:  resp.StatusCode,
			Message: errorMessage(resp.Body),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the backend's {"message": ...} field, falling back
// to the trimmed body text.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(raw))
}

func itemURL(id string) (*url.URL, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("item id required")
	}
	return &url.URL{Path: "/items/" + id, RawPath: "/items/" + url.PathEscape(id)}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
