// Package cache keeps the last successful listing fetch in a local SQLite
// file so the browse view has a baseline while the backend is unreachable.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/five82/stall/internal/market"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS items (
		position INTEGER PRIMARY KEY,
		id       TEXT NOT NULL,
		payload  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

const savedAtKey = "saved_at"

// Cache is an offline copy of the catalog.
type Cache struct {
	db   *sql.DB
	path string
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// One connection serializes the poller's writes with startup reads.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create cache schema: %w", err)
		}
	}
	return &Cache{db: db, path: path}, nil
}

// Path returns the database file location.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveItems replaces the cached catalog with items, keeping their order.
func (c *Cache) SaveItems(ctx context.Context, items []market.Item) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache write: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return fmt.Errorf("clear cached items: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO items (position, id, payload) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, it := range items {
		payload, err := json.Marshal(it)
		if err != nil {
			return fmt.Errorf("encode item %s: %w", it.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, it.ID, string(payload)); err != nil {
			return fmt.Errorf("insert item %s: %w", it.ID, err)
		}
	}

	savedAt := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		savedAtKey, savedAt); err != nil {
		return fmt.Errorf("stamp cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache write: %w", err)
	}
	return nil
}

// LoadItems returns the cached catalog and when it was saved. An empty
// cache returns a zero time and no error.
func (c *Cache) LoadItems(ctx context.Context) ([]market.Item, time.Time, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, savedAtKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read cache stamp: %w", err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse cache stamp %q: %w", raw, err)
	}

	rows, err := c.db.QueryContext(ctx, `SELECT payload FROM items ORDER BY position`)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query cached items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []market.Item
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan cached item: %w", err)
		}
		var it market.Item
		if err := json.Unmarshal([]byte(payload), &it); err != nil {
			return nil, time.Time{}, fmt.Errorf("decode cached item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate cached items: %w", err)
	}
	return items, savedAt, nil
}
