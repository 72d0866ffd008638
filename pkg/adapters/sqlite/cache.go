// Package sqlite provides a persistent distribution cache stored in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/dicetree/pkg/domain"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS distributions (
	cache_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	outcomes   INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Cache implements ports.DistributionCache in a SQLite database.
type Cache struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the cache database at path. ":memory:" keeps it in process.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// every connection to ":memory:" is a distinct database
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Cache{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (c *Cache) Close() error {
	if c == nil || c.sqlDB == nil {
		return nil
	}
	return c.sqlDB.Close()
}

// Get loads a distribution.
func (c *Cache) Get(ctx context.Context, key string) (domain.Distribution, bool, error) {
	var payload string
	err := c.sqlDB.QueryRowContext(ctx, `SELECT payload FROM distributions WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Distribution{}, false, nil
	}
	if err != nil {
		return domain.Distribution{}, false, fmt.Errorf("get distribution: %w", err)
	}

	var dist domain.Distribution
	if err := json.Unmarshal([]byte(payload), &dist); err != nil {
		return domain.Distribution{}, false, fmt.Errorf("decode distribution: %w", err)
	}
	return dist, true, nil
}

// Put upserts a distribution.
func (c *Cache) Put(ctx context.Context, key string, dist domain.Distribution) error {
	payload, err := json.Marshal(dist)
	if err != nil {
		return fmt.Errorf("encode distribution: %w", err)
	}
	_, err = c.sqlDB.ExecContext(ctx,
		`INSERT INTO distributions (cache_key, payload, outcomes, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		   payload = excluded.payload,
		   outcomes = excluded.outcomes,
		   updated_at = excluded.updated_at`,
		key, string(payload), dist.Len(), time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put distribution: %w", err)
	}
	return nil
}

// Delete removes a distribution.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.sqlDB.ExecContext(ctx, `DELETE FROM distributions WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("delete distribution: %w", err)
	}
	return nil
}

// List returns the cached keys, most recently written first.
func (c *Cache) List(ctx context.Context) ([]string, error) {
	rows, err := c.sqlDB.QueryContext(ctx, `SELECT cache_key FROM distributions ORDER BY updated_at DESC, cache_key`)
	if err != nil {
		return nil, fmt.Errorf("list distributions: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan distribution key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
