// Package sqlite implements the registry catalog on SQLite via
// modernc.org/sqlite (pure Go, no cgo).
//
// Key design points vs the jsonfile backend:
//   - Each Register rewrites one row, not the whole catalog, so a corrupt
//     write cannot discard unrelated entries.
//   - Entries are stored as a JSON text column; the schema only indexes
//     what List needs (name, shape, timestamp). SQLite stores the
//     registered_at timestamp as an RFC3339 string for reliable round-trip
//     behavior and easy debugging.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"ingest/internal/config"
	"ingest/internal/profile"
	"ingest/internal/registry"
)

func init() {
	registry.RegisterBackend("sqlite", New)
}

// Catalog implements registry.Repository for SQLite.
type Catalog struct {
	db   *sql.DB
	logf config.Logger
}

func New(ctx context.Context, cfg registry.Config) (registry.Repository, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Catalog{db: db, logf: config.Ensure(cfg.Logger)}
	if err := c.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Close() { _ = c.db.Close() }

func (c *Catalog) ensureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			name          TEXT PRIMARY KEY,
			file_path     TEXT NOT NULL,
			entry         TEXT NOT NULL,
			num_rows      INTEGER NOT NULL,
			num_columns   INTEGER NOT NULL,
			registered_at TEXT NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("sqlite: create datasets table: %w", err)
	}
	return nil
}

// Register upserts the entry for name. "INSERT OR REPLACE" relies on the
// name primary key for last-write-wins semantics.
func (c *Catalog) Register(ctx context.Context, name, filePath string, p profile.Profile) error {
	var exists int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM datasets WHERE name = ?`, name).Scan(&exists); err != nil {
		return fmt.Errorf("sqlite: check dataset %q: %w", name, err)
	}
	if exists > 0 {
		c.logf.Printf("dataset %q already registered, overwriting", name)
	}

	entry := registry.NewEntry(filePath, p)
	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("sqlite: encode entry %q: %w", name, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO datasets
			(name, file_path, entry, num_rows, num_columns, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		name, entry.FilePath, string(blob),
		entry.NumRows, entry.NumColumns,
		entry.RegisteredAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: register dataset %q: %w", name, err)
	}

	c.logf.Printf("registered dataset %q: rows=%d cols=%d", name, entry.NumRows, entry.NumColumns)
	return nil
}

func (c *Catalog) Get(ctx context.Context, name string) (registry.Entry, bool, error) {
	var blob string
	err := c.db.QueryRowContext(ctx,
		`SELECT entry FROM datasets WHERE name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		c.logf.Printf("dataset %q not found in registry", name)
		return registry.Entry{}, false, nil
	}
	if err != nil {
		return registry.Entry{}, false, fmt.Errorf("sqlite: get dataset %q: %w", name, err)
	}

	var e registry.Entry
	if err := json.Unmarshal([]byte(blob), &e); err != nil {
		return registry.Entry{}, false, fmt.Errorf("sqlite: decode entry %q: %w", name, err)
	}
	return e, true, nil
}

func (c *Catalog) List(ctx context.Context) ([]registry.Summary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, file_path, num_rows, num_columns, registered_at
		FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list datasets: %w", err)
	}
	defer rows.Close()

	var out []registry.Summary
	for rows.Next() {
		var s registry.Summary
		var ts string
		if err := rows.Scan(&s.Name, &s.FilePath, &s.NumRows, &s.NumColumns, &ts); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			s.RegisteredAt = t
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
