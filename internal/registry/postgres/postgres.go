// Package postgres implements the registry catalog on PostgreSQL via
// pgx/v5.
//
// Entries are stored as JSONB alongside the indexed summary columns.
// Upserts use INSERT ... ON CONFLICT (name) DO UPDATE for last-write-wins
// semantics.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ingest/internal/config"
	"ingest/internal/profile"
	"ingest/internal/registry"
)

func init() {
	registry.RegisterBackend("postgres", New)
}

// Catalog implements registry.Repository for Postgres.
type Catalog struct {
	pool *pgxpool.Pool
	logf config.Logger
}

func New(ctx context.Context, cfg registry.Config) (registry.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}

	c := &Catalog{pool: pool, logf: config.Ensure(cfg.Logger)}
	if err := c.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Close() { c.pool.Close() }

func (c *Catalog) ensureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS datasets (
			name          TEXT PRIMARY KEY,
			file_path     TEXT NOT NULL,
			entry         JSONB NOT NULL,
			num_rows      BIGINT NOT NULL,
			num_columns   BIGINT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("postgres: create datasets table: %w", err)
	}
	return nil
}

func (c *Catalog) Register(ctx context.Context, name, filePath string, p profile.Profile) error {
	var exists bool
	if err := c.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM datasets WHERE name = $1)`, name).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: check dataset %q: %w", name, err)
	}
	if exists {
		c.logf.Printf("dataset %q already registered, overwriting", name)
	}

	entry := registry.NewEntry(filePath, p)
	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("postgres: encode entry %q: %w", name, err)
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO datasets (name, file_path, entry, num_rows, num_columns, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			file_path     = EXCLUDED.file_path,
			entry         = EXCLUDED.entry,
			num_rows      = EXCLUDED.num_rows,
			num_columns   = EXCLUDED.num_columns,
			registered_at = EXCLUDED.registered_at`,
		name, entry.FilePath, blob, entry.NumRows, entry.NumColumns, entry.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: register dataset %q: %w", name, err)
	}

	c.logf.Printf("registered dataset %q: rows=%d cols=%d", name, entry.NumRows, entry.NumColumns)
	return nil
}

func (c *Catalog) Get(ctx context.Context, name string) (registry.Entry, bool, error) {
	var blob []byte
	err := c.pool.QueryRow(ctx,
		`SELECT entry FROM datasets WHERE name = $1`, name).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		c.logf.Printf("dataset %q not found in registry", name)
		return registry.Entry{}, false, nil
	}
	if err != nil {
		return registry.Entry{}, false, fmt.Errorf("postgres: get dataset %q: %w", name, err)
	}

	var e registry.Entry
	if err := json.Unmarshal(blob, &e); err != nil {
		return registry.Entry{}, false, fmt.Errorf("postgres: decode entry %q: %w", name, err)
	}
	return e, true, nil
}

func (c *Catalog) List(ctx context.Context) ([]registry.Summary, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT name, file_path, num_rows, num_columns, registered_at
		FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list datasets: %w", err)
	}
	defer rows.Close()

	var out []registry.Summary
	for rows.Next() {
		var s registry.Summary
		if err := rows.Scan(&s.Name, &s.FilePath, &s.NumRows, &s.NumColumns, &s.RegisteredAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
