// Package mssql implements the registry catalog on Microsoft SQL Server.
//
// SQL Server has no single-statement upsert usable here without MERGE
// locking caveats, so Register runs UPDATE-then-INSERT inside one
// transaction with UPDLOCK on the probed row. Entries are stored as
// NVARCHAR(MAX) JSON.
package mssql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"ingest/internal/config"
	"ingest/internal/profile"
	"ingest/internal/registry"
)

func init() {
	registry.RegisterBackend("mssql", New)
}

// Catalog implements registry.Repository for SQL Server.
type Catalog struct {
	db   *sql.DB
	logf config.Logger
}

func New(ctx context.Context, cfg registry.Config) (registry.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
		IF OBJECT_ID('datasets', 'U') IS NULL
		CREATE TABLE datasets (
			name          NVARCHAR(450) PRIMARY KEY,
			file_path     NVARCHAR(MAX) NOT NULL,
			entry         NVARCHAR(MAX) NOT NULL,
			num_rows      BIGINT NOT NULL,
			num_columns   BIGINT NOT NULL,
			registered_at DATETIMEOFFSET NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("mssql: create datasets table: %w", err)
	}
	return nil
}

func (c *Catalog) Register(ctx context.Context, name, filePath string, p profile.Profile) error {
	entry := registry.NewEntry(filePath, p)
	blob, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("mssql: encode entry %q: %w", name, err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("mssql: begin register %q: %w", name, err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx,
		`SELECT name FROM datasets WITH (UPDLOCK, ROWLOCK) WHERE name = @p1`,
		name).Scan(&existing)
	switch {
	case err == nil:
		c.logf.Printf("dataset %q already registered, overwriting", name)
		_, err = tx.ExecContext(ctx, `
			UPDATE datasets SET
				file_path = @p2, entry = @p3, num_rows = @p4,
				num_columns = @p5, registered_at = @p6
			WHERE name = @p1`,
			name, entry.FilePath, string(blob),
			entry.NumRows, entry.NumColumns, entry.RegisteredAt)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO datasets (name, file_path, entry, num_rows, num_columns, registered_at)
			VALUES (@p1, @p2, @p3, @p4, @p5, @p6)`,
			name, entry.FilePath, string(blob),
			entry.NumRows, entry.NumColumns, entry.RegisteredAt)
	}
	if err != nil {
		return fmt.Errorf("mssql: register dataset %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("mssql: commit register %q: %w", name, err)
	}

	c.logf.Printf("registered dataset %q: rows=%d cols=%d", name, entry.NumRows, entry.NumColumns)
	return nil
}

func (c *Catalog) Get(ctx context.Context, name string) (registry.Entry, bool, error) {
	var blob string
	err := c.db.QueryRowContext(ctx,
		`SELECT entry FROM datasets WHERE name = @p1`, name).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		c.logf.Printf("dataset %q not found in registry", name)
		return registry.Entry{}, false, nil
	}
	if err != nil {
		return registry.Entry{}, false, fmt.Errorf("mssql: get dataset %q: %w", name, err)
	}

	var e registry.Entry
	if err := json.Unmarshal([]byte(blob), &e); err != nil {
		return registry.Entry{}, false, fmt.Errorf("mssql: decode entry %q: %w", name, err)
	}
	return e, true, nil
}

func (c *Catalog) List(ctx context.Context) ([]registry.Summary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, file_path, num_rows, num_columns, registered_at
		FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("mssql: list datasets: %w", err)
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
