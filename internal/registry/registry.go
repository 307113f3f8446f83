// Package registry persists named dataset profiles in a durable,
// name-keyed catalog.
//
// The catalog interface is backend-agnostic: the default backend is a
// single JSON document on disk, with sqlite, postgres, and mssql backends
// available behind the same factory for installations that outgrow a flat
// file. Backends self-register from an init() in their own package; the
// application selects one by kind at startup.
//
// Concurrency is NOT handled. The registry assumes single-process
// execution; callers sharing one catalog must serialize ingestion runs
// themselves.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ingest/internal/config"
	"ingest/internal/profile"
)

// Entry is the stored record for one dataset, keyed by dataset name.
// Field names are the wire format shared by every backend.
type Entry struct {
	FilePath      string          `json:"file_path"`
	SchemaProfile profile.Profile `json:"schema_profile"`
	NumRows       int             `json:"num_rows"`
	NumColumns    int             `json:"num_columns"`
	RegisteredAt  time.Time       `json:"registered_at"`
}

// Summary is the lightweight per-dataset view returned by List.
type Summary struct {
	Name         string    `json:"name"`
	FilePath     string    `json:"file_path"`
	NumRows      int       `json:"num_rows"`
	NumColumns   int       `json:"num_columns"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Repository is the backend-agnostic catalog interface.
//
// IMPORTANT: Register uses last-write-wins semantics. Re-registering an
// existing name replaces the prior entry entirely; backends log a warning,
// not an error.
type Repository interface {
	// Close releases backend resources. Call once at process shutdown.
	Close()

	// Register stores or replaces the entry for name.
	Register(ctx context.Context, name, filePath string, p profile.Profile) error

	// Get returns the entry for name. The bool is false when the name is
	// not registered.
	Get(ctx context.Context, name string) (Entry, bool, error)

	// List returns a summary per registered dataset, ordered by name.
	List(ctx context.Context) ([]Summary, error)
}

// NewEntry builds the entry recorded for one ingestion run. RegisteredAt is
// the current UTC time.
func NewEntry(filePath string, p profile.Profile) Entry {
	return Entry{
		FilePath:      filePath,
		SchemaProfile: p,
		NumRows:       p.NumRows,
		NumColumns:    p.NumColumns,
		RegisteredAt:  time.Now().UTC(),
	}
}

// Config selects and configures a backend.
//
// Edge cases:
//   - Kind must be non-empty and match a registered backend kind.
//   - DSN is passed through to the backend factory; for the jsonfile
//     backend it is the registry document path.
type Config struct {
	Kind   string
	DSN    string
	Logger config.Logger
}

// ---- backend factories ----

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// RegisterBackend registers a catalog backend under a kind (e.g. "sqlite").
//
// Call from an init() in a backend package. Registering the same kind more
// than once panics: fail fast rather than allow ambiguous backend
// selection.
func RegisterBackend(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("registry: RegisterBackend called with empty kind")
	}
	if f == nil {
		panic("registry: RegisterBackend called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("registry: backend already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the backend factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("registry: missing backend kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("registry: unsupported backend kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
