// Package jsonfile implements the default registry backend: a single JSON
// document whose top-level keys are dataset names.
//
// Durability model:
//   - The whole document is rewritten after every successful Register.
//   - A missing file yields an empty registry.
//   - An unparsable file is logged and treated as empty. The prior content
//     is NOT recovered; the next save replaces it. This is a known
//     data-loss footgun of the flat-file format (see DESIGN.md); operators
//     needing stronger guarantees should select the sqlite backend.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"ingest/internal/config"
	"ingest/internal/profile"
	"ingest/internal/registry"
)

func init() {
	registry.RegisterBackend("jsonfile", New)
}

// Catalog is the JSON-document Repository implementation.
type Catalog struct {
	path    string
	logf    config.Logger
	entries map[string]registry.Entry
}

// New opens (or initializes) the registry document at cfg.DSN.
func New(_ context.Context, cfg registry.Config) (registry.Repository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("jsonfile: missing registry path")
	}
	c := &Catalog{
		path: cfg.DSN,
		logf: config.Ensure(cfg.Logger),
	}
	c.entries = c.load()
	return c, nil
}

func (c *Catalog) Close() {}

// Register stores or replaces the entry for name and persists the document.
func (c *Catalog) Register(_ context.Context, name, filePath string, p profile.Profile) error {
	if _, exists := c.entries[name]; exists {
		c.logf.Printf("dataset %q already registered, overwriting", name)
	}

	entry := registry.NewEntry(filePath, p)
	c.entries[name] = entry
	if err := c.save(); err != nil {
		return err
	}

	c.logf.Printf("registered dataset %q: rows=%d cols=%d", name, entry.NumRows, entry.NumColumns)
	return nil
}

func (c *Catalog) Get(_ context.Context, name string) (registry.Entry, bool, error) {
	e, ok := c.entries[name]
	if !ok {
		c.logf.Printf("dataset %q not found in registry", name)
	}
	return e, ok, nil
}

func (c *Catalog) List(_ context.Context) ([]registry.Summary, error) {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]registry.Summary, 0, len(names))
	for _, name := range names {
		e := c.entries[name]
		out = append(out, registry.Summary{
			Name:         name,
			FilePath:     e.FilePath,
			NumRows:      e.NumRows,
			NumColumns:   e.NumColumns,
			RegisteredAt: e.RegisteredAt,
		})
	}
	return out, nil
}

// load reads the document from disk. A missing file starts fresh; a corrupt
// file is logged and discarded.
func (c *Catalog) load() map[string]registry.Entry {
	b, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logf.Printf("no existing registry at %s, starting fresh", c.path)
		} else {
			c.logf.Printf("failed to read registry at %s: %v, starting fresh", c.path, err)
		}
		return map[string]registry.Entry{}
	}

	entries := map[string]registry.Entry{}
	if err := json.Unmarshal(b, &entries); err != nil {
		c.logf.Printf("failed to parse registry at %s: %v, starting fresh", c.path, err)
		return map[string]registry.Entry{}
	}

	c.logf.Printf("loaded registry with %d dataset(s)", len(entries))
	return entries
}

// save rewrites the whole document: 2-space indent, UTF-8, non-ASCII and
// HTML characters preserved as-is.
func (c *Catalog) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("jsonfile: create registry dir: %w", err)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("jsonfile: write registry: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(c.entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("jsonfile: encode registry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("jsonfile: close registry: %w", err)
	}

	c.logf.Printf("registry saved to %s", c.path)
	return nil
}
