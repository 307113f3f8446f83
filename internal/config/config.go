// Package config centralizes filesystem layout and logger construction for
// the ingestion pipeline.
//
// Design constraints:
//   - Paths are resolved once at startup; downstream packages receive a
//     Paths value and never consult the environment themselves.
//   - Data directories are created eagerly (parents included) so the
//     registry and profile writers never race against a missing folder.
//   - Logging is an explicitly constructed *log.Logger handed down from
//     main. Library packages accept the minimal Logger seam and must treat
//     a nil logger as "log nothing".
package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Logger is the minimal logging interface used throughout the pipeline.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// nopLogger discards everything. Returned by Ensure so callers can hold a
// non-nil Logger unconditionally.
type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Ensure returns l unchanged when non-nil, otherwise a no-op Logger.
func Ensure(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// NewLogger constructs the process logger. Verbose enables microsecond
// timestamps for debugging slow loads; the default format matches the rest
// of the pipeline's "date time | message" convention.
func NewLogger(w io.Writer, verbose bool) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	flags := log.LstdFlags
	if verbose {
		flags |= log.Lmicroseconds
	}
	return log.New(w, "", flags)
}

// Paths describes the on-disk layout for one pipeline instance.
//
// Layout under Root:
//
//	<root>/raw/        drop zone for source files
//	<root>/processed/  profile JSON output and the jsonfile registry
type Paths struct {
	Root         string
	RawDir       string
	ProcessedDir string
	RegistryPath string
}

// registryFileName is the jsonfile registry document under ProcessedDir.
const registryFileName = "registry.json"

// ResolvePaths resolves the data root with flag → env → default precedence
// and derives the standard subpaths. flagValue wins when non-empty, then
// the INGEST_DATA_DIR environment variable, then "./data".
func ResolvePaths(flagValue string) (Paths, error) {
	root := strings.TrimSpace(flagValue)
	if root == "" {
		root = strings.TrimSpace(os.Getenv("INGEST_DATA_DIR"))
	}
	if root == "" {
		root = "data"
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve data dir %q: %w", root, err)
	}

	p := Paths{
		Root:         abs,
		RawDir:       filepath.Join(abs, "raw"),
		ProcessedDir: filepath.Join(abs, "processed"),
	}
	p.RegistryPath = filepath.Join(p.ProcessedDir, registryFileName)
	return p, nil
}

// Bootstrap creates the raw and processed directories, parents included.
// Idempotent: an existing tree is left untouched.
func (p Paths) Bootstrap() error {
	for _, dir := range []string{p.RawDir, p.ProcessedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir %s: %w", dir, err)
		}
	}
	return nil
}

// ProfilePath returns the per-dataset profile output path,
// "<processed>/<name>_profile.json".
func (p Paths) ProfilePath(datasetName string) string {
	return filepath.Join(p.ProcessedDir, datasetName+"_profile.json")
}
