// Package loader reads raw tabular files from disk into table.Table values
// with normalized column names.
//
// The loader is responsible for:
//   - Detecting file format from the extension (CSV, TSV, Excel, JSON)
//   - Decoding file bytes as UTF-8, falling back to Latin-1
//   - Parsing the bytes with the format's standard reader
//   - Normalizing column headers (cosmetic only)
//
// Design constraints:
//   - Detection is by extension, never by content sniffing. This keeps the
//     logic transparent and avoids silent misdetection.
//   - The returned table is raw: no rows dropped, no values coerced beyond
//     what the format reader itself produces.
//   - The only built-in retry is the UTF-8 → Latin-1 decode fallback; every
//     other failure propagates immediately.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ingest/internal/config"
	"ingest/internal/table"
)

// Error taxonomy. Callers match with errors.Is; every error the loader
// returns wraps exactly one of these.
var (
	// ErrNotFound: the source file does not exist.
	ErrNotFound = errors.New("data file not found")

	// ErrUnsupportedFormat: the extension is not in the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file extension")

	// ErrLoadFailure: the file exists and has a supported extension, but
	// could not be parsed (all encodings exhausted, corrupt spreadsheet,
	// JSON orientation mismatch, ...). The original cause is attached.
	ErrLoadFailure = errors.New("load failed")
)

// Format is the closed set of supported file formats.
type Format int

const (
	FormatCSV Format = iota + 1 // .csv and .tsv
	FormatExcel
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatExcel:
		return "excel"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// extensionFormats maps supported extensions (lowercase) to formats.
// TSV is handled as CSV with a tab separator.
var extensionFormats = map[string]Format{
	".csv":  FormatCSV,
	".tsv":  FormatCSV,
	".xls":  FormatExcel,
	".xlsx": FormatExcel,
	".json": FormatJSON,
}

// supportedExtensions returns the sorted, comma-separated extension list
// used in the ErrUnsupportedFormat message.
func supportedExtensions() string {
	return ".csv, .json, .tsv, .xls, .xlsx"
}

// DetectFormat determines the format of path from its extension,
// case-insensitively.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensionFormats[ext]
	if !ok {
		return 0, fmt.Errorf("%w %q; supported extensions: %s",
			ErrUnsupportedFormat, ext, supportedExtensions())
	}
	return f, nil
}

// Load reads the file at path and returns a column-normalized table.
//
// Errors:
//   - ErrNotFound if path does not reference an existing file.
//   - ErrUnsupportedFormat if the extension is not supported.
//   - ErrLoadFailure for any parse or decode failure, with the cause wrapped.
func Load(path string, logger config.Logger) (*table.Table, error) {
	logf := config.Ensure(logger)

	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	logf.Printf("detected file type: %s", format)

	var t *table.Table
	switch format {
	case FormatCSV:
		t, err = loadCSV(path, logf)
	case FormatExcel:
		t, err = loadExcel(path, logf)
	case FormatJSON:
		t, err = loadJSON(path, logf)
	}
	if err != nil {
		return nil, err
	}

	for i, c := range t.Columns {
		t.Columns[i] = NormalizeName(c)
	}

	logf.Printf("load complete: file_size=%d bytes rows=%d columns=%d",
		info.Size(), t.NumRows(), t.NumColumns())
	return t, nil
}
