package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"ingest/internal/config"
	"ingest/internal/table"
)

// decodeFile reads path and returns its contents as UTF-8 bytes.
//
// Decode policy: valid UTF-8 is passed through unchanged; anything else is
// re-decoded as Latin-1 (ISO 8859-1), which succeeds byte-wise, and the
// fallback is logged. Covers the vast majority of government and nonprofit
// data exports.
func decodeFile(path string, logf config.Logger) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadFailure, path, err)
	}

	if utf8.Valid(b) {
		return b, nil
	}

	logf.Printf("encoding utf-8 failed for %s, falling back to latin-1", filepath.Base(path))
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s after trying all supported encodings: %w",
			ErrLoadFailure, path, err)
	}
	return decoded, nil
}

// loadCSV loads a .csv or .tsv file. The separator is chosen by extension.
func loadCSV(path string, logf config.Logger) (*table.Table, error) {
	sep := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		sep = '\t'
	}

	b, err := decodeFile(path, logf)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = sep

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse csv %s: %w", ErrLoadFailure, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no header row", ErrLoadFailure, path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(header))
		for i := range header {
			if i < len(rec) && rec[i] != "" {
				row[i] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	return table.New(header, rows), nil
}
