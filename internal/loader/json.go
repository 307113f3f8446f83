package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ingest/internal/config"
	"ingest/internal/table"
)

// loadJSON loads a .json file holding either an array of flat records or an
// object of column arrays. The orientation is auto-detected from the root
// token; anything else is a load failure.
//
// Column order is the first-seen key order in the document, which requires
// token-level decoding (a plain unmarshal into map[string]any loses it).
func loadJSON(path string, logf config.Logger) (*table.Table, error) {
	b, err := decodeFile(path, logf)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(b))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: parse json %s: %w", ErrLoadFailure, path, err)
	}

	d, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("%w: json root of %s must be an array or object, got %v",
			ErrLoadFailure, path, tok)
	}

	var t *table.Table
	switch d {
	case '[':
		t, err = jsonRecords(dec)
	case '{':
		t, err = jsonColumns(dec)
	default:
		err = fmt.Errorf("unsupported json root delimiter %q", d)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse json %s: %w", ErrLoadFailure, path, err)
	}
	return t, nil
}

// jsonRecords consumes an already-opened array of objects. Columns are the
// union of record keys in first-seen order; keys absent from a record yield
// missing cells.
func jsonRecords(dec *json.Decoder) (*table.Table, error) {
	var columns []string
	colIdx := map[string]int{}
	var rows [][]any

	for dec.More() {
		keys, values, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}

		for _, k := range keys {
			if _, ok := colIdx[k]; !ok {
				colIdx[k] = len(columns)
				columns = append(columns, k)
			}
		}

		row := make([]any, len(columns))
		for i, k := range keys {
			row[colIdx[k]] = values[i]
		}
		rows = append(rows, row)
	}

	// Consume the closing ']'.
	if end, err := dec.Token(); err != nil {
		return nil, err
	} else if end != json.Delim(']') {
		return nil, fmt.Errorf("expected array end, got %v", end)
	}

	return table.New(columns, rows), nil
}

// jsonColumns consumes an already-opened object whose values are column
// arrays. All arrays must have equal length.
func jsonColumns(dec *json.Decoder) (*table.Table, error) {
	var columns []string
	var colData [][]any

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key := fmt.Sprint(keyTok)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		arr, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("column %q: expected an array of values, got %T", key, raw)
		}

		columns = append(columns, key)
		colData = append(colData, arr)
	}

	if end, err := dec.Token(); err != nil {
		return nil, err
	} else if end != json.Delim('}') {
		return nil, fmt.Errorf("expected object end, got %v", end)
	}

	numRows := 0
	for i, col := range colData {
		if i == 0 {
			numRows = len(col)
			continue
		}
		if len(col) != numRows {
			return nil, fmt.Errorf("column %q has %d values, expected %d",
				columns[i], len(col), numRows)
		}
	}

	rows := make([][]any, numRows)
	for r := range rows {
		row := make([]any, len(columns))
		for c := range columns {
			row[c] = colData[c][r]
		}
		rows[r] = row
	}

	return table.New(columns, rows), nil
}

// decodeObject consumes one object from dec, returning its keys in document
// order alongside the decoded values.
func decodeObject(dec *json.Decoder) ([]string, []any, error) {
	open, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if open != json.Delim('{') {
		return nil, nil, fmt.Errorf("expected a record object, got %v", open)
	}

	var keys []string
	var values []any
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		keys = append(keys, fmt.Sprint(keyTok))
		values = append(values, v)
	}

	if end, err := dec.Token(); err != nil {
		return nil, nil, err
	} else if end != json.Delim('}') {
		return nil, nil, fmt.Errorf("expected object end, got %v", end)
	}

	return keys, values, nil
}
