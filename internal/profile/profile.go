// Package profile extracts structural metadata from a loaded table.
//
// The profile captures column order, storage types, row/column counts,
// missingness, and lightweight heuristic detection of temporal and
// geographic columns.
//
// Design constraints:
//   - Time/geo detection matches on column names only, never on values.
//     This avoids false positives from value sniffing and keeps profiling
//     fast and total.
//   - Generating a profile is a pure function over the table: no table
//     mutation, no I/O, no error path for a well-formed table.
//   - The Profile struct serializes to plain JSON with no custom encoders.
package profile

import (
	"math"
	"strings"

	"ingest/internal/config"
	"ingest/internal/table"
)

// Keywords whose presence as a name token suggests a temporal column.
var timeKeywords = map[string]struct{}{
	"date": {}, "year": {}, "month": {}, "day": {}, "quarter": {},
	"time": {}, "timestamp": {}, "fiscal_year": {}, "fy": {},
	"tax_year": {}, "period": {}, "tax_period": {}, "tax_prd": {},
}

// Keywords whose presence as a name token suggests a geographic column.
var geoKeywords = map[string]struct{}{
	"state": {}, "fips": {}, "county": {}, "zip": {}, "zipcode": {},
	"zip_code": {}, "city": {}, "region": {}, "country": {},
	"province": {}, "territory": {}, "state_cd": {}, "state_code": {},
	"st": {},
}

// Profile is the structural metadata record for one table. Field names are
// the wire format: a Profile written to the per-dataset JSON file and into
// registry entries marshals exactly these keys.
//
// Columns with identical normalized names collide in DTypes and
// Missingness; the last column wins.
type Profile struct {
	Columns     []string           `json:"columns"`
	DTypes      map[string]string  `json:"dtypes"`
	NumRows     int                `json:"num_rows"`
	NumColumns  int                `json:"num_columns"`
	Missingness map[string]float64 `json:"missingness"`
	TimeColumns []string           `json:"time_columns"`
	GeoColumns  []string           `json:"geo_columns"`
}

// Generate profiles t. An empty table is valid input and only logs a
// caution. A column whose name tokens intersect both keyword sets appears
// in both TimeColumns and GeoColumns.
func Generate(t *table.Table, logger config.Logger) Profile {
	logf := config.Ensure(logger)
	if t.NumRows() == 0 {
		logf.Printf("profiling a table with no rows")
	}

	p := Profile{
		Columns:     append([]string{}, t.Columns...),
		DTypes:      make(map[string]string, len(t.Columns)),
		NumRows:     t.NumRows(),
		NumColumns:  t.NumColumns(),
		Missingness: make(map[string]float64, len(t.Columns)),
		TimeColumns: []string{},
		GeoColumns:  []string{},
	}

	for i, col := range t.Columns {
		p.DTypes[col] = t.DTypes[i]
		p.Missingness[col] = missingPercent(t, i)
		tokens := nameTokens(col)
		if intersects(tokens, timeKeywords) {
			p.TimeColumns = append(p.TimeColumns, col)
		}
		if intersects(tokens, geoKeywords) {
			p.GeoColumns = append(p.GeoColumns, col)
		}
	}

	logf.Printf("profile generated: rows=%d cols=%d time_cols=%d geo_cols=%d",
		p.NumRows, p.NumColumns, len(p.TimeColumns), len(p.GeoColumns))
	return p
}

// missingPercent returns the percentage of missing cells in column i,
// rounded to two decimals. Zero rows define 0.0 for every column.
func missingPercent(t *table.Table, i int) float64 {
	if t.NumRows() == 0 {
		return 0.0
	}
	pct := float64(t.MissingCount(i)) / float64(t.NumRows()) * 100
	return math.Round(pct*100) / 100
}

// nameTokens splits an already-normalized column name on underscores.
// Matching is exact per token: multi-word keywords in the tables above only
// fire through their single-word constituents (e.g. "fiscal_year" matches
// via "year").
func nameTokens(name string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, tok := range strings.Split(strings.ToLower(name), "_") {
		out[tok] = struct{}{}
	}
	return out
}

func intersects(tokens map[string]struct{}, keywords map[string]struct{}) bool {
	for tok := range tokens {
		if _, ok := keywords[tok]; ok {
			return true
		}
	}
	return false
}
