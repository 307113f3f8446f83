package profile

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"ingest/internal/table"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	tbl := table.New(
		[]string{"fiscal_year", "state_cd", "revenue", "notes"},
		[][]any{
			{"2021", "NY", "100.5", nil},
			{"2022", "CA", nil, nil},
			{"2023", nil, "80.25", "ok"},
		},
	)

	p := Generate(tbl, nil)

	if p.NumRows != 3 || p.NumColumns != 4 {
		t.Fatalf("counts = (%d, %d), want (3, 4)", p.NumRows, p.NumColumns)
	}
	if !reflect.DeepEqual(p.Columns, tbl.Columns) {
		t.Errorf("Columns = %v", p.Columns)
	}
	if p.DTypes["fiscal_year"] != table.TypeInteger {
		t.Errorf("dtype fiscal_year = %q, want integer", p.DTypes["fiscal_year"])
	}
	if p.DTypes["revenue"] != table.TypeFloat {
		t.Errorf("dtype revenue = %q, want float", p.DTypes["revenue"])
	}

	// One missing cell out of three rows rounds to 33.33.
	if got := p.Missingness["state_cd"]; got != 33.33 {
		t.Errorf("missingness state_cd = %v, want 33.33", got)
	}
	if got := p.Missingness["fiscal_year"]; got != 0.0 {
		t.Errorf("missingness fiscal_year = %v, want 0", got)
	}
	if got := p.Missingness["notes"]; got != 66.67 {
		t.Errorf("missingness notes = %v, want 66.67", got)
	}

	if !reflect.DeepEqual(p.TimeColumns, []string{"fiscal_year"}) {
		t.Errorf("TimeColumns = %v, want [fiscal_year]", p.TimeColumns)
	}
	if !reflect.DeepEqual(p.GeoColumns, []string{"state_cd"}) {
		t.Errorf("GeoColumns = %v, want [state_cd]", p.GeoColumns)
	}
}

// A name whose tokens hit both keyword sets lands in both lists.
func TestGenerateTimeAndGeoOverlap(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"state_period"}, [][]any{{"x"}})
	p := Generate(tbl, nil)

	if !reflect.DeepEqual(p.TimeColumns, []string{"state_period"}) {
		t.Errorf("TimeColumns = %v", p.TimeColumns)
	}
	if !reflect.DeepEqual(p.GeoColumns, []string{"state_period"}) {
		t.Errorf("GeoColumns = %v", p.GeoColumns)
	}
}

// Keyword matching is on whole underscore-separated tokens: "statement"
// contains "state" as a substring but is not a geographic column.
func TestGenerateTokenMatchIsExact(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"statement", "updated", "daylight"}, [][]any{})
	p := Generate(tbl, nil)

	if len(p.TimeColumns) != 0 {
		t.Errorf("TimeColumns = %v, want none", p.TimeColumns)
	}
	if len(p.GeoColumns) != 0 {
		t.Errorf("GeoColumns = %v, want none", p.GeoColumns)
	}
}

func TestGenerateEmptyTable(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"a", "b"}, nil)
	p := Generate(tbl, nil)

	if p.NumRows != 0 {
		t.Fatalf("NumRows = %d, want 0", p.NumRows)
	}
	// Zero rows means zero missingness, not a division by zero.
	for col, pct := range p.Missingness {
		if pct != 0.0 {
			t.Errorf("missingness %s = %v, want 0", col, pct)
		}
	}
}

// Empty keyword lists serialize as [] rather than null so the JSON shape is
// stable across datasets.
func TestProfileJSONShape(t *testing.T) {
	t.Parallel()

	tbl := table.New([]string{"amount"}, [][]any{{"1"}})
	b, err := json.Marshal(Generate(tbl, nil))
	if err != nil {
		t.Fatal(err)
	}
	doc := string(b)
	for _, key := range []string{
		`"columns"`, `"dtypes"`, `"num_rows"`, `"num_columns"`,
		`"missingness"`, `"time_columns"`, `"geo_columns"`,
	} {
		if !strings.Contains(doc, key) {
			t.Errorf("marshaled profile missing %s: %s", key, doc)
		}
	}
	if strings.Contains(doc, `"time_columns":null`) {
		t.Errorf("time_columns should be [], got %s", doc)
	}
}
