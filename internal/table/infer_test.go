package table

import (
	"reflect"
	"testing"
)

func TestInferDTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vals []any
		want string
	}{
		{"integers", []any{"1", "42", "-7"}, TypeInteger},
		{"floats", []any{"1.5", "2.0", "3"}, TypeFloat},
		{"booleans", []any{"yes", "no", "TRUE", "f"}, TypeBoolean},
		{"iso dates", []any{"2021-01-31", "1999-12-01"}, TypeDate},
		{"dotted dates", []any{"31.01.2021", "01.12.1999"}, TypeDate},
		{"timestamps", []any{"2021-01-31 08:00:00", "2021-02-01T09:30:00"}, TypeTimestamp},
		{"text", []any{"alpha", "beta"}, TypeText},
		{"mixed numeric and text", []any{"1", "x"}, TypeText},
		{"missing cells ignored", []any{nil, "3", nil}, TypeInteger},
		{"all missing", []any{nil, nil}, TypeText},
		{"whitespace kills inference", []any{"1", "  "}, TypeText},
		{"json booleans", []any{true, false}, TypeBoolean},
		{"json integral floats", []any{float64(3), float64(-1)}, TypeInteger},
		{"json fractional floats", []any{float64(3), 2.5}, TypeFloat},
		{"json and string ints agree", []any{float64(3), "4"}, TypeInteger},
		{"json number vs bool string", []any{float64(1), "yes"}, TypeText},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rows := make([][]any, len(tc.vals))
			for i, v := range tc.vals {
				rows[i] = []any{v}
			}
			got := InferDTypes([]string{"col"}, rows)
			if got[0] != tc.want {
				t.Errorf("InferDTypes(%v) = %q, want %q", tc.vals, got[0], tc.want)
			}
		})
	}
}

// "1" and "0" parse as both integers and booleans; integer is the more
// specific tag and wins.
func TestInferDTypesIntegerBeatsBoolean(t *testing.T) {
	t.Parallel()

	got := InferDTypes([]string{"flag"}, [][]any{{"1"}, {"0"}})
	if got[0] != TypeInteger {
		t.Errorf("got %q, want %q", got[0], TypeInteger)
	}
}

func TestNewPadsShortRows(t *testing.T) {
	t.Parallel()

	tbl := New([]string{"a", "b", "c"}, [][]any{
		{"1"},
		{"2", "x", "y", "extra"},
	})
	for i, r := range tbl.Rows {
		if len(r) != 3 {
			t.Errorf("row %d has %d cells, want 3", i, len(r))
		}
	}
	if tbl.Rows[0][2] != nil {
		t.Errorf("padded cell should be missing, got %v", tbl.Rows[0][2])
	}
}

func TestMissingCount(t *testing.T) {
	t.Parallel()

	tbl := New([]string{"a", "b"}, [][]any{
		{"1", nil},
		{nil, nil},
		{"3", "x"},
	})
	if got := tbl.MissingCount(0); got != 1 {
		t.Errorf("MissingCount(0) = %d, want 1", got)
	}
	if got := tbl.MissingCount(1); got != 2 {
		t.Errorf("MissingCount(1) = %d, want 2", got)
	}
	if !reflect.DeepEqual(tbl.DTypes, []string{TypeInteger, TypeText}) {
		t.Errorf("DTypes = %v", tbl.DTypes)
	}
}
