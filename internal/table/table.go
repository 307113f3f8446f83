// Package table defines the in-memory tabular structure produced by the
// loader and consumed by the profiler.
//
// A Table is built exactly once per load and is never mutated afterwards:
// the loader fixes the column order, the row count, and the per-column
// storage-type tags at construction time. Cells are held as:
//
//   - nil         missing (empty CSV/XLSX cell, JSON null, absent JSON key)
//   - string      textual cell (CSV/XLSX values arrive as strings)
//   - float64     JSON number
//   - bool        JSON boolean
//
// No value coercion happens here; the tags describe what the cells already
// are, the way a dataframe's dtypes describe its columns.
package table

// Table is a row-major table with named, ordered columns.
type Table struct {
	// Columns holds normalized column names in source order.
	Columns []string

	// DTypes holds one storage-type tag per column, aligned with Columns.
	// See InferDTypes for the label set.
	DTypes []string

	// Rows holds cell values; every row has len(Columns) cells.
	Rows [][]any
}

// New builds a Table from columns and rows and infers the per-column
// storage-type tags. Short rows are padded with missing cells so that the
// row-length invariant always holds.
func New(columns []string, rows [][]any) *Table {
	for i, r := range rows {
		if len(r) < len(columns) {
			padded := make([]any, len(columns))
			copy(padded, r)
			rows[i] = padded
		} else if len(r) > len(columns) {
			rows[i] = r[:len(columns)]
		}
	}
	return &Table{
		Columns: columns,
		DTypes:  InferDTypes(columns, rows),
		Rows:    rows,
	}
}

// NumRows returns the row count. Zero is a valid count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// MissingCount returns the number of missing cells in column col.
func (t *Table) MissingCount(col int) int {
	n := 0
	for _, r := range t.Rows {
		if isMissing(r[col]) {
			n++
		}
	}
	return n
}

// isMissing reports whether a cell counts as missing. Only nil does; the
// loader converts empty CSV/XLSX cells and JSON nulls to nil up front.
func isMissing(v any) bool { return v == nil }
