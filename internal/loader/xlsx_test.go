package loader

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"ingest/internal/table"
)

// writeWorkbook assembles a minimal .xlsx file from zip parts and writes it
// into dir.
func writeWorkbook(t *testing.T, dir string, parts map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, contents := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(contents)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	path := filepath.Join(dir, "book.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return path
}

func TestLoadExcel(t *testing.T) {
	t.Parallel()

	parts := map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
			<sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets>
		</workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships>
			<Relationship Id="rId1" Target="worksheets/sheet1.xml"/>
		</Relationships>`,
		"xl/sharedStrings.xml": `<sst>
			<si><t>Tax Year</t></si>
			<si><t>State</t></si>
			<si><t>NY</t></si>
			<si><t>CA</t></si>
		</sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
			<row r="1">
				<c r="A1" t="s"><v>0</v></c>
				<c r="B1" t="s"><v>1</v></c>
			</row>
			<row r="2">
				<c r="A2"><v>2021</v></c>
				<c r="B2" t="s"><v>2</v></c>
			</row>
			<row r="3">
				<c r="A3"><v>2022</v></c>
				<c r="B3" t="s"><v>3</v></c>
			</row>
		</sheetData></worksheet>`,
	}
	path := writeWorkbook(t, t.TempDir(), parts)

	tbl, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	wantCols := []string{"tax_year", "state"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("Columns = %v, want %v", tbl.Columns, wantCols)
	}
	if tbl.DTypes[0] != table.TypeInteger {
		t.Errorf("DTypes[0] = %q, want integer", tbl.DTypes[0])
	}
	if tbl.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", tbl.NumRows())
	}
	if tbl.Rows[1][1] != "CA" {
		t.Errorf("Rows[1][1] = %v, want CA", tbl.Rows[1][1])
	}
}

// Cells absent from a row come back as missing, keyed by their reference.
func TestLoadExcelSparseRows(t *testing.T) {
	t.Parallel()

	parts := map[string]string{
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>
			<row r="1">
				<c r="A1" t="inlineStr"><is><t>a</t></is></c>
				<c r="B1" t="inlineStr"><is><t>b</t></is></c>
				<c r="C1" t="inlineStr"><is><t>c</t></is></c>
			</row>
			<row r="2">
				<c r="A2"><v>1</v></c>
				<c r="C2"><v>3</v></c>
			</row>
		</sheetData></worksheet>`,
	}
	path := writeWorkbook(t, t.TempDir(), parts)

	tbl, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.NumColumns() != 3 {
		t.Fatalf("NumColumns = %d, want 3", tbl.NumColumns())
	}
	if tbl.Rows[0][1] != nil {
		t.Errorf("skipped cell B2 should be missing, got %v", tbl.Rows[0][1])
	}
	if tbl.Rows[0][2] != "3" {
		t.Errorf("Rows[0][2] = %v, want 3", tbl.Rows[0][2])
	}
}

func TestLoadExcelNotAWorkbook(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Legacy binary .xls content is not a zip archive.
	path := filepath.Join(dir, "legacy.xls")
	if err := os.WriteFile(path, []byte{0xD0, 0xCF, 0x11, 0xE0, 0x00}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, nil); !errors.Is(err, ErrLoadFailure) {
		t.Fatalf("expected ErrLoadFailure for binary .xls, got %v", err)
	}
}

func TestLoadExcelNoHeaderRow(t *testing.T) {
	t.Parallel()

	parts := map[string]string{
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData></sheetData></worksheet>`,
	}
	path := writeWorkbook(t, t.TempDir(), parts)

	if _, err := Load(path, nil); !errors.Is(err, ErrLoadFailure) {
		t.Fatalf("expected ErrLoadFailure, got %v", err)
	}
}

func TestColIndexFromRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref  string
		want int
	}{
		{"A1", 0},
		{"C7", 2},
		{"Z10", 25},
		{"AA1", 26},
		{"AB2", 27},
		{"12", -1},
		{"", -1},
	}
	for _, tc := range tests {
		if got := colIndexFromRef(tc.ref); got != tc.want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", tc.ref, got, tc.want)
		}
	}
}
