package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"ingest/internal/config"
	"ingest/internal/table"
)

// loadExcel loads the first sheet of an .xlsx workbook. The file is parsed
// as OOXML (zip of XML parts); legacy binary .xls files fail to open as a
// zip and surface as a load failure, as does any corrupt workbook.
func loadExcel(filePath string, logf config.Logger) (*table.Table, error) {
	b, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrLoadFailure, filePath, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("%w: open spreadsheet %s: %w", ErrLoadFailure, filePath, err)
	}

	sheetPath := firstSheetPath(zr)
	sheetXML := readZipFile(zr, sheetPath)
	if sheetXML == nil {
		return nil, fmt.Errorf("%w: %s: worksheet %s not found", ErrLoadFailure, filePath, sheetPath)
	}
	shared := parseSharedStrings(readZipFile(zr, "xl/sharedStrings.xml"))

	rr := newSheetRowReader(sheetXML, shared)
	header, ok := rr.Next()
	if !ok || len(header) == 0 {
		return nil, fmt.Errorf("%w: %s: first sheet has no header row", ErrLoadFailure, filePath)
	}

	var rows [][]any
	for {
		rec, ok := rr.Next()
		if !ok {
			break
		}
		row := make([]any, len(header))
		for i := range header {
			if i < len(rec) && rec[i] != "" {
				row[i] = rec[i]
			}
		}
		rows = append(rows, row)
	}

	logf.Printf("spreadsheet loaded: sheet=%s", sheetPath)
	return table.New(header, rows), nil
}

// firstSheetPath resolves the zip path of the workbook's first sheet via
// xl/workbook.xml and its relationships, falling back to the conventional
// xl/worksheets/sheet1.xml when either part is missing.
func firstSheetPath(zr *zip.Reader) string {
	sheets := parseWorkbookSheets(readZipFile(zr, "xl/workbook.xml"))
	rels := parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))

	if len(sheets) > 0 {
		if target, ok := rels[sheets[0].rid]; ok {
			if !strings.HasPrefix(target, "xl/") {
				target = path.Join("xl", target)
			}
			return path.Clean(target)
		}
	}
	return "xl/worksheets/sheet1.xml"
}

type wbSheet struct {
	name string
	rid  string
}

// parseWorkbookSheets extracts sheet entries, in workbook order, with their
// relationship ids.
func parseWorkbookSheets(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "id": // in the r: namespace
				s.rid = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns a map of relationship id to target path.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

// parseSharedStrings decodes xl/sharedStrings.xml into an index-addressable
// string slice.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "si" {
				buf.Reset()
			}
			if se.Name.Local == "t" {
				inT = true
			}
		case xml.EndElement:
			if se.Name.Local == "t" {
				inT = false
			}
			if se.Name.Local == "si" {
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT {
				buf.Write([]byte(se))
			}
		}
	}
}

// sheetRowReader iterates worksheet rows, resolving shared strings and cell
// references so that sparse rows come back dense.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	curRow []string
	maxCol int
	inRow  bool
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRowReader) Next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				r.inRow = true
				r.curRow = nil
				r.maxCol = 0
			}
			if r.inRow && se.Name.Local == "c" {
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := colIndexFromRef(ref)
				if col < 0 {
					col = len(r.curRow)
				}
				if col+1 > r.maxCol {
					r.maxCol = col + 1
				}
				val := r.readCellValue(typ)
				if len(r.curRow) <= col {
					tmp := make([]string, col+1)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.curRow[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" && r.inRow {
				if len(r.curRow) < r.maxCol {
					tmp := make([]string, r.maxCol)
					copy(tmp, r.curRow)
					r.curRow = tmp
				}
				r.inRow = false
				return r.curRow, true
			}
		}
	}
}

// readCellValue consumes tokens until the cell's end element, capturing the
// <v> (or inline <is><t>) content. Shared-string cells (t="s") are resolved
// through the shared string table.
func (r *sheetRowReader) readCellValue(typ string) string {
	var val string
	depth := 0
	var capture bool
	var buf strings.Builder

	for {
		tok, err := r.dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			depth++
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = true
				buf.Reset()
			}
		case xml.CharData:
			if capture {
				buf.Write([]byte(se))
			}
		case xml.EndElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				capture = false
				val = buf.String()
			}
			if depth == 0 {
				// End of the <c> element itself.
				if typ == "s" {
					if i, ok := atoiSafe(val); ok && i >= 0 && i < len(r.shared) {
						return r.shared[i]
					}
					return ""
				}
				return val
			}
			depth--
		}
	}
	return val
}

// colIndexFromRef converts a cell reference like "C7" to a zero-based
// column index (2). Returns -1 when the reference has no letter prefix.
func colIndexFromRef(ref string) int {
	n := 0
	seen := false
	for _, r := range ref {
		if r >= 'A' && r <= 'Z' {
			n = n*26 + int(r-'A') + 1
			seen = true
			continue
		}
		if r >= 'a' && r <= 'z' {
			n = n*26 + int(r-'a') + 1
			seen = true
			continue
		}
		break
	}
	if !seen {
		return -1
	}
	return n - 1
}

func atoiSafe(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
