// Package tabular loads loosely-structured export files (Excel or delimited
// text) into a uniform in-memory table. Delimited text is decoded with the
// fallback order the institutional exports actually come in: UTF-16
// tab-separated, then UTF-8 comma-separated, then Windows-1251.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnsupportedFormat is returned for file extensions the loader does not
// understand. Callers report it to the operator; it should not abort other files.
var ErrUnsupportedFormat = errors.New("tabular: unsupported file format")

// Table is a header row plus data rows, exactly as found in the source file.
// Rows may be shorter than Headers; use Value for safe access.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Column returns the index of the header exactly matching name (after
// trimming), or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at idx in row, or "" when the row is short.
func (t *Table) Value(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// AutoNamed reports whether a header is an unlabeled/auto-generated column:
// either blank in the raw file or a pandas-style "Unnamed: N" placeholder
// carried over from legacy exports.
func AutoNamed(header string) bool {
	h := strings.TrimSpace(header)
	return h == "" || strings.HasPrefix(h, "Unnamed:")
}

// Load reads a roster or course export file. Supported: .xlsx/.xls (first
// sheet) and .csv/.tsv/.txt with encoding fallback.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return loadExcel(path)
	case ".csv", ".tsv", ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("tabular: read %s: %w", path, err)
		}
		return DecodeDelimited(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open excel %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("tabular: %s: no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("tabular: read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("tabular: %s: empty sheet", path)
	}
	return &Table{Headers: rows[0], Rows: rows[1:]}, nil
}

// DecodeDelimited parses delimited text trying each known export encoding in
// order. UTF-16 exports always carry a BOM; UTF-8 is accepted only when the
// bytes validate; Windows-1251 is the last resort for legacy files.
func DecodeDelimited(data []byte) (*Table, error) {
	var lastErr error

	if hasUTF16BOM(data) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		text, _, err := transform.Bytes(dec, data)
		if err == nil {
			t, perr := parseDelimited(text, '\t')
			if perr == nil {
				return t, nil
			}
			lastErr = perr
		} else {
			lastErr = err
		}
	}

	if utf8.Valid(data) {
		t, err := parseDelimited(data, ',')
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	dec := charmap.Windows1251.NewDecoder()
	text, _, err := transform.Bytes(dec, data)
	if err == nil {
		t, perr := parseDelimited(text, ',')
		if perr == nil {
			return t, nil
		}
		lastErr = perr
	} else {
		lastErr = err
	}

	return nil, fmt.Errorf("tabular: no encoding produced a readable table: %w", lastErr)
}

func parseDelimited(data []byte, sep rune) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("tabular: parse: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("tabular: empty file")
	}
	return &Table{Headers: rows[0], Rows: rows[1:]}, nil
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}
