package excel

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrInvalidWorkbook marks uploads the reader cannot parse. Legacy BIFF .xls
// files land here too: excelize only reads the OOXML format, so those need
// re-saving as .xlsx.
var ErrInvalidWorkbook = errors.New("invalid workbook")

// Row is one spreadsheet row keyed by normalized header name.
type Row map[string]string

// accentReplacer folds the accented characters that show up in the shop's
// spreadsheet headers ("Teléfono", "Número") so lookups work either way.
var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
	"ñ", "n", "Ñ", "n", "ü", "u", "Ü", "u",
)

// NormalizeHeader lowercases, trims and strips accents from a column header.
func NormalizeHeader(header string) string {
	return strings.ToLower(strings.TrimSpace(accentReplacer.Replace(header)))
}

// ReadRows parses the first sheet of an .xlsx workbook into rows keyed by
// normalized header. Rows that are entirely empty are dropped.
func ReadRows(r io.Reader) ([]Row, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkbook, err)
	}
	defer func() { _ = workbook.Close() }()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrInvalidWorkbook)
	}

	raw, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(raw) < 1 {
		return nil, fmt.Errorf("%w: sheet %q is empty", ErrInvalidWorkbook, sheets[0])
	}

	headers := make([]string, len(raw[0]))
	for i, cell := range raw[0] {
		headers[i] = NormalizeHeader(cell)
	}

	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			value := ""
			if i < len(cells) {
				value = strings.TrimSpace(cells[i])
			}
			if value != "" {
				empty = false
			}
			row[header] = value
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Get returns the first non-empty value among the given normalized headers.
func (r Row) Get(headers ...string) string {
	for _, header := range headers {
		if value := r[header]; value != "" {
			return value
		}
	}
	return ""
}
