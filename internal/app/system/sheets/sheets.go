// internal/app/system/sheets/sheets.go
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dalemusser/leadhub/internal/app/system/fieldmap"
	"github.com/xuri/excelize/v2"
)

// Upload limits for spreadsheet processing.
const (
	MaxUploadSize = 10 << 20 // 10 MB
	MaxRows       = 50000
)

var (
	// ErrUnsupportedType is returned for files that are neither .xlsx nor .csv.
	ErrUnsupportedType = errors.New("unsupported file type; upload .xlsx or .csv")

	// ErrNoHeader is returned when the sheet has no header row.
	ErrNoHeader = errors.New("spreadsheet has no header row")

	// ErrTooManyRows is returned when the sheet exceeds the row limit.
	ErrTooManyRows = errors.New("spreadsheet has too many rows")
)

// Sheet is a parsed spreadsheet: the header row and data rows in file order.
type Sheet struct {
	Headers []string
	Rows    []fieldmap.RawRow
}

// Options controls parsing.
type Options struct {
	MaxRows int // 0 means MaxRows
}

// Parse reads an uploaded spreadsheet. The file name's extension selects
// the reader: .xlsx/.xlsm use the first worksheet, .csv is read as UTF-8
// with an optional BOM. Blank rows are skipped.
func Parse(filename string, r io.Reader, opts Options) (Sheet, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = MaxRows
	}

	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return Sheet{}, ErrUnsupportedType
	}
	if err != nil {
		return Sheet{}, err
	}
	return build(records, opts.MaxRows)
}

// ParseBytes is Parse over an in-memory file.
func ParseBytes(filename string, data []byte, opts Options) (Sheet, error) {
	return Parse(filename, bytes.NewReader(data), opts)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var out [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func build(records [][]string, maxRows int) (Sheet, error) {
	// First non-blank record is the header row.
	start := -1
	for i, rec := range records {
		if !blank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return Sheet{}, ErrNoHeader
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = strings.TrimSpace(h)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	sheet := Sheet{Headers: headers}
	for _, rec := range records[start+1:] {
		if blank(rec) {
			continue
		}
		if len(sheet.Rows) >= maxRows {
			return Sheet{}, ErrTooManyRows
		}
		row := make(fieldmap.RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = nil
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
