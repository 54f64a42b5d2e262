package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// Load reads a .csv or .xlsx file and checks that RequiredColumns are present.
// sheet only applies to workbooks; empty means the first sheet.
func Load(path, sheet string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %q: %w", path, err)
	}
	defer f.Close()

	var d *Dataset
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		d, err = ReadXLSX(f, sheet)
	default:
		d, err = ReadCSV(f)
	}
	if err != nil {
		return nil, err
	}

	if err := d.RequireColumns(RequiredColumns...); err != nil {
		return nil, err
	}
	return d, nil
}

// loadOptions keep every column as text: cleaning compares raw cells and
// numbers are parsed only when a column is aggregated.
func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	}
}

// ReadCSV parses CSV with a header row. Blank header cells get generated
// names so the unnamed index column of the public file does not collide.
// A file with a header and no rows yields an empty Dataset, so missing
// columns and empty input are still reported as such.
func ReadCSV(r io.Reader) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: read: %w", err)
	}

	df := dataframe.ReadCSV(bytes.NewReader(data), loadOptions()...)
	if df.Err != nil {
		if header, ok := csvHeaderOnly(data); ok {
			return FromRecords(header, nil), nil
		}
	}
	return fromFrame(df)
}

// csvHeaderOnly reports whether data holds exactly one CSV record and returns it.
func csvHeaderOnly(data []byte) ([]string, bool) {
	rd := csv.NewReader(bytes.NewReader(data))
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil || len(records) != 1 {
		return nil, false
	}
	return records[0], true
}

// ReadXLSX parses a workbook. The header is the first row that contains a
// BOROUGH cell, which skips the title block the Department of Finance puts
// above its tables. Cell values are read raw so currency formatting does not
// leak into the numbers.
func ReadXLSX(r io.Reader, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("dataset: open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("dataset: workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("dataset: read sheet %q: %w", sheet, err)
	}

	start := -1
	for i, row := range rows {
		for _, cell := range row {
			if normaliseHeader(cell) == ColumnBorough {
				start = i
				break
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil, &MissingColumnError{Column: ColumnBorough}
	}

	header := make([]string, len(rows[start]))
	for i, cell := range rows[start] {
		header[i] = normaliseHeader(cell)
	}

	records := make([][]string, 0, len(rows)-start)
	records = append(records, header)
	for _, row := range rows[start+1:] {
		// GetRows drops trailing empty cells; the frame needs full-width rows.
		full := make([]string, len(header))
		copy(full, row)
		records = append(records, full)
	}

	if len(records) == 1 {
		return FromRecords(header, nil), nil
	}

	df := dataframe.LoadRecords(records, loadOptions()...)
	return fromFrame(df)
}

func fromFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, fmt.Errorf("dataset: load: %w", df.Err)
	}
	records := df.Records()
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset: load: no header")
	}
	return FromRecords(restoreDuplicateNames(records[0]), records[1:]), nil
}

// restoreDuplicateNames undoes gota's renaming of repeated headers
// ("BOROUGH" becomes "BOROUGH_0", "BOROUGH_1"). The first occurrence gets
// its plain name back and the rest keep their suffix.
func restoreDuplicateNames(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	groups := make(map[string][]int)
	var order []string
	for i, h := range header {
		j := strings.LastIndexByte(h, '_')
		if j <= 0 {
			continue
		}
		if _, err := strconv.Atoi(h[j+1:]); err != nil {
			continue
		}
		base := h[:j]
		if present[base] {
			continue
		}
		if _, seen := groups[base]; !seen {
			order = append(order, base)
		}
		groups[base] = append(groups[base], i)
	}

	out := append([]string(nil), header...)
	for _, base := range order {
		if idx := groups[base]; len(idx) > 1 {
			out[idx[0]] = base
		}
	}
	return out
}

// normaliseHeader collapses the line breaks and doubled spaces workbook
// headers tend to carry ("SALE\nPRICE").
func normaliseHeader(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
