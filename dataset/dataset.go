// Package dataset holds the raw NYC rolling sales rows and the operations that
// shrink them: sentinel cleaning and borough selection.
package dataset

import (
	"errors"
	"strconv"
	"strings"

	"nyc-sales-report/models"
)

// Column names of the NYC rolling sales file. They are exact and case-sensitive.
const (
	ColumnBorough         = "BOROUGH"
	ColumnNeighborhood    = "NEIGHBORHOOD"
	ColumnAddress         = "ADDRESS"
	ColumnZipCode         = "ZIP CODE"
	ColumnGrossSquareFeet = "GROSS SQUARE FEET"
	ColumnYearBuilt       = "YEAR BUILT"
	ColumnSalePrice       = "SALE PRICE"
	ColumnSaleDate        = "SALE DATE"
)

// RequiredColumns must all be present for a file to be usable.
var RequiredColumns = []string{
	ColumnBorough,
	ColumnSalePrice,
	ColumnGrossSquareFeet,
	ColumnYearBuilt,
	ColumnZipCode,
}

// Dataset is an ordered set of rows of raw string cells under one header.
// Cleaning removes rows in place; nothing ever adds them.
type Dataset struct {
	header []string
	index  map[string]int
	rows   [][]string
}

// FromRecords builds a Dataset from a header and its rows. Short rows are
// padded with empty cells and long rows are cut to the header width.
func FromRecords(header []string, rows [][]string) *Dataset {
	d := &Dataset{
		header: append([]string(nil), header...),
		index:  make(map[string]int, len(header)),
		rows:   make([][]string, 0, len(rows)),
	}
	for i, name := range d.header {
		if _, dup := d.index[name]; !dup {
			d.index[name] = i
		}
	}
	for _, r := range rows {
		row := make([]string, len(d.header))
		copy(row, r)
		d.rows = append(d.rows, row)
	}
	return d
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the header.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.header...)
}

// HasColumn reports whether the header contains name.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// RequireColumns returns a *MissingColumnError for the first absent column.
func (d *Dataset) RequireColumns(columns ...string) error {
	for _, c := range columns {
		if !d.HasColumn(c) {
			return &MissingColumnError{Column: c}
		}
	}
	return nil
}

// Copy returns a Dataset whose row set can be cleaned without touching d.
// Rows themselves are never modified, so they are shared.
func (d *Dataset) Copy() *Dataset {
	c := &Dataset{
		header: append([]string(nil), d.header...),
		index:  make(map[string]int, len(d.index)),
		rows:   append([][]string(nil), d.rows...),
	}
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

// Column returns every value of the named column in row order.
func (d *Dataset) Column(name string) ([]string, error) {
	idx, err := d.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(d.rows))
	for i, row := range d.rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Records returns the header followed by every row, ready for a CSV or XLSX writer.
func (d *Dataset) Records() [][]string {
	out := make([][]string, 0, len(d.rows)+1)
	out = append(out, d.Columns())
	for _, row := range d.rows {
		out = append(out, append([]string(nil), row...))
	}
	return out
}

// Clean drops every row whose cell in column matches the sentinel and
// returns how many were dropped. Matching rows are marked during a single
// scan and removed afterwards, so the survivors keep their order.
func (d *Dataset) Clean(s Sentinel, column string) (int, error) {
	idx, err := d.columnIndex(column)
	if err != nil {
		return 0, err
	}

	marked := make([]bool, len(d.rows))
	removed := 0
	for i, row := range d.rows {
		if s.Matches(row[idx]) {
			marked[i] = true
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	kept := d.rows[:0]
	for i, row := range d.rows {
		if !marked[i] {
			kept = append(kept, row)
		}
	}
	for i := len(kept); i < len(d.rows); i++ {
		d.rows[i] = nil
	}
	d.rows = kept
	return removed, nil
}

// FilterByBorough returns the values of column for rows in borough b, in row
// order. The result is empty, not nil, when nothing matches.
func (d *Dataset) FilterByBorough(b Borough, column string) ([]string, error) {
	bIdx, err := d.columnIndex(ColumnBorough)
	if err != nil {
		return nil, err
	}
	idx, err := d.columnIndex(column)
	if err != nil {
		return nil, err
	}

	values := make([]string, 0)
	for _, row := range d.rows {
		if b.Matches(row[bIdx]) {
			values = append(values, row[idx])
		}
	}
	return values, nil
}

// BoroughFloats parses column for the rows of borough b. A cell that is not
// a number is a *ParseError whose Row is the dataset row, as with Sales.
func (d *Dataset) BoroughFloats(b Borough, column string) ([]float64, error) {
	raw, err := d.FilterByBorough(b, column)
	if err != nil {
		return nil, err
	}

	values, err := ParseFloats(column, raw)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Row = d.boroughRow(b, pe.Row)
		}
		return nil, err
	}
	return values, nil
}

// boroughRow maps the n-th row of borough b back to its dataset row.
func (d *Dataset) boroughRow(b Borough, n int) int {
	bIdx := d.index[ColumnBorough]
	for i, row := range d.rows {
		if !b.Matches(row[bIdx]) {
			continue
		}
		if n == 0 {
			return i
		}
		n--
	}
	return -1
}

// Sales converts the rows of borough b into typed records. Numeric columns
// that do not parse produce a *ParseError; optional text columns missing
// from the file are left empty.
func (d *Dataset) Sales(b Borough) ([]*models.Sale, error) {
	if err := d.RequireColumns(RequiredColumns...); err != nil {
		return nil, err
	}

	var (
		bIdx     = d.index[ColumnBorough]
		priceIdx = d.index[ColumnSalePrice]
		sqftIdx  = d.index[ColumnGrossSquareFeet]
		yearIdx  = d.index[ColumnYearBuilt]
		zipIdx   = d.index[ColumnZipCode]
	)

	sales := make([]*models.Sale, 0)
	for i, row := range d.rows {
		if !b.Matches(row[bIdx]) {
			continue
		}

		price, err := parseCell(ColumnSalePrice, i, row[priceIdx])
		if err != nil {
			return nil, err
		}
		sqft, err := parseCell(ColumnGrossSquareFeet, i, row[sqftIdx])
		if err != nil {
			return nil, err
		}
		year, err := parseCell(ColumnYearBuilt, i, row[yearIdx])
		if err != nil {
			return nil, err
		}
		zip, err := parseCell(ColumnZipCode, i, row[zipIdx])
		if err != nil {
			return nil, err
		}

		sales = append(sales, &models.Sale{
			Borough:         int(b),
			Neighborhood:    d.optional(row, ColumnNeighborhood),
			Address:         d.optional(row, ColumnAddress),
			ZipCode:         zip,
			GrossSquareFeet: sqft,
			YearBuilt:       year,
			SalePrice:       price,
			SaleDate:        d.optional(row, ColumnSaleDate),
		})
	}
	return sales, nil
}

// ParseFloats converts raw cells of one column to numbers. Surrounding
// whitespace is ignored; anything else that is not a number is a *ParseError
// whose Row is the position in raw.
func ParseFloats(column string, raw []string) ([]float64, error) {
	values := make([]float64, len(raw))
	for i, cell := range raw {
		v, err := parseCell(column, i, cell)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func parseCell(column string, row int, cell string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return 0, &ParseError{Column: column, Row: row, Value: cell, Err: err}
	}
	return v, nil
}

func (d *Dataset) columnIndex(name string) (int, error) {
	idx, ok := d.index[name]
	if !ok {
		return 0, &MissingColumnError{Column: name}
	}
	return idx, nil
}

func (d *Dataset) optional(row []string, column string) string {
	if idx, ok := d.index[column]; ok {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
