package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func salesFixture() *Dataset {
	header := []string{"BOROUGH", "NEIGHBORHOOD", "ZIP CODE", "GROSS SQUARE FEET", "YEAR BUILT", "SALE PRICE"}
	return FromRecords(header, [][]string{
		{"1", "CHELSEA", "10011", "1200", "1920", "1500000"},
		{"2", "BATHGATE", "10457", " -  ", "1931", "450000"},
		{"1", "HARLEM-CENTRAL", "0", "900", "1899", "700000"},
		{"1", "SOHO", "10012", "2500", "0", " -  "},
		{"3", "BUSHWICK", "11237", "1800", "1910", "980000"},
		{"1", "TRIBECA", "10013", "3100", "2005", "5200000"},
	})
}

func TestCleanSingleScenario(t *testing.T) {
	d := FromRecords([]string{"sqft"}, [][]string{{" -  "}, {"500"}})

	removed, err := d.Clean(MissingText(" -  "), "sqft")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, [][]string{{"sqft"}, {"500"}}, d.Records())
}

func TestCleanRemovesOnlySentinelRowsInOrder(t *testing.T) {
	d := salesFixture()

	removed, err := d.Clean(DashMarker, ColumnGrossSquareFeet)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	neighborhoods, err := d.Column(ColumnNeighborhood)
	require.NoError(t, err)
	assert.Equal(t, []string{"CHELSEA", "HARLEM-CENTRAL", "SOHO", "BUSHWICK", "TRIBECA"}, neighborhoods)

	sqft, err := d.Column(ColumnGrossSquareFeet)
	require.NoError(t, err)
	assert.NotContains(t, sqft, " -  ")
}

func TestCleanIsIdempotent(t *testing.T) {
	d := salesFixture()

	_, err := d.Clean(ZeroMarker, ColumnZipCode)
	require.NoError(t, err)
	before := d.Records()

	removed, err := d.Clean(ZeroMarker, ColumnZipCode)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, before, d.Records())
}

func TestCleanOrderDoesNotMatter(t *testing.T) {
	type pass struct {
		s   Sentinel
		col string
	}
	passes := []pass{
		{DashMarker, ColumnGrossSquareFeet},
		{DashMarker, ColumnSalePrice},
		{ZeroMarker, ColumnYearBuilt},
		{ZeroMarker, ColumnZipCode},
	}

	forward := salesFixture()
	for _, p := range passes {
		_, err := forward.Clean(p.s, p.col)
		require.NoError(t, err)
	}

	backward := salesFixture()
	for i := len(passes) - 1; i >= 0; i-- {
		_, err := backward.Clean(passes[i].s, passes[i].col)
		require.NoError(t, err)
	}

	assert.Equal(t, forward.Records(), backward.Records())
	assert.Equal(t, 3, forward.Len())
}

func TestCleanUnknownColumn(t *testing.T) {
	d := salesFixture()

	_, err := d.Clean(DashMarker, "LOT SIZE")
	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "LOT SIZE", mce.Column)
	assert.Equal(t, 6, d.Len())
}

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		s    Sentinel
		cell string
		want bool
	}{
		{DashMarker, " -  ", true},
		{DashMarker, "-", false},
		{DashMarker, " - ", false},
		{DashMarker, "", false},
		{ZeroMarker, "0", true},
		{ZeroMarker, "0.0", true},
		{ZeroMarker, " 0 ", true},
		{ZeroMarker, "10", false},
		{ZeroMarker, "", false},
		{ZeroMarker, " -  ", false},
	}

	for _, tt := range tests {
		if got := tt.s.Matches(tt.cell); got != tt.want {
			t.Errorf("%s.Matches(%q) = %v; want %v", tt.s, tt.cell, got, tt.want)
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	d := salesFixture()
	c := d.Copy()

	_, err := c.Clean(ZeroMarker, ColumnYearBuilt)
	require.NoError(t, err)

	assert.Equal(t, 6, d.Len())
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, salesFixture().Records(), d.Records())
}

func TestFilterByBoroughScenario(t *testing.T) {
	d := FromRecords([]string{"BOROUGH", "SALE PRICE"}, [][]string{
		{"1", "100"},
		{"2", "200"},
		{"1", "300"},
	})

	got, err := d.FilterByBorough(Manhattan, ColumnSalePrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "300"}, got)
}

func TestFilterByBoroughNoMatches(t *testing.T) {
	d := FromRecords([]string{"BOROUGH", "SALE PRICE"}, [][]string{{"2", "200"}})

	got, err := d.FilterByBorough(Manhattan, ColumnSalePrice)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterByBoroughNumericCell(t *testing.T) {
	d := FromRecords([]string{"BOROUGH", "SALE PRICE"}, [][]string{
		{"1.0", "10"},
		{" 1", "20"},
		{"11", "30"},
	})

	got, err := d.FilterByBorough(Manhattan, ColumnSalePrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20"}, got)
}

func TestFilterByBoroughMissingColumn(t *testing.T) {
	d := FromRecords([]string{"SALE PRICE"}, [][]string{{"1"}})

	_, err := d.FilterByBorough(Manhattan, ColumnSalePrice)
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, ColumnBorough, mce.Column)
}

func TestParseFloats(t *testing.T) {
	got, err := ParseFloats(ColumnSalePrice, []string{"100", " 250.5 ", "0"})
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 250.5, 0}, got)

	_, err = ParseFloats(ColumnSalePrice, []string{"100", " -  "})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ColumnSalePrice, pe.Column)
	assert.Equal(t, 1, pe.Row)
	assert.Equal(t, " -  ", pe.Value)
	assert.Contains(t, pe.Error(), "SALE PRICE")
}

func TestSalesTypedRows(t *testing.T) {
	d := salesFixture()
	for _, c := range []struct {
		s   Sentinel
		col string
	}{
		{DashMarker, ColumnGrossSquareFeet},
		{DashMarker, ColumnSalePrice},
		{ZeroMarker, ColumnYearBuilt},
		{ZeroMarker, ColumnZipCode},
	} {
		_, err := d.Clean(c.s, c.col)
		require.NoError(t, err)
	}

	sales, err := d.Sales(Manhattan)
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "CHELSEA", sales[0].Neighborhood)
	assert.Equal(t, 1500000.0, sales[0].SalePrice)
	assert.Equal(t, 10011.0, sales[0].ZipCode)
	assert.Equal(t, "TRIBECA", sales[1].Neighborhood)
	assert.Equal(t, 2005.0, sales[1].YearBuilt)
	assert.Equal(t, "", sales[1].Address)
}

func TestSalesParseError(t *testing.T) {
	d := salesFixture()

	_, err := d.Sales(Manhattan)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, ColumnSalePrice, pe.Column)
}

func TestReadCSV(t *testing.T) {
	input := ",BOROUGH,NEIGHBORHOOD,ZIP CODE,GROSS SQUARE FEET,YEAR BUILT,SALE PRICE\n" +
		"4,1,ALPHABET CITY,10009,6440,1900,6625000\n" +
		"5,1,ALPHABET CITY,10009, -  ,1900, -  \n" +
		"6,2,BATHGATE,10457,2000,0,120000\n"

	d, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.NoError(t, d.RequireColumns(RequiredColumns...))
	assert.Equal(t, 3, d.Len())

	price, err := d.Column(ColumnSalePrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"6625000", " -  ", "120000"}, price)

	assert.NotContains(t, d.Columns(), "")
}

func TestLoadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("BOROUGH,SALE PRICE\n1,100\n"), 0o644))

	_, err := Load(path, "")
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, ColumnGrossSquareFeet, mce.Column)
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	content := "BOROUGH,ZIP CODE,GROSS SQUARE FEET,YEAR BUILT,SALE PRICE\n" +
		"1,10009,6440,1900,6625000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())
}

func TestReadXLSXSkipsTitleRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Manhattan Rolling Sales File"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{
		"BOROUGH", "NEIGHBORHOOD", "ZIP CODE", "GROSS SQUARE\nFEET", "YEAR BUILT", "SALE PRICE",
	}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]interface{}{1, "CHELSEA", 10011, 1200, 1920, 1500000}))
	require.NoError(t, f.SetSheetRow(sheet, "A5", &[]interface{}{1, "SOHO", 10012, 2500, 1910, 2750000}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	d, err := ReadXLSX(buf, "")
	require.NoError(t, err)
	require.NoError(t, d.RequireColumns(RequiredColumns...))
	assert.Equal(t, 2, d.Len())

	got, err := d.FilterByBorough(Manhattan, ColumnSalePrice)
	require.NoError(t, err)
	assert.Equal(t, []string{"1500000", "2750000"}, got)
}

func TestBoroughString(t *testing.T) {
	assert.Equal(t, "Manhattan", Manhattan.String())
	assert.Equal(t, "Staten Island", StatenIsland.String())
	assert.Equal(t, "Borough(9)", Borough(9).String())
}

func TestLoadHeaderOnlyMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("BOROUGH,SALE PRICE\n"), 0o644))

	_, err := Load(path, "")
	var mce *MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, ColumnGrossSquareFeet, mce.Column)
}

func TestLoadHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	content := "BOROUGH,ZIP CODE,GROSS SQUARE FEET,YEAR BUILT,SALE PRICE\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())

	values, err := d.BoroughFloats(Manhattan, ColumnSalePrice)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestReadXLSXHeaderOnly(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{
		"BOROUGH", "ZIP CODE", "GROSS SQUARE FEET", "YEAR BUILT", "SALE PRICE",
	}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	d, err := ReadXLSX(buf, "")
	require.NoError(t, err)
	require.NoError(t, d.RequireColumns(RequiredColumns...))
	assert.Equal(t, 0, d.Len())
}

func TestLoadRepeatedColumnKeepsFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	content := "BOROUGH,ZIP CODE,GROSS SQUARE FEET,YEAR BUILT,SALE PRICE,BOROUGH\n" +
		"1,10009,6440,1900,6625000,3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := Load(path, "")
	require.NoError(t, err)

	boroughs, err := d.Column(ColumnBorough)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, boroughs)
}

func TestRestoreDuplicateNames(t *testing.T) {
	tests := []struct {
		in, want []string
	}{
		{[]string{"BOROUGH_0", "SALE PRICE", "BOROUGH_1"}, []string{"BOROUGH", "SALE PRICE", "BOROUGH_1"}},
		{[]string{"LOT_1", "SALE PRICE"}, []string{"LOT_1", "SALE PRICE"}},
		{[]string{"A", "A_0", "A_1"}, []string{"A", "A_0", "A_1"}},
		{[]string{"X0", "BOROUGH"}, []string{"X0", "BOROUGH"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, restoreDuplicateNames(tt.in), "restoreDuplicateNames(%q)", tt.in)
	}
}

func TestParseErrorRowIsDatasetRow(t *testing.T) {
	d := FromRecords(
		[]string{"BOROUGH", "ZIP CODE", "GROSS SQUARE FEET", "YEAR BUILT", "SALE PRICE"},
		[][]string{
			{"2", "10457", "2000", "1931", "oops"},
			{"1", "10009", "1000", "1900", "100"},
			{"1", "10012", "3000", "2000", "n/a"},
		},
	)

	_, err := d.BoroughFloats(Manhattan, ColumnSalePrice)
	var fromFloats *ParseError
	require.ErrorAs(t, err, &fromFloats)
	assert.Equal(t, 2, fromFloats.Row)
	assert.Equal(t, "n/a", fromFloats.Value)

	_, err = d.Sales(Manhattan)
	var fromSales *ParseError
	require.ErrorAs(t, err, &fromSales)
	assert.Equal(t, fromFloats.Row, fromSales.Row)
}
