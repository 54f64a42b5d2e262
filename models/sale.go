package models

import "time"

// Sale is the typed view of one cleaned property-sale row.
type Sale struct {
	Borough         int
	Neighborhood    string
	Address         string
	ZipCode         float64
	GrossSquareFeet float64
	YearBuilt       float64
	SalePrice       float64
	SaleDate        string
}

// ColumnStats is the single-pass summary of one numeric column.
// Average is always Sum / Count and Count is never zero.
type ColumnStats struct {
	Minimum float64
	Maximum float64
	Sum     float64
	Average float64
	Count   int
}

// ColumnInsight ties a report label ("price", "sqft", ...) to the source
// column and its statistics.
type ColumnInsight struct {
	Label  string
	Column string
	Stats  ColumnStats
}

// InsightReport holds the computed analytics for one run over the dataset.
type InsightReport struct {
	RunID       string
	Source      string
	Borough     string
	RowsLoaded  int
	RowsCleaned int
	BoroughRows int
	Columns     []ColumnInsight
	GeneratedAt time.Time
}

// Column returns the insight for the given label, or nil.
func (r *InsightReport) Column(label string) *ColumnInsight {
	for i := range r.Columns {
		if r.Columns[i].Label == label {
			return &r.Columns[i]
		}
	}
	return nil
}
