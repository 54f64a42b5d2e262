package services

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nyc-sales-report/dataset"
	"nyc-sales-report/models"
	"nyc-sales-report/utils"
)

// ErrEmptyInput is matched by every *EmptyInputError.
var ErrEmptyInput = errors.New("no values to aggregate")

// EmptyInputError reports an aggregation over zero values, typically a
// borough filter that matched nothing.
type EmptyInputError struct {
	Column  string
	Borough string
}

func (e *EmptyInputError) Error() string {
	if e.Column == "" {
		return "insights: " + ErrEmptyInput.Error()
	}
	return fmt.Sprintf("insights: column %q has no %s rows: %v", e.Column, e.Borough, ErrEmptyInput)
}

func (e *EmptyInputError) Unwrap() error { return ErrEmptyInput }

// Metric is one monitored column and the label it is reported under.
type Metric struct {
	Label  string
	Column string
}

// Metrics are reported in this order.
var Metrics = []Metric{
	{Label: "price", Column: dataset.ColumnSalePrice},
	{Label: "sqft", Column: dataset.ColumnGrossSquareFeet},
	{Label: "zip code", Column: dataset.ColumnZipCode},
	{Label: "year built", Column: dataset.ColumnYearBuilt},
}

// Aggregate computes minimum, maximum, sum and average in one pass.
// An empty slice is an *EmptyInputError.
func Aggregate(values []float64) (models.ColumnStats, error) {
	if len(values) == 0 {
		return models.ColumnStats{}, &EmptyInputError{}
	}

	stats := models.ColumnStats{Minimum: values[0], Maximum: values[0]}
	for _, v := range values {
		if v < stats.Minimum {
			stats.Minimum = v
		}
		if v > stats.Maximum {
			stats.Maximum = v
		}
		stats.Sum += v
	}
	stats.Count = len(values)
	stats.Average = stats.Sum / float64(stats.Count)
	return stats, nil
}

// InsightService turns a cleaned Dataset into an InsightReport for one borough.
type InsightService struct {
	logger  *utils.Logger
	borough dataset.Borough
}

// NewInsightService creates an InsightService reporting on Manhattan.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, borough: dataset.Manhattan}
}

// Borough is the borough the service reports on.
func (s *InsightService) Borough() dataset.Borough { return s.borough }

// Generate filters each monitored column to the service's borough, parses it
// and aggregates it. The first parse or empty-input failure aborts.
func (s *InsightService) Generate(ds *dataset.Dataset) (*models.InsightReport, error) {
	report := &models.InsightReport{
		Borough: s.borough.String(),
		Columns: make([]models.ColumnInsight, 0, len(Metrics)),
	}

	for _, m := range Metrics {
		values, err := ds.BoroughFloats(s.borough, m.Column)
		if err != nil {
			return nil, err
		}
		report.BoroughRows = len(values)

		stats, err := Aggregate(values)
		if err != nil {
			return nil, &EmptyInputError{Column: m.Column, Borough: s.borough.String()}
		}

		s.logger.Debug("[insights] %s: %d values, min %v max %v",
			m.Column, stats.Count, stats.Minimum, stats.Maximum)
		report.Columns = append(report.Columns, models.ColumnInsight{
			Label:  m.Label,
			Column: m.Column,
			Stats:  stats,
		})
	}

	return report, nil
}

// Print writes one block per monitored column.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) error {
	for _, c := range r.Columns {
		if _, err := io.WriteString(w, FormatBlock(c.Label, c.Stats)); err != nil {
			return err
		}
	}
	return nil
}

// FormatBlock renders the report block for one column, framed by dashed
// lines whose width follows the label length.
func FormatBlock(label string, stats models.ColumnStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-----------%s-----------\n", cases.Upper(language.English).String(label))
	fmt.Fprintf(&b, "The minimum %s is %s\n", label, formatFloat(stats.Minimum))
	fmt.Fprintf(&b, "The maximum %s is %s\n", label, formatFloat(stats.Maximum))
	fmt.Fprintf(&b, "The average %s is %s\n", label, formatFloat(stats.Average))
	fmt.Fprintf(&b, "The sum of the %ss is %s\n", label, formatFloat(stats.Sum))
	b.WriteString("----------------------" + strings.Repeat("-", len(label)) + "\n")
	b.WriteString("\n")
	return b.String()
}

// formatFloat prints the shortest representation that round-trips, always
// with a fractional part, switching to exponent form outside [1e-4, 1e16).
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
