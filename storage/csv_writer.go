package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"nyc-sales-report/models"
)

// CSVWriter writes the cleaned borough sales to a CSV file.
// Every Write replaces the file. It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares a writer for path. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

// Write truncates the CSV file and writes the header followed by one row per sale.
func (c *CSVWriter) Write(_ *models.InsightReport, sales []*models.Sale) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(saleHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, s := range sales {
		if err := w.Write(saleRecord(s)); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// Close is a no-op; the file is closed after every Write.
func (c *CSVWriter) Close() error { return nil }

func saleRecord(s *models.Sale) []string {
	return []string{
		strconv.Itoa(s.Borough),
		s.Neighborhood,
		s.Address,
		formatNumber(s.ZipCode),
		formatNumber(s.GrossSquareFeet),
		formatNumber(s.YearBuilt),
		formatNumber(s.SalePrice),
		s.SaleDate,
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
