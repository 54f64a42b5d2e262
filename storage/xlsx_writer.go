package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"nyc-sales-report/models"
)

// Sheet names used by XLSXWriter.
const (
	StatsSheet = "Stats"
	SalesSheet = "Manhattan Sales"
)

var statsHeader = []interface{}{"label", "column", "minimum", "maximum", "average", "sum", "count"}

// XLSXWriter saves a workbook with the column statistics on one sheet and the
// borough sales on another. Every Write replaces the file.
type XLSXWriter struct {
	mu   sync.Mutex
	path string
}

// NewXLSXWriter prepares a writer for path, creating parent directories.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("xlsx: create output dir: %w", err)
	}
	return &XLSXWriter{path: path}, nil
}

func (x *XLSXWriter) Write(report *models.InsightReport, sales []*models.Sale) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), StatsSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := writeStats(f, report); err != nil {
		return err
	}

	if _, err := f.NewSheet(SalesSheet); err != nil {
		return fmt.Errorf("xlsx: add sheet: %w", err)
	}
	if err := writeSales(f, sales); err != nil {
		return err
	}

	if err := f.SaveAs(x.path); err != nil {
		return fmt.Errorf("xlsx: save %q: %w", x.path, err)
	}
	return nil
}

// Close is a no-op; the workbook is saved and closed by Write.
func (x *XLSXWriter) Close() error { return nil }

func writeStats(f *excelize.File, report *models.InsightReport) error {
	if err := setRow(f, StatsSheet, 1, statsHeader); err != nil {
		return err
	}
	if report == nil {
		return nil
	}
	for i, c := range report.Columns {
		row := []interface{}{
			c.Label, c.Column,
			c.Stats.Minimum, c.Stats.Maximum, c.Stats.Average, c.Stats.Sum, c.Stats.Count,
		}
		if err := setRow(f, StatsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSales(f *excelize.File, sales []*models.Sale) error {
	header := make([]interface{}, len(saleHeader))
	for i, h := range saleHeader {
		header[i] = h
	}
	if err := setRow(f, SalesSheet, 1, header); err != nil {
		return err
	}
	for i, s := range sales {
		row := []interface{}{
			s.Borough, s.Neighborhood, s.Address,
			s.ZipCode, s.GrossSquareFeet, s.YearBuilt, s.SalePrice,
			s.SaleDate,
		}
		if err := setRow(f, SalesSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write %s row %d: %w", sheet, row, err)
	}
	return nil
}
