package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"nyc-sales-report/dataset"
	"nyc-sales-report/models"
	"nyc-sales-report/utils"
)

// Pipeline runs cleaning and aggregation over one loaded dataset.
type Pipeline struct {
	logger   *utils.Logger
	cleaner  *Cleaner
	insights *InsightService
}

func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{
		logger:   logger,
		cleaner:  NewCleaner(logger),
		insights: NewInsightService(logger),
	}
}

// Insights exposes the service so callers can print with it.
func (p *Pipeline) Insights() *InsightService { return p.insights }

// Run cleans ds in place and computes the report. Callers that still need
// the uncleaned rows must pass ds.Copy().
func (p *Pipeline) Run(source string, ds *dataset.Dataset) (*models.InsightReport, error) {
	loaded := ds.Len()

	if _, err := p.cleaner.Clean(ds); err != nil {
		return nil, err
	}

	report, err := p.insights.Generate(ds)
	if err != nil {
		return nil, fmt.Errorf("generate insights: %w", err)
	}

	report.RunID = uuid.NewString()
	report.Source = source
	report.RowsLoaded = loaded
	report.RowsCleaned = ds.Len()
	report.GeneratedAt = time.Now()

	p.logger.Info("[pipeline] %s: %d loaded, %d after cleaning, %d in %s",
		source, report.RowsLoaded, report.RowsCleaned, report.BoroughRows, report.Borough)
	return report, nil
}
