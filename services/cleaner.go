package services

import (
	"fmt"

	"nyc-sales-report/dataset"
	"nyc-sales-report/utils"
)

// CleaningPass drops rows whose Column holds Marker.
type CleaningPass struct {
	Column string
	Marker dataset.Sentinel
}

// StandardPasses are the passes every run applies: no row may have a blank
// price or square footage, and year built and ZIP code cannot be 0.
var StandardPasses = []CleaningPass{
	{Column: dataset.ColumnGrossSquareFeet, Marker: dataset.DashMarker},
	{Column: dataset.ColumnSalePrice, Marker: dataset.DashMarker},
	{Column: dataset.ColumnYearBuilt, Marker: dataset.ZeroMarker},
	{Column: dataset.ColumnZipCode, Marker: dataset.ZeroMarker},
}

// Cleaner removes incomplete rows from a Dataset.
type Cleaner struct {
	logger *utils.Logger
	passes []CleaningPass
}

// NewCleaner creates a Cleaner running StandardPasses.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, passes: StandardPasses}
}

// NewCleanerWithPasses creates a Cleaner running the given passes instead.
func NewCleanerWithPasses(logger *utils.Logger, passes []CleaningPass) *Cleaner {
	return &Cleaner{logger: logger, passes: passes}
}

// Clean runs every pass against ds in place and returns the number of rows
// dropped. The passes are independent, so their order does not change the result.
func (c *Cleaner) Clean(ds *dataset.Dataset) (int, error) {
	before := ds.Len()

	for _, p := range c.passes {
		removed, err := ds.Clean(p.Marker, p.Column)
		if err != nil {
			return before - ds.Len(), fmt.Errorf("clean %q: %w", p.Column, err)
		}
		c.logger.Debug("[cleaner] %s == %s: dropped %d rows", p.Column, p.Marker, removed)
	}

	dropped := before - ds.Len()
	c.logger.Info("[cleaner] Cleaned %d → %d rows (dropped %d)", before, ds.Len(), dropped)
	return dropped, nil
}
