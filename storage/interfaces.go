package storage

import "nyc-sales-report/models"

// ReportWriter is the interface any export backend must satisfy. Write is
// called once per run with the finished report and the borough's sales.
type ReportWriter interface {
	Write(report *models.InsightReport, sales []*models.Sale) error
	Close() error
}

// RunReader is implemented by backends that can read a stored run back.
type RunReader interface {
	FetchRun(id string) (*models.InsightReport, error)
}

var (
	_ RunReader    = (*PostgresWriter)(nil)
	_ ReportWriter = (*CSVWriter)(nil)
	_ ReportWriter = (*XLSXWriter)(nil)
	_ ReportWriter = (*PostgresWriter)(nil)
)

// saleHeader is the column order used by the flat-file exports.
var saleHeader = []string{
	"BOROUGH", "NEIGHBORHOOD", "ADDRESS", "ZIP CODE",
	"GROSS SQUARE FEET", "YEAR BUILT", "SALE PRICE", "SALE DATE",
}
