package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"nyc-sales-report/models"
	"nyc-sales-report/utils"
)

const saleColumns = 9

// PostgresWriter persists each run's statistics and borough sales to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, pings it under retry,
// runs schema migrations, and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second}
	}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS report_runs (
			id           UUID         PRIMARY KEY,
			source       TEXT         NOT NULL DEFAULT '',
			borough      TEXT         NOT NULL,
			rows_loaded  INTEGER      NOT NULL DEFAULT 0,
			rows_cleaned INTEGER      NOT NULL DEFAULT 0,
			borough_rows INTEGER      NOT NULL DEFAULT 0,
			generated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS column_stats (
			run_id      UUID             NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
			position    INTEGER          NOT NULL,
			label       TEXT             NOT NULL,
			column_name TEXT             NOT NULL,
			minimum     DOUBLE PRECISION NOT NULL,
			maximum     DOUBLE PRECISION NOT NULL,
			average     DOUBLE PRECISION NOT NULL,
			sum         DOUBLE PRECISION NOT NULL,
			count       INTEGER          NOT NULL,
			PRIMARY KEY (run_id, label)
		);

		CREATE TABLE IF NOT EXISTS manhattan_sales (
			id                SERIAL           PRIMARY KEY,
			run_id            UUID             NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
			borough           INTEGER          NOT NULL,
			neighborhood      TEXT             NOT NULL DEFAULT '',
			address           TEXT             NOT NULL DEFAULT '',
			zip_code          DOUBLE PRECISION NOT NULL,
			gross_square_feet DOUBLE PRECISION NOT NULL,
			year_built        DOUBLE PRECISION NOT NULL,
			sale_price        DOUBLE PRECISION NOT NULL,
			sale_date         TEXT             NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_sales_run   ON manhattan_sales(run_id);
		CREATE INDEX IF NOT EXISTS idx_sales_price ON manhattan_sales(sale_price);
		CREATE INDEX IF NOT EXISTS idx_sales_zip   ON manhattan_sales(zip_code);
	`)
	return err
}

// Write stores one run: the report header, its column statistics and all
// sales, inside a single transaction. Sales are inserted in batches of 50.
func (pw *PostgresWriter) Write(report *models.InsightReport, sales []*models.Sale) error {
	if report == nil {
		return errors.New("postgres: nil report")
	}

	runID, err := runUUID(report)
	if err != nil {
		return err
	}

	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	if _, err := tx.Exec(`
		INSERT INTO report_runs (id, source, borough, rows_loaded, rows_cleaned, borough_rows, generated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, runID, report.Source, report.Borough, report.RowsLoaded, report.RowsCleaned, report.BoroughRows, generated); err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	for i, c := range report.Columns {
		if _, err := tx.Exec(`
			INSERT INTO column_stats (run_id, position, label, column_name, minimum, maximum, average, sum, count)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, runID, i, c.Label, c.Column, c.Stats.Minimum, c.Stats.Maximum, c.Stats.Average, c.Stats.Sum, c.Stats.Count); err != nil {
			return fmt.Errorf("postgres: insert stats %q: %w", c.Label, err)
		}
	}

	const batchSize = 50
	for i := 0; i < len(sales); i += batchSize {
		end := i + batchSize
		if end > len(sales) {
			end = len(sales)
		}
		if err := insertSales(tx, runID, sales[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertSales(tx *sql.Tx, runID uuid.UUID, batch []*models.Sale) error {
	args := make([]interface{}, 0, len(batch)*saleColumns)
	for _, s := range batch {
		args = append(args,
			runID, s.Borough, s.Neighborhood, s.Address,
			s.ZipCode, s.GrossSquareFeet, s.YearBuilt, s.SalePrice, s.SaleDate)
	}

	query := fmt.Sprintf(`
		INSERT INTO manhattan_sales
			(run_id, borough, neighborhood, address, zip_code, gross_square_feet, year_built, sale_price, sale_date)
		VALUES %s
	`, placeholders(len(batch), saleColumns))

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("postgres: insert sales: %w", err)
	}
	return nil
}

// placeholders returns rows groups of cols numbered parameters,
// e.g. "($1,$2),($3,$4)" for rows=2, cols=2.
func placeholders(rows, cols int) string {
	groups := make([]string, rows)
	params := make([]string, cols)
	for r := 0; r < rows; r++ {
		base := r * cols
		for c := 0; c < cols; c++ {
			params[c] = fmt.Sprintf("$%d", base+c+1)
		}
		groups[r] = "(" + strings.Join(params, ",") + ")"
	}
	return strings.Join(groups, ",")
}

func runUUID(report *models.InsightReport) (uuid.UUID, error) {
	if report.RunID == "" {
		return uuid.Nil, errors.New("postgres: report has no run id")
	}
	id, err := uuid.Parse(report.RunID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres: run id %q: %w", report.RunID, err)
	}
	return id, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchRun reads a stored run and its column statistics back. Columns are
// returned in the order they were reported.
func (pw *PostgresWriter) FetchRun(id string) (*models.InsightReport, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("postgres: run id %q: %w", id, err)
	}

	r := &models.InsightReport{RunID: runID.String()}
	err = pw.db.QueryRow(`
		SELECT source, borough, rows_loaded, rows_cleaned, borough_rows, generated_at
		FROM report_runs
		WHERE id = $1
	`, runID).Scan(&r.Source, &r.Borough, &r.RowsLoaded, &r.RowsCleaned, &r.BoroughRows, &r.GeneratedAt)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch run %s: %w", id, err)
	}

	rows, err := pw.db.Query(`
		SELECT label, column_name, minimum, maximum, average, sum, count
		FROM column_stats
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.ColumnInsight
		if err := rows.Scan(
			&c.Label, &c.Column,
			&c.Stats.Minimum, &c.Stats.Maximum, &c.Stats.Average, &c.Stats.Sum, &c.Stats.Count,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Columns = append(r.Columns, c)
	}
	return r, rows.Err()
}

// CheckRun compares a run read back from storage with the report that was
// written and describes the first difference.
func CheckRun(want, got *models.InsightReport) error {
	if got == nil {
		return fmt.Errorf("run %s: not stored", want.RunID)
	}
	if got.RowsCleaned != want.RowsCleaned || got.BoroughRows != want.BoroughRows {
		return fmt.Errorf("run %s: stored rows %d/%d, want %d/%d",
			want.RunID, got.RowsCleaned, got.BoroughRows, want.RowsCleaned, want.BoroughRows)
	}
	if len(got.Columns) != len(want.Columns) {
		return fmt.Errorf("run %s: stored %d columns, want %d", want.RunID, len(got.Columns), len(want.Columns))
	}
	for i, w := range want.Columns {
		g := got.Columns[i]
		if g.Label != w.Label || g.Stats != w.Stats {
			return fmt.Errorf("run %s: column %d stored as %s %+v, want %s %+v",
				want.RunID, i, g.Label, g.Stats, w.Label, w.Stats)
		}
	}
	return nil
}
