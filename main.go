package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nyc-sales-report/chart"
	"nyc-sales-report/config"
	"nyc-sales-report/dataset"
	"nyc-sales-report/models"
	"nyc-sales-report/services"
	"nyc-sales-report/storage"
	"nyc-sales-report/utils"
	"nyc-sales-report/watch"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	logger.Info("=== NYC Sales Report starting ===")
	logger.Info("Config: input %s | mode %s | chart %s/%s | retries %d",
		cfg.InputPath, cfg.RunMode, cfg.ChartKind, cfg.ChartFormat, cfg.MaxRetries)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	a := newApp(cfg, logger, os.Stdout)
	defer a.Close()

	switch cfg.RunMode {
	case config.ModeWatch:
		return a.watchInput(ctx)
	case config.ModeSchedule:
		return a.schedule(ctx)
	default:
		return a.runOnce(ctx)
	}
}

type sink struct {
	name   string
	writer storage.ReportWriter
}

// app holds everything a run needs. Runs are driven by runOnce and never
// overlap.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	out      io.Writer
	pipeline *services.Pipeline
	sinks    []sink
	viewer   *chart.Viewer
}

func newApp(cfg *config.Config, logger *utils.Logger, out io.Writer) *app {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		pipeline: services.NewPipeline(logger),
	}

	if cfg.CSVOutputPath != "" {
		if w, err := storage.NewCSVWriter(cfg.CSVOutputPath); err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
		} else {
			a.sinks = append(a.sinks, sink{"csv " + cfg.CSVOutputPath, w})
		}
	}

	if cfg.XLSXOutputPath != "" {
		if w, err := storage.NewXLSXWriter(cfg.XLSXOutputPath); err != nil {
			logger.Error("Failed to create XLSX writer: %v", err)
		} else {
			a.sinks = append(a.sinks, sink{"xlsx " + cfg.XLSXOutputPath, w})
		}
	}

	if cfg.PostgresEnabled {
		retry := &utils.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: 2 * time.Second, Logger: logger}
		if w, err := storage.NewPostgresWriter(cfg.DSN(), retry); err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure the database is running: docker compose up -d")
		} else {
			a.sinks = append(a.sinks, sink{"postgres " + cfg.PostgresDB, w})
		}
	}

	if cfg.ChartShow || cfg.ChartCapturePath != "" {
		a.viewer = chart.NewViewer(cfg.ChromeBin, cfg.MaxRetries, logger)
	}
	if cfg.ChartShow && cfg.RunMode != config.ModeOnce {
		logger.Warn("CHART_SHOW only applies to RUN_MODE=once; ignoring")
	}

	return a
}

func (a *app) Close() {
	for _, s := range a.sinks {
		if err := s.writer.Close(); err != nil {
			a.logger.Warn("Closing %s: %v", s.name, err)
		}
	}
}

// runOnce loads the input, prints the report, then feeds the exports and
// the chart. Only loading and reporting errors are returned.
func (a *app) runOnce(ctx context.Context) error {
	ds, err := dataset.Load(a.cfg.InputPath, a.cfg.SheetName)
	if err != nil {
		return err
	}
	a.logger.Info("Loaded %d rows from %s", ds.Len(), a.cfg.InputPath)

	report, err := a.pipeline.Run(a.cfg.InputPath, ds)
	if err != nil {
		return err
	}

	insights := a.pipeline.Insights()
	if err := insights.Print(a.out, report); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	sales, err := ds.Sales(insights.Borough())
	if err != nil {
		return err
	}

	a.export(report, sales)
	a.drawChart(ctx, report, sales)
	return nil
}

// export writes to every sink in parallel. Failures are logged only.
func (a *app) export(report *models.InsightReport, sales []*models.Sale) {
	pool := utils.NewWorkerPool(len(a.sinks))
	for _, s := range a.sinks {
		pool.Submit(func() error {
			if err := s.writer.Write(report, sales); err != nil {
				return fmt.Errorf("export to %s: %w", s.name, err)
			}
			a.logger.Info("Exported %d sales to %s", len(sales), s.name)

			rr, ok := s.writer.(storage.RunReader)
			if !ok {
				return nil
			}
			stored, err := rr.FetchRun(report.RunID)
			if err != nil {
				return fmt.Errorf("read back from %s: %w", s.name, err)
			}
			if err := storage.CheckRun(report, stored); err != nil {
				return fmt.Errorf("verify %s: %w", s.name, err)
			}
			a.logger.Info("Run %s verified in %s", report.RunID, s.name)
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		a.logger.Error("%v", err)
	}
}

func (a *app) drawChart(ctx context.Context, report *models.InsightReport, sales []*models.Sale) {
	if a.cfg.ChartPath == "" {
		return
	}

	kind, err := chart.ParseKind(a.cfg.ChartKind)
	if err != nil {
		a.logger.Error("%v", err)
		return
	}
	format, err := chart.ParseFormat(a.cfg.ChartFormat)
	if err != nil {
		a.logger.Error("%v", err)
		return
	}

	opts := chart.Options{Kind: kind, Format: format}
	var img bytes.Buffer
	if err := chart.Render(&img, sales, opts); err != nil {
		a.logger.Error("Chart render failed: %v", err)
		return
	}
	if err := writeFile(a.cfg.ChartPath, img.Bytes()); err != nil {
		a.logger.Error("Chart write failed: %v", err)
		return
	}
	a.logger.Info("Chart saved to %s", a.cfg.ChartPath)

	if a.cfg.ChartPagePath == "" {
		return
	}
	var page bytes.Buffer
	if err := chart.WritePage(&page, img.Bytes(), opts.Format, report); err != nil {
		a.logger.Error("Chart page failed: %v", err)
		return
	}
	if err := writeFile(a.cfg.ChartPagePath, page.Bytes()); err != nil {
		a.logger.Error("Chart page write failed: %v", err)
		return
	}
	a.logger.Info("Chart page saved to %s", a.cfg.ChartPagePath)

	if a.viewer == nil {
		return
	}

	if a.cfg.ChartCapturePath != "" {
		shot, err := a.viewer.Capture(ctx, a.cfg.ChartPagePath)
		if err != nil {
			a.logger.Error("Chart capture failed: %v", err)
		} else if err := writeFile(a.cfg.ChartCapturePath, shot); err != nil {
			a.logger.Error("Chart capture write failed: %v", err)
		} else {
			a.logger.Info("Chart screenshot saved to %s", a.cfg.ChartCapturePath)
		}
	}

	if a.cfg.ChartShow && a.cfg.RunMode == config.ModeOnce {
		if err := a.viewer.Show(ctx, a.cfg.ChartPagePath); err != nil {
			a.logger.Error("Chart display failed: %v", err)
		}
	}
}

// watchInput runs once, then again every time the input file is rewritten. A
// failed run is logged and watching continues.
func (a *app) watchInput(ctx context.Context) error {
	serial := watch.NewSerial(a.runOnce, a.logger)
	defer serial.Close()
	_ = serial.Trigger(ctx, "startup")

	fw, err := watch.NewFileWatcher(a.cfg.InputPath, a.logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	a.logger.Info("Watching %s for changes; press Ctrl+C to stop", a.cfg.InputPath)
	return fw.Watch(ctx, func(path string) {
		_ = serial.Trigger(ctx, "change to "+path)
	})
}

// schedule runs once, then on every tick of the configured cron spec.
func (a *app) schedule(ctx context.Context) error {
	serial := watch.NewSerial(a.runOnce, a.logger)
	_ = serial.Trigger(ctx, "startup")

	s, err := watch.NewScheduler(a.cfg.Schedule, func() {
		_ = serial.Trigger(ctx, "schedule")
	}, a.logger)
	if err != nil {
		return err
	}
	s.Run(ctx, serial)
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
