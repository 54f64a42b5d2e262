// Package watch re-runs the report when the input file changes or on a cron
// schedule. Triggers only start runs; runs themselves never overlap.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron"

	"nyc-sales-report/utils"
)

// RunFunc performs one complete report run.
type RunFunc func(ctx context.Context) error

// ErrClosed is returned by Trigger once the Serial has been closed.
var ErrClosed = errors.New("watch: runner closed")

// Serial wraps a RunFunc so that concurrent triggers queue up behind the
// run in progress instead of overlapping it.
type Serial struct {
	mu     sync.Mutex
	closed bool
	run    RunFunc
	logger *utils.Logger
}

func NewSerial(run RunFunc, logger *utils.Logger) *Serial {
	return &Serial{run: run, logger: logger}
}

// Trigger runs once, waiting for any earlier run to finish first. A failed
// run is logged and its error returned.
func (s *Serial) Trigger(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Info("[watch] Run triggered by %s", reason)
	start := time.Now()
	if err := s.run(ctx); err != nil {
		s.logger.Error("[watch] Run failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		return err
	}
	s.logger.Debug("[watch] Run finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// Close waits for the run in progress, if any, and makes every later
// Trigger return ErrClosed.
func (s *Serial) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// FileWatcher reports writes to a single file. It watches the parent
// directory so editors that replace the file are still seen.
type FileWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	lastMod time.Time
	logger  *utils.Logger
}

func NewFileWatcher(path string, logger *utils.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch: add %q: %w", filepath.Dir(abs), err)
	}

	fw := &FileWatcher{path: abs, watcher: watcher, logger: logger}
	if info, err := os.Stat(abs); err == nil {
		fw.lastMod = info.ModTime()
	}
	return fw, nil
}

// Watch calls handler, synchronously, each time the file is created or
// written with a newer modification time. It returns nil when ctx is done
// or the watcher is closed.
func (w *FileWatcher) Watch(ctx context.Context, handler func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if !info.ModTime().After(w.lastMod) {
				continue
			}
			w.lastMod = info.ModTime()
			w.logger.Debug("[watch] %s: %s", event.Op, w.path)
			handler(w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
	}
}

func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}

// Scheduler fires a job on a cron spec such as "@every 1h" or
// "0 30 6 * * *" (seconds first).
type Scheduler struct {
	spec   string
	cron   *cron.Cron
	logger *utils.Logger
}

func NewScheduler(spec string, job func(), logger *utils.Logger) (*Scheduler, error) {
	c := cron.New()
	if err := c.AddFunc(spec, job); err != nil {
		return nil, fmt.Errorf("watch: schedule %q: %w", spec, err)
	}
	return &Scheduler{spec: spec, cron: c, logger: logger}, nil
}

// Run starts the schedule and blocks until ctx is done. Stopping the cron
// does not wait for a job already running; when serial is non-nil Run
// closes it, which does.
func (s *Scheduler) Run(ctx context.Context, serial *Serial) {
	s.logger.Info("[schedule] Running on %q", s.spec)
	s.cron.Start()
	<-ctx.Done()
	s.cron.Stop()
	if serial != nil {
		serial.Close()
	}
	s.logger.Info("[schedule] Stopped")
}
