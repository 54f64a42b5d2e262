package chart

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"nyc-sales-report/utils"
)

// Viewer puts a chart page in front of a browser: either a visible window
// (Show) or a headless screenshot (Capture).
type Viewer struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
	retry     *utils.RetryConfig
}

// NewViewer creates a Viewer. An empty chromeBin means look one up on PATH
// and in the usual install locations.
func NewViewer(chromeBin string, maxRetries int, logger *utils.Logger) *Viewer {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &Viewer{
		chromeBin: chromeBin,
		timeout:   30 * time.Second,
		logger:    logger,
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

func (v *Viewer) browser(parent context.Context, headless bool) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if v.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(v.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)

	// Suppress chromedp log noise
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return ctx, func() {
		cancelCtx()
		cancelAlloc()
	}
}

// Show opens page in a visible browser window and blocks until ctx is
// cancelled or the browser goes away.
func (v *Viewer) Show(ctx context.Context, page string) error {
	u, err := fileURL(page)
	if err != nil {
		return err
	}

	bctx, cancel := v.browser(ctx, false)
	defer cancel()

	if err := chromedp.Run(bctx, chromedp.Navigate(u)); err != nil {
		return fmt.Errorf("viewer: open %s: %w", u, err)
	}

	v.logger.Info("[viewer] Showing %s; press Ctrl+C to close", page)
	<-bctx.Done()
	return nil
}

// Capture renders page headless and returns a full-page PNG screenshot.
func (v *Viewer) Capture(ctx context.Context, page string) ([]byte, error) {
	u, err := fileURL(page)
	if err != nil {
		return nil, err
	}

	var shot []byte
	err = v.retry.DoContext(ctx, "capture-chart", func() error {
		bctx, cancel := v.browser(ctx, true)
		defer cancel()

		tctx, cancelTimeout := context.WithTimeout(bctx, v.timeout)
		defer cancelTimeout()

		return chromedp.Run(tctx,
			chromedp.EmulateViewport(1280, 960),
			chromedp.Navigate(u),
			chromedp.WaitVisible("#chart", chromedp.ByID),
			chromedp.FullScreenshot(&shot, 100),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("viewer: capture %s: %w", page, err)
	}
	return shot, nil
}

func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("viewer: resolve %q: %w", path, err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
