// Package playwright adapts the Playwright automation driver to the browser
// ports. Sessions launch the installed Edge (chromium channel "msedge")
// against a persistent user-data directory.
package playwright

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/kverel/edge-search-cli/internal/ports"
)

type Driver struct {
	logger *zap.Logger
	rng    *rand.Rand

	mu      sync.Mutex
	runtime *pw.Playwright
}

var _ ports.BrowserDriver = (*Driver)(nil)

func NewDriver(logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Driver{
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func runOptions() *pw.RunOptions {
	// Driver chatter would corrupt the interactive prompts.
	return &pw.RunOptions{
		SkipInstallBrowsers: true,
		Verbose:             false,
		Stdout:              io.Discard,
		Stderr:              io.Discard,
	}
}

// Install downloads the Playwright driver runtime. Browsers are not
// downloaded: sessions run the locally installed Edge.
func Install() error {
	if err := pw.Install(runOptions()); err != nil {
		return fmt.Errorf("install playwright driver: %w", err)
	}

	return nil
}

func (d *Driver) start() (*pw.Playwright, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runtime != nil {
		return d.runtime, nil
	}

	runtime, err := pw.Run(runOptions())
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	d.runtime = runtime

	return runtime, nil
}

func (d *Driver) LaunchPersistent(ctx context.Context, userDataDir string, opts ports.LaunchOptions) (ports.BrowserSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime, err := d.start()
	if err != nil {
		return nil, err
	}

	launchOpts := pw.BrowserTypeLaunchPersistentContextOptions{
		Headless: pw.Bool(opts.Headless),
		Args:     opts.Args,
	}
	if opts.Channel != "" {
		launchOpts.Channel = pw.String(opts.Channel)
	}

	browser, err := runtime.Chromium.LaunchPersistentContext(userDataDir, launchOpts)
	if err != nil {
		return nil, fmt.Errorf("launch persistent context: %w", err)
	}

	d.logger.Info("browser session launched",
		zap.String("user_data_dir", userDataDir),
		zap.String("channel", opts.Channel),
		zap.Bool("headless", opts.Headless))

	return &session{browser: browser, logger: d.logger, rng: d.rng}, nil
}

// Shutdown stops the Playwright runtime. Safe to call without a prior launch.
func (d *Driver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.runtime == nil {
		return nil
	}

	err := d.runtime.Stop()
	d.runtime = nil
	if err != nil {
		return fmt.Errorf("stop playwright: %w", err)
	}

	return nil
}
