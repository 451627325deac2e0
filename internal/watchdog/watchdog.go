// Package watchdog drives the two independent periodic scans spec.md §4.H
// describes: a fast scan (zones, sectors, and doors/outputs when enabled)
// and a slower controller-status scan, sharing nothing but the session
// manager and cooperating through a single cancellation signal.
package watchdog

import (
	"context"
	"sync"
	"time"

	"github.com/firasghr/spc2mqtt/internal/logger"
)

// ScanFunc performs one tick of a scan. An error is logged once and the
// tick is skipped -- the snapshot is left unchanged, spec.md §4.H's "on
// fetch exception: log once, skip this tick, keep the snapshot unchanged."
type ScanFunc func(ctx context.Context) error

// Config holds the two tick intervals, spec.md §6's `watchdog:` block.
type Config struct {
	RefreshInterval           time.Duration
	ControllerRefreshInterval time.Duration
}

// Watchdog runs the fast scan and the controller scan on independent
// tickers until its context is cancelled.
type Watchdog struct {
	cfg            Config
	log            *logger.Logger
	fastScan       ScanFunc
	controllerScan ScanFunc
}

// New builds a Watchdog. fastScan and controllerScan must not block beyond
// the HTTP client's own per-request timeout.
func New(cfg Config, log *logger.Logger, fastScan, controllerScan ScanFunc) *Watchdog {
	return &Watchdog{cfg: cfg, log: log, fastScan: fastScan, controllerScan: controllerScan}
}

// Run blocks until ctx is cancelled, driving both loops concurrently. On
// cancellation it waits for any in-flight tick to finish its current HTTP
// call before returning, per spec.md §5's cooperative-cancellation contract.
func (w *Watchdog) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go w.loop(ctx, &wg, "fast scan", w.cfg.RefreshInterval, w.fastScan)
	go w.loop(ctx, &wg, "controller scan", w.cfg.ControllerRefreshInterval, w.controllerScan)
	wg.Wait()
}

func (w *Watchdog) loop(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, fn ScanFunc) {
	defer wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				w.log.Errorf("watchdog: %s failed: %v", name, err)
			}
		}
	}
}
