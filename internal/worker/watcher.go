// Package worker runs long-lived loops around the sync service: the watch
// loop that repeats sync passes and the handler for note events.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rizesync/internal/cache"
	"rizesync/internal/log"
	"rizesync/internal/services"
)

// Runner executes one sync pass. Implemented by services.SyncService.
type Runner interface {
	Run(ctx context.Context, req services.SyncRequest) (services.RunSummary, error)
}

// WatcherConfig holds configuration for the watch loop
type WatcherConfig struct {
	// Interval is the time between the start of two passes (default: 1h)
	Interval time.Duration

	// Request is repeated on every pass
	Request services.SyncRequest
}

// DefaultWatcherConfig returns sensible defaults
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{Interval: time.Hour}
}

// Watcher repeats sync passes on a ticker. Passes never overlap: a tick
// that fires during a pass is dropped by the ticker.
type Watcher struct {
	runner  Runner
	sweeper *cache.Sweeper
	config  WatcherConfig
	log     *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	passes  int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a new watcher. sweeper may be nil.
func NewWatcher(runner Runner, sweeper *cache.Sweeper, config WatcherConfig) *Watcher {
	if config.Interval <= 0 {
		config.Interval = DefaultWatcherConfig().Interval
	}
	return &Watcher{
		runner:  runner,
		sweeper: sweeper,
		config:  config,
		log:     log.Default(log.ComponentWorker),
	}
}

// Start begins the watch loop. Returns an error if already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher is already running")
	}
	w.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stopCh, doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stopCh, doneCh)

	w.log.InfoContext(ctx, "Watcher started",
		"interval", w.config.Interval,
		log.FieldMode, w.config.Request.Mode)

	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	// A Stop that timed out already closed stopCh; later calls only wait.
	stopCh, doneCh := w.stopCh, w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
	}

	select {
	case <-doneCh:
		w.log.InfoContext(ctx, "Watcher stopped gracefully")
	case <-ctx.Done():
		w.log.WarnContext(ctx, "Watcher stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// Done is closed when the loop has exited, either through Stop or through
// cancellation of the context passed to Start.
func (w *Watcher) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doneCh
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Passes returns the number of completed passes.
func (w *Watcher) Passes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.passes
}

func (w *Watcher) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	// Run immediately on startup
	w.runPass(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runPass(ctx)
		}
	}
}

func (w *Watcher) runPass(ctx context.Context) {
	if w.sweeper != nil {
		if n := w.sweeper.Sweep(); n > 0 {
			w.log.DebugContext(ctx, "Evicted expired cache entries", "count", n)
		}
	}

	sum, err := w.runner.Run(ctx, w.config.Request)
	if err != nil {
		w.log.ErrorContext(ctx, "Sync pass aborted", log.FieldError, err)
	} else if sum.HasFailures() {
		w.log.WarnContext(ctx, "Sync pass finished with failures",
			log.FieldRunID, sum.RunID,
			log.FieldFailed, sum.Failed)
	}

	w.mu.Lock()
	w.passes++
	w.mu.Unlock()
}
