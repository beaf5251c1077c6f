// Package drainwatcher provides file-based drain control for a lifecycle
// service. It watches a sentinel file; when the file appears the service is
// disconnected, and when it disappears the service is optionally driven
// back to Ready. Operators drain a node with `touch` and restore it with
// `rm`.
package drainwatcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/svclife/pkg/lifecycle"
	"github.com/bft-labs/svclife/pkg/log"
)

// ErrNoDrainFile is returned by Attach when no drain file path was configured.
var ErrNoDrainFile = errors.New("drain file path not configured")

// Config holds configuration options for the drain watcher.
type Config struct {
	// DrainFile is the sentinel file path. Its parent directory must exist.
	DrainFile string

	// DebounceDelay is the delay to wait after a file event before acting.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// Reconnect re-drives the service to Ready when the drain file is
	// removed. When false, removal is ignored and reconnection is left to
	// the caller.
	Reconnect bool
}

// DefaultConfig returns a Config with sensible defaults for the given
// drain file path.
func DefaultConfig(drainFile string) Config {
	return Config{
		DrainFile:     drainFile,
		DebounceDelay: 100 * time.Millisecond,
		Reconnect:     true,
	}
}

// Watcher monitors the drain file and applies drain state to a service.
type Watcher struct {
	mu sync.Mutex

	drainFile     string
	debounceDelay time.Duration
	reconnect     bool

	svc      *lifecycle.Service
	logger   log.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// New creates a drain watcher with the given configuration.
func New(cfg Config) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Watcher{
		drainFile:     cfg.DrainFile,
		debounceDelay: cfg.DebounceDelay,
		reconnect:     cfg.Reconnect,
	}
}

// Attach starts watching and applies the current drain state immediately,
// so a drain file that predates the watcher still takes effect. The watch
// runs until ctx is done or Close is called.
func (w *Watcher) Attach(ctx context.Context, svc *lifecycle.Service, logger log.Logger) error {
	if w.drainFile == "" {
		return ErrNoDrainFile
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.drainFile)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	w.svc = svc
	w.logger = logger
	w.cancel = cancel
	w.mu.Unlock()

	w.apply(watchCtx)

	w.wg.Add(1)
	go w.watchLoop(watchCtx, watcher)

	logger.Info("drain watcher attached", log.String("file", w.drainFile))
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer w.wg.Done()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.drainFile) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.debounceApply(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("drain watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) debounceApply(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, func() {
		w.apply(ctx)
	})
}

// apply reads the drain file's presence and moves the service accordingly.
func (w *Watcher) apply(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if w.drained() {
		w.logger.Info("drain file present, disconnecting")
		w.svc.Disconnect()
		return
	}
	if !w.reconnect || w.svc.IsReady() {
		return
	}
	w.logger.Info("drain file absent, restoring service")
	w.svc.Authenticate(ctx)
}

func (w *Watcher) drained() bool {
	_, err := os.Stat(w.drainFile)
	return err == nil
}
