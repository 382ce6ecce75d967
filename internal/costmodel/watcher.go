package costmodel

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"loopforge/internal/logging"
)

// CalibrationWatcher reloads the calibration file when it changes on disk
// and swaps the new snapshot into an estimator. Estimates in flight keep
// the snapshot they loaded; selection purity is unaffected.
type CalibrationWatcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	estimator   *Estimator
	path        string
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatcherStats
}

// WatcherStats tracks reload activity for diagnostics.
type WatcherStats struct {
	EventsSeen    int
	Reloads       int
	ReloadErrors  int
	LastEventTime time.Time
	LastReloadAt  time.Time
}

// NewCalibrationWatcher creates a watcher for the calibration file at path.
// The parent directory is watched rather than the file itself, since most
// editors replace files on save.
func NewCalibrationWatcher(path string, estimator *Estimator) (*CalibrationWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	return &CalibrationWatcher{
		watcher:     watcher,
		estimator:   estimator,
		path:        abs,
		dir:         filepath.Dir(abs),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond, // Debounce rapid saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop is called or ctx is cancelled.
func (w *CalibrationWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		// Directory may not exist yet; reloads will start once it does
		// and an explicit Reload is still available.
		logging.L(logging.CategoryConfig).Warn("calibration watch failed",
			zap.String("dir", w.dir), zap.Error(err))
	} else {
		logging.L(logging.CategoryConfig).Info("watching calibration file",
			zap.String("path", w.path))
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *CalibrationWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.L(logging.CategoryConfig).Error("error closing calibration watcher", zap.Error(err))
	}
}

// run is the watcher event loop.
func (w *CalibrationWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.L(logging.CategoryConfig).Error("calibration watcher error", zap.Error(err))

		case <-debounceTicker.C:
			w.processDebounced()
		}
	}
}

// handleEvent records a settled-change candidate for the calibration file.
func (w *CalibrationWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.stats.EventsSeen++
	w.stats.LastEventTime = time.Now()
	w.debounceMap[w.path] = time.Now()
	w.mu.Unlock()
}

// processDebounced reloads once events have settled past the window.
func (w *CalibrationWatcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	ready := false
	if at, ok := w.debounceMap[w.path]; ok && now.Sub(at) >= w.debounceDur {
		delete(w.debounceMap, w.path)
		ready = true
	}
	w.mu.Unlock()

	if ready {
		w.Reload()
	}
}

// Reload loads the calibration file and swaps it into the estimator.
// Invalid files are rejected and the previous snapshot stays active.
func (w *CalibrationWatcher) Reload() {
	cal, err := LoadCalibration(w.path)
	if err != nil {
		w.mu.Lock()
		w.stats.ReloadErrors++
		w.mu.Unlock()
		logging.L(logging.CategoryConfig).Error("calibration reload rejected",
			zap.String("path", w.path), zap.Error(err))
		return
	}

	w.estimator.SetCalibration(cal)

	w.mu.Lock()
	w.stats.Reloads++
	w.stats.LastReloadAt = time.Now()
	w.mu.Unlock()
	logging.L(logging.CategoryConfig).Info("calibration reloaded", zap.String("path", w.path))
}

// Stats returns a copy of the watcher counters.
func (w *CalibrationWatcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is active.
func (w *CalibrationWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
