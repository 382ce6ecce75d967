// Package logging provides category-scoped loggers for the engine.
// Every subsystem logs through a named child of one process-wide zap root.
// Until Init is called the root is a no-op, so library use stays silent
// unless the embedding binary opts in.
package logging

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies the subsystem a log line originates from.
type Category string

const (
	// CategorySelector covers registry lookups and strategy selection.
	CategorySelector Category = "selector"

	// CategoryStrategy covers direct-execution paths inside strategies.
	CategoryStrategy Category = "strategy"

	// CategoryCostModel covers estimation and calibration snapshots.
	CategoryCostModel Category = "costmodel"

	// CategoryEmit covers template resolution and code emission.
	CategoryEmit Category = "emit"

	// CategoryConfig covers configuration loading and hot reload.
	CategoryConfig Category = "config"

	// CategoryCalibrate covers benchmark runs and the sample store.
	CategoryCalibrate Category = "calibrate"

	// CategoryCLI covers command-line entry points.
	CategoryCLI Category = "cli"

	// CategoryUI covers the interactive explorer.
	CategoryUI Category = "ui"
)

var (
	mu    sync.RWMutex
	root  = zap.NewNop()
	named = make(map[Category]*zap.Logger)
)

// Init installs the process-wide root logger. Verbose lowers the level to
// debug. Call once at startup; later calls replace the root and drop the
// cached children.
func Init(verbose bool) error {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Install(logger)
	return nil
}

// Install replaces the root logger directly. Tests and embedders use this
// to route engine logs into their own cores.
func Install(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = logger
	named = make(map[Category]*zap.Logger)
}

// L returns the logger for a category. Children are cached per category.
func L(cat Category) *zap.Logger {
	mu.RLock()
	if lg, ok := named[cat]; ok {
		mu.RUnlock()
		return lg
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if lg, ok := named[cat]; ok {
		return lg
	}
	lg := root.Named(string(cat))
	named[cat] = lg
	return lg
}

// Sync flushes buffered log entries. Safe to call on a no-op root.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Timed logs the duration of an operation at debug level when the returned
// func runs. Usage: defer logging.Timed(logging.CategorySelector, "select")().
func Timed(cat Category, op string) func() {
	start := time.Now()
	return func() {
		L(cat).Debug("operation complete",
			zap.String("op", op),
			zap.Duration("elapsed", time.Since(start)))
	}
}
