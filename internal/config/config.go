// Package config holds the engine configuration: selection defaults,
// calibration file locations, emission toggles, and logging. Configuration
// is a YAML file; a missing file means defaults, and a handful of
// environment variables override file values for containerized runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"loopforge/internal/engine"
)

// Config holds all forge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Selection defaults
	Selection SelectionConfig `yaml:"selection"`

	// Cost-model calibration
	Calibration CalibrationConfig `yaml:"calibration"`

	// Code emission defaults
	Emission EmissionConfig `yaml:"emission"`

	// Interactive explorer
	Explorer ExplorerConfig `yaml:"explorer"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SelectionConfig sets the context defaults commands fall back to when a
// flag is not given.
type SelectionConfig struct {
	// DefaultPlatform is the target platform when none is specified.
	DefaultPlatform string `yaml:"default_platform"`

	// DefaultCores is the assumed core count; 0 resolves from the host.
	DefaultCores int `yaml:"default_cores"`
}

// CalibrationConfig locates the cost-model inputs.
type CalibrationConfig struct {
	// Path is the calibration YAML; missing means built-in defaults.
	Path string `yaml:"path"`

	// SamplePath is the SQLite store for measured benchmark samples.
	SamplePath string `yaml:"sample_path"`

	// Watch enables hot reload of the calibration file.
	Watch bool `yaml:"watch"`

	// BenchSizes are the element counts the calibrate command measures.
	BenchSizes []int `yaml:"bench_sizes"`

	// BenchRounds is how many measurements to take per size.
	BenchRounds int `yaml:"bench_rounds"`

	// BenchTimeout bounds a full calibration run.
	BenchTimeout string `yaml:"bench_timeout"`
}

// EmissionConfig sets the default guard toggles for emitted fragments.
type EmissionConfig struct {
	NullGuard   bool   `yaml:"null_guard"`
	BoundsCheck bool   `yaml:"bounds_check"`
	OutputDir   string `yaml:"output_dir"`
}

// ExplorerConfig configures the interactive explorer.
type ExplorerConfig struct {
	// Theme selects the color scheme: dark or light.
	Theme string `yaml:"theme"`

	// InitialCount seeds the element count when the explorer opens.
	InitialCount int `yaml:"initial_count"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "loopforge",
		Version: "0.3.0",

		Selection: SelectionConfig{
			DefaultPlatform: string(engine.PlatformDotnet),
			DefaultCores:    0,
		},

		Calibration: CalibrationConfig{
			Path:         "data/calibration.yaml",
			SamplePath:   "data/samples.db",
			Watch:        false,
			BenchSizes:   []int{1_000, 10_000, 100_000},
			BenchRounds:  3,
			BenchTimeout: "120s",
		},

		Emission: EmissionConfig{
			NullGuard:   false,
			BoundsCheck: false,
			OutputDir:   ".",
		},

		Explorer: ExplorerConfig{
			Theme:        "dark",
			InitialCount: 10_000,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a present but malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("FORGE_PLATFORM"); p != "" {
		c.Selection.DefaultPlatform = p
	}
	if cores := os.Getenv("FORGE_CORES"); cores != "" {
		if n, err := strconv.Atoi(cores); err == nil && n > 0 {
			c.Selection.DefaultCores = n
		}
	}
	if path := os.Getenv("FORGE_CALIBRATION"); path != "" {
		c.Calibration.Path = path
	}
	if path := os.Getenv("FORGE_SAMPLES"); path != "" {
		c.Calibration.SamplePath = path
	}
	if level := os.Getenv("FORGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetBenchTimeout returns the calibration run timeout as a duration.
func (c *Config) GetBenchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Calibration.BenchTimeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// DefaultPlatform parses the configured default platform.
func (c *Config) DefaultPlatform() (engine.Platform, error) {
	return engine.ParsePlatform(c.Selection.DefaultPlatform)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.DefaultPlatform(); err != nil {
		return fmt.Errorf("selection.default_platform: %w", err)
	}
	if c.Calibration.BenchRounds < 1 {
		return fmt.Errorf("calibration.bench_rounds must be at least 1, got %d", c.Calibration.BenchRounds)
	}
	for _, n := range c.Calibration.BenchSizes {
		if n <= 0 {
			return fmt.Errorf("calibration.bench_sizes entries must be positive, got %d", n)
		}
	}
	switch c.Explorer.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("explorer.theme must be dark or light, got %q", c.Explorer.Theme)
	}
	return nil
}
