package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loopforge/internal/engine"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	p, err := cfg.DefaultPlatform()
	require.NoError(t, err)
	assert.Equal(t, engine.PlatformDotnet, p)
	assert.Equal(t, 120*time.Second, cfg.GetBenchTimeout())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Calibration.Path, cfg.Calibration.Path)
}

func TestLoadOverlaysPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	content := []byte("selection:\n  default_platform: unity\ncalibration:\n  bench_rounds: 7\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "unity", cfg.Selection.DefaultPlatform)
	assert.Equal(t, 7, cfg.Calibration.BenchRounds)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultConfig().Logging.Level, cfg.Logging.Level)
	assert.Equal(t, DefaultConfig().Explorer.Theme, cfg.Explorer.Theme)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selection: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "forge.yaml")

	cfg := DefaultConfig()
	cfg.Selection.DefaultPlatform = "browser"
	cfg.Calibration.Watch = true
	cfg.Calibration.BenchSizes = []int{500, 5_000}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "browser", loaded.Selection.DefaultPlatform)
	assert.True(t, loaded.Calibration.Watch)
	assert.Equal(t, []int{500, 5_000}, loaded.Calibration.BenchSizes)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("FORGE_PLATFORM overrides the default platform", func(t *testing.T) {
		t.Setenv("FORGE_PLATFORM", "server")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "server", cfg.Selection.DefaultPlatform)
	})

	t.Run("FORGE_CORES must be a positive integer", func(t *testing.T) {
		t.Setenv("FORGE_CORES", "12")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 12, cfg.Selection.DefaultCores)

		t.Setenv("FORGE_CORES", "lots")
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 0, cfg.Selection.DefaultCores)
	})

	t.Run("FORGE_CALIBRATION and FORGE_SAMPLES relocate data files", func(t *testing.T) {
		t.Setenv("FORGE_CALIBRATION", "/etc/forge/cal.yaml")
		t.Setenv("FORGE_SAMPLES", "/var/forge/samples.db")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/etc/forge/cal.yaml", cfg.Calibration.Path)
		assert.Equal(t, "/var/forge/samples.db", cfg.Calibration.SamplePath)
	})

	t.Run("env overrides apply on top of a loaded file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "forge.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: warn\n"), 0644))
		t.Setenv("FORGE_LOG_LEVEL", "debug")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Selection.DefaultPlatform = "vax"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Calibration.BenchRounds = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Calibration.BenchSizes = []int{1000, -5}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Explorer.Theme = "solarized"
	assert.Error(t, cfg.Validate())
}

func TestGetBenchTimeoutFallsBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Calibration.BenchTimeout = "not a duration"
	assert.Equal(t, 120*time.Second, cfg.GetBenchTimeout())
}
