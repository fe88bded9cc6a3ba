package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDefaultConfig verifies the shipped defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Greater(t, cfg.Processing.Workers, 0)
	require.Equal(t, 1.0, cfg.Preprocessing.Sigma)
	require.Equal(t, -0.5, cfg.Preprocessing.SigmoidAlpha)
	require.Equal(t, 3.0, cfg.Preprocessing.SigmoidBeta)
	require.Equal(t, 5.0, cfg.Segmentation.InitialDistance)
	require.Equal(t, 0.0, cfg.Segmentation.Threshold)
	require.Equal(t, 1.0, cfg.Evolution.CurvatureScale)
	require.Equal(t, 2.0, cfg.Evolution.PropagationScale)
	require.Equal(t, 1.0, cfg.Evolution.AdvectionScale)
	require.Equal(t, 800, cfg.Evolution.MaxIterations)
	require.Equal(t, 0.02, cfg.Evolution.MaxRMSError)
}

// TestLoadConfigMissingFile verifies that a missing file falls back to
// the defaults without error.
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

// TestSaveLoadRoundTrip verifies that a saved configuration reloads
// unchanged.
func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Processing.Workers = 3
	cfg.Preprocessing.Sigma = 2.5
	cfg.Evolution.MaxIterations = 150
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

// TestLoadConfigPartialFile verifies that fields absent from the file
// keep their default values.
func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	partial := "evolution:\n  maxIterations: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 42, cfg.Evolution.MaxIterations)
	require.Equal(t, DefaultConfig().Preprocessing.Sigma, cfg.Preprocessing.Sigma)
	require.Equal(t, DefaultConfig().Evolution.MaxRMSError, cfg.Evolution.MaxRMSError)
}

// TestLoadConfigMalformedFile verifies that invalid YAML is reported.
func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("evolution: [not: a, map"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

// TestCreateDefaultConfigFile verifies the convenience helper writes a
// loadable file.
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
