// Package config provides configuration loading and management for
// levelsetseg. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// Workers specifies how many goroutines compute level-set
		// updates in parallel
		Workers int `yaml:"workers"`
	} `yaml:"processing"`

	// Preprocessing parameters for the edge-potential stages
	Preprocessing struct {
		// Sigma is the Gaussian smoothing width in cells
		Sigma float64 `yaml:"sigma"`

		// SigmoidAlpha is the slope of the sigmoid mapping gradient
		// magnitude to speed; negative values map edges toward zero
		SigmoidAlpha float64 `yaml:"sigmoidAlpha"`

		// SigmoidBeta is the center of the sigmoid mapping
		SigmoidBeta float64 `yaml:"sigmoidBeta"`
	} `yaml:"preprocessing"`

	// Segmentation parameters
	Segmentation struct {
		// InitialDistance is the radius of the initial contour around
		// the seed points
		InitialDistance float64 `yaml:"initialDistance"`

		// Threshold is the level-set cutoff of the final binary mask
		Threshold float64 `yaml:"threshold"`
	} `yaml:"segmentation"`

	// Evolution parameters for the level-set solver
	Evolution struct {
		// CurvatureScale weighs the smoothing force
		CurvatureScale float64 `yaml:"curvatureScale"`

		// PropagationScale weighs the outward inflation force
		PropagationScale float64 `yaml:"propagationScale"`

		// AdvectionScale weighs the edge-attraction force
		AdvectionScale float64 `yaml:"advectionScale"`

		// MaxIterations caps the number of evolution steps
		MaxIterations int `yaml:"maxIterations"`

		// MaxRMSError is the convergence threshold on the RMS change
		MaxRMSError float64 `yaml:"maxRMSError"`
	} `yaml:"evolution"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.Workers = runtime.NumCPU() // Use all available cores by default

	// Set default preprocessing parameters; these mirror the classic
	// brain-slice segmentation settings
	cfg.Preprocessing.Sigma = 1.0
	cfg.Preprocessing.SigmoidAlpha = -0.5
	cfg.Preprocessing.SigmoidBeta = 3.0

	// Set default segmentation parameters
	cfg.Segmentation.InitialDistance = 5.0
	cfg.Segmentation.Threshold = 0.0

	// Set default evolution parameters
	cfg.Evolution.CurvatureScale = 1.0
	cfg.Evolution.PropagationScale = 2.0
	cfg.Evolution.AdvectionScale = 1.0
	cfg.Evolution.MaxIterations = 800
	cfg.Evolution.MaxRMSError = 0.02

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
