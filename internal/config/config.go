// Package config loads the optional pipeline configuration file and the
// environment credentials used by the hypothesis client.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kamilpajak/pauli/internal/report"
)

// Config is the optional YAML configuration. Zero values fall back to
// defaults; CLI flags override file values.
type Config struct {
	Weights           report.Weights `yaml:"weights"`
	PerfThresholdMS   float64        `yaml:"perf_threshold_ms"`
	BaselineErrorRate float64        `yaml:"baseline_error_rate"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{Weights: report.DefaultWeights()}
}

// Load reads a YAML config file. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Weights == (report.Weights{}) {
		cfg.Weights = report.DefaultWeights()
	}
	return cfg, nil
}

// LoadEnv reads a .env file into the process environment when one exists.
// Credentials themselves stay in the environment; a missing file is fine.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
