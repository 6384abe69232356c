package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/pauli/internal/report"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, report.DefaultWeights(), cfg.Weights)
	assert.Zero(t, cfg.BaselineErrorRate)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pauli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weights:
  tests: 50
  logs: 30
  visual: 15
  validation: 5
perf_threshold_ms: 2500
baseline_error_rate: 3.5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, report.Weights{Tests: 50, Logs: 30, Visual: 15, Validation: 5}, cfg.Weights)
	assert.Equal(t, 2500.0, cfg.PerfThresholdMS)
	assert.Equal(t, 3.5, cfg.BaselineErrorRate)
}

func TestLoad_MissingWeightsFallBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pauli.yaml")
	require.NoError(t, os.WriteFile(path, []byte("perf_threshold_ms: 1000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, report.DefaultWeights(), cfg.Weights)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: [not, a, map]"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
