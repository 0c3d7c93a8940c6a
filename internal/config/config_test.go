package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esg-monitor/internal/models"
	"esg-monitor/internal/planner"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30, cfg.Planner.WindowDays)
	assert.Equal(t, 0.8, cfg.Validator.ValidationThreshold)
	assert.Equal(t, 3, cfg.Coordinator.DefaultEntityCount)
	assert.Equal(t, int64(42), cfg.Synthetic.Seed)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "secret-key")
	path := writeConfig(t, `
server:
  port: "9000"
planner:
  window_days: 14
  priorities:
    S: 12
executor:
  workers: 8
  sector_weights:
    Energy: 1.5
sources:
  - name: newsapi
    base_url: https://newsapi.org/v2/everything
    api_key: ${NEWS_API_KEY}
storage:
  driver: sqlite
  path: ./data/esg.db
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Server.ShutdownTimeoutSeconds)
	assert.Equal(t, 14, cfg.Planner.WindowDays)
	// partial maps merge over the defaults
	assert.Equal(t, map[models.Dimension]int{models.Environmental: 10, models.Social: 12, models.Governance: 9}, cfg.Planner.Priorities)
	assert.Equal(t, 8, cfg.Executor.Workers)
	assert.Equal(t, 1.5, cfg.Executor.SectorWeight("Energy"))
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "secret-key", cfg.Sources[0].APIKey)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "server: [port"},
		{"unknown key", "planer:\n  window_days: 3\n"},
		{"bad dimension", "planner:\n  priorities:\n    X: 3\n"},
		{"zero priority", "planner:\n  priorities:\n    E: 0\n"},
		{"threshold order", "validator:\n  validation_threshold: 0.4\n  low_quality_threshold: 0.6\n"},
		{"bad source url", "sources:\n  - name: a\n    base_url: not a url\n"},
		{"storage path", "storage:\n  driver: badger\n"},
		{"log level", "logging:\n  level: loud\n"},
		{"workers", "executor:\n  workers: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigPlannerErrorIsTyped(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "planner:\n  high_priority_dimensions: [Q]\n"))
	assert.ErrorIs(t, err, planner.ErrInvalidConfig)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestLoadShippedConfig(t *testing.T) {
	t.Setenv("NEWS_API_KEY", "")
	cfg, err := LoadConfig("../../configs/config.yml")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 1.2, cfg.Executor.SectorWeight("Energy"))
	assert.False(t, cfg.Notifier.Enabled)
	require.Len(t, cfg.Sources, 1)
	assert.Empty(t, cfg.Sources[0].APIKey)
}
