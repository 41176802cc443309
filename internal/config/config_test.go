package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query-api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
clickhouse:
  addr: localhost:9000
`))
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.HTTPPort)
	assert.Equal(t, 10, cfg.ClickHouse.MaxOpenConns)
	assert.Equal(t, 5, cfg.ClickHouse.MaxIdleConns)
	assert.Equal(t, 50.0, cfg.Engine.Hotspot.RadiusPx)
	assert.Equal(t, 0.95, cfg.Engine.Experiment.ConfidenceLevel)
	assert.Equal(t, 50000, cfg.Engine.Query.MaxRows)
	assert.Equal(t, 5*time.Minute, cfg.Cache.HeatmapTTL)
	assert.Equal(t, 60*time.Second, cfg.Cache.ExperimentConfigTTL)
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CH_ADDR", "clickhouse.internal:9000")

	cfg, err := Load(writeConfig(t, `
clickhouse:
  addr: ${TEST_CH_ADDR}
`))
	require.NoError(t, err)
	assert.Equal(t, "clickhouse.internal:9000", cfg.ClickHouse.Addr)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  http_port: 9999
engine:
  hotspot:
    radius_px: 75
  experiment:
    confidence_level: 0.99
cache:
  heatmap_ttl: 30s
`))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, 75.0, cfg.Engine.Hotspot.RadiusPx)
	assert.Equal(t, 0.99, cfg.Engine.Experiment.ConfidenceLevel)
	assert.Equal(t, 30*time.Second, cfg.Cache.HeatmapTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
