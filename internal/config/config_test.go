package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "Europe/Madrid", cfg.Timezone)
	assert.Equal(t, 10, cfg.WorkerConcurrency)
	assert.True(t, cfg.MetricsEnabled)
	assert.False(t, cfg.IsLocalDev)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("IS_LOCAL_DEV", "true")
	t.Setenv("WORKER_CONCURRENCY", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.True(t, cfg.IsLocalDev)
	assert.Equal(t, 3, cfg.WorkerConcurrency)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC.String(), loc.String())
}

func TestLoadConfigRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus")

	_, err := LoadConfig()

	assert.Error(t, err)
}
