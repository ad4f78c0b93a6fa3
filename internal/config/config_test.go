package config

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "PORT", "DEV_MODE", "METRICS_ENABLED", "RANKING_SCHEDULE", "SCHEDULER_MANAGERS"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("REBALANCER_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "@every 1h", cfg.RankingSchedule)
	assert.Empty(t, cfg.SchedulerManagers)
	assert.Contains(t, cfg.DatabasePath(), "rebalancer.db")
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	m1, m2 := uuid.New(), uuid.New()

	t.Setenv("REBALANCER_DATA_DIR", t.TempDir())
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RANKING_SCHEDULE", "0 */30 * * * *")
	t.Setenv("SCHEDULER_MANAGERS", m1.String()+", "+m2.String())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "0 */30 * * * *", cfg.RankingSchedule)
	assert.Equal(t, []uuid.UUID{m1, m2}, cfg.SchedulerManagers)
}

func TestLoad_InvalidManagers(t *testing.T) {
	clearEnv(t)
	t.Setenv("REBALANCER_DATA_DIR", t.TempDir())
	t.Setenv("SCHEDULER_MANAGERS", "not-a-uuid")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SCHEDULER_MANAGERS", uuid.Nil.String())
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Port: 8001, RankingSchedule: "@every 1h"}
	assert.NoError(t, cfg.Validate())

	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.Port = 8001
	cfg.RankingSchedule = "whenever"
	assert.Error(t, cfg.Validate())

	cfg.RankingSchedule = "*/5 * * * *"
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "not-a-number")
	t.Setenv("TEST_BOOL", "maybe")

	assert.Equal(t, 7, getEnvAsInt("TEST_INT", 7))
	assert.True(t, getEnvAsBool("TEST_BOOL", true))
	assert.Equal(t, "fallback", getEnv("TEST_UNSET_VALUE", "fallback"))
}
