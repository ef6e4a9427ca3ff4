package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"UNO_HOST", "UNO_PORT", "UNO_HTTP_ADDR", "UNO_LOG_LEVEL", "UNO_HOUSE_RULES",
	"UNO_ADMIN_PASSWORD_HASH", "TOKEN_EXPIRE_TIME", "REDIS_ADDR", "REDIS_DB",
	"HISTORIAN_QUEUE_NAME", "DATABASE_URL", "HISTORIAN_BATCH_SIZE", "HISTORIAN_FLUSH_MS",
	"GAME_INACTIVITY_TIMEOUT_SEC",
}

func clearEnv(t *testing.T) {
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:60001", cfg.GameAddr)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 7, cfg.HouseRules.HandSize)
	assert.Equal(t, "uno_actions", cfg.QueueName)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.FlushDelay)
	assert.Equal(t, 10*time.Minute, cfg.Inactivity)
	assert.Zero(t, cfg.TokenTTL)
	assert.Empty(t, cfg.RedisAddr)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("UNO_HOST", "0.0.0.0")
	t.Setenv("UNO_PORT", "7000")
	t.Setenv("UNO_LOG_LEVEL", "debug")
	t.Setenv("UNO_HOUSE_RULES", `{"handSize": 5, "maxPlayers": 4}`)
	t.Setenv("TOKEN_EXPIRE_TIME", "2h")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.GameAddr)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 5, cfg.HouseRules.HandSize)
	assert.Equal(t, 4, cfg.HouseRules.MaxPlayers)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadRejectsBadValues(t *testing.T) {
	for key, val := range map[string]string{
		"UNO_LOG_LEVEL":        "loud",
		"UNO_HOUSE_RULES":      `{"handSize": 0}`,
		"TOKEN_EXPIRE_TIME":    "later",
		"REDIS_DB":             "one",
		"HISTORIAN_BATCH_SIZE": "0",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
