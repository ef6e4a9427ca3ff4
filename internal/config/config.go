// internal/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/sirupsen/logrus"
)

// Config is everything the server and the historian read from the environment.
type Config struct {
	GameAddr string // TCP listener for game clients
	HTTPAddr string // WebSocket, health and admin endpoints

	LogLevel   logrus.Level
	HouseRules game.HouseRules

	AdminPasswordHash string
	TokenTTL          time.Duration

	RedisAddr   string // empty disables the action log
	RedisDB     int
	QueueName   string
	DatabaseURL string // empty disables result persistence

	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration // historian marks quiet games abandoned after this
}

// Load reads the configuration from the environment. Values that are present but
// unparseable are errors; absent values fall back to their defaults.
func Load() (*Config, error) {
	cfg := &Config{
		GameAddr:          net.JoinHostPort(getEnv("UNO_HOST", "127.0.0.1"), getEnv("UNO_PORT", "60001")),
		HTTPAddr:          getEnv("UNO_HTTP_ADDR", ":8080"),
		AdminPasswordHash: os.Getenv("UNO_ADMIN_PASSWORD_HASH"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		QueueName:         getEnv("HISTORIAN_QUEUE_NAME", cache.DefaultQueueName),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
	}

	level, err := logrus.ParseLevel(getEnv("UNO_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("UNO_LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.HouseRules, err = game.ParseRules(os.Getenv("UNO_HOUSE_RULES"), game.DefaultHouseRules())
	if err != nil {
		return nil, fmt.Errorf("UNO_HOUSE_RULES: %w", err)
	}

	cfg.TokenTTL, err = auth.ParseTokenExpireTime(os.Getenv("TOKEN_EXPIRE_TIME"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_EXPIRE_TIME: %w", err)
	}

	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = getEnvInt("HISTORIAN_BATCH_SIZE", 20); err != nil {
		return nil, err
	}
	flushMs, err := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	if err != nil {
		return nil, err
	}
	if cfg.BatchSize < 1 || flushMs < 1 {
		return nil, fmt.Errorf("HISTORIAN_BATCH_SIZE and HISTORIAN_FLUSH_MS must be positive")
	}
	cfg.FlushDelay = time.Duration(flushMs) * time.Millisecond

	inactivitySec, err := getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)
	if err != nil {
		return nil, err
	}
	cfg.Inactivity = time.Duration(inactivitySec) * time.Second

	return cfg, nil
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defVal, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}
