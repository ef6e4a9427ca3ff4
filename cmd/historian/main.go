// cmd/historian/main.go is an asynchronous historian service that pops game actions from
// a Redis queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}
	redisAddr := cfg.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatalf("%v", err)
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		logger.Fatalf("%v", err)
	}

	rdb, err := cache.ConnectRedis(ctx, redisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer rdb.Close()

	svc := &historian.Service{
		// BLPop with a short timeout so that context cancellation is handled.
		Source:     &cache.Consumer{Rdb: rdb, Queue: cfg.QueueName, Timeout: 3 * time.Second},
		Sink:       database.ActionStore{},
		BatchSize:  cfg.BatchSize,
		FlushDelay: cfg.FlushDelay,
		Inactivity: cfg.Inactivity,
		Logger:     logger,
	}
	svc.Run(ctx)
	logger.Info("Historian shutdown complete.")
}
