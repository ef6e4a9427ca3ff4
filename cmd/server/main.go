// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/handlers"
	"github.com/jason-s-yu/uno/internal/middleware"
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

	if err := auth.InitWithTTL(cfg.TokenTTL); err != nil {
		logger.Fatalf("auth init: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g := game.NewUnoGameWithDeck(cfg.HouseRules, game.NewDeck())
	g.Logger = logger

	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			logger.Warnf("action log disabled: %v", err)
		} else {
			defer rdb.Close()
			g.Actions = cache.NewPublisher(rdb, cfg.QueueName)
			logger.Infof("Publishing actions to Redis queue %q", cfg.QueueName)
		}
	}

	if cfg.DatabaseURL != "" {
		if err := database.ConnectDB(ctx, cfg.DatabaseURL); err != nil {
			logger.Warnf("result persistence disabled: %v", err)
		} else {
			defer database.Close()
			if err := database.EnsureSchema(ctx); err != nil {
				logger.Fatalf("%v", err)
			}
			g.OnGameEnd = func(gameID uuid.UUID, winner *game.Player, finalCounts map[uuid.UUID]int) {
				// Called with the game lock held.
				go func(winnerID uuid.UUID) {
					saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := database.RecordGameResult(saveCtx, gameID, winnerID, finalCounts); err != nil {
						logger.WithError(err).Error("failed to record game result")
					}
				}(winner.ID)
			}
		}
	}

	hub := handlers.NewHub(logger)
	router := handlers.NewRouter(g, hub, logger)

	ln, err := net.Listen("tcp", cfg.GameAddr)
	if err != nil {
		logger.Fatalf("listen %s: %v", cfg.GameAddr, err)
	}
	tcp := handlers.NewTCPServer(router, hub, logger)
	tcpDone := make(chan struct{})
	go func() {
		defer close(tcpDone)
		if err := tcp.Serve(ctx, ln); err != nil {
			logger.Errorf("game listener exited: %v", err)
		}
	}()

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)
	mux.Handle("/ws", logged(handlers.GameWSHandler(logger, router, hub)))
	mux.Handle("/healthz", handlers.HealthHandler(hub))

	admin := &handlers.AdminServer{Router: router, PasswordHash: cfg.AdminPasswordHash, Logger: logger}
	adminMux := http.NewServeMux()
	admin.Register(adminMux)
	mux.Handle("/admin/", logged(adminMux))
	if cfg.AdminPasswordHash == "" {
		logger.Warn("UNO_ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s (game %s)", cfg.HTTPAddr, g.ID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("server exited: %v", err)
		stop()
	}
	<-tcpDone
	logger.Info("server stopped")
}
