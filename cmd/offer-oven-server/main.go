package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/offer-oven/internal/crm"
	"github.com/iwvelando/offer-oven/internal/logging"
	"github.com/iwvelando/offer-oven/internal/server"
	"github.com/iwvelando/offer-oven/internal/subscription"
	"github.com/iwvelando/offer-oven/pkg/constants"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var version = "dev"

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	envFile := flag.String("env-file", ".env", "optional dotenv file with secrets")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file %s\", \"error\": \"%v\"}\n", *envFile, err)
		return
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	services, closeServices, err := buildServices(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("failed to initialize storage",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer closeServices()

	if services.WebhookSecret == "" {
		logger.Warn("no webhook secret configured; all webhook deliveries will be rejected",
			zap.String("op", "main"),
		)
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      server.NewHandler(logger, cfg.BodySizeBytes(), version, services),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down server",
		zap.String("op", "main"),
		zap.String("signal", sig.String()),
	)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// buildServices wires the configured stores. Leads use Redis when an address
// is configured; subscriptions use Postgres when a DSN is configured, cached in
// Redis when both are. Everything else stays in memory.
func buildServices(ctx context.Context, cfg *server.Config, logger *zap.Logger) (server.Services, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("failed to close storage", zap.String("op", "main.buildServices"), zap.Error(err))
			}
		}
	}

	var redisClient *redis.Client
	var leadStore crm.Store = crm.NewMemoryStore()
	if addr := cfg.Storage.RedisAddress; addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		closers = append(closers, redisClient.Close)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			closeAll()
			return server.Services{}, nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
		}
		leadStore = crm.NewRedisStoreWithClient(redisClient)
		logger.Info("lead store backed by redis", zap.String("op", "main.buildServices"), zap.String("address", addr))
	}

	var subStore subscription.Store = subscription.NewMemoryStore()
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pg, err := subscription.OpenPostgresStore(dsn)
		if err != nil {
			closeAll()
			return server.Services{}, nil, err
		}
		closers = append(closers, pg.Close)
		if err := pg.Migrate(ctx); err != nil {
			closeAll()
			return server.Services{}, nil, err
		}
		subStore = pg
		if redisClient != nil {
			subStore = subscription.NewCachedStore(pg, redisClient, logger)
		}
		logger.Info("subscription store backed by postgres",
			zap.String("op", "main.buildServices"),
			zap.Bool("cached", redisClient != nil),
		)
	}

	return server.Services{
		Leads:         crm.NewService(leadStore, logger),
		Subscriptions: subscription.NewService(subStore, logger),
		WebhookSecret: cfg.Webhook.Secret,
	}, closeAll, nil
}
