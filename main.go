package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/loanflow-dev/loanflow/config"
	redisdb "github.com/loanflow-dev/loanflow/infra/redis"
	ratelimiter "github.com/loanflow-dev/loanflow/pkg/rate-limiter"
	"github.com/loanflow-dev/loanflow/pkg/telemetry"
	"github.com/loanflow-dev/loanflow/presenter"
	"github.com/loanflow-dev/loanflow/router"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	slog.Info("Starting application setup...")

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	tel, err := telemetry.New(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize monitoring: %v", err))
	}

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
		defer cancelShutdown()

		zap.L().Info("Shutting down monitoring...")
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Error during monitoring shutdown", zap.Error(err))
		} else {
			zap.L().Info("Monitoring shutdown complete.")
		}
	}()

	// Redis is optional; without it the rate limiter keeps instance-local
	// state, which is enough for a single stateless instance.
	var redisClient *redis.Client
	if cfg.REDIS_ADDRESS != "" {
		redisClient, err = redisdb.NewRedis(cfg)
		if err != nil {
			zap.L().Warn("Redis unavailable, rate limiter falls back to in-memory state", zap.Error(err))
		} else {
			defer func() {
				zap.L().Info("Closing Redis connection...")
				if err := redisClient.Close(); err != nil {
					zap.L().Error("Error disconnecting from Redis", zap.Error(err))
				}
			}()
		}
	}

	limiter := ratelimiter.NewRateLimiter(
		redisClient,
		cfg.RATE_LIMIT_RPS,
		cfg.RATE_LIMIT_BURST,
		cfg.RATE_LIMIT_TTL,
	)

	presenter := presenter.NewPresenter(tel)
	router := router.NewRouter(presenter, tel, cfg, limiter)

	addr := ":" + cfg.SERVER_PORT

	// Channel to listen for errors from app.Listen
	listenErr := make(chan error, 1)

	go func() {
		zap.L().Info("Server starting", zap.String("address", addr))
		if err := router.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		} else {
			listenErr <- nil
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Block until a shutdown signal arrives or Listen fails
	select {
	case sig := <-shutdown:
		zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			zap.L().Error("Server listen error", zap.Error(err))
			os.Exit(1)
		}
	}

	zap.L().Info("Starting graceful shutdown...")
	if err := router.ShutdownWithTimeout(cfg.SHUTDOWN_TIMEOUT); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("Server shutdown timed out", zap.Duration("timeout", cfg.SHUTDOWN_TIMEOUT))
		} else {
			zap.L().Error("Server shutdown error", zap.Error(err))
		}
	} else {
		zap.L().Info("Server gracefully stopped.")
	}

	zap.L().Info("Application shutdown complete.")
}
