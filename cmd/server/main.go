package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/app"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/config"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/db"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/mq"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/obs"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/ratelimit"
)

const serviceName = "volunteer-booking-api"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := obs.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	quotas, err := membership.LoadQuotaFile(cfg.TierQuotaFile)
	if err != nil {
		return err
	}

	shutdownTracing, err := obs.SetupTracing(ctx, obs.TracingConfig{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSamplingRatio,
	})
	if err != nil {
		return err
	}

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	appCfg := app.Config{
		IsProduction:       cfg.IsProduction(),
		ProdOrigins:        cfg.ProdOrigins,
		Store:              app.PgxStore(pool),
		JWTSecret:          cfg.JWTSecret,
		JWTTTL:             time.Hour,
		Logger:             logger,
		Quotas:             quotas,
		Location:           loc,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable, rate limiter will fail open", "error", err)
		}
		cancel()
		appCfg.RateCounter = ratelimit.NewRedisCounter(rdb)
	} else {
		logger.Info("REDIS_ADDR not set, booking rate limiting disabled")
	}

	if cfg.AMQPURL != "" {
		publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		appCfg.Publisher = publisher
	} else {
		logger.Info("AMQP_URL not set, booking events disabled")
	}

	container := app.NewContainer(appCfg)

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(container.Router, "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Run server in separate goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for Ctrl+C
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server; in-flight bookings finish or roll back with their transactions.
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown failed", "error", err)
	}

	logger.Info("server exited gracefully")
	return nil
}
