package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/carebridge/patient-scheduler/internal/api/router"
	"github.com/carebridge/patient-scheduler/internal/audit"
	"github.com/carebridge/patient-scheduler/internal/availability"
	"github.com/carebridge/patient-scheduler/internal/bookings"
	appconfig "github.com/carebridge/patient-scheduler/internal/config"
	"github.com/carebridge/patient-scheduler/internal/directory"
	"github.com/carebridge/patient-scheduler/internal/intent"
	"github.com/carebridge/patient-scheduler/internal/observability/metrics"
	"github.com/carebridge/patient-scheduler/internal/reservations"
	"github.com/carebridge/patient-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting patient-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	var (
		roster      directory.Repository
		bookingRepo bookings.Repository
		holdStore   reservations.Store
		sink        audit.Sink
	)

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to reach database", "error", err)
			os.Exit(1)
		}

		auditDB, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open audit db", "error", err)
			os.Exit(1)
		}
		defer func() { _ = auditDB.Close() }()

		roster = directory.NewPostgresRepository(pool)
		pgBookings := bookings.NewPostgresRepository(pool)
		bookingRepo = pgBookings
		holdStore = reservations.NewPostgresStore(pool)
		sink = audit.NewPostgresSink(auditDB, logger)
		logger.Info("using postgres storage")
	} else {
		roster = directory.NewSeededRepository()
		memBookings := bookings.NewInMemoryRepository()
		bookingRepo = memBookings
		holdStore = reservations.NewMemoryStore(memBookings)
		sink = audit.NewLogSink(logger)
		logger.Info("using in-memory storage")
	}

	var cache *availability.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, availability cache disabled", "error", err)
		} else {
			cache = availability.NewCache(client, cfg.AvailabilityCacheTTL, logger)
			logger.Info("availability cache enabled", "addr", cfg.RedisAddr)
		}
	}

	schedMetrics := metrics.NewSchedulingMetrics(nil)

	holdSvc := reservations.NewService(holdStore, cfg.HoldTTL, logger, schedMetrics, sink)
	bookingSvc := bookings.NewService(bookingRepo, holdSvc, logger, sink)
	availSvc := availability.NewService(bookingRepo, cache, logger)
	dirSvc := directory.NewService(roster, availSvc, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		IntentHandler:       intent.NewHandler(logger, sink),
		DirectoryHandler:    directory.NewHandler(dirSvc, logger, cfg.AvailabilityDays),
		AvailabilityHandler: availability.NewHandler(availSvc, roster, logger, cfg.AvailabilityDays),
		HoldsHandler:        reservations.NewHandler(holdSvc, roster, logger),
		BookingsHandler:     bookings.NewHandler(bookingSvc, roster, logger),
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  10,
		RateLimitBurst:      30,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
