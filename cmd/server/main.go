package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/pricecast-go/internal/api"
	"github.com/irfndi/pricecast-go/internal/cache"
	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/database"
	"github.com/irfndi/pricecast-go/internal/logging"
	"github.com/irfndi/pricecast-go/internal/metrics"
	"github.com/irfndi/pricecast-go/internal/middleware"
	"github.com/irfndi/pricecast-go/internal/pricesource"
	"github.com/irfndi/pricecast-go/internal/services"
	"github.com/irfndi/pricecast-go/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	gin.SetMode(ginModeFor(cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.InitTelemetry(ctx, telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if lp := provider.LoggerProvider(); lp != nil {
		logger.AddHook(logging.NewOTLPHook(lp.Logger(cfg.Telemetry.ServiceName)))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown telemetry")
		}
	}()

	db, err := database.NewPostgresConnection(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	traced := database.NewTracedDB(db.Pool, logger)
	repo := database.NewPriceRepository(traced)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}

	deps := api.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Store:   repo,
		Users:   database.NewUserRepository(traced),
		Metrics: metrics.NewCollector(),
		Auth:    middleware.NewAuthMiddleware(cfg.Security.JWTSecret),
		DB:      db,
	}

	// The forecast cache is optional; the API keeps working without Redis.
	if rc, err := database.NewRedisConnection(ctx, cfg.Redis, logger); err != nil {
		logger.WithError(err).Warn("Redis unavailable, forecast cache disabled")
	} else {
		defer rc.Close()
		deps.Cache = cache.NewForecastCache(rc.Client, cfg.Forecast.CacheTTLDuration(), logger)
		deps.Redis = rc
	}

	deps.Forecasts = services.NewForecastService(cfg.Forecast, deps.Metrics, logger)

	if updater, err := newPriceUpdater(cfg, repo, deps, logger); err != nil {
		logger.WithError(err).Warn("Price updater disabled")
	} else {
		deps.Updater = updater
		if cfg.PriceUpdater.Enabled {
			if err := updater.Start(); err != nil {
				return err
			}
			defer updater.Stop()
		}
	}

	srv := newHTTPServer(cfg.Server.Port, api.NewRouter(deps))

	errCh := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logging.LogShutdown(logger, cfg.Telemetry.ServiceName, "signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func newPriceUpdater(cfg *config.Config, repo *database.PriceRepository, deps api.Dependencies, logger *logrus.Logger) (*services.PriceUpdater, error) {
	source, err := pricesource.New(cfg.PriceUpdater, repo, logger)
	if err != nil {
		return nil, err
	}

	updaterDeps := services.PriceUpdaterDeps{
		Store:      repo,
		Source:     source,
		SourceName: cfg.PriceUpdater.Marketplace,
		Notifier:   services.NewNotificationService(cfg.Telegram, logger),
		Metrics:    deps.Metrics,
	}
	if deps.Cache != nil {
		updaterDeps.Cache = deps.Cache
	}

	return services.NewPriceUpdater(updaterDeps, cfg.PriceUpdater.Schedule, logger), nil
}

// newHTTPServer applies the server timeouts.
func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func ginModeFor(environment string) string {
	switch strings.ToLower(environment) {
	case "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
