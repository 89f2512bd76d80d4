package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborclinic/scheduling-core/internal/api/router"
	"github.com/harborclinic/scheduling-core/internal/app/bootstrap"
	"github.com/harborclinic/scheduling-core/internal/availability"
	"github.com/harborclinic/scheduling-core/internal/backend"
	appconfig "github.com/harborclinic/scheduling-core/internal/config"
	"github.com/harborclinic/scheduling-core/internal/http/handlers"
	"github.com/harborclinic/scheduling-core/internal/observability/metrics"
	"github.com/harborclinic/scheduling-core/pkg/logging"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduling-core API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.BackendBaseURL,
	)

	schedulingMetrics := metrics.NewSchedulingMetrics(prometheus.DefaultRegisterer)

	backendClient := backend.NewClient(cfg.BackendBaseURL, cfg.BackendAPIToken, logger)

	redisClient := bootstrap.BuildRedisClient(context.Background(), cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	availabilityService := availability.NewService(backendClient, redisClient, cfg.AvailabilityCacheTTL, schedulingMetrics, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		CalendarHandler:    handlers.NewCalendarHandler(backendClient, logger),
		DirectoryHandler:   handlers.NewDirectoryHandler(backendClient, availabilityService, logger),
		RescheduleHandler:  handlers.NewRescheduleHandler(backendClient, availabilityService, backendClient, availabilityService, schedulingMetrics, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
