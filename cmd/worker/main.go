// Package main provides the entrypoint for the ClearSkies cache refresh worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/api/handler"
	"github.com/clearskies/clearskies/internal/api/response"
	"github.com/clearskies/clearskies/internal/config"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/provider/resilience"
	"github.com/clearskies/clearskies/internal/sensor"
	"github.com/clearskies/clearskies/internal/sensor/openaq"
	"github.com/clearskies/clearskies/internal/telemetry"
	"github.com/clearskies/clearskies/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "clearskies-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal().Err(err).Msg("failed to load .env")
	}
	cfg := config.FromEnv()

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}

	log.Info().
		Str("build_time", BuildTime).
		Dur("interval", cfg.RefreshInterval).
		Msg("starting ClearSkies worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	observer, err := telemetry.NewUpstreamMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize upstream metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	onStateChange := resilience.LogStateChange(log)

	predictionClient := prediction.NewClient(prediction.ClientConfig{
		BaseURL:       cfg.PredictionBaseURL,
		Registry:      resilience.GlobalRegistry,
		Observer:      observer,
		OnStateChange: onStateChange,
	})
	openaqClient := openaq.NewClient(openaq.ClientConfig{
		BaseURL:       cfg.OpenAQBaseURL,
		APIKey:        cfg.OpenAQAPIKey,
		Registry:      resilience.GlobalRegistry,
		Observer:      observer,
		OnStateChange: onStateChange,
	})

	current := airquality.NewService(airquality.ServiceConfig{
		Provider:        predictionClient,
		Logger:          log,
		CacheTTL:        cfg.CacheTTL,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
	})
	predictions := prediction.NewService(prediction.ServiceConfig{
		Provider:        predictionClient,
		Logger:          log,
		CacheTTL:        cfg.CacheTTL,
		MetricsCacheTTL: cfg.MetricsCacheTTL,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
	})
	sensors := sensor.NewService(sensor.ServiceConfig{
		Provider:        openaqClient,
		Logger:          log,
		CacheTTL:        cfg.CacheTTL,
		StaleIfErrorTTL: cfg.StaleIfErrorTTL,
	})

	refreshCfg := worker.DefaultRefreshConfig()
	refreshCfg.Concurrency = cfg.RefreshConcurrency
	refreshCfg.SensorIDs = []string{cfg.DefaultSensorID}
	if len(cfg.RefreshSensorIDs) > 0 {
		refreshCfg.SensorIDs = cfg.RefreshSensorIDs
	}

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:     refreshCfg,
		Logger:     log,
		Current:    current,
		Prediction: predictions,
		Sensors:    sensors,
	})

	// Health server for the platform's liveness and readiness probes.
	ops := handler.NewOpsHandler(Version, BuildTime, resilience.GlobalRegistry,
		handler.AirQualityCache(current),
		handler.PredictionCache(predictions),
		handler.SensorCache(sensors),
	)
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/health", ops.HealthCheck)
	r.Get("/ready", ops.ReadinessCheck)
	r.Get("/status", ops.SystemStatus)
	r.Get("/refresh/metrics", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, job.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	if cfg.PubSubProjectID != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        cfg.PubSubProjectID,
			SubscriptionName: cfg.PubSubSubscription,
			RefreshJob:       job,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if err := pubsubHandler.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("pubsub receive stopped")
			}
		}()
	}

	go func() {
		_ = job.Run(ctx)

		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = job.Run(ctx)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
