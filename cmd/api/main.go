// Package main provides the entrypoint for the ClearSkies API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/api"
	"github.com/clearskies/clearskies/internal/api/handler"
	"github.com/clearskies/clearskies/internal/api/middleware"
	"github.com/clearskies/clearskies/internal/config"
	"github.com/clearskies/clearskies/internal/dashboard"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/provider/resilience"
	"github.com/clearskies/clearskies/internal/sensor"
	"github.com/clearskies/clearskies/internal/sensor/openaq"
	"github.com/clearskies/clearskies/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "clearskies-api"

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
		Str("env", cfg.Environment).
		Msg("starting ClearSkies API")

	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	services, err := newServices(cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		os.Exit(1)
	}

	dash := dashboard.NewService(dashboard.Config{
		Current:      services.current,
		Prediction:   services.prediction,
		Sensors:      services.sensors,
		Logger:       log,
		HorizonHours: cfg.DefaultHorizon,
		Threshold:    cfg.DefaultThreshold,
		SensorID:     cfg.DefaultSensorID,
	})

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		Current:     services.current,
		Prediction:  services.prediction,
		Sensors:     services.sensors,
		Dashboard:   dash,
		Registry:    resilience.GlobalRegistry,
		Caches: []handler.CacheReporter{
			handler.AirQualityCache(services.current),
			handler.PredictionCache(services.prediction),
			handler.SensorCache(services.sensors),
		},
		DefaultHours:     cfg.DefaultHorizon,
		DefaultThreshold: cfg.DefaultThreshold,
		AllowedOrigins:   cfg.AllowedOrigins,
		RequireTLS:       cfg.RequireTLS,
		CacheMaxAge:      cfg.CacheMaxAge,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

type appServices struct {
	current    *airquality.Service
	prediction *prediction.Service
	sensors    *sensor.Service
}

// newServices builds the upstream clients and the cached services in
// front of them.
func newServices(cfg config.Config, log zerolog.Logger) (*appServices, error) {
	observer, err := telemetry.NewUpstreamMetrics()
	if err != nil {
		return nil, err
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
	if cfg.OpenAQAPIKey == "" {
		log.Warn().Msg("OPENAQ_API_KEY not set - sensor requests may be rejected")
	}

	return &appServices{
		current: airquality.NewService(airquality.ServiceConfig{
			Provider:        predictionClient,
			Logger:          log,
			CacheTTL:        cfg.CacheTTL,
			StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		}),
		prediction: prediction.NewService(prediction.ServiceConfig{
			Provider:        predictionClient,
			Logger:          log,
			CacheTTL:        cfg.CacheTTL,
			MetricsCacheTTL: cfg.MetricsCacheTTL,
			StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		}),
		sensors: sensor.NewService(sensor.ServiceConfig{
			Provider:        openaqClient,
			Logger:          log,
			CacheTTL:        cfg.CacheTTL,
			StaleIfErrorTTL: cfg.StaleIfErrorTTL,
		}),
	}, nil
}
