// Package api provides the HTTP API for ClearSkies.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/api/handler"
	"github.com/clearskies/clearskies/internal/api/middleware"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/api/response"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Current    handler.CurrentService
	Prediction handler.PredictionService
	Sensors    handler.SensorService
	Dashboard  handler.DashboardBuilder

	// Registry reports upstream circuit state; nil disables provider status.
	Registry handler.HealthRegistry
	Caches   []handler.CacheReporter

	DefaultHours     int
	DefaultThreshold float64

	// AllowedOrigins for CORS (default: all origins).
	AllowedOrigins []string
	RequireTLS     bool

	// CacheMaxAge is the Cache-Control max-age for data routes; zero disables it.
	CacheMaxAge time.Duration
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "clearskies-api"
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(middleware.SecurityHeaders)           // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)           // JSON content type

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", http.MethodGet)
		problem := models.NewProblem("about:blank", "Method not allowed", http.StatusMethodNotAllowed, middleware.GetRequestID(r.Context()))
		response.Error(w, r, problem.WithDetail(r.Method+" is not supported on "+r.URL.Path))
	})

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Caches...)
	metadataHandler := handler.NewMetadataHandler(cfg.DefaultThreshold)
	airQualityHandler := handler.NewAirQualityHandler(cfg.Current)
	predictionHandler := handler.NewPredictionHandler(cfg.Prediction, cfg.DefaultHours, cfg.DefaultThreshold)
	sensorHandler := handler.NewSensorHandler(cfg.Sensors)
	dashboardHandler := handler.NewDashboardHandler(cfg.Dashboard)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	localRateLimit := middleware.RateLimitByIP(middleware.LocalRateLimit)
	cacheControl := middleware.CacheControl(cfg.CacheMaxAge)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public, never cached)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Metadata and pure classification
		r.Group(func(r chi.Router) {
			r.Use(localRateLimit)
			r.Get("/metadata/enums", metadataHandler.GetEnums)
			r.Get("/aqi/classify", airQualityHandler.Classify)
		})

		// Upstream-backed data
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Use(cacheControl)
			r.Get("/current", airQualityHandler.GetCurrent)
			r.Get("/forecast", predictionHandler.GetForecast)
			r.Get("/alerts", predictionHandler.GetAlerts)
			r.Get("/recommendations", predictionHandler.GetRecommendations)
			r.Get("/model/metrics", predictionHandler.GetModelMetrics)
			r.Get("/sensors/{sensorId}", sensorHandler.GetSensor)
		})

		// Dashboard fans out to every source - strict rate limiting
		r.With(expensiveRateLimit, cacheControl).Get("/dashboard", dashboardHandler.GetDashboard)
	})

	return r
}
