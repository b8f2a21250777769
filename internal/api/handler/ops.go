// Package handler provides HTTP handlers for the ClearSkies API.
package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/api/response"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/provider/resilience"
	"github.com/clearskies/clearskies/internal/sensor"
)

// HealthRegistry reports the circuit state of upstream providers.
type HealthRegistry interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// CacheReporter describes one in-memory cache for the status endpoint.
type CacheReporter func() models.CacheStatus

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  HealthRegistry
	caches    []CacheReporter
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry HealthRegistry, caches ...CacheReporter) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		caches:    caches,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check. The service is
// not ready when every upstream circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	rd := resilience.Summarize(h.providerHealth())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	status := http.StatusOK

	switch {
	case !rd.Ready():
		health.Status = models.HealthStatusFail
		status = http.StatusServiceUnavailable
	case rd.Degraded():
		health.Status = models.HealthStatusDegraded
	}
	if len(rd.Open) > 0 {
		health.Details = map[string]interface{}{
			"openCircuits": strings.Join(rd.Open, ","),
		}
	}

	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - provider and cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Caches:    make([]models.CacheStatus, 0, len(h.caches)),
		Providers: []models.ProviderStatus{},
	}

	for _, p := range h.providerHealth() {
		ps := models.ProviderStatus{
			Provider:     p.Name,
			Status:       providerStatus(p),
			CircuitState: p.CircuitState.String(),
		}
		if p.LastSuccessAt != nil {
			ps.LastSuccessAt = models.NewTimestamp(*p.LastSuccessAt)
		}
		if p.LastFailureAt != nil {
			ps.LastFailureAt = models.NewTimestamp(*p.LastFailureAt)
		}
		if p.LastError != "" {
			msg := p.LastError
			ps.Message = &msg
		}
		if ps.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
		status.Providers = append(status.Providers, ps)
	}

	for _, report := range h.caches {
		status.Caches = append(status.Caches, report())
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providerHealth() []*resilience.ProviderHealth {
	if h.registry == nil {
		return nil
	}
	return h.registry.GetAllHealth()
}

func providerStatus(p *resilience.ProviderHealth) models.HealthStatus {
	switch {
	case p.IsUnhealthy():
		return models.HealthStatusFail
	case p.IsDegraded():
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

// AirQualityCache reports the current summary cache.
func AirQualityCache(svc interface{ CacheStatus() airquality.CacheStatus }) CacheReporter {
	return func() models.CacheStatus {
		cs := svc.CacheStatus()
		out := models.CacheStatus{Name: "current", HasData: cs.HasData}
		if !cs.HasData {
			return out
		}
		out.FetchedAt = models.NewTimestamp(cs.FetchedAt)
		switch {
		case cs.IsStale:
			out.Detail = "stale"
		case cs.IsExpired:
			out.Detail = "expired"
		case !cs.HasAQI:
			out.Detail = "no aqi"
		}
		return out
	}
}

// PredictionCache reports the forecast and recommendation caches.
func PredictionCache(svc interface{ CacheStatus() prediction.CacheStatus }) CacheReporter {
	return func() models.CacheStatus {
		cs := svc.CacheStatus()
		out := models.CacheStatus{
			Name:    "prediction",
			HasData: len(cs.ForecastHorizons) > 0 || cs.HasRecommendations || cs.HasModelMetrics,
		}
		if cs.HasRecommendations {
			out.FetchedAt = models.NewTimestamp(cs.RecommendationsAt)
		}
		if len(cs.ForecastHorizons) > 0 {
			out.Detail = fmt.Sprintf("forecast horizons %v", cs.ForecastHorizons)
		}
		return out
	}
}

// SensorCache reports the sensor snapshot cache.
func SensorCache(svc interface{ CacheStatus() []sensor.CachedSensor }) CacheReporter {
	return func() models.CacheStatus {
		cached := svc.CacheStatus()
		out := models.CacheStatus{Name: "sensors", HasData: len(cached) > 0}

		var latest time.Time
		ids := make([]string, 0, len(cached))
		for _, c := range cached {
			ids = append(ids, c.SensorID)
			if c.FetchedAt.After(latest) {
				latest = c.FetchedAt
			}
		}
		out.FetchedAt = models.NewTimestamp(latest)
		if len(ids) > 0 {
			out.Detail = "sensors " + strings.Join(ids, ",")
		}
		return out
	}
}
