package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/api/handler"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/provider/resilience"
	"github.com/clearskies/clearskies/internal/sensor"
)

type stubRegistry []*resilience.ProviderHealth

func (s stubRegistry) GetAllHealth() []*resilience.ProviderHealth { return s }

func health(name string, state gobreaker.State) *resilience.ProviderHealth {
	return &resilience.ProviderHealth{Name: name, CircuitState: state}
}

type stubAirQualityCache airquality.CacheStatus

func (s stubAirQualityCache) CacheStatus() airquality.CacheStatus { return airquality.CacheStatus(s) }

type stubPredictionCache prediction.CacheStatus

func (s stubPredictionCache) CacheStatus() prediction.CacheStatus { return prediction.CacheStatus(s) }

type stubSensorCache []sensor.CachedSensor

func (s stubSensorCache) CacheStatus() []sensor.CachedSensor { return s }

func TestOpsHandler_HealthCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.3", "2025-10-04", nil)

	rec := serve(t, "/v1/ops/health", h.HealthCheck, "/v1/ops/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.Health
	decode(t, rec, &body)
	assert.Equal(t, models.HealthStatusOK, body.Status)
	assert.Equal(t, "1.2.3", body.Details["version"])
}

func TestOpsHandler_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		registry   stubRegistry
		wantStatus int
		wantHealth models.HealthStatus
	}{
		{"no providers", nil, http.StatusOK, models.HealthStatusOK},
		{"all closed", stubRegistry{health("openaq", gobreaker.StateClosed), health("prediction", gobreaker.StateClosed)}, http.StatusOK, models.HealthStatusOK},
		{"one open", stubRegistry{health("openaq", gobreaker.StateOpen), health("prediction", gobreaker.StateClosed)}, http.StatusOK, models.HealthStatusDegraded},
		{"all open", stubRegistry{health("openaq", gobreaker.StateOpen), health("prediction", gobreaker.StateOpen)}, http.StatusServiceUnavailable, models.HealthStatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewOpsHandler("dev", "", tt.registry)

			rec := serve(t, "/v1/ops/ready", h.ReadinessCheck, "/v1/ops/ready")
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body models.Health
			decode(t, rec, &body)
			assert.Equal(t, tt.wantHealth, body.Status)
		})
	}
}

func TestOpsHandler_SystemStatus(t *testing.T) {
	failedAt := testTime.Add(-time.Minute)
	openaq := health("openaq", gobreaker.StateHalfOpen)
	openaq.LastFailureAt = &failedAt
	openaq.LastError = "server error: 502"

	registry := stubRegistry{openaq, health("prediction", gobreaker.StateClosed)}

	h := handler.NewOpsHandler("dev", "", registry,
		handler.AirQualityCache(stubAirQualityCache{HasData: true, FetchedAt: testTime, HasAQI: true}),
		handler.PredictionCache(stubPredictionCache{ForecastHorizons: []int{6, 24}}),
		handler.SensorCache(stubSensorCache{{SensorID: "3917", FetchedAt: testTime}}),
	)

	rec := serve(t, "/v1/ops/status", h.SystemStatus, "/v1/ops/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.SystemStatus
	decode(t, rec, &body)

	assert.Equal(t, models.HealthStatusDegraded, body.Status)
	require.Len(t, body.Providers, 2)
	assert.Equal(t, "openaq", body.Providers[0].Provider)
	assert.Equal(t, models.HealthStatusDegraded, body.Providers[0].Status)
	assert.Equal(t, "half-open", body.Providers[0].CircuitState)
	require.NotNil(t, body.Providers[0].Message)
	assert.Equal(t, "server error: 502", *body.Providers[0].Message)
	assert.Equal(t, models.HealthStatusOK, body.Providers[1].Status)

	require.Len(t, body.Caches, 3)
	assert.Equal(t, "current", body.Caches[0].Name)
	assert.True(t, body.Caches[0].HasData)
	assert.Empty(t, body.Caches[0].Detail)
	assert.Equal(t, "prediction", body.Caches[1].Name)
	assert.Equal(t, "forecast horizons [6 24]", body.Caches[1].Detail)
	assert.Equal(t, "sensors 3917", body.Caches[2].Detail)
}

func TestOpsHandler_SystemStatus_EmptyCaches(t *testing.T) {
	h := handler.NewOpsHandler("dev", "", nil,
		handler.AirQualityCache(stubAirQualityCache{}),
		handler.SensorCache(stubSensorCache{}),
	)

	rec := serve(t, "/v1/ops/status", h.SystemStatus, "/v1/ops/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.SystemStatus
	decode(t, rec, &body)

	assert.Equal(t, models.HealthStatusOK, body.Status)
	assert.Empty(t, body.Providers)
	require.Len(t, body.Caches, 2)
	assert.False(t, body.Caches[0].HasData)
	assert.Nil(t, body.Caches[1].FetchedAt)
}
