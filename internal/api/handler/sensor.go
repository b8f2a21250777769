package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clearskies/clearskies/internal/api/response"
	"github.com/clearskies/clearskies/internal/sensor"
)

// SensorService supplies ground sensor buckets.
type SensorService interface {
	GetSnapshot(ctx context.Context, sensorID string) (*sensor.Snapshot, error)
}

// SensorHandler handles ground sensor endpoints.
type SensorHandler struct {
	service SensorService
}

// NewSensorHandler creates a new SensorHandler.
func NewSensorHandler(service SensorService) *SensorHandler {
	return &SensorHandler{service: service}
}

// GetSensor handles GET /v1/sensors/{sensorId}?period=&parameter= - bucket
// counts, the selected series and its average.
func (h *SensorHandler) GetSensor(w http.ResponseWriter, r *http.Request) {
	sensorID := chi.URLParam(r, "sensorId")
	if !sensor.ValidSensorID(sensorID) {
		response.InvalidParam(w, r, "sensorId", "must be a positive integer")
		return
	}

	period := sensor.DefaultPeriod
	if raw := strings.TrimSpace(r.URL.Query().Get("period")); raw != "" {
		period = sensor.Period(strings.ToLower(raw))
		if !period.Valid() {
			response.InvalidParam(w, r, "period", "must be one of measurements, hours, days, years")
			return
		}
	}

	parameter := sensor.DefaultParameter
	if q := r.URL.Query(); q.Has("parameter") {
		parameter = strings.TrimSpace(q.Get("parameter"))
	}

	snap, err := h.service.GetSnapshot(r.Context(), sensorID)
	if err != nil {
		switch {
		case errors.Is(err, sensor.ErrInvalidSensorID):
			response.InvalidParam(w, r, "sensorId", err.Error())
		case errors.Is(err, sensor.ErrProviderUnavailable):
			response.ServiceUnavailable(w, r, "sensor data temporarily unavailable")
		default:
			response.InternalError(w, r, "failed to load sensor data")
		}
		return
	}

	series, ok := sensor.SelectPeriod(snap.Buckets, period)
	if !ok {
		response.NoReading(w, r, "no "+string(period)+" readings available for sensor "+sensorID)
		return
	}

	response.JSON(w, r, http.StatusOK, toSensor(snap, period, series, parameter))
}
