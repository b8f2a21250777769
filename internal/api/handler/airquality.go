package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/api/response"
)

// CurrentService supplies the current air quality summary.
type CurrentService interface {
	GetSummary(ctx context.Context) (*airquality.Summary, error)
}

// AirQualityHandler handles current reading and classification endpoints.
type AirQualityHandler struct {
	service CurrentService
}

// NewAirQualityHandler creates a new AirQualityHandler.
func NewAirQualityHandler(service CurrentService) *AirQualityHandler {
	return &AirQualityHandler{service: service}
}

// GetCurrent handles GET /v1/current - current reading with classification,
// pollutants and weather. A missing AQI is reported as unavailable, not 0.
func (h *AirQualityHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetSummary(r.Context())
	if err != nil {
		if errors.Is(err, airquality.ErrProviderUnavailable) {
			response.ServiceUnavailable(w, r, "current air quality is temporarily unavailable")
			return
		}
		response.InternalError(w, r, "failed to load current air quality")
		return
	}

	response.JSON(w, r, http.StatusOK, toCurrent(summary))
}

// Classify handles GET /v1/aqi/classify?value= - classify an arbitrary
// value. Missing or unparsable values classify as Unknown.
func (h *AirQualityHandler) Classify(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("value")

	var value *float64
	if f, err := strconv.ParseFloat(strings.TrimSpace(input), 64); err == nil {
		value = &f
	}

	response.JSON(w, r, http.StatusOK, models.Classify{
		Input:    input,
		AQIValue: models.NewAQIValue(value),
	})
}
