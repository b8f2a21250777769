package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/clearskies/clearskies/internal/alert"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/api/response"
	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/recommendation"
)

// PredictionService supplies forecast-derived data.
type PredictionService interface {
	GetForecast(ctx context.Context, hours int) (forecast.Series, error)
	GetAlerts(ctx context.Context, threshold float64, hours int) (alert.Result, prediction.AlertSource, error)
	GetRecommendations(ctx context.Context) (*prediction.Recommendations, error)
	GetModelMetrics(ctx context.Context) (*prediction.ModelMetrics, error)
}

// PredictionHandler handles forecast, alert, recommendation and model
// endpoints.
type PredictionHandler struct {
	service          PredictionService
	defaultHours     int
	defaultThreshold float64
}

// NewPredictionHandler creates a new PredictionHandler. Zero defaults fall
// back to 24 hours and alert.DefaultThreshold.
func NewPredictionHandler(service PredictionService, defaultHours int, defaultThreshold float64) *PredictionHandler {
	if !prediction.ValidHours(defaultHours) {
		defaultHours = 24
	}
	if defaultThreshold == 0 {
		defaultThreshold = alert.DefaultThreshold
	}
	return &PredictionHandler{
		service:          service,
		defaultHours:     defaultHours,
		defaultThreshold: defaultThreshold,
	}
}

// GetForecast handles GET /v1/forecast?hours=&limit= - windowed, classified
// forecast.
func (h *PredictionHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	var fieldErrors []models.FieldError

	hours, ferr := queryInt(r, "hours", h.defaultHours, 1, forecast.MaxHorizonHours)
	if ferr != nil {
		fieldErrors = append(fieldErrors, *ferr)
	}
	limit, ferr := queryInt(r, "limit", 0, 1, forecast.MaxHorizonHours+1)
	if ferr != nil {
		fieldErrors = append(fieldErrors, *ferr)
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrors)
		return
	}

	series, err := h.service.GetForecast(r.Context(), hours)
	if err != nil {
		h.writeError(w, r, err, "forecast")
		return
	}

	window, err := forecast.Window(series, hours)
	if err != nil {
		response.InvalidParam(w, r, "hours", err.Error())
		return
	}

	response.JSON(w, r, http.StatusOK, toForecast(hours, window, limit))
}

// GetAlerts handles GET /v1/alerts?threshold=&hours= - forecast hours above
// the threshold, with a banner.
func (h *PredictionHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	var fieldErrors []models.FieldError

	threshold, ferr := queryFloat(r, "threshold", h.defaultThreshold)
	if ferr != nil {
		fieldErrors = append(fieldErrors, *ferr)
	}
	hours, ferr := queryInt(r, "hours", h.defaultHours, 1, forecast.MaxHorizonHours)
	if ferr != nil {
		fieldErrors = append(fieldErrors, *ferr)
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation error", fieldErrors)
		return
	}

	result, source, err := h.service.GetAlerts(r.Context(), threshold, hours)
	if err != nil {
		if errors.Is(err, alert.ErrInvalidThreshold) {
			response.InvalidParam(w, r, "threshold", err.Error())
			return
		}
		h.writeError(w, r, err, "alerts")
		return
	}

	response.JSON(w, r, http.StatusOK, toAlerts(result, hours, source))
}

// GetRecommendations handles GET /v1/recommendations - categorized health
// advice.
func (h *PredictionHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.GetRecommendations(r.Context())
	if err != nil {
		h.writeError(w, r, err, "recommendations")
		return
	}

	buckets := recommendation.Categorize(recs.Texts)
	response.JSON(w, r, http.StatusOK, toRecommendations(recs, buckets))
}

// GetModelMetrics handles GET /v1/model/metrics - model quality metrics.
func (h *PredictionHandler) GetModelMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetModelMetrics(r.Context())
	if err != nil {
		h.writeError(w, r, err, "model metrics")
		return
	}

	response.JSON(w, r, http.StatusOK, toModelMetrics(m))
}

func (h *PredictionHandler) writeError(w http.ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, prediction.ErrInvalidHours):
		response.InvalidParam(w, r, "hours", err.Error())
	case errors.Is(err, prediction.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, what+" temporarily unavailable")
	default:
		response.InternalError(w, r, "failed to load "+what)
	}
}
