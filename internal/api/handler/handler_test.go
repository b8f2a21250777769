package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/alert"
	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/sensor"
)

var testTime = time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// serve runs h behind a chi router so URL params resolve.
func serve(t *testing.T, pattern string, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Get(pattern, h)

	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

// stubCurrent is a CurrentService returning a fixed summary or error.
type stubCurrent struct {
	summary *airquality.Summary
	err     error
	calls   atomic.Int32
}

func (s *stubCurrent) GetSummary(context.Context) (*airquality.Summary, error) {
	s.calls.Add(1)
	return s.summary, s.err
}

func testSeries() forecast.Series {
	values := []float64{45, 120, 180, 90, 160}
	series := make(forecast.Series, len(values))
	for i, v := range values {
		series[i] = forecast.Point{
			Timestamp:    testTime.Add(time.Duration(i*6) * time.Hour),
			HoursAhead:   i * 6,
			PredictedAQI: v,
			Category:     "",
		}
	}
	return series
}

// stubPrediction is a PredictionService backed by a fixed forecast.
type stubPrediction struct {
	series  forecast.Series
	recs    *prediction.Recommendations
	metrics *prediction.ModelMetrics
	err     error

	forecastCalls atomic.Int32
	lastHours     atomic.Int32
}

func (s *stubPrediction) GetForecast(_ context.Context, hours int) (forecast.Series, error) {
	s.forecastCalls.Add(1)
	s.lastHours.Store(int32(hours))
	if s.err != nil {
		return nil, s.err
	}
	if !prediction.ValidHours(hours) {
		return nil, prediction.ErrInvalidHours
	}
	return s.series, nil
}

func (s *stubPrediction) GetAlerts(ctx context.Context, threshold float64, hours int) (alert.Result, prediction.AlertSource, error) {
	series, err := s.GetForecast(ctx, hours)
	if err != nil {
		return alert.Result{}, "", err
	}
	window, err := forecast.Window(series, hours)
	if err != nil {
		return alert.Result{}, "", err
	}
	result, err := alert.Above(window, threshold)
	return result, prediction.AlertSourceForecast, err
}

func (s *stubPrediction) GetRecommendations(context.Context) (*prediction.Recommendations, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.recs, nil
}

func (s *stubPrediction) GetModelMetrics(context.Context) (*prediction.ModelMetrics, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.metrics, nil
}

// stubSensors is a SensorService with fixed buckets.
type stubSensors struct {
	snapshot *sensor.Snapshot
	err      error
	calls    atomic.Int32
}

func (s *stubSensors) GetSnapshot(_ context.Context, sensorID string) (*sensor.Snapshot, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if !sensor.ValidSensorID(sensorID) {
		return nil, sensor.ErrInvalidSensorID
	}
	snap := *s.snapshot
	snap.SensorID = sensorID
	return &snap, nil
}

func testSnapshot() *sensor.Snapshot {
	return &sensor.Snapshot{
		Buckets: sensor.Buckets{
			sensor.PeriodMeasurements: sensor.Series{
				{Parameter: "pm25", Value: 8, Unit: "µg/m³"},
			},
			sensor.PeriodHours: sensor.Series{
				{Parameter: "pm25", Value: 10, Unit: "µg/m³", PeriodStart: testTime},
				{Parameter: "pm10", Value: 30, Unit: "µg/m³", PeriodStart: testTime},
				{Parameter: "pm25", Value: 21, Unit: "µg/m³", PeriodStart: testTime.Add(time.Hour)},
			},
			sensor.PeriodDays:  sensor.Series{},
			sensor.PeriodYears: nil,
		},
		Failed:    []sensor.Period{sensor.PeriodYears},
		FetchedAt: testTime,
	}
}

func unavailable(what string) error {
	return fmt.Errorf("%w: %w", prediction.ErrProviderUnavailable, errors.New(what+" timeout"))
}
