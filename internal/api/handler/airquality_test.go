package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/api/handler"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/aqi"
	"github.com/clearskies/clearskies/internal/weather"
	"github.com/clearskies/clearskies/pkg/nullable"
)

func TestAirQualityHandler_GetCurrent(t *testing.T) {
	svc := &stubCurrent{summary: &airquality.Summary{
		Reading: airquality.Reading{
			AQI:        ptr(132),
			Timestamp:  testTime,
			Pollutants: map[string]float64{"pm25": 48.2, "no2": 12},
		},
		Weather: weather.Observation{
			Temperature: nullable.FloatOf(21.5),
			WindSpeed:   nullable.FloatOf(0.4),
		},
		RecentAQI: []float64{110, 120, 132},
		FetchedAt: testTime,
		Provider:  "prediction",
	}}
	h := handler.NewAirQualityHandler(svc)

	rec := serve(t, "/v1/current", h.GetCurrent, "/v1/current")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.Current
	decode(t, rec, &body)

	require.NotNil(t, body.AQI.Value)
	assert.Equal(t, 132.0, *body.AQI.Value)
	assert.Equal(t, "132", body.AQI.Display)
	assert.Equal(t, string(aqi.LevelUnhealthySensitive), body.Category)
	assert.Equal(t, []models.Pollutant{{Key: "no2", Value: 12}, {Key: "pm25", Value: 48.2}}, body.Pollutants)
	assert.Equal(t, []float64{110, 120, 132}, body.RecentAQI)

	assert.True(t, body.Weather.Available)
	require.NotNil(t, body.Weather.Temperature)
	assert.Equal(t, 21.5, *body.Weather.Temperature)
	assert.Nil(t, body.Weather.Humidity)
	assert.Equal(t, "CALM", body.Weather.WindCategory)
	assert.True(t, body.Weather.Stagnant)
}

func TestAirQualityHandler_GetCurrent_MissingAQI(t *testing.T) {
	svc := &stubCurrent{summary: &airquality.Summary{Provider: "prediction"}}
	h := handler.NewAirQualityHandler(svc)

	rec := serve(t, "/v1/current", h.GetCurrent, "/v1/current")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), `"value":null`)
	assert.Contains(t, rec.Body.String(), `"display":"—"`)
	assert.Contains(t, rec.Body.String(), `"level":"Unknown"`)
	assert.Contains(t, rec.Body.String(), `"recentAqi":[]`)
	assert.NotContains(t, rec.Body.String(), `"severity"`)
}

func TestAirQualityHandler_GetCurrent_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"provider unavailable", fmt.Errorf("%w: boom", airquality.ErrProviderUnavailable), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewAirQualityHandler(&stubCurrent{err: tt.err})

			rec := serve(t, "/v1/current", h.GetCurrent, "/v1/current")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestAirQualityHandler_Classify(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLevel aqi.Level
		wantValue bool
	}{
		{"good boundary", "50", aqi.LevelGood, true},
		{"moderate", "50.5", aqi.LevelModerate, true},
		{"hazardous", "301", aqi.LevelHazardous, true},
		{"negative", "-1", aqi.LevelUnknown, false},
		{"not a number", "abc", aqi.LevelUnknown, false},
		{"missing", "", aqi.LevelUnknown, false},
	}

	h := handler.NewAirQualityHandler(&stubCurrent{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, "/v1/aqi/classify", h.Classify, "/v1/aqi/classify?value="+tt.query)
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Input          string   `json:"input"`
				Value          *float64 `json:"value"`
				Classification struct {
					Level aqi.Level `json:"level"`
				} `json:"classification"`
			}
			decode(t, rec, &body)

			assert.Equal(t, tt.query, body.Input)
			assert.Equal(t, tt.wantLevel, body.Classification.Level)
			assert.Equal(t, tt.wantValue, body.Value != nil)
		})
	}
}
