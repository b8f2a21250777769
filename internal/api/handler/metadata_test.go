package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/api/handler"
	"github.com/clearskies/clearskies/internal/api/models"
)

func TestMetadataHandler_GetEnums(t *testing.T) {
	h := handler.NewMetadataHandler(0)

	rec := serve(t, "/v1/metadata/enums", h.GetEnums, "/v1/metadata/enums")
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.Enums
	decode(t, rec, &body)

	require.Len(t, body.Levels, 6)
	assert.Equal(t, "Good", body.Levels[0].Level)
	assert.Equal(t, "green", body.Levels[0].Color)
	require.NotNil(t, body.Levels[0].Max)
	assert.Equal(t, 50.0, *body.Levels[0].Max)
	assert.Equal(t, "Hazardous", body.Levels[5].Level)
	assert.Nil(t, body.Levels[5].Max)

	assert.Equal(t, []models.PeriodInfo{
		{Period: "measurements", Limit: 100},
		{Period: "hours", Limit: 24},
		{Period: "days", Limit: 30},
		{Period: "years", Limit: 5},
	}, body.Periods)
	assert.Equal(t, []string{"outdoor", "indoor", "health", "sensitive", "general"}, body.RecommendationCategories)
	assert.Equal(t, []int{6, 12, 24, 48}, body.ForecastHorizons)
	assert.Equal(t, 72, body.MaxForecastHours)
	assert.Equal(t, 100.0, body.DefaultAlertThreshold)
}
