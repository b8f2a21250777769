package forecast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/forecast"
)

func seriesOf(hours ...int) forecast.Series {
	s := make(forecast.Series, 0, len(hours))
	for _, h := range hours {
		s = append(s, forecast.Point{HoursAhead: h, PredictedAQI: float64(h)})
	}
	return s
}

func hoursOf(s forecast.Series) []int {
	hours := make([]int, 0, len(s))
	for _, p := range s {
		hours = append(hours, p.HoursAhead)
	}
	return hours
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name    string
		series  forecast.Series
		horizon int
		want    []int
	}{
		{"24 hour tab", seriesOf(0, 6, 12, 24, 30, 48), 24, []int{0, 6, 12, 24}},
		{"6 hour tab", seriesOf(0, 6, 12, 24, 30, 48), 6, []int{0, 6}},
		{"horizon beyond series", seriesOf(0, 6), 48, []int{0, 6}},
		{"empty", forecast.Series{}, 24, []int{}},
		{"unsorted input", seriesOf(12, 0, 6, 30), 12, []int{0, 6, 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := forecast.Window(tt.series, tt.horizon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hoursOf(got))
		})
	}
}

func TestWindow_Idempotent(t *testing.T) {
	series := seriesOf(0, 6, 12, 24, 30, 48)

	once, err := forecast.Window(series, 24)
	require.NoError(t, err)
	twice, err := forecast.Window(once, 24)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestWindow_DoesNotModifyInput(t *testing.T) {
	series := seriesOf(30, 0, 6)

	_, err := forecast.Window(series, 24)
	require.NoError(t, err)
	assert.Equal(t, []int{30, 0, 6}, hoursOf(series))
}

func TestWindow_InvalidHorizon(t *testing.T) {
	for _, h := range []int{0, -6} {
		_, err := forecast.Window(seriesOf(0, 6), h)
		assert.ErrorIs(t, err, forecast.ErrInvalidHorizon)
	}
}

func TestHead(t *testing.T) {
	series := seriesOf(0, 1, 2, 3, 4)

	assert.Equal(t, []int{0, 1, 2}, hoursOf(forecast.Head(series, 3)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, hoursOf(forecast.Head(series, 10)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, hoursOf(forecast.Head(series, 0)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, hoursOf(forecast.Head(series, -1)))
}

func TestNormalize(t *testing.T) {
	series := forecast.Series{
		{HoursAhead: 6, PredictedAQI: 60},
		{HoursAhead: -1, PredictedAQI: 1},
		{HoursAhead: 0, PredictedAQI: 10},
		{HoursAhead: 6, PredictedAQI: 99},
		{HoursAhead: 3, PredictedAQI: 30},
	}

	got := forecast.Normalize(series)
	assert.Equal(t, []int{0, 3, 6}, hoursOf(got))
	assert.Equal(t, 60.0, got[2].PredictedAQI, "first point for a duplicate hour wins")
	assert.Len(t, series, 5)
}

func TestPeak(t *testing.T) {
	series := forecast.Series{
		{HoursAhead: 0, PredictedAQI: 80},
		{HoursAhead: 1, PredictedAQI: 120},
		{HoursAhead: 2, PredictedAQI: 120},
	}

	peak, ok := forecast.Peak(series)
	require.True(t, ok)
	assert.Equal(t, 1, peak.HoursAhead)

	_, ok = forecast.Peak(nil)
	assert.False(t, ok)
}
