package weather_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/weather"
	"github.com/clearskies/clearskies/pkg/nullable"
)

func TestObservation_WindCategory(t *testing.T) {
	tests := []struct {
		name      string
		windSpeed nullable.Float
		expected  weather.WindCategory
	}{
		{"calm - zero", nullable.FloatOf(0), weather.WindCalm},
		{"calm - low", nullable.FloatOf(0.5), weather.WindCalm},
		{"calm - boundary", nullable.FloatOf(0.9), weather.WindCalm},
		{"light - boundary", nullable.FloatOf(1.0), weather.WindLight},
		{"light - high", nullable.FloatOf(2.9), weather.WindLight},
		{"moderate - boundary", nullable.FloatOf(3.0), weather.WindModerate},
		{"moderate - high", nullable.FloatOf(7.9), weather.WindModerate},
		{"strong - boundary", nullable.FloatOf(8.0), weather.WindStrong},
		{"strong - high", nullable.FloatOf(15.0), weather.WindStrong},
		{"unavailable", nullable.Float{}, weather.WindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := weather.Observation{WindSpeed: tt.windSpeed}
			assert.Equal(t, tt.expected, obs.WindCategory())
		})
	}
}

func TestObservation_DispersionFactor(t *testing.T) {
	tests := []struct {
		name     string
		wind     nullable.Float
		expected float64
	}{
		{"calm - accumulation", nullable.FloatOf(0.5), 1.3},
		{"light - slight accumulation", nullable.FloatOf(2.0), 1.1},
		{"moderate - good dispersion", nullable.FloatOf(5.0), 0.9},
		{"strong - excellent dispersion", nullable.FloatOf(10.0), 0.7},
		{"unknown - neutral", nullable.Float{}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := weather.Observation{WindSpeed: tt.wind}
			assert.Equal(t, tt.expected, obs.DispersionFactor())
		})
	}
}

func TestObservation_Stagnant(t *testing.T) {
	assert.True(t, weather.Observation{WindSpeed: nullable.FloatOf(0.2)}.Stagnant())
	assert.False(t, weather.Observation{WindSpeed: nullable.FloatOf(4)}.Stagnant())
	assert.False(t, weather.Observation{}.Stagnant())
}

func TestObservation_Available(t *testing.T) {
	assert.False(t, weather.Observation{}.Available())
	assert.True(t, weather.Observation{Humidity: nullable.FloatOf(40)}.Available())
}

func TestObservation_MarshalJSON(t *testing.T) {
	obs := weather.Observation{
		Temperature: nullable.FloatOf(21.5),
		Condition:   weather.ConditionClear,
	}

	b, err := json.Marshal(obs)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"temperature":21.5,"humidity":null,"windSpeed":null,"pressure":null,"condition":"CLEAR"}`,
		string(b))
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input    string
		expected weather.Condition
	}{
		{"Clear", weather.ConditionClear},
		{" clouds ", weather.ConditionClouds},
		{"SMOKE", weather.ConditionSmoke},
		{"sand", weather.ConditionDust},
		{"", weather.ConditionUnknown},
		{"volcanic ash", weather.ConditionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, weather.ParseCondition(tt.input))
		})
	}
}

func TestWindCategoryConstants(t *testing.T) {
	categories := []weather.WindCategory{
		weather.WindCalm,
		weather.WindLight,
		weather.WindModerate,
		weather.WindStrong,
		weather.WindUnknown,
	}

	seen := make(map[weather.WindCategory]bool)
	for _, c := range categories {
		assert.False(t, seen[c], "duplicate category: %s", c)
		seen[c] = true
	}
}
