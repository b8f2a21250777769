// Package weather models the weather snapshot that accompanies current
// air quality readings.
package weather

import (
	"strings"

	"github.com/clearskies/clearskies/pkg/nullable"
)

// Observation is a weather snapshot. Every field may be unavailable.
type Observation struct {
	// Temperature in Celsius
	Temperature nullable.Float `json:"temperature"`

	// Humidity percentage (0-100)
	Humidity nullable.Float `json:"humidity"`

	// WindSpeed in m/s
	WindSpeed nullable.Float `json:"windSpeed"`

	// Pressure in hPa
	Pressure nullable.Float `json:"pressure"`

	Condition Condition `json:"condition"`
}

// Available reports whether any field carries data.
func (o Observation) Available() bool {
	return o.Temperature.Valid || o.Humidity.Valid || o.WindSpeed.Valid || o.Pressure.Valid
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionSmoke        Condition = "SMOKE"
	ConditionDust         Condition = "DUST"
	ConditionUnknown      Condition = "UNKNOWN"
)

var conditionAliases = map[string]Condition{
	"clear":        ConditionClear,
	"sunny":        ConditionClear,
	"clouds":       ConditionClouds,
	"cloudy":       ConditionClouds,
	"overcast":     ConditionClouds,
	"rain":         ConditionRain,
	"drizzle":      ConditionDrizzle,
	"thunderstorm": ConditionThunderstorm,
	"snow":         ConditionSnow,
	"mist":         ConditionMist,
	"fog":          ConditionFog,
	"haze":         ConditionHaze,
	"smoke":        ConditionSmoke,
	"dust":         ConditionDust,
	"sand":         ConditionDust,
}

// ParseCondition maps an upstream condition label to a Condition.
func ParseCondition(s string) Condition {
	if c, ok := conditionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return ConditionUnknown
}

// WindCategory categorizes wind speed for air quality impact assessment.
type WindCategory string

const (
	WindCalm     WindCategory = "CALM"     // < 1 m/s - pollutants accumulate
	WindLight    WindCategory = "LIGHT"    // 1-3 m/s - minimal dispersion
	WindModerate WindCategory = "MODERATE" // 3-8 m/s - good dispersion
	WindStrong   WindCategory = "STRONG"   // > 8 m/s - excellent dispersion
	WindUnknown  WindCategory = "UNKNOWN"
)

// WindCategory returns the wind category for the observation.
func (o Observation) WindCategory() WindCategory {
	if !o.WindSpeed.Valid {
		return WindUnknown
	}
	switch ws := o.WindSpeed.Value; {
	case ws < 1:
		return WindCalm
	case ws < 3:
		return WindLight
	case ws < 8:
		return WindModerate
	default:
		return WindStrong
	}
}

// DispersionFactor returns a multiplier (0.7-1.3) indicating how wind affects
// pollutant dispersion. Lower values mean pollutants disperse faster.
func (o Observation) DispersionFactor() float64 {
	switch o.WindCategory() {
	case WindCalm:
		return 1.3
	case WindLight:
		return 1.1
	case WindModerate:
		return 0.9
	case WindStrong:
		return 0.7
	default:
		return 1.0
	}
}

// Stagnant reports whether calm wind is likely to trap pollutants.
func (o Observation) Stagnant() bool {
	return o.WindCategory() == WindCalm
}
