// Package aqi classifies Air Quality Index values into health bands.
package aqi

import (
	"encoding/json"
	"math"
	"strconv"
)

// Placeholder is rendered in place of a missing AQI value.
const Placeholder = "—"

// Level is the health category of an AQI value.
type Level string

const (
	LevelGood               Level = "Good"
	LevelModerate           Level = "Moderate"
	LevelUnhealthySensitive Level = "Unhealthy for Sensitive Groups"
	LevelUnhealthy          Level = "Unhealthy"
	LevelVeryUnhealthy      Level = "Very Unhealthy"
	LevelHazardous          Level = "Hazardous"
	LevelUnknown            Level = "Unknown"
)

// Color is a presentation-neutral severity token.
type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
	ColorPurple Color = "purple"
	ColorMaroon Color = "maroon"
	ColorGray   Color = "gray"
)

// SeverityUnknown is the severity of an unclassifiable value.
const SeverityUnknown = -1

// band is one contiguous AQI range. Max is inclusive.
type band struct {
	max          float64
	level        Level
	color        Color
	healthImpact string
}

// bands are ordered by ascending upper bound; the index is the severity rank.
var bands = []band{
	{50, LevelGood, ColorGreen,
		"Air quality is satisfactory, and air pollution poses little or no risk."},
	{100, LevelModerate, ColorYellow,
		"Air quality is acceptable. There may be a risk for people who are unusually sensitive to air pollution."},
	{150, LevelUnhealthySensitive, ColorOrange,
		"Members of sensitive groups may experience health effects. The general public is less likely to be affected."},
	{200, LevelUnhealthy, ColorRed,
		"Some members of the general public may experience health effects; sensitive groups may experience more serious effects."},
	{300, LevelVeryUnhealthy, ColorPurple,
		"Health alert: the risk of health effects is increased for everyone."},
	{math.Inf(1), LevelHazardous, ColorMaroon,
		"Health warning of emergency conditions: everyone is more likely to be affected."},
}

// Classification is the result of classifying an AQI value.
type Classification struct {
	Level        Level
	Severity     int
	Color        Color
	HealthImpact string
}

// Unknown is the classification of a missing or invalid value.
var Unknown = Classification{
	Level:        LevelUnknown,
	Severity:     SeverityUnknown,
	Color:        ColorGray,
	HealthImpact: "Air quality data is currently unavailable.",
}

// Known reports whether the classification maps to a band.
func (c Classification) Known() bool {
	return c.Severity != SeverityUnknown
}

// MarshalJSON omits severity for unknown classifications.
func (c Classification) MarshalJSON() ([]byte, error) {
	type wire struct {
		Level        Level  `json:"level"`
		Severity     *int   `json:"severity,omitempty"`
		Color        Color  `json:"color"`
		HealthImpact string `json:"healthImpact"`
	}
	w := wire{Level: c.Level, Color: c.Color, HealthImpact: c.HealthImpact}
	if c.Known() {
		severity := c.Severity
		w.Severity = &severity
	}
	return json.Marshal(w)
}

// Classify maps an optional AQI value to its band.
// nil, NaN, infinite and negative values are Unknown.
func Classify(value *float64) Classification {
	if value == nil {
		return Unknown
	}
	return ClassifyValue(*value)
}

// ClassifyValue maps an AQI value to its band.
func ClassifyValue(value float64) Classification {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return Unknown
	}
	for i, b := range bands {
		if value <= b.max {
			return Classification{
				Level:        b.level,
				Severity:     i,
				Color:        b.color,
				HealthImpact: b.healthImpact,
			}
		}
	}
	return Unknown
}

// Levels returns the known levels in ascending severity.
func Levels() []Level {
	levels := make([]Level, 0, len(bands))
	for _, b := range bands {
		levels = append(levels, b.level)
	}
	return levels
}

// Band is the public view of one classification band. Max is +Inf for the
// top band.
type Band struct {
	Level Level
	Color Color
	Max   float64
}

// Bands returns the bands in ascending severity.
func Bands() []Band {
	out := make([]Band, len(bands))
	for i, b := range bands {
		out[i] = Band{Level: b.level, Color: b.color, Max: b.max}
	}
	return out
}

// Valid reports whether value is a usable AQI.
func Valid(value *float64) bool {
	return value != nil && ClassifyValue(*value).Known()
}

// Display renders an AQI rounded to the nearest integer, or Placeholder.
func Display(value *float64) string {
	if !Valid(value) {
		return Placeholder
	}
	return strconv.FormatFloat(math.Round(*value), 'f', 0, 64)
}
