// Package alert selects forecast points that exceed an AQI threshold.
package alert

import (
	"errors"
	"math"
	"time"

	"github.com/clearskies/clearskies/internal/aqi"
	"github.com/clearskies/clearskies/internal/forecast"
)

// DefaultThreshold is the threshold used when none is given.
const DefaultThreshold = 100

// MaxScale is the top of the AQI scale. Thresholds above it are unusual.
const MaxScale = 500

// ErrInvalidThreshold is returned for a NaN threshold.
var ErrInvalidThreshold = errors.New("threshold must be a number")

// Alert is a forecast point whose predicted AQI exceeds the threshold.
type Alert struct {
	Timestamp    time.Time          `json:"timestamp"`
	HoursAhead   int                `json:"hoursAhead"`
	PredictedAQI float64            `json:"predictedAqi"`
	Category     string             `json:"category"`
	Message      string             `json:"message"`
	Severity     aqi.Classification `json:"severity"`
}

// Result is the outcome of filtering a forecast.
type Result struct {
	Threshold float64 `json:"threshold"`
	// Unusual is set when the threshold lies outside the 0-500 scale.
	Unusual bool    `json:"unusual,omitempty"`
	Alerts  []Alert `json:"alerts"`
}

// Banner summarizes active alerts for a header line.
type Banner struct {
	Count      int                `json:"count"`
	HighestAQI float64            `json:"highestAqi"`
	Severity   aqi.Classification `json:"severity"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Above returns every point with PredictedAQI strictly greater than
// threshold, in the order given.
func Above(series forecast.Series, threshold float64) (Result, error) {
	if math.IsNaN(threshold) {
		return Result{}, ErrInvalidThreshold
	}

	result := Result{
		Threshold: threshold,
		Unusual:   threshold < 0 || threshold > MaxScale,
		Alerts:    []Alert{},
	}
	for _, p := range series {
		if !(p.PredictedAQI > threshold) {
			continue
		}
		result.Alerts = append(result.Alerts, Alert{
			Timestamp:    p.Timestamp,
			HoursAhead:   p.HoursAhead,
			PredictedAQI: p.PredictedAQI,
			Category:     p.Category,
			Message:      p.HealthMessage,
			Severity:     aqi.ClassifyValue(p.PredictedAQI),
		})
	}
	return result, nil
}

// Count returns the number of alerts.
func (r Result) Count() int {
	return len(r.Alerts)
}

// Banner returns the aggregate banner. It reports false when there are no
// alerts.
func (r Result) Banner() (Banner, bool) {
	if len(r.Alerts) == 0 {
		return Banner{}, false
	}
	top := r.Alerts[0]
	for _, a := range r.Alerts[1:] {
		if a.PredictedAQI > top.PredictedAQI {
			top = a
		}
	}
	return Banner{
		Count:      len(r.Alerts),
		HighestAQI: top.PredictedAQI,
		Severity:   top.Severity,
		Timestamp:  top.Timestamp,
	}, true
}
