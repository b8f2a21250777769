// Package airquality provides the current air quality summary and caching.
package airquality

import (
	"errors"
	"sort"
	"time"

	"github.com/clearskies/clearskies/internal/aqi"
	"github.com/clearskies/clearskies/internal/weather"
)

// Provider errors.
var (
	ErrNoReading           = errors.New("no air quality reading available")
	ErrProviderUnavailable = errors.New("air quality provider unavailable")
)

// Common pollutant keys as reported upstream.
const (
	PollutantPM25 = "pm25"
	PollutantPM10 = "pm10"
	PollutantO3   = "o3"
	PollutantNO2  = "no2"
	PollutantSO2  = "so2"
	PollutantCO   = "co"
)

// Reading is a single AQI observation. AQI is nil when unavailable and is
// never coerced to zero.
type Reading struct {
	AQI        *float64
	Category   string
	Timestamp  time.Time
	Pollutants map[string]float64
}

// Classification returns the health band of the reading.
func (r Reading) Classification() aqi.Classification {
	return aqi.Classify(r.AQI)
}

// CategoryOrDefault returns the upstream category, falling back to the
// classified level.
func (r Reading) CategoryOrDefault() string {
	if r.Category != "" {
		return r.Category
	}
	return string(r.Classification().Level)
}

// Pollutant returns the concentration for key.
func (r Reading) Pollutant(key string) (float64, bool) {
	v, ok := r.Pollutants[key]
	return v, ok
}

// PollutantKeys returns the pollutant keys in sorted order.
func (r Reading) PollutantKeys() []string {
	keys := make([]string, 0, len(r.Pollutants))
	for k := range r.Pollutants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Summary is the current air quality picture from the prediction service.
type Summary struct {
	Reading Reading

	// Weather observed alongside the reading.
	Weather weather.Observation

	// RecentAQI is a short chronological AQI history for sparklines.
	RecentAQI []float64

	// FetchedAt is when this summary was retrieved from the provider.
	FetchedAt time.Time

	// Provider identifies the data source.
	Provider string
}
