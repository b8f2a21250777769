// Package models provides the request and response models for the ClearSkies
// API. All JSON fields are camelCase.
package models

import (
	"time"

	"github.com/clearskies/clearskies/internal/aqi"
)

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// NewTimestamp returns nil for the zero time so unknown times are omitted.
func NewTimestamp(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	ts := Timestamp(t)
	return &ts
}

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// AQIValue is an AQI that may be unavailable, with its display text and
// health band. Value is null when unavailable; it is never zero-filled.
type AQIValue struct {
	Value          *float64           `json:"value"`
	Display        string             `json:"display"`
	Classification aqi.Classification `json:"classification"`
}

// NewAQIValue classifies v for display.
func NewAQIValue(v *float64) AQIValue {
	if !aqi.Valid(v) {
		v = nil
	}
	return AQIValue{
		Value:          v,
		Display:        aqi.Display(v),
		Classification: aqi.Classify(v),
	}
}
