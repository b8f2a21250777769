// Package forecast windows hourly AQI predictions for presentation.
package forecast

import (
	"errors"
	"sort"
	"time"
)

// MaxHorizonHours is the largest horizon the prediction service accepts.
const MaxHorizonHours = 72

// Horizons are the preset horizon tabs, in hours.
var Horizons = []int{6, 12, 24, 48}

// ErrInvalidHorizon is returned for a non-positive horizon.
var ErrInvalidHorizon = errors.New("horizon must be a positive number of hours")

// Point is a single predicted AQI value.
type Point struct {
	Timestamp     time.Time `json:"timestamp"`
	HoursAhead    int       `json:"hoursAhead"`
	PredictedAQI  float64   `json:"predictedAqi"`
	Category      string    `json:"category"`
	HealthMessage string    `json:"healthMessage,omitempty"`
}

// Series is ordered by HoursAhead ascending without duplicate HoursAhead.
type Series []Point

// Normalize drops points with a negative HoursAhead, sorts by HoursAhead and
// keeps the first point for each HoursAhead. The input is not modified.
func Normalize(series Series) Series {
	out := make(Series, 0, len(series))
	for _, p := range series {
		if p.HoursAhead < 0 {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].HoursAhead < out[j].HoursAhead
	})

	deduped := out[:0]
	for i, p := range out {
		if i > 0 && p.HoursAhead == deduped[len(deduped)-1].HoursAhead {
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// Window returns the points with HoursAhead <= horizonHours in ascending
// order. Applying it twice with the same horizon yields the same series.
func Window(series Series, horizonHours int) (Series, error) {
	if horizonHours <= 0 {
		return nil, ErrInvalidHorizon
	}

	out := make(Series, 0, len(series))
	for _, p := range series {
		if p.HoursAhead <= horizonHours {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].HoursAhead < out[j].HoursAhead
	})
	return out, nil
}

// Head keeps the first n points. A non-positive n keeps everything.
func Head(series Series, n int) Series {
	if n <= 0 || n >= len(series) {
		return series
	}
	return series[:n]
}

// Peak returns the point with the highest PredictedAQI; the first wins ties.
func Peak(series Series) (Point, bool) {
	if len(series) == 0 {
		return Point{}, false
	}
	peak := series[0]
	for _, p := range series[1:] {
		if p.PredictedAQI > peak.PredictedAQI {
			peak = p
		}
	}
	return peak, true
}
