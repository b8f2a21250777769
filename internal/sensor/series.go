// Package sensor reduces ground-sensor time series into display aggregates.
package sensor

import (
	"encoding/json"
	"math"
	"time"

	"github.com/clearskies/clearskies/pkg/nullable"
)

// Period is a sensor aggregation granularity.
type Period string

const (
	PeriodMeasurements Period = "measurements"
	PeriodHours        Period = "hours"
	PeriodDays         Period = "days"
	PeriodYears        Period = "years"
)

// Periods lists every period in fetch order.
var Periods = []Period{PeriodMeasurements, PeriodHours, PeriodDays, PeriodYears}

// Defaults used when a caller does not pick a period or parameter.
const (
	DefaultPeriod    = PeriodHours
	DefaultParameter = "pm25"
	DefaultSensorID  = "3917"
)

// Valid reports whether p is one of the known periods.
func (p Period) Valid() bool {
	for _, known := range Periods {
		if p == known {
			return true
		}
	}
	return false
}

// Limit is the number of results requested upstream for the period.
func (p Period) Limit() int {
	switch p {
	case PeriodMeasurements:
		return 100
	case PeriodHours:
		return 24
	case PeriodDays:
		return 30
	case PeriodYears:
		return 5
	default:
		return 0
	}
}

// Point is a single canonical sensor reading.
type Point struct {
	Parameter   string    `json:"parameter"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit,omitempty"`
	PeriodStart time.Time `json:"periodStart,omitempty"`
}

// Series is a chronological list of readings. It may mix parameters.
type Series []Point

// Parameters returns the distinct parameter names in first-seen order.
func (s Series) Parameters() []string {
	seen := make(map[string]struct{}, len(s))
	var names []string
	for _, p := range s {
		if _, ok := seen[p.Parameter]; ok {
			continue
		}
		seen[p.Parameter] = struct{}{}
		names = append(names, p.Parameter)
	}
	return names
}

// Latest returns the last reading for parameter.
func (s Series) Latest(parameter string) (Point, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Parameter == parameter {
			return s[i], true
		}
	}
	return Point{}, false
}

// Buckets holds one series per period. A nil entry means the fetch for
// that period failed or has not run.
type Buckets map[Period]Series

// Counts returns the number of readings per period; nil buckets are omitted.
func (b Buckets) Counts() map[Period]int {
	counts := make(map[Period]int, len(b))
	for period, series := range b {
		if series == nil {
			continue
		}
		counts[period] = len(series)
	}
	return counts
}

// RawResult is one entry of an OpenAQ results array. The shape differs per
// endpoint: raw measurements carry a datetime, aggregates a period window.
type RawResult struct {
	Parameter RawParameter   `json:"parameter"`
	Value     nullable.Float `json:"value"`
	Period    RawPeriod      `json:"period"`
	Datetime  RawTime        `json:"datetime"`
}

// RawParameter names the measured quantity.
type RawParameter struct {
	Name  nullable.String `json:"name"`
	Units nullable.String `json:"units"`
}

// UnmarshalJSON ignores anything that is not an object.
func (p *RawParameter) UnmarshalJSON(data []byte) error {
	type plain RawParameter
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		*p = RawParameter{}
		return nil //nolint:nilerr // malformed values are treated as absent
	}
	*p = RawParameter(v)
	return nil
}

// RawPeriod is the aggregation window of an aggregate result.
type RawPeriod struct {
	DatetimeFrom RawTime `json:"datetimeFrom"`
}

// UnmarshalJSON ignores anything that is not an object.
func (p *RawPeriod) UnmarshalJSON(data []byte) error {
	type plain RawPeriod
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		*p = RawPeriod{}
		return nil //nolint:nilerr // malformed values are treated as absent
	}
	*p = RawPeriod(v)
	return nil
}

// RawTime accepts either a timestamp string or an object with a utc field.
type RawTime struct {
	nullable.Time
}

// UnmarshalJSON decodes both timestamp shapes.
func (t *RawTime) UnmarshalJSON(data []byte) error {
	*t = RawTime{}

	var obj struct {
		UTC nullable.Time `json:"utc"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		t.Time = obj.UTC
		return nil
	}
	return t.Time.UnmarshalJSON(data)
}

// Normalize converts raw results into a canonical series. Entries without a
// parameter name or a finite value are skipped.
func Normalize(raw []RawResult) Series {
	series := make(Series, 0, len(raw))
	for _, r := range raw {
		name := r.Parameter.Name.Or("")
		if name == "" {
			continue
		}
		if !r.Value.Valid || math.IsNaN(r.Value.Value) || math.IsInf(r.Value.Value, 0) {
			continue
		}

		start := r.Period.DatetimeFrom.Time
		if !start.Valid {
			start = r.Datetime.Time
		}

		series = append(series, Point{
			Parameter:   name,
			Value:       r.Value.Value,
			Unit:        r.Parameter.Units.Or(""),
			PeriodStart: start.Value,
		})
	}
	return series
}
