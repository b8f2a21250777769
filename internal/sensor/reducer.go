package sensor

import "math"

// Average is the mean of the readings selected for a parameter.
type Average struct {
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// Rounded returns the mean rounded to the nearest integer for display.
func (a Average) Rounded() int {
	return int(math.Round(a.Mean))
}

// AverageFor returns the mean of all finite readings whose parameter matches
// exactly. It reports false when nothing matches.
func AverageFor(series Series, parameter string) (Average, bool) {
	var sum float64
	var count int
	for _, p := range series {
		if p.Parameter != parameter {
			continue
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		sum += p.Value
		count++
	}
	if count == 0 {
		return Average{}, false
	}
	return Average{Mean: sum / float64(count), Count: count}, true
}

// SelectPeriod looks up the series for period. It reports false when the
// period is unknown or its bucket is unset.
func SelectPeriod(buckets Buckets, period Period) (Series, bool) {
	if buckets == nil {
		return nil, false
	}
	series, ok := buckets[period]
	if !ok || series == nil {
		return nil, false
	}
	return series, true
}
