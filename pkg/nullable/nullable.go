// Package nullable provides JSON value types that decode leniently.
// Upstream payloads are loosely typed: a field may be missing, null, a number
// encoded as a string, or the wrong type entirely. These types record such
// values as "not valid" instead of failing the whole document.
package nullable

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

var null = []byte("null")

// Float is a float64 that may be absent.
type Float struct {
	Value float64
	Valid bool
}

// FloatOf returns a valid Float. Non-finite values are stored as invalid.
func FloatOf(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{Value: v, Valid: true}
}

// FloatFromPtr converts a pointer into a Float.
func FloatFromPtr(v *float64) Float {
	if v == nil {
		return Float{}
	}
	return FloatOf(*v)
}

// Ptr returns a pointer to the value, or nil when invalid.
func (f Float) Ptr() *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else leaves
// the value invalid without returning an error.
func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float{}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil //nolint:nilerr // malformed values are treated as absent
	}

	switch v := raw.(type) {
	case float64:
		*f = FloatOf(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			*f = FloatOf(parsed)
		}
	}
	return nil
}

// MarshalJSON writes the number or null.
func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return null, nil
	}
	return json.Marshal(f.Value)
}

// Int is an int that may be absent.
type Int struct {
	Value int
	Valid bool
}

// IntOf returns a valid Int.
func IntOf(v int) Int {
	return Int{Value: v, Valid: true}
}

// UnmarshalJSON accepts integral numbers and integral numeric strings.
func (i *Int) UnmarshalJSON(data []byte) error {
	*i = Int{}

	var f Float
	_ = f.UnmarshalJSON(data)
	if !f.Valid || f.Value != math.Trunc(f.Value) {
		return nil
	}
	if f.Value > math.MaxInt32 || f.Value < math.MinInt32 {
		return nil
	}
	*i = IntOf(int(f.Value))
	return nil
}

// MarshalJSON writes the number or null.
func (i Int) MarshalJSON() ([]byte, error) {
	if !i.Valid {
		return null, nil
	}
	return json.Marshal(i.Value)
}

// String is a string that may be absent. Empty strings are valid.
type String struct {
	Value string
	Valid bool
}

// StringOf returns a valid String.
func StringOf(v string) String {
	return String{Value: v, Valid: true}
}

// Or returns the value, or fallback when invalid or empty.
func (s String) Or(fallback string) string {
	if !s.Valid || s.Value == "" {
		return fallback
	}
	return s.Value
}

// UnmarshalJSON accepts JSON strings only.
func (s *String) UnmarshalJSON(data []byte) error {
	*s = String{}

	var v string
	if err := json.Unmarshal(data, &v); err == nil {
		*s = StringOf(v)
	}
	return nil
}

// MarshalJSON writes the string or null.
func (s String) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return null, nil
	}
	return json.Marshal(s.Value)
}

// Time is a timestamp that may be absent.
type Time struct {
	Value time.Time
	Valid bool
}

// timeLayouts are tried in order. Naive timestamps are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats seen in upstream payloads.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// UnmarshalJSON accepts timestamp strings in any of the known layouts.
func (t *Time) UnmarshalJSON(data []byte) error {
	*t = Time{}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil //nolint:nilerr // malformed values are treated as absent
	}
	if parsed, ok := ParseTime(s); ok {
		*t = Time{Value: parsed, Valid: true}
	}
	return nil
}

// MarshalJSON writes an RFC 3339 timestamp or null.
func (t Time) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return null, nil
	}
	return json.Marshal(t.Value.Format(time.RFC3339))
}

// FloatMap is a map of numbers. Entries that are not numbers are dropped and
// a value that is not an object decodes as nil.
type FloatMap map[string]float64

// UnmarshalJSON decodes the object leniently.
func (m *FloatMap) UnmarshalJSON(data []byte) error {
	*m = nil

	var raw map[string]Float
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil //nolint:nilerr // malformed values are treated as absent
	}

	out := make(FloatMap, len(raw))
	for k, v := range raw {
		if v.Valid {
			out[k] = v.Value
		}
	}
	*m = out
	return nil
}

// FloatSlice is a list of numbers. Elements that are not numbers are dropped
// and a value that is not an array decodes as nil.
type FloatSlice []float64

// UnmarshalJSON decodes the array leniently.
func (s *FloatSlice) UnmarshalJSON(data []byte) error {
	*s = nil

	var raw []Float
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil //nolint:nilerr // malformed values are treated as absent
	}

	out := make(FloatSlice, 0, len(raw))
	for _, v := range raw {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	*s = out
	return nil
}

// StringSlice is a list of strings. Elements that are not strings are
// dropped and a value that is not an array decodes as nil.
type StringSlice []string

// UnmarshalJSON decodes the array leniently.
func (s *StringSlice) UnmarshalJSON(data []byte) error {
	*s = nil

	var raw []String
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil //nolint:nilerr // malformed values are treated as absent
	}

	out := make(StringSlice, 0, len(raw))
	for _, v := range raw {
		if v.Valid {
			out = append(out, v.Value)
		}
	}
	*s = out
	return nil
}
