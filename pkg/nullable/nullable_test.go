package nullable

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestFloat_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{name: "number", input: `12.5`, wantValid: true, wantValue: 12.5},
		{name: "zero", input: `0`, wantValid: true, wantValue: 0},
		{name: "numeric string", input: `"42"`, wantValid: true, wantValue: 42},
		{name: "padded numeric string", input: `" 7.25 "`, wantValid: true, wantValue: 7.25},
		{name: "null", input: `null`, wantValid: false},
		{name: "text", input: `"n/a"`, wantValid: false},
		{name: "bool", input: `true`, wantValid: false},
		{name: "object", input: `{"value":1}`, wantValid: false},
		{name: "array", input: `[1,2]`, wantValid: false},
		{name: "NaN string", input: `"NaN"`, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Float
			if err := f.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if f.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", f.Valid, tt.wantValid)
			}
			if tt.wantValid && f.Value != tt.wantValue {
				t.Errorf("Value = %v, want %v", f.Value, tt.wantValue)
			}
		})
	}
}

func TestFloat_InStruct(t *testing.T) {
	var payload struct {
		AQI      Float  `json:"aqi"`
		Missing  Float  `json:"missing"`
		Category String `json:"category"`
	}

	err := json.Unmarshal([]byte(`{"aqi":"oops","category":17}`), &payload)
	if err != nil {
		t.Fatalf("decoding a wrong-typed field must not fail: %v", err)
	}
	if payload.AQI.Valid || payload.Missing.Valid || payload.Category.Valid {
		t.Errorf("expected all fields invalid, got %+v", payload)
	}
}

func TestFloatOf_NonFinite(t *testing.T) {
	if FloatOf(math.NaN()).Valid {
		t.Error("NaN must be invalid")
	}
	if FloatOf(math.Inf(1)).Valid {
		t.Error("+Inf must be invalid")
	}
	if FloatOf(math.Inf(-1)).Valid {
		t.Error("-Inf must be invalid")
	}
}

func TestFloat_Ptr(t *testing.T) {
	if (Float{}).Ptr() != nil {
		t.Error("invalid Float must return nil pointer")
	}
	p := FloatOf(3).Ptr()
	if p == nil || *p != 3 {
		t.Errorf("Ptr() = %v, want 3", p)
	}
	if FloatFromPtr(nil).Valid {
		t.Error("FloatFromPtr(nil) must be invalid")
	}
}

func TestFloat_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Float `json:"a"`
		B Float `json:"b"`
	}{A: FloatOf(1.5)})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(b) != `{"a":1.5,"b":null}` {
		t.Errorf("Marshal() = %s", b)
	}
}

func TestInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue int
	}{
		{name: "integer", input: `6`, wantValid: true, wantValue: 6},
		{name: "integral float", input: `12.0`, wantValid: true, wantValue: 12},
		{name: "integer string", input: `"24"`, wantValid: true, wantValue: 24},
		{name: "fractional", input: `1.5`, wantValid: false},
		{name: "null", input: `null`, wantValid: false},
		{name: "huge", input: `1e20`, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var i Int
			if err := i.UnmarshalJSON([]byte(tt.input)); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if i.Valid != tt.wantValid {
				t.Fatalf("Valid = %v, want %v", i.Valid, tt.wantValid)
			}
			if tt.wantValid && i.Value != tt.wantValue {
				t.Errorf("Value = %d, want %d", i.Value, tt.wantValue)
			}
		})
	}
}

func TestString_Or(t *testing.T) {
	if got := (String{}).Or("Unknown"); got != "Unknown" {
		t.Errorf("Or() = %q, want Unknown", got)
	}
	if got := StringOf("").Or("Unknown"); got != "Unknown" {
		t.Errorf("Or() on empty = %q, want Unknown", got)
	}
	if got := StringOf("Good").Or("Unknown"); got != "Good" {
		t.Errorf("Or() = %q, want Good", got)
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{name: "RFC3339", input: "2025-10-04T12:00:00Z", wantOK: true},
		{name: "offset", input: "2025-10-04T14:00:00+02:00", wantOK: true},
		{name: "naive ISO", input: "2025-10-04T12:00:00", wantOK: true},
		{name: "naive with fraction", input: "2025-10-04T12:00:00.000000", wantOK: true},
		{name: "space separated", input: "2025-10-04 12:00:00", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTime(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseTime(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestTime_UnmarshalJSON(t *testing.T) {
	var ts Time
	if err := json.Unmarshal([]byte(`123`), &ts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if ts.Valid {
		t.Error("numeric timestamp must be invalid")
	}

	if err := json.Unmarshal([]byte(`"2025-10-04T12:00:00Z"`), &ts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !ts.Valid {
		t.Error("RFC3339 timestamp must be valid")
	}
}

func TestFloatMap_UnmarshalJSON(t *testing.T) {
	var payload struct {
		Pollutants FloatMap `json:"pollutants"`
		Broken     FloatMap `json:"broken"`
	}

	err := json.Unmarshal([]byte(`{"pollutants":{"pm25":12.4,"o3":"31","no2":null,"co":"?"},"broken":[1,2]}`), &payload)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(payload.Pollutants) != 2 || payload.Pollutants["pm25"] != 12.4 || payload.Pollutants["o3"] != 31 {
		t.Errorf("Pollutants = %v", payload.Pollutants)
	}
	if payload.Broken != nil {
		t.Errorf("Broken = %v, want nil", payload.Broken)
	}
}

func TestFloatSlice_UnmarshalJSON(t *testing.T) {
	var s FloatSlice
	if err := json.Unmarshal([]byte(`[40, "41", null, "x", 43.5]`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []float64{40, 41, 43.5}
	if len(s) != len(want) {
		t.Fatalf("len = %d, want %d", len(s), len(want))
	}
	for i := range want {
		if s[i] != want[i] {
			t.Errorf("s[%d] = %v, want %v", i, s[i], want[i])
		}
	}

	if err := json.Unmarshal([]byte(`"not a list"`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if s != nil {
		t.Errorf("s = %v, want nil", s)
	}
}

func TestStringSlice_UnmarshalJSON(t *testing.T) {
	var s StringSlice
	if err := json.Unmarshal([]byte(`["Stay indoors", 3, null, "Wear a mask"]`), &s); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(s) != 2 || s[0] != "Stay indoors" || s[1] != "Wear a mask" {
		t.Errorf("s = %v", s)
	}
}
