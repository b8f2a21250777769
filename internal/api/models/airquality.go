package models

// Current is the response for GET /v1/current.
type Current struct {
	AQI        AQIValue    `json:"aqi"`
	Category   string      `json:"category"`
	Pollutants []Pollutant `json:"pollutants"`
	Weather    Weather     `json:"weather"`
	RecentAQI  []float64   `json:"recentAqi"`
	ObservedAt *Timestamp  `json:"observedAt,omitempty"`
	FetchedAt  *Timestamp  `json:"fetchedAt,omitempty"`
	Provider   string      `json:"provider"`
}

// Pollutant is one pollutant concentration.
type Pollutant struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Weather is the weather snapshot shown next to the current reading.
// Missing fields are null.
type Weather struct {
	Available    bool     `json:"available"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	WindSpeed    *float64 `json:"windSpeed"`
	Pressure     *float64 `json:"pressure"`
	WindCategory string   `json:"windCategory"`
	Condition    string   `json:"condition,omitempty"`
	Stagnant     bool     `json:"stagnant"`
}

// Classify is the response for GET /v1/aqi/classify.
type Classify struct {
	Input string `json:"input"`
	AQIValue
}
