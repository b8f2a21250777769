package models

// LevelInfo describes one AQI level.
type LevelInfo struct {
	Level string `json:"level"`
	Color string `json:"color"`
	// Max is the inclusive upper bound; omitted for the open top band.
	Max *float64 `json:"max,omitempty"`
}

// PeriodInfo describes one sensor aggregation period.
type PeriodInfo struct {
	Period string `json:"period"`
	Limit  int    `json:"limit"`
}

// Enums represents the enum values used by the API.
type Enums struct {
	Levels                   []LevelInfo  `json:"levels"`
	Periods                  []PeriodInfo `json:"periods"`
	RecommendationCategories []string     `json:"recommendationCategories"`
	ForecastHorizons         []int        `json:"forecastHorizons"`
	MaxForecastHours         int          `json:"maxForecastHours"`
	DefaultAlertThreshold    float64      `json:"defaultAlertThreshold"`
}
