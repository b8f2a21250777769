package models

import "github.com/clearskies/clearskies/internal/aqi"

// ForecastPoint is one predicted hour.
type ForecastPoint struct {
	Timestamp      *Timestamp         `json:"timestamp,omitempty"`
	HoursAhead     int                `json:"hoursAhead"`
	PredictedAQI   float64            `json:"predictedAqi"`
	Display        string             `json:"display"`
	Category       string             `json:"category"`
	HealthMessage  string             `json:"healthMessage,omitempty"`
	Classification aqi.Classification `json:"classification"`
}

// Forecast is the response for GET /v1/forecast.
type Forecast struct {
	Hours int `json:"hours"`
	// Total is the number of points in the window before any limit.
	Total  int             `json:"total"`
	Points []ForecastPoint `json:"points"`
	Peak   *ForecastPoint  `json:"peak,omitempty"`
}

// Alert is a forecast hour above the alert threshold.
type Alert struct {
	Timestamp      *Timestamp         `json:"timestamp,omitempty"`
	HoursAhead     int                `json:"hoursAhead"`
	PredictedAQI   float64            `json:"predictedAqi"`
	Category       string             `json:"category"`
	Message        string             `json:"message,omitempty"`
	Classification aqi.Classification `json:"classification"`
}

// AlertBanner summarizes active alerts.
type AlertBanner struct {
	Count          int                `json:"count"`
	HighestAQI     float64            `json:"highestAqi"`
	Classification aqi.Classification `json:"classification"`
	Timestamp      *Timestamp         `json:"timestamp,omitempty"`
}

// Alerts is the response for GET /v1/alerts.
type Alerts struct {
	Threshold float64 `json:"threshold"`
	Hours     int     `json:"hours"`
	// Unusual is set when the threshold is outside the 0-500 scale.
	Unusual bool         `json:"unusual,omitempty"`
	Source  string       `json:"source"`
	Count   int          `json:"count"`
	Alerts  []Alert      `json:"alerts"`
	Banner  *AlertBanner `json:"banner,omitempty"`
}
