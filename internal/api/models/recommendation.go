package models

// Recommendation is one piece of health advice.
type Recommendation struct {
	Text     string `json:"text"`
	Index    int    `json:"index"`
	Category string `json:"category"`
}

// RecommendationGroup holds the advice of one category in input order.
type RecommendationGroup struct {
	Category string           `json:"category"`
	Items    []Recommendation `json:"items"`
}

// Recommendations is the response for GET /v1/recommendations.
type Recommendations struct {
	Headline       string                `json:"headline"`
	CurrentAQI     AQIValue              `json:"currentAqi"`
	MaxForecastAQI AQIValue              `json:"maxForecastAqi"`
	Total          int                   `json:"total"`
	Groups         []RecommendationGroup `json:"groups"`
}
