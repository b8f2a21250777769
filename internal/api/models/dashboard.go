package models

// SourceStatus reports whether one dashboard source could be fetched.
type SourceStatus struct {
	Source string `json:"source"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Dashboard is the response for GET /v1/dashboard. A null section means its
// source failed; see Sources.
type Dashboard struct {
	GeneratedAt     Timestamp        `json:"generatedAt"`
	Degraded        bool             `json:"degraded"`
	Headline        string           `json:"headline"`
	Current         *Current         `json:"current"`
	Forecast        *Forecast        `json:"forecast"`
	Alerts          *Alerts          `json:"alerts"`
	Recommendations *Recommendations `json:"recommendations"`
	Sensor          *Sensor          `json:"sensor"`
	Sources         []SourceStatus   `json:"sources"`
}
