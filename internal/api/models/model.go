package models

// ModelFeature is one model input and its importance.
type ModelFeature struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// ModelMetrics is the response for GET /v1/model/metrics.
type ModelMetrics struct {
	ModelName string         `json:"modelName"`
	RMSE      *float64       `json:"rmse"`
	MAE       *float64       `json:"mae"`
	R2        *float64       `json:"r2"`
	Features  []ModelFeature `json:"features"`
}
