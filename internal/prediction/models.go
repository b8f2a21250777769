// Package prediction provides access to the remote AQI prediction service.
package prediction

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/aqi"
	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/weather"
	"github.com/clearskies/clearskies/pkg/nullable"
)

// Errors.
var (
	ErrInvalidHours        = errors.New("hours must be between 1 and 72")
	ErrProviderUnavailable = errors.New("prediction service unavailable")
)

// DefaultHeadline is shown when no recommendation is available.
const DefaultHeadline = "Stay informed"

// Recommendations is the health advice for current and forecast conditions.
type Recommendations struct {
	CurrentAQI     *float64
	MaxForecastAQI *float64
	Texts          []string
}

// UpstreamAlerts is the alert list computed by the prediction service.
type UpstreamAlerts struct {
	Threshold *float64
	Points    forecast.Series
}

// Feature is one input of the AQI model with its relative importance.
type Feature struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// ModelMetrics describes the quality of the deployed AQI model.
type ModelMetrics struct {
	ModelName string
	RMSE      *float64
	MAE       *float64
	R2        *float64
	// Features are ordered by descending importance.
	Features []Feature
}

// Wire types. All scalar fields decode leniently.

type currentResponse struct {
	AQI        nullable.Float      `json:"aqi"`
	Category   nullable.String     `json:"aqi_category"`
	Pollutants nullable.FloatMap   `json:"pollutants"`
	Weather    json.RawMessage     `json:"weather"`
	RecentAQI  nullable.FloatSlice `json:"recent_aqi"`
	Timestamp  nullable.Time       `json:"timestamp"`
}

type weatherData struct {
	Temperature nullable.Float  `json:"temperature"`
	WindSpeed   nullable.Float  `json:"wind_speed"`
	Humidity    nullable.Float  `json:"humidity"`
	Pressure    nullable.Float  `json:"pressure"`
	Condition   nullable.String `json:"condition"`
	Description nullable.String `json:"description"`
}

type pointData struct {
	Timestamp     nullable.Time   `json:"timestamp"`
	HoursAhead    nullable.Int    `json:"hours_ahead"`
	PredictedAQI  nullable.Float  `json:"predicted_aqi"`
	AQICategory   nullable.String `json:"aqi_category"`
	Category      nullable.String `json:"category"`
	HealthMessage nullable.String `json:"health_message"`
	Message       nullable.String `json:"message"`
}

type alertsResponse struct {
	Threshold nullable.Float  `json:"threshold"`
	Alerts    json.RawMessage `json:"alerts"`
}

type recommendationsResponse struct {
	CurrentAQI      nullable.Float       `json:"current_aqi"`
	MaxForecastAQI  nullable.Float       `json:"max_forecast_aqi"`
	Recommendations nullable.StringSlice `json:"recommendations"`
}

type metricsResponse struct {
	ModelName         nullable.String   `json:"model_name"`
	RMSE              nullable.Float    `json:"rmse"`
	MAE               nullable.Float    `json:"mae"`
	R2                nullable.Float    `json:"r2"`
	FeatureImportance nullable.FloatMap `json:"feature_importance"`
}

func (c currentResponse) toSummary(provider string) *airquality.Summary {
	pollutants := map[string]float64(c.Pollutants)
	if pollutants == nil {
		pollutants = map[string]float64{}
	}

	summary := &airquality.Summary{
		Reading: airquality.Reading{
			AQI:        validAQI(c.AQI),
			Category:   c.Category.Or(""),
			Pollutants: pollutants,
		},
		Weather:   toObservation(c.Weather),
		RecentAQI: []float64(c.RecentAQI),
		FetchedAt: time.Now(),
		Provider:  provider,
	}
	if c.Timestamp.Valid {
		summary.Reading.Timestamp = c.Timestamp.Value
	}
	return summary
}

// validAQI keeps only values inside the AQI domain.
func validAQI(f nullable.Float) *float64 {
	p := f.Ptr()
	if !aqi.Valid(p) {
		return nil
	}
	return p
}

func toObservation(raw json.RawMessage) weather.Observation {
	var w weatherData
	if len(raw) == 0 || json.Unmarshal(raw, &w) != nil {
		return weather.Observation{Condition: weather.ConditionUnknown}
	}
	condition := weather.ParseCondition(w.Condition.Or(""))
	if condition == weather.ConditionUnknown {
		condition = weather.ParseCondition(w.Description.Or(""))
	}
	return weather.Observation{
		Temperature: w.Temperature,
		Humidity:    w.Humidity,
		WindSpeed:   w.WindSpeed,
		Pressure:    w.Pressure,
		Condition:   condition,
	}
}

// decodePoints converts a JSON array of prediction points. Elements that are
// not objects or lack a predicted AQI are skipped. A missing hours_ahead
// falls back to the element's position.
func decodePoints(raw json.RawMessage) forecast.Series {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return forecast.Series{}
	}

	series := make(forecast.Series, 0, len(elems))
	for i, elem := range elems {
		var p pointData
		if err := json.Unmarshal(elem, &p); err != nil {
			continue
		}
		value := validAQI(p.PredictedAQI)
		if value == nil {
			continue
		}

		hours := i
		if p.HoursAhead.Valid {
			hours = p.HoursAhead.Value
		}

		category := p.AQICategory.Or(p.Category.Or(string(aqi.ClassifyValue(*value).Level)))
		point := forecast.Point{
			HoursAhead:    hours,
			PredictedAQI:  *value,
			Category:      category,
			HealthMessage: p.HealthMessage.Or(p.Message.Or("")),
		}
		if p.Timestamp.Valid {
			point.Timestamp = p.Timestamp.Value
		}
		series = append(series, point)
	}
	return series
}

// forecastPayload extracts the point array from a forecast response, which is
// either a bare array or an object wrapping it.
func forecastPayload(raw json.RawMessage) json.RawMessage {
	var wrapped struct {
		Forecast    json.RawMessage `json:"forecast"`
		Predictions json.RawMessage `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return raw
	}
	if len(wrapped.Forecast) > 0 {
		return wrapped.Forecast
	}
	return wrapped.Predictions
}

func (m metricsResponse) toModelMetrics() *ModelMetrics {
	features := make([]Feature, 0, len(m.FeatureImportance))
	for name, importance := range m.FeatureImportance {
		features = append(features, Feature{Name: name, Importance: importance})
	}
	sort.Slice(features, func(i, j int) bool {
		if features[i].Importance != features[j].Importance {
			return features[i].Importance > features[j].Importance
		}
		return features[i].Name < features[j].Name
	})

	return &ModelMetrics{
		ModelName: m.ModelName.Or(""),
		RMSE:      m.RMSE.Ptr(),
		MAE:       m.MAE.Ptr(),
		R2:        m.R2.Ptr(),
		Features:  features,
	}
}
