package handler

import (
	"math"
	"sort"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/alert"
	"github.com/clearskies/clearskies/internal/api/models"
	"github.com/clearskies/clearskies/internal/aqi"
	"github.com/clearskies/clearskies/internal/dashboard"
	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/recommendation"
	"github.com/clearskies/clearskies/internal/sensor"
	"github.com/clearskies/clearskies/internal/weather"
)

func toCurrent(s *airquality.Summary) *models.Current {
	r := s.Reading

	pollutants := make([]models.Pollutant, 0, len(r.Pollutants))
	for _, key := range r.PollutantKeys() {
		pollutants = append(pollutants, models.Pollutant{Key: key, Value: r.Pollutants[key]})
	}

	recent := s.RecentAQI
	if recent == nil {
		recent = []float64{}
	}

	return &models.Current{
		AQI:        models.NewAQIValue(r.AQI),
		Category:   r.CategoryOrDefault(),
		Pollutants: pollutants,
		Weather:    toWeather(s.Weather),
		RecentAQI:  recent,
		ObservedAt: models.NewTimestamp(r.Timestamp),
		FetchedAt:  models.NewTimestamp(s.FetchedAt),
		Provider:   s.Provider,
	}
}

func toWeather(o weather.Observation) models.Weather {
	return models.Weather{
		Available:    o.Available(),
		Temperature:  o.Temperature.Ptr(),
		Humidity:     o.Humidity.Ptr(),
		WindSpeed:    o.WindSpeed.Ptr(),
		Pressure:     o.Pressure.Ptr(),
		WindCategory: string(o.WindCategory()),
		Condition:    string(o.Condition),
		Stagnant:     o.Stagnant(),
	}
}

func toForecastPoint(p forecast.Point) models.ForecastPoint {
	v := p.PredictedAQI
	category := p.Category
	c := aqi.ClassifyValue(v)
	if category == "" {
		category = string(c.Level)
	}
	return models.ForecastPoint{
		Timestamp:      models.NewTimestamp(p.Timestamp),
		HoursAhead:     p.HoursAhead,
		PredictedAQI:   v,
		Display:        aqi.Display(&v),
		Category:       category,
		HealthMessage:  p.HealthMessage,
		Classification: c,
	}
}

// toForecast converts a windowed series. limit <= 0 returns every point.
func toForecast(hours int, window forecast.Series, limit int) *models.Forecast {
	shown := window
	if limit > 0 {
		shown = forecast.Head(window, limit)
	}

	out := &models.Forecast{
		Hours:  hours,
		Total:  len(window),
		Points: make([]models.ForecastPoint, 0, len(shown)),
	}
	for _, p := range shown {
		out.Points = append(out.Points, toForecastPoint(p))
	}
	if peak, ok := forecast.Peak(window); ok {
		fp := toForecastPoint(peak)
		out.Peak = &fp
	}
	return out
}

func toAlerts(result alert.Result, hours int, source prediction.AlertSource) *models.Alerts {
	out := &models.Alerts{
		Threshold: result.Threshold,
		Hours:     hours,
		Unusual:   result.Unusual,
		Source:    string(source),
		Count:     result.Count(),
		Alerts:    make([]models.Alert, 0, len(result.Alerts)),
	}
	for _, a := range result.Alerts {
		out.Alerts = append(out.Alerts, models.Alert{
			Timestamp:      models.NewTimestamp(a.Timestamp),
			HoursAhead:     a.HoursAhead,
			PredictedAQI:   a.PredictedAQI,
			Category:       a.Category,
			Message:        a.Message,
			Classification: a.Severity,
		})
	}
	if b, ok := result.Banner(); ok {
		out.Banner = &models.AlertBanner{
			Count:          b.Count,
			HighestAQI:     b.HighestAQI,
			Classification: b.Severity,
			Timestamp:      models.NewTimestamp(b.Timestamp),
		}
	}
	return out
}

func toRecommendations(recs *prediction.Recommendations, buckets recommendation.Buckets) *models.Recommendations {
	out := &models.Recommendations{
		Headline:       prediction.DefaultHeadline,
		CurrentAQI:     models.NewAQIValue(recs.CurrentAQI),
		MaxForecastAQI: models.NewAQIValue(recs.MaxForecastAQI),
		Total:          buckets.Total(),
		Groups:         make([]models.RecommendationGroup, 0, len(recommendation.Categories)),
	}
	if item, ok := buckets.Headline(); ok {
		out.Headline = item.Text
	}

	for _, c := range recommendation.Categories {
		group := models.RecommendationGroup{
			Category: string(c),
			Items:    make([]models.Recommendation, 0, len(buckets[c])),
		}
		for _, item := range buckets[c] {
			group.Items = append(group.Items, models.Recommendation{
				Text:     item.Text,
				Index:    item.Index,
				Category: string(c),
			})
		}
		out.Groups = append(out.Groups, group)
	}
	return out
}

// toSensor converts a snapshot for the selected period. The parameter
// filters the readings and picks the average.
func toSensor(snap *sensor.Snapshot, period sensor.Period, series sensor.Series, parameter string) *models.Sensor {
	out := &models.Sensor{
		SensorID:   snap.SensorID,
		Period:     string(period),
		Parameter:  parameter,
		Periods:    toSensorPeriods(snap.Buckets),
		Parameters: series.Parameters(),
		Readings:   []models.SensorReading{},
		FetchedAt:  models.NewTimestamp(snap.FetchedAt),
	}
	if out.Parameters == nil {
		out.Parameters = []string{}
	}

	for _, p := range series {
		if parameter != "" && p.Parameter != parameter {
			continue
		}
		out.Readings = append(out.Readings, models.SensorReading{
			Parameter:   p.Parameter,
			Value:       p.Value,
			Unit:        p.Unit,
			PeriodStart: models.NewTimestamp(p.PeriodStart),
		})
	}

	if parameter != "" {
		if avg, ok := sensor.AverageFor(series, parameter); ok {
			out.Average = &models.SensorAverage{
				Parameter: parameter,
				Mean:      avg.Mean,
				Rounded:   avg.Rounded(),
				Count:     avg.Count,
			}
		}
	}
	return out
}

func toSensorPeriods(buckets sensor.Buckets) []models.SensorPeriod {
	counts := buckets.Counts()
	out := make([]models.SensorPeriod, 0, len(sensor.Periods))
	for _, p := range sensor.Periods {
		n, ok := counts[p]
		out = append(out, models.SensorPeriod{Period: string(p), Available: ok, Count: n})
	}
	return out
}

func toModelMetrics(m *prediction.ModelMetrics) *models.ModelMetrics {
	out := &models.ModelMetrics{
		ModelName: m.ModelName,
		RMSE:      m.RMSE,
		MAE:       m.MAE,
		R2:        m.R2,
		Features:  make([]models.ModelFeature, 0, len(m.Features)),
	}
	for _, f := range m.Features {
		out.Features = append(out.Features, models.ModelFeature{Name: f.Name, Importance: f.Importance})
	}
	return out
}

func toDashboard(v *dashboard.View) *models.Dashboard {
	out := &models.Dashboard{
		GeneratedAt: models.Timestamp(v.GeneratedAt),
		Degraded:    v.Degraded(),
		Headline:    v.Headline(),
		Sources:     make([]models.SourceStatus, 0, len(v.Statuses)),
	}

	if v.Current != nil {
		out.Current = toCurrent(v.Current)
	}
	if v.Forecast != nil {
		out.Forecast = toForecast(v.HorizonHours, v.Forecast, 0)
	}
	if v.Alerts != nil {
		out.Alerts = toAlerts(*v.Alerts, v.HorizonHours, v.AlertSource)
	}
	if v.Recommendations != nil {
		out.Recommendations = toRecommendations(v.Recommendations, v.Categorized)
	}
	if v.Sensor != nil {
		series, _ := sensor.SelectPeriod(v.Sensor.Buckets, sensor.DefaultPeriod)
		out.Sensor = toSensor(v.Sensor, sensor.DefaultPeriod, series, sensor.DefaultParameter)
	}

	for _, s := range v.Statuses {
		out.Sources = append(out.Sources, models.SourceStatus{
			Source: string(s.Source),
			OK:     s.OK,
			Error:  s.Error,
		})
	}
	return out
}

func toEnums(defaultThreshold float64) models.Enums {
	bands := aqi.Bands()
	levels := make([]models.LevelInfo, 0, len(bands))
	for _, b := range bands {
		info := models.LevelInfo{Level: string(b.Level), Color: string(b.Color)}
		if !math.IsInf(b.Max, 1) {
			upper := b.Max
			info.Max = &upper
		}
		levels = append(levels, info)
	}

	periods := make([]models.PeriodInfo, 0, len(sensor.Periods))
	for _, p := range sensor.Periods {
		periods = append(periods, models.PeriodInfo{Period: string(p), Limit: p.Limit()})
	}

	categories := make([]string, 0, len(recommendation.Categories))
	for _, c := range recommendation.Categories {
		categories = append(categories, string(c))
	}

	horizons := append([]int(nil), forecast.Horizons...)
	sort.Ints(horizons)

	return models.Enums{
		Levels:                   levels,
		Periods:                  periods,
		RecommendationCategories: categories,
		ForecastHorizons:         horizons,
		MaxForecastHours:         forecast.MaxHorizonHours,
		DefaultAlertThreshold:    defaultThreshold,
	}
}
