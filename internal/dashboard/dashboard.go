// Package dashboard assembles every air quality source into one view. Each
// source is fetched concurrently and fails independently.
package dashboard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/airquality"
	"github.com/clearskies/clearskies/internal/alert"
	"github.com/clearskies/clearskies/internal/forecast"
	"github.com/clearskies/clearskies/internal/prediction"
	"github.com/clearskies/clearskies/internal/recommendation"
	"github.com/clearskies/clearskies/internal/sensor"
)

// Source names one upstream input of the dashboard.
type Source string

const (
	SourceCurrent         Source = "current"
	SourceForecast        Source = "forecast"
	SourceAlerts          Source = "alerts"
	SourceRecommendations Source = "recommendations"
	SourceSensor          Source = "sensor"
)

// Defaults.
const (
	DefaultHorizonHours = 24
	DefaultSensorID     = "3917"
)

// CurrentProvider supplies the current summary.
type CurrentProvider interface {
	GetSummary(ctx context.Context) (*airquality.Summary, error)
}

// PredictionProvider supplies forecast-derived data.
type PredictionProvider interface {
	GetForecast(ctx context.Context, hours int) (forecast.Series, error)
	GetAlerts(ctx context.Context, threshold float64, hours int) (alert.Result, prediction.AlertSource, error)
	GetRecommendations(ctx context.Context) (*prediction.Recommendations, error)
}

// SensorProvider supplies ground sensor buckets.
type SensorProvider interface {
	GetSnapshot(ctx context.Context, sensorID string) (*sensor.Snapshot, error)
}

// Config holds configuration for the dashboard service.
type Config struct {
	Current    CurrentProvider
	Prediction PredictionProvider
	Sensors    SensorProvider

	// Logger for service operations.
	Logger zerolog.Logger

	// HorizonHours is the forecast horizon shown (default: 24).
	HorizonHours int

	// Threshold is the alert threshold (default: alert.DefaultThreshold).
	Threshold float64

	// SensorID is the ground sensor shown (default: DefaultSensorID).
	SensorID string

	// SourceTimeout bounds each source fetch (default: 20s).
	SourceTimeout time.Duration
}

// SourceStatus reports the outcome of fetching one source.
type SourceStatus struct {
	Source   Source        `json:"source"`
	OK       bool          `json:"ok"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// View is the aggregated dashboard. A nil field means its source failed.
type View struct {
	Current         *airquality.Summary
	Forecast        forecast.Series
	Alerts          *alert.Result
	AlertSource     prediction.AlertSource
	Recommendations *prediction.Recommendations
	Categorized     recommendation.Buckets
	Sensor          *sensor.Snapshot

	HorizonHours int
	Threshold    float64
	SensorID     string
	Statuses     []SourceStatus
	GeneratedAt  time.Time
}

// Headline returns the first recommendation, or the default headline.
func (v *View) Headline() string {
	if item, ok := v.Categorized.Headline(); ok {
		return item.Text
	}
	return prediction.DefaultHeadline
}

// Degraded reports whether any source failed.
func (v *View) Degraded() bool {
	for _, s := range v.Statuses {
		if !s.OK {
			return true
		}
	}
	return false
}

// Service builds dashboard views.
type Service struct {
	current       CurrentProvider
	prediction    PredictionProvider
	sensors       SensorProvider
	logger        zerolog.Logger
	horizonHours  int
	threshold     float64
	sensorID      string
	sourceTimeout time.Duration
}

// NewService creates a new dashboard service.
func NewService(cfg Config) *Service {
	horizon := cfg.HorizonHours
	if horizon == 0 {
		horizon = DefaultHorizonHours
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = alert.DefaultThreshold
	}

	sensorID := cfg.SensorID
	if sensorID == "" {
		sensorID = DefaultSensorID
	}

	timeout := cfg.SourceTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Service{
		current:       cfg.Current,
		prediction:    cfg.Prediction,
		sensors:       cfg.Sensors,
		logger:        cfg.Logger,
		horizonHours:  horizon,
		threshold:     threshold,
		sensorID:      sensorID,
		sourceTimeout: timeout,
	}
}

// Build fetches every source concurrently and assembles the view. It never
// fails as a whole; failures are reported per source.
func (s *Service) Build(ctx context.Context) *View {
	view := &View{
		HorizonHours: s.horizonHours,
		Threshold:    s.threshold,
		SensorID:     s.sensorID,
		Categorized:  recommendation.Categorize(nil),
	}

	fetchers := []struct {
		source Source
		fetch  func(ctx context.Context) error
	}{
		{SourceCurrent, func(ctx context.Context) error {
			summary, err := s.current.GetSummary(ctx)
			if err != nil {
				return err
			}
			view.Current = summary
			return nil
		}},
		{SourceForecast, func(ctx context.Context) error {
			series, err := s.prediction.GetForecast(ctx, s.horizonHours)
			if err != nil {
				return err
			}
			windowed, err := forecast.Window(series, s.horizonHours)
			if err != nil {
				return err
			}
			view.Forecast = windowed
			return nil
		}},
		{SourceAlerts, func(ctx context.Context) error {
			result, source, err := s.prediction.GetAlerts(ctx, s.threshold, s.horizonHours)
			if err != nil {
				return err
			}
			view.Alerts = &result
			view.AlertSource = source
			return nil
		}},
		{SourceRecommendations, func(ctx context.Context) error {
			recs, err := s.prediction.GetRecommendations(ctx)
			if err != nil {
				return err
			}
			view.Recommendations = recs
			view.Categorized = recommendation.Categorize(recs.Texts)
			return nil
		}},
		{SourceSensor, func(ctx context.Context) error {
			snapshot, err := s.sensors.GetSnapshot(ctx, s.sensorID)
			if err != nil {
				return err
			}
			view.Sensor = snapshot
			return nil
		}},
	}

	statuses := make([]SourceStatus, len(fetchers))

	// Each fetcher writes only its own view fields and status slot.
	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func(i int, source Source, fetch func(context.Context) error) {
			defer wg.Done()

			fctx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
			defer cancel()

			start := time.Now()
			err := fetch(fctx)
			status := SourceStatus{Source: source, OK: err == nil, Duration: time.Since(start)}
			if err != nil {
				status.Error = err.Error()
				s.logger.Warn().
					Err(err).
					Str("source", string(source)).
					Msg("dashboard source unavailable")
			}
			statuses[i] = status
		}(i, f.source, f.fetch)
	}
	wg.Wait()

	view.Statuses = statuses
	view.GeneratedAt = time.Now()

	s.logger.Debug().
		Bool("degraded", view.Degraded()).
		Msg("dashboard assembled")

	return view
}
