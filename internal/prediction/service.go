package prediction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/clearskies/clearskies/internal/alert"
	"github.com/clearskies/clearskies/internal/forecast"
)

// Provider defines the prediction endpoints the service depends on.
type Provider interface {
	FetchForecast(ctx context.Context, hours int) (forecast.Series, error)
	FetchAlerts(ctx context.Context, threshold float64) (*UpstreamAlerts, error)
	FetchRecommendations(ctx context.Context) (*Recommendations, error)
	FetchModelMetrics(ctx context.Context) (*ModelMetrics, error)
}

// ServiceConfig holds configuration for the prediction service.
type ServiceConfig struct {
	// Provider is the prediction data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache forecasts and recommendations (default: 10 minutes).
	CacheTTL time.Duration

	// MetricsCacheTTL is how long to cache model metrics (default: 1 hour).
	MetricsCacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration
}

// AlertSource names where an alert result was derived from.
type AlertSource string

const (
	// AlertSourceForecast means alerts were filtered from the forecast.
	AlertSourceForecast AlertSource = "forecast"
	// AlertSourceUpstream means the upstream alert list was re-filtered.
	AlertSourceUpstream AlertSource = "upstream"
)

// Service provides cached access to prediction data.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	metricsCacheTTL time.Duration
	staleIfErrorTTL time.Duration

	mu        sync.Mutex
	forecasts map[int]*cached[forecast.Series]

	recommendations cached[*Recommendations]
	metrics         cached[*ModelMetrics]
}

// NewService creates a new prediction service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	metricsCacheTTL := cfg.MetricsCacheTTL
	if metricsCacheTTL == 0 {
		metricsCacheTTL = time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		metricsCacheTTL: metricsCacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		forecasts:       make(map[int]*cached[forecast.Series]),
	}
}

func (s *Service) forecastEntry(hours int) *cached[forecast.Series] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.forecasts[hours]
	if !ok {
		e = &cached[forecast.Series]{}
		s.forecasts[hours] = e
	}
	return e
}

// GetForecast returns the forecast for the next hours.
func (s *Service) GetForecast(ctx context.Context, hours int) (forecast.Series, error) {
	if !ValidHours(hours) {
		return nil, ErrInvalidHours
	}

	series, stale, err := s.forecastEntry(hours).get(ctx, s.cacheTTL, s.staleIfErrorTTL, func(ctx context.Context) (forecast.Series, error) {
		return s.provider.FetchForecast(ctx, hours)
	})
	if err != nil {
		s.logger.Error().Err(err).Int("hours", hours).Msg("failed to fetch forecast")
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if stale {
		s.logger.Warn().Int("hours", hours).Msg("serving stale forecast due to provider error")
	}
	return series, nil
}

// GetAlerts filters the forecast for the next hours against threshold. When
// the forecast is unavailable the upstream alert list is filtered instead.
// Either way only points within hours are considered.
func (s *Service) GetAlerts(ctx context.Context, threshold float64, hours int) (alert.Result, AlertSource, error) {
	if _, err := alert.Above(nil, threshold); err != nil {
		return alert.Result{}, "", err
	}

	series, err := s.GetForecast(ctx, hours)
	if err == nil {
		result, err := alertsWithin(series, threshold, hours)
		return result, AlertSourceForecast, err
	}
	if errors.Is(err, ErrInvalidHours) {
		return alert.Result{}, "", err
	}

	s.logger.Warn().Err(err).Msg("forecast unavailable, falling back to upstream alerts")

	upstream, upErr := s.provider.FetchAlerts(ctx, threshold)
	if upErr != nil {
		s.logger.Error().Err(upErr).Msg("failed to fetch upstream alerts")
		return alert.Result{}, "", fmt.Errorf("%w: %w", ErrProviderUnavailable, upErr)
	}

	result, err := alertsWithin(upstream.Points, threshold, hours)
	return result, AlertSourceUpstream, err
}

// alertsWithin filters the points up to hours ahead. Upstreams may return
// more than was asked for.
func alertsWithin(series forecast.Series, threshold float64, hours int) (alert.Result, error) {
	windowed, err := forecast.Window(series, hours)
	if err != nil {
		return alert.Result{}, err
	}
	return alert.Above(windowed, threshold)
}

// GetRecommendations returns the current health recommendations.
func (s *Service) GetRecommendations(ctx context.Context) (*Recommendations, error) {
	recs, stale, err := s.recommendations.get(ctx, s.cacheTTL, s.staleIfErrorTTL, s.provider.FetchRecommendations)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch recommendations")
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if stale {
		s.logger.Warn().Msg("serving stale recommendations due to provider error")
	}
	return recs, nil
}

// GetModelMetrics returns the model quality metrics.
func (s *Service) GetModelMetrics(ctx context.Context) (*ModelMetrics, error) {
	m, stale, err := s.metrics.get(ctx, s.metricsCacheTTL, s.staleIfErrorTTL, s.provider.FetchModelMetrics)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch model metrics")
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if stale {
		s.logger.Warn().Msg("serving stale model metrics due to provider error")
	}
	return m, nil
}

// Refresh expires and refetches the forecast for hours and the
// recommendations. Errors from both are joined.
func (s *Service) Refresh(ctx context.Context, hours int) error {
	return errors.Join(s.RefreshForecast(ctx, hours), s.RefreshRecommendations(ctx))
}

// RefreshForecast expires and refetches the forecast for hours.
func (s *Service) RefreshForecast(ctx context.Context, hours int) error {
	if !ValidHours(hours) {
		return ErrInvalidHours
	}
	s.forecastEntry(hours).expire()
	_, err := s.GetForecast(ctx, hours)
	return err
}

// RefreshRecommendations expires and refetches the recommendations.
func (s *Service) RefreshRecommendations(ctx context.Context) error {
	s.recommendations.expire()
	_, err := s.GetRecommendations(ctx)
	return err
}

// RefreshModelMetrics expires and refetches the model metrics.
func (s *Service) RefreshModelMetrics(ctx context.Context) error {
	s.metrics.expire()
	_, err := s.GetModelMetrics(ctx)
	return err
}

// CacheStatus reports what the service currently holds.
type CacheStatus struct {
	ForecastHorizons   []int
	HasRecommendations bool
	HasModelMetrics    bool
	RecommendationsAt  time.Time
}

// CacheStatus returns information about the current cache state.
func (s *Service) CacheStatus() CacheStatus {
	var status CacheStatus

	s.mu.Lock()
	for hours, e := range s.forecasts {
		if _, ok := e.status(); ok {
			status.ForecastHorizons = append(status.ForecastHorizons, hours)
		}
	}
	s.mu.Unlock()
	sort.Ints(status.ForecastHorizons)

	status.RecommendationsAt, status.HasRecommendations = s.recommendations.status()
	_, status.HasModelMetrics = s.metrics.status()
	return status
}
