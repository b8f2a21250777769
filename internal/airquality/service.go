package airquality

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider defines the interface for current air quality providers.
type Provider interface {
	// FetchCurrent fetches the current summary.
	FetchCurrent(ctx context.Context) (*Summary, error)
}

// ServiceConfig holds configuration for the air quality service.
type ServiceConfig struct {
	// Provider is the air quality data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache the summary (default: 5 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 30 minutes).
	StaleIfErrorTTL time.Duration
}

// Service provides the current air quality summary with caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration

	mu          sync.RWMutex
	summary     *Summary
	cacheExpiry time.Time
}

// NewService creates a new air quality service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
	}
}

// GetSummary returns the current summary.
// It uses a cached version if available and not expired.
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	s.mu.RLock()
	if s.summary != nil && time.Now().Before(s.cacheExpiry) {
		summary := s.summary
		s.mu.RUnlock()
		return summary, nil
	}
	s.mu.RUnlock()

	return s.refreshSummary(ctx)
}

// GetReading returns the current reading. It returns ErrNoReading when the
// summary carries no usable AQI.
func (s *Service) GetReading(ctx context.Context) (Reading, error) {
	summary, err := s.GetSummary(ctx)
	if err != nil {
		return Reading{}, err
	}
	if !summary.Reading.Classification().Known() {
		return summary.Reading, ErrNoReading
	}
	return summary.Reading, nil
}

// RefreshSummary forces a cache refresh.
func (s *Service) RefreshSummary(ctx context.Context) error {
	s.mu.Lock()
	s.cacheExpiry = time.Time{}
	s.mu.Unlock()

	_, err := s.refreshSummary(ctx)
	return err
}

// InvalidateCache clears the cached summary.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = nil
	s.cacheExpiry = time.Time{}
}

// CacheStatus returns information about the current cache state.
func (s *Service) CacheStatus() CacheStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.summary == nil {
		return CacheStatus{
			HasData: false,
		}
	}

	now := time.Now()
	return CacheStatus{
		HasData:   true,
		FetchedAt: s.summary.FetchedAt,
		ExpiresAt: s.cacheExpiry,
		IsExpired: now.After(s.cacheExpiry),
		IsStale:   now.After(s.summary.FetchedAt.Add(s.staleIfErrorTTL)),
		HasAQI:    s.summary.Reading.AQI != nil,
		Provider:  s.summary.Provider,
	}
}

// CacheStatus represents the current state of the cache.
type CacheStatus struct {
	HasData   bool
	FetchedAt time.Time
	ExpiresAt time.Time
	IsExpired bool
	IsStale   bool
	HasAQI    bool
	Provider  string
}

// refreshSummary fetches fresh data from the provider.
func (s *Service) refreshSummary(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check: another goroutine might have refreshed while we waited
	if s.summary != nil && time.Now().Before(s.cacheExpiry) {
		return s.summary, nil
	}

	s.logger.Debug().Msg("refreshing air quality summary")

	summary, err := s.provider.FetchCurrent(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch air quality summary")

		// If we have stale data that's not too old, return it
		if s.summary != nil && time.Now().Before(s.summary.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", s.summary.FetchedAt).
				Msg("serving stale air quality data due to provider error")
			return s.summary, nil
		}

		return nil, ErrProviderUnavailable
	}

	s.summary = summary
	s.cacheExpiry = time.Now().Add(s.cacheTTL)

	event := s.logger.Info().
		Int("pollutants", len(summary.Reading.Pollutants)).
		Time("expires_at", s.cacheExpiry)
	if summary.Reading.AQI != nil {
		event = event.Float64("aqi", *summary.Reading.AQI)
	}
	event.Msg("air quality summary refreshed")

	return summary, nil
}
