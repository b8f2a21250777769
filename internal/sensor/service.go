package sensor

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service errors.
var (
	ErrInvalidSensorID     = errors.New("invalid sensor id")
	ErrProviderUnavailable = errors.New("sensor provider unavailable")
)

// Provider fetches raw sensor results for one period.
type Provider interface {
	FetchPeriod(ctx context.Context, sensorID string, period Period) ([]RawResult, error)
}

// ServiceConfig holds configuration for the sensor service.
type ServiceConfig struct {
	// Provider is the sensor data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache a sensor's buckets (default: 10 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving stale data on provider errors (default: 1 hour).
	StaleIfErrorTTL time.Duration

	// PeriodTimeout bounds each period fetch (default: 15s).
	PeriodTimeout time.Duration
}

// Snapshot is the set of period buckets fetched for one sensor.
type Snapshot struct {
	SensorID  string
	Buckets   Buckets
	Failed    []Period
	FetchedAt time.Time
}

// Service provides sensor buckets with per-sensor caching.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	periodTimeout   time.Duration

	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	snapshot *Snapshot
	expiry   time.Time
}

// NewService creates a new sensor service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = time.Hour
	}

	periodTimeout := cfg.PeriodTimeout
	if periodTimeout == 0 {
		periodTimeout = 15 * time.Second
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		periodTimeout:   periodTimeout,
		entries:         make(map[string]*cacheEntry),
	}
}

// ValidSensorID reports whether id looks like an OpenAQ sensor id.
func ValidSensorID(id string) bool {
	n, err := strconv.Atoi(id)
	return err == nil && n > 0
}

// GetSnapshot returns all period buckets for a sensor.
func (s *Service) GetSnapshot(ctx context.Context, sensorID string) (*Snapshot, error) {
	if !ValidSensorID(sensorID) {
		return nil, ErrInvalidSensorID
	}

	s.mu.RLock()
	if e, ok := s.entries[sensorID]; ok && time.Now().Before(e.expiry) {
		snapshot := e.snapshot
		s.mu.RUnlock()
		return snapshot, nil
	}
	s.mu.RUnlock()

	return s.refresh(ctx, sensorID)
}

// Refresh forces a cache refresh for a sensor.
func (s *Service) Refresh(ctx context.Context, sensorID string) error {
	if !ValidSensorID(sensorID) {
		return ErrInvalidSensorID
	}
	s.InvalidateCache(sensorID)
	_, err := s.refresh(ctx, sensorID)
	return err
}

// InvalidateCache expires the cached buckets for a sensor. Stale data is
// retained for stale-if-error.
func (s *Service) InvalidateCache(sensorID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sensorID]; ok {
		e.expiry = time.Time{}
	}
}

// CachedSensor describes one cached snapshot.
type CachedSensor struct {
	SensorID  string
	FetchedAt time.Time
	Expired   bool
	Failed    []Period
}

// CacheStatus returns the cached snapshots ordered by sensor id.
func (s *Service) CacheStatus() []CachedSensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]CachedSensor, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, CachedSensor{
			SensorID:  id,
			FetchedAt: e.snapshot.FetchedAt,
			Expired:   now.After(e.expiry),
			Failed:    e.snapshot.Failed,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SensorID < out[j].SensorID })
	return out
}

func (s *Service) refresh(ctx context.Context, sensorID string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check: another goroutine might have refreshed while we waited
	cached := s.entries[sensorID]
	if cached != nil && time.Now().Before(cached.expiry) {
		return cached.snapshot, nil
	}

	s.logger.Debug().Str("sensor_id", sensorID).Msg("refreshing sensor buckets")

	snapshot := s.fetchAll(ctx, sensorID)
	if len(snapshot.Failed) == len(Periods) {
		if cached != nil && time.Now().Before(cached.snapshot.FetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Str("sensor_id", sensorID).
				Time("fetched_at", cached.snapshot.FetchedAt).
				Msg("serving stale sensor data due to provider error")
			return cached.snapshot, nil
		}
		return nil, ErrProviderUnavailable
	}

	s.entries[sensorID] = &cacheEntry{
		snapshot: snapshot,
		expiry:   time.Now().Add(s.cacheTTL),
	}

	s.logger.Info().
		Str("sensor_id", sensorID).
		Int("failed_periods", len(snapshot.Failed)).
		Msg("sensor buckets refreshed")

	return snapshot, nil
}

// fetchAll requests every period concurrently. A failed period leaves its
// bucket nil without affecting the others.
func (s *Service) fetchAll(ctx context.Context, sensorID string) *Snapshot {
	results := make([]Series, len(Periods))
	errs := make([]error, len(Periods))

	var wg sync.WaitGroup
	for i, period := range Periods {
		wg.Add(1)
		go func(i int, period Period) {
			defer wg.Done()

			pctx, cancel := context.WithTimeout(ctx, s.periodTimeout)
			defer cancel()

			raw, err := s.provider.FetchPeriod(pctx, sensorID, period)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = Normalize(raw)
		}(i, period)
	}
	wg.Wait()

	snapshot := &Snapshot{
		SensorID:  sensorID,
		Buckets:   make(Buckets, len(Periods)),
		FetchedAt: time.Now(),
	}
	for i, period := range Periods {
		if errs[i] != nil {
			s.logger.Warn().
				Err(errs[i]).
				Str("sensor_id", sensorID).
				Str("period", string(period)).
				Msg("sensor period fetch failed")
			snapshot.Buckets[period] = nil
			snapshot.Failed = append(snapshot.Failed, period)
			continue
		}
		snapshot.Buckets[period] = results[i]
	}
	return snapshot
}
