package sensor_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/sensor"
	"github.com/clearskies/clearskies/pkg/nullable"
)

// mockProvider is a test provider with per-period failures.
type mockProvider struct {
	mu         sync.Mutex
	failing    map[sensor.Period]bool
	fetchCount atomic.Int32
}

func (m *mockProvider) setFailing(periods ...sensor.Period) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = make(map[sensor.Period]bool)
	for _, p := range periods {
		m.failing[p] = true
	}
}

func (m *mockProvider) FetchPeriod(_ context.Context, _ string, period sensor.Period) ([]sensor.RawResult, error) {
	m.fetchCount.Add(1)

	m.mu.Lock()
	fail := m.failing[period]
	m.mu.Unlock()
	if fail {
		return nil, errors.New("upstream error")
	}

	return []sensor.RawResult{
		{
			Parameter: sensor.RawParameter{Name: nullable.StringOf("pm25"), Units: nullable.StringOf("µg/m³")},
			Value:     nullable.FloatOf(10),
		},
		{
			Parameter: sensor.RawParameter{Name: nullable.StringOf("pm25"), Units: nullable.StringOf("µg/m³")},
			Value:     nullable.FloatOf(20),
		},
	}, nil
}

func newTestService(provider sensor.Provider, ttl time.Duration) *sensor.Service {
	return sensor.NewService(sensor.ServiceConfig{
		Provider:        provider,
		Logger:          zerolog.New(io.Discard),
		CacheTTL:        ttl,
		StaleIfErrorTTL: time.Hour,
	})
}

func TestService_GetSnapshot(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider, 5*time.Minute)

	ctx := context.Background()

	snapshot, err := svc.GetSnapshot(ctx, "3917")
	require.NoError(t, err)
	assert.Equal(t, "3917", snapshot.SensorID)
	assert.Empty(t, snapshot.Failed)
	assert.Equal(t, int32(4), provider.fetchCount.Load())

	for _, period := range sensor.Periods {
		series, ok := sensor.SelectPeriod(snapshot.Buckets, period)
		require.True(t, ok, "period %s", period)
		assert.Len(t, series, 2)
	}

	// Second call should use cache
	_, err = svc.GetSnapshot(ctx, "3917")
	require.NoError(t, err)
	assert.Equal(t, int32(4), provider.fetchCount.Load())
}

func TestService_GetSnapshot_PartialFailure(t *testing.T) {
	provider := &mockProvider{}
	provider.setFailing(sensor.PeriodHours, sensor.PeriodYears)
	svc := newTestService(provider, 5*time.Minute)

	snapshot, err := svc.GetSnapshot(context.Background(), "3917")
	require.NoError(t, err)
	assert.ElementsMatch(t, []sensor.Period{sensor.PeriodHours, sensor.PeriodYears}, snapshot.Failed)

	_, ok := sensor.SelectPeriod(snapshot.Buckets, sensor.PeriodHours)
	assert.False(t, ok)

	days, ok := sensor.SelectPeriod(snapshot.Buckets, sensor.PeriodDays)
	require.True(t, ok)
	avg, ok := sensor.AverageFor(days, "pm25")
	require.True(t, ok)
	assert.Equal(t, 15.0, avg.Mean)

	counts := snapshot.Buckets.Counts()
	assert.Len(t, counts, 2)
}

func TestService_GetSnapshot_AllFailed_NoCache(t *testing.T) {
	provider := &mockProvider{}
	provider.setFailing(sensor.Periods...)
	svc := newTestService(provider, 5*time.Minute)

	_, err := svc.GetSnapshot(context.Background(), "3917")
	require.Error(t, err)
	assert.ErrorIs(t, err, sensor.ErrProviderUnavailable)
}

func TestService_GetSnapshot_AllFailed_StaleData(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider, 50*time.Millisecond)

	ctx := context.Background()

	_, err := svc.GetSnapshot(ctx, "3917")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	provider.setFailing(sensor.Periods...)

	snapshot, err := svc.GetSnapshot(ctx, "3917")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Failed)
}

func TestService_GetSnapshot_InvalidSensorID(t *testing.T) {
	svc := newTestService(&mockProvider{}, time.Minute)

	for _, id := range []string{"", "abc", "0", "-4"} {
		_, err := svc.GetSnapshot(context.Background(), id)
		assert.ErrorIs(t, err, sensor.ErrInvalidSensorID, "id %q", id)
	}
}

func TestService_Refresh(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider, 10*time.Minute)

	ctx := context.Background()

	_, err := svc.GetSnapshot(ctx, "3917")
	require.NoError(t, err)
	assert.Equal(t, int32(4), provider.fetchCount.Load())

	require.NoError(t, svc.Refresh(ctx, "3917"))
	assert.Equal(t, int32(8), provider.fetchCount.Load())
}

func TestService_CacheStatus(t *testing.T) {
	provider := &mockProvider{}
	provider.setFailing(sensor.PeriodYears)
	svc := newTestService(provider, 10*time.Minute)

	assert.Empty(t, svc.CacheStatus())

	ctx := context.Background()
	_, err := svc.GetSnapshot(ctx, "42")
	require.NoError(t, err)
	_, err = svc.GetSnapshot(ctx, "3917")
	require.NoError(t, err)

	status := svc.CacheStatus()
	require.Len(t, status, 2)
	assert.Equal(t, "3917", status[0].SensorID)
	assert.Equal(t, "42", status[1].SensorID)
	assert.False(t, status[0].Expired)
	assert.False(t, status[0].FetchedAt.IsZero())
	assert.Equal(t, []sensor.Period{sensor.PeriodYears}, status[0].Failed)

	svc.InvalidateCache("42")
	assert.True(t, svc.CacheStatus()[1].Expired)
}
