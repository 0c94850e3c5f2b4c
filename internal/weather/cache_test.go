package weather

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
	"github.com/brandongraves08/ecobee-learning/internal/logger"
)

type fakeProvider struct {
	temp    float64
	err     error
	fetches int
}

func (p *fakeProvider) CurrentTemperature(_ context.Context) (float64, error) {
	p.fetches++
	if p.err != nil {
		return 0, p.err
	}
	return p.temp, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestCache(provider Provider, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)}
	cache := NewCache(provider, ttl, logger.Default())
	cache.now = func() time.Time { return clock.now }
	return cache, clock
}

func TestCacheSingleFetchPerTTLWindow(t *testing.T) {
	provider := &fakeProvider{temp: 88.5}
	cache, clock := newTestCache(provider, 5*time.Minute)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		obs, ok := cache.Current(ctx)
		require.True(t, ok)
		assert.InDelta(t, 88.5, obs.Temperature, 1e-9)
		assert.False(t, obs.Stale)
		clock.advance(time.Second)
	}

	assert.Equal(t, 1, provider.fetches, "at most one upstream fetch per ttl window")
}

func TestCacheRefetchesAfterExpiry(t *testing.T) {
	provider := &fakeProvider{temp: 88.5}
	cache, clock := newTestCache(provider, 5*time.Minute)
	ctx := context.Background()

	_, ok := cache.Current(ctx)
	require.True(t, ok)

	provider.temp = 91.0
	clock.advance(5*time.Minute + time.Second)

	obs, ok := cache.Current(ctx)
	require.True(t, ok)
	assert.InDelta(t, 91.0, obs.Temperature, 1e-9, "value updates after ttl expiry and successful fetch")
	assert.False(t, obs.Stale)
	assert.Equal(t, 2, provider.fetches)
}

func TestCacheServesStaleOnFetchFailure(t *testing.T) {
	provider := &fakeProvider{temp: 88.5}
	cache, clock := newTestCache(provider, 5*time.Minute)
	ctx := context.Background()

	_, ok := cache.Current(ctx)
	require.True(t, ok)

	provider.err = errors.New().New(ErrUpstreamUnavailable)
	clock.advance(6 * time.Minute)

	obs, ok := cache.Current(ctx)
	require.True(t, ok, "last known value remains available")
	assert.InDelta(t, 88.5, obs.Temperature, 1e-9)
	assert.True(t, obs.Stale, "value served past its ttl is reported stale")
}

func TestCacheFailedRefetchRespectsRateLimit(t *testing.T) {
	provider := &fakeProvider{temp: 88.5}
	cache, clock := newTestCache(provider, 5*time.Minute)
	ctx := context.Background()

	_, _ = cache.Current(ctx)
	provider.err = errors.New().New(ErrUpstreamUnavailable)
	clock.advance(6 * time.Minute)

	// First stale call attempts a refetch; the rest inside the window must not.
	for i := 0; i < 50; i++ {
		_, ok := cache.Current(ctx)
		require.True(t, ok)
		clock.advance(time.Second)
	}

	assert.Equal(t, 2, provider.fetches, "a failed attempt still counts against the ttl window")
}

func TestCacheEmptyOnFailureWithoutPriorValue(t *testing.T) {
	provider := &fakeProvider{err: errors.New().New(ErrUpstreamUnavailable)}
	cache, _ := newTestCache(provider, 5*time.Minute)

	obs, ok := cache.Current(context.Background())
	assert.False(t, ok, "unavailable, not an error, when no value was ever fetched")
	assert.Zero(t, obs.Temperature)
}

func TestNoopOutdoor(t *testing.T) {
	_, ok := NewNoopOutdoor().Current(context.Background())
	assert.False(t, ok)
}
