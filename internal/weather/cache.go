package weather

import (
	"context"
	"sync"
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/logger"
)

// Cache is a time-bound cache over a rate-limited Provider. It never issues
// two upstream fetches within one ttl window regardless of call frequency:
// the last attempt time gates refetches whether or not they succeeded. On
// fetch failure it keeps serving the last known value, marked stale.
type Cache struct {
	provider Provider
	ttl      time.Duration
	log      logger.Logger
	now      func() time.Time

	mu          sync.Mutex
	value       *Observation
	lastAttempt time.Time
}

func NewCache(provider Provider, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		provider: provider,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

func (c *Cache) Current(ctx context.Context) (Observation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if c.value != nil && now.Sub(c.value.FetchedAt) < c.ttl {
		return Observation{
			Temperature: c.value.Temperature,
			FetchedAt:   c.value.FetchedAt,
		}, true
	}

	// Stale or empty. Refetch only if a full ttl has passed since the last
	// attempt, to respect the upstream rate limit.
	if now.Sub(c.lastAttempt) < c.ttl {
		return c.serveStale()
	}
	c.lastAttempt = now

	temp, err := c.provider.CurrentTemperature(ctx)
	if err != nil {
		c.log.Warn().
			Err(err).
			Msg("Outdoor temperature fetch failed, degrading to last known value")
		return c.serveStale()
	}

	c.value = &Observation{
		Temperature: temp,
		FetchedAt:   now,
	}

	return *c.value, true
}

// serveStale returns the last known value marked stale, or unavailable when
// the cache has never held one. Callers hold c.mu.
func (c *Cache) serveStale() (Observation, bool) {
	if c.value == nil {
		return Observation{}, false
	}

	return Observation{
		Temperature: c.value.Temperature,
		FetchedAt:   c.value.FetchedAt,
		Stale:       true,
	}, true
}
