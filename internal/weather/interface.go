package weather

import (
	"context"
	"time"
)

// Provider fetches the current outdoor temperature from an upstream
// service. Implementations must enforce their own request timeout.
type Provider interface {
	CurrentTemperature(ctx context.Context) (float64, error)
}

// Observation is the cached outdoor reading. Stale marks a value served
// past its ttl because a refetch failed or is not yet allowed.
type Observation struct {
	Temperature float64
	FetchedAt   time.Time
	Stale       bool
}

// Outdoor is the read side exposed to the snapshot assembler. The second
// return is false when no value is available; that is a degraded state,
// never an error.
type Outdoor interface {
	Current(ctx context.Context) (Observation, bool)
}

// noopOutdoor backs deployments with no weather source configured.
type noopOutdoor struct{}

func (noopOutdoor) Current(_ context.Context) (Observation, bool) {
	return Observation{}, false
}

// NewNoopOutdoor returns an Outdoor that always reports unavailable.
func NewNoopOutdoor() Outdoor {
	return noopOutdoor{}
}
