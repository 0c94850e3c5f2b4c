package stats

import (
	"context"
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/history"
)

// RollingStats is derived from the cycle history on each query and never
// persisted. AvgRuntime and AvgTimePerDegree are undefined (not zero) when
// SampleCount is 0; callers must check SampleCount or the Has* helpers.
type RollingStats struct {
	AvgRuntime       time.Duration
	AvgTimePerDegree time.Duration
	SampleCount      int
	DegreeSamples    int
}

// HasRuntime reports whether the average runtime is defined.
func (s RollingStats) HasRuntime() bool {
	return s.SampleCount > 0
}

// HasTimePerDegree reports whether the average time-per-degree is defined.
// Cycles with zero temperature delta contribute to the runtime mean but not
// to the time-per-degree mean.
func (s RollingStats) HasTimePerDegree() bool {
	return s.DegreeSamples > 0
}

// Compute derives rolling statistics from a set of cycles. Deterministic
// and free of side effects: identical inputs yield identical results.
func Compute(cycles []climate.Cycle) RollingStats {
	var s RollingStats
	var runtimeSum time.Duration
	var perDegreeSum float64

	for _, c := range cycles {
		runtimeSum += c.Duration()
		s.SampleCount++

		if delta := c.TempDelta(); delta != 0 {
			perDegreeSum += c.Duration().Seconds() / delta
			s.DegreeSamples++
		}
	}

	if s.SampleCount > 0 {
		s.AvgRuntime = runtimeSum / time.Duration(s.SampleCount)
	}
	if s.DegreeSamples > 0 {
		s.AvgTimePerDegree = time.Duration(perDegreeSum / float64(s.DegreeSamples) * float64(time.Second))
	}

	return s
}

// Engine computes rolling statistics over the lookback window of one
// device's cycle history.
type Engine struct {
	repo     history.Repository
	lookback time.Duration
}

func NewEngine(repo history.Repository, lookback time.Duration) *Engine {
	return &Engine{
		repo:     repo,
		lookback: lookback,
	}
}

// Lookback returns the trailing window the engine queries over.
func (e *Engine) Lookback() time.Duration {
	return e.lookback
}

func (e *Engine) Compute(ctx context.Context, now time.Time) (RollingStats, error) {
	cycles, err := e.repo.QuerySince(ctx, now.Add(-e.lookback))
	if err != nil {
		return RollingStats{}, err
	}

	return Compute(cycles), nil
}

// Alert reports whether the current cycle duration exceeds the threshold
// multiple of the average runtime. Strict greater-than: a cycle at exactly
// threshold x average does not alert. Always false while the average is
// undefined or the device is idle.
func Alert(current time.Duration, s RollingStats, threshold float64) bool {
	if current <= 0 || !s.HasRuntime() {
		return false
	}

	return current.Seconds() > s.AvgRuntime.Seconds()*threshold
}
