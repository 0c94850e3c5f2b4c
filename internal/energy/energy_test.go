package energy_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandongraves08/ecobee-learning/internal/energy"
	"github.com/brandongraves08/ecobee-learning/internal/stats"
)

func params() energy.Params {
	return energy.Params{
		BaselinePerDegree: 200 * time.Second,
		RatePerKWh:        0.12,
		DrawKW:            3.5,
		CyclesPerDay:      24,
	}
}

func statsWith(avg, perDegree time.Duration) stats.RollingStats {
	s := stats.RollingStats{
		AvgRuntime:  avg,
		SampleCount: 5,
	}
	if perDegree > 0 {
		s.AvgTimePerDegree = perDegree
		s.DegreeSamples = 5
	}
	return s
}

func TestScoreAtBaselineIsPerfect(t *testing.T) {
	s := statsWith(10*time.Minute, 200*time.Second)

	score, ok := energy.Score(10*time.Minute, s, params())
	require.True(t, ok)
	assert.InDelta(t, 100, score, 1e-9)

	// Below average and below baseline also scores 100.
	score, ok = energy.Score(5*time.Minute, statsWith(10*time.Minute, 100*time.Second), params())
	require.True(t, ok)
	assert.InDelta(t, 100, score, 1e-9)
}

func TestScoreMonotonicInCurrentRuntime(t *testing.T) {
	s := statsWith(10*time.Minute, 200*time.Second)
	p := params()

	prev := 101.0
	for _, current := range []time.Duration{
		10 * time.Minute, 12 * time.Minute, 15 * time.Minute,
		20 * time.Minute, 40 * time.Minute, 3 * time.Hour,
	} {
		score, ok := energy.Score(current, s, p)
		require.True(t, ok)
		assert.LessOrEqual(t, score, prev, "score must not increase as runtime grows (current=%v)", current)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestScorePenalizesSlowTempChange(t *testing.T) {
	p := params()
	atBaseline, ok := energy.Score(10*time.Minute, statsWith(10*time.Minute, 200*time.Second), p)
	require.True(t, ok)
	aboveBaseline, ok := energy.Score(10*time.Minute, statsWith(10*time.Minute, 400*time.Second), p)
	require.True(t, ok)

	assert.Less(t, aboveBaseline, atBaseline)
}

func TestScoreClampedAtZero(t *testing.T) {
	score, ok := energy.Score(10*time.Hour, statsWith(time.Minute, time.Hour), params())
	require.True(t, ok)
	assert.Zero(t, score)
}

func TestScoreUndefinedWithoutHistory(t *testing.T) {
	_, ok := energy.Score(10*time.Minute, stats.RollingStats{}, params())
	assert.False(t, ok)
}

func TestDailyCost(t *testing.T) {
	// 10 min avg x 24 cycles = 240 min = 4 h; 4 h x 3.5 kW = 14 kWh;
	// 14 kWh x 0.12 = 1.68.
	cost, ok := energy.DailyCost(statsWith(10*time.Minute, 0), params())
	require.True(t, ok)
	assert.InDelta(t, 1.68, cost, 1e-9)
}

func TestDailyCostUndefinedWithoutRate(t *testing.T) {
	p := params()
	p.RatePerKWh = 0

	_, ok := energy.DailyCost(statsWith(10*time.Minute, 0), p)
	assert.False(t, ok, "cost is undefined, not zero, when no rate is configured")
}

func TestDailyCostUndefinedWithoutHistory(t *testing.T) {
	_, ok := energy.DailyCost(stats.RollingStats{}, params())
	assert.False(t, ok)
}
