// Package energy holds the pure efficiency and cost models. Both are
// stateless functions over rolling statistics and the current cycle; all
// tunables live in Params.
package energy

import (
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/stats"
)

const (
	maxScore = 100.0

	// Penalty weights. Runtime overrun is weighted heavier than slow
	// temperature change; together they span the full score range.
	runtimeWeight = 0.6
	degreeWeight  = 0.4
)

// Params are the configured model inputs. RatePerKWh of zero means no rate
// is configured and the cost estimate is undefined.
type Params struct {
	BaselinePerDegree time.Duration
	RatePerKWh        float64
	DrawKW            float64
	CyclesPerDay      float64
}

// Score rates the current behavior against history on a 0-100 scale.
// The score is 100 while the current runtime is at or below the average and
// the time-per-degree is at or below baseline, and decreases smoothly as
// either ratio grows past 1. Returns ok=false when no history exists.
func Score(current time.Duration, s stats.RollingStats, p Params) (float64, bool) {
	if !s.HasRuntime() {
		return 0, false
	}

	score := maxScore

	if s.AvgRuntime > 0 && current > 0 {
		r1 := current.Seconds() / s.AvgRuntime.Seconds()
		if r1 > 1 {
			score -= runtimeWeight * (r1 - 1) * maxScore
		}
	}

	if s.HasTimePerDegree() && p.BaselinePerDegree > 0 {
		r2 := s.AvgTimePerDegree.Seconds() / p.BaselinePerDegree.Seconds()
		if r2 > 1 {
			score -= degreeWeight * (r2 - 1) * maxScore
		}
	}

	return clamp(score, 0, maxScore), true
}

// DailyCost projects the daily energy cost from the average runtime:
// (avg minutes x cycles per day / 60) x draw kW x rate. Returns ok=false
// when no rate is configured or no history exists.
func DailyCost(s stats.RollingStats, p Params) (float64, bool) {
	if p.RatePerKWh <= 0 || !s.HasRuntime() {
		return 0, false
	}

	dailyHours := s.AvgRuntime.Minutes() * p.CyclesPerDay / 60
	dailyKWh := dailyHours * p.DrawKW

	cost := dailyKWh * p.RatePerKWh
	if cost < 0 {
		cost = 0
	}

	return cost, true
}

func clamp(value, minValue, maxValue float64) float64 {
	if value < minValue {
		return minValue
	}

	if value > maxValue {
		return maxValue
	}

	return value
}
