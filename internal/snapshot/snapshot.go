package snapshot

import (
	"math"
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/energy"
	"github.com/brandongraves08/ecobee-learning/internal/stats"
	"github.com/brandongraves08/ecobee-learning/internal/weather"
)

// Snapshot is the one consistent, immutable reading exposed to the host,
// re-emitted once per poll. Optional metrics are nil when their upstream
// input is unavailable; a degraded field never blocks the rest.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`

	// Runtimes in minutes, matching the published unit of measurement.
	CurrentRuntime float64  `json:"current_runtime"`
	AverageRuntime *float64 `json:"average_runtime,omitempty"`

	CurrentTemp float64 `json:"current_temp"`
	TargetTemp  float64 `json:"target_temp"`
	HVACAction  string  `json:"hvac_action"`
	Equipment   string  `json:"equipment_running"`
	Alert       bool    `json:"alert"`

	// Seconds of runtime per degree of temperature change.
	AvgTimePerDegree *float64 `json:"avg_time_per_degree,omitempty"`

	EfficiencyScore    *float64 `json:"efficiency_score,omitempty"`
	EstimatedDailyCost *float64 `json:"estimated_daily_cost,omitempty"`

	OutdoorTemp  *float64 `json:"outdoor_temp,omitempty"`
	OutdoorStale bool     `json:"outdoor_temp_stale,omitempty"`

	SampleCount int `json:"sample_count"`
}

// Inputs carries the upstream component outputs into Assemble.
type Inputs struct {
	DeviceID   string
	Reading    climate.Reading
	InProgress time.Duration
	Stats      stats.RollingStats
	Alert      bool
	Score      float64
	ScoreOK    bool
	Cost       float64
	CostOK     bool
	Outdoor    weather.Observation
	OutdoorOK  bool
}

// Assemble composes one snapshot from the component outputs. Pure: it
// neither queries nor mutates anything.
func Assemble(in Inputs) Snapshot {
	snap := Snapshot{
		Timestamp:      in.Reading.Timestamp,
		DeviceID:       in.DeviceID,
		CurrentRuntime: round2(in.InProgress.Minutes()),
		CurrentTemp:    in.Reading.CurrentTemp,
		TargetTemp:     in.Reading.TargetTemp,
		HVACAction:     in.Reading.HVACAction,
		Equipment:      in.Reading.Equipment,
		Alert:          in.Alert,
		SampleCount:    in.Stats.SampleCount,
	}

	if in.Stats.HasRuntime() {
		snap.AverageRuntime = ptr(round2(in.Stats.AvgRuntime.Minutes()))
	}
	if in.Stats.HasTimePerDegree() {
		snap.AvgTimePerDegree = ptr(round2(in.Stats.AvgTimePerDegree.Seconds()))
	}
	if in.ScoreOK {
		snap.EfficiencyScore = ptr(round2(in.Score))
	}
	if in.CostOK {
		snap.EstimatedDailyCost = ptr(round2(in.Cost))
	}
	if in.OutdoorOK {
		snap.OutdoorTemp = ptr(in.Outdoor.Temperature)
		snap.OutdoorStale = in.Outdoor.Stale
	}

	return snap
}

// AssembleFrom runs the pure model stages and composes the snapshot in one
// step, keeping the per-poll wiring in a single place.
func AssembleFrom(
	deviceID string,
	reading climate.Reading,
	current time.Duration,
	st stats.RollingStats,
	threshold float64,
	params energy.Params,
	outdoor weather.Observation,
	outdoorOK bool,
) Snapshot {
	score, scoreOK := energy.Score(current, st, params)
	cost, costOK := energy.DailyCost(st, params)

	return Assemble(Inputs{
		DeviceID:   deviceID,
		Reading:    reading,
		InProgress: current,
		Stats:      st,
		Alert:      stats.Alert(current, st, threshold),
		Score:      score,
		ScoreOK:    scoreOK,
		Cost:       cost,
		CostOK:     costOK,
		Outdoor:    outdoor,
		OutdoorOK:  outdoorOK,
	})
}

func ptr(v float64) *float64 {
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
