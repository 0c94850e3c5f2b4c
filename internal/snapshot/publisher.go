package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
	"github.com/brandongraves08/ecobee-learning/internal/logger"
)

// Publisher is the one-way contract through which the core hands snapshots
// to the host. The core never depends on host internals.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// LogPublisher emits each snapshot as a structured log record.
type LogPublisher struct {
	log logger.Logger
}

func NewLogPublisher(log logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, snap Snapshot) error {
	event := p.log.Info().
		Str("device", snap.DeviceID).
		Float64("current_runtime", snap.CurrentRuntime).
		Float64("current_temp", snap.CurrentTemp).
		Float64("target_temp", snap.TargetTemp).
		Str("hvac_action", snap.HVACAction).
		Str("equipment_running", snap.Equipment).
		Bool("alert", snap.Alert).
		Int("sample_count", snap.SampleCount)

	if snap.AverageRuntime != nil {
		event = event.Float64("average_runtime", *snap.AverageRuntime)
	}
	if snap.AvgTimePerDegree != nil {
		event = event.Float64("avg_time_per_degree", *snap.AvgTimePerDegree)
	}
	if snap.EfficiencyScore != nil {
		event = event.Float64("efficiency_score", *snap.EfficiencyScore)
	}
	if snap.EstimatedDailyCost != nil {
		event = event.Float64("estimated_daily_cost", *snap.EstimatedDailyCost)
	}
	if snap.OutdoorTemp != nil {
		event = event.Float64("outdoor_temp", *snap.OutdoorTemp).
			Bool("outdoor_temp_stale", snap.OutdoorStale)
	}

	event.Msg("snapshot")

	return nil
}

// FilePublisher writes the latest snapshot as JSON to a fixed path so hosts
// can read it from disk. The write is atomic: tmp file plus rename.
type FilePublisher struct {
	path string
}

func NewFilePublisher(path string) *FilePublisher {
	return &FilePublisher{path: path}
}

func (p *FilePublisher) Publish(_ context.Context, snap Snapshot) error {
	errFactory := errors.New()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(p.path)+".tmp-*")
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}
	if err := tmp.Sync(); err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}
	if err := tmp.Close(); err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}

	return nil
}

// Multi fans one snapshot out to several publishers. The first failure is
// returned after every publisher has been attempted.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, snap Snapshot) error {
	var firstErr error
	for _, p := range m {
		if err := p.Publish(ctx, snap); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
