package monitor

import (
	"context"
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/errors"
	"github.com/brandongraves08/ecobee-learning/internal/snapshot"
	"github.com/brandongraves08/ecobee-learning/internal/stats"
)

// Poll runs one synchronous unit of work: read the device, detect cycle
// transitions, persist a completed cycle, recompute statistics, run the
// models and publish the assembled snapshot. Failures in one derived
// metric degrade that field only; a failed device read skips the poll.
func (d *Device) Poll(ctx context.Context, now time.Time) error {
	errFactory := errors.New()

	reading, err := d.source.Read(ctx)
	if err != nil {
		return errFactory.Wrap(errors.ErrReadDevice, err)
	}

	cycle, err := d.tracker.Observe(reading)
	if err != nil {
		// Recoverable protocol anomaly: the tracker has already restarted
		// its slot.
		d.log.Warn().
			Str("device", d.id).
			Err(err).
			Msg("Cycle tracking anomaly")
	}

	if cycle != nil {
		if err := d.store.Append(ctx, *cycle); err != nil {
			// Storage may be back next poll; the cycle is dropped but the
			// snapshot still goes out.
			d.log.Error().
				Str("device", d.id).
				Err(err).
				Msg("Failed to persist completed cycle")
		} else {
			d.log.Info().
				Str("device", d.id).
				Float64("runtime_minutes", cycle.Duration().Minutes()).
				Float64("temp_delta", cycle.TempDelta()).
				Msg("Cycle completed")
		}
	}

	st, err := d.engine.Compute(ctx, now)
	if err != nil {
		// Degrade: publish the raw reading without history-derived fields.
		d.log.Error().
			Str("device", d.id).
			Err(err).
			Msg("Failed to compute rolling statistics")
		st = stats.RollingStats{}
	}

	current := d.tracker.InProgress(now)
	if current == 0 && cycle != nil {
		// A just-completed cycle still counts for alerting on this poll.
		current = cycle.Duration()
	}

	outdoor, outdoorOK := d.outdoor.Current(ctx)

	snap := snapshot.AssembleFrom(
		d.id, reading, current, st, d.threshold, d.energy, outdoor, outdoorOK,
	)

	if snap.Alert {
		d.log.Warn().
			Str("device", d.id).
			Float64("current_runtime", snap.CurrentRuntime).
			Float64("average_runtime", derefOrZero(snap.AverageRuntime)).
			Msg("Anomalous runtime detected")
	}

	if err := d.publisher.Publish(ctx, snap); err != nil {
		return errFactory.Wrap(errors.ErrPublishState, err)
	}

	return nil
}

// Purge deletes cycles past the retention horizon. The cutoff is clamped to
// the lookback cutoff so a purge never removes a cycle a concurrent
// statistics query still needs.
func (d *Device) Purge(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-d.retention)
	if lookbackCutoff := now.Add(-d.engine.Lookback()); cutoff.After(lookbackCutoff) {
		cutoff = lookbackCutoff
	}

	return d.store.PurgeOlderThan(ctx, cutoff)
}

// Observe exposes the tracker for hosts that feed readings directly
// instead of letting Poll pull from the source.
func (d *Device) Observe(reading climate.Reading) (*climate.Cycle, error) {
	return d.tracker.Observe(reading)
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
