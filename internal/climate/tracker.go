package climate

import (
	"time"

	"github.com/brandongraves08/ecobee-learning/internal/errors"
)

type openCycle struct {
	start     time.Time
	startTemp float64
}

// Tracker detects cycle boundaries from a stream of readings. It keeps
// exactly one open-cycle slot and is not safe for concurrent use; each
// tracked device owns its own Tracker.
type Tracker struct {
	open        *openCycle
	lastRunning bool
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe feeds one reading into the tracker. It returns a completed Cycle
// on a running->idle transition and nil otherwise. A returned error is
// recoverable: the tracker has already restarted or cleared its open slot
// and the caller should log and continue.
func (t *Tracker) Observe(r Reading) (*Cycle, error) {
	errFactory := errors.New()
	wasRunning := t.lastRunning
	t.lastRunning = r.Running

	if r.Running {
		if wasRunning && t.open != nil {
			// running -> running: the open interval continues; duration is
			// computed on demand via InProgress, nothing is persisted here.
			return nil, nil
		}

		if t.open != nil {
			// idle -> running with a slot still occupied: we missed the
			// close. Discard the stale cycle and start fresh.
			t.open = &openCycle{start: r.Timestamp, startTemp: r.CurrentTemp}
			return nil, errFactory.WithData(ErrDuplicateCycleStart, r.Timestamp)
		}

		t.open = &openCycle{start: r.Timestamp, startTemp: r.CurrentTemp}
		return nil, nil
	}

	if t.open == nil {
		// idle -> idle: duplicate idle readings never re-emit.
		return nil, nil
	}

	open := t.open
	t.open = nil

	if r.Timestamp.Before(open.start) {
		return nil, errFactory.WithData(ErrReadingOutOfOrder, r.Timestamp)
	}

	return &Cycle{
		Start:     open.start,
		End:       r.Timestamp,
		StartTemp: open.startTemp,
		EndTemp:   r.CurrentTemp,
	}, nil
}

// InProgress returns the duration of the open cycle at now, or zero when
// the device is idle.
func (t *Tracker) InProgress(now time.Time) time.Duration {
	if t.open == nil {
		return 0
	}

	d := now.Sub(t.open.start)
	if d < 0 {
		return 0
	}

	return d
}

// Tracking reports whether a cycle is currently open.
func (t *Tracker) Tracking() bool {
	return t.open != nil
}
