package climate

import (
	"context"
	"time"
)

// Source provides the latest state of a tracked climate device.
type Source interface {
	Read(ctx context.Context) (Reading, error)
}

// Reading is one raw device snapshot. It is transient: held only long
// enough to detect a cycle transition and feed the in-progress duration.
type Reading struct {
	Timestamp   time.Time
	Running     bool
	CurrentTemp float64
	TargetTemp  float64
	HVACAction  string
	Equipment   string
}

// Cycle is one completed active-runtime interval. Immutable once persisted.
type Cycle struct {
	Start     time.Time
	End       time.Time
	StartTemp float64
	EndTemp   float64
}

// Duration returns the cycle length. End >= Start is guaranteed by the tracker.
func (c Cycle) Duration() time.Duration {
	return c.End.Sub(c.Start)
}

// TempDelta returns the absolute temperature change over the cycle.
func (c Cycle) TempDelta() float64 {
	delta := c.StartTemp - c.EndTemp
	if delta < 0 {
		return -delta
	}

	return delta
}
