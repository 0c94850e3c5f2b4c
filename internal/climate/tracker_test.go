package climate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/errors"
)

var t0 = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

func reading(at time.Duration, running bool, temp float64) climate.Reading {
	return climate.Reading{
		Timestamp:   t0.Add(at),
		Running:     running,
		CurrentTemp: temp,
		TargetTemp:  72,
	}
}

func TestObserveEmitsOneCyclePerRunInterval(t *testing.T) {
	tracker := climate.NewTracker()

	cycle, err := tracker.Observe(reading(0, true, 75))
	require.NoError(t, err)
	assert.Nil(t, cycle, "idle->running must not emit")

	cycle, err = tracker.Observe(reading(5*time.Minute, true, 74))
	require.NoError(t, err)
	assert.Nil(t, cycle, "running->running must not emit")

	cycle, err = tracker.Observe(reading(10*time.Minute, false, 72))
	require.NoError(t, err)
	require.NotNil(t, cycle, "running->idle must emit the completed cycle")
	assert.Equal(t, 10*time.Minute, cycle.Duration())
	assert.InDelta(t, 75.0, cycle.StartTemp, 1e-9)
	assert.InDelta(t, 72.0, cycle.EndTemp, 1e-9)
	assert.InDelta(t, 3.0, cycle.TempDelta(), 1e-9)
}

func TestObserveDuplicateIdleNeverReEmits(t *testing.T) {
	tracker := climate.NewTracker()

	_, err := tracker.Observe(reading(0, true, 75))
	require.NoError(t, err)

	cycle, err := tracker.Observe(reading(10*time.Minute, false, 72))
	require.NoError(t, err)
	require.NotNil(t, cycle)

	for i := 1; i <= 5; i++ {
		cycle, err = tracker.Observe(reading(10*time.Minute+time.Duration(i)*time.Minute, false, 72))
		require.NoError(t, err)
		assert.Nil(t, cycle, "duplicate idle readings must not re-emit")
	}
}

func TestObserveCountMatchesRunIdleTransitions(t *testing.T) {
	tracker := climate.NewTracker()

	// Three complete run intervals with noisy repeats in between.
	pattern := []bool{true, true, false, false, true, false, true, true, true, false, false}
	emitted := 0
	for i, running := range pattern {
		cycle, err := tracker.Observe(reading(time.Duration(i)*time.Minute, running, 74))
		require.NoError(t, err)
		if cycle != nil {
			emitted++
		}
	}

	assert.Equal(t, 3, emitted)
}

func TestObserveOutOfOrderCloseDiscardsCycle(t *testing.T) {
	tracker := climate.NewTracker()

	_, err := tracker.Observe(reading(10*time.Minute, true, 75))
	require.NoError(t, err)

	cycle, err := tracker.Observe(reading(5*time.Minute, false, 72))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, climate.ErrReadingOutOfOrder))
	assert.Nil(t, cycle)
	assert.False(t, tracker.Tracking())
}

func TestInProgress(t *testing.T) {
	tracker := climate.NewTracker()

	assert.Zero(t, tracker.InProgress(t0), "idle tracker reports zero in-progress duration")

	_, err := tracker.Observe(reading(0, true, 75))
	require.NoError(t, err)

	assert.Equal(t, 7*time.Minute, tracker.InProgress(t0.Add(7*time.Minute)))
	assert.True(t, tracker.Tracking())

	_, err = tracker.Observe(reading(10*time.Minute, false, 72))
	require.NoError(t, err)
	assert.Zero(t, tracker.InProgress(t0.Add(11*time.Minute)))
}

func TestEquipmentRunning(t *testing.T) {
	tests := []struct {
		equipment string
		mode      string
		want      bool
	}{
		{"compCool1,fan", "cool", true},
		{"fan", "cool", false},
		{"", "cool", false},
		{"heatPump,fan", "heat", true},
		{"auxHeat1", "heat", true},
		{"compCool1", "heat", false},
		{"compCool1", "off", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, climate.EquipmentRunning(tt.equipment, tt.mode),
			"equipment=%q mode=%q", tt.equipment, tt.mode)
	}
}
