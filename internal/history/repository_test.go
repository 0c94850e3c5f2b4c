package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/errors"
	"github.com/brandongraves08/ecobee-learning/internal/history"
	"github.com/brandongraves08/ecobee-learning/internal/logger"
)

var base = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) history.Repository {
	t.Helper()

	repo, err := history.NewRepository(history.Config{
		DBPath: filepath.Join(t.TempDir(), "history.db"),
	}, logger.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func cycleAt(start time.Time, d time.Duration, startTemp, endTemp float64) climate.Cycle {
	return climate.Cycle{
		Start:     start,
		End:       start.Add(d),
		StartTemp: startTemp,
		EndTemp:   endTemp,
	}
}

func TestAppendAndQuerySinceOrdering(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	// Append out of order; QuerySince must return ascending by start.
	require.NoError(t, repo.Append(ctx, cycleAt(base.Add(2*time.Hour), 10*time.Minute, 76, 72)))
	require.NoError(t, repo.Append(ctx, cycleAt(base, 20*time.Minute, 78, 72)))
	require.NoError(t, repo.Append(ctx, cycleAt(base.Add(time.Hour), 15*time.Minute, 77, 72)))

	cycles, err := repo.QuerySince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, cycles, 3)
	assert.True(t, cycles[0].Start.Before(cycles[1].Start))
	assert.True(t, cycles[1].Start.Before(cycles[2].Start))
	assert.Equal(t, 20*time.Minute, cycles[0].Duration())
	assert.InDelta(t, 78.0, cycles[0].StartTemp, 1e-9)
	assert.InDelta(t, 72.0, cycles[0].EndTemp, 1e-9)
}

func TestQuerySinceCutoff(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, cycleAt(base, 10*time.Minute, 76, 72)))
	require.NoError(t, repo.Append(ctx, cycleAt(base.Add(48*time.Hour), 10*time.Minute, 76, 72)))

	cycles, err := repo.QuerySince(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, base.Add(48*time.Hour).Unix(), cycles[0].Start.Unix())
}

func TestAppendRejectsInvertedCycle(t *testing.T) {
	repo := newRepo(t)

	err := repo.Append(context.Background(), climate.Cycle{
		Start: base.Add(time.Hour),
		End:   base,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, history.ErrInvalidCycle))
}

func TestPurgeOlderThan(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	old := cycleAt(base, 10*time.Minute, 76, 72)
	boundary := cycleAt(base.Add(24*time.Hour), 10*time.Minute, 76, 72)
	recent := cycleAt(base.Add(48*time.Hour), 10*time.Minute, 76, 72)
	require.NoError(t, repo.Append(ctx, old))
	require.NoError(t, repo.Append(ctx, boundary))
	require.NoError(t, repo.Append(ctx, recent))

	cutoff := base.Add(24 * time.Hour)

	deleted, err := repo.PurgeOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "only the cycle with start < cutoff is purged")

	// A cycle starting exactly at the cutoff survives.
	cycles, err := repo.QuerySince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, cycles, 2)
	assert.Equal(t, cutoff.Unix(), cycles[0].Start.Unix())

	// Idempotent: a second purge with the same cutoff deletes nothing.
	deleted, err = repo.PurgeOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestReopenKeepsRecords(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	repo, err := history.NewRepository(history.Config{DBPath: dbPath}, logger.Default())
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, cycleAt(base, 10*time.Minute, 76, 72)))
	require.NoError(t, repo.Close())

	reopened, err := history.NewRepository(history.Config{DBPath: dbPath}, logger.Default())
	require.NoError(t, err)
	defer reopened.Close()

	cycles, err := reopened.QuerySince(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, cycles, 1)
}

func TestConcurrentAppendAndPurge(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, cycleAt(base, 10*time.Minute, 76, 72)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			_ = repo.Append(ctx, cycleAt(base.Add(time.Duration(i+1)*time.Hour), 10*time.Minute, 76, 72))
		}
	}()

	for i := 0; i < 10; i++ {
		_, err := repo.PurgeOlderThan(ctx, base)
		require.NoError(t, err)
	}
	<-done

	// Nothing started before base, so every appended cycle survived.
	cycles, err := repo.QuerySince(ctx, base)
	require.NoError(t, err)
	assert.Len(t, cycles, 21)
}

func TestNewRepositoryRequiresPath(t *testing.T) {
	_, err := history.NewRepository(history.Config{}, logger.Default())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, history.ErrInvalidDBPath))
}
