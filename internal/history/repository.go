package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brandongraves08/ecobee-learning/internal/climate"
	"github.com/brandongraves08/ecobee-learning/internal/errors"
	"github.com/brandongraves08/ecobee-learning/internal/logger"
)

// Repository is the durable, append-only store of completed cycles for one
// tracked device.
type Repository interface {
	Append(ctx context.Context, cycle climate.Cycle) error
	QuerySince(ctx context.Context, cutoff time.Time) ([]climate.Cycle, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

type sqliteRepository struct {
	db     *sql.DB
	logger logger.Logger
	mu     sync.Mutex
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), defaultDirPerm); err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Path  string
			Error string
		}{
			Phase: "create_directory",
			Path:  cfg.DBPath,
			Error: err.Error(),
		})
	}

	// WAL keeps a purge transaction from blocking concurrent appends
	dsn := cfg.DBPath + "?_journal=WAL&_auto_vacuum=2"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errFactory.WithData(ErrStorageInit, struct {
			Phase string
			Error string
		}{
			Phase: "open_database",
			Error: err.Error(),
		})
	}

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	switch version {
	case 0:
		if err := InitSchema(db, log); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
		// Schema is current.
	default:
		db.Close()
		return nil, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Found    int
			Expected int
		}{
			Found:    version,
			Expected: SchemaVersion,
		})
	}

	log.Info().
		Str("path", cfg.DBPath).
		Int("schema_version", SchemaVersion).
		Msg("Cycle history repository initialized")

	return &sqliteRepository{
		db:     db,
		logger: log,
	}, nil
}

func (r *sqliteRepository) Append(ctx context.Context, cycle climate.Cycle) error {
	errFactory := errors.New()

	if cycle.End.Before(cycle.Start) {
		return errFactory.WithData(ErrInvalidCycle, cycle)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, insertCycleSQL,
		cycle.Start.Unix(),
		cycle.End.Unix(),
		cycle.StartTemp,
		cycle.EndTemp,
	)
	if err != nil {
		return errFactory.Wrap(ErrStorageAccess, err)
	}

	return nil
}

func (r *sqliteRepository) QuerySince(ctx context.Context, cutoff time.Time) ([]climate.Cycle, error) {
	errFactory := errors.New()

	rows, err := r.db.QueryContext(ctx, querySinceSQL, cutoff.Unix())
	if err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}
	defer rows.Close()

	var cycles []climate.Cycle
	for rows.Next() {
		var startTS, endTS int64
		var cycle climate.Cycle
		if err := rows.Scan(&startTS, &endTS, &cycle.StartTemp, &cycle.EndTemp); err != nil {
			return nil, errFactory.Wrap(ErrStorageAccess, err)
		}
		cycle.Start = time.Unix(startTS, 0).UTC()
		cycle.End = time.Unix(endTS, 0).UTC()
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, errFactory.Wrap(ErrStorageAccess, err)
	}

	return cycles, nil
}

func (r *sqliteRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	errFactory := errors.New()

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errFactory.Wrap(ErrTransactionFailed, err)
	}

	result, err := tx.Exec(purgeOlderThanSQL, cutoff.Unix())
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Debug().Err(rbErr).Msg("Failed to roll back purge transaction")
		}
		return 0, errFactory.Wrap(ErrStorageAccess, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		deleted = 0
	}

	if err := tx.Commit(); err != nil {
		return 0, errFactory.Wrap(ErrTransactionFailed, err)
	}

	if deleted > 0 {
		r.logger.Debug().
			Int64("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Purged expired cycles")
	}

	return deleted, nil
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		r.logger.Debug().Err(err).Msg("WAL checkpoint failed on close")
	}

	if err := r.db.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}
