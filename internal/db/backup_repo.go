package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"sentinelle/internal/backup"
	"sentinelle/internal/types"
)

// BackupRepo persists the latest real observation per location in the
// weather_backups table. One row per location; newer observations replace
// older ones, which is all the recent tier ever needs.
type BackupRepo struct {
	db DBTX
}

// NewBackupRepo creates a BackupRepo backed by the given database connection
// (pool or transaction).
func NewBackupRepo(db DBTX) *BackupRepo {
	return &BackupRepo{db: db}
}

// Save upserts the location's latest observation. The observation is stored
// as JSONB so schema changes in the observation struct do not require
// migrations.
func (r *BackupRepo) Save(ctx context.Context, rec backup.Record) error {
	raw, err := json.Marshal(rec.Observation)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to encode backup observation", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO weather_backups (location, observation, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (location)
		DO UPDATE SET observation = EXCLUDED.observation, saved_at = EXCLUDED.saved_at`,
		rec.Location, raw, rec.SavedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save backup observation", err)
	}
	return nil
}

// Latest returns the stored observation for the location, or nil when none
// has ever been saved.
func (r *BackupRepo) Latest(ctx context.Context, location string) (*backup.Record, error) {
	var raw []byte
	rec := backup.Record{Location: location}

	err := r.db.QueryRow(ctx, `
		SELECT observation, saved_at
		FROM weather_backups
		WHERE location = $1`,
		location,
	).Scan(&raw, &rec.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to load backup observation", err)
	}

	var obs types.WeatherObservation
	if err := json.Unmarshal(raw, &obs); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to decode stored backup observation", err)
	}
	rec.Observation = obs
	return &rec, nil
}
