package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"sentinelle/internal/types"
)

// UsageRepo persists the daily upstream-call counter in the upstream_usage
// table so a process restart does not reset the quota accounting. The
// in-memory budget remains the source of truth while the process runs; this
// repo only seeds it at startup and checkpoints it periodically.
type UsageRepo struct {
	db DBTX
}

// NewUsageRepo creates a UsageRepo backed by the given database connection
// (pool or transaction).
func NewUsageRepo(db DBTX) *UsageRepo {
	return &UsageRepo{db: db}
}

// Upsert records the used count for the given day. Counts only grow within a
// day; GREATEST guards against an out-of-order checkpoint from a concurrent
// replica regressing the stored value.
func (r *UsageRepo) Upsert(ctx context.Context, day time.Time, used int) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO upstream_usage (day, used)
		VALUES ($1::date, $2)
		ON CONFLICT (day)
		DO UPDATE SET used = GREATEST(upstream_usage.used, EXCLUDED.used)`,
		day, used,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to save upstream usage", err)
	}
	return nil
}

// Load returns the persisted used count for the given day, zero when absent.
func (r *UsageRepo) Load(ctx context.Context, day time.Time) (int, error) {
	var used int
	err := r.db.QueryRow(ctx,
		`SELECT used FROM upstream_usage WHERE day = $1::date`,
		day,
	).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to load upstream usage", err)
	}
	return used, nil
}
