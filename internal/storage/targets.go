package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/claude/triplan/internal/models"
)

// SaveLiveTargets upserts the live target set for one week.
func (db *DB) SaveLiveTargets(ctx context.Context, weekStart time.Time, targets models.TargetSet) error {
	encoded, err := json.Marshal(targets)
	if err != nil {
		return fmt.Errorf("encoding targets: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO weekly_targets (week_start, targets, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (week_start) DO UPDATE
			SET targets = $2, updated_at = NOW()
	`, weekStart, encoded)
	if err != nil {
		return fmt.Errorf("saving live targets: %w", err)
	}
	return nil
}

// LiveTargets retrieves the live target set for one week, or nil when the
// week has none.
func (db *DB) LiveTargets(ctx context.Context, weekStart time.Time) (models.TargetSet, error) {
	var encoded []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT targets FROM weekly_targets WHERE week_start = $1`,
		weekStart).Scan(&encoded)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying live targets: %w", err)
	}
	var targets models.TargetSet
	if err := json.Unmarshal(encoded, &targets); err != nil {
		return nil, fmt.Errorf("decoding targets: %w", err)
	}
	return targets, nil
}

// FrozenTargets is the Postgres-backed frozen-target store, bound to a
// request context so it can satisfy the engine's store interface.
type FrozenTargets struct {
	db  *DB
	ctx context.Context
}

// FrozenTargets binds a frozen-target store to the given context.
func (db *DB) FrozenTargets(ctx context.Context) *FrozenTargets {
	return &FrozenTargets{db: db, ctx: ctx}
}

// GetOrCreate returns the frozen targets for a week, capturing the live set
// on first need. The insert races benignly: ON CONFLICT keeps the first
// snapshot and the follow-up select returns it.
func (f *FrozenTargets) GetOrCreate(weekStart time.Time, live models.TargetSet) (models.WeeklyTarget, error) {
	encoded, err := json.Marshal(live)
	if err != nil {
		return models.WeeklyTarget{}, fmt.Errorf("encoding targets: %w", err)
	}
	_, err = f.db.Pool.Exec(f.ctx, `
		INSERT INTO frozen_targets (week_start, targets, frozen_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (week_start) DO NOTHING
	`, weekStart, encoded)
	if err != nil {
		return models.WeeklyTarget{}, fmt.Errorf("freezing targets: %w", err)
	}

	wt, ok, err := f.Get(weekStart)
	if err != nil {
		return models.WeeklyTarget{}, err
	}
	if !ok {
		return models.WeeklyTarget{}, fmt.Errorf("frozen targets for %s vanished after insert", weekStart.Format("2006-01-02"))
	}
	return wt, nil
}

// Get returns the frozen targets for a week, if any.
func (f *FrozenTargets) Get(weekStart time.Time) (models.WeeklyTarget, bool, error) {
	var (
		wt      models.WeeklyTarget
		encoded []byte
	)
	err := f.db.Pool.QueryRow(f.ctx,
		`SELECT week_start, targets, frozen_at FROM frozen_targets WHERE week_start = $1`,
		weekStart).Scan(&wt.WeekStart, &encoded, &wt.FrozenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.WeeklyTarget{}, false, nil
	}
	if err != nil {
		return models.WeeklyTarget{}, false, fmt.Errorf("querying frozen targets: %w", err)
	}
	if err := json.Unmarshal(encoded, &wt.Targets); err != nil {
		return models.WeeklyTarget{}, false, fmt.Errorf("decoding frozen targets: %w", err)
	}
	return wt, true, nil
}

// Reset drops the frozen targets for one week.
func (f *FrozenTargets) Reset(weekStart time.Time) error {
	if _, err := f.db.Pool.Exec(f.ctx,
		`DELETE FROM frozen_targets WHERE week_start = $1`, weekStart); err != nil {
		return fmt.Errorf("resetting frozen targets: %w", err)
	}
	return nil
}

// ResetRange drops frozen targets for all weeks in [from, to).
func (f *FrozenTargets) ResetRange(from, to time.Time) error {
	if _, err := f.db.Pool.Exec(f.ctx,
		`DELETE FROM frozen_targets WHERE week_start >= $1 AND week_start < $2`,
		from, to); err != nil {
		return fmt.Errorf("resetting frozen targets: %w", err)
	}
	return nil
}
