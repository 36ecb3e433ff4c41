package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan"
)

// ErrNoCycle is returned when no training cycle has been generated yet.
var ErrNoCycle = errors.New("no cycle found")

// CycleRecord is the persisted metadata of a generated cycle. The sessions
// themselves live in training_sessions.
type CycleRecord struct {
	ID        uuid.UUID          `json:"id"`
	Start     time.Time          `json:"start"`
	Weeks     int                `json:"weeks"`
	Distance  models.Distance    `json:"distance"`
	Goal      plan.Goal          `json:"goal"`
	VolMin    float64            `json:"vol_min"`
	VolMax    float64            `json:"vol_max"`
	Phases    []models.Phase     `json:"phases"`
	Curve     models.VolumeCurve `json:"curve"`
	CreatedAt time.Time          `json:"created_at"`
}

// SaveCycle inserts a cycle metadata record.
func (db *DB) SaveCycle(ctx context.Context, rec *CycleRecord) error {
	phases, err := json.Marshal(rec.Phases)
	if err != nil {
		return fmt.Errorf("encoding phases: %w", err)
	}
	curve, err := json.Marshal(rec.Curve)
	if err != nil {
		return fmt.Errorf("encoding curve: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO cycles (id, start_date, weeks, distance, goal, vol_min, vol_max, phases, curve)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, rec.Start, rec.Weeks, rec.Distance, rec.Goal, rec.VolMin, rec.VolMax, phases, curve)
	if err != nil {
		return fmt.Errorf("saving cycle: %w", err)
	}
	return nil
}

// LatestCycle retrieves the most recently generated cycle.
func (db *DB) LatestCycle(ctx context.Context) (*CycleRecord, error) {
	row := db.Pool.QueryRow(ctx, `
		SELECT id, start_date, weeks, distance, goal, vol_min, vol_max, phases, curve, created_at
		FROM cycles
		ORDER BY created_at DESC
		LIMIT 1
	`)

	var (
		rec    CycleRecord
		phases []byte
		curve  []byte
	)
	err := row.Scan(&rec.ID, &rec.Start, &rec.Weeks, &rec.Distance, &rec.Goal,
		&rec.VolMin, &rec.VolMax, &phases, &curve, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoCycle
	}
	if err != nil {
		return nil, fmt.Errorf("querying cycle: %w", err)
	}
	if err := json.Unmarshal(phases, &rec.Phases); err != nil {
		return nil, fmt.Errorf("decoding phases: %w", err)
	}
	if err := json.Unmarshal(curve, &rec.Curve); err != nil {
		return nil, fmt.Errorf("decoding curve: %w", err)
	}
	return &rec, nil
}
