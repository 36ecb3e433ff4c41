package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/triplan/internal/models"
)

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `id, date, discipline, type, volume, unit, rpe, status,
	 adjustment, detail, notes, change_log, last_edited_at, week_start`

// ReplaceWeekSessions overwrites the session set of one week inside a
// transaction: delete everything for the week start, then batch-insert the
// replacement rows. The rebalancer and cycle generator always produce whole
// weeks, so a full overwrite keeps the week internally consistent.
func (db *DB) ReplaceWeekSessions(ctx context.Context, weekStart time.Time, sessions []models.TrainingSession) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM training_sessions WHERE week_start = $1`, weekStart); err != nil {
		return fmt.Errorf("clearing week sessions: %w", err)
	}

	if len(sessions) > 0 {
		query := `INSERT INTO training_sessions (` + sessionColumns + `) VALUES `
		args := make([]any, 0, len(sessions)*14)
		valueStrings := make([]string, 0, len(sessions))

		for i, s := range sessions {
			changeLog, err := json.Marshal(s.ChangeLog)
			if err != nil {
				return fmt.Errorf("encoding change log: %w", err)
			}
			base := i * 14
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7,
				base+8, base+9, base+10, base+11, base+12, base+13, base+14,
			))
			args = append(args, s.ID, s.Date, s.Discipline, s.Type, s.Volume, s.Unit,
				s.RPE, s.Status, s.Adjustment, s.Detail, s.Notes, changeLog,
				s.LastEditedAt, s.WeekStart)
		}

		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting week sessions: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// QuerySessions retrieves sessions whose week start falls in [from, to),
// ordered by date.
func (db *DB) QuerySessions(ctx context.Context, from, to time.Time) ([]models.TrainingSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM training_sessions
		 WHERE week_start >= $1 AND week_start < $2
		 ORDER BY date, discipline`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	return scanSessionRows(rows)
}

// WeekSessions retrieves one week's sessions, ordered by date.
func (db *DB) WeekSessions(ctx context.Context, weekStart time.Time) ([]models.TrainingSession, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sessionColumns+`
		 FROM training_sessions
		 WHERE week_start = $1
		 ORDER BY date, discipline`,
		weekStart)
	if err != nil {
		return nil, fmt.Errorf("querying week sessions: %w", err)
	}
	defer rows.Close()

	return scanSessionRows(rows)
}

// GetSession retrieves a single session by ID.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*models.TrainingSession, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM training_sessions
		 WHERE id = $1`, id)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return s, nil
}

// UpdateSession overwrites one session row.
func (db *DB) UpdateSession(ctx context.Context, s *models.TrainingSession) error {
	changeLog, err := json.Marshal(s.ChangeLog)
	if err != nil {
		return fmt.Errorf("encoding change log: %w", err)
	}
	tag, err := db.Pool.Exec(ctx,
		`UPDATE training_sessions
		 SET date = $2, discipline = $3, type = $4, volume = $5, unit = $6,
		     rpe = $7, status = $8, adjustment = $9, detail = $10, notes = $11,
		     change_log = $12, last_edited_at = $13, week_start = $14
		 WHERE id = $1`,
		s.ID, s.Date, s.Discipline, s.Type, s.Volume, s.Unit, s.RPE, s.Status,
		s.Adjustment, s.Detail, s.Notes, changeLog, s.LastEditedAt, s.WeekStart)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// VolumeByWeek aggregates per-discipline session volume for weeks in
// [from, to), excluding cancelled sessions. Keys are week-start dates.
func (db *DB) VolumeByWeek(ctx context.Context, from, to time.Time) (map[time.Time]map[models.Discipline]float64, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT week_start, discipline, SUM(volume)
		 FROM training_sessions
		 WHERE week_start >= $1 AND week_start < $2 AND status <> 'Cancelled'
		 GROUP BY week_start, discipline
		 ORDER BY week_start`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregating weekly volume: %w", err)
	}
	defer rows.Close()

	result := make(map[time.Time]map[models.Discipline]float64)
	for rows.Next() {
		var (
			weekStart  time.Time
			discipline models.Discipline
			volume     float64
		)
		if err := rows.Scan(&weekStart, &discipline, &volume); err != nil {
			return nil, fmt.Errorf("scanning weekly volume: %w", err)
		}
		if result[weekStart] == nil {
			result[weekStart] = make(map[models.Discipline]float64)
		}
		result[weekStart][discipline] = volume
	}
	return result, rows.Err()
}

func scanSessionRows(rows pgx.Rows) ([]models.TrainingSession, error) {
	var result []models.TrainingSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func scanSession(row pgx.Row) (*models.TrainingSession, error) {
	var (
		s         models.TrainingSession
		changeLog []byte
	)
	if err := row.Scan(&s.ID, &s.Date, &s.Discipline, &s.Type, &s.Volume, &s.Unit,
		&s.RPE, &s.Status, &s.Adjustment, &s.Detail, &s.Notes, &changeLog,
		&s.LastEditedAt, &s.WeekStart); err != nil {
		return nil, err
	}
	if len(changeLog) > 0 {
		if err := json.Unmarshal(changeLog, &s.ChangeLog); err != nil {
			return nil, fmt.Errorf("decoding change log: %w", err)
		}
	}
	return &s, nil
}
