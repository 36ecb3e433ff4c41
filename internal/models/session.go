package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a training session.
type Status string

const (
	StatusPlanned   Status = "Planned"
	StatusCompleted Status = "Completed"
	StatusPostponed Status = "Postponed"
	StatusCancelled Status = "Cancelled"
)

// CanTransitionTo reports whether the status machine permits moving from s to
// next. Completed and Cancelled are terminal; Postponed may return to Planned
// for rescheduling.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPlanned:
		return next == StatusCompleted || next == StatusPostponed || next == StatusCancelled
	case StatusPostponed:
		return next == StatusPlanned
	}
	return false
}

// FieldChange records a single field's before/after values.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeEntry is a timestamped set of field-level changes to a session.
type ChangeEntry struct {
	At      time.Time              `json:"at"`
	Changes map[string]FieldChange `json:"changes"`
}

// TrainingSession is one dated, typed training unit within a week.
type TrainingSession struct {
	ID         uuid.UUID     `json:"id"`
	Date       time.Time     `json:"date"`
	Discipline Discipline    `json:"discipline"`
	Type       string        `json:"type"`
	Volume     float64       `json:"volume"`
	Unit       string        `json:"unit"`
	RPE        int           `json:"rpe"`
	Status     Status        `json:"status"`
	// Adjustment is a pending volume delta; only meaningful for future dates.
	Adjustment   float64       `json:"adjustment"`
	Detail       string        `json:"detail"`
	Notes        string        `json:"notes"`
	ChangeLog    []ChangeEntry `json:"change_log"`
	LastEditedAt time.Time     `json:"last_edited_at"`
	WeekStart    time.Time     `json:"week_start"`
}

// LockUnit forces the unit back to the discipline's canonical unit. A
// discipline/unit mismatch is self-corrected, never an error.
func (ts *TrainingSession) LockUnit() {
	ts.Unit = ts.Discipline.Unit()
}

// Realized reports whether the session counts as executed work as of the
// given day: dated on or before it and marked Completed. Realized sessions
// are locked against rebalancing.
func (ts *TrainingSession) Realized(today time.Time) bool {
	return ts.Status == StatusCompleted && !ts.Date.After(today)
}

// trackedFields are the fields recorded in the change log.
func trackedFields(ts *TrainingSession) map[string]string {
	return map[string]string{
		"discipline": string(ts.Discipline),
		"type":       ts.Type,
		"volume":     fmt.Sprintf("%g", ts.Volume),
		"unit":       ts.Unit,
		"rpe":        fmt.Sprintf("%d", ts.RPE),
		"status":     string(ts.Status),
		"adjustment": fmt.Sprintf("%g", ts.Adjustment),
		"detail":     ts.Detail,
		"date":       ts.Date.Format("2006-01-02"),
	}
}

// AppendChange compares the session against its previous state and appends a
// change-log entry for the fields that actually differ. Unchanged sessions
// get no entry. The edit timestamp is stamped only when something changed.
func (ts *TrainingSession) AppendChange(prev *TrainingSession, at time.Time) {
	oldFields := trackedFields(prev)
	newFields := trackedFields(ts)

	changes := make(map[string]FieldChange)
	for field, oldVal := range oldFields {
		if newVal := newFields[field]; newVal != oldVal {
			changes[field] = FieldChange{Old: oldVal, New: newVal}
		}
	}
	if len(changes) == 0 {
		return
	}
	ts.ChangeLog = append(ts.ChangeLog, ChangeEntry{At: at, Changes: changes})
	ts.LastEditedAt = at
}

// MondayOf returns the Monday of the week containing d, at midnight UTC.
func MondayOf(d time.Time) time.Time {
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}
