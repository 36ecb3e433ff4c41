package mcp

import (
	"testing"
	"time"
)

// TestParseWeekDefault verifies an empty argument resolves to the Monday of
// the current week.
func TestParseWeekDefault(t *testing.T) {
	week, err := parseWeek("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if week.Weekday() != time.Monday {
		t.Errorf("weekday = %s, want Monday", week.Weekday())
	}
	if !week.Before(time.Now().UTC().Add(time.Hour)) {
		t.Errorf("week %v is in the future", week)
	}
}

// TestParseWeekNormalizes verifies mid-week dates resolve to their Monday.
func TestParseWeekNormalizes(t *testing.T) {
	week, err := parseWeek("2026-03-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !week.Equal(want) {
		t.Errorf("week = %v, want %v", week, want)
	}
}

// TestParseWeekInvalid verifies malformed dates are rejected.
func TestParseWeekInvalid(t *testing.T) {
	if _, err := parseWeek("next tuesday"); err == nil {
		t.Error("expected error for invalid date")
	}
}
