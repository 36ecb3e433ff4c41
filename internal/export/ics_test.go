package export

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/triplan/internal/models"
)

func TestWeekCalendar(t *testing.T) {
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sessions := []models.TrainingSession{
		{
			ID: uuid.New(), Date: weekStart, Discipline: models.Run, Type: "Long Run",
			Volume: 9.3, Unit: "km", Status: models.StatusPlanned,
			Detail: "Long run 9.3 km (Z2/Z3).", LastEditedAt: weekStart,
		},
		{
			ID: uuid.New(), Date: weekStart.AddDate(0, 0, 2), Discipline: models.Swim, Type: "Technique",
			Volume: 1200, Unit: "m", Status: models.StatusCancelled, LastEditedAt: weekStart,
		},
	}

	serialized := WeekCalendar(weekStart, sessions).Serialize()

	if !strings.Contains(serialized, "BEGIN:VCALENDAR") {
		t.Fatal("output is not a calendar")
	}
	if !strings.Contains(serialized, "Run Long Run: 9.3 km") {
		t.Errorf("missing run event summary in:\n%s", serialized)
	}
	if strings.Contains(serialized, "Technique") {
		t.Error("cancelled session leaked into the calendar")
	}
	if !strings.Contains(serialized, "Long run 9.3 km") {
		t.Error("missing event description")
	}
}

func TestWeekCalendarMarksCompleted(t *testing.T) {
	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	serialized := WeekCalendar(weekStart, []models.TrainingSession{{
		ID: uuid.New(), Date: weekStart, Discipline: models.Bike, Type: "Endurance",
		Volume: 45, Unit: "km", Status: models.StatusCompleted, LastEditedAt: weekStart,
	}}).Serialize()

	if !strings.Contains(serialized, "(done)") {
		t.Error("completed session not marked")
	}
}
