// Package export renders training weeks as iCalendar feeds.
package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/claude/triplan/internal/models"
)

// WeekCalendar renders one week's sessions as an all-day-event calendar.
// Cancelled sessions are left out.
func WeekCalendar(weekStart time.Time, sessions []models.TrainingSession) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName("Training week " + weekStart.Format("2006-01-02"))

	for _, s := range sessions {
		if s.Status == models.StatusCancelled {
			continue
		}
		evt := cal.AddEvent(s.ID.String())
		evt.SetDtStampTime(s.LastEditedAt)
		evt.SetAllDayStartAt(s.Date)
		evt.SetAllDayEndAt(s.Date.AddDate(0, 0, 1))
		evt.SetSummary(eventSummary(&s))
		if s.Detail != "" {
			evt.SetDescription(s.Detail)
		}
	}
	return cal
}

func eventSummary(s *models.TrainingSession) string {
	summary := fmt.Sprintf("%s %s: %g %s", s.Discipline, s.Type, s.Volume, s.Unit)
	if s.Status == models.StatusCompleted {
		summary += " (done)"
	}
	return summary
}
