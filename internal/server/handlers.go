package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/triplan/internal/export"
	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan"
	"github.com/claude/triplan/internal/storage"
)

// weekView is one week's sessions with its live and frozen targets.
type weekView struct {
	WeekStart     time.Time                `json:"week_start"`
	Sessions      []models.TrainingSession `json:"sessions"`
	LiveTargets   models.TargetSet         `json:"live_targets,omitempty"`
	FrozenTargets *models.WeeklyTarget     `json:"frozen_targets,omitempty"`
}

func (s *Server) handleQueryWeeks(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWeekRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.db.QuerySessions(r.Context(), from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	byWeek := make(map[time.Time][]models.TrainingSession)
	for _, sess := range sessions {
		byWeek[sess.WeekStart] = append(byWeek[sess.WeekStart], sess)
	}

	views := make([]weekView, 0, len(byWeek))
	for week := from; week.Before(to); week = week.AddDate(0, 0, 7) {
		weekSessions, ok := byWeek[week]
		if !ok {
			continue
		}
		view, err := s.buildWeekView(r, week, weekSessions)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeekParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.db.WeekSessions(r.Context(), week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	view, err := s.buildWeekView(r, week, sessions)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) buildWeekView(r *http.Request, week time.Time, sessions []models.TrainingSession) (weekView, error) {
	view := weekView{WeekStart: week, Sessions: sessions}

	live, err := s.db.LiveTargets(r.Context(), week)
	if err != nil {
		return weekView{}, err
	}
	view.LiveTargets = live

	frozen, ok, err := s.db.FrozenTargets(r.Context()).Get(week)
	if err != nil {
		return weekView{}, err
	}
	if ok {
		view.FrozenTargets = &frozen
	}
	return view, nil
}

func (s *Server) handleWeekCalendar(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeekParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.db.WeekSessions(r.Context(), week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	fmt.Fprint(w, export.WeekCalendar(week, sessions).Serialize())
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	cycle, err := s.db.LatestCycle(r.Context())
	if err == storage.ErrNoCycle {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cycle generated yet"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

// loadStat is one week's aggregate training load with its per-discipline
// volume breakdown.
type loadStat struct {
	WeekStart time.Time                      `json:"week_start"`
	Load      float64                        `json:"load"`
	Volumes   map[models.Discipline]float64  `json:"volumes"`
}

func (s *Server) handleLoadStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseWeekRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	sessions, err := s.db.QuerySessions(r.Context(), from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	volumes, err := s.db.VolumeByWeek(r.Context(), from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	byWeek := make(map[time.Time][]models.TrainingSession)
	for _, sess := range sessions {
		byWeek[sess.WeekStart] = append(byWeek[sess.WeekStart], sess)
	}

	stats := make([]loadStat, 0, len(byWeek))
	for week := from; week.Before(to); week = week.AddDate(0, 0, 7) {
		weekSessions, ok := byWeek[week]
		if !ok {
			continue
		}
		stats = append(stats, loadStat{
			WeekStart: week,
			Load:      plan.WeeklyLoad(weekSessions),
			Volumes:   volumes[week],
		})
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseWeekParam reads the {monday} URL parameter and normalizes it to the
// Monday of its week.
func parseWeekParam(r *http.Request) (time.Time, error) {
	raw := chi.URLParam(r, "monday")
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week date %q: want YYYY-MM-DD", raw)
	}
	return models.MondayOf(day), nil
}

// parseWeekRange reads start/end query parameters as week-start dates. The
// default window is the four weeks around today.
func parseWeekRange(r *http.Request) (from, to time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		from = models.MondayOf(time.Now().UTC()).AddDate(0, 0, -7)
		to = from.AddDate(0, 0, 28)
		return
	}

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", startStr)
	}
	from = models.MondayOf(start)

	if endStr == "" {
		to = from.AddDate(0, 0, 28)
		return
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", endStr)
	}
	// End is exclusive; include the week containing it.
	to = models.MondayOf(end).AddDate(0, 0, 7)
	return
}
