package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan"
	"github.com/claude/triplan/internal/storage"
)

// cycleRequest is the payload of POST /api/v1/cycle.
type cycleRequest struct {
	StartDate             string                      `json:"start_date"`
	Weeks                 int                         `json:"weeks"`
	Distance              models.Distance             `json:"distance"`
	Goal                  plan.Goal                   `json:"goal"`
	SessionsPerDiscipline map[models.Discipline]int   `json:"sessions_per_discipline,omitempty"`
	PreferredDays         map[models.Discipline][]int `json:"preferred_days,omitempty"`
	Paces                 plan.PaceHints              `json:"paces"`
}

func (s *Server) handleGenerateCycle(w http.ResponseWriter, r *http.Request) {
	var req cycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid start_date %q", req.StartDate)})
		return
	}
	for d := range req.SessionsPerDiscipline {
		if !d.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown discipline %q", d)})
			return
		}
	}

	cycle, err := plan.GenerateCycle(plan.CycleConfig{
		StartDate:             start,
		Weeks:                 req.Weeks,
		Distance:              req.Distance,
		Goal:                  req.Goal,
		SessionsPerDiscipline: req.SessionsPerDiscipline,
		PreferredDays:         req.PreferredDays,
		Paces:                 req.Paces,
		Rand:                  rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ctx := r.Context()
	if err := s.db.SaveCycle(ctx, &storage.CycleRecord{
		ID:       uuid.New(),
		Start:    cycle.Start,
		Weeks:    cycle.Weeks,
		Distance: cycle.Distance,
		Goal:     cycle.Goal,
		VolMin:   cycle.VolMin,
		VolMax:   cycle.VolMax,
		Phases:   cycle.Phases,
		Curve:    cycle.Curve,
	}); err != nil {
		s.log.Error("saving cycle", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	// Regenerating the plan supersedes earlier frozen snapshots for its weeks.
	if err := s.db.FrozenTargets(ctx).ResetRange(cycle.Start, cycle.End()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	for _, wp := range cycle.WeekPlans {
		if err := s.db.SaveLiveTargets(ctx, wp.WeekStart, wp.Targets); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if err := s.db.ReplaceWeekSessions(ctx, wp.WeekStart, wp.Sessions); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	s.log.Info("cycle generated",
		"start", cycle.Start.Format("2006-01-02"),
		"weeks", cycle.Weeks,
		"distance", cycle.Distance,
	)
	writeJSON(w, http.StatusCreated, cycle)
}

// weekImport is the payload of PUT /api/v1/weeks/{monday}, used by
// triplan-push to upload locally generated weeks.
type weekImport struct {
	Sessions []models.TrainingSession `json:"sessions"`
	Targets  models.TargetSet         `json:"targets"`
}

func (s *Server) handleReplaceWeek(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeekParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var payload weekImport
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	for i := range payload.Sessions {
		sess := &payload.Sessions[i]
		if !sess.Discipline.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": fmt.Sprintf("unknown discipline %q", sess.Discipline),
			})
			return
		}
		if sess.ID == uuid.Nil {
			sess.ID = uuid.New()
		}
		sess.WeekStart = week
		sess.LockUnit()
	}
	for d := range payload.Targets {
		if !d.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error": fmt.Sprintf("unknown discipline %q in targets", d),
			})
			return
		}
	}

	ctx := r.Context()
	if len(payload.Targets) > 0 {
		if err := s.db.SaveLiveTargets(ctx, week, payload.Targets); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}
	if err := s.db.ReplaceWeekSessions(ctx, week, payload.Sessions); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.log.Info("week replaced",
		"week", week.Format("2006-01-02"),
		"sessions", len(payload.Sessions),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"week_start": week.Format("2006-01-02"),
		"sessions":   len(payload.Sessions),
	})
}

func (s *Server) handleRebalanceWeek(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeekParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ctx := r.Context()

	sessions, err := s.db.WeekSessions(ctx, week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	live, err := s.db.LiveTargets(ctx, week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	store := s.db.FrozenTargets(ctx)
	if live == nil {
		// No live targets: a frozen snapshot from an earlier rebalance may
		// still cover the week.
		if _, ok, err := store.Get(week); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		} else if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no targets for week"})
			return
		}
	}

	rebalancer := plan.NewRebalancer(store, plan.RebalanceConfig{
		MaxPasses:                s.planCfg.MaxRebalancePasses,
		CountPostponedAsRealized: s.planCfg.CountPostponedAsRealized,
	})
	today := time.Now().UTC().Truncate(24 * time.Hour)
	result, err := rebalancer.RebalanceWeek(week, sessions, live, today)
	if err != nil {
		s.log.Error("rebalance failed", "week", week.Format("2006-01-02"), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := s.db.ReplaceWeekSessions(ctx, week, result.Sessions); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.log.Info("week rebalanced",
		"week", week.Format("2006-01-02"),
		"outcome", result.Outcome,
		"passes", result.Passes,
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFreezeWeek(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeekParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	ctx := r.Context()

	live, err := s.db.LiveTargets(ctx, week)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if live == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no live targets for week"})
		return
	}

	frozen, err := s.db.FrozenTargets(ctx).GetOrCreate(week, live)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, frozen)
}

func (s *Server) handleResetFrozen(w http.ResponseWriter, r *http.Request) {
	week, err := parseWeekParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.db.FrozenTargets(r.Context()).Reset(week); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// sessionPatch is the payload of PUT /api/v1/sessions/{id}. Absent fields are
// left unchanged.
type sessionPatch struct {
	Date       *string        `json:"date,omitempty"`
	Type       *string        `json:"type,omitempty"`
	Volume     *float64       `json:"volume,omitempty"`
	RPE        *int           `json:"rpe,omitempty"`
	Status     *models.Status `json:"status,omitempty"`
	Adjustment *float64       `json:"adjustment,omitempty"`
	Notes      *string        `json:"notes,omitempty"`
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	var patch sessionPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	session, err := s.db.GetSession(r.Context(), id)
	if errors.Is(err, storage.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := applySessionPatch(session, &patch, time.Now().UTC()); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	if err := s.db.UpdateSession(r.Context(), session); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// applySessionPatch validates and applies a partial update, recording the
// changed fields in the session's change log.
func applySessionPatch(session *models.TrainingSession, patch *sessionPatch, now time.Time) error {
	prev := *session
	prev.ChangeLog = append([]models.ChangeEntry(nil), session.ChangeLog...)

	if patch.Status != nil {
		next := *patch.Status
		switch next {
		case models.StatusPlanned, models.StatusCompleted, models.StatusPostponed, models.StatusCancelled:
		default:
			return fmt.Errorf("unknown status %q", next)
		}
		if !session.Status.CanTransitionTo(next) {
			return fmt.Errorf("cannot move session from %s to %s", session.Status, next)
		}
		session.Status = next
	}
	if patch.Date != nil {
		day, err := time.Parse("2006-01-02", *patch.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: want YYYY-MM-DD", *patch.Date)
		}
		session.Date = day
		session.WeekStart = models.MondayOf(day)
	}
	if patch.Volume != nil {
		if *patch.Volume < 0 {
			return fmt.Errorf("volume must not be negative")
		}
		session.Volume = *patch.Volume
	}
	if patch.RPE != nil {
		if *patch.RPE < 0 || *patch.RPE > 10 {
			return fmt.Errorf("rpe must be between 0 and 10")
		}
		session.RPE = *patch.RPE
	}
	if patch.Type != nil {
		session.Type = *patch.Type
	}
	if patch.Adjustment != nil {
		session.Adjustment = *patch.Adjustment
	}
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}

	session.LockUnit()
	if patch.Volume != nil || patch.Type != nil {
		session.Detail = plan.Detail(session.Discipline, session.Type, session.Volume, plan.PaceHints{})
	}
	session.AppendChange(&prev, now)
	return nil
}
