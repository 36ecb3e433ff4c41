package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/triplan/internal/models"
)

// TestHandleMe verifies the /api/v1/me endpoint returns the identity stored
// in the request context.
func TestHandleMe(t *testing.T) {
	s := &Server{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	ctx := context.WithValue(req.Context(), userInfoKey, UserInfo{Login: "alice@example.com", DisplayName: "Alice"})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	s.handleMe(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var info UserInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if info.Login != "alice@example.com" {
		t.Errorf("login = %q, want %q", info.Login, "alice@example.com")
	}
}

func requestWithWeekParam(monday string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weeks/"+monday, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("monday", monday)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// TestParseWeekParam verifies date parsing and Monday normalization of the
// {monday} URL parameter.
func TestParseWeekParam(t *testing.T) {
	week, err := parseWeekParam(requestWithWeekParam("2026-03-04"))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !week.Equal(want) {
		t.Errorf("week = %v, want Monday %v", week, want)
	}

	if _, err := parseWeekParam(requestWithWeekParam("next-week")); err == nil {
		t.Error("expected error for malformed date")
	}
}

// TestParseWeekRange verifies the start/end query parameters produce a
// half-open Monday-aligned window.
func TestParseWeekRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weeks?start=2026-03-03&end=2026-03-18", nil)
	from, to, err := parseWeekRange(req)
	if err != nil {
		t.Fatal(err)
	}
	wantFrom := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2026, 3, 23, 0, 0, 0, 0, time.UTC)
	if !from.Equal(wantFrom) {
		t.Errorf("from = %v, want %v", from, wantFrom)
	}
	if !to.Equal(wantTo) {
		t.Errorf("to = %v, want %v (end week included)", to, wantTo)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/weeks?start=soon", nil)
	if _, _, err := parseWeekRange(req); err == nil {
		t.Error("expected error for malformed start date")
	}
}

func plannedSession() *models.TrainingSession {
	return &models.TrainingSession{
		ID:         uuid.New(),
		Date:       time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		Discipline: models.Run,
		Type:       "Tempo Run",
		Volume:     5,
		Unit:       "km",
		Status:     models.StatusPlanned,
		WeekStart:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestApplySessionPatch(t *testing.T) {
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

	t.Run("volume and status", func(t *testing.T) {
		session := plannedSession()
		volume := 6.5
		status := models.StatusCompleted
		if err := applySessionPatch(session, &sessionPatch{Volume: &volume, Status: &status}, now); err != nil {
			t.Fatal(err)
		}
		if session.Volume != 6.5 || session.Status != models.StatusCompleted {
			t.Errorf("session = %+v after patch", session)
		}
		if session.Detail == "" {
			t.Error("detail not regenerated after volume change")
		}
		if len(session.ChangeLog) != 1 {
			t.Fatalf("change entries = %d, want 1", len(session.ChangeLog))
		}
		if !session.LastEditedAt.Equal(now) {
			t.Errorf("last edited = %v, want %v", session.LastEditedAt, now)
		}
	})

	t.Run("date moves week start", func(t *testing.T) {
		session := plannedSession()
		date := "2026-03-10"
		if err := applySessionPatch(session, &sessionPatch{Date: &date}, now); err != nil {
			t.Fatal(err)
		}
		wantWeek := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
		if !session.WeekStart.Equal(wantWeek) {
			t.Errorf("week start = %v, want %v", session.WeekStart, wantWeek)
		}
	})

	t.Run("illegal transition", func(t *testing.T) {
		session := plannedSession()
		session.Status = models.StatusCompleted
		status := models.StatusPlanned
		if err := applySessionPatch(session, &sessionPatch{Status: &status}, now); err == nil {
			t.Error("expected error reopening a completed session")
		}
	})

	t.Run("postponed returns to planned", func(t *testing.T) {
		session := plannedSession()
		session.Status = models.StatusPostponed
		status := models.StatusPlanned
		if err := applySessionPatch(session, &sessionPatch{Status: &status}, now); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		badVolume := -3.0
		badRPE := 11
		badStatus := models.Status("Done")
		cases := []struct {
			name  string
			patch sessionPatch
		}{
			{"negative volume", sessionPatch{Volume: &badVolume}},
			{"rpe out of range", sessionPatch{RPE: &badRPE}},
			{"unknown status", sessionPatch{Status: &badStatus}},
		}
		for _, tc := range cases {
			if err := applySessionPatch(plannedSession(), &tc.patch, now); err == nil {
				t.Errorf("%s: expected error", tc.name)
			}
		}
	})

	t.Run("no-op patch leaves change log empty", func(t *testing.T) {
		session := plannedSession()
		if err := applySessionPatch(session, &sessionPatch{}, now); err != nil {
			t.Fatal(err)
		}
		if len(session.ChangeLog) != 0 {
			t.Errorf("change entries = %d, want 0", len(session.ChangeLog))
		}
	})
}
