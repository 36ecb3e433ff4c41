package push

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStateDBRoundTrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer state.Close()

	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	pushed, err := state.IsPushed(week, "abc123")
	if err != nil {
		t.Fatalf("IsPushed() error = %v", err)
	}
	if pushed {
		t.Error("IsPushed() before MarkPushed = true, want false")
	}

	if err := state.MarkPushed(week, "abc123"); err != nil {
		t.Fatalf("MarkPushed() error = %v", err)
	}

	pushed, err = state.IsPushed(week, "abc123")
	if err != nil {
		t.Fatalf("IsPushed() error = %v", err)
	}
	if !pushed {
		t.Error("IsPushed() after MarkPushed = false, want true")
	}

	// A changed hash for the same week means the content changed.
	pushed, err = state.IsPushed(week, "def456")
	if err != nil {
		t.Fatalf("IsPushed() error = %v", err)
	}
	if pushed {
		t.Error("IsPushed() with different hash = true, want false")
	}
}

func TestHashPayloadDeterministic(t *testing.T) {
	payload := WeekPayload{
		Targets: models.TargetSet{models.Run: 30},
	}
	h1, err := HashPayload(payload)
	if err != nil {
		t.Fatalf("HashPayload() error = %v", err)
	}
	h2, err := HashPayload(payload)
	if err != nil {
		t.Fatalf("HashPayload() error = %v", err)
	}
	if h1 != h2 {
		t.Errorf("HashPayload() not deterministic: %s vs %s", h1, h2)
	}

	payload.Targets[models.Run] = 35
	h3, err := HashPayload(payload)
	if err != nil {
		t.Fatalf("HashPayload() error = %v", err)
	}
	if h3 == h1 {
		t.Error("HashPayload() unchanged after payload edit")
	}
}

func TestPushWeekSendsAPIKey(t *testing.T) {
	var gotMethod, gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret")
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if err := client.PushWeek(week, WeekPayload{}); err != nil {
		t.Fatalf("PushWeek() error = %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method = %s, want PUT", gotMethod)
	}
	if want := "/api/v1/weeks/2026-03-02"; gotPath != want {
		t.Errorf("path = %s, want %s", gotPath, want)
	}
	if gotKey != "secret" {
		t.Errorf("X-API-Key = %q, want %q", gotKey, "secret")
	}
}

func TestPushWeekStopsOnAuthFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong")
	week := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if err := client.PushWeek(week, WeekPayload{}); err == nil {
		t.Fatal("PushWeek() error = nil, want auth failure")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retry on auth failure)", attempts)
	}
}

func testCycle(t *testing.T) *plan.Cycle {
	t.Helper()
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	session := func(week time.Time, vol float64) models.TrainingSession {
		return models.TrainingSession{
			ID:         uuid.New(),
			Date:       week,
			Discipline: models.Run,
			Type:       "Long Run",
			Volume:     vol,
			Unit:       "km",
			Status:     models.StatusPlanned,
			WeekStart:  week,
		}
	}
	var weeks []models.WeekPlan
	for i := range 2 {
		ws := monday.AddDate(0, 0, 7*i)
		weeks = append(weeks, models.WeekPlan{
			WeekStart: ws,
			WeekIndex: i,
			Phase:     "Base",
			Targets:   models.TargetSet{models.Run: 20 + float64(i)},
			Sessions:  []models.TrainingSession{session(ws, 10), session(ws, 10)},
		})
	}
	return &plan.Cycle{Start: monday, Weeks: 2, WeekPlans: weeks}
}

func TestPusherSkipsAlreadyPushedWeeks(t *testing.T) {
	var imports int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			imports++
			var payload WeekPayload
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decoding payload: %v", err)
			}
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer state.Close()

	pusher := New(NewClient(srv.URL, "key"), state, false, testLogger())
	cycle := testCycle(t)

	stats, err := pusher.Run(cycle)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.WeeksPushed != 2 {
		t.Errorf("WeeksPushed = %d, want 2", stats.WeeksPushed)
	}
	if stats.SessionsSent != 4 {
		t.Errorf("SessionsSent = %d, want 4", stats.SessionsSent)
	}
	if imports != 2 {
		t.Errorf("server received %d imports, want 2", imports)
	}

	// Second run with identical content sends nothing.
	pusher = New(NewClient(srv.URL, "key"), state, false, testLogger())
	stats, err = pusher.Run(cycle)
	if err != nil {
		t.Fatalf("Run() second pass error = %v", err)
	}
	if stats.WeeksSkipped != 2 {
		t.Errorf("WeeksSkipped = %d, want 2", stats.WeeksSkipped)
	}
	if imports != 2 {
		t.Errorf("server received %d imports after second run, want 2", imports)
	}

	// Editing a week's content re-pushes just that week.
	cycle.WeekPlans[1].Targets[models.Run] = 99
	pusher = New(NewClient(srv.URL, "key"), state, false, testLogger())
	stats, err = pusher.Run(cycle)
	if err != nil {
		t.Fatalf("Run() third pass error = %v", err)
	}
	if stats.WeeksPushed != 1 || stats.WeeksSkipped != 1 {
		t.Errorf("third pass pushed %d skipped %d, want 1 and 1", stats.WeeksPushed, stats.WeeksSkipped)
	}
	if imports != 3 {
		t.Errorf("server received %d imports after third run, want 3", imports)
	}
}

func TestPusherDryRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("dry-run sent a request to the server")
	}))
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB() error = %v", err)
	}
	defer state.Close()

	pusher := New(NewClient(srv.URL, "key"), state, true, testLogger())
	stats, err := pusher.Run(testCycle(t))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if stats.WeeksPushed != 2 {
		t.Errorf("WeeksPushed = %d, want 2", stats.WeeksPushed)
	}

	// Dry-run must not record state.
	pushed, err := state.IsPushed(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), "")
	if err != nil {
		t.Fatalf("IsPushed() error = %v", err)
	}
	if pushed {
		t.Error("dry-run recorded state")
	}
}
