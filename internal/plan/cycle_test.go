package plan

import (
	"math"
	"testing"
	"time"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan/quantize"
)

func TestGenerateCycle(t *testing.T) {
	cycle, err := GenerateCycle(CycleConfig{
		StartDate: time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), // a Wednesday
		Weeks:     12,
		Distance:  models.DistanceOlympic,
	})
	if err != nil {
		t.Fatal(err)
	}

	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !cycle.Start.Equal(wantStart) {
		t.Errorf("start = %v, want normalized Monday %v", cycle.Start, wantStart)
	}
	if cycle.Goal != GoalComplete {
		t.Errorf("goal = %s, want default complete", cycle.Goal)
	}
	if len(cycle.WeekPlans) != 12 || len(cycle.Curve) != 12 {
		t.Fatalf("week plans = %d, curve = %d, want 12 each", len(cycle.WeekPlans), len(cycle.Curve))
	}
	if !cycle.End().Equal(wantStart.AddDate(0, 0, 84)) {
		t.Errorf("end = %v, want %v", cycle.End(), wantStart.AddDate(0, 0, 84))
	}

	for i, wp := range cycle.WeekPlans {
		if wp.WeekIndex != i+1 {
			t.Errorf("week %d: index = %d", i, wp.WeekIndex)
		}
		if !wp.WeekStart.Equal(wantStart.AddDate(0, 0, 7*i)) {
			t.Errorf("week %d: start = %v", i, wp.WeekStart)
		}

		// Per-discipline session volumes must sum exactly to the target.
		sums := make(map[models.Discipline]float64)
		for _, s := range wp.Sessions {
			if s.Date.Before(wp.WeekStart) || !s.Date.Before(wp.WeekStart.AddDate(0, 0, 7)) {
				t.Errorf("week %d: session dated %v outside the week", i, s.Date)
			}
			sums[s.Discipline] += s.Volume
		}
		for d, target := range wp.Targets {
			got := math.Round(sums[d]*1e6) / 1e6
			want := quantize.RoundToStep(target, d)
			if got != want {
				t.Errorf("week %d %s: sessions sum %v, target %v", i, d, got, want)
			}
		}
	}
}

func TestGenerateCycleSessionCounts(t *testing.T) {
	cycle, err := GenerateCycle(CycleConfig{
		StartDate:             time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Weeks:                 4,
		Distance:              models.DistanceSprint,
		SessionsPerDiscipline: map[models.Discipline]int{models.Run: 2, models.Swim: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	counts := make(map[models.Discipline]int)
	for _, s := range cycle.WeekPlans[0].Sessions {
		counts[s.Discipline]++
	}
	want := map[models.Discipline]int{
		models.Run: 2, models.Swim: 1,
		models.Bike: 3, models.Strength: 2, models.Mobility: 1,
	}
	for d, n := range want {
		if counts[d] != n {
			t.Errorf("%s sessions = %d, want %d", d, counts[d], n)
		}
	}
}

func TestGenerateCycleRunningDistance(t *testing.T) {
	cycle, err := GenerateCycle(CycleConfig{
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Weeks:     10,
		Distance:  models.DistanceMarathon,
	})
	if err != nil {
		t.Fatal(err)
	}

	// A pure running plan still carries the supporting disciplines but never
	// schedules swim or bike work.
	for _, wp := range cycle.WeekPlans {
		for _, s := range wp.Sessions {
			if s.Discipline == models.Swim || s.Discipline == models.Bike {
				t.Fatalf("week %d: unexpected %s session in a marathon plan", wp.WeekIndex, s.Discipline)
			}
		}
		for _, d := range []models.Discipline{models.Run, models.Strength, models.Mobility} {
			if _, ok := wp.Targets[d]; !ok {
				t.Errorf("week %d: missing %s target", wp.WeekIndex, d)
			}
		}
	}
}

func TestGenerateCycleDeloadFlags(t *testing.T) {
	cycle, err := GenerateCycle(CycleConfig{
		StartDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Weeks:     16,
		Distance:  models.DistanceIronman,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, wp := range cycle.WeekPlans {
		wantDeload := wp.WeekIndex%4 == 0 && wp.Phase != "Taper"
		if wp.Deload != wantDeload {
			t.Errorf("week %d (%s): deload = %v, want %v", wp.WeekIndex, wp.Phase, wp.Deload, wantDeload)
		}
	}
}

func TestGenerateCycleRejectsZeroWeeks(t *testing.T) {
	if _, err := GenerateCycle(CycleConfig{Weeks: 0, Distance: models.DistanceOlympic}); err == nil {
		t.Fatal("expected error for zero-week cycle")
	}
}
