package plan

import (
	"math"
	"testing"

	"github.com/claude/triplan/internal/models"
)

func buildTestCurve(t *testing.T, weeks int, distance models.Distance) (models.VolumeCurve, []models.Phase) {
	t.Helper()
	phases, err := AllocatePhases(weeks, distance)
	if err != nil {
		t.Fatal(err)
	}
	volMin, volMax := CycleVolumeRange(distance, GoalComplete)
	return BuildVolumeCurve(weeks, volMin, volMax, phases), phases
}

// TestCurveLength verifies one value per week.
func TestCurveLength(t *testing.T) {
	for _, weeks := range []int{1, 4, 8, 12, 16, 24} {
		curve, _ := buildTestCurve(t, weeks, models.DistanceOlympic)
		if len(curve) != weeks {
			t.Errorf("weeks=%d: curve length = %d", weeks, len(curve))
		}
	}
}

// TestCurveGrowthAndDecayLimits verifies the smoothing pass: outside deload
// and taper weeks, week-over-week growth stays within +10% and decay within
// -15%.
func TestCurveGrowthAndDecayLimits(t *testing.T) {
	curve, phases := buildTestCurve(t, 16, models.DistanceHalf)
	taperStart := phases[len(phases)-1].StartWeek

	for i := 1; i < len(curve); i++ {
		week := i + 1
		if IsDeloadWeek(week) || week >= taperStart {
			continue
		}
		prevDeload := IsDeloadWeek(week - 1)
		ratio := curve[i] / curve[i-1]
		if ratio > 1.10+1e-9 {
			t.Errorf("week %d: growth ratio %.4f exceeds 1.10", week, ratio)
		}
		// The week after a deload may legitimately sit at the growth cap;
		// decay below -15% is never allowed outside deloads.
		if !prevDeload && ratio < 0.85-1e-9 {
			t.Errorf("week %d: decay ratio %.4f below 0.85", week, ratio)
		}
	}
}

// TestCurveDeloadWeeks verifies every 4th week drops to the deload fraction
// of the previous computed week, not of the raw target.
func TestCurveDeloadWeeks(t *testing.T) {
	curve, phases := buildTestCurve(t, 16, models.DistanceHalf)
	taperStart := phases[len(phases)-1].StartWeek

	for i := 1; i < len(curve); i++ {
		week := i + 1
		if !IsDeloadWeek(week) || week >= taperStart {
			continue
		}
		want := curve[i-1] * deloadFactor
		if math.Abs(curve[i]-want) > 1e-9 {
			t.Errorf("week %d: deload value %.3f, want %.3f (%.0f%% of previous)",
				week, curve[i], want, deloadFactor*100)
		}
	}
}

// TestCurveTaperMonotonic verifies the taper tail decreases monotonically
// and never drops below the floor fraction of the pre-taper baseline.
func TestCurveTaperMonotonic(t *testing.T) {
	curve, phases := buildTestCurve(t, 16, models.DistanceIronman)
	taper := phases[len(phases)-1]
	if taper.Name != "Taper" {
		t.Fatalf("final phase = %s, want Taper", taper.Name)
	}
	if taper.Weeks != 3 {
		t.Fatalf("taper weeks = %d, want 3", taper.Weeks)
	}

	n := len(curve)
	baseline := curve[n-taper.Weeks-1]
	if !(curve[n-3] >= curve[n-2] && curve[n-2] >= curve[n-1]) {
		t.Errorf("taper not monotonically non-increasing: %.2f, %.2f, %.2f",
			curve[n-3], curve[n-2], curve[n-1])
	}
	for i := n - taper.Weeks; i < n; i++ {
		if curve[i] < baseline*taperFloor-1e-9 {
			t.Errorf("taper week %d: %.2f below floor %.2f", i+1, curve[i], baseline*taperFloor)
		}
		if curve[i] > baseline+1e-9 {
			t.Errorf("taper week %d: %.2f above pre-taper baseline %.2f", i+1, curve[i], baseline)
		}
	}
}

// TestCurveDegenerateInputs verifies garbage bounds are coerced instead of
// propagating NaN through the cycle.
func TestCurveDegenerateInputs(t *testing.T) {
	phases, err := AllocatePhases(8, models.DistanceOlympic)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name         string
		min, max     float64
	}{
		{"nan min", math.NaN(), 100},
		{"inf max", 50, math.Inf(1)},
		{"inverted", 100, 50},
		{"negative min", -10, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curve := BuildVolumeCurve(8, tt.min, tt.max, phases)
			for i, v := range curve {
				if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
					t.Errorf("week %d: value %v", i+1, v)
				}
			}
		})
	}

	if got := BuildVolumeCurve(0, 10, 20, phases); got != nil {
		t.Errorf("zero weeks: curve = %v, want nil", got)
	}
}

// TestWeekTargetsQuantized verifies per-discipline targets are quantized to
// each discipline's step and scale with the week's position in the band.
func TestWeekTargetsQuantized(t *testing.T) {
	volMin, volMax := CycleVolumeRange(models.DistanceHalf, GoalComplete)

	low := WeekTargets(volMin*0.7, volMin, volMax, models.DistanceHalf, GoalComplete)
	high := WeekTargets(volMax, volMin, volMax, models.DistanceHalf, GoalComplete)

	for _, d := range []models.Discipline{models.Swim, models.Bike, models.Run} {
		if low[d] > high[d] {
			t.Errorf("%s: low-week target %v exceeds high-week target %v", d, low[d], high[d])
		}
	}
	if rem := math.Mod(high[models.Swim], 50); rem != 0 {
		t.Errorf("swim target %v not a multiple of 50", high[models.Swim])
	}
	if v := high[models.Run] * 10; math.Abs(v-math.Round(v)) > 1e-6 {
		t.Errorf("run target %v not a multiple of 0.1", high[models.Run])
	}
	if v := high[models.Strength]; v != math.Trunc(v) {
		t.Errorf("strength target %v not a whole minute", v)
	}

	// A recovery-floor week still lands on each discipline's minimum, not zero.
	if low[models.Run] <= 0 {
		t.Errorf("recovery week run target = %v, want > 0", low[models.Run])
	}
}
