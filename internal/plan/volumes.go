package plan

import (
	"math"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan/quantize"
)

// Goal distinguishes athletes training to finish from athletes training to
// race. It selects the volume band for the cycle.
type Goal string

const (
	GoalComplete Goal = "complete"
	GoalPerform  Goal = "perform"
)

// volumeBand is an inclusive [min, max] weekly volume range.
type volumeBand struct {
	min, max float64
}

// cycleVolumeRanges gives the aggregate weekly volume band per distance and
// goal, in normalized load units for triathlon distances and km for running.
var cycleVolumeRanges = map[models.Distance]map[Goal]volumeBand{
	models.DistanceSprint:   {GoalComplete: {37, 74}, GoalPerform: {64, 113}},
	models.DistanceOlympic:  {GoalComplete: {56.5, 103.5}, GoalPerform: {93.5, 160}},
	models.DistanceHalf:     {GoalComplete: {105.8, 171.5}, GoalPerform: {151, 257}},
	models.DistanceIronman:  {GoalComplete: {179.5, 279.5}, GoalPerform: {259, 390}},
	models.Distance5K:       {GoalComplete: {8, 15}, GoalPerform: {15, 25}},
	models.Distance10K:      {GoalComplete: {12, 22}, GoalPerform: {22, 32}},
	models.DistanceHalfMara: {GoalComplete: {16, 30}, GoalPerform: {30, 45}},
	models.DistanceMarathon: {GoalComplete: {45, 70}, GoalPerform: {65, 95}},
}

// disciplineRanges gives each discipline's weekly volume band, in the
// discipline's own unit, per distance and goal. Strength and mobility carry
// the same supporting band across distances.
var disciplineRanges = map[models.Distance]map[Goal]map[models.Discipline]volumeBand{
	models.DistanceSprint: {
		GoalComplete: {models.Swim: {1000, 2000}, models.Bike: {30, 60}, models.Run: {6, 12}},
		GoalPerform:  {models.Swim: {2000, 3000}, models.Bike: {50, 90}, models.Run: {12, 20}},
	},
	models.DistanceOlympic: {
		GoalComplete: {models.Swim: {1500, 2500}, models.Bike: {50, 90}, models.Run: {10, 18}},
		GoalPerform:  {models.Swim: {2500, 4000}, models.Bike: {90, 140}, models.Run: {18, 30}},
	},
	models.DistanceHalf: {
		GoalComplete: {models.Swim: {2000, 3500}, models.Bike: {80, 150}, models.Run: {15, 28}},
		GoalPerform:  {models.Swim: {3000, 5000}, models.Bike: {150, 220}, models.Run: {28, 42}},
	},
	models.DistanceIronman: {
		GoalComplete: {models.Swim: {2500, 4500}, models.Bike: {120, 200}, models.Run: {20, 35}},
		GoalPerform:  {models.Swim: {4000, 6000}, models.Bike: {200, 320}, models.Run: {35, 55}},
	},
	models.Distance5K: {
		GoalComplete: {models.Run: {6, 12}},
		GoalPerform:  {models.Run: {12, 20}},
	},
	models.Distance10K: {
		GoalComplete: {models.Run: {10, 18}},
		GoalPerform:  {models.Run: {18, 30}},
	},
	models.DistanceHalfMara: {
		GoalComplete: {models.Run: {15, 28}},
		GoalPerform:  {models.Run: {28, 42}},
	},
	models.DistanceMarathon: {
		GoalComplete: {models.Run: {20, 35}},
		GoalPerform:  {models.Run: {35, 55}},
	},
}

// supportRanges are added to every distance's discipline set.
var supportRanges = map[models.Discipline]volumeBand{
	models.Strength: {45, 90},
	models.Mobility: {30, 60},
}

// CycleVolumeRange returns the aggregate [min, max] weekly volume band for a
// distance and goal, defaulting to the Olympic band for unknown distances.
func CycleVolumeRange(distance models.Distance, goal Goal) (float64, float64) {
	byGoal, ok := cycleVolumeRanges[distance]
	if !ok {
		byGoal = cycleVolumeRanges[models.DistanceOlympic]
	}
	b, ok := byGoal[goal]
	if !ok {
		b = byGoal[GoalComplete]
	}
	return b.min, b.max
}

// WeekTargets maps one week's aggregate volume onto per-discipline targets.
// The week's position inside [recovery floor, max] becomes a progress factor
// applied to every discipline's own band, so deload weeks still advance along
// the distance scale instead of pinning to the minimum. Each target is
// quantized to its discipline's step.
func WeekTargets(weekVolume, volMin, volMax float64, distance models.Distance, goal Goal) models.TargetSet {
	byGoal, ok := disciplineRanges[distance]
	if !ok {
		byGoal = disciplineRanges[models.DistanceOlympic]
	}
	ranges, ok := byGoal[goal]
	if !ok {
		ranges = byGoal[GoalComplete]
	}

	recoveryFloor := volMin * 0.7
	span := math.Max(volMax-recoveryFloor, 1e-6)
	progress := clamp((weekVolume-recoveryFloor)/span, 0, 1)

	targets := make(models.TargetSet, len(ranges)+len(supportRanges))
	for d, b := range ranges {
		targets[d] = quantize.RoundToStep(b.min+(b.max-b.min)*progress, d)
	}
	for d, b := range supportRanges {
		targets[d] = quantize.RoundToStep(b.min+(b.max-b.min)*progress, d)
	}
	return targets
}

// WeeklyLoad aggregates a session list into a single load number using each
// discipline's load coefficient, with swim meters normalized to km.
func WeeklyLoad(sessions []models.TrainingSession) float64 {
	load := 0.0
	for _, s := range sessions {
		if s.Status == models.StatusCancelled {
			continue
		}
		v := s.Volume
		if s.Discipline == models.Swim {
			v /= 1000
		}
		load += v * s.Discipline.LoadCoefficient()
	}
	return math.Round(load*100) / 100
}
