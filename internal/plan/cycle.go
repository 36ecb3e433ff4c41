package plan

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/claude/triplan/internal/models"
)

// defaultSessionCounts is the weekly session count per discipline when the
// caller does not specify one.
var defaultSessionCounts = map[models.Discipline]int{
	models.Run:      3,
	models.Bike:     3,
	models.Swim:     2,
	models.Strength: 2,
	models.Mobility: 1,
}

// CycleConfig describes a training cycle to generate.
type CycleConfig struct {
	StartDate             time.Time                   `json:"start_date"`
	Weeks                 int                         `json:"weeks"`
	Distance              models.Distance             `json:"distance"`
	Goal                  Goal                        `json:"goal"`
	SessionsPerDiscipline map[models.Discipline]int   `json:"sessions_per_discipline,omitempty"`
	PreferredDays         map[models.Discipline][]int `json:"preferred_days,omitempty"`
	Paces                 PaceHints                   `json:"paces"`
	// Rand drives session type variation; nil keeps the canonical rotation.
	Rand *rand.Rand `json:"-"`
}

// Cycle is a fully generated periodized training cycle.
type Cycle struct {
	Start     time.Time          `json:"start"`
	Weeks     int                `json:"weeks"`
	Distance  models.Distance    `json:"distance"`
	Goal      Goal               `json:"goal"`
	VolMin    float64            `json:"vol_min"`
	VolMax    float64            `json:"vol_max"`
	Phases    []models.Phase     `json:"phases"`
	Curve     models.VolumeCurve `json:"curve"`
	WeekPlans []models.WeekPlan  `json:"week_plans"`
}

// GenerateCycle partitions the cycle into phases, builds the weekly volume
// curve, derives per-discipline targets for every week, and expands each
// week into dated sessions. The start date is normalized to its Monday.
func GenerateCycle(cfg CycleConfig) (*Cycle, error) {
	if cfg.Weeks < 1 {
		return nil, fmt.Errorf("cycle length %d: need at least one week", cfg.Weeks)
	}
	if cfg.Goal == "" {
		cfg.Goal = GoalComplete
	}
	start := models.MondayOf(cfg.StartDate)

	phases, err := AllocatePhases(cfg.Weeks, cfg.Distance)
	if err != nil {
		return nil, fmt.Errorf("allocating phases: %w", err)
	}

	volMin, volMax := CycleVolumeRange(cfg.Distance, cfg.Goal)
	curve := BuildVolumeCurve(cfg.Weeks, volMin, volMax, phases)

	weekPlans := make([]models.WeekPlan, 0, cfg.Weeks)
	for w := 0; w < cfg.Weeks; w++ {
		weekStart := start.AddDate(0, 0, 7*w)
		phase := PhaseFor(phases, w+1)
		targets := WeekTargets(curve[w], volMin, volMax, cfg.Distance, cfg.Goal)

		var sessions []models.TrainingSession
		for _, d := range models.Disciplines {
			target, ok := targets[d]
			if !ok {
				continue
			}
			count, ok := cfg.SessionsPerDiscipline[d]
			if !ok {
				count = defaultSessionCounts[d]
			}
			sessions = append(sessions, DistributeWeek(DistributeRequest{
				WeekStart:     weekStart,
				Discipline:    d,
				Target:        target,
				Sessions:      count,
				PreferredDays: cfg.PreferredDays[d],
				Paces:         cfg.Paces,
				Rand:          cfg.Rand,
			})...)
		}

		weekPlans = append(weekPlans, models.WeekPlan{
			WeekStart: weekStart,
			WeekIndex: w + 1,
			Phase:     phase.Name,
			Deload:    IsDeloadWeek(w+1) && phase.Name != "Taper",
			Targets:   targets,
			Sessions:  sessions,
		})
	}

	return &Cycle{
		Start:     start,
		Weeks:     cfg.Weeks,
		Distance:  cfg.Distance,
		Goal:      cfg.Goal,
		VolMin:    volMin,
		VolMax:    volMax,
		Phases:    phases,
		Curve:     curve,
		WeekPlans: weekPlans,
	}, nil
}

// End returns the exclusive end date of the cycle (the Monday after its
// final week).
func (c *Cycle) End() time.Time {
	return c.Start.AddDate(0, 0, 7*c.Weeks)
}
