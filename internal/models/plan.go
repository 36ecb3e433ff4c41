package models

import "time"

// Distance identifies the target race distance of a training cycle.
type Distance string

const (
	DistanceSprint   Distance = "sprint"
	DistanceOlympic  Distance = "olympic"
	DistanceHalf     Distance = "70.3"
	DistanceIronman  Distance = "ironman"
	Distance5K       Distance = "5k"
	Distance10K      Distance = "10k"
	DistanceHalfMara Distance = "21k"
	DistanceMarathon Distance = "42k"
)

// Phase is a contiguous run of weeks with a shared training focus. The
// ordered phase list of a cycle partitions weeks [1, N] exhaustively.
type Phase struct {
	Name      string `json:"name"`
	Weeks     int    `json:"weeks"`
	StartWeek int    `json:"start_week"`
	EndWeek   int    `json:"end_week"`
}

// Contains reports whether the 1-based week index falls inside the phase.
func (p Phase) Contains(week int) bool {
	return week >= p.StartWeek && week <= p.EndWeek
}

// PhaseDescriptions maps phase names to their display blurbs.
var PhaseDescriptions = map[string]string{
	"Base":   "Aerobic base and technique construction.",
	"Base 1": "General adaptation and routine building.",
	"Base 2": "Aerobic base consolidation and specific strength.",
	"Base 3": "Advanced base with sustainable volume focus.",
	"Build":  "Rising intensity and race-specific sessions.",
	"Peak":   "Sharpening with controlled intensity.",
	"Taper":  "Volume reduction with intensity touches to arrive fresh.",
}

// TargetSet maps disciplines to a weekly volume goal in each discipline's
// canonical unit.
type TargetSet map[Discipline]float64

// Clone returns an independent copy of the set.
func (t TargetSet) Clone() TargetSet {
	out := make(TargetSet, len(t))
	for d, v := range t {
		out[d] = v
	}
	return out
}

// WeeklyTarget is a per-week snapshot of discipline volume goals. A frozen
// target is captured once from the live value and held immutable until an
// explicit reset.
type WeeklyTarget struct {
	WeekStart time.Time `json:"week_start"`
	Targets   TargetSet `json:"targets"`
	FrozenAt  time.Time `json:"frozen_at"`
}

// VolumeCurve is the ordered per-week target volume sequence of a cycle,
// one value per week.
type VolumeCurve []float64

// WeekPlan bundles one generated week for display and export.
type WeekPlan struct {
	WeekStart time.Time         `json:"week_start"`
	WeekIndex int               `json:"week_index"`
	Phase     string            `json:"phase"`
	Deload    bool              `json:"deload"`
	Targets   TargetSet         `json:"targets"`
	Sessions  []TrainingSession `json:"sessions"`
}

// Drift is the signed residual between a discipline's allocated and frozen
// volume after a rebalance that failed to converge.
type Drift struct {
	Discipline Discipline `json:"discipline"`
	Residual   float64    `json:"residual"`
}
