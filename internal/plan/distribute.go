package plan

import (
	"math"
	"math/rand"
	"time"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan/quantize"
	"github.com/google/uuid"
)

// weightTemplates maps each discipline to the volume share of its session
// type rotation, position-matched to Discipline.SessionTypes().
var weightTemplates = map[models.Discipline][]float64{
	models.Run:      {0.25, 0.20, 0.55},
	models.Bike:     {0.40, 0.35, 0.25},
	models.Swim:     {0.60, 0.40},
	models.Strength: {0.60, 0.40},
	models.Mobility: {0.60, 0.40},
}

// defaultDays are the fallback weekday indices per discipline (0 = Monday).
var defaultDays = map[models.Discipline][]int{
	models.Run:      {2, 4, 6},
	models.Bike:     {1, 3, 5},
	models.Swim:     {0, 2},
	models.Strength: {1, 4},
	models.Mobility: {0, 6},
}

// keySessionTypes name the discipline's anchor session, which is placed on
// the first (most preferred) training day of the week.
var keySessionTypes = map[models.Discipline]string{
	models.Run:  "Long Run",
	models.Bike: "Endurance",
	models.Swim: "Continuous",
}

// DistributeRequest describes one discipline's share of a week to expand
// into dated sessions.
type DistributeRequest struct {
	WeekStart     time.Time
	Discipline    models.Discipline
	Target        float64
	Sessions      int
	PreferredDays []int      // weekday indices 0=Mon; padded when under-specified
	Paces         PaceHints
	Rand          *rand.Rand // optional; drives session type variation
}

// DistributeWeek expands a weekly discipline target into n dated, typed
// sessions. The session volumes are step-quantized and drift-corrected so
// they sum to RoundToStep(target) exactly. A zero target or session count
// yields no sessions.
func DistributeWeek(req DistributeRequest) []models.TrainingSession {
	d := req.Discipline
	n := req.Sessions
	target := req.Target
	if math.IsNaN(target) || math.IsInf(target, 0) || target < 0 {
		target = 0
	}
	if n <= 0 || target <= 0 {
		return nil
	}
	if n > 7 {
		n = 7
	}

	total := quantize.RoundToStep(target, d)
	step := quantize.Step(d)

	var volumes []float64
	if n == 1 {
		// Single session takes the whole quantized target; weighted
		// rounding is pointless.
		volumes = []float64{total}
	} else {
		volumes = splitByTemplate(total, n, d)
		correctDrift(volumes, total, step)
	}

	types := expandPattern(d.SessionTypes(), n)
	days := dayOrder(req.PreferredDays, defaultDays[d], n)

	// The key session anchors the first preferred day: swap the key-typed
	// session (the largest, if several) into slot zero.
	if key := keySessionTypes[d]; key != "" {
		keyIdx := -1
		for i, typ := range types {
			if typ == key && (keyIdx < 0 || volumes[i] > volumes[keyIdx]) {
				keyIdx = i
			}
		}
		if keyIdx > 0 {
			types[0], types[keyIdx] = types[keyIdx], types[0]
			volumes[0], volumes[keyIdx] = volumes[keyIdx], volumes[0]
		}
	}

	now := time.Now().UTC()
	sessions := make([]models.TrainingSession, 0, n)
	for i := 0; i < n; i++ {
		typ := types[i]
		if typ != keySessionTypes[d] {
			typ = VariedType(typ, req.Rand)
		}
		s := models.TrainingSession{
			ID:           uuid.New(),
			Date:         req.WeekStart.AddDate(0, 0, days[i]),
			Discipline:   d,
			Type:         typ,
			Volume:       volumes[i],
			Unit:         d.Unit(),
			Status:       models.StatusPlanned,
			Detail:       Detail(d, typ, volumes[i], req.Paces),
			LastEditedAt: now,
			WeekStart:    req.WeekStart,
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// splitByTemplate multiplies the normalized weight template by the target
// and rounds each share to the discipline step.
func splitByTemplate(total float64, n int, d models.Discipline) []float64 {
	template := weightTemplates[d]
	weights := expandPattern(template, n)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	volumes := make([]float64, n)
	for i, w := range weights {
		share := 1.0 / float64(n)
		if sum > 0 {
			share = w / sum
		}
		volumes[i] = quantize.RoundToStep(total*share, d)
	}
	return volumes
}

// correctDrift nudges the rounded volumes until they sum to total exactly:
// positive residual is added one step at a time round-robin, negative
// residual is removed from the largest sessions down to a floor of zero.
func correctDrift(volumes []float64, total, step float64) {
	residual := total
	for _, v := range volumes {
		residual -= v
	}
	quanta := int(math.Round(residual / step))

	for i := 0; quanta > 0; i++ {
		idx := i % len(volumes)
		volumes[idx] = cleanStep(volumes[idx]+step, step)
		quanta--
	}
	for quanta < 0 {
		idx := 0
		for i, v := range volumes {
			if v > volumes[idx] {
				idx = i
			}
		}
		if volumes[idx] < step {
			break // nothing left to take
		}
		volumes[idx] = cleanStep(volumes[idx]-step, step)
		quanta++
	}
}

// expandPattern repeats a pattern until it covers n slots.
func expandPattern[T any](pattern []T, n int) []T {
	if n <= 0 {
		return nil
	}
	if len(pattern) == 0 {
		return make([]T, n)
	}
	out := make([]T, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

// dayOrder returns n weekday indices: the preferences first, then the
// remaining weekdays in calendar order.
func dayOrder(prefs, fallback []int, n int) []int {
	if len(prefs) == 0 {
		prefs = fallback
	}
	seen := make(map[int]bool, 7)
	order := make([]int, 0, 7)
	for _, p := range prefs {
		if p >= 0 && p < 7 && !seen[p] {
			order = append(order, p)
			seen[p] = true
		}
	}
	for day := 0; day < 7; day++ {
		if !seen[day] {
			order = append(order, day)
		}
	}
	return order[:n]
}

func cleanStep(v, step float64) float64 {
	return math.Round(v/step*1e6) / 1e6 * step
}
