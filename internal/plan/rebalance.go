package plan

import (
	"fmt"
	"math"
	"time"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan/quantize"
	"github.com/google/uuid"
)

// Outcome classifies the result of a weekly rebalance.
type Outcome string

const (
	// OutcomeConverged means every discipline matched its frozen target
	// within one quantization step.
	OutcomeConverged Outcome = "converged"
	// OutcomePartial means the pass budget ran out with residual drift;
	// the result carries a drift report instead of failing.
	OutcomePartial Outcome = "partial"
	// OutcomeNoOp means the week needed no changes at all.
	OutcomeNoOp Outcome = "no-op"
)

// RebalanceConfig tunes a Rebalancer.
type RebalanceConfig struct {
	// MaxPasses bounds the convergence loop. Zero means the default of 10.
	MaxPasses int
	// CountPostponedAsRealized treats past postponed sessions as executed
	// work (locked, volume counted) instead of leaving them in the
	// redistributable pool.
	CountPostponedAsRealized bool
	// Paces feeds regenerated detail text.
	Paces PaceHints
}

// RebalanceResult is the outcome of a full multi-pass rebalance.
type RebalanceResult struct {
	Outcome  Outcome                  `json:"outcome"`
	Passes   int                      `json:"passes"`
	Target   models.WeeklyTarget      `json:"target"`
	Sessions []models.TrainingSession `json:"sessions"`
	Drift    []models.Drift           `json:"drift,omitempty"`
}

// Rebalancer re-derives the remaining sessions of a partially-executed week
// so that completed plus newly planned work sums exactly to the week's
// frozen target, without touching sessions already marked done.
type Rebalancer struct {
	store FrozenTargetStore
	cfg   RebalanceConfig
}

// NewRebalancer creates a Rebalancer over the given frozen-target store.
func NewRebalancer(store FrozenTargetStore, cfg RebalanceConfig) *Rebalancer {
	if cfg.MaxPasses <= 0 {
		cfg.MaxPasses = 10
	}
	return &Rebalancer{store: store, cfg: cfg}
}

// RebalanceWeek runs bounded convergence passes over the week's sessions.
// The frozen target is resolved first (captured from live on first need);
// a concurrent change to the live target cannot alter it. Realized sessions
// are returned byte-for-byte unchanged. The convergence loop stops early
// once every discipline is within one step of its frozen target; when the
// pass budget runs out, the unresolved residuals come back as a drift
// report rather than an error.
func (r *Rebalancer) RebalanceWeek(weekStart time.Time, sessions []models.TrainingSession, live models.TargetSet, today time.Time) (RebalanceResult, error) {
	frozen, err := r.store.GetOrCreate(weekStart, live)
	if err != nil {
		return RebalanceResult{}, fmt.Errorf("resolving frozen target: %w", err)
	}

	// Snapshot realized sessions so accidental mutation can be overridden.
	realizedSnapshot := make(map[uuid.UUID]models.TrainingSession)
	working := make([]models.TrainingSession, len(sessions))
	for i, s := range sessions {
		working[i] = cloneSession(s)
		if r.isRealized(&s, today) {
			realizedSnapshot[s.ID] = cloneSession(s)
		}
	}

	changed := false
	passes := 0
	for passes < r.cfg.MaxPasses {
		passes++
		passChanged := r.pass(weekStart, &working, frozen.Targets, today)
		changed = changed || passChanged

		if len(r.driftReport(working, frozen.Targets)) == 0 {
			break
		}
	}

	// Realized sessions ride along untouched no matter what the passes did.
	for i := range working {
		if orig, ok := realizedSnapshot[working[i].ID]; ok {
			working[i] = orig
		}
	}

	drift := r.driftReport(working, frozen.Targets)
	result := RebalanceResult{
		Passes:   passes,
		Target:   frozen,
		Sessions: working,
		Drift:    drift,
	}
	switch {
	case len(drift) > 0:
		result.Outcome = OutcomePartial
	case changed:
		result.Outcome = OutcomeConverged
	default:
		result.Outcome = OutcomeNoOp
	}
	return result, nil
}

// pass runs one allocation pass over every discipline in the frozen target.
// It reports whether anything changed.
func (r *Rebalancer) pass(weekStart time.Time, working *[]models.TrainingSession, targets models.TargetSet, today time.Time) bool {
	now := time.Now().UTC()
	changed := false

	for _, d := range models.Disciplines {
		target, ok := targets[d]
		if !ok {
			continue
		}
		if math.IsNaN(target) || math.IsInf(target, 0) || target < 0 {
			target = 0
		}

		realizedSum := 0.0
		var futureIdx []int
		for i := range *working {
			s := &(*working)[i]
			if s.Discipline != d {
				continue
			}
			if r.isRealized(s, today) {
				realizedSum += s.Volume
				continue
			}
			if s.Status == models.StatusCancelled {
				continue // cancelled work is neither realized nor replannable
			}
			futureIdx = append(futureIdx, i)
		}

		desired := quantize.RoundToStep(math.Max(0, target-realizedSum), d)

		if len(futureIdx) == 0 {
			if desired <= 0 {
				continue // legitimate no-op
			}
			// Nothing left in the week to absorb the leftover: synthesize
			// one session carrying all of it.
			date := weekStart
			if today.After(date) {
				date = today
			}
			typ := d.DefaultType()
			s := models.TrainingSession{
				ID:           uuid.New(),
				Date:         date,
				Discipline:   d,
				Type:         typ,
				Volume:       desired,
				Unit:         d.Unit(),
				Status:       models.StatusPlanned,
				Detail:       Detail(d, typ, desired, r.cfg.Paces),
				LastEditedAt: now,
				WeekStart:    weekStart,
			}
			*working = append(*working, s)
			changed = true
			continue
		}

		weights := make([]float64, len(futureIdx))
		for j, i := range futureIdx {
			weights[j] = (*working)[i].Volume
		}
		alloc := quantize.LargestRemainderAllocate(desired, weights, d)

		for j, i := range futureIdx {
			s := &(*working)[i]
			if math.Abs(s.Volume-alloc[j]) < 1e-9 {
				continue
			}
			prev := cloneSession(*s)
			s.Volume = alloc[j]
			s.LockUnit()
			s.Detail = Detail(d, s.Type, s.Volume, r.cfg.Paces)
			s.AppendChange(&prev, now)
			changed = true
		}
	}
	return changed
}

// driftReport lists disciplines whose allocated volume misses the frozen
// target by more than one quantization step.
func (r *Rebalancer) driftReport(sessions []models.TrainingSession, targets models.TargetSet) []models.Drift {
	var drift []models.Drift
	for _, d := range models.Disciplines {
		target, ok := targets[d]
		if !ok {
			continue
		}
		if math.IsNaN(target) || math.IsInf(target, 0) || target < 0 {
			target = 0
		}
		// Realized plus future volume; cancelled work counts for neither.
		sum := 0.0
		for i := range sessions {
			s := &sessions[i]
			if s.Discipline != d || s.Status == models.StatusCancelled {
				continue
			}
			sum += s.Volume
		}
		residual := sum - target
		if math.Abs(residual) > quantize.Step(d)+1e-9 {
			drift = append(drift, models.Drift{Discipline: d, Residual: math.Round(residual*1e6) / 1e6})
		}
	}
	return drift
}

// isRealized applies the configured postponed policy on top of the basic
// completed-and-past predicate.
func (r *Rebalancer) isRealized(s *models.TrainingSession, today time.Time) bool {
	if s.Realized(today) {
		return true
	}
	return r.cfg.CountPostponedAsRealized && s.Status == models.StatusPostponed && !s.Date.After(today)
}

func cloneSession(s models.TrainingSession) models.TrainingSession {
	out := s
	out.ChangeLog = append([]models.ChangeEntry(nil), s.ChangeLog...)
	return out
}
