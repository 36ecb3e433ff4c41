package plan

import (
	"math"

	"github.com/claude/triplan/internal/models"
)

// phaseFactorRange maps a phase name to the [start, end] band fraction its
// weeks interpolate across. An inverted range (start > end) means the phase
// decreases volume as it progresses, which is how the taper is expressed.
var phaseFactorRange = map[string][2]float64{
	"Base":   {0.25, 0.45},
	"Base 1": {0.20, 0.35},
	"Base 2": {0.35, 0.55},
	"Base 3": {0.55, 0.70},
	"Build":  {0.60, 0.90},
	"Peak":   {0.85, 1.00},
	"Taper":  {0.60, 0.40},
}

const (
	maxWeeklyGrowth = 0.10 // week-over-week volume may grow at most 10%
	maxWeeklyDecay  = 0.15 // and shrink at most 15%, outside deload/taper
	deloadFactor    = 0.72 // every 4th week drops to 72% of the previous week
	taperFloor      = 0.40 // taper weeks never fall below 40% of baseline
)

// taperPresets are the monotonically non-increasing decay factors applied to
// the trailing taper weeks, relative to the pre-taper baseline week.
var taperPresets = map[int][]float64{
	1: {0.60},
	2: {0.65, 0.50},
	3: {0.70, 0.55, 0.45},
}

// IsDeloadWeek reports whether the 1-based week index is a periodic recovery
// week.
func IsDeloadWeek(week int) bool {
	return week%4 == 0
}

// BuildVolumeCurve produces one target volume per week for a cycle of
// len(weeks covered by phases) weeks, bounded by [volMin, volMax]:
// phase-local linear interpolation, then a smoothing pass limiting growth and
// decay, then periodic deloads, then the taper tail overwrite.
func BuildVolumeCurve(totalWeeks int, volMin, volMax float64, phases []models.Phase) models.VolumeCurve {
	if totalWeeks <= 0 || len(phases) == 0 {
		return nil
	}
	if math.IsNaN(volMin) || math.IsInf(volMin, 0) || volMin < 0 {
		volMin = 0
	}
	if math.IsNaN(volMax) || math.IsInf(volMax, 0) || volMax < volMin {
		volMax = volMin
	}

	// Raw phase-interpolated targets.
	raw := make([]float64, 0, totalWeeks)
	for _, p := range phases {
		for offset := 0; offset < p.Weeks; offset++ {
			f := phaseFactor(p.Name, offset, p.Weeks)
			raw = append(raw, volMin+(volMax-volMin)*clamp(f, 0, 1))
		}
	}
	raw = raw[:totalWeeks]

	// Smoothing and deload pass. The first week is unconstrained; deload
	// weeks derive from the previous computed week, not the raw target.
	curve := make(models.VolumeCurve, totalWeeks)
	for i, target := range raw {
		if i == 0 {
			curve[i] = target
			continue
		}
		prev := curve[i-1]
		if IsDeloadWeek(i + 1) {
			curve[i] = prev * deloadFactor
			continue
		}
		v := math.Min(target, prev*(1+maxWeeklyGrowth))
		v = math.Max(v, prev*(1-maxWeeklyDecay))
		curve[i] = v
	}

	// Taper tail: overwrite the trailing taper-phase weeks from the
	// pre-taper baseline using the preset decay sequence.
	taper := phases[len(phases)-1]
	if taper.Name == "Taper" && taper.Weeks < totalWeeks {
		k := taper.Weeks
		baseline := curve[totalWeeks-k-1]
		factors := taperFactors(k)
		for j := 0; j < k; j++ {
			v := baseline * factors[j]
			prev := curve[totalWeeks-k+j-1]
			v = math.Min(v, prev)
			v = math.Max(v, baseline*taperFloor)
			curve[totalWeeks-k+j] = v
		}
	}

	return curve
}

// taperFactors returns the decay sequence for a k-week taper. Lengths beyond
// the presets interpolate linearly from 0.75 down to the 40% floor.
func taperFactors(k int) []float64 {
	if preset, ok := taperPresets[k]; ok {
		return preset
	}
	out := make([]float64, k)
	for j := range out {
		t := float64(j) / float64(k-1)
		out[j] = 0.75 - (0.75-taperFloor)*t
	}
	return out
}

// phaseFactor interpolates the phase's band fraction for the given week
// offset. Inverted ranges decrease as the phase progresses.
func phaseFactor(name string, offset, weeks int) float64 {
	r, ok := phaseFactorRange[name]
	if !ok {
		r = [2]float64{0.30, 0.60}
	}
	start, end := r[0], r[1]
	if weeks <= 1 {
		return end
	}
	t := float64(offset) / float64(weeks-1)
	return start + (end-start)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
