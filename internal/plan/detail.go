package plan

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/claude/triplan/internal/models"
)

// PaceHints carries the athlete's reference paces. They feed the generated
// session descriptions only; allocation arithmetic never reads them.
type PaceHints struct {
	RunPaceMinPerKM float64 `json:"run_pace_min_per_km"`
	SwimSecPer100m  float64 `json:"swim_sec_per_100m"`
	BikeKMH         float64 `json:"bike_kmh"`
}

// typeVariations offers interchangeable flavors for a few session types. The
// substitution is a pure function of the injected random source so tests can
// pin the outcome with a fixed seed.
var typeVariations = map[string][]string{
	"Tempo Run": {"Progressive Run", "Fartlek"},
	"Intervals": {"Hill Repeats"},
	"Flow":      {"Dynamic Stretch"},
}

// VariedType occasionally substitutes an equivalent session type. A nil
// random source disables variation.
func VariedType(typ string, rnd *rand.Rand) string {
	if rnd == nil {
		return typ
	}
	alts, ok := typeVariations[typ]
	if !ok || rnd.Float64() >= 0.3 {
		return typ
	}
	return alts[rnd.Intn(len(alts))]
}

// Detail generates a human-readable prescription for a session from its
// type, volume and the athlete's pace hints.
func Detail(d models.Discipline, typ string, volume float64, paces PaceHints) string {
	vol := volume
	if math.IsNaN(vol) || math.IsInf(vol, 0) || vol < 0 {
		vol = 0
	}

	switch d {
	case models.Run:
		switch typ {
		case "Recovery":
			if paces.RunPaceMinPerKM > 0 {
				mins := int(math.Ceil(vol * paces.RunPaceMinPerKM))
				return fmt.Sprintf("Recovery run Z1/Z2, %g km (~%d min).", vol, mins)
			}
			return fmt.Sprintf("Recovery run Z1/Z2, %g km.", vol)
		case "Long Run":
			if paces.RunPaceMinPerKM > 0 {
				mins := int(math.Ceil(vol * paces.RunPaceMinPerKM))
				return fmt.Sprintf("Long run %g km (Z2/Z3), ~%d min.", vol, mins)
			}
			return fmt.Sprintf("Long run %g km (Z2/Z3).", vol)
		case "Tempo Run":
			block := clampInt(int(vol*6), 20, 40)
			return fmt.Sprintf("Tempo run: %d min at Z3/Z4.", block)
		case "Progressive Run":
			return fmt.Sprintf("Progressive run %g km, start easy and finish at tempo.", vol)
		case "Fartlek":
			return fmt.Sprintf("Fartlek %g km, free surges between easy and tempo pace.", vol)
		}
	case models.Bike:
		switch typ {
		case "Endurance":
			speed := paces.BikeKMH
			if speed <= 0 {
				speed = 28
			}
			return fmt.Sprintf("Endurance ride %g km (~%.1fh at Z2).", vol, vol/speed)
		case "Intervals":
			blocks := clampInt(int(vol/5), 4, 6)
			return fmt.Sprintf("%d x (6 min Z4), 3 min recovery.", blocks)
		case "Hill Repeats":
			return "6 x (4 min at 60-70 rpm, Z3/Z4), 3 min recovery."
		case "Cadence":
			return "5 x (3 min at 100-110 rpm), 2 min recovery."
		}
	case models.Swim:
		switch typ {
		case "Technique":
			return "Drill set plus 8 x 50 m technique work."
		case "Continuous":
			return fmt.Sprintf("%.1f km continuous at Z2/Z3.", vol/1000)
		case "Intervals":
			reps := clampInt(int(vol/50), 12, 20)
			target := "-"
			if paces.SwimSecPer100m > 0 {
				target = fmt.Sprintf("%d", int(paces.SwimSecPer100m))
			}
			return fmt.Sprintf("%d x 50 m hard. Target ~%s s/100m.", reps, target)
		}
	case models.Strength:
		switch typ {
		case "Max Strength":
			return "5 x 3 heavy compound lifts."
		case "Muscular Endurance":
			return "4 x 12-20 circuit work."
		}
		return fmt.Sprintf("Strength block, %g min.", vol)
	case models.Mobility:
		switch typ {
		case "Flow", "Dynamic Stretch":
			return fmt.Sprintf("Dynamic mobility flow, %g min.", vol)
		case "Recovery":
			return fmt.Sprintf("Light stretching, %g min.", vol)
		}
	}
	return fmt.Sprintf("%s session, %g %s.", typ, vol, d.Unit())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
