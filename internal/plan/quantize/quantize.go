// Package quantize implements per-discipline volume rounding and
// largest-remainder apportionment. All functions are pure.
package quantize

import (
	"math"

	"github.com/claude/triplan/internal/models"
)

// remainderEps is the tolerance for comparing fractional remainders: weight
// normalization leaves division dust around 1e-16 per quantum, far below it,
// while genuinely distinct remainders sit at least one part in count apart.
const remainderEps = 1e-9

// Step returns the smallest permissible volume increment for a discipline:
// 0.1 km for distance disciplines, 50 m for swimming, 1 min for time-based
// work.
func Step(d models.Discipline) float64 {
	switch d.Unit() {
	case "m":
		return 50
	case "km":
		return 0.1
	default:
		return 1
	}
}

// RoundToStep rounds v to the nearest multiple of the discipline's step.
// Non-finite input is coerced to zero.
func RoundToStep(v float64, d models.Discipline) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	step := Step(d)
	return clean(math.Round(v/step) * step)
}

// LargestRemainderAllocate splits total into len(weights) non-negative
// multiples of the discipline's step whose sum equals RoundToStep(total)
// exactly. Each item first receives floor(weight*quanta) quanta; leftover
// quanta go one at a time to the largest fractional remainders, ties broken
// by original order. All-zero or non-finite weights fall back to equal
// weighting.
func LargestRemainderAllocate(total float64, weights []float64, d models.Discipline) []float64 {
	n := len(weights)
	if n == 0 {
		return nil
	}

	step := Step(d)
	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		total = 0
	}
	count := int(math.Round(total / step))

	w := normalizeWeights(weights)

	type share struct {
		idx    int
		quanta int
		frac   float64
	}
	shares := make([]share, n)
	assigned := 0
	for i, wi := range w {
		exact := wi * float64(count)
		// Snap float dust from the weight normalization so an exact integer
		// share doesn't leak a phantom remainder (0.2*170 means 34 quanta,
		// not 33.999... with remainder ~1).
		if nearest := math.Round(exact); math.Abs(exact-nearest) < remainderEps {
			exact = nearest
		}
		base := int(math.Floor(exact))
		shares[i] = share{idx: i, quanta: base, frac: exact - float64(base)}
		assigned += base
	}

	// Hand leftover quanta to the largest fractional remainders. Remainders
	// equal within tolerance count as tied, and the stable sort keeps the
	// original-order tie break.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && shares[order[j]].frac > shares[order[j-1]].frac+remainderEps; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for r := 0; r < count-assigned; r++ {
		shares[order[r%n]].quanta++
	}

	out := make([]float64, n)
	for i, s := range shares {
		out[i] = clean(float64(s.quanta) * step)
	}
	return out
}

// normalizeWeights sanitizes weights (non-finite and negative become zero)
// and scales them to sum 1, falling back to equal weights when nothing
// usable remains.
func normalizeWeights(weights []float64) []float64 {
	n := len(weights)
	w := make([]float64, n)
	sum := 0.0
	for i, wi := range weights {
		if math.IsNaN(wi) || math.IsInf(wi, 0) || wi < 0 {
			wi = 0
		}
		w[i] = wi
		sum += wi
	}
	if sum == 0 {
		for i := range w {
			w[i] = 1 / float64(n)
		}
		return w
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// clean strips float dust left by step multiplication (e.g. 9.400000000000001).
func clean(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
