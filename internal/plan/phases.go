package plan

import (
	"fmt"
	"math"

	"github.com/claude/triplan/internal/models"
)

// phaseWeight is one named phase and its target share of the cycle.
type phaseWeight struct {
	name string
	prop float64
}

// phaseScheme selects the phase-proportion scheme for a cycle length. Short
// cycles get a coarse 3-phase split, mid cycles 5 phases, long cycles 6.
func phaseScheme(totalWeeks int) []phaseWeight {
	switch {
	case totalWeeks < 8:
		return []phaseWeight{
			{"Base", 0.40},
			{"Build", 0.40},
			{"Taper", 0.20},
		}
	case totalWeeks <= 14:
		peak := 0.10
		if totalWeeks >= 12 {
			peak = 0.15
		}
		return []phaseWeight{
			{"Base 1", 0.30},
			{"Base 2", 0.20},
			{"Build", 0.30},
			{"Peak", peak},
			{"Taper", 0.10},
		}
	default:
		return []phaseWeight{
			{"Base 1", 0.20},
			{"Base 2", 0.12},
			{"Base 3", 0.08},
			{"Build", 0.35},
			{"Peak", 0.15},
			{"Taper", 0.10},
		}
	}
}

// TaperWeeks returns the taper length for a race distance and cycle length.
// Longer races earn longer tapers; very short cycles never taper more than
// a third of the cycle.
func TaperWeeks(distance models.Distance, totalWeeks int) int {
	var k int
	switch distance {
	case models.DistanceIronman, models.DistanceMarathon:
		k = 2
		if totalWeeks >= 16 {
			k = 3
		}
	case models.DistanceHalf, models.DistanceHalfMara:
		k = 2
	case models.DistanceOlympic:
		k = 1
		if totalWeeks >= 10 {
			k = 2
		}
	default:
		k = 1
	}
	if limit := totalWeeks / 3; k > limit && limit >= 1 {
		k = limit
	}
	if k < 1 {
		k = 1
	}
	if k > totalWeeks {
		k = totalWeeks
	}
	return k
}

// AllocatePhases partitions totalWeeks into contiguous named phases using
// largest-remainder apportionment of the scheme proportions, then overwrites
// the trailing TaperWeeks labels with "Taper" and rebuilds the boundary list.
// The returned phases partition [1, totalWeeks] exhaustively and every phase
// has at least one week.
func AllocatePhases(totalWeeks int, distance models.Distance) ([]models.Phase, error) {
	if totalWeeks < 1 {
		return nil, fmt.Errorf("cycle length %d: need at least one week", totalWeeks)
	}

	scheme := phaseScheme(totalWeeks)
	counts := apportionWeeks(totalWeeks, scheme)

	// Expand to one label per week, then force the taper tail.
	labels := make([]string, 0, totalWeeks)
	for i, pw := range scheme {
		for k := 0; k < counts[i]; k++ {
			labels = append(labels, pw.name)
		}
	}
	taper := TaperWeeks(distance, totalWeeks)
	for i := totalWeeks - taper; i < totalWeeks; i++ {
		labels[i] = "Taper"
	}

	phases := collapseLabels(labels)
	phases[len(phases)-1].EndWeek = totalWeeks

	if err := checkPartition(phases, totalWeeks); err != nil {
		return nil, err
	}
	return phases, nil
}

// apportionWeeks assigns floor(N*prop) weeks per phase and hands the leftover
// weeks one each to the largest fractional remainders. Phases that still end
// up empty take a week from the largest phase.
func apportionWeeks(totalWeeks int, scheme []phaseWeight) []int {
	n := len(scheme)
	counts := make([]int, n)
	fracs := make([]float64, n)
	assigned := 0
	for i, pw := range scheme {
		exact := float64(totalWeeks) * pw.prop
		counts[i] = int(math.Floor(exact))
		fracs[i] = exact - float64(counts[i])
		assigned += counts[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && fracs[order[j]] > fracs[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for r := 0; r < totalWeeks-assigned; r++ {
		counts[order[r%n]]++
	}

	// A phase squeezed to zero weeks borrows one from the largest phase.
	for i := range counts {
		if counts[i] > 0 {
			continue
		}
		donor, max := -1, 1
		for j, c := range counts {
			if c > max {
				donor, max = j, c
			}
		}
		if donor >= 0 {
			counts[donor]--
			counts[i]++
		}
	}
	return counts
}

// collapseLabels merges consecutive identical week labels into contiguous
// Phase records with 1-based week bounds.
func collapseLabels(labels []string) []models.Phase {
	var phases []models.Phase
	for i, name := range labels {
		week := i + 1
		if len(phases) > 0 && phases[len(phases)-1].Name == name {
			p := &phases[len(phases)-1]
			p.Weeks++
			p.EndWeek = week
			continue
		}
		phases = append(phases, models.Phase{Name: name, Weeks: 1, StartWeek: week, EndWeek: week})
	}
	return phases
}

func checkPartition(phases []models.Phase, totalWeeks int) error {
	sum := 0
	cursor := 1
	for _, p := range phases {
		if p.Weeks < 1 {
			return fmt.Errorf("phase %s has %d weeks", p.Name, p.Weeks)
		}
		if p.StartWeek != cursor {
			return fmt.Errorf("phase %s starts at week %d, want %d", p.Name, p.StartWeek, cursor)
		}
		cursor = p.EndWeek + 1
		sum += p.Weeks
	}
	if sum != totalWeeks {
		return fmt.Errorf("phase weeks sum %d, want %d", sum, totalWeeks)
	}
	return nil
}

// PhaseFor returns the phase containing the 1-based week index, defaulting to
// the final phase for out-of-range indices.
func PhaseFor(phases []models.Phase, week int) models.Phase {
	for _, p := range phases {
		if p.Contains(week) {
			return p
		}
	}
	return phases[len(phases)-1]
}
