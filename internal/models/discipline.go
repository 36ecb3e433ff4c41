package models

// Discipline is one of the closed set of training categories. Each discipline
// has exactly one volume unit; the unit is never independently settable.
type Discipline string

const (
	Run      Discipline = "Run"
	Bike     Discipline = "Bike"
	Swim     Discipline = "Swim"
	Strength Discipline = "Strength"
	Mobility Discipline = "Mobility"
)

// Disciplines lists all valid disciplines in canonical order.
var Disciplines = []Discipline{Run, Bike, Swim, Strength, Mobility}

// Unit returns the only volume unit allowed for the discipline.
func (d Discipline) Unit() string {
	switch d {
	case Run, Bike:
		return "km"
	case Swim:
		return "m"
	case Strength, Mobility:
		return "min"
	}
	return "km"
}

// Valid reports whether d is a member of the closed discipline set.
func (d Discipline) Valid() bool {
	switch d {
	case Run, Bike, Swim, Strength, Mobility:
		return true
	}
	return false
}

// LoadCoefficient weights a discipline's normalized volume when computing
// aggregate weekly training load.
func (d Discipline) LoadCoefficient() float64 {
	switch d {
	case Run:
		return 1.0
	case Bike:
		return 0.6
	case Swim:
		return 1.2
	case Strength:
		return 0.3
	case Mobility:
		return 0.2
	}
	return 1.0
}

// SessionTypes returns the session type rotation for the discipline, in the
// order matched by the distributor's weight templates.
func (d Discipline) SessionTypes() []string {
	switch d {
	case Run:
		return []string{"Recovery", "Tempo Run", "Long Run"}
	case Bike:
		return []string{"Endurance", "Intervals", "Cadence"}
	case Swim:
		return []string{"Technique", "Continuous"}
	case Strength:
		return []string{"Max Strength", "Muscular Endurance"}
	case Mobility:
		return []string{"Flow", "Recovery"}
	}
	return []string{"Workout"}
}

// DefaultType is the session type used when the rebalancer synthesizes a
// session to absorb leftover weekly volume.
func (d Discipline) DefaultType() string {
	return d.SessionTypes()[0]
}
