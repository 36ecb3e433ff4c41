package plan

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/claude/triplan/internal/models"
)

func TestDetail(t *testing.T) {
	paces := PaceHints{RunPaceMinPerKM: 6, SwimSecPer100m: 110, BikeKMH: 30}

	tests := []struct {
		name       string
		discipline models.Discipline
		typ        string
		volume     float64
		paces      PaceHints
		want       string
	}{
		{"long run with pace", models.Run, "Long Run", 9.3, paces, "Long run 9.3 km (Z2/Z3), ~56 min."},
		{"long run no pace", models.Run, "Long Run", 9.3, PaceHints{}, "Long run 9.3 km (Z2/Z3)."},
		{"recovery run with pace", models.Run, "Recovery", 4.3, paces, "Recovery run Z1/Z2, 4.3 km (~26 min)."},
		{"tempo block clamped low", models.Run, "Tempo Run", 2, paces, "Tempo run: 20 min at Z3/Z4."},
		{"tempo block clamped high", models.Run, "Tempo Run", 12, paces, "Tempo run: 40 min at Z3/Z4."},
		{"endurance ride", models.Bike, "Endurance", 60, paces, "Endurance ride 60 km (~2.0h at Z2)."},
		{"continuous swim", models.Swim, "Continuous", 2350, paces, "2.4 km continuous at Z2/Z3."},
		{"swim intervals with pace", models.Swim, "Intervals", 800, paces, "16 x 50 m hard. Target ~110 s/100m."},
		{"swim intervals no pace", models.Swim, "Intervals", 800, PaceHints{}, "16 x 50 m hard. Target ~- s/100m."},
		{"max strength", models.Strength, "Max Strength", 45, paces, "5 x 3 heavy compound lifts."},
		{"mobility flow", models.Mobility, "Flow", 30, paces, "Dynamic mobility flow, 30 min."},
		{"unknown type falls through", models.Run, "Shakeout", 3, paces, "Shakeout session, 3 km."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detail(tt.discipline, tt.typ, tt.volume, tt.paces); got != tt.want {
				t.Errorf("Detail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDetailSanitizesVolume(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), -4} {
		got := Detail(models.Run, "Long Run", v, PaceHints{})
		if !strings.Contains(got, "0 km") {
			t.Errorf("volume %v: detail = %q, want zeroed volume", v, got)
		}
	}
}

func TestVariedType(t *testing.T) {
	if got := VariedType("Tempo Run", nil); got != "Tempo Run" {
		t.Errorf("nil source: got %q, want Tempo Run", got)
	}
	if got := VariedType("Long Run", rand.New(rand.NewSource(1))); got != "Long Run" {
		t.Errorf("type without variants: got %q, want Long Run", got)
	}

	rnd := rand.New(rand.NewSource(7))
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[VariedType("Tempo Run", rnd)] = true
	}
	for _, want := range []string{"Tempo Run", "Progressive Run", "Fartlek"} {
		if !seen[want] {
			t.Errorf("after 200 draws, never saw %q (got %v)", want, seen)
		}
	}
}
