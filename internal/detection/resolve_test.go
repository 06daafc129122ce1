package detection

import (
	"math/rand"
	"testing"
)

func selected(r OptionResult) string {
	if r.Selected == nil {
		return "<nil>"
	}
	return *r.Selected
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		ratios     []float64
		threshold  float64
		want       string
		confidence float64
	}{
		{"clear mark", []float64{0.1, 0.9, 0.05, 0.2}, 0.5, "B", 0.9},
		{"below threshold", []float64{0.3, 0.4, 0.45, 0.2}, 0.5, "<nil>", 0.45},
		{"exactly threshold", []float64{0.5, 0.1}, 0.5, "A", 0.5},
		{"tie goes to first", []float64{0.2, 0.8, 0.8, 0.1}, 0.5, "B", 0.8},
		{"blank", []float64{0, 0, 0, 0}, 0.5, "<nil>", 0},
		{"rounded confidence", []float64{0.123, 0.6666}, 0.5, "B", 0.67},
		{"half rounds down to even", []float64{0.125, 0.1}, 0.1, "A", 0.12},
		{"half rounds up to even", []float64{0.1, 0.375}, 0.5, "<nil>", 0.38},
		{"zero threshold", []float64{0, 0, 0}, 0, "A", 0},
		{"last option", []float64{0.1, 0.1, 0.1, 0.1, 0.95}, 0.5, "E", 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(3, tt.ratios, tt.threshold)
			if got.Question != 3 {
				t.Errorf("Question: got %d, want 3", got.Question)
			}
			if selected(got) != tt.want {
				t.Errorf("Selected: got %s, want %s", selected(got), tt.want)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Confidence: got %v, want %v", got.Confidence, tt.confidence)
			}
		})
	}
}

func TestResolve_NoRatios(t *testing.T) {
	got := Resolve(1, nil, 0.5)
	if got.Selected != nil || got.Confidence != 0 {
		t.Errorf("expected empty result, got %+v", got)
	}
}

func TestResolve_ThresholdMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		ratios := make([]float64, 1+rng.Intn(6))
		for i := range ratios {
			ratios[i] = float64(rng.Intn(11)) / 10
		}

		prev := Resolve(1, ratios, 0)
		for step := 1; step <= 20; step++ {
			cur := Resolve(1, ratios, float64(step)/20)
			if prev.Selected == nil && cur.Selected != nil {
				t.Fatalf("%v: raising threshold selected %s", ratios, *cur.Selected)
			}
			if prev.Selected != nil && cur.Selected != nil && *prev.Selected != *cur.Selected {
				t.Fatalf("%v: raising threshold changed %s to %s", ratios, *prev.Selected, *cur.Selected)
			}
			if cur.Confidence != prev.Confidence {
				t.Fatalf("%v: confidence depends on threshold", ratios)
			}
			prev = cur
		}
	}
}

func TestOptionLetter(t *testing.T) {
	tests := map[int]string{0: "A", 1: "B", 3: "D", 25: "Z"}
	for idx, want := range tests {
		if got := OptionLetter(idx); got != want {
			t.Errorf("OptionLetter(%d) = %s, want %s", idx, got, want)
		}
	}
}
