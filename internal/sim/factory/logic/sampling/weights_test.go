package sampling

import (
	"math"
	"testing"
)

func TestPick_WalksCumulativeWeights(t *testing.T) {
	w := []float64{30, 15, 40, 1, 20}
	cases := []struct {
		u    float64
		want int
	}{
		{0, 0},
		{29.9 / 106, 0},
		{30.5 / 106, 1},
		{44.5 / 106, 1},
		{45.5 / 106, 2},
		{85.5 / 106, 3},
		{86.5 / 106, 4},
		{0.999999, 4},
	}
	for _, tc := range cases {
		if got := Pick(w, tc.u); got != tc.want {
			t.Fatalf("u=%v: got %d want %d", tc.u, got, tc.want)
		}
	}
}

func TestPick_SkipsZeroWeights(t *testing.T) {
	w := []float64{0, 15, 0, 0, 0}
	for _, u := range []float64{0, 0.3, 0.999999} {
		if got := Pick(w, u); got != 1 {
			t.Fatalf("u=%v: got %d want 1", u, got)
		}
	}
	w = []float64{30, 15, 0, 0, 0}
	for i := 0; i < 100; i++ {
		got := Pick(w, float64(i)/100)
		if got != 0 && got != 1 {
			t.Fatalf("picked zero-weight entry %d", got)
		}
	}
}

func TestPick_NothingEligible(t *testing.T) {
	if got := Pick([]float64{0, 0, -1}, 0.5); got != -1 {
		t.Fatalf("got %d want -1", got)
	}
	if got := Pick(nil, 0.5); got != -1 {
		t.Fatalf("got %d want -1", got)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{30, 15, 0, 0, 0})
	if math.Abs(got[0]-2.0/3) > 1e-12 || math.Abs(got[1]-1.0/3) > 1e-12 || got[2] != 0 {
		t.Fatalf("unexpected normalization: %v", got)
	}
	if Normalize([]float64{0, 0}) != nil {
		t.Fatalf("expected nil for all-zero weights")
	}
}
