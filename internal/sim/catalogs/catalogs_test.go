package catalogs

import (
	"testing"

	"foobartory.dev/internal/sim/tasks"
)

func TestDefault_OrderAndWeights(t *testing.T) {
	c := Default()
	wantKinds := []tasks.Kind{
		tasks.KindMineFoo,
		tasks.KindMineBar,
		tasks.KindAssembleFoobar,
		tasks.KindSellFoobar,
		tasks.KindBuyRobot,
	}
	wantWeights := []float64{30, 15, 40, 1, 20}
	if len(c.Tasks) != len(wantKinds) {
		t.Fatalf("tasks: got %d want %d", len(c.Tasks), len(wantKinds))
	}
	for i, d := range c.Tasks {
		if d.Kind != wantKinds[i] {
			t.Fatalf("task %d kind: got %s want %s", i, d.Kind, wantKinds[i])
		}
		if d.BaseWeight != wantWeights[i] {
			t.Fatalf("task %s weight: got %v want %v", d.Kind, d.BaseWeight, wantWeights[i])
		}
	}
	if c.Digest == "" {
		t.Fatalf("expected catalog digest")
	}
	if Default().Digest != c.Digest {
		t.Fatalf("catalog digest should be stable")
	}
}

func TestSampleDuration_Bounds(t *testing.T) {
	bar := Default().ByKind[tasks.KindMineBar]
	if got := bar.SampleDuration(0); got != 0.5 {
		t.Fatalf("u=0: got %v want 0.5", got)
	}
	if got := bar.SampleDuration(0.999999); got < 0.5 || got > 2 {
		t.Fatalf("u~1 out of range: %v", got)
	}
	buy := Default().ByKind[tasks.KindBuyRobot]
	if got := buy.SampleDuration(0.7); got != 0 {
		t.Fatalf("buy duration: got %v want 0", got)
	}
}

func TestNew_RejectsBadDefs(t *testing.T) {
	cases := map[string][]TaskDef{
		"empty kind": {{Name: "x"}},
		"duplicate":  {{Kind: tasks.KindMineFoo}, {Kind: tasks.KindMineFoo}},
		"range":      {{Kind: tasks.KindMineFoo, MinSeconds: 2, MaxSeconds: 1}},
		"weight":     {{Kind: tasks.KindMineFoo, BaseWeight: -1}},
	}
	for name, defs := range cases {
		if _, err := New(defs); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
