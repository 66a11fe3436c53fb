package factorytest

import (
	"testing"

	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/factory"
)

// Harness drives a factory through its exported API and records every event
// and pass entry it emits.
type Harness struct {
	T *testing.T
	F *factory.Factory

	Events []factory.Event
	Passes []factory.PassLogEntry
}

func NewHarness(t *testing.T, cfg factory.Config, cat *catalogs.Catalog) *Harness {
	t.Helper()
	f, err := factory.New(cfg, cat)
	if err != nil {
		t.Fatalf("factory.New: %v", err)
	}
	return NewHarnessWithFactory(t, f)
}

// NewHarnessWithFactory wraps an existing factory, such as one restored from
// a snapshot.
func NewHarnessWithFactory(t *testing.T, f *factory.Factory) *Harness {
	t.Helper()
	if f == nil {
		t.Fatalf("NewHarnessWithFactory: nil factory")
	}
	h := &Harness{T: t, F: f}
	f.SetEventSink(h)
	f.SetPassLogger(h)
	return h
}

func (h *Harness) OnEvent(e factory.Event) { h.Events = append(h.Events, e) }

func (h *Harness) WritePass(e factory.PassLogEntry) error {
	h.Passes = append(h.Passes, e)
	return nil
}

func (h *Harness) Step() factory.PassLogEntry {
	h.T.Helper()
	e, err := h.F.Step()
	if err != nil {
		h.T.Fatalf("step at tick %d: %v", h.F.CurrentTick(), err)
	}
	return e
}

func (h *Harness) StepFor(n int) {
	h.T.Helper()
	for i := 0; i < n && !h.F.Done(); i++ {
		h.Step()
	}
}

// RunToCap steps until the robot cap is reached, failing after maxPasses.
func (h *Harness) RunToCap(maxPasses int) factory.Result {
	h.T.Helper()
	for i := 0; !h.F.Done(); i++ {
		if i >= maxPasses {
			h.T.Fatalf("cap not reached after %d passes: %+v", maxPasses, h.F.Pool().Storage())
		}
		h.Step()
	}
	return h.F.Result()
}

func (h *Harness) EventsOfType(typ string) []factory.Event {
	var out []factory.Event
	for _, e := range h.Events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
