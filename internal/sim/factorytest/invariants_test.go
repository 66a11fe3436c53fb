package factorytest

import (
	"context"
	"errors"
	"testing"

	"foobartory.dev/internal/protocol"
	"foobartory.dev/internal/sim/factory"
	"foobartory.dev/internal/sim/tasks"
)

func TestRun_TerminatesAtCap(t *testing.T) {
	for _, seed := range []int64{1, 7, 1337} {
		h := NewHarness(t, factory.Config{Seed: seed}, nil)
		res := h.RunToCap(maxPasses)
		if res.Storage.Robots < 30 {
			t.Fatalf("seed %d: robots=%d", seed, res.Storage.Robots)
		}
		// The cap is checked between passes and each robot buys at most one
		// robot per pass, so overshoot is bounded by the previous roster.
		if res.Storage.Robots >= 60 {
			t.Fatalf("seed %d: overshoot too large: %d", seed, res.Storage.Robots)
		}
		if res.Ticks != uint64(len(h.Passes)) {
			t.Fatalf("seed %d: ticks=%d passes=%d", seed, res.Ticks, len(h.Passes))
		}
		if got := float64(res.Ticks) * 0.1; res.SimSeconds != got {
			t.Fatalf("seed %d: sim seconds %v want %v", seed, res.SimSeconds, got)
		}
	}
}

func TestRun_StorageInvariants(t *testing.T) {
	h := NewHarness(t, factory.Config{Seed: 9}, nil)
	h.RunToCap(maxPasses)

	prevRobots := 2
	for _, p := range h.Passes {
		s := p.Storage
		if s.Currency < 0 || s.Foo < 0 || s.Bar < 0 || s.Foobar < 0 {
			t.Fatalf("negative storage at tick %d: %+v", p.Tick, s)
		}
		if s.Robots < prevRobots {
			t.Fatalf("robot count decreased at tick %d: %d -> %d", p.Tick, prevRobots, s.Robots)
		}
		prevRobots = s.Robots
	}

	st := h.F.Stats()
	pool := h.F.Pool()

	var heldCurrency, heldBuyFoo, heldAssembleFoo, heldAssembleBar, heldSell int
	for _, r := range pool.Robots() {
		if r.Task == nil {
			continue
		}
		switch r.Task.Kind {
		case tasks.KindBuyRobot:
			heldCurrency += r.Task.Held.Currency
			heldBuyFoo += len(r.Task.Held.FooIDs)
		case tasks.KindAssembleFoobar:
			heldAssembleFoo += len(r.Task.Held.FooIDs)
			heldAssembleBar += len(r.Task.Held.BarIDs)
		case tasks.KindSellFoobar:
			heldSell += len(r.Task.Held.Foobars)
		}
	}

	if got, want := pool.Currency(), st.Earned-factory.RobotCostCurrency*st.RobotsBought-heldCurrency; got != want {
		t.Fatalf("currency=%d want %d (stats=%+v)", got, want, st)
	}
	if st.Earned != factory.FoobarPrice*st.FoobarsSold {
		t.Fatalf("earned=%d sold=%d", st.Earned, st.FoobarsSold)
	}
	if got, want := pool.FoobarCount(), st.FoobarsAssembled-st.FoobarsSold-heldSell; got != want {
		t.Fatalf("foobar=%d want %d", got, want)
	}
	if got, want := pool.Storage().Robots, 2+st.RobotsBought; got != want {
		t.Fatalf("robots=%d want %d", got, want)
	}

	// Every foo ever mined is in the pool, held, paired or spent on a robot.
	snap, err := h.F.ExportSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	mined := int(snap.MaxFooID)
	accounted := pool.FooCount() + heldBuyFoo + heldAssembleFoo + st.FoobarsAssembled + factory.RobotCostFoo*st.RobotsBought
	if mined != accounted {
		t.Fatalf("foo accounting: mined=%d accounted=%d", mined, accounted)
	}
	if int(snap.MaxBarID) != pool.BarCount()+heldAssembleBar+st.FoobarsAssembled {
		t.Fatalf("bar accounting: mined=%d", snap.MaxBarID)
	}
}

func TestRun_EventsMatchStats(t *testing.T) {
	h := NewHarness(t, factory.Config{Seed: 21}, nil)
	h.RunToCap(maxPasses)
	st := h.F.Stats()

	bought := h.EventsOfType(protocol.EventRobotBought)
	if len(bought) != st.RobotsBought {
		t.Fatalf("bought events=%d stats=%d", len(bought), st.RobotsBought)
	}
	for i, e := range bought {
		want := factory.Robot{ID: uint64(3 + i)}
		if e.NewRobot != want.Name() {
			t.Fatalf("bought[%d]=%q want %q", i, e.NewRobot, want.Name())
		}
	}

	var selections int
	for _, n := range st.Selections {
		selections += n
	}
	if got := len(h.EventsOfType(protocol.EventTaskStarted)); got != selections {
		t.Fatalf("started events=%d selections=%d", got, selections)
	}
	if st.Selections[tasks.KindMineFoo] == 0 || st.Completed[tasks.KindAssembleFoobar] == 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

type countingPacer struct {
	calls  int
	cancel context.CancelFunc
	after  int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.calls++
	if p.cancel != nil && p.calls == p.after {
		p.cancel()
	}
	return ctx.Err()
}

func TestRun_PacerWaitsOncePerRobotTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pacer := &countingPacer{cancel: cancel, after: 5}

	f, err := factory.New(factory.Config{Seed: 3}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := f.Run(ctx, pacer)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if factory.ErrorCode(err) != protocol.ErrCancelled {
		t.Fatalf("code=%q", factory.ErrorCode(err))
	}
	// Two robots per pass: passes 0 and 1 complete, the fifth wait aborts pass 2.
	if pacer.calls != 5 || res.Ticks != 2 {
		t.Fatalf("calls=%d ticks=%d", pacer.calls, res.Ticks)
	}
}

func TestRun_UnpacedReachesCap(t *testing.T) {
	f, err := factory.New(factory.Config{Seed: 5, RobotCap: 6}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	res, err := f.Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Storage.Robots < 6 || !f.Done() {
		t.Fatalf("result=%+v", res)
	}
	if res.Digest != f.StateDigest() {
		t.Fatalf("result digest is stale")
	}
}

type failingLogger struct{ after int }

func (l *failingLogger) WritePass(factory.PassLogEntry) error {
	if l.after == 0 {
		return errors.New("disk full")
	}
	l.after--
	return nil
}

func TestRun_PassLogFailureStops(t *testing.T) {
	f, err := factory.New(factory.Config{Seed: 4}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	f.SetPassLogger(&failingLogger{after: 3})
	res, err := f.Run(context.Background(), nil)
	if !errors.Is(err, factory.ErrPassLog) {
		t.Fatalf("expected ErrPassLog, got %v", err)
	}
	if factory.ErrorCode(err) != protocol.ErrTrace {
		t.Fatalf("code=%q want %q", factory.ErrorCode(err), protocol.ErrTrace)
	}
	if res.Ticks != 4 {
		t.Fatalf("ticks=%d want 4", res.Ticks)
	}
}
