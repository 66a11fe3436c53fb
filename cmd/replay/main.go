package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	persistlog "foobartory.dev/internal/persistence/log"
	"foobartory.dev/internal/persistence/snapshot"
	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/factory"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		tracePath = fs.String("trace", "", "path to trace .jsonl.zst")
		snapPath  = fs.String("snapshot", "", "final snapshot to compare against (optional)")
		toTick    = fs.Int64("to_tick", -1, "stop after this pass (inclusive); negative replays every pass")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *tracePath == "" {
		fmt.Fprintln(stderr, "missing -trace")
		return 2
	}

	tr, err := persistlog.ReadTraceFile(*tracePath)
	if err != nil {
		fmt.Fprintln(stderr, "read trace:", err)
		return 1
	}
	h := tr.Header
	fmt.Fprintf(stdout, "trace v%s seed=%d tick_seconds=%v robot_cap=%d initial_robots=%d passes=%d\n",
		h.ProtocolVersion, h.Seed, h.TickSeconds, h.RobotCap, h.InitialRobots, len(tr.Passes))

	f, err := rebuild(tr)
	if err != nil {
		fmt.Fprintln(stderr, "rebuild:", err)
		return 1
	}
	checked, err := replayPasses(f, tr, *toTick)
	if err != nil {
		fmt.Fprintln(stderr, "replay:", err)
		return 1
	}

	complete := *toTick < 0 || uint64(*toTick)+1 >= uint64(len(tr.Passes))
	if complete && tr.End != nil {
		if tr.End.Ticks != f.CurrentTick() || tr.End.Digest != f.StateDigest() {
			fmt.Fprintf(stderr, "end mismatch: trace ticks=%d digest=%s, replay ticks=%d digest=%s\n",
				tr.End.Ticks, tr.End.Digest, f.CurrentTick(), f.StateDigest())
			return 1
		}
	}

	if *snapPath != "" {
		sh, err := readSnapshotHeader(*snapPath)
		if err != nil {
			fmt.Fprintln(stderr, "read snapshot:", err)
			return 1
		}
		if err := compareSnapshot(f, sh); err != nil {
			fmt.Fprintln(stderr, "snapshot:", err)
			return 1
		}
	}

	fmt.Fprintf(stdout, "replay ok: checked=%d passes digest=%s\n", checked, f.StateDigest())
	return 0
}

func rebuild(tr persistlog.Trace) (*factory.Factory, error) {
	cat := catalogs.Default()
	if tr.Header.CatalogDigest != "" && tr.Header.CatalogDigest != cat.Digest {
		return nil, fmt.Errorf("catalog digest mismatch: trace=%s current=%s", tr.Header.CatalogDigest, cat.Digest)
	}
	return factory.New(factory.Config{
		Seed:          tr.Header.Seed,
		TickSeconds:   tr.Header.TickSeconds,
		RobotCap:      tr.Header.RobotCap,
		InitialRobots: tr.Header.InitialRobots,
	}, cat)
}

// replayPasses re-steps f once per recorded pass and stops at the first
// digest mismatch.
func replayPasses(f *factory.Factory, tr persistlog.Trace, toTick int64) (int, error) {
	checked := 0
	for _, p := range tr.Passes {
		if toTick >= 0 && p.Tick > uint64(toTick) {
			break
		}
		if p.Tick != f.CurrentTick() {
			return checked, fmt.Errorf("tick mismatch: want=%d got=%d", f.CurrentTick(), p.Tick)
		}
		tick, got, err := f.StepOnce()
		if err != nil {
			if errors.Is(err, factory.ErrCapacityReached) {
				return checked, fmt.Errorf("trace continues past the robot cap at tick %d", p.Tick)
			}
			return checked, fmt.Errorf("step %d: %w", p.Tick, err)
		}
		if tick != p.Tick {
			return checked, fmt.Errorf("internal tick mismatch: stepped=%d entry=%d", tick, p.Tick)
		}
		if got != p.Digest {
			return checked, fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, got, p.Digest)
		}
		checked++
	}
	return checked, nil
}

func readSnapshotHeader(path string) (snapshot.Header, error) {
	fh, err := os.Open(path)
	if err != nil {
		return snapshot.Header{}, err
	}
	defer fh.Close()
	h, err := snapshot.ReadHeader(fh)
	if err != nil {
		return h, err
	}
	if h.Version != snapshot.Version {
		return h, fmt.Errorf("unsupported snapshot version %d", h.Version)
	}
	return h, nil
}

func compareSnapshot(f *factory.Factory, h snapshot.Header) error {
	if h.Tick != f.CurrentTick() {
		return fmt.Errorf("snapshot tick=%d, replay stopped at %d", h.Tick, f.CurrentTick())
	}
	if h.Digest != f.StateDigest() {
		return fmt.Errorf("digest mismatch: snapshot=%s replay=%s", h.Digest, f.StateDigest())
	}
	return nil
}
