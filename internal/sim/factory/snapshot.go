package factory

import (
	"fmt"

	"foobartory.dev/internal/persistence/snapshot"
	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/tasks"
)

func (f *Factory) ExportSnapshot() (snapshot.SnapshotV1, error) {
	state, err := f.src.MarshalBinary()
	if err != nil {
		return snapshot.SnapshotV1{}, fmt.Errorf("rng state: %w", err)
	}
	p := f.pool
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			Tick:    f.tick,
			Digest:  f.StateDigest(),
		},
		Seed:          f.cfg.Seed,
		TickSeconds:   f.cfg.TickSeconds,
		RobotCap:      f.cfg.RobotCap,
		InitialRobots: f.cfg.InitialRobots,
		CatalogDigest: f.catalog.Digest,
		RNG:           state,
		Currency:      p.currency,
		MaxFooID:      p.maxFooID,
		MaxBarID:      p.maxBarID,
		Foo:           p.FooIDs(),
		Bar:           p.BarIDs(),
		NextRobotNum:  p.nextRobotNum,
		Stats: snapshot.StatsV1{
			Selections:       kindMapOut(f.stats.Selections),
			Completed:        kindMapOut(f.stats.Completed),
			FoobarsAssembled: f.stats.FoobarsAssembled,
			FoobarsSold:      f.stats.FoobarsSold,
			RobotsBought:     f.stats.RobotsBought,
			Earned:           f.stats.Earned,
		},
	}
	for _, fb := range p.foobar {
		snap.Foobars = append(snap.Foobars, snapshot.FoobarV1{FooID: fb.FooID, BarID: fb.BarID})
	}
	for _, r := range p.robots {
		rv := snapshot.RobotV1{ID: r.ID}
		if wt := r.Task; wt != nil {
			tv := &snapshot.WorkTaskV1{
				Kind:        string(wt.Kind),
				Target:      wt.Target,
				Elapsed:     wt.Elapsed,
				StartedTick: wt.StartedTick,
				WorkTicks:   wt.WorkTicks,
				HeldFoo:     append([]uint64(nil), wt.Held.FooIDs...),
				HeldBar:     append([]uint64(nil), wt.Held.BarIDs...),
				HeldCurr:    wt.Held.Currency,
			}
			for _, fb := range wt.Held.Foobars {
				tv.HeldFoobars = append(tv.HeldFoobars, snapshot.FoobarV1{FooID: fb.FooID, BarID: fb.BarID})
			}
			rv.Task = tv
		}
		snap.Robots = append(snap.Robots, rv)
	}
	return snap, nil
}

// FromSnapshot rebuilds a factory that continues exactly where snap left off.
func FromSnapshot(snap snapshot.SnapshotV1, cat *catalogs.Catalog) (*Factory, error) {
	if snap.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	f, err := New(Config{
		Seed:          snap.Seed,
		TickSeconds:   snap.TickSeconds,
		RobotCap:      snap.RobotCap,
		InitialRobots: snap.InitialRobots,
	}, cat)
	if err != nil {
		return nil, err
	}
	if snap.CatalogDigest != "" && snap.CatalogDigest != f.catalog.Digest {
		return nil, fmt.Errorf("catalog digest mismatch: snapshot=%s catalog=%s", snap.CatalogDigest, f.catalog.Digest)
	}
	if err := f.src.UnmarshalBinary(snap.RNG); err != nil {
		return nil, fmt.Errorf("rng state: %w", err)
	}

	p := NewPool()
	p.currency = snap.Currency
	p.maxFooID = snap.MaxFooID
	p.maxBarID = snap.MaxBarID
	for _, id := range snap.Foo {
		p.foo = append(p.foo, Foo{ID: id})
	}
	for _, id := range snap.Bar {
		p.bar = append(p.bar, Bar{ID: id})
	}
	for _, fb := range snap.Foobars {
		p.foobar = append(p.foobar, Foobar{FooID: fb.FooID, BarID: fb.BarID})
	}
	p.nextRobotNum = snap.NextRobotNum
	for _, rv := range snap.Robots {
		r := &Robot{ID: rv.ID}
		if tv := rv.Task; tv != nil {
			kind := tasks.Kind(tv.Kind)
			if _, ok := f.tasks[kind]; !ok {
				return nil, fmt.Errorf("robot %d: unknown task kind %q", rv.ID, tv.Kind)
			}
			wt := &tasks.WorkTask{
				Kind:        kind,
				Target:      tv.Target,
				Elapsed:     tv.Elapsed,
				StartedTick: tv.StartedTick,
				WorkTicks:   tv.WorkTicks,
				Held: tasks.Held{
					FooIDs:   append([]uint64(nil), tv.HeldFoo...),
					BarIDs:   append([]uint64(nil), tv.HeldBar...),
					Currency: tv.HeldCurr,
				},
			}
			for _, fb := range tv.HeldFoobars {
				wt.Held.Foobars = append(wt.Held.Foobars, tasks.Pair{FooID: fb.FooID, BarID: fb.BarID})
			}
			r.Task = wt
		}
		p.robots = append(p.robots, r)
	}
	f.pool = p
	f.tick = snap.Header.Tick

	f.stats = newStats()
	for k, v := range snap.Stats.Selections {
		f.stats.Selections[tasks.Kind(k)] = v
	}
	for k, v := range snap.Stats.Completed {
		f.stats.Completed[tasks.Kind(k)] = v
	}
	f.stats.FoobarsAssembled = snap.Stats.FoobarsAssembled
	f.stats.FoobarsSold = snap.Stats.FoobarsSold
	f.stats.RobotsBought = snap.Stats.RobotsBought
	f.stats.Earned = snap.Stats.Earned

	if snap.Header.Digest != "" && snap.Header.Digest != f.StateDigest() {
		return nil, fmt.Errorf("snapshot digest mismatch at tick %d", snap.Header.Tick)
	}
	return f, nil
}

func kindMapOut(m map[tasks.Kind]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
