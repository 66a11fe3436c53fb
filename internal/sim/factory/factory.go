package factory

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/factory/logic/rng"
	"foobartory.dev/internal/sim/tasks"
	"foobartory.dev/internal/sim/tuning"
)

var (
	ErrCapacityReached = errors.New("robot capacity reached")
	ErrPassLog         = errors.New("pass log")
)

type Config struct {
	Seed          int64
	TickSeconds   float64
	RobotCap      int
	InitialRobots int
}

func (c *Config) applyDefaults() {
	d := tuning.Defaults()
	if c.TickSeconds <= 0 {
		c.TickSeconds = d.TickSeconds
	}
	if c.RobotCap <= 0 {
		c.RobotCap = d.RobotCap
	}
	if c.InitialRobots <= 0 {
		c.InitialRobots = d.InitialRobots
	}
}

func ConfigFromTuning(t tuning.Tuning) Config {
	return Config{
		Seed:          t.Seed,
		TickSeconds:   t.TickSeconds,
		RobotCap:      t.RobotCap,
		InitialRobots: t.InitialRobots,
	}
}

// Event is an observation emitted as robots start and finish work.
type Event struct {
	Type     string     `json:"type"`
	Tick     uint64     `json:"tick"`
	RobotID  uint64     `json:"robot_id"`
	Robot    string     `json:"robot"`
	Kind     tasks.Kind `json:"kind"`
	Task     string     `json:"task"`
	Target   float64    `json:"target_duration,omitempty"`
	Elapsed  float64    `json:"elapsed,omitempty"`
	NewRobot string     `json:"new_robot,omitempty"`
	Storage  Storage    `json:"storage"`
}

type EventSink interface {
	OnEvent(e Event)
}

// PassLogger receives one entry per completed pass over the roster.
type PassLogger interface {
	WritePass(entry PassLogEntry) error
}

type Selection struct {
	RobotID uint64     `json:"robot_id"`
	Kind    tasks.Kind `json:"kind"`
}

type PassLogEntry struct {
	Tick       uint64      `json:"tick"`
	SimSeconds float64     `json:"sim_seconds"`
	Selections []Selection `json:"selections,omitempty"`
	Storage    Storage     `json:"storage"`
	Digest     string      `json:"digest"`
}

type Stats struct {
	Selections       map[tasks.Kind]int
	Completed        map[tasks.Kind]int
	FoobarsAssembled int
	FoobarsSold      int
	RobotsBought     int
	Earned           int
}

func newStats() Stats {
	return Stats{
		Selections: map[tasks.Kind]int{},
		Completed:  map[tasks.Kind]int{},
	}
}

func (s Stats) clone() Stats {
	out := newStats()
	for k, v := range s.Selections {
		out.Selections[k] = v
	}
	for k, v := range s.Completed {
		out.Completed[k] = v
	}
	out.FoobarsAssembled = s.FoobarsAssembled
	out.FoobarsSold = s.FoobarsSold
	out.RobotsBought = s.RobotsBought
	out.Earned = s.Earned
	return out
}

// Pacer delays each robot tick in real time. *rate.Limiter satisfies it.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Factory is a single-threaded simulation. A robot's whole tick, from task
// selection to effect application, completes before the next robot's tick
// begins, so the pool needs no locking. Not safe for concurrent use.
type Factory struct {
	cfg     Config
	catalog *catalogs.Catalog
	tasks   map[tasks.Kind]Task

	pool *Pool
	src  *rand.PCG
	sel  *Selector

	// Completed passes over the roster.
	tick uint64

	selections []Selection
	stats      Stats

	sink       EventSink
	passLogger PassLogger
}

func New(cfg Config, cat *catalogs.Catalog) (*Factory, error) {
	cfg.applyDefaults()
	if cat == nil {
		cat = catalogs.Default()
	}
	ts, err := buildTasks(cat)
	if err != nil {
		return nil, err
	}
	src := rng.NewSource(cfg.Seed)
	f := &Factory{
		cfg:     cfg,
		catalog: cat,
		tasks:   ts,
		pool:    NewPool(),
		src:     src,
		sel:     NewSelector(cat, rand.New(src)),
		stats:   newStats(),
	}
	for i := 0; i < cfg.InitialRobots; i++ {
		f.pool.AddRobot(f.pool.newRobot())
	}
	return f, nil
}

func (f *Factory) Config() Config             { return f.cfg }
func (f *Factory) Catalog() *catalogs.Catalog { return f.catalog }
func (f *Factory) Pool() *Pool                { return f.pool }
func (f *Factory) CurrentTick() uint64        { return f.tick }
func (f *Factory) SimSeconds() float64        { return float64(f.tick) * f.cfg.TickSeconds }
func (f *Factory) Stats() Stats               { return f.stats.clone() }
func (f *Factory) SetEventSink(s EventSink)   { f.sink = s }
func (f *Factory) SetPassLogger(l PassLogger) { f.passLogger = l }
func (f *Factory) Done() bool                 { return f.pool.RobotCount() >= f.cfg.RobotCap }
func (f *Factory) TaskFor(k tasks.Kind) Task  { return f.tasks[k] }

func (f *Factory) emit(e Event) {
	if f.sink != nil {
		f.sink.OnEvent(e)
	}
}

// Step runs one full pass over the roster without pacing.
func (f *Factory) Step() (PassLogEntry, error) {
	return f.step(context.Background(), nil)
}

// StepOnce runs one pass and returns the pass index and the resulting digest.
func (f *Factory) StepOnce() (uint64, string, error) {
	nowTick := f.tick
	entry, err := f.step(context.Background(), nil)
	return nowTick, entry.Digest, err
}

// step ticks every robot present at the start of the pass, in roster order.
// Robots bought during the pass are appended to the roster and first ticked
// in the next pass.
func (f *Factory) step(ctx context.Context, pacer Pacer) (PassLogEntry, error) {
	if f.Done() {
		return PassLogEntry{}, ErrCapacityReached
	}
	nowTick := f.tick
	f.selections = f.selections[:0]
	roster := f.pool.Robots()
	for _, r := range roster {
		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return PassLogEntry{}, err
			}
		}
		if err := f.TickRobot(r); err != nil {
			return PassLogEntry{}, fmt.Errorf("tick %d: %w", nowTick, err)
		}
	}

	f.tick++
	entry := PassLogEntry{
		Tick:       nowTick,
		SimSeconds: f.SimSeconds(),
		Storage:    f.pool.Storage(),
		Digest:     f.StateDigest(),
	}
	if len(f.selections) > 0 {
		entry.Selections = append([]Selection(nil), f.selections...)
	}

	if f.passLogger != nil {
		if err := f.passLogger.WritePass(entry); err != nil {
			return entry, fmt.Errorf("%w: %w", ErrPassLog, err)
		}
	}
	return entry, nil
}

type Result struct {
	Ticks      uint64
	SimSeconds float64
	Storage    Storage
	Digest     string
	Stats      Stats
}

func (f *Factory) Result() Result {
	return Result{
		Ticks:      f.tick,
		SimSeconds: f.SimSeconds(),
		Storage:    f.pool.Storage(),
		Digest:     f.StateDigest(),
		Stats:      f.Stats(),
	}
}

// Run steps until the roster reaches the robot cap. The cap is only checked
// between passes. pacer may be nil.
func (f *Factory) Run(ctx context.Context, pacer Pacer) (Result, error) {
	for !f.Done() {
		if err := ctx.Err(); err != nil {
			return f.Result(), err
		}
		if _, err := f.step(ctx, pacer); err != nil {
			return f.Result(), err
		}
	}
	return f.Result(), nil
}
