package tasks

type Kind string

const (
	KindMineFoo        Kind = "MINE_FOO"
	KindMineBar        Kind = "MINE_BAR"
	KindAssembleFoobar Kind = "ASSEMBLE_FOOBAR"
	KindSellFoobar     Kind = "SELL_FOOBAR"
	KindBuyRobot       Kind = "BUY_ROBOT"
)

// WorkTask is the single in-flight task of a robot.
type WorkTask struct {
	Kind Kind

	// Simulated seconds. Elapsed grows by the tick increment once per tick.
	Target  float64
	Elapsed float64

	StartedTick uint64
	WorkTicks   int // ticks spent working since start

	// Held is what the start effect took out of the pool; the completion
	// effect consumes it.
	Held Held
}

// Done reports whether the accumulated work has reached the sampled target.
func (t *WorkTask) Done() bool {
	return t.Elapsed >= t.Target
}

type Held struct {
	FooIDs   []uint64
	BarIDs   []uint64
	Foobars  []Pair
	Currency int
}

// Pair is duplicated here to avoid import cycles (tasks is used by factory).
type Pair struct{ FooID, BarID uint64 }
