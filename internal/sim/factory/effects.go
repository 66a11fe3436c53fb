package factory

import (
	"fmt"

	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/tasks"
)

const (
	FoobarPrice       = 10
	RobotCostCurrency = 3
	RobotCostFoo      = 6
)

// Task is one of the fixed task kinds. Start commits resources when a robot
// picks the task; Complete consumes them exactly once when the work is done.
type Task interface {
	Def() catalogs.TaskDef
	Start(p *Pool) (tasks.Held, error)
	Complete(p *Pool, held tasks.Held) (Outcome, error)
}

// Outcome describes what a completion effect produced.
type Outcome struct {
	Foo      *Foo
	Bar      *Bar
	Foobar   *Foobar
	Earned   int
	NewRobot *Robot
}

type taskBase struct{ def catalogs.TaskDef }

func (t taskBase) Def() catalogs.TaskDef { return t.def }

type mineFooTask struct{ taskBase }

func (mineFooTask) Start(*Pool) (tasks.Held, error) { return tasks.Held{}, nil }

func (mineFooTask) Complete(p *Pool, _ tasks.Held) (Outcome, error) {
	f := p.AddFoo()
	return Outcome{Foo: &f}, nil
}

type mineBarTask struct{ taskBase }

func (mineBarTask) Start(*Pool) (tasks.Held, error) { return tasks.Held{}, nil }

func (mineBarTask) Complete(p *Pool, _ tasks.Held) (Outcome, error) {
	b := p.AddBar()
	return Outcome{Bar: &b}, nil
}

type assembleFoobarTask struct{ taskBase }

func (assembleFoobarTask) Start(p *Pool) (tasks.Held, error) {
	foo, err := p.RemoveFoo(1)
	if err != nil {
		return tasks.Held{}, err
	}
	held := tasks.Held{FooIDs: []uint64{foo[0].ID}}
	bar, err := p.RemoveBar(1)
	if err != nil {
		// The foo stays removed.
		return held, err
	}
	held.BarIDs = []uint64{bar[0].ID}
	return held, nil
}

func (assembleFoobarTask) Complete(p *Pool, held tasks.Held) (Outcome, error) {
	if len(held.FooIDs) != 1 || len(held.BarIDs) != 1 {
		return Outcome{}, fmt.Errorf("assemble holds %d foo and %d bar: %w", len(held.FooIDs), len(held.BarIDs), ErrInsufficientResources)
	}
	fb := p.AddFoobar(held.FooIDs[0], held.BarIDs[0])
	return Outcome{Foobar: &fb}, nil
}

type sellFoobarTask struct{ taskBase }

func (sellFoobarTask) Start(p *Pool) (tasks.Held, error) {
	fb, err := p.RemoveLatestFoobar()
	if err != nil {
		return tasks.Held{}, err
	}
	return tasks.Held{Foobars: []tasks.Pair{{FooID: fb.FooID, BarID: fb.BarID}}}, nil
}

func (sellFoobarTask) Complete(p *Pool, held tasks.Held) (Outcome, error) {
	if len(held.Foobars) != 1 {
		return Outcome{}, fmt.Errorf("sell holds %d foobar: %w", len(held.Foobars), ErrInsufficientResources)
	}
	if err := p.AddCurrency(FoobarPrice); err != nil {
		return Outcome{}, err
	}
	return Outcome{Earned: FoobarPrice}, nil
}

type buyRobotTask struct{ taskBase }

func (buyRobotTask) Start(p *Pool) (tasks.Held, error) {
	if err := p.AddCurrency(-RobotCostCurrency); err != nil {
		return tasks.Held{}, err
	}
	held := tasks.Held{Currency: RobotCostCurrency}
	foo, err := p.RemoveFoo(RobotCostFoo)
	if err != nil {
		// The currency stays spent.
		return held, err
	}
	held.FooIDs = make([]uint64, 0, len(foo))
	for _, f := range foo {
		held.FooIDs = append(held.FooIDs, f.ID)
	}
	return held, nil
}

func (buyRobotTask) Complete(p *Pool, held tasks.Held) (Outcome, error) {
	if held.Currency != RobotCostCurrency || len(held.FooIDs) != RobotCostFoo {
		return Outcome{}, fmt.Errorf("buy holds %d currency and %d foo: %w", held.Currency, len(held.FooIDs), ErrInsufficientResources)
	}
	r := p.newRobot()
	p.AddRobot(r)
	return Outcome{NewRobot: r}, nil
}

type taskCtor func(catalogs.TaskDef) Task

var taskDispatch = map[tasks.Kind]taskCtor{
	tasks.KindMineFoo:        func(d catalogs.TaskDef) Task { return mineFooTask{taskBase{d}} },
	tasks.KindMineBar:        func(d catalogs.TaskDef) Task { return mineBarTask{taskBase{d}} },
	tasks.KindAssembleFoobar: func(d catalogs.TaskDef) Task { return assembleFoobarTask{taskBase{d}} },
	tasks.KindSellFoobar:     func(d catalogs.TaskDef) Task { return sellFoobarTask{taskBase{d}} },
	tasks.KindBuyRobot:       func(d catalogs.TaskDef) Task { return buyRobotTask{taskBase{d}} },
}

// buildTasks binds every catalog definition to its effects. The catalog and
// the dispatch table must cover exactly the same kinds.
func buildTasks(cat *catalogs.Catalog) (map[tasks.Kind]Task, error) {
	if err := validateDispatchMap("taskDispatch", taskDispatch, cat.Kinds()); err != nil {
		return nil, err
	}
	out := make(map[tasks.Kind]Task, len(cat.Tasks))
	for _, d := range cat.Tasks {
		out[d.Kind] = taskDispatch[d.Kind](d)
	}
	return out, nil
}

func validateDispatchMap[T any](name string, handlers map[tasks.Kind]T, supported []tasks.Kind) error {
	allowed := make(map[tasks.Kind]struct{}, len(supported))
	for _, k := range supported {
		if k == "" {
			return fmt.Errorf("%s: empty supported key", name)
		}
		if _, ok := allowed[k]; ok {
			return fmt.Errorf("%s: duplicate supported key %q", name, k)
		}
		allowed[k] = struct{}{}
	}
	if len(handlers) != len(allowed) {
		return fmt.Errorf("%s size mismatch: got=%d want=%d", name, len(handlers), len(allowed))
	}
	for k := range handlers {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("%s has unsupported key %q", name, k)
		}
	}
	return nil
}
