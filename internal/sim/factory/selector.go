package factory

import (
	"errors"
	"math/rand/v2"

	"foobartory.dev/internal/sim/catalogs"
	"foobartory.dev/internal/sim/factory/logic/sampling"
	"foobartory.dev/internal/sim/tasks"
)

var ErrNoEligibleTask = errors.New("no eligible task")

// Eligible reports whether the pool can currently support k's start effect.
func Eligible(k tasks.Kind, p *Pool) bool {
	switch k {
	case tasks.KindAssembleFoobar:
		return p.FooCount() > 0 && p.BarCount() > 0
	case tasks.KindSellFoobar:
		return p.FoobarCount() > 0
	case tasks.KindBuyRobot:
		return p.Currency() >= RobotCostCurrency && p.FooCount() >= RobotCostFoo
	default:
		return true
	}
}

// EligibleWeights returns every catalog kind's base weight, zeroed where the
// pool fails the kind's precondition.
func EligibleWeights(cat *catalogs.Catalog, p *Pool) map[tasks.Kind]float64 {
	out := make(map[tasks.Kind]float64, len(cat.Tasks))
	for _, d := range cat.Tasks {
		w := d.BaseWeight
		if !Eligible(d.Kind, p) {
			w = 0
		}
		out[d.Kind] = w
	}
	return out
}

// Selector draws tasks for idle robots. It keeps no memory of earlier draws.
type Selector struct {
	cat *catalogs.Catalog
	rng *rand.Rand
}

func NewSelector(cat *catalogs.Catalog, rng *rand.Rand) *Selector {
	return &Selector{cat: cat, rng: rng}
}

func (s *Selector) Select(p *Pool) (catalogs.TaskDef, error) {
	weights := EligibleWeights(s.cat, p)
	ordered := make([]float64, len(s.cat.Tasks))
	for i, d := range s.cat.Tasks {
		ordered[i] = weights[d.Kind]
	}
	i := sampling.Pick(ordered, s.rng.Float64())
	if i < 0 {
		return catalogs.TaskDef{}, ErrNoEligibleTask
	}
	return s.cat.Tasks[i], nil
}

// Duration samples a target uniformly from d's range. A draw is consumed even
// for fixed ranges so the stream does not depend on which task was picked.
func (s *Selector) Duration(d catalogs.TaskDef) float64 {
	return d.SampleDuration(s.rng.Float64())
}
