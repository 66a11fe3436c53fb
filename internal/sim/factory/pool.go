package factory

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInsufficientCurrency  = errors.New("insufficient currency")
	ErrEmptyPool             = errors.New("empty pool")
)

type Foo struct{ ID uint64 }

type Bar struct{ ID uint64 }

// Foobar records the foo and bar ids paired at assembly time. It is a
// historical pairing; the paired units no longer exist in the pool.
type Foobar struct{ FooID, BarID uint64 }

// Pool is the shared storage every task reads and mutates. Removals are
// last-in-first-out. Mutations are applied immediately and never rolled
// back, so an effect that fails halfway leaves its earlier changes in place.
type Pool struct {
	currency int

	foo      []Foo
	maxFooID uint64
	bar      []Bar
	maxBarID uint64
	foobar   []Foobar

	robots       []*Robot
	nextRobotNum uint64
}

func NewPool() *Pool {
	return &Pool{}
}

func (p *Pool) Currency() int    { return p.currency }
func (p *Pool) FooCount() int    { return len(p.foo) }
func (p *Pool) BarCount() int    { return len(p.bar) }
func (p *Pool) FoobarCount() int { return len(p.foobar) }
func (p *Pool) RobotCount() int  { return len(p.robots) }

// Robots returns the roster in creation order. The slice is a copy.
func (p *Pool) Robots() []*Robot {
	out := make([]*Robot, len(p.robots))
	copy(out, p.robots)
	return out
}

func (p *Pool) FooIDs() []uint64 {
	out := make([]uint64, len(p.foo))
	for i, f := range p.foo {
		out[i] = f.ID
	}
	return out
}

func (p *Pool) BarIDs() []uint64 {
	out := make([]uint64, len(p.bar))
	for i, b := range p.bar {
		out[i] = b.ID
	}
	return out
}

func (p *Pool) Foobars() []Foobar {
	out := make([]Foobar, len(p.foobar))
	copy(out, p.foobar)
	return out
}

func (p *Pool) AddFoo() Foo {
	p.maxFooID++
	f := Foo{ID: p.maxFooID}
	p.foo = append(p.foo, f)
	return f
}

func (p *Pool) AddBar() Bar {
	p.maxBarID++
	b := Bar{ID: p.maxBarID}
	p.bar = append(p.bar, b)
	return b
}

// RemoveFoo pops the n most recently added foo, newest first.
func (p *Pool) RemoveFoo(n int) ([]Foo, error) {
	if n < 0 || len(p.foo) < n {
		return nil, fmt.Errorf("remove %d foo (have %d): %w", n, len(p.foo), ErrInsufficientResources)
	}
	out := make([]Foo, 0, n)
	for i := 0; i < n; i++ {
		last := len(p.foo) - 1
		out = append(out, p.foo[last])
		p.foo = p.foo[:last]
	}
	return out, nil
}

// RemoveBar pops the n most recently added bar, newest first.
func (p *Pool) RemoveBar(n int) ([]Bar, error) {
	if n < 0 || len(p.bar) < n {
		return nil, fmt.Errorf("remove %d bar (have %d): %w", n, len(p.bar), ErrInsufficientResources)
	}
	out := make([]Bar, 0, n)
	for i := 0; i < n; i++ {
		last := len(p.bar) - 1
		out = append(out, p.bar[last])
		p.bar = p.bar[:last]
	}
	return out, nil
}

func (p *Pool) AddFoobar(fooID, barID uint64) Foobar {
	fb := Foobar{FooID: fooID, BarID: barID}
	p.foobar = append(p.foobar, fb)
	return fb
}

func (p *Pool) RemoveLatestFoobar() (Foobar, error) {
	if len(p.foobar) == 0 {
		return Foobar{}, fmt.Errorf("remove foobar: %w", ErrEmptyPool)
	}
	last := len(p.foobar) - 1
	fb := p.foobar[last]
	p.foobar = p.foobar[:last]
	return fb, nil
}

// AddCurrency applies delta, which may be negative, as long as the balance
// stays non-negative.
func (p *Pool) AddCurrency(delta int) error {
	if p.currency+delta < 0 {
		return fmt.Errorf("spend %d (have %d): %w", -delta, p.currency, ErrInsufficientCurrency)
	}
	p.currency += delta
	return nil
}

// newRobot allocates the next sequential robot id. Ids are never reused.
func (p *Pool) newRobot() *Robot {
	p.nextRobotNum++
	return &Robot{ID: p.nextRobotNum}
}

func (p *Pool) AddRobot(r *Robot) {
	if r == nil {
		return
	}
	p.robots = append(p.robots, r)
}

// Storage is a point-in-time view of the pool counters.
type Storage struct {
	Currency int `json:"currency"`
	Foo      int `json:"foo"`
	Bar      int `json:"bar"`
	Foobar   int `json:"foobar"`
	Robots   int `json:"robots"`
}

func (p *Pool) Storage() Storage {
	return Storage{
		Currency: p.currency,
		Foo:      len(p.foo),
		Bar:      len(p.bar),
		Foobar:   len(p.foobar),
		Robots:   len(p.robots),
	}
}
