package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"foobartory.dev/internal/sim/tasks"
)

// Catalog is the fixed, shared table of task definitions. Order matters:
// weighted selection walks the definitions in this order.
type Catalog struct {
	Tasks  []TaskDef
	ByKind map[tasks.Kind]TaskDef
	Digest string
}

type TaskDef struct {
	Kind       tasks.Kind `json:"kind"`
	Name       string     `json:"name"`
	MinSeconds float64    `json:"min_seconds"`
	MaxSeconds float64    `json:"max_seconds"`
	BaseWeight float64    `json:"base_weight"`
}

// SampleDuration maps u in [0,1) onto the inclusive duration range.
func (d TaskDef) SampleDuration(u float64) float64 {
	return d.MinSeconds + (d.MaxSeconds-d.MinSeconds)*u
}

func defaultDefs() []TaskDef {
	return []TaskDef{
		{Kind: tasks.KindMineFoo, Name: "mining foo", MinSeconds: 1, MaxSeconds: 1, BaseWeight: 30},
		{Kind: tasks.KindMineBar, Name: "mining bar", MinSeconds: 0.5, MaxSeconds: 2, BaseWeight: 15},
		{Kind: tasks.KindAssembleFoobar, Name: "creating foobar", MinSeconds: 2, MaxSeconds: 2, BaseWeight: 40},
		{Kind: tasks.KindSellFoobar, Name: "selling foobar", MinSeconds: 10, MaxSeconds: 10, BaseWeight: 1},
		{Kind: tasks.KindBuyRobot, Name: "buying robot", MinSeconds: 0, MaxSeconds: 0, BaseWeight: 20},
	}
}

// Default returns the production catalog.
func Default() *Catalog {
	c, err := New(defaultDefs())
	if err != nil {
		panic(err)
	}
	return c
}

func New(defs []TaskDef) (*Catalog, error) {
	c := &Catalog{
		Tasks:  make([]TaskDef, 0, len(defs)),
		ByKind: make(map[tasks.Kind]TaskDef, len(defs)),
	}
	for _, d := range defs {
		if d.Kind == "" {
			return nil, fmt.Errorf("catalog: empty kind")
		}
		if _, dup := c.ByKind[d.Kind]; dup {
			return nil, fmt.Errorf("catalog: duplicate kind %q", d.Kind)
		}
		if d.MinSeconds < 0 || d.MaxSeconds < d.MinSeconds {
			return nil, fmt.Errorf("catalog: %s: bad duration range [%v, %v]", d.Kind, d.MinSeconds, d.MaxSeconds)
		}
		if d.BaseWeight < 0 {
			return nil, fmt.Errorf("catalog: %s: negative weight", d.Kind)
		}
		c.Tasks = append(c.Tasks, d)
		c.ByKind[d.Kind] = d
	}
	raw, err := json.Marshal(c.Tasks)
	if err != nil {
		return nil, err
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

func (c *Catalog) Kinds() []tasks.Kind {
	out := make([]tasks.Kind, 0, len(c.Tasks))
	for _, d := range c.Tasks {
		out = append(out, d.Kind)
	}
	return out
}

func (c *Catalog) Name(k tasks.Kind) string {
	if d, ok := c.ByKind[k]; ok {
		return d.Name
	}
	return string(k)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
