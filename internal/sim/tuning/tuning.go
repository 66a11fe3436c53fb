package tuning

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed tuning.schema.json
var schemaJSON string

type Tuning struct {
	// Simulated seconds added to a working robot's elapsed time per tick.
	TickSeconds float64 `yaml:"tick_seconds" json:"tick_seconds"`

	RobotCap      int `yaml:"robot_cap" json:"robot_cap"`
	InitialRobots int `yaml:"initial_robots" json:"initial_robots"`

	// Seed 0 asks the caller to pick one.
	Seed int64 `yaml:"seed" json:"seed"`

	// Speed scales the real-time delay between robot ticks (TickSeconds*Speed).
	Speed float64 `yaml:"speed" json:"speed"`
}

func Defaults() Tuning {
	return Tuning{
		TickSeconds:   0.1,
		RobotCap:      30,
		InitialRobots: 2,
	}
}

// Load reads a tuning file over the defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (Tuning, error) {
	t := Defaults()
	if err := validateSchema(raw); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Normalize flips a negative speed instead of rejecting it.
func (t *Tuning) Normalize() {
	t.Speed = math.Abs(t.Speed)
}

func (t Tuning) Validate() error {
	if !(t.TickSeconds > 0) || math.IsInf(t.TickSeconds, 0) {
		return fmt.Errorf("tick_seconds must be > 0, got %v", t.TickSeconds)
	}
	if t.InitialRobots <= 0 {
		return fmt.Errorf("initial_robots must be > 0, got %d", t.InitialRobots)
	}
	if t.RobotCap <= 0 {
		return fmt.Errorf("robot_cap must be > 0, got %d", t.RobotCap)
	}
	if math.IsNaN(t.Speed) || math.IsInf(t.Speed, 0) {
		return fmt.Errorf("speed must be finite")
	}
	return nil
}

var schema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("tuning.schema.json", schemaJSON)
})

func validateSchema(raw []byte) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	// Round-trip through JSON so the validator sees JSON types.
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	s, err := schema()
	if err != nil {
		return err
	}
	return s.Validate(v)
}
