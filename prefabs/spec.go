package prefabs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/surfacemotor/common"
	"github.com/milk9111/surfacemotor/motor"
	"gopkg.in/yaml.v3"
)

var ErrInvalidScenario = errors.New("prefabs: invalid scenario")

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// MotorSpec is a motor tuning prefab. Fields left out of the file keep the
// values of motor.DefaultConfig.
type MotorSpec struct {
	Name  string       `yaml:"name"`
	Motor motor.Config `yaml:"motor"`
}

func LoadMotorSpec(filename string) (MotorSpec, error) {
	data, err := Load(filename)
	if err != nil {
		return MotorSpec{}, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return ParseMotorSpec(filename, data)
}

func ParseMotorSpec(filename string, data []byte) (MotorSpec, error) {
	spec := MotorSpec{Motor: motor.DefaultConfig()}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return MotorSpec{}, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	if err := spec.Motor.Validate(); err != nil {
		return MotorSpec{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

type ScenarioSpec struct {
	Name    string     `yaml:"name"`
	Gravity float64    `yaml:"gravity"`
	Steps   int        `yaml:"steps"`
	Dt      float64    `yaml:"dt"`
	Level   LevelSpec  `yaml:"level"`
	Bodies  []BodySpec `yaml:"bodies"`
}

type LevelSpec struct {
	Segments []SegmentSpec `yaml:"segments"`
	Boxes    []BoxSpec     `yaml:"boxes"`
	Category uint32        `yaml:"category"`

	// KillY enables respawning of bodies that fall below it.
	KillY *float64 `yaml:"kill_y"`
}

type SegmentSpec struct {
	From     [2]float64 `yaml:"from"`
	To       [2]float64 `yaml:"to"`
	Radius   float64    `yaml:"radius"`
	Friction float64    `yaml:"friction"`
}

type BoxSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Friction float64 `yaml:"friction"`
}

type TransformSpec struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation float64 `yaml:"rotation"`
}

type ColliderSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Radius float64 `yaml:"radius"`
}

type KeySpec struct {
	Tick  uint64  `yaml:"tick"`
	MoveX float64 `yaml:"move_x"`
	MoveZ float64 `yaml:"move_z"`
	Jump  bool    `yaml:"jump"`
}

// BodySpec is one dynamic body. A body with Motor set gets a controller;
// Script or Track drive its input.
type BodySpec struct {
	Name      string        `yaml:"name"`
	Player    bool          `yaml:"player"`
	Transform TransformSpec `yaml:"transform"`
	Collider  ColliderSpec  `yaml:"collider"`
	Mass      float64       `yaml:"mass"`
	Friction  float64       `yaml:"friction"`
	Velocity  [2]float64    `yaml:"velocity"`
	Motor     string        `yaml:"motor"`
	Script    string        `yaml:"script"`
	Track     []KeySpec     `yaml:"track"`
}

func LoadScenarioSpec(filename string) (ScenarioSpec, error) {
	spec, err := LoadSpec[ScenarioSpec](filename)
	if err != nil {
		return ScenarioSpec{}, err
	}
	spec = spec.withDefaults()
	if err := spec.Validate(); err != nil {
		return ScenarioSpec{}, fmt.Errorf("prefabs: %s: %w", filename, err)
	}
	return spec, nil
}

func (s ScenarioSpec) withDefaults() ScenarioSpec {
	if s.Gravity == 0 {
		s.Gravity = common.Gravity
	}
	if s.Dt <= 0 {
		s.Dt = common.FixedDelta
	}
	if s.Steps <= 0 {
		s.Steps = 100
	}
	for i := range s.Bodies {
		track := s.Bodies[i].Track
		sort.SliceStable(track, func(a, b int) bool { return track[a].Tick < track[b].Tick })
	}
	return s
}

func (s ScenarioSpec) Validate() error {
	if s.Gravity < 0 {
		return fmt.Errorf("%w: gravity %v is negative", ErrInvalidScenario, s.Gravity)
	}
	for _, b := range s.Bodies {
		if b.Collider.Radius <= 0 && (b.Collider.Width <= 0 || b.Collider.Height <= 0) {
			return fmt.Errorf("%w: body %q needs a radius or a width and height", ErrInvalidScenario, b.Name)
		}
		if b.Script != "" && len(b.Track) > 0 {
			return fmt.Errorf("%w: body %q has both a script and a track", ErrInvalidScenario, b.Name)
		}
	}
	return nil
}
