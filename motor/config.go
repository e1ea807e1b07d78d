package motor

import (
	"errors"
	"fmt"
	"math"

	"github.com/milk9111/surfacemotor/common"
)

var ErrInvalidConfig = errors.New("motor: invalid config")

const (
	ApplicationDirect = "direct"
	ApplicationForce  = "force"

	defaultProbeBias = 0.1
)

// Config holds the per-controller tuning. It is fixed for the lifetime of a
// controller except through Reconfigure.
type Config struct {
	MaxGroundAngle     float64 `yaml:"max_ground_angle"`
	MaxSpeed           float64 `yaml:"max_speed"`
	MaxAcceleration    float64 `yaml:"max_acceleration"`
	MaxAirAcceleration float64 `yaml:"max_air_acceleration"`
	JumpHeight         float64 `yaml:"jump_height"`
	ProbeDistance      float64 `yaml:"probe_distance"`
	ProbeMask          uint    `yaml:"probe_mask"`
	ProbeBias          float64 `yaml:"probe_bias"`
	OriginHeight       float64 `yaml:"-"`
	Application        string  `yaml:"application"`
}

// DefaultConfig fills the fields a motor prefab leaves out.
func DefaultConfig() Config {
	return Config{
		MaxGroundAngle:     25,
		MaxSpeed:           10,
		MaxAcceleration:    10,
		MaxAirAcceleration: 1,
		JumpHeight:         2,
		ProbeDistance:      1,
		ProbeMask:          ^uint(0),
		ProbeBias:          defaultProbeBias,
		Application:        ApplicationForce,
	}
}

// MinGroundDotProduct is the smallest normal.y that still counts as ground.
func (c Config) MinGroundDotProduct() float64 {
	return common.MinGroundDot(c.MaxGroundAngle)
}

func (c Config) withDefaults() Config {
	if c.ProbeBias <= 0 {
		c.ProbeBias = defaultProbeBias
	}
	if c.Application == "" {
		c.Application = ApplicationForce
	}
	return c
}

// Validate rejects values outside the ranges the solver assumes. NaN and
// infinities fail every range.
func (c Config) Validate() error {
	if !(c.MaxGroundAngle >= 0 && c.MaxGroundAngle <= 90) {
		return fmt.Errorf("%w: max_ground_angle %v outside [0, 90]", ErrInvalidConfig, c.MaxGroundAngle)
	}
	if !nonNegative(c.MaxSpeed) {
		return fmt.Errorf("%w: max_speed %v must be a finite value >= 0", ErrInvalidConfig, c.MaxSpeed)
	}
	if !nonNegative(c.MaxAcceleration) || !nonNegative(c.MaxAirAcceleration) {
		return fmt.Errorf("%w: accelerations must be finite and >= 0 (ground %v, air %v)", ErrInvalidConfig, c.MaxAcceleration, c.MaxAirAcceleration)
	}
	if !nonNegative(c.JumpHeight) {
		return fmt.Errorf("%w: jump_height %v must be a finite value >= 0", ErrInvalidConfig, c.JumpHeight)
	}
	if !nonNegative(c.ProbeDistance) {
		return fmt.Errorf("%w: probe_distance %v must be a finite value >= 0", ErrInvalidConfig, c.ProbeDistance)
	}
	if math.IsNaN(c.ProbeBias) || math.IsInf(c.ProbeBias, 0) {
		return fmt.Errorf("%w: probe_bias %v is not finite", ErrInvalidConfig, c.ProbeBias)
	}
	if !nonNegative(c.OriginHeight) {
		return fmt.Errorf("%w: origin_height %v must be a finite value >= 0", ErrInvalidConfig, c.OriginHeight)
	}
	switch c.Application {
	case "", ApplicationDirect, ApplicationForce:
	default:
		return fmt.Errorf("%w: unknown application %q", ErrInvalidConfig, c.Application)
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}
