package motor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Applier hands the solved velocity to the physics body.
type Applier interface {
	Apply(body Body, velocity mgl64.Vec3)
	Name() string
}

// DirectAssignment overwrites the body velocity. External pushes applied
// earlier in the step are lost.
type DirectAssignment struct{}

func (DirectAssignment) Apply(body Body, velocity mgl64.Vec3) {
	if body == nil {
		return
	}
	body.SetVelocity(velocity)
}

func (DirectAssignment) Name() string { return ApplicationDirect }

// ForceCorrective adds only the difference to the body's current velocity so
// other forces on the body still take effect.
type ForceCorrective struct{}

func (ForceCorrective) Apply(body Body, velocity mgl64.Vec3) {
	if body == nil {
		return
	}
	body.AddVelocityChange(velocity.Sub(body.Velocity()))
}

func (ForceCorrective) Name() string { return ApplicationForce }

// ApplierFor maps a config application name to its strategy.
func ApplierFor(name string) (Applier, error) {
	switch name {
	case ApplicationDirect:
		return DirectAssignment{}, nil
	case ApplicationForce, "":
		return ForceCorrective{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown application %q", ErrInvalidConfig, name)
	}
}
