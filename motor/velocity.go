package motor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/surfacemotor/common"
)

// VelocitySolver turns desired velocity into a surface-relative velocity with
// bounded acceleration, and arbitrates jumps.
type VelocitySolver struct {
	MaxAcceleration    float64
	MaxAirAcceleration float64
	JumpHeight         float64
}

func newVelocitySolver(cfg Config) VelocitySolver {
	return VelocitySolver{
		MaxAcceleration:    cfg.MaxAcceleration,
		MaxAirAcceleration: cfg.MaxAirAcceleration,
		JumpHeight:         cfg.JumpHeight,
	}
}

// Adjust moves the in-plane part of velocity toward desired by at most
// acceleration*dt. The component along normal is left alone.
func (s VelocitySolver) Adjust(velocity, desired, normal mgl64.Vec3, grounded bool, dt float64) mgl64.Vec3 {
	accel := s.MaxAirAcceleration
	if grounded {
		accel = s.MaxAcceleration
	}
	maxSpeedChange := accel * dt

	current := common.ProjectOnPlane(velocity, normal)
	target := common.ProjectOnPlane(desired, normal)

	// keep speed constant across slopes
	if want, got := desired.Len(), target.Len(); want > 0 && got > 0 {
		target = target.Mul(want / got)
	}

	next := common.MoveTowards(current, target, maxSpeedChange)
	return velocity.Add(next.Sub(current))
}

// Jump adds the upward speed needed to reach JumpHeight under gravity. It
// reports false and returns velocity unchanged when the body is airborne.
func (s VelocitySolver) Jump(velocity mgl64.Vec3, grounded bool, gravity float64) (mgl64.Vec3, bool) {
	if !grounded {
		return velocity, false
	}
	jumpSpeed := math.Sqrt(2 * math.Abs(gravity) * s.JumpHeight)
	if along := velocity.Dot(common.Up); along > 0 {
		jumpSpeed = math.Max(jumpSpeed-along, 0)
	}
	return velocity.Add(common.Up.Mul(jumpSpeed)), true
}
