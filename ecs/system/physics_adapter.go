package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/surfacemotor/motor"
)

// SpaceProbe answers motor ray queries against a cp.Space. Shapes in the
// probe's group are skipped.
type SpaceProbe struct {
	space *cp.Space
	group uint
}

func (p *SpaceProbe) Raycast(origin, dir mgl64.Vec3, maxDistance float64, mask uint) (motor.Hit, bool) {
	if p == nil || p.space == nil || maxDistance <= 0 {
		return motor.Hit{}, false
	}
	start := cp.Vector{X: origin.X(), Y: origin.Y()}
	end := start.Add(cp.Vector{X: dir.X(), Y: dir.Y()}.Mult(maxDistance))
	filter := cp.ShapeFilter{Group: p.group, Categories: cp.ALL_CATEGORIES, Mask: mask}

	info := p.space.SegmentQueryFirst(start, end, 0, filter)
	if info.Shape == nil {
		return motor.Hit{}, false
	}
	return motor.Hit{
		Point:    mgl64.Vec3{info.Point.X, info.Point.Y, 0},
		Normal:   mgl64.Vec3{info.Normal.X, info.Normal.Y, 0},
		Distance: info.Alpha * maxDistance,
	}, true
}

func (p *SpaceProbe) GravityMagnitude() float64 {
	if p == nil || p.space == nil {
		return 0
	}
	return p.space.Gravity().Length()
}

// BodyAdapter exposes a cp.Body to the motor. The z axis is dropped.
type BodyAdapter struct {
	Body *cp.Body
}

func (b BodyAdapter) Position() mgl64.Vec3 {
	p := b.Body.Position()
	return mgl64.Vec3{p.X, p.Y, 0}
}

func (b BodyAdapter) Velocity() mgl64.Vec3 {
	v := b.Body.Velocity()
	return mgl64.Vec3{v.X, v.Y, 0}
}

func (b BodyAdapter) SetVelocity(v mgl64.Vec3) {
	b.Body.SetVelocityVector(cp.Vector{X: v.X(), Y: v.Y()})
}

// AddVelocityChange applies dv as an impulse at the center of gravity, so the
// change adds to whatever the solver produces this step.
func (b BodyAdapter) AddVelocityChange(dv mgl64.Vec3) {
	m := b.Body.Mass()
	b.Body.ApplyImpulseAtLocalPoint(cp.Vector{X: dv.X() * m, Y: dv.Y() * m}, cp.Vector{})
}
