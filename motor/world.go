package motor

import "github.com/go-gl/mathgl/mgl64"

// Hit is the nearest result of a raycast.
type Hit struct {
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Prober answers a single ray query against the physics world. A miss is
// reported as ok == false, never as an error.
type Prober interface {
	Raycast(origin, dir mgl64.Vec3, maxDistance float64, mask uint) (Hit, bool)
}

// World is the part of the physics engine the controller reads each step.
type World interface {
	Prober
	GravityMagnitude() float64
}

// Body is the physical object a controller drives.
type Body interface {
	Position() mgl64.Vec3
	Velocity() mgl64.Vec3
	SetVelocity(v mgl64.Vec3)
	// AddVelocityChange adds dv on top of whatever the engine accumulates
	// for this step, independent of mass.
	AddVelocityChange(dv mgl64.Vec3)
}
