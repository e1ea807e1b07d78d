package common

import "github.com/go-gl/mathgl/mgl64"

const (
	// FixedDelta is the physics step in seconds.
	FixedDelta = 1.0 / 50.0
	Gravity    = 9.81
)

// Up is the world up axis. Gravity pulls along -Up.
var Up = mgl64.Vec3{0, 1, 0}
