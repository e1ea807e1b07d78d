package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SafeNormalize returns v scaled to unit length, or the zero vector when v has
// no length. mgl64's Normalize divides by zero in that case.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// ProjectOnPlane removes the component of v along the plane normal n.
// n is expected to be unit length.
func ProjectOnPlane(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// MoveTowards steps current toward target by at most maxDelta and never
// overshoots.
func MoveTowards(current, target mgl64.Vec3, maxDelta float64) mgl64.Vec3 {
	delta := target.Sub(current)
	dist := delta.Len()
	if dist <= maxDelta || dist == 0 {
		return target
	}
	return current.Add(delta.Mul(maxDelta / dist))
}

// ClampMagnitude shortens v to maxLen if it is longer.
func ClampMagnitude(v mgl64.Vec3, maxLen float64) mgl64.Vec3 {
	l := v.Len()
	if l <= maxLen || l == 0 {
		return v
	}
	return v.Mul(maxLen / l)
}

// MinGroundDot converts a max walkable slope in degrees to the minimum normal.y
// a contact needs to count as ground.
func MinGroundDot(maxGroundAngle float64) float64 {
	return math.Cos(maxGroundAngle * math.Pi / 180)
}
