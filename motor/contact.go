package motor

import "github.com/go-gl/mathgl/mgl64"

// steepFloor separates near-vertical walls from overhangs.
const steepFloor = -0.01

// ContactAccumulator sorts the contact normals reported during one physics
// step into ground and steep buckets.
type ContactAccumulator struct {
	GroundNormal mgl64.Vec3
	SteepNormal  mgl64.Vec3
	GroundCount  int
	SteepCount   int

	minGroundDot float64
}

func NewContactAccumulator(minGroundDot float64) *ContactAccumulator {
	return &ContactAccumulator{minGroundDot: minGroundDot}
}

// Record classifies one contact point. Ceiling-like normals are dropped.
func (a *ContactAccumulator) Record(normal mgl64.Vec3) {
	if a == nil {
		return
	}
	if normal.Y() >= a.minGroundDot {
		a.GroundCount++
		a.GroundNormal = a.GroundNormal.Add(normal)
	} else if normal.Y() > steepFloor {
		a.SteepCount++
		a.SteepNormal = a.SteepNormal.Add(normal)
	}
}

// Reset clears both buckets. It runs once per step after the solver.
func (a *ContactAccumulator) Reset() {
	if a == nil {
		return
	}
	a.GroundNormal = mgl64.Vec3{}
	a.SteepNormal = mgl64.Vec3{}
	a.GroundCount = 0
	a.SteepCount = 0
}

func (a *ContactAccumulator) setMinGroundDot(v float64) {
	a.minGroundDot = v
}
