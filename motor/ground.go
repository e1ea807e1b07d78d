package motor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/surfacemotor/common"
)

// GroundSource records which rule grounded the body this step.
type GroundSource int

const (
	GroundNone GroundSource = iota
	GroundContact
	GroundSnap
	GroundSteep
)

func (s GroundSource) String() string {
	switch s {
	case GroundContact:
		return "contact"
	case GroundSnap:
		return "snap"
	case GroundSteep:
		return "steep"
	default:
		return "none"
	}
}

// GroundState is the outcome of one resolve pass.
type GroundState struct {
	Grounded bool
	Normal   mgl64.Vec3
	Velocity mgl64.Vec3
	Source   GroundSource
}

const (
	// snapGraceSteps is how long after losing contact a snap is still allowed.
	snapGraceSteps = 1
	// jumpSnapLockout keeps a fresh jump from being snapped back down.
	jumpSnapLockout = 2
)

var down = mgl64.Vec3{0, -1, 0}

// GroundResolver carries the grounding memory between steps.
type GroundResolver struct {
	StepsSinceLastGrounded int
	StepsSinceLastJump     int

	minGroundDot  float64
	probeDistance float64
	probeBias     float64
	probeMask     uint
	originHeight  float64
}

func newGroundResolver(cfg Config) *GroundResolver {
	r := &GroundResolver{}
	r.configure(cfg)
	return r
}

func (r *GroundResolver) configure(cfg Config) {
	r.minGroundDot = cfg.MinGroundDotProduct()
	r.probeDistance = cfg.ProbeDistance
	r.probeBias = cfg.ProbeBias
	r.probeMask = cfg.ProbeMask
	r.originHeight = cfg.OriginHeight
}

// Resolve decides the grounded flag and contact normal for this step. Rules are
// tried in order: direct contact, ground snap, steep promotion. acc may be
// mutated when steep contacts are promoted.
func (r *GroundResolver) Resolve(acc *ContactAccumulator, prober Prober, origin, velocity mgl64.Vec3) GroundState {
	r.StepsSinceLastGrounded++
	r.StepsSinceLastJump++

	state := GroundState{Normal: common.Up, Velocity: velocity}
	if acc == nil {
		acc = &ContactAccumulator{}
	}

	switch {
	case acc.GroundCount > 0:
		state.Source = GroundContact
		state.Normal = acc.GroundNormal
		if acc.GroundCount > 1 {
			state.Normal = common.SafeNormalize(acc.GroundNormal)
		}
	case r.snapToGround(acc, prober, origin, &state):
		state.Source = GroundSnap
	case r.promoteSteep(acc, &state):
		state.Source = GroundSteep
	}

	if state.Source != GroundNone {
		state.Grounded = true
		r.StepsSinceLastGrounded = 0
	}
	return state
}

func (r *GroundResolver) snapToGround(acc *ContactAccumulator, prober Prober, origin mgl64.Vec3, state *GroundState) bool {
	if prober == nil || r.StepsSinceLastGrounded > snapGraceSteps || r.StepsSinceLastJump <= jumpSnapLockout {
		return false
	}
	start := origin.Add(common.Up.Mul(r.probeBias))
	dist := r.originHeight + r.probeDistance + r.probeBias
	hit, ok := prober.Raycast(start, down, dist, r.probeMask)
	if !ok || hit.Normal.Y() < r.minGroundDot {
		return false
	}

	acc.GroundCount = 1
	acc.GroundNormal = hit.Normal
	state.Normal = hit.Normal
	if dot := state.Velocity.Dot(hit.Normal); dot > 0 {
		state.Velocity = state.Velocity.Sub(hit.Normal.Mul(dot))
	}
	return true
}

func (r *GroundResolver) promoteSteep(acc *ContactAccumulator, state *GroundState) bool {
	if acc.SteepCount <= 1 {
		return false
	}
	acc.SteepNormal = common.SafeNormalize(acc.SteepNormal)
	if acc.SteepNormal.Y() < r.minGroundDot || acc.SteepNormal.LenSqr() == 0 {
		return false
	}
	acc.SteepCount = 0
	acc.GroundCount = 1
	acc.GroundNormal = acc.SteepNormal
	state.Normal = acc.SteepNormal
	return true
}
