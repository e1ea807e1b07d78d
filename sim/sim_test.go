package sim

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/prefabs"
	"github.com/stretchr/testify/require"
)

func motorEvents(s *Simulation, kind ecs.MotorEventKind) []ecs.MotorEvent {
	var out []ecs.MotorEvent
	for _, evt := range s.Events() {
		if evt.Kind == kind {
			out = append(out, evt)
		}
	}
	return out
}

func TestFlatRunReachesMaxSpeed(t *testing.T) {
	s, err := Load("scenarios/flat_run.yaml")
	require.NoError(t, err)

	ctrl, ok := s.Controller("runner")
	require.True(t, ok)
	require.InDelta(t, 1.0, ctrl.Config().OriginHeight, 1e-9)

	trace, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, trace, s.Spec().Steps)

	maxStep := ctrl.Config().MaxAcceleration * s.Spec().Dt
	for i := 1; i < len(trace); i++ {
		dv := math.Abs(trace[i].Velocity.X() - trace[i-1].Velocity.X())
		require.LessOrEqual(t, dv, maxStep+1e-6, "tick %d", trace[i].Tick)
	}
	for _, sample := range trace[5:] {
		require.True(t, sample.Grounded, "tick %d", sample.Tick)
	}

	last := trace[len(trace)-1]
	require.InDelta(t, ctrl.Config().MaxSpeed, last.Velocity.X(), 1e-3)
	require.InDelta(t, 0, last.Velocity.Y(), 0.05)
	require.Greater(t, last.Position.X(), 20.0)
	require.InDelta(t, 1.0, last.Normal.Y(), 1e-9)

	require.Len(t, motorEvents(s, ecs.MotorEventLanded), 1)
	require.Empty(t, motorEvents(s, ecs.MotorEventLeftGround))
}

func TestRampClimbStaysGrounded(t *testing.T) {
	s, err := Load("scenarios/ramp.yaml")
	require.NoError(t, err)

	trace, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, trace, s.Spec().Steps)

	incline := mgl64.Vec3{-math.Sin(20 * math.Pi / 180), math.Cos(20 * math.Pi / 180), 0}
	onIncline := 0
	for _, sample := range trace[1:] {
		require.True(t, sample.Grounded, "tick %d", sample.Tick)
		if sample.Normal.Sub(incline).Len() < 0.02 {
			onIncline++
		}
	}
	require.Greater(t, onIncline, 10)

	last := trace[len(trace)-1]
	require.Greater(t, last.Position.X(), 30.0)
	require.InDelta(t, 3.64+1, last.Position.Y(), 0.15)
	require.InDelta(t, 1.0, last.Normal.Y(), 1e-3)
	require.Greater(t, last.Velocity.X(), 5.0)
	require.Empty(t, motorEvents(s, ecs.MotorEventLeftGround))
}

func TestScriptedJump(t *testing.T) {
	s, err := Load("scenarios/jump.yaml")
	require.NoError(t, err)

	_, err = s.Run(context.Background(), 0)
	require.NoError(t, err)

	jumps := motorEvents(s, ecs.MotorEventJumped)
	require.Len(t, jumps, 1)
	require.Equal(t, uint64(30), jumps[0].Tick)

	trace := s.BodyTrace("jumper")
	require.Len(t, trace, s.Spec().Steps)
	before := trace[29].Position.Y()
	peak := before
	for _, sample := range trace[30:] {
		peak = math.Max(peak, sample.Position.Y())
	}
	// jump_height is 1.5; discrete integration lands slightly above it.
	require.InDelta(t, 1.5, peak-before, 0.2)

	landedAfter := false
	for _, evt := range motorEvents(s, ecs.MotorEventLanded) {
		if evt.Tick > 60 {
			landedAfter = true
		}
	}
	require.True(t, landedAfter, "expected a landing well after the jump")
	require.NotEmpty(t, motorEvents(s, ecs.MotorEventLeftGround))

	player, ok := s.Player()
	require.True(t, ok)
	require.Equal(t, "jumper", player)
	require.Empty(t, s.World().Events().Peek())

	// The crate has no motor and is traced without grounding data.
	crate := s.BodyTrace("crate")
	require.NotEmpty(t, crate)
	require.False(t, crate[0].Grounded)
}

func TestReloadKeepsMeasuredOriginHeight(t *testing.T) {
	reloads := make(chan string, 2)
	s, err := Load("scenarios/flat_run.yaml", WithReloads(reloads))
	require.NoError(t, err)

	_, err = s.Run(context.Background(), 10)
	require.NoError(t, err)

	reloads <- "prefabs/motor.yaml"
	reloads <- "prefabs/scripts/run_and_jump.tengo"
	_, err = s.Run(context.Background(), 10)
	require.NoError(t, err)

	ctrl, ok := s.Controller("runner")
	require.True(t, ok)
	require.InDelta(t, 1.0, ctrl.Config().OriginHeight, 1e-9)
	require.True(t, ctrl.Grounded())
	require.Len(t, s.Trace(), 20)

	// A retuned config never replaces the height measured from the collider.
	cfg := ctrl.Config()
	cfg.OriginHeight = 0.25
	require.NoError(t, ctrl.Reconfigure(cfg))
	require.InDelta(t, 1.0, ctrl.Config().OriginHeight, 1e-9)

	require.NoError(t, s.Reload("prefabs/unrelated.yaml"))
}

func TestRunStopsOnCancel(t *testing.T) {
	s, err := Load("scenarios/flat_run.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	trace, err := s.Run(ctx, 5)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, trace)
}

func TestNewRejectsBadMotorPrefab(t *testing.T) {
	spec, err := prefabs.LoadScenarioSpec("scenarios/flat_run.yaml")
	require.NoError(t, err)
	spec.Bodies[0].Motor = "missing.yaml"

	_, err = New(spec)
	require.Error(t, err)
	require.Contains(t, err.Error(), "runner")
}

func TestInitialVelocity(t *testing.T) {
	spec, err := prefabs.LoadScenarioSpec("scenarios/flat_run.yaml")
	require.NoError(t, err)
	spec.Bodies[0].Motor = ""
	spec.Bodies[0].Track = nil
	spec.Bodies[0].Velocity = [2]float64{3, 0}

	s, err := New(spec)
	require.NoError(t, err)
	samples := s.Step()
	require.Len(t, samples, 1)
	require.InDelta(t, 3.0, samples[0].Velocity.X(), 1e-6)
	_, ok := s.Controller("runner")
	require.False(t, ok)
}

func TestFallingBelowKillPlaneRespawns(t *testing.T) {
	s, err := Load("scenarios/ledge.yaml")
	require.NoError(t, err)

	trace, err := s.Run(context.Background(), 0)
	require.NoError(t, err)

	respawns := motorEvents(s, ecs.MotorEventRespawned)
	require.NotEmpty(t, respawns)

	for _, sample := range trace {
		require.GreaterOrEqual(t, sample.Position.Y(), -5.0, "tick %d", sample.Tick)
	}
	at := trace[respawns[0].Tick]
	require.Equal(t, respawns[0].Tick, at.Tick)
	require.Greater(t, at.Position.Y(), 0.5)
	require.Less(t, at.Position.X(), 4.0)
	require.InDelta(t, 0, at.Velocity.Len(), 1e-9)
}
