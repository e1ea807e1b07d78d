package system

import (
	"testing"

	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/ecs/component"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestMotorSystemLandsAndJumps(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem()
	addFloor(t, w)
	e, ctrl := addMotorBody(t, w, 0, 1)
	input := &component.Input{}
	require.NoError(t, ecs.Add(w, e, component.InputComponent.Kind(), input))
	ps.Sync(w)

	w.AddSystem(NewMotorSystem(ps, zerolog.Nop()))
	w.AddSystem(ps)

	landedAt := -1
	for i := 0; i < 20 && landedAt < 0; i++ {
		w.Update()
		for _, evt := range w.Events().Peek() {
			if me, ok := evt.Data.(ecs.MotorEvent); ok && me.Kind == ecs.MotorEventLanded {
				require.Equal(t, e, me.Entity)
				landedAt = i
			}
		}
	}
	require.GreaterOrEqual(t, landedAt, 0)
	require.True(t, ctrl.Grounded())

	input.MoveX = 1
	input.JumpPressed = true
	w.Update()
	input.JumpPressed = false

	var kinds []ecs.MotorEventKind
	for _, evt := range w.Events().Peek() {
		if me, ok := evt.Data.(ecs.MotorEvent); ok {
			kinds = append(kinds, me.Kind)
		}
	}
	require.Equal(t, []ecs.MotorEventKind{ecs.MotorEventJumped}, kinds)
	require.Positive(t, ctrl.Velocity().Y())
	require.InDelta(t, ctrl.Config().MaxSpeed, ctrl.DesiredVelocity().X(), 1e-9)
}

func TestMotorSystemSkipsBodiesWithoutPhysics(t *testing.T) {
	w := ecs.NewWorld()
	ps := NewPhysicsSystem()
	e, ctrl := addMotorBody(t, w, 0, 1)
	require.NoError(t, ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{MoveX: 1}))

	NewMotorSystem(ps, zerolog.Nop()).Update(w)
	require.Zero(t, ctrl.StepsSinceLastGrounded())
	require.Empty(t, w.Events().Peek())
}
