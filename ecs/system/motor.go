package system

import (
	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/ecs/component"
	"github.com/milk9111/surfacemotor/motor"
	"github.com/rs/zerolog"
)

// MotorSystem feeds input into each motor and steps it against the physics
// space. It must run after InputSystem and before PhysicsSystem.
type MotorSystem struct {
	physics *PhysicsSystem
	log     zerolog.Logger
}

func NewMotorSystem(physics *PhysicsSystem, log zerolog.Logger) *MotorSystem {
	return &MotorSystem{physics: physics, log: log}
}

func (ms *MotorSystem) Update(w *ecs.World) {
	if ms == nil || w == nil || ms.physics == nil {
		return
	}
	dt := ms.physics.TimeStep()

	ecs.ForEach2(w, component.MotorComponent.Kind(), component.PhysicsBodyComponent.Kind(), func(e ecs.Entity, m *component.Motor, body *component.PhysicsBody) {
		if m.Controller == nil || body.Body == nil {
			return
		}

		if input, ok := ecs.Get(w, e, component.InputComponent.Kind()); ok {
			m.Controller.SetInput(input.MoveX, input.MoveZ)
			if input.JumpPressed {
				m.Controller.RequestJump()
			}
		}

		res := m.Controller.Step(ms.physics.Probe(e), BodyAdapter{Body: body.Body}, dt)

		switch res.Transition {
		case motor.TransitionLanded:
			ms.push(w, e, ecs.MotorEventLanded)
			ms.log.Debug().Stringer("entity", e).Stringer("source", res.Source).Uint64("tick", w.Tick()).Msg("motor: landed")
		case motor.TransitionLeftGround:
			ms.push(w, e, ecs.MotorEventLeftGround)
			ms.log.Debug().Stringer("entity", e).Uint64("tick", w.Tick()).Msg("motor: left ground")
		}
		if res.Jumped {
			ms.push(w, e, ecs.MotorEventJumped)
			ms.log.Debug().Stringer("entity", e).Uint64("tick", w.Tick()).Msg("motor: jumped")
		}
	})
}

func (ms *MotorSystem) push(w *ecs.World, e ecs.Entity, kind ecs.MotorEventKind) {
	w.Events().Push(ecs.Event{
		Type: ecs.EventTypeMotor,
		Data: ecs.MotorEvent{Entity: e, Kind: kind, Tick: w.Tick()},
	})
}
