package system

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/ecs/component"
	"github.com/rs/zerolog"
)

type RespawnSystem struct {
	log zerolog.Logger
}

func NewRespawnSystem(log zerolog.Logger) *RespawnSystem { return &RespawnSystem{log: log} }

// Update remembers where grounded motors stood, flags bodies that fell below
// the level bounds and moves flagged bodies back. It should run after the
// PhysicsSystem so transforms reflect this tick.
func (s *RespawnSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	var bounds *component.LevelBounds
	if e, ok := w.First(component.LevelBoundsComponent.Kind()); ok {
		bounds, _ = ecs.Get(w, e, component.LevelBoundsComponent.Kind())
	}

	ecs.ForEach2(w, component.TransformComponent.Kind(), component.PhysicsBodyComponent.Kind(), func(e ecs.Entity, t *component.Transform, body *component.PhysicsBody) {
		if body.Static {
			return
		}
		if m, ok := ecs.Get(w, e, component.MotorComponent.Kind()); ok && m.Controller != nil && m.Controller.Grounded() {
			safe, ok := ecs.Get(w, e, component.SafeRespawnComponent.Kind())
			if !ok {
				safe = &component.SafeRespawn{}
				_ = ecs.Add(w, e, component.SafeRespawnComponent.Kind(), safe)
			}
			safe.X = t.X
			safe.Y = t.Y
			safe.Initialized = true
		}
		if bounds != nil && t.Y < bounds.MinY {
			_ = ecs.Add(w, e, component.RespawnRequestComponent.Kind(), &component.RespawnRequest{})
		}
	})

	ecs.ForEach3(w, component.RespawnRequestComponent.Kind(), component.TransformComponent.Kind(), component.SafeRespawnComponent.Kind(), func(e ecs.Entity, _ *component.RespawnRequest, t *component.Transform, safe *component.SafeRespawn) {
		if !safe.Initialized {
			return
		}
		t.X = safe.X
		t.Y = safe.Y

		if body, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); ok && body.Body != nil {
			body.Body.SetPosition(cp.Vector{X: t.X, Y: t.Y})
			body.Body.SetVelocityVector(cp.Vector{})
			body.Body.SetAngularVelocity(0)
		}

		w.Events().Push(ecs.Event{
			Type: ecs.EventTypeMotor,
			Data: ecs.MotorEvent{Entity: e, Kind: ecs.MotorEventRespawned, Tick: w.Tick()},
		})
		s.log.Info().Stringer("entity", e).Float64("x", t.X).Float64("y", t.Y).Msg("respawn")
	})

	// Requests without a safe spot are dropped; they are raised again next tick.
	for _, e := range w.Query(component.RespawnRequestComponent.Kind()) {
		ecs.Remove(w, e, component.RespawnRequestComponent.Kind())
	}
}
