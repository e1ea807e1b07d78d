// Package sim runs scenario prefabs headlessly: it builds an ECS world with
// motor, input and physics systems and records a per-tick trace.
package sim

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/ecs/component"
	"github.com/milk9111/surfacemotor/ecs/system"
	"github.com/milk9111/surfacemotor/motor"
	"github.com/milk9111/surfacemotor/prefabs"
	"github.com/rs/zerolog"
)

// Sample is the state of one dynamic body after a tick.
type Sample struct {
	Tick     uint64
	Body     string
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Grounded bool
	Normal   mgl64.Vec3
}

type tracked struct {
	entity ecs.Entity
	name   string
}

type Simulation struct {
	spec    prefabs.ScenarioSpec
	world   *ecs.World
	physics *system.PhysicsSystem
	input   *system.InputSystem
	log     zerolog.Logger
	reloads <-chan string

	bodies []tracked
	trace  []Sample
	events []ecs.MotorEvent
}

type Option func(*Simulation)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Simulation) {
		s.log = l
	}
}

// WithReloads makes Run apply changed prefab paths between ticks.
func WithReloads(paths <-chan string) Option {
	return func(s *Simulation) {
		s.reloads = paths
	}
}

// Load builds a simulation from a scenario prefab.
func Load(filename string, opts ...Option) (*Simulation, error) {
	spec, err := prefabs.LoadScenarioSpec(filename)
	if err != nil {
		return nil, err
	}
	return New(spec, opts...)
}

func New(spec prefabs.ScenarioSpec, opts ...Option) (*Simulation, error) {
	s := &Simulation{spec: spec, world: ecs.NewWorld(), log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	s.physics = system.NewPhysicsSystem(
		system.WithGravity(spec.Gravity),
		system.WithTimeStep(spec.Dt),
		system.WithPhysicsLogger(s.log),
	)
	s.input = system.NewInputSystem(s.log)

	if err := s.buildLevel(spec.Level); err != nil {
		return nil, err
	}
	for _, b := range spec.Bodies {
		if err := s.buildBody(b); err != nil {
			return nil, fmt.Errorf("sim: body %q: %w", b.Name, err)
		}
	}

	s.physics.Sync(s.world)
	for _, b := range spec.Bodies {
		if b.Velocity == ([2]float64{}) {
			continue
		}
		if e, ok := s.Entity(b.Name); ok {
			if body, ok := ecs.Get(s.world, e, component.PhysicsBodyComponent.Kind()); ok && body.Body != nil {
				body.Body.SetVelocityVector(cp.Vector{X: b.Velocity[0], Y: b.Velocity[1]})
			}
		}
	}

	s.world.AddSystem(s.input)
	s.world.AddSystem(system.NewMotorSystem(s.physics, s.log))
	s.world.AddSystem(s.physics)
	s.world.AddSystem(system.NewRespawnSystem(s.log))

	s.log.Info().Str("scenario", spec.Name).Int("bodies", len(s.bodies)).Float64("dt", spec.Dt).Msg("sim: scenario loaded")
	return s, nil
}

func (s *Simulation) buildLevel(level prefabs.LevelSpec) error {
	if len(level.Segments) == 0 && len(level.Boxes) == 0 && level.KillY == nil {
		return nil
	}
	geo := &component.LevelGeometry{}
	for _, seg := range level.Segments {
		geo.Segments = append(geo.Segments, component.Segment{
			X1:       seg.From[0],
			Y1:       seg.From[1],
			X2:       seg.To[0],
			Y2:       seg.To[1],
			Radius:   seg.Radius,
			Friction: seg.Friction,
		})
	}
	for _, box := range level.Boxes {
		geo.Boxes = append(geo.Boxes, component.Box{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height, Friction: box.Friction})
	}

	e := s.world.CreateEntity()
	if err := ecs.Add(s.world, e, component.LevelGeometryComponent.Kind(), geo); err != nil {
		return fmt.Errorf("sim: level: %w", err)
	}
	if level.Category != 0 {
		if err := ecs.Add(s.world, e, component.CollisionLayerComponent.Kind(), &component.CollisionLayer{Category: level.Category}); err != nil {
			return fmt.Errorf("sim: level: %w", err)
		}
	}
	if level.KillY != nil {
		if err := ecs.Add(s.world, e, component.LevelBoundsComponent.Kind(), &component.LevelBounds{MinY: *level.KillY}); err != nil {
			return fmt.Errorf("sim: level: %w", err)
		}
	}
	return nil
}

func (s *Simulation) buildBody(b prefabs.BodySpec) error {
	w := s.world
	e := w.CreateEntity()

	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{X: b.Transform.X, Y: b.Transform.Y, Rotation: b.Transform.Rotation}); err != nil {
		return err
	}
	if err := ecs.Add(w, e, component.PhysicsBodyComponent.Kind(), &component.PhysicsBody{
		Width:    b.Collider.Width,
		Height:   b.Collider.Height,
		Radius:   b.Collider.Radius,
		Mass:     b.Mass,
		Friction: b.Friction,
	}); err != nil {
		return err
	}
	if err := ecs.Add(w, e, component.SafeRespawnComponent.Kind(), &component.SafeRespawn{X: b.Transform.X, Y: b.Transform.Y, Initialized: true}); err != nil {
		return err
	}
	if b.Player {
		if err := ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{}); err != nil {
			return err
		}
	}

	if b.Motor != "" {
		spec, err := prefabs.LoadMotorSpec(b.Motor)
		if err != nil {
			return err
		}
		ctrl, err := motor.NewController(spec.Motor, motor.WithLogger(s.log.With().Str("body", b.Name).Logger()))
		if err != nil {
			return err
		}
		if err := ecs.Add(w, e, component.MotorComponent.Kind(), &component.Motor{Controller: ctrl, Prefab: b.Motor}); err != nil {
			return err
		}
		if err := ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{}); err != nil {
			return err
		}
	}

	switch {
	case b.Script != "":
		if err := ecs.Add(w, e, component.InputScriptComponent.Kind(), &component.InputScript{Path: b.Script}); err != nil {
			return err
		}
	case len(b.Track) > 0:
		track := &component.InputTrack{Keys: make([]component.InputKey, 0, len(b.Track))}
		for _, k := range b.Track {
			track.Keys = append(track.Keys, component.InputKey{Tick: k.Tick, MoveX: k.MoveX, MoveZ: k.MoveZ, Jump: k.Jump})
		}
		if err := ecs.Add(w, e, component.InputTrackComponent.Kind(), track); err != nil {
			return err
		}
	}

	s.bodies = append(s.bodies, tracked{entity: e, name: b.Name})
	return nil
}

// Step runs one tick and returns the samples recorded for it.
func (s *Simulation) Step() []Sample {
	tick := s.world.Tick()
	s.world.Update()

	for _, evt := range s.world.Events().Drain() {
		if me, ok := evt.Data.(ecs.MotorEvent); ok && evt.Type == ecs.EventTypeMotor {
			s.events = append(s.events, me)
		}
	}

	samples := make([]Sample, 0, len(s.bodies))
	for _, b := range s.bodies {
		sample, ok := s.sample(tick, b)
		if !ok {
			continue
		}
		samples = append(samples, sample)
	}
	s.trace = append(s.trace, samples...)
	return samples
}

func (s *Simulation) sample(tick uint64, b tracked) (Sample, bool) {
	body, ok := ecs.Get(s.world, b.entity, component.PhysicsBodyComponent.Kind())
	if !ok || body.Body == nil {
		return Sample{}, false
	}
	adapter := system.BodyAdapter{Body: body.Body}
	sample := Sample{
		Tick:     tick,
		Body:     b.name,
		Position: adapter.Position(),
		Velocity: adapter.Velocity(),
	}
	if m, ok := ecs.Get(s.world, b.entity, component.MotorComponent.Kind()); ok && m.Controller != nil {
		sample.Grounded = m.Controller.Grounded()
		sample.Normal = m.Controller.ContactNormal()
	}
	return sample, true
}

// Run steps the simulation up to steps times, applying pending reloads
// before each tick. A non-positive steps uses the scenario's step count.
func (s *Simulation) Run(ctx context.Context, steps int) ([]Sample, error) {
	if steps <= 0 {
		steps = s.spec.Steps
	}
	start := len(s.trace)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return s.trace[start:], err
		}
		s.drainReloads()
		s.Step()
	}
	return s.trace[start:], nil
}

func (s *Simulation) drainReloads() {
	if s.reloads == nil {
		return
	}
	for {
		select {
		case path, ok := <-s.reloads:
			if !ok {
				s.reloads = nil
				return
			}
			if err := s.Reload(path); err != nil {
				s.log.Error().Err(err).Str("path", path).Msg("sim: reload")
			}
		default:
			return
		}
	}
}

// Reload re-reads a changed motor prefab or input script. Controllers keep
// their grounding state and measured origin height.
func (s *Simulation) Reload(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".tengo") {
		ecs.ForEach(s.world, component.InputScriptComponent.Kind(), func(e ecs.Entity, script *component.InputScript) {
			if prefabs.SameScript(script.Path, path) {
				s.input.Invalidate(script.Path)
				s.log.Info().Str("script", script.Path).Msg("sim: script reloaded")
			}
		})
		return nil
	}

	var firstErr error
	ecs.ForEach(s.world, component.MotorComponent.Kind(), func(e ecs.Entity, m *component.Motor) {
		if m.Controller == nil || !prefabs.SamePrefab(m.Prefab, path) {
			return
		}
		spec, err := prefabs.LoadMotorSpec(m.Prefab)
		if err == nil {
			err = m.Controller.Reconfigure(spec.Motor)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("sim: reload %s: %w", path, err)
			}
			return
		}
		s.log.Info().Str("prefab", m.Prefab).Stringer("entity", e).Msg("sim: motor reloaded")
	})
	return firstErr
}

func (s *Simulation) Entity(name string) (ecs.Entity, bool) {
	for _, b := range s.bodies {
		if b.name == name {
			return b.entity, true
		}
	}
	return 0, false
}

// Player returns the name of the body marked as the player, if any.
func (s *Simulation) Player() (string, bool) {
	e, ok := s.world.First(component.PlayerTagComponent.Kind())
	if !ok {
		return "", false
	}
	for _, b := range s.bodies {
		if b.entity == e {
			return b.name, true
		}
	}
	return "", false
}

// Controller returns the motor controller of a named body.
func (s *Simulation) Controller(name string) (*motor.Controller, bool) {
	e, ok := s.Entity(name)
	if !ok {
		return nil, false
	}
	m, ok := ecs.Get(s.world, e, component.MotorComponent.Kind())
	if !ok || m.Controller == nil {
		return nil, false
	}
	return m.Controller, true
}

func (s *Simulation) World() *ecs.World { return s.world }

func (s *Simulation) Spec() prefabs.ScenarioSpec { return s.spec }

func (s *Simulation) Trace() []Sample { return s.trace }

func (s *Simulation) Events() []ecs.MotorEvent { return s.events }

// BodyTrace returns the samples of one body in tick order.
func (s *Simulation) BodyTrace(name string) []Sample {
	var out []Sample
	for _, sample := range s.trace {
		if sample.Body == name {
			out = append(out, sample)
		}
	}
	return out
}
