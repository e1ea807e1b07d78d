package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/surfacemotor/common"
	"github.com/milk9111/surfacemotor/ecs"
	"github.com/milk9111/surfacemotor/ecs/component"
	"github.com/rs/zerolog"
)

const (
	collisionTypeMotor cp.CollisionType = iota + 1
	collisionTypeSolid
)

// Collision categories. Motor probes usually mask CategorySolid so they
// never hit other motors.
const (
	CategorySolid uint = 1 << 0
	CategoryMotor uint = 1 << 1
)

type PhysicsSystem struct {
	space         *cp.Space
	dt            float64
	handlersReady bool
	log           zerolog.Logger

	entities    map[ecs.Entity]*bodyInfo
	motorShapes map[*cp.Shape]*component.Motor
	nextGroup   uint
}

type bodyInfo struct {
	body   *cp.Body
	shape  *cp.Shape
	shapes []*cp.Shape
	group  uint
	static bool
}

type PhysicsOption func(*PhysicsSystem)

// WithGravity overrides the downward gravity magnitude.
func WithGravity(g float64) PhysicsOption {
	return func(ps *PhysicsSystem) {
		ps.space.SetGravity(cp.Vector{X: 0, Y: -g})
	}
}

// WithTimeStep overrides the fixed step passed to the space.
func WithTimeStep(dt float64) PhysicsOption {
	return func(ps *PhysicsSystem) {
		if dt > 0 {
			ps.dt = dt
		}
	}
}

func WithPhysicsLogger(l zerolog.Logger) PhysicsOption {
	return func(ps *PhysicsSystem) {
		ps.log = l
	}
}

func NewPhysicsSystem(opts ...PhysicsOption) *PhysicsSystem {
	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: -common.Gravity})
	ps := &PhysicsSystem{
		space:       space,
		dt:          common.FixedDelta,
		log:         zerolog.Nop(),
		entities:    make(map[ecs.Entity]*bodyInfo),
		motorShapes: make(map[*cp.Shape]*component.Motor),
	}
	for _, opt := range opts {
		opt(ps)
	}
	return ps
}

func (ps *PhysicsSystem) Space() *cp.Space {
	if ps == nil {
		return nil
	}
	return ps.space
}

func (ps *PhysicsSystem) TimeStep() float64 {
	if ps == nil {
		return 0
	}
	return ps.dt
}

// Update creates bodies for new entities and advances the space one fixed
// step. Contacts found during the step are recorded on each motor and
// consumed by MotorSystem on the next tick.
func (ps *PhysicsSystem) Update(w *ecs.World) {
	if ps == nil || w == nil || ps.space == nil {
		return
	}

	ps.ensureHandlers()
	ps.Sync(w)

	ps.space.Step(ps.dt)

	ps.syncTransforms(w)
}

// Sync builds physics bodies for entities that do not have one yet and drops
// bodies of destroyed entities. Update calls it; callers that need bodies
// before the first tick may call it directly.
func (ps *PhysicsSystem) Sync(w *ecs.World) {
	if ps == nil || w == nil || ps.space == nil {
		return
	}
	ps.cleanupEntities(w)
	ps.syncLevelGeometry(w)

	for _, e := range w.Query(component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind()) {
		if _, exists := ps.entities[e]; exists {
			ps.refreshMotorShape(w, e)
			continue
		}
		bodyComp, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		if !ok {
			continue
		}
		transform, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		layer, _ := ecs.Get(w, e, component.CollisionLayerComponent.Kind())
		motorComp, isMotor := ecs.Get(w, e, component.MotorComponent.Kind())

		info := ps.createBodyInfo(transform, bodyComp, layer, isMotor)
		if info == nil {
			continue
		}
		ps.entities[e] = info
		bodyComp.Body = info.body
		bodyComp.Shape = info.shape

		if isMotor && motorComp.Controller != nil {
			ps.motorShapes[info.shape] = motorComp
			// The origin height is measured once from the collider bounds.
			bb := info.shape.CacheBB()
			origin := info.body.Position().Y - bb.B
			if err := motorComp.Controller.SetOriginHeight(origin); err != nil {
				ps.log.Error().Err(err).Stringer("entity", e).Msg("physics: set origin height")
			}
			ps.log.Debug().Stringer("entity", e).Float64("origin_height", origin).Msg("physics: motor body created")
		}
	}
}

func (ps *PhysicsSystem) refreshMotorShape(w *ecs.World, e ecs.Entity) {
	info := ps.entities[e]
	if info == nil || info.static {
		return
	}
	if motorComp, ok := ecs.Get(w, e, component.MotorComponent.Kind()); ok {
		ps.motorShapes[info.shape] = motorComp
	}
}

func (ps *PhysicsSystem) ensureHandlers() {
	if ps.handlersReady || ps.space == nil {
		return
	}

	handler := ps.space.NewCollisionHandler(collisionTypeMotor, collisionTypeSolid)
	handler.UserData = ps
	// PreSolve runs on every step the pair touches, the first one included,
	// so recording here covers both new and persisting contacts once.
	handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		sys, ok := userData.(*PhysicsSystem)
		if !ok || sys == nil {
			return true
		}
		shapeA, shapeB := arb.Shapes()
		motorComp, motorIsA := sys.motorShapes[shapeA]
		if !motorIsA {
			var okB bool
			motorComp, okB = sys.motorShapes[shapeB]
			if !okB {
				return true
			}
		}
		if motorComp == nil || motorComp.Controller == nil {
			return true
		}

		// Arbiter normals point from A to B; the motor wants the surface
		// normal pointing back at itself.
		n := arb.Normal()
		if motorIsA {
			n = n.Neg()
		}
		normal := mgl64.Vec3{n.X, n.Y, 0}
		for i := 0; i < arb.Count(); i++ {
			motorComp.Controller.RecordContact(normal)
		}
		return true
	}

	ps.handlersReady = true
}

func (ps *PhysicsSystem) createBodyInfo(transform *component.Transform, bodyComp *component.PhysicsBody, layer *component.CollisionLayer, isMotor bool) *bodyInfo {
	if ps.space == nil {
		return nil
	}

	width := bodyComp.Width
	height := bodyComp.Height
	radius := bodyComp.Radius
	if radius <= 0 && (width <= 0 || height <= 0) {
		width = 1
		height = 1
	}

	filter := cp.ShapeFilter{Group: cp.NO_GROUP, Categories: CategorySolid, Mask: cp.ALL_CATEGORIES}
	if isMotor {
		filter.Categories = CategoryMotor
	}
	if layer != nil {
		if layer.Category != 0 {
			filter.Categories = uint(layer.Category)
		}
		if layer.Mask != 0 {
			filter.Mask = uint(layer.Mask)
		}
	}

	info := &bodyInfo{static: bodyComp.Static}
	center := cp.Vector{X: transform.X, Y: transform.Y}

	if bodyComp.Static {
		var shape *cp.Shape
		if radius > 0 {
			shape = cp.NewCircle(ps.space.StaticBody, radius, center)
		} else {
			bb := cp.BB{L: center.X - width/2, B: center.Y - height/2, R: center.X + width/2, T: center.Y + height/2}
			shape = cp.NewBox2(ps.space.StaticBody, bb, 0)
		}
		shape.SetFriction(bodyComp.Friction)
		shape.SetElasticity(bodyComp.Elasticity)
		shape.SetCollisionType(collisionTypeSolid)
		shape.SetFilter(filter)
		ps.space.AddShape(shape)

		info.body = ps.space.StaticBody
		info.shape = shape
		info.shapes = []*cp.Shape{shape}
		return info
	}

	mass := bodyComp.Mass
	if mass <= 0 {
		mass = 1
	}

	var moment float64
	switch {
	case isMotor:
		// Motors stay upright.
		moment = cp.INFINITY
	case radius > 0:
		moment = cp.MomentForCircle(mass, 0, radius, cp.Vector{})
	default:
		moment = cp.MomentForBox(mass, width, height)
	}

	body := cp.NewBody(mass, moment)
	body.SetPosition(center)
	body.SetAngle(transform.Rotation)
	body.SetAngularVelocity(0)

	var shape *cp.Shape
	if radius > 0 {
		shape = cp.NewCircle(body, radius, cp.Vector{})
	} else {
		shape = cp.NewBox(body, width, height, 0)
	}
	shape.SetFriction(bodyComp.Friction)
	shape.SetElasticity(bodyComp.Elasticity)
	shape.SetCollisionType(collisionTypeSolid)

	if isMotor {
		// A private group keeps the motor's own probe from hitting itself.
		ps.nextGroup++
		info.group = ps.nextGroup
		filter.Group = info.group
		shape.SetCollisionType(collisionTypeMotor)
	}
	shape.SetFilter(filter)

	ps.space.AddBody(body)
	ps.space.AddShape(shape)

	info.body = body
	info.shape = shape
	info.shapes = []*cp.Shape{shape}
	return info
}

func (ps *PhysicsSystem) syncLevelGeometry(w *ecs.World) {
	for _, e := range w.Query(component.LevelGeometryComponent.Kind()) {
		if _, exists := ps.entities[e]; exists {
			continue
		}
		geo, ok := ecs.Get(w, e, component.LevelGeometryComponent.Kind())
		if !ok {
			continue
		}

		filter := cp.ShapeFilter{Group: cp.NO_GROUP, Categories: CategorySolid, Mask: cp.ALL_CATEGORIES}
		if layer, ok := ecs.Get(w, e, component.CollisionLayerComponent.Kind()); ok {
			if layer.Category != 0 {
				filter.Categories = uint(layer.Category)
			}
			if layer.Mask != 0 {
				filter.Mask = uint(layer.Mask)
			}
		}

		info := &bodyInfo{static: true, body: ps.space.StaticBody}
		for _, seg := range geo.Segments {
			shape := cp.NewSegment(ps.space.StaticBody, cp.Vector{X: seg.X1, Y: seg.Y1}, cp.Vector{X: seg.X2, Y: seg.Y2}, seg.Radius)
			info.shapes = append(info.shapes, ps.addStatic(shape, seg.Friction, filter))
		}
		for _, box := range geo.Boxes {
			bb := cp.BB{L: box.X - box.Width/2, B: box.Y - box.Height/2, R: box.X + box.Width/2, T: box.Y + box.Height/2}
			shape := cp.NewBox2(ps.space.StaticBody, bb, 0)
			info.shapes = append(info.shapes, ps.addStatic(shape, box.Friction, filter))
		}
		if len(info.shapes) > 0 {
			info.shape = info.shapes[0]
		}
		ps.entities[e] = info
	}
}

func (ps *PhysicsSystem) addStatic(shape *cp.Shape, friction float64, filter cp.ShapeFilter) *cp.Shape {
	shape.SetFriction(friction)
	shape.SetCollisionType(collisionTypeSolid)
	shape.SetFilter(filter)
	ps.space.AddShape(shape)
	return shape
}

func (ps *PhysicsSystem) syncTransforms(w *ecs.World) {
	for _, e := range w.Query(component.PhysicsBodyComponent.Kind(), component.TransformComponent.Kind()) {
		bodyComp, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		if !ok || bodyComp.Body == nil || bodyComp.Static {
			continue
		}
		transform, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		pos := bodyComp.Body.Position()
		transform.X = pos.X
		transform.Y = pos.Y
		transform.Rotation = bodyComp.Body.Angle()
	}
}

func (ps *PhysicsSystem) cleanupEntities(w *ecs.World) {
	for e, info := range ps.entities {
		if w.IsAlive(e) && (ecs.Has(w, e, component.PhysicsBodyComponent.Kind()) || ecs.Has(w, e, component.LevelGeometryComponent.Kind())) {
			continue
		}

		for _, shape := range info.shapes {
			if shape == nil {
				continue
			}
			ps.space.RemoveShape(shape)
			delete(ps.motorShapes, shape)
		}
		if info.body != nil && !info.static {
			ps.space.RemoveBody(info.body)
		}
		delete(ps.entities, e)
	}
}

// Probe returns the motor.World view used to step the motor on entity e.
func (ps *PhysicsSystem) Probe(e ecs.Entity) *SpaceProbe {
	if ps == nil {
		return nil
	}
	group := cp.NO_GROUP
	if info := ps.entities[e]; info != nil {
		group = info.group
	}
	return &SpaceProbe{space: ps.space, group: group}
}
