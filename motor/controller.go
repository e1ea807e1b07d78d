package motor

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/surfacemotor/common"
	"github.com/rs/zerolog"
)

// Transition reports a change of the grounded flag across one step.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionLanded
	TransitionLeftGround
)

func (t Transition) String() string {
	switch t {
	case TransitionLanded:
		return "landed"
	case TransitionLeftGround:
		return "left_ground"
	default:
		return "none"
	}
}

// StepResult summarizes what happened during one Step call.
type StepResult struct {
	Transition Transition
	Source     GroundSource
	Jumped     bool
}

// Controller drives one physical body. It is not safe for concurrent use; it
// belongs to a single body and is stepped from one place in the tick loop.
type Controller struct {
	cfg     Config
	applier Applier
	custom  bool
	log     zerolog.Logger

	contacts *ContactAccumulator
	resolver *GroundResolver
	solver   VelocitySolver

	velocity        mgl64.Vec3
	desiredVelocity mgl64.Vec3
	desiredJump     bool

	grounded      bool
	onSteep       bool
	contactNormal mgl64.Vec3
}

type Option func(*Controller)

// WithApplier overrides the application strategy named in the config.
func WithApplier(a Applier) Option {
	return func(c *Controller) {
		if a == nil {
			return
		}
		c.applier = a
		c.custom = true
	}
}

// WithOriginHeight sets the distance from the body origin to the bottom of its
// collider.
func WithOriginHeight(h float64) Option {
	return func(c *Controller) {
		if nonNegative(h) {
			c.cfg.OriginHeight = h
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

func NewController(cfg Config, opts ...Option) (*Controller, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	applier, err := ApplierFor(cfg.Application)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:           cfg,
		applier:       applier,
		log:           zerolog.Nop(),
		contactNormal: common.Up,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	c.contacts = NewContactAccumulator(c.cfg.MinGroundDotProduct())
	c.resolver = newGroundResolver(c.cfg)
	c.solver = newVelocitySolver(c.cfg)
	return c, nil
}

// SetOriginHeight records the distance from the body origin to the bottom of
// its collider, as measured by the physics integration.
func (c *Controller) SetOriginHeight(h float64) error {
	if c == nil {
		return nil
	}
	if !nonNegative(h) {
		return fmt.Errorf("motor: origin height: %w: %v must be a finite value >= 0", ErrInvalidConfig, h)
	}
	c.cfg.OriginHeight = h
	c.resolver.configure(c.cfg)
	return nil
}

// Reconfigure swaps in new tuning without losing grounding memory. The
// measured OriginHeight always survives; use SetOriginHeight to change it.
func (c *Controller) Reconfigure(cfg Config) error {
	if c == nil {
		return nil
	}
	cfg = cfg.withDefaults()
	cfg.OriginHeight = c.cfg.OriginHeight
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("motor: reconfigure: %w", err)
	}
	if !c.custom {
		applier, err := ApplierFor(cfg.Application)
		if err != nil {
			return fmt.Errorf("motor: reconfigure: %w", err)
		}
		c.applier = applier
	}
	c.cfg = cfg
	c.contacts.setMinGroundDot(cfg.MinGroundDotProduct())
	c.resolver.configure(cfg)
	c.solver = newVelocitySolver(cfg)
	c.log.Debug().
		Float64("max_ground_angle", cfg.MaxGroundAngle).
		Float64("max_acceleration", cfg.MaxAcceleration).
		Str("application", c.applier.Name()).
		Msg("motor reconfigured")
	return nil
}

// SetDesiredVelocity sets the horizontal target velocity; y is dropped.
func (c *Controller) SetDesiredVelocity(v mgl64.Vec3) {
	if c == nil {
		return
	}
	c.desiredVelocity = mgl64.Vec3{v.X(), 0, v.Z()}
}

// SetInput maps a stick-style input (each axis in [-1, 1]) to a desired
// velocity of at most MaxSpeed.
func (c *Controller) SetInput(moveX, moveZ float64) {
	if c == nil {
		return
	}
	in := common.ClampMagnitude(mgl64.Vec3{moveX, 0, moveZ}, 1)
	c.SetDesiredVelocity(in.Mul(c.cfg.MaxSpeed))
}

// RequestJump latches a jump until the next Step consumes it.
func (c *Controller) RequestJump() {
	if c == nil {
		return
	}
	c.desiredJump = true
}

// RecordContact feeds one contact normal from the physics engine.
func (c *Controller) RecordContact(normal mgl64.Vec3) {
	if c == nil {
		return
	}
	c.contacts.Record(normal)
}

// Step runs one fixed physics step: resolve ground, adjust velocity, jump,
// apply, then clear the contacts gathered for this step.
func (c *Controller) Step(world World, body Body, dt float64) StepResult {
	if c == nil {
		return StepResult{}
	}
	if body == nil {
		c.contacts.Reset()
		return StepResult{}
	}
	wasGrounded := c.grounded

	var prober Prober
	gravity := 0.0
	if world != nil {
		prober = world
		gravity = world.GravityMagnitude()
	}

	c.velocity = body.Velocity()
	state := c.resolver.Resolve(c.contacts, prober, body.Position(), c.velocity)
	c.grounded = state.Grounded
	c.contactNormal = state.Normal
	c.onSteep = !state.Grounded && c.contacts.SteepCount > 0
	c.velocity = c.solver.Adjust(state.Velocity, c.desiredVelocity, c.contactNormal, c.grounded, dt)

	res := StepResult{Source: state.Source}
	if c.desiredJump {
		c.desiredJump = false
		if v, ok := c.solver.Jump(c.velocity, c.grounded, gravity); ok {
			c.velocity = v
			c.resolver.StepsSinceLastJump = 0
			res.Jumped = true
		}
	}

	c.applier.Apply(body, c.velocity)
	c.contacts.Reset()

	switch {
	case c.grounded && !wasGrounded:
		res.Transition = TransitionLanded
	case !c.grounded && wasGrounded:
		res.Transition = TransitionLeftGround
	}
	return res
}

func (c *Controller) Grounded() bool { return c != nil && c.grounded }

// OnSteep reports steep contacts without any grounding this step, e.g. sliding
// down a wall.
func (c *Controller) OnSteep() bool { return c != nil && c.onSteep }

func (c *Controller) ContactNormal() mgl64.Vec3 { return c.contactNormal }

func (c *Controller) Velocity() mgl64.Vec3 { return c.velocity }

func (c *Controller) DesiredVelocity() mgl64.Vec3 { return c.desiredVelocity }

func (c *Controller) JumpRequested() bool { return c.desiredJump }

func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) Applier() Applier { return c.applier }

func (c *Controller) StepsSinceLastGrounded() int { return c.resolver.StepsSinceLastGrounded }

func (c *Controller) StepsSinceLastJump() int { return c.resolver.StepsSinceLastJump }

// Contacts exposes the accumulator for inspection between engine callbacks
// and Step.
func (c *Controller) Contacts() *ContactAccumulator { return c.contacts }
