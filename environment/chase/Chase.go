// Package chase implements an environment where a two-wheeled car
// chases a point-mass adversary around a ground plane
package chase

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/genesisgym/environment"
	"github.com/samuelfneumann/genesisgym/environment/genesisenv"
	"github.com/samuelfneumann/genesisgym/genesis"
	"github.com/samuelfneumann/genesisgym/internal/log"
	ts "github.com/samuelfneumann/genesisgym/timestep"
	"github.com/samuelfneumann/genesisgym/utils/floatutils"
)

// Indices into the observation vector
const (
	AgentX = iota
	AgentY
	AgentCos // cosine of the car's yaw
	AgentSin // sine of the car's yaw
	AgentVX
	AgentVY
	AgentOmega // yaw rate of the car
	AdversaryX
	AdversaryY
	AdversaryVX
	AdversaryVY
	DeltaX // adversary x minus car x
	DeltaY
	ObsLen
)

const (
	// ActionLen is the number of action dimensions: the torques on the
	// left and right wheels of the car
	ActionLen = 2

	// ArenaSize is the half extent of the square the episode takes
	// place in
	ArenaSize = 3.0

	// DefaultAdversarySpeed is the speed the adversary flees at, in m/s
	DefaultAdversarySpeed = 0.5

	// The adversary stops fleeing towards a wall this far from it
	wallMargin = 0.5
)

// Option configures a Chase environment
type Option func(*config)

type config struct {
	scene     genesis.SceneOptions
	mode      genesisenv.RenderMode
	discount  float64
	fleeSpeed float64
}

// WithSceneOptions sets the options of the underlying scene
func WithSceneOptions(opts genesis.SceneOptions) Option {
	return func(c *config) { c.scene = opts }
}

// WithRenderMode sets the images Render returns. The default is
// genesisenv.RGBArray.
func WithRenderMode(mode genesisenv.RenderMode) Option {
	return func(c *config) { c.mode = mode }
}

// WithDiscount sets the discount of every timestep. The default is 1.
func WithDiscount(discount float64) Option {
	return func(c *config) { c.discount = discount }
}

// WithAdversarySpeed sets the speed the adversary flees at
func WithAdversarySpeed(speed float64) Option {
	return func(c *config) { c.fleeSpeed = speed }
}

// Chase is a car chasing an adversary. Actions are the torques on the
// car's two wheels, each clipped to [-1, 1]. The adversary is not
// controlled by the agent: at each step it moves away from the car at
// a fixed speed, sliding along the walls of the arena when it reaches
// them.
//
// The Task decides rewards and when episodes end. Its Start method must
// return the x and y position of the adversary at the start of an
// episode.
type Chase struct {
	*genesisenv.Env
	environment.Task

	scenario  *Scenario
	wheels    []int
	yawDof    int
	fleeSpeed float64
	discount  float64

	currentTimeStep ts.TimeStep
}

var _ environment.Environment = (*Chase)(nil)

// New returns a new Chase environment and its first timestep
func New(t environment.Task, opts ...Option) (*Chase, ts.TimeStep, error) {
	cfg := config{
		scene:     genesis.DefaultSceneOptions(),
		mode:      genesisenv.RGBArray,
		discount:  1.0,
		fleeSpeed: DefaultAdversarySpeed,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.discount < 0 || cfg.discount > 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("newChase: discount should "+
			"be in [0, 1], got %v", cfg.discount)
	}
	if cfg.fleeSpeed <= 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("newChase: adversary speed "+
			"should be positive, got %v", cfg.fleeSpeed)
	}

	scenario := &Scenario{}
	env, err := genesisenv.New(scenario, cfg.scene, cfg.mode)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newChase: %w", err)
	}

	wheels := make([]int, 0, ActionLen)
	for _, name := range []string{"left_joint", "right_joint"} {
		j, err := scenario.car.GetJoint(name)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("newChase: %w", err)
		}
		wheels = append(wheels, j.DofIdxLocal())
	}
	root, err := scenario.car.GetJoint("root")
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newChase: %w", err)
	}

	c := &Chase{
		Env:       env,
		Task:      t,
		scenario:  scenario,
		wheels:    wheels,
		yawDof:    root.DofsIdxLocal()[5],
		fleeSpeed: cfg.fleeSpeed,
		discount:  cfg.discount,
	}

	firstStep, err := c.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newChase: %w", err)
	}

	log.Provide().Debug("chase environment created",
		log.String("scene", env.Scene().UID().String()),
		log.Float64("adversary_speed", cfg.fleeSpeed))
	return c, firstStep, nil
}

// Scenario returns the entities and camera of the environment
func (c *Chase) Scenario() *Scenario {
	return c.scenario
}

// CurrentTimeStep returns the last timestep of the environment
func (c *Chase) CurrentTimeStep() ts.TimeStep {
	return c.currentTimeStep
}

// Reset resets the scene and places the adversary where the Task's
// Start method says
func (c *Chase) Reset() (ts.TimeStep, error) {
	if _, err := c.Env.Reset(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	start := c.Start()
	if start.Len() != 2 {
		return ts.TimeStep{}, fmt.Errorf("reset: starting state should "+
			"hold the adversary's x and y position, got length %v",
			start.Len())
	}
	err := c.scenario.adversary.SetPos(start.AtVec(0), start.AtVec(1))
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	obs, err := c.obs()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	firstStep := ts.New(ts.First, 0, c.discount, obs, 0)
	c.currentTimeStep = firstStep
	return firstStep, nil
}

// Step takes one step in the environment given the wheel torques in
// action
func (c *Chase) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != ActionLen {
		return ts.TimeStep{}, false, fmt.Errorf("step: invalid number of "+
			"action dimensions \n\thave(%v) \n\twant(%v)", action.Len(),
			ActionLen)
	}

	state := c.currentTimeStep.Observation
	a := mat.NewVecDense(ActionLen, nil)
	a.CopyVec(action)
	torques := floatutils.ClipSlice(a.RawVector().Data, -1, 1)
	if err := c.scenario.car.ControlDofsForce(torques, c.wheels); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	if err := c.flee(state); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	if _, _, err := c.Env.Step(action); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	nextState, err := c.obs()
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}
	reward := c.GetReward(state, mat.NewVecDense(ActionLen, torques),
		nextState)

	t := ts.New(ts.Mid, reward, c.discount, nextState,
		c.currentTimeStep.Number+1)
	last := c.End(&t)
	c.currentTimeStep = t

	return t, last, nil
}

// flee sets the velocity of the adversary so that it moves directly
// away from the car
func (c *Chase) flee(state *mat.VecDense) error {
	dx, dy := state.AtVec(DeltaX), state.AtVec(DeltaY)
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dx, dist = 1, 1
	}
	vx, vy := c.fleeSpeed*dx/dist, c.fleeSpeed*dy/dist

	limit := ArenaSize - wallMargin
	x, y := state.AtVec(AdversaryX), state.AtVec(AdversaryY)
	if (x >= limit && vx > 0) || (x <= -limit && vx < 0) {
		vx = 0
	}
	if (y >= limit && vy > 0) || (y <= -limit && vy < 0) {
		vy = 0
	}

	// Keep the full speed when sliding along a wall
	if speed := math.Hypot(vx, vy); speed > 0 {
		vx, vy = vx*c.fleeSpeed/speed, vy*c.fleeSpeed/speed
	}

	return c.scenario.adversary.ControlDofsVelocity([]float64{vx, vy, 0},
		[]int{0, 1, 2})
}

func (c *Chase) obs() (*mat.VecDense, error) {
	car, adversary := c.scenario.car, c.scenario.adversary

	pos, err := car.GetPos()
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}
	yaw, err := car.GetYaw()
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}
	vel, err := car.GetVel()
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}
	omega, err := car.GetDofsVelocity([]int{c.yawDof})
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}
	advPos, err := adversary.GetPos()
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}
	advVel, err := adversary.GetVel()
	if err != nil {
		return nil, fmt.Errorf("obs: %w", err)
	}

	return mat.NewVecDense(ObsLen, []float64{
		pos.X, pos.Y, math.Cos(yaw), math.Sin(yaw), vel.X, vel.Y, omega[0],
		advPos.X, advPos.Y, advVel.X, advVel.Y,
		advPos.X - pos.X, advPos.Y - pos.Y,
	}), nil
}

// ObservationSpec returns the observation specification of the
// environment
func (c *Chase) ObservationSpec() environment.Spec {
	return environment.NewUnboundedSpec(ObsLen, environment.Observation)
}

// ActionSpec returns the action specification of the environment
func (c *Chase) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionLen, nil)
	low := mat.NewVecDense(ActionLen, []float64{-1, -1})
	high := mat.NewVecDense(ActionLen, []float64{1, 1})

	return environment.NewSpec(shape, environment.Action, low, high,
		environment.Continuous)
}

// DiscountSpec returns the discount specification of the environment
func (c *Chase) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{c.discount})
	upperBound := mat.NewVecDense(1, []float64{c.discount})

	return environment.NewSpec(shape, environment.Discount, lowerBound,
		upperBound, environment.Continuous)
}
