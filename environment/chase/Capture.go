package chase

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/genesisgym/environment"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

const (
	// DefaultCaptureRadius is the distance between the centres of the
	// car and the adversary below which the adversary is caught
	DefaultCaptureRadius = 0.35

	// DefaultCaptureReward is the bonus given when the adversary is
	// caught
	DefaultCaptureReward = 10.0
)

// Capture implements the task of catching the adversary. The reward at
// each step is how much closer the car got to the adversary, plus a
// bonus when the adversary is caught.
//
// Episodes end when:
//  1. The adversary is caught, a terminal state
//  2. The car leaves the arena, also a terminal state
//  3. A timestep limit is reached, which truncates the episode
//
// The adversary starts between 1.5 and 2.5 metres from the car, at a
// uniformly random bearing.
type Capture struct {
	Radius float64
	Reward float64

	starter   *environment.UniformStarter
	captured  *environment.FunctionEnder
	arena     *environment.IntervalLimit
	stepLimit *environment.StepLimit
}

// NewCapture returns a new Capture task. Episodes are cut off after
// cutoff steps.
func NewCapture(seed uint64, cutoff int) *Capture {
	c := &Capture{
		Radius: DefaultCaptureRadius,
		Reward: DefaultCaptureReward,
		starter: environment.NewUniformStarter([]r1.Interval{
			{Min: 1.5, Max: 2.5},
			{Min: -math.Pi, Max: math.Pi},
		}, seed),
		arena: environment.NewIntervalLimit(
			[]r1.Interval{
				{Min: -ArenaSize, Max: ArenaSize},
				{Min: -ArenaSize, Max: ArenaSize},
			},
			[]int{AgentX, AgentY},
			ts.OutOfBounds,
		),
		stepLimit: environment.NewStepLimit(cutoff),
	}
	c.captured = environment.NewFunctionEnder(func(obs *mat.VecDense) bool {
		return distance(obs) < c.Radius
	}, ts.TerminalStateReached)

	return c
}

// Start returns the starting x and y position of the adversary
func (c *Capture) Start() *mat.VecDense {
	polar := c.starter.Start()
	r, theta := polar.AtVec(0), polar.AtVec(1)
	return mat.NewVecDense(2, []float64{r * math.Cos(theta),
		r * math.Sin(theta)})
}

// End checks if a timestep should be the last in the episode and
// adjusts the timestep accordingly. End returns whether the argument
// timestep is the last in the episode.
func (c *Capture) End(t *ts.TimeStep) bool {
	if c.captured.End(t) {
		return true
	}
	if c.arena.End(t) {
		return true
	}
	return c.stepLimit.End(t)
}

// GetReward returns the reward for a state, action, next state
// transition
func (c *Capture) GetReward(state, action, nextState mat.Vector) float64 {
	next := distance(nextState)
	reward := distance(state) - next
	if next < c.Radius {
		reward += c.Reward
	}
	return reward
}

// AtGoal returns whether the adversary is caught in state
func (c *Capture) AtGoal(state mat.Matrix) bool {
	return math.Hypot(state.At(DeltaX, 0), state.At(DeltaY, 0)) < c.Radius
}

// EpisodeSteps returns the timestep limit of episodes
func (c *Capture) EpisodeSteps() int {
	return c.stepLimit.EpisodeSteps()
}

func distance(obs mat.Vector) float64 {
	return math.Hypot(obs.AtVec(DeltaX), obs.AtVec(DeltaY))
}
