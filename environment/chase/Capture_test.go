package chase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// observation returns an observation with the car at (x, y) and the
// adversary at (ax, ay)
func observation(x, y, ax, ay float64) *mat.VecDense {
	obs := mat.NewVecDense(ObsLen, nil)
	obs.SetVec(AgentX, x)
	obs.SetVec(AgentY, y)
	obs.SetVec(AgentCos, 1)
	obs.SetVec(AdversaryX, ax)
	obs.SetVec(AdversaryY, ay)
	obs.SetVec(DeltaX, ax-x)
	obs.SetVec(DeltaY, ay-y)
	return obs
}

func TestCaptureStart(t *testing.T) {
	c := NewCapture(3, 10)
	for i := 0; i < 100; i++ {
		start := c.Start()
		d := math.Hypot(start.AtVec(0), start.AtVec(1))
		assert.True(t, d >= 1.5 && d <= 2.5, "distance %v", d)
	}

	// Equal seeds give equal starts
	a, b := NewCapture(11, 10), NewCapture(11, 10)
	assert.Equal(t, a.Start().RawVector().Data, b.Start().RawVector().Data)
}

func TestCaptureReward(t *testing.T) {
	c := NewCapture(1, 10)
	action := mat.NewVecDense(ActionLen, nil)

	r := c.GetReward(observation(0, 0, 2, 0), action, observation(0.5, 0, 2, 0))
	assert.InDelta(t, 0.5, r, 1e-12)

	r = c.GetReward(observation(0, 0, 1, 0), action, observation(0, 0, 1.5, 0))
	assert.InDelta(t, -0.5, r, 1e-12)

	r = c.GetReward(observation(0, 0, 0.5, 0), action,
		observation(0.3, 0, 0.5, 0))
	assert.InDelta(t, 0.2+DefaultCaptureReward, r, 1e-12)

	assert.True(t, c.AtGoal(observation(0, 0, 0.1, 0.1)))
	assert.False(t, c.AtGoal(observation(0, 0, 1, 0)))
}

func TestCaptureEnd(t *testing.T) {
	c := NewCapture(1, 10)

	tests := []struct {
		name string
		obs  *mat.VecDense
		n    int
		want ts.EndType
	}{
		{"running", observation(0, 0, 2, 0), 1, ts.NotEnded},
		{"caught", observation(0, 0, 0.2, 0), 1, ts.TerminalStateReached},
		{"caught at limit", observation(0, 0, 0.2, 0), 10,
			ts.TerminalStateReached},
		{"out of bounds", observation(0, -ArenaSize-0.1, 2, 0), 1,
			ts.OutOfBounds},
		{"timeout", observation(0, 0, 2, 0), 10, ts.Timeout},
	}

	for _, test := range tests {
		step := ts.New(ts.Mid, 0, 1, test.obs, test.n)
		last := c.End(&step)
		assert.Equal(t, test.want != ts.NotEnded, last, test.name)
		assert.Equal(t, test.want, step.EndType(), test.name)
	}

	assert.Equal(t, 10, c.EpisodeSteps())
}

func TestPursuitPolicy(t *testing.T) {
	p := NewPursuitPolicy()

	// Straight ahead: full forward, no turn
	a := p.SelectAction(ts.New(ts.Mid, 0, 1, observation(0, 0, 2, 0), 1))
	assert.InDeltaSlice(t, []float64{1, 1}, a.RawVector().Data, 1e-9)

	// To the left: the right wheel pushes harder
	a = p.SelectAction(ts.New(ts.Mid, 0, 1, observation(0, 0, 0, 2), 1))
	assert.Greater(t, a.AtVec(1), a.AtVec(0))

	// Behind: turn in place
	a = p.SelectAction(ts.New(ts.Mid, 0, 1, observation(0, 0, -2, -0.1), 1))
	assert.InDelta(t, 0, a.AtVec(0)+a.AtVec(1), 1e-9)

	a = p.SelectAction(ts.TimeStep{})
	assert.Equal(t, []float64{0, 0}, a.RawVector().Data)
}
