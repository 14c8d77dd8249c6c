package experiment_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/genesisgym/environment"
	"github.com/samuelfneumann/genesisgym/environment/envconfig"
	"github.com/samuelfneumann/genesisgym/experiment"
	"github.com/samuelfneumann/genesisgym/experiment/savers"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// counter is an environment whose episodes last three steps, each with
// a reward of 1
type counter struct {
	environment.Task
	current ts.TimeStep
	resets  int
}

func (c *counter) Reset() (ts.TimeStep, error) {
	c.resets++
	c.current = ts.New(ts.First, 0, 1, mat.NewVecDense(1, nil), 0)
	return c.current, nil
}

func (c *counter) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	n := c.current.Number + 1
	t := ts.New(ts.Mid, 1, 1, mat.NewVecDense(1, []float64{float64(n)}), n)
	if n == 3 {
		t.StepType = ts.Last
		t.SetEnd(ts.Timeout)
	}
	c.current = t
	return t, t.Last(), nil
}

func (c *counter) CurrentTimeStep() ts.TimeStep { return c.current }
func (c *counter) ObservationSpec() environment.Spec { return c.spec() }
func (c *counter) ActionSpec() environment.Spec { return c.spec() }
func (c *counter) DiscountSpec() environment.Spec { return c.spec() }

func (c *counter) spec() environment.Spec {
	return environment.NewUnboundedSpec(1, environment.Action)
}

func TestOnline(t *testing.T) {
	env := &counter{}
	policy := experiment.NewRandomPolicy(env.ActionSpec(), 1)
	ret := savers.NewReturn(t.TempDir() + "/returns.bin")
	lengths := savers.NewEpisodeLength(t.TempDir() + "/lengths.bin")

	exp := experiment.NewOnline(env, policy, 7, ret)
	exp.Register(lengths)

	seen := 0
	exp.OnStep(func(ts.TimeStep) error {
		seen++
		return nil
	})

	require.NoError(t, exp.Run())
	assert.Equal(t, uint(7), exp.Steps())
	assert.Equal(t, 3, env.resets)
	assert.Equal(t, 7+3, seen)
	assert.Equal(t, []float64{3, 3}, ret.Returns())
	assert.Equal(t, []int{3, 3}, lengths.Lengths())
	require.NoError(t, exp.Save())
}

func TestOnlineStepError(t *testing.T) {
	exp := experiment.NewOnline(&counter{},
		experiment.NewRandomPolicy(environment.NewUnboundedSpec(1,
			environment.Action), 1), 10)
	stop := errors.New("stop")
	exp.OnStep(func(t ts.TimeStep) error {
		if t.Number == 2 {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, exp.Run(), stop)
}

func TestRandomPolicy(t *testing.T) {
	low := mat.NewVecDense(2, []float64{-1, 0})
	high := mat.NewVecDense(2, []float64{1, math.Inf(1)})
	spec := environment.NewSpec(mat.NewVecDense(2, nil), environment.Action,
		low, high, environment.Continuous)

	p := experiment.NewRandomPolicy(spec, 3)
	for i := 0; i < 100; i++ {
		a := p.SelectAction(ts.TimeStep{})
		assert.True(t, a.AtVec(0) >= -1 && a.AtVec(0) <= 1)
		assert.True(t, a.AtVec(1) >= -1 && a.AtVec(1) <= 1)
	}

	// Equal seeds give equal actions
	a := experiment.NewRandomPolicy(spec, 9).SelectAction(ts.TimeStep{})
	b := experiment.NewRandomPolicy(spec, 9).SelectAction(ts.TimeStep{})
	assert.Equal(t, a.RawVector().Data, b.RawVector().Data)
}

func TestCreateExp(t *testing.T) {
	c := experiment.Config{
		Type:     experiment.OnlineExp,
		MaxSteps: 5,
		EnvConf:  envconfig.NewConfig(envconfig.Chase, envconfig.Capture, 100, 1),
	}

	lengths := savers.NewEpisodeLength(t.TempDir() + "/lengths.bin")
	exp, err := c.CreateExp(1, experiment.NewRandomPolicy(
		environment.NewUnboundedSpec(2, environment.Action), 1), lengths)
	require.NoError(t, err)
	require.NoError(t, exp.Run())
	assert.Empty(t, lengths.Lengths())

	c.Type = "Offline"
	_, err = c.CreateExp(1, nil)
	assert.Error(t, err)
}
