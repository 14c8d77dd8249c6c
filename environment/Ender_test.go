package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/genesisgym/environment"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

func TestStepLimit(t *testing.T) {
	limit := environment.NewStepLimit(5)

	step := ts.New(ts.Mid, 0, 1, nil, 4)
	assert.False(t, limit.End(&step))
	assert.True(t, step.Mid())

	step = ts.New(ts.Mid, 0, 1, nil, 5)
	require.True(t, limit.End(&step))
	assert.True(t, step.Last())
	assert.True(t, step.Truncated())
}

func TestIntervalLimit(t *testing.T) {
	limit := environment.NewIntervalLimit(
		[]r1.Interval{{Min: -1, Max: 1}},
		[]int{1},
		ts.OutOfBounds,
	)

	inside := ts.New(ts.Mid, 0, 1, mat.NewVecDense(2, []float64{10, 0.5}), 1)
	assert.False(t, limit.End(&inside))

	outside := ts.New(ts.Mid, 0, 1, mat.NewVecDense(2, []float64{0, -1.5}), 1)
	require.True(t, limit.End(&outside))
	assert.True(t, outside.Terminated())
	assert.Equal(t, ts.OutOfBounds, outside.EndType())

	assert.Panics(t, func() {
		environment.NewIntervalLimit([]r1.Interval{{}}, nil, ts.Timeout)
	})
}

func TestFunctionEnder(t *testing.T) {
	ender := environment.NewFunctionEnder(func(v *mat.VecDense) bool {
		return v.AtVec(0) < 0.1
	}, ts.TerminalStateReached)

	far := ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{3}), 1)
	assert.False(t, ender.End(&far))

	near := ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{0.05}), 1)
	require.True(t, ender.End(&near))
	assert.True(t, near.Terminated())

	empty := ts.New(ts.Mid, 0, 1, nil, 1)
	assert.False(t, ender.End(&empty))
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: 1, Max: 2}, {Min: -3, Max: -3}}
	s := environment.NewUniformStarter(bounds, 42)

	for i := 0; i < 20; i++ {
		start := s.Start()
		require.Equal(t, 2, start.Len())
		assert.GreaterOrEqual(t, start.AtVec(0), 1.0)
		assert.LessOrEqual(t, start.AtVec(0), 2.0)
		assert.Equal(t, -3.0, start.AtVec(1))
	}

	// Same seed, same sequence
	a := environment.NewUniformStarter(bounds, 7).Start()
	b := environment.NewUniformStarter(bounds, 7).Start()
	assert.True(t, mat.Equal(a, b))
}

func TestUnboundedSpec(t *testing.T) {
	s := environment.NewUnboundedSpec(3, environment.Observation)
	assert.Equal(t, 3, s.Shape.Len())
	assert.Equal(t, environment.Continuous, s.Cardinality)
	assert.True(t, s.UpperBound.AtVec(2) > 1e300)
	assert.True(t, s.LowerBound.AtVec(0) < -1e300)
}
