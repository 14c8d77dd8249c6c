package experiment

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/genesisgym/environment"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// Policy selects the action to take at each timestep
type Policy interface {
	SelectAction(t ts.TimeStep) *mat.VecDense
}

// RandomPolicy selects actions uniformly at random within the bounds of
// an action Spec
type RandomPolicy struct {
	low, high *mat.VecDense
	rng       *rand.Rand
}

// NewRandomPolicy returns a new RandomPolicy for actions described by
// spec. Unbounded dimensions are sampled from [-1, 1].
func NewRandomPolicy(spec environment.Spec, seed uint64) *RandomPolicy {
	n := spec.Shape.Len()
	low := mat.NewVecDense(n, nil)
	high := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		l, h := spec.LowerBound.AtVec(i), spec.UpperBound.AtVec(i)
		if math.IsInf(l, 0) || math.IsInf(h, 0) {
			l, h = -1, 1
		}
		low.SetVec(i, l)
		high.SetVec(i, h)
	}

	return &RandomPolicy{
		low:  low,
		high: high,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// SelectAction returns a random action, ignoring t
func (r *RandomPolicy) SelectAction(t ts.TimeStep) *mat.VecDense {
	action := mat.NewVecDense(r.low.Len(), nil)
	for i := 0; i < action.Len(); i++ {
		l, h := r.low.AtVec(i), r.high.AtVec(i)
		action.SetVec(i, l+r.rng.Float64()*(h-l))
	}
	return action
}
