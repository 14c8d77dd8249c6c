package chase

import (
	"math"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/genesisgym/timestep"
	"github.com/samuelfneumann/genesisgym/utils/floatutils"
)

// PursuitPolicy steers the car straight at the adversary. It drives
// forward in proportion to how well the car faces the adversary and
// turns with a PD controller on the heading error.
type PursuitPolicy struct {
	// Gain scales the heading error, in radians, into a turning torque
	Gain float64

	// Damping scales the yaw rate, in radians per second, into a
	// torque opposing the turn
	Damping float64
}

// NewPursuitPolicy returns a PursuitPolicy with default gains
func NewPursuitPolicy() *PursuitPolicy {
	return &PursuitPolicy{Gain: 2.0, Damping: 0.3}
}

// SelectAction returns the wheel torques to apply at timestep t
func (p *PursuitPolicy) SelectAction(t ts.TimeStep) *mat.VecDense {
	obs := t.Observation
	if obs == nil {
		return mat.NewVecDense(ActionLen, nil)
	}

	heading := math.Atan2(obs.AtVec(AgentSin), obs.AtVec(AgentCos))
	bearing := math.Atan2(obs.AtVec(DeltaY), obs.AtVec(DeltaX))
	e := floatutils.WrapAngle(bearing - heading)

	forward := math.Max(0, math.Cos(e))
	turn := floatutils.Clip(p.Gain*e-p.Damping*obs.AtVec(AgentOmega), -1, 1)

	return mat.NewVecDense(ActionLen, []float64{
		floatutils.Clip(forward-turn, -1, 1),
		floatutils.Clip(forward+turn, -1, 1),
	})
}
