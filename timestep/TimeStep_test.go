package timestep_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ts "github.com/samuelfneumann/genesisgym/timestep"
)

func TestEndings(t *testing.T) {
	tests := []struct {
		name       string
		stepType   ts.StepType
		end        ts.EndType
		terminated bool
		truncated  bool
	}{
		{"mid", ts.Mid, ts.NotEnded, false, false},
		{"goal", ts.Last, ts.TerminalStateReached, true, false},
		{"bounds", ts.Last, ts.OutOfBounds, true, false},
		{"timeout", ts.Last, ts.Timeout, false, true},
		{"end set on mid step", ts.Mid, ts.Timeout, false, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			step := ts.New(test.stepType, 0, 1, nil, 3)
			step.SetEnd(test.end)

			assert.Equal(t, test.terminated, step.Terminated())
			assert.Equal(t, test.truncated, step.Truncated())
			assert.Equal(t, test.end, step.EndType())
		})
	}
}

func TestString(t *testing.T) {
	step := ts.New(ts.First, 1.5, 0.99, nil, 0)
	assert.Contains(t, step.String(), "First")
	assert.Contains(t, step.String(), "NotEnded")
}
