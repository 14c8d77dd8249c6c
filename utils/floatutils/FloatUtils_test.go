package floatutils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
	assert.Equal(t, 2.0, ClipInterval(5, r1.Interval{Min: 0, Max: 2}))

	in := []float64{-2, 0, 2}
	out := ClipSlice(in, -1, 1)
	assert.Equal(t, []float64{-1, 0, 1}, out)
	assert.Equal(t, []float64{-2, 0, 2}, in)
}

func TestWrapAngle(t *testing.T) {
	tests := map[float64]float64{
		0:                0,
		math.Pi / 2:      math.Pi / 2,
		3 * math.Pi / 2:  -math.Pi / 2,
		7 * math.Pi / 4:  -math.Pi / 4,
		-5 * math.Pi / 2: -math.Pi / 2,
		-math.Pi / 4:     -math.Pi / 4,
	}
	for in, want := range tests {
		assert.InDelta(t, want, WrapAngle(in), 1e-9, "angle %v", in)
	}
}
