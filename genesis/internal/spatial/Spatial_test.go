package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func TestRotate(t *testing.T) {
	q := FromYaw(math.Pi / 2)
	assertVec(t, r3.Vec{Y: 1}, Rotate(q, r3.Vec{X: 1}))
	assertVec(t, r3.Vec{X: 1}, InverseRotate(q, r3.Vec{Y: 1}))
}

func TestFromTo(t *testing.T) {
	for _, target := range []r3.Vec{{Y: 1}, {X: 1, Z: 1}, {Z: -1}, {Z: 1}} {
		q := FromTo(ZAxis, target)
		assertVec(t, Unit(target), Rotate(q, ZAxis))
	}
}

func TestYawTilt(t *testing.T) {
	q := Mul(FromYaw(0.7), FromAxisAngle(r3.Vec{X: 1}, math.Pi/2))
	assert.InDelta(t, 0.7, Yaw(q), 1e-9)

	back := Mul(FromYaw(Yaw(q)), Tilt(q))
	v := r3.Vec{X: 0.3, Y: -1, Z: 2}
	assertVec(t, Rotate(q, v), Rotate(back, v))
}

func TestFromEuler(t *testing.T) {
	q := FromEuler(r3.Vec{Z: math.Pi})
	assertVec(t, r3.Vec{X: -1}, Rotate(q, r3.Vec{X: 1}))
}
