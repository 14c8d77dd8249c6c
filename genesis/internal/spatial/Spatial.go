// Package spatial provides the rotation and vector helpers shared by the
// scene engine, built on gonum's quaternions and 3-vectors.
package spatial

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Identity is the identity rotation
var Identity = quat.Number{Real: 1}

// ZAxis is the world up axis
var ZAxis = r3.Vec{Z: 1}

// Norm returns the Euclidean length of v
func Norm(v r3.Vec) float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to unit length. The zero vector is returned
// unchanged.
func Unit(v r3.Vec) r3.Vec {
	n := Norm(v)
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// Normalize returns q scaled to unit length
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return Identity
	}
	return quat.Scale(1/n, q)
}

// Rotate rotates v by the unit quaternion q
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// InverseRotate rotates v by the inverse of the unit quaternion q
func InverseRotate(q quat.Number, v r3.Vec) r3.Vec {
	return Rotate(quat.Conj(q), v)
}

// Mul composes rotations, applying b first and then a
func Mul(a, b quat.Number) quat.Number {
	return Normalize(quat.Mul(a, b))
}

// FromAxisAngle returns the rotation of angle radians about axis
func FromAxisAngle(axis r3.Vec, angle float64) quat.Number {
	axis = Unit(axis)
	s := math.Sin(angle / 2)
	return quat.Number{
		Real: math.Cos(angle / 2),
		Imag: axis.X * s,
		Jmag: axis.Y * s,
		Kmag: axis.Z * s,
	}
}

// FromYaw returns the rotation of yaw radians about the world up axis
func FromYaw(yaw float64) quat.Number {
	return FromAxisAngle(ZAxis, yaw)
}

// FromEuler returns the rotation described by intrinsic x-y-z Euler
// angles in radians
func FromEuler(e r3.Vec) quat.Number {
	qx := FromAxisAngle(r3.Vec{X: 1}, e.X)
	qy := FromAxisAngle(r3.Vec{Y: 1}, e.Y)
	qz := FromAxisAngle(r3.Vec{Z: 1}, e.Z)
	return Mul(Mul(qx, qy), qz)
}

// FromTo returns the shortest rotation taking direction a onto
// direction b
func FromTo(a, b r3.Vec) quat.Number {
	a, b = Unit(a), Unit(b)
	d := a.Dot(b)
	if d > 1-1e-12 {
		return Identity
	}
	if d < -1+1e-12 {
		// Half turn about any axis orthogonal to a
		ortho := a.Cross(r3.Vec{X: 1})
		if Norm(ortho) < 1e-6 {
			ortho = a.Cross(r3.Vec{Y: 1})
		}
		return FromAxisAngle(ortho, math.Pi)
	}
	c := a.Cross(b)
	return Normalize(quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z})
}

// Yaw returns the heading of q about the world up axis
func Yaw(q quat.Number) float64 {
	return math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag),
		1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))
}

// Tilt returns the part of q left after removing its yaw, so that
// q == Mul(FromYaw(Yaw(q)), Tilt(q))
func Tilt(q quat.Number) quat.Number {
	return Mul(FromYaw(-Yaw(q)), q)
}

// Transform places a point given in a local frame with position pos and
// rotation rot into the parent frame
func Transform(pos r3.Vec, rot quat.Number, local r3.Vec) r3.Vec {
	return pos.Add(Rotate(rot, local))
}
