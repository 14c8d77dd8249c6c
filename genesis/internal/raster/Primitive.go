// Package raster renders a snapshot of a scene's geometry by casting one
// ray per pixel. It produces colour, depth, segmentation and normal
// buffers in row-major order.
package raster

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
)

const eps = 1e-6

// Shape is the kind of a Primitive
type Shape int

const (
	Plane Shape = iota
	Sphere
	Box
	Cylinder
	Capsule
	Ellipsoid
)

// Primitive is one piece of renderable geometry in world coordinates.
//
// Size is interpreted per shape:
//
//	Plane      X, Y half sizes (0 is unbounded), Z checker tile size
//	Sphere     X radius
//	Box        half extents
//	Cylinder   X radius, Y half length along the local z axis
//	Capsule    X radius, Y half length of the segment along local z
//	Ellipsoid  radii
type Primitive struct {
	Shape Shape
	Pos   r3.Vec
	Rot   quat.Number
	Size  r3.Vec
	Color [3]float64

	// ID is written to the segmentation buffer where the primitive is
	// visible
	ID int32
}

type ray struct {
	origin, dir r3.Vec
}

func (r ray) at(t float64) r3.Vec {
	return r.origin.Add(r.dir.Scale(t))
}

type hit struct {
	t      float64
	normal r3.Vec
	prim   *Primitive
	point  r3.Vec
}

// intersect returns the closest intersection of r with p in (tMin, tMax)
func (p *Primitive) intersect(r ray, tMin, tMax float64) (hit, bool) {
	// Work in the primitive's frame
	rot := p.Rot
	if rot == (quat.Number{}) {
		rot = spatial.Identity
	}
	local := ray{
		origin: spatial.InverseRotate(rot, r.origin.Sub(p.Pos)),
		dir:    spatial.InverseRotate(rot, r.dir),
	}

	var t float64
	var n r3.Vec
	var ok bool
	switch p.Shape {
	case Plane:
		t, n, ok = hitPlane(local, p.Size, tMin, tMax)
	case Sphere:
		t, n, ok = hitEllipsoid(local, r3.Vec{X: p.Size.X, Y: p.Size.X,
			Z: p.Size.X}, tMin, tMax)
	case Ellipsoid:
		t, n, ok = hitEllipsoid(local, p.Size, tMin, tMax)
	case Box:
		t, n, ok = hitBox(local, p.Size, tMin, tMax)
	case Cylinder:
		t, n, ok = hitCylinder(local, p.Size.X, p.Size.Y, tMin, tMax)
	case Capsule:
		t, n, ok = hitCapsule(local, p.Size.X, p.Size.Y, tMin, tMax)
	}
	if !ok {
		return hit{}, false
	}

	n = spatial.Unit(spatial.Rotate(rot, n))
	if n.Dot(r.dir) > 0 {
		n = n.Scale(-1)
	}
	return hit{t: t, normal: n, prim: p, point: r.at(t)}, true
}

// albedo returns the surface colour of p at world point x
func (p *Primitive) albedo(x r3.Vec) [3]float64 {
	if p.Shape != Plane {
		return p.Color
	}

	tile := p.Size.Z
	if tile <= 0 {
		tile = 1
	}
	local := x.Sub(p.Pos)
	if p.Rot != (quat.Number{}) {
		local = spatial.InverseRotate(p.Rot, local)
	}
	parity := int(math.Floor(local.X/tile)+math.Floor(local.Y/tile)) & 1

	c := p.Color
	if parity == 1 {
		for i := range c {
			c[i] *= 0.75
		}
	}
	return c
}

func hitPlane(r ray, size r3.Vec, tMin, tMax float64) (float64, r3.Vec,
	bool) {
	if math.Abs(r.dir.Z) < eps {
		return 0, r3.Vec{}, false
	}
	t := -r.origin.Z / r.dir.Z
	if t <= tMin || t >= tMax {
		return 0, r3.Vec{}, false
	}

	x := r.at(t)
	if size.X > 0 && math.Abs(x.X) > size.X {
		return 0, r3.Vec{}, false
	}
	if size.Y > 0 && math.Abs(x.Y) > size.Y {
		return 0, r3.Vec{}, false
	}
	return t, spatial.ZAxis, true
}

// quadratic returns the smallest root of a t^2 + b t + c in (tMin, tMax)
func quadratic(a, b, c, tMin, tMax float64) (float64, bool) {
	if math.Abs(a) < eps*eps {
		return 0, false
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t > tMin && t < tMax {
			return t, true
		}
	}
	return 0, false
}

func hitEllipsoid(r ray, radii r3.Vec, tMin, tMax float64) (float64,
	r3.Vec, bool) {
	if radii.X <= 0 || radii.Y <= 0 || radii.Z <= 0 {
		return 0, r3.Vec{}, false
	}

	// Scale to the unit sphere
	o := r3.Vec{X: r.origin.X / radii.X, Y: r.origin.Y / radii.Y,
		Z: r.origin.Z / radii.Z}
	d := r3.Vec{X: r.dir.X / radii.X, Y: r.dir.Y / radii.Y,
		Z: r.dir.Z / radii.Z}

	t, ok := quadratic(d.Dot(d), 2*o.Dot(d), o.Dot(o)-1, tMin, tMax)
	if !ok {
		return 0, r3.Vec{}, false
	}

	x := r.at(t)
	n := r3.Vec{
		X: x.X / (radii.X * radii.X),
		Y: x.Y / (radii.Y * radii.Y),
		Z: x.Z / (radii.Z * radii.Z),
	}
	return t, n, true
}

func hitBox(r ray, half r3.Vec, tMin, tMax float64) (float64, r3.Vec,
	bool) {
	o := [3]float64{r.origin.X, r.origin.Y, r.origin.Z}
	d := [3]float64{r.dir.X, r.dir.Y, r.dir.Z}
	h := [3]float64{half.X, half.Y, half.Z}

	near, far := math.Inf(-1), math.Inf(1)
	nearAxis, farAxis := -1, -1
	for i := 0; i < 3; i++ {
		if math.Abs(d[i]) < eps {
			if o[i] < -h[i] || o[i] > h[i] {
				return 0, r3.Vec{}, false
			}
			continue
		}
		t0 := (-h[i] - o[i]) / d[i]
		t1 := (h[i] - o[i]) / d[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > near {
			near, nearAxis = t0, i
		}
		if t1 < far {
			far, farAxis = t1, i
		}
		if near > far {
			return 0, r3.Vec{}, false
		}
	}

	t, axis := near, nearAxis
	if t <= tMin {
		t, axis = far, farAxis
	}
	if t <= tMin || t >= tMax || axis < 0 {
		return 0, r3.Vec{}, false
	}

	x := r.at(t)
	var n r3.Vec
	switch axis {
	case 0:
		n.X = math.Copysign(1, x.X)
	case 1:
		n.Y = math.Copysign(1, x.Y)
	case 2:
		n.Z = math.Copysign(1, x.Z)
	}
	return t, n, true
}

// hitTube intersects the infinite tube of the given radius about the
// z axis, keeping hits with |z| <= halfLen
func hitTube(r ray, radius, halfLen, tMin, tMax float64) (float64, r3.Vec,
	bool) {
	a := r.dir.X*r.dir.X + r.dir.Y*r.dir.Y
	b := 2 * (r.origin.X*r.dir.X + r.origin.Y*r.dir.Y)
	c := r.origin.X*r.origin.X + r.origin.Y*r.origin.Y - radius*radius

	if math.Abs(a) < eps*eps {
		return 0, r3.Vec{}, false
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, r3.Vec{}, false
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t <= tMin || t >= tMax {
			continue
		}
		x := r.at(t)
		if math.Abs(x.Z) <= halfLen {
			return t, r3.Vec{X: x.X, Y: x.Y}, true
		}
	}
	return 0, r3.Vec{}, false
}

func hitCylinder(r ray, radius, halfLen, tMin, tMax float64) (float64,
	r3.Vec, bool) {
	best, n, ok := hitTube(r, radius, halfLen, tMin, tMax)
	if ok {
		tMax = best
	}

	if math.Abs(r.dir.Z) > eps {
		for _, z := range [2]float64{-halfLen, halfLen} {
			t := (z - r.origin.Z) / r.dir.Z
			if t <= tMin || t >= tMax {
				continue
			}
			x := r.at(t)
			if x.X*x.X+x.Y*x.Y <= radius*radius {
				best, n, ok = t, r3.Vec{Z: math.Copysign(1, z)}, true
				tMax = t
			}
		}
	}
	return best, n, ok
}

func hitCapsule(r ray, radius, halfLen, tMin, tMax float64) (float64,
	r3.Vec, bool) {
	best, n, ok := hitTube(r, radius, halfLen, tMin, tMax)
	if ok {
		tMax = best
	}

	for _, z := range [2]float64{-halfLen, halfLen} {
		end := ray{origin: r.origin.Sub(r3.Vec{Z: z}), dir: r.dir}
		t, cn, capOK := hitEllipsoid(end, r3.Vec{X: radius, Y: radius,
			Z: radius}, tMin, tMax)
		if capOK {
			best, n, ok = t, cn, true
			tMax = t
		}
	}
	return best, n, ok
}
