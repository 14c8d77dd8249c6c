// Package physics simulates the rigid bodies of a scene on the ground
// plane. Bodies are moved by box2d in the x-y plane; their heights are
// fixed. Degrees of freedom that are not planar are kept so that joint
// indices line up with the robot description, but they never move.
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
)

const (
	staticBody  = 0
	dynamicBody = 2

	velocityIterations = 8
	positionIterations = 3

	// GroundDamping approximates rolling and sliding friction with the
	// ground plane, which box2d cannot see from above
	GroundDamping = 1.0

	// minHalfExtent keeps thin geometries above box2d's linear slop
	minHalfExtent = 0.005
)

// ErrDofIndex is returned when a degree of freedom index is out of range
var ErrDofIndex = errors.New("dof index out of range")

// ShapeKind is the kind of planar outline a geometry projects to
type ShapeKind int

const (
	Circle ShapeKind = iota
	Rect
)

// Footprint is the planar outline of one geometry, in the body frame
type Footprint struct {
	Kind   ShapeKind
	Center [2]float64
	Radius float64
	Half   [2]float64
	Angle  float64
	Mass   float64
}

// area returns the planar area of the footprint
func (f Footprint) area() float64 {
	if f.Kind == Circle {
		r := math.Max(f.Radius, minHalfExtent)
		return math.Pi * r * r
	}
	return 4 * math.Max(f.Half[0], minHalfExtent) *
		math.Max(f.Half[1], minHalfExtent)
}

// DofKind is the kind of motion a degree of freedom describes
type DofKind int

const (
	// DofSlide translates the body along Axis, given in world
	// coordinates
	DofSlide DofKind = iota

	// DofYaw rotates the body about the vertical axis
	DofYaw

	// DofWheel is a wheel touching the ground at Anchor (body frame),
	// pushing the body along Axis (body frame)
	DofWheel

	// DofPassive is a degree of freedom that is not simulated
	DofPassive
)

// DofDef describes a degree of freedom of a Body
type DofDef struct {
	Name    string
	Kind    DofKind
	Axis    [2]float64
	Anchor  [2]float64
	Radius  float64
	Damping float64

	// Absolute reports slide and yaw positions in world coordinates
	// rather than as displacements from the starting pose
	Absolute bool
}

// BodyDef describes a Body to add to a World
type BodyDef struct {
	Name       string
	X, Y       float64
	Angle      float64
	Static     bool
	Footprints []Footprint
	Dofs       []DofDef
}

// World is a planar rigid-body world
type World struct {
	world    box2d.B2World
	bodies   []*Body
	dt       float64
	substeps int
}

// NewWorld returns a new World which advances by dt seconds per Step,
// split into substeps box2d steps
func NewWorld(dt float64, substeps int) (*World, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("newWorld: dt must be positive, got %v", dt)
	}
	if substeps < 1 {
		return nil, fmt.Errorf("newWorld: need at least one substep, "+
			"got %v", substeps)
	}

	return &World{
		world:    box2d.MakeB2World(box2d.MakeB2Vec2(0, 0)),
		dt:       dt,
		substeps: substeps,
	}, nil
}

// Dt returns the simulated time of one Step
func (w *World) Dt() float64 {
	return w.dt
}

// Bodies returns the bodies of the world in the order they were added
func (w *World) Bodies() []*Body {
	return w.bodies
}

// AddBody adds a new body to the world
func (w *World) AddBody(def BodyDef) (*Body, error) {
	for i, d := range def.Dofs {
		if (d.Kind == DofSlide || d.Kind == DofWheel) && d.Axis == [2]float64{} {
			return nil, fmt.Errorf("addBody: dof %v (%q) has no axis", i,
				d.Name)
		}
		if d.Kind == DofWheel && d.Radius <= 0 {
			return nil, fmt.Errorf("addBody: wheel dof %v (%q) needs a "+
				"positive radius", i, d.Name)
		}
	}

	b := newBody(def)

	bd := box2d.MakeB2BodyDef()
	if def.Static {
		bd.Type = staticBody
	} else {
		bd.Type = dynamicBody
		bd.LinearDamping = GroundDamping
		bd.AngularDamping = GroundDamping
	}
	bd.Position = box2d.MakeB2Vec2(def.X, def.Y)
	bd.Angle = def.Angle
	bd.FixedRotation = !b.hasYaw
	b.body = w.world.CreateBody(&bd)

	for _, f := range def.Footprints {
		fd := box2d.MakeB2FixtureDef()
		fd.Density = f.Mass / f.area()
		fd.Friction = 0.3
		fd.Restitution = 0.1

		switch f.Kind {
		case Circle:
			shape := box2d.NewB2CircleShape()
			shape.M_radius = math.Max(f.Radius, minHalfExtent)
			shape.M_p = box2d.MakeB2Vec2(f.Center[0], f.Center[1])
			fd.Shape = shape

		case Rect:
			shape := box2d.NewB2PolygonShape()
			shape.SetAsBoxFromCenterAndAngle(
				math.Max(f.Half[0], minHalfExtent),
				math.Max(f.Half[1], minHalfExtent),
				box2d.MakeB2Vec2(f.Center[0], f.Center[1]),
				f.Angle,
			)
			fd.Shape = shape

		default:
			return nil, fmt.Errorf("addBody: unknown footprint kind %v",
				f.Kind)
		}
		b.body.CreateFixtureFromDef(&fd)
	}

	w.bodies = append(w.bodies, b)
	return b, nil
}

// Step advances the world by Dt
func (w *World) Step() {
	h := w.dt / float64(w.substeps)
	for i := 0; i < w.substeps; i++ {
		for _, b := range w.bodies {
			b.applyControls(h)
		}
		w.world.Step(h, velocityIterations, positionIterations)
		for _, b := range w.bodies {
			b.afterStep(h)
		}
	}
}

// Reset returns every body to its starting pose at rest and clears
// all controls
func (w *World) Reset() {
	for _, b := range w.bodies {
		b.Reset()
	}
}
