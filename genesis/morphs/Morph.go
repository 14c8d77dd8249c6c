// Package morphs describes the shapes that entities are built from:
// primitive shapes such as planes, boxes and spheres, and articulated
// robots described by MJCF files.
package morphs

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
)

// Morph describes the morphology of an entity. Loading a Morph returns
// the Model of bodies, joints, and geometries that the entity is built
// from.
type Morph interface {
	Load() (*Model, error)
	fmt.Stringer
}

// GeomType is the type of a collision/visual geometry
type GeomType int

const (
	GeomPlane GeomType = iota
	GeomSphere
	GeomBox
	GeomCapsule
	GeomCylinder
	GeomEllipsoid
)

func (g GeomType) String() string {
	switch g {
	case GeomPlane:
		return "plane"
	case GeomSphere:
		return "sphere"
	case GeomBox:
		return "box"
	case GeomCapsule:
		return "capsule"
	case GeomCylinder:
		return "cylinder"
	case GeomEllipsoid:
		return "ellipsoid"
	}
	return fmt.Sprintf("GeomType(%d)", int(g))
}

// JointType is the type of a joint
type JointType int

const (
	JointFree JointType = iota
	JointSlide
	JointHinge
	JointBall
)

func (j JointType) String() string {
	switch j {
	case JointFree:
		return "free"
	case JointSlide:
		return "slide"
	case JointHinge:
		return "hinge"
	case JointBall:
		return "ball"
	}
	return fmt.Sprintf("JointType(%d)", int(j))
}

// NDofs returns the number of degrees of freedom a joint of this type
// contributes
func (j JointType) NDofs() int {
	switch j {
	case JointFree:
		return 6
	case JointBall:
		return 3
	default:
		return 1
	}
}

// Geom is a geometry attached to a body. Size follows MJCF
// conventions: radius for spheres, radius and half length for
// capsules and cylinders (about the local z axis), half extents for
// boxes, radii for ellipsoids, and half extents plus grid spacing for
// planes. A zero plane half extent means the plane is infinite.
type Geom struct {
	Name    string
	Type    GeomType
	Size    r3.Vec
	Pos     r3.Vec
	Quat    quat.Number
	RGBA    [4]float64
	Mass    float64
	Density float64
}

// Volume returns the volume of the geometry
func (g Geom) Volume() float64 {
	switch g.Type {
	case GeomSphere:
		return 4.0 / 3.0 * math.Pi * g.Size.X * g.Size.X * g.Size.X
	case GeomBox:
		return 8 * g.Size.X * g.Size.Y * g.Size.Z
	case GeomCylinder:
		return math.Pi * g.Size.X * g.Size.X * 2 * g.Size.Y
	case GeomCapsule:
		r := g.Size.X
		return math.Pi*r*r*2*g.Size.Y + 4.0/3.0*math.Pi*r*r*r
	case GeomEllipsoid:
		return 4.0 / 3.0 * math.Pi * g.Size.X * g.Size.Y * g.Size.Z
	}
	return 0
}

// GeomMass returns the mass of the geometry, derived from its density
// when no explicit mass was given
func (g Geom) GeomMass() float64 {
	if g.Mass > 0 {
		return g.Mass
	}
	return g.Density * g.Volume()
}

// Joint connects a body to its parent
type Joint struct {
	Name    string
	Type    JointType
	Axis    r3.Vec
	Pos     r3.Vec
	Damping float64
}

// Body is a rigid link of a Model
type Body struct {
	Name     string
	Pos      r3.Vec
	Quat     quat.Number
	Joints   []Joint
	Geoms    []Geom
	Children []*Body
}

// Walk calls f for b and each of its descendants, depth first. The
// position and rotation passed to f are those of the body relative to
// the body Walk was called on.
func (b *Body) Walk(f func(body *Body, pos r3.Vec, rot quat.Number)) {
	b.walk(r3.Vec{}, spatial.Identity, true, f)
}

func (b *Body) walk(pos r3.Vec, rot quat.Number, root bool,
	f func(*Body, r3.Vec, quat.Number)) {
	if !root {
		pos = spatial.Transform(pos, rot, b.Pos)
		rot = spatial.Mul(rot, b.Quat)
	}
	f(b, pos, rot)
	for _, child := range b.Children {
		child.walk(pos, rot, false, f)
	}
}

// ActuatorKind is the kind of an actuator
type ActuatorKind int

const (
	Motor ActuatorKind = iota
	Velocity
	Position
)

// Actuator drives a joint
type Actuator struct {
	Name      string
	Joint     string
	Kind      ActuatorKind
	Gear      float64
	CtrlRange [2]float64
	Limited   bool
}

// Model is the loaded description of a morph. Bodies holds the
// top-level bodies, each of which becomes a separately simulated rigid
// body.
type Model struct {
	Name      string
	Bodies    []*Body
	Actuators []Actuator
}

// NumDofs returns the number of degrees of freedom of the model
func (m *Model) NumDofs() int {
	n := 0
	for _, b := range m.Bodies {
		b.Walk(func(body *Body, _ r3.Vec, _ quat.Number) {
			for _, j := range body.Joints {
				n += j.Type.NDofs()
			}
		})
	}
	return n
}

// DefaultRGBA is the colour given to geometries without one
var DefaultRGBA = [4]float64{0.5, 0.5, 0.5, 1}

// DefaultDensity is the density given to geometries without a mass or
// density, in kg/m^3
const DefaultDensity = 1000.0

// Plane is an static plane, usually used as the ground
type Plane struct {
	Pos    r3.Vec
	Normal r3.Vec

	// Size holds the half extents of the plane; zero means infinite
	Size [2]float64

	// TileSize is the length of one checker tile
	TileSize float64
}

// Load implements Morph
func (p Plane) Load() (*Model, error) {
	normal := p.Normal
	if normal == (r3.Vec{}) {
		normal = spatial.ZAxis
	}
	tile := p.TileSize
	if tile <= 0 {
		tile = 1.0
	}

	return &Model{
		Name: "plane",
		Bodies: []*Body{{
			Name: "plane",
			Pos:  p.Pos,
			Quat: spatial.FromTo(spatial.ZAxis, normal),
			Geoms: []Geom{{
				Name: "plane",
				Type: GeomPlane,
				Size: r3.Vec{X: p.Size[0], Y: p.Size[1], Z: tile},
				Quat: spatial.Identity,
				RGBA: [4]float64{0.85, 0.85, 0.85, 1},
			}},
		}},
	}, nil
}

func (p Plane) String() string {
	return "Plane"
}

// Box is a free box, or a fixed one if Fixed is set
type Box struct {
	Pos   r3.Vec
	Euler r3.Vec // degrees

	// Size holds the full edge lengths of the box
	Size  r3.Vec
	RGBA  [4]float64
	Fixed bool
}

// Load implements Morph
func (b Box) Load() (*Model, error) {
	if b.Size.X <= 0 || b.Size.Y <= 0 || b.Size.Z <= 0 {
		return nil, fmt.Errorf("load: box size must be positive, got %v",
			b.Size)
	}

	return primitive("box", b.Pos, b.Euler, b.Fixed, Geom{
		Name: "box",
		Type: GeomBox,
		Size: b.Size.Scale(0.5),
		RGBA: b.RGBA,
	}), nil
}

func (b Box) String() string {
	return "Box"
}

// Sphere is a free sphere, or a fixed one if Fixed is set
type Sphere struct {
	Pos    r3.Vec
	Radius float64
	RGBA   [4]float64
	Fixed  bool
}

// Load implements Morph
func (s Sphere) Load() (*Model, error) {
	if s.Radius <= 0 {
		return nil, fmt.Errorf("load: sphere radius must be positive, "+
			"got %v", s.Radius)
	}

	return primitive("sphere", s.Pos, r3.Vec{}, s.Fixed, Geom{
		Name: "sphere",
		Type: GeomSphere,
		Size: r3.Vec{X: s.Radius},
		RGBA: s.RGBA,
	}), nil
}

func (s Sphere) String() string {
	return "Sphere"
}

func primitive(name string, pos, eulerDeg r3.Vec, fixed bool,
	g Geom) *Model {
	if g.RGBA == ([4]float64{}) {
		g.RGBA = DefaultRGBA
	}
	g.Quat = spatial.Identity
	g.Density = DefaultDensity

	body := &Body{
		Name:  name,
		Pos:   pos,
		Quat:  spatial.FromEuler(eulerDeg.Scale(degToRad)),
		Geoms: []Geom{g},
	}
	if !fixed {
		body.Joints = []Joint{{Name: name + "_joint", Type: JointFree}}
	}

	return &Model{Name: name, Bodies: []*Body{body}}
}

const degToRad = math.Pi / 180
