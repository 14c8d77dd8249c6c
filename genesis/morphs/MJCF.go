package morphs

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/assets"
	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
)

// ErrMJCF is returned when an MJCF document cannot be interpreted
var ErrMJCF = errors.New("invalid MJCF")

// MJCF loads an articulated body from a MuJoCo XML (MJCF) file.
//
// File is resolved against FS when it is set. Otherwise the embedded
// assets are searched first and the operating system's file system
// second, so that the files shipped with this module can be referred
// to by their relative path (e.g. "xmls/agents/car.xml") from anywhere.
type MJCF struct {
	File  string
	Pos   r3.Vec
	Euler r3.Vec // degrees
	FS    fs.FS
}

// Load implements Morph
func (m MJCF) Load() (*Model, error) {
	data, err := m.read()
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	model, err := ParseMJCF(data)
	if err != nil {
		return nil, fmt.Errorf("load: %v: %w", m.File, err)
	}

	rot := spatial.FromEuler(m.Euler.Scale(degToRad))
	for _, b := range model.Bodies {
		b.Pos = spatial.Transform(m.Pos, rot, b.Pos)
		b.Quat = spatial.Mul(rot, b.Quat)
	}

	return model, nil
}

func (m MJCF) String() string {
	return fmt.Sprintf("MJCF(%v)", m.File)
}

func (m MJCF) read() ([]byte, error) {
	if m.File == "" {
		return nil, errors.New("read: no MJCF file given")
	}
	if m.FS != nil {
		return fs.ReadFile(m.FS, m.File)
	}

	if name := path.Clean(m.File); fs.ValidPath(name) {
		if data, err := fs.ReadFile(assets.FS, name); err == nil {
			return data, nil
		}
	}
	return os.ReadFile(m.File)
}

type mjcfDoc struct {
	XMLName  xml.Name `xml:"mujoco"`
	Model    string   `xml:"model,attr"`
	Compiler struct {
		Angle string `xml:"angle,attr"`
	} `xml:"compiler"`
	Default struct {
		Joint mjcfJoint `xml:"joint"`
		Geom  mjcfGeom  `xml:"geom"`
	} `xml:"default"`
	Worldbody mjcfBody `xml:"worldbody"`
	Actuator  struct {
		Motors     []mjcfActuator `xml:"motor"`
		Velocities []mjcfActuator `xml:"velocity"`
		Positions  []mjcfActuator `xml:"position"`
	} `xml:"actuator"`
}

type mjcfBody struct {
	Name       string      `xml:"name,attr"`
	Pos        string      `xml:"pos,attr"`
	Quat       string      `xml:"quat,attr"`
	Euler      string      `xml:"euler,attr"`
	AxisAngle  string      `xml:"axisangle,attr"`
	ZAxis      string      `xml:"zaxis,attr"`
	FreeJoints []mjcfJoint `xml:"freejoint"`
	Joints     []mjcfJoint `xml:"joint"`
	Geoms      []mjcfGeom  `xml:"geom"`
	Bodies     []mjcfBody  `xml:"body"`
}

type mjcfJoint struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	Axis    string `xml:"axis,attr"`
	Pos     string `xml:"pos,attr"`
	Damping string `xml:"damping,attr"`
}

type mjcfGeom struct {
	Name      string `xml:"name,attr"`
	Type      string `xml:"type,attr"`
	Size      string `xml:"size,attr"`
	Pos       string `xml:"pos,attr"`
	Quat      string `xml:"quat,attr"`
	Euler     string `xml:"euler,attr"`
	AxisAngle string `xml:"axisangle,attr"`
	ZAxis     string `xml:"zaxis,attr"`
	FromTo    string `xml:"fromto,attr"`
	RGBA      string `xml:"rgba,attr"`
	Mass      string `xml:"mass,attr"`
	Density   string `xml:"density,attr"`
}

type mjcfActuator struct {
	Name        string `xml:"name,attr"`
	Joint       string `xml:"joint,attr"`
	Gear        string `xml:"gear,attr"`
	CtrlRange   string `xml:"ctrlrange,attr"`
	CtrlLimited string `xml:"ctrllimited,attr"`
}

// parser carries the document-wide settings needed while converting
// the raw XML into a Model
type parser struct {
	doc     *mjcfDoc
	radians bool
}

// ParseMJCF parses an MJCF document. Every body directly under
// <worldbody> becomes a top-level body of the returned Model; geoms
// placed directly in the world body are gathered into a single static
// body named "world".
func ParseMJCF(data []byte) (*Model, error) {
	var doc mjcfDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parseMJCF: %v: %w", err, ErrMJCF)
	}

	p := parser{doc: &doc}
	switch doc.Compiler.Angle {
	case "", "degree":
	case "radian":
		p.radians = true
	default:
		return nil, fmt.Errorf("parseMJCF: unknown compiler angle %q: %w",
			doc.Compiler.Angle, ErrMJCF)
	}

	model := &Model{Name: doc.Model}

	if len(doc.Worldbody.Joints)+len(doc.Worldbody.FreeJoints) > 0 {
		return nil, fmt.Errorf("parseMJCF: the world body cannot have "+
			"joints: %w", ErrMJCF)
	}
	if len(doc.Worldbody.Geoms) > 0 {
		world := &Body{Name: "world", Quat: spatial.Identity}
		for _, g := range doc.Worldbody.Geoms {
			geom, err := p.geom(g)
			if err != nil {
				return nil, fmt.Errorf("parseMJCF: %w", err)
			}
			world.Geoms = append(world.Geoms, geom)
		}
		model.Bodies = append(model.Bodies, world)
	}

	for _, b := range doc.Worldbody.Bodies {
		body, err := p.body(b)
		if err != nil {
			return nil, fmt.Errorf("parseMJCF: %w", err)
		}
		model.Bodies = append(model.Bodies, body)
	}
	if len(model.Bodies) == 0 {
		return nil, fmt.Errorf("parseMJCF: no bodies in world body: %w",
			ErrMJCF)
	}

	joints := make(map[string]bool)
	for _, b := range model.Bodies {
		b.Walk(func(body *Body, _ r3.Vec, _ quat.Number) {
			for _, j := range body.Joints {
				joints[j.Name] = true
			}
		})
	}

	kinds := []struct {
		kind ActuatorKind
		acts []mjcfActuator
	}{
		{Motor, doc.Actuator.Motors},
		{Velocity, doc.Actuator.Velocities},
		{Position, doc.Actuator.Positions},
	}
	for _, k := range kinds {
		for _, a := range k.acts {
			act, err := p.actuator(a, k.kind)
			if err != nil {
				return nil, fmt.Errorf("parseMJCF: %w", err)
			}
			if !joints[act.Joint] {
				return nil, fmt.Errorf("parseMJCF: actuator %q drives "+
					"unknown joint %q: %w", act.Name, act.Joint, ErrMJCF)
			}
			model.Actuators = append(model.Actuators, act)
		}
	}

	return model, nil
}

func (p parser) body(b mjcfBody) (*Body, error) {
	pos, err := parseVec(b.Pos, r3.Vec{})
	if err != nil {
		return nil, fmt.Errorf("body %q: pos: %w", b.Name, err)
	}
	rot, err := p.orientation(b.Quat, b.Euler, b.AxisAngle, b.ZAxis)
	if err != nil {
		return nil, fmt.Errorf("body %q: %w", b.Name, err)
	}

	body := &Body{Name: b.Name, Pos: pos, Quat: rot}

	for _, j := range b.FreeJoints {
		body.Joints = append(body.Joints, Joint{
			Name: j.Name,
			Type: JointFree,
		})
	}
	for _, j := range b.Joints {
		joint, err := p.joint(j)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.Name, err)
		}
		body.Joints = append(body.Joints, joint)
	}

	for _, g := range b.Geoms {
		geom, err := p.geom(g)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.Name, err)
		}
		body.Geoms = append(body.Geoms, geom)
	}

	for _, c := range b.Bodies {
		child, err := p.body(c)
		if err != nil {
			return nil, err
		}
		body.Children = append(body.Children, child)
	}

	return body, nil
}

func (p parser) joint(j mjcfJoint) (Joint, error) {
	def := p.doc.Default.Joint
	typ := or(j.Type, def.Type, "hinge")

	joint := Joint{Name: j.Name}
	switch typ {
	case "free":
		joint.Type = JointFree
	case "slide":
		joint.Type = JointSlide
	case "hinge":
		joint.Type = JointHinge
	case "ball":
		joint.Type = JointBall
	default:
		return Joint{}, fmt.Errorf("joint %q: unknown type %q: %w", j.Name,
			typ, ErrMJCF)
	}

	var err error
	joint.Axis, err = parseVec(or(j.Axis, def.Axis), spatial.ZAxis)
	if err != nil {
		return Joint{}, fmt.Errorf("joint %q: axis: %w", j.Name, err)
	}
	if spatial.Norm(joint.Axis) == 0 {
		return Joint{}, fmt.Errorf("joint %q: zero axis: %w", j.Name, ErrMJCF)
	}
	joint.Axis = spatial.Unit(joint.Axis)

	joint.Pos, err = parseVec(or(j.Pos, def.Pos), r3.Vec{})
	if err != nil {
		return Joint{}, fmt.Errorf("joint %q: pos: %w", j.Name, err)
	}
	joint.Damping, err = parseFloat(or(j.Damping, def.Damping), 0)
	if err != nil {
		return Joint{}, fmt.Errorf("joint %q: damping: %w", j.Name, err)
	}

	return joint, nil
}

func (p parser) geom(g mjcfGeom) (Geom, error) {
	def := p.doc.Default.Geom
	geom := Geom{Name: g.Name}

	typ := or(g.Type, def.Type, "sphere")
	switch typ {
	case "plane":
		geom.Type = GeomPlane
	case "sphere":
		geom.Type = GeomSphere
	case "box":
		geom.Type = GeomBox
	case "capsule":
		geom.Type = GeomCapsule
	case "cylinder":
		geom.Type = GeomCylinder
	case "ellipsoid":
		geom.Type = GeomEllipsoid
	default:
		return Geom{}, fmt.Errorf("geom %q: unsupported type %q: %w", g.Name,
			typ, ErrMJCF)
	}

	size, err := parseFloats(or(g.Size, def.Size))
	if err != nil {
		return Geom{}, fmt.Errorf("geom %q: size: %w", g.Name, err)
	}
	for len(size) < 3 {
		size = append(size, 0)
	}
	geom.Size = r3.Vec{X: size[0], Y: size[1], Z: size[2]}

	geom.Pos, err = parseVec(g.Pos, r3.Vec{})
	if err != nil {
		return Geom{}, fmt.Errorf("geom %q: pos: %w", g.Name, err)
	}
	geom.Quat, err = p.orientation(g.Quat, g.Euler, g.AxisAngle, g.ZAxis)
	if err != nil {
		return Geom{}, fmt.Errorf("geom %q: %w", g.Name, err)
	}

	if g.FromTo != "" {
		ends, err := parseFloats(g.FromTo)
		if err != nil || len(ends) != 6 {
			return Geom{}, fmt.Errorf("geom %q: fromto needs six "+
				"numbers: %w", g.Name, ErrMJCF)
		}
		from := r3.Vec{X: ends[0], Y: ends[1], Z: ends[2]}
		to := r3.Vec{X: ends[3], Y: ends[4], Z: ends[5]}
		axis := to.Sub(from)
		geom.Pos = from.Add(axis.Scale(0.5))
		geom.Quat = spatial.FromTo(spatial.ZAxis, axis)
		switch geom.Type {
		case GeomCapsule, GeomCylinder:
			geom.Size.Y = spatial.Norm(axis) / 2
		case GeomBox, GeomEllipsoid:
			geom.Size.Z = spatial.Norm(axis) / 2
		}
	}

	if err := validateSize(geom); err != nil {
		return Geom{}, err
	}

	rgba, err := parseFloats(or(g.RGBA, def.RGBA))
	if err != nil {
		return Geom{}, fmt.Errorf("geom %q: rgba: %w", g.Name, err)
	}
	switch len(rgba) {
	case 0:
		geom.RGBA = DefaultRGBA
	case 4:
		copy(geom.RGBA[:], rgba)
	default:
		return Geom{}, fmt.Errorf("geom %q: rgba needs four numbers: %w",
			g.Name, ErrMJCF)
	}

	geom.Mass, err = parseFloat(or(g.Mass, def.Mass), 0)
	if err != nil {
		return Geom{}, fmt.Errorf("geom %q: mass: %w", g.Name, err)
	}
	geom.Density, err = parseFloat(or(g.Density, def.Density),
		DefaultDensity)
	if err != nil {
		return Geom{}, fmt.Errorf("geom %q: density: %w", g.Name, err)
	}

	return geom, nil
}

func validateSize(g Geom) error {
	var need int
	switch g.Type {
	case GeomSphere:
		need = 1
	case GeomCapsule, GeomCylinder:
		need = 2
	case GeomBox, GeomEllipsoid:
		need = 3
	}

	size := []float64{g.Size.X, g.Size.Y, g.Size.Z}
	for i := 0; i < need; i++ {
		if size[i] <= 0 {
			return fmt.Errorf("geom %q: %v needs %d positive sizes, got "+
				"%v: %w", g.Name, g.Type, need, size, ErrMJCF)
		}
	}
	return nil
}

func (p parser) actuator(a mjcfActuator, kind ActuatorKind) (Actuator, error) {
	if a.Joint == "" {
		return Actuator{}, fmt.Errorf("actuator %q: only joint "+
			"transmissions are supported: %w", a.Name, ErrMJCF)
	}
	act := Actuator{Name: a.Name, Joint: a.Joint, Kind: kind}

	gear, err := parseFloats(or(a.Gear, "1"))
	if err != nil || len(gear) == 0 {
		return Actuator{}, fmt.Errorf("actuator %q: gear: %w", a.Name,
			ErrMJCF)
	}
	act.Gear = gear[0]

	if a.CtrlRange != "" {
		r, err := parseFloats(a.CtrlRange)
		if err != nil || len(r) != 2 || r[0] > r[1] {
			return Actuator{}, fmt.Errorf("actuator %q: ctrlrange must be "+
				"two ordered numbers: %w", a.Name, ErrMJCF)
		}
		act.CtrlRange = [2]float64{r[0], r[1]}
		act.Limited = a.CtrlLimited != "false"
	}

	return act, nil
}

// orientation converts the alternative MJCF orientation attributes into
// a rotation. At most one may be given.
func (p parser) orientation(q, euler, axisAngle, zaxis string) (quat.Number,
	error) {
	given := 0
	for _, s := range []string{q, euler, axisAngle, zaxis} {
		if s != "" {
			given++
		}
	}
	if given > 1 {
		return quat.Number{}, fmt.Errorf("orientation specified more than "+
			"once: %w", ErrMJCF)
	}

	switch {
	case q != "":
		v, err := parseFloats(q)
		if err != nil || len(v) != 4 {
			return quat.Number{}, fmt.Errorf("quat needs four numbers: %w",
				ErrMJCF)
		}
		return spatial.Normalize(quat.Number{Real: v[0], Imag: v[1],
			Jmag: v[2], Kmag: v[3]}), nil

	case euler != "":
		e, err := parseVec(euler, r3.Vec{})
		if err != nil {
			return quat.Number{}, fmt.Errorf("euler: %w", err)
		}
		return spatial.FromEuler(p.angles(e)), nil

	case axisAngle != "":
		v, err := parseFloats(axisAngle)
		if err != nil || len(v) != 4 {
			return quat.Number{}, fmt.Errorf("axisangle needs four "+
				"numbers: %w", ErrMJCF)
		}
		angle := v[3]
		if !p.radians {
			angle *= degToRad
		}
		return spatial.FromAxisAngle(r3.Vec{X: v[0], Y: v[1], Z: v[2]},
			angle), nil

	case zaxis != "":
		z, err := parseVec(zaxis, spatial.ZAxis)
		if err != nil {
			return quat.Number{}, fmt.Errorf("zaxis: %w", err)
		}
		return spatial.FromTo(spatial.ZAxis, z), nil
	}

	return spatial.Identity, nil
}

func (p parser) angles(v r3.Vec) r3.Vec {
	if p.radians {
		return v
	}
	return v.Scale(degToRad)
}

// or returns the first non-empty string
func or(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, ErrMJCF)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloat(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	v, err := parseFloats(s)
	if err != nil || len(v) != 1 {
		return 0, fmt.Errorf("%q is not a number: %w", s, ErrMJCF)
	}
	return v[0], nil
}

func parseVec(s string, def r3.Vec) (r3.Vec, error) {
	if s == "" {
		return def, nil
	}
	v, err := parseFloats(s)
	if err != nil || len(v) != 3 {
		return r3.Vec{}, fmt.Errorf("%q is not a 3-vector: %w", s, ErrMJCF)
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
