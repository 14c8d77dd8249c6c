package genesis

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/physics"
	"github.com/samuelfneumann/genesisgym/genesis/internal/raster"
	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
	"github.com/samuelfneumann/genesisgym/genesis/morphs"
)

var (
	// ErrUnknownJoint is returned when a joint name is not found
	ErrUnknownJoint = errors.New("unknown joint")

	// ErrDofMismatch is returned when values and dof indices differ in
	// length
	ErrDofMismatch = errors.New("values and dof indices differ in length")
)

// verticalTolerance is how far from vertical a joint axis may be and
// still be treated as a rotation about the up axis
const verticalTolerance = 1e-3

// EntityOption configures an Entity when it is added to a Scene
type EntityOption func(*Entity)

// WithName names the entity
func WithName(name string) EntityOption {
	return func(e *Entity) {
		e.name = name
	}
}

// WithColor overrides the colour of every geometry of the entity
func WithColor(rgba [4]float64) EntityOption {
	return func(e *Entity) {
		e.color = &rgba
	}
}

// Joint is a named joint of an Entity
type Joint struct {
	name string
	typ  morphs.JointType
	dofs []int
}

// Name returns the name of the joint
func (j *Joint) Name() string {
	return j.name
}

// Type returns the kind of the joint
func (j *Joint) Type() morphs.JointType {
	return j.typ
}

// DofsIdxLocal returns the indices of the joint's degrees of freedom
// within its entity
func (j *Joint) DofsIdxLocal() []int {
	out := make([]int, len(j.dofs))
	copy(out, j.dofs)
	return out
}

// DofIdxLocal returns the index of the joint's first degree of freedom
// within its entity, or -1 if it has none
func (j *Joint) DofIdxLocal() int {
	if len(j.dofs) == 0 {
		return -1
	}
	return j.dofs[0]
}

type linkGeom struct {
	geom morphs.Geom

	// pose relative to the link's root body
	pos r3.Vec
	rot quat.Number
}

// link is one top-level body of an entity's model, simulated as a
// single rigid body
type link struct {
	name   string
	def    physics.BodyDef
	body   *physics.Body
	height float64
	tilt   quat.Number
	geoms  []linkGeom
}

// pose returns the world position and rotation of the link
func (l *link) pose() (r3.Vec, quat.Number) {
	x, y := l.body.Position()
	rot := spatial.Mul(spatial.FromYaw(l.body.Angle()), l.tilt)
	return r3.Vec{X: x, Y: y, Z: l.height}, rot
}

type dofRef struct {
	link  *link
	local int
}

// Entity is an object in a Scene, created from a morph
type Entity struct {
	uid   uuid.UUID
	idx   int
	name  string
	scene *Scene
	morph morphs.Morph
	color *[4]float64

	links  []*link
	joints []*Joint
	dofs   []dofRef
}

func newEntity(s *Scene, idx int, morph morphs.Morph,
	opts ...EntityOption) (*Entity, error) {
	model, err := morph.Load()
	if err != nil {
		return nil, err
	}
	if len(model.Bodies) == 0 {
		return nil, fmt.Errorf("newEntity: %v has no bodies", morph)
	}

	e := &Entity{
		uid:   uuid.New(),
		idx:   idx,
		name:  model.Name,
		scene: s,
		morph: morph,
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, b := range model.Bodies {
		if err := e.addLink(b); err != nil {
			return nil, fmt.Errorf("newEntity: %v: %w", morph, err)
		}
	}
	return e, nil
}

// addLink converts a top-level body and its subtree into a link. Its
// geometries are expressed in the link's yaw frame, which is the frame
// the physics body moves in.
func (e *Entity) addLink(root *morphs.Body) error {
	rootRot := root.Quat
	if rootRot == (quat.Number{}) {
		rootRot = spatial.Identity
	}
	tilt := spatial.Tilt(rootRot)

	l := &link{
		name:   root.Name,
		height: root.Pos.Z,
		tilt:   tilt,
		def: physics.BodyDef{
			Name:   root.Name,
			X:      root.Pos.X,
			Y:      root.Pos.Y,
			Angle:  spatial.Yaw(rootRot),
			Static: len(root.Joints) == 0,
		},
	}

	var walkErr error
	root.Walk(func(body *morphs.Body, pos r3.Vec, rot quat.Number) {
		if walkErr != nil {
			return
		}
		isRoot := body == root

		for _, g := range body.Geoms {
			gq := g.Quat
			if gq == (quat.Number{}) {
				gq = spatial.Identity
			}
			lg := linkGeom{
				geom: g,
				pos:  spatial.Transform(pos, rot, g.Pos),
				rot:  spatial.Mul(rot, gq),
			}
			l.geoms = append(l.geoms, lg)

			if fp, ok := footprint(lg, tilt); ok {
				l.def.Footprints = append(l.def.Footprints, fp)
			}
		}

		for _, j := range body.Joints {
			defs, err := jointDofs(j, body, isRoot, pos, rot, rootRot, tilt)
			if err != nil {
				walkErr = err
				return
			}

			joint := &Joint{name: j.Name, typ: j.Type}
			for _, d := range defs {
				joint.dofs = append(joint.dofs, len(e.dofs))
				e.dofs = append(e.dofs, dofRef{link: l, local: len(l.def.Dofs)})
				l.def.Dofs = append(l.def.Dofs, d)
			}
			e.joints = append(e.joints, joint)
		}
	})
	if walkErr != nil {
		return walkErr
	}

	e.links = append(e.links, l)
	return nil
}

// jointDofs returns the planar degrees of freedom of joint j of body,
// whose pose relative to the link root is (pos, rot)
func jointDofs(j morphs.Joint, body *morphs.Body, isRoot bool, pos r3.Vec,
	rot, rootRot, tilt quat.Number) ([]physics.DofDef, error) {
	passive := func(names ...string) []physics.DofDef {
		defs := make([]physics.DofDef, len(names))
		for i, n := range names {
			defs[i] = physics.DofDef{Name: n, Kind: physics.DofPassive,
				Damping: j.Damping}
		}
		return defs
	}

	switch j.Type {
	case morphs.JointFree:
		if !isRoot {
			return passive(j.Name+"_x", j.Name+"_y", j.Name+"_z",
				j.Name+"_roll", j.Name+"_pitch", j.Name+"_yaw"), nil
		}
		return []physics.DofDef{
			{Name: j.Name + "_x", Kind: physics.DofSlide,
				Axis: [2]float64{1, 0}, Damping: j.Damping, Absolute: true},
			{Name: j.Name + "_y", Kind: physics.DofSlide,
				Axis: [2]float64{0, 1}, Damping: j.Damping, Absolute: true},
			{Name: j.Name + "_z", Kind: physics.DofPassive},
			{Name: j.Name + "_roll", Kind: physics.DofPassive},
			{Name: j.Name + "_pitch", Kind: physics.DofPassive},
			{Name: j.Name + "_yaw", Kind: physics.DofYaw, Damping: j.Damping,
				Absolute: true},
		}, nil

	case morphs.JointBall:
		return passive(j.Name+"_x", j.Name+"_y", j.Name+"_z"), nil

	case morphs.JointSlide:
		if !isRoot {
			return passive(j.Name), nil
		}
		axis := spatial.Rotate(rootRot, j.Axis)
		planar := [2]float64{axis.X, axis.Y}
		if math.Hypot(planar[0], planar[1]) < verticalTolerance {
			return passive(j.Name), nil
		}
		return []physics.DofDef{{Name: j.Name, Kind: physics.DofSlide,
			Axis: planar, Damping: j.Damping}}, nil

	case morphs.JointHinge:
		if isRoot {
			axis := spatial.Unit(spatial.Rotate(rootRot, j.Axis))
			if math.Abs(axis.Z) < 1-verticalTolerance {
				return passive(j.Name), nil
			}
			return []physics.DofDef{{Name: j.Name, Kind: physics.DofYaw,
				Damping: j.Damping}}, nil
		}

		// A hinge on a child body about a horizontal axis is a wheel
		axis := spatial.Unit(spatial.Rotate(tilt, spatial.Rotate(rot, j.Axis)))
		if math.Abs(axis.Z) > verticalTolerance {
			return passive(j.Name), nil
		}
		radius := wheelRadius(body)
		if radius <= 0 {
			return passive(j.Name), nil
		}
		anchor := spatial.Rotate(tilt, pos)

		// Rolling about +axis moves the wheel along axis x up
		drive := [2]float64{axis.Y, -axis.X}
		return []physics.DofDef{{
			Name:    j.Name,
			Kind:    physics.DofWheel,
			Axis:    drive,
			Anchor:  [2]float64{anchor.X, anchor.Y},
			Radius:  radius,
			Damping: j.Damping,
		}}, nil
	}

	return nil, fmt.Errorf("jointDofs: joint %q has unknown type %v",
		j.Name, j.Type)
}

func wheelRadius(body *morphs.Body) float64 {
	for _, g := range body.Geoms {
		switch g.Type {
		case morphs.GeomSphere, morphs.GeomCylinder, morphs.GeomCapsule:
			return g.Size.X
		case morphs.GeomEllipsoid:
			return math.Max(g.Size.X, math.Max(g.Size.Y, g.Size.Z))
		}
	}
	return 0
}

// footprint projects a geometry onto the ground plane of its link
func footprint(g linkGeom, tilt quat.Number) (physics.Footprint, bool) {
	pos := spatial.Rotate(tilt, g.pos)
	rot := spatial.Mul(tilt, g.rot)
	fp := physics.Footprint{
		Center: [2]float64{pos.X, pos.Y},
		Mass:   g.geom.GeomMass(),
	}

	var half r3.Vec
	switch g.geom.Type {
	case morphs.GeomPlane:
		return physics.Footprint{}, false

	case morphs.GeomSphere:
		fp.Kind = physics.Circle
		fp.Radius = g.geom.Size.X
		return fp, true

	case morphs.GeomEllipsoid:
		fp.Kind = physics.Circle
		fp.Radius = math.Max(g.geom.Size.X, g.geom.Size.Y)
		return fp, true

	case morphs.GeomBox:
		half = g.geom.Size
	case morphs.GeomCylinder:
		half = r3.Vec{X: g.geom.Size.X, Y: g.geom.Size.X, Z: g.geom.Size.Y}
	case morphs.GeomCapsule:
		r := g.geom.Size.X
		half = r3.Vec{X: r, Y: r, Z: g.geom.Size.Y + r}
	}

	// Axis-aligned bounds of the rotated extents
	ex := spatial.Rotate(rot, r3.Vec{X: half.X})
	ey := spatial.Rotate(rot, r3.Vec{Y: half.Y})
	ez := spatial.Rotate(rot, r3.Vec{Z: half.Z})
	fp.Kind = physics.Rect
	fp.Half = [2]float64{
		math.Abs(ex.X) + math.Abs(ey.X) + math.Abs(ez.X),
		math.Abs(ex.Y) + math.Abs(ey.Y) + math.Abs(ez.Y),
	}
	return fp, true
}

// UID returns the unique identifier of the entity
func (e *Entity) UID() uuid.UUID {
	return e.uid
}

// Idx returns the index of the entity in its scene, which is also its
// segmentation id
func (e *Entity) Idx() int {
	return e.idx
}

// Name returns the name of the entity
func (e *Entity) Name() string {
	return e.name
}

// Morph returns the morph the entity was created from
func (e *Entity) Morph() morphs.Morph {
	return e.morph
}

// Scene returns the scene the entity belongs to
func (e *Entity) Scene() *Scene {
	return e.scene
}

// Joints returns the joints of the entity in the order they appear in
// its model
func (e *Entity) Joints() []*Joint {
	out := make([]*Joint, len(e.joints))
	copy(out, e.joints)
	return out
}

// GetJoint returns the joint called name
func (e *Entity) GetJoint(name string) (*Joint, error) {
	for _, j := range e.joints {
		if j.name == name {
			return j, nil
		}
	}
	return nil, fmt.Errorf("getJoint: %q: %w", name, ErrUnknownJoint)
}

// NDofs returns the number of degrees of freedom of the entity
func (e *Entity) NDofs() int {
	return len(e.dofs)
}

func (e *Entity) base() (*link, error) {
	if !e.scene.built {
		return nil, ErrSceneNotBuilt
	}
	return e.links[0], nil
}

// GetPos returns the world position of the entity's base link
func (e *Entity) GetPos() (r3.Vec, error) {
	l, err := e.base()
	if err != nil {
		return r3.Vec{}, fmt.Errorf("getPos: %w", err)
	}
	pos, _ := l.pose()
	return pos, nil
}

// GetQuat returns the world rotation of the entity's base link
func (e *Entity) GetQuat() (quat.Number, error) {
	l, err := e.base()
	if err != nil {
		return quat.Number{}, fmt.Errorf("getQuat: %w", err)
	}
	_, rot := l.pose()
	return rot, nil
}

// GetYaw returns the heading of the entity's base link
func (e *Entity) GetYaw() (float64, error) {
	l, err := e.base()
	if err != nil {
		return 0, fmt.Errorf("getYaw: %w", err)
	}
	return l.body.Angle(), nil
}

// GetVel returns the linear velocity of the entity's base link
func (e *Entity) GetVel() (r3.Vec, error) {
	l, err := e.base()
	if err != nil {
		return r3.Vec{}, fmt.Errorf("getVel: %w", err)
	}
	vx, vy := l.body.LinearVelocity()
	return r3.Vec{X: vx, Y: vy}, nil
}

// SetPos moves the entity's base link to (x, y), keeping its heading
func (e *Entity) SetPos(x, y float64) error {
	l, err := e.base()
	if err != nil {
		return fmt.Errorf("setPos: %w", err)
	}
	l.body.SetPose(x, y, l.body.Angle())
	return nil
}

// SetPose moves the entity's base link to (x, y) with heading yaw
func (e *Entity) SetPose(x, y, yaw float64) error {
	l, err := e.base()
	if err != nil {
		return fmt.Errorf("setPose: %w", err)
	}
	l.body.SetPose(x, y, yaw)
	return nil
}

// indices returns idx, or every dof index if idx is nil
func (e *Entity) indices(idx []int) []int {
	if idx != nil {
		return idx
	}
	all := make([]int, len(e.dofs))
	for i := range all {
		all[i] = i
	}
	return all
}

func (e *Entity) ref(i int) (dofRef, error) {
	if i < 0 || i >= len(e.dofs) {
		return dofRef{}, fmt.Errorf("entity %q: dof %v: %w", e.name, i,
			physics.ErrDofIndex)
	}
	return e.dofs[i], nil
}

func (e *Entity) getDofs(op string, idx []int,
	get func(*physics.Body, int) (float64, error)) ([]float64, error) {
	if !e.scene.built {
		return nil, fmt.Errorf("%v: %w", op, ErrSceneNotBuilt)
	}

	idx = e.indices(idx)
	out := make([]float64, len(idx))
	for k, i := range idx {
		r, err := e.ref(i)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", op, err)
		}
		out[k], err = get(r.link.body, r.local)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", op, err)
		}
	}
	return out, nil
}

func (e *Entity) setDofs(op string, values []float64, idx []int,
	set func(*physics.Body, int, float64) error) error {
	if !e.scene.built {
		return fmt.Errorf("%v: %w", op, ErrSceneNotBuilt)
	}

	idx = e.indices(idx)
	if len(values) != len(idx) {
		return fmt.Errorf("%v: %v values for %v dofs: %w", op, len(values),
			len(idx), ErrDofMismatch)
	}

	// Check every index first so that a bad call changes nothing
	refs := make([]dofRef, len(idx))
	for k, i := range idx {
		r, err := e.ref(i)
		if err != nil {
			return fmt.Errorf("%v: %w", op, err)
		}
		refs[k] = r
	}
	for k, r := range refs {
		if err := set(r.link.body, r.local, values[k]); err != nil {
			return fmt.Errorf("%v: %w", op, err)
		}
	}
	return nil
}

// GetDofsPosition returns the positions of the dofs at idx, or of every
// dof if idx is nil
func (e *Entity) GetDofsPosition(idx []int) ([]float64, error) {
	return e.getDofs("getDofsPosition", idx, (*physics.Body).DofPosition)
}

// GetDofsVelocity returns the velocities of the dofs at idx, or of every
// dof if idx is nil
func (e *Entity) GetDofsVelocity(idx []int) ([]float64, error) {
	return e.getDofs("getDofsVelocity", idx, (*physics.Body).DofVelocity)
}

// GetDofsControlForce returns the generalised forces the controllers of
// the dofs at idx applied during the last step
func (e *Entity) GetDofsControlForce(idx []int) ([]float64, error) {
	return e.getDofs("getDofsControlForce", idx,
		(*physics.Body).ControlForce)
}

// GetDofsForce returns the total generalised forces on the dofs at idx
// during the last step: the control force plus joint damping
func (e *Entity) GetDofsForce(idx []int) ([]float64, error) {
	return e.getDofs("getDofsForce", idx, (*physics.Body).Force)
}

// ControlDofsVelocity makes the dofs at idx track the velocities v until
// they are given another command
func (e *Entity) ControlDofsVelocity(v []float64, idx []int) error {
	return e.setDofs("controlDofsVelocity", v, idx,
		(*physics.Body).SetVelocityTarget)
}

// ControlDofsForce applies the generalised forces f to the dofs at idx
// until they are given another command
func (e *Entity) ControlDofsForce(f []float64, idx []int) error {
	return e.setDofs("controlDofsForce", f, idx, (*physics.Body).SetForce)
}

// primitives appends the renderable geometry of the entity
func (e *Entity) primitives(prims []raster.Primitive) []raster.Primitive {
	for _, l := range e.links {
		pos, rot := l.pose()
		for _, g := range l.geoms {
			p := raster.Primitive{
				Pos: spatial.Transform(pos, rot, g.pos),
				Rot: spatial.Mul(rot, g.rot),
				ID:  int32(e.idx),
			}

			rgba := g.geom.RGBA
			if e.color != nil {
				rgba = *e.color
			}
			p.Color = [3]float64{rgba[0], rgba[1], rgba[2]}

			switch g.geom.Type {
			case morphs.GeomPlane:
				p.Shape = raster.Plane
			case morphs.GeomSphere:
				p.Shape = raster.Sphere
			case morphs.GeomBox:
				p.Shape = raster.Box
			case morphs.GeomCylinder:
				p.Shape = raster.Cylinder
			case morphs.GeomCapsule:
				p.Shape = raster.Capsule
			case morphs.GeomEllipsoid:
				p.Shape = raster.Ellipsoid
			default:
				continue
			}
			p.Size = g.geom.Size
			prims = append(prims, p)
		}
	}
	return prims
}

// frames appends the coordinate frame of every link
func (e *Entity) frames(segs []raster.Segment, size float64) []raster.Segment {
	for _, l := range e.links {
		pos, rot := l.pose()
		segs = append(segs, raster.Axes(pos, rot, size)...)
	}
	return segs
}
