package physics

import (
	"fmt"
	"math"

	"github.com/ByteArena/box2d"
)

type controlMode int

const (
	uncontrolled controlMode = iota
	velocityControl
	forceControl
)

type dof struct {
	DofDef
	mode   controlMode
	target float64
	force  float64

	// applied is the generalised force the controller applied on the
	// last substep, total adds the passive damping force
	applied float64
	total   float64

	// wheel state
	angle float64
	vel   float64
}

// Body is a simulated rigid body
type Body struct {
	name   string
	body   *box2d.B2Body
	static bool
	dofs   []*dof

	// home is the starting pose, anchor the pose that constrained
	// directions are held at
	home   [3]float64
	anchor [2]float64

	hasYaw bool
	axes   [][2]float64
	wheels int
}

func newBody(def BodyDef) *Body {
	b := &Body{
		name:   def.Name,
		static: def.Static,
		home:   [3]float64{def.X, def.Y, def.Angle},
		anchor: [2]float64{def.X, def.Y},
	}

	for _, d := range def.Dofs {
		switch d.Kind {
		case DofSlide:
			d.Axis = unit(d.Axis)
			b.axes = append(b.axes, d.Axis)
		case DofYaw:
			b.hasYaw = true
		case DofWheel:
			d.Axis = unit(d.Axis)
			b.wheels++
		}
		b.dofs = append(b.dofs, &dof{DofDef: d})
	}

	return b
}

// Name returns the name of the body
func (b *Body) Name() string {
	return b.name
}

// Static returns whether the body never moves
func (b *Body) Static() bool {
	return b.static
}

// Mass returns the mass of the body
func (b *Body) Mass() float64 {
	return b.body.GetMass()
}

// Position returns the position of the body origin
func (b *Body) Position() (x, y float64) {
	p := b.body.GetPosition()
	return p.X, p.Y
}

// Angle returns the heading of the body
func (b *Body) Angle() float64 {
	return b.body.GetAngle()
}

// LinearVelocity returns the velocity of the body origin
func (b *Body) LinearVelocity() (vx, vy float64) {
	v := b.body.GetLinearVelocity()
	return v.X, v.Y
}

// AngularVelocity returns the yaw rate of the body
func (b *Body) AngularVelocity() float64 {
	return b.body.GetAngularVelocity()
}

// SetPose moves the body to a new pose. Directions the body cannot
// move in are held at the new pose from now on.
func (b *Body) SetPose(x, y, angle float64) {
	b.body.SetTransform(box2d.MakeB2Vec2(x, y), angle)
	b.body.SetAwake(true)
	b.anchor = [2]float64{x, y}
}

// SetVelocity sets the linear and angular velocity of the body
func (b *Body) SetVelocity(vx, vy, w float64) {
	if b.static {
		return
	}
	b.body.SetLinearVelocity(box2d.MakeB2Vec2(vx, vy))
	if b.hasYaw {
		b.body.SetAngularVelocity(w)
	}
}

// Reset returns the body to its starting pose at rest and clears its
// controls
func (b *Body) Reset() {
	b.body.SetTransform(box2d.MakeB2Vec2(b.home[0], b.home[1]), b.home[2])
	b.body.SetLinearVelocity(box2d.MakeB2Vec2(0, 0))
	b.body.SetAngularVelocity(0)
	b.anchor = [2]float64{b.home[0], b.home[1]}

	for _, d := range b.dofs {
		d.mode = uncontrolled
		d.target, d.force, d.applied, d.total = 0, 0, 0, 0
		d.angle, d.vel = 0, 0
	}
}

// NDofs returns the number of degrees of freedom of the body
func (b *Body) NDofs() int {
	return len(b.dofs)
}

// Dof returns the definition of degree of freedom i
func (b *Body) Dof(i int) (DofDef, error) {
	if err := b.check(i); err != nil {
		return DofDef{}, err
	}
	return b.dofs[i].DofDef, nil
}

func (b *Body) check(i int) error {
	if i < 0 || i >= len(b.dofs) {
		return fmt.Errorf("body %q: dof %v: %w", b.name, i, ErrDofIndex)
	}
	return nil
}

// DofPosition returns the generalised position of degree of freedom i
func (b *Body) DofPosition(i int) (float64, error) {
	if err := b.check(i); err != nil {
		return 0, err
	}
	d := b.dofs[i]

	switch d.Kind {
	case DofSlide:
		x, y := b.Position()
		if !d.Absolute {
			x -= b.home[0]
			y -= b.home[1]
		}
		return x*d.Axis[0] + y*d.Axis[1], nil

	case DofYaw:
		if d.Absolute {
			return b.Angle(), nil
		}
		return b.Angle() - b.home[2], nil

	case DofWheel:
		return d.angle, nil
	}
	return 0, nil
}

// DofVelocity returns the generalised velocity of degree of freedom i
func (b *Body) DofVelocity(i int) (float64, error) {
	if err := b.check(i); err != nil {
		return 0, err
	}
	d := b.dofs[i]

	switch d.Kind {
	case DofSlide:
		vx, vy := b.LinearVelocity()
		return vx*d.Axis[0] + vy*d.Axis[1], nil

	case DofYaw:
		return b.AngularVelocity(), nil

	case DofWheel:
		return d.vel, nil
	}
	return 0, nil
}

// SetVelocityTarget makes degree of freedom i track velocity v
func (b *Body) SetVelocityTarget(i int, v float64) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.dofs[i].mode = velocityControl
	b.dofs[i].target = v
	b.body.SetAwake(true)
	return nil
}

// SetForce applies a constant generalised force f to degree of freedom
// i: a force for slides, a torque for yaw and wheels
func (b *Body) SetForce(i int, f float64) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.dofs[i].mode = forceControl
	b.dofs[i].force = f
	b.body.SetAwake(true)
	return nil
}

// ControlForce returns the generalised force the controller of degree
// of freedom i applied on the last substep
func (b *Body) ControlForce(i int) (float64, error) {
	if err := b.check(i); err != nil {
		return 0, err
	}
	return b.dofs[i].applied, nil
}

// Force returns the total generalised force on degree of freedom i over
// the last substep, the control force plus damping
func (b *Body) Force(i int) (float64, error) {
	if err := b.check(i); err != nil {
		return 0, err
	}
	return b.dofs[i].total, nil
}

func (b *Body) applyControls(h float64) {
	if b.static {
		return
	}
	mass := b.body.GetMass()

	for _, d := range b.dofs {
		switch d.Kind {
		case DofSlide:
			b.controlSlide(d, mass, h)
		case DofYaw:
			b.controlYaw(d, h)
		case DofWheel:
			b.controlWheel(d, mass, h)
		}
	}

	if b.wheels > 0 {
		b.cancelSlip(mass)
	}
}

func (b *Body) controlSlide(d *dof, mass, h float64) {
	axis := box2d.MakeB2Vec2(d.Axis[0], d.Axis[1])
	v := b.body.GetLinearVelocity()
	va := box2d.B2Vec2Dot(v, axis)

	switch d.mode {
	case velocityControl:
		dv := d.target - va
		v = box2d.B2Vec2Add(v, box2d.B2Vec2MulScalar(dv, axis))
		b.body.SetLinearVelocity(v)
		d.applied = mass * dv / h
		va = d.target

	case forceControl:
		b.body.ApplyForceToCenter(box2d.B2Vec2MulScalar(d.force, axis), true)
		d.applied = d.force

	default:
		d.applied = 0
	}

	d.total = d.applied
	if d.Damping > 0 {
		b.body.ApplyForceToCenter(
			box2d.B2Vec2MulScalar(-d.Damping*va, axis), true)
		d.total -= d.Damping * va
	}
}

func (b *Body) controlYaw(d *dof, h float64) {
	w := b.body.GetAngularVelocity()

	switch d.mode {
	case velocityControl:
		b.body.SetAngularVelocity(d.target)
		d.applied = b.body.GetInertia() * (d.target - w) / h
		w = d.target

	case forceControl:
		b.body.ApplyTorque(d.force, true)
		d.applied = d.force

	default:
		d.applied = 0
	}

	d.total = d.applied
	if d.Damping > 0 {
		b.body.ApplyTorque(-d.Damping*w, true)
		d.total -= d.Damping * w
	}
}

func (b *Body) controlWheel(d *dof, mass, h float64) {
	p := b.body.GetWorldPoint(box2d.MakeB2Vec2(d.Anchor[0], d.Anchor[1]))
	dir := b.body.GetWorldVector(box2d.MakeB2Vec2(d.Axis[0], d.Axis[1]))
	speed := box2d.B2Vec2Dot(b.body.GetLinearVelocityFromWorldPoint(p), dir)

	// Traction force at the contact point
	var traction float64
	switch d.mode {
	case velocityControl:
		share := mass / float64(b.wheels)
		traction = share * (d.target*d.Radius - speed) / h
		d.applied = traction * d.Radius

	case forceControl:
		traction = d.force / d.Radius
		d.applied = d.force

	default:
		d.applied = 0
	}
	traction -= d.Damping * speed / (d.Radius * d.Radius)
	d.total = d.applied - d.Damping*speed/d.Radius

	b.body.ApplyForce(box2d.B2Vec2MulScalar(traction, dir), p, true)
}

// cancelSlip removes the sideways velocity at each wheel, so wheeled
// bodies roll instead of sliding
func (b *Body) cancelSlip(mass float64) {
	share := mass / float64(b.wheels)
	for _, d := range b.dofs {
		if d.Kind != DofWheel {
			continue
		}
		p := b.body.GetWorldPoint(box2d.MakeB2Vec2(d.Anchor[0], d.Anchor[1]))
		dir := b.body.GetWorldVector(box2d.MakeB2Vec2(d.Axis[0], d.Axis[1]))
		lateral := box2d.MakeB2Vec2(-dir.Y, dir.X)

		slip := box2d.B2Vec2Dot(b.body.GetLinearVelocityFromWorldPoint(p),
			lateral)
		impulse := box2d.B2Vec2MulScalar(-0.5*share*slip, lateral)
		b.body.ApplyLinearImpulse(impulse, p, true)
	}
}

func (b *Body) afterStep(h float64) {
	if b.static {
		return
	}
	b.constrain()

	for _, d := range b.dofs {
		if d.Kind != DofWheel {
			continue
		}
		p := b.body.GetWorldPoint(box2d.MakeB2Vec2(d.Anchor[0], d.Anchor[1]))
		dir := b.body.GetWorldVector(box2d.MakeB2Vec2(d.Axis[0], d.Axis[1]))
		speed := box2d.B2Vec2Dot(b.body.GetLinearVelocityFromWorldPoint(p),
			dir)
		d.vel = speed / d.Radius
		d.angle += d.vel * h
	}
}

// constrain projects the body's translation onto the directions its
// slide degrees of freedom allow
func (b *Body) constrain() {
	if b.wheels > 0 || len(b.axes) >= 2 && !parallel(b.axes) {
		return
	}

	p := b.body.GetPosition()
	v := b.body.GetLinearVelocity()
	dx, dy := p.X-b.anchor[0], p.Y-b.anchor[1]

	if len(b.axes) == 0 {
		dx, dy = 0, 0
		v = box2d.MakeB2Vec2(0, 0)
	} else {
		a := b.axes[0]
		along := dx*a[0] + dy*a[1]
		dx, dy = along*a[0], along*a[1]
		va := v.X*a[0] + v.Y*a[1]
		v = box2d.MakeB2Vec2(va*a[0], va*a[1])
	}

	b.body.SetTransform(box2d.MakeB2Vec2(b.anchor[0]+dx, b.anchor[1]+dy),
		b.body.GetAngle())
	b.body.SetLinearVelocity(v)
}

func parallel(axes [][2]float64) bool {
	a := axes[0]
	for _, o := range axes[1:] {
		if math.Abs(a[0]*o[1]-a[1]*o[0]) > 1e-9 {
			return false
		}
	}
	return true
}

func unit(v [2]float64) [2]float64 {
	n := math.Hypot(v[0], v[1])
	if n == 0 {
		return v
	}
	return [2]float64{v[0] / n, v[1] / n}
}
