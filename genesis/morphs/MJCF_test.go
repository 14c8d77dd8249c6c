package morphs_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/morphs"
)

func TestLoadEmbeddedCar(t *testing.T) {
	model, err := morphs.MJCF{File: "xmls/agents/car.xml"}.Load()
	require.NoError(t, err)

	require.Len(t, model.Bodies, 1)
	root := model.Bodies[0]
	assert.Equal(t, "agent", root.Name)
	assert.InDelta(t, 0.1, root.Pos.Z, 1e-12)

	require.Len(t, root.Joints, 1)
	assert.Equal(t, morphs.JointFree, root.Joints[0].Type)

	names := make([]string, 0)
	for _, child := range root.Children {
		for _, j := range child.Joints {
			names = append(names, j.Name)
		}
	}
	assert.Equal(t, []string{"left_joint", "right_joint", "rear_joint"}, names)

	// free (6) + two hinges (1 each) + ball (3)
	assert.Equal(t, 11, model.NumDofs())

	require.Len(t, model.Actuators, 2)
	assert.Equal(t, "left_joint", model.Actuators[0].Joint)
	assert.Equal(t, [2]float64{-1, 1}, model.Actuators[0].CtrlRange)
	assert.True(t, model.Actuators[0].Limited)

	// Joint damping comes from the <default> block
	assert.InDelta(t, 0.01, root.Children[0].Joints[0].Damping, 1e-12)
}

func TestLoadEmbeddedPoint(t *testing.T) {
	model, err := morphs.MJCF{
		File: "xmls/agents/point.xml",
		Pos:  r3.Vec{X: 1, Y: -1},
	}.Load()
	require.NoError(t, err)

	root := model.Bodies[0]
	assert.InDelta(t, 1, root.Pos.X, 1e-12)
	assert.InDelta(t, -1, root.Pos.Y, 1e-12)
	assert.InDelta(t, 0.1, root.Pos.Z, 1e-12)

	require.Len(t, root.Joints, 3)
	assert.Equal(t, morphs.JointSlide, root.Joints[0].Type)
	assert.Equal(t, morphs.JointHinge, root.Joints[2].Type)
	assert.Equal(t, 3, model.NumDofs())
	assert.Equal(t, morphs.Velocity, model.Actuators[0].Kind)
}

func TestLoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"robot.xml": {Data: []byte(`
<mujoco model="robot">
  <compiler angle="radian"/>
  <worldbody>
    <geom name="floor" type="plane" size="5 5 0.5"/>
    <body name="pole" pos="0 0 1" euler="0 0 1.5707963267948966">
      <joint name="slider" type="slide" axis="1 0 0"/>
      <geom name="rod" type="capsule" fromto="0 0 0 0 0 1" size="0.05"/>
    </body>
  </worldbody>
</mujoco>`)},
	}

	model, err := morphs.MJCF{File: "robot.xml", FS: fsys}.Load()
	require.NoError(t, err)
	require.Len(t, model.Bodies, 2)
	assert.Equal(t, "world", model.Bodies[0].Name)
	assert.Equal(t, morphs.GeomPlane, model.Bodies[0].Geoms[0].Type)

	rod := model.Bodies[1].Geoms[0]
	assert.Equal(t, morphs.GeomCapsule, rod.Type)
	assert.InDelta(t, 0.5, rod.Size.Y, 1e-12)
	assert.InDelta(t, 0.5, rod.Pos.Z, 1e-12)
	assert.InDelta(t, morphs.DefaultDensity*rod.Volume(), rod.GeomMass(), 1e-9)
}

func TestParseMJCFErrors(t *testing.T) {
	tests := map[string]string{
		"not xml":       `<mujoco`,
		"no bodies":     `<mujoco><worldbody/></mujoco>`,
		"bad geom type": `<mujoco><worldbody><body><geom type="mesh"/></body></worldbody></mujoco>`,
		"missing size":  `<mujoco><worldbody><body><geom type="box" size="1 1"/></body></worldbody></mujoco>`,
		"bad joint":     `<mujoco><worldbody><body><joint type="screw"/><geom size="1"/></body></worldbody></mujoco>`,
		"two orientations": `<mujoco><worldbody><body euler="0 0 1" quat="1 0 0 0">` +
			`<geom size="1"/></body></worldbody></mujoco>`,
		"unknown actuator joint": `<mujoco><worldbody><body><joint name="a"/><geom size="1"/>` +
			`</body></worldbody><actuator><motor joint="b"/></actuator></mujoco>`,
		"bad angle": `<mujoco><compiler angle="grad"/><worldbody><body><geom size="1"/>` +
			`</body></worldbody></mujoco>`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := morphs.ParseMJCF([]byte(doc))
			assert.ErrorIs(t, err, morphs.ErrMJCF)
		})
	}
}

func TestMissingFile(t *testing.T) {
	_, err := morphs.MJCF{File: "xmls/agents/nope.xml"}.Load()
	assert.Error(t, err)

	_, err = morphs.MJCF{}.Load()
	assert.Error(t, err)
}

func TestPrimitives(t *testing.T) {
	plane, err := morphs.Plane{}.Load()
	require.NoError(t, err)
	assert.Empty(t, plane.Bodies[0].Joints)
	assert.Equal(t, 0, plane.NumDofs())

	box, err := morphs.Box{Size: r3.Vec{X: 1, Y: 2, Z: 3}}.Load()
	require.NoError(t, err)
	assert.Equal(t, 6, box.NumDofs())
	assert.InDelta(t, 1.5, box.Bodies[0].Geoms[0].Size.Z, 1e-12)

	fixed, err := morphs.Sphere{Radius: 0.5, Fixed: true}.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, fixed.NumDofs())

	_, err = morphs.Box{}.Load()
	assert.Error(t, err)
	_, err = morphs.Sphere{}.Load()
	assert.Error(t, err)
}
