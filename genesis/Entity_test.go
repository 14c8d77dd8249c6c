package genesis_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis"
	"github.com/samuelfneumann/genesisgym/genesis/morphs"
)

func TestJoints(t *testing.T) {
	_, car, point := chaseScene(t, genesis.DefaultSceneOptions())

	assert.Equal(t, 11, car.NDofs())
	assert.Equal(t, 3, point.NDofs())

	tests := map[string][]int{
		"root":        {0, 1, 2, 3, 4, 5},
		"left_joint":  {6},
		"right_joint": {7},
		"rear_joint":  {8, 9, 10},
	}
	for name, dofs := range tests {
		j, err := car.GetJoint(name)
		require.NoError(t, err, name)
		assert.Equal(t, dofs, j.DofsIdxLocal(), name)
		assert.Equal(t, dofs[0], j.DofIdxLocal(), name)
	}

	_, err := car.GetJoint("steering")
	assert.ErrorIs(t, err, genesis.ErrUnknownJoint)

	names := make([]string, 0)
	for _, j := range point.Joints() {
		names = append(names, j.Name())
	}
	assert.Equal(t, []string{"x", "y", "z"}, names)
}

func TestEntityNeedsBuild(t *testing.T) {
	_, car, _ := chaseScene(t, genesis.DefaultSceneOptions())

	_, err := car.GetPos()
	assert.ErrorIs(t, err, genesis.ErrSceneNotBuilt)
	assert.ErrorIs(t, car.ControlDofsForce([]float64{1}, []int{6}),
		genesis.ErrSceneNotBuilt)
}

func TestCarDrives(t *testing.T) {
	scene, car, _ := chaseScene(t, genesis.DefaultSceneOptions())
	require.NoError(t, scene.Build())

	pos, err := car.GetPos()
	require.NoError(t, err)
	assert.InDelta(t, 0.1, pos.Z, 1e-9)

	left, err := car.GetJoint("left_joint")
	require.NoError(t, err)
	right, err := car.GetJoint("right_joint")
	require.NoError(t, err)
	idx := []int{left.DofIdxLocal(), right.DofIdxLocal()}

	require.NoError(t, car.ControlDofsForce([]float64{1, 1}, idx))
	for i := 0; i < 100; i++ {
		require.NoError(t, scene.Step())
	}

	pos, err = car.GetPos()
	require.NoError(t, err)
	assert.Greater(t, pos.X, 0.05)
	assert.InDelta(t, 0, pos.Y, 1e-3)

	yaw, err := car.GetYaw()
	require.NoError(t, err)
	assert.InDelta(t, 0, yaw, 1e-3)

	f, err := car.GetDofsControlForce(idx)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, f)

	// Wheel damping opposes the rolling wheels
	total, err := car.GetDofsForce(idx)
	require.NoError(t, err)
	require.Len(t, total, 2)
	for _, ft := range total {
		assert.LessOrEqual(t, ft, 1.0)
		assert.Greater(t, ft, 0.5)
	}
	_, err = car.GetDofsForce([]int{99})
	assert.Error(t, err)

	// Free joint dofs report the world pose
	q, err := car.GetDofsPosition([]int{0, 1, 5})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{pos.X, pos.Y, yaw}, q, 1e-9)

	v, err := car.GetDofsVelocity(idx)
	require.NoError(t, err)
	assert.Greater(t, v[0], 0.0)
}

func TestPointVelocityControl(t *testing.T) {
	scene, _, point := chaseScene(t, genesis.DefaultSceneOptions())
	require.NoError(t, scene.Build())

	require.NoError(t, point.ControlDofsVelocity([]float64{0.5, 0.1, 0},
		[]int{0, 1, 2}))
	for i := 0; i < 100; i++ {
		require.NoError(t, scene.Step())
	}

	// Slide positions are displacements from the starting pose
	q, err := point.GetDofsPosition([]int{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, q[0], 0.03)
	assert.InDelta(t, 0.1, q[1], 0.01)

	pos, err := point.GetPos()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, pos.X, 0.03)

	vel, err := point.GetVel()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, vel.X, 0.03)
}

func TestSetPos(t *testing.T) {
	scene, _, point := chaseScene(t, genesis.DefaultSceneOptions())
	require.NoError(t, scene.Build())

	require.NoError(t, point.SetPos(-2, 1))
	require.NoError(t, scene.Step())
	pos, err := point.GetPos()
	require.NoError(t, err)
	assert.InDelta(t, -2, pos.X, 1e-6)
	assert.InDelta(t, 1, pos.Y, 1e-6)

	require.NoError(t, point.SetPose(0, 0, math.Pi/2))
	yaw, err := point.GetYaw()
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, yaw, 1e-9)
}

func TestDofErrors(t *testing.T) {
	scene, car, _ := chaseScene(t, genesis.DefaultSceneOptions())
	require.NoError(t, scene.Build())

	err := car.ControlDofsForce([]float64{1, 1}, []int{6})
	assert.ErrorIs(t, err, genesis.ErrDofMismatch)

	err = car.ControlDofsVelocity([]float64{1}, []int{11})
	assert.Error(t, err)

	_, err = car.GetDofsPosition([]int{-1})
	assert.Error(t, err)

	all, err := car.GetDofsPosition(nil)
	require.NoError(t, err)
	assert.Len(t, all, 11)
}

func TestStaticPrimitives(t *testing.T) {
	scene, err := genesis.NewScene(genesis.DefaultSceneOptions())
	require.NoError(t, err)

	wall, err := scene.AddEntity(morphs.Box{
		Pos:   r3.Vec{X: 1, Z: 0.5},
		Size:  r3.Vec{X: 0.2, Y: 2, Z: 1},
		Fixed: true,
	}, genesis.WithName("wall"), genesis.WithColor([4]float64{1, 0, 0, 1}))
	require.NoError(t, err)
	ball, err := scene.AddEntity(morphs.Sphere{Pos: r3.Vec{Z: 0.2},
		Radius: 0.2})
	require.NoError(t, err)
	require.NoError(t, scene.Build())

	assert.Equal(t, "wall", wall.Name())
	assert.Equal(t, 0, wall.NDofs())
	assert.Equal(t, 6, ball.NDofs())

	// The ball rolls into the wall and stops there
	require.NoError(t, ball.ControlDofsVelocity([]float64{1}, []int{0}))
	for i := 0; i < 200; i++ {
		require.NoError(t, scene.Step())
	}
	pos, err := ball.GetPos()
	require.NoError(t, err)
	assert.Less(t, pos.X, 0.9+1e-2)

	wallPos, err := wall.GetPos()
	require.NoError(t, err)
	assert.Equal(t, 1.0, wallPos.X)
}
