package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/genesisgym/genesis"
)

func builtScene(t *testing.T) (*genesis.Scene, *genesis.Camera) {
	t.Helper()
	scene, _, _ := chaseScene(t, genesis.DefaultSceneOptions())
	cam, err := scene.AddCamera(smallCamera())
	require.NoError(t, err)
	require.NoError(t, scene.Build())
	return scene, cam
}

func TestRenderShapes(t *testing.T) {
	_, cam := builtScene(t)

	out, err := cam.Render(genesis.RenderRequest{
		RGB:          true,
		Depth:        true,
		Segmentation: true,
		Normal:       true,
	})
	require.NoError(t, err)

	require.NotNil(t, out.RGB)
	assert.Equal(t, tensor.Shape{48, 64, 3}, out.RGB.Shape())
	assert.Equal(t, tensor.Uint8, out.RGB.Dtype())

	require.NotNil(t, out.Depth)
	assert.Equal(t, tensor.Shape{48, 64}, out.Depth.Shape())
	assert.Equal(t, tensor.Float32, out.Depth.Dtype())

	require.NotNil(t, out.Segmentation)
	assert.Equal(t, tensor.Shape{48, 64}, out.Segmentation.Shape())
	assert.Equal(t, tensor.Int32, out.Segmentation.Dtype())

	require.NotNil(t, out.Normal)
	assert.Equal(t, tensor.Shape{48, 64, 3}, out.Normal.Shape())

	// Every pixel shows the background or one of the three entities
	seen := make(map[int32]bool)
	for _, id := range out.Segmentation.Data().([]int32) {
		assert.True(t, id >= -1 && id <= 2, "id %v", id)
		seen[id] = true
	}
	assert.True(t, seen[0], "plane not visible")
	assert.True(t, seen[1], "car not visible")
}

func TestRenderOnlyRequested(t *testing.T) {
	_, cam := builtScene(t)

	out, err := cam.Render(genesis.RenderRequest{ColorizeSeg: true})
	require.NoError(t, err)
	assert.Nil(t, out.RGB)
	assert.Nil(t, out.Depth)
	assert.Nil(t, out.Normal)

	require.NotNil(t, out.Segmentation)
	assert.Equal(t, tensor.Shape{48, 64, 3}, out.Segmentation.Shape())
	assert.Equal(t, tensor.Uint8, out.Segmentation.Dtype())
}

func TestRendersAreIndependent(t *testing.T) {
	scene, cam := builtScene(t)

	before, err := cam.Render(genesis.RenderRequest{RGB: true})
	require.NoError(t, err)
	snapshot := append([]uint8(nil), before.RGB.Data().([]uint8)...)

	require.NoError(t, cam.SetPose([3]float64{0, 3, 2}, [3]float64{0, 0, 0}))
	for i := 0; i < 10; i++ {
		require.NoError(t, scene.Step())
	}
	_, err = cam.Render(genesis.RenderRequest{RGB: true})
	require.NoError(t, err)

	assert.Equal(t, snapshot, before.RGB.Data().([]uint8))
}

func TestCameraOptions(t *testing.T) {
	scene, err := genesis.NewScene(genesis.DefaultSceneOptions())
	require.NoError(t, err)

	bad := smallCamera()
	bad.Res = [2]int{0, 10}
	_, err = scene.AddCamera(bad)
	assert.Error(t, err)

	bad = smallCamera()
	bad.Fov = 180
	_, err = scene.AddCamera(bad)
	assert.Error(t, err)

	cam, err := scene.AddCamera(genesis.DefaultCameraOptions())
	require.NoError(t, err)
	assert.Equal(t, "camera_0", cam.Name())
	assert.Equal(t, 0, cam.Idx())
	assert.False(t, cam.GUI())

	assert.Error(t, cam.SetPose([3]float64{1, 1, 1}, [3]float64{1, 1, 1}))
	require.NoError(t, cam.SetPose([3]float64{1, 2, 3}, [3]float64{0, 0, 0}))
	assert.Equal(t, [3]float64{1, 2, 3}, cam.Pos())
	assert.Equal(t, [3]float64{0, 0, 0}, cam.Lookat())
}

func TestRecording(t *testing.T) {
	scene, cam := builtScene(t)
	dir := filepath.Join(t.TempDir(), "video")

	assert.Error(t, cam.StopRecording(dir, 30))

	cam.StartRecording()
	assert.True(t, cam.Recording())
	for i := 0; i < 3; i++ {
		require.NoError(t, scene.Step())
		_, err := cam.Render(genesis.RenderRequest{Depth: true})
		require.NoError(t, err)
	}

	// A bad frame rate keeps the recording
	assert.Error(t, cam.StopRecording(dir, 0))
	assert.True(t, cam.Recording())

	require.NoError(t, cam.StopRecording(dir, 30))
	assert.False(t, cam.Recording())

	for _, name := range []string{"frame_00000.png", "frame_00001.png",
		"frame_00002.png"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "recording.yaml"))
	require.NoError(t, err)
	var manifest struct {
		FPS    int      `yaml:"fps"`
		Frames []string `yaml:"frames"`
	}
	require.NoError(t, yaml.Unmarshal(data, &manifest))
	assert.Equal(t, 30, manifest.FPS)
	assert.Len(t, manifest.Frames, 3)
}
