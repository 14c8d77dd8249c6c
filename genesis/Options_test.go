package genesis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/genesisgym/genesis"
)

func TestDefaultSceneOptions(t *testing.T) {
	opts := genesis.DefaultSceneOptions()
	assert.Equal(t, [2]int{1280, 960}, opts.Viewer.Res)
	assert.Equal(t, [3]float64{3.5, 0, 2.5}, opts.Viewer.CameraPos)
	assert.Equal(t, [3]float64{0, 0, 0.5}, opts.Viewer.CameraLookat)
	assert.Equal(t, 40.0, opts.Viewer.CameraFov)
	assert.Equal(t, 60, opts.Viewer.MaxFPS)
	assert.True(t, opts.Vis.ShowWorldFrame)
	assert.Equal(t, 1.0, opts.Vis.WorldFrameSize)
	assert.True(t, opts.Vis.PlaneReflection)
	assert.Equal(t, [3]float64{0.1, 0.1, 0.1}, opts.Vis.AmbientLight)
	assert.Equal(t, genesis.Rasterizer, opts.Renderer)
	assert.False(t, opts.ShowViewer)
	require.NoError(t, opts.Validate())

	// Every call gives an independent value
	opts.Vis.Lights[0].Intensity = 100
	opts.Viewer.Res[0] = 1
	fresh := genesis.DefaultSceneOptions()
	assert.NotEqual(t, 100.0, fresh.Vis.Lights[0].Intensity)
	assert.Equal(t, 1280, fresh.Viewer.Res[0])
}

func TestSceneCopiesOptions(t *testing.T) {
	opts := genesis.DefaultSceneOptions()
	scene, err := genesis.NewScene(opts)
	require.NoError(t, err)

	opts.Vis.Lights[0].Intensity = 100
	assert.NotEqual(t, 100.0, scene.Options().Vis.Lights[0].Intensity)
}

func TestRendererYAML(t *testing.T) {
	var opts genesis.SceneOptions
	require.NoError(t, yaml.Unmarshal([]byte("renderer: raytracer\n"), &opts))
	assert.Equal(t, genesis.RayTracer, opts.Renderer)

	out, err := yaml.Marshal(opts)
	require.NoError(t, err)
	assert.Contains(t, string(out), "renderer: raytracer")

	err = yaml.Unmarshal([]byte("renderer: pathtracer\n"), &opts)
	assert.Error(t, err)
}

func TestParseRenderer(t *testing.T) {
	r, err := genesis.ParseRenderer("Rasterizer")
	require.NoError(t, err)
	assert.Equal(t, genesis.Rasterizer, r)
	assert.Equal(t, "rasterizer", r.String())

	_, err = genesis.ParseRenderer("opengl")
	assert.Error(t, err)
}
