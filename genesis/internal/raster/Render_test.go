package raster

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
)

var white = [3]float64{1, 1, 1}

func sideView() View {
	return View{
		Pos:    r3.Vec{X: 5},
		Lookat: r3.Vec{},
		Fov:    30,
		Width:  33,
		Height: 33,
	}
}

func TestRenderSphere(t *testing.T) {
	prims := []Primitive{{
		Shape: Sphere,
		Rot:   spatial.Identity,
		Size:  r3.Vec{X: 1},
		Color: [3]float64{1, 0, 0},
		ID:    3,
	}}
	settings := Settings{
		Ambient: [3]float64{0.1, 0.1, 0.1},
		Lights:  []Light{{Dir: r3.Vec{X: -1}, Color: white, Intensity: 1}},
	}
	req := Request{RGB: true, Depth: true, Segmentation: true, Normal: true}

	frame, err := Render(context.Background(), sideView(), prims, settings,
		req)
	require.NoError(t, err)
	require.Len(t, frame.RGB, 33*33*3)

	center := 16*33 + 16
	assert.Equal(t, int32(3), frame.Segmentation[center])
	assert.InDelta(t, 4, frame.Depth[center], 1e-4)
	assert.Equal(t, []uint8{255, 128, 128},
		frame.Normal[3*center:3*center+3])
	assert.Equal(t, []uint8{255, 0, 0}, frame.RGB[3*center:3*center+3])

	// The corners see nothing
	assert.Equal(t, Background, frame.Segmentation[0])
	assert.True(t, math.IsInf(float64(frame.Depth[0]), 1))
	assert.Equal(t, []uint8{0, 0, 0}, frame.Normal[0:3])
}

func TestRenderOnlyRequested(t *testing.T) {
	frame, err := Render(context.Background(), sideView(), nil, Settings{},
		Request{Depth: true})
	require.NoError(t, err)
	assert.Nil(t, frame.RGB)
	assert.Nil(t, frame.Segmentation)
	assert.Nil(t, frame.Normal)
	assert.Len(t, frame.Depth, 33*33)
}

func TestShapes(t *testing.T) {
	shapes := map[string]Primitive{
		"box":       {Shape: Box, Size: r3.Vec{X: 1, Y: 1, Z: 1}},
		"cylinder":  {Shape: Cylinder, Size: r3.Vec{X: 1, Y: 1}},
		"capsule":   {Shape: Capsule, Size: r3.Vec{X: 1, Y: 0.5}},
		"ellipsoid": {Shape: Ellipsoid, Size: r3.Vec{X: 1, Y: 2, Z: 3}},
	}

	for name, p := range shapes {
		t.Run(name, func(t *testing.T) {
			p.Rot = spatial.Identity
			p.ID = 1
			frame, err := Render(context.Background(), sideView(),
				[]Primitive{p}, Settings{}, Request{Depth: true,
					Segmentation: true})
			require.NoError(t, err)

			// Every shape has its surface one unit in front of the origin
			// along the view axis
			center := 16*33 + 16
			assert.Equal(t, int32(1), frame.Segmentation[center])
			assert.InDelta(t, 4, frame.Depth[center], 1e-4)
		})
	}
}

func TestShadows(t *testing.T) {
	prims := []Primitive{
		{Shape: Plane, Rot: spatial.Identity, Color: white, ID: 0},
		{Shape: Sphere, Pos: r3.Vec{Z: 1}, Rot: spatial.Identity,
			Size: r3.Vec{X: 0.5}, Color: white, ID: 1},
	}
	view := View{
		Pos:    r3.Vec{X: 3, Z: 3},
		Lookat: r3.Vec{},
		Fov:    30,
		Width:  33,
		Height: 33,
	}
	settings := Settings{
		Ambient: [3]float64{0.1, 0.1, 0.1},
		Lights:  []Light{{Dir: r3.Vec{Z: -1}, Color: white, Intensity: 0.5}},
	}
	center := 3 * (16*33 + 16)

	lit, err := Render(context.Background(), view, prims, settings,
		Request{RGB: true})
	require.NoError(t, err)

	settings.Shadows = true
	shadowed, err := Render(context.Background(), view, prims, settings,
		Request{RGB: true})
	require.NoError(t, err)

	assert.Less(t, shadowed.RGB[center], lit.RGB[center])
}

func TestRenderValidation(t *testing.T) {
	view := sideView()
	view.Width = 0
	_, err := Render(context.Background(), view, nil, Settings{},
		Request{RGB: true})
	assert.Error(t, err)

	view = sideView()
	view.Lookat = view.Pos
	_, err = Render(context.Background(), view, nil, Settings{},
		Request{RGB: true})
	assert.Error(t, err)
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Render(ctx, sideView(), nil, Settings{}, Request{RGB: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProject(t *testing.T) {
	x, y, ok := sideView().Project(r3.Vec{})
	require.True(t, ok)
	assert.InDelta(t, 16.5, x, 1e-9)
	assert.InDelta(t, 16.5, y, 1e-9)

	// Up in the world is up in the image
	_, y, ok = sideView().Project(r3.Vec{Z: 0.5})
	require.True(t, ok)
	assert.Less(t, y, 16.5)

	_, _, ok = sideView().Project(r3.Vec{X: 10})
	assert.False(t, ok)
}

func TestDraw(t *testing.T) {
	view := sideView()
	frame := &Frame{Width: 33, Height: 33, RGB: make([]uint8, 33*33*3)}
	Draw(frame, view, Axes(r3.Vec{}, spatial.Identity, 1), []Marker{
		{At: r3.Vec{}, Color: white, Radius: 2},
	})

	center := 3 * (16*33 + 16)
	assert.NotEqual(t, []uint8{0, 0, 0}, frame.RGB[center:center+3])
}

func TestColorize(t *testing.T) {
	out := Colorize([]int32{Background, 0, 1, 1})
	require.Len(t, out, 12)
	assert.Equal(t, []uint8{0, 0, 0}, out[0:3])
	assert.NotEqual(t, out[3:6], out[6:9])
	assert.Equal(t, out[6:9], out[9:12])
}

func TestSegColor(t *testing.T) {
	// Id 0 sits at hue 0
	assert.Equal(t, [3]uint8{242, 85, 85}, SegColor(0))
	assert.Equal(t, [3]uint8{}, SegColor(Background))

	for id := int32(0); id < 8; id++ {
		c := SegColor(id)
		assert.NotEqual(t, [3]uint8{}, c, "id %v", id)
		assert.NotEqual(t, c, SegColor(id+1), "id %v", id)
	}
}
