package raster

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
)

// Background is the segmentation value of pixels where nothing is hit
const Background int32 = -1

// reflectivity is the weight of the mirrored image on reflective planes
const reflectivity = 0.3

// View is a pinhole camera
type View struct {
	Pos, Lookat, Up r3.Vec

	// Fov is the vertical field of view in degrees
	Fov           float64
	Width, Height int
}

// basis returns the forward, right and up unit vectors of the view
func (v View) basis() (f, r, u r3.Vec) {
	up := v.Up
	if up == (r3.Vec{}) {
		up = spatial.ZAxis
	}
	f = spatial.Unit(v.Lookat.Sub(v.Pos))
	r = spatial.Unit(f.Cross(up))
	if spatial.Norm(r) == 0 {
		// Looking straight along up
		r = spatial.Unit(f.Cross(r3.Vec{Y: 1}))
	}
	u = r.Cross(f)
	return f, r, u
}

func (v View) validate() error {
	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("view: resolution must be positive, got %vx%v",
			v.Width, v.Height)
	}
	if v.Fov <= 0 || v.Fov >= 180 {
		return fmt.Errorf("view: fov must be in (0, 180), got %v", v.Fov)
	}
	if spatial.Norm(v.Lookat.Sub(v.Pos)) == 0 {
		return fmt.Errorf("view: camera position equals lookat")
	}
	return nil
}

// Project returns the pixel coordinates of world point p and whether p
// is in front of the camera
func (v View) Project(p r3.Vec) (x, y float64, ok bool) {
	f, r, u := v.basis()
	d := p.Sub(v.Pos)
	z := d.Dot(f)
	if z <= eps {
		return 0, 0, false
	}

	tanY := math.Tan(v.Fov * math.Pi / 360)
	tanX := tanY * float64(v.Width) / float64(v.Height)
	nx := d.Dot(r) / z / tanX
	ny := d.Dot(u) / z / tanY

	x = (nx + 1) / 2 * float64(v.Width)
	y = (1 - ny) / 2 * float64(v.Height)
	return x, y, true
}

// Light is a directional light
type Light struct {
	Dir       r3.Vec
	Color     [3]float64
	Intensity float64
}

// Settings control shading
type Settings struct {
	Ambient    [3]float64
	Background [3]float64
	Lights     []Light
	Reflection bool
	Shadows    bool
}

// Request selects which buffers to produce
type Request struct {
	RGB, Depth, Segmentation, Normal bool
}

// Frame holds rendered buffers in row-major order. Buffers that were not
// requested are nil.
type Frame struct {
	Width, Height int

	// RGB holds 3 bytes per pixel
	RGB []uint8

	// Depth is the distance along the view axis, +Inf where nothing is
	// hit
	Depth []float32

	// Segmentation holds the ID of the visible primitive or Background
	Segmentation []int32

	// Normal holds 3 bytes per pixel, the world normal mapped from
	// [-1, 1] to [0, 255]; background pixels are 0
	Normal []uint8
}

// Render casts one ray through the centre of every pixel of view. Rows
// are split into bands which are rendered concurrently.
func Render(ctx context.Context, view View, prims []Primitive,
	settings Settings, req Request) (*Frame, error) {
	if err := view.validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	w, h := view.Width, view.Height
	frame := &Frame{Width: w, Height: h}
	if req.RGB {
		frame.RGB = make([]uint8, w*h*3)
	}
	if req.Depth {
		frame.Depth = make([]float32, w*h)
	}
	if req.Segmentation {
		frame.Segmentation = make([]int32, w*h)
	}
	if req.Normal {
		frame.Normal = make([]uint8, w*h*3)
	}

	t := &tracer{
		prims:    prims,
		settings: settings,
		view:     view,
		frame:    frame,
	}
	t.forward, t.right, t.up = view.basis()
	t.tanY = math.Tan(view.Fov * math.Pi / 360)
	t.tanX = t.tanY * float64(w) / float64(h)

	workers := runtime.GOMAXPROCS(0)
	band := (h + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < h; start += band {
		start, end := start, start+band
		if end > h {
			end = h
		}
		g.Go(func() error {
			for row := start; row < end; row++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				t.row(row)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	return frame, nil
}

type tracer struct {
	prims    []Primitive
	settings Settings
	view     View
	frame    *Frame

	forward, right, up r3.Vec
	tanX, tanY         float64
}

func (t *tracer) row(i int) {
	w, h := t.view.Width, t.view.Height
	ny := (1 - 2*(float64(i)+0.5)/float64(h)) * t.tanY

	for j := 0; j < w; j++ {
		nx := (2*(float64(j)+0.5)/float64(w) - 1) * t.tanX
		dir := spatial.Unit(t.forward.Add(t.right.Scale(nx)).
			Add(t.up.Scale(ny)))
		r := ray{origin: t.view.Pos, dir: dir}

		px := i*w + j
		hr, ok := t.closest(r, math.Inf(1))

		if t.frame.RGB != nil {
			var c [3]float64
			if ok {
				c = t.shade(r, hr, true)
			} else {
				c = t.settings.Background
			}
			for k := 0; k < 3; k++ {
				t.frame.RGB[3*px+k] = toByte(c[k])
			}
		}

		if t.frame.Depth != nil {
			if ok {
				t.frame.Depth[px] = float32(hr.t * dir.Dot(t.forward))
			} else {
				t.frame.Depth[px] = float32(math.Inf(1))
			}
		}

		if t.frame.Segmentation != nil {
			if ok {
				t.frame.Segmentation[px] = hr.prim.ID
			} else {
				t.frame.Segmentation[px] = Background
			}
		}

		if t.frame.Normal != nil && ok {
			n := [3]float64{hr.normal.X, hr.normal.Y, hr.normal.Z}
			for k := 0; k < 3; k++ {
				t.frame.Normal[3*px+k] = toByte(n[k]*0.5 + 0.5)
			}
		}
	}
}

// closest returns the nearest hit along r before tMax
func (t *tracer) closest(r ray, tMax float64) (hit, bool) {
	var best hit
	found := false
	for i := range t.prims {
		h, ok := t.prims[i].intersect(r, eps, tMax)
		if ok {
			best, found = h, true
			tMax = h.t
		}
	}
	return best, found
}

// occluded reports whether anything lies along r
func (t *tracer) occluded(r ray) bool {
	for i := range t.prims {
		if _, ok := t.prims[i].intersect(r, 1e-4, math.Inf(1)); ok {
			return true
		}
	}
	return false
}

func (t *tracer) shade(r ray, h hit, reflect bool) [3]float64 {
	albedo := h.prim.albedo(h.point)
	light := t.settings.Ambient

	for _, l := range t.settings.Lights {
		toLight := spatial.Unit(l.Dir.Scale(-1))
		lambert := h.normal.Dot(toLight)
		if lambert <= 0 {
			continue
		}
		if t.settings.Shadows {
			origin := h.point.Add(h.normal.Scale(1e-4))
			if t.occluded(ray{origin: origin, dir: toLight}) {
				continue
			}
		}
		for k := 0; k < 3; k++ {
			light[k] += l.Color[k] * l.Intensity * lambert
		}
	}

	var c [3]float64
	for k := 0; k < 3; k++ {
		c[k] = albedo[k] * light[k]
	}

	if reflect && t.settings.Reflection && h.prim.Shape == Plane {
		d := r.dir.Sub(h.normal.Scale(2 * r.dir.Dot(h.normal)))
		mirror := ray{origin: h.point.Add(h.normal.Scale(1e-4)), dir: d}

		var m [3]float64
		if mh, ok := t.closest(mirror, math.Inf(1)); ok {
			m = t.shade(mirror, mh, false)
		} else {
			// Sky is not mirrored, only geometry
			m = c
		}
		for k := 0; k < 3; k++ {
			c[k] = (1-reflectivity)*c[k] + reflectivity*m[k]
		}
	}

	return c
}

func toByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
