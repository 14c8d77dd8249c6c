package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
)

// Segment is a line between two world points drawn over a frame
type Segment struct {
	From, To r3.Vec
	Color    [3]float64
	Width    float64
}

// Marker is a filled dot at a world point drawn over a frame
type Marker struct {
	At     r3.Vec
	Color  [3]float64
	Radius float64
}

// Axes returns the three segments of a coordinate frame at pos with
// rotation rot and axis length size, coloured red, green and blue for
// x, y and z
func Axes(pos r3.Vec, rot quat.Number, size float64) []Segment {
	axes := [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}
	colors := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	segs := make([]Segment, 0, 3)
	for i, a := range axes {
		segs = append(segs, Segment{
			From:  pos,
			To:    pos.Add(spatial.Rotate(rot, a).Scale(size)),
			Color: colors[i],
			Width: 2,
		})
	}
	return segs
}

// Draw draws segs and markers over the RGB buffer of frame, as seen
// from view. It does nothing when the frame has no RGB buffer.
func Draw(frame *Frame, view View, segs []Segment, markers []Marker) {
	if frame.RGB == nil || (len(segs) == 0 && len(markers) == 0) {
		return
	}

	img := frame.Image()
	dc := gg.NewContextForRGBA(img)
	for _, s := range segs {
		x1, y1, ok1 := view.Project(s.From)
		x2, y2, ok2 := view.Project(s.To)
		if !ok1 || !ok2 {
			continue
		}
		dc.ClearPath()
		dc.DrawLine(x1, y1, x2, y2)
		dc.SetColor(rgb(s.Color))
		dc.SetLineWidth(math.Max(s.Width, 1))
		dc.Stroke()
	}

	for _, m := range markers {
		x, y, ok := view.Project(m.At)
		if !ok {
			continue
		}
		dc.ClearPath()
		dc.DrawCircle(x, y, math.Max(m.Radius, 1))
		dc.SetColor(rgb(m.Color))
		dc.Fill()
	}

	for px := 0; px < frame.Width*frame.Height; px++ {
		copy(frame.RGB[3*px:3*px+3], img.Pix[4*px:4*px+3])
	}
}

// Image returns a copy of the RGB buffer of f as an image
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if f.RGB == nil {
		return img
	}
	for px := 0; px < f.Width*f.Height; px++ {
		copy(img.Pix[4*px:4*px+3], f.RGB[3*px:3*px+3])
		img.Pix[4*px+3] = 255
	}
	return img
}

func rgb(c [3]float64) color.Color {
	return color.RGBA{R: toByte(c[0]), G: toByte(c[1]), B: toByte(c[2]),
		A: 255}
}
