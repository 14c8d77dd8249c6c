package raster

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// goldenRatio spreads consecutive ids around the hue circle
const goldenRatio = 0.618033988749895

// SegColor returns the colour used for segmentation id. Background is
// black.
func SegColor(id int32) [3]uint8 {
	if id < 0 {
		return [3]uint8{}
	}
	h := math.Mod(float64(id)*goldenRatio, 1)
	r, g, b := colorful.Hsv(360*h, 0.65, 0.95).RGB255()
	return [3]uint8{r, g, b}
}

// Colorize maps a segmentation buffer to 3 bytes per pixel
func Colorize(seg []int32) []uint8 {
	out := make([]uint8, 3*len(seg))
	for i, id := range seg {
		c := SegColor(id)
		copy(out[3*i:3*i+3], c[:])
	}
	return out
}
