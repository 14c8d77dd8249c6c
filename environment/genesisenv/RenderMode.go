package genesisenv

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/genesisgym/genesis"
)

// RenderMode determines which images Render returns
type RenderMode int

const (
	RGBArray RenderMode = iota
	DepthArray
	SegArray
	ColorizedSegArray
	NormalArray
	AllArrays
	Human
)

var renderModes = [...]string{
	RGBArray:          "rgb_array",
	DepthArray:        "depth_array",
	SegArray:          "seg_array",
	ColorizedSegArray: "colorized_seg_array",
	NormalArray:       "normal_array",
	AllArrays:         "all_arrays",
	Human:             "human",
}

func (r RenderMode) String() string {
	if r < 0 || int(r) >= len(renderModes) {
		return fmt.Sprintf("RenderMode(%d)", int(r))
	}
	return renderModes[r]
}

// ParseRenderMode returns the render mode named s
func ParseRenderMode(s string) (RenderMode, error) {
	for i, name := range renderModes {
		if s == name {
			return RenderMode(i), nil
		}
	}
	return 0, fmt.Errorf("parseRenderMode: unknown render mode %q, want one "+
		"of %v", s, renderModes)
}

// MarshalYAML implements yaml.Marshaler
func (r RenderMode) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (r *RenderMode) UnmarshalYAML(value *yaml.Node) error {
	mode, err := ParseRenderMode(value.Value)
	if err != nil {
		return err
	}
	*r = mode
	return nil
}

// RenderModes returns the names of every supported render mode
func RenderModes() []string {
	return append([]string(nil), renderModes[:]...)
}

// Metadata returns the metadata shared by every Env, keyed the way
// Gymnasium environments report it
func Metadata() map[string][]string {
	return map[string][]string{"render_modes": RenderModes()}
}

// request returns the images a camera should render in mode r. Every
// mode selects only the images it names, and human and all_arrays
// select every uncolorized image.
func (r RenderMode) request() genesis.RenderRequest {
	switch r {
	case RGBArray:
		return genesis.RenderRequest{RGB: true}
	case DepthArray:
		return genesis.RenderRequest{Depth: true}
	case SegArray:
		return genesis.RenderRequest{Segmentation: true}
	case ColorizedSegArray:
		return genesis.RenderRequest{ColorizeSeg: true}
	case NormalArray:
		return genesis.RenderRequest{Normal: true}
	case AllArrays, Human:
		return genesis.RenderRequest{
			RGB:          true,
			Depth:        true,
			Segmentation: true,
			Normal:       true,
		}
	default:
		panic(fmt.Sprintf("request: unknown render mode %v", int(r)))
	}
}
