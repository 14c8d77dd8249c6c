package genesis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Renderer selects how cameras produce images
type Renderer int

const (
	// Rasterizer renders with direct lighting only
	Rasterizer Renderer = iota

	// RayTracer additionally traces shadow rays
	RayTracer
)

func (r Renderer) String() string {
	switch r {
	case Rasterizer:
		return "rasterizer"
	case RayTracer:
		return "raytracer"
	}
	return fmt.Sprintf("Renderer(%d)", int(r))
}

// ParseRenderer returns the Renderer named s
func ParseRenderer(s string) (Renderer, error) {
	switch strings.ToLower(s) {
	case "", "rasterizer":
		return Rasterizer, nil
	case "raytracer":
		return RayTracer, nil
	}
	return Rasterizer, fmt.Errorf("parseRenderer: unknown renderer %q", s)
}

// MarshalYAML implements yaml.Marshaler
func (r Renderer) MarshalYAML() (interface{}, error) {
	return r.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (r *Renderer) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRenderer(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ViewerOptions configure the scene viewer camera
type ViewerOptions struct {
	Res          [2]int     `yaml:"res"`
	CameraPos    [3]float64 `yaml:"camera_pos"`
	CameraLookat [3]float64 `yaml:"camera_lookat"`
	CameraFov    float64    `yaml:"camera_fov"`

	// MaxFPS bounds how many viewer frames are produced per simulated
	// second
	MaxFPS int `yaml:"max_fps"`
}

// LightOptions describe a directional light
type LightOptions struct {
	Dir       [3]float64 `yaml:"dir"`
	Color     [3]float64 `yaml:"color"`
	Intensity float64    `yaml:"intensity"`
}

// VisOptions configure what cameras draw
type VisOptions struct {
	ShowWorldFrame  bool           `yaml:"show_world_frame"`
	WorldFrameSize  float64        `yaml:"world_frame_size"`
	ShowLinkFrame   bool           `yaml:"show_link_frame"`
	LinkFrameSize   float64        `yaml:"link_frame_size"`
	ShowCameras     bool           `yaml:"show_cameras"`
	PlaneReflection bool           `yaml:"plane_reflection"`
	AmbientLight    [3]float64     `yaml:"ambient_light"`
	BackgroundColor [3]float64     `yaml:"background_color"`
	Lights          []LightOptions `yaml:"lights"`
}

// SimOptions configure the physics
type SimOptions struct {
	// Dt is the simulated time of one Step, in seconds
	Dt       float64 `yaml:"dt"`
	Substeps int     `yaml:"substeps"`
}

// SceneOptions configure a Scene
type SceneOptions struct {
	Viewer   ViewerOptions `yaml:"viewer"`
	Vis      VisOptions    `yaml:"vis"`
	Sim      SimOptions    `yaml:"sim"`
	Renderer Renderer      `yaml:"renderer"`

	// ShowViewer sends viewer frames to the scene's Viewer
	ShowViewer bool `yaml:"show_viewer"`

	// ViewerDir is where the default PNG viewer writes frames
	ViewerDir string `yaml:"viewer_dir"`
}

// DefaultSceneOptions returns the options of the default scene. Each
// call returns a new value.
func DefaultSceneOptions() SceneOptions {
	return SceneOptions{
		Viewer: ViewerOptions{
			Res:          [2]int{1280, 960},
			CameraPos:    [3]float64{3.5, 0.0, 2.5},
			CameraLookat: [3]float64{0.0, 0.0, 0.5},
			CameraFov:    40,
			MaxFPS:       60,
		},
		Vis: VisOptions{
			ShowWorldFrame:  true,
			WorldFrameSize:  1.0,
			ShowLinkFrame:   false,
			LinkFrameSize:   0.2,
			ShowCameras:     false,
			PlaneReflection: true,
			AmbientLight:    [3]float64{0.1, 0.1, 0.1},
			BackgroundColor: [3]float64{0.04, 0.08, 0.12},
			Lights: []LightOptions{{
				Dir:       [3]float64{-1, -1, -1},
				Color:     [3]float64{1, 1, 1},
				Intensity: 0.9,
			}},
		},
		Sim: SimOptions{
			Dt:       0.01,
			Substeps: 1,
		},
		Renderer:   Rasterizer,
		ShowViewer: false,
		ViewerDir:  "viewer",
	}
}

// Validate returns an error describing the first invalid option
func (o SceneOptions) Validate() error {
	if o.Sim.Dt <= 0 {
		return fmt.Errorf("validate: dt must be positive, got %v", o.Sim.Dt)
	}
	if o.Sim.Substeps < 1 {
		return fmt.Errorf("validate: substeps must be at least 1, got %v",
			o.Sim.Substeps)
	}
	if o.Renderer != Rasterizer && o.Renderer != RayTracer {
		return fmt.Errorf("validate: unknown renderer %v", o.Renderer)
	}
	if o.ShowViewer {
		if o.Viewer.Res[0] <= 0 || o.Viewer.Res[1] <= 0 {
			return fmt.Errorf("validate: viewer resolution must be "+
				"positive, got %v", o.Viewer.Res)
		}
		if o.Viewer.MaxFPS <= 0 {
			return fmt.Errorf("validate: viewer max FPS must be positive, "+
				"got %v", o.Viewer.MaxFPS)
		}
	}
	return nil
}

// CameraOptions configure a Camera
type CameraOptions struct {
	Name string `yaml:"name"`

	// Res is the image width and height in pixels
	Res    [2]int     `yaml:"res"`
	Pos    [3]float64 `yaml:"pos"`
	Lookat [3]float64 `yaml:"lookat"`

	// Up defaults to the world z axis
	Up [3]float64 `yaml:"up"`

	// Fov is the vertical field of view in degrees
	Fov float64 `yaml:"fov"`

	// GUI shows the camera's images in the viewer
	GUI bool `yaml:"gui"`
}

// DefaultCameraOptions returns the options of a default camera
func DefaultCameraOptions() CameraOptions {
	return CameraOptions{
		Res:    [2]int{320, 320},
		Pos:    [3]float64{0.5, 2.5, 3.5},
		Lookat: [3]float64{0.5, 0.5, 0.5},
		Up:     [3]float64{0, 0, 1},
		Fov:    30,
	}
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
