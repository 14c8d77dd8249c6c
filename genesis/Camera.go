package genesis

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"gopkg.in/yaml.v3"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/genesisgym/genesis/internal/raster"
	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
	"github.com/samuelfneumann/genesisgym/internal/log"
)

// RenderRequest selects which images a camera renders
type RenderRequest struct {
	RGB          bool
	Depth        bool
	Segmentation bool

	// ColorizeSeg returns the segmentation as colours instead of entity
	// indices
	ColorizeSeg bool
	Normal      bool
}

// RenderOutput holds the images rendered by a camera. Images that were
// not requested are nil.
//
//	RGB           (H, W, 3) uint8
//	Depth         (H, W) float32, distance along the view axis in metres,
//	              +Inf where nothing is seen
//	Segmentation  (H, W) int32 entity index, -1 for background, or
//	              (H, W, 3) uint8 when colorized
//	Normal        (H, W, 3) uint8
type RenderOutput struct {
	RGB          *tensor.Dense
	Depth        *tensor.Dense
	Segmentation *tensor.Dense
	Normal       *tensor.Dense
}

// Camera renders images of a Scene
type Camera struct {
	idx   int
	opts  CameraOptions
	scene *Scene

	recording bool
	recorded  []image.Image
}

func newCamera(s *Scene, idx int, opts CameraOptions) (*Camera, error) {
	if opts.Res[0] <= 0 || opts.Res[1] <= 0 {
		return nil, fmt.Errorf("newCamera: resolution must be positive, "+
			"got %v", opts.Res)
	}
	if opts.Fov <= 0 || opts.Fov >= 180 {
		return nil, fmt.Errorf("newCamera: fov must be in (0, 180), got %v",
			opts.Fov)
	}
	if opts.Pos == opts.Lookat {
		return nil, fmt.Errorf("newCamera: position and lookat are both %v",
			opts.Pos)
	}
	if opts.Up == ([3]float64{}) {
		opts.Up = [3]float64{0, 0, 1}
	}
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("camera_%d", idx)
	}

	return &Camera{idx: idx, opts: opts, scene: s}, nil
}

// Idx returns the index of the camera in its scene
func (c *Camera) Idx() int {
	return c.idx
}

// Name returns the name of the camera
func (c *Camera) Name() string {
	return c.opts.Name
}

// Res returns the width and height of the camera's images
func (c *Camera) Res() [2]int {
	return c.opts.Res
}

// Pos returns the position of the camera
func (c *Camera) Pos() [3]float64 {
	return c.opts.Pos
}

// Lookat returns the point the camera looks at
func (c *Camera) Lookat() [3]float64 {
	return c.opts.Lookat
}

// Fov returns the vertical field of view of the camera in degrees
func (c *Camera) Fov() float64 {
	return c.opts.Fov
}

// GUI returns whether the camera shows its images in the viewer
func (c *Camera) GUI() bool {
	return c.opts.GUI
}

// SetPose moves the camera
func (c *Camera) SetPose(pos, lookat [3]float64) error {
	if pos == lookat {
		return fmt.Errorf("setPose: position and lookat are both %v", pos)
	}
	c.opts.Pos = pos
	c.opts.Lookat = lookat
	return nil
}

func (c *Camera) view() raster.View {
	return raster.View{
		Pos:    vec(c.opts.Pos),
		Lookat: vec(c.opts.Lookat),
		Up:     vec(c.opts.Up),
		Fov:    c.opts.Fov,
		Width:  c.opts.Res[0],
		Height: c.opts.Res[1],
	}
}

// Render renders the scene as currently simulated
func (c *Camera) Render(req RenderRequest) (RenderOutput, error) {
	return c.RenderContext(context.Background(), req)
}

// RenderContext is like Render but stops early when ctx is done
func (c *Camera) RenderContext(ctx context.Context,
	req RenderRequest) (RenderOutput, error) {
	if !c.scene.built {
		return RenderOutput{}, fmt.Errorf("render: %w", ErrSceneNotBuilt)
	}

	// Recording and the viewer need colour even when it is not returned
	show := c.opts.GUI && c.scene.opts.ShowViewer
	wantRGB := req.RGB || c.recording || show

	frame, err := c.scene.render(ctx, c.view(), raster.Request{
		RGB:          wantRGB,
		Depth:        req.Depth,
		Segmentation: req.Segmentation || req.ColorizeSeg,
		Normal:       req.Normal,
	}, c)
	if err != nil {
		return RenderOutput{}, fmt.Errorf("render: %w", err)
	}

	w, h := frame.Width, frame.Height
	var out RenderOutput
	if req.RGB {
		out.RGB = tensor.New(tensor.WithShape(h, w, 3),
			tensor.WithBacking(frame.RGB))
	}
	if req.Depth {
		out.Depth = tensor.New(tensor.WithShape(h, w),
			tensor.WithBacking(frame.Depth))
	}
	if req.ColorizeSeg {
		out.Segmentation = tensor.New(tensor.WithShape(h, w, 3),
			tensor.WithBacking(raster.Colorize(frame.Segmentation)))
	} else if req.Segmentation {
		out.Segmentation = tensor.New(tensor.WithShape(h, w),
			tensor.WithBacking(frame.Segmentation))
	}
	if req.Normal {
		out.Normal = tensor.New(tensor.WithShape(h, w, 3),
			tensor.WithBacking(frame.Normal))
	}

	if c.recording || show {
		img := frame.Image()
		if c.recording {
			c.recorded = append(c.recorded, img)
		}
		if show {
			if err := c.scene.viewer.Show(c.opts.Name, img); err != nil {
				return RenderOutput{}, fmt.Errorf("render: %w", err)
			}
		}
	}

	return out, nil
}

// Recording returns whether the camera is recording
func (c *Camera) Recording() bool {
	return c.recording
}

// StartRecording makes every following render keep its colour image
// until StopRecording is called
func (c *Camera) StartRecording() {
	c.recording = true
	c.recorded = c.recorded[:0]
}

type recordingManifest struct {
	Camera string   `yaml:"camera"`
	FPS    int      `yaml:"fps"`
	Res    [2]int   `yaml:"res"`
	Frames []string `yaml:"frames"`
}

// StopRecording stops recording and writes the recorded frames to dir as
// numbered PNG images, along with a recording.yaml manifest holding the
// playback rate fps
func (c *Camera) StopRecording(dir string, fps int) error {
	if !c.recording {
		return fmt.Errorf("stopRecording: camera %q is not recording",
			c.opts.Name)
	}
	if fps <= 0 {
		return fmt.Errorf("stopRecording: fps must be positive, got %v", fps)
	}
	c.recording = false

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("stopRecording: %w", err)
	}

	manifest := recordingManifest{
		Camera: c.opts.Name,
		FPS:    fps,
		Res:    c.opts.Res,
	}
	for i, img := range c.recorded {
		name := fmt.Sprintf("frame_%05d.png", i)
		if err := gg.NewContextForImage(img).SavePNG(
			filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("stopRecording: %w", err)
		}
		manifest.Frames = append(manifest.Frames, name)
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("stopRecording: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "recording.yaml"), data,
		0o644); err != nil {
		return fmt.Errorf("stopRecording: %w", err)
	}

	log.Provide().Info("recording saved",
		log.String("camera", c.opts.Name),
		log.String("dir", dir),
		log.Int("frames", len(c.recorded)))
	c.recorded = nil
	return nil
}

// marker returns the overlay drawn for the camera when cameras are shown
func (c *Camera) marker() ([]raster.Segment, raster.Marker) {
	pos, lookat := vec(c.opts.Pos), vec(c.opts.Lookat)
	dir := spatial.Unit(lookat.Sub(pos)).Scale(0.3)
	color := [3]float64{1, 0.8, 0}
	return []raster.Segment{{From: pos, To: pos.Add(dir), Color: color,
			Width: 2}},
		raster.Marker{At: pos, Color: color, Radius: 4}
}
