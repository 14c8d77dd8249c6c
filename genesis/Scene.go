// Package genesis is a small scene engine. A Scene holds entities
// loaded from morphs and cameras that render them. Entities move on the
// ground plane under a planar rigid-body simulation, and cameras render
// colour, depth, segmentation and normal images by ray casting.
//
// A scene is populated, then built once, then stepped and rendered:
//
//	scene, _ := genesis.NewScene(genesis.DefaultSceneOptions())
//	scene.AddEntity(morphs.Plane{})
//	car, _ := scene.AddEntity(morphs.MJCF{File: "xmls/agents/car.xml"})
//	cam, _ := scene.AddCamera(genesis.DefaultCameraOptions())
//	scene.Build()
//	scene.Step()
//	out, _ := cam.Render(genesis.RenderRequest{RGB: true})
package genesis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis/internal/physics"
	"github.com/samuelfneumann/genesisgym/genesis/internal/raster"
	"github.com/samuelfneumann/genesisgym/genesis/internal/spatial"
	"github.com/samuelfneumann/genesisgym/genesis/morphs"
	"github.com/samuelfneumann/genesisgym/internal/log"
)

var (
	// ErrSceneBuilt is returned when a scene is changed after it was
	// built
	ErrSceneBuilt = errors.New("scene is already built")

	// ErrSceneNotBuilt is returned when a scene is used before it is
	// built
	ErrSceneNotBuilt = errors.New("scene is not built")
)

// Scene is a simulated world with entities and cameras
type Scene struct {
	uid      uuid.UUID
	opts     SceneOptions
	entities []*Entity
	cameras  []*Camera
	world    *physics.World
	built    bool
	t        int

	viewer     Viewer
	viewerCam  *Camera
	nextViewer float64

	logger *log.Logger
}

// NewScene returns a new, empty scene
func NewScene(opts SceneOptions) (*Scene, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("newScene: %w", err)
	}

	// Copy the lights so that the caller's options stay independent
	opts.Vis.Lights = append([]LightOptions(nil), opts.Vis.Lights...)

	uid := uuid.New()
	return &Scene{
		uid:    uid,
		opts:   opts,
		logger: log.Provide().With(log.String("scene", uid.String())),
	}, nil
}

// UID returns the unique identifier of the scene
func (s *Scene) UID() uuid.UUID {
	return s.uid
}

// Options returns the options the scene was created with
func (s *Scene) Options() SceneOptions {
	opts := s.opts
	opts.Vis.Lights = append([]LightOptions(nil), s.opts.Vis.Lights...)
	return opts
}

// IsBuilt returns whether Build has been called
func (s *Scene) IsBuilt() bool {
	return s.built
}

// T returns the number of steps taken since the scene was built or last
// reset
func (s *Scene) T() int {
	return s.t
}

// Dt returns the simulated time of one step
func (s *Scene) Dt() float64 {
	return s.opts.Sim.Dt
}

// CurrentTime returns the simulated time in seconds
func (s *Scene) CurrentTime() float64 {
	return float64(s.t) * s.opts.Sim.Dt
}

// Entities returns the entities of the scene in the order they were
// added
func (s *Scene) Entities() []*Entity {
	out := make([]*Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Cameras returns the cameras of the scene in the order they were added
func (s *Scene) Cameras() []*Camera {
	out := make([]*Camera, len(s.cameras))
	copy(out, s.cameras)
	return out
}

// SetViewer sets where viewer frames are shown. By default they are
// written as PNG files to the ViewerDir option.
func (s *Scene) SetViewer(v Viewer) {
	s.viewer = v
}

// AddEntity adds an entity built from morph to the scene
func (s *Scene) AddEntity(morph morphs.Morph,
	opts ...EntityOption) (*Entity, error) {
	if s.built {
		return nil, fmt.Errorf("addEntity: %w", ErrSceneBuilt)
	}

	e, err := newEntity(s, len(s.entities), morph, opts...)
	if err != nil {
		return nil, fmt.Errorf("addEntity: %w", err)
	}
	s.entities = append(s.entities, e)

	s.logger.Debug("entity added",
		log.Stringer("morph", morph),
		log.Int("idx", e.idx),
		log.Int("dofs", e.NDofs()))
	return e, nil
}

// AddCamera adds a camera to the scene
func (s *Scene) AddCamera(opts CameraOptions) (*Camera, error) {
	if s.built {
		return nil, fmt.Errorf("addCamera: %w", ErrSceneBuilt)
	}

	c, err := newCamera(s, len(s.cameras), opts)
	if err != nil {
		return nil, fmt.Errorf("addCamera: %w", err)
	}
	s.cameras = append(s.cameras, c)
	return c, nil
}

// Build creates the simulation of the scene. Entities and cameras can
// no longer be added afterwards.
func (s *Scene) Build() error {
	if s.built {
		return fmt.Errorf("build: %w", ErrSceneBuilt)
	}

	world, err := physics.NewWorld(s.opts.Sim.Dt, s.opts.Sim.Substeps)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	for _, e := range s.entities {
		for _, l := range e.links {
			l.body, err = world.AddBody(l.def)
			if err != nil {
				return fmt.Errorf("build: entity %v: %w", e.idx, err)
			}
		}
	}

	if s.opts.ShowViewer {
		s.viewerCam, err = newCamera(s, -1, CameraOptions{
			Name:   ViewerName,
			Res:    s.opts.Viewer.Res,
			Pos:    s.opts.Viewer.CameraPos,
			Lookat: s.opts.Viewer.CameraLookat,
			Fov:    s.opts.Viewer.CameraFov,
		})
		if err != nil {
			return fmt.Errorf("build: viewer: %w", err)
		}
		if s.viewer == nil {
			s.viewer = NewPNGViewer(s.opts.ViewerDir)
		}
	}

	s.world = world
	s.built = true
	s.t = 0

	s.logger.Info("scene built",
		log.Int("entities", len(s.entities)),
		log.Int("cameras", len(s.cameras)),
		log.Stringer("renderer", s.opts.Renderer),
		log.Bool("viewer", s.opts.ShowViewer))
	return nil
}

// Step advances the simulation by one tick of Dt seconds
func (s *Scene) Step() error {
	if !s.built {
		return fmt.Errorf("step: %w", ErrSceneNotBuilt)
	}

	s.world.Step()
	s.t++

	if s.viewerCam != nil && s.CurrentTime() >= s.nextViewer-1e-9 {
		s.nextViewer += 1 / float64(s.opts.Viewer.MaxFPS)
		if err := s.showViewer(); err != nil {
			return fmt.Errorf("step: %w", err)
		}
	}
	return nil
}

func (s *Scene) showViewer() error {
	frame, err := s.render(context.Background(), s.viewerCam.view(),
		raster.Request{RGB: true}, s.viewerCam)
	if err != nil {
		return err
	}
	return s.viewer.Show(ViewerName, frame.Image())
}

// Reset returns every entity to the state it was built in and sets the
// step count to zero
func (s *Scene) Reset() error {
	if !s.built {
		return fmt.Errorf("reset: %w", ErrSceneNotBuilt)
	}

	s.world.Reset()
	s.t = 0
	s.nextViewer = 0
	return nil
}

// render renders the scene from view, drawing the overlays enabled in
// the scene's options. self is the camera rendering, which is not drawn
// when cameras are shown.
func (s *Scene) render(ctx context.Context, view raster.View,
	req raster.Request, self *Camera) (*raster.Frame, error) {
	var prims []raster.Primitive
	for _, e := range s.entities {
		prims = e.primitives(prims)
	}

	vis := s.opts.Vis
	settings := raster.Settings{
		Ambient:    vis.AmbientLight,
		Background: vis.BackgroundColor,
		Reflection: vis.PlaneReflection,
		Shadows:    s.opts.Renderer == RayTracer,
	}
	for _, l := range vis.Lights {
		settings.Lights = append(settings.Lights, raster.Light{
			Dir:       vec(l.Dir),
			Color:     l.Color,
			Intensity: l.Intensity,
		})
	}

	frame, err := raster.Render(ctx, view, prims, settings, req)
	if err != nil {
		return nil, err
	}

	if req.RGB {
		var segs []raster.Segment
		var markers []raster.Marker
		if vis.ShowWorldFrame {
			segs = append(segs, raster.Axes(r3.Vec{}, spatial.Identity,
				vis.WorldFrameSize)...)
		}
		if vis.ShowLinkFrame {
			for _, e := range s.entities {
				segs = e.frames(segs, vis.LinkFrameSize)
			}
		}
		if vis.ShowCameras {
			for _, c := range s.cameras {
				if c == self {
					continue
				}
				cs, m := c.marker()
				segs = append(segs, cs...)
				markers = append(markers, m)
			}
		}
		raster.Draw(frame, view, segs, markers)
	}

	return frame, nil
}
