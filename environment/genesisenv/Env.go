// Package genesisenv adapts a genesis.Scene to the environment
// interfaces. A Scenario fills the scene with entities and cameras, and
// Env builds it, steps it and renders its cameras in a fixed RenderMode.
package genesisenv

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/genesisgym/genesis"
	"github.com/samuelfneumann/genesisgym/internal/log"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

var (
	// ErrNotImplemented is returned by the hooks of BaseScenario
	ErrNotImplemented = errors.New("not implemented")

	// ErrGUIRenderMode is returned when a camera shows a GUI but the
	// render mode is not Human
	ErrGUIRenderMode = errors.New("gui cameras need the human render mode")

	// ErrNoCamera is returned when rendering a scene without cameras
	ErrNoCamera = errors.New("scene has no cameras")
)

// Scenario populates a scene before it is built
type Scenario interface {
	AddEntities(scene *genesis.Scene) error
	AddCamera(scene *genesis.Scene) error
}

// BaseScenario implements Scenario with hooks that always fail. Embed it
// to implement only some of the hooks.
type BaseScenario struct{}

// AddEntities returns ErrNotImplemented
func (BaseScenario) AddEntities(*genesis.Scene) error {
	return fmt.Errorf("addEntities: %w", ErrNotImplemented)
}

// AddCamera returns ErrNotImplemented
func (BaseScenario) AddCamera(*genesis.Scene) error {
	return fmt.Errorf("addCamera: %w", ErrNotImplemented)
}

// Env is an environment backed by a built genesis.Scene. It owns its
// scene exclusively.
type Env struct {
	scene    *genesis.Scene
	mode     RenderMode
	discount float64

	currentTimeStep ts.TimeStep

	logger *log.Logger
}

// New creates a scene with opts, lets sc populate it and builds it
func New(sc Scenario, opts genesis.SceneOptions,
	mode RenderMode) (*Env, error) {
	if mode < RGBArray || mode > Human {
		return nil, fmt.Errorf("new: unknown render mode %v", int(mode))
	}

	scene, err := genesis.NewScene(opts)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if err := sc.AddEntities(scene); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if err := sc.AddCamera(scene); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if err := scene.Build(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	if mode != Human {
		for _, c := range scene.Cameras() {
			if c.GUI() {
				return nil, fmt.Errorf("new: camera %q in mode %v: %w",
					c.Name(), mode, ErrGUIRenderMode)
			}
		}
	}

	e := &Env{
		scene:    scene,
		mode:     mode,
		discount: 1.0,
		logger: log.Provide().With(
			log.String("scene", scene.UID().String()),
			log.Stringer("render_mode", mode)),
	}
	e.currentTimeStep = ts.New(ts.First, 0, e.discount, nil, 0)

	e.logger.Info("environment created",
		log.Int("entities", len(scene.Entities())),
		log.Int("cameras", len(scene.Cameras())))
	return e, nil
}

// Scene returns the scene of the environment
func (e *Env) Scene() *genesis.Scene {
	return e.scene
}

// RenderMode returns the render mode the environment was created with
func (e *Env) RenderMode() RenderMode {
	return e.mode
}

// CurrentTimeStep returns the last timestep of the environment
func (e *Env) CurrentTimeStep() ts.TimeStep {
	return e.currentTimeStep
}

// Step advances the scene by one tick. The returned timestep carries no
// observation and no reward; environments built on Env compute those
// themselves.
func (e *Env) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if err := e.scene.Step(); err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	t := ts.New(ts.Mid, 0, e.discount, nil, e.currentTimeStep.Number+1)
	e.currentTimeStep = t
	return t, false, nil
}

// Reset returns the scene to the state it was built in
func (e *Env) Reset() (ts.TimeStep, error) {
	if err := e.scene.Reset(); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	t := ts.New(ts.First, 0, e.discount, nil, 0)
	e.currentTimeStep = t
	return t, nil
}

// Render renders every camera of the scene in the environment's render
// mode
func (e *Env) Render() (RenderResult, error) {
	return e.RenderContext(context.Background())
}

// RenderContext is like Render but stops early when ctx is done
func (e *Env) RenderContext(ctx context.Context) (RenderResult, error) {
	cameras := e.scene.Cameras()
	if len(cameras) == 0 {
		return RenderResult{}, fmt.Errorf("render: %w", ErrNoCamera)
	}

	req := e.mode.request()
	outputs := make([]genesis.RenderOutput, len(cameras))
	for i, c := range cameras {
		out, err := c.RenderContext(ctx, req)
		if err != nil {
			return RenderResult{}, fmt.Errorf("render: camera %q: %w",
				c.Name(), err)
		}
		outputs[i] = out
	}

	return RenderResult{outputs: outputs}, nil
}

// RenderResult holds the images rendered by every camera of a scene
type RenderResult struct {
	outputs []genesis.RenderOutput
}

// Single returns the images of the only camera of the scene. It returns
// false when the scene has more than one camera.
func (r RenderResult) Single() (genesis.RenderOutput, bool) {
	if len(r.outputs) != 1 {
		return genesis.RenderOutput{}, false
	}
	return r.outputs[0], true
}

// Outputs returns the images of each camera in the order the cameras
// were added. It returns nil when the scene has only one camera.
func (r RenderResult) Outputs() []genesis.RenderOutput {
	if len(r.outputs) < 2 {
		return nil
	}
	out := make([]genesis.RenderOutput, len(r.outputs))
	copy(out, r.outputs)
	return out
}

// Len returns the number of cameras rendered
func (r RenderResult) Len() int {
	return len(r.outputs)
}
