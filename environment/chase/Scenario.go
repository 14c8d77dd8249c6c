package chase

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samuelfneumann/genesisgym/genesis"
	"github.com/samuelfneumann/genesisgym/genesis/morphs"
)

const (
	CarFile       = "xmls/agents/car.xml"
	AdversaryFile = "xmls/agents/point.xml"
)

// CameraOptions returns the options of the chase camera
func CameraOptions() genesis.CameraOptions {
	return genesis.CameraOptions{
		Name:   "chase",
		Res:    [2]int{1280, 960},
		Pos:    [3]float64{3.5, 0.0, 2.5},
		Lookat: [3]float64{0, 0, 0.5},
		Fov:    30,
		GUI:    false,
	}
}

// Scenario places a ground plane, the car and the adversary in a scene,
// along with a single camera looking at them
type Scenario struct {
	car       *genesis.Entity
	adversary *genesis.Entity
	camera    *genesis.Camera
}

// AddEntities implements genesisenv.Scenario
func (s *Scenario) AddEntities(scene *genesis.Scene) error {
	if _, err := scene.AddEntity(morphs.Plane{}); err != nil {
		return fmt.Errorf("addEntities: plane: %w", err)
	}

	car, err := scene.AddEntity(morphs.MJCF{File: CarFile},
		genesis.WithName("car"))
	if err != nil {
		return fmt.Errorf("addEntities: car: %w", err)
	}

	adversary, err := scene.AddEntity(morphs.MJCF{
		File: AdversaryFile,
		Pos:  r3.Vec{X: 2},
	}, genesis.WithName("adversary"))
	if err != nil {
		return fmt.Errorf("addEntities: adversary: %w", err)
	}

	s.car, s.adversary = car, adversary
	return nil
}

// AddCamera implements genesisenv.Scenario
func (s *Scenario) AddCamera(scene *genesis.Scene) error {
	cam, err := scene.AddCamera(CameraOptions())
	if err != nil {
		return fmt.Errorf("addCamera: %w", err)
	}
	s.camera = cam
	return nil
}

// Car returns the car entity, or nil before AddEntities is called
func (s *Scenario) Car() *genesis.Entity { return s.car }

// Adversary returns the adversary entity, or nil before AddEntities is
// called
func (s *Scenario) Adversary() *genesis.Entity { return s.adversary }

// Camera returns the chase camera, or nil before AddCamera is called
func (s *Scenario) Camera() *genesis.Camera { return s.camera }
