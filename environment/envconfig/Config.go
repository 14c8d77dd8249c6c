// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are YAML serializable.
package envconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	env "github.com/samuelfneumann/genesisgym/environment"
	"github.com/samuelfneumann/genesisgym/environment/chase"
	"github.com/samuelfneumann/genesisgym/environment/genesisenv"
	"github.com/samuelfneumann/genesisgym/genesis"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Chase EnvName = "Chase"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	Chase				Capture
type TaskName string

// Tasks available for configuration
const (
	Capture TaskName = "Capture"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment    EnvName               `yaml:"environment"`
	Task           TaskName              `yaml:"task"`
	EpisodeCutoff  uint                  `yaml:"episode_cutoff"`
	Discount       float64               `yaml:"discount"`
	RenderMode     genesisenv.RenderMode `yaml:"render_mode"`
	AdversarySpeed float64               `yaml:"adversary_speed"`
	Scene          genesis.SceneOptions  `yaml:"scene"`
}

// NewConfig returns a new environment Config with default scene options
func NewConfig(envName EnvName, taskName TaskName, episodeCutoff uint,
	discount float64) Config {
	c := Default()
	c.Environment = envName
	c.Task = taskName
	c.EpisodeCutoff = episodeCutoff
	c.Discount = discount
	return c
}

// Default returns the default configuration: the Chase environment
// with the Capture task
func Default() Config {
	return Config{
		Environment:    Chase,
		Task:           Capture,
		EpisodeCutoff:  1000,
		Discount:       0.99,
		RenderMode:     genesisenv.RGBArray,
		AdversarySpeed: chase.DefaultAdversarySpeed,
		Scene:          genesis.DefaultSceneOptions(),
	}
}

// Load reads a Config from the YAML file at path. Fields missing from
// the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %v: %w", path, err)
	}
	return c, nil
}

// Save writes c as YAML to the file at path
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Validate returns an error if c cannot be used to create an
// environment
func (c Config) Validate() error {
	switch c.Environment {
	case Chase:
		if c.Task != Capture {
			return fmt.Errorf("validate: Chase environment has no task %v",
				c.Task)
		}
	default:
		return fmt.Errorf("validate: no such environment %v", c.Environment)
	}

	if c.EpisodeCutoff == 0 {
		return fmt.Errorf("validate: episode cutoff must be positive")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount should be in [0, 1], got %v",
			c.Discount)
	}
	if err := c.Scene.Validate(); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
	}

	switch c.Environment {
	case Chase:
		return c.CreateChase(seed)
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateChase is a factory for creating the Chase environment with the
// Capture task
func (c Config) CreateChase(seed uint64) (*chase.Chase, ts.TimeStep, error) {
	var task env.Task
	switch c.Task {
	case Capture:
		task = chase.NewCapture(seed, int(c.EpisodeCutoff))

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createChase: Chase "+
			"environment has no task %v", c.Task)
	}

	e, first, err := chase.New(task,
		chase.WithSceneOptions(c.Scene),
		chase.WithRenderMode(c.RenderMode),
		chase.WithDiscount(c.Discount),
		chase.WithAdversarySpeed(c.AdversarySpeed))
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("createChase: %w", err)
	}
	return e, first, nil
}
