// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/genesisgym/environment/envconfig"
	"github.com/samuelfneumann/genesisgym/experiment/savers"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments send each TimeStep to Savers using the Saver's Track()
// method. The Saver then determines which data from the TimeStep it
// caches and saves. The Save() function writes all cached data to
// disk, usually after the experiment has been run. The Run() method
// runs episodes until the maximum timestep limit is reached, and the
// RunEpisode() method runs a single episode.
type Experiment interface {
	Run() error
	RunEpisode() (bool, error) // Returns whether the step limit was reached

	// Save all tracked data to disk
	Save() error

	// Adds a new Saver to the (possibly already running) experiment.
	// Useful if you want to track data only after a specified event.
	Register(s savers.Saver)
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment
type Config struct {
	Type     Type             `yaml:"type"`
	MaxSteps uint             `yaml:"max_steps"`
	EnvConf  envconfig.Config `yaml:"environment"`
}

// CreateExp creates the experiment described by c, running policy p
// in an environment seeded with seed
func (c Config) CreateExp(seed uint64, p Policy,
	s ...savers.Saver) (Experiment, error) {
	env, _, err := c.EnvConf.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create "+
			"environment: %w", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, p, c.MaxSteps, s...), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
