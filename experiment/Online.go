package experiment

import (
	"fmt"

	env "github.com/samuelfneumann/genesisgym/environment"
	"github.com/samuelfneumann/genesisgym/experiment/savers"
	"github.com/samuelfneumann/genesisgym/internal/log"
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// Online is an Experiment that runs a policy online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	Policy
	maxSteps     uint
	currentSteps uint
	episodes     int
	savers       []savers.Saver
	onStep       []func(ts.TimeStep) error
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given policy. The steps parameter determines how
// many timesteps the experiment is run for, and the s parameter
// is a slice of savers.Saver which determine what data is saved.
func NewOnline(e env.Environment, p Policy, steps uint,
	s ...savers.Saver) *Online {
	return &Online{
		Environment: e,
		Policy:      p,
		maxSteps:    steps,
		savers:      s,
	}
}

// Register registers a saver.Saver with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(s savers.Saver) {
	o.savers = append(o.savers, s)
}

// OnStep registers f to be called with every timestep of the
// experiment, after the savers have tracked it. An error returned by f
// stops the experiment.
func (o *Online) OnStep(f func(ts.TimeStep) error) {
	o.onStep = append(o.onStep, f)
}

// Steps returns the number of timesteps run so far
func (o *Online) Steps() uint {
	return o.currentSteps
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	if err := o.track(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}

	// Run the next timestep
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.Policy.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}

		// Cache the environment step in each Saver
		if err := o.track(step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
	}

	if step.Last() {
		o.episodes++
		log.Provide().Debug("episode finished",
			log.Int("episode", o.episodes),
			log.Int("length", step.Number),
			log.Stringer("end", step.EndType()))
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Savers to disk
func (o *Online) Save() error {
	for _, saver := range o.savers {
		if err := saver.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each saver
func (o *Online) track(t ts.TimeStep) error {
	for _, saver := range o.savers {
		saver.Track(t)
	}
	for _, f := range o.onStep {
		if err := f(t); err != nil {
			return err
		}
	}
	return nil
}
