package savers

import (
	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// Outcomes counts how episodes ended, keyed by the name of their
// timestep.EndType
type Outcomes struct {
	counts   map[string]int
	filename string
}

// NewOutcomes returns a new Outcomes saver which will save its data at
// filename
func NewOutcomes(filename string) *Outcomes {
	return &Outcomes{counts: make(map[string]int), filename: filename}
}

// Track counts t if it is the last timestep in its episode
func (o *Outcomes) Track(t ts.TimeStep) {
	if t.Last() {
		o.counts[t.EndType().String()]++
	}
}

// Count returns the number of episodes that ended with e
func (o *Outcomes) Count(e ts.EndType) int {
	return o.counts[e.String()]
}

// Save saves the counts to disk
func (o *Outcomes) Save() error {
	return save(o.filename, o.counts)
}
