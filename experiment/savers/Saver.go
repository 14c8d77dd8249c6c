// Package savers implements Savers, which track and save data in an
// experiment
package savers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/genesisgym/timestep"
)

// Interface Saver keeps track of the experiment data and saves the data
// after the experiment has finished
type Saver interface {
	Track(t ts.TimeStep)
	Save() error
}

// save gob-encodes data to the file filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %w", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %w", err)
	}
	return file.Close()
}

// LoadData loads and returns the data saved by a Return Saver
func LoadData(filename string) ([]float64, error) {
	var data []float64
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadData: %w", err)
	}
	return data, nil
}

// LoadLengths loads and returns the data saved by an EpisodeLength
// Saver
func LoadLengths(filename string) ([]int, error) {
	var data []int
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadLengths: %w", err)
	}
	return data, nil
}

// LoadOutcomes loads and returns the data saved by an Outcomes Saver
func LoadOutcomes(filename string) (map[string]int, error) {
	var data map[string]int
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadOutcomes: %w", err)
	}
	return data, nil
}

func load(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open data file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("could not decode data: %w", err)
	}
	return nil
}
