// Package dataset holds the training data model consumed by the network:
// ordered (input, target) example pairs plus the training configuration
// record, and the loaders that turn files into that shape.
package dataset

import (
	"fmt"

	"github.com/born-ml/ffnet/internal/vecmath"
)

// Config is the training configuration shared by a dataset.
type Config struct {
	LearningRate float64 // Gradient-descent step size.
	Batches      int     // Number of parallel shards per update window (minimum 1).
	BatchSize    int     // Examples per synchronized update; 0 means the whole dataset.
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		LearningRate: 0.01,
		Batches:      1,
	}
}

// Shards returns the effective shard count, never below 1.
func (c Config) Shards() int {
	return max(c.Batches, 1)
}

// Window returns the number of examples per update for a dataset of n
// examples.
func (c Config) Window(n int) int {
	if c.BatchSize <= 0 || c.BatchSize > n {
		return n
	}
	return c.BatchSize
}

// Example is one (input, target) pair. Input and target widths are
// independent of each other.
type Example struct {
	Input  []float64
	Target []float64
}

// Dataset is an ordered sequence of examples plus the configuration used to
// train on them.
type Dataset struct {
	Examples []Example
	Config   Config
}

// New creates a dataset from parallel input and target slices.
//
// Returns an error if the slices differ in length.
func New(inputs, targets [][]float64, cfg Config) (*Dataset, error) {
	if len(inputs) != len(targets) {
		return nil, fmt.Errorf("dataset: %d inputs but %d targets", len(inputs), len(targets))
	}

	examples := make([]Example, len(inputs))
	for i := range inputs {
		examples[i] = Example{Input: inputs[i], Target: targets[i]}
	}
	return &Dataset{Examples: examples, Config: cfg}, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Examples)
}

// InputWidth returns the width of the first example's input, or 0 if empty.
func (d *Dataset) InputWidth() int {
	if d.Len() == 0 {
		return 0
	}
	return len(d.Examples[0].Input)
}

// OneHot encodes label as a vector of width n with a single 1.
//
// Returns an error if label is outside [0, n).
func OneHot(label, n int) ([]float64, error) {
	if label < 0 || label >= n {
		return nil, fmt.Errorf("label %d out of range [0, %d)", label, n)
	}
	v := make([]float64, n)
	v[label] = 1
	return v, nil
}

// Argmax returns the index of the largest component of v, or -1 if empty.
func Argmax(v []float64) int {
	return vecmath.Argmax(v)
}

// XOR returns the four-example exclusive-or dataset with a single output.
func XOR(cfg Config) *Dataset {
	ds, _ := New(
		[][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}},
		[][]float64{{0}, {1}, {1}, {0}},
		cfg,
	)
	return ds
}
