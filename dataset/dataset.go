// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dataset provides training examples and the per-run training
// configuration.
//
// Example:
//
//	cfg := dataset.Config{LearningRate: 0.01, Batches: 4, BatchSize: 32}
//	train, err := dataset.LoadCSV("mnist_train.csv", dataset.MNISTOptions(), cfg)
package dataset

import (
	"io"

	"github.com/born-ml/ffnet/internal/dataset"
)

// Config holds the learning rate, the shard count and the window size used
// by a training epoch.
type Config = dataset.Config

// DefaultConfig returns a learning rate of 0.01 with a single shard.
func DefaultConfig() Config {
	return dataset.DefaultConfig()
}

// Example is one input/target pair.
type Example = dataset.Example

// Dataset is an ordered list of examples with its training config.
type Dataset = dataset.Dataset

// New pairs inputs with targets.
func New(inputs, targets [][]float64, cfg Config) (*Dataset, error) {
	return dataset.New(inputs, targets, cfg)
}

// XOR returns the four XOR examples.
func XOR(cfg Config) *Dataset {
	return dataset.XOR(cfg)
}

// OneHot encodes label as a vector of length n.
func OneHot(label, n int) ([]float64, error) {
	return dataset.OneHot(label, n)
}

// Argmax returns the index of the largest element.
func Argmax(v []float64) int {
	return dataset.Argmax(v)
}

// CSVOptions controls how rows are turned into examples.
type CSVOptions = dataset.CSVOptions

// MNISTOptions returns the options for the MNIST CSV layout.
func MNISTOptions() CSVOptions {
	return dataset.MNISTOptions()
}

// LoadCSV reads a dataset from a CSV file.
func LoadCSV(path string, opts CSVOptions, cfg Config) (*Dataset, error) {
	return dataset.LoadCSV(path, opts, cfg)
}

// ReadCSV reads a dataset from r.
func ReadCSV(r io.Reader, opts CSVOptions, cfg Config) (*Dataset, error) {
	return dataset.ReadCSV(r, opts, cfg)
}

// IDXOptions controls LoadIDX.
type IDXOptions = dataset.IDXOptions

// LoadIDX reads an image/label file pair in the MNIST IDX layout.
func LoadIDX(imagesPath, labelsPath string, opts IDXOptions, cfg Config) (*Dataset, error) {
	return dataset.LoadIDX(imagesPath, labelsPath, opts, cfg)
}
