// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"log/slog"
	"math/rand/v2"

	"github.com/born-ml/ffnet/internal/nn"
	"github.com/born-ml/ffnet/internal/parallel"
)

// Layer is a single stage of a Network.
type Layer = nn.Layer

// Workspace holds the per-call state of one layer during training.
type Workspace = nn.Workspace

// Parameter is a named trainable array owned by a layer.
type Parameter = nn.Parameter

// NewParameter creates a parameter over data. The product of shape must
// equal len(data).
func NewParameter(name string, shape []int, data []float64) *Parameter {
	return nn.NewParameter(name, shape, data)
}

// NewRand returns the deterministic generator used for initialization.
func NewRand(seed uint64) *rand.Rand {
	return nn.NewRand(seed)
}

// SetLogger replaces the logger used for engine diagnostics.
func SetLogger(l *slog.Logger) {
	nn.SetLogger(l)
}

// Layers

// Linear is a fully connected affine layer.
type Linear = nn.Linear

// NewLinear creates a linear layer with size outputs.
//
// Example:
//
//	layer := nn.NewLinear(128)
func NewLinear(size int) *Linear {
	return nn.NewLinear(size)
}

// Activation applies a named non-linearity.
type Activation = nn.Activation

// Activation names.
const (
	ReLU      = nn.ReLU
	LeakyReLU = nn.LeakyReLU
	Tanh      = nn.Tanh
	Sigmoid   = nn.Sigmoid
	Softmax   = nn.Softmax
)

// NewActivation creates an activation layer. Unknown names fall back to
// ReLU with a warning.
func NewActivation(size int, name string) *Activation {
	return nn.NewActivation(size, name)
}

// Dense is a Linear layer followed by an Activation.
type Dense = nn.Dense

// NewDense creates a dense layer.
//
// Example:
//
//	hidden := nn.NewDense(10, nn.Tanh)
func NewDense(size int, activation string) *Dense {
	return nn.NewDense(size, activation)
}

// Normalization standardizes its input and then applies a Linear layer.
type Normalization = nn.Normalization

// NewNormalization creates a normalization layer.
func NewNormalization(size int) *Normalization {
	return nn.NewNormalization(size)
}

// Gating scales each feature x by (sqrt|x| * sigmoid(x))^alpha with a
// learned exponent alpha per feature.
type Gating = nn.Gating

// NewGating creates a gating layer. Its input width must equal size.
func NewGating(size int) *Gating {
	return nn.NewGating(size)
}

// Losses

// Loss pairs a loss function with its gradient.
type Loss = nn.Loss

// Loss names.
const (
	MSE = nn.MSE
	BCE = nn.BCE
)

// MSELoss returns the mean squared error loss.
func MSELoss() Loss {
	return nn.MSELoss()
}

// BCELoss returns the binary cross-entropy loss.
func BCELoss() Loss {
	return nn.BCELoss()
}

// LossByName resolves a loss name. Unknown names resolve to MSE.
func LossByName(name string) Loss {
	return nn.LossByName(name)
}

// Network

// Network is an ordered stack of layers with a loss.
type Network = nn.Network

// Option configures a Network.
type Option = nn.Option

// Checkpoint carries training state saved alongside the weights.
type Checkpoint = nn.Checkpoint

// Errors returned by Network.
var (
	ErrNotBuilt         = nn.ErrNotBuilt
	ErrAlreadyBuilt     = nn.ErrAlreadyBuilt
	ErrEmptyNetwork     = nn.ErrEmptyNetwork
	ErrShapeMismatch    = nn.ErrShapeMismatch
	ErrMissingParameter = nn.ErrMissingParameter
)

// NewNetwork creates an empty network. Layers are added with Add and
// initialized by Build.
func NewNetwork(opts ...Option) *Network {
	return nn.NewNetwork(opts...)
}

// NewSequential creates and builds a network in one call.
func NewSequential(loss string, seed uint64, layers ...Layer) (*Network, error) {
	return nn.NewSequential(loss, seed, layers...)
}

// WithLoss selects the loss by name.
func WithLoss(name string) Option {
	return nn.WithLoss(name)
}

// WithSeed seeds the initialization generator.
func WithSeed(seed uint64) Option {
	return nn.WithSeed(seed)
}

// WithRand supplies the initialization generator directly.
func WithRand(rng *rand.Rand) Option {
	return nn.WithRand(rng)
}

// WithWorkers bounds the goroutines used by PredictBatch. Zero selects
// GOMAXPROCS.
func WithWorkers(n int) Option {
	cfg := parallel.DefaultConfig()
	cfg.NumWorkers = n
	return nn.WithParallel(cfg)
}
