// Package nn implements the feed-forward training engine.
//
// This package provides:
//   - Layer: the capability contract every layer kind implements
//   - Workspace: per-caller forward cache and gradient accumulators
//   - Parameter: named, in-place mutable parameter storage
//   - Layers: Linear, Activation, Normalization, Gating, Dense
//   - Losses: mean-squared-error, binary cross-entropy
//   - Network: ordered layer sequence, training and inference
//
// The layer set is closed: Layer carries an unexported method, so only the
// kinds defined here satisfy it.
package nn

import (
	"math/rand/v2"

	"github.com/born-ml/ffnet/internal/dataset"
)

// Layer is the capability contract shared by every layer kind.
//
// Layers are built in topology order: Init receives the output width of the
// previous layer (0 for the first layer) and the random source used for
// parameter initialization. Init is idempotent; only the first call
// allocates, later calls are ignored.
//
// Forward and Backprop operate on a workspace owned by the layer itself and
// are therefore not safe for concurrent use. Concurrent callers create their
// own workspaces with NewWorkspace.
type Layer interface {
	// Size returns the output width of the layer.
	Size() int

	// PrevSize returns the expected input width, 0 until Init.
	PrevSize() int

	// Init allocates parameters for an input of width prevSize.
	Init(prevSize int, rng *rand.Rand)

	// Forward computes the output for in and caches what Backprop needs.
	Forward(in []float64) []float64

	// Backprop computes parameter gradients for the most recent Forward,
	// applies param -= cfg.LearningRate * grad and returns the gradient with
	// respect to the input. A nil result means the gradient did not match
	// the cached forward pass; callers stop propagating.
	Backprop(grad []float64, cfg dataset.Config) []float64

	// Parameters returns the trainable parameters, nil if there are none.
	Parameters() []*Parameter

	// NewWorkspace returns an independent forward cache and gradient
	// accumulator for this layer. Call it after Init.
	NewWorkspace() Workspace

	// String describes the layer kind and width, e.g. "Dense(10, tanh)".
	String() string

	// outputWidth reports the output width for an input of width in, or
	// false if the layer cannot accept that width.
	outputWidth(in int) (int, bool)
}

// Workspace holds the per-caller state of one layer.
//
// Forward reads parameters without modifying them. Backward accumulates
// parameter gradients into the workspace and returns the input gradient;
// it never touches the parameters. Distinct workspaces of the same layer
// may be used from different goroutines as long as nobody updates the
// parameters at the same time.
type Workspace interface {
	// Forward computes the layer output and caches the values the backward
	// pass needs.
	Forward(in []float64) []float64

	// Backward adds the parameter gradients for grad to the accumulators
	// and returns the input gradient, or nil on a shape mismatch.
	Backward(grad []float64) []float64

	// Grads returns the live gradient accumulators, aligned with the
	// layer's Parameters().
	Grads() [][]float64

	// Reset zeroes the gradient accumulators.
	Reset()
}

// backpropStep runs one backward pass on ws and applies the resulting
// gradient-descent step to params.
func backpropStep(ws Workspace, params []*Parameter, grad []float64, cfg dataset.Config) []float64 {
	ws.Reset()
	in := ws.Backward(grad)
	if in == nil {
		return nil
	}
	applyStep(params, ws.Grads(), cfg.LearningRate)
	return in
}
