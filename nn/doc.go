// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the feed-forward network engine: layers, losses,
// training and checkpointing.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Activation, Dense, Normalization, Gating
//   - Losses: MSE, BCE
//   - Network: two-phase build, sharded backpropagation, evaluation
//   - Persistence: Save, Load, SaveCheckpoint, LoadCheckpoint
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/ffnet/dataset"
//	    "github.com/born-ml/ffnet/nn"
//	)
//
//	func main() {
//	    net, err := nn.NewSequential(nn.BCE, 42,
//	        nn.NewDense(2, nn.ReLU),
//	        nn.NewDense(10, nn.Tanh),
//	        nn.NewDense(1, nn.Sigmoid),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    xor := dataset.XOR(dataset.Config{LearningRate: 0.01, Batches: 1, BatchSize: 1})
//	    for epoch := 0; epoch < 10000; epoch++ {
//	        loss, err := net.Backprop(xor)
//	        ...
//	    }
//	}
//
// # Layers
//
// Every layer is created with its output width and learns its input width
// when the network is built. A first layer whose input width is unknown
// becomes a placeholder that passes values through.
//
//	nn.NewLinear(64)                 // affine map
//	nn.NewActivation(64, nn.Tanh)    // element-wise, or softmax
//	nn.NewDense(64, nn.ReLU)         // Linear followed by Activation
//	nn.NewNormalization(64)          // standardize, then Linear
//	nn.NewGating(64)                 // per-feature learned power gate
//
// # Training
//
// Network.Backprop runs one epoch. Examples are consumed in windows of
// BatchSize (the whole dataset when zero); each window is split across
// Batches workers whose gradients are summed before a single SGD step.
//
// # Serialization
//
// Networks are saved in the .born v2 format: a fixed header with a
// SHA-256 checksum, a JSON header and 64-byte aligned float64 tensors.
//
//	err := net.Save("model.born")
//	err = other.Load("model.born") // topology must match
package nn
