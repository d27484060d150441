// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the gradient descent optimizer used by the
// network engine.
package optim

import "github.com/born-ml/ffnet/internal/optim"

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// Parameter is the view of a trainable parameter an optimizer updates.
type Parameter = optim.Parameter

// SGD represents plain stochastic gradient descent with per-parameter
// gradient clipping.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//	sgd.Step(params, grads)
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}
