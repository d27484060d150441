// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"testing"

	"github.com/born-ml/ffnet/nn"
	"github.com/born-ml/ffnet/optim"
	"github.com/stretchr/testify/assert"
)

func TestSGD_StepOnLayerParameters(t *testing.T) {
	layer := nn.NewLinear(2)
	layer.Init(3, nn.NewRand(1))

	params := layer.Parameters()
	before := append([]float64(nil), params[0].Data()...)

	grads := make([][]float64, len(params))
	grads[0] = make([]float64, params[0].Len())
	for i := range grads[0] {
		grads[0][i] = 1
	}

	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.5})
	views := make([]optim.Parameter, len(params))
	for i, p := range params {
		views[i] = p
	}
	sgd.Step(views, grads)

	for i, v := range params[0].Data() {
		assert.InDelta(t, before[i]-0.5, v, 1e-12)
	}
	assert.Equal(t, 0.5, sgd.GetLR())
}

func TestNewSGD_DefaultLR(t *testing.T) {
	assert.Equal(t, 0.01, optim.NewSGD(optim.SGDConfig{}).GetLR())
}
