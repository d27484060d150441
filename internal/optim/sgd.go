package optim

import (
	"fmt"

	"github.com/born-ml/ffnet/internal/vecmath"
	"gonum.org/v1/gonum/floats"
)

// SGD implements plain stochastic gradient descent.
//
// Update rule:
//
//	param = param - lr * clamp(gradient, -clip, clip)
//
// Example:
//
//	sgd := optim.NewSGD(optim.SGDConfig{LR: 0.01})
//	sgd.Step(layer.Parameters(), workspace.Grads())
type SGD struct {
	lr float64
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR float64 // Learning rate (default: 0.01)
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR}
}

// Step performs a single descent step.
//
// params and grads must be aligned; a nil gradient skips its parameter.
// Panics if a gradient and its parameter differ in length.
func (s *SGD) Step(params []Parameter, grads [][]float64) {
	for i, p := range params {
		if i >= len(grads) || grads[i] == nil {
			continue
		}
		data, grad := p.Data(), grads[i]
		if len(data) != len(grad) {
			panic(fmt.Sprintf("SGD.Step: gradient for %q has %d values, parameter has %d", p.Name(), len(grad), len(data)))
		}
		if c := p.Clip(); c > 0 {
			vecmath.ClampSlice(grad, c)
		}
		floats.AddScaled(data, -s.lr, grad)
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
