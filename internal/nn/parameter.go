package nn

import (
	"github.com/born-ml/ffnet/internal/optim"
)

// Parameter represents a trainable parameter of a layer.
//
// The storage returned by Data is the live parameter: gradient-descent steps
// write into it in place. Gradients are not stored here; they live in
// workspaces and only exist for the duration of a training step.
//
// Example:
//
//	w := layer.Weight()
//	fmt.Println(w.Name(), w.Shape()) // weight [10 2]
//	w.Data()[0] = 0.5
type Parameter struct {
	name  string    // Parameter name (e.g., "weight", "bias", "alpha")
	shape []int     // Logical shape; Data is row-major
	data  []float64 // Parameter values
	clip  float64   // Symmetric gradient clamp applied before each step, 0 for none
}

// NewParameter creates a new parameter over data.
//
// Panics if the product of shape does not equal len(data).
func NewParameter(name string, shape []int, data []float64) *Parameter {
	n := 1
	for _, d := range shape {
		n *= d
	}
	if n != len(data) {
		panic("NewParameter: shape does not match data length")
	}
	return &Parameter{name: name, shape: append([]int(nil), shape...), data: data}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Shape returns a copy of the parameter shape.
func (p *Parameter) Shape() []int {
	return append([]int(nil), p.shape...)
}

// Data returns the live parameter values.
func (p *Parameter) Data() []float64 {
	return p.data
}

// Len returns the number of values.
func (p *Parameter) Len() int {
	return len(p.data)
}

// Clip returns the gradient clamp, 0 when unclamped.
func (p *Parameter) Clip() float64 {
	return p.clip
}

// applyStep performs param -= lr * grad for aligned params and grads.
// A zero learning rate leaves parameters untouched.
func applyStep(params []*Parameter, grads [][]float64, lr float64) {
	if lr == 0 || len(params) == 0 {
		return
	}
	targets := make([]optim.Parameter, len(params))
	for i, p := range params {
		targets[i] = p
	}
	optim.NewSGD(optim.SGDConfig{LR: lr}).Step(targets, grads)
}
