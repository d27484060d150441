// Package optim implements the parameter update rule used during training.
//
// There is no optimizer state: every step is a plain gradient-descent
// update applied in place to the parameter storage,
//
//	param = param - lr * gradient
//
// optionally preceded by clamping the gradient to [-clip, clip] for
// parameters that request it.
package optim

// Parameter is the view of a trainable parameter that an optimizer needs.
//
// Data returns the live parameter storage; updates are written into it.
// Clip returns the symmetric gradient clamp for this parameter, or 0 when
// the gradient is applied unclamped.
type Parameter interface {
	Name() string
	Data() []float64
	Clip() float64
}

// Optimizer applies one update step to a set of parameters.
type Optimizer interface {
	// Step updates params[i] from grads[i]. Gradients may be clamped in place.
	Step(params []Parameter, grads [][]float64)

	// GetLR returns the current learning rate.
	GetLR() float64
}
