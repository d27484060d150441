package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/vecmath"
	"gonum.org/v1/gonum/floats"
)

// Activation function names accepted by NewActivation.
const (
	ReLU      = "relu"
	Tanh      = "tanh"
	Sigmoid   = "sigmoid"
	Softmax   = "softmax"
	LeakyReLU = "leaky_relu"
)

// leakySlope is the negative-side slope of leaky_relu.
const leakySlope = 0.01

type activationKind int

const (
	kindReLU activationKind = iota
	kindTanh
	kindSigmoid
	kindSoftmax
	kindLeakyReLU
)

var activationNames = map[string]activationKind{
	ReLU:         kindReLU,
	Tanh:         kindTanh,
	Sigmoid:      kindSigmoid,
	Softmax:      kindSoftmax,
	LeakyReLU:    kindLeakyReLU,
	"lrelu":      kindLeakyReLU,
	"leaky-relu": kindLeakyReLU,
}

var activationLabels = [...]string{
	kindReLU:      ReLU,
	kindTanh:      Tanh,
	kindSigmoid:   Sigmoid,
	kindSoftmax:   Softmax,
	kindLeakyReLU: LeakyReLU,
}

// Activation applies a named nonlinearity and has no parameters.
//
// relu, tanh, sigmoid and leaky_relu are applied element-wise. softmax
// normalizes the whole vector:
//
//	softmax(x)_i = exp(x_i - max(x)) / Σ_j exp(x_j - max(x))
//
// An unrecognized name is logged and replaced by relu.
//
// Example:
//
//	act := nn.NewActivation(10, nn.Tanh)
//	out := act.Forward(x) // tanh applied to every component
type Activation struct {
	size        int
	prevSize    int
	initialized bool
	kind        activationKind

	ws *activationWorkspace
}

// NewActivation creates an activation layer of width size.
func NewActivation(size int, name string) *Activation {
	kind, ok := activationNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		logger().Warn("unknown activation, defaulting to relu", "name", name)
		kind = kindReLU
	}
	return &Activation{size: size, kind: kind}
}

// Init records the input width. Activations have nothing to allocate.
func (a *Activation) Init(prevSize int, _ *rand.Rand) {
	if a.initialized {
		return
	}
	a.initialized = true
	a.prevSize = prevSize
}

// Size returns the number of output units.
func (a *Activation) Size() int {
	return a.size
}

// PrevSize returns the input width fixed by Init.
func (a *Activation) PrevSize() int {
	return a.prevSize
}

// Name returns the canonical activation name.
func (a *Activation) Name() string {
	return activationLabels[a.kind]
}

// Parameters returns nil.
func (a *Activation) Parameters() []*Parameter {
	return nil
}

// Forward applies the activation to in.
func (a *Activation) Forward(in []float64) []float64 {
	return a.workspace().Forward(in)
}

// Backprop returns the gradient with respect to the most recent input.
func (a *Activation) Backprop(grad []float64, cfg dataset.Config) []float64 {
	return backpropStep(a.workspace(), nil, grad, cfg)
}

// NewWorkspace returns an independent forward cache.
func (a *Activation) NewWorkspace() Workspace {
	return &activationWorkspace{a: a}
}

func (a *Activation) String() string {
	return fmt.Sprintf("Activation(%d, %s)", a.size, a.Name())
}

func (a *Activation) outputWidth(in int) (int, bool) {
	return in, true
}

func (a *Activation) workspace() *activationWorkspace {
	if a.ws == nil {
		a.ws = &activationWorkspace{a: a}
	}
	return a.ws
}

// usesInput reports whether the derivative is computed from the
// pre-activation value rather than the output.
func (k activationKind) usesInput() bool {
	return k == kindReLU || k == kindLeakyReLU
}

type activationWorkspace struct {
	a     *Activation
	cache []float64 // input for relu/leaky_relu, output otherwise
}

func (ws *activationWorkspace) Forward(in []float64) []float64 {
	kind := ws.a.kind
	out := make([]float64, len(in))

	switch kind {
	case kindReLU:
		for i, x := range in {
			out[i] = math.Max(0, x)
		}
	case kindLeakyReLU:
		for i, x := range in {
			if x > 0 {
				out[i] = x
			} else {
				out[i] = leakySlope * x
			}
		}
	case kindTanh:
		for i, x := range in {
			out[i] = math.Tanh(x)
		}
	case kindSigmoid:
		for i, x := range in {
			out[i] = sigmoid(x)
		}
	case kindSoftmax:
		softmaxInto(out, in)
	}

	if kind.usesInput() {
		ws.cache = append(ws.cache[:0], in...)
	} else {
		ws.cache = append(ws.cache[:0], out...)
	}
	return out
}

func (ws *activationWorkspace) Backward(grad []float64) []float64 {
	if len(grad) != len(ws.cache) {
		return nil
	}

	c := ws.cache
	in := make([]float64, len(grad))
	switch ws.a.kind {
	case kindReLU:
		for i, g := range grad {
			if c[i] > 0 {
				in[i] = g
			}
		}
	case kindLeakyReLU:
		for i, g := range grad {
			if c[i] > 0 {
				in[i] = g
			} else {
				in[i] = leakySlope * g
			}
		}
	case kindTanh:
		for i, g := range grad {
			in[i] = g * (1 - c[i]*c[i])
		}
	case kindSigmoid:
		for i, g := range grad {
			in[i] = g * c[i] * (1 - c[i])
		}
	case kindSoftmax:
		// grad_in[i] = y_i * (g_i - Σ_j y_j g_j)
		dot := floats.Dot(c, grad)
		for i, g := range grad {
			in[i] = c[i] * (g - dot)
		}
	}
	return in
}

func (ws *activationWorkspace) Grads() [][]float64 {
	return nil
}

func (ws *activationWorkspace) Reset() {}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// softmaxInto writes softmax(in) to out after subtracting max(in).
func softmaxInto(out, in []float64) {
	if len(in) == 0 {
		return
	}
	m := floats.Max(in)
	for i, x := range in {
		out[i] = math.Exp(x - m)
	}
	floats.Scale(1/floats.Sum(out), out)
	for i := range out {
		out[i] = vecmath.Finite(out[i])
	}
}
