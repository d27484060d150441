package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/vecmath"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Linear implements a dense affine layer.
//
// Performs the transformation: y = W·x + b
// where:
//   - x is the input vector with length prevSize
//   - W is the weight matrix with shape [size, prevSize]
//   - b is the bias vector with length size
//
// Weights and biases are drawn from U(-1, 1) on the first Init. A Linear
// layer initialized with prevSize 0 is a structural placeholder: it has no
// parameters, Forward is the identity and Backprop returns the gradient
// unchanged.
//
// Example:
//
//	layer := nn.NewLinear(128)
//	layer.Init(784, nn.NewRand(1))
//	out := layer.Forward(image) // len(out) == 128
type Linear struct {
	size        int
	prevSize    int
	initialized bool

	weight *Parameter // [size, prevSize]
	bias   *Parameter // [size]
	w      *mat.Dense // view over weight.data

	ws *linearWorkspace
}

// NewLinear creates a Linear layer with size outputs. Parameters are
// allocated by Init.
func NewLinear(size int) *Linear {
	return &Linear{size: size}
}

// Init allocates W and b for an input of width prevSize.
//
// Only the first call allocates; later calls leave the layer unchanged.
func (l *Linear) Init(prevSize int, rng *rand.Rand) {
	if l.initialized {
		return
	}
	l.initialized = true
	l.prevSize = prevSize
	l.ws = nil

	if prevSize == 0 || l.size == 0 {
		return
	}

	rng = orRand(rng)
	weights := make([]float64, l.size*prevSize)
	biases := make([]float64, l.size)
	for i := 0; i < l.size; i++ {
		row := weights[i*prevSize : (i+1)*prevSize]
		for j := range row {
			row[j] = uniform(rng, -1, 1)
		}
		biases[i] = uniform(rng, -1, 1)
	}

	l.weight = NewParameter("weight", []int{l.size, prevSize}, weights)
	l.bias = NewParameter("bias", []int{l.size}, biases)
	l.w = mat.NewDense(l.size, prevSize, weights)
}

// Size returns the number of output units.
func (l *Linear) Size() int {
	return l.size
}

// PrevSize returns the input width fixed by Init.
func (l *Linear) PrevSize() int {
	return l.prevSize
}

// Weight returns the weight parameter, nil for a placeholder layer.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter, nil for a placeholder layer.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// Parameters returns [weight, bias], or nil for a placeholder layer.
func (l *Linear) Parameters() []*Parameter {
	if l.weight == nil {
		return nil
	}
	return []*Parameter{l.weight, l.bias}
}

// Forward computes W·x + b and caches x.
func (l *Linear) Forward(in []float64) []float64 {
	return l.workspace().Forward(in)
}

// Backprop applies one descent step for grad and returns Wᵀ·grad, computed
// with the weights used by the forward pass.
func (l *Linear) Backprop(grad []float64, cfg dataset.Config) []float64 {
	return backpropStep(l.workspace(), l.Parameters(), grad, cfg)
}

// NewWorkspace returns an independent forward cache and gradient
// accumulator.
func (l *Linear) NewWorkspace() Workspace {
	return l.newWorkspace()
}

func (l *Linear) String() string {
	return fmt.Sprintf("Linear(%d)", l.size)
}

func (l *Linear) outputWidth(in int) (int, bool) {
	if l.prevSize == 0 {
		return in, true
	}
	return l.size, in == l.prevSize
}

func (l *Linear) workspace() *linearWorkspace {
	if l.ws == nil {
		l.ws = l.newWorkspace()
	}
	return l.ws
}

func (l *Linear) newWorkspace() *linearWorkspace {
	ws := &linearWorkspace{l: l}
	if l.weight != nil {
		ws.gw = mat.NewDense(l.size, l.prevSize, nil)
		ws.gb = make([]float64, l.size)
	}
	return ws
}

type linearWorkspace struct {
	l     *Linear
	input []float64  // last forward input
	gw    *mat.Dense // accumulated weight gradient [size, prevSize]
	gb    []float64  // accumulated bias gradient [size]
}

func (ws *linearWorkspace) Forward(in []float64) []float64 {
	l := ws.l
	if l.prevSize == 0 {
		return vecmath.Clone(in)
	}
	if len(in) != l.prevSize {
		panic(fmt.Sprintf("Linear.Forward: expected input with %d features, got %d", l.prevSize, len(in)))
	}
	if l.weight == nil {
		// Zero outputs.
		return []float64{}
	}

	ws.input = append(ws.input[:0], in...)
	return vecmath.Affine(l.w, in, l.bias.data)
}

func (ws *linearWorkspace) Backward(grad []float64) []float64 {
	l := ws.l
	if l.weight == nil {
		if l.prevSize == 0 {
			return vecmath.Clone(grad)
		}
		if len(grad) != 0 {
			return nil
		}
		return make([]float64, l.prevSize)
	}
	if len(grad) != l.size || len(ws.input) != l.prevSize {
		return nil
	}

	// dL/db = grad, dL/dW = grad ⊗ x, dL/dx = Wᵀ·grad.
	floats.Add(ws.gb, grad)
	vecmath.AddOuter(ws.gw, grad, ws.input)
	return vecmath.TransposeMulVec(l.w, grad)
}

func (ws *linearWorkspace) Grads() [][]float64 {
	if ws.gw == nil {
		return nil
	}
	return [][]float64{ws.gw.RawMatrix().Data, ws.gb}
}

func (ws *linearWorkspace) Reset() {
	if ws.gw == nil {
		return
	}
	ws.gw.Zero()
	for i := range ws.gb {
		ws.gb[i] = 0
	}
}
