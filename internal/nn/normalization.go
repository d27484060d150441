package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/ffnet/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// normEps is added to the variance before taking the square root.
const normEps = 1e-8

// Normalization standardizes each example over its own components and
// feeds the result through an internal Linear layer:
//
//	x̂ = (x - mean(x)) / sqrt(var(x) + ε)
//	y = W·x̂ + b
//
// Statistics are recomputed on every Forward from the single input vector;
// the variance uses the n-1 denominator. A one-component input has zero
// variance by definition and standardizes to 0.
//
// Backprop returns the exact gradient of x̂, s·(g − mean(g) − x̂·Σ(x̂g)/(n−1))
// with s = 1/sqrt(var+ε), rather than the approximation that scales the
// last term by the raw deviations (x − mean).
type Normalization struct {
	size        int
	prevSize    int
	initialized bool
	linear      *Linear

	ws *normWorkspace
}

// NewNormalization creates a normalization layer with size outputs.
func NewNormalization(size int) *Normalization {
	return &Normalization{size: size, linear: NewLinear(size)}
}

// Init sizes the internal Linear layer for an input of width prevSize.
func (n *Normalization) Init(prevSize int, rng *rand.Rand) {
	if n.initialized {
		return
	}
	n.initialized = true
	n.prevSize = prevSize
	n.linear.Init(prevSize, rng)
	n.ws = nil
}

// Size returns the number of output units.
func (n *Normalization) Size() int {
	return n.size
}

// PrevSize returns the input width fixed by Init.
func (n *Normalization) PrevSize() int {
	return n.prevSize
}

// Linear returns the internal affine layer.
func (n *Normalization) Linear() *Linear {
	return n.linear
}

// Parameters returns the internal layer's weight and bias.
func (n *Normalization) Parameters() []*Parameter {
	return n.linear.Parameters()
}

// Forward standardizes in and applies the internal affine map.
func (n *Normalization) Forward(in []float64) []float64 {
	return n.workspace().Forward(in)
}

// Backprop updates the internal layer and returns the gradient with respect
// to the unnormalized input.
func (n *Normalization) Backprop(grad []float64, cfg dataset.Config) []float64 {
	return backpropStep(n.workspace(), n.Parameters(), grad, cfg)
}

// NewWorkspace returns an independent forward cache and gradient
// accumulator.
func (n *Normalization) NewWorkspace() Workspace {
	return &normWorkspace{linear: n.linear.newWorkspace()}
}

func (n *Normalization) String() string {
	return fmt.Sprintf("Normalization(%d)", n.size)
}

func (n *Normalization) outputWidth(in int) (int, bool) {
	return n.linear.outputWidth(in)
}

func (n *Normalization) workspace() *normWorkspace {
	if n.ws == nil {
		n.ws = n.NewWorkspace().(*normWorkspace)
	}
	return n.ws
}

// standardize returns x̂ and 1/sqrt(var+ε) for a single vector.
func standardize(x []float64) ([]float64, float64) {
	if len(x) == 0 {
		return nil, 0
	}

	var mean, variance float64
	if len(x) == 1 {
		mean = x[0]
	} else {
		mean, variance = stat.MeanVariance(x, nil)
	}

	invStd := 1 / math.Sqrt(variance+normEps)
	xhat := make([]float64, len(x))
	for i, v := range x {
		xhat[i] = (v - mean) * invStd
	}
	return xhat, invStd
}

type normWorkspace struct {
	linear *linearWorkspace
	xhat   []float64
	invStd float64
}

func (ws *normWorkspace) Forward(in []float64) []float64 {
	ws.xhat, ws.invStd = standardize(in)
	if ws.xhat == nil {
		ws.xhat = []float64{}
	}
	return ws.linear.Forward(ws.xhat)
}

func (ws *normWorkspace) Backward(grad []float64) []float64 {
	gnorm := ws.linear.Backward(grad)
	if gnorm == nil || len(gnorm) != len(ws.xhat) {
		return nil
	}

	n := len(gnorm)
	in := make([]float64, n)
	if n < 2 {
		// A single component is always standardized to 0.
		return in
	}

	// grad_in = s * (g - mean(g) - x̂ * Σ(x̂·g)/(n-1))
	meanG := floats.Sum(gnorm) / float64(n)
	proj := floats.Dot(ws.xhat, gnorm) / float64(n-1)
	for i, g := range gnorm {
		in[i] = ws.invStd * (g - meanG - ws.xhat[i]*proj)
	}
	return in
}

func (ws *normWorkspace) Grads() [][]float64 {
	return ws.linear.Grads()
}

func (ws *normWorkspace) Reset() {
	ws.linear.Reset()
}
