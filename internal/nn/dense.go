package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/ffnet/internal/dataset"
)

// Dense is a Linear layer followed by an Activation of the same width.
//
// It owns no parameters of its own; Parameters returns the Linear layer's.
//
// Example:
//
//	hidden := nn.NewDense(10, nn.Tanh)
type Dense struct {
	size        int
	prevSize    int
	initialized bool
	linear      *Linear
	act         *Activation

	ws *denseWorkspace
}

// NewDense creates a Dense layer with size outputs and the named
// activation.
func NewDense(size int, activation string) *Dense {
	return &Dense{
		size:   size,
		linear: NewLinear(size),
		act:    NewActivation(size, activation),
	}
}

// Init initializes the Linear layer for prevSize inputs and the Activation
// for the Linear layer's output.
func (d *Dense) Init(prevSize int, rng *rand.Rand) {
	if d.initialized {
		return
	}
	d.initialized = true
	d.prevSize = prevSize
	d.linear.Init(prevSize, rng)
	d.act.Init(d.linear.Size(), rng)
	d.ws = nil
}

// Size returns the number of output units.
func (d *Dense) Size() int {
	return d.size
}

// PrevSize returns the input width fixed by Init.
func (d *Dense) PrevSize() int {
	return d.prevSize
}

// Linear returns the affine sublayer.
func (d *Dense) Linear() *Linear {
	return d.linear
}

// Activation returns the nonlinearity sublayer.
func (d *Dense) Activation() *Activation {
	return d.act
}

// Parameters returns the Linear layer's weight and bias.
func (d *Dense) Parameters() []*Parameter {
	return d.linear.Parameters()
}

// Forward computes activation(W·x + b).
func (d *Dense) Forward(in []float64) []float64 {
	return d.workspace().Forward(in)
}

// Backprop propagates grad through the activation then the Linear layer,
// updating the Linear parameters.
func (d *Dense) Backprop(grad []float64, cfg dataset.Config) []float64 {
	return backpropStep(d.workspace(), d.Parameters(), grad, cfg)
}

// NewWorkspace returns an independent forward cache and gradient
// accumulator.
func (d *Dense) NewWorkspace() Workspace {
	return &denseWorkspace{
		linear: d.linear.newWorkspace(),
		act:    d.act.NewWorkspace(),
	}
}

func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%d, %s)", d.size, d.act.Name())
}

func (d *Dense) outputWidth(in int) (int, bool) {
	w, ok := d.linear.outputWidth(in)
	if !ok {
		return 0, false
	}
	return d.act.outputWidth(w)
}

func (d *Dense) workspace() *denseWorkspace {
	if d.ws == nil {
		d.ws = d.NewWorkspace().(*denseWorkspace)
	}
	return d.ws
}

type denseWorkspace struct {
	linear *linearWorkspace
	act    Workspace
}

func (ws *denseWorkspace) Forward(in []float64) []float64 {
	return ws.act.Forward(ws.linear.Forward(in))
}

func (ws *denseWorkspace) Backward(grad []float64) []float64 {
	g := ws.act.Backward(grad)
	if g == nil {
		return nil
	}
	return ws.linear.Backward(g)
}

func (ws *denseWorkspace) Grads() [][]float64 {
	return ws.linear.Grads()
}

func (ws *denseWorkspace) Reset() {
	ws.linear.Reset()
}
