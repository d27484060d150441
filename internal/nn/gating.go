package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/born-ml/ffnet/internal/vecmath"
)

const (
	gateClamp     = 20.0 // input clamp before the gate is evaluated
	gateFloor     = 1e-6 // lower bound for |x| under the root and for the inner term
	gateAlphaClip = 5.0  // symmetric clamp on the alpha gradient
)

// Gating multiplies each unit by a learned, input-dependent factor:
//
//	x' = clamp(x, -20, 20)
//	inner = max(sqrt(max(|x'|, 1e-6)) / (1 + exp(-x')), 1e-6)
//	y = x' * inner^alpha
//
// alpha holds one learnable exponent per unit, initialized from
// U(-0.5, 0.5). Non-finite outputs and derivatives are replaced with 0.
type Gating struct {
	size        int
	prevSize    int
	initialized bool
	alpha       *Parameter

	ws *gatingWorkspace
}

// NewGating creates a gating layer with size units.
func NewGating(size int) *Gating {
	return &Gating{size: size}
}

// Init allocates alpha. The gate is element-wise, so the input width must
// equal size.
func (g *Gating) Init(prevSize int, rng *rand.Rand) {
	if g.initialized {
		return
	}
	g.initialized = true
	g.prevSize = prevSize
	g.ws = nil

	rng = orRand(rng)
	alpha := make([]float64, g.size)
	for i := range alpha {
		alpha[i] = uniform(rng, -0.5, 0.5)
	}
	g.alpha = NewParameter("alpha", []int{g.size}, alpha)
	g.alpha.clip = gateAlphaClip
}

// Size returns the number of units.
func (g *Gating) Size() int {
	return g.size
}

// PrevSize returns the input width fixed by Init.
func (g *Gating) PrevSize() int {
	return g.prevSize
}

// Alpha returns the per-unit exponent parameter.
func (g *Gating) Alpha() *Parameter {
	return g.alpha
}

// Parameters returns [alpha].
func (g *Gating) Parameters() []*Parameter {
	if g.alpha == nil {
		return nil
	}
	return []*Parameter{g.alpha}
}

// Forward gates every unit of in.
func (g *Gating) Forward(in []float64) []float64 {
	return g.workspace().Forward(in)
}

// Backprop updates alpha and returns the gradient with respect to the input.
func (g *Gating) Backprop(grad []float64, cfg dataset.Config) []float64 {
	return backpropStep(g.workspace(), g.Parameters(), grad, cfg)
}

// NewWorkspace returns an independent forward cache and gradient
// accumulator.
func (g *Gating) NewWorkspace() Workspace {
	return &gatingWorkspace{g: g, galpha: make([]float64, g.size)}
}

func (g *Gating) String() string {
	return fmt.Sprintf("Gating(%d)", g.size)
}

func (g *Gating) outputWidth(in int) (int, bool) {
	return g.size, in == g.size
}

func (g *Gating) workspace() *gatingWorkspace {
	if g.ws == nil {
		g.ws = g.NewWorkspace().(*gatingWorkspace)
	}
	return g.ws
}

// gate holds the stabilized quantities for one unit.
type gate struct {
	x        float64 // clamped input
	clamped  bool    // x was outside [-20, 20]
	inner    float64
	floored  bool // inner hit the lower bound
	pow      float64
	logInner float64
}

func evalGate(x, alpha float64) gate {
	var s gate
	s.x = vecmath.Clamp(x, -gateClamp, gateClamp)
	s.clamped = s.x != x

	root := math.Sqrt(math.Max(math.Abs(s.x), gateFloor))
	s.inner = root / (1 + math.Exp(-s.x))
	if s.inner < gateFloor {
		s.inner = gateFloor
		s.floored = true
	}
	s.logInner = math.Log(s.inner)
	s.pow = math.Exp(alpha * s.logInner)
	return s
}

// output returns x * inner^alpha, or 0 if not finite.
func (s gate) output() float64 {
	return vecmath.Finite(s.x * s.pow)
}

// partials returns d(output)/dx and d(output)/dalpha.
func (s gate) partials(alpha float64) (dx, dalpha float64) {
	dalpha = vecmath.Finite(s.x * s.pow * s.logInner)
	if s.clamped {
		return 0, dalpha
	}

	// d log(inner)/dx = 0.5/x + e^{-x}/(1+e^{-x}) away from the floors.
	var dlog float64
	if !s.floored {
		if math.Abs(s.x) >= gateFloor {
			dlog = 0.5 / s.x
		}
		e := math.Exp(-s.x)
		dlog += e / (1 + e)
	}
	dx = vecmath.Finite(s.pow * (1 + alpha*s.x*dlog))
	return dx, dalpha
}

type gatingWorkspace struct {
	g      *Gating
	input  []float64
	galpha []float64
}

func (ws *gatingWorkspace) Forward(in []float64) []float64 {
	g := ws.g
	if len(in) != g.size {
		panic(fmt.Sprintf("Gating.Forward: expected input with %d features, got %d", g.size, len(in)))
	}

	ws.input = append(ws.input[:0], in...)
	alpha := g.alpha.data
	out := make([]float64, g.size)
	for i, x := range in {
		out[i] = evalGate(x, alpha[i]).output()
	}
	return out
}

func (ws *gatingWorkspace) Backward(grad []float64) []float64 {
	g := ws.g
	if len(grad) != g.size || len(ws.input) != g.size {
		return nil
	}

	alpha := g.alpha.data
	in := make([]float64, g.size)
	for i, x := range ws.input {
		dx, da := evalGate(x, alpha[i]).partials(alpha[i])
		in[i] = grad[i] * dx
		ws.galpha[i] += grad[i] * da
	}
	return in
}

func (ws *gatingWorkspace) Grads() [][]float64 {
	return [][]float64{ws.galpha}
}

func (ws *gatingWorkspace) Reset() {
	for i := range ws.galpha {
		ws.galpha[i] = 0
	}
}
