package nn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

// fdSettings is the central-difference configuration used by the gradient
// checks.
var fdSettings = &fd.Settings{Formula: fd.Central, Step: 1e-6}

// randVec returns n values from U(lo, hi).
func randVec(rng *rand.Rand, n int, lo, hi float64) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = uniform(rng, lo, hi)
	}
	return v
}

// weighted returns Σ c_i * out_i, a scalar objective whose gradient with
// respect to out is c.
func weighted(c, out []float64) float64 {
	var s float64
	for i := range c {
		s += c[i] * out[i]
	}
	return s
}

// requireClose checks got against want with a tolerance relative to the
// larger magnitude.
func requireClose(t *testing.T, want, got []float64, tol float64, msgAndArgs ...any) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		scale := math.Max(1, math.Max(math.Abs(want[i]), math.Abs(got[i])))
		require.LessOrEqualf(t, math.Abs(want[i]-got[i]), tol*scale,
			"index %d: want %v, got %v %v", i, want[i], got[i], msgAndArgs)
	}
}

// checkGradients compares the analytic input and parameter gradients of l
// at x against central finite differences of Σ c_i * out_i.
func checkGradients(t *testing.T, l Layer, x []float64, seed uint64) {
	t.Helper()

	rng := NewRand(seed)
	probe := l.NewWorkspace()
	c := randVec(rng, len(probe.Forward(x)), -1, 1)

	ws := l.NewWorkspace()
	ws.Reset()
	ws.Forward(x)
	gin := ws.Backward(c)
	require.NotNil(t, gin, "backward returned an empty gradient")

	objective := func(in []float64) float64 {
		return weighted(c, l.NewWorkspace().Forward(in))
	}
	wantIn := fd.Gradient(nil, objective, x, fdSettings)
	requireClose(t, wantIn, gin, 1e-3, "input gradient")

	grads := ws.Grads()
	params := l.Parameters()
	require.Len(t, grads, len(params))
	for k, p := range params {
		saved := append([]float64(nil), p.Data()...)
		f := func(v []float64) float64 {
			copy(p.Data(), v)
			defer copy(p.Data(), saved)
			return objective(x)
		}
		want := fd.Gradient(nil, f, saved, fdSettings)
		requireClose(t, want, grads[k], 1e-3, p.Name())
	}
}
