package nn

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func newActivation(name string, size int) *Activation {
	a := NewActivation(size, name)
	a.Init(size, nil)
	return a
}

func TestActivation_Names(t *testing.T) {
	tests := map[string]string{
		"relu":       ReLU,
		"TANH":       Tanh,
		" sigmoid ":  Sigmoid,
		"softmax":    Softmax,
		"leaky_relu": LeakyReLU,
		"lrelu":      LeakyReLU,
		"leaky-relu": LeakyReLU,
	}
	for in, want := range tests {
		assert.Equal(t, want, NewActivation(3, in).Name(), in)
	}
}

func TestActivation_UnknownFallsBackToReLU(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	a := NewActivation(3, "swish")

	assert.Equal(t, ReLU, a.Name())
	assert.Contains(t, buf.String(), "unknown activation")
	assert.Contains(t, buf.String(), "swish")
	assert.Equal(t, []float64{0, 2}, a.Forward([]float64{-1, 2}))
}

func TestActivation_Forward(t *testing.T) {
	in := []float64{-2, -0.5, 0, 0.5, 2}
	tests := []struct {
		name string
		want func(x float64) float64
	}{
		{ReLU, func(x float64) float64 { return math.Max(0, x) }},
		{LeakyReLU, func(x float64) float64 {
			if x > 0 {
				return x
			}
			return 0.01 * x
		}},
		{Tanh, math.Tanh},
		{Sigmoid, func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := newActivation(tt.name, len(in)).Forward(in)
			require.Len(t, out, len(in))
			for i, x := range in {
				assert.InDelta(t, tt.want(x), out[i], 1e-12)
			}
		})
	}
}

func TestActivation_ClosedFormDerivatives(t *testing.T) {
	ones := []float64{1, 1, 1, 1}
	cfg := dataset.Config{}

	t.Run("relu", func(t *testing.T) {
		a := newActivation(ReLU, 4)
		a.Forward([]float64{3, -3, 0.1, -0.1})
		assert.Equal(t, []float64{1, 0, 1, 0}, a.Backprop(ones, cfg))
	})

	t.Run("leaky_relu", func(t *testing.T) {
		a := newActivation(LeakyReLU, 4)
		a.Forward([]float64{3, -3, 0.1, -0.1})
		assert.InDeltaSlice(t, []float64{1, 0.01, 1, 0.01}, a.Backprop(ones, cfg), 1e-12)
	})

	t.Run("sigmoid", func(t *testing.T) {
		a := newActivation(Sigmoid, 4)
		s := a.Forward([]float64{-1, 0, 0.5, 3})
		d := a.Backprop(ones, cfg)
		for i := range s {
			assert.InDelta(t, s[i]*(1-s[i]), d[i], 1e-12)
		}
	})

	t.Run("tanh", func(t *testing.T) {
		a := newActivation(Tanh, 4)
		y := a.Forward([]float64{-1, 0, 0.5, 3})
		d := a.Backprop(ones, cfg)
		for i := range y {
			assert.InDelta(t, 1-y[i]*y[i], d[i], 1e-12)
		}
	})
}

func TestActivation_Softmax(t *testing.T) {
	a := newActivation(Softmax, 4)

	out := a.Forward([]float64{1000, 1001, 999, -50})
	assert.InDelta(t, 1, floats.Sum(out), 1e-12)
	for _, v := range out {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "softmax must be stable for large inputs")
	}
	assert.Equal(t, 1, floats.MaxIdx(out))

	grad := a.Backprop([]float64{0.3, 0.3, 0.3, 0.3}, dataset.Config{})
	assert.InDelta(t, 0, floats.Sum(grad), 1e-12, "uniform incoming gradient has zero Jacobian product")
}

func TestActivation_ShapeMismatch(t *testing.T) {
	a := newActivation(Tanh, 3)
	a.Forward([]float64{1, 2, 3})
	assert.Nil(t, a.Backprop([]float64{1, 2}, dataset.Config{}))
}

func TestActivation_GradientCheck(t *testing.T) {
	// Inputs stay away from the rectifier kink.
	x := []float64{0.8, -0.4, 1.5, -1.1, 0.2}
	for _, name := range []string{ReLU, LeakyReLU, Tanh, Sigmoid, Softmax} {
		t.Run(name, func(t *testing.T) {
			checkGradients(t, newActivation(name, len(x)), x, 5)
		})
	}
}
