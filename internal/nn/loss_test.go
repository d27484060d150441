package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/diff/fd"
)

func TestLossByName(t *testing.T) {
	tests := map[string]string{
		"mse":                  MSE,
		"bce":                  BCE,
		"binary-cross-entropy": BCE,
		"BCE":                  BCE,
		"cce":                  MSE,
		"":                     MSE,
		"hinge":                MSE,
	}
	for name, want := range tests {
		assert.Equal(t, want, LossByName(name).Name, name)
	}
}

func TestMSELoss(t *testing.T) {
	l := MSELoss()
	pred, target := []float64{1, 2, 3}, []float64{1, 0, 6}

	assert.InDelta(t, (0+4+9)/3.0, l.Fn(pred, target), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 4.0 / 3, -2}, l.Grad(pred, target), 1e-12)
}

func TestBCELoss(t *testing.T) {
	l := BCELoss()
	pred, target := []float64{0.9, 0.2}, []float64{1, 0}

	want := (-math.Log(0.9) - math.Log(0.8)) / 2
	assert.InDelta(t, want, l.Fn(pred, target), 1e-12)

	grad := l.Grad(pred, target)
	assert.InDelta(t, (0.9-1)/(0.9*0.1)/2, grad[0], 1e-12)
	assert.InDelta(t, 0.2/(0.2*0.8)/2, grad[1], 1e-12)
}

func TestBCELoss_ClampsPredictions(t *testing.T) {
	l := BCELoss()
	loss := l.Fn([]float64{0, 1}, []float64{1, 0})
	assert.False(t, math.IsInf(loss, 0) || math.IsNaN(loss))
	assert.InDelta(t, -math.Log(bceEps), loss, 1e-6)

	for _, g := range l.Grad([]float64{0, 1}, []float64{1, 0}) {
		assert.False(t, math.IsInf(g, 0) || math.IsNaN(g))
	}
}

func TestLoss_Empty(t *testing.T) {
	for _, l := range []Loss{MSELoss(), BCELoss()} {
		assert.Zero(t, l.Fn(nil, nil), l.Name)
		assert.Empty(t, l.Grad(nil, nil), l.Name)
	}
}

func TestLoss_GradientCheck(t *testing.T) {
	target := []float64{1, 0, 1, 0}
	pred := []float64{0.7, 0.3, 0.2, 0.9}
	for _, l := range []Loss{MSELoss(), BCELoss()} {
		t.Run(l.Name, func(t *testing.T) {
			f := func(p []float64) float64 { return l.Fn(p, target) }
			want := fd.Gradient(nil, f, pred, fdSettings)
			requireClose(t, want, l.Grad(pred, target), 1e-5)
		})
	}
}
