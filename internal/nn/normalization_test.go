package nn

import (
	"testing"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func TestStandardize(t *testing.T) {
	inputs := [][]float64{
		{1, 2, 3, 4},
		{-10, 0.5, 7, 7, 100},
		{0.001, 0.002},
	}
	for _, x := range inputs {
		xhat, invStd := standardize(x)
		require.Len(t, xhat, len(x))
		assert.Positive(t, invStd)

		// var(x̂) = v/(v+ε) for the raw sample variance v.
		_, v := stat.MeanVariance(x, nil)
		mean, variance := stat.MeanVariance(xhat, nil)
		assert.InDelta(t, 0, mean, 1e-9)
		assert.InDelta(t, v/(v+normEps), variance, 1e-9)
	}
}

func TestStandardize_SingleComponent(t *testing.T) {
	xhat, _ := standardize([]float64{42})
	assert.Equal(t, []float64{0}, xhat)
}

func TestStandardize_Constant(t *testing.T) {
	xhat, _ := standardize([]float64{3, 3, 3})
	assert.Equal(t, []float64{0, 0, 0}, xhat)
}

func TestNormalization_Forward(t *testing.T) {
	n := NewNormalization(2)
	n.Init(4, NewRand(1))

	// Identity-like internal layer exposes the standardized vector.
	w := n.Linear().Weight().Data()
	for i := range w {
		w[i] = 0
	}
	w[0], w[4+1] = 1, 1
	copy(n.Linear().Bias().Data(), []float64{0, 0})

	x := []float64{2, 4, 6, 8}
	xhat, _ := standardize(x)
	out := n.Forward(x)

	require.Len(t, out, n.Size())
	assert.InDeltaSlice(t, xhat[:2], out, 1e-12)
}

func TestNormalization_OutputIndependentOfScale(t *testing.T) {
	n := NewNormalization(3)
	n.Init(4, NewRand(2))

	a := n.Forward([]float64{1, 2, 3, 5})
	b := n.Forward([]float64{10, 20, 30, 50})
	assert.InDeltaSlice(t, a, b, 1e-6)
}

func TestNormalization_Parameters(t *testing.T) {
	n := NewNormalization(3)
	n.Init(5, NewRand(3))

	params := n.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, []int{3, 5}, params[0].Shape())
}

func TestNormalization_SingleComponentBackprop(t *testing.T) {
	n := NewNormalization(2)
	n.Init(1, NewRand(4))
	n.Forward([]float64{5})

	grad := n.Backprop([]float64{1, -1}, dataset.Config{LearningRate: 0.1})
	assert.Equal(t, []float64{0}, grad)
}

func TestNormalization_ShapeMismatch(t *testing.T) {
	n := NewNormalization(2)
	n.Init(3, NewRand(5))
	n.Forward([]float64{1, 2, 3})
	assert.Nil(t, n.Backprop([]float64{1}, dataset.Config{LearningRate: 0.1}))
}

func TestNormalization_GradientCheck(t *testing.T) {
	n := NewNormalization(3)
	n.Init(5, NewRand(6))
	checkGradients(t, n, []float64{0.5, -1.2, 2.0, 0.1, -0.3}, 13)
}
