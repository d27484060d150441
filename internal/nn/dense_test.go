package nn

import (
	"testing"

	"github.com/born-ml/ffnet/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDense_Composition(t *testing.T) {
	d := NewDense(3, Tanh)
	d.Init(2, NewRand(1))

	x := []float64{0.4, -0.9}
	want := d.Activation().NewWorkspace().Forward(d.Linear().NewWorkspace().Forward(x))
	assert.InDeltaSlice(t, want, d.Forward(x), 1e-15)

	assert.Equal(t, 2, d.Linear().PrevSize())
	assert.Equal(t, 3, d.Activation().PrevSize())
	assert.Equal(t, "Dense(3, tanh)", d.String())
}

func TestDense_PlaceholderFirstLayer(t *testing.T) {
	d := NewDense(2, ReLU)
	d.Init(0, NewRand(1))

	assert.Nil(t, d.Parameters())
	assert.Equal(t, []float64{0, 1}, d.Forward([]float64{0, 1}))
	assert.Equal(t, []float64{0, 0.5}, d.Backprop([]float64{0.3, 0.5}, dataset.Config{LearningRate: 1}))
}

func TestDense_BackpropUpdatesLinear(t *testing.T) {
	d := NewDense(2, Sigmoid)
	d.Init(3, NewRand(2))
	before := append([]float64(nil), d.Linear().Weight().Data()...)

	d.Forward([]float64{1, 2, 3})
	grad := d.Backprop([]float64{1, -1}, dataset.Config{LearningRate: 0.5})

	require.Len(t, grad, 3)
	assert.NotEqual(t, before, d.Linear().Weight().Data())
}

func TestDense_ShapeMismatch(t *testing.T) {
	d := NewDense(2, Sigmoid)
	d.Init(3, NewRand(2))
	d.Forward([]float64{1, 2, 3})
	assert.Nil(t, d.Backprop([]float64{1, 2, 3}, dataset.Config{LearningRate: 0.5}))
}

func TestDense_GradientCheck(t *testing.T) {
	for _, name := range []string{Tanh, Sigmoid, Softmax} {
		t.Run(name, func(t *testing.T) {
			d := NewDense(4, name)
			d.Init(3, NewRand(8))
			checkGradients(t, d, []float64{0.25, -0.5, 0.75}, 19)
		})
	}
}
