package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameter(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	p := NewParameter("weight", []int{2, 3}, data)

	assert.Equal(t, "weight", p.Name())
	assert.Equal(t, 6, p.Len())
	assert.Zero(t, p.Clip())

	shape := p.Shape()
	shape[0] = 99
	assert.Equal(t, []int{2, 3}, p.Shape(), "Shape returns a copy")

	p.Data()[0] = -1
	assert.Equal(t, -1.0, data[0], "Data is the live storage")
}

func TestNewParameter_ShapeMismatch(t *testing.T) {
	assert.Panics(t, func() { NewParameter("bias", []int{4}, make([]float64, 3)) })
}

func TestApplyStep(t *testing.T) {
	w := NewParameter("w", []int{3}, []float64{1, 1, 1})
	a := NewParameter("alpha", []int{2}, []float64{0, 0})
	a.clip = 5

	applyStep([]*Parameter{w, a}, [][]float64{{1, -2, 0}, {100, -1}}, 0.5)

	assert.Equal(t, []float64{0.5, 2, 1}, w.Data())
	assert.Equal(t, []float64{-2.5, 0.5}, a.Data())
}

func TestApplyStep_ZeroLearningRate(t *testing.T) {
	w := NewParameter("w", []int{2}, []float64{1, 2})
	applyStep([]*Parameter{w}, [][]float64{{5, 5}}, 0)
	assert.Equal(t, []float64{1, 2}, w.Data())
}
