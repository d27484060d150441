// Package vecmath provides the numeric primitives shared by the layers:
// dense affine maps over a weight matrix, outer-product accumulation and
// the scalar guards used by the unstable nonlinearities.
//
// Vectors are plain []float64 slices. Matrices are *mat.Dense with one row per
// output unit, so a layer with `size` outputs and `prevSize` inputs stores a
// size x prevSize matrix.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Affine computes W·x + b for every output unit.
//
// W has shape [len(b), len(x)]. A matrix with zero rows yields an empty
// result; a matrix with zero columns yields a copy of b.
func Affine(w *mat.Dense, x, b []float64) []float64 {
	out := make([]float64, len(b))
	if len(b) == 0 {
		return out
	}
	if len(x) == 0 {
		copy(out, b)
		return out
	}

	dst := mat.NewVecDense(len(out), out)
	dst.MulVec(w, mat.NewVecDense(len(x), x))
	floats.Add(out, b)
	return out
}

// TransposeMulVec computes Wᵀ·g, the gradient with respect to the input of
// an affine map whose output gradient is g.
func TransposeMulVec(w *mat.Dense, g []float64) []float64 {
	_, c := w.Dims()
	out := make([]float64, c)
	if c == 0 || len(g) == 0 {
		return out
	}

	dst := mat.NewVecDense(c, out)
	dst.MulVec(w.T(), mat.NewVecDense(len(g), g))
	return out
}

// AddOuter accumulates the outer product g ⊗ x into dst (dst += g·xᵀ).
func AddOuter(dst *mat.Dense, g, x []float64) {
	if len(g) == 0 || len(x) == 0 {
		return
	}
	dst.RankOne(dst, 1, mat.NewVecDense(len(g), g), mat.NewVecDense(len(x), x))
}

// Argmax returns the index of the largest element, or -1 for an empty slice.
// Ties resolve to the lowest index.
func Argmax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	return floats.MaxIdx(v)
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// ClampSlice clamps every element of v to [-limit, limit] in place.
func ClampSlice(v []float64, limit float64) {
	for i, x := range v {
		v[i] = Clamp(x, -limit, limit)
	}
}

// Finite returns x, or 0 when x is NaN or ±Inf.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Clone returns a copy of v. A nil input yields nil.
func Clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
