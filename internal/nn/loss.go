package nn

import (
	"math"
	"strings"

	"github.com/born-ml/ffnet/internal/vecmath"
)

// Loss names accepted by LossByName.
const (
	MSE = "mse"
	BCE = "bce"
)

// bceEps bounds predictions away from 0 and 1 before taking logarithms.
const bceEps = 1e-7

// Loss is a named scalar loss and its gradient with respect to the
// prediction.
//
// Both functions expect pred and target of equal length and return 0 (or an
// empty gradient) for empty vectors.
type Loss struct {
	Name string
	Fn   func(pred, target []float64) float64
	Grad func(pred, target []float64) []float64
}

// MSELoss returns mean-squared-error.
//
//	loss = mean((pred - target)²)
//	grad = (2/n) * (pred - target)
func MSELoss() Loss {
	return Loss{Name: MSE, Fn: mseLoss, Grad: mseGrad}
}

// BCELoss returns binary cross-entropy with predictions clamped to
// [1e-7, 1-1e-7].
//
//	loss = mean(-t*log(p) - (1-t)*log(1-p))
//	grad = (1/n) * (p - t) / (p * (1 - p))
func BCELoss() Loss {
	return Loss{Name: BCE, Fn: bceLoss, Grad: bceGrad}
}

// LossByName selects a loss by name. Unrecognized names, including "cce",
// resolve to mean-squared-error.
func LossByName(name string) Loss {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case BCE, "binary-cross-entropy", "binary_cross_entropy":
		return BCELoss()
	default:
		return MSELoss()
	}
}

func mseLoss(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i, p := range pred {
		d := p - target[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

func mseGrad(pred, target []float64) []float64 {
	n := float64(len(pred))
	grad := make([]float64, len(pred))
	for i, p := range pred {
		grad[i] = 2 / n * (p - target[i])
	}
	return grad
}

func bceLoss(pred, target []float64) float64 {
	if len(pred) == 0 {
		return 0
	}
	var sum float64
	for i, p := range pred {
		p = vecmath.Clamp(p, bceEps, 1-bceEps)
		t := target[i]
		sum += -t*math.Log(p) - (1-t)*math.Log(1-p)
	}
	return sum / float64(len(pred))
}

func bceGrad(pred, target []float64) []float64 {
	n := float64(len(pred))
	grad := make([]float64, len(pred))
	for i, p := range pred {
		p = vecmath.Clamp(p, bceEps, 1-bceEps)
		grad[i] = (p - target[i]) / (p * (1 - p)) / n
	}
	return grad
}
