// Package activations provides the logistic activation used by the OCR network.
package activations

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// Clip bounds the pre-activation before exponentiation. e^500 is still
// finite in float64, so no input magnitude can overflow.
const Clip = 500.0

// Sigmoid activation function.
type Sigmoid struct{}

// sigmoid computes 1/(1+e^-x), branching on sign so the exponent is never positive.
func sigmoid(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return x
	case x > Clip:
		x = Clip
	case x < -Clip:
		x = -Clip
	}
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

// ApplyVec writes f(z[i]) into dst. dst may alias z.
func ApplyVec(dst, z *mat.VecDense, f func(float64) float64) {
	n := z.Len()
	if dst.Len() != n {
		panic("activations: vector length mismatch")
	}
	for i := 0; i < n; i++ {
		dst.SetVec(i, f(z.AtVec(i)))
	}
}

// Activated returns a new vector holding act(z).
func Activated(act Activation, z *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(z.Len(), nil)
	ApplyVec(out, z, act.Activate)
	return out
}

// Derived returns a new vector holding act'(z).
func Derived(act Activation, z *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(z.Len(), nil)
	ApplyVec(out, z, act.Derivative)
	return out
}
