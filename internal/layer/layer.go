// Package layer provides the fully connected layer used by the OCR network.
package layer

import (
	"github.com/thedunerats/ocr-js-poc-demo/internal/activations"
	"gonum.org/v1/gonum/mat"
)

// Dense is a fully connected layer over tensors it does not own.
// Weights has shape [out, in] and Bias has length out.
type Dense struct {
	Weights *mat.Dense
	Bias    *mat.VecDense
	Act     activations.Activation
}

// NewDense creates a layer view over the given weights and bias.
func NewDense(weights *mat.Dense, bias *mat.VecDense, act activations.Activation) Dense {
	return Dense{Weights: weights, Bias: bias, Act: act}
}

// Forward computes the pre-activation W·x + b and its activation.
func (d Dense) Forward(x mat.Vector) (pre, out *mat.VecDense) {
	pre = mat.NewVecDense(d.OutSize(), nil)
	pre.MulVec(d.Weights, x)
	pre.AddVec(pre, d.Bias)
	return pre, activations.Activated(d.Act, pre)
}

// BackProject returns Wᵀ·delta, the error seen by this layer's input.
func (d Dense) BackProject(delta mat.Vector) *mat.VecDense {
	back := mat.NewVecDense(d.InSize(), nil)
	back.MulVec(d.Weights.T(), delta)
	return back
}

// Update applies W += rate·delta·inputᵀ and b += rate·delta in place.
func (d Dense) Update(rate float64, delta, input mat.Vector) {
	d.Weights.RankOne(d.Weights, rate, delta, input)
	d.Bias.AddScaledVec(d.Bias, rate, delta)
}

// InSize returns the input size of the layer.
func (d Dense) InSize() int {
	_, c := d.Weights.Dims()
	return c
}

// OutSize returns the output size of the layer.
func (d Dense) OutSize() int {
	r, _ := d.Weights.Dims()
	return r
}
