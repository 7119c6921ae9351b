// Package loss provides the loss reported while training the OCR network.
package loss

import "math"

// Loss is a loss function with derivative.
type Loss interface {
	// Forward computes the loss between predicted and true values.
	Forward(yPred, yTrue []float64) float64

	// Backward computes the gradient of the loss w.r.t. prediction.
	Backward(yPred, yTrue []float64) []float64
}

const eps = 1e-10

// BCELoss (Binary Cross Entropy) loss.
// Requires predictions to be in range (0, 1).
type BCELoss struct{}

// Forward computes binary cross entropy: -(1/n) * sum(y*log(p) + (1-y)*log(1-p))
func (b BCELoss) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCELoss: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		pred := clip(yPred[i])
		sum += yTrue[i]*math.Log(pred) + (1.0-yTrue[i])*math.Log(1.0-pred)
	}
	return -sum / float64(n)
}

// Backward computes the gradient of BCE with respect to the sigmoid
// pre-activation, which simplifies to (pred - y) / n. The network applies
// the negated, unscaled form of this as its output error.
func (b BCELoss) Backward(yPred, yTrue []float64) []float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCELoss: prediction and target must have same length")
	}

	grad := make([]float64, n)
	for i := 0; i < n; i++ {
		grad[i] = (yPred[i] - yTrue[i]) / float64(n)
	}
	return grad
}

func clip(p float64) float64 {
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}

// OneHot returns a vector of length size with a 1 at idx.
func OneHot(idx, size int) []float64 {
	result := make([]float64, size)
	result[idx] = 1.0
	return result
}
