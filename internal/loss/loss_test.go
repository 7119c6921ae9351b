// Package loss provides unit tests for loss functions.
package loss

import (
	"math"
	"testing"
)

// TestBCEForward tests BCE forward pass.
func TestBCEForward(t *testing.T) {
	bce := BCELoss{}

	tests := []struct {
		name     string
		yPred    []float64
		yTrue    []float64
		expected float64
	}{
		{"Half confidence", []float64{0.5, 0.5}, []float64{1, 0}, math.Log(2)},
		{"Perfect prediction clipped", []float64{1, 0}, []float64{1, 0}, -math.Log(1 - eps)},
		{"Confident wrong", []float64{0.1}, []float64{1}, -math.Log(0.1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := bce.Forward(tt.yPred, tt.yTrue)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("BCELoss.Forward() = %v, want %v", result, tt.expected)
			}
		})
	}
}

// TestBCEForwardLengthMismatch tests error handling.
func TestBCEForwardLengthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for length mismatch")
		}
	}()

	BCELoss{}.Forward([]float64{1.0, 2.0}, []float64{1.0})
}

// TestBCEBackward tests the gradient sign and scale.
func TestBCEBackward(t *testing.T) {
	grad := BCELoss{}.Backward([]float64{0.75, 0.25}, []float64{1, 0})
	want := []float64{-0.125, 0.125}
	for i := range want {
		if math.Abs(grad[i]-want[i]) > 1e-12 {
			t.Errorf("grad[%d] = %v, want %v", i, grad[i], want[i])
		}
	}
}

func TestOneHot(t *testing.T) {
	v := OneHot(3, 10)
	if len(v) != 10 {
		t.Fatalf("len = %d", len(v))
	}
	for i, x := range v {
		if (i == 3) != (x == 1) {
			t.Errorf("v[%d] = %v", i, x)
		}
	}
}
