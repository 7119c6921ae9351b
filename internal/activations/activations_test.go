// Package activations provides unit tests for activation functions.
package activations

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// TestSigmoid tests Sigmoid activation.
func TestSigmoid(t *testing.T) {
	sigmoid := Sigmoid{}

	tests := []struct {
		input    float64
		expected float64
	}{
		{-2.0, 1 / (1 + math.Exp(2))},
		{-1.0, 1 / (1 + math.Exp(1))},
		{0.0, 0.5}, // Zero -> 0.5
		{1.0, 1 / (1 + math.Exp(-1))},
		{2.0, 1 / (1 + math.Exp(-2))},
		{-600, math.Exp(-Clip) / (1 + math.Exp(-Clip))}, // clamped
	}

	for _, tt := range tests {
		output := sigmoid.Activate(tt.input)
		if math.Abs(output-tt.expected) > 1e-12 {
			t.Errorf("Sigmoid(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestSigmoidOpenInterval checks the output stays strictly inside (0, 1)
// wherever float64 can represent it.
func TestSigmoidOpenInterval(t *testing.T) {
	sigmoid := Sigmoid{}
	for z := -30.0; z <= 30.0; z += 0.25 {
		s := sigmoid.Activate(z)
		if s <= 0 || s >= 1 {
			t.Errorf("Sigmoid(%v) = %v, want value in (0, 1)", z, s)
		}
	}
}

// TestSigmoidExtremes tests that huge magnitudes neither overflow nor produce NaN.
func TestSigmoidExtremes(t *testing.T) {
	sigmoid := Sigmoid{}
	inputs := []float64{-1e10, -1e300, -501, -500, 500, 501, 1e10, 1e300, -math.MaxFloat64, math.MaxFloat64}

	for _, z := range inputs {
		s := sigmoid.Activate(z)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			t.Fatalf("Sigmoid(%v) = %v", z, s)
		}
		if s < 0 || s > 1 {
			t.Errorf("Sigmoid(%v) = %v, out of [0, 1]", z, s)
		}
		d := sigmoid.Derivative(z)
		if math.IsNaN(d) || d < 0 || d > 0.25 {
			t.Errorf("Sigmoid.Derivative(%v) = %v", z, d)
		}
	}

	if s := sigmoid.Activate(-1e10); s <= 0 {
		t.Errorf("Sigmoid(-1e10) = %v, want positive", s)
	}
}

// TestSigmoidSymmetry tests s(-z) = 1 - s(z).
func TestSigmoidSymmetry(t *testing.T) {
	sigmoid := Sigmoid{}
	for _, z := range []float64{0.1, 0.5, 1, 3, 7.5, 15} {
		if diff := math.Abs(sigmoid.Activate(-z) - (1 - sigmoid.Activate(z))); diff > 1e-12 {
			t.Errorf("asymmetry at %v: %v", z, diff)
		}
	}
}

// TestSigmoidDerivative tests Sigmoid derivative.
func TestSigmoidDerivative(t *testing.T) {
	sigmoid := Sigmoid{}

	// At zero: sigmoid(0) = 0.5, derivative = 0.25
	output := sigmoid.Derivative(0.0)
	if output != 0.25 {
		t.Errorf("Sigmoid.Derivative(0) = %v, want 0.25", output)
	}

	// At large positive: derivative approaches 0
	output = sigmoid.Derivative(10.0)
	if output > 1e-4 {
		t.Errorf("Sigmoid.Derivative(10) = %v, should be near 0", output)
	}

	// At large negative: derivative approaches 0
	output = sigmoid.Derivative(-10.0)
	if output > 1e-4 {
		t.Errorf("Sigmoid.Derivative(-10) = %v, should be near 0", output)
	}
}

func TestApplyVecKeepsShape(t *testing.T) {
	z := mat.NewVecDense(4, []float64{-1, 0, 1, 2})
	out := Activated(Sigmoid{}, z)
	if out.Len() != 4 {
		t.Fatalf("len = %d, want 4", out.Len())
	}
	if out.AtVec(1) != 0.5 {
		t.Errorf("out[1] = %v, want 0.5", out.AtVec(1))
	}
	if z.AtVec(1) != 0 {
		t.Errorf("input mutated: %v", z.AtVec(1))
	}

	d := Derived(Sigmoid{}, z)
	if d.AtVec(1) != 0.25 {
		t.Errorf("d[1] = %v, want 0.25", d.AtVec(1))
	}

	// in place
	ApplyVec(z, z, Sigmoid{}.Activate)
	if z.AtVec(1) != 0.5 {
		t.Errorf("in-place z[1] = %v, want 0.5", z.AtVec(1))
	}
}
