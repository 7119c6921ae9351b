package layer

import (
	"math"
	"testing"

	"github.com/thedunerats/ocr-js-poc-demo/internal/activations"
	"gonum.org/v1/gonum/mat"
)

func newTestDense() Dense {
	// 2 outputs, 3 inputs
	w := mat.NewDense(2, 3, []float64{
		1, 0, -1,
		0.5, 0.5, 0.5,
	})
	b := mat.NewVecDense(2, []float64{0.1, -0.2})
	return NewDense(w, b, activations.Sigmoid{})
}

// TestDenseForward tests forward pass values.
func TestDenseForward(t *testing.T) {
	d := newTestDense()
	x := mat.NewVecDense(3, []float64{1, 2, 3})

	pre, out := d.Forward(x)

	wantPre := []float64{1 - 3 + 0.1, 3 - 0.2}
	for i, want := range wantPre {
		if math.Abs(pre.AtVec(i)-want) > 1e-12 {
			t.Errorf("pre[%d] = %v, want %v", i, pre.AtVec(i), want)
		}
		wantOut := activations.Sigmoid{}.Activate(want)
		if math.Abs(out.AtVec(i)-wantOut) > 1e-12 {
			t.Errorf("out[%d] = %v, want %v", i, out.AtVec(i), wantOut)
		}
	}
}

// TestDenseBackProject tests Wᵀ·delta.
func TestDenseBackProject(t *testing.T) {
	d := newTestDense()
	back := d.BackProject(mat.NewVecDense(2, []float64{1, 2}))

	if back.Len() != 3 {
		t.Fatalf("len = %d, want 3", back.Len())
	}
	want := []float64{2, 1, 0}
	for i := range want {
		if math.Abs(back.AtVec(i)-want[i]) > 1e-12 {
			t.Errorf("back[%d] = %v, want %v", i, back.AtVec(i), want[i])
		}
	}
}

// TestDenseUpdate tests the in-place rank-one update.
func TestDenseUpdate(t *testing.T) {
	d := newTestDense()
	weights := d.Weights
	delta := mat.NewVecDense(2, []float64{1, -1})
	x := mat.NewVecDense(3, []float64{1, 2, 3})

	d.Update(0.1, delta, x)

	if weights != d.Weights {
		t.Fatal("Update replaced the weights matrix")
	}
	if got := d.Weights.At(0, 2); math.Abs(got-(-1+0.3)) > 1e-12 {
		t.Errorf("W[0,2] = %v, want -0.7", got)
	}
	if got := d.Weights.At(1, 1); math.Abs(got-(0.5-0.2)) > 1e-12 {
		t.Errorf("W[1,1] = %v, want 0.3", got)
	}
	if got := d.Bias.AtVec(0); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("b[0] = %v, want 0.2", got)
	}
	if got := d.Bias.AtVec(1); math.Abs(got-(-0.3)) > 1e-12 {
		t.Errorf("b[1] = %v, want -0.3", got)
	}
}

func TestDenseSizes(t *testing.T) {
	d := newTestDense()
	if d.InSize() != 3 || d.OutSize() != 2 {
		t.Errorf("sizes = %d -> %d, want 3 -> 2", d.InSize(), d.OutSize())
	}
}
