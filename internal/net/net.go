// Package net provides the OCR network: a 400-H-10 sigmoid perceptron
// trained by online backpropagation.
package net

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/thedunerats/ocr-js-poc-demo/internal/activations"
	"github.com/thedunerats/ocr-js-poc-demo/internal/layer"
	"github.com/thedunerats/ocr-js-poc-demo/internal/loss"
	"github.com/thedunerats/ocr-js-poc-demo/internal/weights"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// InputSize is the number of pixels per sample (20x20).
	InputSize = weights.InputSize
	// Classes is the number of digit labels.
	Classes = weights.OutputSize
	// LearningRate is the fixed step size of every update.
	LearningRate = 0.1
)

// Sample is one labelled training image. A nil field was absent from the input.
type Sample struct {
	Pixels []float64 `json:"y0"`
	Label  *int      `json:"label"`
}

// Options configure New.
type Options struct {
	HiddenNodes int
	// Store holds the tensors. Nil means an in-memory store.
	Store *weights.Store
	// Rand seeds the initial weights. Nil means a time-seeded source.
	Rand *rand.Rand
	// Fresh skips loading an existing record; the network is trained and
	// saved over it, rotating the old record into a backup.
	Fresh bool
	// MaxBackups applies to the save made during construction.
	MaxBackups int
}

// Network is a single hidden layer classifier over a weight store.
type Network struct {
	store *weights.Store
	act   activations.Activation
	loss  loss.Loss
	rate  float64
}

// New initialises a network. The tensors are always randomised first; then
// an existing record is loaded, or, when there is none (or persistence is
// off, or opts.Fresh is set), one epoch is trained over indices and saved.
// A malformed record is reported as a *weights.LoadError.
func New(opts Options, data *Dataset, indices []int) (*Network, error) {
	if opts.HiddenNodes <= 0 {
		return nil, fmt.Errorf("hidden nodes must be > 0 (got %d)", opts.HiddenNodes)
	}
	store := opts.Store
	if store == nil {
		store = weights.NewMemoryStore()
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = weights.DefaultMaxBackups
	}

	n := &Network{
		store: store,
		act:   activations.Sigmoid{},
		loss:  loss.BCELoss{},
		rate:  LearningRate,
	}
	store.Randomize(opts.HiddenNodes, rnd)

	if store.Enabled() && !opts.Fresh && store.Exists() {
		if err := store.Load(); err != nil {
			return nil, err
		}
		return n, nil
	}

	if _, err := n.TrainEpoch(data, indices); err != nil {
		return nil, err
	}
	if err := n.Save(maxBackups); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Network) hidden() layer.Dense {
	return layer.NewDense(n.store.Theta1, n.store.B1, n.act)
}

func (n *Network) output() layer.Dense {
	return layer.NewDense(n.store.Theta2, n.store.B2, n.act)
}

// HiddenNodes returns the hidden layer width.
func (n *Network) HiddenNodes() int {
	return n.store.HiddenNodes()
}

// Store returns the weight store backing the network.
func (n *Network) Store() *weights.Store {
	return n.store
}

// forward returns the hidden pre-activation, hidden activation and output.
func (n *Network) forward(x mat.Vector) (hiddenPre, hiddenAct, out *mat.VecDense) {
	hiddenPre, hiddenAct = n.hidden().Forward(x)
	_, out = n.output().Forward(hiddenAct)
	return hiddenPre, hiddenAct, out
}

// step performs one online backpropagation update for x labelled label and
// returns the loss of the output computed before the update.
func (n *Network) step(x mat.Vector, label int) float64 {
	hidden, output := n.hidden(), n.output()
	hiddenPre, hiddenAct, out := n.forward(x)

	target := loss.OneHot(label, Classes)
	pred := out.RawVector().Data

	// Backward is (out - target)/n; the update moves along target - out.
	outErr := mat.NewVecDense(Classes, n.loss.Backward(pred, target))
	outErr.ScaleVec(-Classes, outErr)

	hiddenErr := output.BackProject(outErr)
	hiddenErr.MulElemVec(hiddenErr, activations.Derived(n.act, hiddenPre))

	hidden.Update(n.rate, hiddenErr, x)
	output.Update(n.rate, outErr, hiddenAct)

	return n.loss.Forward(pred, target)
}

// TrainEpoch runs one online pass over the given rows of data, in order, and
// returns the mean loss. Samples are assumed valid; see Train for checked input.
func (n *Network) TrainEpoch(data *Dataset, indices []int) (float64, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	if data == nil {
		return 0, errors.New("train epoch: no dataset")
	}
	losses := make([]float64, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= data.Len() {
			return 0, fmt.Errorf("train epoch: index %d out of range [0, %d)", idx, data.Len())
		}
		losses = append(losses, n.step(data.row(idx), data.Labels[idx]))
	}
	return floats.Sum(losses) / float64(len(losses)), nil
}

// Train validates and learns each sample in order. Validation is per sample:
// an invalid sample aborts the batch, but updates from the samples before it
// are kept.
func (n *Network) Train(samples []Sample) error {
	if len(samples) == 0 {
		return ErrEmptyInput
	}
	for i, s := range samples {
		if err := validateSample(i, s); err != nil {
			return err
		}
		n.step(mat.NewVecDense(InputSize, s.Pixels), *s.Label)
	}
	return nil
}

func validateSample(i int, s Sample) error {
	if s.Pixels == nil {
		return MissingField(i, "y0")
	}
	if s.Label == nil {
		return MissingField(i, "label")
	}
	if len(s.Pixels) != InputSize {
		return ShapeError(i, "y0", len(s.Pixels))
	}
	if *s.Label < 0 || *s.Label >= Classes {
		return RangeError(i, *s.Label)
	}
	return checkPixels(i, "y0", s.Pixels)
}

func checkPixels(sample int, field string, pixels []float64) error {
	for j, v := range pixels {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TypeError(sample, field, j, v)
		}
	}
	return nil
}

// Predict returns the most activated output class for pixels. Ties go to the
// lowest label. The network is not modified.
func (n *Network) Predict(pixels []float64) (int, error) {
	if len(pixels) != InputSize {
		return 0, ShapeError(-1, "image", len(pixels))
	}
	if err := checkPixels(-1, "image", pixels); err != nil {
		return 0, err
	}
	return floats.MaxIdx(n.Outputs(pixels)), nil
}

// Outputs returns the ten output activations for an already validated input.
func (n *Network) Outputs(pixels []float64) []float64 {
	_, _, out := n.forward(mat.NewVecDense(InputSize, pixels))
	return out.RawVector().Data
}

// Save persists the tensors, keeping at most maxBackups older records.
func (n *Network) Save(maxBackups int) error {
	return n.store.Save(maxBackups)
}

// Load replaces the tensors with the persisted record.
func (n *Network) Load() error {
	return n.store.Load()
}

// ListBackups returns the available backups, newest first.
func (n *Network) ListBackups() []weights.Backup {
	return n.store.ListBackups()
}

// RestoreFromBackup restores the index-th newest backup (0 = most recent).
func (n *Network) RestoreFromBackup(index int) (bool, error) {
	return n.store.RestoreFromBackup(index)
}
