// Package sweep trains networks of varying hidden width and ranks them by
// held-out accuracy.
package sweep

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/thedunerats/ocr-js-poc-demo/internal/net"
)

const (
	// TrialRuns is the number of prediction passes averaged by EvaluateAccuracy.
	TrialRuns = 10
	// DefaultEpochs is the total number of epochs per candidate, including the
	// one run when the network is constructed.
	DefaultEpochs = 3
)

// ErrInvalidRange is returned for a sweep range that cannot be stepped through.
var ErrInvalidRange = errors.New("invalid hidden node range")

// Predictor labels a 400-pixel image.
type Predictor interface {
	Predict(pixels []float64) (int, error)
}

// Result is the accuracy of one hidden width.
type Result struct {
	HiddenNodes int     `json:"hiddenNodes"`
	Accuracy    float64 `json:"accuracy"`
}

// Config describes a sweep over [MinNodes, MaxNodes) in steps of Step.
type Config struct {
	MinNodes int
	MaxNodes int
	Step     int
	// Epochs per candidate; 0 means DefaultEpochs.
	Epochs int
	// Rand seeds every candidate's initial weights. Nil means time-seeded.
	Rand *rand.Rand
	// Logger receives one line per candidate. Nil is silent.
	Logger *log.Logger
	// Callbacks observe the epochs trained after construction.
	Callbacks []net.Callback
}

// EvaluateAccuracy returns the fraction of test rows p labels correctly,
// averaged over TrialRuns passes. An empty test set scores 0.
func EvaluateAccuracy(data *net.Dataset, test []int, p Predictor) (float64, error) {
	if len(test) == 0 {
		return 0, nil
	}

	var total float64
	for run := 0; run < TrialRuns; run++ {
		correct := 0
		for _, idx := range test {
			if idx < 0 || idx >= data.Len() {
				return 0, fmt.Errorf("evaluate: index %d out of range [0, %d)", idx, data.Len())
			}
			label, err := p.Predict(data.Row(idx))
			if err != nil {
				return 0, fmt.Errorf("evaluate: row %d: %w", idx, err)
			}
			if label == data.Labels[idx] {
				correct++
			}
		}
		total += float64(correct) / float64(len(test))
	}
	return total / TrialRuns, nil
}

// Run trains a fresh in-memory network for every width in the range on the
// train rows, scores it on the test rows and returns the results by
// descending accuracy. Equal accuracies keep ascending width order.
func Run(data *net.Dataset, train, test []int, cfg Config) ([]Result, error) {
	if cfg.Step < 1 || cfg.MinNodes < 1 {
		return nil, fmt.Errorf("%w: min %d, max %d, step %d", ErrInvalidRange, cfg.MinNodes, cfg.MaxNodes, cfg.Step)
	}
	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = DefaultEpochs
	}
	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var results []Result
	for hidden := cfg.MinNodes; hidden < cfg.MaxNodes; hidden += cfg.Step {
		start := time.Now()
		n, err := net.New(net.Options{HiddenNodes: hidden, Rand: rnd}, data, train)
		if err != nil {
			return nil, fmt.Errorf("hidden %d: %w", hidden, err)
		}
		if err := n.Fit(data, train, 2, epochs-1, cfg.Callbacks...); err != nil {
			return nil, fmt.Errorf("hidden %d: %w", hidden, err)
		}
		acc, err := EvaluateAccuracy(data, test, n)
		if err != nil {
			return nil, fmt.Errorf("hidden %d: %w", hidden, err)
		}
		if cfg.Logger != nil {
			cfg.Logger.Printf("hidden=%d accuracy=%.4f (%v)", hidden, acc, time.Since(start).Round(time.Millisecond))
		}
		results = append(results, Result{HiddenNodes: hidden, Accuracy: acc})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Accuracy > results[j].Accuracy
	})
	return results, nil
}

// Best returns the first (most accurate) result.
func Best(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	return results[0], true
}

// WriteCSV writes the results with a hidden_nodes,accuracy header.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"hidden_nodes", "accuracy"}); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{strconv.Itoa(r.HiddenNodes), strconv.FormatFloat(r.Accuracy, 'f', 4, 64)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
