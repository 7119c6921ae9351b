package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/thedunerats/ocr-js-poc-demo/internal/net"
	"github.com/thedunerats/ocr-js-poc-demo/internal/sweep"
)

// Hidden layer width sweep over a CSV dataset.
func main() {
	dataset := flag.String("dataset", "", "CSV dataset (label followed by 400 pixels per row)")
	minNodes := flag.Int("min", 5, "Smallest hidden width")
	maxNodes := flag.Int("max", 50, "Largest hidden width (exclusive)")
	step := flag.Int("step", 5, "Width increment")
	epochs := flag.Int("epochs", sweep.DefaultEpochs, "Epochs per width")
	split := flag.Float64("split", 0.8, "Fraction of rows used for training")
	seed := flag.Int64("seed", 0, "PRNG seed (0 uses the clock)")
	out := flag.String("out", "", "Write the ranking as CSV to this file")
	epochLog := flag.String("epoch-log", "", "Write per-epoch loss as CSV to this file")

	flag.Parse()

	if *dataset == "" {
		log.Fatalf("-dataset is required")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rnd := rand.New(rand.NewSource(*seed))

	data, err := net.LoadCSV(*dataset)
	if err != nil {
		log.Fatalf("load dataset: %v", err)
	}
	train, test := data.Split(*split, rnd)
	fmt.Printf("Dataset: %d samples (%d train, %d test)\n", data.Len(), len(train), len(test))
	fmt.Printf("Hidden nodes %d to %d, step %d, %d epochs each\n\n", *minNodes, *maxNodes, *step, *epochs)

	cfg := sweep.Config{
		MinNodes: *minNodes,
		MaxNodes: *maxNodes,
		Step:     *step,
		Epochs:   *epochs,
		Rand:     rnd,
		Logger:   log.New(os.Stderr, "", log.LstdFlags),
	}

	results, err := runSweep(data, train, test, cfg, *epochLog)
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}

	fmt.Printf("%-12s %s\n", "Hidden", "Accuracy")
	for _, r := range results {
		fmt.Printf("%-12d %.2f%%\n", r.HiddenNodes, r.Accuracy*100)
	}
	if best, ok := sweep.Best(results); ok {
		fmt.Printf("\nBest: %d hidden nodes (%.2f%%)\n", best.HiddenNodes, best.Accuracy*100)
	}

	if *out != "" {
		if err := writeResults(*out, results); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
	}
}

// runSweep runs the sweep, logging per-epoch loss to epochLog when set.
func runSweep(data *net.Dataset, train, test []int, cfg sweep.Config, epochLog string) ([]sweep.Result, error) {
	if epochLog == "" {
		return sweep.Run(data, train, test, cfg)
	}

	f, err := os.Create(epochLog)
	if err != nil {
		return nil, fmt.Errorf("create epoch log: %w", err)
	}
	csvLog := net.NewCSVLogger(f)
	cfg.Callbacks = append(cfg.Callbacks, csvLog)

	results, err := sweep.Run(data, train, test, cfg)
	if err := errors.Join(csvLog.Err(), f.Close()); err != nil {
		log.Printf("epoch log %s: %v", epochLog, err)
	}
	return results, err
}

func writeResults(path string, results []sweep.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sweep.WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
