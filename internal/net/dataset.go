package net

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a matrix of samples, one 400-pixel row each, with their labels.
type Dataset struct {
	X      *mat.Dense
	Labels []int
}

// NewDataset copies rows into a dataset, checking every row and label.
func NewDataset(rows [][]float64, labels []int) (*Dataset, error) {
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("dataset: %d rows but %d labels", len(rows), len(labels))
	}
	if len(rows) == 0 {
		return nil, errors.New("dataset: no rows")
	}

	data := make([]float64, 0, len(rows)*InputSize)
	for i, row := range rows {
		label := labels[i]
		if err := validateSample(i, Sample{Pixels: row, Label: &label}); err != nil {
			return nil, fmt.Errorf("dataset: %w", err)
		}
		data = append(data, row...)
	}
	return &Dataset{
		X:      mat.NewDense(len(rows), InputSize, data),
		Labels: append([]int(nil), labels...),
	}, nil
}

// Placeholder returns n (> 0) blank images labelled 0, 1, ..., 9, 0, 1, ...
func Placeholder(n int) *Dataset {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % Classes
	}
	return &Dataset{
		X:      mat.NewDense(n, InputSize, nil),
		Labels: labels,
	}
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Row returns a copy of the pixels of sample i.
func (d *Dataset) Row(i int) []float64 {
	return mat.Row(nil, i, d.X)
}

func (d *Dataset) row(i int) mat.Vector {
	return d.X.RowView(i)
}

// Indices returns 0..Len()-1.
func (d *Dataset) Indices() []int {
	idx := make([]int, d.Len())
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Split shuffles the sample indices with rnd and splits them by ratio (0.0 to
// 1.0) into train and test sets. A nil rnd keeps the original order.
func (d *Dataset) Split(ratio float64, rnd *rand.Rand) (train, test []int) {
	idx := d.Indices()
	if rnd != nil {
		rnd.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}
	switch {
	case ratio <= 0:
		return nil, idx
	case ratio >= 1:
		return idx, nil
	}
	cut := int(float64(len(idx)) * ratio)
	return idx[:cut], idx[cut:]
}

// LoadCSV loads a dataset from a CSV file. Each row holds the label followed
// by 400 pixel values. A first row whose label column is not an integer is
// treated as a header.
func LoadCSV(filename string) (*Dataset, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads the format described by LoadCSV.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = InputSize + 1
	reader.ReuseRecord = true

	var (
		rows   [][]float64
		labels []int
	)
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: label: %w", line, err)
		}

		row := make([]float64, InputSize)
		for j, field := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, col %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
		labels = append(labels, label)
	}

	if len(rows) == 0 {
		return nil, errors.New("csv file has no data rows")
	}
	return NewDataset(rows, labels)
}
