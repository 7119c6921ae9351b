package weights

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Record is the persisted form of the four tensors.
type Record struct {
	Theta1 [][]float64 `json:"theta1"`
	Theta2 [][]float64 `json:"theta2"`
	B1     BiasVector  `json:"b1"`
	B2     BiasVector  `json:"b2"`
}

// BiasVector is a flat list of reals. It also decodes the column form
// [[x],[y],...] that older records were written in.
type BiasVector []float64

// UnmarshalJSON accepts either [x, y] or [[x], [y]].
func (b *BiasVector) UnmarshalJSON(data []byte) error {
	var flat []float64
	if err := json.Unmarshal(data, &flat); err == nil {
		*b = flat
		return nil
	}

	var column [][]float64
	if err := json.Unmarshal(data, &column); err != nil {
		return fmt.Errorf("bias must be a list of numbers: %w", err)
	}
	out := make([]float64, len(column))
	for i, row := range column {
		if len(row) != 1 {
			return fmt.Errorf("bias row %d has %d values, want 1", i, len(row))
		}
		out[i] = row[0]
	}
	*b = out
	return nil
}

var errMissingTensor = errors.New("missing tensor")

// Encode writes the record as JSON.
func (r *Record) Encode(w io.Writer) error {
	if err := json.NewEncoder(w).Encode(r); err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return nil
}

// DecodeRecord reads a record and rejects one with a missing tensor.
func DecodeRecord(data []byte) (*Record, error) {
	var r Record
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	switch {
	case r.Theta1 == nil:
		return nil, fmt.Errorf("theta1: %w", errMissingTensor)
	case r.Theta2 == nil:
		return nil, fmt.Errorf("theta2: %w", errMissingTensor)
	case r.B1 == nil:
		return nil, fmt.Errorf("b1: %w", errMissingTensor)
	case r.B2 == nil:
		return nil, fmt.Errorf("b2: %w", errMissingTensor)
	}
	return &r, nil
}

// tensors converts the record into matrices, checking every shape invariant.
func (r *Record) tensors() (theta1, theta2 *mat.Dense, b1, b2 *mat.VecDense, err error) {
	theta1, err = denseFromRows(r.Theta1, InputSize)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("theta1: %w", err)
	}
	hidden, _ := theta1.Dims()

	theta2, err = denseFromRows(r.Theta2, hidden)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("theta2: %w", err)
	}
	if rows, _ := theta2.Dims(); rows != OutputSize {
		return nil, nil, nil, nil, fmt.Errorf("theta2: got %d rows, want %d", rows, OutputSize)
	}
	if len(r.B1) != hidden {
		return nil, nil, nil, nil, fmt.Errorf("b1: got %d values, want %d", len(r.B1), hidden)
	}
	if len(r.B2) != OutputSize {
		return nil, nil, nil, nil, fmt.Errorf("b2: got %d values, want %d", len(r.B2), OutputSize)
	}

	b1 = mat.NewVecDense(hidden, append([]float64(nil), r.B1...))
	b2 = mat.NewVecDense(OutputSize, append([]float64(nil), r.B2...))
	return theta1, theta2, b1, b2, nil
}

func denseFromRows(rows [][]float64, cols int) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows")
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func rowsOf(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}

func valuesOf(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
