package net

import (
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvLine(label string, pixel string) string {
	fields := make([]string, InputSize+1)
	fields[0] = label
	for i := 1; i < len(fields); i++ {
		fields[i] = pixel
	}
	return strings.Join(fields, ",")
}

func csvHeader() string {
	fields := []string{"label"}
	for i := 0; i < InputSize; i++ {
		fields = append(fields, "p"+strconv.Itoa(i))
	}
	return strings.Join(fields, ",")
}

func TestNewDataset(t *testing.T) {
	d, err := NewDataset([][]float64{fill(0.1), fill(0.9)}, []int{1, 9})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, []int{0, 1}, d.Indices())
	assert.Equal(t, fill(0.9), d.Row(1))

	row := d.Row(0)
	row[0] = 42
	assert.Equal(t, 0.1, d.X.At(0, 0), "Row must return a copy")
}

func TestNewDatasetErrors(t *testing.T) {
	_, err := NewDataset([][]float64{fill(0)}, []int{1, 2})
	assert.Error(t, err)

	_, err = NewDataset(nil, nil)
	assert.Error(t, err)

	_, err = NewDataset([][]float64{fill(0), make([]float64, 3)}, []int{1, 2})
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewDataset([][]float64{fill(0)}, []int{10})
	assert.ErrorIs(t, err, ErrRange)
}

func TestPlaceholder(t *testing.T) {
	d := Placeholder(23)
	assert.Equal(t, 23, d.Len())
	assert.Equal(t, 0, d.Labels[10])
	assert.Equal(t, 2, d.Labels[22])
	assert.Equal(t, make([]float64, InputSize), d.Row(5))
}

func TestSplit(t *testing.T) {
	d := Placeholder(10)

	train, test := d.Split(0.8, nil)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, train)
	assert.Equal(t, []int{8, 9}, test)

	train, test = d.Split(0.5, rand.New(rand.NewSource(1)))
	assert.Len(t, train, 5)
	assert.Len(t, test, 5)
	assert.ElementsMatch(t, d.Indices(), append(append([]int{}, train...), test...))

	train, test = d.Split(0, nil)
	assert.Empty(t, train)
	assert.Len(t, test, 10)

	train, test = d.Split(1, nil)
	assert.Len(t, train, 10)
	assert.Empty(t, test)
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		csvHeader(),
		csvLine("3", "0.25"),
		csvLine(" 7", "1"),
	}, "\n") + "\n"

	d, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, d.Labels)
	assert.Equal(t, fill(0.25), d.Row(0))
	assert.Equal(t, fill(1), d.Row(1))
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", csvHeader() + "\n"},
		{"bad label", csvLine("1", "0") + "\n" + csvLine("x", "0") + "\n"},
		{"bad pixel", csvLine("1", "dark") + "\n"},
		{"label out of range", csvLine("12", "0") + "\n"},
		{"short row", "1,0,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digits.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvLine("4", "0.5")+"\n"), 0o644))

	d, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, d.Labels)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
