package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thedunerats/ocr-js-poc-demo/internal/net"
	"github.com/thedunerats/ocr-js-poc-demo/internal/sweep"
)

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranking.csv")
	require.NoError(t, writeResults(path, []sweep.Result{{HiddenNodes: 10, Accuracy: 0.5}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hidden_nodes,accuracy\n10,0.5000\n", string(data))

	assert.Error(t, writeResults(filepath.Join(t.TempDir(), "missing", "ranking.csv"), nil))
}

func TestRunSweepEpochLog(t *testing.T) {
	data := net.Placeholder(10)
	path := filepath.Join(t.TempDir(), "epochs.csv")
	cfg := sweep.Config{MinNodes: 2, MaxNodes: 4, Step: 1}

	results, err := runSweep(data, data.Indices(), data.Indices(), cfg, path)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// flushed and closed: header plus epochs 2 and 3 for both widths
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(body)), "\n"), 5)

	_, err = runSweep(data, data.Indices(), nil, cfg, filepath.Join(t.TempDir(), "missing", "epochs.csv"))
	assert.Error(t, err)
}
