package net

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVLogger writes one row per epoch (hidden_nodes, epoch, loss,
// time_seconds) to w. The header is written once, on the first
// OnTrainBegin.
type CSVLogger struct {
	BaseCallback

	writer *csv.Writer
	start  time.Time
	header bool
	err    error
}

// NewCSVLogger creates a CSVLogger writing to w.
func NewCSVLogger(w io.Writer) *CSVLogger {
	return &CSVLogger{writer: csv.NewWriter(w)}
}

func (c *CSVLogger) OnTrainBegin(n *Network) {
	c.start = time.Now()
	if c.header {
		return
	}
	c.header = true
	c.write([]string{"hidden_nodes", "epoch", "loss", "time_seconds"})
}

func (c *CSVLogger) OnEpochEnd(epoch int, loss float64, n *Network) {
	c.write([]string{
		strconv.Itoa(n.HiddenNodes()),
		strconv.Itoa(epoch),
		fmt.Sprintf("%.6f", loss),
		fmt.Sprintf("%.2f", time.Since(c.start).Seconds()),
	})
}

func (c *CSVLogger) write(record []string) {
	if c.err != nil {
		return
	}
	if err := c.writer.Write(record); err != nil {
		c.err = err
		return
	}
	c.writer.Flush()
	c.err = c.writer.Error()
}

// Err returns the first write error, if any.
func (c *CSVLogger) Err() error {
	return c.err
}
