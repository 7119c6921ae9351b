package net

import (
	"log"
)

// Callback receives training progress from Fit.
type Callback interface {
	OnTrainBegin(n *Network)
	OnTrainEnd(n *Network)
	OnEpochEnd(epoch int, loss float64, n *Network)
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *Network)                        {}
func (c BaseCallback) OnTrainEnd(n *Network)                          {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float64, n *Network) {}

// Fit runs epochs passes of TrainEpoch over indices. Epochs are numbered from
// first so callers can continue a count started elsewhere (New trains epoch 1).
func (n *Network) Fit(data *Dataset, indices []int, first, epochs int, callbacks ...Callback) error {
	for _, c := range callbacks {
		c.OnTrainBegin(n)
	}
	defer func() {
		for _, c := range callbacks {
			c.OnTrainEnd(n)
		}
	}()

	for e := 0; e < epochs; e++ {
		l, err := n.TrainEpoch(data, indices)
		if err != nil {
			return err
		}
		for _, c := range callbacks {
			c.OnEpochEnd(first+e, l, n)
		}
	}
	return nil
}

// Logger logs training progress.
type Logger struct {
	BaseCallback
	Interval int
	Out      *log.Logger
}

func (c Logger) OnEpochEnd(epoch int, loss float64, n *Network) {
	if c.Out == nil || c.Interval <= 0 || epoch%c.Interval != 0 {
		return
	}
	c.Out.Printf("hidden=%d epoch %d: loss = %.6f", n.HiddenNodes(), epoch, loss)
}
