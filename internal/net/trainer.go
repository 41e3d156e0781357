package net

import (
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
	"gonum.org/v1/gonum/floats"
)

// TrainConfig controls the training loop.
type TrainConfig struct {
	Epochs int
	// BatchSize is the number of samples per Fit call. 0 trains on the whole
	// dataset at once.
	BatchSize int
	// Shuffle reorders the samples before every epoch.
	Shuffle bool
	// LogInterval prints the epoch loss every LogInterval epochs. 0 disables it.
	LogInterval int
}

// DefaultTrainConfig returns full-batch training for 1000 epochs, logging
// every 100.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:      1000,
		BatchSize:   0,
		Shuffle:     false,
		LogInterval: 100,
	}
}

// History records the mean loss of every completed epoch.
type History struct {
	Losses []float32
}

// Epochs returns the number of completed epochs.
func (h History) Epochs() int {
	return len(h.Losses)
}

// Final returns the loss of the last epoch, or 0 if none ran.
func (h History) Final() float32 {
	if len(h.Losses) == 0 {
		return 0
	}
	return h.Losses[len(h.Losses)-1]
}

// Best returns the lowest epoch loss, or 0 if none ran.
func (h History) Best() float32 {
	if len(h.Losses) == 0 {
		return 0
	}
	return float32(floats.Min(toFloat64(h.Losses)))
}

// Trainer runs a network over a dataset for several epochs.
type Trainer struct {
	Network   *MultiLayerPerceptron
	Optimizer opt.Optimizer
	Loss      loss.Loss
	Config    TrainConfig
	Callbacks []Callback

	// Source drives shuffling. nil uses rng.Default().
	Source *rng.Source
	// Out receives LogInterval output. nil uses os.Stdout.
	Out io.Writer
}

// NewTrainer creates a trainer with DefaultTrainConfig.
func NewTrainer(n *MultiLayerPerceptron, optimizer opt.Optimizer, lossFn loss.Loss) *Trainer {
	return &Trainer{
		Network:   n,
		Optimizer: optimizer,
		Loss:      lossFn,
		Config:    DefaultTrainConfig(),
	}
}

func (t *Trainer) callbacks() []Callback {
	cbs := t.Callbacks
	if t.Config.LogInterval > 0 {
		out := t.Out
		if out == nil {
			out = os.Stdout
		}
		cbs = append([]Callback{Logger{Interval: t.Config.LogInterval, Out: out}}, cbs...)
	}
	return cbs
}

// Train runs Config.Epochs epochs of Fit over ds and returns the per-epoch
// loss history. Training ends early when a callback implementing Stopper asks
// for it. On error the history holds the epochs completed so far.
func (t *Trainer) Train(ds *dataset.Dataset) (History, error) {
	var history History
	if err := t.Network.Validate(); err != nil {
		return history, err
	}
	if err := ds.Validate(); err != nil {
		return history, err
	}
	if ds.Len() == 0 {
		return history, dataset.ErrEmpty
	}

	src := t.Source
	if src == nil {
		src = rng.Default()
	}

	cbs := t.callbacks()
	for _, cb := range cbs {
		cb.OnTrainBegin(t.Network)
	}
	defer func() {
		for _, cb := range cbs {
			cb.OnTrainEnd(t.Network)
		}
	}()

	for epoch := 1; epoch <= t.Config.Epochs; epoch++ {
		for _, cb := range cbs {
			cb.OnEpochBegin(epoch, t.Network)
		}

		data := ds
		if t.Config.Shuffle {
			data = ds.Subset(src.Indexes(ds.Len()))
		}

		epochLoss, err := t.runEpoch(data, cbs)
		if err != nil {
			return history, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		history.Losses = append(history.Losses, epochLoss)

		for _, cb := range cbs {
			cb.OnEpochEnd(epoch, epochLoss, t.Network)
		}
		if stopRequested(cbs) {
			break
		}
	}
	return history, nil
}

// runEpoch fits every batch and returns the sample-weighted mean batch loss.
func (t *Trainer) runEpoch(data *dataset.Dataset, cbs []Callback) (float32, error) {
	batches := data.Batches(t.Config.BatchSize)
	losses := make([]float64, len(batches))
	sizes := make([]float64, len(batches))

	for i, batch := range batches {
		for _, cb := range cbs {
			cb.OnBatchBegin(i+1, t.Network)
		}
		batchLoss, err := t.Network.Fit(batch.Features, batch.Targets, t.Optimizer, t.Loss)
		if err != nil {
			return 0, fmt.Errorf("batch %d: %w", i+1, err)
		}
		losses[i] = float64(batchLoss)
		sizes[i] = float64(batch.Len())
		for _, cb := range cbs {
			cb.OnBatchEnd(i+1, batchLoss, t.Network)
		}
	}
	return float32(floats.Dot(losses, sizes) / floats.Sum(sizes)), nil
}

func stopRequested(cbs []Callback) bool {
	for _, cb := range cbs {
		if s, ok := cb.(Stopper); ok && s.ShouldStop() {
			return true
		}
	}
	return false
}

// Evaluate returns the mean of lossFn.Report over ds, computed with Predict so
// no training state is touched.
func (n *MultiLayerPerceptron) Evaluate(ds *dataset.Dataset, lossFn loss.Loss) (float32, error) {
	if ds.Len() == 0 {
		return 0, dataset.ErrEmpty
	}
	losses := make([]float64, 0, ds.Len())
	for x, y := range ds.Pairs() {
		pred, err := n.Predict(x)
		if err != nil {
			return 0, err
		}
		l, err := lossFn.Report(y.Raw(), pred.Raw())
		if err != nil {
			return 0, err
		}
		losses = append(losses, float64(l))
	}
	return float32(floats.Sum(losses) / float64(len(losses))), nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
