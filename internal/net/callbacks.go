package net

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
)

// Callback defines the interface for training callbacks.
// Epoch and batch numbers start at 1.
type Callback interface {
	OnTrainBegin(n *MultiLayerPerceptron)
	OnTrainEnd(n *MultiLayerPerceptron)
	OnEpochBegin(epoch int, n *MultiLayerPerceptron)
	OnEpochEnd(epoch int, loss float32, n *MultiLayerPerceptron)
	OnBatchBegin(batch int, n *MultiLayerPerceptron)
	OnBatchEnd(batch int, loss float32, n *MultiLayerPerceptron)
}

// Stopper is implemented by callbacks that can end training early.
// The trainer checks it after every epoch.
type Stopper interface {
	ShouldStop() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (c BaseCallback) OnTrainBegin(n *MultiLayerPerceptron)                        {}
func (c BaseCallback) OnTrainEnd(n *MultiLayerPerceptron)                          {}
func (c BaseCallback) OnEpochBegin(epoch int, n *MultiLayerPerceptron)             {}
func (c BaseCallback) OnEpochEnd(epoch int, loss float32, n *MultiLayerPerceptron) {}
func (c BaseCallback) OnBatchBegin(batch int, n *MultiLayerPerceptron)             {}
func (c BaseCallback) OnBatchEnd(batch int, loss float32, n *MultiLayerPerceptron) {}

// SchedulerCallback is a callback that wraps a learning rate scheduler.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(epoch int, loss float32, n *MultiLayerPerceptron) {
	c.scheduler.Step()
	c.scheduler.StepWithLoss(loss)
}

// EarlyStopping stops training when the epoch loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float32
	Out       io.Writer // nil discards the stop message

	bestLoss     float32
	numBadEpochs int
	Stopped      bool
	StoppedEpoch int
}

func NewEarlyStopping(patience int, threshold float32) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat32,
	}
}

func (c *EarlyStopping) OnTrainBegin(n *MultiLayerPerceptron) {
	c.bestLoss = math.MaxFloat32
	c.numBadEpochs = 0
	c.Stopped = false
	c.StoppedEpoch = 0
}

func (c *EarlyStopping) OnEpochEnd(epoch int, loss float32, n *MultiLayerPerceptron) {
	if loss < c.bestLoss-c.Threshold {
		c.bestLoss = loss
		c.numBadEpochs = 0
	} else {
		c.numBadEpochs++
	}

	if c.numBadEpochs >= c.Patience {
		if c.Out != nil {
			fmt.Fprintf(c.Out, "Early stopping at epoch %d: loss %.6f did not improve for %d epochs\n", epoch, loss, c.Patience)
		}
		c.Stopped = true
		c.StoppedEpoch = epoch
	}
}

// ShouldStop reports whether patience ran out.
func (c *EarlyStopping) ShouldStop() bool {
	return c.Stopped
}

// Logger logs training progress.
type Logger struct {
	BaseCallback
	Interval int
	Out      io.Writer // defaults to os.Stdout
}

func (c Logger) OnEpochEnd(epoch int, loss float32, n *MultiLayerPerceptron) {
	if c.Interval > 0 && epoch%c.Interval == 0 {
		out := c.Out
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprintf(out, "Epoch %d: loss = %.6f\n", epoch, loss)
	}
}
