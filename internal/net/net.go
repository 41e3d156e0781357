// Package net provides the multi-layer perceptron and its training loop.
package net

import (
	"errors"
	"fmt"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/layer"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
)

var ErrEmptyNetwork = errors.New("network has no layers")

// MultiLayerPerceptron is an ordered stack of layers that can be run forward
// and trained with backpropagation.
type MultiLayerPerceptron struct {
	layers []layer.Layer

	// Pre-allocated loss signal buffer for Fit
	lossBuf []float32
}

// New creates an empty network. Add layers with Layer.
func New() *MultiLayerPerceptron {
	return &MultiLayerPerceptron{}
}

// Layer appends l and returns the network, so construction can be chained:
//
//	n := net.New().Layer(l1).Layer(l2)
func (n *MultiLayerPerceptron) Layer(l layer.Layer) *MultiLayerPerceptron {
	n.layers = append(n.layers, l)
	return n
}

// Layers returns the network's layers slice.
func (n *MultiLayerPerceptron) Layers() []layer.Layer {
	return n.layers
}

// InSize returns the input width of the first layer.
func (n *MultiLayerPerceptron) InSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[0].InSize()
}

// OutSize returns the output width of the last layer.
func (n *MultiLayerPerceptron) OutSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[len(n.layers)-1].OutSize()
}

// Validate checks that the network has layers and that every layer's output
// width matches the next layer's input width.
func (n *MultiLayerPerceptron) Validate() error {
	if len(n.layers) == 0 {
		return ErrEmptyNetwork
	}
	for i := 1; i < len(n.layers); i++ {
		prev, next := n.layers[i-1].OutSize(), n.layers[i].InSize()
		if prev != next {
			return fmt.Errorf("layer %d outputs %d values, layer %d expects %d: %w", i-1, prev, i, next, matrix.ErrShapeMismatch)
		}
	}
	return nil
}

// Predict runs input through every layer without recording anything, so it
// can be called any number of times between training steps. input may hold
// several samples, one per row.
func (n *MultiLayerPerceptron) Predict(input *matrix.Matrix) (*matrix.Matrix, error) {
	if len(n.layers) == 0 {
		return nil, ErrEmptyNetwork
	}
	curr := input
	for i, l := range n.layers {
		next, err := l.Predict(curr)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		curr = next
	}
	return curr, nil
}

// FeedForward runs a single 1 x in sample through every layer, recording the
// intermediate values each layer needs for Backpropagate.
func (n *MultiLayerPerceptron) FeedForward(input *matrix.Matrix) (*matrix.Matrix, error) {
	if len(n.layers) == 0 {
		return nil, ErrEmptyNetwork
	}
	curr := input
	for i, l := range n.layers {
		next, err := l.FeedForward(curr)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		curr = next
	}
	return curr, nil
}

// Backpropagate passes outputError backwards through every layer, consuming
// the most recent FeedForward record of each, and returns the error with
// respect to the network input.
func (n *MultiLayerPerceptron) Backpropagate(outputError *matrix.Matrix) (*matrix.Matrix, error) {
	curr := outputError
	for i := len(n.layers) - 1; i >= 0; i-- {
		next, err := n.layers[i].Backpropagate(curr)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		curr = next
	}
	return curr, nil
}

// Update applies optimizer to every layer's accumulated gradients.
func (n *MultiLayerPerceptron) Update(optimizer opt.Optimizer) error {
	for i, l := range n.layers {
		if err := l.Update(optimizer); err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return nil
}

// Reset drops every pending forward record and accumulated gradient.
func (n *MultiLayerPerceptron) Reset() {
	for _, l := range n.layers {
		l.Reset()
	}
}

// Fit performs one training step over the given samples.
//
// Each input is fed forward, lossFn.Apply(target, output) is backpropagated,
// and gradients accumulate across the batch. After the last sample every layer
// is updated once with optimizer. The returned value is the mean of
// lossFn.Report over the batch. If any step fails all layers are reset.
func (n *MultiLayerPerceptron) Fit(inputs, targets []*matrix.Matrix, optimizer opt.Optimizer, lossFn loss.Loss) (float32, error) {
	total, err := n.fit(inputs, targets, optimizer, lossFn)
	if err != nil {
		n.Reset()
		return 0, err
	}
	return total, nil
}

func (n *MultiLayerPerceptron) fit(inputs, targets []*matrix.Matrix, optimizer opt.Optimizer, lossFn loss.Loss) (float32, error) {
	if len(n.layers) == 0 {
		return 0, ErrEmptyNetwork
	}
	if len(inputs) != len(targets) {
		return 0, fmt.Errorf("fit: %d inputs, %d targets: %w", len(inputs), len(targets), matrix.ErrShapeMismatch)
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	var totalLoss float32
	for i := range inputs {
		output, err := n.FeedForward(inputs[i])
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		target := targets[i]
		if target.Len() != output.Len() {
			return 0, fmt.Errorf("sample %d: target %v, output %v: %w", i, target.Shape(), output.Shape(), matrix.ErrShapeMismatch)
		}

		reported, err := lossFn.Report(target.Raw(), output.Raw())
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		totalLoss += reported

		signal, err := n.lossSignal(lossFn, target, output)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if _, err := n.Backpropagate(signal); err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
	}

	if err := n.Update(optimizer); err != nil {
		return 0, err
	}
	return totalLoss / float32(len(inputs)), nil
}

// lossSignal computes the error fed into the last layer, using the loss's
// ApplyInto when available to avoid an allocation.
func (n *MultiLayerPerceptron) lossSignal(lossFn loss.Loss, target, output *matrix.Matrix) (*matrix.Matrix, error) {
	if into, ok := lossFn.(loss.ApplyIntoer); ok {
		size := output.Len()
		if cap(n.lossBuf) < size {
			n.lossBuf = make([]float32, size)
		}
		buf := n.lossBuf[:size]
		if err := into.ApplyInto(target.Raw(), output.Raw(), buf); err != nil {
			return nil, err
		}
		return matrix.FromSlice(buf), nil
	}
	signal, err := lossFn.Apply(target.Raw(), output.Raw())
	if err != nil {
		return nil, err
	}
	return matrix.FromSlice(signal), nil
}

// Pending returns the largest number of unconsumed forward records held by
// any layer.
func (n *MultiLayerPerceptron) Pending() int {
	pending := 0
	for _, l := range n.layers {
		pending = max(pending, l.Pending())
	}
	return pending
}

// ParamCount returns the number of trainable parameters of layers that
// report one.
func (n *MultiLayerPerceptron) ParamCount() int {
	total := 0
	for _, l := range n.layers {
		total += paramCount(l)
	}
	return total
}

type paramCounter interface {
	ParamCount() int
}

func paramCount(l layer.Layer) int {
	if pc, ok := l.(paramCounter); ok {
		return pc.ParamCount()
	}
	return 0
}
