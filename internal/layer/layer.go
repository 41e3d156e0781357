// Package layer provides neural network layer implementations.
package layer

import (
	"errors"
	"fmt"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
)

var ErrEmptyQueue = errors.New("backpropagate called without a pending feed forward")

// Layer is a trainable network layer.
//
// FeedForward records its input and output so a later Backpropagate can use
// them; records are consumed last-in first-out. Predict computes the same
// output without recording anything.
type Layer interface {
	FeedForward(input *matrix.Matrix) (*matrix.Matrix, error)
	Backpropagate(outputError *matrix.Matrix) (*matrix.Matrix, error)
	Predict(input *matrix.Matrix) (*matrix.Matrix, error)
	Update(optimizer opt.Optimizer) error

	InSize() int
	OutSize() int

	// Pending returns the number of forward records not yet backpropagated.
	Pending() int

	// Reset drops pending records and zeroes accumulated gradients.
	Reset()
}

// DefaultInitRange bounds the uniform initialization of weights and biases.
const DefaultInitRange = 1.0

// Dense is a fully connected layer.
type Dense struct {
	// weights is [out, in]: weight for output j, input k is at (j, k)
	weights *matrix.Matrix
	biases  *matrix.Matrix // [1, out]
	act     activations.Activation
	inSize  int
	outSize int

	weightGrad *matrix.Matrix
	biasGrad   *matrix.Matrix

	// pending forward records, consumed from the end
	inputs  []*matrix.Matrix
	outputs []*matrix.Matrix
}

// NewDense creates a dense layer whose parameters are drawn uniformly from
// [-DefaultInitRange, DefaultInitRange) using src. A nil src uses rng.Default().
func NewDense(in, out int, act activations.Activation, src *rng.Source) *Dense {
	return &Dense{
		weights:    matrix.Random(out, in, -DefaultInitRange, DefaultInitRange, src),
		biases:     matrix.Random(1, out, -DefaultInitRange, DefaultInitRange, src),
		act:        act,
		inSize:     in,
		outSize:    out,
		weightGrad: matrix.New(out, in),
		biasGrad:   matrix.New(1, out),
	}
}

// NewDenseFrom creates a dense layer with the given [out, in] weights and
// [1, out] biases. Both are copied.
func NewDenseFrom(weights, biases *matrix.Matrix, act activations.Activation) (*Dense, error) {
	out, in := weights.Rows(), weights.Cols()
	if biases.Shape() != (matrix.Shape{Rows: 1, Cols: out}) {
		return nil, fmt.Errorf("dense: biases %v for weights %v: %w", biases.Shape(), weights.Shape(), matrix.ErrShapeMismatch)
	}
	return &Dense{
		weights:    weights.Clone(),
		biases:     biases.Clone(),
		act:        act,
		inSize:     in,
		outSize:    out,
		weightGrad: matrix.New(out, in),
		biasGrad:   matrix.New(1, out),
	}, nil
}

// FeedForward computes the output for a single 1 x in sample and records the
// (input, output) pair for Backpropagate.
func (d *Dense) FeedForward(input *matrix.Matrix) (*matrix.Matrix, error) {
	if input.Rows() != 1 {
		return nil, fmt.Errorf("dense feed forward: input %v must be a single row: %w", input.Shape(), matrix.ErrShapeMismatch)
	}
	output, err := d.Predict(input)
	if err != nil {
		return nil, err
	}
	d.inputs = append(d.inputs, input.Clone())
	d.outputs = append(d.outputs, output.Clone())
	return output, nil
}

// Predict computes act(bias[j] + sum_k input[i,k] * w[j,k]) for every row i
// of input. Nothing is recorded.
func (d *Dense) Predict(input *matrix.Matrix) (*matrix.Matrix, error) {
	if input.Cols() != d.inSize {
		return nil, fmt.Errorf("dense: input %v, layer expects %d columns: %w", input.Shape(), d.inSize, matrix.ErrShapeMismatch)
	}

	rows := input.Rows()
	inSize, outSize := d.inSize, d.outSize
	x := input.Raw()
	weights := d.weights.Raw()
	biases := d.biases.Raw()

	output := matrix.New(rows, outSize)
	out := output.Raw()
	for i := 0; i < rows; i++ {
		row := x[i*inSize : (i+1)*inSize]
		for j := 0; j < outSize; j++ {
			sum := biases[j]
			wBase := j * inSize
			for k := 0; k < inSize; k++ {
				sum += row[k] * weights[wBase+k]
			}
			out[i*outSize+j] = d.act.Activate(sum)
		}
	}
	return output, nil
}

// Backpropagate consumes the most recent forward record, accumulates weight
// and bias gradients, and returns the 1 x in error for the preceding layer.
func (d *Dense) Backpropagate(outputError *matrix.Matrix) (*matrix.Matrix, error) {
	n := len(d.inputs)
	if n == 0 {
		return nil, ErrEmptyQueue
	}
	if outputError.Shape() != (matrix.Shape{Rows: 1, Cols: d.outSize}) {
		return nil, fmt.Errorf("dense backpropagate: error %v, want (1, %d): %w", outputError.Shape(), d.outSize, matrix.ErrShapeMismatch)
	}

	input := d.inputs[n-1].Raw()
	output := d.outputs[n-1].Raw()
	d.inputs[n-1], d.outputs[n-1] = nil, nil
	d.inputs, d.outputs = d.inputs[:n-1], d.outputs[:n-1]

	inSize, outSize := d.inSize, d.outSize
	errs := outputError.Raw()
	weights := d.weights.Raw()
	gradW := d.weightGrad.Raw()
	gradB := d.biasGrad.Raw()

	inputError := matrix.New(1, inSize)
	gradIn := inputError.Raw()
	for j := 0; j < outSize; j++ {
		delta := d.act.Derivative(output[j]) * errs[j]
		gradB[j] += delta

		wBase := j * inSize
		for k := 0; k < inSize; k++ {
			gradW[wBase+k] += delta * input[k]
			gradIn[k] += delta * weights[wBase+k]
		}
	}
	return inputError, nil
}

// Update applies optimizer to weights and biases with the accumulated
// gradients, then zeroes the gradients.
func (d *Dense) Update(optimizer opt.Optimizer) error {
	if err := optimizer.Update(d.weights.Raw(), d.weightGrad.Raw()); err != nil {
		return fmt.Errorf("dense weights: %w", err)
	}
	if err := optimizer.Update(d.biases.Raw(), d.biasGrad.Raw()); err != nil {
		return fmt.Errorf("dense biases: %w", err)
	}
	d.zeroGradients()
	return nil
}

// Reset drops pending forward records and zeroes gradients.
func (d *Dense) Reset() {
	d.inputs = nil
	d.outputs = nil
	d.zeroGradients()
}

func (d *Dense) zeroGradients() {
	clear(d.weightGrad.Raw())
	clear(d.biasGrad.Raw())
}

// Pending returns the number of unconsumed forward records.
func (d *Dense) Pending() int {
	return len(d.inputs)
}

// Weights returns a copy of the [out, in] weight matrix.
func (d *Dense) Weights() *matrix.Matrix {
	return d.weights.Clone()
}

// Biases returns a copy of the [1, out] bias matrix.
func (d *Dense) Biases() *matrix.Matrix {
	return d.biases.Clone()
}

// WeightGradient returns a copy of the accumulated weight gradient.
func (d *Dense) WeightGradient() *matrix.Matrix {
	return d.weightGrad.Clone()
}

// BiasGradient returns a copy of the accumulated bias gradient.
func (d *Dense) BiasGradient() *matrix.Matrix {
	return d.biasGrad.Clone()
}

// SetWeight sets a single weight at (row, col).
func (d *Dense) SetWeight(row, col int, val float32) error {
	return d.weights.Set(row, col, val)
}

// SetBias sets a single bias.
func (d *Dense) SetBias(idx int, val float32) error {
	return d.biases.Set(0, idx, val)
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}

// ParamCount returns the number of trainable parameters.
func (d *Dense) ParamCount() int {
	return d.weights.Len() + d.biases.Len()
}
