// Package layer provides comprehensive unit tests for neural network layers.
package layer

import (
	"math"
	"testing"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

func rows(t *testing.T, data [][]float32) *matrix.Matrix {
	t.Helper()
	m, err := matrix.FromRows(data)
	require.NoError(t, err)
	return m
}

// identityDense returns a 2 -> 2 layer with identity weights and zero biases.
func identityDense(t *testing.T, act activations.Activation) *Dense {
	t.Helper()
	d, err := NewDenseFrom(
		rows(t, [][]float32{{1, 0}, {0, 1}}),
		matrix.New(1, 2),
		act,
	)
	require.NoError(t, err)
	return d
}

// TestDenseForward tests the forward pass against hand-computed values.
func TestDenseForward(t *testing.T) {
	d := identityDense(t, activations.Tanh{})

	output, err := d.FeedForward(matrix.FromSlice([]float32{1.0, 2.0}))
	require.NoError(t, err)
	require.Equal(t, matrix.Shape{Rows: 1, Cols: 2}, output.Shape())

	// tanh(1) ≈ 0.7616, tanh(2) ≈ 0.9640
	got := output.Values()
	assert.InDelta(t, math.Tanh(1), got[0], 1e-6)
	assert.InDelta(t, math.Tanh(2), got[1], 1e-6)
	assert.Equal(t, 1, d.Pending())
}

// TestDenseForwardWeightLayout checks that w[j,k] connects input k to output j.
func TestDenseForwardWeightLayout(t *testing.T) {
	// out = 3, in = 2
	d, err := NewDenseFrom(
		rows(t, [][]float32{{1, 2}, {3, 4}, {5, 6}}),
		matrix.FromSlice([]float32{0.5, 0, -1}),
		activations.Linear{},
	)
	require.NoError(t, err)

	out, err := d.Predict(matrix.FromSlice([]float32{1, 10}))
	require.NoError(t, err)
	assert.Equal(t, []float32{21.5, 43, 64}, out.Values())
}

func TestNewDenseShapes(t *testing.T) {
	d := NewDense(3, 5, activations.ReLU{}, rng.New(1))

	assert.Equal(t, 3, d.InSize())
	assert.Equal(t, 5, d.OutSize())
	assert.Equal(t, matrix.Shape{Rows: 5, Cols: 3}, d.Weights().Shape())
	assert.Equal(t, matrix.Shape{Rows: 1, Cols: 5}, d.Biases().Shape())
	assert.Equal(t, 20, d.ParamCount())

	for _, v := range d.WeightGradient().Raw() {
		assert.Zero(t, v)
	}
	for _, v := range d.Weights().Raw() {
		assert.GreaterOrEqual(t, v, float32(-DefaultInitRange))
		assert.Less(t, v, float32(DefaultInitRange))
	}
}

func TestNewDenseSeeded(t *testing.T) {
	a := NewDense(4, 4, activations.Sigmoid{}, rng.New(9))
	b := NewDense(4, 4, activations.Sigmoid{}, rng.New(9))
	assert.True(t, a.Weights().Equal(b.Weights()))
	assert.True(t, a.Biases().Equal(b.Biases()))
}

func TestNewDenseFromRejectsBadBiases(t *testing.T) {
	_, err := NewDenseFrom(matrix.New(3, 2), matrix.New(1, 2), activations.Linear{})
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
}

func TestDenseInputShape(t *testing.T) {
	d := NewDense(2, 2, activations.Tanh{}, rng.New(1))

	_, err := d.FeedForward(matrix.FromSlice([]float32{1, 2, 3}))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)

	_, err = d.FeedForward(matrix.New(2, 2))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch, "feed forward takes a single sample")

	_, err = d.Predict(matrix.New(1, 3))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)

	assert.Zero(t, d.Pending(), "failed calls must not leave records")
}

// TestDenseBackwardWithoutForward tests the empty queue failure.
func TestDenseBackwardWithoutForward(t *testing.T) {
	d := NewDense(2, 2, activations.Tanh{}, rng.New(1))

	_, err := d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	assert.ErrorIs(t, err, ErrEmptyQueue)

	_, err = d.FeedForward(matrix.FromSlice([]float32{1, 1}))
	require.NoError(t, err)
	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	require.NoError(t, err)

	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	assert.ErrorIs(t, err, ErrEmptyQueue, "each forward record is consumed once")
}

func TestDenseBackwardErrorShape(t *testing.T) {
	d := NewDense(2, 3, activations.Tanh{}, rng.New(1))
	_, err := d.FeedForward(matrix.FromSlice([]float32{1, 1}))
	require.NoError(t, err)

	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	assert.ErrorIs(t, err, matrix.ErrShapeMismatch)
	assert.Equal(t, 1, d.Pending(), "a rejected error must not consume the record")
}

// TestDenseBackward tests gradient values against the chain rule by hand.
func TestDenseBackward(t *testing.T) {
	d := identityDense(t, activations.Tanh{})

	out, err := d.FeedForward(matrix.FromSlice([]float32{1.0, 2.0}))
	require.NoError(t, err)
	y := out.Values()

	inputGrad, err := d.Backpropagate(matrix.FromSlice([]float32{1.0, 1.0}))
	require.NoError(t, err)
	require.Equal(t, matrix.Shape{Rows: 1, Cols: 2}, inputGrad.Shape())

	// delta_j = (1 - y_j^2) * 1 ; identity weights pass delta straight through
	d0 := 1 - y[0]*y[0]
	d1 := 1 - y[1]*y[1]
	assert.InDeltaSlice(t, []float32{d0, d1}, inputGrad.Values(), 1e-6)
	assert.InDeltaSlice(t, []float32{d0, d1}, d.BiasGradient().Values(), 1e-6)
	assert.InDeltaSlice(t, []float32{d0 * 1, d0 * 2, d1 * 1, d1 * 2}, d.WeightGradient().Values(), 1e-6)
}

// TestDenseLIFO tests that backpropagation consumes the latest record first.
func TestDenseLIFO(t *testing.T) {
	d := identityDense(t, activations.Linear{})

	_, err := d.FeedForward(matrix.FromSlice([]float32{1, 0}))
	require.NoError(t, err)
	_, err = d.FeedForward(matrix.FromSlice([]float32{0, 3}))
	require.NoError(t, err)
	require.Equal(t, 2, d.Pending())

	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	require.NoError(t, err)
	// the {0, 3} sample must have been used
	assert.Equal(t, []float32{0, 3, 0, 3}, d.WeightGradient().Values())
	assert.Equal(t, 1, d.Pending())

	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 3, 1, 3}, d.WeightGradient().Values())
	assert.Zero(t, d.Pending())
}

// TestDenseGradientAccumulates tests that gradients sum across samples until Update.
func TestDenseGradientAccumulates(t *testing.T) {
	d := identityDense(t, activations.Linear{})
	x := matrix.FromSlice([]float32{1, 2})
	e := matrix.FromSlice([]float32{0.5, -1})

	for i := 0; i < 3; i++ {
		_, err := d.FeedForward(x)
		require.NoError(t, err)
		_, err = d.Backpropagate(e)
		require.NoError(t, err)
	}

	assert.InDeltaSlice(t, []float32{1.5, -3}, d.BiasGradient().Values(), 1e-6)
	assert.InDeltaSlice(t, []float32{1.5, 3, -3, -6}, d.WeightGradient().Values(), 1e-6)
}

// TestDenseUpdate tests the SGD step and gradient reset.
func TestDenseUpdate(t *testing.T) {
	d := identityDense(t, activations.Linear{})

	_, err := d.FeedForward(matrix.FromSlice([]float32{1, 2}))
	require.NoError(t, err)
	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 0}))
	require.NoError(t, err)

	require.NoError(t, d.Update(opt.NewSGD(0.1)))

	assert.InDeltaSlice(t, []float32{0.9, -0.2, 0, 1}, d.Weights().Values(), 1e-6)
	assert.InDeltaSlice(t, []float32{-0.1, 0}, d.Biases().Values(), 1e-6)
	for _, v := range d.WeightGradient().Raw() {
		assert.Zero(t, v)
	}
	for _, v := range d.BiasGradient().Raw() {
		assert.Zero(t, v)
	}
}

func TestDenseUpdateAdamFails(t *testing.T) {
	d := identityDense(t, activations.Linear{})
	before := d.Weights()

	err := d.Update(opt.NewAdam(0.1))
	assert.ErrorIs(t, err, opt.ErrUnimplementedOptimizer)
	assert.True(t, before.Equal(d.Weights()))
}

// TestDensePredictIsPure tests that Predict neither records nor changes output.
func TestDensePredictIsPure(t *testing.T) {
	d := NewDense(3, 4, activations.Sigmoid{}, rng.New(5))
	x := matrix.FromSlice([]float32{0.1, -0.4, 0.9})

	a, err := d.Predict(x)
	require.NoError(t, err)
	b, err := d.Predict(x)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Zero(t, d.Pending())

	f, err := d.FeedForward(x)
	require.NoError(t, err)
	assert.True(t, a.Equal(f), "feed forward and predict share the arithmetic")
}

func TestDensePredictBatch(t *testing.T) {
	d := NewDense(2, 3, activations.Tanh{}, rng.New(5))
	batch := rows(t, [][]float32{{0, 1}, {1, 0}, {0.5, 0.5}})

	out, err := d.Predict(batch)
	require.NoError(t, err)
	require.Equal(t, matrix.Shape{Rows: 3, Cols: 3}, out.Shape())

	for i := 0; i < 3; i++ {
		row, err := batch.Row(i)
		require.NoError(t, err)
		single, err := d.Predict(row)
		require.NoError(t, err)
		got, err := out.Row(i)
		require.NoError(t, err)
		assert.True(t, single.Equal(got), "row %d", i)
	}
}

func TestDenseReset(t *testing.T) {
	d := NewDense(2, 2, activations.Tanh{}, rng.New(1))
	x := matrix.FromSlice([]float32{1, 1})

	_, err := d.FeedForward(x)
	require.NoError(t, err)
	_, err = d.FeedForward(x)
	require.NoError(t, err)
	_, err = d.Backpropagate(matrix.FromSlice([]float32{1, 1}))
	require.NoError(t, err)

	d.Reset()
	assert.Zero(t, d.Pending())
	for _, v := range d.WeightGradient().Raw() {
		assert.Zero(t, v)
	}
}

// TestDenseGradientCheck compares backpropagated gradients to finite differences
// of L = 0.5 * sum((y - target)^2).
func TestDenseGradientCheck(t *testing.T) {
	const in, out = 3, 2
	src := rng.New(21)
	base := NewDense(in, out, activations.Sigmoid{}, src)
	x := matrix.FromSlice([]float32{0.3, -0.7, 0.5})
	target := []float32{0.2, 0.9}

	lossAt := func(d *Dense, input *matrix.Matrix) float64 {
		y, err := d.Predict(input)
		require.NoError(t, err)
		var l float64
		for j, v := range y.Raw() {
			diff := float64(v - target[j])
			l += 0.5 * diff * diff
		}
		return l
	}

	y, err := base.FeedForward(x)
	require.NoError(t, err)
	signal := make([]float32, out)
	for j, v := range y.Raw() {
		signal[j] = v - target[j]
	}
	inputGrad, err := base.Backpropagate(matrix.FromSlice(signal))
	require.NoError(t, err)

	settings := &fd.Settings{Formula: fd.Central, Step: 1e-2}
	biases := base.Biases()

	weightsAt := func(w []float64) float64 {
		wm := matrix.New(out, in)
		for i, v := range w {
			wm.Raw()[i] = float32(v)
		}
		d, err := NewDenseFrom(wm, biases, activations.Sigmoid{})
		require.NoError(t, err)
		return lossAt(d, x)
	}
	w0 := make([]float64, out*in)
	for i, v := range base.Weights().Raw() {
		w0[i] = float64(v)
	}
	numeric := fd.Gradient(nil, weightsAt, w0, settings)
	for i, g := range base.WeightGradient().Raw() {
		assert.InDelta(t, numeric[i], float64(g), 1e-3, "weight %d", i)
	}

	inputAt := func(v []float64) float64 {
		xm := matrix.New(1, in)
		for i, e := range v {
			xm.Raw()[i] = float32(e)
		}
		return lossAt(base, xm)
	}
	x0 := []float64{0.3, -0.7, 0.5}
	numericIn := fd.Gradient(nil, inputAt, x0, settings)
	for i, g := range inputGrad.Raw() {
		assert.InDelta(t, numericIn[i], float64(g), 1e-3, "input %d", i)
	}
}

// TestDenseIdentityMapping tests that a dense layer can learn a fixed target.
func TestDenseIdentityMapping(t *testing.T) {
	d := NewDense(2, 2, activations.Tanh{}, rng.New(3))
	sgd := opt.NewSGD(0.1)
	x := matrix.FromSlice([]float32{0.5, 0.5})
	target := []float32{0.5, 0.5}

	for i := 0; i < 1000; i++ {
		y, err := d.FeedForward(x)
		require.NoError(t, err)
		grad := make([]float32, 2)
		for j, v := range y.Raw() {
			grad[j] = 2 * (v - target[j])
		}
		_, err = d.Backpropagate(matrix.FromSlice(grad))
		require.NoError(t, err)
		require.NoError(t, d.Update(sgd))
	}

	y, err := d.Predict(x)
	require.NoError(t, err)
	assert.InDeltaSlice(t, target, y.Values(), 0.01)
}

func TestDenseImplementsLayer(t *testing.T) {
	var _ Layer = (*Dense)(nil)
}
