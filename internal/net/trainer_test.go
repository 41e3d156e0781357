package net

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/layer"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func xorDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromRows(xorInputs, xorTargets)
	require.NoError(t, err)
	return ds
}

func xorNetwork(seed uint64) *MultiLayerPerceptron {
	src := rng.New(seed)
	return New().
		Layer(layer.NewDense(2, 8, activations.Sigmoid{}, src)).
		Layer(layer.NewDense(8, 1, activations.Sigmoid{}, src))
}

// recorder remembers the order callbacks fire in.
type recorder struct {
	BaseCallback
	events []string
}

func (r *recorder) OnTrainBegin(n *MultiLayerPerceptron) { r.events = append(r.events, "train+") }
func (r *recorder) OnTrainEnd(n *MultiLayerPerceptron)   { r.events = append(r.events, "train-") }
func (r *recorder) OnEpochBegin(epoch int, n *MultiLayerPerceptron) {
	r.events = append(r.events, "epoch+")
}
func (r *recorder) OnEpochEnd(epoch int, loss float32, n *MultiLayerPerceptron) {
	r.events = append(r.events, "epoch-")
}
func (r *recorder) OnBatchBegin(batch int, n *MultiLayerPerceptron) {
	r.events = append(r.events, "batch+")
}
func (r *recorder) OnBatchEnd(batch int, loss float32, n *MultiLayerPerceptron) {
	r.events = append(r.events, "batch-")
}

func TestTrainHistory(t *testing.T) {
	tr := NewTrainer(xorNetwork(1), opt.NewSGD(0.5), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 50}

	h, err := tr.Train(xorDataset(t))
	require.NoError(t, err)
	assert.Equal(t, 50, h.Epochs())
	assert.Equal(t, h.Losses[49], h.Final())
	assert.LessOrEqual(t, h.Best(), h.Final())
	assert.Less(t, h.Final(), h.Losses[0])
}

func TestTrainCallbackOrder(t *testing.T) {
	rec := &recorder{}
	tr := NewTrainer(xorNetwork(1), opt.NewSGD(0.5), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 2, BatchSize: 2}
	tr.Callbacks = []Callback{rec}

	_, err := tr.Train(xorDataset(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"train+",
		"epoch+", "batch+", "batch-", "batch+", "batch-", "epoch-",
		"epoch+", "batch+", "batch-", "batch+", "batch-", "epoch-",
		"train-",
	}, rec.events)
}

func TestTrainShuffleIsSeeded(t *testing.T) {
	run := func() History {
		tr := NewTrainer(xorNetwork(5), opt.NewSGD(0.5), loss.MSE{})
		tr.Config = TrainConfig{Epochs: 10, BatchSize: 1, Shuffle: true}
		tr.Source = rng.New(9)
		h, err := tr.Train(xorDataset(t))
		require.NoError(t, err)
		return h
	}
	assert.Equal(t, run().Losses, run().Losses)
}

func TestTrainDoesNotReorderDataset(t *testing.T) {
	ds := xorDataset(t)
	tr := NewTrainer(xorNetwork(5), opt.NewSGD(0.5), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 3, Shuffle: true}
	tr.Source = rng.New(2)

	_, err := tr.Train(ds)
	require.NoError(t, err)
	for i, f := range ds.Features {
		assert.Equal(t, xorInputs[i], f.Values())
	}
}

func TestTrainEarlyStopping(t *testing.T) {
	stop := NewEarlyStopping(3, 0)
	// zero learning rate: the loss never improves after the first epoch
	tr := NewTrainer(xorNetwork(1), opt.NewSGD(0), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 100}
	tr.Callbacks = []Callback{stop}

	h, err := tr.Train(xorDataset(t))
	require.NoError(t, err)
	assert.True(t, stop.Stopped)
	assert.Equal(t, 4, stop.StoppedEpoch)
	assert.Equal(t, 4, h.Epochs())
}

func TestTrainScheduler(t *testing.T) {
	sgd := opt.NewSGD(1)
	tr := NewTrainer(xorNetwork(1), sgd, loss.MSE{})
	tr.Config = TrainConfig{Epochs: 4}
	tr.Callbacks = []Callback{NewSchedulerCallback(opt.NewStepLR(sgd, 2, 0.5))}

	_, err := tr.Train(xorDataset(t))
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), sgd.LearningRate())
}

func TestTrainLogInterval(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTrainer(xorNetwork(1), opt.NewSGD(0.5), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 4, LogInterval: 2}
	tr.Out = &buf

	_, err := tr.Train(xorDataset(t))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Epoch 2: loss = "))
	assert.True(t, strings.HasPrefix(lines[1], "Epoch 4: loss = "))
}

func TestTrainErrors(t *testing.T) {
	tr := NewTrainer(New(), opt.NewSGD(0.5), loss.MSE{})
	_, err := tr.Train(xorDataset(t))
	assert.ErrorIs(t, err, ErrEmptyNetwork)

	tr = NewTrainer(xorNetwork(1), opt.NewSGD(0.5), loss.MSE{})
	_, err = tr.Train(&dataset.Dataset{})
	assert.ErrorIs(t, err, dataset.ErrEmpty)

	rec := &recorder{}
	tr = NewTrainer(xorNetwork(1), opt.NewAdam(0.5), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 3}
	tr.Callbacks = []Callback{rec}
	h, err := tr.Train(xorDataset(t))
	assert.ErrorIs(t, err, opt.ErrUnimplementedOptimizer)
	assert.Zero(t, h.Epochs())
	assert.Equal(t, "train-", rec.events[len(rec.events)-1], "OnTrainEnd runs on failure")
}

func TestEvaluate(t *testing.T) {
	n, _ := linearUnit(t, 1, 0)
	ds, err := dataset.FromRows([][]float32{{1}, {2}}, [][]float32{{2}, {2}})
	require.NoError(t, err)

	// errors 1 and 0
	l, err := n.Evaluate(ds, loss.MSE{})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, l, 1e-6)
	assert.Zero(t, n.Pending())

	_, err = n.Evaluate(&dataset.Dataset{}, loss.MSE{})
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestHistoryEmpty(t *testing.T) {
	var h History
	assert.Zero(t, h.Final())
	assert.Zero(t, h.Best())
}

func TestCSVLogger(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "test_logger.csv")

	logger := NewCSVLogger(filename, false)
	n := New()

	logger.OnTrainBegin(n)
	logger.OnEpochEnd(1, 0.5, n)
	logger.OnEpochEnd(2, 0.4, n)
	logger.OnTrainEnd(n)

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // Header + 2 epochs
	assert.Equal(t, []string{"epoch", "loss", "time_seconds"}, records[0])
	assert.Equal(t, []string{"1", "0.500000"}, records[1][:2])
	assert.Equal(t, []string{"2", "0.400000"}, records[2][:2])
}

func TestCSVLoggerAppend(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "append.csv")
	n := New()

	for i := 0; i < 2; i++ {
		logger := NewCSVLogger(filename, true)
		logger.OnTrainBegin(n)
		logger.OnEpochEnd(1, 0.1, n)
		logger.OnTrainEnd(n)
	}

	file, err := os.Open(filename)
	require.NoError(t, err)
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3, "header is written once")
}

func TestCSVLoggerInTrainer(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "train.csv")
	tr := NewTrainer(xorNetwork(1), opt.NewSGD(0.5), loss.MSE{})
	tr.Config = TrainConfig{Epochs: 5}
	tr.Callbacks = []Callback{NewCSVLogger(filename, false)}

	_, err := tr.Train(xorDataset(t))
	require.NoError(t, err)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(string(data), "\n"))
}

func TestLoggerSkipsOffInterval(t *testing.T) {
	var buf bytes.Buffer
	Logger{Interval: 10, Out: &buf}.OnEpochEnd(5, 1, nil)
	assert.Empty(t, buf.String())
	Logger{Interval: 0, Out: &buf}.OnEpochEnd(10, 1, nil)
	assert.Empty(t, buf.String())
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	xorNetwork(1).Summary(&buf)

	out := buf.String()
	assert.Contains(t, out, "Dense_0")
	assert.Contains(t, out, "Dense_1")
	assert.Contains(t, out, "(8)")
	assert.Contains(t, out, "Total params: 33")
}
