// Package perceptron re-exports the building blocks needed to assemble and
// train a multi-layer perceptron.
package perceptron

import (
	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/layer"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/matrix"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
)

// Re-export common types and functions for easier access
type (
	Network     = net.MultiLayerPerceptron
	Trainer     = net.Trainer
	TrainConfig = net.TrainConfig
	History     = net.History
	Layer       = layer.Layer
	Activation  = activations.Activation
	Optimizer   = opt.Optimizer
	Loss        = loss.Loss
	Matrix      = matrix.Matrix
	Dataset     = dataset.Dataset
	Source      = rng.Source
)

// Errors
var (
	ErrShapeMismatch          = matrix.ErrShapeMismatch
	ErrOutOfBounds            = matrix.ErrOutOfBounds
	ErrInvalidStep            = matrix.ErrInvalidStep
	ErrInvalidRange           = matrix.ErrInvalidRange
	ErrEmptyQueue             = layer.ErrEmptyQueue
	ErrUnimplementedOptimizer = opt.ErrUnimplementedOptimizer
	ErrEmptyNetwork           = net.ErrEmptyNetwork
)

// Network creation
func New() *Network {
	return net.New()
}

func NewTrainer(n *Network, optimizer Optimizer, lossFn Loss) *Trainer {
	return net.NewTrainer(n, optimizer, lossFn)
}

func DefaultTrainConfig() TrainConfig {
	return net.DefaultTrainConfig()
}

// Matrices
func Zeros(rows, cols int) *Matrix {
	return matrix.Zeros(rows, cols)
}

func Ones(rows, cols int) *Matrix {
	return matrix.Ones(rows, cols)
}

func Arange(start, end, step float32) (*Matrix, error) {
	return matrix.Arange(start, end, step)
}

func FromSlice(data []float32) *Matrix {
	return matrix.FromSlice(data)
}

func FromRows(rows [][]float32) (*Matrix, error) {
	return matrix.FromRows(rows)
}

// Random numbers
func NewSource(seed uint64) *Source {
	return rng.New(seed)
}

func SetSeed(seed uint64) {
	rng.SetSeed(seed)
}

// Activations
var (
	Sigmoid   = activations.Sigmoid{}
	ReLU      = activations.ReLU{}
	LeakyReLU = activations.LeakyReLU{}
	Tanh      = activations.Tanh{}
	Softmax   = activations.Softmax{}
	Linear    = activations.Linear{}
)

func ParseActivation(name string) (Activation, error) {
	return activations.Parse(name)
}

// Layers
func Dense(in, out int, act Activation, src *Source) *layer.Dense {
	return layer.NewDense(in, out, act, src)
}

// Optimizers
func SGD(lr float32) Optimizer {
	return opt.NewSGD(lr)
}

func Adam(lr float32) Optimizer {
	return opt.NewAdam(lr)
}

func StepLR(optimizer Optimizer, stepSize int, gamma float32) *opt.StepLR {
	return opt.NewStepLR(optimizer, stepSize, gamma)
}

func ExponentialLR(optimizer Optimizer, gamma float32) *opt.ExponentialLR {
	return opt.NewExponentialLR(optimizer, gamma)
}

func ReduceLROnPlateau(optimizer Optimizer, factor float32, patience int, threshold float32, cooldown int, minLR float32) *opt.ReduceLROnPlateau {
	return opt.NewReduceLROnPlateau(optimizer, factor, patience, threshold, cooldown, minLR)
}

// Losses
var (
	MSE                = loss.MSE{}
	CrossEntropy       = loss.CrossEntropy{}
	BinaryCrossEntropy = loss.BinaryCrossEntropy{}
	Difference         = loss.Difference{}
	Hinge              = loss.Hinge{}
	Huber              = loss.Huber{}
)

func ParseLoss(name string) (Loss, error) {
	return loss.Parse(name)
}

// Callbacks
type Callback = net.Callback

func Logger(interval int) net.Logger {
	return net.Logger{Interval: interval}
}

func CSVLogger(filename string, append bool) *net.CSVLogger {
	return net.NewCSVLogger(filename, append)
}

func EarlyStopping(patience int, minDelta float32) *net.EarlyStopping {
	return net.NewEarlyStopping(patience, minDelta)
}

func SchedulerCallback(scheduler opt.Scheduler) net.Callback {
	return net.NewSchedulerCallback(scheduler)
}

// Datasets
func LoadCSV(filename string, labelCols []int, hasHeader bool) (*Dataset, error) {
	return dataset.LoadCSV(filename, labelCols, hasHeader)
}

func NewDataset(features, targets [][]float32) (*Dataset, error) {
	return dataset.FromRows(features, targets)
}
