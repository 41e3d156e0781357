// Package main trains a multi-layer perceptron on the XOR truth table.
//
// Usage:
//
//	go run ./cmd/xor -epochs 3000 -lr 0.5
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/layer"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
)

var (
	epochs     = flag.Int("epochs", 3000, "Number of full-batch training epochs")
	lr         = flag.Float64("lr", 0.5, "SGD learning rate")
	hidden     = flag.Int("hidden", 16, "Width of each of the two hidden layers")
	activation = flag.String("activation", "sigmoid", "Activation for every layer")
	seed       = flag.Uint64("seed", 42, "Random seed for weight initialization")
	logEvery   = flag.Int("log", 500, "Print the loss every N epochs (0 disables)")
	logCSV     = flag.String("log-csv", "", "Optional CSV file receiving per-epoch loss")
)

func main() {
	flag.Parse()

	act, err := activations.Parse(*activation)
	if err != nil {
		log.Fatalf("activation: %v", err)
	}

	fmt.Println("=== XOR Training Example ===")
	fmt.Printf("Network architecture: 2-%d-%d-1\n", *hidden, *hidden)
	fmt.Printf("Activation: %s, loss: mse, optimizer: SGD with learning rate %g\n", act.Name(), *lr)

	src := rng.New(*seed)
	network := net.New().
		Layer(layer.NewDense(2, *hidden, act, src)).
		Layer(layer.NewDense(*hidden, *hidden, act, src)).
		Layer(layer.NewDense(*hidden, 1, act, src))

	trainX := [][]float32{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	trainY := [][]float32{{0}, {1}, {1}, {0}}
	ds, err := dataset.FromRows(trainX, trainY)
	if err != nil {
		log.Fatalf("dataset: %v", err)
	}

	trainer := net.NewTrainer(network, opt.NewSGD(float32(*lr)), loss.MSE{})
	trainer.Config.Epochs = *epochs
	trainer.Config.LogInterval = *logEvery
	trainer.Source = src
	if *logCSV != "" {
		trainer.Callbacks = append(trainer.Callbacks, net.NewCSVLogger(*logCSV, false))
	}

	network.Summary(os.Stdout)

	history, err := trainer.Train(ds)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	fmt.Printf("\nFinal loss after %d epochs: %.6f\n", history.Epochs(), history.Final())

	fmt.Println("\nTesting trained network:")
	for x, y := range ds.Pairs() {
		pred, err := network.Predict(x)
		if err != nil {
			log.Fatalf("predict: %v", err)
		}
		fmt.Printf("Input: %v, Predicted: %.4f, Target: %v\n", x.Values(), pred.Raw()[0], y.Raw()[0])
	}
}
