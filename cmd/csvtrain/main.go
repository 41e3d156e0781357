// Package main trains a multi-layer perceptron on a numeric CSV file.
//
// Usage:
//
//	go run ./cmd/csvtrain -csv data.csv -labels 4 -header -hidden 8,8 -epochs 500
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/activations"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/dataset"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/layer"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/loss"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/net"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/opt"
	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
)

var (
	csvPath    = flag.String("csv", "", "CSV file to train on (required)")
	labels     = flag.String("labels", "", "Comma separated indices of target columns (required)")
	header     = flag.Bool("header", false, "Skip the first CSV line")
	hidden     = flag.String("hidden", "8", "Comma separated hidden layer widths")
	activation = flag.String("activation", "sigmoid", "Hidden layer activation")
	output     = flag.String("output-activation", "sigmoid", "Output layer activation")
	lossName   = flag.String("loss", "mse", "Loss function")
	lr         = flag.Float64("lr", 0.1, "SGD learning rate")
	epochs     = flag.Int("epochs", 500, "Training epochs")
	batch      = flag.Int("batch", 0, "Mini-batch size (0 = full batch)")
	shuffle    = flag.Bool("shuffle", true, "Shuffle samples every epoch")
	split      = flag.Float64("split", 0.8, "Fraction of samples used for training")
	scale      = flag.String("scale", "minmax", "Feature scaling: minmax, zscore or none")
	patience   = flag.Int("patience", 0, "Stop after N epochs without improvement (0 disables)")
	plateau    = flag.Int("plateau", 0, "Halve the learning rate after N epochs without improvement (0 disables)")
	seed       = flag.Uint64("seed", 1, "Random seed")
	logEvery   = flag.Int("log", 50, "Print the loss every N epochs (0 disables)")
	logCSV     = flag.String("log-csv", "", "Optional CSV file receiving per-epoch loss")
)

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", part, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func main() {
	flag.Parse()
	if *csvPath == "" || *labels == "" {
		flag.Usage()
		os.Exit(2)
	}

	labelCols, err := parseInts(*labels)
	if err != nil {
		log.Fatalf("labels: %v", err)
	}
	widths, err := parseInts(*hidden)
	if err != nil {
		log.Fatalf("hidden: %v", err)
	}
	hiddenAct, err := activations.Parse(*activation)
	if err != nil {
		log.Fatal(err)
	}
	outAct, err := activations.Parse(*output)
	if err != nil {
		log.Fatal(err)
	}
	lossFn, err := loss.Parse(*lossName)
	if err != nil {
		log.Fatal(err)
	}

	ds, err := dataset.LoadCSV(*csvPath, labelCols, *header)
	if err != nil {
		log.Fatalf("Error loading CSV: %v", err)
	}
	src := rng.New(*seed)
	ds.Shuffle(src)
	train, test := ds.Split(float32(*split))

	// scaling statistics come from the training split only
	var scaler *dataset.Scaler
	switch *scale {
	case "minmax":
		scaler = train.Normalize()
	case "zscore":
		scaler = train.Standardize()
	case "none":
	default:
		log.Fatalf("unknown scaling %q", *scale)
	}
	if scaler != nil {
		if err := scaler.Apply(test); err != nil {
			log.Fatalf("scaling test split: %v", err)
		}
	}
	fmt.Printf("Loaded %d samples: %d train, %d test\n", ds.Len(), train.Len(), test.Len())

	in := ds.Features[0].Len()
	network := net.New()
	for _, w := range widths {
		network.Layer(layer.NewDense(in, w, hiddenAct, src))
		in = w
	}
	network.Layer(layer.NewDense(in, ds.Targets[0].Len(), outAct, src))
	network.Summary(os.Stdout)

	sgd := opt.NewSGD(float32(*lr))
	trainer := net.NewTrainer(network, sgd, lossFn)
	trainer.Config = net.TrainConfig{
		Epochs:      *epochs,
		BatchSize:   *batch,
		Shuffle:     *shuffle,
		LogInterval: *logEvery,
	}
	trainer.Source = src
	if *plateau > 0 {
		scheduler := opt.NewReduceLROnPlateau(sgd, 0.5, *plateau, 1e-4, 0, 1e-5)
		trainer.Callbacks = append(trainer.Callbacks, net.NewSchedulerCallback(scheduler))
	}
	if *patience > 0 {
		stop := net.NewEarlyStopping(*patience, 0)
		stop.Out = os.Stdout
		trainer.Callbacks = append(trainer.Callbacks, stop)
	}
	if *logCSV != "" {
		trainer.Callbacks = append(trainer.Callbacks, net.NewCSVLogger(*logCSV, false))
	}

	history, err := trainer.Train(train)
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	fmt.Printf("Trained %d epochs, final loss %.6f, best %.6f\n", history.Epochs(), history.Final(), history.Best())

	if test.Len() > 0 {
		testLoss, err := network.Evaluate(test, lossFn)
		if err != nil {
			log.Fatalf("evaluate: %v", err)
		}
		fmt.Printf("Test %s: %.6f\n", lossFn.Name(), testLoss)
	}
}
