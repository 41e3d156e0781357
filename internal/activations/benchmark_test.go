// Package activations provides benchmarks for activation functions.
package activations

import (
	"testing"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
)

// fillRandom fills a slice with values in [-4, 4).
func fillRandom(slice []float32) {
	src := rng.New(1)
	for i := range slice {
		slice[i] = src.Range(-4, 4)
	}
}

// BenchmarkActivate benchmarks Activate for every activation.
func BenchmarkActivate(b *testing.B) {
	inputs := make([]float32, 1000)
	fillRandom(inputs)

	for _, act := range All() {
		b.Run(act.Name(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				for _, x := range inputs {
					act.Activate(x)
				}
			}
		})
	}
}

// BenchmarkFull benchmarks Activate followed by Derivative on its output.
func BenchmarkFull(b *testing.B) {
	inputs := make([]float32, 1000)
	fillRandom(inputs)

	for _, act := range All() {
		b.Run(act.Name(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				for _, x := range inputs {
					_ = act.Derivative(act.Activate(x))
				}
			}
		})
	}
}
