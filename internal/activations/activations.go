// Package activations provides elementwise activation functions.
//
// Derivative is evaluated from the layer's activated output y, not from the
// pre-activation value, so a layer only has to cache what it returned.
package activations

import (
	"fmt"
	"math"
	"strings"
)

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float32) float32

	// Derivative computes f'(x) expressed in terms of y = f(x)
	Derivative(y float32) float32

	// Name returns the identifier accepted by Parse
	Name() string
}

const (
	clampLimit = 1e10

	leakySlope = 0.01
)

// clamp keeps activations finite: results are bounded to ±1e10 and NaN becomes 0.
func clamp(v float64) float32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > clampLimit:
		return clampLimit
	case v < -clampLimit:
		return -clampLimit
	}
	return float32(v)
}

// Sigmoid activation function.
type Sigmoid struct{}

// Activate computes 1 / (1 + e^-x)
func (Sigmoid) Activate(x float32) float32 {
	return clamp(1 / (1 + math.Exp(-float64(x))))
}

// Derivative computes y * (1 - y)
func (Sigmoid) Derivative(y float32) float32 {
	return y * (1 - y)
}

func (Sigmoid) Name() string { return "sigmoid" }

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (ReLU) Activate(x float32) float32 {
	return clamp(math.Max(0, float64(x)))
}

// Derivative returns 1 if y > 0, else 0
func (ReLU) Derivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return 0
}

func (ReLU) Name() string { return "relu" }

// LeakyReLU activation function with a fixed 0.01 negative slope.
type LeakyReLU struct{}

// Activate computes max(x, 0.01x)
func (LeakyReLU) Activate(x float32) float32 {
	v := float64(x)
	return clamp(math.Max(v, leakySlope*v))
}

// Derivative returns 1 if y > 0, else 0.01
func (LeakyReLU) Derivative(y float32) float32 {
	if y > 0 {
		return 1
	}
	return leakySlope
}

func (LeakyReLU) Name() string { return "leakyrelu" }

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (Tanh) Activate(x float32) float32 {
	return clamp(math.Tanh(float64(x)))
}

// Derivative computes 1 - y^2
func (Tanh) Derivative(y float32) float32 {
	return 1 - y*y
}

func (Tanh) Name() string { return "tanh" }

// Softmax is the per-element logistic form e^x / (1 + e^x). It does not
// normalize across the output vector, so it is not a true softmax.
type Softmax struct{}

// Activate computes e^x / (1 + e^x)
func (Softmax) Activate(x float32) float32 {
	e := math.Exp(float64(x))
	if math.IsInf(e, 1) {
		return 1
	}
	return clamp(e / (1 + e))
}

// Derivative computes y * (1 - y)
func (Softmax) Derivative(y float32) float32 {
	return y * (1 - y)
}

func (Softmax) Name() string { return "softmax" }

// Linear (identity) activation function.
type Linear struct{}

// Activate returns x unchanged (within the clamp)
func (Linear) Activate(x float32) float32 {
	return clamp(float64(x))
}

// Derivative returns 1
func (Linear) Derivative(float32) float32 {
	return 1
}

func (Linear) Name() string { return "linear" }

// All lists every supported activation.
func All() []Activation {
	return []Activation{Sigmoid{}, ReLU{}, LeakyReLU{}, Tanh{}, Softmax{}, Linear{}}
}

// Parse returns the activation named name, ignoring case, '-' and '_'.
func Parse(name string) (Activation, error) {
	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(name))
	for _, a := range All() {
		if a.Name() == key {
			return a, nil
		}
	}
	return nil, fmt.Errorf("unknown activation %q", name)
}
