// Package opt provides optimization algorithms.
package opt

import (
	"errors"
	"fmt"
)

var (
	ErrUnimplementedOptimizer = errors.New("optimizer not implemented")
	ErrLengthMismatch         = errors.New("parameters and gradients must have same length")
)

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// Update applies one step to weights in place. Gradients are not cleared;
	// resetting them is the caller's job.
	Update(weights, gradients []float32) error

	LearningRate() float32
	SetLearningRate(lr float32)
}

// SGD (Stochastic Gradient Descent) optimizer. It keeps no state between calls.
type SGD struct {
	lr float32
}

// NewSGD creates an SGD optimizer.
func NewSGD(learningRate float32) *SGD {
	return &SGD{lr: learningRate}
}

// Update computes weights = weights - lr * gradients in place.
func (s *SGD) Update(weights, gradients []float32) error {
	if len(weights) != len(gradients) {
		return fmt.Errorf("sgd: %d weights, %d gradients: %w", len(weights), len(gradients), ErrLengthMismatch)
	}
	lr := s.lr
	for i := range weights {
		weights[i] -= lr * gradients[i]
	}
	return nil
}

func (s *SGD) LearningRate() float32      { return s.lr }
func (s *SGD) SetLearningRate(lr float32) { s.lr = lr }

// Adam holds the Adam hyperparameters. The update rule itself is not
// implemented: Update always returns ErrUnimplementedOptimizer.
type Adam struct {
	lr      float32
	Beta1   float32 // Exponential decay rate for first moment
	Beta2   float32 // Exponential decay rate for second moment
	Epsilon float32 // Small constant for numerical stability
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float32) *Adam {
	return &Adam{
		lr:      learningRate,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-8,
	}
}

// Update reports ErrUnimplementedOptimizer and leaves weights untouched.
func (a *Adam) Update(weights, gradients []float32) error {
	return fmt.Errorf("adam: %w", ErrUnimplementedOptimizer)
}

func (a *Adam) LearningRate() float32      { return a.lr }
func (a *Adam) SetLearningRate(lr float32) { a.lr = lr }
