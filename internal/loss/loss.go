// Package loss provides elementwise loss functions.
//
// Apply returns the per-element signal the network feeds into backpropagation.
// For MSE that signal is the gradient 2(p - t); every other loss returns its
// per-element loss value. Report always returns a scalar suitable for logging.
package loss

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrLengthMismatch = errors.New("prediction and target must have same length")

// Loss is an elementwise loss function.
type Loss interface {
	// Apply computes the per-element backpropagation signal.
	Apply(yTrue, yPred []float32) ([]float32, error)

	// Report computes the mean loss, for progress reporting.
	Report(yTrue, yPred []float32) (float32, error)

	Name() string
}

// ApplyIntoer is an optional interface for losses that can write the
// per-element signal into a caller-owned buffer.
type ApplyIntoer interface {
	ApplyInto(yTrue, yPred, dst []float32) error
}

// crossEntropyEps keeps ln() finite at p = 0 and p = 1.
const crossEntropyEps = 1e-7

func checkLengths(name string, yTrue, yPred []float32) error {
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%s: %d targets, %d predictions: %w", name, len(yTrue), len(yPred), ErrLengthMismatch)
	}
	return nil
}

// applyInto runs fn over matched pairs writing into dst.
func applyInto(name string, yTrue, yPred, dst []float32, fn func(t, p float64) float64) error {
	if err := checkLengths(name, yTrue, yPred); err != nil {
		return err
	}
	if len(dst) != len(yTrue) {
		return fmt.Errorf("%s: destination has %d elements, want %d: %w", name, len(dst), len(yTrue), ErrLengthMismatch)
	}
	for i := range yTrue {
		dst[i] = float32(fn(float64(yTrue[i]), float64(yPred[i])))
	}
	return nil
}

func apply(name string, yTrue, yPred []float32, fn func(t, p float64) float64) ([]float32, error) {
	out := make([]float32, len(yPred))
	if err := applyInto(name, yTrue, yPred, out, fn); err != nil {
		return nil, err
	}
	return out, nil
}

// mean averages fn over matched pairs. Empty inputs report 0.
func mean(name string, yTrue, yPred []float32, fn func(t, p float64) float64) (float32, error) {
	if err := checkLengths(name, yTrue, yPred); err != nil {
		return 0, err
	}
	if len(yTrue) == 0 {
		return 0, nil
	}
	var sum float64
	for i := range yTrue {
		sum += fn(float64(yTrue[i]), float64(yPred[i]))
	}
	return float32(sum / float64(len(yTrue))), nil
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

func mseGrad(t, p float64) float64   { return 2 * (p - t) }
func squaredErr(t, p float64) float64 { return (p - t) * (p - t) }

// Apply computes the gradient of squared error: 2 * (y_pred - y_true)
func (MSE) Apply(yTrue, yPred []float32) ([]float32, error) {
	return apply("MSE", yTrue, yPred, mseGrad)
}

// ApplyInto computes Apply into dst.
func (MSE) ApplyInto(yTrue, yPred, dst []float32) error {
	return applyInto("MSE", yTrue, yPred, dst, mseGrad)
}

// Report computes mean((y_pred - y_true)^2)
func (MSE) Report(yTrue, yPred []float32) (float32, error) {
	return mean("MSE", yTrue, yPred, squaredErr)
}

func (MSE) Name() string { return "mse" }

func crossEntropy(t, p float64) float64 {
	p = math.Min(math.Max(p, crossEntropyEps), 1-crossEntropyEps)
	return -t*math.Log(p) - (1-t)*math.Log(1-p)
}

// CrossEntropy loss: -t*ln(p) - (1-t)*ln(1-p) per element, with p clipped to
// [1e-7, 1-1e-7] so that confident predictions give a large finite loss.
type CrossEntropy struct{}

func (CrossEntropy) Apply(yTrue, yPred []float32) ([]float32, error) {
	return apply("CrossEntropy", yTrue, yPred, crossEntropy)
}

func (CrossEntropy) ApplyInto(yTrue, yPred, dst []float32) error {
	return applyInto("CrossEntropy", yTrue, yPred, dst, crossEntropy)
}

func (CrossEntropy) Report(yTrue, yPred []float32) (float32, error) {
	return mean("CrossEntropy", yTrue, yPred, crossEntropy)
}

func (CrossEntropy) Name() string { return "crossentropy" }

// BinaryCrossEntropy is computed exactly like CrossEntropy.
type BinaryCrossEntropy struct{}

func (BinaryCrossEntropy) Apply(yTrue, yPred []float32) ([]float32, error) {
	return apply("BinaryCrossEntropy", yTrue, yPred, crossEntropy)
}

func (BinaryCrossEntropy) ApplyInto(yTrue, yPred, dst []float32) error {
	return applyInto("BinaryCrossEntropy", yTrue, yPred, dst, crossEntropy)
}

func (BinaryCrossEntropy) Report(yTrue, yPred []float32) (float32, error) {
	return mean("BinaryCrossEntropy", yTrue, yPred, crossEntropy)
}

func (BinaryCrossEntropy) Name() string { return "binarycrossentropy" }

func absDiff(t, p float64) float64 { return math.Abs(t - p) }

// Difference is the absolute error |t - p|.
type Difference struct{}

func (Difference) Apply(yTrue, yPred []float32) ([]float32, error) {
	return apply("Difference", yTrue, yPred, absDiff)
}

func (Difference) ApplyInto(yTrue, yPred, dst []float32) error {
	return applyInto("Difference", yTrue, yPred, dst, absDiff)
}

func (Difference) Report(yTrue, yPred []float32) (float32, error) {
	return mean("Difference", yTrue, yPred, absDiff)
}

func (Difference) Name() string { return "difference" }

func hinge(t, p float64) float64 { return math.Max(0, 1-t*p) }

// Hinge loss: max(0, 1 - t*p).
type Hinge struct{}

func (Hinge) Apply(yTrue, yPred []float32) ([]float32, error) {
	return apply("Hinge", yTrue, yPred, hinge)
}

func (Hinge) ApplyInto(yTrue, yPred, dst []float32) error {
	return applyInto("Hinge", yTrue, yPred, dst, hinge)
}

func (Hinge) Report(yTrue, yPred []float32) (float32, error) {
	return mean("Hinge", yTrue, yPred, hinge)
}

func (Hinge) Name() string { return "hinge" }

// huberDelta is the quadratic/linear transition point.
const huberDelta = 1.0

func huber(t, p float64) float64 {
	e := math.Abs(t - p)
	if e <= huberDelta {
		return 0.5 * e * e
	}
	return huberDelta * (e - 0.5*huberDelta)
}

// Huber loss with delta = 1: quadratic for small errors, linear above.
type Huber struct{}

func (Huber) Apply(yTrue, yPred []float32) ([]float32, error) {
	return apply("Huber", yTrue, yPred, huber)
}

func (Huber) ApplyInto(yTrue, yPred, dst []float32) error {
	return applyInto("Huber", yTrue, yPred, dst, huber)
}

func (Huber) Report(yTrue, yPred []float32) (float32, error) {
	return mean("Huber", yTrue, yPred, huber)
}

func (Huber) Name() string { return "huber" }

// All lists every supported loss.
func All() []Loss {
	return []Loss{MSE{}, CrossEntropy{}, BinaryCrossEntropy{}, Difference{}, Hinge{}, Huber{}}
}

// Parse returns the loss named name, ignoring case, '-' and '_'.
func Parse(name string) (Loss, error) {
	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(name))
	if key == "bce" {
		key = "binarycrossentropy"
	}
	for _, l := range All() {
		if l.Name() == key {
			return l, nil
		}
	}
	return nil, fmt.Errorf("unknown loss %q", name)
}
