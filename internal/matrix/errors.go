package matrix

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch = errors.New("matrix dimensions do not match")
	ErrOutOfBounds   = errors.New("index out of bounds")
	ErrInvalidStep   = errors.New("arange step must be positive")
	ErrInvalidRange  = errors.New("arange bounds must be finite and span at most MaxInt32 steps")
)

// ShapeError reports the operation and operand shapes of a failed operation.
type ShapeError struct {
	Op    string
	Left  Shape
	Right Shape
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v vs %v: %v", e.Op, e.Left, e.Right, ErrShapeMismatch)
}

// Unwrap lets errors.Is match ErrShapeMismatch.
func (e *ShapeError) Unwrap() error {
	return ErrShapeMismatch
}

func shapeError(op string, left, right Shape) error {
	return &ShapeError{Op: op, Left: left, Right: right}
}
