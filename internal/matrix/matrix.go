// Package matrix provides a row-major float32 matrix with the arithmetic needed
// to train dense networks.
package matrix

import (
	"fmt"
	"math"
	"strings"

	"github.com/FlavioCFOliveira/GoPerceptron/internal/rng"
	"gonum.org/v1/gonum/mat"
)

// Shape is the (rows, columns) size of a matrix.
type Shape struct {
	Rows int
	Cols int
}

// Size returns Rows*Cols.
func (s Shape) Size() int {
	return s.Rows * s.Cols
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d)", s.Rows, s.Cols)
}

// Matrix is a dense row-major matrix.
// Element (r, c) lives at data[r*Cols+c]; len(data) == Rows*Cols always holds.
type Matrix struct {
	data  []float32
	shape Shape
}

// New returns a zero-filled rows x cols matrix.
func New(rows, cols int) *Matrix {
	return &Matrix{
		data:  make([]float32, rows*cols),
		shape: Shape{Rows: rows, Cols: cols},
	}
}

// Zeros is an alias of New.
func Zeros(rows, cols int) *Matrix {
	return New(rows, cols)
}

// Ones returns a rows x cols matrix filled with 1.
func Ones(rows, cols int) *Matrix {
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = 1
	}
	return m
}

// Random returns a rows x cols matrix with every element drawn uniformly from
// [lo, hi). A nil src uses rng.Default().
func Random(rows, cols int, lo, hi float32, src *rng.Source) *Matrix {
	if src == nil {
		src = rng.Default()
	}
	m := New(rows, cols)
	for i := range m.data {
		m.data[i] = src.Range(lo, hi)
	}
	return m
}

// maxArangeLen bounds the number of elements Arange will allocate.
const maxArangeLen = math.MaxInt32

// Arange returns a 1xN matrix holding start + i*step for every i with
// start + i*step < end. Element i is computed in float64 and rounded, not
// accumulated by repeated addition.
func Arange(start, end, step float32) (*Matrix, error) {
	if !(step > 0) || math.IsInf(float64(step), 1) {
		return nil, fmt.Errorf("arange(%v, %v, %v): %w", start, end, step, ErrInvalidStep)
	}
	lo, hi, st := float64(start), float64(end), float64(step)
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil, fmt.Errorf("arange(%v, %v, %v): %w", start, end, step, ErrInvalidRange)
	}
	if hi <= lo {
		return New(1, 0), nil
	}
	n := math.Ceil((hi - lo) / st)
	if n > maxArangeLen {
		return nil, fmt.Errorf("arange(%v, %v, %v): %.0f elements: %w", start, end, step, n, ErrInvalidRange)
	}
	m := New(1, int(n))
	for i := range m.data {
		m.data[i] = float32(lo + float64(i)*st)
	}
	return m, nil
}

// FromSlice returns a 1xN matrix holding a copy of data.
func FromSlice(data []float32) *Matrix {
	cp := make([]float32, len(data))
	copy(cp, data)
	return &Matrix{data: cp, shape: Shape{Rows: 1, Cols: len(cp)}}
}

// FromRows builds a matrix from nested rows. All rows must have equal length.
func FromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	cols := len(rows[0])
	m := New(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), cols, ErrShapeMismatch)
		}
		copy(m.data[i*cols:], row)
	}
	return m, nil
}

// FromDense copies a gonum matrix.
func FromDense(d mat.Matrix) *Matrix {
	r, c := d.Dims()
	m := New(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = float32(d.At(i, j))
		}
	}
	return m
}

// Dense copies m into a gonum matrix. Empty matrices yield nil, as gonum
// does not allow zero-sized dense matrices.
func (m *Matrix) Dense() *mat.Dense {
	if m.shape.Size() == 0 {
		return nil
	}
	data := make([]float64, len(m.data))
	for i, v := range m.data {
		data[i] = float64(v)
	}
	return mat.NewDense(m.shape.Rows, m.shape.Cols, data)
}

func (m *Matrix) Rows() int    { return m.shape.Rows }
func (m *Matrix) Cols() int    { return m.shape.Cols }
func (m *Matrix) Shape() Shape { return m.shape }
func (m *Matrix) Len() int     { return len(m.data) }

// IsEmpty reports whether the matrix holds no elements.
func (m *Matrix) IsEmpty() bool {
	return len(m.data) == 0
}

// Raw returns the backing slice. Writes through it are visible in m.
func (m *Matrix) Raw() []float32 {
	return m.data
}

// Values returns a copy of the elements in row-major order.
func (m *Matrix) Values() []float32 {
	cp := make([]float32, len(m.data))
	copy(cp, m.data)
	return cp
}

// At returns element (r, c).
func (m *Matrix) At(r, c int) (float32, error) {
	if err := m.checkIndex(r, c); err != nil {
		return 0, err
	}
	return m.data[r*m.shape.Cols+c], nil
}

// Set stores v at (r, c).
func (m *Matrix) Set(r, c int, v float32) error {
	if err := m.checkIndex(r, c); err != nil {
		return err
	}
	m.data[r*m.shape.Cols+c] = v
	return nil
}

func (m *Matrix) checkIndex(r, c int) error {
	if r < 0 || c < 0 || r >= m.shape.Rows || c >= m.shape.Cols {
		return fmt.Errorf("(%d, %d) in %v: %w", r, c, m.shape, ErrOutOfBounds)
	}
	return nil
}

// Row returns a 1xCols copy of row r.
func (m *Matrix) Row(r int) (*Matrix, error) {
	if r < 0 || r >= m.shape.Rows {
		return nil, fmt.Errorf("row %d in %v: %w", r, m.shape, ErrOutOfBounds)
	}
	c := m.shape.Cols
	return FromSlice(m.data[r*c : (r+1)*c]), nil
}

// Reshape reinterprets the buffer as rows x cols in place and returns m.
func (m *Matrix) Reshape(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 || rows*cols != len(m.data) {
		return nil, shapeError("reshape", m.shape, Shape{Rows: rows, Cols: cols})
	}
	m.shape = Shape{Rows: rows, Cols: cols}
	return m, nil
}

// Flatten reshapes m to 1xLen in place and returns m.
func (m *Matrix) Flatten() *Matrix {
	m.shape = Shape{Rows: 1, Cols: len(m.data)}
	return m
}

// Transpose returns a new matrix with rows and columns swapped.
func (m *Matrix) Transpose() *Matrix {
	rows, cols := m.shape.Rows, m.shape.Cols
	t := New(cols, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			t.data[j*rows+i] = m.data[i*cols+j]
		}
	}
	return t
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{data: m.Values(), shape: m.shape}
}

// Equal reports whether both matrices have the same shape and elements.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.shape != other.shape {
		return false
	}
	for i, v := range m.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}

// Map returns a new matrix with fn applied to every element.
func (m *Matrix) Map(fn func(float32) float32) *Matrix {
	out := &Matrix{data: make([]float32, len(m.data)), shape: m.shape}
	for i, v := range m.data {
		out.data[i] = fn(v)
	}
	return out
}

// String formats one bracketed row per line.
func (m *Matrix) String() string {
	var sb strings.Builder
	for i := 0; i < m.shape.Rows; i++ {
		sb.WriteByte('[')
		for j := 0; j < m.shape.Cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%v", m.data[i*m.shape.Cols+j])
		}
		sb.WriteByte(']')
		if i < m.shape.Rows-1 {
			sb.WriteString(",\n")
		}
	}
	return sb.String()
}
