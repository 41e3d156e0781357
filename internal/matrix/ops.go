package matrix

// elementwise applies fn pairwise. Shapes must be identical; there is no broadcasting.
func (m *Matrix) elementwise(op string, other *Matrix, fn func(a, b float32) float32) (*Matrix, error) {
	if m.shape != other.shape {
		return nil, shapeError(op, m.shape, other.shape)
	}
	out := &Matrix{data: make([]float32, len(m.data)), shape: m.shape}
	for i, a := range m.data {
		out.data[i] = fn(a, other.data[i])
	}
	return out, nil
}

// Add returns m + other.
func (m *Matrix) Add(other *Matrix) (*Matrix, error) {
	return m.elementwise("add", other, func(a, b float32) float32 { return a + b })
}

// Sub returns m - other.
func (m *Matrix) Sub(other *Matrix) (*Matrix, error) {
	return m.elementwise("sub", other, func(a, b float32) float32 { return a - b })
}

// Mul returns the Hadamard product of m and other.
func (m *Matrix) Mul(other *Matrix) (*Matrix, error) {
	return m.elementwise("mul", other, func(a, b float32) float32 { return a * b })
}

// Div returns m / other elementwise.
func (m *Matrix) Div(other *Matrix) (*Matrix, error) {
	return m.elementwise("div", other, func(a, b float32) float32 { return a / b })
}

func (m *Matrix) AddScalar(v float32) *Matrix {
	return m.Map(func(a float32) float32 { return a + v })
}

func (m *Matrix) SubScalar(v float32) *Matrix {
	return m.Map(func(a float32) float32 { return a - v })
}

func (m *Matrix) MulScalar(v float32) *Matrix {
	return m.Map(func(a float32) float32 { return a * v })
}

func (m *Matrix) DivScalar(v float32) *Matrix {
	return m.Map(func(a float32) float32 { return a / v })
}

// Dot returns the matrix product m·other.
func (m *Matrix) Dot(other *Matrix) (*Matrix, error) {
	if m.shape.Cols != other.shape.Rows {
		return nil, shapeError("dot", m.shape, other.shape)
	}
	rows, inner, cols := m.shape.Rows, m.shape.Cols, other.shape.Cols
	out := New(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			var sum float32
			for k := 0; k < inner; k++ {
				sum += m.data[i*inner+k] * other.data[k*cols+j]
			}
			out.data[i*cols+j] = sum
		}
	}
	return out, nil
}
