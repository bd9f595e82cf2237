package tensor

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/exp/rand"
)

// Matrix represents a 2D matrix of float64 values
type Matrix struct {
	Rows int
	Cols int
	Data [][]float64
}

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(1))
)

// Seed reseeds the package random source used for matrix initialization
func Seed(seed uint64) {
	rngMu.Lock()
	defer rngMu.Unlock()
	rng = rand.New(rand.NewSource(seed))
}

// NewMatrix creates a new matrix with the specified dimensions.
// Zero-sized dimensions are valid: an empty segment of a sequence
// projects to a matrix with zero rows.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("invalid matrix dimensions: rows=%d, cols=%d (must be non-negative)", rows, cols)
	}

	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
	}

	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: data,
	}, nil
}

// MustNewMatrix creates a new matrix with the specified dimensions
// Panics if dimensions are invalid (use in non-production code only)
func MustNewMatrix(rows, cols int) *Matrix {
	m, err := NewMatrix(rows, cols)
	if err != nil {
		panic(err)
	}
	return m
}

// NewRandomMatrix creates a new matrix with small random values
func NewRandomMatrix(rows, cols int) (*Matrix, error) {
	m, err := NewMatrix(rows, cols)
	if err != nil {
		return nil, err
	}

	rngMu.Lock()
	defer rngMu.Unlock()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			m.Data[i][j] = rng.Float64()*0.2 - 0.1
		}
	}

	return m, nil
}

// MustNewRandomMatrix creates a new matrix with random values
// Panics if dimensions are invalid (use in non-production code only)
func MustNewRandomMatrix(rows, cols int) *Matrix {
	m, err := NewRandomMatrix(rows, cols)
	if err != nil {
		panic(err)
	}
	return m
}

// Clone creates a deep copy of the matrix
func (m *Matrix) Clone() *Matrix {
	clone := MustNewMatrix(m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		copy(clone.Data[i], m.Data[i])
	}
	return clone
}

// MatMul performs matrix multiplication
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot multiply nil matrices")
	}

	if a.Cols != b.Rows {
		return nil, fmt.Errorf("matrix dimensions don't match for multiplication: a(%dx%d), b(%dx%d)",
			a.Rows, a.Cols, b.Rows, b.Cols)
	}

	result, err := NewMatrix(a.Rows, b.Cols)
	if err != nil {
		return nil, err
	}

	for i := 0; i < a.Rows; i++ {
		for j := 0; j < b.Cols; j++ {
			sum := 0.0
			for k := 0; k < a.Cols; k++ {
				sum += a.Data[i][k] * b.Data[k][j]
			}
			result.Data[i][j] = sum
		}
	}

	return result, nil
}

// MustMatMul performs matrix multiplication
// Panics if an error occurs (use in non-production code only)
func MustMatMul(a, b *Matrix) *Matrix {
	result, err := MatMul(a, b)
	if err != nil {
		panic(err)
	}
	return result
}

// Add adds two matrices element-wise
func Add(a, b *Matrix) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot add nil matrices")
	}

	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("matrix dimensions don't match for addition: a(%dx%d), b(%dx%d)",
			a.Rows, a.Cols, b.Rows, b.Cols)
	}

	result, err := NewMatrix(a.Rows, a.Cols)
	if err != nil {
		return nil, err
	}

	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			result.Data[i][j] = a.Data[i][j] + b.Data[i][j]
		}
	}

	return result, nil
}

// Mul multiplies two matrices element-wise
func Mul(a, b *Matrix) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot multiply nil matrices")
	}

	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("matrix dimensions don't match for element-wise multiplication: a(%dx%d), b(%dx%d)",
			a.Rows, a.Cols, b.Rows, b.Cols)
	}

	result, err := NewMatrix(a.Rows, a.Cols)
	if err != nil {
		return nil, err
	}

	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			result.Data[i][j] = a.Data[i][j] * b.Data[i][j]
		}
	}

	return result, nil
}

// ScalarMultiply multiplies every element of the matrix by a scalar
func ScalarMultiply(m *Matrix, scalar float64) *Matrix {
	result := MustNewMatrix(m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			result.Data[i][j] = m.Data[i][j] * scalar
		}
	}
	return result
}

// Transpose returns the transpose of the matrix
func Transpose(m *Matrix) *Matrix {
	result := MustNewMatrix(m.Cols, m.Rows)
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			result.Data[j][i] = m.Data[i][j]
		}
	}
	return result
}

// Softmax applies a numerically stable softmax along each row.
// A row with no columns is returned as-is: there is nothing to normalize.
func Softmax(m *Matrix) *Matrix {
	if m.Cols == 0 {
		return m.Clone()
	}

	result := MustNewMatrix(m.Rows, m.Cols)
	for i := 0; i < m.Rows; i++ {
		// Find max value in row for numerical stability
		max := m.Data[i][0]
		for j := 1; j < m.Cols; j++ {
			if m.Data[i][j] > max {
				max = m.Data[i][j]
			}
		}

		sum := 0.0
		for j := 0; j < m.Cols; j++ {
			result.Data[i][j] = math.Exp(m.Data[i][j] - max)
			sum += result.Data[i][j]
		}

		for j := 0; j < m.Cols; j++ {
			result.Data[i][j] /= sum
		}
	}

	return result
}

// RowSlice returns a copy of rows [start, end) of the matrix
func (m *Matrix) RowSlice(start, end int) (*Matrix, error) {
	if start < 0 || end > m.Rows || start > end {
		return nil, fmt.Errorf("invalid row slice [%d, %d) for matrix with %d rows", start, end, m.Rows)
	}

	result := MustNewMatrix(end-start, m.Cols)
	for i := start; i < end; i++ {
		copy(result.Data[i-start], m.Data[i])
	}
	return result, nil
}

// ColSlice returns a copy of columns [start, end) of the matrix
func (m *Matrix) ColSlice(start, end int) (*Matrix, error) {
	if start < 0 || end > m.Cols || start > end {
		return nil, fmt.Errorf("invalid column slice [%d, %d) for matrix with %d columns", start, end, m.Cols)
	}

	result := MustNewMatrix(m.Rows, end-start)
	for i := 0; i < m.Rows; i++ {
		copy(result.Data[i], m.Data[i][start:end])
	}
	return result, nil
}

// ConcatRows stacks matrices vertically. All inputs must share a column count;
// zero-row matrices contribute nothing but are legal.
func ConcatRows(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("cannot concatenate zero matrices")
	}

	cols := ms[0].Cols
	rows := 0
	for _, m := range ms {
		if m == nil {
			return nil, fmt.Errorf("cannot concatenate nil matrix")
		}
		if m.Cols != cols {
			return nil, fmt.Errorf("column count mismatch in row concatenation: %d vs %d", m.Cols, cols)
		}
		rows += m.Rows
	}

	result := MustNewMatrix(rows, cols)
	offset := 0
	for _, m := range ms {
		for i := 0; i < m.Rows; i++ {
			copy(result.Data[offset+i], m.Data[i])
		}
		offset += m.Rows
	}
	return result, nil
}

// ConcatCols stacks matrices horizontally. All inputs must share a row count.
func ConcatCols(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("cannot concatenate zero matrices")
	}

	rows := ms[0].Rows
	cols := 0
	for _, m := range ms {
		if m == nil {
			return nil, fmt.Errorf("cannot concatenate nil matrix")
		}
		if m.Rows != rows {
			return nil, fmt.Errorf("row count mismatch in column concatenation: %d vs %d", m.Rows, rows)
		}
		cols += m.Cols
	}

	result := MustNewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		offset := 0
		for _, m := range ms {
			copy(result.Data[i][offset:offset+m.Cols], m.Data[i])
			offset += m.Cols
		}
	}
	return result, nil
}

// AppendRow returns a copy of the matrix with one extra row appended
func (m *Matrix) AppendRow(row []float64) (*Matrix, error) {
	if len(row) != m.Cols {
		return nil, fmt.Errorf("row length %d doesn't match matrix column count %d", len(row), m.Cols)
	}

	result := MustNewMatrix(m.Rows+1, m.Cols)
	for i := 0; i < m.Rows; i++ {
		copy(result.Data[i], m.Data[i])
	}
	copy(result.Data[m.Rows], row)
	return result, nil
}
