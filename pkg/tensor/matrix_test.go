package tensor

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func matricesClose(a, b *Matrix, tol float64) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	for i := 0; i < a.Rows; i++ {
		for j := 0; j < a.Cols; j++ {
			if math.Abs(a.Data[i][j]-b.Data[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func TestNewMatrixRejectsNegativeDimensions(t *testing.T) {
	if _, err := NewMatrix(-1, 3); err == nil {
		t.Error("expected error for negative row count")
	}
	if _, err := NewMatrix(3, -1); err == nil {
		t.Error("expected error for negative column count")
	}
}

func TestNewMatrixAllowsZeroDimensions(t *testing.T) {
	m, err := NewMatrix(0, 4)
	if err != nil {
		t.Fatalf("NewMatrix(0, 4) returned an error: %v", err)
	}
	if m.Rows != 0 || m.Cols != 4 {
		t.Errorf("got shape (%d, %d), expected (0, 4)", m.Rows, m.Cols)
	}
}

func TestMatMul(t *testing.T) {
	a := MustNewMatrix(2, 3)
	a.Data = [][]float64{{1, 2, 3}, {4, 5, 6}}
	b := MustNewMatrix(3, 2)
	b.Data = [][]float64{{7, 8}, {9, 10}, {11, 12}}

	result, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul returned an error: %v", err)
	}

	expected := [][]float64{{58, 64}, {139, 154}}
	for i := range expected {
		for j := range expected[i] {
			if math.Abs(result.Data[i][j]-expected[i][j]) > epsilon {
				t.Errorf("result[%d][%d] = %f, expected %f", i, j, result.Data[i][j], expected[i][j])
			}
		}
	}
}

func TestMatMulDimensionMismatch(t *testing.T) {
	a := MustNewMatrix(2, 3)
	b := MustNewMatrix(2, 3)
	if _, err := MatMul(a, b); err == nil {
		t.Error("expected error for mismatched inner dimensions")
	}
}

func TestMatMulZeroRows(t *testing.T) {
	a := MustNewMatrix(0, 3)
	b := MustNewMatrix(3, 2)
	result, err := MatMul(a, b)
	if err != nil {
		t.Fatalf("MatMul with zero-row operand returned an error: %v", err)
	}
	if result.Rows != 0 || result.Cols != 2 {
		t.Errorf("got shape (%d, %d), expected (0, 2)", result.Rows, result.Cols)
	}
}

func TestTranspose(t *testing.T) {
	m := MustNewMatrix(2, 3)
	m.Data = [][]float64{{1, 2, 3}, {4, 5, 6}}

	result := Transpose(m)
	if result.Rows != 3 || result.Cols != 2 {
		t.Fatalf("got shape (%d, %d), expected (3, 2)", result.Rows, result.Cols)
	}
	if result.Data[2][1] != 6 || result.Data[0][1] != 4 {
		t.Errorf("transpose values incorrect: %v", result.Data)
	}
}

func TestSoftmaxRowsSumToOne(t *testing.T) {
	m := MustNewMatrix(3, 4)
	m.Data = [][]float64{
		{1, 2, 3, 4},
		{-1, 0, 1, 2},
		{100, 100, 100, 100},
	}

	result := Softmax(m)
	for i := 0; i < result.Rows; i++ {
		sum := 0.0
		for j := 0; j < result.Cols; j++ {
			if result.Data[i][j] < 0 {
				t.Errorf("softmax produced negative value at (%d, %d)", i, j)
			}
			sum += result.Data[i][j]
		}
		if math.Abs(sum-1.0) > epsilon {
			t.Errorf("row %d sums to %f, expected 1", i, sum)
		}
	}
}

func TestSoftmaxLargeValuesStable(t *testing.T) {
	m := MustNewMatrix(1, 3)
	m.Data = [][]float64{{1000, 1001, 1002}}

	result := Softmax(m)
	sum := 0.0
	for j := 0; j < result.Cols; j++ {
		if math.IsNaN(result.Data[0][j]) || math.IsInf(result.Data[0][j], 0) {
			t.Fatalf("softmax overflowed at column %d", j)
		}
		sum += result.Data[0][j]
	}
	if math.Abs(sum-1.0) > epsilon {
		t.Errorf("row sums to %f, expected 1", sum)
	}
}

func TestSoftmaxEmptyMatrix(t *testing.T) {
	m := MustNewMatrix(0, 5)
	result := Softmax(m)
	if result.Rows != 0 || result.Cols != 5 {
		t.Errorf("got shape (%d, %d), expected (0, 5)", result.Rows, result.Cols)
	}

	n := MustNewMatrix(3, 0)
	result = Softmax(n)
	if result.Rows != 3 || result.Cols != 0 {
		t.Errorf("got shape (%d, %d), expected (3, 0)", result.Rows, result.Cols)
	}
}

func TestRowSlice(t *testing.T) {
	m := MustNewMatrix(4, 2)
	for i := 0; i < 4; i++ {
		m.Data[i][0] = float64(i)
	}

	sliced, err := m.RowSlice(1, 3)
	if err != nil {
		t.Fatalf("RowSlice returned an error: %v", err)
	}
	if sliced.Rows != 2 || sliced.Data[0][0] != 1 || sliced.Data[1][0] != 2 {
		t.Errorf("sliced rows incorrect: %v", sliced.Data)
	}

	empty, err := m.RowSlice(2, 2)
	if err != nil {
		t.Fatalf("empty RowSlice returned an error: %v", err)
	}
	if empty.Rows != 0 {
		t.Errorf("empty slice has %d rows, expected 0", empty.Rows)
	}

	if _, err := m.RowSlice(3, 5); err == nil {
		t.Error("expected error for out-of-range slice")
	}
}

func TestColSlice(t *testing.T) {
	m := MustNewMatrix(2, 4)
	m.Data = [][]float64{{0, 1, 2, 3}, {4, 5, 6, 7}}

	sliced, err := m.ColSlice(1, 3)
	if err != nil {
		t.Fatalf("ColSlice returned an error: %v", err)
	}
	if sliced.Cols != 2 || sliced.Data[0][0] != 1 || sliced.Data[1][1] != 6 {
		t.Errorf("sliced columns incorrect: %v", sliced.Data)
	}
}

func TestConcatRows(t *testing.T) {
	a := MustNewMatrix(2, 2)
	a.Data = [][]float64{{1, 2}, {3, 4}}
	b := MustNewMatrix(0, 2)
	c := MustNewMatrix(1, 2)
	c.Data = [][]float64{{5, 6}}

	result, err := ConcatRows(a, b, c)
	if err != nil {
		t.Fatalf("ConcatRows returned an error: %v", err)
	}
	if result.Rows != 3 {
		t.Fatalf("got %d rows, expected 3", result.Rows)
	}
	if result.Data[2][1] != 6 {
		t.Errorf("concatenated values incorrect: %v", result.Data)
	}

	d := MustNewMatrix(1, 3)
	if _, err := ConcatRows(a, d); err == nil {
		t.Error("expected error for column count mismatch")
	}
}

func TestConcatCols(t *testing.T) {
	a := MustNewMatrix(2, 1)
	a.Data = [][]float64{{1}, {2}}
	b := MustNewMatrix(2, 2)
	b.Data = [][]float64{{3, 4}, {5, 6}}

	result, err := ConcatCols(a, b)
	if err != nil {
		t.Fatalf("ConcatCols returned an error: %v", err)
	}
	if result.Cols != 3 || result.Data[1][2] != 6 {
		t.Errorf("concatenated values incorrect: %v", result.Data)
	}
}

func TestAppendRow(t *testing.T) {
	m := MustNewMatrix(2, 2)
	m.Data = [][]float64{{1, 2}, {3, 4}}

	result, err := m.AppendRow([]float64{5, 6})
	if err != nil {
		t.Fatalf("AppendRow returned an error: %v", err)
	}
	if result.Rows != 3 || result.Data[2][0] != 5 {
		t.Errorf("appended row incorrect: %v", result.Data)
	}

	if _, err := m.AppendRow([]float64{1}); err == nil {
		t.Error("expected error for wrong row length")
	}
}

func TestAddAndMul(t *testing.T) {
	a := MustNewMatrix(2, 2)
	a.Data = [][]float64{{1, 2}, {3, 4}}
	b := MustNewMatrix(2, 2)
	b.Data = [][]float64{{5, 6}, {7, 8}}

	sum, err := Add(a, b)
	if err != nil {
		t.Fatalf("Add returned an error: %v", err)
	}
	if sum.Data[1][1] != 12 {
		t.Errorf("sum incorrect: %v", sum.Data)
	}

	prod, err := Mul(a, b)
	if err != nil {
		t.Fatalf("Mul returned an error: %v", err)
	}
	if prod.Data[1][1] != 32 {
		t.Errorf("element-wise product incorrect: %v", prod.Data)
	}
}
