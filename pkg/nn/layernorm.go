package nn

import (
	"fmt"
	"math"

	"github.com/crossmodal_attention/pkg/tensor"
)

// LayerNorm represents a layer normalization component
type LayerNorm struct {
	Dim     int
	Epsilon float64
	Gamma   *tensor.Matrix
	Beta    *tensor.Matrix
}

// NewLayerNorm creates a new layer normalization component
func NewLayerNorm(dim int) (*LayerNorm, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid layer norm dimension: %d (must be positive)", dim)
	}

	gamma := tensor.MustNewMatrix(1, dim)
	beta := tensor.MustNewMatrix(1, dim)

	// Initialize gamma to ones and beta to zeros
	for i := 0; i < dim; i++ {
		gamma.Data[0][i] = 1.0
	}

	return &LayerNorm{
		Dim:     dim,
		Epsilon: 1e-5,
		Gamma:   gamma,
		Beta:    beta,
	}, nil
}

// Forward applies layer normalization to each row of the input
func (ln *LayerNorm) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	if input == nil {
		return nil, fmt.Errorf("layer norm input cannot be nil")
	}
	if input.Cols != ln.Dim {
		return nil, fmt.Errorf("layer norm dimension mismatch: got %d, expected %d", input.Cols, ln.Dim)
	}

	output := tensor.MustNewMatrix(input.Rows, input.Cols)

	for i := 0; i < input.Rows; i++ {
		mean := 0.0
		for j := 0; j < input.Cols; j++ {
			mean += input.Data[i][j]
		}
		mean /= float64(input.Cols)

		variance := 0.0
		for j := 0; j < input.Cols; j++ {
			diff := input.Data[i][j] - mean
			variance += diff * diff
		}
		variance /= float64(input.Cols)

		for j := 0; j < input.Cols; j++ {
			normalized := (input.Data[i][j] - mean) / math.Sqrt(variance+ln.Epsilon)
			output.Data[i][j] = normalized*ln.Gamma.Data[0][j] + ln.Beta.Data[0][j]
		}
	}

	return output, nil
}
