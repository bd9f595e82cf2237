package nn

import (
	"fmt"

	"github.com/crossmodal_attention/pkg/tensor"
)

// Linear represents an affine transformation x @ W^T + b. The weight is
// stored as (outDim x inDim) so that row slices of a combined weight
// select independent projections.
type Linear struct {
	InDim  int
	OutDim int
	Weight *tensor.Matrix
	Bias   *tensor.Matrix // (1 x outDim), nil when the layer has no bias
}

// NewLinear creates a new linear layer with random weights
func NewLinear(inDim, outDim int, bias bool) (*Linear, error) {
	if inDim <= 0 || outDim <= 0 {
		return nil, fmt.Errorf("invalid linear dimensions: in=%d, out=%d (must be positive)", inDim, outDim)
	}

	weight, err := tensor.NewRandomMatrix(outDim, inDim)
	if err != nil {
		return nil, fmt.Errorf("failed to create linear weight: %v", err)
	}

	var b *tensor.Matrix
	if bias {
		b, err = tensor.NewMatrix(1, outDim)
		if err != nil {
			return nil, fmt.Errorf("failed to create linear bias: %v", err)
		}
	}

	return &Linear{
		InDim:  inDim,
		OutDim: outDim,
		Weight: weight,
		Bias:   b,
	}, nil
}

// Forward applies the affine transformation to every row of the input
func (l *Linear) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	if input == nil {
		return nil, fmt.Errorf("linear input cannot be nil")
	}
	if input.Cols != l.InDim {
		return nil, fmt.Errorf("linear input dimension mismatch: got %d, expected %d", input.Cols, l.InDim)
	}

	output, err := tensor.NewMatrix(input.Rows, l.OutDim)
	if err != nil {
		return nil, err
	}

	for i := 0; i < input.Rows; i++ {
		for j := 0; j < l.OutDim; j++ {
			sum := 0.0
			for k := 0; k < l.InDim; k++ {
				sum += input.Data[i][k] * l.Weight.Data[j][k]
			}
			if l.Bias != nil {
				sum += l.Bias.Data[0][j]
			}
			output.Data[i][j] = sum
		}
	}

	return output, nil
}
