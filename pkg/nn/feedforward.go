package nn

import (
	"fmt"

	"github.com/crossmodal_attention/pkg/tensor"
)

// FeedForward represents a position-wise feed-forward network with a
// ReLU activation between two linear transformations
type FeedForward struct {
	InputDim  int
	HiddenDim int
	W1        *Linear
	W2        *Linear
}

// NewFeedForward creates a new feed-forward network
func NewFeedForward(inputDim, hiddenDim int) (*FeedForward, error) {
	w1, err := NewLinear(inputDim, hiddenDim, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create first feed-forward layer: %v", err)
	}
	w2, err := NewLinear(hiddenDim, inputDim, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create second feed-forward layer: %v", err)
	}

	return &FeedForward{
		InputDim:  inputDim,
		HiddenDim: hiddenDim,
		W1:        w1,
		W2:        w2,
	}, nil
}

// Forward performs the feed-forward operation
func (ff *FeedForward) Forward(input *tensor.Matrix) (*tensor.Matrix, error) {
	hidden, err := ff.W1.Forward(input)
	if err != nil {
		return nil, fmt.Errorf("first feed-forward transformation failed: %v", err)
	}

	// Apply ReLU activation
	for i := 0; i < hidden.Rows; i++ {
		for j := 0; j < hidden.Cols; j++ {
			if hidden.Data[i][j] < 0 {
				hidden.Data[i][j] = 0
			}
		}
	}

	output, err := ff.W2.Forward(hidden)
	if err != nil {
		return nil, fmt.Errorf("second feed-forward transformation failed: %v", err)
	}

	return output, nil
}
