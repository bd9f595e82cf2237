package attention

import (
	"fmt"

	"github.com/crossmodal_attention/pkg/tensor"
)

// negInf stands in for negative infinity in additive masks
const negInf = -1e9

// MaskMode selects which adjacency structure BuildSegmentMask encodes
type MaskMode int

const (
	// MaskCross blocks attention inside each segment and, depending on
	// the direction, one further segment per row group.
	MaskCross MaskMode = iota
	// MaskSelf is the complement: attention is allowed only inside the
	// row's own segment.
	MaskSelf
)

// String returns a human-readable name for the mask mode
func (mm MaskMode) String() string {
	switch mm {
	case MaskCross:
		return "cross"
	case MaskSelf:
		return "self"
	default:
		return fmt.Sprintf("MaskMode(%d)", int(mm))
	}
}

// PairMasks supplies one multiplicative mask per segment pair. The
// forward pass multiplies each pair's post-softmax attention weights by
// its mask elementwise; a single broadcast mask cannot fit three
// differently-shaped pairs, so the caller provides all three explicitly.
type PairMasks struct {
	masks [3]*tensor.Matrix
}

// NewPairMasks creates per-pair masks in pair order (the S1, S2 and S3
// query segments). All three masks must be non-nil.
func NewPairMasks(first, second, third *tensor.Matrix) (*PairMasks, error) {
	for i, m := range []*tensor.Matrix{first, second, third} {
		if m == nil {
			return nil, fmt.Errorf("mask for pair %d cannot be nil", i)
		}
	}
	return &PairMasks{masks: [3]*tensor.Matrix{first, second, third}}, nil
}

// Pair returns the mask for the given pair index
func (pm *PairMasks) Pair(i int) *tensor.Matrix {
	return pm.masks[i]
}

// BuildSegmentMask builds a static additive mask over the full combined
// sequence for visualization and debugging: blocked positions hold a
// large negative value, allowed positions hold zero. In MaskCross mode
// the direction must be Forward or Backward; MaskSelf ignores the
// direction and allows only within-segment attention.
func BuildSegmentMask(split SeqSplit, mode MaskMode, direction Direction) (*tensor.Matrix, error) {
	sumLen := split.Sum()
	if err := split.Validate(sumLen); err != nil {
		return nil, err
	}

	spans := split.spans()
	lengths := [3]int{split.Text, split.Vision, split.Audio}

	// Row groups follow segment order; each row starts fully allowed,
	// then blocks its own segment plus the direction-dependent one.
	allowed := tensor.MustNewMatrix(sumLen, sumLen)
	row := 0
	for idx := 0; idx < 3; idx++ {
		for r := 0; r < lengths[idx]; r++ {
			for j := 0; j < sumLen; j++ {
				allowed.Data[row][j] = 1.0
			}
			blockSpan(allowed.Data[row], spans[idx])
			switch idx {
			case 0:
				if direction == DirectionForward {
					blockSpan(allowed.Data[row], span{Start: spans[2].Start, End: sumLen})
				} else if direction == DirectionBackward {
					blockSpan(allowed.Data[row], spans[1])
				}
			case 1:
				if direction == DirectionForward {
					blockSpan(allowed.Data[row], span{Start: spans[2].Start, End: sumLen})
				} else if direction == DirectionBackward {
					blockSpan(allowed.Data[row], spans[0])
				}
			case 2:
				if direction == DirectionForward {
					blockSpan(allowed.Data[row], spans[0])
				} else if direction == DirectionBackward {
					blockSpan(allowed.Data[row], spans[1])
				}
			}
			row++
		}
	}

	switch mode {
	case MaskCross:
		if direction != DirectionForward && direction != DirectionBackward {
			return nil, fmt.Errorf("cross mask requires direction forward or backward, got %v", direction)
		}
		return additiveFromAllowed(allowed), nil
	case MaskSelf:
		// Invert: only the blocked positions of the cross layout remain
		for i := 0; i < allowed.Rows; i++ {
			for j := 0; j < allowed.Cols; j++ {
				allowed.Data[i][j] = 1.0 - allowed.Data[i][j]
			}
		}
		return additiveFromAllowed(allowed), nil
	default:
		return nil, fmt.Errorf("unrecognized mask mode: %v", mode)
	}
}

func blockSpan(row []float64, s span) {
	for j := s.Start; j < s.End && j < len(row); j++ {
		row[j] = 0.0
	}
}

// additiveFromAllowed maps an allow-matrix (1 allowed, 0 blocked) to an
// additive mask (0 allowed, negInf blocked)
func additiveFromAllowed(allowed *tensor.Matrix) *tensor.Matrix {
	mask := tensor.MustNewMatrix(allowed.Rows, allowed.Cols)
	for i := 0; i < allowed.Rows; i++ {
		for j := 0; j < allowed.Cols; j++ {
			if allowed.Data[i][j] == 0 {
				mask.Data[i][j] = negInf
			}
		}
	}
	return mask
}
