package attention

import (
	"fmt"

	"github.com/crossmodal_attention/pkg/tensor"
)

// ProjectionMode tells the forward pass how the query, key and value
// sequences relate, selecting the cheapest input projection. The caller
// declares the relationship explicitly; the numeric result is identical
// on every path.
type ProjectionMode int

const (
	// ProjectionSelf projects query, key and value from one sequence
	// with a single pass over the combined weight.
	ProjectionSelf ProjectionMode = iota
	// ProjectionSharedKV projects the query alone and derives key and
	// value together from a second sequence.
	ProjectionSharedKV
	// ProjectionCross projects query, key and value independently.
	ProjectionCross
)

// String returns a human-readable name for the projection mode
func (pm ProjectionMode) String() string {
	switch pm {
	case ProjectionSelf:
		return "self"
	case ProjectionSharedKV:
		return "shared-kv"
	case ProjectionCross:
		return "cross"
	default:
		return fmt.Sprintf("ProjectionMode(%d)", int(pm))
	}
}

func (pm ProjectionMode) valid() bool {
	return pm >= ProjectionSelf && pm <= ProjectionCross
}

// inProj applies rows [start, end) of the combined in-projection weight
// (and bias, when present) to every batch element of the input:
// out = x @ W[start:end]^T + b[start:end].
func (sa *SegmentedAttention) inProj(x *tensor.Sequence, start, end int) (*tensor.Sequence, error) {
	if start < 0 || end > sa.InProjWeight.Rows || start > end {
		return nil, fmt.Errorf("invalid in-projection slice [%d, %d) for combined weight with %d rows",
			start, end, sa.InProjWeight.Rows)
	}
	if x.Dim != sa.EmbedDim {
		return nil, fmt.Errorf("in-projection input dimension mismatch: got %d, expected %d", x.Dim, sa.EmbedDim)
	}

	outDim := end - start
	result, err := tensor.NewSequence(x.Len, x.Batch, outDim)
	if err != nil {
		return nil, err
	}

	for b := 0; b < x.Batch; b++ {
		in := x.Data[b]
		out := result.Data[b]
		for i := 0; i < in.Rows; i++ {
			for j := 0; j < outDim; j++ {
				sum := 0.0
				for k := 0; k < sa.EmbedDim; k++ {
					sum += in.Data[i][k] * sa.InProjWeight.Data[start+j][k]
				}
				if sa.InProjBias != nil {
					sum += sa.InProjBias.Data[0][start+j]
				}
				out.Data[i][j] = sum
			}
		}
	}

	return result, nil
}

// chunkColumns splits a projected sequence into n equal column chunks
func chunkColumns(s *tensor.Sequence, n int) ([]*tensor.Sequence, error) {
	if n <= 0 || s.Dim%n != 0 {
		return nil, fmt.Errorf("cannot split dimension %d into %d equal chunks", s.Dim, n)
	}

	chunkDim := s.Dim / n
	chunks := make([]*tensor.Sequence, n)
	for c := 0; c < n; c++ {
		chunk, err := tensor.NewSequence(s.Len, s.Batch, chunkDim)
		if err != nil {
			return nil, err
		}
		for b := 0; b < s.Batch; b++ {
			sliced, err := s.Data[b].ColSlice(c*chunkDim, (c+1)*chunkDim)
			if err != nil {
				return nil, err
			}
			chunk.Data[b] = sliced
		}
		chunks[c] = chunk
	}
	return chunks, nil
}

// projectQKV produces the query, key and value projections according to
// the declared projection mode. The fused paths compute one combined
// matrix product and split the result; they exist as an optimization
// only and must match the independent path numerically.
func (sa *SegmentedAttention) projectQKV(query, key, value *tensor.Sequence, mode ProjectionMode) (q, k, v *tensor.Sequence, err error) {
	switch mode {
	case ProjectionSelf:
		qkv, err := sa.inProj(query, 0, 3*sa.EmbedDim)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fused qkv projection failed: %v", err)
		}
		chunks, err := chunkColumns(qkv, 3)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to split fused qkv projection: %v", err)
		}
		return chunks[0], chunks[1], chunks[2], nil

	case ProjectionSharedKV:
		q, err := sa.inProj(query, 0, sa.EmbedDim)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("query projection failed: %v", err)
		}
		kv, err := sa.inProj(key, sa.EmbedDim, 3*sa.EmbedDim)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fused kv projection failed: %v", err)
		}
		chunks, err := chunkColumns(kv, 2)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to split fused kv projection: %v", err)
		}
		return q, chunks[0], chunks[1], nil

	case ProjectionCross:
		q, err := sa.inProj(query, 0, sa.EmbedDim)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("query projection failed: %v", err)
		}
		k, err := sa.inProj(key, sa.EmbedDim, 2*sa.EmbedDim)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("key projection failed: %v", err)
		}
		v, err := sa.inProj(value, 2*sa.EmbedDim, 3*sa.EmbedDim)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("value projection failed: %v", err)
		}
		return q, k, v, nil

	default:
		return nil, nil, nil, fmt.Errorf("unrecognized projection mode: %v", mode)
	}
}
