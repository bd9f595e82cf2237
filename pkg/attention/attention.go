package attention

import (
	"fmt"
	"math"

	"github.com/crossmodal_attention/pkg/nn"
	"github.com/crossmodal_attention/pkg/tensor"
)

// Config holds the construction options for a segmented attention layer
type Config struct {
	EmbedDim    int
	NumHeads    int
	AttnDropout float64
	Bias        bool
	AddBiasKV   bool
	AddZeroAttn bool
}

// SegmentedAttention is multi-head attention specialized for a token
// sequence built from three contiguous modality segments (text, vision,
// audio). Instead of full attention over the whole sequence, a Direction
// selects exactly three (query segment, key segment) pairs and each pair
// attends independently.
//
// The layer holds one combined (3*embedDim x embedDim) in-projection
// weight sliced into query, key and value projections, plus a separate
// output projection. Weights are read-only during Forward, so concurrent
// forward calls on one instance are safe.
type SegmentedAttention struct {
	EmbedDim int
	NumHeads int
	HeadDim  int

	InProjWeight *tensor.Matrix // (3*embedDim x embedDim)
	InProjBias   *tensor.Matrix // (1 x 3*embedDim), nil without bias
	OutProj      *nn.Linear

	// BiasK and BiasV are optional learned sentinel key/value positions
	// appended to every batch element. The segment ranges never cover
	// the appended position, so no direction pair attends to it; the
	// fields exist for parity with the non-segmented base case.
	BiasK *tensor.Matrix // (1 x embedDim)
	BiasV *tensor.Matrix // (1 x embedDim)

	AddZeroAttn bool
	DropoutRate float64

	scaling     float64
	attnDropout *nn.Dropout
}

// ForwardOptions carries the per-call options of a segmented forward pass
type ForwardOptions struct {
	// Mode declares how query, key and value relate so the projection
	// can take its fused path. Declaring ProjectionCross is always
	// numerically safe, only slower.
	Mode ProjectionMode

	// Split partitions the sequence into text, vision and audio
	// segments. It must sum to the query length.
	Split SeqSplit

	// Direction selects the cross-modal pair topology.
	Direction Direction

	// MaskFixer optionally supplies one multiplicative mask per segment
	// pair, applied to the attention weights after the softmax.
	MaskFixer *PairMasks

	// EdgeMask is accepted for interface parity with the base attention
	// case and shape-checked, but the segmented pair computation does
	// not consult it.
	EdgeMask *tensor.Matrix

	// Training enables attention dropout.
	Training bool
}

// AttentionStats is a reserved introspection result. The current policy
// set never populates it: Forward always returns a nil stats value.
type AttentionStats struct {
	Weights tensor.Batch
	Summary tensor.Batch
}

// New creates a segmented attention layer, validating the configuration
// eagerly: the embedding dimension must divide evenly across heads and
// the dropout probability must lie in [0, 1).
func New(config Config) (*SegmentedAttention, error) {
	if config.NumHeads <= 0 {
		return nil, fmt.Errorf("number of heads must be positive, got %d", config.NumHeads)
	}
	if config.EmbedDim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", config.EmbedDim)
	}
	if config.EmbedDim%config.NumHeads != 0 {
		return nil, fmt.Errorf("embedding dimension (%d) must be divisible by number of heads (%d)",
			config.EmbedDim, config.NumHeads)
	}
	if config.AttnDropout < 0 || config.AttnDropout >= 1.0 {
		return nil, fmt.Errorf("attention dropout must be in range [0, 1), got %f", config.AttnDropout)
	}

	headDim := config.EmbedDim / config.NumHeads

	inProjWeight, err := tensor.NewRandomMatrix(3*config.EmbedDim, config.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-projection weight: %v", err)
	}

	var inProjBias *tensor.Matrix
	if config.Bias {
		inProjBias, err = tensor.NewMatrix(1, 3*config.EmbedDim)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-projection bias: %v", err)
		}
	}

	outProj, err := nn.NewLinear(config.EmbedDim, config.EmbedDim, config.Bias)
	if err != nil {
		return nil, fmt.Errorf("failed to create output projection: %v", err)
	}

	var biasK, biasV *tensor.Matrix
	if config.AddBiasKV {
		biasK, err = tensor.NewRandomMatrix(1, config.EmbedDim)
		if err != nil {
			return nil, fmt.Errorf("failed to create sentinel key: %v", err)
		}
		biasV, err = tensor.NewRandomMatrix(1, config.EmbedDim)
		if err != nil {
			return nil, fmt.Errorf("failed to create sentinel value: %v", err)
		}
	}

	return &SegmentedAttention{
		EmbedDim:     config.EmbedDim,
		NumHeads:     config.NumHeads,
		HeadDim:      headDim,
		InProjWeight: inProjWeight,
		InProjBias:   inProjBias,
		OutProj:      outProj,
		BiasK:        biasK,
		BiasV:        biasV,
		AddZeroAttn:  config.AddZeroAttn,
		DropoutRate:  config.AttnDropout,
		scaling:      1.0 / math.Sqrt(float64(headDim)),
		attnDropout:  nn.NewDropout(config.AttnDropout),
	}, nil
}

// Forward computes segmented cross-modal attention over a combined
// three-segment sequence of shape (seqLen, batch, embedDim). The output
// has the same shape as the query; the second result is reserved for
// attention-weight introspection and is always nil.
func (sa *SegmentedAttention) Forward(query, key, value *tensor.Sequence, opts ForwardOptions) (*tensor.Sequence, *AttentionStats, error) {
	if query == nil || key == nil || value == nil {
		return nil, nil, fmt.Errorf("query, key and value sequences cannot be nil")
	}
	if query.Dim != sa.EmbedDim {
		return nil, nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", query.Dim, sa.EmbedDim)
	}
	if !key.SameShape(value) {
		return nil, nil, fmt.Errorf("key shape (%d, %d, %d) doesn't match value shape (%d, %d, %d)",
			key.Len, key.Batch, key.Dim, value.Len, value.Batch, value.Dim)
	}
	if key.Batch != query.Batch || key.Dim != query.Dim {
		return nil, nil, fmt.Errorf("key shape (%d, %d, %d) incompatible with query shape (%d, %d, %d)",
			key.Len, key.Batch, key.Dim, query.Len, query.Batch, query.Dim)
	}
	// The segment ranges index query and key rows alike, so the
	// segmented path requires matching sequence lengths.
	if key.Len != query.Len {
		return nil, nil, fmt.Errorf("segmented attention requires matching query and key lengths: got %d and %d",
			query.Len, key.Len)
	}
	if err := opts.Split.Validate(query.Len); err != nil {
		return nil, nil, fmt.Errorf("invalid sequence split: %v", err)
	}
	if !opts.Mode.valid() {
		return nil, nil, fmt.Errorf("unrecognized projection mode: %v", opts.Mode)
	}
	if opts.EdgeMask != nil {
		if opts.EdgeMask.Rows != query.Len || opts.EdgeMask.Cols != key.Len {
			return nil, nil, fmt.Errorf("edge mask shape (%dx%d) doesn't match sequence lengths (%dx%d)",
				opts.EdgeMask.Rows, opts.EdgeMask.Cols, query.Len, key.Len)
		}
	}

	q, k, v, err := sa.projectQKV(query, key, value, opts.Mode)
	if err != nil {
		return nil, nil, err
	}

	// Scale queries before the head split
	for b := range q.Data {
		q.Data[b] = tensor.ScalarMultiply(q.Data[b], sa.scaling)
	}

	if sa.BiasK != nil {
		k, v, err = sa.appendSentinel(k, v)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to append sentinel key/value: %v", err)
		}
	}

	qHeads, err := sa.toHeads(q)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reshape query heads: %v", err)
	}
	kHeads, err := sa.toHeads(k)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reshape key heads: %v", err)
	}
	vHeads, err := sa.toHeads(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reshape value heads: %v", err)
	}

	if sa.AddZeroAttn {
		zero := make([]float64, sa.HeadDim)
		for i := range kHeads {
			if kHeads[i], err = kHeads[i].AppendRow(zero); err != nil {
				return nil, nil, fmt.Errorf("failed to append zero attention key: %v", err)
			}
			if vHeads[i], err = vHeads[i].AppendRow(zero); err != nil {
				return nil, nil, fmt.Errorf("failed to append zero attention value: %v", err)
			}
		}
	}

	contexts, _, err := sa.pairAttention(qHeads, kHeads, vHeads, opts)
	if err != nil {
		return nil, nil, err
	}

	out, err := sa.assemble(contexts, query.Len, query.Batch)
	if err != nil {
		return nil, nil, err
	}

	return out, nil, nil
}

// appendSentinel appends the learned sentinel key/value position to every
// batch element. The sentinel parameters live in projected space, so the
// rows attach after the in-projection. The appended position sits past
// the last segment range and no direction pair ever attends to it.
func (sa *SegmentedAttention) appendSentinel(k, v *tensor.Sequence) (*tensor.Sequence, *tensor.Sequence, error) {
	kOut := &tensor.Sequence{Len: k.Len + 1, Batch: k.Batch, Dim: k.Dim, Data: make([]*tensor.Matrix, k.Batch)}
	vOut := &tensor.Sequence{Len: v.Len + 1, Batch: v.Batch, Dim: v.Dim, Data: make([]*tensor.Matrix, v.Batch)}

	var err error
	for b := 0; b < k.Batch; b++ {
		if kOut.Data[b], err = k.Data[b].AppendRow(sa.BiasK.Data[0]); err != nil {
			return nil, nil, err
		}
		if vOut.Data[b], err = v.Data[b].AppendRow(sa.BiasV.Data[0]); err != nil {
			return nil, nil, err
		}
	}
	return kOut, vOut, nil
}

// toHeads reshapes a projected (seqLen, batch, embedDim) sequence into a
// batch of batch*numHeads matrices of shape (seqLen, headDim). Head h of
// batch element b holds embedding columns [h*headDim, (h+1)*headDim) and
// occupies batched index b*numHeads + h.
func (sa *SegmentedAttention) toHeads(s *tensor.Sequence) (tensor.Batch, error) {
	heads := make(tensor.Batch, s.Batch*sa.NumHeads)
	for b := 0; b < s.Batch; b++ {
		for h := 0; h < sa.NumHeads; h++ {
			slice, err := s.Data[b].ColSlice(h*sa.HeadDim, (h+1)*sa.HeadDim)
			if err != nil {
				return nil, err
			}
			heads[b*sa.NumHeads+h] = slice
		}
	}
	return heads, nil
}

// pairAttention computes scaled dot-product attention for the three
// segment pairs selected by the direction. Raw scores and attention
// outputs are kept in separate collections; each pair's weighted sum
// uses the value projection of that pair's key segment.
func (sa *SegmentedAttention) pairAttention(qHeads, kHeads, vHeads tensor.Batch, opts ForwardOptions) (contexts, weights [3]tensor.Batch, err error) {
	spans := opts.Split.spans()
	keySegs := opts.Direction.keySegments()

	for p := 0; p < 3; p++ {
		qs := spans[p]
		ks := spans[keySegs[p]]

		qSegs, err := tensor.BatchRowSlice(qHeads, qs.Start, qs.End)
		if err != nil {
			return contexts, weights, fmt.Errorf("failed to slice query segment %d: %v", p, err)
		}
		kSegs, err := tensor.BatchRowSlice(kHeads, ks.Start, ks.End)
		if err != nil {
			return contexts, weights, fmt.Errorf("failed to slice key segment %d: %v", keySegs[p], err)
		}
		vSegs, err := tensor.BatchRowSlice(vHeads, ks.Start, ks.End)
		if err != nil {
			return contexts, weights, fmt.Errorf("failed to slice value segment %d: %v", keySegs[p], err)
		}

		scores, err := tensor.BatchMatMul(qSegs, tensor.BatchTranspose(kSegs))
		if err != nil {
			return contexts, weights, fmt.Errorf("failed to compute attention scores for pair %d: %v", p, err)
		}

		attn := tensor.BatchSoftmax(scores)

		if opts.MaskFixer != nil {
			mask := opts.MaskFixer.Pair(p)
			if mask.Rows != qs.len() || mask.Cols != ks.len() {
				return contexts, weights, fmt.Errorf("mask for pair %d has shape (%dx%d), expected (%dx%d)",
					p, mask.Rows, mask.Cols, qs.len(), ks.len())
			}
			for i := range attn {
				masked, err := tensor.Mul(attn[i], mask)
				if err != nil {
					return contexts, weights, fmt.Errorf("failed to apply mask for pair %d: %v", p, err)
				}
				attn[i] = masked
			}
		}

		for i := range attn {
			attn[i] = sa.attnDropout.Forward(attn[i], opts.Training)
		}

		ctx, err := tensor.BatchMatMul(attn, vSegs)
		if err != nil {
			return contexts, weights, fmt.Errorf("failed to apply attention weights for pair %d: %v", p, err)
		}

		contexts[p] = ctx
		weights[p] = attn
	}

	return contexts, weights, nil
}

// assemble concatenates the three pair outputs in query-segment order,
// merges the heads back into embedding space and applies the output
// projection.
func (sa *SegmentedAttention) assemble(contexts [3]tensor.Batch, seqLen, batch int) (*tensor.Sequence, error) {
	out, err := tensor.NewSequence(seqLen, batch, sa.EmbedDim)
	if err != nil {
		return nil, err
	}

	for b := 0; b < batch; b++ {
		headMatrices := make([]*tensor.Matrix, sa.NumHeads)
		for h := 0; h < sa.NumHeads; h++ {
			idx := b*sa.NumHeads + h
			// Pair outputs concatenate in segment order S1, S2, S3
			// regardless of direction: each pair's row count equals its
			// query segment length, so the stack realigns with the
			// original token order.
			joined, err := tensor.ConcatRows(contexts[0][idx], contexts[1][idx], contexts[2][idx])
			if err != nil {
				return nil, fmt.Errorf("failed to concatenate segment outputs: %v", err)
			}
			headMatrices[h] = joined
		}

		merged, err := tensor.ConcatCols(headMatrices...)
		if err != nil {
			return nil, fmt.Errorf("failed to merge attention heads: %v", err)
		}

		projected, err := sa.OutProj.Forward(merged)
		if err != nil {
			return nil, fmt.Errorf("output projection failed: %v", err)
		}
		out.Data[b] = projected
	}

	return out, nil
}
