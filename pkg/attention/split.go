package attention

import "fmt"

// SeqSplit partitions a combined token sequence into three contiguous,
// order-preserving segments: text, vision, audio. The segments cover
// [0, seqLen) exactly, with no gaps and no overlaps.
type SeqSplit struct {
	Text   int
	Vision int
	Audio  int
}

// span is a half-open index range [Start, End) over the sequence dimension
type span struct {
	Start int
	End   int
}

func (s span) len() int {
	return s.End - s.Start
}

// Sum returns the combined length of the three segments
func (sp SeqSplit) Sum() int {
	return sp.Text + sp.Vision + sp.Audio
}

// Validate checks that the split is a legal partition of a sequence of
// the given length. Zero-length segments are legal.
func (sp SeqSplit) Validate(seqLen int) error {
	if sp.Text < 0 || sp.Vision < 0 || sp.Audio < 0 {
		return fmt.Errorf("segment lengths must be non-negative: text=%d, vision=%d, audio=%d",
			sp.Text, sp.Vision, sp.Audio)
	}
	if sum := sp.Sum(); sum != seqLen {
		return fmt.Errorf("segment lengths sum to %d, expected sequence length %d", sum, seqLen)
	}
	return nil
}

// spans returns the three segment index ranges in sequence order
func (sp SeqSplit) spans() [3]span {
	return [3]span{
		{Start: 0, End: sp.Text},
		{Start: sp.Text, End: sp.Text + sp.Vision},
		{Start: sp.Text + sp.Vision, End: sp.Text + sp.Vision + sp.Audio},
	}
}
