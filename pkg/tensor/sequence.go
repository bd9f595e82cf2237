package tensor

import "fmt"

// Sequence represents an ordered token sequence of shape
// (seqLen, batch, dim), stored as one (seqLen x dim) matrix per
// batch element.
type Sequence struct {
	Len   int
	Batch int
	Dim   int
	Data  []*Matrix
}

// NewSequence creates a zero-valued sequence with the specified shape
func NewSequence(length, batch, dim int) (*Sequence, error) {
	if length < 0 || batch < 0 || dim < 0 {
		return nil, fmt.Errorf("invalid sequence shape: len=%d, batch=%d, dim=%d", length, batch, dim)
	}

	data := make([]*Matrix, batch)
	for b := range data {
		m, err := NewMatrix(length, dim)
		if err != nil {
			return nil, err
		}
		data[b] = m
	}

	return &Sequence{
		Len:   length,
		Batch: batch,
		Dim:   dim,
		Data:  data,
	}, nil
}

// MustNewSequence creates a zero-valued sequence
// Panics if the shape is invalid (use in non-production code only)
func MustNewSequence(length, batch, dim int) *Sequence {
	s, err := NewSequence(length, batch, dim)
	if err != nil {
		panic(err)
	}
	return s
}

// NewRandomSequence creates a sequence filled with small random values
func NewRandomSequence(length, batch, dim int) (*Sequence, error) {
	s, err := NewSequence(length, batch, dim)
	if err != nil {
		return nil, err
	}
	for b := range s.Data {
		m, err := NewRandomMatrix(length, dim)
		if err != nil {
			return nil, err
		}
		s.Data[b] = m
	}
	return s, nil
}

// MustNewRandomSequence creates a random sequence
// Panics if the shape is invalid (use in non-production code only)
func MustNewRandomSequence(length, batch, dim int) *Sequence {
	s, err := NewRandomSequence(length, batch, dim)
	if err != nil {
		panic(err)
	}
	return s
}

// Clone creates a deep copy of the sequence
func (s *Sequence) Clone() *Sequence {
	clone := &Sequence{
		Len:   s.Len,
		Batch: s.Batch,
		Dim:   s.Dim,
		Data:  make([]*Matrix, s.Batch),
	}
	for b, m := range s.Data {
		clone.Data[b] = m.Clone()
	}
	return clone
}

// SameShape reports whether two sequences have identical dimensions
func (s *Sequence) SameShape(other *Sequence) bool {
	return other != nil && s.Len == other.Len && s.Batch == other.Batch && s.Dim == other.Dim
}

// ConcatSequences joins sequences along the sequence dimension. All inputs
// must share batch size and embedding dimension.
func ConcatSequences(seqs ...*Sequence) (*Sequence, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("cannot concatenate zero sequences")
	}

	batch := seqs[0].Batch
	dim := seqs[0].Dim
	length := 0
	for _, s := range seqs {
		if s == nil {
			return nil, fmt.Errorf("cannot concatenate nil sequence")
		}
		if s.Batch != batch || s.Dim != dim {
			return nil, fmt.Errorf("sequence shape mismatch in concatenation: (batch=%d, dim=%d) vs (batch=%d, dim=%d)",
				s.Batch, s.Dim, batch, dim)
		}
		length += s.Len
	}

	result, err := NewSequence(length, batch, dim)
	if err != nil {
		return nil, err
	}
	for b := 0; b < batch; b++ {
		parts := make([]*Matrix, len(seqs))
		for i, s := range seqs {
			parts[i] = s.Data[b]
		}
		joined, err := ConcatRows(parts...)
		if err != nil {
			return nil, err
		}
		result.Data[b] = joined
	}
	return result, nil
}
