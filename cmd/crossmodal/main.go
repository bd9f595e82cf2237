package main

import (
	"fmt"
	"os"

	"github.com/crossmodal_attention/pkg/attention"
	"github.com/crossmodal_attention/pkg/tensor"
)

// Demo binary: renders the segment adjacency mask for a three-modality
// split and runs one segmented attention forward pass over a random
// combined sequence.
func main() {
	tensor.Seed(11)

	split := attention.SeqSplit{Text: 50, Vision: 15, Audio: 46}

	fmt.Printf("Segment split: text=%d, vision=%d, audio=%d (total %d)\n\n",
		split.Text, split.Vision, split.Audio, split.Sum())

	mask, err := attention.BuildSegmentMask(split, attention.MaskCross, attention.DirectionBackward)
	if err != nil {
		fmt.Printf("Failed to build segment mask: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Cross adjacency mask, backward direction ('.' allowed, '#' blocked):")
	renderMask(mask, 2)

	layer, err := attention.New(attention.Config{
		EmbedDim: 64,
		NumHeads: 4,
		Bias:     true,
	})
	if err != nil {
		fmt.Printf("Failed to create attention layer: %v\n", err)
		os.Exit(1)
	}

	const batch = 2
	input := tensor.MustNewRandomSequence(split.Sum(), batch, 64)

	output, _, err := layer.Forward(input, input, input, attention.ForwardOptions{
		Mode:      attention.ProjectionSelf,
		Split:     split,
		Direction: attention.DirectionBackward,
	})
	if err != nil {
		fmt.Printf("Forward pass failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nForward pass complete: output shape (len=%d, batch=%d, dim=%d)\n",
		output.Len, output.Batch, output.Dim)
}

// renderMask prints a downsampled ASCII view of an additive mask
func renderMask(mask *tensor.Matrix, step int) {
	if step < 1 {
		step = 1
	}
	for i := 0; i < mask.Rows; i += step {
		for j := 0; j < mask.Cols; j += step {
			if mask.Data[i][j] < 0 {
				fmt.Print("#")
			} else {
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
}
