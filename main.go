package main

import (
	"fmt"
	"os"

	"github.com/crossmodal_attention/pkg/model"
	"github.com/crossmodal_attention/pkg/tensor"
)

// Main entry point for the segmented cross-modal attention library
func main() {
	fmt.Println("Segmented Cross-Modal Attention")
	fmt.Println("===============================")

	// Parse command line arguments
	mode := "default"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	switch mode {
	case "default":
		runDefaultExample()
	case "help":
		printHelp()
	default:
		fmt.Printf("Unknown mode: %s\n", mode)
		printHelp()
	}
}

// runDefaultExample scores a random three-modality batch with the
// default sentiment model
func runDefaultExample() {
	fmt.Println("\nRunning Default Example:")
	fmt.Println("------------------------")

	config := model.NewDefaultConfig()
	fmt.Println("Configuration initialized with:")
	fmt.Printf("- Text feature dimension: %d\n", config.TextDim)
	fmt.Printf("- Vision feature dimension: %d\n", config.VisionDim)
	fmt.Printf("- Audio feature dimension: %d\n", config.AudioDim)
	fmt.Printf("- Model dimension: %d\n", config.ModelDim)
	fmt.Printf("- Number of attention heads: %d\n", config.NumHeads)
	fmt.Printf("- Number of encoder layers: %d\n", config.NumLayers)

	m, err := model.New(config)
	if err != nil {
		fmt.Printf("Failed to create model: %v\n", err)
		os.Exit(1)
	}

	const batch = 2
	text := tensor.MustNewRandomSequence(12, batch, config.TextDim)
	vision := tensor.MustNewRandomSequence(8, batch, config.VisionDim)
	audio := tensor.MustNewRandomSequence(10, batch, config.AudioDim)

	scores, err := m.Forward(text, vision, audio, false)
	if err != nil {
		fmt.Printf("Forward pass failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nSentiment scores:")
	for b := 0; b < scores.Rows; b++ {
		fmt.Printf("- batch element %d: %.4f\n", b, scores.Data[b][0])
	}
}

func printHelp() {
	fmt.Println("\nUsage:")
	fmt.Println("  crossmodal_attention [mode]")
	fmt.Println("\nModes:")
	fmt.Println("  default  Run the default sentiment scoring example")
	fmt.Println("  help     Show this help message")
}
