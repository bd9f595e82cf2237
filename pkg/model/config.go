package model

import "fmt"

// Config holds the hyperparameters of the multimodal sentiment model
type Config struct {
	TextDim   int
	VisionDim int
	AudioDim  int

	ModelDim     int
	NumHeads     int
	NumLayers    int
	FFNHiddenDim int

	DropoutRate float64
	AttnDropout float64
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		TextDim:      768,
		VisionDim:    35,
		AudioDim:     74,
		ModelDim:     128,
		NumHeads:     4,
		NumLayers:    2,
		FFNHiddenDim: 256,
		DropoutRate:  0.1,
		AttnDropout:  0.1,
	}
}

// Validate checks the configuration eagerly
func (c *Config) Validate() error {
	if c.TextDim <= 0 || c.VisionDim <= 0 || c.AudioDim <= 0 {
		return fmt.Errorf("modality dimensions must be positive: text=%d, vision=%d, audio=%d",
			c.TextDim, c.VisionDim, c.AudioDim)
	}
	if c.ModelDim <= 0 {
		return fmt.Errorf("model dimension must be positive, got %d", c.ModelDim)
	}
	if c.NumHeads <= 0 || c.ModelDim%c.NumHeads != 0 {
		return fmt.Errorf("model dimension (%d) must be divisible by number of heads (%d)",
			c.ModelDim, c.NumHeads)
	}
	if c.NumLayers <= 0 {
		return fmt.Errorf("number of layers must be positive, got %d", c.NumLayers)
	}
	if c.FFNHiddenDim <= 0 {
		return fmt.Errorf("feed-forward hidden dimension must be positive, got %d", c.FFNHiddenDim)
	}
	return nil
}
