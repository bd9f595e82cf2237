package model

import (
	"fmt"

	"github.com/crossmodal_attention/pkg/attention"
	"github.com/crossmodal_attention/pkg/nn"
	"github.com/crossmodal_attention/pkg/tensor"
)

// EncoderLayer is one segmented-attention encoder block: attention over
// the combined sequence, then a position-wise feed-forward network, each
// wrapped in a residual connection and layer normalization.
type EncoderLayer struct {
	Attention *attention.SegmentedAttention
	FFN       *nn.FeedForward
	Norm1     *nn.LayerNorm
	Norm2     *nn.LayerNorm
	Dropout   *nn.Dropout
	Direction attention.Direction
}

// NewEncoderLayer creates one encoder block attending in the given direction
func NewEncoderLayer(config *Config, direction attention.Direction) (*EncoderLayer, error) {
	attn, err := attention.New(attention.Config{
		EmbedDim:    config.ModelDim,
		NumHeads:    config.NumHeads,
		AttnDropout: config.AttnDropout,
		Bias:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create attention layer: %v", err)
	}

	ffn, err := nn.NewFeedForward(config.ModelDim, config.FFNHiddenDim)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed-forward network: %v", err)
	}

	norm1, err := nn.NewLayerNorm(config.ModelDim)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention norm: %v", err)
	}
	norm2, err := nn.NewLayerNorm(config.ModelDim)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed-forward norm: %v", err)
	}

	return &EncoderLayer{
		Attention: attn,
		FFN:       ffn,
		Norm1:     norm1,
		Norm2:     norm2,
		Dropout:   nn.NewDropout(config.DropoutRate),
		Direction: direction,
	}, nil
}

// Forward runs the encoder block over the combined segmented sequence
func (el *EncoderLayer) Forward(x *tensor.Sequence, split attention.SeqSplit, training bool) (*tensor.Sequence, error) {
	attnOut, _, err := el.Attention.Forward(x, x, x, attention.ForwardOptions{
		Mode:      attention.ProjectionSelf,
		Split:     split,
		Direction: el.Direction,
		Training:  training,
	})
	if err != nil {
		return nil, fmt.Errorf("segmented attention failed: %v", err)
	}

	out, err := tensor.NewSequence(x.Len, x.Batch, x.Dim)
	if err != nil {
		return nil, err
	}

	for b := 0; b < x.Batch; b++ {
		// Residual connection around attention, then normalize
		residual, err := tensor.Add(x.Data[b], el.Dropout.Forward(attnOut.Data[b], training))
		if err != nil {
			return nil, fmt.Errorf("attention residual failed: %v", err)
		}
		normed, err := el.Norm1.Forward(residual)
		if err != nil {
			return nil, fmt.Errorf("attention norm failed: %v", err)
		}

		// Residual connection around the feed-forward network
		ffnOut, err := el.FFN.Forward(normed)
		if err != nil {
			return nil, fmt.Errorf("feed-forward failed: %v", err)
		}
		residual, err = tensor.Add(normed, el.Dropout.Forward(ffnOut, training))
		if err != nil {
			return nil, fmt.Errorf("feed-forward residual failed: %v", err)
		}
		out.Data[b], err = el.Norm2.Forward(residual)
		if err != nil {
			return nil, fmt.Errorf("feed-forward norm failed: %v", err)
		}
	}

	return out, nil
}

// SentimentModel scores three-modality inputs with a stack of segmented
// cross-modal attention encoder layers. Text, vision and audio feature
// sequences project into one shared dimension, concatenate into a single
// segmented sequence, pass through the encoder stack with alternating
// attention directions, and mean-pool into a sentiment score per batch
// element.
type SentimentModel struct {
	Config *Config

	TextProj   *nn.Linear
	VisionProj *nn.Linear
	AudioProj  *nn.Linear

	Layers []*EncoderLayer
	Head   *nn.Linear
}

// New creates a multimodal sentiment model from the configuration
func New(config *Config) (*SentimentModel, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model configuration: %v", err)
	}

	textProj, err := nn.NewLinear(config.TextDim, config.ModelDim, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create text projection: %v", err)
	}
	visionProj, err := nn.NewLinear(config.VisionDim, config.ModelDim, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision projection: %v", err)
	}
	audioProj, err := nn.NewLinear(config.AudioDim, config.ModelDim, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio projection: %v", err)
	}

	// Alternate the scan direction layer by layer so information flows
	// around the modality cycle both ways.
	layers := make([]*EncoderLayer, config.NumLayers)
	for i := range layers {
		direction := attention.DirectionForward
		if i%2 == 1 {
			direction = attention.DirectionBackward
		}
		layers[i], err = NewEncoderLayer(config, direction)
		if err != nil {
			return nil, fmt.Errorf("failed to create encoder layer %d: %v", i, err)
		}
	}

	head, err := nn.NewLinear(config.ModelDim, 1, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification head: %v", err)
	}

	return &SentimentModel{
		Config:     config,
		TextProj:   textProj,
		VisionProj: visionProj,
		AudioProj:  audioProj,
		Layers:     layers,
		Head:       head,
	}, nil
}

// Forward scores a batch of three-modality inputs. Each modality is a
// (seqLen, batch, dim) feature sequence; the result is a (batch x 1)
// matrix of sentiment scores.
func (m *SentimentModel) Forward(text, vision, audio *tensor.Sequence, training bool) (*tensor.Matrix, error) {
	if text == nil || vision == nil || audio == nil {
		return nil, fmt.Errorf("all three modality sequences are required")
	}
	if text.Batch != vision.Batch || text.Batch != audio.Batch {
		return nil, fmt.Errorf("batch size mismatch across modalities: text=%d, vision=%d, audio=%d",
			text.Batch, vision.Batch, audio.Batch)
	}

	textEmb, err := projectSequence(m.TextProj, text)
	if err != nil {
		return nil, fmt.Errorf("text projection failed: %v", err)
	}
	visionEmb, err := projectSequence(m.VisionProj, vision)
	if err != nil {
		return nil, fmt.Errorf("vision projection failed: %v", err)
	}
	audioEmb, err := projectSequence(m.AudioProj, audio)
	if err != nil {
		return nil, fmt.Errorf("audio projection failed: %v", err)
	}

	combined, err := tensor.ConcatSequences(textEmb, visionEmb, audioEmb)
	if err != nil {
		return nil, fmt.Errorf("failed to build combined sequence: %v", err)
	}
	split := attention.SeqSplit{Text: text.Len, Vision: vision.Len, Audio: audio.Len}

	for i, layer := range m.Layers {
		combined, err = layer.Forward(combined, split, training)
		if err != nil {
			return nil, fmt.Errorf("encoder layer %d failed: %v", i, err)
		}
	}

	pooled, err := meanPool(combined)
	if err != nil {
		return nil, fmt.Errorf("mean pooling failed: %v", err)
	}

	scores, err := m.Head.Forward(pooled)
	if err != nil {
		return nil, fmt.Errorf("classification head failed: %v", err)
	}
	return scores, nil
}

// projectSequence applies a linear projection to every batch element
func projectSequence(proj *nn.Linear, s *tensor.Sequence) (*tensor.Sequence, error) {
	out, err := tensor.NewSequence(s.Len, s.Batch, proj.OutDim)
	if err != nil {
		return nil, err
	}
	for b := 0; b < s.Batch; b++ {
		out.Data[b], err = proj.Forward(s.Data[b])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// meanPool averages the sequence dimension, producing one row per batch
// element
func meanPool(s *tensor.Sequence) (*tensor.Matrix, error) {
	if s.Len == 0 {
		return nil, fmt.Errorf("cannot pool an empty sequence")
	}

	pooled, err := tensor.NewMatrix(s.Batch, s.Dim)
	if err != nil {
		return nil, err
	}
	for b := 0; b < s.Batch; b++ {
		for j := 0; j < s.Dim; j++ {
			sum := 0.0
			for i := 0; i < s.Len; i++ {
				sum += s.Data[b].Data[i][j]
			}
			pooled.Data[b][j] = sum / float64(s.Len)
		}
	}
	return pooled, nil
}
