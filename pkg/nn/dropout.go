package nn

import (
	"sync"

	"golang.org/x/exp/rand"

	"github.com/crossmodal_attention/pkg/tensor"
)

var (
	dropoutSeedMu sync.Mutex
	dropoutSeed   uint64 = 1
)

func nextDropoutSeed() uint64 {
	dropoutSeedMu.Lock()
	defer dropoutSeedMu.Unlock()
	dropoutSeed++
	return dropoutSeed
}

// Dropout represents a dropout layer for regularization. Each instance
// owns its own random source; concurrent forward calls on the same
// instance are serialized around it.
type Dropout struct {
	Rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDropout creates a new dropout layer with the specified dropout rate
func NewDropout(rate float64) *Dropout {
	return &Dropout{
		Rate: rate,
		rng:  rand.New(rand.NewSource(nextDropoutSeed())),
	}
}

// Forward applies dropout to the input during training. Outside of
// training, or with a zero rate, the input passes through unchanged.
func (d *Dropout) Forward(input *tensor.Matrix, isTraining bool) *tensor.Matrix {
	if !isTraining || d.Rate <= 0.0 {
		return input
	}

	// Scale surviving elements to maintain the expected value
	scale := 1.0 / (1.0 - d.Rate)

	result := tensor.MustNewMatrix(input.Rows, input.Cols)

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < input.Rows; i++ {
		for j := 0; j < input.Cols; j++ {
			if d.rng.Float64() > d.Rate {
				result.Data[i][j] = input.Data[i][j] * scale
			}
		}
	}

	return result
}
