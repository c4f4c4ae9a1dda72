package layers

import "math/rand"

// Dropout implements inverted dropout: in training mode each activation is
// zeroed with probability Rate and survivors are scaled by 1/(1-Rate), so
// inference needs no rescaling.
type Dropout struct {
	Rate float32

	rng      *rand.Rand
	lastMask []float32
}

// NewDropout creates a dropout layer. rate must be in [0, 1).
func NewDropout(rng *rand.Rand, rate float32) *Dropout {
	return &Dropout{Rate: rate, rng: rng}
}

// Forward applies dropout in training mode and is the identity otherwise.
func (d *Dropout) Forward(input []float32, training bool) []float32 {
	if !training || d.Rate <= 0 {
		d.lastMask = nil
		return input
	}

	scale := 1 / (1 - d.Rate)
	mask := make([]float32, len(input))
	out := make([]float32, len(input))
	for i, v := range input {
		if d.rng.Float32() >= d.Rate {
			mask[i] = scale
			out[i] = v * scale
		}
	}

	d.lastMask = mask
	return out
}

// Backward propagates the gradient through the most recent mask.
func (d *Dropout) Backward(gradOutput []float32) []float32 {
	if d.lastMask == nil {
		return gradOutput
	}

	gradInput := make([]float32, len(gradOutput))
	for i, g := range gradOutput {
		gradInput[i] = g * d.lastMask[i]
	}
	return gradInput
}
