package layers

// ReLU is a standalone rectified-linear layer for stacks where another
// transform (e.g. batch normalization) sits between the linear op and the
// nonlinearity.
type ReLU struct {
	lastInput []float32
}

// Forward applies max(0, x) elementwise and caches the input.
func (r *ReLU) Forward(input []float32) []float32 {
	out := make([]float32, len(input))
	for i, v := range input {
		if v > 0 {
			out[i] = v
		}
	}
	r.lastInput = input
	return out
}

// Backward zeroes the gradient where the input was non-positive.
func (r *ReLU) Backward(gradOutput []float32) []float32 {
	grad := make([]float32, len(gradOutput))
	for i, g := range gradOutput {
		if r.lastInput[i] > 0 {
			grad[i] = g
		}
	}
	return grad
}
