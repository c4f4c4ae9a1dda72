package layers

import "github.com/hupe1980/declust/internal/math32"

const (
	batchNormEps      = 1e-5
	batchNormMomentum = 0.9
)

// BatchNorm normalizes each feature over the batch dimension.
//
// In training mode it uses batch statistics and updates exponential running
// averages; in inference mode it uses the running averages. The running
// statistics are state, not parameters: they are persisted in checkpoints but
// receive no gradient.
type BatchNorm struct {
	Dim int

	Gamma *Param // scale, initialized to 1
	Beta  *Param // shift, initialized to 0

	RunningMean []float32
	RunningVar  []float32

	lastInput []float32
	lastXHat  []float32
	lastMean  []float32
	lastStd   []float32
}

// NewBatchNorm creates a batch-normalization layer over dim features.
func NewBatchNorm(name string, dim int) *BatchNorm {
	bn := &BatchNorm{
		Dim:         dim,
		Gamma:       NewParam(name+".gamma", dim),
		Beta:        NewParam(name+".beta", dim),
		RunningMean: make([]float32, dim),
		RunningVar:  make([]float32, dim),
	}
	for i := range bn.Gamma.Data {
		bn.Gamma.Data[i] = 1
	}
	for i := range bn.RunningVar {
		bn.RunningVar[i] = 1
	}
	return bn
}

// Params returns the trainable parameters of the layer.
func (bn *BatchNorm) Params() []*Param {
	return []*Param{bn.Gamma, bn.Beta}
}

// Forward normalizes the batch. training selects batch statistics (and
// updates running averages) versus the stored running statistics.
func (bn *BatchNorm) Forward(input []float32, batch int, training bool) []float32 {
	dim := bn.Dim
	out := make([]float32, len(input))

	mean := make([]float32, dim)
	std := make([]float32, dim)

	if training && batch > 1 {
		variance := make([]float32, dim)
		inv := 1.0 / float32(batch)

		for b := 0; b < batch; b++ {
			for j := 0; j < dim; j++ {
				mean[j] += input[b*dim+j]
			}
		}
		math32.ScaleInPlace(mean, inv)

		for b := 0; b < batch; b++ {
			for j := 0; j < dim; j++ {
				d := input[b*dim+j] - mean[j]
				variance[j] += d * d
			}
		}
		math32.ScaleInPlace(variance, inv)

		for j := 0; j < dim; j++ {
			std[j] = math32.Sqrt(variance[j] + batchNormEps)
			bn.RunningMean[j] = batchNormMomentum*bn.RunningMean[j] + (1-batchNormMomentum)*mean[j]
			bn.RunningVar[j] = batchNormMomentum*bn.RunningVar[j] + (1-batchNormMomentum)*variance[j]
		}
	} else {
		copy(mean, bn.RunningMean)
		for j := 0; j < dim; j++ {
			std[j] = math32.Sqrt(bn.RunningVar[j] + batchNormEps)
		}
	}

	xhat := make([]float32, len(input))
	for b := 0; b < batch; b++ {
		for j := 0; j < dim; j++ {
			idx := b*dim + j
			xhat[idx] = (input[idx] - mean[j]) / std[j]
			out[idx] = bn.Gamma.Data[j]*xhat[idx] + bn.Beta.Data[j]
		}
	}

	bn.lastInput = input
	bn.lastXHat = xhat
	bn.lastMean = mean
	bn.lastStd = std

	return out
}

// Backward accumulates gamma/beta gradients and returns the input gradient.
// It assumes the most recent Forward call ran in training mode.
func (bn *BatchNorm) Backward(gradOutput []float32, batch int) []float32 {
	dim := bn.Dim
	m := float32(batch)
	gradInput := make([]float32, len(gradOutput))

	for j := 0; j < dim; j++ {
		var sumDXHat, sumDXHatXHat float32

		for b := 0; b < batch; b++ {
			idx := b*dim + j
			bn.Gamma.Grad[j] += gradOutput[idx] * bn.lastXHat[idx]
			bn.Beta.Grad[j] += gradOutput[idx]

			dxhat := gradOutput[idx] * bn.Gamma.Data[j]
			sumDXHat += dxhat
			sumDXHatXHat += dxhat * bn.lastXHat[idx]
		}

		// dx = (1/m) / std * (m*dxhat - sum(dxhat) - xhat*sum(dxhat*xhat))
		for b := 0; b < batch; b++ {
			idx := b*dim + j
			dxhat := gradOutput[idx] * bn.Gamma.Data[j]
			gradInput[idx] = (m*dxhat - sumDXHat - bn.lastXHat[idx]*sumDXHatXHat) / (m * bn.lastStd[j])
		}
	}

	return gradInput
}
