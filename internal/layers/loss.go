package layers

import "github.com/hupe1980/declust/internal/math32"

// MSE returns the mean squared error between pred and target.
func MSE(pred, target []float32) float32 {
	if len(pred) == 0 {
		return 0
	}
	return math32.SquaredL2(pred, target) / float32(len(pred))
}

// KLDivergence returns KL(p || q) averaged over the batch ("batchmean").
// Rows of q must be strictly positive; zero entries of p contribute nothing.
func KLDivergence(p, q []float32, batch int) float32 {
	if batch == 0 {
		return 0
	}

	var sum float32
	for i := range p {
		if p[i] > 0 {
			sum += p[i] * math32.Log(p[i]/q[i])
		}
	}
	return sum / float32(batch)
}

// WeightedCrossEntropy returns the per-class weighted categorical
// cross-entropy between one-hot labels and predicted probabilities, averaged
// over the batch. classWeights may be nil for uniform weighting.
func WeightedCrossEntropy(probs []float32, labels []int, classWeights []float32, classes int) float32 {
	if len(labels) == 0 {
		return 0
	}

	const eps = 1e-12

	var sum float32
	for b, label := range labels {
		w := float32(1)
		if classWeights != nil {
			w = classWeights[label]
		}
		sum += -w * math32.Log(probs[b*classes+label]+eps)
	}
	return sum / float32(len(labels))
}
