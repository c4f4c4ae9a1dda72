package layers

import "github.com/hupe1980/declust/internal/math32"

// Softmax applies a numerically stable row-wise softmax to a batch of logits.
// logits has length batch*classes and is not modified.
func Softmax(logits []float32, batch, classes int) []float32 {
	out := make([]float32, len(logits))

	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		dst := out[b*classes : (b+1)*classes]

		maxLogit := row[0]
		for _, v := range row {
			if v > maxLogit {
				maxLogit = v
			}
		}

		var sum float32
		for i, v := range row {
			dst[i] = math32.Exp(v - maxLogit)
			sum += dst[i]
		}
		math32.ScaleInPlace(dst, 1/sum)
	}

	return out
}

// SoftmaxBackward converts a gradient w.r.t. softmax outputs into a gradient
// w.r.t. the logits, row by row.
//
// Jacobian of softmax: dp_i/dz_j = p_i * (delta_ij - p_j), which collapses to
// dL/dz_j = p_j * (dL/dp_j - sum_i dL/dp_i * p_i).
func SoftmaxBackward(gradOutput, softmaxOutput []float32, batch, classes int) []float32 {
	gradLogits := make([]float32, len(gradOutput))

	for b := 0; b < batch; b++ {
		g := gradOutput[b*classes : (b+1)*classes]
		p := softmaxOutput[b*classes : (b+1)*classes]
		dst := gradLogits[b*classes : (b+1)*classes]

		dot := math32.Dot(g, p)
		for j := range dst {
			dst[j] = p[j] * (g[j] - dot)
		}
	}

	return gradLogits
}

// ArgmaxRows returns the index of the maximum entry of each row.
func ArgmaxRows(rows []float32, batch, classes int) []int {
	out := make([]int, batch)
	for b := 0; b < batch; b++ {
		row := rows[b*classes : (b+1)*classes]
		best := 0
		for i, v := range row {
			if v > row[best] {
				best = i
			}
		}
		out[b] = best
	}
	return out
}
