package declust

import (
	"github.com/hupe1980/declust/internal/layers"
	"github.com/hupe1980/declust/internal/math32"
)

// ClusteringHead maps bottleneck vectors to a soft cluster-membership
// distribution over K clusters using learned centroids and a Student's-t
// similarity kernel (t-SNE style: heavier tails than Gaussian, so distant
// points crowd less).
type ClusteringHead struct {
	Centroids *layers.Param // k rows of width dim

	k     int
	dim   int
	alpha float32

	lastInput []float32
	lastQ     []float32
	lastBatch int
}

func newClusteringHead(k, dim int, alpha float32) *ClusteringHead {
	return &ClusteringHead{
		Centroids: layers.NewParam("cluster.centroids", k*dim),
		k:         k,
		dim:       dim,
		alpha:     alpha,
	}
}

// K returns the number of clusters.
func (h *ClusteringHead) K() int {
	return h.k
}

// SetCentroids overwrites the centroid set, e.g. with k-means output.
func (h *ClusteringHead) SetCentroids(centroids []float32) {
	copy(h.Centroids.Data, centroids)
}

func (h *ClusteringHead) centroid(j int) []float32 {
	return h.Centroids.Data[j*h.dim : (j+1)*h.dim]
}

// Forward computes the soft assignment matrix q for a row-major bottleneck
// batch: q[i,j] = t_ij / sum_k t_ik with
// t_ij = (1 + ||z_i - mu_j||^2 / alpha)^(-(alpha+1)/2).
// Each row of q sums to 1. Inputs are cached for Backward.
func (h *ClusteringHead) Forward(z []float32, batch int) []float32 {
	q := make([]float32, batch*h.k)
	exponent := -(h.alpha + 1) / 2

	for i := 0; i < batch; i++ {
		zi := z[i*h.dim : (i+1)*h.dim]
		row := q[i*h.k : (i+1)*h.k]

		var sum float32
		for j := 0; j < h.k; j++ {
			d2 := math32.SquaredL2(zi, h.centroid(j))
			t := math32.Pow(1+d2/h.alpha, exponent)
			row[j] = t
			sum += t
		}
		math32.ScaleInPlace(row, 1/sum)
	}

	h.lastInput = z
	h.lastQ = q
	h.lastBatch = batch

	return q
}

// Backward computes gradients of scale*KL(p||q) with respect to the
// centroids (accumulated into Centroids.Grad) and the bottleneck input
// (returned), using the closed form
//
//	dL/dz_i = scale * (alpha+1)/alpha * sum_j (1+||z_i-mu_j||^2/alpha)^(-1) (p_ij-q_ij)(z_i-mu_j) / batch
//
// with the centroid gradient its negative, summed over samples. p is
// treated as a constant target.
func (h *ClusteringHead) Backward(p []float32, scale float32) []float32 {
	z := h.lastInput
	q := h.lastQ
	batch := h.lastBatch

	gradZ := make([]float32, batch*h.dim)
	coeff := scale * (h.alpha + 1) / h.alpha / float32(batch)
	diff := make([]float32, h.dim)

	for i := 0; i < batch; i++ {
		zi := z[i*h.dim : (i+1)*h.dim]
		gi := gradZ[i*h.dim : (i+1)*h.dim]

		for j := 0; j < h.k; j++ {
			mu := h.centroid(j)
			for d := range diff {
				diff[d] = zi[d] - mu[d]
			}
			d2 := math32.Dot(diff, diff)

			w := coeff * (p[i*h.k+j] - q[i*h.k+j]) / (1 + d2/h.alpha)

			math32.Axpy(w, diff, gi)
			math32.Axpy(-w, diff, h.Centroids.Grad[j*h.dim:(j+1)*h.dim])
		}
	}

	return gradZ
}

// Assignments returns the arg-max cluster of each row of q.
func (h *ClusteringHead) Assignments(q []float32, batch int) []int {
	return layers.ArgmaxRows(q, batch, h.k)
}

// Params returns the trainable parameters of the head.
func (h *ClusteringHead) Params() []*layers.Param {
	return []*layers.Param{h.Centroids}
}

// TargetDistribution sharpens a soft assignment matrix into the
// self-supervised target p: weight[i,j] = q[i,j]^2 / sum_i q[i,j],
// renormalized per row. Squaring pushes mass toward confident
// assignments; the column-sum division de-biases large clusters.
// No gradient flows through this computation.
func TargetDistribution(q []float32, batch, k int) []float32 {
	colSums := make([]float32, k)
	for i := 0; i < batch; i++ {
		for j := 0; j < k; j++ {
			colSums[j] += q[i*k+j]
		}
	}

	p := make([]float32, len(q))
	for i := 0; i < batch; i++ {
		row := p[i*k : (i+1)*k]

		var rowSum float32
		for j := 0; j < k; j++ {
			v := q[i*k+j]
			row[j] = v * v / colSums[j]
			rowSum += row[j]
		}
		math32.ScaleInPlace(row, 1/rowSum)
	}

	return p
}

// DeltaLabel returns the fraction of samples whose assignment changed
// between two refreshes. It is 0 iff the assignments are identical.
func DeltaLabel(current, previous []int) float32 {
	if len(current) == 0 {
		return 0
	}
	var changed int
	for i := range current {
		if current[i] != previous[i] {
			changed++
		}
	}
	return float32(changed) / float32(len(current))
}
