package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/declust/internal/math32"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillGaussian fills dst with standard-normal values.
func (r *RNG) FillGaussian(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64())
	}
}

// GaussianVectors generates num standard-normal vectors as a single
// row-major slice of length num*dim.
func (r *RNG) GaussianVectors(num, dim int) []float32 {
	data := make([]float32, num*dim)
	r.FillGaussian(data)
	return data
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere)
// as a row-major slice. Gaussian sampling makes the direction uniform.
func (r *RNG) UnitVectors(num, dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	for i := 0; i < num; i++ {
		vec := data[i*dim : (i+1)*dim]
		var norm float64
		for j := range vec {
			v := r.rand.NormFloat64()
			vec[j] = float32(v)
			norm += v * v
		}

		if norm == 0 {
			norm = 1
		}
		math32.ScaleInPlace(vec, float32(1.0/math.Sqrt(norm)))
	}

	return data
}

// ClusteredVectors generates num vectors of width dim grouped around
// clusters random unit centroids, with Gaussian noise of the given spread.
// It returns the row-major data and the ground-truth cluster of each row.
// Useful for exercising k-means and the clustering head on data with a
// known structure.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) ([]float32, []int) {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	truth := make([]int, num)

	for i := 0; i < num; i++ {
		c := i % clusters
		truth[i] = c

		centroid := centroids[c*dim : (c+1)*dim]
		vec := data[i*dim : (i+1)*dim]
		for j := range vec {
			vec[j] = centroid[j] + float32(r.rand.NormFloat64())*spread
		}
	}

	return data, truth
}

// BalancedLabels returns num binary labels alternating 0, 1, 0, 1, so both
// classes appear in (near) equal counts regardless of num.
func (r *RNG) BalancedLabels(num int) []int {
	labels := make([]int, num)
	for i := range labels {
		labels[i] = i % 2
	}
	return labels
}

// SkewedLabels returns num binary labels where class 1 appears with the
// given probability. At least one sample of each class is guaranteed for
// num >= 2.
func (r *RNG) SkewedLabels(num int, positiveProb float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	labels := make([]int, num)
	for i := range labels {
		if r.rand.Float64() < positiveProb {
			labels[i] = 1
		}
	}
	if num >= 2 {
		labels[0] = 0
		labels[1] = 1
	}
	return labels
}
