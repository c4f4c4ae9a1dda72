package kmeans

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/declust/distance"
)

// Result holds the outcome of a single k-means run.
type Result struct {
	// Centroids is the flattened centroid matrix (k * dim).
	Centroids []float32
	// Assignments is the cluster index for each input vector.
	Assignments []int
	// Inertia is the sum of squared distances of samples to their
	// closest centroid. Lower is better.
	Inertia float32
}

// Train runs Lloyd's algorithm once over the flattened vectors (n * dim).
// The context is checked once per iteration.
func Train(ctx context.Context, rng *rand.Rand, vectors []float32, dim, k, maxIter int, metric distance.Metric) (*Result, error) {
	n := len(vectors) / dim
	if n < k {
		return nil, nil // Not enough vectors to cluster
	}

	distFunc, err := distance.Provider(metric)
	if err != nil {
		return nil, err
	}

	centroids := make([]float32, k*dim)

	// Initialize centroids randomly from data points
	perm := rng.Perm(n)
	for i := 0; i < k; i++ {
		copy(centroids[i*dim:(i+1)*dim], vectors[perm[i]*dim:(perm[i]+1)*dim])
	}

	assignments := make([]int, n)
	counts := make([]int, k)
	sums := make([]float32, k*dim)

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		changed := false

		// Assignment step
		for i := 0; i < n; i++ {
			vec := vectors[i*dim : (i+1)*dim]
			bestCluster := -1
			minDist := float32(math.MaxFloat32)

			for j := 0; j < k; j++ {
				center := centroids[j*dim : (j+1)*dim]
				d := distFunc(vec, center)
				if d < minDist {
					minDist = d
					bestCluster = j
				}
			}

			if assignments[i] != bestCluster {
				assignments[i] = bestCluster
				changed = true
			}
		}

		if !changed {
			break
		}

		// Update step
		for i := range sums {
			sums[i] = 0
		}
		for i := range counts {
			counts[i] = 0
		}

		for i := 0; i < n; i++ {
			cluster := assignments[i]
			vec := vectors[i*dim : (i+1)*dim]
			for d := 0; d < dim; d++ {
				sums[cluster*dim+d] += vec[d]
			}
			counts[cluster]++
		}

		for j := 0; j < k; j++ {
			if counts[j] > 0 {
				scale := 1.0 / float32(counts[j])
				for d := 0; d < dim; d++ {
					centroids[j*dim+d] = sums[j*dim+d] * scale
				}
			} else {
				// Re-initialize empty cluster with a random point
				// (Simple heuristic to avoid empty clusters)
				idx := rng.Intn(n)
				copy(centroids[j*dim:(j+1)*dim], vectors[idx*dim:(idx+1)*dim])
			}
		}
	}

	var inertia float32
	for i := 0; i < n; i++ {
		vec := vectors[i*dim : (i+1)*dim]
		center := centroids[assignments[i]*dim : (assignments[i]+1)*dim]
		inertia += distance.SquaredL2(vec, center)
	}

	return &Result{
		Centroids:   centroids,
		Assignments: assignments,
		Inertia:     inertia,
	}, nil
}

// TrainBest runs k-means restarts times with independent seeds and returns the
// run with the lowest inertia. Restarts run concurrently; the first error or
// context cancellation aborts the remaining runs.
func TrainBest(ctx context.Context, seed int64, vectors []float32, dim, k, maxIter, restarts int, metric distance.Metric) (*Result, error) {
	if restarts < 1 {
		restarts = 1
	}

	results := make([]*Result, restarts)

	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < restarts; r++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(r)))
			res, err := Train(gctx, rng, vectors, dim, k, maxIter, metric)
			if err != nil {
				return err
			}
			results[r] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *Result
	for _, res := range results {
		if res == nil {
			continue
		}
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}

	return best, nil
}

// Assign finds the closest centroid for a vector.
func Assign(vec []float32, centroids []float32, dim int, metric distance.Metric) (int, error) {
	k := len(centroids) / dim
	distFunc, err := distance.Provider(metric)
	if err != nil {
		return -1, err
	}

	bestCluster := -1
	minDist := float32(math.MaxFloat32)

	for j := 0; j < k; j++ {
		center := centroids[j*dim : (j+1)*dim]
		d := distFunc(vec, center)
		if d < minDist {
			minDist = d
			bestCluster = j
		}
	}

	return bestCluster, nil
}
