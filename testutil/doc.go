// Package testutil provides testing utilities for declust.
//
// This package is intended for use in tests and examples only. It provides
// a seeded, thread-safe random source and generators for synthetic
// clustered and labeled datasets.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 50)
//	rng.FillUniform(vec)   // uniform [0, 1)
//	rng.FillGaussian(vec)  // standard normal
//
// # Synthetic Datasets
//
//	vectors, truth := rng.ClusteredVectors(256, 50, 4, 0.05)
//	labels := rng.BalancedLabels(256)
package testutil
