// Package kmeans implements Lloyd's algorithm with multi-restart selection.
//
// It is used once per training run to seed the clustering head's centroids
// from the bottleneck representation of the full dataset.
package kmeans
