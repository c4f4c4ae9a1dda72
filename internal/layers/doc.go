// Package layers implements the small set of neural-network building blocks
// needed by the joint clustering/sentiment model: dense layers, batch
// normalization, inverted dropout, softmax, and an SGD-with-momentum
// optimizer over a flat parameter registry.
//
// All tensors are flattened row-major float32 slices; a batch of n vectors of
// dimension d is a slice of length n*d. Layers cache whatever they need for
// the backward pass, so a layer instance must not be shared across concurrent
// training loops.
package layers
