package declust

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingPretrainedWeights is returned when joint training starts
	// without a pretrained autoencoder checkpoint. Run Pretrain first.
	ErrMissingPretrainedWeights = errors.New("missing pretrained autoencoder weights: run Pretrain before Train")

	// ErrInvalidInput is returned when a predict or feature-extraction
	// entry point receives input that is neither texts nor embeddings.
	ErrInvalidInput = errors.New("invalid input: provide texts or embeddings")

	// ErrEmptyClass is returned when class weights are requested for a
	// label set where some class has zero samples.
	ErrEmptyClass = errors.New("class weight computation: class has zero samples")

	// ErrNotTrained is returned when inference is attempted before the
	// centroids have been initialized.
	ErrNotTrained = errors.New("model is not trained: centroids are uninitialized")
)

// ErrDimensionMismatch indicates an embedding/model dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimensions indicates an invalid layer-width configuration.
type ErrInvalidDimensions struct {
	Dims []int
}

func (e *ErrInvalidDimensions) Error() string {
	return fmt.Sprintf("invalid dimensions: %v (need at least two positive widths)", e.Dims)
}
