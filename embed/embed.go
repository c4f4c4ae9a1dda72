// Package embed turns raw text into fixed-width float32 vectors suitable
// for clustering and classification. Implementations must be deterministic
// for a given input so that repeated runs over the same corpus produce the
// same geometry.
package embed

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when an embedding request contains no texts.
var ErrEmptyInput = errors.New("embed: empty input")

// Provider converts a batch of texts into embeddings. All returned vectors
// have the same dimension, reported by Dim.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dim returns the width of the vectors produced by Embed.
	Dim() int
}
