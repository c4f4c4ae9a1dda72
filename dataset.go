package declust

import (
	"context"
	"fmt"

	"github.com/hupe1980/declust/embed"
)

// Dataset is an immutable training corpus: row-major embedding vectors,
// optionally paired with binary sentiment labels.
type Dataset struct {
	embeddings []float32
	dim        int
	labels     []int
}

// NewDataset creates a dataset from row-major embeddings of the given
// width. labels may be nil for clustering-only (unlabeled) operation;
// otherwise it must hold one entry per row, each in [0, NumClasses).
func NewDataset(embeddings []float32, dim int, labels []int) (*Dataset, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dimension %d", ErrInvalidInput, dim)
	}
	if len(embeddings) == 0 || len(embeddings)%dim != 0 {
		return nil, fmt.Errorf("%w: %d floats is not a multiple of dimension %d", ErrInvalidInput, len(embeddings), dim)
	}

	n := len(embeddings) / dim
	if labels != nil {
		if len(labels) != n {
			return nil, fmt.Errorf("%w: %d labels for %d rows", ErrInvalidInput, len(labels), n)
		}
		for i, l := range labels {
			if l < 0 || l >= NumClasses {
				return nil, fmt.Errorf("%w: label %d at row %d", ErrInvalidInput, l, i)
			}
		}
	}

	return &Dataset{
		embeddings: embeddings,
		dim:        dim,
		labels:     labels,
	}, nil
}

// NewDatasetFromTexts embeds the texts with the given provider and pairs
// them with the labels.
func NewDatasetFromTexts(ctx context.Context, provider embed.Provider, texts []string, labels []int) (*Dataset, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil embedding provider", ErrInvalidInput)
	}

	vectors, err := provider.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	dim := provider.Dim()
	flat := make([]float32, 0, len(vectors)*dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: len(v)}
		}
		flat = append(flat, v...)
	}

	return NewDataset(flat, dim, labels)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.embeddings) / d.dim
}

// Dim returns the embedding width.
func (d *Dataset) Dim() int {
	return d.dim
}

// Row returns the i-th embedding vector. The slice aliases the dataset's
// backing array and must not be modified.
func (d *Dataset) Row(i int) []float32 {
	return d.embeddings[i*d.dim : (i+1)*d.dim]
}

// Embeddings returns the full row-major embedding matrix. The slice
// aliases the dataset's backing array and must not be modified.
func (d *Dataset) Embeddings() []float32 {
	return d.embeddings
}

// Labeled reports whether sentiment labels are present.
func (d *Dataset) Labeled() bool {
	return d.labels != nil
}

// Labels returns the label slice, or nil for an unlabeled dataset.
func (d *Dataset) Labels() []int {
	return d.labels
}
