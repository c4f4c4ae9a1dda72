package declust

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/declust/embed"
)

func TestNewDataset(t *testing.T) {
	ds, err := NewDataset([]float32{1, 2, 3, 4, 5, 6}, 3, []int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 3, ds.Dim())
	assert.True(t, ds.Labeled())
	assert.Equal(t, []float32{4, 5, 6}, ds.Row(1))
}

func TestNewDataset_Unlabeled(t *testing.T) {
	ds, err := NewDataset([]float32{1, 2, 3, 4}, 2, nil)
	require.NoError(t, err)

	assert.False(t, ds.Labeled())
	assert.Nil(t, ds.Labels())
}

func TestNewDataset_Invalid(t *testing.T) {
	_, err := NewDataset([]float32{1, 2, 3}, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "ragged rows")

	_, err = NewDataset(nil, 2, nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "empty")

	_, err = NewDataset([]float32{1, 2}, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidInput, "zero dim")

	_, err = NewDataset([]float32{1, 2, 3, 4}, 2, []int{0})
	assert.ErrorIs(t, err, ErrInvalidInput, "label count")

	_, err = NewDataset([]float32{1, 2, 3, 4}, 2, []int{0, 3})
	assert.ErrorIs(t, err, ErrInvalidInput, "label range")
}

func TestNewDatasetFromTexts(t *testing.T) {
	provider := embed.NewHashingProvider(32)

	ds, err := NewDatasetFromTexts(context.Background(), provider,
		[]string{"great movie", "terrible movie"}, []int{1, 0})
	require.NoError(t, err)

	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 32, ds.Dim())
	assert.True(t, ds.Labeled())
}

func TestNewDatasetFromTexts_NilProvider(t *testing.T) {
	_, err := NewDatasetFromTexts(context.Background(), nil, []string{"x"}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
