package declust

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeClassWeights_Balanced(t *testing.T) {
	labels := make([]int, 100)
	for i := range labels {
		labels[i] = i % 2
	}

	weights, err := ComputeClassWeights(labels)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, weights[SentimentNegative], 1e-6)
	assert.InDelta(t, 1.0, weights[SentimentPositive], 1e-6)
}

func TestComputeClassWeights_Imbalanced(t *testing.T) {
	// 100 negative, 25 positive: the minority class gets 4x the weight
	labels := make([]int, 0, 125)
	for i := 0; i < 100; i++ {
		labels = append(labels, SentimentNegative)
	}
	for i := 0; i < 25; i++ {
		labels = append(labels, SentimentPositive)
	}

	weights, err := ComputeClassWeights(labels)
	require.NoError(t, err)

	assert.InDelta(t, 4.0, weights[SentimentPositive]/weights[SentimentNegative], 1e-5)
}

func TestComputeClassWeights_EmptyClass(t *testing.T) {
	_, err := ComputeClassWeights([]int{0, 0, 0})
	assert.ErrorIs(t, err, ErrEmptyClass)
}

func TestComputeClassWeights_InvalidLabel(t *testing.T) {
	_, err := ComputeClassWeights([]int{0, 1, 2})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
