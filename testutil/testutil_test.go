package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/declust/internal/math32"
)

func TestRNG_Deterministic(t *testing.T) {
	a := NewRNG(4711)
	b := NewRNG(4711)

	va := make([]float32, 16)
	vb := make([]float32, 16)
	a.FillUniform(va)
	b.FillUniform(vb)

	assert.Equal(t, va, vb)

	a.Reset()
	vc := make([]float32, 16)
	a.FillUniform(vc)
	assert.Equal(t, va, vc)
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	data := rng.UnitVectors(8, 32)
	require.Len(t, data, 8*32)

	for i := 0; i < 8; i++ {
		vec := data[i*32 : (i+1)*32]
		assert.InDelta(t, 1.0, math32.Dot(vec, vec), 1e-5)
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	data, truth := rng.ClusteredVectors(100, 16, 4, 0.01)
	require.Len(t, data, 100*16)
	require.Len(t, truth, 100)

	// with tiny spread, same-cluster rows sit much closer than
	// cross-cluster rows
	same := math32.SquaredL2(data[0*16:1*16], data[4*16:5*16])  // both cluster 0
	cross := math32.SquaredL2(data[0*16:1*16], data[1*16:2*16]) // clusters 0 and 1
	assert.Less(t, same, cross)

	for _, c := range truth {
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, 4)
	}
}

func TestBalancedLabels(t *testing.T) {
	labels := NewRNG(1).BalancedLabels(10)

	var ones int
	for _, l := range labels {
		ones += l
	}
	assert.Equal(t, 5, ones)
}

func TestSkewedLabels(t *testing.T) {
	labels := NewRNG(1).SkewedLabels(100, 0.2)
	require.Len(t, labels, 100)

	counts := [2]int{}
	for _, l := range labels {
		counts[l]++
	}
	assert.Positive(t, counts[0])
	assert.Positive(t, counts[1])
	assert.Greater(t, counts[0], counts[1])
}
