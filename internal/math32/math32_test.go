package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	assert.InDelta(t, 32.0, Dot(a, b), 1e-6)
}

func TestSquaredL2(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{4, 6}
	assert.InDelta(t, 25.0, SquaredL2(a, b), 1e-6)
	assert.InDelta(t, 0.0, SquaredL2(a, a), 1e-6)
}

func TestScaleInPlace(t *testing.T) {
	a := []float32{1, -2, 3}
	ScaleInPlace(a, 2)
	assert.Equal(t, []float32{2, -4, 6}, a)
}

func TestAxpy(t *testing.T) {
	dst := []float32{1, 1, 1}
	Axpy(2, []float32{1, 2, 3}, dst)
	assert.Equal(t, []float32{3, 5, 7}, dst)
}

func TestSum(t *testing.T) {
	assert.InDelta(t, 6.0, Sum([]float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, Sum(nil), 1e-6)
}
