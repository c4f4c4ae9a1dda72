// Package math32 provides float32 vector kernels used by the training core.
// This is an internal package - external users should use the distance package.
package math32

import "math"

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

// SquaredL2 calculates the squared L2 distance between two vectors.
func SquaredL2(a, b []float32) float32 {
	var distance float32
	for i := range a {
		distance += (a[i] - b[i]) * (a[i] - b[i])
	}

	return distance
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}

// Axpy computes dst[i] += alpha * x[i].
func Axpy(alpha float32, x, dst []float32) {
	for i := range x {
		dst[i] += alpha * x[i]
	}
}

// Sum returns the sum of all elements.
func Sum(a []float32) float32 {
	var ret float32
	for _, v := range a {
		ret += v
	}

	return ret
}

// Sqrt returns the float32 square root.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

// Exp returns the float32 exponential.
func Exp(x float32) float32 {
	return float32(math.Exp(float64(x)))
}

// Log returns the float32 natural logarithm.
func Log(x float32) float32 {
	return float32(math.Log(float64(x)))
}

// Pow returns x**y in float32.
func Pow(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}
