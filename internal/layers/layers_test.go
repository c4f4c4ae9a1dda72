package layers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseForward(t *testing.T) {
	d := NewDense(rand.New(rand.NewSource(1)), "fc", 2, 2, ActivationLinear)
	copy(d.W.Data, []float32{1, 2, 3, 4}) // row-major: input 0 -> (1,2), input 1 -> (3,4)
	copy(d.B.Data, []float32{0.5, -0.5})

	out := d.Forward([]float32{1, 1}, 1)
	assert.InDelta(t, 4.5, out[0], 1e-5)
	assert.InDelta(t, 5.5, out[1], 1e-5)
}

func TestDenseForward_ReLU(t *testing.T) {
	d := NewDense(rand.New(rand.NewSource(1)), "fc", 1, 2, ActivationReLU)
	copy(d.W.Data, []float32{1, -1})

	out := d.Forward([]float32{2}, 1)
	assert.InDelta(t, 2.0, out[0], 1e-5)
	assert.InDelta(t, 0.0, out[1], 1e-5)
}

// Gradient check against central finite differences.
func TestDenseBackward_NumericGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	d := NewDense(rng, "fc", 3, 2, ActivationReLU)

	input := []float32{0.5, -0.2, 0.8, -0.1, 0.4, 0.3}
	batch := 2

	// Scalar loss: sum of outputs.
	loss := func() float32 {
		out := d.Forward(input, batch)
		var s float32
		for _, v := range out {
			s += v
		}
		return s
	}

	out := d.Forward(input, batch)
	gradOut := make([]float32, len(out))
	for i := range gradOut {
		gradOut[i] = 1
	}
	gradIn := d.Backward(gradOut, batch)

	const h = 1e-2
	for i := range d.W.Data {
		orig := d.W.Data[i]
		d.W.Data[i] = orig + h
		up := loss()
		d.W.Data[i] = orig - h
		down := loss()
		d.W.Data[i] = orig

		assert.InDelta(t, (up-down)/(2*h), d.W.Grad[i], 1e-2, "weight %d", i)
	}

	for i := range input {
		orig := input[i]
		input[i] = orig + h
		up := loss()
		input[i] = orig - h
		down := loss()
		input[i] = orig

		assert.InDelta(t, (up-down)/(2*h), gradIn[i], 1e-2, "input %d", i)
	}
}

func TestBatchNormForward_Training(t *testing.T) {
	bn := NewBatchNorm("bn", 2)
	input := []float32{
		1, 10,
		3, 20,
		5, 30,
	}

	out := bn.Forward(input, 3, true)

	// Per-feature mean of normalized output is ~0, variance ~1.
	for j := 0; j < 2; j++ {
		var mean float32
		for b := 0; b < 3; b++ {
			mean += out[b*2+j]
		}
		mean /= 3
		assert.InDelta(t, 0.0, mean, 1e-4)

		var variance float32
		for b := 0; b < 3; b++ {
			d := out[b*2+j] - mean
			variance += d * d
		}
		variance /= 3
		assert.InDelta(t, 1.0, variance, 1e-2)
	}

	// Running stats moved toward batch stats.
	assert.InDelta(t, 0.3, bn.RunningMean[0], 1e-4) // 0.9*0 + 0.1*3
	assert.InDelta(t, 2.0, bn.RunningMean[1], 1e-4) // 0.9*0 + 0.1*20
}

func TestBatchNormForward_Inference(t *testing.T) {
	bn := NewBatchNorm("bn", 1)
	bn.RunningMean[0] = 2
	bn.RunningVar[0] = 4

	out := bn.Forward([]float32{4}, 1, false)
	assert.InDelta(t, 1.0, out[0], 1e-3) // (4-2)/sqrt(4)
}

func TestBatchNormBackward_NumericGradient(t *testing.T) {
	bn := NewBatchNorm("bn", 2)
	input := []float32{0.5, -1, 2, 0.25, -0.75, 1.5}
	batch := 3

	loss := func() float32 {
		out := bn.Forward(input, batch, true)
		var s float32
		for i, v := range out {
			s += v * float32(i+1) // non-uniform weights to exercise all terms
		}
		return s
	}

	out := bn.Forward(input, batch, true)
	gradOut := make([]float32, len(out))
	for i := range gradOut {
		gradOut[i] = float32(i + 1)
	}
	gradIn := bn.Backward(gradOut, batch)

	const h = 1e-2
	for i := range input {
		orig := input[i]
		input[i] = orig + h
		up := loss()
		input[i] = orig - h
		down := loss()
		input[i] = orig

		assert.InDelta(t, (up-down)/(2*h), gradIn[i], 5e-2, "input %d", i)
	}
}

func TestDropout(t *testing.T) {
	d := NewDropout(rand.New(rand.NewSource(3)), 0.4)
	input := make([]float32, 1000)
	for i := range input {
		input[i] = 1
	}

	out := d.Forward(input, true)

	var zeros int
	for _, v := range out {
		if v == 0 {
			zeros++
		} else {
			assert.InDelta(t, 1/0.6, v, 1e-4)
		}
	}
	// Roughly 40% dropped.
	assert.InDelta(t, 400, zeros, 80)

	// Backward uses the same mask.
	grad := d.Backward(input)
	for i := range grad {
		if out[i] == 0 {
			assert.Zero(t, grad[i])
		} else {
			assert.InDelta(t, 1/0.6, grad[i], 1e-4)
		}
	}
}

func TestDropout_Inference(t *testing.T) {
	d := NewDropout(rand.New(rand.NewSource(3)), 0.4)
	input := []float32{1, 2, 3}
	out := d.Forward(input, false)
	assert.Equal(t, input, out)
}

func TestSoftmax(t *testing.T) {
	out := Softmax([]float32{1, 2, 3, 0, 0, 0}, 2, 3)

	for b := 0; b < 2; b++ {
		var sum float32
		for j := 0; j < 3; j++ {
			sum += out[b*3+j]
		}
		assert.InDelta(t, 1.0, sum, 1e-5)
	}

	// Uniform logits give uniform probabilities.
	assert.InDelta(t, 1.0/3, out[3], 1e-5)

	// Monotonic in logits.
	assert.Greater(t, out[2], out[1])
	assert.Greater(t, out[1], out[0])
}

func TestSoftmaxBackward_ZeroSumRows(t *testing.T) {
	logits := []float32{0.2, -0.4, 1.1}
	probs := Softmax(logits, 1, 3)
	grad := SoftmaxBackward([]float32{1, 0, 0}, probs, 1, 3)

	// Gradients w.r.t. logits of a softmax always sum to zero per row.
	var sum float32
	for _, g := range grad {
		sum += g
	}
	assert.InDelta(t, 0.0, sum, 1e-6)
}

func TestArgmaxRows(t *testing.T) {
	got := ArgmaxRows([]float32{0.1, 0.9, 0.7, 0.3}, 2, 2)
	assert.Equal(t, []int{1, 0}, got)
}

func TestSGD_Momentum(t *testing.T) {
	p := NewParam("w", 1)
	p.Data[0] = 1
	opt := NewSGD([]*Param{p}, 0.1, 0.9)

	p.Grad[0] = 1
	opt.Step()
	assert.InDelta(t, 0.9, p.Data[0], 1e-6)
	assert.Zero(t, p.Grad[0])

	// Second step with same gradient accelerates: v = 0.9*(-0.1) - 0.1 = -0.19.
	p.Grad[0] = 1
	opt.Step()
	assert.InDelta(t, 0.71, p.Data[0], 1e-6)
}

func TestMSE(t *testing.T) {
	assert.InDelta(t, 0.0, MSE([]float32{1, 2}, []float32{1, 2}), 1e-6)
	assert.InDelta(t, 2.5, MSE([]float32{0, 0}, []float32{1, 2}), 1e-6)
}

func TestKLDivergence(t *testing.T) {
	// KL of identical distributions is zero.
	p := []float32{0.5, 0.5}
	assert.InDelta(t, 0.0, KLDivergence(p, p, 1), 1e-6)

	q := []float32{0.9, 0.1}
	kl := KLDivergence(p, q, 1)
	assert.Greater(t, kl, float32(0))
}

func TestWeightedCrossEntropy(t *testing.T) {
	probs := []float32{0.9, 0.1, 0.2, 0.8}
	labels := []int{0, 1}

	unweighted := WeightedCrossEntropy(probs, labels, nil, 2)
	require.Greater(t, unweighted, float32(0))

	// Doubling both class weights doubles the loss.
	weighted := WeightedCrossEntropy(probs, labels, []float32{2, 2}, 2)
	assert.InDelta(t, 2*unweighted, weighted, 1e-5)

	assert.Zero(t, WeightedCrossEntropy(nil, nil, nil, 2))
}
