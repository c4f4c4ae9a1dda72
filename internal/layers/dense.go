package layers

import (
	"math/rand"

	"github.com/hupe1980/declust/internal/math32"
)

// Dense is a fully-connected layer with an optional activation.
//
// Weights use Glorot (variance-scaling) uniform initialization; biases start
// at zero.
type Dense struct {
	In, Out    int
	Activation Activation

	W *Param // [In * Out], row i holds the outgoing weights of input i
	B *Param // [Out]

	lastInput []float32
	lastPre   []float32
}

// NewDense creates a dense layer with Glorot-uniform weights.
func NewDense(rng *rand.Rand, name string, in, out int, activation Activation) *Dense {
	d := &Dense{
		In:         in,
		Out:        out,
		Activation: activation,
		W:          NewParam(name+".weight", in*out),
		B:          NewParam(name+".bias", out),
	}

	limit := math32.Sqrt(6.0 / float32(in+out))
	for i := range d.W.Data {
		d.W.Data[i] = (rng.Float32()*2 - 1) * limit
	}

	return d
}

// Params returns the trainable parameters of the layer.
func (d *Dense) Params() []*Param {
	return []*Param{d.W, d.B}
}

// Forward computes output = activation(input @ W + B) for a batch.
// input has length batch*In; the result has length batch*Out.
func (d *Dense) Forward(input []float32, batch int) []float32 {
	pre := make([]float32, batch*d.Out)
	post := make([]float32, batch*d.Out)

	for b := 0; b < batch; b++ {
		row := input[b*d.In : (b+1)*d.In]
		out := pre[b*d.Out : (b+1)*d.Out]
		copy(out, d.B.Data)
		for i, x := range row {
			if x == 0 {
				continue
			}
			math32.Axpy(x, d.W.Data[i*d.Out:(i+1)*d.Out], out)
		}
		for o, v := range out {
			post[b*d.Out+o] = activate(v, d.Activation)
		}
	}

	d.lastInput = input
	d.lastPre = pre

	return post
}

// Backward accumulates parameter gradients for the most recent Forward call
// and returns the gradient with respect to the layer input.
func (d *Dense) Backward(gradOutput []float32, batch int) []float32 {
	gradInput := make([]float32, batch*d.In)

	for b := 0; b < batch; b++ {
		in := d.lastInput[b*d.In : (b+1)*d.In]
		gin := gradInput[b*d.In : (b+1)*d.In]

		for o := 0; o < d.Out; o++ {
			idx := b*d.Out + o
			grad := gradOutput[idx] * activateDerivative(d.lastPre[idx], d.Activation)
			if grad == 0 {
				continue
			}

			d.B.Grad[o] += grad
			for i, x := range in {
				d.W.Grad[i*d.Out+o] += x * grad
				gin[i] += d.W.Data[i*d.Out+o] * grad
			}
		}
	}

	return gradInput
}
