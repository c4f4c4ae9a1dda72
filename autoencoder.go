package declust

import (
	"fmt"
	"math/rand"

	"github.com/hupe1980/declust/internal/layers"
)

// Autoencoder maps an embedding vector to a lower-dimensional bottleneck
// and reconstructs it. The layer structure is symmetric: for dims
// [d0, d1, ..., dz] the encoder stacks d0->d1->...->dz and the decoder
// mirrors it back to d0. Intermediate layers apply the configured
// nonlinearity; the bottleneck and the reconstruction output are linear.
type Autoencoder struct {
	dims    []int
	encoder []*layers.Dense
	decoder []*layers.Dense
}

func newAutoencoder(rng *rand.Rand, dims []int, activation layers.Activation) *Autoencoder {
	nStacks := len(dims) - 1

	ae := &Autoencoder{
		dims:    dims,
		encoder: make([]*layers.Dense, nStacks),
		decoder: make([]*layers.Dense, nStacks),
	}

	for i := 0; i < nStacks; i++ {
		act := activation
		if i == nStacks-1 {
			act = layers.ActivationLinear // linear bottleneck
		}
		ae.encoder[i] = layers.NewDense(rng, nameEncoder(i), dims[i], dims[i+1], act)
	}

	for i := 0; i < nStacks; i++ {
		act := activation
		if i == nStacks-1 {
			act = layers.ActivationLinear // linear reconstruction
		}
		ae.decoder[i] = layers.NewDense(rng, nameDecoder(i), dims[nStacks-i], dims[nStacks-i-1], act)
	}

	return ae
}

func nameEncoder(i int) string {
	return fmt.Sprintf("ae.enc.%d", i)
}

func nameDecoder(i int) string {
	return fmt.Sprintf("ae.dec.%d", i)
}

// InputDim returns the embedding width the autoencoder accepts.
func (ae *Autoencoder) InputDim() int {
	return ae.dims[0]
}

// BottleneckDim returns the width of the bottleneck vector.
func (ae *Autoencoder) BottleneckDim() int {
	return ae.dims[len(ae.dims)-1]
}

// Encode runs the encoder path over a row-major batch, returning the
// bottleneck batch.
func (ae *Autoencoder) Encode(input []float32, batch int) []float32 {
	out := input
	for _, d := range ae.encoder {
		out = d.Forward(out, batch)
	}
	return out
}

// Decode reconstructs embeddings from a bottleneck batch.
func (ae *Autoencoder) Decode(bottleneck []float32, batch int) []float32 {
	out := bottleneck
	for _, d := range ae.decoder {
		out = d.Forward(out, batch)
	}
	return out
}

// Forward returns both the bottleneck and the reconstruction for a batch.
func (ae *Autoencoder) Forward(input []float32, batch int) (bottleneck, reconstruction []float32) {
	bottleneck = ae.Encode(input, batch)
	reconstruction = ae.Decode(bottleneck, batch)
	return bottleneck, reconstruction
}

// BackwardDecoder propagates the reconstruction gradient back through the
// decoder, returning the gradient at the bottleneck.
func (ae *Autoencoder) BackwardDecoder(gradReconstruction []float32, batch int) []float32 {
	grad := gradReconstruction
	for i := len(ae.decoder) - 1; i >= 0; i-- {
		grad = ae.decoder[i].Backward(grad, batch)
	}
	return grad
}

// BackwardEncoder propagates a bottleneck gradient back through the
// encoder, accumulating weight gradients along the way.
func (ae *Autoencoder) BackwardEncoder(gradBottleneck []float32, batch int) []float32 {
	grad := gradBottleneck
	for i := len(ae.encoder) - 1; i >= 0; i-- {
		grad = ae.encoder[i].Backward(grad, batch)
	}
	return grad
}

// Params returns all trainable parameters, encoder first.
func (ae *Autoencoder) Params() []*layers.Param {
	var params []*layers.Param
	for _, d := range ae.encoder {
		params = append(params, d.Params()...)
	}
	for _, d := range ae.decoder {
		params = append(params, d.Params()...)
	}
	return params
}

// EncoderParams returns only the encoder-side parameters, the ones shared
// with the clustering and sentiment heads during joint training.
func (ae *Autoencoder) EncoderParams() []*layers.Param {
	var params []*layers.Param
	for _, d := range ae.encoder {
		params = append(params, d.Params()...)
	}
	return params
}
