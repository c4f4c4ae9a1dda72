package declust

import (
	"math/rand"

	"github.com/hupe1980/declust/internal/layers"
)

// Widths of the two hidden blocks of the sentiment head.
const (
	sentimentHidden1 = 128
	sentimentHidden2 = 32
)

// sentimentBlock is linear -> batchnorm -> relu -> dropout.
type sentimentBlock struct {
	dense   *layers.Dense
	bn      *layers.BatchNorm
	relu    *layers.ReLU
	dropout *layers.Dropout
}

func newSentimentBlock(rng *rand.Rand, name string, in, out int, dropoutRate float32) *sentimentBlock {
	return &sentimentBlock{
		dense:   layers.NewDense(rng, name+".dense", in, out, layers.ActivationLinear),
		bn:      layers.NewBatchNorm(name+".bn", out),
		relu:    &layers.ReLU{},
		dropout: layers.NewDropout(rng, dropoutRate),
	}
}

func (b *sentimentBlock) forward(input []float32, batch int, training bool) []float32 {
	out := b.dense.Forward(input, batch)
	out = b.bn.Forward(out, batch, training)
	out = b.relu.Forward(out)
	return b.dropout.Forward(out, training)
}

func (b *sentimentBlock) backward(grad []float32, batch int) []float32 {
	grad = b.dropout.Backward(grad)
	grad = b.relu.Backward(grad)
	grad = b.bn.Backward(grad, batch)
	return b.dense.Backward(grad, batch)
}

func (b *sentimentBlock) params() []*layers.Param {
	var params []*layers.Param
	params = append(params, b.dense.Params()...)
	params = append(params, b.bn.Params()...)
	return params
}

// SentimentHead maps bottleneck vectors to a 2-class probability
// distribution. Two hidden blocks (128 then 32 wide, each linear ->
// batchnorm -> relu -> dropout) feed a final linear projection to 2
// logits and a softmax.
type SentimentHead struct {
	block1 *sentimentBlock
	block2 *sentimentBlock
	out    *layers.Dense

	lastProbs []float32
	lastBatch int
}

func newSentimentHead(rng *rand.Rand, dim int, dropoutRate float32) *SentimentHead {
	return &SentimentHead{
		block1: newSentimentBlock(rng, "sent.1", dim, sentimentHidden1, dropoutRate),
		block2: newSentimentBlock(rng, "sent.2", sentimentHidden1, sentimentHidden2, dropoutRate),
		out:    layers.NewDense(rng, "sent.out", sentimentHidden2, NumClasses, layers.ActivationLinear),
	}
}

// Forward returns row-major class probabilities for a bottleneck batch.
// training toggles batchnorm statistics updates and dropout.
func (h *SentimentHead) Forward(z []float32, batch int, training bool) []float32 {
	out := h.block1.forward(z, batch, training)
	out = h.block2.forward(out, batch, training)
	logits := h.out.Forward(out, batch)
	probs := layers.Softmax(logits, batch, NumClasses)

	h.lastProbs = probs
	h.lastBatch = batch

	return probs
}

// Backward computes gradients of scale * weighted cross-entropy against
// the given labels, accumulating parameter gradients and returning the
// gradient at the bottleneck. The softmax and cross-entropy collapse to
// dLogits = w_y * (probs - onehot(y)) / batch.
func (h *SentimentHead) Backward(labels []int, classWeights []float32, scale float32) []float32 {
	batch := h.lastBatch
	gradLogits := make([]float32, batch*NumClasses)

	for i := 0; i < batch; i++ {
		w := float32(1)
		if classWeights != nil {
			w = classWeights[labels[i]]
		}
		w *= scale / float32(batch)

		for c := 0; c < NumClasses; c++ {
			g := h.lastProbs[i*NumClasses+c]
			if c == labels[i] {
				g -= 1
			}
			gradLogits[i*NumClasses+c] = w * g
		}
	}

	grad := h.out.Backward(gradLogits, batch)
	grad = h.block2.backward(grad, batch)
	return h.block1.backward(grad, batch)
}

// Params returns all trainable parameters of the head.
func (h *SentimentHead) Params() []*layers.Param {
	var params []*layers.Param
	params = append(params, h.block1.params()...)
	params = append(params, h.block2.params()...)
	params = append(params, h.out.Params()...)
	return params
}
