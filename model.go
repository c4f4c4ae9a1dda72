package declust

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/hupe1980/declust/checkpoint"
	"github.com/hupe1980/declust/distance"
	"github.com/hupe1980/declust/internal/kmeans"
	"github.com/hupe1980/declust/internal/layers"
)

// Model composes the autoencoder's encode path with the clustering and
// sentiment heads. A single shared bottleneck is computed once per forward
// pass and reused by both heads.
type Model struct {
	opts options
	rng  *rand.Rand

	autoencoder *Autoencoder
	clustering  *ClusteringHead
	sentiment   *SentimentHead

	pretrained bool
	trained    bool
}

// New creates a model. dims lists the autoencoder layer widths from the
// embedding dimension down to the bottleneck (e.g. [768, 500, 500, 2000, 10]);
// nClusters is K, the fixed number of clusters.
func New(dims []int, nClusters int, optFns ...Option) (*Model, error) {
	if len(dims) < 2 {
		return nil, &ErrInvalidDimensions{Dims: dims}
	}
	for _, d := range dims {
		if d <= 0 {
			return nil, &ErrInvalidDimensions{Dims: dims}
		}
	}
	if nClusters < 2 {
		return nil, fmt.Errorf("%w: need at least 2 clusters, got %d", ErrInvalidInput, nClusters)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	rng := rand.New(rand.NewSource(opts.seed))
	bottleneck := dims[len(dims)-1]

	m := &Model{
		opts:        opts,
		rng:         rng,
		autoencoder: newAutoencoder(rng, dims, layers.ActivationReLU),
		clustering:  newClusteringHead(nClusters, bottleneck, opts.alpha),
		sentiment:   newSentimentHead(rng, bottleneck, opts.dropoutRate),
	}

	m.opts.logger.WithClusters(nClusters).WithDimension(dims[0]).Debug("model created",
		"bottleneck", bottleneck,
		"alpha", opts.alpha,
	)

	return m, nil
}

// Autoencoder returns the model's autoencoder.
func (m *Model) Autoencoder() *Autoencoder {
	return m.autoencoder
}

// Clusters returns K, the number of clusters.
func (m *Model) Clusters() int {
	return m.clustering.K()
}

// InputDim returns the embedding width the model accepts.
func (m *Model) InputDim() int {
	return m.autoencoder.InputDim()
}

// BottleneckDim returns the shared bottleneck width.
func (m *Model) BottleneckDim() int {
	return m.autoencoder.BottleneckDim()
}

// Forward runs the shared encode path once and both heads on top of it,
// returning the soft cluster assignments and the sentiment probabilities,
// both row-major. training toggles dropout and batchnorm statistics.
func (m *Model) Forward(embeddings []float32, batch int, training bool) (q, sentimentProbs []float32) {
	z := m.autoencoder.Encode(embeddings, batch)
	q = m.clustering.Forward(z, batch)
	sentimentProbs = m.sentiment.Forward(z, batch, training)
	return q, sentimentProbs
}

// ExtractFeatures returns the bottleneck vectors for the input, row-major,
// along with the batch size. Texts require a configured embedding provider.
func (m *Model) ExtractFeatures(ctx context.Context, in Input) ([]float32, int, error) {
	embeddings, batch, err := m.resolveEmbeddings(ctx, in)
	if err != nil {
		return nil, 0, err
	}
	return m.autoencoder.Encode(embeddings, batch), batch, nil
}

// Predict returns, per sample, the predicted sentiment class name and the
// arg-max cluster. It requires initialized centroids (a completed Train or
// a loaded checkpoint).
func (m *Model) Predict(ctx context.Context, in Input) ([]Prediction, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}

	embeddings, batch, err := m.resolveEmbeddings(ctx, in)
	if err != nil {
		return nil, err
	}

	q, probs := m.Forward(embeddings, batch, false)
	clusters := m.clustering.Assignments(q, batch)
	classes := layers.ArgmaxRows(probs, batch, NumClasses)

	predictions := make([]Prediction, batch)
	for i := range predictions {
		predictions[i] = Prediction{
			Sentiment: ClassNames[classes[i]],
			Cluster:   clusters[i],
		}
	}

	return predictions, nil
}

// PredictClusters returns the arg-max cluster assignment per sample. Hard
// assignment skips the kernel: the Student's-t similarity decreases
// monotonically with distance, so the nearest centroid is the arg-max of q.
func (m *Model) PredictClusters(ctx context.Context, in Input) ([]int, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}

	embeddings, batch, err := m.resolveEmbeddings(ctx, in)
	if err != nil {
		return nil, err
	}

	z := m.autoencoder.Encode(embeddings, batch)
	dim := m.BottleneckDim()

	clusters := make([]int, batch)
	for i := range clusters {
		c, err := kmeans.Assign(z[i*dim:(i+1)*dim], m.clustering.Centroids.Data, dim, distance.MetricL2)
		if err != nil {
			return nil, err
		}
		clusters[i] = c
	}

	return clusters, nil
}

// PredictSentiment returns the arg-max sentiment class index per sample.
func (m *Model) PredictSentiment(ctx context.Context, in Input) ([]int, error) {
	embeddings, batch, err := m.resolveEmbeddings(ctx, in)
	if err != nil {
		return nil, err
	}

	z := m.autoencoder.Encode(embeddings, batch)
	probs := m.sentiment.Forward(z, batch, false)
	return layers.ArgmaxRows(probs, batch, NumClasses), nil
}

func (m *Model) resolveEmbeddings(ctx context.Context, in Input) ([]float32, int, error) {
	if !in.valid() {
		return nil, 0, ErrInvalidInput
	}

	dim := m.InputDim()

	if len(in.Texts) > 0 {
		if m.opts.provider == nil {
			return nil, 0, fmt.Errorf("%w: no embedding provider configured for text input", ErrInvalidInput)
		}
		if m.opts.provider.Dim() != dim {
			return nil, 0, &ErrDimensionMismatch{Expected: dim, Actual: m.opts.provider.Dim()}
		}

		vectors, err := m.opts.provider.Embed(ctx, in.Texts)
		if err != nil {
			return nil, 0, err
		}
		flat := make([]float32, 0, len(vectors)*dim)
		for _, v := range vectors {
			flat = append(flat, v...)
		}
		return flat, len(vectors), nil
	}

	if len(in.Embeddings)%dim != 0 {
		return nil, 0, &ErrDimensionMismatch{Expected: dim, Actual: len(in.Embeddings)}
	}
	return in.Embeddings, len(in.Embeddings) / dim, nil
}

func (m *Model) params() []*layers.Param {
	var params []*layers.Param
	params = append(params, m.autoencoder.Params()...)
	params = append(params, m.clustering.Params()...)
	params = append(params, m.sentiment.Params()...)
	return params
}

// jointParams are the parameters updated during joint training: the
// encoder (shared bottleneck), centroids, and sentiment head. The decoder
// is frozen after pretraining.
func (m *Model) jointParams() []*layers.Param {
	var params []*layers.Param
	params = append(params, m.autoencoder.EncoderParams()...)
	params = append(params, m.clustering.Params()...)
	params = append(params, m.sentiment.Params()...)
	return params
}

// stateSections are non-parameter state persisted alongside the weights.
func (m *Model) stateSections() []checkpoint.Section {
	return []checkpoint.Section{
		{Name: "sent.1.bn.running_mean", Values: m.sentiment.block1.bn.RunningMean},
		{Name: "sent.1.bn.running_var", Values: m.sentiment.block1.bn.RunningVar},
		{Name: "sent.2.bn.running_mean", Values: m.sentiment.block2.bn.RunningMean},
		{Name: "sent.2.bn.running_var", Values: m.sentiment.block2.bn.RunningVar},
	}
}

// Save persists the full model (autoencoder, centroids, sentiment head,
// batchnorm state) as a named checkpoint blob.
func (m *Model) Save(ctx context.Context, store checkpoint.Store, name string) error {
	sections := make([]checkpoint.Section, 0, len(m.params())+4)
	for _, p := range m.params() {
		sections = append(sections, checkpoint.Section{Name: p.Name, Values: p.Data})
	}
	sections = append(sections, m.stateSections()...)

	data, err := checkpoint.Encode(sections, m.opts.codec)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("store checkpoint %q: %w", name, err)
	}

	m.opts.logger.Debug("checkpoint saved", "name", name, "bytes", len(data))

	return nil
}

// Load restores a full model checkpoint previously written by Save. The
// model must have been constructed with the same dims and cluster count.
func (m *Model) Load(ctx context.Context, store checkpoint.Store, name string) error {
	sections, err := m.readSections(ctx, store, name)
	if err != nil {
		return err
	}

	for _, p := range m.params() {
		if err := restoreSection(sections, p.Name, p.Data); err != nil {
			return err
		}
	}
	for _, s := range m.stateSections() {
		if err := restoreSection(sections, s.Name, s.Values); err != nil {
			return err
		}
	}

	m.pretrained = true
	m.trained = true

	return nil
}

// SaveAutoencoder persists only the autoencoder weights, the blob written
// at the end of pretraining.
func (m *Model) SaveAutoencoder(ctx context.Context, store checkpoint.Store, name string) error {
	params := m.autoencoder.Params()
	sections := make([]checkpoint.Section, 0, len(params))
	for _, p := range params {
		sections = append(sections, checkpoint.Section{Name: p.Name, Values: p.Data})
	}

	data, err := checkpoint.Encode(sections, m.opts.codec)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("store checkpoint %q: %w", name, err)
	}

	return nil
}

// LoadAutoencoder restores pretrained autoencoder weights, satisfying the
// precondition of joint training.
func (m *Model) LoadAutoencoder(ctx context.Context, store checkpoint.Store, name string) error {
	sections, err := m.readSections(ctx, store, name)
	if err != nil {
		return err
	}

	for _, p := range m.autoencoder.Params() {
		if err := restoreSection(sections, p.Name, p.Data); err != nil {
			return err
		}
	}

	m.pretrained = true

	return nil
}

func (m *Model) readSections(ctx context.Context, store checkpoint.Store, name string) ([]checkpoint.Section, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint %q: %w", name, err)
	}
	defer blob.Close()

	data, err := blob.Bytes()
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %q: %w", name, err)
	}

	sections, err := checkpoint.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode checkpoint %q: %w", name, err)
	}

	return sections, nil
}

func restoreSection(sections []checkpoint.Section, name string, dst []float32) error {
	s := checkpoint.FindSection(sections, name)
	if s == nil {
		return fmt.Errorf("checkpoint is missing section %q", name)
	}
	if len(s.Values) != len(dst) {
		return fmt.Errorf("checkpoint section %q has %d values, want %d", name, len(s.Values), len(dst))
	}
	copy(dst, s.Values)
	return nil
}
