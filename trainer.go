package declust

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/declust/checkpoint"
	"github.com/hupe1980/declust/distance"
	"github.com/hupe1980/declust/internal/kmeans"
	"github.com/hupe1980/declust/internal/layers"
	"github.com/hupe1980/declust/trainlog"
)

// Checkpoint blob names written by the trainer.
const (
	// PretrainedCheckpoint holds the autoencoder weights written at the
	// end of pretraining and required before joint training.
	PretrainedCheckpoint = "pretrained-ae"

	// FinalCheckpoint holds the full model written when training ends.
	FinalCheckpoint = "model-final"
)

// Default trainer hyperparameters.
const (
	DefaultGamma          = 0.1
	DefaultEta            = 1.0
	DefaultLearningRate   = 0.001
	DefaultMomentum       = 0.9
	DefaultTol            = 1e-3
	DefaultUpdateInterval = 140
	DefaultMaxIter        = 20000
	DefaultBatchSize      = 256
	DefaultPretrainEpochs = 200
	DefaultKMeansRestarts = 20
	defaultKMeansMaxIter  = 100
)

// TrainConfig holds the hyperparameters of pretraining and joint training.
// Zero values fall back to the defaults above.
type TrainConfig struct {
	// Gamma scales the clustering (KL) loss component.
	Gamma float32
	// Eta scales the sentiment (cross-entropy) loss component.
	Eta float32

	LearningRate float32
	Momentum     float32

	// Tol is the delta-label convergence threshold: training stops when
	// the fraction of samples changing cluster between two consecutive
	// refreshes drops below it.
	Tol float32

	// UpdateInterval is the refresh cadence in iterations.
	UpdateInterval int

	MaxIter   int
	BatchSize int

	// PretrainEpochs is the autoencoder pretraining epoch budget.
	PretrainEpochs int

	// KMeansRestarts is how many k-means runs compete for the best
	// inertia during centroid initialization.
	KMeansRestarts int

	// SaveInterval is the checkpoint cadence in iterations. When 0 it is
	// derived from the dataset: n/batch*5 iterations, at least 1.
	SaveInterval int

	// LogPath, when set, receives the per-refresh CSV metrics log.
	LogPath string
}

func (c TrainConfig) withDefaults() TrainConfig {
	if c.Gamma == 0 {
		c.Gamma = DefaultGamma
	}
	if c.Eta == 0 {
		c.Eta = DefaultEta
	}
	if c.LearningRate == 0 {
		c.LearningRate = DefaultLearningRate
	}
	if c.Momentum == 0 {
		c.Momentum = DefaultMomentum
	}
	if c.Tol == 0 {
		c.Tol = DefaultTol
	}
	if c.UpdateInterval == 0 {
		c.UpdateInterval = DefaultUpdateInterval
	}
	if c.MaxIter == 0 {
		c.MaxIter = DefaultMaxIter
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.PretrainEpochs == 0 {
		c.PretrainEpochs = DefaultPretrainEpochs
	}
	if c.KMeansRestarts == 0 {
		c.KMeansRestarts = DefaultKMeansRestarts
	}
	return c
}

// TrainResult summarizes a completed joint-training run.
type TrainResult struct {
	// Iterations is the number of gradient steps taken.
	Iterations int
	// Converged is true when delta-label dropped below Tol before MaxIter.
	Converged bool
	// DeltaLabel is the assignment change rate at the last refresh.
	DeltaLabel float32

	// Final full-dataset loss components.
	Loss           float64
	ClusteringLoss float64
	SentimentLoss  float64

	// Accuracy is the labeled-set sentiment accuracy at the last refresh,
	// 0 for unlabeled runs.
	Accuracy float64
}

// batchCursor yields contiguous [start, end) sample ranges that cycle
// through the dataset: full batches in order, then the short tail, then
// back to the start. A batch is never empty; when the batch size divides
// the dataset evenly there is no tail and the cursor resets after the last
// full batch.
type batchCursor struct {
	n     int
	size  int
	index int
}

func (c *batchCursor) next() (start, end int) {
	start = c.index * c.size
	end = start + c.size
	if end >= c.n {
		end = c.n
		c.index = 0
	} else {
		c.index++
	}
	return start, end
}

// Trainer orchestrates autoencoder pretraining and the alternating
// optimization loop of joint training, checkpointing through a
// checkpoint.Store.
type Trainer struct {
	model  *Model
	store  checkpoint.Store
	cfg    TrainConfig
	logger *Logger
}

// NewTrainer creates a trainer for the model, writing checkpoints to store.
func NewTrainer(model *Model, store checkpoint.Store, cfg TrainConfig) *Trainer {
	return &Trainer{
		model:  model,
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: model.opts.logger,
	}
}

// Pretrain minimizes mean-squared reconstruction error over the dataset
// for the configured epoch budget and persists the autoencoder weights as
// PretrainedCheckpoint. It must run (once) before Train.
func (t *Trainer) Pretrain(ctx context.Context, ds *Dataset) error {
	if ds.Dim() != t.model.InputDim() {
		return &ErrDimensionMismatch{Expected: t.model.InputDim(), Actual: ds.Dim()}
	}

	n := ds.Len()
	dim := ds.Dim()
	ae := t.model.autoencoder
	opt := layers.NewSGD(ae.Params(), t.cfg.LearningRate, t.cfg.Momentum)

	t.logger.Info("pretraining autoencoder",
		"samples", n,
		"epochs", t.cfg.PretrainEpochs,
		"batch_size", t.cfg.BatchSize,
	)

	for epoch := 0; epoch < t.cfg.PretrainEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var epochLoss float64
		var batches int

		for start := 0; start < n; start += t.cfg.BatchSize {
			end := start + t.cfg.BatchSize
			if end > n {
				end = n
			}
			batch := end - start
			input := ds.Embeddings()[start*dim : end*dim]

			_, reconstruction := ae.Forward(input, batch)

			epochLoss += float64(layers.MSE(reconstruction, input))
			batches++

			// d/dr mean((r-x)^2) = 2(r-x)/len
			grad := make([]float32, len(reconstruction))
			scale := 2 / float32(len(reconstruction))
			for i := range grad {
				grad[i] = scale * (reconstruction[i] - input[i])
			}

			gradZ := ae.BackwardDecoder(grad, batch)
			ae.BackwardEncoder(gradZ, batch)
			opt.Step()
		}

		if epoch%10 == 0 || epoch == t.cfg.PretrainEpochs-1 {
			t.logger.Debug("pretrain epoch", "epoch", epoch, "loss", epochLoss/float64(batches))
		}
	}

	if err := t.model.SaveAutoencoder(ctx, t.store, PretrainedCheckpoint); err != nil {
		return err
	}
	t.model.pretrained = true

	t.logger.Info("pretraining complete", "checkpoint", PretrainedCheckpoint)

	return nil
}

// Train runs the alternating optimization loop: k-means centroid
// initialization, then gradient steps on the joint loss
// L = gamma*KL(p||q) + eta*weighted-cross-entropy, with the target
// distribution p refreshed every UpdateInterval iterations and convergence
// declared when the assignment change rate drops below Tol.
//
// Pretrained autoencoder weights are required: either a prior Pretrain
// call on this model, or a PretrainedCheckpoint blob in the store.
func (t *Trainer) Train(ctx context.Context, ds *Dataset) (*TrainResult, error) {
	if ds.Dim() != t.model.InputDim() {
		return nil, &ErrDimensionMismatch{Expected: t.model.InputDim(), Actual: ds.Dim()}
	}

	if !t.model.pretrained {
		err := t.model.LoadAutoencoder(ctx, t.store, PretrainedCheckpoint)
		if errors.Is(err, checkpoint.ErrNotFound) {
			return nil, ErrMissingPretrainedWeights
		}
		if err != nil {
			return nil, err
		}
	}

	n := ds.Len()
	dim := ds.Dim()
	k := t.model.Clusters()

	var classWeights []float32
	if ds.Labeled() {
		var err error
		classWeights, err = ComputeClassWeights(ds.Labels())
		if err != nil {
			return nil, err
		}
		t.logger.Debug("class weights computed",
			"negative", classWeights[SentimentNegative],
			"positive", classWeights[SentimentPositive],
		)
	}

	// Centroid initialization: k-means over the bottleneck vectors of the
	// full training set, best inertia of KMeansRestarts runs. Runs exactly
	// once; gradient steps own the centroids afterwards.
	z := t.model.autoencoder.Encode(ds.Embeddings(), n)
	km, err := kmeans.TrainBest(ctx, t.model.opts.seed, z, t.model.BottleneckDim(), k,
		defaultKMeansMaxIter, t.cfg.KMeansRestarts, distance.MetricL2)
	if err != nil {
		return nil, fmt.Errorf("centroid initialization: %w", err)
	}
	if km == nil {
		return nil, fmt.Errorf("%w: %d samples for %d clusters", ErrInvalidInput, n, k)
	}
	t.model.clustering.SetCentroids(km.Centroids)
	t.model.trained = true
	prevAssignments := km.Assignments

	t.logger.WithClusters(k).Info("centroids initialized",
		"restarts", t.cfg.KMeansRestarts,
		"inertia", km.Inertia,
	)

	var log *trainlog.Writer
	if t.cfg.LogPath != "" {
		log, err = trainlog.NewWriter(t.cfg.LogPath, t.logger.Logger)
		if err != nil {
			return nil, err
		}
		defer log.Close()
	}

	saveInterval := t.cfg.SaveInterval
	if saveInterval == 0 {
		saveInterval = n / t.cfg.BatchSize * 5
		if saveInterval < 1 {
			saveInterval = 1
		}
	}

	opt := layers.NewSGD(t.model.jointParams(), t.cfg.LearningRate, t.cfg.Momentum)
	cursor := &batchCursor{n: n, size: t.cfg.BatchSize}

	var p []float32
	var refreshes int
	result := &TrainResult{}

	for iter := 0; iter < t.cfg.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Refresh: recompute q, p and metrics over the full dataset.
		if iter%t.cfg.UpdateInterval == 0 {
			q, probs := t.model.Forward(ds.Embeddings(), n, false)
			p = TargetDistribution(q, n, k)

			assignments := t.model.clustering.Assignments(q, n)
			delta := DeltaLabel(assignments, prevAssignments)
			prevAssignments = assignments
			refreshes++

			lc := float64(t.cfg.Gamma * layers.KLDivergence(p, q, n))
			var ls, acc float64
			if ds.Labeled() {
				ls = float64(t.cfg.Eta * layers.WeightedCrossEntropy(probs, ds.Labels(), classWeights, NumClasses))

				cm := NewConfusionMatrix(ds.Labels(), layers.ArgmaxRows(probs, n, NumClasses))
				acc = cm.Accuracy()

				logger := t.logger.WithIteration(iter)
				if cm.Support(SentimentNegative) > 0 && cm.Support(SentimentPositive) > 0 {
					logger.Info("refresh",
						"delta_label", delta,
						"acc", acc,
						"acc_negative", cm.ClassAccuracy(SentimentNegative),
						"acc_positive", cm.ClassAccuracy(SentimentPositive),
						"loss", lc+ls,
					)
				} else {
					logger.Info("refresh", "delta_label", delta, "acc", acc, "loss", lc+ls)
				}
			} else {
				t.logger.WithIteration(iter).Info("refresh", "delta_label", delta, "loss", lc)
			}

			if log != nil {
				if err := log.Append(trainlog.Record{
					Iter:         iter,
					AccSentiment: acc,
					L:            lc + ls,
					Lc:           lc,
					Ls:           ls,
				}); err != nil {
					return nil, err
				}
			}

			result.DeltaLabel = delta
			result.Loss = lc + ls
			result.ClusteringLoss = lc
			result.SentimentLoss = ls
			result.Accuracy = acc

			if refreshes > 1 && delta < t.cfg.Tol {
				result.Converged = true
				t.logger.WithIteration(iter).Info("converged", "delta_label", delta, "tol", t.cfg.Tol)
				break
			}
		}

		// Gradient step on the next batch in the cycle.
		start, end := cursor.next()
		batch := end - start
		input := ds.Embeddings()[start*dim : end*dim]

		bottleneck := t.model.autoencoder.Encode(input, batch)
		t.model.clustering.Forward(bottleneck, batch)
		gradZ := t.model.clustering.Backward(p[start*k:end*k], t.cfg.Gamma)

		if ds.Labeled() {
			t.model.sentiment.Forward(bottleneck, batch, true)
			gradSent := t.model.sentiment.Backward(ds.Labels()[start:end], classWeights, t.cfg.Eta)
			for i := range gradZ {
				gradZ[i] += gradSent[i]
			}
		}

		t.model.autoencoder.BackwardEncoder(gradZ, batch)
		opt.Step()

		result.Iterations = iter + 1

		if iter%saveInterval == 0 {
			name := fmt.Sprintf("model-%05d", iter)
			if err := t.model.Save(ctx, t.store, name); err != nil {
				return nil, err
			}
		}
	}

	if err := t.model.Save(ctx, t.store, FinalCheckpoint); err != nil {
		return nil, err
	}

	t.logger.Info("training finished",
		"iterations", result.Iterations,
		"converged", result.Converged,
		"delta_label", result.DeltaLabel,
	)

	return result, nil
}
