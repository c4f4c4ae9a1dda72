package declust

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/declust/checkpoint"
	"github.com/hupe1980/declust/testutil"
	"github.com/hupe1980/declust/trainlog"
)

// endToEndDataset is 256 synthetic 50-dimensional vectors in 4 clusters
// with balanced binary labels.
func endToEndDataset(t *testing.T, labeled bool) *Dataset {
	t.Helper()

	rng := testutil.NewRNG(42)
	data, _ := rng.ClusteredVectors(256, 50, 4, 0.05)

	var labels []int
	if labeled {
		labels = rng.BalancedLabels(256)
	}

	ds, err := NewDataset(data, 50, labels)
	require.NoError(t, err)
	return ds
}

func endToEndModel(t *testing.T) *Model {
	t.Helper()

	m, err := New([]int{50, 32, 16, 8}, 4, WithSeed(42), WithLogger(nil))
	require.NoError(t, err)
	return m
}

func TestTrain_RequiresPretrainedWeights(t *testing.T) {
	m := endToEndModel(t)
	trainer := NewTrainer(m, checkpoint.NewMemoryStore(), TrainConfig{})

	_, err := trainer.Train(context.Background(), endToEndDataset(t, true))
	assert.ErrorIs(t, err, ErrMissingPretrainedWeights)
}

func TestTrain_LoadsPretrainedWeightsFromStore(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	ds := endToEndDataset(t, true)

	pre := endToEndModel(t)
	preTrainer := NewTrainer(pre, store, TrainConfig{PretrainEpochs: 2, BatchSize: 64})
	require.NoError(t, preTrainer.Pretrain(ctx, ds))

	// fresh model, no Pretrain call: weights come from the store
	m := endToEndModel(t)
	trainer := NewTrainer(m, store, TrainConfig{
		MaxIter:        30,
		UpdateInterval: 15,
		BatchSize:      64,
		KMeansRestarts: 4,
	})

	_, err := trainer.Train(ctx, ds)
	require.NoError(t, err)
	assert.True(t, m.pretrained)
}

func TestTrain_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()
	logPath := filepath.Join(t.TempDir(), "training.csv")

	m := endToEndModel(t)
	ds := endToEndDataset(t, true)

	trainer := NewTrainer(m, store, TrainConfig{
		PretrainEpochs: 20,
		MaxIter:        300,
		UpdateInterval: 70,
		BatchSize:      64,
		KMeansRestarts: 4,
		Tol:            1e-4, // keep the loop running to MaxIter
		LogPath:        logPath,
	})

	require.NoError(t, trainer.Pretrain(ctx, ds))

	result, err := trainer.Train(ctx, ds)
	require.NoError(t, err)
	assert.Positive(t, result.Iterations)

	// predictions stay in range
	clusters, err := m.PredictClusters(ctx, FromEmbeddings(ds.Embeddings()))
	require.NoError(t, err)
	for _, c := range clusters {
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, 4)
	}

	sentiments, err := m.PredictSentiment(ctx, FromEmbeddings(ds.Embeddings()))
	require.NoError(t, err)
	for _, s := range sentiments {
		assert.Contains(t, []int{0, 1}, s)
	}

	// final checkpoint written
	ok, err := checkpoint.Exists(ctx, store, FinalCheckpoint)
	require.NoError(t, err)
	assert.True(t, ok)

	// CSV log has the fixed header and one row per refresh
	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 2)
	assert.Equal(t, trainlog.Header, rows[0])
	assert.Equal(t, "0", rows[1][0])
}

func TestTrain_Unlabeled(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	m := endToEndModel(t)
	ds := endToEndDataset(t, false)

	trainer := NewTrainer(m, store, TrainConfig{
		PretrainEpochs: 10,
		MaxIter:        150,
		UpdateInterval: 70,
		BatchSize:      64,
		KMeansRestarts: 4,
		Tol:            1e-4,
	})

	require.NoError(t, trainer.Pretrain(ctx, ds))

	result, err := trainer.Train(ctx, ds)
	require.NoError(t, err)

	// clustering-only: no sentiment loss, no accuracy
	assert.Zero(t, result.SentimentLoss)
	assert.Zero(t, result.Accuracy)
	assert.Equal(t, result.ClusteringLoss, result.Loss)
}

func TestTrain_Converges(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	m := endToEndModel(t)
	ds := endToEndDataset(t, true)

	// well-separated clusters and a forgiving tolerance: assignments
	// stabilize long before MaxIter
	trainer := NewTrainer(m, store, TrainConfig{
		PretrainEpochs: 20,
		MaxIter:        5000,
		UpdateInterval: 40,
		BatchSize:      64,
		KMeansRestarts: 4,
		Tol:            0.5,
	})

	require.NoError(t, trainer.Pretrain(ctx, ds))

	result, err := trainer.Train(ctx, ds)
	require.NoError(t, err)

	assert.True(t, result.Converged)
	assert.Less(t, result.Iterations, 5000)
	assert.Less(t, result.DeltaLabel, float32(0.5))
	assert.GreaterOrEqual(t, result.DeltaLabel, float32(0))
	assert.LessOrEqual(t, result.DeltaLabel, float32(1))
}

func TestTrain_IntervalCheckpoints(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	m := endToEndModel(t)
	ds := endToEndDataset(t, true)

	// UpdateInterval beyond MaxIter: only the initial refresh runs, so the
	// loop cannot converge early and both interval checkpoints get written
	trainer := NewTrainer(m, store, TrainConfig{
		PretrainEpochs: 2,
		MaxIter:        50,
		UpdateInterval: 60,
		BatchSize:      64,
		KMeansRestarts: 2,
		SaveInterval:   20,
	})

	require.NoError(t, trainer.Pretrain(ctx, ds))
	_, err := trainer.Train(ctx, ds)
	require.NoError(t, err)

	names, err := store.List(ctx, "model-")
	require.NoError(t, err)
	assert.Contains(t, names, "model-00000")
	assert.Contains(t, names, "model-00020")
	assert.Contains(t, names, "model-00040")
	assert.Contains(t, names, FinalCheckpoint)
}

func TestBatchCursor(t *testing.T) {
	// Uneven case: a short tail batch, then the cursor restarts at zero.
	c := &batchCursor{n: 100, size: 64}
	want := [][2]int{{0, 64}, {64, 100}, {0, 64}, {64, 100}, {0, 64}}
	for i, w := range want {
		start, end := c.next()
		assert.Equal(t, w[0], start, "iteration %d start", i)
		assert.Equal(t, w[1], end, "iteration %d end", i)
		assert.Greater(t, end, start, "iteration %d batch must not be empty", i)
	}

	// Exact multiple: no tail batch, cycle restarts after the last full one.
	c = &batchCursor{n: 128, size: 64}
	want = [][2]int{{0, 64}, {64, 128}, {0, 64}, {64, 128}}
	for i, w := range want {
		start, end := c.next()
		assert.Equal(t, w[0], start, "iteration %d start", i)
		assert.Equal(t, w[1], end, "iteration %d end", i)
	}
}

func TestTrain_UnevenBatchSize(t *testing.T) {
	ctx := context.Background()
	store := checkpoint.NewMemoryStore()

	rng := testutil.NewRNG(42)
	data, _ := rng.ClusteredVectors(100, 50, 4, 0.05)
	ds, err := NewDataset(data, 50, rng.BalancedLabels(100))
	require.NoError(t, err)

	m := endToEndModel(t)
	trainer := NewTrainer(m, store, TrainConfig{
		PretrainEpochs: 2,
		MaxIter:        10,
		UpdateInterval: 20,
		BatchSize:      64,
		KMeansRestarts: 2,
	})

	require.NoError(t, trainer.Pretrain(ctx, ds))
	res, err := trainer.Train(ctx, ds)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Iterations)
}

func TestTrain_Cancellation(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	m := endToEndModel(t)
	ds := endToEndDataset(t, true)

	trainer := NewTrainer(m, store, TrainConfig{PretrainEpochs: 2, BatchSize: 64, KMeansRestarts: 2})
	require.NoError(t, trainer.Pretrain(context.Background(), ds))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := trainer.Train(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}
