// Package declust provides joint deep clustering and sentiment
// classification for text embeddings.
//
// A shared autoencoder bottleneck feeds two heads: a clustering head that
// produces soft cluster assignments through a Student's-t kernel over
// learned centroids (IDEC-style), and a sentiment head that classifies
// each sample as negative or positive. Training alternates between
// refreshing a self-supervised target distribution and taking gradient
// steps on the combined loss
//
//	L = gamma*KL(p||q) + eta*weighted_cross_entropy
//
// so the cluster structure and the supervised signal shape the same
// representation.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	model, _ := declust.New([]int{50, 32, 16, 8}, 4,
//	    declust.WithEmbeddingProvider(embed.NewHashingProvider(50)),
//	)
//
//	store := checkpoint.NewLocalStore("./checkpoints")
//	trainer := declust.NewTrainer(model, store, declust.TrainConfig{
//	    LogPath: "training.csv",
//	})
//
//	_ = trainer.Pretrain(ctx, dataset) // autoencoder, reconstruction loss
//	result, _ := trainer.Train(ctx, dataset)
//
//	predictions, _ := model.Predict(ctx, declust.FromTexts("a fine little film"))
//	fmt.Println(predictions[0].Sentiment, predictions[0].Cluster)
//
// # Training Phases
//
// Joint training requires pretrained autoencoder weights: run Pretrain
// first, or place a PretrainedCheckpoint blob in the store. Train then
// initializes centroids with k-means (best of several restarts), and loops:
// every UpdateInterval iterations it recomputes the soft assignments over
// the full dataset, derives the sharpened target distribution, and checks
// the fraction of samples that changed cluster; when that rate drops below
// Tol on a non-first refresh, training has converged.
//
// # Checkpoints
//
// Models persist through the checkpoint package: local filesystem,
// in-memory, MinIO, or S3 stores, all writing the same sectioned binary
// format with optional compression.
//
// # Unlabeled Operation
//
// A dataset without labels trains clustering-only: the sentiment loss term
// is zero and class weights are never computed.
package declust
