package declust

// NumClasses is the number of sentiment classes.
const NumClasses = 2

// Sentiment class indices and their display names.
const (
	SentimentNegative = 0
	SentimentPositive = 1
)

// ClassNames maps a sentiment class index to its display name.
var ClassNames = map[int]string{
	SentimentNegative: "negative",
	SentimentPositive: "positive",
}

// Input is the argument to Predict and ExtractFeatures: either raw texts
// (embedded via the model's provider) or precomputed row-major embeddings.
// Exactly one of the two must be set.
type Input struct {
	Texts      []string
	Embeddings []float32
}

// FromTexts wraps raw texts as an Input.
func FromTexts(texts ...string) Input {
	return Input{Texts: texts}
}

// FromEmbeddings wraps precomputed row-major embeddings as an Input.
func FromEmbeddings(embeddings []float32) Input {
	return Input{Embeddings: embeddings}
}

func (in Input) valid() bool {
	return (len(in.Texts) > 0) != (len(in.Embeddings) > 0)
}

// Prediction is the per-sample output of Predict.
type Prediction struct {
	// Sentiment is the predicted class name, "negative" or "positive".
	Sentiment string

	// Cluster is the arg-max cluster assignment in [0, K).
	Cluster int
}
