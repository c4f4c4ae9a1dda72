package embed

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hupe1980/declust/distance"
)

const (
	// DefaultDim is the default width of hashed embeddings.
	DefaultDim = 256

	// maxTokens caps how many leading tokens of a text contribute to its
	// vector. Longer documents are truncated, matching the fixed sequence
	// length used during training.
	maxTokens = 512
)

// HashingProvider embeds text by feature hashing: each token is hashed into
// one of Dim buckets with a signed count, and the bucket vector is
// L2-normalized. No vocabulary is needed and the mapping is stable across
// runs and processes.
type HashingProvider struct {
	dim int
}

var _ Provider = (*HashingProvider)(nil)

// NewHashingProvider creates a provider producing vectors of the given
// width. A non-positive dim falls back to DefaultDim.
func NewHashingProvider(dim int) *HashingProvider {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HashingProvider{dim: dim}
}

// Dim returns the embedding width.
func (p *HashingProvider) Dim() int {
	return p.dim
}

// Embed hashes each text into a normalized bucket vector.
func (p *HashingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = p.embedOne(text)
	}

	return vectors, nil
}

func (p *HashingProvider) embedOne(text string) []float32 {
	vec := make([]float32, p.dim)

	tokens := Tokenize(text)
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()

		bucket := int(sum % uint64(p.dim))
		// The bit above the bucket decides the sign, so collisions tend
		// to cancel rather than accumulate.
		if sum&(1<<63) != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	distance.NormalizeL2InPlace(vec)

	return vec
}

// Tokenize lowercases the text and splits it on any non-letter,
// non-digit rune. Empty fields are dropped.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
