package declust

import (
	"log/slog"

	"github.com/hupe1980/declust/codec"
	"github.com/hupe1980/declust/embed"
)

const (
	// DefaultAlpha is the Student's-t degree-of-freedom parameter.
	DefaultAlpha = 1.0

	// DefaultDropoutRate is the dropout rate of the sentiment head.
	DefaultDropoutRate = 0.4

	// DefaultSeed seeds weight initialization and dropout masks.
	DefaultSeed = 42
)

type options struct {
	alpha       float32
	dropoutRate float32
	seed        int64
	codec       codec.Codec
	provider    embed.Provider
	logger      *Logger
}

// Option configures Model construction.
type Option func(*options)

// WithAlpha sets the Student's-t degree-of-freedom parameter of the
// clustering kernel. Alpha 1 is the DEC default.
func WithAlpha(alpha float32) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithDropoutRate sets the dropout rate of the sentiment head.
func WithDropoutRate(rate float32) Option {
	return func(o *options) {
		o.dropoutRate = rate
	}
}

// WithSeed seeds the model's random source, making weight initialization
// and dropout masks reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithCodec configures the codec used for checkpoint payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithEmbeddingProvider sets the provider used to embed raw text passed
// to Predict and ExtractFeatures. Without one, only precomputed
// embeddings are accepted.
func WithEmbeddingProvider(p embed.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel configures a text logger at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func defaultOptions() options {
	return options{
		alpha:       DefaultAlpha,
		dropoutRate: DefaultDropoutRate,
		seed:        DefaultSeed,
		codec:       codec.Default,
		logger:      NewLogger(nil),
	}
}
