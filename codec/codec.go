// Package codec centralizes checkpoint payload compression.
//
// Checkpoint blobs record the codec name in their header, so a blob written
// with one codec is always readable later regardless of the configured
// default. Changing the default only affects newly written blobs.
package codec

import "fmt"

// Codec compresses and decompresses checkpoint payloads.
// Implementations must be safe for concurrent use.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// Default is the codec used when none is configured.
var Default Codec = None{}

// ByName returns a built-in codec by its stable name.
//
// This is used by the self-describing checkpoint format, which stores the
// codec name in its header.
func ByName(name string) (Codec, bool) {
	switch name {
	case "none":
		return None{}, true
	case "zstd":
		return NewZstd(), true
	case "lz4":
		return LZ4{}, true
	default:
		return nil, false
	}
}

// MustCompress is a helper for internal tests/benchmarks.
func MustCompress(c Codec, data []byte) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Compress(data)
	if err != nil {
		panic(fmt.Errorf("codec %s compress failed: %w", c.Name(), err))
	}
	return b
}

// None is a pass-through codec.
type None struct{}

// Compress returns data unchanged.
func (None) Compress(data []byte) ([]byte, error) { return data, nil }

// Decompress returns data unchanged.
func (None) Decompress(data []byte) ([]byte, error) { return data, nil }

// Name returns the stable codec name.
func (None) Name() string { return "none" }
