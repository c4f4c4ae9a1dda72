package codec

import "github.com/klauspost/compress/zstd"

// Zstd compresses payloads with zstandard. The zero value is not usable;
// construct it with NewZstd.
type Zstd struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstd creates a Zstd codec with default compression level.
func NewZstd() Zstd {
	// Errors are impossible without options/readers.
	enc, _ := zstd.NewWriter(nil)
	dec, _ := zstd.NewReader(nil)
	return Zstd{enc: enc, dec: dec}
}

// Compress compresses data into a fresh buffer.
func (c Zstd) Compress(data []byte) ([]byte, error) {
	return c.enc.EncodeAll(data, make([]byte, 0, len(data))), nil
}

// Decompress decompresses data into a fresh buffer.
func (c Zstd) Decompress(data []byte) ([]byte, error) {
	return c.dec.DecodeAll(data, nil)
}

// Name returns the stable codec name.
func (Zstd) Name() string { return "zstd" }
