package codec

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 compresses payloads with the LZ4 frame format. Faster but less dense
// than zstd; a reasonable choice for frequent intermediate checkpoints.
type LZ4 struct{}

// Compress compresses data into a fresh buffer.
func (LZ4) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress decompresses data into a fresh buffer.
func (LZ4) Decompress(data []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
}

// Name returns the stable codec name.
func (LZ4) Name() string { return "lz4" }
