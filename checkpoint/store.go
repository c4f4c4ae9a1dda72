package checkpoint

import (
	"context"
	"errors"
	"io"
	"os"
)

// ErrNotFound is returned when a named checkpoint does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for persisting named checkpoint blobs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put writes a blob atomically under the given name, replacing any
	// previous blob with that name.
	Put(ctx context.Context, name string, data []byte) error
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns all blob names with the given prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a checkpoint blob.
type Blob interface {
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
	// Bytes returns the blob contents. The slice is valid until Close.
	Bytes() ([]byte, error)
}

// ReadAll opens the named blob and returns a copy of its contents.
func ReadAll(ctx context.Context, s Store, name string) ([]byte, error) {
	blob, err := s.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := blob.Bytes()
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists reports whether the named blob exists.
func Exists(ctx context.Context, s Store, name string) (bool, error) {
	blob, err := s.Open(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	_ = blob.Close()
	return true, nil
}
