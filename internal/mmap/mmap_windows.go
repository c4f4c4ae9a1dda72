//go:build windows

package mmap

import "os"

// Windows builds fall back to reading the file into memory. Checkpoint blobs
// are modest in size and the read-only semantics are identical.
func mapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		return nil, err
	}
	return data, nil
}

func unmapFile(data []byte) error {
	return nil
}
