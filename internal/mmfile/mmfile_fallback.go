//go:build !unix && !windows

// Package mmfile provides memory-mapped buffers for heaps and heap images.
package mmfile

import (
	"fmt"
	"os"
)

// Map reads the entire file when mmap is not available.
func Map(path string) ([]byte, func() error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, noop, err
	}
	return data, noop, nil
}

// Anonymous returns a zeroed heap-allocated buffer of size bytes.
func Anonymous(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid size %d", size)
	}
	return make([]byte, size), noop, nil
}

// Create returns an in-memory buffer of size bytes that cleanup writes to
// path.
func Create(path string, size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid size %d", size)
	}
	data := make([]byte, size)
	return data, func() error { return os.WriteFile(path, data, 0o644) }, nil
}

func noop() error { return nil }
