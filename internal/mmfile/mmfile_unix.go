//go:build unix

// Package mmfile provides memory-mapped buffers for heaps and heap images.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps the file at path read-only and returns its contents.
func Map(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() // mapping keeps pages alive

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	size := info.Size()
	if size == 0 {
		return []byte{}, noop, nil
	}
	if size > maxSize {
		return nil, nil, fmt.Errorf("mmfile: file too large to map (%d bytes)", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	return data, unmapper(data), nil
}

// Anonymous returns a zeroed read-write mapping of size bytes not backed
// by any file.
func Anonymous(size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: anonymous map of %d bytes: %w", size, err)
	}
	return data, unmapper(data), nil
}

// Create creates (or truncates) the file at path to size bytes and maps it
// read-write. Writes to the returned slice reach the file; cleanup flushes
// and unmaps it.
func Create(path string, size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	if err := unix.Ftruncate(int(f.Fd()), int64(size)); err != nil {
		return nil, nil, fmt.Errorf("mmfile: truncate %s: %w", path, err)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: map %s: %w", path, err)
	}
	unmap := unmapper(data)
	cleanup := func() error {
		if err := unix.Msync(data, unix.MS_SYNC); err != nil && !errors.Is(err, unix.EINVAL) {
			return fmt.Errorf("mmfile: sync %s: %w", path, err)
		}
		return unmap()
	}
	return data, cleanup, nil
}

const maxSize = int64(^uint(0) >> 1)

func unmapper(data []byte) func() error {
	return func() error {
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
}

func noop() error { return nil }
