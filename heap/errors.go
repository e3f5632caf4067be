package heap

import (
	"errors"

	"github.com/joshuapare/memmgr/heap/chunk"
)

var (
	// ErrTooLarge indicates a request whose chunk size cannot be represented.
	ErrTooLarge = errors.New("heap: request too large")

	// ErrNoSpace indicates that no free chunk large enough was found.
	ErrNoSpace = errors.New("heap: no free chunk large enough")

	// ErrBufferTooSmall indicates a buffer that cannot hold a single chunk.
	ErrBufferTooSmall = errors.New("heap: buffer too small")

	// ErrBadConfig indicates an unusable chunk configuration.
	ErrBadConfig = chunk.ErrBadConfig
)
