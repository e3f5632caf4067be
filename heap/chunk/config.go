package chunk

import (
	"fmt"

	"github.com/joshuapare/memmgr/internal/format"
)

const (
	// CSizeMax is the largest chunk size in alignment units.
	CSizeMax = format.CSizeMax

	// GuardOffsetMax is the largest requested byte size a chunk can record.
	GuardOffsetMax = format.GuardOffsetMax

	// HeaderSize is the size of a chunk header in bytes.
	HeaderSize = format.HeaderSize

	// GuardPad is the sentinel byte filling every guard region.
	GuardPad = 0x3E

	// maxAlignment keeps the header and the minimum chunk well below CSizeMax.
	maxAlignment = 1 << 12
)

// Config holds the compile-time style constants of a heap.
type Config struct {
	// Alignment is the size unit in bytes. Must be a power of two.
	Alignment uint32

	// MinPayload is the smallest payload, in units, a split may leave behind.
	MinPayload uint16

	// GuardSize is the number of units reserved past the requested size as
	// sentinel padding. At least one unit is required so that a one-byte
	// overrun always lands in the guard.
	GuardSize uint16
}

// DefaultConfig returns the configuration used when none is given:
// 4-byte units, 2 units of minimum payload, 1 unit of guard.
func DefaultConfig() Config {
	return Config{
		Alignment:  4,
		MinPayload: 2,
		GuardSize:  1,
	}
}

// Validate reports whether the configuration can describe a heap.
func (cfg Config) Validate() error {
	if !format.IsPow2(cfg.Alignment) {
		return fmt.Errorf("%w: alignment %d is not a power of two", ErrBadConfig, cfg.Alignment)
	}
	if cfg.Alignment > maxAlignment {
		return fmt.Errorf("%w: alignment %d exceeds %d", ErrBadConfig, cfg.Alignment, maxAlignment)
	}
	if cfg.GuardSize == 0 {
		return fmt.Errorf("%w: guard size must be at least one unit", ErrBadConfig)
	}
	if uint32(cfg.MinCSize()) > CSizeMax/2 {
		return fmt.Errorf("%w: minimum chunk of %d units is too large", ErrBadConfig, cfg.MinCSize())
	}
	return nil
}

// HeaderCSize is the header size in units.
func (cfg Config) HeaderCSize() uint16 {
	return uint16(format.Units(HeaderSize, cfg.Alignment))
}

// MinCSize is the smallest chunk a split may create:
// header + MinPayload + GuardSize.
func (cfg Config) MinCSize() uint16 {
	return cfg.HeaderCSize() + cfg.MinPayload + cfg.GuardSize
}

// ToCSize converts a requested byte size into the chunk size needed to hold
// it: ceil(size/Alignment) + header + guard. It reports false when the
// result cannot be represented (above CSizeMax, or size above
// GuardOffsetMax).
func (cfg Config) ToCSize(size uint32) (uint16, bool) {
	if size > GuardOffsetMax {
		return 0, false
	}
	wanted := format.Units(size, cfg.Alignment) +
		uint32(cfg.HeaderCSize()) + uint32(cfg.GuardSize)
	if wanted > CSizeMax {
		return 0, false
	}
	return uint16(wanted), true
}

// MaxRequest is the largest byte size ToCSize accepts.
func (cfg Config) MaxRequest() uint32 {
	units := uint32(CSizeMax) - uint32(cfg.HeaderCSize()) - uint32(cfg.GuardSize)
	return min(units*cfg.Alignment, GuardOffsetMax)
}
