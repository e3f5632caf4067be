// Package verify checks heap images offline.
//
// Unlike the live heap, which treats every violation as fatal, these
// helpers report the first problem found as a *ValidationError. They are
// used on snapshots and on images read back from disk.
package verify

import (
	"errors"
	"fmt"

	"github.com/joshuapare/memmgr/heap/chunk"
	"github.com/joshuapare/memmgr/internal/buf"
	"github.com/joshuapare/memmgr/internal/format"
)

// ValidationError describes one invariant violation.
type ValidationError struct {
	Type    string
	Message string
	Offset  int
	Details map[string]any
}

func (e *ValidationError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset 0x%X: %s", e.Type, e.Offset, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Image validates every invariant of a heap image in one call.
// Returns the first error encountered, or nil if all checks pass.
func Image(data []byte, cfg chunk.Config) error {
	if err := ChainStructure(data, cfg); err != nil {
		return err
	}
	if err := Headers(data, cfg); err != nil {
		return err
	}
	return Coalesced(data, cfg)
}

// ChainStructure walks the csize fields from offset 0 and checks that the
// chunks tile the image: sizes in range, prev_size linkage intact, and no
// unused tail large enough to hold a chunk.
func ChainStructure(data []byte, cfg chunk.Config) error {
	if err := cfg.Validate(); err != nil {
		return &ValidationError{Type: "Config", Message: err.Error(), Offset: -1}
	}

	align := uint64(cfg.Alignment)
	minCSize := uint64(cfg.MinCSize())
	if uint64(len(data)) < minCSize*align {
		return &ValidationError{
			Type:    "ChainStructure",
			Message: fmt.Sprintf("image too small: %d bytes (need %d)", len(data), minCSize*align),
			Offset:  -1,
		}
	}

	var (
		off  uint64
		prev uint16
	)
	for off+minCSize*align <= uint64(len(data)) {
		h := format.DecodeHeader(data, int(off))
		if h.PrevSize != prev {
			return &ValidationError{
				Type:    "ChainStructure",
				Message: fmt.Sprintf("prev_size %d does not match previous csize %d", h.PrevSize, prev),
				Offset:  int(off),
				Details: map[string]any{"prev_size": h.PrevSize, "expected": prev},
			}
		}
		if uint64(h.CSize) < minCSize {
			return &ValidationError{
				Type:    "ChainStructure",
				Message: fmt.Sprintf("csize %d below minimum %d", h.CSize, minCSize),
				Offset:  int(off),
			}
		}
		size := int(uint64(h.CSize) * align)
		end, err := buf.CheckRange(len(data), int(off), size)
		if err != nil {
			return &ValidationError{
				Type:    "ChainStructure",
				Message: fmt.Sprintf("chunk of %d bytes does not fit: %v", size, err),
				Offset:  int(off),
			}
		}
		prev = h.CSize
		off = uint64(end)
	}
	return nil
}

// Headers checks alignment, checksum and guard bytes of every chunk.
func Headers(data []byte, cfg chunk.Config) (err error) {
	c, aerr := chunk.Attach(data, cfg, nil)
	if aerr != nil {
		return &ValidationError{Type: "Headers", Message: aerr.Error(), Offset: 0}
	}

	defer func() {
		v := recover()
		if v == nil {
			return
		}
		var ce *chunk.CorruptionError
		e, ok := v.(error)
		if !ok || !errors.As(e, &ce) {
			panic(v)
		}
		err = &ValidationError{
			Type:    "Headers",
			Message: ce.Msg,
			Offset:  int(ce.Ref),
		}
	}()

	c.Each(func(chunk.Ref) bool { return true })
	return nil
}

// Coalesced checks that no two neighbouring free chunks could have been
// merged. A live heap always merges them on free.
func Coalesced(data []byte, cfg chunk.Config) error {
	c, err := chunk.Attach(data, cfg, nil)
	if err != nil {
		return &ValidationError{Type: "Coalesced", Message: err.Error(), Offset: 0}
	}

	last := c.Boundary().Last
	off := chunk.Ref(0)
	for off != last {
		next := c.ComputeNext(off, c.CSize(off))
		if !c.Allocated(off) && !c.Allocated(next) &&
			uint32(c.CSize(off))+uint32(c.CSize(next)) <= chunk.CSizeMax {
			return &ValidationError{
				Type:    "Coalesced",
				Message: fmt.Sprintf("free chunks of %d and %d units left unmerged", c.CSize(off), c.CSize(next)),
				Offset:  int(off),
				Details: map[string]any{"next": uint32(next)},
			}
		}
		off = next
	}
	return nil
}
