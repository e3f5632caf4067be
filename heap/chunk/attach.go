package chunk

import (
	"fmt"

	"github.com/joshuapare/memmgr/internal/format"
)

// Attach rebuilds the boundary of a chain previously laid out in mem, for
// example a heap image read back from disk. It walks csize fields from
// offset 0 while at least one minimum chunk of space remains, without
// validating checksums or guards; call Validate or Each afterwards to check
// the chunks themselves.
func Attach(mem []byte, cfg Config, die DieFunc) (*Chain, error) {
	c, err := New(mem, cfg, die)
	if err != nil {
		return nil, err
	}

	minBytes := uint64(c.min) * uint64(c.align)
	var (
		off   uint64
		last  Ref
		count uint32
	)
	for off+minBytes <= uint64(len(mem)) {
		h := format.DecodeHeader(mem, int(off))
		size := uint64(h.CSize) * uint64(c.align)
		if h.CSize < c.min || off+size > uint64(len(mem)) {
			break
		}
		last = Ref(off)
		count++
		off += size
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: first header at offset 0 is not a chunk", ErrNoChain)
	}

	c.SetBoundary(Boundary{First: 0, Last: last, Count: count})
	return c, nil
}
