package heap

import (
	"fmt"

	"github.com/joshuapare/memmgr/heap/chunk"
)

// Realloc resizes the allocation p to n bytes and returns the new pointer.
//
// Realloc(p, 0) frees p and returns Nil. Realloc(Nil, n) is Alloc(n).
// Shrinking always happens in place. Growing first tries to absorb free
// neighbours, which may move the payload down into the left neighbour; only
// when that fails is a new chunk allocated, the payload copied and p freed.
// On error p is left untouched and still valid.
func (h *Heap) Realloc(p Ptr, n uint32) (Ptr, error) {
	site := h.site()
	h.guard.Enter()
	defer h.guard.Leave()

	return h.reallocLocked(p, n, uint64(site))
}

func (h *Heap) reallocLocked(p Ptr, n uint32, site uint64) (Ptr, error) {
	h.stats.ReallocCalls++
	if n == 0 {
		h.freeLocked(p)
		return Nil, nil
	}
	if p == Nil {
		return h.allocLocked(n, site)
	}

	c := h.chain
	r := c.ToChunk(uint32(p))
	if !c.Allocated(r) {
		c.Fatal(chunk.MsgNotAllocated, r)
	}

	wanted, ok := c.Config().ToCSize(n)
	if !ok {
		h.stats.Failures++
		return Nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, n, c.Config().MaxRequest())
	}

	old := c.GuardOffset(r)
	if wanted <= c.CSize(r) {
		h.resizeLocked(r, wanted, n, site)
		h.stats.InPlaceShrinks++
		h.stats.BytesAllocated += int64(n) - int64(old)
		h.log.Debug("realloc in place", "from", old, "to", n)
		return p, nil
	}

	if g, ok := h.growCandidate(r, wanted); ok {
		dst := h.applyGrow(r, g)
		h.resizeLocked(dst, wanted, n, site)
		h.stats.InPlaceGrows++
		h.stats.BytesAllocated += int64(n) - int64(old)
		h.log.Debug("realloc grown", "from", old, "to", n, "moved", dst != r)
		return Ptr(c.PayloadOffset(dst)), nil
	}

	np, err := h.allocLocked(n, site)
	if err != nil {
		return Nil, err
	}
	copy(c.Payload(c.ToChunk(uint32(np))), c.Payload(r))
	h.freeLocked(p)
	h.stats.Moves++
	h.log.Debug("realloc moved", "from", old, "to", n)
	return np, nil
}

// resizeLocked fits the allocated chunk r to a request of n bytes needing
// wanted units: the guard moves to n and the unused tail is split off.
func (h *Heap) resizeLocked(r chunk.Ref, wanted uint16, n uint32, site uint64) {
	c := h.chain
	c.GuardSet(r, n)
	c.SetAllocator(r, site)
	c.Seal(r)
	if c.CSize(r) > wanted {
		h.splitLocked(r, wanted)
	}
}

type growSide int

const (
	growRight growSide = iota
	growLeft
	growBoth
)

type grow struct {
	side growSide
	prev chunk.Ref
	size uint32
}

// growCandidate picks the smallest in-place growth of r reaching wanted
// units. Ties go to the right neighbour, then the left one, then both.
func (h *Heap) growCandidate(r chunk.Ref, wanted uint16) (grow, bool) {
	c := h.chain
	size := uint32(c.CSize(r))

	var right, left uint32
	next, hasNext := c.Next(r)
	if hasNext && !c.Allocated(next) {
		right = uint32(c.CSize(next))
	}
	prev, hasPrev := c.Prev(r)
	if hasPrev && !c.Allocated(prev) {
		left = uint32(c.CSize(prev))
	}

	var (
		best  grow
		found bool
	)
	consider := func(side growSide, total uint32) {
		if total < uint32(wanted) || total > chunk.CSizeMax {
			return
		}
		if !found || total < best.size {
			best = grow{side: side, prev: prev, size: total}
			found = true
		}
	}
	if right > 0 {
		consider(growRight, size+right)
	}
	if left > 0 {
		consider(growLeft, left+size)
	}
	if right > 0 && left > 0 {
		consider(growBoth, left+size+right)
	}
	return best, found
}

// applyGrow performs the merges of g and returns the resulting chunk.
func (h *Heap) applyGrow(r chunk.Ref, g grow) chunk.Ref {
	switch g.side {
	case growRight:
		h.mergeLocked(r)
		return r
	case growLeft:
		h.mergeLocked(g.prev)
		return g.prev
	default:
		h.mergeLocked(r)
		h.mergeLocked(g.prev)
		return g.prev
	}
}
