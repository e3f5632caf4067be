package heap

import (
	"fmt"

	"github.com/joshuapare/memmgr/heap/chunk"
	"github.com/joshuapare/memmgr/internal/buf"
)

// Alloc returns a payload of n bytes. A zero n returns Nil and no error.
// It fails with ErrTooLarge when n cannot be represented by a chunk and
// with ErrNoSpace when no free chunk is large enough.
func (h *Heap) Alloc(n uint32) (Ptr, error) {
	site := h.site()
	h.guard.Enter()
	defer h.guard.Leave()

	return h.allocLocked(n, uint64(site))
}

// AllocAt is Alloc with an explicit call site.
func (h *Heap) AllocAt(n uint32, site uint64) (Ptr, error) {
	h.guard.Enter()
	defer h.guard.Leave()

	return h.allocLocked(n, site)
}

// Zalloc is Alloc with the payload zero-filled.
func (h *Heap) Zalloc(n uint32) (Ptr, error) {
	site := h.site()
	h.guard.Enter()
	defer h.guard.Leave()

	return h.zallocLocked(n, uint64(site))
}

// Calloc returns a zero-filled payload for count elements of size bytes.
// A product that does not fit in 32 bits fails with ErrTooLarge.
func (h *Heap) Calloc(count, size uint32) (Ptr, error) {
	site := h.site()
	h.guard.Enter()
	defer h.guard.Leave()

	total, ok := buf.MulU32(count, size)
	if !ok {
		h.stats.AllocCalls++
		h.stats.Failures++
		return Nil, fmt.Errorf("%w: %d elements of %d bytes", ErrTooLarge, count, size)
	}
	return h.zallocLocked(total, uint64(site))
}

func (h *Heap) zallocLocked(n uint32, site uint64) (Ptr, error) {
	p, err := h.allocLocked(n, site)
	if err != nil || p == Nil {
		return p, err
	}
	clear(h.chain.Payload(h.chain.ToChunk(uint32(p))))
	return p, nil
}

func (h *Heap) allocLocked(n uint32, site uint64) (Ptr, error) {
	h.stats.AllocCalls++
	if n == 0 {
		return Nil, nil
	}

	c := h.chain
	wanted, ok := c.Config().ToCSize(n)
	if !ok {
		h.stats.Failures++
		h.log.Debug("alloc too large", "size", n, "max", c.Config().MaxRequest())
		return Nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, n, c.Config().MaxRequest())
	}

	r, ok := h.policy.FindFirstFree(c, wanted)
	if !ok {
		h.stats.Failures++
		h.log.Debug("alloc out of space", "size", n, "csize", wanted, "chunks", c.Count())
		return Nil, fmt.Errorf("%w: %d bytes", ErrNoSpace, n)
	}

	if c.CSize(r) > wanted+c.MinCSize() {
		h.splitLocked(r, wanted)
	}

	c.SetAllocated(r, true)
	c.GuardSet(r, n)
	c.SetAllocator(r, site)
	c.Seal(r)

	h.stats.BytesAllocated += int64(n)
	return Ptr(c.PayloadOffset(r)), nil
}

// splitLocked cuts r down to csize units and merges the remainder with its
// right neighbour when that one is free. It reports whether r was split.
func (h *Heap) splitLocked(r chunk.Ref, csize uint16) bool {
	c := h.chain
	rest, ok := h.policy.Split(c, r, csize)
	if !ok {
		return false
	}
	h.stats.Splits++

	if next, ok := c.Next(rest); ok && !c.Allocated(next) {
		h.mergeLocked(rest)
	}
	return true
}

// mergeLocked absorbs the chunk following r through the policy. It reports
// whether the chain actually lost a chunk.
func (h *Heap) mergeLocked(r chunk.Ref) bool {
	before := h.chain.Count()
	h.policy.Merge(h.chain, r)
	if h.chain.Count() < before {
		h.stats.Merges++
		return true
	}
	return false
}
