package heap

import "github.com/joshuapare/memmgr/heap/chunk"

// Free releases p and coalesces it with free neighbours. Freeing Nil is a
// no-op; freeing a chunk that is already free is fatal.
func (h *Heap) Free(p Ptr) {
	h.guard.Enter()
	defer h.guard.Leave()

	h.freeLocked(p)
}

func (h *Heap) freeLocked(p Ptr) {
	if p == Nil {
		return
	}
	h.stats.FreeCalls++

	c := h.chain
	r := c.ToChunk(uint32(p))
	if !c.Allocated(r) {
		c.Fatal(chunk.MsgDoubleFree, r)
	}
	h.stats.BytesFreed += int64(c.GuardOffset(r))

	c.SetAllocated(r, false)
	c.GuardSet(r, 0)
	c.SetAllocator(r, 0)
	c.Seal(r)

	if next, ok := c.Next(r); ok && !c.Allocated(next) {
		h.mergeLocked(r)
	}
	if prev, ok := c.Prev(r); ok && !c.Allocated(prev) {
		h.mergeLocked(prev)
	}
}
