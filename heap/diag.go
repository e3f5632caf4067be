package heap

import (
	"fmt"
	"io"

	"github.com/joshuapare/memmgr/heap/chunk"
)

// Chunk is a diagnostic view of one chunk of the chain.
type Chunk struct {
	chunk.Info
	Ref    chunk.Ref // header offset
	Ptr    Ptr       // payload offset
	Xorsum uint16
}

// Check validates every chunk of the chain. Any violation is fatal.
func (h *Heap) Check() {
	h.guard.Enter()
	defer h.guard.Leave()

	h.chain.Each(func(chunk.Ref) bool { return true })
}

// NbChunk returns the number of chunks in the chain.
func (h *Heap) NbChunk() uint32 {
	h.guard.Enter()
	defer h.guard.Leave()

	return h.chain.Count()
}

// ChunkInfo fills out with one entry per chunk, in chain order, and
// returns the number of entries written. It stops early when out is full.
func (h *Heap) ChunkInfo(out []chunk.Info) int {
	h.guard.Enter()
	defer h.guard.Leave()

	n := 0
	h.chain.Each(func(r chunk.Ref) bool {
		if n == len(out) {
			return false
		}
		out[n] = h.chain.Info(r)
		n++
		return true
	})
	return n
}

// Chunks returns a view of every chunk, in chain order.
func (h *Heap) Chunks() []Chunk {
	h.guard.Enter()
	defer h.guard.Leave()

	return h.chunksLocked()
}

func (h *Heap) chunksLocked() []Chunk {
	c := h.chain
	out := make([]Chunk, 0, c.Count())
	c.Each(func(r chunk.Ref) bool {
		out = append(out, Chunk{
			Info:   c.Info(r),
			Ref:    r,
			Ptr:    Ptr(c.PayloadOffset(r)),
			Xorsum: c.StoredXorsum(r),
		})
		return true
	})
	return out
}

// AllocatorSet overwrites the call site recorded for the live allocation p.
func (h *Heap) AllocatorSet(p Ptr, site uint64) {
	h.guard.Enter()
	defer h.guard.Leave()

	c := h.chain
	r := c.ToChunk(uint32(p))
	if !c.Allocated(r) {
		c.Fatal(chunk.MsgNotAllocated, r)
	}
	c.SetAllocator(r, site)
	c.Seal(r)
}

// Owns reports whether p falls inside the payload area of the heap. It
// does not tell whether p is a live allocation.
func (h *Heap) Owns(p Ptr) bool {
	if p == Nil {
		return false
	}
	first := h.chain.PayloadOffset(0)
	return uint32(p) >= first && uint64(p) < uint64(h.Size())
}

// Stats returns a copy of the allocator counters.
func (h *Heap) Stats() Stats {
	h.guard.Enter()
	defer h.guard.Leave()

	return h.stats
}

// Snapshot returns a copy of the whole heap buffer, suitable for
// verify.Image or chunk.Attach.
func (h *Heap) Snapshot() []byte {
	h.guard.Enter()
	defer h.guard.Leave()

	return append([]byte(nil), h.chain.Bytes()...)
}

// Dump writes one line per chunk: offset, csize, guard offset, state,
// stored checksum and the running csize total.
func (h *Heap) Dump(w io.Writer) error {
	h.guard.Enter()
	defer h.guard.Leave()

	if _, err := fmt.Fprintln(w, "--------|-----|------|-----|------|------"); err != nil {
		return err
	}
	var sum uint32
	for _, ch := range h.chunksLocked() {
		sum += uint32(ch.CSize)
		if _, err := fmt.Fprintf(w, "%08x|%5d|%6d|%5t|%#.4x|%d\n",
			uint32(ch.Ref), ch.CSize, ch.Size, ch.Allocated, ch.Xorsum, sum); err != nil {
			return err
		}
	}
	return nil
}
