package heap

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/memmgr/heap/chunk"
	"github.com/joshuapare/memmgr/heap/guard"
)

// Ptr is the byte offset of a payload inside the heap buffer.
type Ptr uint32

// Nil is the null payload pointer.
const Nil Ptr = 0

// Stats holds allocator counters.
type Stats struct {
	AllocCalls     int // Alloc/Zalloc/Calloc calls, and Realloc falling back to alloc
	FreeCalls      int // Free calls, including Realloc(p, 0) and moves
	ReallocCalls   int // Realloc calls
	Splits         int // chunk splits
	Merges         int // chunk merges
	InPlaceShrinks int // Realloc served by shrinking the chunk
	InPlaceGrows   int // Realloc served by merging with neighbours
	Moves          int // Realloc served by alloc, copy and free
	Failures       int // requests that returned an error
	BytesAllocated int64
	BytesFreed     int64
}

// Heap is a first-fit allocator over a fixed buffer.
type Heap struct {
	chain  *chunk.Chain
	policy Policy
	guard  *guard.Guard
	log    *slog.Logger
	site   SiteFunc
	stats  Stats
}

// New lays out a fresh chunk chain over buf and returns the heap managing
// it. buf is owned by the heap from then on. Any previous content is lost.
//
// The buffer is partitioned into free chunks of at most chunk.CSizeMax
// units; a tail too small for a minimum chunk is left unused.
func New(buf []byte, opts ...Option) (*Heap, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	h := &Heap{
		policy: o.policy,
		guard:  guard.New(o.mu),
		log:    o.logger,
		site:   o.site,
	}

	userDie := o.die
	die := func(msg string) {
		h.log.Error("heap corruption", "reason", msg)
		if userDie != nil {
			userDie(msg)
		}
	}

	c, err := chunk.New(buf, o.cfg, die)
	if err != nil {
		return nil, fmt.Errorf("heap: %w", err)
	}
	h.chain = c

	bnd, err := partition(c)
	if err != nil {
		return nil, err
	}
	c.SetBoundary(bnd)

	h.log.Debug("heap initialised",
		"bytes", len(buf),
		"chunks", bnd.Count,
		"alignment", o.cfg.Alignment,
		"max_request", o.cfg.MaxRequest())
	return h, nil
}

// NewStatic allocates a heap-owned buffer of the size set by WithHeapSize
// (DefaultHeapSize otherwise) and lays out a heap over it.
func NewStatic(opts ...Option) (*Heap, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return New(make([]byte, o.size), opts...)
}

func partition(c *chunk.Chain) (chunk.Boundary, error) {
	align := uint64(c.Config().Alignment)
	remaining := uint64(len(c.Bytes())) / align
	minCSize := uint64(c.MinCSize())

	var (
		bnd  chunk.Boundary
		r    chunk.Ref
		prev uint16
	)
	for remaining >= minCSize {
		csize := uint16(min(remaining, chunk.CSizeMax))
		c.Init(r, prev, csize)
		bnd.Last = r
		bnd.Count++
		prev = csize
		remaining -= uint64(csize)
		r = c.ComputeNext(r, csize)
	}
	if bnd.Count == 0 {
		return chunk.Boundary{}, fmt.Errorf("%w: %d bytes, need at least %d",
			ErrBufferTooSmall, len(c.Bytes()), minCSize*align)
	}
	return bnd, nil
}

// Config returns the chunk geometry of the heap.
func (h *Heap) Config() chunk.Config { return h.chain.Config() }

// Size returns the size of the heap buffer in bytes.
func (h *Heap) Size() int { return len(h.chain.Bytes()) }

// Bytes returns the payload of the live allocation p. Its length is the
// requested size; its capacity runs over the guard, so writes past the
// length are detected at the next check of the chunk.
func (h *Heap) Bytes(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	h.guard.Enter()
	defer h.guard.Leave()

	r := h.chain.ToChunk(uint32(p))
	if !h.chain.Allocated(r) {
		h.chain.Fatal(chunk.MsgNotAllocated, r)
	}
	return h.chain.Payload(r)
}
