package chunk

import (
	"fmt"
	"math"

	"github.com/joshuapare/memmgr/internal/format"
)

// Ref is the byte offset of a chunk header from the start of the buffer.
type Ref uint32

// Boundary records the first and last chunk of the chain and the number of
// live chunks. It is the only way to detect the end of the chain.
type Boundary struct {
	First Ref
	Last  Ref
	Count uint32
}

// Info is a diagnostic snapshot of one chunk.
type Info struct {
	Size      uint32 // requested size in bytes (guard offset)
	CSize     uint16 // total size in units
	Allocated bool
	Allocator uint64 // call site recorded at allocation
}

// Chain gives chunk-level access to a backing buffer.
type Chain struct {
	cfg   Config
	mem   []byte
	align uint32
	hdr   uint16 // header size in units
	min   uint16 // minimum chunk size in units
	bnd   Boundary
	die   DieFunc
}

// New wraps mem without touching it. The boundary is empty until
// SetBoundary or Attach establishes it.
func New(mem []byte, cfg Config, die DieFunc) (*Chain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(mem)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrBufferTooLarge, len(mem))
	}
	return &Chain{
		cfg:   cfg,
		mem:   mem,
		align: cfg.Alignment,
		hdr:   cfg.HeaderCSize(),
		min:   cfg.MinCSize(),
		die:   die,
	}, nil
}

// Config returns the chain configuration.
func (c *Chain) Config() Config { return c.cfg }

// Bytes returns the backing buffer.
func (c *Chain) Bytes() []byte { return c.mem }

// SetBoundary installs the first/last chunk record.
func (c *Chain) SetBoundary(b Boundary) { c.bnd = b }

// Boundary returns the current first/last chunk record.
func (c *Chain) Boundary() Boundary { return c.bnd }

// Count returns the number of live chunks.
func (c *Chain) Count() uint32 { return c.bnd.Count }

// HeaderCSize is the header size in units.
func (c *Chain) HeaderCSize() uint16 { return c.hdr }

// MinCSize is the smallest chunk a split may leave behind.
func (c *Chain) MinCSize() uint16 { return c.min }

// ComputeNext returns the offset csize units after r, without validation.
func (c *Chain) ComputeNext(r Ref, csize uint16) Ref {
	return r + Ref(uint32(csize)*c.align)
}

func (c *Chain) header(r Ref) format.Header {
	return format.DecodeHeader(c.mem, int(r))
}

func (c *Chain) store(r Ref, h format.Header) {
	format.EncodeHeader(c.mem, int(r), h)
}

// CSize returns the chunk size in units.
func (c *Chain) CSize(r Ref) uint16 { return c.header(r).CSize }

// PrevSize returns the csize of the preceding chunk, 0 for the first one.
func (c *Chain) PrevSize(r Ref) uint16 { return c.header(r).PrevSize }

// Allocated reports whether the chunk is handed out.
func (c *Chain) Allocated(r Ref) bool { return c.header(r).Allocated }

// GuardOffset returns the payload offset at which the guard starts.
func (c *Chain) GuardOffset(r Ref) uint32 { return c.header(r).GuardOffset }

// Allocator returns the recorded call site.
func (c *Chain) Allocator(r Ref) uint64 { return c.header(r).Allocator }

// StoredXorsum returns the checksum as stored in the header.
func (c *Chain) StoredXorsum(r Ref) uint16 { return c.header(r).Xorsum }

// SetAllocated updates the allocated flag. The caller must Seal afterwards.
func (c *Chain) SetAllocated(r Ref, v bool) {
	h := c.header(r)
	h.Allocated = v
	c.store(r, h)
}

// SetAllocator updates the call site. The caller must Seal afterwards.
func (c *Chain) SetAllocator(r Ref, site uint64) {
	h := c.header(r)
	h.Allocator = site
	c.store(r, h)
}

// Xorsum recomputes the header checksum of r.
func (c *Chain) Xorsum(r Ref) uint16 {
	return format.Checksum(c.header(r), uint32(r))
}

// Seal stores a freshly computed checksum in the header of r.
func (c *Chain) Seal(r Ref) {
	h := c.header(r)
	h.Xorsum = format.Checksum(h, uint32(r))
	c.store(r, h)
}

// Init writes a fresh free chunk header at r and fills its payload with the
// guard pad. prevCSize is 0 for the first chunk of the chain.
func (c *Chain) Init(r Ref, prevCSize, csize uint16) {
	c.store(r, format.Header{
		PrevSize: prevCSize,
		CSize:    csize,
	})
	c.GuardSet(r, 0)
	c.Seal(r)
}

// PayloadOffset returns the buffer offset of the payload of r.
func (c *Chain) PayloadOffset(r Ref) uint32 {
	return uint32(r) + uint32(c.hdr)*c.align
}

// capacity is the payload size in bytes of a chunk of csize units.
func (c *Chain) capacity(csize uint16) uint32 {
	if csize < c.hdr {
		return 0
	}
	return uint32(csize-c.hdr) * c.align
}

// Capacity returns the payload size of r in bytes, guard included.
func (c *Chain) Capacity(r Ref) uint32 { return c.capacity(c.CSize(r)) }

// Payload returns the payload of r. The slice length is the requested size
// (guard offset) and its capacity runs to the end of the chunk, so writes
// past len land in the guard.
func (c *Chain) Payload(r Ref) []byte {
	h := c.header(r)
	p := c.PayloadOffset(r)
	end := p + c.capacity(h.CSize)
	return c.mem[p : p+h.GuardOffset : end]
}

// ToChunk resolves a payload offset to its validated chunk.
func (c *Chain) ToChunk(p uint32) Ref {
	back := uint32(c.hdr) * c.align
	if p < back {
		c.Fatal(MsgOutOfBound, Ref(p))
	}
	r := Ref(p - back)
	c.Validate(r)
	return r
}

// Next returns the chunk following r, validated, or false when r is the
// last chunk.
func (c *Chain) Next(r Ref) (Ref, bool) {
	if r == c.bnd.Last {
		return 0, false
	}
	n := c.ComputeNext(r, c.CSize(r))
	c.Validate(n)
	return n, true
}

// Prev returns the chunk preceding r, validated, or false when r is the
// first chunk.
func (c *Chain) Prev(r Ref) (Ref, bool) {
	ps := c.PrevSize(r)
	if ps == 0 {
		return 0, false
	}
	back := uint32(ps) * c.align
	if back > uint32(r) {
		c.Fatal(MsgOutOfBound, r)
	}
	p := r - Ref(back)
	c.Validate(p)
	return p, true
}

// Info returns a diagnostic snapshot of r.
func (c *Chain) Info(r Ref) Info {
	h := c.header(r)
	return Info{
		Size:      h.GuardOffset,
		CSize:     h.CSize,
		Allocated: h.Allocated,
		Allocator: h.Allocator,
	}
}

// Each calls fn for every chunk from First to Last, validating each one
// before the call. Iteration stops early when fn returns false.
func (c *Chain) Each(fn func(r Ref) bool) {
	if c.bnd.Count == 0 {
		return
	}
	r := c.bnd.First
	c.Validate(r)
	for {
		if !fn(r) {
			return
		}
		n, ok := c.Next(r)
		if !ok {
			return
		}
		r = n
	}
}
