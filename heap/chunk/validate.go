package chunk

import "github.com/joshuapare/memmgr/internal/buf"

// GuardSet records offset as the guard start of r and fills the rest of the
// payload with GuardPad. The caller must Seal afterwards.
func (c *Chain) GuardSet(r Ref, offset uint32) {
	h := c.header(r)
	capacity := c.capacity(h.CSize)
	if offset > capacity || offset > GuardOffsetMax {
		c.Fatal(MsgOverflowed, r)
	}
	h.GuardOffset = offset
	c.store(r, h)

	p := c.PayloadOffset(r)
	guard := c.mem[p+offset : p+capacity]
	for i := range guard {
		guard[i] = GuardPad
	}
}

// GuardSize returns the number of guard bytes of r.
func (c *Chain) GuardSize(r Ref) uint32 {
	h := c.header(r)
	capacity := c.capacity(h.CSize)
	if h.GuardOffset > capacity {
		return 0
	}
	return capacity - h.GuardOffset
}

// GuardCheck reports whether every guard byte of r still holds GuardPad.
func (c *Chain) GuardCheck(r Ref) bool {
	h := c.header(r)
	if h.GuardOffset > c.capacity(h.CSize) {
		return false
	}
	start := int(c.PayloadOffset(r)) + int(h.GuardOffset)
	guard, ok := buf.Slice(c.mem, start, int(c.GuardSize(r)))
	if !ok {
		return false
	}
	for _, b := range guard {
		if b != GuardPad {
			return false
		}
	}
	return true
}

// Validate checks every invariant of r and calls Fatal on the first
// violation.
func (c *Chain) Validate(r Ref) {
	if uint32(r)%c.align != 0 {
		c.Fatal(MsgNotAligned, r)
	}
	if r < c.bnd.First || c.bnd.Last < r || !buf.Has(c.mem, int(r), HeaderSize) {
		c.Fatal(MsgOutOfBound, r)
	}
	if c.Xorsum(r) != c.StoredXorsum(r) {
		c.Fatal(MsgXorsum, r)
	}
	if !c.GuardCheck(r) {
		c.Fatal(MsgOverflowed, r)
	}
}
