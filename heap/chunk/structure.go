package chunk

// Split shrinks r to csize units and turns the remainder into a new free
// chunk placed right after it. It returns the new chunk, or false when
// csize is not smaller than r or the remainder would be below MinCSize; in
// that case nothing is modified.
//
// Split is the only place chunk boundaries are created.
func (c *Chain) Split(r Ref, csize uint16) (Ref, bool) {
	h := c.header(r)
	if csize >= h.CSize {
		return 0, false
	}
	rest := h.CSize - csize
	if rest < c.min {
		return 0, false
	}

	next, hasNext := c.Next(r)

	h.CSize = csize
	c.store(r, h)
	c.Seal(r)

	n := c.ComputeNext(r, csize)
	c.Init(n, csize, rest)
	c.bnd.Count++

	if hasNext {
		nh := c.header(next)
		nh.PrevSize = rest
		c.store(next, nh)
		c.Seal(next)
	} else {
		c.bnd.Last = n
	}
	return n, true
}

// Merge absorbs the chunk following r into r.
//
// It is a no-op when r is the last chunk or when the combined size would
// exceed CSizeMax. Merging two allocated chunks is fatal ("cant merge").
// When the absorbed chunk is allocated, its payload up to its guard offset
// is moved down to the payload of r, and r inherits its allocated state,
// guard offset and call site.
//
// Merge is the only place chunk boundaries are erased.
func (c *Chain) Merge(r Ref) {
	next, ok := c.Next(r)
	if !ok {
		return
	}
	h := c.header(r)
	nh := c.header(next)
	if h.Allocated && nh.Allocated {
		c.Fatal(MsgCantMerge, r)
	}

	size := uint32(h.CSize) + uint32(nh.CSize)
	if size > CSizeMax {
		return
	}

	after, hasAfter := c.Next(next)

	guard := h.GuardOffset
	h.CSize = uint16(size)
	if nh.Allocated {
		h.Allocated = true
		h.Allocator = nh.Allocator
		guard = nh.GuardOffset

		dst := c.PayloadOffset(r)
		src := c.PayloadOffset(next)
		copy(c.mem[dst:dst+guard], c.mem[src:src+guard])
	}
	c.store(r, h)
	c.GuardSet(r, guard)
	c.Seal(r)
	c.bnd.Count--

	if hasAfter {
		ah := c.header(after)
		ah.PrevSize = h.CSize
		c.store(after, ah)
		c.Seal(after)
	} else {
		c.bnd.Last = r
	}
}
