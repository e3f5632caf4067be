package heap

import "github.com/joshuapare/memmgr/heap/chunk"

// Policy is the chunk search and restructuring strategy used by the
// allocator. Implementations may wrap FirstFit to observe or alter the
// sequence of chain operations.
type Policy interface {
	// FindFirstFree returns a free chunk of at least wanted units.
	FindFirstFree(c *chunk.Chain, wanted uint16) (chunk.Ref, bool)

	// Split shrinks r to csize units (see chunk.Chain.Split).
	Split(c *chunk.Chain, r chunk.Ref, csize uint16) (chunk.Ref, bool)

	// Merge absorbs the chunk following r (see chunk.Chain.Merge).
	Merge(c *chunk.Chain, r chunk.Ref)
}

// FirstFit is the default Policy: a linear scan from the first chunk.
type FirstFit struct{}

// FindFirstFree implements Policy.
func (FirstFit) FindFirstFree(c *chunk.Chain, wanted uint16) (chunk.Ref, bool) {
	var (
		found chunk.Ref
		ok    bool
	)
	c.Each(func(r chunk.Ref) bool {
		if !c.Allocated(r) && c.CSize(r) >= wanted {
			found, ok = r, true
			return false
		}
		return true
	})
	return found, ok
}

// Split implements Policy.
func (FirstFit) Split(c *chunk.Chain, r chunk.Ref, csize uint16) (chunk.Ref, bool) {
	return c.Split(r, csize)
}

// Merge implements Policy.
func (FirstFit) Merge(c *chunk.Chain, r chunk.Ref) {
	c.Merge(r)
}
