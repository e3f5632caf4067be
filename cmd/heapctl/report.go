package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/memmgr/heap"
	"github.com/joshuapare/memmgr/heap/chunk"
)

// chunkRow is the JSON form of one chunk.
type chunkRow struct {
	Offset    uint32 `json:"offset"`
	Ptr       uint32 `json:"ptr"`
	CSize     uint16 `json:"csize"`
	Size      uint32 `json:"size"`
	Allocated bool   `json:"allocated"`
	Allocator string `json:"allocator"`
	Xorsum    string `json:"xorsum"`
}

// heapReport is the JSON document printed by replay and inspect.
type heapReport struct {
	Bytes   int               `json:"bytes"`
	Chunks  []chunkRow        `json:"chunks"`
	Stats   *heap.Stats       `json:"stats,omitempty"`
	Vars    map[string]uint32 `json:"vars,omitempty"`
	Valid   *bool             `json:"valid,omitempty"`
	Problem string            `json:"problem,omitempty"`
}

func newHeapReport(h *heap.Heap, vars map[string]heap.Ptr) heapReport {
	stats := h.Stats()
	rep := heapReport{
		Bytes: h.Size(),
		Stats: &stats,
		Vars:  make(map[string]uint32, len(vars)),
	}
	for _, ch := range h.Chunks() {
		rep.Chunks = append(rep.Chunks, row(ch.Ref, uint32(ch.Ptr), ch.Info, ch.Xorsum))
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		rep.Vars[name] = uint32(vars[name])
	}
	return rep
}

// chainRows lists the chunks of an attached chain. Each validates as it
// walks, so the chain must already have been verified.
func chainRows(c *chunk.Chain) []chunkRow {
	var rows []chunkRow
	c.Each(func(r chunk.Ref) bool {
		rows = append(rows, row(r, c.PayloadOffset(r), c.Info(r), c.StoredXorsum(r)))
		return true
	})
	return rows
}

func row(r chunk.Ref, ptr uint32, info chunk.Info, xorsum uint16) chunkRow {
	return chunkRow{
		Offset:    uint32(r),
		Ptr:       ptr,
		CSize:     info.CSize,
		Size:      info.Size,
		Allocated: info.Allocated,
		Allocator: fmt.Sprintf("%#x", info.Allocator),
		Xorsum:    fmt.Sprintf("%#.4x", xorsum),
	}
}
