package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_AllocatedLast(t *testing.T) {
	layout := []state{{256, true}}
	c, _ := newTestChain(t, testHeapSize, layout)

	c.Merge(0)
	assertLayout(t, c, layout)
}

func TestMerge_FreeLast(t *testing.T) {
	layout := []state{{256, false}}
	c, _ := newTestChain(t, testHeapSize, layout)

	c.Merge(0)
	assertLayout(t, c, layout)
}

func TestMerge_BothFree(t *testing.T) {
	c, _ := newTestChain(t, testHeapSize, []state{{128, false}, {128, false}})

	c.Merge(0)
	assertLayout(t, c, []state{{256, false}})
	assert.Equal(t, Ref(0), c.Boundary().Last, "merged chunk becomes the last one")
}

func TestMerge_FreeThenAllocated_MovesPayload(t *testing.T) {
	c, _ := newTestChain(t, testHeapSize, []state{{32, false}, {128, true}, {96, false}})

	second, ok := c.Next(0)
	require.True(t, ok)
	c.SetAllocator(second, 0x1234)
	c.Seal(second)
	size := fillPayload(t, c, second, 'A')

	c.Merge(0)

	assertLayout(t, c, []state{{160, true}, {96, false}})
	assertFilled(t, c.Payload(0), 'A', size)
	assert.Equal(t, size, c.GuardOffset(0), "guard offset is inherited")
	assert.Equal(t, uint64(0x1234), c.Allocator(0), "call site is inherited")

	third, ok := c.Next(0)
	require.True(t, ok)
	assert.Equal(t, uint16(160), c.PrevSize(third))
}

func TestMerge_AllocatedThenFree_KeepsPayload(t *testing.T) {
	c, _ := newTestChain(t, testHeapSize, []state{{32, true}, {128, false}, {96, false}})

	size := fillPayload(t, c, 0, 'A')

	c.Merge(0)

	assertLayout(t, c, []state{{160, true}, {96, false}})
	assertFilled(t, c.Payload(0), 'A', size)
	assert.Equal(t, size, c.GuardOffset(0))
}

func TestMerge_BothAllocated_IsFatal(t *testing.T) {
	layout := []state{{32, true}, {128, true}, {96, false}}
	c, rec := newTestChain(t, testHeapSize, layout)

	sizeA := fillPayload(t, c, 0, 'A')
	second, ok := c.Next(0)
	require.True(t, ok)
	sizeB := fillPayload(t, c, second, 'B')

	requireFatal(t, MsgCantMerge, func() { c.Merge(0) })
	assert.Equal(t, []string{MsgCantMerge}, rec.msgs)

	assertLayout(t, c, layout)
	assertFilled(t, c.Payload(0), 'A', sizeA)
	assertFilled(t, c.Payload(second), 'B', sizeB)
}

func TestMerge_RefusesAboveCSizeMax(t *testing.T) {
	c, _ := newTestChain(t, 2*CSizeMax*4, []state{
		{CSizeMax / 2, false},
		{CSizeMax/2 + 1, false},
		{CSizeMax, false},
	})
	want := []state{{CSizeMax, false}, {CSizeMax, false}}

	c.Merge(0)
	assertLayout(t, c, want)

	c.Merge(0)
	assertLayout(t, c, want)
}

func TestSplit(t *testing.T) {
	c, _ := newTestChain(t, testHeapSize, []state{{256, false}})

	n, ok := c.Split(0, 128)
	require.True(t, ok)
	assert.Equal(t, c.ComputeNext(0, 128), n)
	assertLayout(t, c, []state{{128, false}, {128, false}})
	assert.Equal(t, n, c.Boundary().Last)

	n, ok = c.Split(0, 64)
	require.True(t, ok)
	assert.Equal(t, c.ComputeNext(0, 64), n)
	assertLayout(t, c, []state{{64, false}, {64, false}, {128, false}})

	third, ok := c.Next(n)
	require.True(t, ok)
	assert.Equal(t, uint16(64), c.PrevSize(third), "right neighbour points at the remainder")
}

func TestSplit_TooSmall(t *testing.T) {
	layout := []state{{50 + DefaultConfig().MinCSize()/2, false}}
	c, _ := newTestChain(t, testHeapSize, layout)

	_, ok := c.Split(0, 50)
	assert.False(t, ok)
	assertLayout(t, c, layout)
}

func TestSplit_NotSmaller(t *testing.T) {
	layout := []state{{64, false}, {192, false}}
	c, _ := newTestChain(t, testHeapSize, layout)

	_, ok := c.Split(0, 64)
	assert.False(t, ok)
	_, ok = c.Split(0, 100)
	assert.False(t, ok)
	assertLayout(t, c, layout)
}

func TestSplit_ThenMerge_RestoresChunk(t *testing.T) {
	c, _ := newTestChain(t, testHeapSize, []state{{200, false}, {56, true}})

	n, ok := c.Split(0, 20)
	require.True(t, ok)
	assertLayout(t, c, []state{{20, false}, {180, false}, {56, true}})

	c.Merge(0)
	assertLayout(t, c, []state{{200, false}, {56, true}})

	last, ok := c.Next(0)
	require.True(t, ok)
	assert.Equal(t, uint16(200), c.PrevSize(last))
	assert.NotEqual(t, n, last)
}
