package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memmgr/heap/chunk"
)

// testHeapSize matches a 256-unit heap with the default 4-byte alignment.
const testHeapSize = 1024

// testSite is the call site recorded by test heaps.
const testSite = 0xC0FFEE

// state describes one chunk of a test layout.
type state struct {
	csize     uint16
	allocated bool
}

type dieRecorder struct {
	msgs []string
}

func (d *dieRecorder) die(msg string) { d.msgs = append(d.msgs, msg) }

// newTestHeap returns an unlocked heap of size bytes with a recording die
// hook and a fixed call site.
func newTestHeap(t testing.TB, size int, opts ...Option) (*Heap, *dieRecorder) {
	t.Helper()

	rec := &dieRecorder{}
	base := []Option{
		WithMutex(nil),
		WithDie(rec.die),
		WithSiteFunc(func() uintptr { return testSite }),
	}
	h, err := New(make([]byte, size), append(base, opts...)...)
	require.NoError(t, err)
	return h, rec
}

// newTestHeapWithLayout builds a heap whose chain is exactly layout.
// Allocated chunks carry a full payload (everything but the guard units)
// filled with 'A' for the first chunk, 'B' for the second and so on. It
// returns the payload pointer of every chunk.
func newTestHeapWithLayout(t testing.TB, layout []state, opts ...Option) (*Heap, []Ptr, *dieRecorder) {
	t.Helper()

	var units int
	for _, s := range layout {
		units += int(s.csize)
	}
	h, rec := newTestHeap(t, units*int(chunk.DefaultConfig().Alignment), opts...)

	c := h.chain
	ptrs := make([]Ptr, len(layout))
	var (
		r    chunk.Ref
		prev uint16
		last chunk.Ref
	)
	for i, s := range layout {
		c.Init(r, prev, s.csize)
		if s.allocated {
			size := payloadSize(c, r)
			c.SetAllocated(r, true)
			c.SetAllocator(r, testSite)
			c.GuardSet(r, size)
			c.Seal(r)
			p := c.Payload(r)
			for j := range p {
				p[j] = byte('A' + i)
			}
		}
		ptrs[i] = Ptr(c.PayloadOffset(r))
		last = r
		prev = s.csize
		r = c.ComputeNext(r, s.csize)
	}
	c.SetBoundary(chunk.Boundary{First: 0, Last: last, Count: uint32(len(layout))})
	return h, ptrs, rec
}

// payloadSize is the largest request a chunk can hold.
func payloadSize(c *chunk.Chain, r chunk.Ref) uint32 {
	cfg := c.Config()
	return c.Capacity(r) - uint32(cfg.GuardSize)*cfg.Alignment
}

// assertLayout compares the chain of h with want.
func assertLayout(t testing.TB, h *Heap, want []state) {
	t.Helper()

	var got []state
	for _, ch := range h.Chunks() {
		got = append(got, state{csize: ch.CSize, allocated: ch.Allocated})
	}
	assert.Equal(t, want, got)
	assert.Equal(t, uint32(len(want)), h.NbChunk())
}

// assertFilled checks that the first size bytes of p all hold val.
func assertFilled(t testing.TB, p []byte, val byte, size uint32) {
	t.Helper()
	require.GreaterOrEqual(t, uint32(len(p)), size, "payload shorter than expected")
	for i := uint32(0); i < size; i++ {
		if p[i] != val {
			t.Fatalf("data has been lost at byte %d: got 0x%02x want 0x%02x", i, p[i], val)
		}
	}
}

// requireFatal runs fn and requires it to end in a fatal check with msg.
func requireFatal(t testing.TB, msg string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		v := recover()
		require.NotNil(t, v, "expected fatal %q", msg)
		ce, ok := v.(*chunk.CorruptionError)
		require.True(t, ok, "unexpected panic value: %v", v)
		assert.Equal(t, msg, ce.Msg)
	}()
	fn()
}

// recordingPolicy wraps FirstFit and records every call.
type recordingPolicy struct {
	FirstFit
	calls []string
}

func (p *recordingPolicy) FindFirstFree(c *chunk.Chain, wanted uint16) (chunk.Ref, bool) {
	p.calls = append(p.calls, "find")
	return p.FirstFit.FindFirstFree(c, wanted)
}

func (p *recordingPolicy) Split(c *chunk.Chain, r chunk.Ref, csize uint16) (chunk.Ref, bool) {
	p.calls = append(p.calls, "split")
	return p.FirstFit.Split(c, r, csize)
}

func (p *recordingPolicy) Merge(c *chunk.Chain, r chunk.Ref) {
	p.calls = append(p.calls, "merge")
	p.FirstFit.Merge(c, r)
}
