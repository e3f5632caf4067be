package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHeapSize matches a 256-unit layout with the default 4-byte alignment.
const testHeapSize = 1024

// state describes one chunk of a test layout.
type state struct {
	csize     uint16
	allocated bool
}

// dieRecorder collects the messages passed to the fatal hook.
type dieRecorder struct {
	msgs []string
}

func (d *dieRecorder) die(msg string) { d.msgs = append(d.msgs, msg) }

// newTestChain lays out the given chunk states at the start of a fresh
// buffer of size bytes, like a heap would, and returns the chain.
func newTestChain(t testing.TB, size int, layout []state) (*Chain, *dieRecorder) {
	t.Helper()

	rec := &dieRecorder{}
	c, err := New(make([]byte, size), DefaultConfig(), rec.die)
	require.NoError(t, err)

	var (
		r    Ref
		prev uint16
		last Ref
	)
	for _, s := range layout {
		c.Init(r, prev, s.csize)
		if s.allocated {
			c.SetAllocated(r, true)
			c.Seal(r)
		}
		last = r
		prev = s.csize
		r = c.ComputeNext(r, s.csize)
	}
	c.SetBoundary(Boundary{First: 0, Last: last, Count: uint32(len(layout))})
	return c, rec
}

// assertLayout walks the chain and compares it with want.
func assertLayout(t testing.TB, c *Chain, want []state) {
	t.Helper()

	require.Equal(t, uint32(len(want)), c.Count(), "chunk count")

	var got []state
	c.Each(func(r Ref) bool {
		got = append(got, state{csize: c.CSize(r), allocated: c.Allocated(r)})
		return true
	})
	assert.Equal(t, want, got)
}

// fillPayload marks r as carrying a full payload (everything but the guard
// units) of val and returns the payload size.
func fillPayload(t testing.TB, c *Chain, r Ref, val byte) uint32 {
	t.Helper()

	size := c.GuardSize(r) - uint32(c.Config().GuardSize)*c.Config().Alignment
	c.GuardSet(r, size)
	c.Seal(r)
	copy(c.Payload(r), bytes.Repeat([]byte{val}, int(size)))
	return size
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
		ce, ok := v.(*CorruptionError)
		require.True(t, ok, "unexpected panic value: %v", v)
		assert.Equal(t, msg, ce.Msg)
	}()
	fn()
}
