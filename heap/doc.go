// Package heap provides a corruption-detecting first-fit allocator over a
// fixed byte buffer.
//
// # Overview
//
// A Heap carves its buffer into a chain of variable-length chunks (see
// package chunk). Every chunk carries a 16-byte header with a checksum and
// is followed, past the bytes the caller asked for, by guard bytes filled
// with a known pattern. Every public call validates the chunks it touches,
// so buffer overruns and header corruption are caught at the next heap
// operation instead of silently spreading.
//
// # Pointers
//
// Allocations are returned as a Ptr, the byte offset of the payload inside
// the heap buffer. Nil (zero) is never a valid payload offset. Use Bytes to
// reach the payload:
//
//	h, err := heap.NewStatic(heap.WithHeapSize(64 << 10))
//	if err != nil {
//	    return err
//	}
//	p, err := h.Alloc(51)
//	if err != nil {
//	    return err
//	}
//	copy(h.Bytes(p), "hello")
//	h.Free(p)
//
// # Errors and corruption
//
// Resource conditions (zero size, too large, out of space, bad
// configuration) are reported through sentinel errors. Integrity violations
// are not recoverable: the configured die hook runs with a short message
// and the call panics with a *chunk.CorruptionError.
//
// # Concurrency
//
// Each public method runs under the heap guard. By default a timed mutex
// from package guard is installed; WithMutex(nil) removes it for
// single-threaded use.
package heap
