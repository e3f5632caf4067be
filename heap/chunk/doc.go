// Package chunk implements the intrusive chunk layer of the heap allocator.
//
// # Overview
//
// A Chain carves a fixed byte buffer into a linear sequence of chunks. Each
// chunk starts with a 16-byte header (see internal/format) followed by the
// caller's payload and a trailing guard region filled with GuardPad. There
// is no sentinel chunk: the Boundary record holds the first and last chunk
// offsets and the live chunk count.
//
// # Sizes
//
// Every size is expressed in alignment units ("csize"):
//
//	csize = ceil(bytes / Config.Alignment)
//
// A chunk can never exceed CSizeMax (32767) units. Merges that would cross
// that limit are refused, and splits that would leave a remainder smaller
// than Config.MinCSize are refused.
//
// # Integrity
//
// Validate checks, in order:
//
//   - the chunk offset is a multiple of the alignment ("not aligned")
//   - the offset lies within [First, Last] ("out of bound")
//   - the header xorsum matches a fresh recomputation ("xorsum")
//   - every guard byte still holds GuardPad ("overflowed")
//
// A failed check is fatal: the configured DieFunc runs and the chain then
// panics with a *CorruptionError. Corruption is never reported as an error
// value.
//
// # Thread Safety
//
// A Chain is not safe for concurrent use. The heap package serializes all
// access through its guard.
package chunk
