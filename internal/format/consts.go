// Package format defines the byte-exact layout of a heap chunk header.
//
// The header is stored as explicit little-endian words with manual
// mask/shift packing, so an image written on one host decodes identically
// on any other regardless of compiler bitfield ordering.
//
// Header layout (little-endian):
//
//	Offset  Size  Description
//	0x00    4     word0: bits 0-14 prev_size, bit 15 allocated, bits 16-31 xorsum
//	0x04    4     word1: bits 0-14 csize, bits 15-31 guard_offset
//	0x08    8     allocator (opaque call-site value, diagnostics only)
//	0x10    ...   payload
package format

const (
	// HeaderSize is the size of a chunk header in bytes.
	HeaderSize = 0x10

	Word0Offset     = 0x00
	Word1Offset     = 0x04
	AllocatorOffset = 0x08
)

const (
	// PrevSizeBits and CSizeBits bound every size the allocator can express.
	PrevSizeBits    = 15
	CSizeBits       = 15
	GuardOffsetBits = 17

	// CSizeMax is the largest chunk size, in alignment units, a header can hold.
	CSizeMax = 1<<CSizeBits - 1

	// GuardOffsetMax is the largest requested byte size a header can record.
	GuardOffsetMax = 1<<GuardOffsetBits - 1
)

const (
	prevSizeMask     = 1<<PrevSizeBits - 1
	allocatedBit     = 1 << PrevSizeBits
	xorsumShift      = 16
	csizeMask        = 1<<CSizeBits - 1
	guardOffsetShift = CSizeBits
	guardOffsetMask  = 1<<GuardOffsetBits - 1
)
