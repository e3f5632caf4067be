package format

// Header is the decoded form of a chunk header. Field widths are enforced on
// encode: values wider than their bit field are truncated, exactly as a
// packed bitfield store would do.
type Header struct {
	PrevSize    uint16 // csize of the preceding chunk, 0 for the first chunk
	Allocated   bool
	Xorsum      uint16
	CSize       uint16 // total chunk size in alignment units
	GuardOffset uint32 // payload offset where the guard starts (requested size)
	Allocator   uint64 // call site that produced the allocation
}

// DecodeHeader reads the header stored at off. The caller must ensure
// b[off:off+HeaderSize] is in range.
func DecodeHeader(b []byte, off int) Header {
	w0 := ReadU32(b, off+Word0Offset)
	w1 := ReadU32(b, off+Word1Offset)
	return Header{
		PrevSize:    uint16(w0 & prevSizeMask),
		Allocated:   w0&allocatedBit != 0,
		Xorsum:      uint16(w0 >> xorsumShift),
		CSize:       uint16(w1 & csizeMask),
		GuardOffset: (w1 >> guardOffsetShift) & guardOffsetMask,
		Allocator:   ReadU64(b, off+AllocatorOffset),
	}
}

// EncodeHeader writes h at off.
func EncodeHeader(b []byte, off int, h Header) {
	w0 := uint32(h.PrevSize) & prevSizeMask
	if h.Allocated {
		w0 |= allocatedBit
	}
	w0 |= uint32(h.Xorsum) << xorsumShift

	w1 := uint32(h.CSize) & csizeMask
	w1 |= (h.GuardOffset & guardOffsetMask) << guardOffsetShift

	PutU32(b, off+Word0Offset, w0)
	PutU32(b, off+Word1Offset, w1)
	PutU64(b, off+AllocatorOffset, h.Allocator)
}

// Checksum folds the header fields and the header's own address into a
// 16-bit value. The stored Xorsum is not part of the input.
//
// guard_offset contributes its low 16 bits; the allocator contributes each
// of its four 16-bit quarters (only the low two are non-zero on 32-bit
// targets).
func Checksum(h Header, addr uint32) uint16 {
	var sum uint16
	if h.Allocated {
		sum = 1
	}
	sum ^= uint16(h.GuardOffset)
	sum ^= h.PrevSize & prevSizeMask
	sum ^= h.CSize & csizeMask
	sum ^= uint16(addr)
	sum ^= uint16(h.Allocator)
	sum ^= uint16(h.Allocator >> 16)
	sum ^= uint16(h.Allocator >> 32)
	sum ^= uint16(h.Allocator >> 48)
	return sum
}
