package format

// Units returns n bytes expressed in align-byte units, rounded up.
// align must be a power of two.
//
// Example:
//
//	Units(1, 4)  = 1
//	Units(4, 4)  = 1
//	Units(5, 4)  = 2
//	Units(16, 8) = 2
func Units(n, align uint32) uint32 {
	return (n + align - 1) / align
}

// IsPow2 reports whether n is a non-zero power of two.
func IsPow2(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
