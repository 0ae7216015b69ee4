// Package tlv implements the shared tag-length-value primitives used by the
// STUN/TURN attribute layer and the DMTP field layer. Both frame families
// are views over the same immutable byte buffer and differ only in header
// width and padding.
package tlv

import "encoding/binary"

// Buffer is an immutable, ordered byte sequence with O(1) sub-range slicing.
// It carries no identity of its own — two Buffers with equal bytes are
// equal values — and every slice references the same backing array as its
// parent, never copies.
type Buffer []byte

// Slice returns the sub-range [start, end) of b. Out-of-range bounds are
// clamped rather than panicking, since callers in the codec paths routinely
// probe lengths that may exceed what's actually present.
func Slice(b Buffer, start, end int) Buffer {
	if start < 0 {
		start = 0
	}
	if end > len(b) {
		end = len(b)
	}
	if end < start {
		end = start
	}
	return b[start:end]
}

// UInt8 reads a big-endian unsigned 8-bit integer at offset 0.
func UInt8(b Buffer) uint8 {
	if len(b) < 1 {
		return 0
	}
	return b[0]
}

// UInt16 reads a big-endian unsigned 16-bit integer at offset 0.
func UInt16(b Buffer) uint16 {
	if len(b) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// UInt32 reads a big-endian unsigned 32-bit integer at offset 0.
func UInt32(b Buffer) uint32 {
	if len(b) < 4 {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// PutUInt8 returns the 1-byte big-endian encoding of v.
func PutUInt8(v uint8) Buffer {
	return Buffer{v}
}

// PutUInt16 returns the 2-byte big-endian encoding of v.
func PutUInt16(v uint16) Buffer {
	b := make(Buffer, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

// PutUInt32 returns the 4-byte big-endian encoding of v.
func PutUInt32(v uint32) Buffer {
	b := make(Buffer, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
