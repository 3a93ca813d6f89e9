// Package varint implements the compact length/tag codec used for lengths,
// element counts and enum discriminants.
//
// The first byte of an encoding (the tag byte) carries a unary chain of
// continuation flags in its low bits: each trailing zero bit means one more
// byte follows, and the first set bit terminates the chain. The remaining
// bits of the tag byte and the continuation bytes hold the payload in
// little-endian order:
//
//	1 byte:  xxxxxxx1                      7 payload bits
//	2 bytes: xxxxxx10 xxxxxxxx            14 payload bits
//	...
//	8 bytes: 10000000 + 7 bytes           56 payload bits
//	9 bytes: 00000000 + 8 bytes           64 payload bits
//
// Knowing the tag byte alone is enough to know the total length, which lets
// the dual-cursor buffer read a varint from its tail in two steps.
//
// Varint bytes are not order-preserving and are used for metadata only.
package varint

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/arloliu/ordcode/errs"
)

const (
	// MaxLen64 is the maximum encoded length of a uint64.
	MaxLen64 = 9
	// MaxLen32 is the maximum encoded length of a uint32.
	MaxLen32 = 5
)

// Len returns the number of bytes needed to encode v.
func Len(v uint64) int {
	n := bits.Len64(v)
	if n <= 7 {
		return 1
	}
	if n > 56 {
		return MaxLen64
	}

	return (n + 6) / 7
}

// TagLen returns the total encoded length announced by a tag byte.
func TagLen(tag byte) int {
	if tag == 0 {
		return MaxLen64
	}

	return bits.TrailingZeros8(tag) + 1
}

// Encode writes v into dst and returns the number of bytes written.
// dst must have room for Len(v) bytes; MaxLen64 is always enough.
func Encode(dst []byte, v uint64) int {
	n := Len(v)
	if n == MaxLen64 {
		dst[0] = 0
		binary.LittleEndian.PutUint64(dst[1:9], v)

		return n
	}

	x := v<<n | 1<<(n-1)
	for i := 0; i < n; i++ {
		dst[i] = byte(x >> (8 * i))
	}

	return n
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v uint64) []byte {
	var tmp [MaxLen64]byte
	n := Encode(tmp[:], v)

	return append(dst, tmp[:n]...)
}

// Decode decodes a uint64 from the start of src and returns it together with
// the number of bytes consumed.
//
// It returns errs.ErrPrematureEndOfInput if src ends before the announced
// length, and errs.ErrInvalidVarintEncoding for over-long encodings.
func Decode(src []byte) (uint64, int, error) {
	if len(src) == 0 {
		return 0, 0, fmt.Errorf("%w: empty varint", errs.ErrPrematureEndOfInput)
	}

	n := TagLen(src[0])
	if len(src) < n {
		return 0, 0, fmt.Errorf("%w: varint needs %d bytes, have %d", errs.ErrPrematureEndOfInput, n, len(src))
	}

	var v uint64
	if n == MaxLen64 {
		v = binary.LittleEndian.Uint64(src[1:9])
		if v < 1<<56 {
			return 0, 0, fmt.Errorf("%w: over-long 9-byte form", errs.ErrInvalidVarintEncoding)
		}

		return v, n, nil
	}

	var x uint64
	for i := 0; i < n; i++ {
		x |= uint64(src[i]) << (8 * i)
	}
	v = x >> n
	if n > 1 && v < 1<<(7*(n-1)) {
		return 0, 0, fmt.Errorf("%w: over-long %d-byte form", errs.ErrInvalidVarintEncoding, n)
	}

	return v, n, nil
}

// DecodeU32 is Decode restricted to uint32 values.
//
// Chains longer than MaxLen32 bytes are rejected before any payload byte is read.
func DecodeU32(src []byte) (uint32, int, error) {
	if len(src) > 0 && TagLen(src[0]) > MaxLen32 {
		return 0, 0, fmt.Errorf("%w: chain exceeds %d bytes", errs.ErrInvalidVarintEncoding, MaxLen32)
	}

	v, n, err := Decode(src)
	if err != nil {
		return 0, 0, err
	}
	if v > math.MaxUint32 {
		return 0, 0, fmt.Errorf("%w: value %d overflows uint32", errs.ErrInvalidVarintEncoding, v)
	}

	return uint32(v), n, nil
}
