// Package primitives implements the order-preserving encoding of fixed-width scalars.
//
// Put functions write exactly Size* bytes into dst and panic if dst is shorter,
// the same contract as binary.ByteOrder.PutUint*. Decode functions read the
// first Size* bytes of src and return errs.ErrPrematureEndOfInput if src is
// shorter.
//
// # Encoding details
//
//   - unsigned integers are written in the configured byte order
//   - signed integers are min-value-complemented (v ^ MinInt) and then written as unsigned
//   - floats use the sign-flip transform for big-endian layouts, raw IEEE-754 bits otherwise
//   - under descending order every output byte is inverted
//
// Ordering holds for big-endian layouts only: comparing little-endian bytes
// lexicographically does not follow numeric order.
package primitives

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/arloliu/ordcode/endian"
	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
)

// Encoded sizes of the fixed-width scalars.
const (
	SizeBool = 1
	SizeU8   = 1
	SizeU16  = 2
	SizeU32  = 4
	SizeU64  = 8
	SizeU128 = 16
	SizeChar = SizeU32
	SizeF32  = SizeU32
	SizeF64  = SizeU64
)

func put16(dst []byte, v uint16, e params.Endianness) { endian.GetEngine(e).PutUint16(dst, v) }
func put32(dst []byte, v uint32, e params.Endianness) { endian.GetEngine(e).PutUint32(dst, v) }
func put64(dst []byte, v uint64, e params.Endianness) { endian.GetEngine(e).PutUint64(dst, v) }

func get16(src []byte, e params.Endianness) uint16 { return endian.GetEngine(e).Uint16(src) }
func get32(src []byte, e params.Endianness) uint32 { return endian.GetEngine(e).Uint32(src) }
func get64(src []byte, e params.Endianness) uint64 { return endian.GetEngine(e).Uint64(src) }

func need(src []byte, n int) error {
	if len(src) < n {
		return fmt.Errorf("%w: need %d bytes, have %d", errs.ErrPrematureEndOfInput, n, len(src))
	}

	return nil
}

// PutU8 encodes v into dst[0].
func PutU8(dst []byte, v uint8, p params.Params) {
	if p.IsDescending() {
		v = ^v
	}
	dst[0] = v
}

// PutU16 encodes v into dst[:2].
func PutU16(dst []byte, v uint16, p params.Params) {
	if p.IsDescending() {
		v = ^v
	}
	put16(dst, v, p.Endianness)
}

// PutU32 encodes v into dst[:4].
func PutU32(dst []byte, v uint32, p params.Params) {
	if p.IsDescending() {
		v = ^v
	}
	put32(dst, v, p.Endianness)
}

// PutU64 encodes v into dst[:8].
func PutU64(dst []byte, v uint64, p params.Params) {
	if p.IsDescending() {
		v = ^v
	}
	put64(dst, v, p.Endianness)
}

// PutU128 encodes the 128-bit unsigned integer hi<<64|lo into dst[:16].
func PutU128(dst []byte, hi, lo uint64, p params.Params) {
	if p.IsDescending() {
		hi, lo = ^hi, ^lo
	}
	if endian.IsBig(p.Endianness) {
		put64(dst[0:8], hi, p.Endianness)
		put64(dst[8:16], lo, p.Endianness)

		return
	}
	put64(dst[0:8], lo, p.Endianness)
	put64(dst[8:16], hi, p.Endianness)
}

// U8 decodes a uint8 from src.
func U8(src []byte, p params.Params) (uint8, error) {
	if err := need(src, SizeU8); err != nil {
		return 0, err
	}
	v := src[0]
	if p.IsDescending() {
		v = ^v
	}

	return v, nil
}

// U16 decodes a uint16 from src.
func U16(src []byte, p params.Params) (uint16, error) {
	if err := need(src, SizeU16); err != nil {
		return 0, err
	}
	v := get16(src, p.Endianness)
	if p.IsDescending() {
		v = ^v
	}

	return v, nil
}

// U32 decodes a uint32 from src.
func U32(src []byte, p params.Params) (uint32, error) {
	if err := need(src, SizeU32); err != nil {
		return 0, err
	}
	v := get32(src, p.Endianness)
	if p.IsDescending() {
		v = ^v
	}

	return v, nil
}

// U64 decodes a uint64 from src.
func U64(src []byte, p params.Params) (uint64, error) {
	if err := need(src, SizeU64); err != nil {
		return 0, err
	}
	v := get64(src, p.Endianness)
	if p.IsDescending() {
		v = ^v
	}

	return v, nil
}

// U128 decodes a 128-bit unsigned integer from src, returning its high and low halves.
func U128(src []byte, p params.Params) (hi, lo uint64, err error) {
	if err = need(src, SizeU128); err != nil {
		return 0, 0, err
	}
	if endian.IsBig(p.Endianness) {
		hi, lo = get64(src[0:8], p.Endianness), get64(src[8:16], p.Endianness)
	} else {
		lo, hi = get64(src[0:8], p.Endianness), get64(src[8:16], p.Endianness)
	}
	if p.IsDescending() {
		hi, lo = ^hi, ^lo
	}

	return hi, lo, nil
}

// Signed integers are mapped onto the unsigned range by flipping the sign bit,
// i.e. XOR with the minimum value of the width.

// PutI8 encodes v into dst[0].
func PutI8(dst []byte, v int8, p params.Params) {
	PutU8(dst, uint8(v)^0x80, p) //nolint:gosec
}

// PutI16 encodes v into dst[:2].
func PutI16(dst []byte, v int16, p params.Params) {
	PutU16(dst, uint16(v)^0x8000, p) //nolint:gosec
}

// PutI32 encodes v into dst[:4].
func PutI32(dst []byte, v int32, p params.Params) {
	PutU32(dst, uint32(v)^0x80000000, p) //nolint:gosec
}

// PutI64 encodes v into dst[:8].
func PutI64(dst []byte, v int64, p params.Params) {
	PutU64(dst, uint64(v)^(1<<63), p) //nolint:gosec
}

// PutI128 encodes the 128-bit signed integer hi<<64|lo into dst[:16].
func PutI128(dst []byte, hi int64, lo uint64, p params.Params) {
	PutU128(dst, uint64(hi)^(1<<63), lo, p) //nolint:gosec
}

// I8 decodes an int8 from src.
func I8(src []byte, p params.Params) (int8, error) {
	u, err := U8(src, p)
	return int8(u ^ 0x80), err //nolint:gosec
}

// I16 decodes an int16 from src.
func I16(src []byte, p params.Params) (int16, error) {
	u, err := U16(src, p)
	return int16(u ^ 0x8000), err //nolint:gosec
}

// I32 decodes an int32 from src.
func I32(src []byte, p params.Params) (int32, error) {
	u, err := U32(src, p)
	return int32(u ^ 0x80000000), err //nolint:gosec
}

// I64 decodes an int64 from src.
func I64(src []byte, p params.Params) (int64, error) {
	u, err := U64(src, p)
	return int64(u ^ (1 << 63)), err //nolint:gosec
}

// I128 decodes a 128-bit signed integer from src.
func I128(src []byte, p params.Params) (hi int64, lo uint64, err error) {
	uhi, lo, err := U128(src, p)
	if err != nil {
		return 0, 0, err
	}

	return int64(uhi ^ (1 << 63)), lo, nil //nolint:gosec
}

// PutBool encodes v as a single 0/1 byte.
func PutBool(dst []byte, v bool, p params.Params) {
	var b uint8
	if v {
		b = 1
	}
	PutU8(dst, b, p)
}

// Bool decodes a bool; any non-zero byte is true.
func Bool(src []byte, p params.Params) (bool, error) {
	b, err := U8(src, p)
	return b != 0, err
}

// PutChar encodes r as its 32-bit Unicode scalar value.
func PutChar(dst []byte, r rune, p params.Params) {
	PutU32(dst, uint32(r), p) //nolint:gosec
}

// Char decodes a Unicode scalar value.
// It returns errs.ErrInvalidUtf8Encoding if the value is a surrogate or out of range.
func Char(src []byte, p params.Params) (rune, error) {
	u, err := U32(src, p)
	if err != nil {
		return 0, err
	}
	r := rune(u) //nolint:gosec
	if u > utf8.MaxRune || !utf8.ValidRune(r) {
		return 0, fmt.Errorf("%w: 0x%x is not a unicode scalar value", errs.ErrInvalidUtf8Encoding, u)
	}

	return r, nil
}

// orderedFloats reports whether floats get the sign-flip transform.
func orderedFloats(p params.Params) bool {
	return p.Endianness == params.BigEndian
}

// PutF32 encodes v into dst[:4].
func PutF32(dst []byte, v float32, p params.Params) {
	t := int32(math.Float32bits(v)) //nolint:gosec
	if orderedFloats(p) {
		t ^= (t >> 31) | math.MinInt32
	}
	PutU32(dst, uint32(t), p) //nolint:gosec
}

// F32 decodes a float32 from src.
func F32(src []byte, p params.Params) (float32, error) {
	u, err := U32(src, p)
	if err != nil {
		return 0, err
	}
	val := int32(u) //nolint:gosec
	if orderedFloats(p) {
		t := ((val ^ math.MinInt32) >> 31) | math.MinInt32
		val ^= t
	}

	return math.Float32frombits(uint32(val)), nil //nolint:gosec
}

// PutF64 encodes v into dst[:8].
func PutF64(dst []byte, v float64, p params.Params) {
	t := int64(math.Float64bits(v)) //nolint:gosec
	if orderedFloats(p) {
		t ^= (t >> 63) | math.MinInt64
	}
	PutU64(dst, uint64(t), p) //nolint:gosec
}

// F64 decodes a float64 from src.
func F64(src []byte, p params.Params) (float64, error) {
	u, err := U64(src, p)
	if err != nil {
		return 0, err
	}
	val := int64(u) //nolint:gosec
	if orderedFloats(p) {
		t := ((val ^ math.MinInt64) >> 63) | math.MinInt64
		val ^= t
	}

	return math.Float64frombits(uint64(val)), nil //nolint:gosec
}

// InvertBuffer bitwise-inverts every byte of buf in place.
func InvertBuffer(buf []byte) {
	for i := range buf {
		buf[i] = ^buf[i]
	}
}

// PutBytes copies src into dst, inverting each byte under descending order.
// It returns the number of bytes copied.
func PutBytes(dst, src []byte, p params.Params) int {
	n := copy(dst, src)
	if p.IsDescending() {
		InvertBuffer(dst[:n])
	}

	return n
}

// PutString is PutBytes for a string source.
func PutString(dst []byte, src string, p params.Params) int {
	n := copy(dst, src)
	if p.IsDescending() {
		InvertBuffer(dst[:n])
	}

	return n
}
