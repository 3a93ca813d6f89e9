package encoding

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
	"github.com/arloliu/ordcode/primitives"
	"github.com/arloliu/ordcode/serde"
	"github.com/arloliu/ordcode/tailbuf"
	"github.com/arloliu/ordcode/varint"
)

// Deserializer reads values from a tailbuf.Reader.
//
// Strings and byte slices are always copied out of the input, so the input
// may be reused once decoding finishes.
type Deserializer struct {
	r *tailbuf.Reader
	p params.Params
}

var (
	_ serde.Deserializer        = (*Deserializer)(nil)
	_ serde.EscapedDeserializer = (*Deserializer)(nil)
)

// NewDeserializer creates a Deserializer reading from r with parameters p.
func NewDeserializer(r *tailbuf.Reader, p params.Params) *Deserializer {
	return &Deserializer{r: r, p: p}
}

// Params returns the parameters the deserializer reads with.
func (d *Deserializer) Params() params.Params {
	return d.p
}

// Remaining returns the number of unconsumed input bytes.
func (d *Deserializer) Remaining() int {
	return d.r.Remaining()
}

// IsComplete returns nil if all input has been consumed.
func (d *Deserializer) IsComplete() error {
	return d.r.IsComplete()
}

func (d *Deserializer) DeserializeBool() (bool, error) {
	src, err := d.r.ReadHead(primitives.SizeBool)
	if err != nil {
		return false, err
	}

	return primitives.Bool(src, d.p)
}

func (d *Deserializer) DeserializeChar() (rune, error) {
	src, err := d.r.ReadHead(primitives.SizeChar)
	if err != nil {
		return 0, err
	}

	return primitives.Char(src, d.p)
}

func (d *Deserializer) DeserializeU8() (uint8, error) {
	src, err := d.r.ReadHead(primitives.SizeU8)
	if err != nil {
		return 0, err
	}

	return primitives.U8(src, d.p)
}

func (d *Deserializer) DeserializeU16() (uint16, error) {
	src, err := d.r.ReadHead(primitives.SizeU16)
	if err != nil {
		return 0, err
	}

	return primitives.U16(src, d.p)
}

func (d *Deserializer) DeserializeU32() (uint32, error) {
	src, err := d.r.ReadHead(primitives.SizeU32)
	if err != nil {
		return 0, err
	}

	return primitives.U32(src, d.p)
}

func (d *Deserializer) DeserializeU64() (uint64, error) {
	src, err := d.r.ReadHead(primitives.SizeU64)
	if err != nil {
		return 0, err
	}

	return primitives.U64(src, d.p)
}

func (d *Deserializer) DeserializeU128() (serde.Uint128, error) {
	src, err := d.r.ReadHead(primitives.SizeU128)
	if err != nil {
		return serde.Uint128{}, err
	}
	hi, lo, err := primitives.U128(src, d.p)
	if err != nil {
		return serde.Uint128{}, err
	}

	return serde.Uint128{High: hi, Low: lo}, nil
}

func (d *Deserializer) DeserializeI8() (int8, error) {
	src, err := d.r.ReadHead(primitives.SizeU8)
	if err != nil {
		return 0, err
	}

	return primitives.I8(src, d.p)
}

func (d *Deserializer) DeserializeI16() (int16, error) {
	src, err := d.r.ReadHead(primitives.SizeU16)
	if err != nil {
		return 0, err
	}

	return primitives.I16(src, d.p)
}

func (d *Deserializer) DeserializeI32() (int32, error) {
	src, err := d.r.ReadHead(primitives.SizeU32)
	if err != nil {
		return 0, err
	}

	return primitives.I32(src, d.p)
}

func (d *Deserializer) DeserializeI64() (int64, error) {
	src, err := d.r.ReadHead(primitives.SizeU64)
	if err != nil {
		return 0, err
	}

	return primitives.I64(src, d.p)
}

func (d *Deserializer) DeserializeI128() (serde.Int128, error) {
	src, err := d.r.ReadHead(primitives.SizeU128)
	if err != nil {
		return serde.Int128{}, err
	}
	hi, lo, err := primitives.I128(src, d.p)
	if err != nil {
		return serde.Int128{}, err
	}

	return serde.Int128{High: hi, Low: lo}, nil
}

func (d *Deserializer) DeserializeF32() (float32, error) {
	src, err := d.r.ReadHead(primitives.SizeF32)
	if err != nil {
		return 0, err
	}

	return primitives.F32(src, d.p)
}

func (d *Deserializer) DeserializeF64() (float64, error) {
	src, err := d.r.ReadHead(primitives.SizeF64)
	if err != nil {
		return 0, err
	}

	return primitives.F64(src, d.p)
}

// DeserializeStr reads a string and validates it as UTF-8 after the order
// transform has been undone.
func (d *Deserializer) DeserializeStr() (string, error) {
	b, err := d.DeserializeBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string of %d bytes", errs.ErrInvalidUtf8Encoding, len(b))
	}

	return string(b), nil
}

// DeserializeBytes reads a length-prefixed byte string into a new slice.
func (d *Deserializer) DeserializeBytes() ([]byte, error) {
	n, err := d.readTailVarint(varint.MaxLen64)
	if err != nil {
		return nil, err
	}
	if n > uint64(d.r.Remaining()) {
		return nil, fmt.Errorf("%w: byte string of %d bytes, %d remaining", errs.ErrPrematureEndOfInput, n, d.r.Remaining())
	}
	src, err := d.r.ReadHead(int(n)) //nolint:gosec
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(src))
	primitives.PutBytes(out, src, d.p)

	return out, nil
}

// DeserializeEscapedStr reads an escaped, terminated string from the head.
func (d *Deserializer) DeserializeEscapedStr() (string, error) {
	b, err := d.DeserializeEscapedBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: string of %d bytes", errs.ErrInvalidUtf8Encoding, len(b))
	}

	return string(b), nil
}

// DeserializeEscapedBytes reads an escaped, terminated byte string from the head.
func (d *Deserializer) DeserializeEscapedBytes() ([]byte, error) {
	out, n, err := primitives.Escaped(d.r.PeekHead(), d.p)
	if err != nil {
		return nil, err
	}
	if _, err := d.r.ReadHead(n); err != nil {
		return nil, err
	}

	return out, nil
}

func (d *Deserializer) DeserializeUnit() (struct{}, error) {
	return struct{}{}, nil
}

// DeserializeOptionTag reads a presence byte; anything other than 0 or 1 is rejected.
func (d *Deserializer) DeserializeOptionTag() (bool, error) {
	tag, err := d.DeserializeU8()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: option tag %d", errs.ErrInvalidTagEncoding, tag)
	}
}

// DeserializeLen reads a sequence or map element count from the tail.
func (d *Deserializer) DeserializeLen() (int, error) {
	n, err := d.readTailVarint(varint.MaxLen64)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt {
		return 0, fmt.Errorf("%w: length %d overflows int", errs.ErrInvalidVarintEncoding, n)
	}

	return int(n), nil
}

// DeserializeVariantIndex reads an enum discriminant from the head and
// rejects values not below numVariants.
func (d *Deserializer) DeserializeVariantIndex(numVariants uint32) (uint32, error) {
	tag, err := d.r.ReadHead(1)
	if err != nil {
		return 0, err
	}

	var tmp [varint.MaxLen64]byte
	tmp[0] = d.byteOf(tag[0])
	n := varint.TagLen(tmp[0])
	if n > varint.MaxLen32 {
		return 0, fmt.Errorf("%w: discriminant chain exceeds %d bytes", errs.ErrInvalidVarintEncoding, varint.MaxLen32)
	}
	if n > 1 {
		rest, err := d.r.ReadHead(n - 1)
		if err != nil {
			return 0, err
		}
		d.copyOrdered(tmp[1:n], rest)
	}

	idx, _, err := varint.DecodeU32(tmp[:n])
	if err != nil {
		return 0, err
	}
	if idx >= numVariants {
		return 0, fmt.Errorf("%w: variant index %d, %d variants", errs.ErrInvalidTagEncoding, idx, numVariants)
	}

	return idx, nil
}

func (d *Deserializer) DeserializeAny() (any, error) {
	return nil, errs.ErrDeserializeAnyNotSupported
}

func (d *Deserializer) DeserializeIdentifier() (string, error) {
	return "", errs.ErrDeserializeIdentifierNotSupported
}

func (d *Deserializer) DeserializeIgnoredAny() error {
	return errs.ErrDeserializeIgnoredAny
}

// readTailVarint reads the tag byte from the tail, then the continuation
// bytes it announces.
func (d *Deserializer) readTailVarint(maxLen int) (uint64, error) {
	tag, err := d.r.ReadTail(1)
	if err != nil {
		return 0, err
	}

	var tmp [varint.MaxLen64]byte
	tmp[0] = d.byteOf(tag[0])
	n := varint.TagLen(tmp[0])
	if n > maxLen {
		return 0, fmt.Errorf("%w: chain exceeds %d bytes", errs.ErrInvalidVarintEncoding, maxLen)
	}
	if n > 1 {
		rest, err := d.r.ReadTail(n - 1)
		if err != nil {
			return 0, err
		}
		d.copyOrdered(tmp[1:n], rest)
	}

	v, _, err := varint.Decode(tmp[:n])

	return v, err
}

func (d *Deserializer) byteOf(b byte) byte {
	if d.p.IsDescending() {
		return ^b
	}

	return b
}

func (d *Deserializer) copyOrdered(dst, src []byte) {
	primitives.PutBytes(dst, src, d.p)
}
