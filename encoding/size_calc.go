package encoding

import (
	"unicode/utf8"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
	"github.com/arloliu/ordcode/primitives"
	"github.com/arloliu/ordcode/serde"
	"github.com/arloliu/ordcode/varint"
)

// SizeCalc accumulates the exact number of bytes a Serializer with the same
// parameters would write for the same sequence of calls.
//
// It applies the same validation as Serializer, so a value SizeCalc accepts
// is a value Serializer accepts.
type SizeCalc struct {
	size int
	p    params.Params
}

var (
	_ serde.Serializer        = (*SizeCalc)(nil)
	_ serde.EscapedSerializer = (*SizeCalc)(nil)
)

// NewSizeCalc creates a SizeCalc with parameters p.
func NewSizeCalc(p params.Params) *SizeCalc {
	return &SizeCalc{p: p}
}

// Size returns the accumulated size in bytes.
func (c *SizeCalc) Size() int {
	return c.size
}

// Reset sets the accumulated size back to zero.
func (c *SizeCalc) Reset() {
	c.size = 0
}

// CalcSize returns the exact encoded size of v under p.
func CalcSize(v serde.Serializable, p params.Params) (int, error) {
	c := NewSizeCalc(p)
	if err := v.Serialize(c); err != nil {
		return 0, err
	}

	return c.size, nil
}

func (c *SizeCalc) add(n int) error {
	c.size += n
	return nil
}

func (c *SizeCalc) SerializeBool(bool) error { return c.add(primitives.SizeBool) }

func (c *SizeCalc) SerializeChar(value rune) error {
	if !utf8.ValidRune(value) {
		return invalidRune(value)
	}

	return c.add(primitives.SizeChar)
}

func (c *SizeCalc) SerializeU8(uint8) error              { return c.add(primitives.SizeU8) }
func (c *SizeCalc) SerializeU16(uint16) error            { return c.add(primitives.SizeU16) }
func (c *SizeCalc) SerializeU32(uint32) error            { return c.add(primitives.SizeU32) }
func (c *SizeCalc) SerializeU64(uint64) error            { return c.add(primitives.SizeU64) }
func (c *SizeCalc) SerializeU128(serde.Uint128) error    { return c.add(primitives.SizeU128) }
func (c *SizeCalc) SerializeI8(int8) error               { return c.add(primitives.SizeU8) }
func (c *SizeCalc) SerializeI16(int16) error             { return c.add(primitives.SizeU16) }
func (c *SizeCalc) SerializeI32(int32) error             { return c.add(primitives.SizeU32) }
func (c *SizeCalc) SerializeI64(int64) error             { return c.add(primitives.SizeU64) }
func (c *SizeCalc) SerializeI128(serde.Int128) error     { return c.add(primitives.SizeU128) }
func (c *SizeCalc) SerializeF32(float32) error           { return c.add(primitives.SizeF32) }
func (c *SizeCalc) SerializeF64(float64) error           { return c.add(primitives.SizeF64) }
func (c *SizeCalc) SerializeUnit(struct{}) error         { return nil }
func (c *SizeCalc) SerializeOptionTag(bool) error        { return c.add(primitives.SizeBool) }
func (c *SizeCalc) SerializeVariantIndex(i uint32) error { return c.add(varint.Len(uint64(i))) }

func (c *SizeCalc) SerializeStr(value string) error {
	if !utf8.ValidString(value) {
		return invalidString(value)
	}

	return c.add(varint.Len(uint64(len(value))) + len(value))
}

func (c *SizeCalc) SerializeBytes(value []byte) error {
	return c.add(varint.Len(uint64(len(value))) + len(value))
}

func (c *SizeCalc) SerializeEscapedStr(value string) error {
	if !utf8.ValidString(value) {
		return invalidString(value)
	}

	return c.add(primitives.EscapedStringSize(value))
}

func (c *SizeCalc) SerializeEscapedBytes(value []byte) error {
	return c.add(primitives.EscapedSize(value))
}

func (c *SizeCalc) SerializeLen(length int) error {
	if length < 0 {
		return errs.ErrSerializeSequenceMustHaveLength
	}

	return c.add(varint.Len(uint64(length)))
}
