package encoding

import (
	"fmt"
	"unicode/utf8"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
	"github.com/arloliu/ordcode/primitives"
	"github.com/arloliu/ordcode/serde"
	"github.com/arloliu/ordcode/tailbuf"
	"github.com/arloliu/ordcode/varint"
)

// Serializer writes values into a tailbuf.Writer.
type Serializer struct {
	w *tailbuf.Writer
	p params.Params
}

var (
	_ serde.Serializer        = (*Serializer)(nil)
	_ serde.EscapedSerializer = (*Serializer)(nil)
)

// NewSerializer creates a Serializer writing into w with parameters p.
func NewSerializer(w *tailbuf.Writer, p params.Params) *Serializer {
	return &Serializer{w: w, p: p}
}

// Params returns the parameters the serializer writes with.
func (s *Serializer) Params() params.Params {
	return s.p
}

func (s *Serializer) SerializeBool(value bool) error {
	dst, err := s.w.AllocHead(primitives.SizeBool)
	if err != nil {
		return err
	}
	primitives.PutBool(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeChar(value rune) error {
	if !utf8.ValidRune(value) {
		return invalidRune(value)
	}
	dst, err := s.w.AllocHead(primitives.SizeChar)
	if err != nil {
		return err
	}
	primitives.PutChar(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeU8(value uint8) error {
	dst, err := s.w.AllocHead(primitives.SizeU8)
	if err != nil {
		return err
	}
	primitives.PutU8(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeU16(value uint16) error {
	dst, err := s.w.AllocHead(primitives.SizeU16)
	if err != nil {
		return err
	}
	primitives.PutU16(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeU32(value uint32) error {
	dst, err := s.w.AllocHead(primitives.SizeU32)
	if err != nil {
		return err
	}
	primitives.PutU32(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeU64(value uint64) error {
	dst, err := s.w.AllocHead(primitives.SizeU64)
	if err != nil {
		return err
	}
	primitives.PutU64(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeU128(value serde.Uint128) error {
	dst, err := s.w.AllocHead(primitives.SizeU128)
	if err != nil {
		return err
	}
	primitives.PutU128(dst, value.High, value.Low, s.p)

	return nil
}

func (s *Serializer) SerializeI8(value int8) error {
	dst, err := s.w.AllocHead(primitives.SizeU8)
	if err != nil {
		return err
	}
	primitives.PutI8(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeI16(value int16) error {
	dst, err := s.w.AllocHead(primitives.SizeU16)
	if err != nil {
		return err
	}
	primitives.PutI16(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeI32(value int32) error {
	dst, err := s.w.AllocHead(primitives.SizeU32)
	if err != nil {
		return err
	}
	primitives.PutI32(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeI64(value int64) error {
	dst, err := s.w.AllocHead(primitives.SizeU64)
	if err != nil {
		return err
	}
	primitives.PutI64(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeI128(value serde.Int128) error {
	dst, err := s.w.AllocHead(primitives.SizeU128)
	if err != nil {
		return err
	}
	primitives.PutI128(dst, value.High, value.Low, s.p)

	return nil
}

func (s *Serializer) SerializeF32(value float32) error {
	dst, err := s.w.AllocHead(primitives.SizeF32)
	if err != nil {
		return err
	}
	primitives.PutF32(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeF64(value float64) error {
	dst, err := s.w.AllocHead(primitives.SizeF64)
	if err != nil {
		return err
	}
	primitives.PutF64(dst, value, s.p)

	return nil
}

// SerializeStr writes the byte length to the tail and the content to the head.
func (s *Serializer) SerializeStr(value string) error {
	if !utf8.ValidString(value) {
		return invalidString(value)
	}
	if err := s.writeTailVarint(uint64(len(value))); err != nil {
		return err
	}
	dst, err := s.w.AllocHead(len(value))
	if err != nil {
		return err
	}
	primitives.PutString(dst, value, s.p)

	return nil
}

// SerializeBytes writes the length to the tail and the content to the head.
func (s *Serializer) SerializeBytes(value []byte) error {
	if err := s.writeTailVarint(uint64(len(value))); err != nil {
		return err
	}
	dst, err := s.w.AllocHead(len(value))
	if err != nil {
		return err
	}
	primitives.PutBytes(dst, value, s.p)

	return nil
}

// SerializeEscapedStr writes value escaped and terminated on the head.
func (s *Serializer) SerializeEscapedStr(value string) error {
	if !utf8.ValidString(value) {
		return invalidString(value)
	}
	dst, err := s.w.AllocHead(primitives.EscapedStringSize(value))
	if err != nil {
		return err
	}
	primitives.PutEscapedString(dst, value, s.p)

	return nil
}

// SerializeEscapedBytes writes value escaped and terminated on the head.
func (s *Serializer) SerializeEscapedBytes(value []byte) error {
	dst, err := s.w.AllocHead(primitives.EscapedSize(value))
	if err != nil {
		return err
	}
	primitives.PutEscaped(dst, value, s.p)

	return nil
}

func (s *Serializer) SerializeUnit(struct{}) error {
	return nil
}

func (s *Serializer) SerializeOptionTag(present bool) error {
	return s.SerializeBool(present)
}

// SerializeLen writes a sequence or map element count to the tail.
// It returns errs.ErrSerializeSequenceMustHaveLength for serde.UnknownLength.
func (s *Serializer) SerializeLen(length int) error {
	if length < 0 {
		return errs.ErrSerializeSequenceMustHaveLength
	}

	return s.writeTailVarint(uint64(length))
}

// SerializeVariantIndex writes an enum discriminant to the head.
func (s *Serializer) SerializeVariantIndex(index uint32) error {
	var tmp [varint.MaxLen64]byte
	n := varint.Encode(tmp[:], uint64(index))
	if s.p.IsDescending() {
		primitives.InvertBuffer(tmp[:n])
	}

	return s.w.WriteHead(tmp[:n])
}

// writeTailVarint writes the tag byte first and the continuation bytes
// second, so the reader can size its second read from the first.
func (s *Serializer) writeTailVarint(v uint64) error {
	var tmp [varint.MaxLen64]byte
	n := varint.Encode(tmp[:], v)
	if n > s.w.Remaining() {
		return fmt.Errorf("%w: varint needs %d bytes, %d available", errs.ErrBufferOverflow, n, s.w.Remaining())
	}
	if s.p.IsDescending() {
		primitives.InvertBuffer(tmp[:n])
	}
	if err := s.w.WriteTail(tmp[:1]); err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	return s.w.WriteTail(tmp[1:n])
}

func invalidString(v string) error {
	return fmt.Errorf("%w: string of %d bytes", errs.ErrInvalidUtf8Encoding, len(v))
}

func invalidRune(r rune) error {
	return fmt.Errorf("%w: 0x%x is not a unicode scalar value", errs.ErrInvalidUtf8Encoding, r)
}
