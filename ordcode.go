// Package ordcode provides a binary encoding for keys and values stored in
// ordered key-value databases.
//
// Encoded values have two properties at once:
//
//   - Prefix-free: no encoding is a byte prefix of another, so decoding never
//     scans for terminators.
//   - Order-preserving: comparing encodings byte by byte matches the natural
//     order of the values, ascending or descending.
//
// Fixed-width content is written front to back while length metadata
// (string lengths, element counts) is written back to front from the end of
// the same buffer. Leading fields therefore compare by content alone.
//
// # Basic Usage
//
// Encoding a composite key:
//
//	import "github.com/arloliu/ordcode"
//
//	type EventKey struct {
//	    Tenant uint32
//	    Stream string
//	}
//
//	key, _ := ordcode.Marshal(EventKey{Tenant: 7, Stream: "orders"})
//
//	var decoded EventKey
//	_ = ordcode.Unmarshal(key, &decoded)
//
// Newest-first keys use the descending preset:
//
//	key, _ := ordcode.MarshalOrdered(ts, params.DescendingOrder)
//
// # Package Structure
//
// This package provides top-level wrappers over the encoding package, which
// holds the Serializer, Deserializer and SizeCalc. Types that want full
// control over their layout implement serde.Serializable and
// serde.Deserializable; every other Go value is mapped by reflection.
package ordcode

import (
	"github.com/arloliu/ordcode/encoding"
	"github.com/arloliu/ordcode/internal/walk"
	"github.com/arloliu/ordcode/params"
	"github.com/arloliu/ordcode/primitives"
	"github.com/arloliu/ordcode/serde"
	"github.com/arloliu/ordcode/tailbuf"
)

// FormatVersion is the wire format version shared by every preset.
const FormatVersion = params.FormatVersion

func serializeAny(s serde.Serializer, v any) error {
	if sv, ok := v.(serde.Serializable); ok {
		return sv.Serialize(s)
	}

	return walk.Serialize(s, v)
}

func deserializeAny(d serde.Deserializer, v any) error {
	if dv, ok := v.(serde.Deserializable); ok {
		return dv.Deserialize(d)
	}

	return walk.Deserialize(d, v)
}

// CalcSize returns the exact number of bytes v encodes to under p.
//
// The size does not depend on the order, so ascending and descending
// encodings of the same value have the same length.
func CalcSize(v any, p params.Params) (int, error) {
	c := encoding.NewSizeCalc(p)
	if err := serializeAny(c, v); err != nil {
		return 0, err
	}

	return c.Size(), nil
}

// SerializeExact encodes v into buf, which must be exactly CalcSize(v, p) bytes.
//
// It returns errs.ErrBufferOverflow if buf is too small and
// errs.ErrBufferUnderflow if it is too large.
func SerializeExact(buf []byte, v any, p params.Params) error {
	w := tailbuf.NewWriter(buf)
	if err := serializeAny(encoding.NewSerializer(w, p.Ascending()), v); err != nil {
		return err
	}
	if _, err := w.Finalize(); err != nil {
		return err
	}
	if p.IsDescending() {
		primitives.InvertBuffer(buf)
	}

	return nil
}

// SerializeToBuf encodes v into buf, which may be larger than needed, and
// returns the number of bytes used. The encoding is buf[:n].
func SerializeToBuf(buf []byte, v any, p params.Params) (int, error) {
	w := tailbuf.NewWriter(buf)
	if err := serializeAny(encoding.NewSerializer(w, p.Ascending()), v); err != nil {
		return 0, err
	}
	n := w.Compact()
	if p.IsDescending() {
		primitives.InvertBuffer(buf[:n])
	}

	return n, nil
}

// Marshal encodes v in ascending order.
func Marshal(v any) ([]byte, error) {
	return MarshalOrdered(v, params.AscendingOrder)
}

// MarshalOrdered encodes v under p into a newly allocated slice.
func MarshalOrdered(v any, p params.Params) ([]byte, error) {
	size, err := CalcSize(v, p)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if err := SerializeExact(buf, v, p); err != nil {
		return nil, err
	}

	return buf, nil
}

// AppendOrdered appends the encoding of v under p to dst.
func AppendOrdered(dst []byte, v any, p params.Params) ([]byte, error) {
	size, err := CalcSize(v, p)
	if err != nil {
		return dst, err
	}

	start := len(dst)
	dst = append(dst, make([]byte, size)...)
	if err := SerializeExact(dst[start:], v, p); err != nil {
		return dst[:start], err
	}

	return dst, nil
}

// WithEncoded encodes v under p into pooled storage and calls fn with the
// encoding. The slice is only valid during fn; copy it to retain it.
func WithEncoded(v any, p params.Params, fn func(encoded []byte) error) error {
	size, err := CalcSize(v, p)
	if err != nil {
		return err
	}

	w := tailbuf.NewOwnedWriter(size)
	defer w.Release()

	if err := serializeAny(encoding.NewSerializer(&w.Writer, p.Ascending()), v); err != nil {
		return err
	}
	if _, err := w.Finalize(); err != nil {
		return err
	}
	if p.IsDescending() {
		primitives.InvertBuffer(w.Bytes())
	}

	return fn(w.Bytes())
}

// Unmarshal decodes an ascending encoding from data into v, which must be a
// pointer or a serde.Deserializable. data is not modified.
//
// All of data must be consumed; trailing bytes fail with errs.ErrBufferUnderflow.
func Unmarshal(data []byte, v any) error {
	return unmarshal(data, v, params.AscendingOrder)
}

// UnmarshalOrdered decodes data encoded under p into v.
//
// For descending order data is inverted in place before decoding and
// restored before returning, so the caller must not share data with
// concurrent readers during the call. Decoded strings and byte slices never
// alias data.
func UnmarshalOrdered(data []byte, v any, p params.Params) error {
	if !p.IsDescending() {
		return unmarshal(data, v, p)
	}

	primitives.InvertBuffer(data)
	defer primitives.InvertBuffer(data)

	return unmarshal(data, v, p.Ascending())
}

// UnmarshalReadOnly is UnmarshalOrdered for input that must not be written,
// such as memory owned by a storage engine. Descending input is decoded byte
// by byte instead of being inverted in place.
func UnmarshalReadOnly(data []byte, v any, p params.Params) error {
	return unmarshal(data, v, p)
}

func unmarshal(data []byte, v any, p params.Params) error {
	d := encoding.NewDeserializer(tailbuf.NewReader(data), p)
	if err := deserializeAny(d, v); err != nil {
		return err
	}

	return d.IsComplete()
}
