package encoding

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
	"github.com/arloliu/ordcode/primitives"
	"github.com/arloliu/ordcode/serde"
	"github.com/arloliu/ordcode/tailbuf"
	"github.com/arloliu/ordcode/varint"
)

var allParams = []params.Params{
	params.AscendingOrder,
	params.DescendingOrder,
	params.PortableBinary,
	params.NativeBinary,
	{Endianness: params.LittleEndian, Order: params.Descending},
}

// pair is a (u16, string) key.
type pair struct {
	A uint16
	B string
}

func (k pair) Serialize(s serde.Serializer) error {
	if err := s.SerializeU16(k.A); err != nil {
		return err
	}

	return s.SerializeStr(k.B)
}

func (k *pair) Deserialize(d serde.Deserializer) error {
	var err error
	if k.A, err = d.DeserializeU16(); err != nil {
		return err
	}
	k.B, err = d.DeserializeStr()

	return err
}

// optU8 is an optional u8.
type optU8 struct {
	V *uint8
}

func (o optU8) Serialize(s serde.Serializer) error {
	if err := s.SerializeOptionTag(o.V != nil); err != nil {
		return err
	}
	if o.V == nil {
		return nil
	}

	return s.SerializeU8(*o.V)
}

func (o *optU8) Deserialize(d serde.Deserializer) error {
	present, err := d.DeserializeOptionTag()
	if err != nil || !present {
		return err
	}
	v, err := d.DeserializeU8()
	if err != nil {
		return err
	}
	o.V = &v

	return nil
}

// shape is an enum: 0 = point, 1 = circle(radius), 2 = label(text).
type shape struct {
	Kind   uint32
	Radius float64
	Label  string
}

const numShapes = 3

func (sh shape) Serialize(s serde.Serializer) error {
	if err := s.SerializeVariantIndex(sh.Kind); err != nil {
		return err
	}
	switch sh.Kind {
	case 1:
		return s.SerializeF64(sh.Radius)
	case 2:
		return s.SerializeStr(sh.Label)
	default:
		return s.SerializeUnit(struct{}{})
	}
}

func (sh *shape) Deserialize(d serde.Deserializer) error {
	kind, err := d.DeserializeVariantIndex(numShapes)
	if err != nil {
		return err
	}
	sh.Kind = kind
	switch kind {
	case 1:
		sh.Radius, err = d.DeserializeF64()
	case 2:
		sh.Label, err = d.DeserializeStr()
	default:
		_, err = d.DeserializeUnit()
	}

	return err
}

type attr struct {
	Key   string
	Value int64
}

// record exercises every shape the traversal supports.
type record struct {
	ID      uint64
	Delta   int32
	Small   int8
	Mid     int16
	Byte    uint8
	Word    uint32
	Ratio   float32
	Name    string
	Tags    []string
	Blob    []byte
	Parent  *uint32
	Shape   shape
	Attrs   []attr
	Wide    serde.Uint128
	Signed  serde.Int128
	Initial rune
	Flag    bool
}

func (r record) Serialize(s serde.Serializer) error {
	steps := []func() error{
		func() error { return s.SerializeU64(r.ID) },
		func() error { return s.SerializeI32(r.Delta) },
		func() error { return s.SerializeI8(r.Small) },
		func() error { return s.SerializeI16(r.Mid) },
		func() error { return s.SerializeU8(r.Byte) },
		func() error { return s.SerializeU32(r.Word) },
		func() error { return s.SerializeF32(r.Ratio) },
		func() error { return s.SerializeStr(r.Name) },
		func() error {
			if err := s.SerializeLen(len(r.Tags)); err != nil {
				return err
			}
			for _, tag := range r.Tags {
				if err := s.SerializeStr(tag); err != nil {
					return err
				}
			}

			return nil
		},
		func() error { return s.SerializeBytes(r.Blob) },
		func() error {
			if err := s.SerializeOptionTag(r.Parent != nil); err != nil || r.Parent == nil {
				return err
			}

			return s.SerializeU32(*r.Parent)
		},
		func() error { return r.Shape.Serialize(s) },
		func() error {
			if err := s.SerializeLen(len(r.Attrs)); err != nil {
				return err
			}
			for _, a := range r.Attrs {
				if err := s.SerializeStr(a.Key); err != nil {
					return err
				}
				if err := s.SerializeI64(a.Value); err != nil {
					return err
				}
			}

			return nil
		},
		func() error { return s.SerializeU128(r.Wide) },
		func() error { return s.SerializeI128(r.Signed) },
		func() error { return s.SerializeChar(r.Initial) },
		func() error { return s.SerializeBool(r.Flag) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	return nil
}

func (r *record) Deserialize(d serde.Deserializer) error {
	var err error
	if r.ID, err = d.DeserializeU64(); err != nil {
		return err
	}
	if r.Delta, err = d.DeserializeI32(); err != nil {
		return err
	}
	if r.Small, err = d.DeserializeI8(); err != nil {
		return err
	}
	if r.Mid, err = d.DeserializeI16(); err != nil {
		return err
	}
	if r.Byte, err = d.DeserializeU8(); err != nil {
		return err
	}
	if r.Word, err = d.DeserializeU32(); err != nil {
		return err
	}
	if r.Ratio, err = d.DeserializeF32(); err != nil {
		return err
	}
	if r.Name, err = d.DeserializeStr(); err != nil {
		return err
	}

	n, err := d.DeserializeLen()
	if err != nil {
		return err
	}
	r.Tags = nil
	for range n {
		tag, err := d.DeserializeStr()
		if err != nil {
			return err
		}
		r.Tags = append(r.Tags, tag)
	}

	if r.Blob, err = d.DeserializeBytes(); err != nil {
		return err
	}

	present, err := d.DeserializeOptionTag()
	if err != nil {
		return err
	}
	r.Parent = nil
	if present {
		v, err := d.DeserializeU32()
		if err != nil {
			return err
		}
		r.Parent = &v
	}

	if err = r.Shape.Deserialize(d); err != nil {
		return err
	}

	if n, err = d.DeserializeLen(); err != nil {
		return err
	}
	r.Attrs = nil
	for range n {
		var a attr
		if a.Key, err = d.DeserializeStr(); err != nil {
			return err
		}
		if a.Value, err = d.DeserializeI64(); err != nil {
			return err
		}
		r.Attrs = append(r.Attrs, a)
	}

	if r.Wide, err = d.DeserializeU128(); err != nil {
		return err
	}
	if r.Signed, err = d.DeserializeI128(); err != nil {
		return err
	}
	if r.Initial, err = d.DeserializeChar(); err != nil {
		return err
	}
	r.Flag, err = d.DeserializeBool()

	return err
}

func encode(t *testing.T, v serde.Serializable, p params.Params) []byte {
	t.Helper()

	size, err := CalcSize(v, p)
	require.NoError(t, err)

	buf := make([]byte, size)
	w := tailbuf.NewWriter(buf)
	require.NoError(t, v.Serialize(NewSerializer(w, p)))

	n, err := w.Finalize()
	require.NoError(t, err)
	require.Equal(t, size, n, "size calculation must be exact")

	return buf
}

func decode(buf []byte, v serde.Deserializable, p params.Params) error {
	d := NewDeserializer(tailbuf.NewReader(buf), p)
	if err := v.Deserialize(d); err != nil {
		return err
	}

	return d.IsComplete()
}

func sampleRecord() record {
	parent := uint32(42)

	return record{
		ID:      0xDEADBEEFCAFE,
		Delta:   -7,
		Small:   math.MinInt8,
		Mid:     math.MaxInt16,
		Byte:    0xAB,
		Word:    1 << 31,
		Ratio:   -1.5,
		Name:    "ordered-✓",
		Tags:    []string{"", "a", string(bytes.Repeat([]byte("x"), 300))},
		Blob:    []byte{0x00, 0xFF, 0x10},
		Parent:  &parent,
		Shape:   shape{Kind: 2, Label: "circle-ish"},
		Attrs:   []attr{{Key: "k1", Value: math.MinInt64}, {Key: "k2", Value: math.MaxInt64}},
		Wide:    serde.Uint128{High: math.MaxUint64, Low: 1},
		Signed:  serde.Int128{High: -1, Low: 0},
		Initial: 'é',
		Flag:    true,
	}
}

func TestSerializer_AscendingKey(t *testing.T) {
	buf := encode(t, pair{A: 1, B: "abc"}, params.AscendingOrder)
	require.Equal(t, []byte{0x00, 0x01, 0x61, 0x62, 0x63, 0x07}, buf)

	var got pair
	require.NoError(t, decode(buf, &got, params.AscendingOrder))
	require.Equal(t, pair{A: 1, B: "abc"}, got)
}

func TestSerializer_DescendingKey(t *testing.T) {
	buf := encode(t, pair{A: 1, B: "abc"}, params.DescendingOrder)
	require.Equal(t, []byte{0xFF, 0xFE, 0x9E, 0x9D, 0x9C, 0xF8}, buf)

	var got pair
	require.NoError(t, decode(buf, &got, params.DescendingOrder))
	require.Equal(t, pair{A: 1, B: "abc"}, got)
}

func TestDeserializer_Truncated(t *testing.T) {
	buf := encode(t, pair{A: 1, B: "abc"}, params.AscendingOrder)

	for n := 0; n < len(buf); n++ {
		var got pair
		err := decode(buf[:n], &got, params.AscendingOrder)
		require.Error(t, err, "prefix of %d bytes", n)
	}

	var got pair
	err := decode(buf[:5], &got, params.AscendingOrder)
	require.ErrorIs(t, err, errs.ErrPrematureEndOfInput)
}

func TestSerializer_Option(t *testing.T) {
	require.Equal(t, []byte{0x00}, encode(t, optU8{}, params.AscendingOrder))

	five := uint8(5)
	buf := encode(t, optU8{V: &five}, params.AscendingOrder)
	require.Equal(t, []byte{0x01, 0x05}, buf)

	var got optU8
	require.NoError(t, decode(buf, &got, params.AscendingOrder))
	require.NotNil(t, got.V)
	require.Equal(t, uint8(5), *got.V)
}

func TestSerializer_OptionOrdering(t *testing.T) {
	absentAsc := encode(t, optU8{}, params.AscendingOrder)
	absentDesc := encode(t, optU8{}, params.DescendingOrder)

	for _, v := range []uint8{0, 1, 0x7F, 0xFF} {
		v := v
		present := optU8{V: &v}
		require.Negative(t, bytes.Compare(absentAsc, encode(t, present, params.AscendingOrder)))
		require.Positive(t, bytes.Compare(absentDesc, encode(t, present, params.DescendingOrder)))
	}
}

func TestSerializer_RoundTripAllParams(t *testing.T) {
	want := sampleRecord()

	for _, p := range allParams {
		t.Run(p.String(), func(t *testing.T) {
			buf := encode(t, want, p)

			var got record
			require.NoError(t, decode(buf, &got, p))
			require.Equal(t, want, got)
		})
	}
}

func TestSerializer_DescendingIsInvertedAscending(t *testing.T) {
	values := []serde.Serializable{
		pair{A: 1, B: "abc"},
		sampleRecord(),
		record{},
		shape{Kind: 1, Radius: math.Inf(-1)},
	}

	for _, v := range values {
		asc := encode(t, v, params.AscendingOrder)
		desc := encode(t, v, params.DescendingOrder)

		primitives.InvertBuffer(asc)
		require.Equal(t, asc, desc)
	}
}

func TestSerializer_Overflow(t *testing.T) {
	v := sampleRecord()
	size, err := CalcSize(v, params.AscendingOrder)
	require.NoError(t, err)

	for _, n := range []int{0, 1, size / 2, size - 1} {
		w := tailbuf.NewWriter(make([]byte, n))
		err := v.Serialize(NewSerializer(w, params.AscendingOrder))
		require.ErrorIs(t, err, errs.ErrBufferOverflow, "buffer of %d bytes", n)
	}
}

func TestSerializer_Underflow(t *testing.T) {
	w := tailbuf.NewWriter(make([]byte, 10))
	require.NoError(t, pair{A: 1, B: "abc"}.Serialize(NewSerializer(w, params.AscendingOrder)))

	_, err := w.Finalize()
	require.ErrorIs(t, err, errs.ErrBufferUnderflow)
}

func TestSerializer_UnknownLength(t *testing.T) {
	w := tailbuf.NewWriter(make([]byte, 16))
	require.ErrorIs(t, NewSerializer(w, params.AscendingOrder).SerializeLen(serde.UnknownLength),
		errs.ErrSerializeSequenceMustHaveLength)
	require.ErrorIs(t, NewSizeCalc(params.AscendingOrder).SerializeLen(serde.UnknownLength),
		errs.ErrSerializeSequenceMustHaveLength)
}

func TestSerializer_InvalidChar(t *testing.T) {
	w := tailbuf.NewWriter(make([]byte, 4))
	require.ErrorIs(t, NewSerializer(w, params.AscendingOrder).SerializeChar(0xD800), errs.ErrInvalidUtf8Encoding)
	require.ErrorIs(t, NewSizeCalc(params.AscendingOrder).SerializeChar(0x110000), errs.ErrInvalidUtf8Encoding)
}

func TestSerializer_InvalidStr(t *testing.T) {
	for _, v := range []string{"\xff\xfe", "ok\xc0", "\xed\xa0\x80"} {
		w := tailbuf.NewWriter(make([]byte, 16))
		require.ErrorIs(t, NewSerializer(w, params.AscendingOrder).SerializeStr(v), errs.ErrInvalidUtf8Encoding)
		require.Equal(t, 16, w.Remaining(), "nothing written for %q", v)

		_, err := CalcSize(serializeFunc(func(s serde.Serializer) error { return s.SerializeStr(v) }), params.DescendingOrder)
		require.ErrorIs(t, err, errs.ErrInvalidUtf8Encoding)
	}
}

func TestDeserializer_InvalidOptionTag(t *testing.T) {
	var got optU8
	err := decode([]byte{0x02}, &got, params.AscendingOrder)
	require.ErrorIs(t, err, errs.ErrInvalidTagEncoding)
}

// tagged is an enum with a wide discriminant followed by a payload.
type tagged struct {
	Index  uint32
	Marker uint16
}

func (g tagged) Serialize(s serde.Serializer) error {
	if err := s.SerializeVariantIndex(g.Index); err != nil {
		return err
	}

	return s.SerializeU16(g.Marker)
}

func (g *tagged) Deserialize(d serde.Deserializer) error {
	var err error
	if g.Index, err = d.DeserializeVariantIndex(math.MaxUint32); err != nil {
		return err
	}
	g.Marker, err = d.DeserializeU16()

	return err
}

func TestVariantIndex_MultiByte(t *testing.T) {
	indices := []uint32{0, 127, 128, 300, 1 << 14, 1<<21 + 5, 1<<28 + 1, math.MaxUint32 - 1}
	for _, idx := range indices {
		in := tagged{Index: idx, Marker: 0xBEEF}
		width := varint.Len(uint64(idx))

		asc := encode(t, in, params.AscendingOrder)
		desc := encode(t, in, params.DescendingOrder)
		require.Len(t, asc, width+2, "index %d", idx)

		inverted := bytes.Clone(asc)
		primitives.InvertBuffer(inverted)
		require.Equal(t, inverted, desc, "index %d", idx)

		// the discriminant sits on the head, tag byte first
		var want [varint.MaxLen64]byte
		varint.Encode(want[:], uint64(idx))
		require.Equal(t, want[:width], asc[:width], "index %d", idx)

		var out tagged
		require.NoError(t, decode(asc, &out, params.AscendingOrder))
		require.Equal(t, in, out, "index %d", idx)

		out = tagged{}
		require.NoError(t, decode(desc, &out, params.DescendingOrder))
		require.Equal(t, in, out, "index %d descending", idx)
	}
}

func TestVariantIndex_TruncatedContinuation(t *testing.T) {
	desc := encode(t, tagged{Index: 1 << 20, Marker: 1}, params.DescendingOrder)
	require.Greater(t, varint.Len(1<<20), 1)

	var out tagged
	require.ErrorIs(t, decode(desc[:1], &out, params.DescendingOrder), errs.ErrPrematureEndOfInput)
}

func TestDeserializer_VariantOutOfRange(t *testing.T) {
	buf := encode(t, shape{Kind: 1, Radius: 2}, params.AscendingOrder)
	d := NewDeserializer(tailbuf.NewReader(buf), params.AscendingOrder)

	_, err := d.DeserializeVariantIndex(1)
	require.ErrorIs(t, err, errs.ErrInvalidTagEncoding)
}

func TestDeserializer_InvalidUtf8(t *testing.T) {
	// head: 0xFF, tail: varint(1)
	d := NewDeserializer(tailbuf.NewReader([]byte{0xFF, 0x03}), params.AscendingOrder)
	_, err := d.DeserializeStr()
	require.ErrorIs(t, err, errs.ErrInvalidUtf8Encoding)

	// the same bytes are a valid byte string
	d = NewDeserializer(tailbuf.NewReader([]byte{0xFF, 0x03}), params.AscendingOrder)
	b, err := d.DeserializeBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF}, b)
}

func TestDeserializer_InvalidChar(t *testing.T) {
	buf := make([]byte, 4)
	primitives.PutU32(buf, 0xD800, params.AscendingOrder)

	d := NewDeserializer(tailbuf.NewReader(buf), params.AscendingOrder)
	_, err := d.DeserializeChar()
	require.ErrorIs(t, err, errs.ErrInvalidUtf8Encoding)
}

func TestDeserializer_OverlongLength(t *testing.T) {
	// two-byte varint carrying 1, which fits in one byte; the tag byte sits last
	d := NewDeserializer(tailbuf.NewReader([]byte{0x00, 0x06}), params.AscendingOrder)
	_, err := d.DeserializeLen()
	require.ErrorIs(t, err, errs.ErrInvalidVarintEncoding)
}

func TestDeserializer_UnsupportedRequests(t *testing.T) {
	d := NewDeserializer(tailbuf.NewReader(nil), params.AscendingOrder)

	_, err := d.DeserializeAny()
	require.ErrorIs(t, err, errs.ErrDeserializeAnyNotSupported)
	_, err = d.DeserializeIdentifier()
	require.ErrorIs(t, err, errs.ErrDeserializeIdentifierNotSupported)
	require.ErrorIs(t, d.DeserializeIgnoredAny(), errs.ErrDeserializeIgnoredAny)
}

func TestDeserializer_DoesNotAliasInput(t *testing.T) {
	buf := encode(t, pair{A: 9, B: "xyz"}, params.AscendingOrder)

	var got pair
	require.NoError(t, decode(buf, &got, params.AscendingOrder))
	for i := range buf {
		buf[i] = 0
	}
	require.Equal(t, "xyz", got.B)
}

func TestSerializer_TuplesOrdered(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11)) //nolint:gosec

	type tuple struct {
		a uint16
		b int32
		c float64
		d string
	}
	less := func(x, y tuple) int {
		switch {
		case x.a != y.a:
			return cmpOf(x.a < y.a)
		case x.b != y.b:
			return cmpOf(x.b < y.b)
		case x.c != y.c:
			return cmpOf(x.c < y.c)
		case x.d != y.d:
			return cmpOf(x.d < y.d)
		}

		return 0
	}
	letters := []byte("ab")
	gen := func() tuple {
		s := make([]byte, 3)
		for i := range s {
			s[i] = letters[rng.IntN(len(letters))]
		}

		return tuple{
			a: uint16(rng.IntN(3)),
			b: int32(rng.IntN(5)) - 2,
			c: []float64{math.Inf(-1), -1, 0, 0.5, math.MaxFloat64}[rng.IntN(5)],
			d: string(s),
		}
	}
	enc := func(v tuple, p params.Params) []byte {
		fn := serializeFunc(func(s serde.Serializer) error {
			if err := s.SerializeU16(v.a); err != nil {
				return err
			}
			if err := s.SerializeI32(v.b); err != nil {
				return err
			}
			if err := s.SerializeF64(v.c); err != nil {
				return err
			}

			return s.SerializeStr(v.d)
		})

		return encode(t, fn, p)
	}

	for range 500 {
		x, y := gen(), gen()
		want := less(x, y)
		require.Equal(t, want, bytes.Compare(enc(x, params.AscendingOrder), enc(y, params.AscendingOrder)), "%+v vs %+v", x, y)
		require.Equal(t, -want, bytes.Compare(enc(x, params.DescendingOrder), enc(y, params.DescendingOrder)), "%+v vs %+v", x, y)
	}
}

func TestSerializer_RandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec

	randString := func(maxLen int) string {
		b := make([]rune, rng.IntN(maxLen+1))
		for i := range b {
			b[i] = rune(0x20 + rng.IntN(0x3000))
			if b[i] >= 0xD800 && b[i] < 0xE000 {
				b[i] = 'z'
			}
		}

		return string(b)
	}

	for i := range 200 {
		r := record{
			ID:      rng.Uint64(),
			Delta:   rng.Int32() - math.MaxInt32/2,
			Small:   int8(rng.IntN(256) - 128),
			Mid:     int16(rng.IntN(65536) - 32768),
			Byte:    uint8(rng.IntN(256)),
			Word:    rng.Uint32(),
			Ratio:   float32(rng.NormFloat64()),
			Name:    randString(200),
			Blob:    []byte(randString(50)),
			Shape:   shape{Kind: uint32(rng.IntN(numShapes))},
			Wide:    serde.Uint128{High: rng.Uint64(), Low: rng.Uint64()},
			Signed:  serde.Int128{High: rng.Int64() - math.MaxInt64/2, Low: rng.Uint64()},
			Initial: rune(rng.IntN(0xD800)),
			Flag:    rng.IntN(2) == 1,
		}
		for range rng.IntN(4) {
			r.Tags = append(r.Tags, randString(150))
		}
		for range rng.IntN(3) {
			r.Attrs = append(r.Attrs, attr{Key: randString(10), Value: rng.Int64()})
		}
		if rng.IntN(2) == 0 {
			v := rng.Uint32()
			r.Parent = &v
		}
		switch r.Shape.Kind {
		case 1:
			r.Shape.Radius = rng.Float64()
		case 2:
			r.Shape.Label = randString(20)
		}

		p := allParams[i%len(allParams)]
		buf := encode(t, r, p)

		var got record
		require.NoError(t, decode(buf, &got, p))
		if len(r.Blob) == 0 {
			r.Blob = []byte{}
		}
		require.Equal(t, r, got)
	}
}

func TestSizeCalc_Reset(t *testing.T) {
	c := NewSizeCalc(params.AscendingOrder)
	require.NoError(t, pair{A: 1, B: "abc"}.Serialize(c))
	require.Equal(t, 6, c.Size())

	c.Reset()
	require.Equal(t, 0, c.Size())
}

type serializeFunc func(serde.Serializer) error

func (f serializeFunc) Serialize(s serde.Serializer) error { return f(s) }

func cmpOf(less bool) int {
	if less {
		return -1
	}

	return 1
}

func BenchmarkSerializer_Record(b *testing.B) {
	v := sampleRecord()
	size, _ := CalcSize(v, params.AscendingOrder)
	buf := make([]byte, size)

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		w := tailbuf.NewWriter(buf)
		_ = v.Serialize(NewSerializer(w, params.AscendingOrder))
	}
}

func BenchmarkDeserializer_Record(b *testing.B) {
	v := sampleRecord()
	size, _ := CalcSize(v, params.AscendingOrder)
	buf := make([]byte, size)
	_ = v.Serialize(NewSerializer(tailbuf.NewWriter(buf), params.AscendingOrder))

	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		var got record
		_ = got.Deserialize(NewDeserializer(tailbuf.NewReader(buf), params.AscendingOrder))
	}
}

// midKey puts a string between two integers, escaped or length-prefixed.
type midKey struct {
	Shard   uint8
	Name    string
	Seq     uint16
	escaped bool
}

func (k midKey) Serialize(s serde.Serializer) error {
	if err := s.SerializeU8(k.Shard); err != nil {
		return err
	}
	var err error
	if k.escaped {
		err = s.(serde.EscapedSerializer).SerializeEscapedStr(k.Name) //nolint:forcetypeassert
	} else {
		err = s.SerializeStr(k.Name)
	}
	if err != nil {
		return err
	}

	return s.SerializeU16(k.Seq)
}

func (k *midKey) Deserialize(d serde.Deserializer) error {
	var err error
	if k.Shard, err = d.DeserializeU8(); err != nil {
		return err
	}
	if k.escaped {
		k.Name, err = d.(serde.EscapedDeserializer).DeserializeEscapedStr() //nolint:forcetypeassert
	} else {
		k.Name, err = d.DeserializeStr()
	}
	if err != nil {
		return err
	}
	k.Seq, err = d.DeserializeU16()

	return err
}

func TestEscapedStr_OrdersMidKey(t *testing.T) {
	short := midKey{Shard: 1, Name: "ab", Seq: 0xFFFF}
	long := midKey{Shard: 1, Name: "ab\x00", Seq: 0}

	// length-prefixed strings only order as the last field
	require.Positive(t, bytes.Compare(encode(t, short, params.AscendingOrder), encode(t, long, params.AscendingOrder)))

	short.escaped, long.escaped = true, true
	for _, p := range []params.Params{params.AscendingOrder, params.DescendingOrder} {
		lo, hi := encode(t, short, p), encode(t, long, p)
		want := -1
		if p.IsDescending() {
			want = 1
		}
		require.Equal(t, want, bytes.Compare(lo, hi), "params %s", p)

		out := midKey{escaped: true}
		require.NoError(t, decode(hi, &out, p))
		require.Equal(t, long, out)
	}
}

func TestEscaped_KnownEncoding(t *testing.T) {
	k := midKey{Shard: 1, Name: "a\x00", Seq: 2, escaped: true}
	require.Equal(t, []byte{0x01, 'a', 0x00, 0xFF, 0x00, 0x00, 0x00, 0x02}, encode(t, k, params.AscendingOrder))
	require.Equal(t, []byte{0xFE, ^byte('a'), 0xFF, 0x00, 0xFF, 0xFF, 0xFF, 0xFD}, encode(t, k, params.DescendingOrder))
}

func TestEscaped_Malformed(t *testing.T) {
	var out midKey
	out.escaped = true
	err := decode([]byte{0x01, 'a', 0x00, 0x07, 0x00, 0x00, 0x00, 0x02}, &out, params.AscendingOrder)
	require.ErrorIs(t, err, errs.ErrInvalidByteSequenceEscape)

	out = midKey{escaped: true}
	err = decode([]byte{0x01, 'a', 'b'}, &out, params.AscendingOrder)
	require.ErrorIs(t, err, errs.ErrPrematureEndOfInput)

	out = midKey{escaped: true}
	err = decode([]byte{0x01, 0xC0, 0x00, 0x00, 0x00, 0x02}, &out, params.AscendingOrder)
	require.ErrorIs(t, err, errs.ErrInvalidUtf8Encoding)
}

func TestEscaped_SizeAndValidation(t *testing.T) {
	c := NewSizeCalc(params.AscendingOrder)
	require.NoError(t, c.SerializeEscapedBytes([]byte{0, 0}))
	require.NoError(t, c.SerializeEscapedStr("xy"))
	require.Equal(t, 6+4, c.Size())

	require.ErrorIs(t, c.SerializeEscapedStr("\xff"), errs.ErrInvalidUtf8Encoding)

	w := tailbuf.NewWriter(make([]byte, 3))
	require.ErrorIs(t, NewSerializer(w, params.AscendingOrder).SerializeEscapedBytes([]byte{0}), errs.ErrBufferOverflow)
}
