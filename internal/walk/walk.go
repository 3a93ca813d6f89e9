// Package walk maps arbitrary Go values onto the serde visitor interfaces
// using reflection.
//
// Shapes map as follows:
//
//	bool, intN, uintN, floatN    matching scalar (int and uint as 64-bit)
//	string                       str
//	[]byte                       bytes
//	*T                           option of T (nil is absent)
//	[]T                          sequence
//	[N]T                         fixed tuple, no length metadata
//	map[K]V                      map, entries in ascending key order
//	struct                       tuple of exported fields in declared order
//	serde.Uint128, serde.Int128  128-bit scalars
//
// Fields tagged `ordcode:"-"` are skipped. String and []byte fields tagged
// `ordcode:"esc"` are written escaped and terminated on the head instead of
// with a tail length, which keeps them ordered mid-value. Types implementing
// serde.Serializable or serde.Deserializable are delegated to. A top-level
// pointer passed to Serialize is dereferenced rather than treated as an
// option, so Serialize(&v) and Deserialize(&v) agree.
package walk

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/serde"
)

// Struct tag consulted for field options, and its values.
const (
	TagName = "ordcode"
	// TagEscaped encodes a string or []byte field escaped and terminated in
	// place, so it orders correctly even when more fields follow.
	TagEscaped = "esc"
)

// maxPrealloc caps the capacity reserved from a decoded length, so a corrupt
// length cannot force a huge allocation before the input runs out.
const maxPrealloc = 1024

// maxEmptyElemBytes bounds the memory of a decoded sequence whose elements
// encode to nothing but still occupy memory, such as structs whose fields are
// all skipped.
const maxEmptyElemBytes = 64 << 20

// remainder is implemented by deserializers that know how much input is left.
type remainder interface {
	Remaining() int
}

var (
	serializableType   = reflect.TypeFor[serde.Serializable]()
	deserializableType = reflect.TypeFor[serde.Deserializable]()
	uint128Type        = reflect.TypeFor[serde.Uint128]()
	int128Type         = reflect.TypeFor[serde.Int128]()
)

// field is an encoded struct field.
type field struct {
	index   int
	escaped bool
}

// fieldCache maps a struct type to its encoded fields.
var fieldCache sync.Map

func fieldsOf(t reflect.Type) []field {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field) //nolint:forcetypeassert
	}

	fields := make([]field, 0, t.NumField())
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(TagName)
		if !f.IsExported() || tag == "-" {
			continue
		}
		fields = append(fields, field{index: i, escaped: tag == TagEscaped})
	}
	actual, _ := fieldCache.LoadOrStore(t, fields)

	return actual.([]field) //nolint:forcetypeassert
}

func unsupported(t reflect.Type) error {
	return fmt.Errorf("%w: %s", errs.ErrUnsupportedType, t)
}

// Serialize drives s over v.
func Serialize(s serde.Serializer, v any) error {
	if v == nil {
		return fmt.Errorf("%w: nil value", errs.ErrUnsupportedType)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return fmt.Errorf("%w: nil %s", errs.ErrUnsupportedType, rv.Type())
		}
		rv = rv.Elem()
	}

	return serializeValue(s, rv)
}

func serializeValue(s serde.Serializer, v reflect.Value) error {
	t := v.Type()

	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		if t.Implements(serializableType) {
			return v.Interface().(serde.Serializable).Serialize(s) //nolint:forcetypeassert
		}
		if reflect.PointerTo(t).Implements(serializableType) {
			if !v.CanAddr() {
				cp := reflect.New(t)
				cp.Elem().Set(v)
				v = cp.Elem()
			}

			return v.Addr().Interface().(serde.Serializable).Serialize(s) //nolint:forcetypeassert
		}
	}

	switch t {
	case uint128Type:
		return s.SerializeU128(v.Interface().(serde.Uint128)) //nolint:forcetypeassert
	case int128Type:
		return s.SerializeI128(v.Interface().(serde.Int128)) //nolint:forcetypeassert
	}

	switch t.Kind() {
	case reflect.Bool:
		return s.SerializeBool(v.Bool())
	case reflect.Int8:
		return s.SerializeI8(int8(v.Int())) //nolint:gosec
	case reflect.Int16:
		return s.SerializeI16(int16(v.Int())) //nolint:gosec
	case reflect.Int32:
		return s.SerializeI32(int32(v.Int())) //nolint:gosec
	case reflect.Int64, reflect.Int:
		return s.SerializeI64(v.Int())
	case reflect.Uint8:
		return s.SerializeU8(uint8(v.Uint())) //nolint:gosec
	case reflect.Uint16:
		return s.SerializeU16(uint16(v.Uint())) //nolint:gosec
	case reflect.Uint32:
		return s.SerializeU32(uint32(v.Uint())) //nolint:gosec
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return s.SerializeU64(v.Uint())
	case reflect.Float32:
		return s.SerializeF32(float32(v.Float()))
	case reflect.Float64:
		return s.SerializeF64(v.Float())
	case reflect.String:
		return s.SerializeStr(v.String())
	case reflect.Pointer:
		if err := s.SerializeOptionTag(!v.IsNil()); err != nil || v.IsNil() {
			return err
		}

		return serializeValue(s, v.Elem())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && !implementsEither(t.Elem()) {
			return s.SerializeBytes(v.Bytes())
		}
		if err := s.SerializeLen(v.Len()); err != nil {
			return err
		}

		return serializeElems(s, v)
	case reflect.Array:
		return serializeElems(s, v)
	case reflect.Map:
		return serializeMap(s, v)
	case reflect.Struct:
		fields := fieldsOf(t)
		if len(fields) == 0 {
			return s.SerializeUnit(struct{}{})
		}
		for _, f := range fields {
			if err := serializeField(s, v.Field(f.index), f); err != nil {
				return err
			}
		}

		return nil
	case reflect.Interface:
		if v.IsNil() {
			return fmt.Errorf("%w: nil %s", errs.ErrUnsupportedType, t)
		}

		return serializeValue(s, v.Elem())
	default:
		return unsupported(t)
	}
}

func isByteSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func serializeField(s serde.Serializer, v reflect.Value, f field) error {
	if !f.escaped {
		return serializeValue(s, v)
	}

	es, ok := s.(serde.EscapedSerializer)
	if !ok {
		return fmt.Errorf("%w: %T cannot write escaped sequences", errs.ErrUnsupportedType, s)
	}
	switch {
	case v.Kind() == reflect.String:
		return es.SerializeEscapedStr(v.String())
	case isByteSlice(v.Type()):
		return es.SerializeEscapedBytes(v.Bytes())
	default:
		return fmt.Errorf("%w: %q option on %s field", errs.ErrUnsupportedType, TagEscaped, v.Type())
	}
}

func serializeElems(s serde.Serializer, v reflect.Value) error {
	for i := range v.Len() {
		if err := serializeValue(s, v.Index(i)); err != nil {
			return err
		}
	}

	return nil
}

func serializeMap(s serde.Serializer, v reflect.Value) error {
	keys := v.MapKeys()
	cmpKeys, err := keyComparator(v.Type().Key())
	if err != nil {
		return err
	}
	if k := v.Type().Key().Kind(); k == reflect.Float32 || k == reflect.Float64 {
		for _, key := range keys {
			if math.IsNaN(key.Float()) {
				return fmt.Errorf("%w: NaN map key", errs.ErrUnsupportedMapKey)
			}
		}
	}
	slices.SortFunc(keys, cmpKeys)

	if err := s.SerializeLen(len(keys)); err != nil {
		return err
	}
	for _, k := range keys {
		if err := serializeValue(s, k); err != nil {
			return err
		}
		if err := serializeValue(s, v.MapIndex(k)); err != nil {
			return err
		}
	}

	return nil
}

// keyComparator returns the ascending order used to emit map entries.
func keyComparator(t reflect.Type) (func(a, b reflect.Value) int, error) {
	switch t.Kind() {
	case reflect.Bool:
		return func(a, b reflect.Value) int {
			return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
		}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }, nil
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }, nil
	case reflect.String:
		return func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) }, nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedMapKey, t)
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}

	return 0
}

func implementsEither(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(serializableType) || pt.Implements(serializableType) || pt.Implements(deserializableType)
}

// Deserialize drives d into the value pointed to by v.
func Deserialize(d serde.Deserializer, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", errs.ErrUnsupportedType, v)
	}

	return deserializeValue(d, rv.Elem())
}

func deserializeValue(d serde.Deserializer, v reflect.Value) error {
	t := v.Type()

	if delegates(t) {
		return v.Addr().Interface().(serde.Deserializable).Deserialize(d) //nolint:forcetypeassert
	}

	switch t {
	case uint128Type:
		u, err := d.DeserializeU128()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(u))

		return nil
	case int128Type:
		i, err := d.DeserializeI128()
		if err != nil {
			return err
		}
		v.Set(reflect.ValueOf(i))

		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := d.DeserializeBool()
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int8:
		i, err := d.DeserializeI8()
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int16:
		i, err := d.DeserializeI16()
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int32:
		i, err := d.DeserializeI32()
		if err != nil {
			return err
		}
		v.SetInt(int64(i))
	case reflect.Int64, reflect.Int:
		i, err := d.DeserializeI64()
		if err != nil {
			return err
		}
		if v.OverflowInt(i) {
			return fmt.Errorf("%w: %d overflows %s", errs.ErrUnsupportedType, i, t)
		}
		v.SetInt(i)
	case reflect.Uint8:
		u, err := d.DeserializeU8()
		if err != nil {
			return err
		}
		v.SetUint(uint64(u))
	case reflect.Uint16:
		u, err := d.DeserializeU16()
		if err != nil {
			return err
		}
		v.SetUint(uint64(u))
	case reflect.Uint32:
		u, err := d.DeserializeU32()
		if err != nil {
			return err
		}
		v.SetUint(uint64(u))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		u, err := d.DeserializeU64()
		if err != nil {
			return err
		}
		if v.OverflowUint(u) {
			return fmt.Errorf("%w: %d overflows %s", errs.ErrUnsupportedType, u, t)
		}
		v.SetUint(u)
	case reflect.Float32:
		f, err := d.DeserializeF32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
	case reflect.Float64:
		f, err := d.DeserializeF64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.String:
		str, err := d.DeserializeStr()
		if err != nil {
			return err
		}
		v.SetString(str)
	case reflect.Pointer:
		present, err := d.DeserializeOptionTag()
		if err != nil {
			return err
		}
		if !present {
			v.SetZero()
			return nil
		}
		elem := reflect.New(t.Elem())
		if err := deserializeValue(d, elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
	case reflect.Slice:
		return deserializeSlice(d, v)
	case reflect.Array:
		for i := range v.Len() {
			if err := deserializeValue(d, v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Map:
		return deserializeMap(d, v)
	case reflect.Struct:
		fields := fieldsOf(t)
		if len(fields) == 0 {
			_, err := d.DeserializeUnit()
			return err
		}
		for _, f := range fields {
			if err := deserializeField(d, v.Field(f.index), f); err != nil {
				return err
			}
		}
	case reflect.Interface:
		x, err := d.DeserializeAny()
		if err != nil {
			return err
		}
		if x == nil {
			v.SetZero()
			return nil
		}
		v.Set(reflect.ValueOf(x))
	default:
		return unsupported(t)
	}

	return nil
}

func deserializeField(d serde.Deserializer, v reflect.Value, f field) error {
	if !f.escaped {
		return deserializeValue(d, v)
	}

	ed, ok := d.(serde.EscapedDeserializer)
	if !ok {
		return fmt.Errorf("%w: %T cannot read escaped sequences", errs.ErrUnsupportedType, d)
	}
	switch {
	case v.Kind() == reflect.String:
		str, err := ed.DeserializeEscapedStr()
		if err != nil {
			return err
		}
		v.SetString(str)
	case isByteSlice(v.Type()):
		b, err := ed.DeserializeEscapedBytes()
		if err != nil {
			return err
		}
		v.SetBytes(b)
	default:
		return fmt.Errorf("%w: %q option on %s field", errs.ErrUnsupportedType, TagEscaped, v.Type())
	}

	return nil
}

func deserializeSlice(d serde.Deserializer, v reflect.Value) error {
	t := v.Type()
	if t.Elem().Kind() == reflect.Uint8 && !implementsEither(t.Elem()) {
		b, err := d.DeserializeBytes()
		if err != nil {
			return err
		}
		if t.Elem() == reflect.TypeFor[byte]() {
			v.SetBytes(b)
			return nil
		}
		out := reflect.MakeSlice(t, len(b), len(b))
		for i, c := range b {
			out.Index(i).SetUint(uint64(c))
		}
		v.Set(out)

		return nil
	}

	n, err := d.DeserializeLen()
	if err != nil {
		return err
	}

	if encodesNothing(t.Elem()) {
		if size := t.Elem().Size(); size > 0 && uint64(n) > maxEmptyElemBytes/uint64(size) {
			return fmt.Errorf("%w: %d elements of %s exceed %d bytes", errs.ErrUnsupportedType, n, t.Elem(), maxEmptyElemBytes)
		}
		v.Set(reflect.MakeSlice(t, n, n))

		return nil
	}
	if err := checkLen(d, n, minWidth(t.Elem())); err != nil {
		return err
	}

	out := reflect.MakeSlice(t, 0, min(n, maxPrealloc))
	for range n {
		elem := reflect.New(t.Elem()).Elem()
		if err := deserializeValue(d, elem); err != nil {
			return err
		}
		out = reflect.Append(out, elem)
	}
	v.Set(out)

	return nil
}

func deserializeMap(d serde.Deserializer, v reflect.Value) error {
	t := v.Type()
	if _, err := keyComparator(t.Key()); err != nil {
		return err
	}

	n, err := d.DeserializeLen()
	if err != nil {
		return err
	}
	if err := checkLen(d, n, minWidth(t.Key())+minWidth(t.Elem())); err != nil {
		return err
	}

	out := reflect.MakeMapWithSize(t, min(n, maxPrealloc))
	for range n {
		key := reflect.New(t.Key()).Elem()
		if err := deserializeValue(d, key); err != nil {
			return err
		}
		if t.Key().Kind() == reflect.Float32 || t.Key().Kind() == reflect.Float64 {
			if math.IsNaN(key.Float()) {
				return fmt.Errorf("%w: NaN map key", errs.ErrUnsupportedMapKey)
			}
		}
		val := reflect.New(t.Elem()).Elem()
		if err := deserializeValue(d, val); err != nil {
			return err
		}
		out.SetMapIndex(key, val)
	}
	v.Set(out)

	return nil
}

// checkLen fails when n elements of at least width bytes each cannot fit in
// the input left in d.
func checkLen(d serde.Deserializer, n, width int) error {
	r, ok := d.(remainder)
	if !ok || width == 0 {
		return nil
	}
	if left := r.Remaining(); n > left/width {
		return fmt.Errorf("%w: %d elements need at least %d bytes each, %d bytes left",
			errs.ErrPrematureEndOfInput, n, width, left)
	}

	return nil
}

// delegates reports whether values of t decode through a Deserializable.
func delegates(t reflect.Type) bool {
	return t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && reflect.PointerTo(t).Implements(deserializableType)
}

// encodesNothing reports whether every value of t has an empty encoding and
// therefore decodes to the zero value without reading input.
func encodesNothing(t reflect.Type) bool {
	if delegates(t) {
		return false
	}

	switch t.Kind() {
	case reflect.Array:
		return t.Len() == 0 || encodesNothing(t.Elem())
	case reflect.Struct:
		if t == uint128Type || t == int128Type {
			return false
		}
		for _, f := range fieldsOf(t) {
			if f.escaped || !encodesNothing(t.Field(f.index).Type) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// minWidth returns the fewest bytes a value of t occupies in an encoding.
// Delegating types report zero since their layout is their own.
func minWidth(t reflect.Type) int {
	if delegates(t) {
		return 0
	}

	switch t {
	case uint128Type, int128Type:
		return 16
	}

	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uintptr, reflect.Float64:
		return 8
	case reflect.String, reflect.Slice, reflect.Map, reflect.Pointer:
		// length varint or option tag
		return 1
	case reflect.Array:
		return t.Len() * minWidth(t.Elem())
	case reflect.Struct:
		w := 0
		for _, f := range fieldsOf(t) {
			w += minWidth(t.Field(f.index).Type)
		}

		return w
	default:
		return 0
	}
}
