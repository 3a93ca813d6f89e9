package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/arloliu/ordcode/serde"
)

// record is a schema-driven composite value. A nil entry of an optional
// field is an absent option.
type record struct {
	schema *Schema
	values []any
}

func newRecord(s *Schema, args []string) (*record, error) {
	if len(args) != len(s.Fields) {
		return nil, fmt.Errorf("schema has %d fields, got %d values", len(s.Fields), len(args))
	}

	r := &record{schema: s, values: make([]any, len(args))}
	for i := range s.Fields {
		v, err := s.Fields[i].parse(args[i])
		if err != nil {
			return nil, err
		}
		r.values[i] = v
	}

	return r, nil
}

func (r *record) Serialize(s serde.Serializer) error {
	for i, f := range r.schema.Fields {
		v := r.values[i]
		if f.optional {
			if err := s.SerializeOptionTag(v != nil); err != nil {
				return err
			}
			if v == nil {
				continue
			}
		}
		if err := serializeKind(s, f.kind, v); err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	return nil
}

func (r *record) Deserialize(d serde.Deserializer) error {
	r.values = make([]any, len(r.schema.Fields))
	for i, f := range r.schema.Fields {
		if f.optional {
			present, err := d.DeserializeOptionTag()
			if err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
			if !present {
				continue
			}
		}
		v, err := deserializeKind(d, f.kind)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Name, err)
		}
		r.values[i] = v
	}

	return nil
}

func serializeKind(s serde.Serializer, k kind, v any) error {
	switch k {
	case kindBool:
		return s.SerializeBool(v.(bool))
	case kindU8:
		return s.SerializeU8(v.(uint8))
	case kindU16:
		return s.SerializeU16(v.(uint16))
	case kindU32:
		return s.SerializeU32(v.(uint32))
	case kindU64:
		return s.SerializeU64(v.(uint64))
	case kindI8:
		return s.SerializeI8(v.(int8))
	case kindI16:
		return s.SerializeI16(v.(int16))
	case kindI32:
		return s.SerializeI32(v.(int32))
	case kindI64:
		return s.SerializeI64(v.(int64))
	case kindF32:
		return s.SerializeF32(v.(float32))
	case kindF64:
		return s.SerializeF64(v.(float64))
	case kindChar:
		return s.SerializeChar(v.(rune))
	case kindStr:
		return s.SerializeStr(v.(string))
	case kindBytes:
		return s.SerializeBytes(v.([]byte))
	default:
		return fmt.Errorf("unknown kind %d", k)
	}
}

func deserializeKind(d serde.Deserializer, k kind) (any, error) {
	switch k {
	case kindBool:
		return d.DeserializeBool()
	case kindU8:
		return d.DeserializeU8()
	case kindU16:
		return d.DeserializeU16()
	case kindU32:
		return d.DeserializeU32()
	case kindU64:
		return d.DeserializeU64()
	case kindI8:
		return d.DeserializeI8()
	case kindI16:
		return d.DeserializeI16()
	case kindI32:
		return d.DeserializeI32()
	case kindI64:
		return d.DeserializeI64()
	case kindF32:
		return d.DeserializeF32()
	case kindF64:
		return d.DeserializeF64()
	case kindChar:
		return d.DeserializeChar()
	case kindStr:
		return d.DeserializeStr()
	case kindBytes:
		return d.DeserializeBytes()
	default:
		return nil, fmt.Errorf("unknown kind %d", k)
	}
}

// namedValue is one decoded field in output order.
type namedValue struct {
	Name  string `json:"name" cbor:"name"`
	Value any    `json:"value" cbor:"value"`
}

// named returns the decoded fields for output. Chars are rendered as
// one-character strings. With finiteOnly set, NaN and infinite floats are
// rendered as the strings "NaN", "+Inf" and "-Inf", since JSON has no literal
// for them.
func (r *record) named(finiteOnly bool) []namedValue {
	out := make([]namedValue, len(r.values))
	for i, f := range r.schema.Fields {
		out[i] = namedValue{Name: f.Name, Value: display(f.kind, r.values[i], finiteOnly)}
	}

	return out
}

func display(k kind, v any, finiteOnly bool) any {
	if v == nil {
		return nil
	}

	switch k {
	case kindChar:
		return string(v.(rune))
	case kindF32:
		if f := float64(v.(float32)); finiteOnly && !isFinite(f) {
			return strconv.FormatFloat(f, 'g', -1, 32)
		}
	case kindF64:
		if f := v.(float64); finiteOnly && !isFinite(f) {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	}

	return v
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
