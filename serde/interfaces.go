// Package serde defines the visitor contract between structured values and
// the ordcode encoder, decoder and size calculator.
//
// A type plugs into the codec by implementing Serializable and Deserializable,
// calling one visitor method per field in declared order:
//
//	type Key struct {
//		Tenant uint16
//		Name   string
//	}
//
//	func (k *Key) Serialize(s serde.Serializer) error {
//		if err := s.SerializeU16(k.Tenant); err != nil {
//			return err
//		}
//		return s.SerializeStr(k.Name)
//	}
//
//	func (k *Key) Deserialize(d serde.Deserializer) (err error) {
//		if k.Tenant, err = d.DeserializeU16(); err != nil {
//			return err
//		}
//		k.Name, err = d.DeserializeStr()
//		return err
//	}
//
// Sequences and maps announce their element count with SerializeLen before
// the elements; map entries are key then value. Enums call
// SerializeVariantIndex before the payload, options call SerializeOptionTag
// and then serialize the inner value only when present.
//
// No type information or field names are ever written, so the decoder must
// know the expected shape.
package serde

// UnknownLength may be passed to SerializeLen by producers that cannot
// determine their element count upfront. The codec rejects it with
// errs.ErrSerializeSequenceMustHaveLength.
const UnknownLength = -1

type Serializer interface {
	SerializeBool(value bool) error

	SerializeChar(value rune) error

	SerializeU8(value uint8) error

	SerializeU16(value uint16) error

	SerializeU32(value uint32) error

	SerializeU64(value uint64) error

	SerializeU128(value Uint128) error

	SerializeI8(value int8) error

	SerializeI16(value int16) error

	SerializeI32(value int32) error

	SerializeI64(value int64) error

	SerializeI128(value Int128) error

	SerializeF32(value float32) error

	SerializeF64(value float64) error

	SerializeStr(value string) error

	SerializeBytes(value []byte) error

	SerializeUnit(value struct{}) error

	// SerializeOptionTag writes the presence flag of an option.
	SerializeOptionTag(present bool) error

	// SerializeLen announces the element count of a sequence or map.
	SerializeLen(length int) error

	// SerializeVariantIndex writes the discriminant of an enum variant.
	SerializeVariantIndex(index uint32) error
}

type Deserializer interface {
	DeserializeBool() (bool, error)

	DeserializeChar() (rune, error)

	DeserializeU8() (uint8, error)

	DeserializeU16() (uint16, error)

	DeserializeU32() (uint32, error)

	DeserializeU64() (uint64, error)

	DeserializeU128() (Uint128, error)

	DeserializeI8() (int8, error)

	DeserializeI16() (int16, error)

	DeserializeI32() (int32, error)

	DeserializeI64() (int64, error)

	DeserializeI128() (Int128, error)

	DeserializeF32() (float32, error)

	DeserializeF64() (float64, error)

	DeserializeStr() (string, error)

	DeserializeBytes() ([]byte, error)

	DeserializeUnit() (struct{}, error)

	// DeserializeOptionTag reads an option presence flag; only 0 and 1 are valid.
	DeserializeOptionTag() (bool, error)

	// DeserializeLen reads the element count of a sequence or map.
	DeserializeLen() (int, error)

	// DeserializeVariantIndex reads an enum discriminant and checks it is below numVariants.
	DeserializeVariantIndex(numVariants uint32) (uint32, error)

	// DeserializeAny always fails: the format is not self-describing.
	DeserializeAny() (any, error)

	// DeserializeIdentifier always fails: field names are never encoded.
	DeserializeIdentifier() (string, error)

	// DeserializeIgnoredAny always fails: a value cannot be skipped without knowing its shape.
	DeserializeIgnoredAny() error
}

// EscapedSerializer is implemented by serializers that can write a byte
// sequence escaped and terminated in place, with no length metadata. Escaped
// sequences keep lexicographic order at any position of a value, which plain
// strings only do as the last compared field.
type EscapedSerializer interface {
	SerializeEscapedStr(value string) error
	SerializeEscapedBytes(value []byte) error
}

// EscapedDeserializer reads what an EscapedSerializer wrote.
type EscapedDeserializer interface {
	DeserializeEscapedStr() (string, error)
	DeserializeEscapedBytes() ([]byte, error)
}

// Serializable is implemented by types that know how to visit themselves.
type Serializable interface {
	Serialize(s Serializer) error
}

// Deserializable is implemented by types that know how to rebuild themselves.
type Deserializable interface {
	Deserialize(d Deserializer) error
}
