// Package errs defines the sentinel errors returned by ordcode.
//
// Every failure in the codec maps to exactly one of these values. Callers
// should test for a kind with errors.Is; additional context may be wrapped
// around the sentinel with fmt.Errorf("%w: ...") but the kind is never
// translated on the way up.
package errs

import "errors"

// Capacity errors.
var (
	// ErrBufferOverflow is returned when a write does not fit into the destination,
	// i.e. the head and tail cursors would cross.
	ErrBufferOverflow = errors.New("serialized data buffer overflow")
	// ErrBufferUnderflow is returned when an unfilled or unconsumed region remains
	// between the head and tail cursors.
	ErrBufferUnderflow = errors.New("serialized data buffer underflow")
)

// Malformed input errors.
var (
	ErrPrematureEndOfInput       = errors.New("premature end of input")
	ErrInvalidUtf8Encoding       = errors.New("invalid UTF-8 encoding")
	ErrInvalidTagEncoding        = errors.New("invalid encoding for enum tag")
	ErrInvalidVarintEncoding     = errors.New("invalid varint encoding")
	ErrInvalidByteSequenceEscape = errors.New("invalid byte sequence escaping")
)

// Capability mismatch errors.
var (
	ErrSerializeSequenceMustHaveLength   = errors.New("serialized sequence must have length")
	ErrDeserializeAnyNotSupported        = errors.New("deserialize to any type not supported")
	ErrDeserializeIdentifierNotSupported = errors.New("deserialize of identifiers not supported")
	ErrDeserializeIgnoredAny             = errors.New("deserialize of ignored any not supported")
	ErrUnsupportedType                   = errors.New("unsupported type")
	ErrUnsupportedMapKey                 = errors.New("unsupported map key type")
)

// Storage layout errors, returned by the kv catalog.
var (
	ErrNamespaceCollision  = errors.New("namespace overlaps a registered namespace")
	ErrNamespaceRegistered = errors.New("namespace already registered")
	ErrFingerprintMismatch = errors.New("stored codec fingerprint does not match")
)

// ErrCustom is the passthrough kind reserved for user Serializable and
// Deserializable implementations. The codec never returns it on its own.
var ErrCustom = errors.New("custom error")

// Custom wraps msg into an ErrCustom error.
func Custom(msg string) error {
	return &customError{msg: msg}
}

type customError struct {
	msg string
}

func (e *customError) Error() string {
	return ErrCustom.Error() + ": " + e.msg
}

func (e *customError) Unwrap() error {
	return ErrCustom
}
