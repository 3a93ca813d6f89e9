package ordcode

import (
	"fmt"

	"github.com/arloliu/ordcode/internal/options"
	"github.com/arloliu/ordcode/params"
)

// Codec binds a fixed params.Params to the package-level operations.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	params params.Params
}

// Option configures a Codec.
type Option = options.Option[*Codec]

// NewCodec creates a Codec. Without options it uses params.AscendingOrder.
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{params: params.AscendingOrder}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}
	if err := c.params.Validate(); err != nil {
		return nil, fmt.Errorf("ordcode: %w", err)
	}

	return c, nil
}

// WithParams replaces the whole configuration.
func WithParams(p params.Params) Option {
	return options.NoError(func(c *Codec) {
		c.params = p
	})
}

// WithPreset selects a named preset: "asc", "desc", "portable" or "native".
func WithPreset(name string) Option {
	return options.New(func(c *Codec) error {
		p, err := params.Preset(name)
		if err != nil {
			return err
		}
		c.params = p

		return nil
	})
}

// WithOrder sets the sort order.
func WithOrder(o params.Order) Option {
	return options.NoError(func(c *Codec) {
		c.params.Order = o
	})
}

// WithDescending sets descending order.
func WithDescending() Option {
	return WithOrder(params.Descending)
}

// WithEndianness sets the byte order of multi-byte scalars.
func WithEndianness(e params.Endianness) Option {
	return options.NoError(func(c *Codec) {
		c.params.Endianness = e
	})
}

// WithBigEndian selects big-endian scalars, the only layout that preserves order.
func WithBigEndian() Option {
	return WithEndianness(params.BigEndian)
}

// WithLittleEndian selects little-endian scalars.
func WithLittleEndian() Option {
	return WithEndianness(params.LittleEndian)
}

// WithNativeEndian selects the host byte order. Encodings are not portable
// across architectures.
func WithNativeEndian() Option {
	return WithEndianness(params.NativeEndian)
}

// Params returns the codec configuration.
func (c *Codec) Params() params.Params {
	return c.params
}

// Fingerprint identifies the codec's wire format; see params.Params.Fingerprint.
func (c *Codec) Fingerprint() uint64 {
	return c.params.Fingerprint()
}

// Size returns the exact encoded size of v.
func (c *Codec) Size(v any) (int, error) {
	return CalcSize(v, c.params)
}

// Marshal encodes v into a new slice.
func (c *Codec) Marshal(v any) ([]byte, error) {
	return MarshalOrdered(v, c.params)
}

// Append appends the encoding of v to dst.
func (c *Codec) Append(dst []byte, v any) ([]byte, error) {
	return AppendOrdered(dst, v, c.params)
}

// MarshalTo encodes v into buf, which may be larger than needed, and returns
// the number of bytes used.
func (c *Codec) MarshalTo(buf []byte, v any) (int, error) {
	return SerializeToBuf(buf, v, c.params)
}

// WithEncoded encodes v into pooled storage and passes it to fn.
func (c *Codec) WithEncoded(v any, fn func(encoded []byte) error) error {
	return WithEncoded(v, c.params, fn)
}

// Unmarshal decodes data into v without modifying data.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return UnmarshalReadOnly(data, v, c.params)
}
