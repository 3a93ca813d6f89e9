// Package params defines the immutable configuration value threaded through
// every ordcode operation.
//
// A Params value selects the byte order of fixed-width scalars and the
// lexicographic order of the produced bytes. It is a small comparable value
// and is passed by value everywhere; there is no global configuration.
//
// The zero value is AscendingOrder.
package params

import (
	"fmt"
	"strings"

	"github.com/arloliu/ordcode/internal/hash"
)

// FormatVersion is the version of the data encoding format produced for every preset.
//
// The version is not embedded in encoded data. Both sides must agree on the
// (FormatVersion, Params) pairing out of band, e.g. by storing Fingerprint
// next to the data.
const FormatVersion uint32 = 1

type (
	Endianness uint8
	Order      uint8
)

const (
	BigEndian    Endianness = iota // BigEndian encodes scalars most significant byte first.
	LittleEndian                   // LittleEndian encodes scalars least significant byte first.
	NativeEndian                   // NativeEndian uses the host byte order; not portable.
)

const (
	Ascending  Order = iota // Ascending: byte order of outputs matches value order.
	Descending              // Descending: byte order of outputs is the reverse of value order.
	Unordered               // Unordered: no ordering promise.
)

// Params describes how values are laid out on the wire.
type Params struct {
	Endianness Endianness
	Order      Order
}

// Presets.
var (
	// AscendingOrder is order-preserving: big-endian scalars, ascending order.
	AscendingOrder = Params{Endianness: BigEndian, Order: Ascending}
	// DescendingOrder is AscendingOrder with every output byte inverted.
	DescendingOrder = Params{Endianness: BigEndian, Order: Descending}
	// PortableBinary is a fixed little-endian layout without ordering promises.
	PortableBinary = Params{Endianness: LittleEndian, Order: Unordered}
	// NativeBinary is the fastest, non-portable layout using host byte order.
	NativeBinary = Params{Endianness: NativeEndian, Order: Unordered}
)

// IsDescending reports whether output bytes are inverted.
func (p Params) IsDescending() bool {
	return p.Order == Descending
}

// WithOrder returns a copy of p using order o.
func (p Params) WithOrder(o Order) Params {
	p.Order = o
	return p
}

// Ascending returns p with descending order replaced by ascending order.
//
// It is used by the fast paths that serialize ascending and invert the whole buffer.
func (p Params) Ascending() Params {
	if p.Order == Descending {
		p.Order = Ascending
	}

	return p
}

// Validate checks that p holds known enum values.
func (p Params) Validate() error {
	switch p.Endianness {
	case BigEndian, LittleEndian, NativeEndian:
	default:
		return fmt.Errorf("invalid endianness: %d", p.Endianness)
	}

	switch p.Order {
	case Ascending, Descending, Unordered:
	default:
		return fmt.Errorf("invalid order: %d", p.Order)
	}

	return nil
}

// Fingerprint returns a stable 64-bit identifier of the (FormatVersion, Params) pairing.
func (p Params) Fingerprint() uint64 {
	return hash.ID("ordcode", fmt.Sprintf("v%d", FormatVersion), p.Endianness.String(), p.Order.String())
}

func (p Params) String() string {
	return p.Endianness.String() + "/" + p.Order.String()
}

func (e Endianness) String() string {
	switch e {
	case BigEndian:
		return "Big"
	case LittleEndian:
		return "Little"
	case NativeEndian:
		return "Native"
	default:
		return "Unknown"
	}
}

func (o Order) String() string {
	switch o {
	case Ascending:
		return "Ascending"
	case Descending:
		return "Descending"
	case Unordered:
		return "Unordered"
	default:
		return "Unknown"
	}
}

// Preset returns the preset registered under name.
//
// Accepted names are "asc", "desc", "portable" and "native" (case-insensitive),
// plus the long forms "ascending" and "descending".
func Preset(name string) (Params, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "asc", "ascending", "":
		return AscendingOrder, nil
	case "desc", "descending":
		return DescendingOrder, nil
	case "portable":
		return PortableBinary, nil
	case "native":
		return NativeBinary, nil
	default:
		return Params{}, fmt.Errorf("unknown preset: %q", name)
	}
}
