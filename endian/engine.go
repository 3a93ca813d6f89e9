// Package endian maps ordcode byte-order choices onto encoding/binary.
//
// Engines are stateless and safe for concurrent use. Native resolves once, at
// package init, to either binary.BigEndian or binary.LittleEndian so engines
// stay comparable.
//
//	endian.GetEngine(params.BigEndian).PutUint32(dst, 42)
package endian

import (
	"encoding/binary"
	"unsafe"

	"github.com/arloliu/ordcode/params"
)

// Engine combines binary.ByteOrder and binary.AppendByteOrder.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

var native = detect()

func detect() Engine {
	// 0x0100: a little-endian host stores the low byte (0x00) first.
	var i uint16 = 0x0100
	if (*[2]byte)(unsafe.Pointer(&i))[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Native returns the engine matching the host byte order.
func Native() Engine { return native }

// NativeIsBig reports whether the host is big-endian.
func NativeIsBig() bool { return native == binary.BigEndian }

// GetEngine returns the engine for e.
// Unknown values fall back to big-endian, the order-preserving layout.
func GetEngine(e params.Endianness) Engine {
	switch e {
	case params.LittleEndian:
		return binary.LittleEndian
	case params.NativeEndian:
		return native
	default:
		return binary.BigEndian
	}
}

// IsBig reports whether e resolves to big-endian on this host.
func IsBig(e params.Endianness) bool {
	return GetEngine(e) == binary.BigEndian
}
