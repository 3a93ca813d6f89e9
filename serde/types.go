package serde

import (
	"fmt"
	"math/big"
)

// Uint128 is an unsigned 128-bit integer High<<64 | Low.
type Uint128 struct {
	High uint64
	Low  uint64
}

// Int128 is a signed 128-bit two's complement integer High<<64 | Low.
type Int128 struct {
	High int64
	Low  uint64
}

// Cmp compares u and v, returning -1, 0 or +1.
func (u Uint128) Cmp(v Uint128) int {
	switch {
	case u.High < v.High:
		return -1
	case u.High > v.High:
		return 1
	case u.Low < v.Low:
		return -1
	case u.Low > v.Low:
		return 1
	default:
		return 0
	}
}

// Big returns u as a big.Int.
func (u Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(u.High)
	b.Lsh(b, 64)

	return b.Or(b, new(big.Int).SetUint64(u.Low))
}

func (u Uint128) String() string {
	return u.Big().String()
}

// Cmp compares i and j, returning -1, 0 or +1.
func (i Int128) Cmp(j Int128) int {
	switch {
	case i.High < j.High:
		return -1
	case i.High > j.High:
		return 1
	case i.Low < j.Low:
		return -1
	case i.Low > j.Low:
		return 1
	default:
		return 0
	}
}

// Big returns i as a big.Int.
func (i Int128) Big() *big.Int {
	b := big.NewInt(i.High)
	b.Lsh(b, 64)

	return b.Add(b, new(big.Int).SetUint64(i.Low))
}

func (i Int128) String() string {
	return i.Big().String()
}

// Int128FromInt64 sign-extends v to 128 bits.
func Int128FromInt64(v int64) Int128 {
	return Int128{High: v >> 63, Low: uint64(v)} //nolint:gosec
}

// ParseUint128 parses a decimal string into a Uint128.
func ParseUint128(s string) (Uint128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 || b.BitLen() > 128 {
		return Uint128{}, fmt.Errorf("invalid uint128: %q", s)
	}
	lo := new(big.Int).And(b, new(big.Int).SetUint64(^uint64(0)))

	return Uint128{High: new(big.Int).Rsh(b, 64).Uint64(), Low: lo.Uint64()}, nil
}
