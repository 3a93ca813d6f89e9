package primitives

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
)

// Escaped byte sequences carry a terminator instead of a length, so they keep
// lexicographic order at any position of a composite value, not only at the
// end. Every 0x00 of the content is written as 0x00 0xFF and the sequence ends
// with 0x00 0x00. Under descending order every output byte is inverted.
const (
	escMark = 0x00
	escFill = 0xFF
	escTerm = 0x00
)

// EscapedOverhead is the size of the terminator.
const EscapedOverhead = 2

// EscapedSize returns the escaped size of src.
func EscapedSize(src []byte) int {
	return len(src) + bytes.Count(src, []byte{escMark}) + EscapedOverhead
}

// EscapedStringSize returns the escaped size of src.
func EscapedStringSize(src string) int {
	return len(src) + strings.Count(src, "\x00") + EscapedOverhead
}

// PutEscaped writes the escaped form of src into dst and returns the number of
// bytes written. dst must hold at least EscapedSize(src) bytes.
func PutEscaped(dst, src []byte, p params.Params) int {
	return putEscaped(dst, src, p)
}

// PutEscapedString is PutEscaped for a string source.
func PutEscapedString(dst []byte, src string, p params.Params) int {
	return putEscaped(dst, src, p)
}

func putEscaped[T ~string | ~[]byte](dst []byte, src T, p params.Params) int {
	n := 0
	for i := range len(src) {
		c := src[i]
		dst[n] = c
		n++
		if c == escMark {
			dst[n] = escFill
			n++
		}
	}
	dst[n], dst[n+1] = escMark, escTerm
	n += EscapedOverhead

	if p.IsDescending() {
		InvertBuffer(dst[:n])
	}

	return n
}

// Escaped decodes an escaped sequence at the start of src.
//
// It returns a copy of the content and the number of bytes consumed, including
// the terminator. A missing terminator yields errs.ErrPrematureEndOfInput; an
// escape mark followed by anything but a fill or terminator byte yields
// errs.ErrInvalidByteSequenceEscape.
func Escaped(src []byte, p params.Params) ([]byte, int, error) {
	var mask byte
	if p.IsDescending() {
		mask = 0xFF
	}

	end, escapes := -1, 0
	for i := 0; i < len(src) && end < 0; i++ {
		if src[i]^mask != escMark {
			continue
		}
		if i+1 >= len(src) {
			break
		}
		switch src[i+1] ^ mask {
		case escTerm:
			end = i
		case escFill:
			escapes++
			i++
		default:
			return nil, 0, fmt.Errorf("%w: byte 0x%02x after escape mark at offset %d",
				errs.ErrInvalidByteSequenceEscape, src[i+1]^mask, i)
		}
	}
	if end < 0 {
		return nil, 0, fmt.Errorf("%w: unterminated escaped sequence of %d bytes", errs.ErrPrematureEndOfInput, len(src))
	}

	out := make([]byte, 0, end-escapes)
	for i := 0; i < end; i++ {
		c := src[i] ^ mask
		out = append(out, c)
		if c == escMark {
			i++
		}
	}

	return out, end + EscapedOverhead, nil
}
