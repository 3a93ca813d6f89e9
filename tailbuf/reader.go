package tailbuf

import (
	"fmt"

	"github.com/arloliu/ordcode/errs"
)

// Reader consumes a byte region from both ends, mirroring Writer.
type Reader struct {
	buf  []byte
	head int
	tail int
}

// NewReader creates a Reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, tail: len(buf)}
}

func (r *Reader) prematureEnd(n int) error {
	return fmt.Errorf("%w: need %d bytes, %d remaining", errs.ErrPrematureEndOfInput, n, r.tail-r.head)
}

// ReadHead consumes the next n bytes at the head.
// The returned slice aliases the region and must not be modified.
func (r *Reader) ReadHead(n int) ([]byte, error) {
	if n > r.tail-r.head {
		return nil, r.prematureEnd(n)
	}
	s := r.buf[r.head : r.head+n : r.head+n]
	r.head += n

	return s, nil
}

// ReadTail consumes the n bytes immediately before the tail cursor.
// The returned slice aliases the region and must not be modified.
func (r *Reader) ReadTail(n int) ([]byte, error) {
	if n > r.tail-r.head {
		return nil, r.prematureEnd(n)
	}
	r.tail -= n

	return r.buf[r.tail : r.tail+n : r.tail+n], nil
}

// PeekHead returns the unconsumed region without consuming it.
// The returned slice aliases the region and must not be modified.
func (r *Reader) PeekHead() []byte {
	return r.buf[r.head:r.tail:r.tail]
}

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int {
	return r.tail - r.head
}

// IsComplete returns nil if every byte of the region has been consumed.
func (r *Reader) IsComplete() error {
	if r.head != r.tail {
		return fmt.Errorf("%w: %d bytes left unread", errs.ErrBufferUnderflow, r.tail-r.head)
	}

	return nil
}
