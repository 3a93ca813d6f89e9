package tailbuf

import (
	"fmt"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/internal/pool"
)

// Writer fills a caller-owned byte region from both ends.
type Writer struct {
	buf  []byte
	head int
	tail int
}

// NewWriter creates a Writer over buf. buf is borrowed, not copied.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf, tail: len(buf)}
}

func (w *Writer) overflow(n int) error {
	return fmt.Errorf("%w: need %d bytes, %d available", errs.ErrBufferOverflow, n, w.tail-w.head)
}

// AllocHead reserves the next n bytes at the head and returns them for writing.
func (w *Writer) AllocHead(n int) ([]byte, error) {
	if n > w.tail-w.head {
		return nil, w.overflow(n)
	}
	s := w.buf[w.head : w.head+n : w.head+n]
	w.head += n

	return s, nil
}

// AllocTail reserves n bytes immediately before the tail cursor and returns them for writing.
func (w *Writer) AllocTail(n int) ([]byte, error) {
	if n > w.tail-w.head {
		return nil, w.overflow(n)
	}
	w.tail -= n

	return w.buf[w.tail : w.tail+n : w.tail+n], nil
}

// WriteHead appends p at the head.
func (w *Writer) WriteHead(p []byte) error {
	dst, err := w.AllocHead(len(p))
	if err != nil {
		return err
	}
	copy(dst, p)

	return nil
}

// WriteTail writes p immediately before the tail cursor.
func (w *Writer) WriteTail(p []byte) error {
	dst, err := w.AllocTail(len(p))
	if err != nil {
		return err
	}
	copy(dst, p)

	return nil
}

// Head returns the head cursor position.
func (w *Writer) Head() int {
	return w.head
}

// Tail returns the tail cursor position.
func (w *Writer) Tail() int {
	return w.tail
}

// Len returns the total length of the region.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Remaining returns the number of unwritten bytes between the cursors.
func (w *Writer) Remaining() int {
	return w.tail - w.head
}

// IsComplete returns nil if every byte of the region has been written.
func (w *Writer) IsComplete() error {
	switch {
	case w.head == w.tail:
		return nil
	case w.head > w.tail:
		return fmt.Errorf("%w: cursors crossed (head %d, tail %d)", errs.ErrBufferOverflow, w.head, w.tail)
	default:
		return fmt.Errorf("%w: %d bytes left unwritten", errs.ErrBufferUnderflow, w.tail-w.head)
	}
}

// Finalize checks that the region is exactly filled and returns its length.
func (w *Writer) Finalize() (int, error) {
	if err := w.IsComplete(); err != nil {
		return 0, err
	}

	return len(w.buf), nil
}

// Compact moves the tail region down so it directly follows the head region
// and returns the number of bytes used.
//
// It supports destinations larger than the encoded value: the result is
// buf[:n]. The writer must not be written to afterwards.
func (w *Writer) Compact() int {
	tailLen := len(w.buf) - w.tail
	if w.head != w.tail {
		copy(w.buf[w.head:], w.buf[w.tail:])
	}
	n := w.head + tailLen
	w.buf = w.buf[:n]
	w.tail = w.head

	return n
}

// Bytes returns the underlying region.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// OwnedWriter is a Writer over pooled storage reserved to an exact size upfront.
//
// The storage never grows during a pass, so the size passed to NewOwnedWriter
// must come from an exact size calculation. Release returns the storage to
// the pool; the bytes must not be used afterwards.
type OwnedWriter struct {
	Writer
	bb *pool.ByteBuffer
}

// NewOwnedWriter creates a writer over a pooled buffer of exactly size bytes.
func NewOwnedWriter(size int) *OwnedWriter {
	bb := pool.Acquire(size)

	return &OwnedWriter{
		Writer: Writer{buf: bb.Bytes(), tail: size},
		bb:     bb,
	}
}

// Release returns the storage to its pool.
func (w *OwnedWriter) Release() {
	if w.bb == nil {
		return
	}
	pool.Release(w.bb)
	w.bb = nil
	w.buf = nil
	w.head, w.tail = 0, 0
}
