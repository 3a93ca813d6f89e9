// Package pool recycles encoding buffers between calls.
//
// Buffers come in two size classes: keys, which are small and frequent, and
// values, which may be large. Acquire picks the class from the requested size.
package pool

import (
	"sync"
)

// Size classes of pooled buffers.
const (
	KeyBufferDefaultSize    = 256         // 256B
	KeyBufferMaxThreshold   = 1024 * 64   // 64KiB
	ValueBufferDefaultSize  = 1024 * 4    // 4KiB
	ValueBufferMaxThreshold = 1024 * 1024 // 1MiB
)

// ByteBuffer is a pooled byte slice.
type ByteBuffer struct {
	B []byte

	owner *ByteBufferPool
}

// NewByteBuffer creates an unpooled ByteBuffer with the given capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the underlying slice.
func (bb *ByteBuffer) Bytes() []byte { return bb.B }

// Reset empties the buffer and keeps its storage.
func (bb *ByteBuffer) Reset() { bb.B = bb.B[:0] }

// Resize sets the length of the buffer to exactly n bytes.
//
// When the capacity is too small a new backing array of exactly n bytes
// replaces the old one and existing content is lost. Resize never
// over-allocates, so a buffer sized from an exact size calculation is never
// reallocated while being filled.
func (bb *ByteBuffer) Resize(n int) {
	if n < 0 {
		panic("pool: negative buffer length")
	}
	if cap(bb.B) < n {
		bb.B = make([]byte, n)
		return
	}
	bb.B = bb.B[:n]
}

// ByteBufferPool is a sync.Pool of ByteBuffers.
//
// Buffers that grew past maxThreshold are dropped on Put instead of being
// retained.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a pool handing out buffers of defaultSize capacity.
// A maxThreshold of zero retains buffers of any size.
func NewByteBufferPool(defaultSize, maxThreshold int) *ByteBufferPool {
	p := &ByteBufferPool{maxThreshold: maxThreshold}
	p.pool.New = func() any {
		bb := NewByteBuffer(defaultSize)
		bb.owner = p

		return bb
	}

	return p
}

// Get returns an empty buffer.
func (p *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	return bb
}

// Put hands bb back for reuse.
func (p *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}
	if p.maxThreshold > 0 && cap(bb.B) > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}

var (
	keyPool   = NewByteBufferPool(KeyBufferDefaultSize, KeyBufferMaxThreshold)
	valuePool = NewByteBufferPool(ValueBufferDefaultSize, ValueBufferMaxThreshold)
)

// Acquire returns a pooled buffer resized to exactly size bytes, drawn from
// the key class when size fits a key buffer and from the value class otherwise.
func Acquire(size int) *ByteBuffer {
	p := valuePool
	if size <= KeyBufferDefaultSize {
		p = keyPool
	}

	bb := p.Get()
	bb.Resize(size)

	return bb
}

// Release returns a buffer obtained from Acquire to its class.
// Buffers not created by a pool are ignored.
func Release(bb *ByteBuffer) {
	if bb == nil || bb.owner == nil {
		return
	}
	bb.owner.Put(bb)
}
