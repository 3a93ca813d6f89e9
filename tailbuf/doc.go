// Package tailbuf implements the double-ended byte buffer behind ordcode.
//
// A buffer is one fixed-length byte region with two cursors. The head cursor
// starts at 0 and moves forward; it receives fixed content (scalars, string
// bytes). The tail cursor starts at the end of the region and moves backward;
// it receives variable-length metadata (lengths, element counts).
//
//	+---------------------------+----------------+---------------------------+
//	| head writes  ------------> |    (free)      | <------------ tail writes |
//	+---------------------------+----------------+---------------------------+
//	0                          head             tail                     len
//
// A tail write of p places p immediately before the tail cursor, so the first
// tail write occupies the highest addresses. The bytes within one write keep
// their order. Readers consume the head and tail in the same temporal order
// the writer produced them, which makes field boundaries unambiguous without
// any in-band escaping.
//
// A write that would make the cursors cross fails with errs.ErrBufferOverflow
// and leaves the buffer unchanged. A writer is complete when head == tail;
// Finalize reports errs.ErrBufferUnderflow otherwise.
//
// Writer and Reader are not safe for concurrent use.
package tailbuf
