// Package encoding implements the structured traversal of ordcode: the
// Serializer that writes a value into a tailbuf.Writer, the Deserializer
// that reads it back from a tailbuf.Reader, and the SizeCalc that computes
// the exact encoded size without writing anything.
//
// All three implement the serde visitor interfaces, so a serde.Serializable
// value drives them identically:
//
//	size, _ := encoding.CalcSize(value, params.AscendingOrder)
//	buf := make([]byte, size)
//	w := tailbuf.NewWriter(buf)
//	_ = value.Serialize(encoding.NewSerializer(w, params.AscendingOrder))
//	_, _ = w.Finalize()
//
// # Wire layout
//
//	Shape           Head                                  Tail
//	scalar          primitive encoding                    -
//	string, bytes   content                               varint(byte length)
//	option          presence byte (0 absent, 1 present)   -
//	sequence, map   elements (key then value for maps)    varint(element count)
//	tuple, struct   fields in declared order              -
//	enum            varint(discriminant), then payload    -
//
// Varints are written tag byte first and continuation bytes second on
// either end, so a reader learns the length from the first byte it consumes.
// Under descending order every byte written to either end is inverted, which
// is identical to encoding ascending and inverting the whole buffer.
//
// A failure aborts the traversal immediately. The destination is then only
// partially written and must be discarded.
package encoding
