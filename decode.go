// Low-level decoding primitives for the logical record format.
//
// All logical content — edit tags, numeric fields, keys, custom sub-fields —
// is built from two encodings: little-endian base-128 varints and
// varint-length-prefixed byte slices. A cursor tracks the read position
// within one reassembled record payload; every primitive fails with
// ErrUnexpectedEnd when the payload runs out mid-value.
package manifest

// Maximum encoded lengths for varints. A 32-bit value needs at most 5
// continuation bytes, a 64-bit value at most 10. Longer encodings are
// rejected with ErrVarintOverflow instead of silently wrapping, matching
// the convention of encoding/binary's Uvarint.
const (
	maxVarint32Len = 5
	maxVarint64Len = 10
)

// cursor is a read position within a single logical record payload. The
// payload slice is never modified; sub-slices returned by readSlice alias it
// and remain valid for the lifetime of the decoded edits.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

func (c *cursor) done() bool {
	return c.pos >= len(c.data)
}

func (c *cursor) readByte() (byte, error) {
	if c.pos >= len(c.data) {
		return 0, ErrUnexpectedEnd
	}
	b := c.data[c.pos]
	c.pos++
	return b, nil
}

// readVarint32 decodes a little-endian base-128 varint: 7 value bits per
// byte, continuation flag in the high bit.
func (c *cursor) readVarint32() (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < maxVarint32Len; i++ {
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrVarintOverflow
}

func (c *cursor) readVarint64() (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxVarint64Len; i++ {
		b, err := c.readByte()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, ErrVarintOverflow
}

// readSlice reads a varint32 length followed by that many bytes. The
// returned slice aliases the payload.
func (c *cursor) readSlice() ([]byte, error) {
	n, err := c.readVarint32()
	if err != nil {
		return nil, err
	}
	if uint32(c.remaining()) < n {
		return nil, ErrUnexpectedEnd
	}
	s := c.data[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return s, nil
}
