// Physical framing: blocks, fragments, and logical record reassembly.
//
// The file is a sequence of fixed-size blocks. Records never span a block's
// final 6 bytes — a remainder too small for a header is trailer padding.
// Each fragment starts with a 7-byte header (checksum, length, type); a
// logical record is either one Full fragment or a First…Middle*…Last run
// whose payloads concatenate to the record. The reader tracks its own byte
// offset instead of seeking so that it works over any io.Reader, including
// the decompressing readers used for archived manifests.
package manifest

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// BlockSize is the fixed physical block size of a manifest file.
const BlockSize = 32 * 1024

// HeaderSize is the size of a fragment header: 4-byte checksum (LE),
// 2-byte payload length (LE), 1-byte type.
const HeaderSize = 7

// Fragment types. Zero marks padding in preallocated regions and is never a
// valid fragment on its own.
const (
	typeZero   = 0
	typeFull   = 1
	typeFirst  = 2
	typeMiddle = 3
	typeLast   = 4
)

// Reader decodes logical records from a manifest, one call to Next per
// record. A Reader owns its position and reassembly state exclusively; to
// read concurrently, give each goroutine its own Reader over its own handle.
type Reader struct {
	r   *bufio.Reader
	src io.Closer // non-nil when the Reader owns the underlying file

	pos         int64
	corruptions int
	log         zerolog.Logger
}

// NewReader decodes a manifest from r, which must be positioned at the
// start of the file.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:   bufio.NewReader(r),
		log: zerolog.Nop(),
	}
}

// WithLogger sets the logger used for checksum diagnostics and returns the
// Reader for chaining.
func (r *Reader) WithLogger(log zerolog.Logger) *Reader {
	r.log = log
	return r
}

// Offset returns the number of manifest bytes consumed so far. After a Next
// call it points just past the last fragment of the returned record, so the
// delta between calls is the record's physical extent.
func (r *Reader) Offset() int64 {
	return r.pos
}

// Corruptions returns the number of fragments whose checksum did not verify.
// Mismatches are advisory: a manifest's tail is routinely incomplete on a
// live database, so decoding continues past them.
func (r *Reader) Corruptions() int {
	return r.corruptions
}

// Close closes the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.src == nil {
		return nil
	}
	return r.src.Close()
}

// Next returns the edits of the next logical record, or io.EOF at a clean
// end of the log. Structural errors (truncated payload, orphan fragment,
// undecodable edit) are fatal for the whole file: record boundaries cannot
// be trusted past the failure.
func (r *Reader) Next() ([]Edit, error) {
	payload, err := r.nextPayload()
	if err != nil {
		return nil, err
	}
	return decodeEdits(payload)
}

// nextPayload reassembles one logical record's payload from consecutive
// fragments. Exactly one payload is produced per Full fragment or completed
// First…Last run; no fragment is attributed to two payloads.
func (r *Reader) nextPayload() ([]byte, error) {
	var acc []byte
	open := false // a First fragment has been seen and not yet closed
	for {
		// A block remainder too small for a header is trailer padding.
		if rem := BlockSize - r.pos%BlockSize; rem < HeaderSize {
			if err := r.skip(rem); err != nil {
				return nil, io.EOF
			}
		}

		var header [HeaderSize]byte
		n, err := io.ReadFull(r.r, header[:])
		r.pos += int64(n)
		if err != nil {
			// End of file at a header boundary is the normal end of the
			// log. A partial header is a torn trailing write, which is
			// equally routine on a live database.
			return nil, io.EOF
		}

		stored := binary.LittleEndian.Uint32(header[0:4])
		length := int(binary.LittleEndian.Uint16(header[4:6]))
		typ := header[6]

		// An all-zero header is intra-block padding: the rest of the block
		// was zero-filled at preallocation. Resume at the next boundary.
		if stored == 0 && length == 0 && typ == typeZero {
			if rem := r.pos % BlockSize; rem != 0 {
				if err := r.skip(BlockSize - rem); err != nil {
					return nil, io.EOF
				}
			}
			continue
		}

		payload := make([]byte, length)
		n, err = io.ReadFull(r.r, payload)
		r.pos += int64(n)
		if err != nil {
			return nil, fmt.Errorf("%w: %d of %d payload bytes at offset %d",
				ErrTruncatedRecord, n, length, r.pos)
		}

		if got, want := checksum(typ, payload), unmaskCRC(stored); got != want {
			r.corruptions++
			r.log.Warn().
				Int64("offset", r.pos).
				Int("length", length).
				Uint32("stored", want).
				Uint32("computed", got).
				Msg("fragment checksum mismatch")
		}

		switch typ {
		case typeFull:
			return payload, nil
		case typeFirst:
			acc = payload
			open = true
		case typeMiddle:
			if !open {
				return nil, fmt.Errorf("%w at offset %d", ErrUnexpectedMiddle, r.pos)
			}
			acc = append(acc, payload...)
		case typeLast:
			return append(acc, payload...), nil
		default:
			return nil, fmt.Errorf("%w: %d at offset %d", ErrInvalidRecordType, typ, r.pos)
		}
	}
}

// skip consumes n bytes, failing only on a short read before EOF semantics
// matter to the caller (both padding call sites treat failure as clean EOF).
func (r *Reader) skip(n int64) error {
	m, err := io.CopyN(io.Discard, r.r, n)
	r.pos += m
	return err
}
