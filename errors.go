// Package manifest decodes the MANIFEST file of a RocksDB database: the
// append-only metadata log that records every change to the engine's
// persistent state (data file set, sequence numbers, log pointers, column
// family membership).
//
// The format has two independent layers. The physical layer divides the file
// into fixed 32 KiB blocks, each holding framed, CRC-32C-checksummed record
// fragments; a logical record may be split across any number of fragments
// and blocks. The logical layer encodes each record as an ordered sequence
// of tagged version edits, with a nested variable-length sub-encoding for
// new-file entries. Reader reassembles logical records and decodes them into
// Edit values; State folds an edit stream into a live view of the file set.
//
// The package is strictly read-only: it never writes or repairs a manifest.
package manifest

import "errors"

// Sentinel errors for programmatic handling. Callers can use errors.Is to
// distinguish a torn trailing record (ErrTruncatedRecord, routine on a live
// database) from structural corruption. Framing and tag-level errors abort
// the whole decode: once a record boundary cannot be trusted, nothing after
// it can be either. Checksum mismatches are deliberately absent — they are
// logged and counted, never returned (see Reader.Corruptions).
var (
	ErrUnexpectedEnd          = errors.New("unexpected end of input")
	ErrVarintOverflow         = errors.New("varint exceeds maximum encoded length")
	ErrTruncatedRecord        = errors.New("truncated record")
	ErrUnexpectedMiddle       = errors.New("middle fragment without first")
	ErrInvalidRecordType      = errors.New("invalid record type")
	ErrTruncatedEdit          = errors.New("edit record ends mid-field")
	ErrUnknownTag             = errors.New("unknown edit tag")
	ErrObsoleteTag            = errors.New("obsolete new-file tag")
	ErrMalformedField         = errors.New("malformed field")
	ErrInvalidUTF8            = errors.New("invalid utf-8 in string field")
	ErrUnsupportedCustomField = errors.New("unsupported must-understand custom field")
)
