// The new-file sub-encoding: fixed fields plus tagged custom fields.
//
// A new-file edit carries six fixed fields followed by (tag, length-prefixed
// value) pairs up to a terminator tag. Unlike the top level, this tag space
// is open: tags carry a safe-to-ignore bit, so a manifest written by a newer
// engine with custom fields this decoder has never heard of still reads
// cleanly — unless the writer marked the field as must-understand.
package manifest

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Custom field tags of the new-file encoding.
const (
	customTerminate               = 1
	customNeedsCompaction         = 2
	customMinLogNumberToKeepHack  = 3
	customOldestBlobFileNumber    = 4
	customOldestAncestorTime      = 5
	customFileCreationTime        = 6
	customFileChecksum            = 7
	customFileChecksumFuncName    = 8
	customTemperature             = 9
	customMinTimestamp            = 10
	customMaxTimestamp            = 11
	customUniqueID                = 12
	customEpochNumber             = 13
	customCompensatedRangeDelSize = 14
	customTailSize                = 15
	customUDTPersisted            = 16

	// customMustUnderstand marks a tag the writer requires readers to know.
	// A clear bit means the field may be skipped.
	customMustUnderstand = 0x40
)

// InternalKey is a raw engine key: user key plus trailing sequence/type
// suffix. The decoder treats it as opaque bytes.
type InternalKey []byte

// String renders the key as hex followed by a dot-masked ascii view, which
// keeps binary suffixes readable next to textual user keys.
func (k InternalKey) String() string {
	var b strings.Builder
	for _, c := range k {
		fmt.Fprintf(&b, "%02x", c)
	}
	b.WriteByte(' ')
	for _, c := range k {
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// FileMetaData describes one data file added to a level. Optional attributes
// keep their documented defaults when the writer omitted them; pointer and
// slice fields are nil when absent.
type FileMetaData struct {
	Level         uint32      `json:"level"`
	FileNumber    uint64      `json:"file_number"`
	FileSize      uint64      `json:"file_size"`
	SmallestKey   InternalKey `json:"smallest_key"`
	LargestKey    InternalKey `json:"largest_key"`
	SmallestSeqno uint64      `json:"smallest_seqno"`
	LargestSeqno  uint64      `json:"largest_seqno"`

	NeedsCompaction              bool    `json:"needs_compaction,omitempty"`
	MinLogNumberToKeep           *uint64 `json:"min_log_number_to_keep,omitempty"`
	OldestBlobFileNumber         *uint64 `json:"oldest_blob_file_number,omitempty"`
	OldestAncestorTime           uint64  `json:"oldest_ancestor_time,omitempty"`
	FileCreationTime             uint64  `json:"file_creation_time,omitempty"`
	EpochNumber                  uint64  `json:"epoch_number,omitempty"`
	FileChecksum                 string  `json:"file_checksum,omitempty"`
	FileChecksumFuncName         string  `json:"file_checksum_func_name,omitempty"`
	Temperature                  *uint8  `json:"temperature,omitempty"`
	UniqueID                     []byte  `json:"unique_id,omitempty"`
	CompensatedRangeDeletionSize uint64  `json:"compensated_range_deletion_size,omitempty"`
	TailSize                     uint64  `json:"tail_size,omitempty"`

	// Defaults to true when the writer omitted the field.
	UserDefinedTimestampsPersisted bool `json:"user_defined_timestamps_persisted"`

	MinTimestamp []byte `json:"min_timestamp,omitempty"`
	MaxTimestamp []byte `json:"max_timestamp,omitempty"`
}

// decodeFileMeta reads a complete new-file entry from the cursor. The value
// is only returned once the terminator has been seen, so a caller never
// observes a partially decoded file description.
func decodeFileMeta(cur *cursor) (FileMetaData, error) {
	meta := FileMetaData{UserDefinedTimestampsPersisted: true}

	var err error
	if meta.Level, err = cur.readVarint32(); err != nil {
		return meta, err
	}
	if meta.FileNumber, err = cur.readVarint64(); err != nil {
		return meta, err
	}
	if meta.FileSize, err = cur.readVarint64(); err != nil {
		return meta, err
	}
	smallest, err := cur.readSlice()
	if err != nil {
		return meta, err
	}
	largest, err := cur.readSlice()
	if err != nil {
		return meta, err
	}
	meta.SmallestKey = InternalKey(smallest)
	meta.LargestKey = InternalKey(largest)
	if meta.SmallestSeqno, err = cur.readVarint64(); err != nil {
		return meta, err
	}
	if meta.LargestSeqno, err = cur.readVarint64(); err != nil {
		return meta, err
	}

	for {
		tag, err := cur.readVarint32()
		if err != nil {
			return meta, err
		}
		// The terminator stands alone, with no value following it.
		if tag == customTerminate {
			return meta, nil
		}
		value, err := cur.readSlice()
		if err != nil {
			return meta, err
		}

		switch tag {
		case customNeedsCompaction:
			b, err := boolField("needs_compaction", value)
			if err != nil {
				return meta, err
			}
			meta.NeedsCompaction = b
		case customMinLogNumberToKeepHack:
			// The one fixed-width custom field: 8 bytes little-endian.
			if len(value) != 8 {
				return meta, fmt.Errorf("%w: min_log_number_to_keep has %d bytes, want 8",
					ErrMalformedField, len(value))
			}
			n := binary.LittleEndian.Uint64(value)
			meta.MinLogNumberToKeep = &n
		case customOldestBlobFileNumber:
			n, err := varintField(value)
			if err != nil {
				return meta, err
			}
			meta.OldestBlobFileNumber = &n
		case customOldestAncestorTime:
			if meta.OldestAncestorTime, err = varintField(value); err != nil {
				return meta, err
			}
		case customFileCreationTime:
			if meta.FileCreationTime, err = varintField(value); err != nil {
				return meta, err
			}
		case customFileChecksum:
			if !utf8.Valid(value) {
				return meta, ErrInvalidUTF8
			}
			meta.FileChecksum = string(value)
		case customFileChecksumFuncName:
			if !utf8.Valid(value) {
				return meta, ErrInvalidUTF8
			}
			meta.FileChecksumFuncName = string(value)
		case customTemperature:
			if len(value) != 1 {
				return meta, fmt.Errorf("%w: temperature has %d bytes, want 1",
					ErrMalformedField, len(value))
			}
			t := value[0]
			meta.Temperature = &t
		case customMinTimestamp:
			meta.MinTimestamp = value
		case customMaxTimestamp:
			meta.MaxTimestamp = value
		case customUniqueID:
			meta.UniqueID = value
		case customEpochNumber:
			if meta.EpochNumber, err = varintField(value); err != nil {
				return meta, err
			}
		case customCompensatedRangeDelSize:
			if meta.CompensatedRangeDeletionSize, err = varintField(value); err != nil {
				return meta, err
			}
		case customTailSize:
			if meta.TailSize, err = varintField(value); err != nil {
				return meta, err
			}
		case customUDTPersisted:
			b, err := boolField("user_defined_timestamps_persisted", value)
			if err != nil {
				return meta, err
			}
			meta.UserDefinedTimestampsPersisted = b
		default:
			if tag&customMustUnderstand != 0 {
				return meta, fmt.Errorf("%w: %d", ErrUnsupportedCustomField, tag)
			}
			// Safe to ignore: the value is already consumed, move on.
		}
	}
}

// boolField decodes a one-byte flag custom field.
func boolField(name string, value []byte) (bool, error) {
	if len(value) != 1 {
		return false, fmt.Errorf("%w: %s has %d bytes, want 1", ErrMalformedField, name, len(value))
	}
	return value[0] == 1, nil
}

// varintField decodes a varint64 stored inside a length-prefixed value.
func varintField(value []byte) (uint64, error) {
	cur := &cursor{data: value}
	return cur.readVarint64()
}

// String renders the metadata as a braced block, one attribute per line,
// omitting attributes left at their defaults. Unix-second timestamps are
// shown as UTC wall-clock time.
func (m FileMetaData) String() string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  level: %d\n", m.Level)
	fmt.Fprintf(&b, "  file: %d\n", m.FileNumber)
	fmt.Fprintf(&b, "  size: %d\n", m.FileSize)
	fmt.Fprintf(&b, "  smallest_key: %s\n", m.SmallestKey)
	fmt.Fprintf(&b, "  largest_key : %s\n", m.LargestKey)
	fmt.Fprintf(&b, "  seqno: %d..%d\n", m.SmallestSeqno, m.LargestSeqno)

	if m.NeedsCompaction {
		b.WriteString("  needs_compaction: true\n")
	}
	if m.MinLogNumberToKeep != nil {
		fmt.Fprintf(&b, "  min_log_number_to_keep: %d\n", *m.MinLogNumberToKeep)
	}
	if m.OldestBlobFileNumber != nil {
		fmt.Fprintf(&b, "  oldest_blob_file: %d\n", *m.OldestBlobFileNumber)
	}
	if m.OldestAncestorTime != 0 {
		fmt.Fprintf(&b, "  oldest_ancestor_time: %s\n", unixUTC(m.OldestAncestorTime))
	}
	if m.FileCreationTime != 0 {
		fmt.Fprintf(&b, "  file_creation_time: %s\n", unixUTC(m.FileCreationTime))
	}
	if m.EpochNumber != 0 {
		fmt.Fprintf(&b, "  epoch_number: %d\n", m.EpochNumber)
	}
	if m.FileChecksum != "" {
		fmt.Fprintf(&b, "  checksum: %s\n", m.FileChecksum)
		fmt.Fprintf(&b, "  checksum_func: %s\n", m.FileChecksumFuncName)
	}
	if m.Temperature != nil {
		fmt.Fprintf(&b, "  temperature: %d\n", *m.Temperature)
	}
	if len(m.UniqueID) != 0 {
		fmt.Fprintf(&b, "  unique_id: %x\n", m.UniqueID)
	}
	if m.CompensatedRangeDeletionSize != 0 {
		fmt.Fprintf(&b, "  compensated_range_deletion_size: %d\n", m.CompensatedRangeDeletionSize)
	}
	if m.TailSize != 0 {
		fmt.Fprintf(&b, "  tail_size: %d\n", m.TailSize)
	}
	if !m.UserDefinedTimestampsPersisted {
		b.WriteString("  user_defined_timestamps_persisted: false\n")
	}
	if m.MinTimestamp != nil {
		fmt.Fprintf(&b, "  min_timestamp: %x\n", m.MinTimestamp)
	}
	if m.MaxTimestamp != nil {
		fmt.Fprintf(&b, "  max_timestamp: %x\n", m.MaxTimestamp)
	}
	b.WriteString("}")
	return b.String()
}

func unixUTC(sec uint64) string {
	return time.Unix(int64(sec), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}
