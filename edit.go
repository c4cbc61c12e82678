// Logical decoding: version edit tags and the top-level tag switch.
//
// A logical record is a concatenation of tagged edits, decoded strictly in
// encoded order. The tag space is closed at this level: an unrecognized tag
// is fatal, because without knowing a field's shape the cursor cannot skip
// it. Three historical new-file encodings are recognized only to be rejected
// with a distinct error, which makes very old manifests diagnosable.
package manifest

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Top-level edit tags as stored on disk.
const (
	TagComparator         = 1
	TagLogNumber          = 2
	TagNextFileNumber     = 3
	TagLastSequence       = 4
	TagCompactCursor      = 5
	TagDeletedFile        = 6
	TagNewFile            = 7 // obsolete, LevelDB-era
	TagPrevLogNumber      = 9
	TagMinLogNumberToKeep = 10
	TagNewFile2           = 100 // obsolete
	TagNewFile3           = 102 // obsolete
	TagNewFile4           = 103 // current new-file encoding
	TagColumnFamily       = 200
	TagColumnFamilyAdd    = 201
	TagColumnFamilyDrop   = 202
	TagMaxColumnFamily    = 203
)

// Edit is one decoded state-change operation. The set of implementations is
// closed; consumers dispatch with a type switch.
type Edit interface {
	fmt.Stringer
	edit()
}

type (
	// Comparator records the key comparator name the database was created with.
	Comparator struct{ Name string }
	// LogNumber sets the current write-ahead log number.
	LogNumber struct{ Number uint64 }
	// NextFileNumber sets the next file number to allocate.
	NextFileNumber struct{ Number uint64 }
	// LastSequence records the highest sequence number in the database.
	LastSequence struct{ Sequence uint64 }
	// PrevLogNumber is a legacy pointer to the previous write-ahead log.
	PrevLogNumber struct{ Number uint64 }
	// MinLogNumberToKeep lifts the floor below which logs may be deleted.
	MinLogNumberToKeep struct{ Number uint64 }
	// NewFile adds a data file to a level.
	NewFile struct{ Meta FileMetaData }
	// DeletedFile removes a data file from a level.
	DeletedFile struct {
		Level      uint32
		FileNumber uint64
	}
	// CompactCursor records the round-robin compaction position of a level.
	CompactCursor struct {
		Level uint32
		Key   InternalKey
	}
	// ColumnFamilyID scopes the record's edits to a column family.
	ColumnFamilyID struct{ ID uint32 }
	// ColumnFamilyAdd creates a column family.
	ColumnFamilyAdd struct{ Name string }
	// ColumnFamilyDrop drops the column family the record is scoped to.
	ColumnFamilyDrop struct{}
	// MaxColumnFamily records the highest column family ID ever allocated.
	MaxColumnFamily struct{ ID uint32 }
)

func (Comparator) edit()         {}
func (LogNumber) edit()          {}
func (NextFileNumber) edit()     {}
func (LastSequence) edit()       {}
func (PrevLogNumber) edit()      {}
func (MinLogNumberToKeep) edit() {}
func (NewFile) edit()            {}
func (DeletedFile) edit()        {}
func (CompactCursor) edit()      {}
func (ColumnFamilyID) edit()     {}
func (ColumnFamilyAdd) edit()    {}
func (ColumnFamilyDrop) edit()   {}
func (MaxColumnFamily) edit()    {}

func (e Comparator) String() string     { return fmt.Sprintf("Comparator: %s", e.Name) }
func (e LogNumber) String() string      { return fmt.Sprintf("LogNumber: %d", e.Number) }
func (e NextFileNumber) String() string { return fmt.Sprintf("NextFileNumber: %d", e.Number) }
func (e LastSequence) String() string   { return fmt.Sprintf("LastSequence: %d", e.Sequence) }
func (e PrevLogNumber) String() string  { return fmt.Sprintf("PrevLogNumber: %d", e.Number) }
func (e MinLogNumberToKeep) String() string {
	return fmt.Sprintf("MinLogNumberToKeep: %d", e.Number)
}
func (e NewFile) String() string { return fmt.Sprintf("NewFile {\n%s}", e.Meta) }
func (e DeletedFile) String() string {
	return fmt.Sprintf("DeletedFile: level %d file %d", e.Level, e.FileNumber)
}
func (e CompactCursor) String() string {
	return fmt.Sprintf("CompactCursor: level %d key %s", e.Level, e.Key)
}
func (e ColumnFamilyID) String() string  { return fmt.Sprintf("ColumnFamily: %d", e.ID) }
func (e ColumnFamilyAdd) String() string { return fmt.Sprintf("ColumnFamilyAdd: %s", e.Name) }
func (ColumnFamilyDrop) String() string  { return "ColumnFamilyDrop" }
func (e MaxColumnFamily) String() string { return fmt.Sprintf("MaxColumnFamily: %d", e.ID) }

// decodeEdits interprets one logical record payload as an ordered edit
// sequence. The loop ends exactly at the payload boundary; a field that runs
// past it surfaces as ErrTruncatedEdit.
func decodeEdits(payload []byte) ([]Edit, error) {
	cur := &cursor{data: payload}
	var edits []Edit
	for !cur.done() {
		tag, err := cur.readVarint32()
		if err != nil {
			return nil, truncated(err)
		}
		var e Edit
		switch tag {
		case TagComparator:
			name, err := decodeString(cur)
			if err != nil {
				return nil, truncated(err)
			}
			e = Comparator{Name: name}
		case TagLogNumber:
			n, err := cur.readVarint64()
			if err != nil {
				return nil, truncated(err)
			}
			e = LogNumber{Number: n}
		case TagNextFileNumber:
			n, err := cur.readVarint64()
			if err != nil {
				return nil, truncated(err)
			}
			e = NextFileNumber{Number: n}
		case TagLastSequence:
			n, err := cur.readVarint64()
			if err != nil {
				return nil, truncated(err)
			}
			e = LastSequence{Sequence: n}
		case TagCompactCursor:
			level, err := cur.readVarint32()
			if err != nil {
				return nil, truncated(err)
			}
			key, err := cur.readSlice()
			if err != nil {
				return nil, truncated(err)
			}
			e = CompactCursor{Level: level, Key: InternalKey(key)}
		case TagDeletedFile:
			level, err := cur.readVarint32()
			if err != nil {
				return nil, truncated(err)
			}
			number, err := cur.readVarint64()
			if err != nil {
				return nil, truncated(err)
			}
			e = DeletedFile{Level: level, FileNumber: number}
		case TagNewFile, TagNewFile2, TagNewFile3:
			return nil, fmt.Errorf("%w: %d", ErrObsoleteTag, tag)
		case TagNewFile4:
			meta, err := decodeFileMeta(cur)
			if err != nil {
				return nil, truncated(err)
			}
			e = NewFile{Meta: meta}
		case TagPrevLogNumber:
			n, err := cur.readVarint64()
			if err != nil {
				return nil, truncated(err)
			}
			e = PrevLogNumber{Number: n}
		case TagMinLogNumberToKeep:
			n, err := cur.readVarint64()
			if err != nil {
				return nil, truncated(err)
			}
			e = MinLogNumberToKeep{Number: n}
		case TagColumnFamily:
			id, err := cur.readVarint32()
			if err != nil {
				return nil, truncated(err)
			}
			e = ColumnFamilyID{ID: id}
		case TagColumnFamilyAdd:
			name, err := decodeString(cur)
			if err != nil {
				return nil, truncated(err)
			}
			e = ColumnFamilyAdd{Name: name}
		case TagColumnFamilyDrop:
			e = ColumnFamilyDrop{}
		case TagMaxColumnFamily:
			id, err := cur.readVarint32()
			if err != nil {
				return nil, truncated(err)
			}
			e = MaxColumnFamily{ID: id}
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnknownTag, tag)
		}
		edits = append(edits, e)
	}
	return edits, nil
}

// decodeString reads a length-prefixed field that must be valid UTF-8.
func decodeString(cur *cursor) (string, error) {
	data, err := cur.readSlice()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	return string(data), nil
}

// truncated maps a payload-boundary overrun onto the record-level sentinel,
// leaving every other failure untouched.
func truncated(err error) error {
	if errors.Is(err, ErrUnexpectedEnd) {
		return fmt.Errorf("%w: %v", ErrTruncatedEdit, err)
	}
	return err
}
