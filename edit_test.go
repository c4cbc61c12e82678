package manifest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeNumericEdits(t *testing.T) {
	tests := []struct {
		name string
		tag  uint64
		want Edit
	}{
		{"log number", TagLogNumber, LogNumber{Number: 42}},
		{"next file number", TagNextFileNumber, NextFileNumber{Number: 42}},
		{"last sequence", TagLastSequence, LastSequence{Sequence: 42}},
		{"prev log number", TagPrevLogNumber, PrevLogNumber{Number: 42}},
		{"min log number to keep", TagMinLogNumberToKeep, MinLogNumberToKeep{Number: 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := appendUvarint(appendUvarint(nil, tt.tag), 42)
			edits, err := decodeEdits(payload)
			if err != nil {
				t.Fatalf("decodeEdits: %v", err)
			}
			if len(edits) != 1 || edits[0] != tt.want {
				t.Errorf("got %v, want %v", edits, tt.want)
			}
		})
	}
}

func TestDecodeComparator(t *testing.T) {
	payload := appendSlice(appendUvarint(nil, TagComparator), []byte("leveldb.BytewiseComparator"))

	edits, err := decodeEdits(payload)
	if err != nil {
		t.Fatalf("decodeEdits: %v", err)
	}
	if got := edits[0].(Comparator).Name; got != "leveldb.BytewiseComparator" {
		t.Errorf("Comparator = %q", got)
	}
}

func TestDecodeComparatorInvalidUTF8(t *testing.T) {
	payload := appendSlice(appendUvarint(nil, TagComparator), []byte{0xff, 0xfe})

	if _, err := decodeEdits(payload); !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("got %v, want ErrInvalidUTF8", err)
	}
}

func TestDecodeDeletedFile(t *testing.T) {
	payload := appendUvarint(nil, TagDeletedFile)
	payload = appendUvarint(payload, 3)
	payload = appendUvarint(payload, 1234)

	edits, err := decodeEdits(payload)
	if err != nil {
		t.Fatalf("decodeEdits: %v", err)
	}
	want := DeletedFile{Level: 3, FileNumber: 1234}
	if edits[0] != want {
		t.Errorf("got %v, want %v", edits[0], want)
	}
}

func TestDecodeCompactCursor(t *testing.T) {
	payload := appendUvarint(nil, TagCompactCursor)
	payload = appendUvarint(payload, 2)
	payload = appendSlice(payload, []byte("cursor-key"))

	edits, err := decodeEdits(payload)
	if err != nil {
		t.Fatalf("decodeEdits: %v", err)
	}
	cc := edits[0].(CompactCursor)
	if cc.Level != 2 || !bytes.Equal(cc.Key, []byte("cursor-key")) {
		t.Errorf("got %+v", cc)
	}
}

func TestDecodeColumnFamilyEdits(t *testing.T) {
	var payload []byte
	payload = appendUvarint(appendUvarint(payload, TagColumnFamily), 7)
	payload = appendSlice(appendUvarint(payload, TagColumnFamilyAdd), []byte("write-heavy"))
	payload = appendUvarint(payload, TagColumnFamilyDrop)
	payload = appendUvarint(appendUvarint(payload, TagMaxColumnFamily), 9)

	edits, err := decodeEdits(payload)
	if err != nil {
		t.Fatalf("decodeEdits: %v", err)
	}
	want := []Edit{
		ColumnFamilyID{ID: 7},
		ColumnFamilyAdd{Name: "write-heavy"},
		ColumnFamilyDrop{},
		MaxColumnFamily{ID: 9},
	}
	if len(edits) != len(want) {
		t.Fatalf("got %d edits, want %d", len(edits), len(want))
	}
	for i := range want {
		if edits[i] != want[i] {
			t.Errorf("edit %d: got %v, want %v", i, edits[i], want[i])
		}
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	edits, err := decodeEdits(nil)
	if err != nil {
		t.Fatalf("decodeEdits: %v", err)
	}
	if len(edits) != 0 {
		t.Errorf("got %d edits from empty payload, want 0", len(edits))
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	payload := appendUvarint(nil, 50)

	if _, err := decodeEdits(payload); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("got %v, want ErrUnknownTag", err)
	}
}

// The three retired new-file encodings get their own error so old manifests
// are diagnosable, not just "unknown".
func TestDecodeObsoleteTags(t *testing.T) {
	for _, tag := range []uint64{TagNewFile, TagNewFile2, TagNewFile3} {
		payload := appendUvarint(nil, tag)
		if _, err := decodeEdits(payload); !errors.Is(err, ErrObsoleteTag) {
			t.Errorf("tag %d: got %v, want ErrObsoleteTag", tag, err)
		}
	}
}

func TestDecodeTruncatedField(t *testing.T) {
	// Tag announces a LogNumber, the varint never terminates.
	payload := []byte{TagLogNumber, 0x80, 0x80}

	if _, err := decodeEdits(payload); !errors.Is(err, ErrTruncatedEdit) {
		t.Errorf("got %v, want ErrTruncatedEdit", err)
	}
}

func TestDecodeTruncatedString(t *testing.T) {
	// Comparator whose length prefix overruns the payload.
	payload := append(appendUvarint(nil, TagComparator), 20, 'a', 'b')

	if _, err := decodeEdits(payload); !errors.Is(err, ErrTruncatedEdit) {
		t.Errorf("got %v, want ErrTruncatedEdit", err)
	}
}

// The concrete scenario from the format description: LogNumber, a NewFile
// with needs_compaction set, LastSequence — three edits in order, every
// other optional attribute at its default.
func TestDecodeMixedRecord(t *testing.T) {
	var payload []byte
	payload = append(payload, logNumberPayload(5)...)
	payload = append(payload, newFilePayload(custom(customNeedsCompaction, []byte{1}))...)
	payload = appendUvarint(appendUvarint(payload, TagLastSequence), 20)

	edits, err := decodeEdits(payload)
	if err != nil {
		t.Fatalf("decodeEdits: %v", err)
	}
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 3", len(edits))
	}

	if got := edits[0].(LogNumber).Number; got != 5 {
		t.Errorf("edit 0: LogNumber = %d, want 5", got)
	}
	meta := edits[1].(NewFile).Meta
	if meta.Level != 1 || meta.FileNumber != 7 || meta.FileSize != 4096 {
		t.Errorf("base fields = %d/%d/%d", meta.Level, meta.FileNumber, meta.FileSize)
	}
	if !bytes.Equal(meta.SmallestKey, []byte{0x01, 'a'}) || !bytes.Equal(meta.LargestKey, []byte{0x01, 'z'}) {
		t.Errorf("keys = %x / %x", meta.SmallestKey, meta.LargestKey)
	}
	if meta.SmallestSeqno != 10 || meta.LargestSeqno != 20 {
		t.Errorf("seqnos = %d..%d", meta.SmallestSeqno, meta.LargestSeqno)
	}
	if !meta.NeedsCompaction {
		t.Error("needs_compaction not set")
	}
	if meta.MinLogNumberToKeep != nil || meta.OldestBlobFileNumber != nil ||
		meta.Temperature != nil || meta.OldestAncestorTime != 0 ||
		meta.EpochNumber != 0 || !meta.UserDefinedTimestampsPersisted {
		t.Errorf("optional attributes not at defaults: %+v", meta)
	}
	if got := edits[2].(LastSequence).Sequence; got != 20 {
		t.Errorf("edit 2: LastSequence = %d, want 20", got)
	}
}

func TestEditStrings(t *testing.T) {
	tests := []struct {
		edit Edit
		want string
	}{
		{Comparator{Name: "bytewise"}, "Comparator: bytewise"},
		{LogNumber{Number: 12}, "LogNumber: 12"},
		{DeletedFile{Level: 2, FileNumber: 9}, "DeletedFile: level 2 file 9"},
		{ColumnFamilyDrop{}, "ColumnFamilyDrop"},
		{MaxColumnFamily{ID: 4}, "MaxColumnFamily: 4"},
	}

	for _, tt := range tests {
		if got := tt.edit.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestInternalKeyString(t *testing.T) {
	key := InternalKey([]byte{0x01, 'a', 0x00})

	s := key.String()
	if !strings.HasPrefix(s, "016100 ") {
		t.Errorf("hex part wrong: %q", s)
	}
	if !strings.HasSuffix(s, ".a.") {
		t.Errorf("ascii part wrong: %q", s)
	}
}
